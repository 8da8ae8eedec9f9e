package game

import (
	"github.com/youthloop/carboncity/internal/rules"
)

const tradeHistoryLimit = 20

// runTradeWindow simulates one automated carbon-market window. The window
// profit is the realized price against the configured base price; a window
// below the loss threshold extends the loss streak.
func (s *Service) runTradeWindow(st *State, rt *rules.RuntimeParams, bal *rules.BalanceRules, bonus *settlementBonus) {
	factor := bal.Trade.RandomBaseMin + s.rollFloat()*bal.Trade.RandomSpan
	price := rt.BaseCarbonPrice * factor
	if st.Metrics.Carbon > bal.Trade.HighCarbonThreshold {
		price *= bal.Trade.HighCarbonFactor
	} else if st.Metrics.Carbon < bal.Trade.LowCarbonThreshold {
		price *= bal.Trade.LowCarbonFactor
	}
	price = round1(applyPctF(price, bonus.tradePricePct))

	net := round1(price - rt.BaseCarbonPrice)
	st.CarbonTrade.Profit = round1(st.CarbonTrade.Profit + net)
	st.CarbonTrade.LastPrice = price
	st.CarbonTrade.LastWindowTurn = st.Turn

	if net < bal.Failure.TradeProfitThreshold {
		st.CarbonTrade.LossStreak++
	} else {
		st.CarbonTrade.LossStreak = 0
	}

	st.CarbonTrade.History = append(st.CarbonTrade.History, TradeRecord{
		Turn:        st.Turn,
		Price:       price,
		Net:         net,
		ProfitAfter: st.CarbonTrade.Profit,
	})
	if len(st.CarbonTrade.History) > tradeHistoryLimit {
		st.CarbonTrade.History = st.CarbonTrade.History[len(st.CarbonTrade.History)-tradeHistoryLimit:]
	}
}
