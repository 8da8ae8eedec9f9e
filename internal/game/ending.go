package game

import (
	"github.com/youthloop/carboncity/internal/rules"
)

// evaluateEnding runs the termination check. Failure streaks end the session
// on any turn; qualification endings are only evaluated at the boundary
// (turn past maxTurn or the core pool exhausted). When several failure causes
// hold at once the most specific reason wins: high carbon, then trade, then
// low score, then the boundary default.
func (s *Service) evaluateEnding(st *State, rt *rules.RuntimeParams, bal *rules.BalanceRules, counts domainCounts) {
	if st.SessionEnded {
		return
	}
	fail := bal.Failure

	if fail.HighCarbonStreakLimit > 0 && st.HighCarbonStreak >= fail.HighCarbonStreakLimit {
		s.endWith(st, rules.EndingFailure, failureReasonHighCarbon)
		return
	}
	if fail.TradeLossStreakLimit > 0 && st.CarbonTrade.LossStreak >= fail.TradeLossStreakLimit {
		s.endWith(st, rules.EndingFailure, failureReasonTrade)
		return
	}
	if fail.QuotaExhaustedLimit > 0 && st.CarbonTrade.QuotaExhaustedCount >= fail.QuotaExhaustedLimit &&
		st.CarbonTrade.Profit < fail.TradeProfitThreshold {
		s.endWith(st, rules.EndingFailure, failureReasonTrade)
		return
	}

	remainingCore := len(st.RemainingPools.Early) + len(st.RemainingPools.Mid) +
		len(st.RemainingPools.Late) + len(st.HandCore)
	if st.Turn <= rt.MaxTurn && remainingCore > 0 {
		return
	}

	if st.Metrics.LowCarbonScore < bal.Scoring.MinForPositiveEnding {
		s.endWith(st, rules.EndingFailure, failureReasonLowScore)
		return
	}

	if id := qualifyEnding(st, bal, counts); id != "" {
		s.endWith(st, id, failureReasonNone)
		return
	}
	s.endWith(st, rules.EndingFailure, failureReasonBoundary)
}

func qualifyEnding(st *State, bal *rules.BalanceRules, counts domainCounts) string {
	end := bal.Ending
	if end.EventResolveRateRequired > 0 && st.EventStats.NegativeTriggered > 0 {
		rate := float64(st.EventStats.NegativeResolved) / float64(st.EventStats.NegativeTriggered)
		if rate < end.EventResolveRateRequired {
			return ""
		}
	}

	score := st.Metrics.LowCarbonScore
	carbon := st.Metrics.Carbon

	inn := end.Innovation
	if counts.science >= inn.MinScience &&
		st.Resources.Tech >= inn.MinTech &&
		score >= inn.MinLowCarbon &&
		carbon <= inn.MaxCarbon &&
		st.CarbonTrade.Profit >= inn.MinProfit {
		return rules.EndingInnovation
	}

	eco := end.Ecology
	if counts.ecology >= eco.MinEcology &&
		st.Metrics.Green >= eco.MinGreen &&
		score >= eco.MinLowCarbon &&
		carbon <= eco.MaxCarbon &&
		st.CarbonTrade.Quota >= eco.MinQuota {
		return rules.EndingEcology
	}

	dough := end.Doughnut
	if counts.society >= dough.MinSociety &&
		st.Metrics.Satisfaction >= dough.MinSatisfaction &&
		st.Resources.Population >= dough.MinPopulation &&
		counts.industry >= dough.MinDomain &&
		counts.ecology >= dough.MinDomain &&
		counts.science >= dough.MinDomain &&
		counts.society >= dough.MinDomain &&
		score >= dough.MinLowCarbon &&
		carbon <= dough.MaxCarbon &&
		len(st.PolicyHistory) >= dough.MinSupportPolicyUse {
		return rules.EndingDoughnut
	}

	return ""
}

type failureReason int

const (
	failureReasonNone failureReason = iota
	failureReasonHighCarbon
	failureReasonTrade
	failureReasonLowScore
	failureReasonBoundary
)

// endWith stamps the terminal outcome onto the state. Missing display content
// still yields a non-empty ending id.
func (s *Service) endWith(st *State, endingID string, reason failureReason) {
	content := s.rules.EndingContentMap()[endingID]
	ending := &Ending{
		EndingID:   endingID,
		EndingName: content.EndingName,
		ImageKey:   content.ImageKey,
		Reason:     content.DefaultReason,
		Turn:       st.Turn,
	}
	switch reason {
	case failureReasonHighCarbon:
		ending.Reason = content.FailureReasonHighCarbon
	case failureReasonTrade:
		ending.Reason = content.FailureReasonTrade
	case failureReasonLowScore:
		ending.Reason = content.FailureReasonLowScore
	case failureReasonBoundary:
		ending.Reason = content.FailureReasonBoundaryDefault
	}
	st.SessionEnded = true
	st.Ending = ending
}
