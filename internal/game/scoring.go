package game

import (
	"github.com/youthloop/carboncity/internal/catalog"
	"github.com/youthloop/carboncity/internal/rules"
)

// computeLowCarbonScore rebuilds the low-carbon score from the current
// session. It is recomputed every settlement rather than patched
// incrementally, so a bad intermediate state never sticks.
func computeLowCarbonScore(st *State, bal *rules.BalanceRules, counts domainCounts, defs []*catalog.CardDefinition) int {
	sc := bal.Scoring
	score := len(st.PlacedCore)

	latePlaced := 0
	for _, def := range defs {
		if def.PhaseBucket == catalog.PhaseLate {
			latePlaced++
		}
	}
	score += latePlaced * sc.LatePlacedBonus

	for _, n := range []int{counts.industry, counts.ecology, counts.science, counts.society} {
		if sc.DomainThreshold > 0 && n >= sc.DomainThreshold {
			score += sc.DomainBonus
		}
	}

	score += len(st.PolicyUnlocked) * sc.PolicyUnlockScore
	if sc.PolicyUnlockAllCount > 0 && len(st.PolicyUnlocked) >= sc.PolicyUnlockAllCount {
		score += sc.PolicyUnlockAllBonus
	}

	score += st.EventStats.NegativeResolved * sc.EventResolvedScore
	score -= st.EventStats.NegativeTriggered * sc.EventTriggeredPenalty

	score += carbonTierScore(st.Metrics.Carbon, sc.CarbonTiers)

	if sc.OverLimitStreakMin > 0 && st.CarbonOverLimitStreak >= sc.OverLimitStreakMin {
		score -= sc.OverLimitStreakPenalty
	}
	if st.CarbonTrade.Profit > 0 && sc.TradeProfitDivisor > 0 {
		score += int(st.CarbonTrade.Profit/sc.TradeProfitDivisor) * sc.TradeProfitBonus
	}
	score -= st.CarbonTrade.QuotaExhaustedCount * sc.QuotaExhaustedPenalty

	return clampMin0(score)
}

// carbonTierScore maps a carbon level to the first tier it fits. A tier with
// no Max is the catch-all for everything above the banded range.
func carbonTierScore(carbon int, tiers []rules.CarbonTier) int {
	for _, tier := range tiers {
		if tier.Max == nil || carbon <= *tier.Max {
			return tier.Score
		}
	}
	return 0
}
