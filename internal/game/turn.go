package game

import (
	"fmt"

	"github.com/youthloop/carboncity/internal/rules"
)

// endTurn resolves one full turn in a fixed order: settlement, carbon
// accounting, combos, policy unlocks, event roll, trade window, phase and
// turn advance, draw, termination check. Given the same random draws the
// whole pipeline is deterministic.
func (s *Service) endTurn(st *State, rt *rules.RuntimeParams, bal *rules.BalanceRules) (int, string, error) {
	defs := s.placedDefs(st)
	counts := countDomains(defs)

	var bonus settlementBonus
	for _, def := range defs {
		if def.Continuous == nil || def.Continuous.IsZero() {
			continue
		}
		if !s.conditionMet(st, def.Condition, counts) {
			continue
		}
		bonus.addContinuous(*def.Continuous)
	}
	for _, def := range defs {
		if def.Special == nil || !s.specialActive(st, def.CardID, counts) {
			continue
		}
		bonus.industryPct += def.Special.NewEnergyIndustryPct
		bonus.carbonSinkPerTenGreen += def.Special.CarbonSinkPerTenGreen
	}
	s.accumulateActivePolicies(st, &bonus)
	accumulateActiveEvents(st, &bonus)

	combosApplied := s.applyCombos(st, rt, defs, counts, &bonus)

	// Settlement.
	set := bal.Settlement
	industryGain := applyPct(set.BaseIndustryGain+counts.industry+bonus.industry, bonus.industryPct+bonus.globalPct)
	techGain := applyPct(set.BaseTechGain+counts.science+bonus.tech, bonus.techPct+bonus.globalPct)
	populationGain := applyPct(set.BasePopulationGain+counts.society+bonus.population, bonus.populationPct+bonus.globalPct)
	greenDelta := applyPct(counts.ecology+bonus.green, bonus.greenPct+bonus.globalPct)

	// Carbon accounting.
	carbonCfg := bal.Carbon
	industryCarbon := applyPct(counts.industry*carbonCfg.IndustryEmissionPerCard, -bonus.industryCarbonReductionPct)
	carbonDelta := industryCarbon -
		counts.ecology*carbonCfg.EcologyReductionPerCard -
		counts.science*carbonCfg.ScienceReductionPerCard +
		bonus.carbon
	if carbonDelta > 0 {
		carbonDelta = applyPct(carbonDelta, -bonus.carbonDeltaReductionPct)
	}
	if bonus.carbonSinkPerTenGreen > 0 {
		carbonDelta -= (st.Metrics.Green / 10) * bonus.carbonSinkPerTenGreen
	}

	st.Resources.Industry = clampMin0(st.Resources.Industry + industryGain)
	st.Resources.Tech = clampMin0(st.Resources.Tech + techGain)
	st.Resources.Population = clampMin0(st.Resources.Population + populationGain)
	st.Metrics.Green = clampMin0(st.Metrics.Green + greenDelta)
	st.Metrics.Carbon = clampMin0(st.Metrics.Carbon + carbonDelta)
	st.Metrics.Satisfaction = clamp(st.Metrics.Satisfaction+bonus.satisfaction, 0, set.SatisfactionMax)
	st.CarbonTrade.Quota = clamp(st.CarbonTrade.Quota+bonus.quota, 0, rt.MaxCarbonQuota)

	quotaConsumed := s.settleQuota(st, rt, bal)

	st.SettlementHistory = append(st.SettlementHistory, SettlementRecord{
		Turn:              st.Turn,
		IndustryGain:      industryGain,
		TechGain:          techGain,
		PopulationGain:    populationGain,
		GreenDelta:        greenDelta,
		CarbonDelta:       carbonDelta,
		SatisfactionDelta: bonus.satisfaction,
		QuotaConsumed:     quotaConsumed,
	})

	s.tickActivePolicies(st)

	s.resolvePolicyUnlocks(st, rt, counts)

	tickActiveEvents(st)
	s.rollEvent(st, rt, bal, counts)

	if rt.TradeWindowInterval > 0 && st.Turn%rt.TradeWindowInterval == 0 {
		s.runTradeWindow(st, rt, bal, &bonus)
	}

	// Failure streaks track the post-settlement carbon level.
	if st.Metrics.Carbon > bal.Failure.HighCarbonThreshold {
		st.HighCarbonStreak++
	} else {
		st.HighCarbonStreak = 0
	}
	if st.Metrics.Carbon > bal.Scoring.OverLimitCarbonMin {
		st.CarbonOverLimitStreak++
	} else {
		st.CarbonOverLimitStreak = 0
	}

	score := computeLowCarbonScore(st, bal, counts, defs)
	score = clampMin0(applyPct(score+bonus.lowCarbon, bonus.lowCarbonPct))
	st.Metrics.LowCarbonScore = score

	// Turn and phase advance; the phase never moves backwards.
	st.Turn++
	st.PolicyUsedThisTurn = false
	st.LastPolicyUsed = ""
	advancePhase(st, bal)

	s.drawCore(st, drawCountFor(st.Phase, bal), rt)

	s.evaluateEnding(st, rt, bal, counts)

	msg := fmt.Sprintf("turn %d resolved", st.Turn-1)
	if combosApplied > 0 {
		msg = fmt.Sprintf("turn %d resolved, %d combo(s) triggered", st.Turn-1, combosApplied)
	}
	return pointsEndTurn, msg, nil
}

// settleQuota books this turn's quota consumption from the carbon level over
// the baseline. A shortage zeroes the quota and counts toward failure.
func (s *Service) settleQuota(st *State, rt *rules.RuntimeParams, bal *rules.BalanceRules) int {
	over := st.Metrics.Carbon - bal.Carbon.QuotaBaseLine
	if over <= 0 || bal.Carbon.QuotaPerNOver <= 0 {
		st.CarbonTrade.LastQuotaConsumed = 0
		return 0
	}
	required := (over + bal.Carbon.QuotaPerNOver - 1) / bal.Carbon.QuotaPerNOver

	if st.CarbonTrade.Quota >= required {
		st.CarbonTrade.Quota -= required
		st.CarbonTrade.LastQuotaConsumed = required
		return required
	}

	consumed := st.CarbonTrade.Quota
	st.CarbonTrade.Quota = 0
	st.CarbonTrade.LastQuotaConsumed = consumed
	st.CarbonTrade.QuotaExhaustedCount++
	st.EventHistory = append(st.EventHistory, EventRecord{
		Turn:   st.Turn,
		Kind:   EventKindQuotaShortage,
		Detail: fmt.Sprintf("needed %d, had %d", required, consumed),
	})
	return consumed
}

// accumulateActivePolicies folds the continuous effect of every active
// policy into the bonus.
func (s *Service) accumulateActivePolicies(st *State, bonus *settlementBonus) {
	for _, p := range st.ActivePolicies {
		def, err := s.catalog.GetRequiredCard(p.PolicyID)
		if err != nil || def.Continuous == nil {
			continue
		}
		bonus.addContinuous(*def.Continuous)
	}
}

func (s *Service) tickActivePolicies(st *State) {
	kept := st.ActivePolicies[:0]
	for _, p := range st.ActivePolicies {
		p.RemainingTurns--
		if p.RemainingTurns > 0 {
			kept = append(kept, p)
		}
	}
	st.ActivePolicies = kept
}
