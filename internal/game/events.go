package game

import (
	"github.com/youthloop/carboncity/internal/rules"
)

// accumulateActiveEvents adds the per-turn deltas of lingering negative
// events into the settlement bonus.
func accumulateActiveEvents(st *State, bonus *settlementBonus) {
	for _, ev := range st.ActiveNegativeEvents {
		bonus.green += ev.GreenDelta
		bonus.carbon += ev.CarbonDelta
		bonus.satisfaction += ev.SatisfactionDelta
	}
}

// tickActiveEvents burns one turn off every lingering event and drops the
// expired ones.
func tickActiveEvents(st *State) {
	kept := st.ActiveNegativeEvents[:0]
	for _, ev := range st.ActiveNegativeEvents {
		ev.RemainingTurns--
		if ev.RemainingTurns > 0 {
			kept = append(kept, ev)
		}
	}
	st.ActiveNegativeEvents = kept
}

// rollEvent runs the per-turn negative event check: cooldown gate, uniform
// trigger probability, precondition filter, then a weight-proportional pick.
func (s *Service) rollEvent(st *State, rt *rules.RuntimeParams, bal *rules.BalanceRules, counts domainCounts) {
	if st.EventCooldown > 0 {
		st.EventCooldown--
		return
	}
	order := s.rules.EventRuleOrder()
	if len(order) == 0 {
		return
	}
	if s.roll(100) >= s.rules.EventTriggerProbabilityPct() {
		return
	}

	ruleMap := s.rules.EventRuleMap()
	candidates := make([]rules.EventRule, 0, len(order))
	totalWeight := 0
	for _, eventType := range order {
		rule := ruleMap[eventType]
		if !eventPreconditionsHold(st, rule) {
			continue
		}
		candidates = append(candidates, rule)
		totalWeight += eventWeight(rule)
	}
	if len(candidates) == 0 {
		return
	}

	roll := s.roll(totalWeight)
	selected := candidates[len(candidates)-1]
	for _, rule := range candidates {
		roll -= eventWeight(rule)
		if roll < 0 {
			selected = rule
			break
		}
	}

	s.applyNegativeEvent(st, rt, bal, counts, selected)
}

func eventWeight(rule rules.EventRule) int {
	if rule.Weight <= 0 {
		return 1
	}
	return rule.Weight
}

func eventPreconditionsHold(st *State, rule rules.EventRule) bool {
	if rule.MaxGreen != nil && st.Metrics.Green > *rule.MaxGreen {
		return false
	}
	if rule.MinCarbon != nil && st.Metrics.Carbon < *rule.MinCarbon {
		return false
	}
	if rule.MaxSatisfaction != nil && st.Metrics.Satisfaction > *rule.MaxSatisfaction {
		return false
	}
	if rule.MinPopulation != nil && st.Resources.Population < *rule.MinPopulation {
		return false
	}
	if rule.RequireEvenTurn && st.Turn%2 != 0 {
		return false
	}
	return true
}

// applyNegativeEvent books the event's one-shot deltas, scaled down by any
// resistance the board grants, and registers the lingering portion.
func (s *Service) applyNegativeEvent(st *State, rt *rules.RuntimeParams, bal *rules.BalanceRules, counts domainCounts, rule rules.EventRule) {
	resistance := 0
	for _, def := range s.placedDefs(st) {
		if def.Special == nil || def.Special.FloodResistancePct == 0 {
			continue
		}
		if s.specialActive(st, def.CardID, counts) {
			resistance += def.Special.FloodResistancePct
		}
	}
	if resistance > 100 {
		resistance = 100
	}

	greenDelta := applyPct(rule.GreenDelta, -resistance)
	carbonDelta := applyPct(rule.CarbonDelta, -resistance)
	satisfactionDelta := applyPct(rule.SatisfactionDelta, -resistance)

	st.Metrics.Green = clampMin0(st.Metrics.Green + greenDelta)
	st.Metrics.Carbon = clampMin0(st.Metrics.Carbon + carbonDelta)
	st.Metrics.Satisfaction = clamp(st.Metrics.Satisfaction+satisfactionDelta, 0, bal.Settlement.SatisfactionMax)
	st.CarbonTrade.Quota = clamp(st.CarbonTrade.Quota+rule.QuotaDelta, 0, rt.MaxCarbonQuota)

	st.EventHistory = append(st.EventHistory, EventRecord{
		Turn:      st.Turn,
		Kind:      EventKindNegative,
		EventType: rule.EventType,
		Detail:    rule.DisplayName,
	})
	if rule.DurationTurns > 1 {
		st.ActiveNegativeEvents = append(st.ActiveNegativeEvents, ActiveNegativeEvent{
			EventType:         rule.EventType,
			RemainingTurns:    rule.DurationTurns - 1,
			GreenDelta:        greenDelta,
			CarbonDelta:       carbonDelta,
			SatisfactionDelta: satisfactionDelta,
		})
	}
	st.EventStats.NegativeTriggered++
	st.EventCooldown = bal.Events.CooldownResetTurns
}

// resolveNegativeEvents clears every active event the given policy can
// resolve, reverting the event's one-shot deltas.
func (s *Service) resolveNegativeEvents(st *State, rt *rules.RuntimeParams, bal *rules.BalanceRules, policyID string) int {
	ruleMap := s.rules.EventRuleMap()
	resolved := 0
	kept := st.ActiveNegativeEvents[:0]
	for _, ev := range st.ActiveNegativeEvents {
		rule, ok := ruleMap[ev.EventType]
		if !ok || !contains(rule.ResolvablePolicyIDs, policyID) {
			kept = append(kept, ev)
			continue
		}
		st.Metrics.Green = clampMin0(st.Metrics.Green - ev.GreenDelta)
		st.Metrics.Carbon = clampMin0(st.Metrics.Carbon - ev.CarbonDelta)
		st.Metrics.Satisfaction = clamp(st.Metrics.Satisfaction-ev.SatisfactionDelta, 0, bal.Settlement.SatisfactionMax)
		st.EventHistory = append(st.EventHistory, EventRecord{
			Turn:      st.Turn,
			Kind:      EventKindResolved,
			EventType: ev.EventType,
			Detail:    policyID,
		})
		st.EventStats.NegativeResolved++
		resolved++
	}
	st.ActiveNegativeEvents = kept
	return resolved
}
