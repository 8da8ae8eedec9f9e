package game

import (
	"fmt"

	"github.com/youthloop/carboncity/internal/catalog"
	"github.com/youthloop/carboncity/internal/rules"
)

const (
	pointsPlaceCard = 1
	pointsUsePolicy = 2
	pointsEndTurn   = 3
)

// placeCard moves a core card from hand to the board. All preconditions are
// checked before any state is touched.
func (s *Service) placeCard(st *State, rt *rules.RuntimeParams, bal *rules.BalanceRules, cardID string) (int, string, error) {
	card, err := s.catalog.GetRequiredCard(cardID)
	if err != nil {
		return 0, "", newError(CodeUnknownCard, "%v", err)
	}
	if card.CardType != catalog.CardTypeCore {
		return 0, "", newError(CodeWrongCardType, "card %s is not a core card", cardID)
	}
	idx := indexOf(st.HandCore, cardID)
	if idx < 0 {
		return 0, "", newError(CodeCardNotInHand, "card %s is not in the core hand", cardID)
	}

	counts := countDomains(s.placedDefs(st))
	cost := s.placementCost(st, card, counts)
	if !rt.FreePlacementEnabled {
		if st.Resources.Industry < cost.Industry ||
			st.Resources.Tech < cost.Tech ||
			st.Resources.Population < cost.Population ||
			st.Metrics.Green < cost.Green {
			return 0, "", newError(CodeInsufficientFunds,
				"placing %s costs %d industry / %d tech / %d population / %d green", cardID,
				cost.Industry, cost.Tech, cost.Population, cost.Green)
		}
		st.Resources.Industry -= cost.Industry
		st.Resources.Tech -= cost.Tech
		st.Resources.Population -= cost.Population
		st.Metrics.Green -= cost.Green
	}

	st.HandCore = append(st.HandCore[:idx], st.HandCore[idx+1:]...)
	st.PlacedCore = append(st.PlacedCore, cardID)

	if card.Continuous != nil {
		applyFlatContinuous(st, rt, bal, *card.Continuous)
	}
	s.bumpDomainProgress(st, rt, card)

	return pointsPlaceCard, fmt.Sprintf("placed %s", cardID), nil
}

// placementCost applies the cost reductions granted by placed cards' special
// abilities to the card's base unlock cost.
func (s *Service) placementCost(st *State, card *catalog.CardDefinition, counts domainCounts) catalog.UnlockCost {
	cost := card.UnlockCost
	reduction := 0
	for _, def := range s.placedDefs(st) {
		if def.Special == nil || !s.specialActive(st, def.CardID, counts) {
			continue
		}
		switch card.Domain {
		case catalog.DomainEcology:
			reduction += def.Special.EcologyCostReductionPct
		case catalog.DomainScience:
			reduction += def.Special.ScienceCostReductionPct
		}
	}
	if reduction <= 0 {
		return cost
	}
	if reduction > 100 {
		reduction = 100
	}
	cost.Industry = clampMin0(applyPct(cost.Industry, -reduction))
	cost.Tech = clampMin0(applyPct(cost.Tech, -reduction))
	cost.Population = clampMin0(applyPct(cost.Population, -reduction))
	cost.Green = clampMin0(applyPct(cost.Green, -reduction))
	return cost
}

// bumpDomainProgress credits the card's domain progress, up to the per-domain
// card cap.
func (s *Service) bumpDomainProgress(st *State, rt *rules.RuntimeParams, card *catalog.CardDefinition) {
	limit := rt.DomainProgressCardCap
	if limit <= 0 {
		return
	}
	bonus := card.DomainProgressBonus
	if bonus == 0 {
		bonus = 100 / limit
	}
	counts := countDomains(s.placedDefs(st))
	bump := func(progress *int, count int) {
		if count > limit {
			return
		}
		*progress = clamp(*progress+bonus, 0, 100)
	}
	switch card.Domain {
	case catalog.DomainIndustry:
		bump(&st.DomainProgress.Industry, counts.industry)
	case catalog.DomainEcology:
		bump(&st.DomainProgress.Ecology, counts.ecology)
	case catalog.DomainScience:
		bump(&st.DomainProgress.Science, counts.science)
	case catalog.DomainSociety:
		bump(&st.DomainProgress.Society, counts.society)
	}
}

// usePolicy plays a policy card: one per turn, immediate effect now, optional
// continuous follow-up registered by group.
func (s *Service) usePolicy(st *State, rt *rules.RuntimeParams, cardID string) (int, string, error) {
	if st.PolicyUsedThisTurn {
		return 0, "", newError(CodePolicyAlreadyUsed, "a policy card was already used this turn")
	}
	card, err := s.catalog.GetRequiredCard(cardID)
	if err != nil {
		return 0, "", newError(CodeUnknownCard, "%v", err)
	}
	if card.CardType != catalog.CardTypePolicy {
		return 0, "", newError(CodeWrongCardType, "card %s is not a policy card", cardID)
	}
	if !contains(st.PolicyUnlocked, cardID) {
		return 0, "", newError(CodePolicyNotUnlocked, "policy %s is not unlocked", cardID)
	}
	idx := indexOf(st.HandPolicy, cardID)
	if idx < 0 {
		return 0, "", newError(CodeCardNotInHand, "policy %s is not in the policy hand", cardID)
	}

	bal, err := s.rules.BalanceRules()
	if err != nil {
		return 0, "", newError(CodeConfigUnavailable, "%v", err)
	}

	st.HandPolicy = append(st.HandPolicy[:idx], st.HandPolicy[idx+1:]...)
	st.DiscardPolicy = append(st.DiscardPolicy, cardID)

	if card.Immediate != nil {
		applyImmediate(st, rt, bal, *card.Immediate)
		if card.Immediate.DurationTurns > 0 {
			registerActivePolicy(st, cardID, card.Immediate.Group, card.Immediate.DurationTurns)
		}
	}
	resolved := s.resolveNegativeEvents(st, rt, bal, cardID)

	st.PolicyUsedThisTurn = true
	st.LastPolicyUsed = cardID
	st.PolicyHistory = append(st.PolicyHistory, PolicyRecord{Turn: st.Turn, PolicyID: cardID})

	msg := fmt.Sprintf("used policy %s", cardID)
	if resolved > 0 {
		msg = fmt.Sprintf("used policy %s, resolved %d event(s)", cardID, resolved)
	}
	return pointsUsePolicy, msg, nil
}

func applyImmediate(st *State, rt *rules.RuntimeParams, bal *rules.BalanceRules, e catalog.ImmediateEffect) {
	st.Resources.Industry = clampMin0(st.Resources.Industry + e.IndustryDelta)
	st.Resources.Tech = clampMin0(st.Resources.Tech + e.TechDelta)
	st.Resources.Population = clampMin0(st.Resources.Population + e.PopulationDelta)
	st.Metrics.Green = clampMin0(st.Metrics.Green + e.GreenDelta)
	st.Metrics.Carbon = clampMin0(st.Metrics.Carbon + e.CarbonDelta)
	st.Metrics.Satisfaction = clamp(st.Metrics.Satisfaction+e.SatisfactionDelta, 0, bal.Settlement.SatisfactionMax)
	st.CarbonTrade.Quota = clamp(st.CarbonTrade.Quota+e.QuotaDelta, 0, rt.MaxCarbonQuota)
}

// registerActivePolicy starts a policy's continuous follow-up. Policies in
// the same group replace each other; only the newest stays active.
func registerActivePolicy(st *State, policyID, group string, duration int) {
	if group != "" {
		kept := st.ActivePolicies[:0]
		for _, p := range st.ActivePolicies {
			if p.Group != group {
				kept = append(kept, p)
			}
		}
		st.ActivePolicies = kept
	}
	st.ActivePolicies = append(st.ActivePolicies, ActivePolicy{
		PolicyID:       policyID,
		Group:          group,
		RemainingTurns: duration,
	})
}
