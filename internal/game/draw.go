package game

import (
	"fmt"

	"github.com/youthloop/carboncity/internal/catalog"
	"github.com/youthloop/carboncity/internal/rules"
)

// Phase names as persisted in the state document.
const (
	PhaseEarly = "early"
	PhaseMid   = "mid"
	PhaseLate  = "late"
)

func phaseRank(phase string) int {
	switch phase {
	case PhaseMid:
		return 1
	case PhaseLate:
		return 2
	}
	return 0
}

// newState builds the initial state document from the balance rules and the
// current catalog generation.
func (s *Service) newState(rt *rules.RuntimeParams, bal *rules.BalanceRules) (*State, error) {
	early, err := s.catalog.ListCoreCardsByPhase(catalog.PhaseEarly)
	if err != nil {
		return nil, newError(CodeConfigUnavailable, "%v", err)
	}
	mid, _ := s.catalog.ListCoreCardsByPhase(catalog.PhaseMid)
	late, _ := s.catalog.ListCoreCardsByPhase(catalog.PhaseLate)

	init := bal.Initial
	phase := init.Phase
	if phase == "" {
		phase = PhaseEarly
	}

	st := &State{
		Turn:          1,
		Phase:         phase,
		EventCooldown: init.EventCooldown,
		Resources: Resources{
			Industry:   init.Industry,
			Tech:       init.Tech,
			Population: init.Population,
		},
		Metrics: Metrics{
			Green:          init.Green,
			Carbon:         init.Carbon,
			Satisfaction:   init.Satisfaction,
			LowCarbonScore: init.LowCarbonScore,
		},
		HandCore:       []string{},
		HandPolicy:     []string{},
		PlacedCore:     []string{},
		DiscardCore:    []string{},
		DiscardPolicy:  []string{},
		PolicyUnlocked: []string{},
		RemainingPools: RemainingPools{
			Early: append([]string(nil), early...),
			Mid:   append([]string(nil), mid...),
			Late:  append([]string(nil), late...),
		},
		CarbonTrade: CarbonTrade{Quota: clamp(init.Quota, 0, rt.MaxCarbonQuota)},
	}

	s.drawCore(st, init.DrawEarly, rt)
	if len(st.HandCore) == 0 {
		return nil, fmt.Errorf("initial draw produced an empty hand")
	}
	return st, nil
}

func (st *State) currentPool() *[]string {
	switch st.Phase {
	case PhaseMid:
		return &st.RemainingPools.Mid
	case PhaseLate:
		return &st.RemainingPools.Late
	}
	return &st.RemainingPools.Early
}

// drawCore pulls up to count cards from the current phase pool into the core
// hand. Draws stop silently at the hand limit; undrawn cards stay pooled.
// Card weights lean against whichever domain already dominates the board.
func (s *Service) drawCore(st *State, count int, rt *rules.RuntimeParams) {
	pool := st.currentPool()
	for i := 0; i < count; i++ {
		if len(*pool) == 0 || len(st.HandCore) >= rt.CoreHandLimit {
			return
		}
		idx := s.pickWeighted(st, *pool)
		st.HandCore = append(st.HandCore, (*pool)[idx])
		*pool = append((*pool)[:idx], (*pool)[idx+1:]...)
	}
}

const (
	drawWeightNormal = 100
	drawWeightHeavy  = 110
	drawWeightLight  = 90
)

// pickWeighted selects a pool index. Domains holding at least 40% of the
// board draw lighter, domains under 10% draw heavier.
func (s *Service) pickWeighted(st *State, pool []string) int {
	counts := countDomains(s.placedDefs(st))
	total := counts.industry + counts.ecology + counts.science + counts.society

	weightOf := func(id string) int {
		def, err := s.catalog.GetRequiredCard(id)
		if err != nil || total == 0 {
			return drawWeightNormal
		}
		share := counts.of(def.Domain) * 100 / total
		switch {
		case share >= 40:
			return drawWeightLight
		case share <= 10:
			return drawWeightHeavy
		default:
			return drawWeightNormal
		}
	}

	sum := 0
	weights := make([]int, len(pool))
	for i, id := range pool {
		weights[i] = weightOf(id)
		sum += weights[i]
	}
	roll := s.roll(sum)
	for i, w := range weights {
		roll -= w
		if roll < 0 {
			return i
		}
	}
	return len(pool) - 1
}

// drawCountFor returns the end-of-turn draw count for a phase.
func drawCountFor(phase string, bal *rules.BalanceRules) int {
	switch phase {
	case PhaseMid:
		return bal.Draw.CountMid
	case PhaseLate:
		return bal.Draw.CountLate
	}
	return bal.Draw.CountEarly
}

// advancePhase recomputes the phase from the balance boundaries. Phases only
// move forward; pools merge into the new phase's pool on transition.
func advancePhase(st *State, bal *rules.BalanceRules) {
	placed := len(st.PlacedCore)
	score := st.Metrics.LowCarbonScore
	remaining := len(st.RemainingPools.Early) + len(st.RemainingPools.Mid) + len(st.RemainingPools.Late)

	target := PhaseEarly
	switch {
	case (placed >= bal.Phase.LateMinCards && score >= bal.Phase.LateMinScore) ||
		remaining <= bal.Phase.LateRemainingCardsThreshold:
		target = PhaseLate
	case placed >= bal.Phase.MidMinCards || placed > bal.Phase.EarlyMaxCards || score > bal.Phase.EarlyMaxScore:
		target = PhaseMid
	}

	if phaseRank(target) <= phaseRank(st.Phase) {
		return
	}
	st.Phase = target
	switch target {
	case PhaseMid:
		st.RemainingPools.Mid = append(st.RemainingPools.Mid, st.RemainingPools.Early...)
		st.RemainingPools.Early = nil
	case PhaseLate:
		st.RemainingPools.Late = append(st.RemainingPools.Late, st.RemainingPools.Mid...)
		st.RemainingPools.Late = append(st.RemainingPools.Late, st.RemainingPools.Early...)
		st.RemainingPools.Mid = nil
		st.RemainingPools.Early = nil
	}
}
