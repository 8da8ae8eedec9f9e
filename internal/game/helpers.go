package game

import (
	"math"

	"go.uber.org/zap"

	"github.com/youthloop/carboncity/internal/catalog"
	"github.com/youthloop/carboncity/internal/rules"
)

func indexOf(list []string, id string) int {
	for i, v := range list {
		if v == id {
			return i
		}
	}
	return -1
}

func contains(list []string, id string) bool {
	return indexOf(list, id) >= 0
}

func clampMin0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// applyPct scales base by pct percentage points: applyPct(10, 20) == 12.
func applyPct(base, pct int) int {
	if pct == 0 {
		return base
	}
	return base * (100 + pct) / 100
}

func applyPctF(base float64, pct int) float64 {
	if pct == 0 {
		return base
	}
	return base * float64(100+pct) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// domainCounts tallies placed core cards per domain.
type domainCounts struct {
	industry int
	ecology  int
	science  int
	society  int
}

func (c domainCounts) of(d catalog.Domain) int {
	switch d {
	case catalog.DomainIndustry:
		return c.industry
	case catalog.DomainEcology:
		return c.ecology
	case catalog.DomainScience:
		return c.science
	case catalog.DomainSociety:
		return c.society
	}
	return 0
}

func countDomains(defs []*catalog.CardDefinition) domainCounts {
	var c domainCounts
	for _, def := range defs {
		switch def.Domain {
		case catalog.DomainIndustry:
			c.industry++
		case catalog.DomainEcology:
			c.ecology++
		case catalog.DomainScience:
			c.science++
		case catalog.DomainSociety:
			c.society++
		}
	}
	return c
}

// placedDefs resolves placed card ids to definitions. Ids missing from the
// catalog (removed by an admin edit mid-session) are skipped with a warning
// rather than failing the turn.
func (s *Service) placedDefs(st *State) []*catalog.CardDefinition {
	defs := make([]*catalog.CardDefinition, 0, len(st.PlacedCore))
	for _, id := range st.PlacedCore {
		def, err := s.catalog.GetRequiredCard(id)
		if err != nil {
			s.logger.Warn("placed card missing from catalog", zap.String("card_id", id))
			continue
		}
		defs = append(defs, def)
	}
	return defs
}

// taggedSet returns the card ids carrying the given tag code.
func (s *Service) taggedSet(tag string) map[string]bool {
	ids := s.rules.CardTagMap()[tag]
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func countTagged(ids []string, set map[string]bool) int {
	n := 0
	for _, id := range ids {
		if set[id] {
			n++
		}
	}
	return n
}

// settlementBonus accumulates every effect source feeding one settlement:
// placed-card continuous effects, active policies, combos and lingering
// negative events. Flat fields are deltas, pct fields are percentage points.
type settlementBonus struct {
	industry     int
	tech         int
	population   int
	green        int
	carbon       int
	satisfaction int
	quota        int
	lowCarbon    int

	industryPct   int
	techPct       int
	populationPct int
	greenPct      int
	globalPct     int
	lowCarbonPct  int

	industryCarbonReductionPct int
	carbonDeltaReductionPct    int
	tradePricePct              int
	comboPct                   int
	carbonSinkPerTenGreen      int
}

func (b *settlementBonus) addContinuous(e catalog.ContinuousEffect) {
	b.industry += e.IndustryDelta
	b.tech += e.TechDelta
	b.population += e.PopulationDelta
	b.green += e.GreenDelta
	b.carbon += e.CarbonDelta
	b.satisfaction += e.SatisfactionDelta
	b.quota += e.QuotaDelta
	b.lowCarbon += e.LowCarbonDelta
	b.industryPct += e.IndustryPct + e.NewEnergyIndustryPct
	b.techPct += e.TechPct
	b.populationPct += e.PopulationPct
	b.greenPct += e.GreenPct
	b.globalPct += e.GlobalPct
	b.lowCarbonPct += e.LowCarbonPct
	b.industryCarbonReductionPct += e.IndustryCarbonReductPct
	b.carbonDeltaReductionPct += e.CarbonDeltaReductionPct
	b.tradePricePct += e.TradePricePct
	b.comboPct += e.ComboPct
}

// conditionMet checks a card's own effect condition against the session.
func (s *Service) conditionMet(st *State, cond *catalog.EffectCondition, counts domainCounts) bool {
	if cond == nil {
		return true
	}
	if cond.MinTurn > 0 && st.Turn < cond.MinTurn {
		return false
	}
	if cond.MinIndustryResource > 0 && st.Resources.Industry < cond.MinIndustryResource {
		return false
	}
	if cond.MinTechResource > 0 && st.Resources.Tech < cond.MinTechResource {
		return false
	}
	if cond.MaxCarbon != nil && st.Metrics.Carbon > *cond.MaxCarbon {
		return false
	}
	if cond.MinIndustryCards > 0 && counts.industry < cond.MinIndustryCards {
		return false
	}
	if cond.MinIndustryProgress > 0 && st.DomainProgress.Industry < cond.MinIndustryProgress {
		return false
	}
	if cond.MinTaggedCards > 0 {
		set := s.taggedSet(cond.RequiredTag)
		if countTagged(st.PlacedCore, set) < cond.MinTaggedCards {
			return false
		}
	}
	return true
}

// specialActive checks the configured gate for a card's special ability.
func (s *Service) specialActive(st *State, cardID string, counts domainCounts) bool {
	cond, ok := s.rules.CoreSpecialConditionMap()[cardID]
	if !ok {
		return true
	}
	if cond.RequiredEventType != "" && !hasEventOfType(st, cond.RequiredEventType) {
		return false
	}
	if counts.industry < cond.MinIndustryCards ||
		counts.ecology < cond.MinEcologyCards ||
		counts.science < cond.MinScienceCards ||
		counts.society < cond.MinSocietyCards {
		return false
	}
	return true
}

func hasEventOfType(st *State, eventType string) bool {
	for _, rec := range st.EventHistory {
		if rec.Kind == EventKindNegative && rec.EventType == eventType {
			return true
		}
	}
	return false
}

// applyFlatContinuous applies a continuous effect's flat delta fields once,
// with the usual clamps. Used at placement time.
func applyFlatContinuous(st *State, rt *rules.RuntimeParams, bal *rules.BalanceRules, e catalog.ContinuousEffect) {
	st.Resources.Industry = clampMin0(st.Resources.Industry + e.IndustryDelta)
	st.Resources.Tech = clampMin0(st.Resources.Tech + e.TechDelta)
	st.Resources.Population = clampMin0(st.Resources.Population + e.PopulationDelta)
	st.Metrics.Green = clampMin0(st.Metrics.Green + e.GreenDelta)
	st.Metrics.Carbon = clampMin0(st.Metrics.Carbon + e.CarbonDelta)
	st.Metrics.Satisfaction = clamp(st.Metrics.Satisfaction+e.SatisfactionDelta, 0, bal.Settlement.SatisfactionMax)
	st.CarbonTrade.Quota = clamp(st.CarbonTrade.Quota+e.QuotaDelta, 0, rt.MaxCarbonQuota)
	st.Metrics.LowCarbonScore = clampMin0(st.Metrics.LowCarbonScore + e.LowCarbonDelta)
}

func isPolicyActive(st *State, policyID string) bool {
	if policyID == "" {
		return false
	}
	if st.LastPolicyUsed == policyID {
		return true
	}
	for _, p := range st.ActivePolicies {
		if p.PolicyID == policyID {
			return true
		}
	}
	return false
}
