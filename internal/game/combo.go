package game

import (
	"github.com/youthloop/carboncity/internal/catalog"
	"github.com/youthloop/carboncity/internal/rules"
)

// applyCombos evaluates combo rules in priority order and folds the effects
// of the first maxComboPerTurn matches into the settlement bonus. A combo
// already recorded for the current turn never fires twice.
func (s *Service) applyCombos(st *State, rt *rules.RuntimeParams, defs []*catalog.CardDefinition, counts domainCounts, bonus *settlementBonus) int {
	applied := 0
	pairs := countAdjacentPairs(defs, s.taggedSet(rules.TagLowCarbon))
	lowCarbonIndustry := s.countPlacedWithTag(defs, catalog.DomainIndustry, rules.TagLowCarbon)
	flagshipEcology := s.countPlacedWithTag(defs, catalog.DomainEcology, rules.TagFlagshipEcology)
	linkSet := s.taggedSet(rules.TagLink)
	linkCards := countTagged(st.PlacedCore, linkSet)

	for _, rule := range s.rules.ListComboRules() {
		if applied >= rt.MaxComboPerTurn {
			break
		}
		if comboRecordedThisTurn(st, rule.ComboID) {
			continue
		}
		if !comboMatches(st, rule, counts, pairs, lowCarbonIndustry, flagshipEcology, linkCards) {
			continue
		}
		foldComboEffect(bonus, rule.Effect)
		st.ComboHistory = append(st.ComboHistory, ComboRecord{Turn: st.Turn, ComboID: rule.ComboID})
		applied++
	}
	return applied
}

func comboRecordedThisTurn(st *State, comboID string) bool {
	for _, rec := range st.ComboHistory {
		if rec.Turn == st.Turn && rec.ComboID == comboID {
			return true
		}
	}
	return false
}

func comboMatches(st *State, rule rules.ComboRule, counts domainCounts, pairs adjacentPairs, lowCarbonIndustry, flagshipEcology, linkCards int) bool {
	if rule.RequiredPolicyID != "" && !isPolicyActive(st, rule.RequiredPolicyID) {
		return false
	}
	if counts.industry < rule.MinIndustry ||
		counts.ecology < rule.MinEcology ||
		counts.science < rule.MinScience ||
		counts.society < rule.MinSociety {
		return false
	}
	if lowCarbonIndustry < rule.MinLowCarbonIndustry ||
		flagshipEcology < rule.MinFlagshipEcology ||
		linkCards < rule.MinLinkCards {
		return false
	}
	if pairs.industryLowCarbon < rule.MinIndustryLowCarbonAdjacentPairs ||
		pairs.scienceScience < rule.MinScienceScienceAdjacentPairs ||
		pairs.scienceIndustry < rule.MinScienceIndustryAdjacentPairs ||
		pairs.industryEcology < rule.MinIndustryEcologyAdjacentPairs ||
		pairs.societyEcology < rule.MinSocietyEcologyAdjacentPairs {
		return false
	}
	return true
}

func (s *Service) countPlacedWithTag(defs []*catalog.CardDefinition, domain catalog.Domain, tag string) int {
	set := s.taggedSet(tag)
	n := 0
	for _, def := range defs {
		if def.Domain == domain && set[def.CardID] {
			n++
		}
	}
	return n
}

// adjacentPairs tallies the pair kinds found at consecutive board positions.
type adjacentPairs struct {
	industryLowCarbon int
	scienceScience    int
	scienceIndustry   int
	industryEcology   int
	societyEcology    int
}

func countAdjacentPairs(defs []*catalog.CardDefinition, lowCarbon map[string]bool) adjacentPairs {
	var pairs adjacentPairs
	for i := 0; i+1 < len(defs); i++ {
		a, b := defs[i], defs[i+1]
		if a.Domain == catalog.DomainIndustry && b.Domain == catalog.DomainIndustry &&
			lowCarbon[a.CardID] && lowCarbon[b.CardID] {
			pairs.industryLowCarbon++
		}
		if a.Domain == catalog.DomainScience && b.Domain == catalog.DomainScience {
			pairs.scienceScience++
		}
		if pairOf(a, b, catalog.DomainScience, catalog.DomainIndustry) {
			pairs.scienceIndustry++
		}
		if pairOf(a, b, catalog.DomainIndustry, catalog.DomainEcology) {
			pairs.industryEcology++
		}
		if pairOf(a, b, catalog.DomainSociety, catalog.DomainEcology) {
			pairs.societyEcology++
		}
	}
	return pairs
}

func pairOf(a, b *catalog.CardDefinition, d1, d2 catalog.Domain) bool {
	return (a.Domain == d1 && b.Domain == d2) || (a.Domain == d2 && b.Domain == d1)
}

// foldComboEffect adds one combo's bundle into the settlement bonus. The
// comboPct modifier granted by placed cards scales the flat deltas.
func foldComboEffect(bonus *settlementBonus, e rules.ComboEffect) {
	pct := bonus.comboPct
	bonus.industry += applyPct(e.IndustryDelta, pct)
	bonus.tech += applyPct(e.TechDelta, pct)
	bonus.population += applyPct(e.PopulationDelta, pct)
	bonus.green += applyPct(e.GreenDelta, pct)
	bonus.carbon += e.CarbonDelta
	bonus.satisfaction += applyPct(e.SatisfactionDelta, pct)
	bonus.quota += e.QuotaDelta
	bonus.lowCarbon += applyPct(e.LowCarbonDelta, pct)
	bonus.industryPct += e.IndustryPct
	bonus.techPct += e.TechPct
	bonus.populationPct += e.PopulationPct
	bonus.greenPct += e.GreenPct
	bonus.globalPct += e.GlobalPct
	bonus.lowCarbonPct += e.LowCarbonPct
}
