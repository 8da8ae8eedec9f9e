package game

import (
	"github.com/youthloop/carboncity/internal/rules"
)

// resolvePolicyUnlocks tests every locked policy-unlock rule against the
// session. Newly unlocked policies get one instance seeded into the policy
// hand while it has room.
func (s *Service) resolvePolicyUnlocks(st *State, rt *rules.RuntimeParams, counts domainCounts) {
	for _, rule := range s.rules.ListPolicyUnlockRules() {
		if contains(st.PolicyUnlocked, rule.PolicyID) {
			continue
		}
		if !unlockThresholdsMet(s, st, rule, counts) {
			continue
		}
		st.PolicyUnlocked = append(st.PolicyUnlocked, rule.PolicyID)
		if len(st.HandPolicy) < rt.PolicyHandLimit {
			st.HandPolicy = append(st.HandPolicy, rule.PolicyID)
		}
		st.EventHistory = append(st.EventHistory, EventRecord{
			Turn:   st.Turn,
			Kind:   EventKindPolicyUnlock,
			Detail: rule.PolicyID,
		})
	}
}

func unlockThresholdsMet(s *Service, st *State, rule rules.PolicyUnlockRule, counts domainCounts) bool {
	if counts.industry < rule.MinIndustry ||
		counts.ecology < rule.MinEcology ||
		counts.science < rule.MinScience ||
		counts.society < rule.MinSociety {
		return false
	}
	if st.Resources.Industry < rule.MinIndustryResource ||
		st.Resources.Tech < rule.MinTechResource ||
		st.Resources.Population < rule.MinPopulationRes {
		return false
	}
	if rule.MinGreen != nil && st.Metrics.Green < *rule.MinGreen {
		return false
	}
	if rule.MinCarbon != nil && st.Metrics.Carbon < *rule.MinCarbon {
		return false
	}
	if rule.MaxCarbon != nil && st.Metrics.Carbon > *rule.MaxCarbon {
		return false
	}
	if rule.MinSatisfaction != nil && st.Metrics.Satisfaction < *rule.MinSatisfaction {
		return false
	}
	if rule.MinTaggedCards > 0 {
		set := s.taggedSet(rule.RequiredTag)
		if countTagged(st.PlacedCore, set) < rule.MinTaggedCards {
			return false
		}
	}
	return true
}
