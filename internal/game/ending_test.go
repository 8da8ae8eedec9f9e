package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youthloop/carboncity/internal/catalog"
	"github.com/youthloop/carboncity/internal/rules"
)

// boundaryState builds a state past the turn boundary with no failure streaks,
// so evaluateEnding goes straight to qualification.
func boundaryState() *State {
	return &State{
		Turn:    11, // fixture maxTurn is 10
		Metrics: Metrics{LowCarbonScore: 30},
	}
}

func endingRules(t *testing.T, svc *Service) (*rules.RuntimeParams, *rules.BalanceRules) {
	t.Helper()
	rt, err := svc.rules.RuntimeParams()
	require.NoError(t, err)
	bal, err := svc.rules.BalanceRules()
	require.NoError(t, err)
	return rt, bal
}

func TestEndingQualifiesInnovation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	rt, bal := endingRules(t, svc)

	st := boundaryState()
	st.Resources.Tech = 35
	st.Metrics.Carbon = 30

	svc.evaluateEnding(st, rt, bal, domainCounts{science: 3})

	require.NotNil(t, st.Ending)
	assert.True(t, st.SessionEnded)
	assert.Equal(t, rules.EndingInnovation, st.Ending.EndingID)
	assert.Equal(t, "Innovation Harbor", st.Ending.EndingName)
	assert.Equal(t, 11, st.Ending.Turn)
}

func TestEndingQualifiesEcology(t *testing.T) {
	svc, _ := newTestService(t, nil)
	rt, bal := endingRules(t, svc)

	st := boundaryState()
	st.Metrics.Green = 45
	st.Metrics.Carbon = 30
	st.CarbonTrade.Quota = 10

	// science count below the innovation minimum, so the ecology branch wins
	svc.evaluateEnding(st, rt, bal, domainCounts{ecology: 3})

	require.NotNil(t, st.Ending)
	assert.Equal(t, rules.EndingEcology, st.Ending.EndingID)
	assert.Equal(t, "Garden Commons", st.Ending.EndingName)
}

func TestEndingQualifiesDoughnut(t *testing.T) {
	svc, _ := newTestService(t, nil)
	rt, bal := endingRules(t, svc)

	st := boundaryState()
	st.Resources.Population = 35
	st.Metrics.Satisfaction = 80
	st.Metrics.Carbon = 42
	st.PolicyHistory = []PolicyRecord{
		{Turn: 4, PolicyID: "policy001"},
		{Turn: 7, PolicyID: "policy002"},
	}

	// two cards in every domain misses the innovation and ecology minimums
	// of three but clears the doughnut per-domain floor
	svc.evaluateEnding(st, rt, bal, domainCounts{industry: 2, ecology: 2, science: 2, society: 3})

	require.NotNil(t, st.Ending)
	assert.Equal(t, rules.EndingDoughnut, st.Ending.EndingID)
	assert.Equal(t, "Doughnut City", st.Ending.EndingName)
}

func TestEndingResolveRateGatesQualification(t *testing.T) {
	svc, _ := newTestService(t, nil)
	rt, bal := endingRules(t, svc)
	counts := domainCounts{science: 3}

	blocked := boundaryState()
	blocked.Resources.Tech = 35
	blocked.Metrics.Carbon = 30
	blocked.EventStats = EventStats{NegativeTriggered: 4, NegativeResolved: 1}

	svc.evaluateEnding(blocked, rt, bal, counts)

	require.NotNil(t, blocked.Ending)
	assert.Equal(t, rules.EndingFailure, blocked.Ending.EndingID,
		"a resolve rate below the requirement must block every positive ending")
	assert.Equal(t, "time ran out", blocked.Ending.Reason)

	passed := boundaryState()
	passed.Resources.Tech = 35
	passed.Metrics.Carbon = 30
	passed.EventStats = EventStats{NegativeTriggered: 4, NegativeResolved: 2}

	svc.evaluateEnding(passed, rt, bal, counts)

	require.NotNil(t, passed.Ending)
	assert.Equal(t, rules.EndingInnovation, passed.Ending.EndingID)
}

func TestBoundaryTurnReachesInnovationEnding(t *testing.T) {
	svc, _ := newTestService(t, func(fix *fixture) {
		fix.cards = append(fix.cards, catalog.CardDefinition{
			CardID:      "card031",
			CardNo:      31,
			Name:        "fusion pilot plant",
			CardType:    catalog.CardTypeCore,
			Domain:      catalog.DomainScience,
			PhaseBucket: catalog.PhaseLate,
			UnlockCost:  catalog.UnlockCost{Tech: 4},
		})
	})
	ctx := context.Background()

	session, err := svc.Start(ctx, nil)
	require.NoError(t, err)
	st := liveState(t, svc, session.ID)
	st.Turn = 10
	st.PlacedCore = []string{"card003", "card030", "card031"}
	st.PolicyUnlocked = []string{"policy001", "policy002"}
	st.Resources.Tech = 30
	st.Metrics.Carbon = 35
	st.CarbonTrade.Profit = 100

	result, err := svc.PerformAction(ctx, nil, session.ID, endTurnAction())
	require.NoError(t, err)

	assert.True(t, result.SessionEnded)
	require.NotNil(t, result.Ending)
	assert.Equal(t, rules.EndingInnovation, result.Ending.EndingID)
	assert.Equal(t, "Innovation Harbor", result.Ending.EndingName)
	assert.Equal(t, StatusEnded, result.Session.Status)
}
