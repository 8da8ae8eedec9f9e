package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youthloop/carboncity/internal/catalog"
	"github.com/youthloop/carboncity/internal/rules"
)

func withCertainEvent(fix *fixture) {
	fix.events = []rules.EventRule{{
		EventType:             "flood",
		TriggerProbabilityPct: 100,
		Weight:                1,
		DurationTurns:         2,
		GreenDelta:            -2,
		CarbonDelta:           4,
		SatisfactionDelta:     -5,
		DisplayName:           "river flood",
		ResolvablePolicyIDs:   []string{"policy001"},
	}}
}

func TestEventCooldownBlocksRoll(t *testing.T) {
	svc, _ := newTestService(t, withCertainEvent)
	ctx := context.Background()

	session, err := svc.Start(ctx, nil)
	require.NoError(t, err)
	st := liveState(t, svc, session.ID)
	st.EventCooldown = 2

	_, err = svc.PerformAction(ctx, nil, session.ID, endTurnAction())
	require.NoError(t, err)

	assert.Equal(t, 1, st.EventCooldown)
	assert.Zero(t, st.EventStats.NegativeTriggered)
}

func TestEventTriggersAndResetsCooldown(t *testing.T) {
	svc, _ := newTestService(t, withCertainEvent)
	ctx := context.Background()

	session, err := svc.Start(ctx, nil)
	require.NoError(t, err)
	st := liveState(t, svc, session.ID)
	st.EventCooldown = 0
	satisfactionBefore := st.Metrics.Satisfaction

	_, err = svc.PerformAction(ctx, nil, session.ID, endTurnAction())
	require.NoError(t, err)

	assert.Equal(t, 1, st.EventStats.NegativeTriggered)
	assert.Equal(t, 3, st.EventCooldown, "cooldown must reset after a trigger")
	assert.Equal(t, satisfactionBefore-5, st.Metrics.Satisfaction)
	require.Len(t, st.ActiveNegativeEvents, 1)
	assert.Equal(t, "flood", st.ActiveNegativeEvents[0].EventType)

	var seen bool
	for _, rec := range st.EventHistory {
		if rec.Kind == EventKindNegative && rec.EventType == "flood" {
			seen = true
		}
	}
	assert.True(t, seen)
}

func TestEventPreconditionsFilterCandidates(t *testing.T) {
	svc, _ := newTestService(t, func(fix *fixture) {
		fix.events = []rules.EventRule{{
			EventType:             "smog",
			TriggerProbabilityPct: 100,
			MinCarbon:             intPtr(50),
			CarbonDelta:           3,
		}}
	})
	ctx := context.Background()

	session, err := svc.Start(ctx, nil)
	require.NoError(t, err)
	st := liveState(t, svc, session.ID)
	st.EventCooldown = 0

	_, err = svc.PerformAction(ctx, nil, session.ID, endTurnAction())
	require.NoError(t, err)
	assert.Zero(t, st.EventStats.NegativeTriggered, "precondition must filter the event out")
}

func TestPolicyResolvesActiveEvent(t *testing.T) {
	svc, _ := newTestService(t, withCertainEvent)
	ctx := context.Background()

	session, err := svc.Start(ctx, nil)
	require.NoError(t, err)
	st := liveState(t, svc, session.ID)
	st.PolicyUnlocked = []string{"policy001"}
	st.HandPolicy = []string{"policy001"}
	st.ActiveNegativeEvents = []ActiveNegativeEvent{{
		EventType:         "flood",
		RemainingTurns:    2,
		GreenDelta:        -2,
		CarbonDelta:       4,
		SatisfactionDelta: -5,
	}}
	satisfactionBefore := st.Metrics.Satisfaction

	_, err = svc.PerformAction(ctx, nil, session.ID, policyAction("policy001"))
	require.NoError(t, err)

	assert.Empty(t, st.ActiveNegativeEvents)
	assert.Equal(t, 1, st.EventStats.NegativeResolved)
	// the resolution reverts the flood's satisfaction hit
	assert.Equal(t, satisfactionBefore+5, st.Metrics.Satisfaction)
}

func TestFloodResistanceScalesEventImpact(t *testing.T) {
	svc, _ := newTestService(t, func(fix *fixture) {
		withCertainEvent(fix)
		for i := range fix.cards {
			if fix.cards[i].CardID == "card002" {
				fix.cards[i].Special = &catalog.SpecialEffect{FloodResistancePct: 50}
			}
		}
	})
	ctx := context.Background()

	session, err := svc.Start(ctx, nil)
	require.NoError(t, err)
	st := liveState(t, svc, session.ID)
	st.EventCooldown = 0
	st.PlacedCore = []string{"card002"}
	satisfactionBefore := st.Metrics.Satisfaction

	_, err = svc.PerformAction(ctx, nil, session.ID, endTurnAction())
	require.NoError(t, err)

	require.Equal(t, 1, st.EventStats.NegativeTriggered)
	// the -5 satisfaction hit is halved by 50% resistance; the ecology
	// card's own settlement adds nothing to satisfaction
	assert.Equal(t, satisfactionBefore-2, st.Metrics.Satisfaction)
}
