package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSource struct {
	runtime  *RuntimeParams
	balance  *BalanceRules
	events   []EventRule
	combos   []ComboRule
	unlocks  []PolicyUnlockRule
	specials []CoreSpecialCondition
	endings  []EndingContent
	tags     map[string][]string
	err      error
}

func (s *stubSource) LoadRuntimeParams(context.Context) (*RuntimeParams, error) {
	return s.runtime, s.err
}
func (s *stubSource) LoadBalanceRules(context.Context) (*BalanceRules, error) {
	return s.balance, s.err
}
func (s *stubSource) LoadEventRules(context.Context) ([]EventRule, error) { return s.events, s.err }
func (s *stubSource) LoadComboRules(context.Context) ([]ComboRule, error) { return s.combos, s.err }
func (s *stubSource) LoadPolicyUnlockRules(context.Context) ([]PolicyUnlockRule, error) {
	return s.unlocks, s.err
}
func (s *stubSource) LoadCoreSpecialConditions(context.Context) ([]CoreSpecialCondition, error) {
	return s.specials, s.err
}
func (s *stubSource) LoadEndingContents(context.Context) ([]EndingContent, error) {
	return s.endings, s.err
}
func (s *stubSource) LoadCardTags(context.Context) (map[string][]string, error) {
	return s.tags, s.err
}

func validSource() *stubSource {
	return &stubSource{
		runtime: &RuntimeParams{CoreHandLimit: 8, MaxTurn: 20},
		balance: &BalanceRules{Initial: InitialRules{Phase: "early"}},
		events: []EventRule{
			{EventType: "flood", TriggerProbabilityPct: 30, Weight: 2},
			{EventType: "smog", TriggerProbabilityPct: 30, Weight: 1},
		},
		endings: []EndingContent{{EndingID: EndingFailure}},
		tags:    map[string][]string{TagLowCarbon: {"card001"}},
	}
}

func TestReloadAndAccessors(t *testing.T) {
	store := NewStore(validSource(), zap.NewNop())
	require.NoError(t, store.Reload(context.Background()))

	rt, err := store.RuntimeParams()
	require.NoError(t, err)
	assert.Equal(t, 8, rt.CoreHandLimit)

	bal, err := store.BalanceRules()
	require.NoError(t, err)
	assert.Equal(t, "early", bal.Initial.Phase)

	assert.Equal(t, 30, store.EventTriggerProbabilityPct())
	assert.Equal(t, []string{"flood", "smog"}, store.EventRuleOrder())
	assert.Contains(t, store.EventRuleMap(), "flood")
	assert.Equal(t, []string{"card001"}, store.CardTagMap()[TagLowCarbon])
	assert.Contains(t, store.EndingContentMap(), EndingFailure)
}

func TestAccessorsFailBeforeFirstLoad(t *testing.T) {
	store := NewStore(validSource(), zap.NewNop())

	_, err := store.RuntimeParams()
	assert.Error(t, err)
	_, err = store.BalanceRules()
	assert.Error(t, err)
	assert.Nil(t, store.ListComboRules())
}

func TestReloadRequiresRuntimeSingleton(t *testing.T) {
	source := validSource()
	source.runtime = nil
	store := NewStore(source, zap.NewNop())
	assert.ErrorContains(t, store.Reload(context.Background()), "missing enabled row")
}

func TestReloadRequiresBalanceSingleton(t *testing.T) {
	source := validSource()
	source.balance = nil
	store := NewStore(source, zap.NewNop())
	assert.ErrorContains(t, store.Reload(context.Background()), "missing enabled row")
}

func TestReloadRejectsMixedEventProbabilities(t *testing.T) {
	source := validSource()
	source.events = []EventRule{
		{EventType: "flood", TriggerProbabilityPct: 30},
		{EventType: "smog", TriggerProbabilityPct: 40},
	}
	store := NewStore(source, zap.NewNop())
	assert.ErrorContains(t, store.Reload(context.Background()), "inconsistent trigger probability")
}

func TestReloadRejectsOutOfRangeProbability(t *testing.T) {
	source := validSource()
	source.events = []EventRule{{EventType: "flood", TriggerProbabilityPct: 130}}
	store := NewStore(source, zap.NewNop())
	assert.Error(t, store.Reload(context.Background()))
}

func TestReloadKeepsPreviousGenerationOnFailure(t *testing.T) {
	source := validSource()
	store := NewStore(source, zap.NewNop())
	require.NoError(t, store.Reload(context.Background()))

	source.err = errors.New("backing store down")
	assert.Error(t, store.Reload(context.Background()))

	rt, err := store.RuntimeParams()
	require.NoError(t, err)
	assert.Equal(t, 8, rt.CoreHandLimit)
}

func TestDefaultProbabilityWithoutEventRules(t *testing.T) {
	source := validSource()
	source.events = nil
	store := NewStore(source, zap.NewNop())
	require.NoError(t, store.Reload(context.Background()))
	assert.Equal(t, defaultEventProbabilityPct, store.EventTriggerProbabilityPct())
}
