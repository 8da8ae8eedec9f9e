package rules

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

// Source loads the rule configuration tables from a backing store. Every call
// returns only enabled rows.
type Source interface {
	LoadRuntimeParams(ctx context.Context) (*RuntimeParams, error)
	LoadBalanceRules(ctx context.Context) (*BalanceRules, error)
	LoadEventRules(ctx context.Context) ([]EventRule, error)
	LoadComboRules(ctx context.Context) ([]ComboRule, error)
	LoadPolicyUnlockRules(ctx context.Context) ([]PolicyUnlockRule, error)
	LoadCoreSpecialConditions(ctx context.Context) ([]CoreSpecialCondition, error)
	LoadEndingContents(ctx context.Context) ([]EndingContent, error)
	LoadCardTags(ctx context.Context) (map[string][]string, error)
}

// generation is one consistent rule set. A turn resolution reads from exactly
// one generation; Reload swaps the pointer only after every table validated.
type generation struct {
	runtime          *RuntimeParams
	balance          *BalanceRules
	comboRules       []ComboRule
	eventRules       map[string]EventRule
	eventOrder       []string
	eventProbability int
	policyUnlocks    []PolicyUnlockRule
	coreSpecial      map[string]CoreSpecialCondition
	endingContents   map[string]EndingContent
	cardTags         map[string][]string
}

// Store caches the rule configuration tables as one atomically swapped
// generation.
type Store struct {
	source Source
	logger *zap.Logger
	gen    atomic.Pointer[generation]
}

// NewStore creates an empty store. Reload must succeed before accessors work.
func NewStore(source Source, logger *zap.Logger) *Store {
	return &Store{source: source, logger: logger}
}

// Reload loads every table, validates the cross-table invariants and swaps
// them in as one generation. On failure the previous generation keeps
// serving.
func (s *Store) Reload(ctx context.Context) error {
	runtime, err := s.source.LoadRuntimeParams(ctx)
	if err != nil {
		return fmt.Errorf("load runtime params: %w", err)
	}
	if runtime == nil {
		return fmt.Errorf("load runtime params: missing enabled row")
	}
	balance, err := s.source.LoadBalanceRules(ctx)
	if err != nil {
		return fmt.Errorf("load balance rules: %w", err)
	}
	if balance == nil {
		return fmt.Errorf("load balance rules: missing enabled row")
	}
	eventRules, err := s.source.LoadEventRules(ctx)
	if err != nil {
		return fmt.Errorf("load event rules: %w", err)
	}
	comboRules, err := s.source.LoadComboRules(ctx)
	if err != nil {
		return fmt.Errorf("load combo rules: %w", err)
	}
	policyUnlocks, err := s.source.LoadPolicyUnlockRules(ctx)
	if err != nil {
		return fmt.Errorf("load policy unlock rules: %w", err)
	}
	coreSpecial, err := s.source.LoadCoreSpecialConditions(ctx)
	if err != nil {
		return fmt.Errorf("load core special conditions: %w", err)
	}
	endings, err := s.source.LoadEndingContents(ctx)
	if err != nil {
		return fmt.Errorf("load ending contents: %w", err)
	}
	cardTags, err := s.source.LoadCardTags(ctx)
	if err != nil {
		return fmt.Errorf("load card tags: %w", err)
	}

	gen := &generation{
		runtime:          runtime,
		balance:          balance,
		comboRules:       comboRules,
		eventRules:       make(map[string]EventRule, len(eventRules)),
		policyUnlocks:    policyUnlocks,
		coreSpecial:      make(map[string]CoreSpecialCondition, len(coreSpecial)),
		endingContents:   make(map[string]EndingContent, len(endings)),
		cardTags:         cardTags,
		eventProbability: defaultEventProbabilityPct,
	}

	probability := -1
	for _, rule := range eventRules {
		if rule.TriggerProbabilityPct < 0 || rule.TriggerProbabilityPct > 100 {
			return fmt.Errorf("event rule %s: trigger probability %d out of range", rule.EventType, rule.TriggerProbabilityPct)
		}
		if probability == -1 {
			probability = rule.TriggerProbabilityPct
		} else if probability != rule.TriggerProbabilityPct {
			return fmt.Errorf("inconsistent trigger probability across enabled event rules: %d vs %d",
				probability, rule.TriggerProbabilityPct)
		}
		gen.eventRules[rule.EventType] = rule
		gen.eventOrder = append(gen.eventOrder, rule.EventType)
	}
	if probability >= 0 {
		gen.eventProbability = probability
	}
	for _, cond := range coreSpecial {
		gen.coreSpecial[cond.CardID] = cond
	}
	for _, ending := range endings {
		gen.endingContents[ending.EndingID] = ending
	}

	s.gen.Store(gen)
	s.logger.Info("rule configuration loaded",
		zap.Int("combo_rules", len(comboRules)),
		zap.Int("event_rules", len(eventRules)),
		zap.Int("policy_unlock_rules", len(policyUnlocks)),
		zap.Int("ending_contents", len(endings)),
	)
	return nil
}

const defaultEventProbabilityPct = 30

func (s *Store) current() (*generation, error) {
	gen := s.gen.Load()
	if gen == nil {
		return nil, fmt.Errorf("rule configuration is not loaded")
	}
	return gen, nil
}

// RuntimeParams returns the singleton runtime parameter row. An error here is
// a bootstrap failure, not a per-action condition.
func (s *Store) RuntimeParams() (*RuntimeParams, error) {
	gen, err := s.current()
	if err != nil {
		return nil, err
	}
	return gen.runtime, nil
}

// BalanceRules returns the singleton balance rule row.
func (s *Store) BalanceRules() (*BalanceRules, error) {
	gen, err := s.current()
	if err != nil {
		return nil, err
	}
	return gen.balance, nil
}

// ListComboRules returns combo rules in priority order.
func (s *Store) ListComboRules() []ComboRule {
	if gen := s.gen.Load(); gen != nil {
		return gen.comboRules
	}
	return nil
}

// EventRuleMap returns event rules keyed by event type.
func (s *Store) EventRuleMap() map[string]EventRule {
	if gen := s.gen.Load(); gen != nil {
		return gen.eventRules
	}
	return nil
}

// EventRuleOrder returns event types in stored order, for deterministic
// candidate iteration.
func (s *Store) EventRuleOrder() []string {
	if gen := s.gen.Load(); gen != nil {
		return gen.eventOrder
	}
	return nil
}

// EventTriggerProbabilityPct returns the uniform trigger probability.
func (s *Store) EventTriggerProbabilityPct() int {
	if gen := s.gen.Load(); gen != nil {
		return gen.eventProbability
	}
	return defaultEventProbabilityPct
}

// CardTagMap returns tag code -> card ids.
func (s *Store) CardTagMap() map[string][]string {
	if gen := s.gen.Load(); gen != nil {
		return gen.cardTags
	}
	return nil
}

// ListPolicyUnlockRules returns the policy unlock threshold rules.
func (s *Store) ListPolicyUnlockRules() []PolicyUnlockRule {
	if gen := s.gen.Load(); gen != nil {
		return gen.policyUnlocks
	}
	return nil
}

// CoreSpecialConditionMap returns special-ability gates keyed by card id.
func (s *Store) CoreSpecialConditionMap() map[string]CoreSpecialCondition {
	if gen := s.gen.Load(); gen != nil {
		return gen.coreSpecial
	}
	return nil
}

// EndingContentMap returns ending display payloads keyed by ending id.
func (s *Store) EndingContentMap() map[string]EndingContent {
	if gen := s.gen.Load(); gen != nil {
		return gen.endingContents
	}
	return nil
}
