package game

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/youthloop/carboncity/internal/catalog"
	"github.com/youthloop/carboncity/internal/rules"
)

// fixture bundles the catalog and rule tables the tests load the service
// with. Tests mutate a copy before building the service.
type fixture struct {
	cards    []catalog.CardDefinition
	runtime  rules.RuntimeParams
	balance  rules.BalanceRules
	events   []rules.EventRule
	combos   []rules.ComboRule
	unlocks  []rules.PolicyUnlockRule
	specials []rules.CoreSpecialCondition
	endings  []rules.EndingContent
	tags     map[string][]string
}

func intPtr(v int) *int { return &v }

func defaultFixture() *fixture {
	industry := func(no int, id string) catalog.CardDefinition {
		return catalog.CardDefinition{
			CardID:      id,
			CardNo:      no,
			Name:        id,
			CardType:    catalog.CardTypeCore,
			Domain:      catalog.DomainIndustry,
			PhaseBucket: catalog.PhaseEarly,
			UnlockCost:  catalog.UnlockCost{Industry: 1},
		}
	}

	cards := []catalog.CardDefinition{
		{
			CardID:      "card001",
			CardNo:      1,
			Name:        "community workshop",
			CardType:    catalog.CardTypeCore,
			Domain:      catalog.DomainIndustry,
			PhaseBucket: catalog.PhaseEarly,
		},
		{
			CardID:      "card002",
			CardNo:      2,
			Name:        "urban wetland",
			CardType:    catalog.CardTypeCore,
			Domain:      catalog.DomainEcology,
			PhaseBucket: catalog.PhaseEarly,
			UnlockCost:  catalog.UnlockCost{Industry: 1},
			Continuous:  &catalog.ContinuousEffect{GreenDelta: 1},
		},
		{
			CardID:      "card003",
			CardNo:      3,
			Name:        "research lab",
			CardType:    catalog.CardTypeCore,
			Domain:      catalog.DomainScience,
			PhaseBucket: catalog.PhaseEarly,
			UnlockCost:  catalog.UnlockCost{Industry: 1},
		},
		{
			CardID:      "card004",
			CardNo:      4,
			Name:        "community center",
			CardType:    catalog.CardTypeCore,
			Domain:      catalog.DomainSociety,
			PhaseBucket: catalog.PhaseEarly,
			UnlockCost:  catalog.UnlockCost{Population: 1},
		},
		industry(5, "card005"),
		industry(6, "card006"),
		industry(7, "card007"),
		industry(8, "card008"),
		industry(9, "card009"),
		{
			CardID:      "card010",
			CardNo:      10,
			Name:        "megafactory",
			CardType:    catalog.CardTypeCore,
			Domain:      catalog.DomainIndustry,
			PhaseBucket: catalog.PhaseEarly,
			UnlockCost:  catalog.UnlockCost{Industry: 99},
		},
		{
			CardID:      "card020",
			CardNo:      20,
			Name:        "transit hub",
			CardType:    catalog.CardTypeCore,
			Domain:      catalog.DomainSociety,
			PhaseBucket: catalog.PhaseMid,
			UnlockCost:  catalog.UnlockCost{Industry: 2},
		},
		{
			CardID:      "card030",
			CardNo:      30,
			Name:        "carbon capture plant",
			CardType:    catalog.CardTypeCore,
			Domain:      catalog.DomainScience,
			PhaseBucket: catalog.PhaseLate,
			UnlockCost:  catalog.UnlockCost{Tech: 3},
		},
		{
			CardID:      "policy001",
			CardNo:      100,
			Name:        "clean energy subsidy",
			CardType:    catalog.CardTypePolicy,
			Domain:      catalog.DomainIndustry,
			PhaseBucket: catalog.PhasePolicy,
			Immediate: &catalog.ImmediateEffect{
				TechDelta:     2,
				CarbonDelta:   -3,
				Group:         "energy",
				DurationTurns: 3,
			},
		},
		{
			CardID:      "policy002",
			CardNo:      101,
			Name:        "public transit pass",
			CardType:    catalog.CardTypePolicy,
			Domain:      catalog.DomainSociety,
			PhaseBucket: catalog.PhasePolicy,
			Immediate: &catalog.ImmediateEffect{
				SatisfactionDelta: 5,
				Group:             "energy",
				DurationTurns:     2,
			},
		},
	}

	return &fixture{
		cards: cards,
		runtime: rules.RuntimeParams{
			CoreHandLimit:         8,
			PolicyHandLimit:       3,
			MaxComboPerTurn:       1,
			MaxTurn:               10,
			TradeWindowInterval:   3,
			BaseCarbonPrice:       10,
			MaxCarbonQuota:        50,
			DomainProgressCardCap: 5,
		},
		balance: rules.BalanceRules{
			Initial: rules.InitialRules{
				Phase:         PhaseEarly,
				EventCooldown: 2,
				Industry:      10,
				Tech:          10,
				Population:    10,
				Green:         5,
				Carbon:        10,
				Satisfaction:  50,
				Quota:         20,
				DrawEarly:     4,
			},
			Draw:       rules.DrawRules{CountEarly: 2, CountMid: 2, CountLate: 1},
			Settlement: rules.SettlementRules{BaseIndustryGain: 2, BaseTechGain: 1, BasePopulationGain: 1, SatisfactionMax: 100},
			Carbon: rules.CarbonRules{
				QuotaBaseLine:           30,
				QuotaPerNOver:           5,
				IndustryEmissionPerCard: 3,
				EcologyReductionPerCard: 2,
				ScienceReductionPerCard: 1,
			},
			Trade: rules.TradeRules{
				RandomBaseMin:       0.8,
				RandomSpan:          0.4,
				HighCarbonThreshold: 60,
				HighCarbonFactor:    0.8,
				LowCarbonThreshold:  20,
				LowCarbonFactor:     1.2,
			},
			Failure: rules.FailureRules{
				HighCarbonThreshold:   80,
				HighCarbonStreakLimit: 3,
				QuotaExhaustedLimit:   4,
				TradeProfitThreshold:  0,
				TradeLossStreakLimit:  3,
			},
			Events: rules.EventPacing{CooldownResetTurns: 3},
			Scoring: rules.ScoringRules{
				LatePlacedBonus:        2,
				DomainThreshold:        3,
				DomainBonus:            2,
				PolicyUnlockScore:      2,
				PolicyUnlockAllCount:   4,
				PolicyUnlockAllBonus:   5,
				EventResolvedScore:     2,
				EventTriggeredPenalty:  1,
				OverLimitCarbonMin:     60,
				OverLimitStreakMin:     3,
				OverLimitStreakPenalty: 5,
				TradeProfitDivisor:     10,
				TradeProfitBonus:       1,
				QuotaExhaustedPenalty:  2,
				MinForPositiveEnding:   5,
				CarbonTiers: []rules.CarbonTier{
					{Max: intPtr(20), Score: 10},
					{Max: intPtr(40), Score: 5},
					{Max: intPtr(60), Score: 2},
					{Score: 0},
				},
			},
			Phase: rules.PhaseRules{
				EarlyMaxCards:               4,
				EarlyMaxScore:               10,
				MidMinCards:                 5,
				MidMaxCards:                 9,
				MidMinScore:                 10,
				MidMaxScore:                 29,
				LateMinCards:                10,
				LateMinScore:                30,
				LateRemainingCardsThreshold: 2,
			},
			Ending: rules.EndingRules{
				EventResolveRateRequired: 0.5,
				Innovation:               rules.InnovationEnding{MinScience: 3, MinTech: 30, MinLowCarbon: 25, MaxCarbon: 40},
				Ecology:                  rules.EcologyEnding{MinEcology: 3, MinGreen: 40, MinLowCarbon: 25, MaxCarbon: 35, MinQuota: 5},
				Doughnut:                 rules.DoughnutEnding{MinSociety: 3, MinSatisfaction: 70, MinPopulation: 30, MinDomain: 2, MinLowCarbon: 25, MaxCarbon: 45, MinSupportPolicyUse: 2},
			},
		},
		endings: []rules.EndingContent{
			{
				EndingID:                     rules.EndingFailure,
				EndingName:                   "A City Adrift",
				DefaultReason:                "the city faltered",
				FailureReasonHighCarbon:      "carbon emissions ran unchecked",
				FailureReasonTrade:           "the carbon market collapsed",
				FailureReasonLowScore:        "the low-carbon transition stalled",
				FailureReasonBoundaryDefault: "time ran out",
			},
			{EndingID: rules.EndingInnovation, EndingName: "Innovation Harbor"},
			{EndingID: rules.EndingEcology, EndingName: "Garden Commons"},
			{EndingID: rules.EndingDoughnut, EndingName: "Doughnut City"},
		},
		tags: map[string][]string{},
	}
}

type fixtureCatalogSource struct {
	cards []catalog.CardDefinition
}

func (s fixtureCatalogSource) LoadCards(context.Context) ([]catalog.CardDefinition, error) {
	return append([]catalog.CardDefinition(nil), s.cards...), nil
}

type fixtureRuleSource struct {
	fix *fixture
}

func (s fixtureRuleSource) LoadRuntimeParams(context.Context) (*rules.RuntimeParams, error) {
	rt := s.fix.runtime
	return &rt, nil
}

func (s fixtureRuleSource) LoadBalanceRules(context.Context) (*rules.BalanceRules, error) {
	bal := s.fix.balance
	return &bal, nil
}

func (s fixtureRuleSource) LoadEventRules(context.Context) ([]rules.EventRule, error) {
	return s.fix.events, nil
}

func (s fixtureRuleSource) LoadComboRules(context.Context) ([]rules.ComboRule, error) {
	return s.fix.combos, nil
}

func (s fixtureRuleSource) LoadPolicyUnlockRules(context.Context) ([]rules.PolicyUnlockRule, error) {
	return s.fix.unlocks, nil
}

func (s fixtureRuleSource) LoadCoreSpecialConditions(context.Context) ([]rules.CoreSpecialCondition, error) {
	return s.fix.specials, nil
}

func (s fixtureRuleSource) LoadEndingContents(context.Context) ([]rules.EndingContent, error) {
	return s.fix.endings, nil
}

func (s fixtureRuleSource) LoadCardTags(context.Context) (map[string][]string, error) {
	return s.fix.tags, nil
}

// fakeStore is an in-memory SessionStore counting every port call.
type fakeStore struct {
	mu        sync.Mutex
	loadCalls int
	saveCalls int
	findCalls int
	sessions  map[uuid.UUID]*Session
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[uuid.UUID]*Session)}
}

func (f *fakeStore) Load(_ context.Context, id uuid.UUID) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadCalls++
	return f.sessions[id], nil
}

func (f *fakeStore) Save(_ context.Context, session *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeStore) FindActiveByOwner(_ context.Context, ownerID uuid.UUID) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	for _, session := range f.sessions {
		if session.OwnerID != nil && *session.OwnerID == ownerID && session.Status == StatusActive {
			return session, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadCalls + f.saveCalls + f.findCalls
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []ActionRecord
}

func (f *fakeRecorder) Record(_ context.Context, record ActionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return nil
}

// liveState returns the guest session document the service itself mutates.
// Public methods only hand out detached snapshots, so tests arranging a
// scenario reach the live document through the guest holder instead.
func liveState(t *testing.T, svc *Service, id uuid.UUID) *State {
	t.Helper()
	session := svc.guests.get(id)
	require.NotNil(t, session, "expected an in-memory guest session")
	return session.State
}

// newTestService builds a service over the fixture with a fixed random seed.
func newTestService(t *testing.T, mutate func(*fixture)) (*Service, *fakeStore) {
	t.Helper()
	fix := defaultFixture()
	if mutate != nil {
		mutate(fix)
	}

	cat := catalog.New(fixtureCatalogSource{cards: fix.cards}, zap.NewNop())
	require.NoError(t, cat.Reload(context.Background()))

	ruleStore := rules.NewStore(fixtureRuleSource{fix: fix}, zap.NewNop())
	require.NoError(t, ruleStore.Reload(context.Background()))

	store := newFakeStore()
	svc := NewService(cat, ruleStore, store, &fakeRecorder{}, zap.NewNop(),
		WithRand(rand.New(rand.NewSource(42))))
	return svc, store
}
