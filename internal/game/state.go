package game

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of a session record.
type SessionStatus string

const (
	StatusActive SessionStatus = "active"
	StatusPaused SessionStatus = "paused"
	StatusEnded  SessionStatus = "ended"
)

// Resources are the three spendable pools.
type Resources struct {
	Industry   int `json:"industry"`
	Tech       int `json:"tech"`
	Population int `json:"population"`
}

// Metrics are the observed city indicators. Carbon and green are unbounded
// above; satisfaction is clamped to the configured range.
type Metrics struct {
	Green          int `json:"green"`
	Carbon         int `json:"carbon"`
	Satisfaction   int `json:"satisfaction"`
	LowCarbonScore int `json:"lowCarbonScore"`
}

// DomainProgress tracks per-domain development percentage, fed by placed
// cards up to the configured card cap.
type DomainProgress struct {
	Industry int `json:"industry"`
	Ecology  int `json:"ecology"`
	Science  int `json:"science"`
	Society  int `json:"society"`
}

// ActivePolicy is a policy whose continuous effect is still ticking. Only one
// policy per group may be active; using another from the same group replaces
// it.
type ActivePolicy struct {
	PolicyID       string `json:"policyId"`
	Group          string `json:"group,omitempty"`
	RemainingTurns int    `json:"remainingTurns"`
}

// ActiveNegativeEvent is a triggered event still applying its per-turn deltas.
type ActiveNegativeEvent struct {
	EventType         string `json:"eventType"`
	RemainingTurns    int    `json:"remainingTurns"`
	GreenDelta        int    `json:"greenDelta"`
	CarbonDelta       int    `json:"carbonDelta"`
	SatisfactionDelta int    `json:"satisfactionDelta"`
}

// TradeRecord is one automated carbon-market window outcome.
type TradeRecord struct {
	Turn        int     `json:"turn"`
	Price       float64 `json:"price"`
	Net         float64 `json:"net"`
	ProfitAfter float64 `json:"profitAfter"`
}

// CarbonTrade is the carbon quota and market sub-state.
type CarbonTrade struct {
	Quota               int           `json:"quota"`
	Profit              float64       `json:"profit"`
	LastPrice           float64       `json:"lastPrice"`
	LastWindowTurn      int           `json:"lastWindowTurn"`
	LastQuotaConsumed   int           `json:"lastQuotaConsumed"`
	QuotaExhaustedCount int           `json:"quotaExhaustedCount"`
	LossStreak          int           `json:"lossStreak"`
	History             []TradeRecord `json:"history,omitempty"`
}

// EventStats counts triggered and resolved negative events, for the ending
// resolve-rate check.
type EventStats struct {
	NegativeTriggered int `json:"negativeTriggered"`
	NegativeResolved  int `json:"negativeResolved"`
}

// EventRecord is one entry of the event log: negative events, quota
// shortages, policy unlocks and resolutions.
type EventRecord struct {
	Turn      int    `json:"turn"`
	Kind      string `json:"kind"`
	EventType string `json:"eventType,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// Event log kinds.
const (
	EventKindNegative      = "negative_event"
	EventKindResolved      = "event_resolved"
	EventKindQuotaShortage = "quota_shortage"
	EventKindPolicyUnlock  = "policy_unlock"
)

// ComboRecord is one combo trigger.
type ComboRecord struct {
	Turn    int    `json:"turn"`
	ComboID string `json:"comboId"`
}

// PolicyRecord is one policy card use.
type PolicyRecord struct {
	Turn     int    `json:"turn"`
	PolicyID string `json:"policyId"`
}

// SettlementRecord summarizes one end-of-turn settlement.
type SettlementRecord struct {
	Turn              int `json:"turn"`
	IndustryGain      int `json:"industryGain"`
	TechGain          int `json:"techGain"`
	PopulationGain    int `json:"populationGain"`
	GreenDelta        int `json:"greenDelta"`
	CarbonDelta       int `json:"carbonDelta"`
	SatisfactionDelta int `json:"satisfactionDelta"`
	QuotaConsumed     int `json:"quotaConsumed"`
}

// Ending is the terminal outcome, present only on ended sessions.
type Ending struct {
	EndingID   string `json:"endingId"`
	EndingName string `json:"endingName,omitempty"`
	ImageKey   string `json:"imageKey,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Turn       int    `json:"turn"`
}

// RemainingPools are the undrawn core card ids per phase bucket. Pools merge
// forward on phase transition.
type RemainingPools struct {
	Early []string `json:"early"`
	Mid   []string `json:"mid"`
	Late  []string `json:"late"`
}

// State is the full game document for one session. It is persisted as a JSONB
// column and returned to clients verbatim.
type State struct {
	Turn          int       `json:"turn"`
	Phase         string    `json:"phase"`
	Resources     Resources `json:"resources"`
	Metrics       Metrics   `json:"metrics"`
	EventCooldown int       `json:"eventCooldown"`

	HandCore       []string `json:"handCore"`
	HandPolicy     []string `json:"handPolicy"`
	PlacedCore     []string `json:"placedCore"`
	DiscardCore    []string `json:"discardCore"`
	DiscardPolicy  []string `json:"discardPolicy"`
	PolicyUnlocked []string `json:"policyUnlocked"`

	RemainingPools RemainingPools `json:"remainingPools"`

	ActivePolicies       []ActivePolicy        `json:"activePolicies"`
	ActiveNegativeEvents []ActiveNegativeEvent `json:"activeNegativeEvents"`

	CarbonTrade    CarbonTrade    `json:"carbonTrade"`
	DomainProgress DomainProgress `json:"domainProgress"`
	EventStats     EventStats     `json:"eventStats"`

	EventHistory      []EventRecord      `json:"eventHistory"`
	ComboHistory      []ComboRecord      `json:"comboHistory"`
	PolicyHistory     []PolicyRecord     `json:"policyHistory"`
	SettlementHistory []SettlementRecord `json:"settlementHistory"`

	HighCarbonStreak      int `json:"highCarbonStreak"`
	CarbonOverLimitStreak int `json:"carbonOverLimitStreak"`

	PolicyUsedThisTurn bool   `json:"policyUsedThisTurn"`
	LastPolicyUsed     string `json:"lastPolicyUsed,omitempty"`

	SessionEnded bool    `json:"sessionEnded"`
	Ending       *Ending `json:"ending,omitempty"`
}

// clone returns a deep copy of the state document.
func (s *State) clone() *State {
	out := *s
	out.HandCore = append([]string(nil), s.HandCore...)
	out.HandPolicy = append([]string(nil), s.HandPolicy...)
	out.PlacedCore = append([]string(nil), s.PlacedCore...)
	out.DiscardCore = append([]string(nil), s.DiscardCore...)
	out.DiscardPolicy = append([]string(nil), s.DiscardPolicy...)
	out.PolicyUnlocked = append([]string(nil), s.PolicyUnlocked...)
	out.RemainingPools = RemainingPools{
		Early: append([]string(nil), s.RemainingPools.Early...),
		Mid:   append([]string(nil), s.RemainingPools.Mid...),
		Late:  append([]string(nil), s.RemainingPools.Late...),
	}
	out.ActivePolicies = append([]ActivePolicy(nil), s.ActivePolicies...)
	out.ActiveNegativeEvents = append([]ActiveNegativeEvent(nil), s.ActiveNegativeEvents...)
	out.CarbonTrade.History = append([]TradeRecord(nil), s.CarbonTrade.History...)
	out.EventHistory = append([]EventRecord(nil), s.EventHistory...)
	out.ComboHistory = append([]ComboRecord(nil), s.ComboHistory...)
	out.PolicyHistory = append([]PolicyRecord(nil), s.PolicyHistory...)
	out.SettlementHistory = append([]SettlementRecord(nil), s.SettlementHistory...)
	if s.Ending != nil {
		ending := *s.Ending
		out.Ending = &ending
	}
	return &out
}

// Session wraps a state document with its ownership and scoring envelope.
// Guest sessions have a nil OwnerID and never touch the persistent store.
type Session struct {
	ID           uuid.UUID
	OwnerID      *uuid.UUID
	State        *State
	Score        int64
	Level        int
	Status       SessionStatus
	StartedAt    time.Time
	LastActionAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsGuest reports whether the session is anonymous.
func (s *Session) IsGuest() bool {
	return s.OwnerID == nil
}

// snapshot returns a detached copy of the session. The service only hands out
// snapshots, so callers may read or marshal them after the session lock is
// released while later actions mutate the live document.
func (s *Session) snapshot() *Session {
	out := *s
	if s.OwnerID != nil {
		id := *s.OwnerID
		out.OwnerID = &id
	}
	out.State = s.State.clone()
	return &out
}
