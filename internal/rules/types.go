package rules

// RuntimeParams is the singleton table of hard runtime limits and toggles.
type RuntimeParams struct {
	CoreHandLimit         int
	PolicyHandLimit       int
	MaxComboPerTurn       int
	MaxTurn               int
	TradeWindowInterval   int
	BaseCarbonPrice       float64
	MaxCarbonQuota        int
	DomainProgressCardCap int
	FreePlacementEnabled  bool
}

// InitialRules seeds a fresh session state.
type InitialRules struct {
	Phase          string
	EventCooldown  int
	Industry       int
	Tech           int
	Population     int
	Green          int
	Carbon         int
	Satisfaction   int
	LowCarbonScore int
	Quota          int
	DrawEarly      int
}

// DrawRules sets per-phase draw counts at end of turn.
type DrawRules struct {
	CountEarly int
	CountMid   int
	CountLate  int
}

// SettlementRules sets the base per-turn resource gains.
type SettlementRules struct {
	BaseIndustryGain   int
	BaseTechGain       int
	BasePopulationGain int
	SatisfactionMax    int
}

// CarbonRules governs emission accounting and quota consumption.
type CarbonRules struct {
	QuotaBaseLine           int
	QuotaPerNOver           int
	IndustryEmissionPerCard int
	EcologyReductionPerCard int
	ScienceReductionPerCard int
}

// TradeRules parameterizes the automated carbon-market window.
type TradeRules struct {
	RandomBaseMin       float64
	RandomSpan          float64
	HighCarbonThreshold int
	HighCarbonFactor    float64
	LowCarbonThreshold  int
	LowCarbonFactor     float64
}

// FailureRules sets the streak limits that force a failure ending.
type FailureRules struct {
	HighCarbonThreshold   int
	HighCarbonStreakLimit int
	QuotaExhaustedLimit   int
	TradeProfitThreshold  float64
	TradeLossStreakLimit  int
}

// EventPacing controls the negative-event cadence.
type EventPacing struct {
	CooldownResetTurns int
}

// CarbonTier is one score band of the carbon tier table. A session's carbon
// level maps to the first tier whose Max is not exceeded; the last tier has
// no Max and catches everything above.
type CarbonTier struct {
	Max   *int
	Score int
}

// ScoringRules holds every delta feeding the low-carbon score.
type ScoringRules struct {
	LatePlacedBonus        int
	DomainThreshold        int
	DomainBonus            int
	PolicyUnlockScore      int
	PolicyUnlockAllCount   int
	PolicyUnlockAllBonus   int
	EventResolvedScore     int
	EventTriggeredPenalty  int
	OverLimitCarbonMin     int
	OverLimitStreakMin     int
	OverLimitStreakPenalty int
	TradeProfitDivisor     float64
	TradeProfitBonus       int
	QuotaExhaustedPenalty  int
	MinForPositiveEnding   int
	CarbonTiers            []CarbonTier
}

// PhaseRules sets the placed-card/score boundaries between phases.
type PhaseRules struct {
	EarlyMaxCards               int
	EarlyMaxScore               int
	MidMinCards                 int
	MidMaxCards                 int
	MidMinScore                 int
	MidMaxScore                 int
	LateMinCards                int
	LateMinScore                int
	LateRemainingCardsThreshold int
}

// InnovationEnding qualifies the technology-led ending.
type InnovationEnding struct {
	MinScience   int
	MinTech      int
	MinLowCarbon int
	MaxCarbon    int
	MinProfit    float64
}

// EcologyEnding qualifies the ecology-led ending.
type EcologyEnding struct {
	MinEcology   int
	MinGreen     int
	MinLowCarbon int
	MaxCarbon    int
	MinQuota     int
}

// DoughnutEnding qualifies the balanced-society ending.
type DoughnutEnding struct {
	MinSociety          int
	MinSatisfaction     int
	MinPopulation       int
	MinDomain           int
	MinLowCarbon        int
	MaxCarbon           int
	MinSupportPolicyUse int
}

// EndingRules bundles the positive-ending qualification thresholds.
type EndingRules struct {
	EventResolveRateRequired float64
	Innovation               InnovationEnding
	Ecology                  EcologyEnding
	Doughnut                 DoughnutEnding
}

// BalanceRules is the singleton balance table, grouped by concern.
type BalanceRules struct {
	Initial    InitialRules
	Draw       DrawRules
	Settlement SettlementRules
	Carbon     CarbonRules
	Trade      TradeRules
	Failure    FailureRules
	Events     EventPacing
	Scoring    ScoringRules
	Phase      PhaseRules
	Ending     EndingRules
}

// EventRule describes one negative-event type. Nil precondition fields do not
// apply. The original schema calls MaxGreen "min_green", but the comparison
// is green-at-most, so the truthful name is used here.
type EventRule struct {
	EventType             string
	TriggerProbabilityPct int
	MaxGreen              *int
	MinCarbon             *int
	MaxSatisfaction       *int
	MinPopulation         *int
	RequireEvenTurn       bool
	Weight                int
	DurationTurns         int
	GreenDelta            int
	CarbonDelta           int
	SatisfactionDelta     int
	QuotaDelta            int
	DisplayName           string
	EffectSummary         string
	ResolutionHint        string
	ResolvablePolicyIDs   []string
}

// ComboEffect is the bonus bundle a combo applies once per trigger.
type ComboEffect struct {
	IndustryDelta     int
	TechDelta         int
	PopulationDelta   int
	GreenDelta        int
	CarbonDelta       int
	SatisfactionDelta int
	QuotaDelta        int
	LowCarbonDelta    int
	TechPct           int
	PopulationPct     int
	IndustryPct       int
	LowCarbonPct      int
	GreenPct          int
	GlobalPct         int
}

// ComboRule describes one combo trigger. Rows are evaluated in stored
// (priority) order; counts are minimums over placed core cards, adjacency
// pairs are counted over consecutive board positions.
type ComboRule struct {
	ComboID                           string
	RequiredPolicyID                  string
	MinIndustry                       int
	MinEcology                        int
	MinScience                        int
	MinSociety                        int
	MinLowCarbonIndustry              int
	MinFlagshipEcology                int
	MinLinkCards                      int
	MinIndustryLowCarbonAdjacentPairs int
	MinScienceScienceAdjacentPairs    int
	MinScienceIndustryAdjacentPairs   int
	MinIndustryEcologyAdjacentPairs   int
	MinSocietyEcologyAdjacentPairs    int
	Effect                            ComboEffect
}

// PolicyUnlockRule lists the thresholds that must all hold before a policy
// becomes available to draw. Nil metric thresholds do not apply.
type PolicyUnlockRule struct {
	PolicyID            string
	MinIndustry         int
	MinEcology          int
	MinScience          int
	MinSociety          int
	MinIndustryResource int
	MinTechResource     int
	MinPopulationRes    int
	MinGreen            *int
	MinCarbon           *int
	MaxCarbon           *int
	MinSatisfaction     *int
	MinTaggedCards      int
	RequiredTag         string
}

// CoreSpecialCondition gates a core card's special ability beyond its own
// effect condition.
type CoreSpecialCondition struct {
	CardID            string
	RequiredEventType string
	MinIndustryCards  int
	MinEcologyCards   int
	MinScienceCards   int
	MinSocietyCards   int
}

// EndingContent is the display payload for one ending id.
type EndingContent struct {
	EndingID                     string
	EndingName                   string
	ImageKey                     string
	DefaultReason                string
	FailureReasonHighCarbon      string
	FailureReasonTrade           string
	FailureReasonLowScore        string
	FailureReasonBoundaryDefault string
}

// Well-known ending ids.
const (
	EndingFailure    = "failure"
	EndingInnovation = "innovation_technology"
	EndingEcology    = "ecology_priority"
	EndingDoughnut   = "doughnut_city"
)

// Well-known card tag codes.
const (
	TagLowCarbon           = "low_carbon"
	TagFlagshipEcology     = "flagship_ecology"
	TagLink                = "link"
	TagNewEnergyIndustry   = "new_energy_industry"
	TagTraditionalIndustry = "traditional_industry"
	TagNewEnergyEffect     = "new_energy_effect"
)
