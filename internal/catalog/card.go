package catalog

// CardType distinguishes board cards from one-shot policy cards.
type CardType string

const (
	CardTypeCore   CardType = "core"
	CardTypePolicy CardType = "policy"
)

// PhaseBucket segments the core draw pool across the game's duration.
// Policy cards live in their own bucket and are never drawn from pools.
type PhaseBucket string

const (
	PhaseEarly  PhaseBucket = "early"
	PhaseMid    PhaseBucket = "mid"
	PhaseLate   PhaseBucket = "late"
	PhasePolicy PhaseBucket = "policy"
)

// Domain is the city sector a core card belongs to.
type Domain string

const (
	DomainIndustry Domain = "industry"
	DomainEcology  Domain = "ecology"
	DomainScience  Domain = "science"
	DomainSociety  Domain = "society"
)

// UnlockCost is the resource price of placing a core card.
type UnlockCost struct {
	Industry   int `json:"industry"`
	Tech       int `json:"tech"`
	Population int `json:"population"`
	Green      int `json:"green"`
}

// ContinuousEffect is applied every settlement for a placed core card, or for
// a policy card while its group is active. Pct fields are percentage points.
type ContinuousEffect struct {
	IndustryDelta            int `json:"industryDelta,omitempty"`
	TechDelta                int `json:"techDelta,omitempty"`
	PopulationDelta          int `json:"populationDelta,omitempty"`
	GreenDelta               int `json:"greenDelta,omitempty"`
	CarbonDelta              int `json:"carbonDelta,omitempty"`
	SatisfactionDelta        int `json:"satisfactionDelta,omitempty"`
	QuotaDelta               int `json:"quotaDelta,omitempty"`
	LowCarbonDelta           int `json:"lowCarbonDelta,omitempty"`
	IndustryPct              int `json:"industryPct,omitempty"`
	TechPct                  int `json:"techPct,omitempty"`
	PopulationPct            int `json:"populationPct,omitempty"`
	GreenPct                 int `json:"greenPct,omitempty"`
	GlobalPct                int `json:"globalPct,omitempty"`
	LowCarbonPct             int `json:"lowCarbonPct,omitempty"`
	IndustryCarbonReductPct  int `json:"industryCarbonReductionPct,omitempty"`
	CarbonDeltaReductionPct  int `json:"carbonDeltaReductionPct,omitempty"`
	TradePricePct            int `json:"tradePricePct,omitempty"`
	ComboPct                 int `json:"comboPct,omitempty"`
	NewEnergyIndustryPct     int `json:"newEnergyIndustryPct,omitempty"`
}

// IsZero reports whether the effect contributes nothing.
func (e ContinuousEffect) IsZero() bool {
	return e == ContinuousEffect{}
}

// EffectCondition gates a core card's continuous effect. All configured
// thresholds must hold for the effect to fire.
type EffectCondition struct {
	MinTurn               int    `json:"minTurn,omitempty"`
	MinIndustryResource   int    `json:"minIndustryResource,omitempty"`
	MinTechResource       int    `json:"minTechResource,omitempty"`
	MaxCarbon             *int   `json:"maxCarbon,omitempty"`
	MinIndustryCards      int    `json:"minIndustryCards,omitempty"`
	MinIndustryProgress   int    `json:"minIndustryProgressPct,omitempty"`
	MinTaggedCards        int    `json:"minTaggedCards,omitempty"`
	RequiredTag           string `json:"requiredTag,omitempty"`
}

// SpecialEffect holds the non-settlement abilities a core card may carry.
type SpecialEffect struct {
	EcologyCostReductionPct  int `json:"ecologyCardCostReductionPct,omitempty"`
	ScienceCostReductionPct  int `json:"scienceCardCostReductionPct,omitempty"`
	FloodResistancePct       int `json:"floodResistancePct,omitempty"`
	NewEnergyIndustryPct     int `json:"newEnergyIndustryPct,omitempty"`
	CarbonSinkPerTenGreen    int `json:"ecologyCarbonSinkPerTenGreen,omitempty"`
}

// ImmediateEffect is a policy card's one-shot payload. Group/DurationTurns
// describe the continuous follow-up registered when the policy is used.
type ImmediateEffect struct {
	IndustryDelta     int    `json:"industryDelta,omitempty"`
	TechDelta         int    `json:"techDelta,omitempty"`
	PopulationDelta   int    `json:"populationDelta,omitempty"`
	GreenDelta        int    `json:"greenDelta,omitempty"`
	CarbonDelta       int    `json:"carbonDelta,omitempty"`
	SatisfactionDelta int    `json:"satisfactionDelta,omitempty"`
	QuotaDelta        int    `json:"quotaDelta,omitempty"`
	Group             string `json:"group,omitempty"`
	DurationTurns     int    `json:"durationTurns,omitempty"`
}

// CardDefinition is an immutable card description loaded from the catalog
// source. Effect blocks are optional; a nil block means the card has no
// effect of that kind.
type CardDefinition struct {
	CardID              string            `json:"cardId"`
	CardNo              int               `json:"cardNo"`
	Name                string            `json:"name"`
	NameEN              string            `json:"nameEn,omitempty"`
	CardType            CardType          `json:"cardType"`
	Domain              Domain            `json:"domain"`
	PhaseBucket         PhaseBucket       `json:"phaseBucket"`
	UnlockCost          UnlockCost        `json:"unlockCost"`
	ImageKey            string            `json:"imageKey,omitempty"`
	ThumbImageKey       string            `json:"thumbImageKey,omitempty"`
	Continuous          *ContinuousEffect `json:"continuous,omitempty"`
	Condition           *EffectCondition  `json:"condition,omitempty"`
	Special             *SpecialEffect    `json:"special,omitempty"`
	Immediate           *ImmediateEffect  `json:"immediate,omitempty"`
	DomainProgressBonus int               `json:"domainProgressBonus,omitempty"`
}
