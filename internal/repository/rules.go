package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/youthloop/carboncity/internal/rules"
)

// RuleConfigRepository loads the rule configuration tables. Every query
// filters on enabled = true; disabled rows are invisible to the game core.
type RuleConfigRepository struct {
	db *DB
}

// NewRuleConfigRepository creates a repository backed by the shared pool.
func NewRuleConfigRepository(db *DB) *RuleConfigRepository {
	return &RuleConfigRepository{db: db}
}

// LoadRuntimeParams returns the enabled runtime parameter row, or (nil, nil)
// when none is enabled.
func (r *RuleConfigRepository) LoadRuntimeParams(ctx context.Context) (*rules.RuntimeParams, error) {
	row := r.db.pool.QueryRow(ctx,
		`SELECT core_hand_limit, policy_hand_limit, max_combo_per_turn, max_turn,
		        trade_window_interval, base_carbon_price, max_carbon_quota,
		        domain_progress_card_cap, free_placement_enabled
		 FROM game_runtime_params WHERE enabled ORDER BY updated_at DESC LIMIT 1`)
	var p rules.RuntimeParams
	err := row.Scan(&p.CoreHandLimit, &p.PolicyHandLimit, &p.MaxComboPerTurn,
		&p.MaxTurn, &p.TradeWindowInterval, &p.BaseCarbonPrice,
		&p.MaxCarbonQuota, &p.DomainProgressCardCap, &p.FreePlacementEnabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan runtime params: %w", err)
	}
	return &p, nil
}

// LoadBalanceRules returns the enabled balance rule row. The grouped rule
// structure lives in a JSONB payload column.
func (r *RuleConfigRepository) LoadBalanceRules(ctx context.Context) (*rules.BalanceRules, error) {
	row := r.db.pool.QueryRow(ctx,
		`SELECT payload FROM game_balance_rules WHERE enabled ORDER BY updated_at DESC LIMIT 1`)
	var payload []byte
	err := row.Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan balance rules: %w", err)
	}
	var b rules.BalanceRules
	if err := json.Unmarshal(payload, &b); err != nil {
		return nil, fmt.Errorf("decode balance rules payload: %w", err)
	}
	return &b, nil
}

// LoadEventRules returns enabled event rules in sort order.
func (r *RuleConfigRepository) LoadEventRules(ctx context.Context) ([]rules.EventRule, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT event_type, trigger_probability_pct, max_green, min_carbon,
		        max_satisfaction, min_population, require_even_turn, weight,
		        duration_turns, green_delta, carbon_delta, satisfaction_delta,
		        quota_delta, display_name, effect_summary, resolution_hint,
		        resolvable_policy_ids
		 FROM game_event_rules WHERE enabled ORDER BY sort_order, event_type`)
	if err != nil {
		return nil, fmt.Errorf("query event rules: %w", err)
	}
	defer rows.Close()

	var out []rules.EventRule
	for rows.Next() {
		var rule rules.EventRule
		if err := rows.Scan(&rule.EventType, &rule.TriggerProbabilityPct,
			&rule.MaxGreen, &rule.MinCarbon, &rule.MaxSatisfaction,
			&rule.MinPopulation, &rule.RequireEvenTurn, &rule.Weight,
			&rule.DurationTurns, &rule.GreenDelta, &rule.CarbonDelta,
			&rule.SatisfactionDelta, &rule.QuotaDelta, &rule.DisplayName,
			&rule.EffectSummary, &rule.ResolutionHint,
			&rule.ResolvablePolicyIDs); err != nil {
			return nil, fmt.Errorf("scan event rule: %w", err)
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

// LoadComboRules returns enabled combo rules in priority order. The effect
// bundle lives in a JSONB payload column.
func (r *RuleConfigRepository) LoadComboRules(ctx context.Context) ([]rules.ComboRule, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT combo_id, required_policy_id, min_industry, min_ecology,
		        min_science, min_society, min_low_carbon_industry,
		        min_flagship_ecology, min_link_cards,
		        min_industry_low_carbon_pairs, min_science_science_pairs,
		        min_science_industry_pairs, min_industry_ecology_pairs,
		        min_society_ecology_pairs, effect
		 FROM game_combo_rules WHERE enabled ORDER BY priority, combo_id`)
	if err != nil {
		return nil, fmt.Errorf("query combo rules: %w", err)
	}
	defer rows.Close()

	var out []rules.ComboRule
	for rows.Next() {
		var (
			rule   rules.ComboRule
			effect []byte
		)
		if err := rows.Scan(&rule.ComboID, &rule.RequiredPolicyID,
			&rule.MinIndustry, &rule.MinEcology, &rule.MinScience,
			&rule.MinSociety, &rule.MinLowCarbonIndustry,
			&rule.MinFlagshipEcology, &rule.MinLinkCards,
			&rule.MinIndustryLowCarbonAdjacentPairs,
			&rule.MinScienceScienceAdjacentPairs,
			&rule.MinScienceIndustryAdjacentPairs,
			&rule.MinIndustryEcologyAdjacentPairs,
			&rule.MinSocietyEcologyAdjacentPairs, &effect); err != nil {
			return nil, fmt.Errorf("scan combo rule: %w", err)
		}
		if err := json.Unmarshal(effect, &rule.Effect); err != nil {
			return nil, fmt.Errorf("decode combo effect %s: %w", rule.ComboID, err)
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

// LoadPolicyUnlockRules returns enabled policy unlock rules.
func (r *RuleConfigRepository) LoadPolicyUnlockRules(ctx context.Context) ([]rules.PolicyUnlockRule, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT policy_id, min_industry, min_ecology, min_science, min_society,
		        min_industry_resource, min_tech_resource, min_population_resource,
		        min_green, min_carbon, max_carbon, min_satisfaction,
		        min_tagged_cards, required_tag
		 FROM game_policy_unlock_rules WHERE enabled ORDER BY policy_id`)
	if err != nil {
		return nil, fmt.Errorf("query policy unlock rules: %w", err)
	}
	defer rows.Close()

	var out []rules.PolicyUnlockRule
	for rows.Next() {
		var rule rules.PolicyUnlockRule
		if err := rows.Scan(&rule.PolicyID, &rule.MinIndustry, &rule.MinEcology,
			&rule.MinScience, &rule.MinSociety, &rule.MinIndustryResource,
			&rule.MinTechResource, &rule.MinPopulationRes, &rule.MinGreen,
			&rule.MinCarbon, &rule.MaxCarbon, &rule.MinSatisfaction,
			&rule.MinTaggedCards, &rule.RequiredTag); err != nil {
			return nil, fmt.Errorf("scan policy unlock rule: %w", err)
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

// LoadCoreSpecialConditions returns enabled special-ability gates.
func (r *RuleConfigRepository) LoadCoreSpecialConditions(ctx context.Context) ([]rules.CoreSpecialCondition, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT card_id, required_event_type, min_industry_cards,
		        min_ecology_cards, min_science_cards, min_society_cards
		 FROM game_core_special_conditions WHERE enabled ORDER BY card_id`)
	if err != nil {
		return nil, fmt.Errorf("query core special conditions: %w", err)
	}
	defer rows.Close()

	var out []rules.CoreSpecialCondition
	for rows.Next() {
		var cond rules.CoreSpecialCondition
		if err := rows.Scan(&cond.CardID, &cond.RequiredEventType,
			&cond.MinIndustryCards, &cond.MinEcologyCards,
			&cond.MinScienceCards, &cond.MinSocietyCards); err != nil {
			return nil, fmt.Errorf("scan core special condition: %w", err)
		}
		out = append(out, cond)
	}
	return out, rows.Err()
}

// LoadEndingContents returns enabled ending display payloads.
func (r *RuleConfigRepository) LoadEndingContents(ctx context.Context) ([]rules.EndingContent, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT ending_id, ending_name, image_key, default_reason,
		        failure_reason_high_carbon, failure_reason_trade,
		        failure_reason_low_score, failure_reason_boundary
		 FROM game_ending_contents WHERE enabled ORDER BY ending_id`)
	if err != nil {
		return nil, fmt.Errorf("query ending contents: %w", err)
	}
	defer rows.Close()

	var out []rules.EndingContent
	for rows.Next() {
		var ending rules.EndingContent
		if err := rows.Scan(&ending.EndingID, &ending.EndingName,
			&ending.ImageKey, &ending.DefaultReason,
			&ending.FailureReasonHighCarbon, &ending.FailureReasonTrade,
			&ending.FailureReasonLowScore,
			&ending.FailureReasonBoundaryDefault); err != nil {
			return nil, fmt.Errorf("scan ending content: %w", err)
		}
		out = append(out, ending)
	}
	return out, rows.Err()
}

// LoadCardTags returns enabled tag rows grouped by tag code.
func (r *RuleConfigRepository) LoadCardTags(ctx context.Context) (map[string][]string, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT tag_code, card_id FROM game_card_tags WHERE enabled ORDER BY tag_code, card_id`)
	if err != nil {
		return nil, fmt.Errorf("query card tags: %w", err)
	}
	defer rows.Close()

	tags := make(map[string][]string)
	for rows.Next() {
		var tag, cardID string
		if err := rows.Scan(&tag, &cardID); err != nil {
			return nil, fmt.Errorf("scan card tag: %w", err)
		}
		tags[tag] = append(tags[tag], cardID)
	}
	return tags, rows.Err()
}
