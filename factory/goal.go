/*
Package factory provides JSON to Go goal-document conversion.

PURPOSE:
  Converts JSON goal definitions into engine.GoalParameters and the
  per-agent target distribution. This enables goal configuration without
  code changes - franchise owners define next month's goals in JSON from
  the admin UI, and the factory creates the proper Go structs.

WHY JSON?
  - Non-developers can set monthly goals
  - Easy integration with the admin UI
  - Database storage of goal configs

CURRENCY FIELDS:
  Reference value and floor guarantees arrive as pt-BR currency strings
  ("R$ 1.200,00") because that is what the owners type. The factory
  routes them through money.Parse; unparseable text becomes zero,
  matching the codec's forgiving contract.

JSON SCHEMA:
  {
    "franchise_id": "fr-sp",
    "month": "2025-07",
    "target_activations": "50",
    "target_migration_rate": "0.8",
    "target_tpv": "R$ 100.000,00",
    "weights": {"activation": 30, "migration": 30, "tpv": 40},
    "gates": {"activation": 80, "migration": 80, "tpv": 80},
    "reference_value": "R$ 1.200,00",
    "floors": {"month_1": "R$ 900,00", "month_2": "R$ 700,00", "month_3": "R$ 500,00"},
    "distribution": {
      "ag-1": {"activations": "10", "migration_rate": "0.8", "tpv": "R$ 20.000,00"}
    }
  }

VALIDATION:
  - Pillar weights must sum to exactly 100
  - Gates must lie in [0, 100]
  - Targets, reference value, and floors must be non-negative
  Violations surface as engine.InvalidInputError so the API layer maps
  them to one error family.

SEE ALSO:
  - engine/types.go: GoalParameters definition
  - money/money.go: pt-BR currency codec
  - store/store.go: GoalDocument persistence shape
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vendaforte/rv-engine/engine"
	"github.com/vendaforte/rv-engine/money"
	"github.com/vendaforte/rv-engine/store"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// GoalJSON is the JSON representation of a monthly goal document.
type GoalJSON struct {
	FranchiseID         string                 `json:"franchise_id"`
	Month               string                 `json:"month"` // "YYYY-MM"
	TargetActivations   string                 `json:"target_activations"`
	TargetMigrationRate string                 `json:"target_migration_rate"`
	TargetTPV           string                 `json:"target_tpv"` // pt-BR currency
	Weights             PillarJSON             `json:"weights"`
	Gates               PillarJSON             `json:"gates"`
	ReferenceValue      string                 `json:"reference_value"` // pt-BR currency
	Floors              FloorsJSON             `json:"floors"`
	Distribution        map[string]TargetsJSON `json:"distribution,omitempty"`
}

// PillarJSON holds one percentage per pillar.
type PillarJSON struct {
	Activation float64 `json:"activation"`
	Migration  float64 `json:"migration"`
	TPV        float64 `json:"tpv"`
}

// FloorsJSON holds the tenure-ramped floor guarantees, pt-BR currency.
type FloorsJSON struct {
	Month1 string `json:"month_1"`
	Month2 string `json:"month_2"`
	Month3 string `json:"month_3"`
}

// TargetsJSON is one agent's share of the franchise goal.
type TargetsJSON struct {
	Activations   string `json:"activations"`
	MigrationRate string `json:"migration_rate"`
	TPV           string `json:"tpv"` // pt-BR currency
}

// =============================================================================
// GOAL FACTORY
// =============================================================================

// GoalFactory converts JSON goal documents to Go structs.
type GoalFactory struct{}

// NewGoalFactory creates a new goal factory.
func NewGoalFactory() *GoalFactory {
	return &GoalFactory{}
}

// ParseGoal parses a JSON string into a store.GoalDocument.
func (f *GoalFactory) ParseGoal(jsonStr string) (*store.GoalDocument, error) {
	var gj GoalJSON
	if err := json.Unmarshal([]byte(jsonStr), &gj); err != nil {
		return nil, fmt.Errorf("failed to parse goal JSON: %w", err)
	}
	return f.FromJSON(gj)
}

// FromJSON converts GoalJSON to a store.GoalDocument.
func (f *GoalFactory) FromJSON(gj GoalJSON) (*store.GoalDocument, error) {
	m, err := engine.ParseMonth(gj.Month)
	if err != nil {
		return nil, &engine.InvalidInputError{Field: "month", Detail: err.Error()}
	}
	if gj.FranchiseID == "" {
		return nil, &engine.InvalidInputError{Field: "franchise_id", Detail: "must not be empty"}
	}

	params := engine.GoalParameters{
		Month:            m,
		ActivationTarget: parseNumber(gj.TargetActivations),
		MigrationTarget:  parseNumber(gj.TargetMigrationRate),
		TPVTarget:        money.Parse(gj.TargetTPV),
		Weights:          pillarValues(gj.Weights),
		Gates:            pillarValues(gj.Gates),
		ReferenceValue:   money.Parse(gj.ReferenceValue),
		FloorMonth1:      money.Parse(gj.Floors.Month1),
		FloorMonth2:      money.Parse(gj.Floors.Month2),
		FloorMonth3:      money.Parse(gj.Floors.Month3),
	}

	if err := validateParams(params); err != nil {
		return nil, err
	}

	dist := make(map[engine.AgentID]engine.IndividualTargets, len(gj.Distribution))
	for agentID, tj := range gj.Distribution {
		if agentID == "" {
			return nil, &engine.InvalidInputError{Field: "distribution", Detail: "empty agent id"}
		}
		targets := engine.IndividualTargets{
			Activation: parseNumber(tj.Activations),
			Migration:  parseNumber(tj.MigrationRate),
			TPV:        money.Parse(tj.TPV),
		}
		if err := validateTargets(agentID, targets); err != nil {
			return nil, err
		}
		dist[engine.AgentID(agentID)] = targets
	}

	return &store.GoalDocument{
		FranchiseID:  engine.FranchiseID(gj.FranchiseID),
		Month:        m,
		Params:       params,
		Distribution: dist,
	}, nil
}

// ToJSON converts a GoalDocument back to its JSON shape (for the admin UI).
func (f *GoalFactory) ToJSON(doc *store.GoalDocument) GoalJSON {
	gj := GoalJSON{
		FranchiseID:         string(doc.FranchiseID),
		Month:               doc.Month.String(),
		TargetActivations:   doc.Params.ActivationTarget.String(),
		TargetMigrationRate: doc.Params.MigrationTarget.String(),
		TargetTPV:           money.FormatBRL(doc.Params.TPVTarget),
		Weights:             pillarJSON(doc.Params.Weights),
		Gates:               pillarJSON(doc.Params.Gates),
		ReferenceValue:      money.FormatBRL(doc.Params.ReferenceValue),
		Floors: FloorsJSON{
			Month1: money.FormatBRL(doc.Params.FloorMonth1),
			Month2: money.FormatBRL(doc.Params.FloorMonth2),
			Month3: money.FormatBRL(doc.Params.FloorMonth3),
		},
	}

	if len(doc.Distribution) > 0 {
		gj.Distribution = make(map[string]TargetsJSON, len(doc.Distribution))
		for agentID, t := range doc.Distribution {
			gj.Distribution[string(agentID)] = TargetsJSON{
				Activations:   t.Activation.String(),
				MigrationRate: t.Migration.String(),
				TPV:           money.FormatBRL(t.TPV),
			}
		}
	}

	return gj
}

// =============================================================================
// VALIDATION
// =============================================================================

// validateParams enforces the goal invariants at the configuration
// boundary. The engine trusts what it receives from here.
func validateParams(p engine.GoalParameters) error {
	if !p.Weights.Sum().Equal(decimal.NewFromInt(100)) {
		return &engine.InvalidInputError{
			Field:  "weights",
			Detail: fmt.Sprintf("must sum to 100, got %s", p.Weights.Sum()),
		}
	}

	hundred := decimal.NewFromInt(100)
	for _, pillar := range engine.Pillars {
		g := p.Gates.Get(pillar)
		if g.IsNegative() || g.GreaterThan(hundred) {
			return &engine.InvalidInputError{
				Field:  fmt.Sprintf("gates.%s", pillar),
				Detail: fmt.Sprintf("must be in [0, 100], got %s", g),
			}
		}
		if p.Weights.Get(pillar).IsNegative() {
			return &engine.InvalidInputError{
				Field:  fmt.Sprintf("weights.%s", pillar),
				Detail: "must not be negative",
			}
		}
	}

	nonNegative := []struct {
		field string
		value decimal.Decimal
	}{
		{"target_activations", p.ActivationTarget},
		{"target_migration_rate", p.MigrationTarget},
		{"target_tpv", p.TPVTarget},
		{"reference_value", p.ReferenceValue},
		{"floors.month_1", p.FloorMonth1},
		{"floors.month_2", p.FloorMonth2},
		{"floors.month_3", p.FloorMonth3},
	}
	for _, nn := range nonNegative {
		if nn.value.IsNegative() {
			return &engine.InvalidInputError{Field: nn.field, Detail: "must not be negative"}
		}
	}

	return nil
}

func validateTargets(agentID string, t engine.IndividualTargets) error {
	if t.Activation.IsNegative() || t.Migration.IsNegative() || t.TPV.IsNegative() {
		return &engine.InvalidInputError{
			Field:  fmt.Sprintf("distribution.%s", agentID),
			Detail: "targets must not be negative",
		}
	}
	return nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

// parseNumber reads a plain decimal field. Unlike currency fields these
// use dot-decimal notation; garbage becomes zero to match money.Parse.
func parseNumber(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func pillarValues(pj PillarJSON) engine.PillarValues {
	return engine.PillarValues{
		Activation: decimal.NewFromFloat(pj.Activation),
		Migration:  decimal.NewFromFloat(pj.Migration),
		TPV:        decimal.NewFromFloat(pj.TPV),
	}
}

func pillarJSON(v engine.PillarValues) PillarJSON {
	a, _ := v.Activation.Float64()
	m, _ := v.Migration.Float64()
	t, _ := v.TPV.Float64()
	return PillarJSON{Activation: a, Migration: m, TPV: t}
}
