package factory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vendaforte/rv-engine/engine"
	"github.com/vendaforte/rv-engine/factory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validGoalJSON() factory.GoalJSON {
	return factory.GoalJSON{
		FranchiseID:         "fr-sp",
		Month:               "2025-07",
		TargetActivations:   "50",
		TargetMigrationRate: "0.8",
		TargetTPV:           "R$ 100.000,00",
		Weights:             factory.PillarJSON{Activation: 30, Migration: 30, TPV: 40},
		Gates:               factory.PillarJSON{Activation: 80, Migration: 80, TPV: 80},
		ReferenceValue:      "R$ 1.200,00",
		Floors: factory.FloorsJSON{
			Month1: "R$ 900,00",
			Month2: "R$ 700,00",
			Month3: "R$ 500,00",
		},
		Distribution: map[string]factory.TargetsJSON{
			"ag-1": {Activations: "10", MigrationRate: "0.8", TPV: "R$ 20.000,00"},
		},
	}
}

// =============================================================================
// GOAL PARSING
// =============================================================================

func TestGoalFactory_FromJSON(t *testing.T) {
	// GIVEN: A complete goal definition with pt-BR currency fields
	// WHEN: Converting to a GoalDocument
	// THEN: Currency strings land as exact decimals

	f := factory.NewGoalFactory()
	doc, err := f.FromJSON(validGoalJSON())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Month != engine.NewMonth(2025, time.July) {
		t.Errorf("month = %v", doc.Month)
	}
	if !doc.Params.TPVTarget.Equal(dec("100000")) {
		t.Errorf("target tpv = %v, want 100000", doc.Params.TPVTarget)
	}
	if !doc.Params.ReferenceValue.Equal(dec("1200")) {
		t.Errorf("reference value = %v, want 1200", doc.Params.ReferenceValue)
	}
	if !doc.Params.FloorMonth2.Equal(dec("700")) {
		t.Errorf("floor month 2 = %v, want 700", doc.Params.FloorMonth2)
	}

	targets := doc.TargetsFor("ag-1")
	if targets == nil {
		t.Fatal("missing distribution entry for ag-1")
	}
	if !targets.TPV.Equal(dec("20000")) {
		t.Errorf("agent tpv target = %v, want 20000", targets.TPV)
	}
}

func TestGoalFactory_ParseGoal_JSONString(t *testing.T) {
	jsonStr := `{
		"franchise_id": "fr-sp",
		"month": "2025-07",
		"target_activations": "50",
		"target_migration_rate": "0.8",
		"target_tpv": "100000",
		"weights": {"activation": 30, "migration": 30, "tpv": 40},
		"gates": {"activation": 80, "migration": 80, "tpv": 80},
		"reference_value": "R$ 1.200,00",
		"floors": {"month_1": "900", "month_2": "700", "month_3": "500"}
	}`

	f := factory.NewGoalFactory()
	doc, err := f.ParseGoal(jsonStr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.Params.ReferenceValue.Equal(dec("1200")) {
		t.Errorf("reference value = %v, want 1200", doc.Params.ReferenceValue)
	}
}

func TestGoalFactory_RoundTrip(t *testing.T) {
	f := factory.NewGoalFactory()

	doc, err := f.FromJSON(validGoalJSON())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	back, err := f.FromJSON(f.ToJSON(doc))
	if err != nil {
		t.Fatalf("round-trip error: %v", err)
	}
	if !back.Params.ReferenceValue.Equal(doc.Params.ReferenceValue) {
		t.Errorf("reference value changed: %v -> %v", doc.Params.ReferenceValue, back.Params.ReferenceValue)
	}
	if !back.Params.FloorMonth3.Equal(doc.Params.FloorMonth3) {
		t.Errorf("floor changed: %v -> %v", doc.Params.FloorMonth3, back.Params.FloorMonth3)
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestGoalFactory_WeightsMustSumToHundred(t *testing.T) {
	gj := validGoalJSON()
	gj.Weights = factory.PillarJSON{Activation: 30, Migration: 30, TPV: 30}

	_, err := factory.NewGoalFactory().FromJSON(gj)
	if !errors.Is(err, engine.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}

	var inv *engine.InvalidInputError
	if !errors.As(err, &inv) || inv.Field != "weights" {
		t.Errorf("err = %v, want InvalidInputError on weights", err)
	}
}

func TestGoalFactory_GateOutOfRange(t *testing.T) {
	gj := validGoalJSON()
	gj.Gates.Migration = 101

	_, err := factory.NewGoalFactory().FromJSON(gj)
	if !errors.Is(err, engine.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestGoalFactory_BadMonth(t *testing.T) {
	gj := validGoalJSON()
	gj.Month = "julho de 2025"

	_, err := factory.NewGoalFactory().FromJSON(gj)
	if !errors.Is(err, engine.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestGoalFactory_GarbageCurrencyBecomesZero(t *testing.T) {
	// The codec is forgiving: unparseable currency reads as zero, it
	// does not fail the whole document.
	gj := validGoalJSON()
	gj.Floors.Month3 = "a combinar"

	doc, err := factory.NewGoalFactory().FromJSON(gj)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.Params.FloorMonth3.IsZero() {
		t.Errorf("floor month 3 = %v, want 0", doc.Params.FloorMonth3)
	}
}

func TestGoalFactory_NegativeDistributionTarget(t *testing.T) {
	gj := validGoalJSON()
	gj.Distribution["ag-1"] = factory.TargetsJSON{Activations: "-5", MigrationRate: "0.8", TPV: "100"}

	_, err := factory.NewGoalFactory().FromJSON(gj)
	if !errors.Is(err, engine.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
