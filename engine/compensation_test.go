package engine_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vendaforte/rv-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// standardGoal mirrors the common 30/30/40 weight split.
func standardGoal(m engine.Month) *engine.GoalParameters {
	return &engine.GoalParameters{
		Month:            m,
		ActivationTarget: dec("50"),
		MigrationTarget:  dec("0.8"),
		TPVTarget:        dec("100000"),
		Weights: engine.PillarValues{
			Activation: dec("30"), Migration: dec("30"), TPV: dec("40"),
		},
		Gates: engine.PillarValues{
			Activation: dec("80"), Migration: dec("80"), TPV: dec("80"),
		},
		ReferenceValue: dec("1200"),
		FloorMonth1:    dec("900"),
		FloorMonth2:    dec("700"),
		FloorMonth3:    dec("500"),
	}
}

func standardTargets() *engine.IndividualTargets {
	return &engine.IndividualTargets{
		Activation: dec("10"),
		Migration:  dec("0.8"),
		TPV:        dec("20000"),
	}
}

func timePtr(t time.Time) *time.Time { return &t }

// =============================================================================
// COMPENSATION ENGINE
// =============================================================================

func TestComputeCompensation_AllPillarsPass(t *testing.T) {
	// GIVEN: An agent at 80% activation, 100% migration, 100% TPV
	// THEN: payout = 1200*(0.30*0.8 + 0.30*1 + 0.40*1) = 288+360+480 = 1128

	loc := saoPaulo(t)
	july := month(2025, time.July)

	realized := engine.RealizedMetrics{
		Activations:   dec("8"),
		MigrationRate: dec("0.8"),
		TransactedTPV: dec("20000"),
	}

	res, err := engine.ComputeCompensation(
		standardGoal(july), "agent-1", standardTargets(), realized,
		nil, july, loc, engine.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.ComputedPayout.Equal(dec("1128")) {
		t.Errorf("computed payout = %v, want 1128", res.ComputedPayout)
	}
	if !res.FinalPayout.Equal(dec("1128")) {
		t.Errorf("final payout = %v, want 1128 (no floor without hire date)", res.FinalPayout)
	}
	if !res.TopUp.IsZero() {
		t.Errorf("top-up = %v, want 0", res.TopUp)
	}
	if res.TenureMonth != 0 {
		t.Errorf("tenure = %d, want 0 when hire date unknown", res.TenureMonth)
	}
}

func TestComputeCompensation_ScenarioC_FloorDominance(t *testing.T) {
	// GIVEN: computedPayout=650, tenure month 1, floorMonth1=900
	// THEN: finalPayout=900, topUp=250

	loc := saoPaulo(t)
	july := month(2025, time.July)

	goal := standardGoal(july)
	goal.Gates = engine.PillarValues{} // no gating, isolate the floor rule

	// 0.30*0.5 + 0.30*0.5 + 0.40*0.4375 = 0.15+0.15+0.175
	// payout = 1200*0.475 ... pick realized values that land on 650:
	// activation 5/10 -> 180, migration 0.4/0.8 -> 180, tpv 14500/20000 -> 348
	// 180+180+348 = 708. Adjust tpv: need 290 -> ratio 0.604166...
	// Cleaner: weights 30/30/40, target payouts 180+180+290=650 with
	// tpv realized = 20000 * (290/480) = 12083.333...; use exact decimals.
	realized := engine.RealizedMetrics{
		Activations:   dec("5"),                 // 180
		MigrationRate: dec("0.4"),               // 180
		TransactedTPV: dec("12083.333333333334"),
	}
	// Avoid repeating-decimal noise: compute expected from the engine's
	// own pillar math instead of asserting the odd TPV payout exactly.
	res, err := engine.ComputeCompensation(
		goal, "agent-1", standardTargets(), realized,
		timePtr(time.Date(2025, time.July, 3, 0, 0, 0, 0, loc)), // hired this month
		july, loc, engine.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.TenureMonth != 1 {
		t.Fatalf("tenure = %d, want 1", res.TenureMonth)
	}
	if !res.FloorGuarantee.Equal(dec("900")) {
		t.Fatalf("floor = %v, want 900", res.FloorGuarantee)
	}
	if res.ComputedPayout.GreaterThanOrEqual(dec("900")) {
		t.Fatalf("test setup: computed %v should be below the floor", res.ComputedPayout)
	}
	if !res.FinalPayout.Equal(dec("900")) {
		t.Errorf("final payout = %v, want the floor 900", res.FinalPayout)
	}
	want := dec("900").Sub(res.ComputedPayout)
	if !res.TopUp.Equal(want) {
		t.Errorf("top-up = %v, want %v", res.TopUp, want)
	}
}

func TestComputeCompensation_ScenarioC_Exact(t *testing.T) {
	// The canonical numbers: computed 650, floor 900, top-up 250.
	loc := saoPaulo(t)
	july := month(2025, time.July)

	goal := standardGoal(july)
	goal.Gates = engine.PillarValues{}
	goal.ReferenceValue = dec("1000")
	goal.Weights = engine.PillarValues{Activation: dec("50"), Migration: dec("30"), TPV: dec("20")}

	// 1000*(0.50*0.7 + 0.30*0.5 + 0.20*0.75) = 350+150+150 = 650
	targets := &engine.IndividualTargets{Activation: dec("10"), Migration: dec("0.8"), TPV: dec("20000")}
	realized := engine.RealizedMetrics{
		Activations:   dec("7"),
		MigrationRate: dec("0.4"),
		TransactedTPV: dec("15000"),
	}

	res, err := engine.ComputeCompensation(goal, "agent-1", targets, realized,
		timePtr(time.Date(2025, time.July, 10, 0, 0, 0, 0, loc)), july, loc, engine.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.ComputedPayout.Equal(dec("650")) {
		t.Fatalf("computed = %v, want 650", res.ComputedPayout)
	}
	if !res.FinalPayout.Equal(dec("900")) {
		t.Errorf("final = %v, want 900", res.FinalPayout)
	}
	if !res.TopUp.Equal(dec("250")) {
		t.Errorf("top-up = %v, want 250", res.TopUp)
	}
}

func TestComputeCompensation_FloorByTenureMonth(t *testing.T) {
	// GIVEN: floors 900/700/500 for months 1-3
	// THEN: the guarantee follows the tenure ordinal and vanishes at month 4

	loc := saoPaulo(t)
	july := month(2025, time.July)
	goal := standardGoal(july)

	cases := []struct {
		name      string
		hired     time.Time
		wantFloor string
	}{
		{"month 1", time.Date(2025, time.July, 1, 0, 0, 0, 0, loc), "900"},
		{"month 2", time.Date(2025, time.June, 15, 0, 0, 0, 0, loc), "700"},
		{"month 3", time.Date(2025, time.May, 1, 0, 0, 0, 0, loc), "500"},
		{"month 4", time.Date(2025, time.April, 30, 0, 0, 0, 0, loc), "0"},
		{"veteran", time.Date(2020, time.January, 1, 0, 0, 0, 0, loc), "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := engine.ComputeCompensation(
				goal, "agent-1", standardTargets(), engine.RealizedMetrics{},
				timePtr(tc.hired), july, loc, engine.Options{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !res.FloorGuarantee.Equal(dec(tc.wantFloor)) {
				t.Errorf("floor = %v, want %s", res.FloorGuarantee, tc.wantFloor)
			}
		})
	}
}

func TestComputeCompensation_NoHireDate_NoFloor(t *testing.T) {
	loc := saoPaulo(t)
	july := month(2025, time.July)

	res, err := engine.ComputeCompensation(
		standardGoal(july), "agent-1", standardTargets(), engine.RealizedMetrics{},
		nil, july, loc, engine.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.FloorGuarantee.IsZero() || !res.FinalPayout.IsZero() {
		t.Errorf("floor=%v final=%v, want zero without a hire date", res.FloorGuarantee, res.FinalPayout)
	}
}

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

func TestComputeCompensation_MissingGoalParameters(t *testing.T) {
	loc := saoPaulo(t)
	july := month(2025, time.July)

	_, err := engine.ComputeCompensation(nil, "agent-1", standardTargets(),
		engine.RealizedMetrics{}, nil, july, loc, engine.Options{})

	if !errors.Is(err, engine.ErrMissingGoalParameters) {
		t.Fatalf("expected ErrMissingGoalParameters, got %v", err)
	}
	var mg *engine.MissingGoalError
	if !errors.As(err, &mg) || mg.Month != july {
		t.Errorf("expected MissingGoalError for %v, got %v", july, err)
	}
	if !engine.IsMissingConfiguration(err) {
		t.Error("missing goals should classify as missing configuration")
	}
}

func TestComputeCompensation_MissingIndividualTargets(t *testing.T) {
	loc := saoPaulo(t)
	july := month(2025, time.July)

	_, err := engine.ComputeCompensation(standardGoal(july), "agent-7", nil,
		engine.RealizedMetrics{}, nil, july, loc, engine.Options{})

	if !errors.Is(err, engine.ErrMissingIndividualTargets) {
		t.Fatalf("expected ErrMissingIndividualTargets, got %v", err)
	}
	var mt *engine.MissingTargetsError
	if !errors.As(err, &mt) || mt.AgentID != "agent-7" {
		t.Errorf("expected MissingTargetsError for agent-7, got %v", err)
	}
}

func TestComputeCompensation_NegativeInputs(t *testing.T) {
	loc := saoPaulo(t)
	july := month(2025, time.July)

	targets := standardTargets()
	targets.Activation = dec("-1")

	_, err := engine.ComputeCompensation(standardGoal(july), "agent-1", targets,
		engine.RealizedMetrics{}, nil, july, loc, engine.Options{})
	if !errors.Is(err, engine.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative target, got %v", err)
	}

	realized := engine.RealizedMetrics{TransactedTPV: dec("-500")}
	_, err = engine.ComputeCompensation(standardGoal(july), "agent-1", standardTargets(),
		realized, nil, july, loc, engine.Options{})
	if !errors.Is(err, engine.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative realized, got %v", err)
	}
}

// =============================================================================
// DETERMINISM
// =============================================================================

func TestComputeCompensation_Deterministic(t *testing.T) {
	// Two runs over identical inputs must render identically,
	// pillar order included.
	loc := saoPaulo(t)
	july := month(2025, time.July)
	hired := timePtr(time.Date(2025, time.June, 5, 0, 0, 0, 0, loc))
	realized := engine.RealizedMetrics{
		Activations:   dec("9"),
		MigrationRate: dec("0.83"),
		TransactedTPV: dec("17342.19"),
	}

	render := func() string {
		res, err := engine.ComputeCompensation(
			standardGoal(july), "agent-1", standardTargets(), realized,
			hired, july, loc, engine.Options{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return fmt.Sprintf("%+v", res)
	}

	if a, b := render(), render(); a != b {
		t.Errorf("non-deterministic output:\n%s\n%s", a, b)
	}
}

// =============================================================================
// INVARIANT SPOT CHECK
// =============================================================================

func TestCompensationResult_Invariant(t *testing.T) {
	// finalPayout == max(computed, floor) across a grid of realized values.
	loc := saoPaulo(t)
	july := month(2025, time.July)
	goal := standardGoal(july)
	hired := timePtr(time.Date(2025, time.July, 1, 0, 0, 0, 0, loc))

	for _, activations := range []string{"0", "4", "8", "12", "30"} {
		realized := engine.RealizedMetrics{Activations: dec(activations)}
		res, err := engine.ComputeCompensation(goal, "agent-1", standardTargets(),
			realized, hired, july, loc, engine.Options{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		wantFinal := decimal.Max(res.ComputedPayout, res.FloorGuarantee)
		if !res.FinalPayout.Equal(wantFinal) {
			t.Errorf("activations=%s: final=%v, want max(%v, %v)",
				activations, res.FinalPayout, res.ComputedPayout, res.FloorGuarantee)
		}
		if res.TopUp.IsNegative() {
			t.Errorf("activations=%s: negative top-up %v", activations, res.TopUp)
		}
		if !res.FinalPayout.Sub(res.ComputedPayout).Equal(res.TopUp) && res.TopUp.IsPositive() {
			t.Errorf("activations=%s: top-up %v inconsistent", activations, res.TopUp)
		}
	}
}
