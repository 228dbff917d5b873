/*
compensation.go - The full per-agent computation

PURPOSE:
  Orchestrates the pillar calculator, tenure resolver, and floor rule
  into one deterministic function: snapshot in, payout breakdown out.

STEPS:
  1. Validate: goals and targets must exist; no negative values.
  2. Score each pillar (pillar.go) with its weight and gate.
  3. Sum pillar payouts into the computed payout.
  4. Resolve tenure (month.go) and select the floor guarantee for
     employment months 1-3 ("colchao").
  5. FinalPayout = max(computed, floor); TopUp = the difference when
     the floor wins.

GUARANTEES:
  - No side effects. Calling twice with identical inputs yields
    identical output.
  - Missing configuration is a typed error, never a zero result.
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// COMPENSATION ENGINE
// =============================================================================

// ComputeCompensation produces the payout breakdown for one agent and
// one reference month.
//
// goal and targets are nil when the month's configuration is absent;
// those are reported as ErrMissingGoalParameters and
// ErrMissingIndividualTargets respectively, because "goals not yet
// defined" and "earned zero" are different answers. hireDate is nil
// when unknown, which disables the floor guarantee.
func ComputeCompensation(
	goal *GoalParameters,
	agentID AgentID,
	targets *IndividualTargets,
	realized RealizedMetrics,
	hireDate *time.Time,
	referenceMonth Month,
	loc *time.Location,
	opts Options,
) (*CompensationResult, error) {

	if goal == nil {
		return nil, &MissingGoalError{Month: referenceMonth}
	}
	if targets == nil {
		return nil, &MissingTargetsError{AgentID: agentID, Month: referenceMonth}
	}
	if err := validateInputs(targets, realized); err != nil {
		return nil, err
	}

	result := &CompensationResult{Month: referenceMonth}

	// 1-3. Score each pillar and sum.
	computed := decimal.Zero
	for i, p := range Pillars {
		pr := ComputePillar(
			p,
			targets.Get(p),
			realized.Get(p),
			goal.Gates.Get(p),
			goal.Weights.Get(p),
			goal.ReferenceValue,
			opts,
		)
		result.Pillars[i] = pr
		computed = computed.Add(pr.Payout)
	}
	result.ComputedPayout = computed

	// 4. Tenure-indexed floor guarantee.
	floor := decimal.Zero
	if hireDate != nil {
		result.TenureMonth = MonthsOfTenure(*hireDate, referenceMonth, loc)
		floor = goal.FloorFor(result.TenureMonth)
	}
	result.FloorGuarantee = floor

	// 5. Floor dominance.
	result.FinalPayout = computed
	result.TopUp = decimal.Zero
	if computed.LessThan(floor) {
		result.FinalPayout = floor
		result.TopUp = floor.Sub(computed)
	}

	return result, nil
}

// validateInputs fails fast on negative targets or realized values.
// They are meaningless and indicate an upstream data bug.
func validateInputs(targets *IndividualTargets, realized RealizedMetrics) error {
	checks := []struct {
		field string
		value decimal.Decimal
	}{
		{"activation target", targets.Activation},
		{"migration target", targets.Migration},
		{"tpv target", targets.TPV},
		{"realized activations", realized.Activations},
		{"realized migration rate", realized.MigrationRate},
		{"realized tpv", realized.TransactedTPV},
	}
	for _, c := range checks {
		if c.value.IsNegative() {
			return &InvalidInputError{Field: c.field, Detail: "must not be negative"}
		}
	}
	return nil
}
