/*
pillar.go - Single-pillar achievement and gating

PURPOSE:
  Computes the achievement ratio for one pillar, applies the minimum
  achievement gate ("setpoint"), and converts the result into the
  pillar's share of the payout.

THE CALCULATION:
  ratio  = realized / target          (0 when target is 0)
  gate   = ratio*100 >= gatePercent   (inclusive boundary)
  payout = gate ? referenceValue * weight/100 * ratio : 0

ZERO TARGETS:
  A zero target always yields zero achievement and zero payout,
  whatever was realized. A pillar with no target cannot be scored.

UNCAPPED OVERPERFORMANCE:
  Ratios above 100% multiply the payout proportionally. Realizing 12
  against a target of 10 pays 1.2x the pillar's reference share. This
  is the established policy; Options.CapAchievement clamps the ratio
  at 1.0 for franchises that want a ceiling.
*/
package engine

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// =============================================================================
// PILLAR ACHIEVEMENT CALCULATOR
// =============================================================================

// ComputePillar scores one pillar. target and realized must be
// non-negative; ComputeCompensation validates that before calling.
func ComputePillar(p Pillar, target, realized, gatePercent, weightPercent, referenceValue decimal.Decimal, opts Options) PillarResult {
	result := PillarResult{
		Pillar:   p,
		Target:   target,
		Realized: realized,
		Weight:   weightPercent,
		Gate:     gatePercent,
		Payout:   decimal.Zero,
	}

	if !target.IsPositive() {
		// Zero target: zero achievement, zero payout. Not a crash.
		result.AchievementRatio = decimal.Zero
		return result
	}

	ratio := realized.Div(target)
	result.AchievementRatio = ratio
	result.GatePassed = ratio.Mul(hundred).GreaterThanOrEqual(gatePercent)

	if !result.GatePassed {
		return result
	}

	payoutRatio := ratio
	if opts.CapAchievement && payoutRatio.GreaterThan(decimal.NewFromInt(1)) {
		payoutRatio = decimal.NewFromInt(1)
	}

	pillarShare := referenceValue.Mul(weightPercent).Div(hundred)
	result.Payout = pillarShare.Mul(payoutRatio)
	return result
}
