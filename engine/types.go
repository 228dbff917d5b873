/*
Package engine computes variable compensation (RV) for franchise sales
agents.

PURPOSE:
  Given a month's goal parameters, an agent's individual targets, and
  the agent's realized activity, the engine deterministically produces
  a payout breakdown: one result per performance pillar, a weighted
  sum, and a tenure-based floor guarantee for new hires.

KEY CONCEPTS IN THIS FILE (types.go):
  - GoalParameters: franchise-wide monthly configuration (targets,
    weights, gates, reference value, floor guarantees)
  - IndividualTargets: one agent's distributed share of the goal
  - ActivityRecord / ClientRecord: raw inputs, supplied as snapshots
  - PillarResult / CompensationResult: the computed breakdown

DESIGN PRINCIPLES:
  1. Purity: every function takes all data as arguments. No ambient
     session, no storage access, no clock reads - the caller supplies
     "now" and the reference month explicitly.
  2. Precision: decimal.Decimal for every monetary and ratio value.
  3. Snapshots: inputs are read-only for the duration of a computation.
     The engine never mutates a record.
  4. Explicit absence: missing goals and missing targets are typed
     errors, never silent zeros. A zero payout and an undefined payout
     are different answers.

THE THREE PILLARS:
  activation: count of newly activated client accounts
  migration:  transacted/priced TPV ratio of the month's client cohort
  tpv:        transacted payment volume in currency units

SEE ALSO:
  - pillar.go: single-pillar achievement and gating
  - compensation.go: full per-agent computation
  - month.go: calendar months, vintages, tenure
  - ranking.go: team rollup
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AgentID string
type FranchiseID string

// =============================================================================
// PILLARS
// =============================================================================

// Pillar identifies one of the three scored dimensions.
type Pillar string

const (
	PillarActivation Pillar = "activation"
	PillarMigration  Pillar = "migration"
	PillarTPV        Pillar = "tpv"
)

// Pillars lists the dimensions in their canonical order. Results are
// always produced in this order so identical inputs yield identical
// output.
var Pillars = [3]Pillar{PillarActivation, PillarMigration, PillarTPV}

// PillarValues holds one decimal per pillar (weights, gates, targets).
type PillarValues struct {
	Activation decimal.Decimal
	Migration  decimal.Decimal
	TPV        decimal.Decimal
}

// Get returns the value for a pillar.
func (v PillarValues) Get(p Pillar) decimal.Decimal {
	switch p {
	case PillarActivation:
		return v.Activation
	case PillarMigration:
		return v.Migration
	default:
		return v.TPV
	}
}

// Sum returns Activation + Migration + TPV.
func (v PillarValues) Sum() decimal.Decimal {
	return v.Activation.Add(v.Migration).Add(v.TPV)
}

// =============================================================================
// GOAL PARAMETERS - Franchise-wide monthly configuration
// =============================================================================

// GoalParameters is the read-only snapshot of one franchise's goal
// document for one calendar month. The engine treats it as immutable.
//
// Weights are percentages of ReferenceValue; the caller is responsible
// for making them sum to 100 (validated at the data-access boundary,
// see factory package - the engine trusts its input here).
// Gates are the minimum percent achievement for a pillar to pay out.
type GoalParameters struct {
	Month Month

	// Franchise-wide targets (the distribution splits these per agent)
	ActivationTarget decimal.Decimal // count of activations
	MigrationTarget  decimal.Decimal // ratio in [0,1]
	TPVTarget        decimal.Decimal // currency units

	Weights PillarValues // percent of ReferenceValue, should sum to 100
	Gates   PillarValues // minimum percent achievement per pillar

	// Total RV amount the weights are percentages of
	ReferenceValue decimal.Decimal

	// Guaranteed minimum payout for an agent's 1st/2nd/3rd month of
	// employment ("colchao"). Zero means no guarantee.
	FloorMonth1 decimal.Decimal
	FloorMonth2 decimal.Decimal
	FloorMonth3 decimal.Decimal
}

// FloorFor returns the guarantee for a 1-based tenure ordinal.
// Months 4+ (and ordinals < 1) carry no guarantee.
func (g GoalParameters) FloorFor(tenureMonth int) decimal.Decimal {
	switch tenureMonth {
	case 1:
		return g.FloorMonth1
	case 2:
		return g.FloorMonth2
	case 3:
		return g.FloorMonth3
	default:
		return decimal.Zero
	}
}

// IndividualTargets is one agent's distributed share of the monthly
// goal, in the same units as the franchise-wide targets.
type IndividualTargets struct {
	Activation decimal.Decimal
	Migration  decimal.Decimal
	TPV        decimal.Decimal
}

// Get returns the target for a pillar.
func (t IndividualTargets) Get(p Pillar) decimal.Decimal {
	switch p {
	case PillarActivation:
		return t.Activation
	case PillarMigration:
		return t.Migration
	default:
		return t.TPV
	}
}

// =============================================================================
// RAW RECORDS - Supplied by the data-access layer, never mutated here
// =============================================================================

// ActivityType classifies a logged agent event.
type ActivityType string

const (
	ActivityAccountActivation ActivityType = "account_activation"
	ActivityVisit             ActivityType = "visit"
	ActivityOther             ActivityType = "other"
)

// ActivityRecord is one logged event. Immutable once created.
type ActivityRecord struct {
	AgentID   AgentID
	Type      ActivityType
	Value     decimal.Decimal
	Note      string
	Timestamp time.Time
}

// ClientRecord is a credentialed merchant account. CreatedAt is
// immutable; Active and TransactedTPV are operational fields updated
// by agent-facing workflows outside the engine.
type ClientRecord struct {
	AgentID       AgentID
	FranchiseID   FranchiseID
	Name          string
	PricedTPV     decimal.Decimal
	TransactedTPV decimal.Decimal
	Active        bool
	CreatedAt     time.Time
	ActivatedAt   *time.Time
}

// RealizedMetrics is the per-pillar realized value derived from raw
// records for one agent and one reference month. See metrics.go.
type RealizedMetrics struct {
	Activations   decimal.Decimal // activation count
	MigrationRate decimal.Decimal // transacted/priced ratio in the cohort
	TransactedTPV decimal.Decimal // currency units
}

// Get returns the realized value for a pillar.
func (m RealizedMetrics) Get(p Pillar) decimal.Decimal {
	switch p {
	case PillarActivation:
		return m.Activations
	case PillarMigration:
		return m.MigrationRate
	default:
		return m.TransactedTPV
	}
}

// =============================================================================
// RESULTS
// =============================================================================

// PillarResult is the outcome for a single pillar. Weight and Gate are
// carried along so downstream consumers (ranking, display) do not need
// the goal document again.
type PillarResult struct {
	Pillar           Pillar
	Target           decimal.Decimal
	Realized         decimal.Decimal
	AchievementRatio decimal.Decimal // realized/target; 0 when target is 0
	GatePassed       bool
	Weight           decimal.Decimal // percent of reference value
	Gate             decimal.Decimal // minimum percent achievement
	Payout           decimal.Decimal // 0 when the gate is not passed
}

// CompensationResult is the full payout breakdown for one agent and
// one reference month.
//
// Invariants:
//
//	FinalPayout = max(ComputedPayout, FloorGuarantee)
//	TopUp       = FinalPayout - ComputedPayout when positive, else 0
type CompensationResult struct {
	Month   Month
	Pillars [3]PillarResult

	ComputedPayout decimal.Decimal // sum of pillar payouts
	TenureMonth    int             // 1-based ordinal; 0 when hire date unknown
	FloorGuarantee decimal.Decimal
	TopUp          decimal.Decimal
	FinalPayout    decimal.Decimal
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options tunes policy decisions the business has left configurable.
type Options struct {
	// CapAchievement caps each pillar's achievement ratio at 100% for
	// payout purposes. The default (false) pays overperformance
	// proportionally with no ceiling, matching the established
	// compensation policy.
	CapAchievement bool
}
