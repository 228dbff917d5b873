/*
metrics.go - Deriving realized metrics from raw records

PURPOSE:
  Turns an agent's raw activity and client records into the three
  realized values the pillars are scored on, for one reference month:

  activations: sum of account-activation activity values logged in
               the month (an unvalued record counts as 1)
  migration:   sum(transacted TPV) / sum(priced TPV) over the client
               cohort CREATED in the month; 0 when nothing was priced
  tpv:         sum(transacted TPV) over the same cohort

COHORTS:
  The client cohort is selected by CreatedAt, not ActivatedAt: the
  month an account was credentialed determines whose portfolio it is,
  and the migration/TPV pillars track how that vintage performs.
  Pending-activation and M1-tracking views slice the same records by
  vintage; see PendingActivation and TrackedVintage below.

SEE ALSO:
  - month.go: calendar bucketing
  - compensation.go: feeds these metrics into the pillar calculator
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REALIZED METRICS FOR A REFERENCE MONTH
// =============================================================================

// DeriveRealized computes the per-pillar realized values for one agent
// and one reference month. Records outside the month are ignored; the
// caller may pass unfiltered snapshots.
func DeriveRealized(activities []ActivityRecord, clients []ClientRecord, month Month, loc *time.Location) RealizedMetrics {
	var m RealizedMetrics

	for _, a := range activities {
		if a.Type != ActivityAccountActivation {
			continue
		}
		if !month.Contains(a.Timestamp, loc) {
			continue
		}
		v := a.Value
		if v.IsZero() {
			// An unvalued activation record counts as one account.
			v = decimal.NewFromInt(1)
		}
		m.Activations = m.Activations.Add(v)
	}

	priced := decimal.Zero
	for _, c := range clients {
		if !month.Contains(c.CreatedAt, loc) {
			continue
		}
		priced = priced.Add(c.PricedTPV)
		m.TransactedTPV = m.TransactedTPV.Add(c.TransactedTPV)
	}

	if priced.IsPositive() {
		m.MigrationRate = m.TransactedTPV.Div(priced)
	}

	return m
}

// =============================================================================
// VINTAGE VIEWS - Slices of the portfolio used by tracking screens
// =============================================================================

// PendingActivation returns the clients still awaiting activation,
// newest first left to the caller. This is the "M0 follow-up" view:
// any credentialed-but-inactive account, regardless of vintage.
func PendingActivation(clients []ClientRecord) []ClientRecord {
	var out []ClientRecord
	for _, c := range clients {
		if !c.Active {
			out = append(out, c)
		}
	}
	return out
}

// TrackedVintage returns the clients whose activation falls in the
// given vintage relative to now. The M1 view (last month's activated
// cohort) is TrackedVintage(clients, VintageM1, now, loc): those are
// the accounts whose transacted TPV is being collected this month.
func TrackedVintage(clients []ClientRecord, v Vintage, now time.Time, loc *time.Location) []ClientRecord {
	var out []ClientRecord
	for _, c := range clients {
		if !c.Active || c.ActivatedAt == nil {
			continue
		}
		if ClassifyVintage(*c.ActivatedAt, now, loc) == v {
			out = append(out, c)
		}
	}
	return out
}
