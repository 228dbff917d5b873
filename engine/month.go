/*
month.go - Calendar months, acquisition vintages, and tenure

PURPOSE:
  All of the engine's time logic lives here. Three questions are
  answered, each on explicit calendar-month boundaries:

  1. Which month does a timestamp belong to? (Month, MonthOf)
  2. Which acquisition cohort does a record belong to relative to
     "now"? (ClassifyVintage: M0 / M1 / Older)
  3. How many months has an agent been employed? (MonthsOfTenure)

TIME ZONES:
  Month boundaries are computed in a single caller-supplied
  *time.Location (the organization's zone), never the system default.
  A record created 2025-07-31 23:30 in Sao Paulo is an M0 record for a
  July computation even though it is already August in UTC; relying on
  the system zone produces exactly that off-by-one-day class of bug.

VINTAGES:
  M0    = created in the calendar month containing "now"
  M1    = created in the month immediately preceding "now"'s month
  Older = anything earlier (or later - a future timestamp is not part
          of any tracked cohort)

SEE ALSO:
  - metrics.go: uses Month.Contains to bucket records
  - compensation.go: uses MonthsOfTenure for the floor guarantee
*/
package engine

import (
	"fmt"
	"time"
)

// =============================================================================
// MONTH - A calendar month, independent of any day or zone
// =============================================================================

// Month identifies a calendar month. The zero value is not a valid
// month; construct via NewMonth, MonthOf, or ParseMonth.
type Month struct {
	Year  int
	Month time.Month
}

func NewMonth(year int, month time.Month) Month {
	return Month{Year: year, Month: month}
}

// MonthOf returns the calendar month containing t, evaluated in loc.
func MonthOf(t time.Time, loc *time.Location) Month {
	local := t.In(loc)
	return Month{Year: local.Year(), Month: local.Month()}
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q (use YYYY-MM): %w", s, err)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// Start returns the first instant of the month in loc.
func (m Month) Start(loc *time.Location) time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
}

// End returns the first instant of the following month in loc.
// The month interval is [Start, End).
func (m Month) End(loc *time.Location) time.Time {
	return m.Start(loc).AddDate(0, 1, 0)
}

// Contains reports whether t falls within the month, evaluated in loc.
func (m Month) Contains(t time.Time, loc *time.Location) bool {
	return MonthOf(t, loc) == m
}

func (m Month) Next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

func (m Month) Prev() Month {
	if m.Month == time.January {
		return Month{Year: m.Year - 1, Month: time.December}
	}
	return Month{Year: m.Year, Month: m.Month - 1}
}

// ordinal maps the month onto a continuous scale for distance math.
func (m Month) ordinal() int { return m.Year*12 + int(m.Month) - 1 }

// IsZero reports whether m is the zero value.
func (m Month) IsZero() bool { return m.Year == 0 && m.Month == 0 }

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// =============================================================================
// VINTAGE CLASSIFIER - M0/M1 acquisition cohorts
// =============================================================================

// Vintage is a record's cohort classification relative to "now".
type Vintage int

const (
	VintageOlder Vintage = iota
	VintageM0            // month of acquisition = current month
	VintageM1            // acquired the month before
)

func (v Vintage) String() string {
	switch v {
	case VintageM0:
		return "M0"
	case VintageM1:
		return "M1"
	default:
		return "older"
	}
}

// ClassifyVintage buckets a record's creation timestamp relative to
// now. Both timestamps are evaluated on calendar-month boundaries in
// loc. Timestamps after now's month classify as Older: a future record
// belongs to no tracked cohort.
func ClassifyVintage(createdAt, now time.Time, loc *time.Location) Vintage {
	created := MonthOf(createdAt, loc)
	current := MonthOf(now, loc)

	switch created {
	case current:
		return VintageM0
	case current.Prev():
		return VintageM1
	default:
		return VintageOlder
	}
}

// =============================================================================
// TENURE RESOLVER
// =============================================================================

// MonthsOfTenure returns the 1-based ordinal of referenceMonth in the
// agent's employment, counting calendar months inclusively: the hire
// month itself is month 1. A reference month before the hire month
// yields a non-positive value, which no floor guarantee matches.
func MonthsOfTenure(hireDate time.Time, referenceMonth Month, loc *time.Location) int {
	hired := MonthOf(hireDate, loc)
	return referenceMonth.ordinal() - hired.ordinal() + 1
}
