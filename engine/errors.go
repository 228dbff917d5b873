/*
errors.go - Centralized error types for the compensation engine

PURPOSE:
  All engine error types in one place. Callers match with errors.Is /
  errors.As; the API layer maps these onto HTTP responses.

THE TAXONOMY:
  ErrMissingGoalParameters   - goals not configured for the month.
                               Surfaced as "awaiting goal definition",
                               never computed as zero targets.
  ErrMissingIndividualTargets - the agent has no distributed share of
                               the monthly goal. Distinct from a
                               zero-valued target.
  ErrInvalidInput            - a negative target or realized value
                               reached the engine. Negative targets are
                               meaningless; this indicates an upstream
                               data bug and fails fast.

  None of these are retryable: a pure function cannot produce a
  transient failure. None are swallowed; every one propagates to the
  immediate caller.
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingGoalParameters is returned when no goal document exists
	// for the requested month.
	ErrMissingGoalParameters = errors.New("goal parameters not defined for month")

	// ErrMissingIndividualTargets is returned when the agent has no
	// distributed targets for the month.
	ErrMissingIndividualTargets = errors.New("individual targets not distributed for month")

	// ErrInvalidInput is returned for negative targets or realized
	// values.
	ErrInvalidInput = errors.New("invalid input")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MissingGoalError reports which franchise/month lacks a goal document.
type MissingGoalError struct {
	Month Month
}

func (e *MissingGoalError) Error() string {
	return fmt.Sprintf("goal parameters not defined for %s", e.Month)
}

func (e *MissingGoalError) Unwrap() error { return ErrMissingGoalParameters }

// MissingTargetsError reports which agent/month lacks distributed targets.
type MissingTargetsError struct {
	AgentID AgentID
	Month   Month
}

func (e *MissingTargetsError) Error() string {
	return fmt.Sprintf("no individual targets for agent %s in %s", e.AgentID, e.Month)
}

func (e *MissingTargetsError) Unwrap() error { return ErrMissingIndividualTargets }

// InvalidInputError pinpoints the offending field.
type InvalidInputError struct {
	Field  string
	Detail string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Detail)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsMissingConfiguration reports whether the error means the month's
// configuration is incomplete (goals or distribution), as opposed to
// bad data.
func IsMissingConfiguration(err error) bool {
	return errors.Is(err, ErrMissingGoalParameters) ||
		errors.Is(err, ErrMissingIndividualTargets)
}
