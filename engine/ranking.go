/*
ranking.go - Team rollup and leaderboard ordering

PURPOSE:
  Folds per-agent compensation results into a team summary: an overall
  score per agent, a deterministic ordering, and payout totals.

SCORING POLICY:
  The overall score is the weighted sum of each pillar's ACHIEVEMENT
  RATIO (not payout), gated exactly like the payout computation: a
  pillar below its setpoint contributes zero to the score. The ranked
  rows additionally carry the ungated ratios so progress displays can
  show how far below the gate an agent landed even when the scored
  contribution is zero.

DETERMINISM:
  Equal scores tie-break by agent ID ascending, so re-running the
  rollup over the same inputs always yields the same order.
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AGGREGATE ROLLUP
// =============================================================================

// AgentResult pairs an agent with their computed compensation.
type AgentResult struct {
	AgentID AgentID
	Result  *CompensationResult
}

// RankedAgent is one row of the leaderboard.
type RankedAgent struct {
	Rank    int
	AgentID AgentID

	// Weighted sum of gated achievement ratios.
	Score decimal.Decimal

	// Ungated ratios for display (progress bars keep moving below the
	// gate even though the gated score contribution is zero).
	DisplayRatios PillarValues

	FinalPayout decimal.Decimal
}

// TeamSummary is the rollup over a set of agent results.
type TeamSummary struct {
	Agents []RankedAgent

	TotalComputedPayout decimal.Decimal
	TotalTopUp          decimal.Decimal
	TotalFinalPayout    decimal.Decimal
}

// RankAgents orders agents by overall score, descending, ties broken
// by agent ID ascending. Each result's own pillar weights and gates
// are used, so mixed-plan teams rank consistently with what each
// agent's payout was computed from.
func RankAgents(results []AgentResult) TeamSummary {
	summary := TeamSummary{
		TotalComputedPayout: decimal.Zero,
		TotalTopUp:          decimal.Zero,
		TotalFinalPayout:    decimal.Zero,
	}

	for _, ar := range results {
		if ar.Result == nil {
			continue
		}
		row := RankedAgent{
			AgentID:     ar.AgentID,
			Score:       overallScore(ar.Result),
			FinalPayout: ar.Result.FinalPayout,
		}
		for _, pr := range ar.Result.Pillars {
			switch pr.Pillar {
			case PillarActivation:
				row.DisplayRatios.Activation = pr.AchievementRatio
			case PillarMigration:
				row.DisplayRatios.Migration = pr.AchievementRatio
			case PillarTPV:
				row.DisplayRatios.TPV = pr.AchievementRatio
			}
		}
		summary.Agents = append(summary.Agents, row)

		summary.TotalComputedPayout = summary.TotalComputedPayout.Add(ar.Result.ComputedPayout)
		summary.TotalTopUp = summary.TotalTopUp.Add(ar.Result.TopUp)
		summary.TotalFinalPayout = summary.TotalFinalPayout.Add(ar.Result.FinalPayout)
	}

	sort.SliceStable(summary.Agents, func(i, j int) bool {
		a, b := summary.Agents[i], summary.Agents[j]
		if !a.Score.Equal(b.Score) {
			return a.Score.GreaterThan(b.Score)
		}
		return a.AgentID < b.AgentID
	})
	for i := range summary.Agents {
		summary.Agents[i].Rank = i + 1
	}

	return summary
}

// overallScore sums weight/100 * ratio over the gated pillars.
func overallScore(r *CompensationResult) decimal.Decimal {
	score := decimal.Zero
	for _, pr := range r.Pillars {
		if !pr.GatePassed {
			continue
		}
		score = score.Add(pr.Weight.Div(hundred).Mul(pr.AchievementRatio))
	}
	return score
}
