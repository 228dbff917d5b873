package engine_test

import (
	"testing"
	"time"

	"github.com/vendaforte/rv-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// computeFor runs the engine with the standard goal and the given
// realized values; ranking tests feed on real engine output.
func computeFor(t *testing.T, agentID string, realized engine.RealizedMetrics) engine.AgentResult {
	t.Helper()
	loc := saoPaulo(t)
	july := month(2025, time.July)

	res, err := engine.ComputeCompensation(
		standardGoal(july), engine.AgentID(agentID), standardTargets(), realized,
		nil, july, loc, engine.Options{})
	if err != nil {
		t.Fatalf("compute for %s: %v", agentID, err)
	}
	return engine.AgentResult{AgentID: engine.AgentID(agentID), Result: res}
}

// =============================================================================
// AGGREGATE ROLLUP
// =============================================================================

func TestRankAgents_OrdersByScoreDescending(t *testing.T) {
	// GIVEN: Three agents at 120%, 100%, and 50% activation (other
	//        pillars at zero)
	// THEN: Order is high to low; the 50% agent scores zero (gated)

	results := []engine.AgentResult{
		computeFor(t, "carla", engine.RealizedMetrics{Activations: dec("10")}),
		computeFor(t, "bruno", engine.RealizedMetrics{Activations: dec("5")}),
		computeFor(t, "ana", engine.RealizedMetrics{Activations: dec("12")}),
	}

	summary := engine.RankAgents(results)

	gotOrder := []engine.AgentID{summary.Agents[0].AgentID, summary.Agents[1].AgentID, summary.Agents[2].AgentID}
	wantOrder := []engine.AgentID{"ana", "carla", "bruno"}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("order = %v, want %v", gotOrder, wantOrder)
		}
	}

	// 120% of a 30-weight pillar: score = 0.30 * 1.2 = 0.36
	if !summary.Agents[0].Score.Equal(dec("0.36")) {
		t.Errorf("top score = %v, want 0.36", summary.Agents[0].Score)
	}
	// Below the 80% gate: zero score contribution.
	if !summary.Agents[2].Score.IsZero() {
		t.Errorf("gated agent score = %v, want 0", summary.Agents[2].Score)
	}
	for i, row := range summary.Agents {
		if row.Rank != i+1 {
			t.Errorf("rank[%d] = %d", i, row.Rank)
		}
	}
}

func TestRankAgents_GatedScore_UngatedDisplay(t *testing.T) {
	// An agent below the gate scores zero but still displays the real
	// ratio - progress bars keep moving even when payout is gated.
	results := []engine.AgentResult{
		computeFor(t, "bruno", engine.RealizedMetrics{Activations: dec("5")}),
	}

	summary := engine.RankAgents(results)
	row := summary.Agents[0]

	if !row.Score.IsZero() {
		t.Errorf("score = %v, want 0 below the gate", row.Score)
	}
	if !row.DisplayRatios.Activation.Equal(dec("0.5")) {
		t.Errorf("display ratio = %v, want 0.5 (ungated)", row.DisplayRatios.Activation)
	}
}

func TestRankAgents_StableTieBreak(t *testing.T) {
	// Equal scores order by agent ID ascending, every run.
	same := engine.RealizedMetrics{Activations: dec("10")}
	results := []engine.AgentResult{
		computeFor(t, "zeca", same),
		computeFor(t, "alice", same),
		computeFor(t, "mario", same),
	}

	for run := 0; run < 5; run++ {
		summary := engine.RankAgents(results)
		want := []engine.AgentID{"alice", "mario", "zeca"}
		for i := range want {
			if summary.Agents[i].AgentID != want[i] {
				t.Fatalf("run %d: position %d = %s, want %s",
					run, i, summary.Agents[i].AgentID, want[i])
			}
		}
	}
}

func TestRankAgents_Totals(t *testing.T) {
	loc := saoPaulo(t)
	july := month(2025, time.July)
	goal := standardGoal(july)

	hired := time.Date(2025, time.July, 1, 0, 0, 0, 0, loc)
	newHire, err := engine.ComputeCompensation(goal, "novato", standardTargets(),
		engine.RealizedMetrics{}, &hired, july, loc, engine.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results := []engine.AgentResult{
		computeFor(t, "ana", engine.RealizedMetrics{Activations: dec("10")}), // payout 360
		{AgentID: "novato", Result: newHire},                                 // floored at 900
	}

	summary := engine.RankAgents(results)
	if !summary.TotalComputedPayout.Equal(dec("360")) {
		t.Errorf("total computed = %v, want 360", summary.TotalComputedPayout)
	}
	if !summary.TotalTopUp.Equal(dec("900")) {
		t.Errorf("total top-up = %v, want 900", summary.TotalTopUp)
	}
	if !summary.TotalFinalPayout.Equal(dec("1260")) {
		t.Errorf("total final = %v, want 1260", summary.TotalFinalPayout)
	}
}

func TestRankAgents_SkipsNilResults(t *testing.T) {
	results := []engine.AgentResult{
		computeFor(t, "ana", engine.RealizedMetrics{Activations: dec("10")}),
		{AgentID: "sem-metas", Result: nil}, // agent whose computation failed upstream
	}
	summary := engine.RankAgents(results)
	if len(summary.Agents) != 1 {
		t.Errorf("ranked %d agents, want 1", len(summary.Agents))
	}
}
