package insight

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/overseerhq/overseer/internal/store"
	"github.com/overseerhq/overseer/pkg/models"
)

func openTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedLearning(t *testing.T, s store.Store, sub, pattern string, total, successful int, avgImpact float64) {
	t.Helper()
	err := s.CreateLearningRecord(context.Background(), models.LearningRecord{
		BotRole:          "knowledge_bot_research",
		SubordinateRole:  sub,
		TargetingPattern: pattern,
		Total:            total,
		Successful:       successful,
		Failed:           total - successful,
		AvgImpact:        avgImpact,
		UpdatedAt:        time.Now(),
	})
	if err != nil {
		t.Fatalf("seed learning: %v", err)
	}
}

func TestBotMetricsRatesAndPatterns(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	// 4 generated, 2 selected, 3 succeeded, 1 failed.
	for i := 0; i < 4; i++ {
		if err := s.BumpBotGenerated(ctx, "knowledge_bot_research"); err != nil {
			t.Fatalf("bump generated: %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		if err := s.BumpBotSelected(ctx, "knowledge_bot_research"); err != nil {
			t.Fatalf("bump selected: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		if err := s.BumpBotOutcome(ctx, "knowledge_bot_research", true, now); err != nil {
			t.Fatalf("bump outcome: %v", err)
		}
	}
	if err := s.BumpBotOutcome(ctx, "knowledge_bot_research", false, now); err != nil {
		t.Fatalf("bump outcome: %v", err)
	}

	seedLearning(t, s, "research_analyst", "citation discipline", 5, 5, 0.4)
	seedLearning(t, s, "research_writer", "citation discipline", 4, 3, 0.2)
	seedLearning(t, s, "research_analyst", "verbose summaries", 6, 1, 0.05)
	seedLearning(t, s, "research_analyst", "tiny sample", 2, 0, -0.1)

	m := &Miner{Store: s}
	rep, err := m.BotMetrics(ctx, "knowledge_bot_research", now)
	if err != nil {
		t.Fatalf("bot metrics: %v", err)
	}
	if rep.SelectionRate != 0.5 {
		t.Fatalf("selection rate %v, want 0.5", rep.SelectionRate)
	}
	if rep.SuccessRate != 0.75 {
		t.Fatalf("success rate %v, want 0.75", rep.SuccessRate)
	}
	if rep.HighestImpactPattern != "citation discipline" {
		t.Fatalf("highest impact %q", rep.HighestImpactPattern)
	}
	// "tiny sample" is gated out by total <= 2.
	if rep.LowestSuccessPattern != "verbose summaries" {
		t.Fatalf("lowest success %q", rep.LowestSuccessPattern)
	}
	if rep.CrossSubordinateCount != 1 {
		t.Fatalf("cross-subordinate count %d, want 1", rep.CrossSubordinateCount)
	}
	if rep.Trend != string(TrendStable) {
		t.Fatalf("trend %q, want stable with no snapshots", rep.Trend)
	}
}

func TestBotMetricsZeroGuards(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	m := &Miner{Store: s}
	rep, err := m.BotMetrics(context.Background(), "knowledge_bot_unknown", time.Now())
	if err != nil {
		t.Fatalf("bot metrics: %v", err)
	}
	if rep.SelectionRate != 0 || rep.SuccessRate != 0 {
		t.Fatalf("rates must be 0 for an unseen bot: %+v", rep)
	}
}

func TestSnapshotTrend(t *testing.T) {
	t.Parallel()

	mk := func(rates ...float64) []store.MetricSnapshot {
		out := make([]store.MetricSnapshot, len(rates))
		for i, r := range rates {
			out[i] = store.MetricSnapshot{SuccessRate: r}
		}
		return out
	}

	if got := SnapshotTrend(mk(0.9, 0.1)); got != TrendStable {
		t.Fatalf("two snapshots: %q, want stable", got)
	}
	// Newest-first: newer half clearly above the older half.
	if got := SnapshotTrend(mk(0.9, 0.8, 0.5, 0.4)); got != TrendImproving {
		t.Fatalf("improving: got %q", got)
	}
	if got := SnapshotTrend(mk(0.3, 0.4, 0.8, 0.9)); got != TrendDeclining {
		t.Fatalf("declining: got %q", got)
	}
	if got := SnapshotTrend(mk(0.5, 0.52, 0.5, 0.49)); got != TrendStable {
		t.Fatalf("within band: got %q", got)
	}
}

func TestTakeSnapshotFeedsTrend(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	m := &Miner{Store: s}
	now := time.Now()

	// Three periods: all failures, then mixed, then mostly success.
	if err := s.BumpBotOutcome(ctx, "bot", false, now); err != nil {
		t.Fatal(err)
	}
	if err := m.TakeSnapshot(ctx, "bot", now.Add(-2*time.Hour)); err != nil {
		t.Fatalf("snapshot 1: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := s.BumpBotOutcome(ctx, "bot", true, now); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.TakeSnapshot(ctx, "bot", now.Add(-time.Hour)); err != nil {
		t.Fatalf("snapshot 2: %v", err)
	}
	for i := 0; i < 6; i++ {
		if err := s.BumpBotOutcome(ctx, "bot", true, now); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.TakeSnapshot(ctx, "bot", now); err != nil {
		t.Fatalf("snapshot 3: %v", err)
	}

	snaps, err := s.ListMetricSnapshots(ctx, "bot", models.DefaultSnapshotWindow)
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("got %d snapshots, want 3", len(snaps))
	}
	if got := SnapshotTrend(snaps); got != TrendImproving {
		t.Fatalf("trend %q, want improving", got)
	}
}

func TestCrossSubordinateInsights(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	seedLearning(t, s, "research_analyst", "citation discipline", 5, 5, 0.4)
	seedLearning(t, s, "research_writer", "citation discipline", 5, 3, 0.2)
	seedLearning(t, s, "research_analyst", "structured outlines", 4, 2, 0.3)
	seedLearning(t, s, "research_writer", "structured outlines", 4, 2, 0.1)
	seedLearning(t, s, "qa_engineer", "structured outlines", 4, 2, 0.1)
	seedLearning(t, s, "research_analyst", "solo pattern", 10, 9, 0.6)
	seedLearning(t, s, "research_writer", "never worked", 5, 0, -0.2)

	m := &Miner{Store: s}
	insights, err := m.CrossSubordinateInsights(ctx, "knowledge_bot_research")
	if err != nil {
		t.Fatalf("insights: %v", err)
	}
	if len(insights) != 2 {
		t.Fatalf("got %d insights, want 2: %+v", len(insights), insights)
	}

	// Three subordinates beat two regardless of success counts.
	if insights[0].TargetingPattern != "structured outlines" {
		t.Fatalf("first %q, want structured outlines", insights[0].TargetingPattern)
	}
	if len(insights[0].Subordinates) != 3 || insights[0].SuccessCount != 6 {
		t.Fatalf("outline aggregate: %+v", insights[0])
	}

	cite := insights[1]
	if cite.TargetingPattern != "citation discipline" || cite.SuccessCount != 8 {
		t.Fatalf("citation aggregate: %+v", cite)
	}
	// Weighted impact: (0.4×5 + 0.2×5) / 10 = 0.3.
	if math.Abs(cite.WeightedImpact-0.3) > 1e-9 {
		t.Fatalf("weighted impact %v, want 0.3", cite.WeightedImpact)
	}
	if cite.ConfidenceScore <= 0 || cite.ConfidenceScore > 1 {
		t.Fatalf("confidence %v out of range", cite.ConfidenceScore)
	}
}
