package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/overseerhq/overseer/pkg/models"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	home := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatal(err)
	}
	st, err := Open(home)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestMigrationsAndTaskWindow(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 4; i++ {
		err := st.CreateTask(ctx, models.Task{
			SubordinateRole: "analyst",
			Status:          models.TaskCompleted,
			Category:        "reporting",
			CreatedAt:       now.Add(-time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}
	// Outside the window.
	err := st.CreateTask(ctx, models.Task{
		SubordinateRole: "analyst",
		Status:          models.TaskFailed,
		CreatedAt:       now.Add(-40 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateTask old: %v", err)
	}

	tasks, err := st.ListRecentTasks(ctx, "analyst", now.Add(-30*24*time.Hour), 100)
	if err != nil {
		t.Fatalf("ListRecentTasks: %v", err)
	}
	if len(tasks) != 4 {
		t.Fatalf("got %d tasks, want 4 (window filter)", len(tasks))
	}
	for i := 1; i < len(tasks); i++ {
		if tasks[i].CreatedAt.After(tasks[i-1].CreatedAt) {
			t.Fatalf("tasks not newest-first at index %d", i)
		}
	}

	tasks, err = st.ListRecentTasks(ctx, "analyst", now.Add(-30*24*time.Hour), 2)
	if err != nil {
		t.Fatalf("ListRecentTasks limit: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2 (limit)", len(tasks))
	}
}

func TestAmendmentLifecycle(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	ctx := context.Background()

	a := models.Amendment{
		AmendmentID:      "am-1",
		SubordinateRole:  "analyst",
		CreatedByRole:    "research_lead",
		Type:             models.AmendmentImprovement,
		TriggerPattern:   "task_category:reporting",
		InstructionDelta: "Double-check numbers before submitting.",
		ApprovalStatus:   models.ApprovalPending,
		EvaluationStatus: models.EvaluationPending,
	}
	if err := st.CreateAmendment(ctx, a); err != nil {
		t.Fatalf("CreateAmendment: %v", err)
	}

	got, err := st.GetAmendment(ctx, "am-1")
	if err != nil {
		t.Fatalf("GetAmendment: %v", err)
	}
	if got == nil || got.SubordinateRole != "analyst" || got.IsActive || got.AutoApproved {
		t.Fatalf("GetAmendment: got %+v", got)
	}

	n, err := st.CountActiveAmendments(ctx, "analyst")
	if err != nil || n != 0 {
		t.Fatalf("CountActiveAmendments: got %d, %v; want 0", n, err)
	}

	if err := st.SetAmendmentEvaluation(ctx, "am-1", models.EvaluationCompleted, true); err != nil {
		t.Fatalf("SetAmendmentEvaluation: %v", err)
	}
	n, err = st.CountActiveAmendments(ctx, "analyst")
	if err != nil || n != 1 {
		t.Fatalf("CountActiveAmendments after activate: got %d, %v; want 1", n, err)
	}

	if err := st.CreateAmendment(ctx, a); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate CreateAmendment: got %v, want ErrConflict", err)
	}
}

func TestRecommendationOutcome(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	ctx := context.Background()

	rec := models.Recommendation{
		RecommendationID: "rec-1",
		BotRole:          "kb-research",
		SubordinateRole:  "analyst",
		TargetingPattern: "task_category:reporting",
		ExpectedImpact:   models.ImpactMedium,
		Sources:          []string{"a", "b"},
	}
	if err := st.CreateRecommendation(ctx, rec); err != nil {
		t.Fatalf("CreateRecommendation: %v", err)
	}

	if got, err := st.GetRecommendationByAmendment(ctx, "am-1"); err != nil || got != nil {
		t.Fatalf("unlinked lookup: got %+v, %v; want nil, nil", got, err)
	}

	if err := st.LinkRecommendationAmendment(ctx, "rec-1", "am-1"); err != nil {
		t.Fatalf("LinkRecommendationAmendment: %v", err)
	}
	got, err := st.GetRecommendationByAmendment(ctx, "am-1")
	if err != nil || got == nil {
		t.Fatalf("linked lookup: %+v, %v", got, err)
	}
	if got.EvaluatedAt != nil {
		t.Fatalf("fresh recommendation should not be evaluated")
	}
	if len(got.Sources) != 2 {
		t.Fatalf("sources round-trip: got %v", got.Sources)
	}

	at := time.Now().UTC()
	if err := st.SetRecommendationOutcome(ctx, "rec-1", true, 0.4, 1.0, 0.6, at); err != nil {
		t.Fatalf("SetRecommendationOutcome: %v", err)
	}
	got, err = st.GetRecommendationByAmendment(ctx, "am-1")
	if err != nil || got == nil || got.Succeeded == nil || !*got.Succeeded || got.Impact == nil || *got.Impact != 0.4 {
		t.Fatalf("after outcome: %+v, %v", got, err)
	}

	pending, err := st.ListPendingRecommendations(ctx, "kb-research", "analyst")
	if err != nil {
		t.Fatalf("ListPendingRecommendations: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("evaluated recommendation still pending: %+v", pending)
	}
}

func TestLearningRecordConflict(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	ctx := context.Background()

	rec := models.LearningRecord{
		BotRole:          "kb",
		SubordinateRole:  "analyst",
		TargetingPattern: "task_category:reporting",
		Total:            1,
		Successful:       1,
		AvgImpact:        0.2,
		ConfidenceScore:  0.5,
	}
	if err := st.CreateLearningRecord(ctx, rec); err != nil {
		t.Fatalf("CreateLearningRecord: %v", err)
	}
	if err := st.CreateLearningRecord(ctx, rec); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate create: got %v, want ErrConflict", err)
	}

	rec.Total = 2
	rec.Failed = 1
	if err := st.UpdateLearningRecord(ctx, rec); err != nil {
		t.Fatalf("UpdateLearningRecord: %v", err)
	}
	got, err := st.GetLearningRecord(ctx, "kb", "analyst", "task_category:reporting")
	if err != nil || got == nil || got.Total != 2 || got.Failed != 1 {
		t.Fatalf("GetLearningRecord: %+v, %v", got, err)
	}

	if got, err := st.GetLearningRecord(ctx, "kb", "analyst", "task_category:absent"); err != nil || got != nil {
		t.Fatalf("absent key: got %+v, %v; want nil, nil", got, err)
	}
}

func TestBotMetricsUpsert(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := st.BumpBotGenerated(ctx, "kb"); err != nil {
		t.Fatalf("BumpBotGenerated: %v", err)
	}
	if err := st.BumpBotGenerated(ctx, "kb"); err != nil {
		t.Fatalf("BumpBotGenerated 2: %v", err)
	}
	if err := st.BumpBotSelected(ctx, "kb"); err != nil {
		t.Fatalf("BumpBotSelected: %v", err)
	}
	if err := st.BumpBotOutcome(ctx, "kb", true, now); err != nil {
		t.Fatalf("BumpBotOutcome success: %v", err)
	}
	if err := st.BumpBotOutcome(ctx, "kb", false, now); err != nil {
		t.Fatalf("BumpBotOutcome failure: %v", err)
	}

	m, err := st.GetBotMetrics(ctx, "kb")
	if err != nil || m == nil {
		t.Fatalf("GetBotMetrics: %+v, %v", m, err)
	}
	if m.Generated != 2 || m.Selected != 1 || m.Succeeded != 1 || m.Failed != 1 {
		t.Fatalf("counters: %+v", m)
	}
	if m.LastOutcomeAt == nil {
		t.Fatalf("last_outcome_at not set")
	}

	all, err := st.ListBotMetrics(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("ListBotMetrics: %+v, %v", all, err)
	}
}

func TestEscalationsAndReviewLog(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	e := models.Escalation{
		EscalationID:    "esc-1",
		FromRole:        "finance_lead",
		Target:          models.EscalationTargetCoS,
		SubordinateRole: "bookkeeper",
		Reason:          "2 consecutive task failures",
		Priority:        "high",
		Status:          models.EscalationPending,
	}
	if err := st.CreateEscalation(ctx, e); err != nil {
		t.Fatalf("CreateEscalation: %v", err)
	}
	if err := st.CreateAlert(ctx, "high", e.Reason, now); err != nil {
		t.Fatalf("CreateAlert: %v", err)
	}

	pending, err := st.ListEscalations(ctx, models.EscalationPending, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("ListEscalations pending: %+v, %v", pending, err)
	}
	if err := st.ResolveEscalation(ctx, "esc-1", now); err != nil {
		t.Fatalf("ResolveEscalation: %v", err)
	}
	pending, err = st.ListEscalations(ctx, models.EscalationPending, 10)
	if err != nil || len(pending) != 0 {
		t.Fatalf("after resolve: %+v, %v", pending, err)
	}

	escID := "esc-1"
	err = st.InsertReviewRecord(ctx, models.ReviewRecord{
		LeadRole:            "finance_lead",
		SubordinateRole:     "bookkeeper",
		Status:              models.ReviewEscalated,
		TrendDirection:      "declining",
		TrendSlope:          -0.4,
		CosScore:            0.2,
		TasksReviewed:       8,
		ConsecutiveFailures: 2,
		EscalationID:        &escID,
	})
	if err != nil {
		t.Fatalf("InsertReviewRecord: %v", err)
	}
	recs, err := st.ListReviewRecords(ctx, "finance_lead", 10)
	if err != nil || len(recs) != 1 {
		t.Fatalf("ListReviewRecords: %+v, %v", recs, err)
	}
	if recs[0].EscalationID == nil || *recs[0].EscalationID != "esc-1" {
		t.Fatalf("escalation link lost: %+v", recs[0])
	}
}

func TestMetricSnapshots(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 12; i++ {
		err := st.InsertMetricSnapshot(ctx, MetricSnapshot{
			BotRole:       "kb",
			SuccessRate:   float64(i) / 12,
			SelectionRate: 0.5,
			TakenAt:       now.Add(-time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("InsertMetricSnapshot: %v", err)
		}
	}
	snaps, err := st.ListMetricSnapshots(ctx, "kb", 10)
	if err != nil {
		t.Fatalf("ListMetricSnapshots: %v", err)
	}
	if len(snaps) != 10 {
		t.Fatalf("got %d snapshots, want 10", len(snaps))
	}
	for i := 1; i < len(snaps); i++ {
		if snaps[i].TakenAt.After(snaps[i-1].TakenAt) {
			t.Fatalf("snapshots not newest-first at %d", i)
		}
	}
}

func TestSeedDemoIdempotent(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	ctx := context.Background()

	if err := st.SeedDemo(ctx); err != nil {
		t.Fatalf("SeedDemo: %v", err)
	}
	if err := st.SeedDemo(ctx); err != nil {
		t.Fatalf("SeedDemo second call: %v", err)
	}
	tasks, err := st.ListRecentTasks(ctx, "research_analyst", time.Now().Add(-30*24*time.Hour), 100)
	if err != nil {
		t.Fatalf("ListRecentTasks: %v", err)
	}
	if len(tasks) != 6 {
		t.Fatalf("got %d demo tasks, want 6", len(tasks))
	}
}
