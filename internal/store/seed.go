package store

import (
	"context"
	"time"

	"github.com/overseerhq/overseer/pkg/models"
)

// SeedDemo loads a small demo dataset (a subordinate with a failing streak and
// a pending recommendation) so a fresh install has something to review.
// Idempotent: a second call is a no-op when demo tasks already exist.
func (s *sqliteStore) SeedDemo(ctx context.Context) error {
	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE task_id LIKE 'demo-%'`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	now := time.Now().UTC()
	quality := func(q float64) *float64 { return &q }

	statuses := []struct {
		status models.TaskStatus
		reason string
	}{
		{models.TaskFailed, "missed acceptance criteria"},
		{models.TaskFailed, "missed acceptance criteria"},
		{models.TaskRejected, "incomplete sources"},
		{models.TaskCompleted, ""},
		{models.TaskCompleted, ""},
		{models.TaskSuccess, ""},
	}
	for i, st := range statuses {
		created := now.Add(-time.Duration(i+1) * 24 * time.Hour)
		t := models.Task{
			TaskID:          "demo-task-" + string(rune('a'+i)),
			SubordinateRole: "research_analyst",
			Status:          st.status,
			Category:        "user_research",
			FailureReason:   st.reason,
			CreatedAt:       created,
		}
		if st.status.SuccessLike() {
			done := created.Add(4 * time.Hour)
			t.CompletedAt = &done
			t.QualityScore = quality(82)
		}
		if err := s.CreateTask(ctx, t); err != nil {
			return err
		}
	}

	return s.CreateRecommendation(ctx, models.Recommendation{
		RecommendationID: "demo-rec-1",
		BotRole:          "knowledge_bot_research",
		SubordinateRole:  "research_analyst",
		TargetingPattern: "task_category:user_research",
		ExpectedImpact:   models.ImpactMedium,
		Content:          "Interview summaries should cite at least two primary sources before synthesis.",
		Sources:          []string{"internal:playbook/research", "https://example.com/interview-guides"},
		CreatedAt:        now,
	})
}
