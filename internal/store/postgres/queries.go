package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/overseerhq/overseer/internal/store"
	"github.com/overseerhq/overseer/pkg/models"
)

func randomID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("r-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// Tasks

func (s *Store) ListRecentTasks(ctx context.Context, subordinateRole string, since time.Time, limit int) ([]models.Task, error) {
	if limit <= 0 {
		limit = models.DefaultReviewTaskLimit
	}
	rows, err := s.Pool.Query(ctx, `
SELECT task_id, subordinate_role, status, quality_score, due_date, completed_at, retry_count, category, failure_reason, created_at
FROM tasks WHERE subordinate_role = $1 AND created_at >= $2 ORDER BY created_at DESC LIMIT $3`,
		subordinateRole, since.UTC().Unix(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Task
	for rows.Next() {
		var (
			t         models.Task
			status    string
			quality   *float64
			due       *int64
			completed *int64
			createdAt int64
		)
		if err := rows.Scan(&t.TaskID, &t.SubordinateRole, &status, &quality, &due, &completed, &t.RetryCount, &t.Category, &t.FailureReason, &createdAt); err != nil {
			return nil, err
		}
		t.Status = models.TaskStatus(status)
		t.QualityScore = quality
		t.DueDate = unixPtr(due)
		t.CompletedAt = unixPtr(completed)
		t.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) CreateTask(ctx context.Context, t models.Task) error {
	if t.TaskID == "" {
		t.TaskID = randomID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.Pool.Exec(ctx, `
INSERT INTO tasks(task_id, subordinate_role, status, quality_score, due_date, completed_at, retry_count, category, failure_reason, created_at)
VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.TaskID, t.SubordinateRole, string(t.Status), t.QualityScore, ptrUnix(t.DueDate), ptrUnix(t.CompletedAt),
		t.RetryCount, t.Category, t.FailureReason, t.CreatedAt.Unix())
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: task %s", store.ErrConflict, t.TaskID)
	}
	return err
}

// Amendments

func (s *Store) CreateAmendment(ctx context.Context, a models.Amendment) error {
	if a.AmendmentID == "" {
		a.AmendmentID = randomID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.Pool.Exec(ctx, `
INSERT INTO amendments(amendment_id, subordinate_role, created_by_role, type, trigger_pattern, instruction_delta, knowledge_mutation, approval_status, is_active, evaluation_status, auto_approved, created_at)
VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.AmendmentID, a.SubordinateRole, a.CreatedByRole, a.Type, a.TriggerPattern, a.InstructionDelta, a.KnowledgeMutation,
		a.ApprovalStatus, a.IsActive, a.EvaluationStatus, a.AutoApproved, a.CreatedAt.Unix())
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: amendment %s", store.ErrConflict, a.AmendmentID)
	}
	return err
}

func (s *Store) GetAmendment(ctx context.Context, amendmentID string) (*models.Amendment, error) {
	row := s.Pool.QueryRow(ctx, `
SELECT amendment_id, subordinate_role, created_by_role, type, trigger_pattern, instruction_delta, knowledge_mutation, approval_status, is_active, evaluation_status, auto_approved, created_at
FROM amendments WHERE amendment_id = $1`, amendmentID)
	a, err := scanAmendment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) ListAmendments(ctx context.Context, subordinateRole string, limit int) ([]models.Amendment, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.Pool.Query(ctx, `
SELECT amendment_id, subordinate_role, created_by_role, type, trigger_pattern, instruction_delta, knowledge_mutation, approval_status, is_active, evaluation_status, auto_approved, created_at
FROM amendments WHERE subordinate_role = $1 ORDER BY created_at DESC LIMIT $2`, subordinateRole, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Amendment
	for rows.Next() {
		a, err := scanAmendment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CountActiveAmendments(ctx context.Context, subordinateRole string) (int, error) {
	var n int
	err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM amendments WHERE subordinate_role = $1 AND is_active`, subordinateRole).Scan(&n)
	return n, err
}

func (s *Store) SetAmendmentEvaluation(ctx context.Context, amendmentID, evaluationStatus string, isActive bool) error {
	_, err := s.Pool.Exec(ctx, `UPDATE amendments SET evaluation_status = $1, is_active = $2 WHERE amendment_id = $3`,
		evaluationStatus, isActive, amendmentID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAmendment(row rowScanner) (models.Amendment, error) {
	var (
		a         models.Amendment
		createdAt int64
	)
	if err := row.Scan(&a.AmendmentID, &a.SubordinateRole, &a.CreatedByRole, &a.Type, &a.TriggerPattern, &a.InstructionDelta,
		&a.KnowledgeMutation, &a.ApprovalStatus, &a.IsActive, &a.EvaluationStatus, &a.AutoApproved, &createdAt); err != nil {
		return models.Amendment{}, err
	}
	a.CreatedAt = time.Unix(createdAt, 0).UTC()
	return a, nil
}

// Recommendations

func (s *Store) CreateRecommendation(ctx context.Context, r models.Recommendation) error {
	if r.RecommendationID == "" {
		r.RecommendationID = randomID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	sources, err := json.Marshal(r.Sources)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
INSERT INTO recommendations(recommendation_id, bot_role, subordinate_role, targeting_pattern, expected_impact, content, sources, amendment_id, created_at)
VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.RecommendationID, r.BotRole, r.SubordinateRole, r.TargetingPattern, r.ExpectedImpact, r.Content, string(sources),
		r.AmendmentID, r.CreatedAt.Unix())
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: recommendation %s", store.ErrConflict, r.RecommendationID)
	}
	return err
}

func (s *Store) GetRecommendationByAmendment(ctx context.Context, amendmentID string) (*models.Recommendation, error) {
	row := s.Pool.QueryRow(ctx, `
SELECT recommendation_id, bot_role, subordinate_role, targeting_pattern, expected_impact, content, sources, amendment_id, succeeded, impact, variance_before, variance_after, evaluated_at, created_at
FROM recommendations WHERE amendment_id = $1`, amendmentID)
	r, err := scanRecommendation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) ListPendingRecommendations(ctx context.Context, botRole, subordinateRole string) ([]models.Recommendation, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT recommendation_id, bot_role, subordinate_role, targeting_pattern, expected_impact, content, sources, amendment_id, succeeded, impact, variance_before, variance_after, evaluated_at, created_at
FROM recommendations
WHERE bot_role = $1 AND subordinate_role = $2 AND evaluated_at IS NULL
ORDER BY created_at ASC`, botRole, subordinateRole)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Recommendation
	for rows.Next() {
		r, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) LinkRecommendationAmendment(ctx context.Context, recommendationID, amendmentID string) error {
	_, err := s.Pool.Exec(ctx, `UPDATE recommendations SET amendment_id = $1 WHERE recommendation_id = $2`, amendmentID, recommendationID)
	return err
}

func (s *Store) SetRecommendationOutcome(ctx context.Context, recommendationID string, succeeded bool, impact, varianceBefore, varianceAfter float64, at time.Time) error {
	_, err := s.Pool.Exec(ctx, `
UPDATE recommendations SET succeeded = $1, impact = $2, variance_before = $3, variance_after = $4, evaluated_at = $5
WHERE recommendation_id = $6`,
		succeeded, impact, varianceBefore, varianceAfter, at.UTC().Unix(), recommendationID)
	return err
}

func scanRecommendation(row rowScanner) (models.Recommendation, error) {
	var (
		r           models.Recommendation
		sources     string
		evaluatedAt *int64
		createdAt   int64
	)
	if err := row.Scan(&r.RecommendationID, &r.BotRole, &r.SubordinateRole, &r.TargetingPattern, &r.ExpectedImpact, &r.Content,
		&sources, &r.AmendmentID, &r.Succeeded, &r.Impact, &r.VarianceBefore, &r.VarianceAfter, &evaluatedAt, &createdAt); err != nil {
		return models.Recommendation{}, err
	}
	if sources != "" && sources != "null" {
		_ = json.Unmarshal([]byte(sources), &r.Sources)
	}
	r.EvaluatedAt = unixPtr(evaluatedAt)
	r.CreatedAt = time.Unix(createdAt, 0).UTC()
	return r, nil
}

// Learning records

func (s *Store) GetLearningRecord(ctx context.Context, botRole, subordinateRole, pattern string) (*models.LearningRecord, error) {
	row := s.Pool.QueryRow(ctx, `
SELECT bot_role, subordinate_role, targeting_pattern, total_recommendations, successful_recommendations, failed_recommendations, avg_impact, confidence_score, updated_at
FROM learning_records WHERE bot_role = $1 AND subordinate_role = $2 AND targeting_pattern = $3`, botRole, subordinateRole, pattern)
	rec, err := scanLearningRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) ListLearningRecords(ctx context.Context, botRole, subordinateRole string) ([]models.LearningRecord, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT bot_role, subordinate_role, targeting_pattern, total_recommendations, successful_recommendations, failed_recommendations, avg_impact, confidence_score, updated_at
FROM learning_records WHERE bot_role = $1 AND subordinate_role = $2 ORDER BY targeting_pattern ASC`, botRole, subordinateRole)
	if err != nil {
		return nil, err
	}
	return collectLearningRecords(rows)
}

func (s *Store) ListLearningRecordsByBot(ctx context.Context, botRole string) ([]models.LearningRecord, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT bot_role, subordinate_role, targeting_pattern, total_recommendations, successful_recommendations, failed_recommendations, avg_impact, confidence_score, updated_at
FROM learning_records WHERE bot_role = $1 ORDER BY targeting_pattern ASC, subordinate_role ASC`, botRole)
	if err != nil {
		return nil, err
	}
	return collectLearningRecords(rows)
}

func (s *Store) CreateLearningRecord(ctx context.Context, rec models.LearningRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	_, err := s.Pool.Exec(ctx, `
INSERT INTO learning_records(bot_role, subordinate_role, targeting_pattern, total_recommendations, successful_recommendations, failed_recommendations, avg_impact, confidence_score, updated_at)
VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.BotRole, rec.SubordinateRole, rec.TargetingPattern, rec.Total, rec.Successful, rec.Failed, rec.AvgImpact, rec.ConfidenceScore, rec.UpdatedAt.Unix())
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: learning record (%s, %s, %s)", store.ErrConflict, rec.BotRole, rec.SubordinateRole, rec.TargetingPattern)
	}
	return err
}

func (s *Store) UpdateLearningRecord(ctx context.Context, rec models.LearningRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	_, err := s.Pool.Exec(ctx, `
UPDATE learning_records
SET total_recommendations = $1, successful_recommendations = $2, failed_recommendations = $3, avg_impact = $4, confidence_score = $5, updated_at = $6
WHERE bot_role = $7 AND subordinate_role = $8 AND targeting_pattern = $9`,
		rec.Total, rec.Successful, rec.Failed, rec.AvgImpact, rec.ConfidenceScore, rec.UpdatedAt.Unix(),
		rec.BotRole, rec.SubordinateRole, rec.TargetingPattern)
	return err
}

func collectLearningRecords(rows pgx.Rows) ([]models.LearningRecord, error) {
	defer rows.Close()
	var out []models.LearningRecord
	for rows.Next() {
		rec, err := scanLearningRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanLearningRecord(row rowScanner) (models.LearningRecord, error) {
	var (
		rec       models.LearningRecord
		updatedAt int64
	)
	if err := row.Scan(&rec.BotRole, &rec.SubordinateRole, &rec.TargetingPattern, &rec.Total, &rec.Successful, &rec.Failed,
		&rec.AvgImpact, &rec.ConfidenceScore, &updatedAt); err != nil {
		return models.LearningRecord{}, err
	}
	rec.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return rec, nil
}

// Bot metrics

func (s *Store) GetBotMetrics(ctx context.Context, botRole string) (*models.BotMetrics, error) {
	row := s.Pool.QueryRow(ctx, `
SELECT bot_role, generated, selected, succeeded, failed, last_outcome_at FROM bot_metrics WHERE bot_role = $1`, botRole)
	m, err := scanBotMetrics(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) ListBotMetrics(ctx context.Context) ([]models.BotMetrics, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT bot_role, generated, selected, succeeded, failed, last_outcome_at FROM bot_metrics ORDER BY bot_role ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BotMetrics
	for rows.Next() {
		m, err := scanBotMetrics(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) BumpBotGenerated(ctx context.Context, botRole string) error {
	_, err := s.Pool.Exec(ctx, `
INSERT INTO bot_metrics(bot_role, generated) VALUES($1, 1)
ON CONFLICT(bot_role) DO UPDATE SET generated = bot_metrics.generated + 1`, botRole)
	return err
}

func (s *Store) BumpBotSelected(ctx context.Context, botRole string) error {
	_, err := s.Pool.Exec(ctx, `
INSERT INTO bot_metrics(bot_role, selected) VALUES($1, 1)
ON CONFLICT(bot_role) DO UPDATE SET selected = bot_metrics.selected + 1`, botRole)
	return err
}

func (s *Store) BumpBotOutcome(ctx context.Context, botRole string, succeeded bool, at time.Time) error {
	col := "failed"
	if succeeded {
		col = "succeeded"
	}
	q := fmt.Sprintf(`
INSERT INTO bot_metrics(bot_role, %[1]s, last_outcome_at) VALUES($1, 1, $2)
ON CONFLICT(bot_role) DO UPDATE SET %[1]s = bot_metrics.%[1]s + 1, last_outcome_at = excluded.last_outcome_at`, col)
	_, err := s.Pool.Exec(ctx, q, botRole, at.UTC().Unix())
	return err
}

func scanBotMetrics(row rowScanner) (models.BotMetrics, error) {
	var (
		m    models.BotMetrics
		last *int64
	)
	if err := row.Scan(&m.BotRole, &m.Generated, &m.Selected, &m.Succeeded, &m.Failed, &last); err != nil {
		return models.BotMetrics{}, err
	}
	m.LastOutcomeAt = unixPtr(last)
	return m, nil
}

// Escalations and alerts

func (s *Store) CreateEscalation(ctx context.Context, e models.Escalation) error {
	if e.EscalationID == "" {
		e.EscalationID = randomID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.Pool.Exec(ctx, `
INSERT INTO escalations(escalation_id, from_role, target, subordinate_role, reason, priority, status, created_at)
VALUES($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.EscalationID, e.FromRole, e.Target, e.SubordinateRole, e.Reason, e.Priority, e.Status, e.CreatedAt.Unix())
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: escalation %s", store.ErrConflict, e.EscalationID)
	}
	return err
}

func (s *Store) ListEscalations(ctx context.Context, status string, limit int) ([]models.Escalation, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT escalation_id, from_role, target, subordinate_role, reason, priority, status, created_at, resolved_at FROM escalations`
	args := []any{}
	if status != "" {
		q += ` WHERE status = $1 ORDER BY created_at DESC LIMIT $2`
		args = append(args, status, limit)
	} else {
		q += ` ORDER BY created_at DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Escalation
	for rows.Next() {
		var (
			e         models.Escalation
			createdAt int64
			resolved  *int64
		)
		if err := rows.Scan(&e.EscalationID, &e.FromRole, &e.Target, &e.SubordinateRole, &e.Reason, &e.Priority, &e.Status, &createdAt, &resolved); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		e.ResolvedAt = unixPtr(resolved)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) ResolveEscalation(ctx context.Context, escalationID string, at time.Time) error {
	_, err := s.Pool.Exec(ctx, `UPDATE escalations SET status = 'resolved', resolved_at = $1 WHERE escalation_id = $2`,
		at.UTC().Unix(), escalationID)
	return err
}

func (s *Store) CreateAlert(ctx context.Context, severity, message string, at time.Time) error {
	_, err := s.Pool.Exec(ctx, `INSERT INTO alerts(severity, message, created_at) VALUES($1, $2, $3)`,
		severity, message, at.UTC().Unix())
	return err
}

// Review audit log

func (s *Store) InsertReviewRecord(ctx context.Context, r models.ReviewRecord) error {
	if r.ReviewID == "" {
		r.ReviewID = randomID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.Pool.Exec(ctx, `
INSERT INTO review_log(review_id, lead_role, subordinate_role, status, trend_direction, trend_slope, cos_score, tasks_reviewed, consecutive_failures, amendment_id, escalation_id, detail, created_at)
VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		r.ReviewID, r.LeadRole, r.SubordinateRole, r.Status, r.TrendDirection, r.TrendSlope, r.CosScore,
		r.TasksReviewed, r.ConsecutiveFailures, r.AmendmentID, r.EscalationID, r.Detail, r.CreatedAt.Unix())
	return err
}

func (s *Store) ListReviewRecords(ctx context.Context, leadRole string, limit int) ([]models.ReviewRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.Pool.Query(ctx, `
SELECT review_id, lead_role, subordinate_role, status, trend_direction, trend_slope, cos_score, tasks_reviewed, consecutive_failures, amendment_id, escalation_id, detail, created_at
FROM review_log WHERE lead_role = $1 ORDER BY created_at DESC LIMIT $2`, leadRole, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ReviewRecord
	for rows.Next() {
		var (
			r         models.ReviewRecord
			createdAt int64
		)
		if err := rows.Scan(&r.ReviewID, &r.LeadRole, &r.SubordinateRole, &r.Status, &r.TrendDirection, &r.TrendSlope, &r.CosScore,
			&r.TasksReviewed, &r.ConsecutiveFailures, &r.AmendmentID, &r.EscalationID, &r.Detail, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// Bot metric snapshots

func (s *Store) InsertMetricSnapshot(ctx context.Context, snap store.MetricSnapshot) error {
	if snap.TakenAt.IsZero() {
		snap.TakenAt = time.Now().UTC()
	}
	_, err := s.Pool.Exec(ctx, `
INSERT INTO bot_metric_snapshots(bot_role, success_rate, selection_rate, taken_at) VALUES($1, $2, $3, $4)`,
		snap.BotRole, snap.SuccessRate, snap.SelectionRate, snap.TakenAt.Unix())
	return err
}

func (s *Store) ListMetricSnapshots(ctx context.Context, botRole string, limit int) ([]store.MetricSnapshot, error) {
	if limit <= 0 {
		limit = models.DefaultSnapshotWindow
	}
	rows, err := s.Pool.Query(ctx, `
SELECT bot_role, success_rate, selection_rate, taken_at FROM bot_metric_snapshots
WHERE bot_role = $1 ORDER BY taken_at DESC LIMIT $2`, botRole, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.MetricSnapshot
	for rows.Next() {
		var (
			snap    store.MetricSnapshot
			takenAt int64
		)
		if err := rows.Scan(&snap.BotRole, &snap.SuccessRate, &snap.SelectionRate, &takenAt); err != nil {
			return nil, err
		}
		snap.TakenAt = time.Unix(takenAt, 0).UTC()
		out = append(out, snap)
	}
	return out, rows.Err()
}

// SeedDemo mirrors the SQLite demo dataset.
func (s *Store) SeedDemo(ctx context.Context) error {
	var n int
	if err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE task_id LIKE 'demo-%'`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	now := time.Now().UTC()
	for i, st := range []models.TaskStatus{models.TaskFailed, models.TaskFailed, models.TaskRejected, models.TaskCompleted, models.TaskCompleted, models.TaskSuccess} {
		t := models.Task{
			TaskID:          fmt.Sprintf("demo-task-%d", i),
			SubordinateRole: "research_analyst",
			Status:          st,
			Category:        "user_research",
			CreatedAt:       now.Add(-time.Duration(i+1) * 24 * time.Hour),
		}
		if st.FailureLike() {
			t.FailureReason = "missed acceptance criteria"
		}
		if err := s.CreateTask(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// Helpers

func unixPtr(v *int64) *time.Time {
	if v == nil {
		return nil
	}
	t := time.Unix(*v, 0).UTC()
	return &t
}

func ptrUnix(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	v := t.UTC().Unix()
	return &v
}
