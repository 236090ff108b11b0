package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/overseerhq/overseer/pkg/models"
)

// Tasks

func (s *sqliteStore) ListRecentTasks(ctx context.Context, subordinateRole string, since time.Time, limit int) ([]models.Task, error) {
	if limit <= 0 {
		limit = models.DefaultReviewTaskLimit
	}
	rows, err := s.stmtListRecentTasks.QueryContext(ctx, subordinateRole, since.UTC().Unix(), limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *sqliteStore) CreateTask(ctx context.Context, t models.Task) error {
	if t.TaskID == "" {
		t.TaskID = randomID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO tasks(task_id, subordinate_role, status, quality_score, due_date, completed_at, retry_count, category, failure_reason, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TaskID, t.SubordinateRole, string(t.Status), nullFloat(t.QualityScore), nullUnix(t.DueDate), nullUnix(t.CompletedAt),
		t.RetryCount, t.Category, t.FailureReason, t.CreatedAt.Unix())
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: task %s", ErrConflict, t.TaskID)
	}
	return err
}

func scanTask(rows *sql.Rows) (models.Task, error) {
	var (
		t         models.Task
		status    string
		quality   sql.NullFloat64
		due       sql.NullInt64
		completed sql.NullInt64
		createdAt int64
	)
	if err := rows.Scan(&t.TaskID, &t.SubordinateRole, &status, &quality, &due, &completed, &t.RetryCount, &t.Category, &t.FailureReason, &createdAt); err != nil {
		return models.Task{}, err
	}
	t.Status = models.TaskStatus(status)
	if quality.Valid {
		q := quality.Float64
		t.QualityScore = &q
	}
	t.DueDate = timePtr(due)
	t.CompletedAt = timePtr(completed)
	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	return t, nil
}

// Amendments

func (s *sqliteStore) CreateAmendment(ctx context.Context, a models.Amendment) error {
	if a.AmendmentID == "" {
		a.AmendmentID = randomID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO amendments(amendment_id, subordinate_role, created_by_role, type, trigger_pattern, instruction_delta, knowledge_mutation, approval_status, is_active, evaluation_status, auto_approved, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.AmendmentID, a.SubordinateRole, a.CreatedByRole, a.Type, a.TriggerPattern, a.InstructionDelta, a.KnowledgeMutation,
		a.ApprovalStatus, boolInt(a.IsActive), a.EvaluationStatus, boolInt(a.AutoApproved), a.CreatedAt.Unix())
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: amendment %s", ErrConflict, a.AmendmentID)
	}
	return err
}

func (s *sqliteStore) GetAmendment(ctx context.Context, amendmentID string) (*models.Amendment, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT amendment_id, subordinate_role, created_by_role, type, trigger_pattern, instruction_delta, knowledge_mutation, approval_status, is_active, evaluation_status, auto_approved, created_at
FROM amendments WHERE amendment_id = ?`, amendmentID)
	a, err := scanAmendment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *sqliteStore) ListAmendments(ctx context.Context, subordinateRole string, limit int) ([]models.Amendment, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT amendment_id, subordinate_role, created_by_role, type, trigger_pattern, instruction_delta, knowledge_mutation, approval_status, is_active, evaluation_status, auto_approved, created_at
FROM amendments WHERE subordinate_role = ? ORDER BY created_at DESC LIMIT ?`, subordinateRole, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

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

func (s *sqliteStore) CountActiveAmendments(ctx context.Context, subordinateRole string) (int, error) {
	var n int
	err := s.stmtCountActive.QueryRowContext(ctx, subordinateRole).Scan(&n)
	return n, err
}

func (s *sqliteStore) SetAmendmentEvaluation(ctx context.Context, amendmentID, evaluationStatus string, isActive bool) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE amendments SET evaluation_status = ?, is_active = ? WHERE amendment_id = ?`,
		evaluationStatus, boolInt(isActive), amendmentID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAmendment(row rowScanner) (models.Amendment, error) {
	var (
		a            models.Amendment
		isActive     int
		autoApproved int
		createdAt    int64
	)
	if err := row.Scan(&a.AmendmentID, &a.SubordinateRole, &a.CreatedByRole, &a.Type, &a.TriggerPattern, &a.InstructionDelta,
		&a.KnowledgeMutation, &a.ApprovalStatus, &isActive, &a.EvaluationStatus, &autoApproved, &createdAt); err != nil {
		return models.Amendment{}, err
	}
	a.IsActive = isActive != 0
	a.AutoApproved = autoApproved != 0
	a.CreatedAt = time.Unix(createdAt, 0).UTC()
	return a, nil
}

// Recommendations

func (s *sqliteStore) CreateRecommendation(ctx context.Context, r models.Recommendation) error {
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
	_, err = s.DB.ExecContext(ctx, `
INSERT INTO recommendations(recommendation_id, bot_role, subordinate_role, targeting_pattern, expected_impact, content, sources, amendment_id, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RecommendationID, r.BotRole, r.SubordinateRole, r.TargetingPattern, r.ExpectedImpact, r.Content, string(sources),
		nullString(r.AmendmentID), r.CreatedAt.Unix())
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: recommendation %s", ErrConflict, r.RecommendationID)
	}
	return err
}

func (s *sqliteStore) GetRecommendationByAmendment(ctx context.Context, amendmentID string) (*models.Recommendation, error) {
	row := s.stmtRecByAmendment.QueryRowContext(ctx, amendmentID)
	r, err := scanRecommendation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *sqliteStore) ListPendingRecommendations(ctx context.Context, botRole, subordinateRole string) ([]models.Recommendation, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT recommendation_id, bot_role, subordinate_role, targeting_pattern, expected_impact, content, sources, amendment_id, succeeded, impact, variance_before, variance_after, evaluated_at, created_at
FROM recommendations
WHERE bot_role = ? AND subordinate_role = ? AND evaluated_at IS NULL
ORDER BY created_at ASC`, botRole, subordinateRole)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

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

func (s *sqliteStore) LinkRecommendationAmendment(ctx context.Context, recommendationID, amendmentID string) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE recommendations SET amendment_id = ? WHERE recommendation_id = ?`, amendmentID, recommendationID)
	return err
}

func (s *sqliteStore) SetRecommendationOutcome(ctx context.Context, recommendationID string, succeeded bool, impact, varianceBefore, varianceAfter float64, at time.Time) error {
	_, err := s.DB.ExecContext(ctx, `
UPDATE recommendations SET succeeded = ?, impact = ?, variance_before = ?, variance_after = ?, evaluated_at = ?
WHERE recommendation_id = ?`,
		boolInt(succeeded), impact, varianceBefore, varianceAfter, at.UTC().Unix(), recommendationID)
	return err
}

func scanRecommendation(row rowScanner) (models.Recommendation, error) {
	var (
		r           models.Recommendation
		sources     string
		amendmentID sql.NullString
		succeeded   sql.NullInt64
		impact      sql.NullFloat64
		varBefore   sql.NullFloat64
		varAfter    sql.NullFloat64
		evaluatedAt sql.NullInt64
		createdAt   int64
	)
	if err := row.Scan(&r.RecommendationID, &r.BotRole, &r.SubordinateRole, &r.TargetingPattern, &r.ExpectedImpact, &r.Content,
		&sources, &amendmentID, &succeeded, &impact, &varBefore, &varAfter, &evaluatedAt, &createdAt); err != nil {
		return models.Recommendation{}, err
	}
	if sources != "" && sources != "null" {
		_ = json.Unmarshal([]byte(sources), &r.Sources)
	}
	if amendmentID.Valid {
		v := amendmentID.String
		r.AmendmentID = &v
	}
	if succeeded.Valid {
		v := succeeded.Int64 != 0
		r.Succeeded = &v
	}
	r.Impact = floatPtr(impact)
	r.VarianceBefore = floatPtr(varBefore)
	r.VarianceAfter = floatPtr(varAfter)
	r.EvaluatedAt = timePtr(evaluatedAt)
	r.CreatedAt = time.Unix(createdAt, 0).UTC()
	return r, nil
}

// Learning records

func (s *sqliteStore) GetLearningRecord(ctx context.Context, botRole, subordinateRole, pattern string) (*models.LearningRecord, error) {
	row := s.stmtGetLearning.QueryRowContext(ctx, botRole, subordinateRole, pattern)
	rec, err := scanLearningRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *sqliteStore) ListLearningRecords(ctx context.Context, botRole, subordinateRole string) ([]models.LearningRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT bot_role, subordinate_role, targeting_pattern, total_recommendations, successful_recommendations, failed_recommendations, avg_impact, confidence_score, updated_at
FROM learning_records WHERE bot_role = ? AND subordinate_role = ? ORDER BY targeting_pattern ASC`, botRole, subordinateRole)
	if err != nil {
		return nil, err
	}
	return collectLearningRecords(rows)
}

func (s *sqliteStore) ListLearningRecordsByBot(ctx context.Context, botRole string) ([]models.LearningRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT bot_role, subordinate_role, targeting_pattern, total_recommendations, successful_recommendations, failed_recommendations, avg_impact, confidence_score, updated_at
FROM learning_records WHERE bot_role = ? ORDER BY targeting_pattern ASC, subordinate_role ASC`, botRole)
	if err != nil {
		return nil, err
	}
	return collectLearningRecords(rows)
}

func (s *sqliteStore) CreateLearningRecord(ctx context.Context, rec models.LearningRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO learning_records(bot_role, subordinate_role, targeting_pattern, total_recommendations, successful_recommendations, failed_recommendations, avg_impact, confidence_score, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.BotRole, rec.SubordinateRole, rec.TargetingPattern, rec.Total, rec.Successful, rec.Failed, rec.AvgImpact, rec.ConfidenceScore, rec.UpdatedAt.Unix())
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: learning record (%s, %s, %s)", ErrConflict, rec.BotRole, rec.SubordinateRole, rec.TargetingPattern)
	}
	return err
}

func (s *sqliteStore) UpdateLearningRecord(ctx context.Context, rec models.LearningRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	_, err := s.DB.ExecContext(ctx, `
UPDATE learning_records
SET total_recommendations = ?, successful_recommendations = ?, failed_recommendations = ?, avg_impact = ?, confidence_score = ?, updated_at = ?
WHERE bot_role = ? AND subordinate_role = ? AND targeting_pattern = ?`,
		rec.Total, rec.Successful, rec.Failed, rec.AvgImpact, rec.ConfidenceScore, rec.UpdatedAt.Unix(),
		rec.BotRole, rec.SubordinateRole, rec.TargetingPattern)
	return err
}

func collectLearningRecords(rows *sql.Rows) ([]models.LearningRecord, error) {
	defer func() { _ = rows.Close() }()
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

func (s *sqliteStore) GetBotMetrics(ctx context.Context, botRole string) (*models.BotMetrics, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT bot_role, generated, selected, succeeded, failed, last_outcome_at FROM bot_metrics WHERE bot_role = ?`, botRole)
	m, err := scanBotMetrics(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *sqliteStore) ListBotMetrics(ctx context.Context) ([]models.BotMetrics, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT bot_role, generated, selected, succeeded, failed, last_outcome_at FROM bot_metrics ORDER BY bot_role ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

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

func (s *sqliteStore) BumpBotGenerated(ctx context.Context, botRole string) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO bot_metrics(bot_role, generated) VALUES(?, 1)
ON CONFLICT(bot_role) DO UPDATE SET generated = generated + 1`, botRole)
	return err
}

func (s *sqliteStore) BumpBotSelected(ctx context.Context, botRole string) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO bot_metrics(bot_role, selected) VALUES(?, 1)
ON CONFLICT(bot_role) DO UPDATE SET selected = selected + 1`, botRole)
	return err
}

func (s *sqliteStore) BumpBotOutcome(ctx context.Context, botRole string, succeeded bool, at time.Time) error {
	col := "failed"
	if succeeded {
		col = "succeeded"
	}
	q := fmt.Sprintf(`
INSERT INTO bot_metrics(bot_role, %[1]s, last_outcome_at) VALUES(?, 1, ?)
ON CONFLICT(bot_role) DO UPDATE SET %[1]s = %[1]s + 1, last_outcome_at = excluded.last_outcome_at`, col)
	_, err := s.DB.ExecContext(ctx, q, botRole, at.UTC().Unix())
	return err
}

func scanBotMetrics(row rowScanner) (models.BotMetrics, error) {
	var (
		m    models.BotMetrics
		last sql.NullInt64
	)
	if err := row.Scan(&m.BotRole, &m.Generated, &m.Selected, &m.Succeeded, &m.Failed, &last); err != nil {
		return models.BotMetrics{}, err
	}
	m.LastOutcomeAt = timePtr(last)
	return m, nil
}

// Escalations and alerts

func (s *sqliteStore) CreateEscalation(ctx context.Context, e models.Escalation) error {
	if e.EscalationID == "" {
		e.EscalationID = randomID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO escalations(escalation_id, from_role, target, subordinate_role, reason, priority, status, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		e.EscalationID, e.FromRole, e.Target, e.SubordinateRole, e.Reason, e.Priority, e.Status, e.CreatedAt.Unix())
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: escalation %s", ErrConflict, e.EscalationID)
	}
	return err
}

func (s *sqliteStore) ListEscalations(ctx context.Context, status string, limit int) ([]models.Escalation, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT escalation_id, from_role, target, subordinate_role, reason, priority, status, created_at, resolved_at FROM escalations`
	args := []any{}
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Escalation
	for rows.Next() {
		var (
			e         models.Escalation
			createdAt int64
			resolved  sql.NullInt64
		)
		if err := rows.Scan(&e.EscalationID, &e.FromRole, &e.Target, &e.SubordinateRole, &e.Reason, &e.Priority, &e.Status, &createdAt, &resolved); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		e.ResolvedAt = timePtr(resolved)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *sqliteStore) ResolveEscalation(ctx context.Context, escalationID string, at time.Time) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE escalations SET status = 'resolved', resolved_at = ? WHERE escalation_id = ?`,
		at.UTC().Unix(), escalationID)
	return err
}

func (s *sqliteStore) CreateAlert(ctx context.Context, severity, message string, at time.Time) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO alerts(severity, message, created_at) VALUES(?, ?, ?)`,
		severity, message, at.UTC().Unix())
	return err
}

// Review audit log

func (s *sqliteStore) InsertReviewRecord(ctx context.Context, r models.ReviewRecord) error {
	if r.ReviewID == "" {
		r.ReviewID = randomID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.stmtInsertReviewRow.ExecContext(ctx,
		r.ReviewID, r.LeadRole, r.SubordinateRole, r.Status, r.TrendDirection, r.TrendSlope, r.CosScore,
		r.TasksReviewed, r.ConsecutiveFailures, nullString(r.AmendmentID), nullString(r.EscalationID), r.Detail, r.CreatedAt.Unix())
	return err
}

func (s *sqliteStore) ListReviewRecords(ctx context.Context, leadRole string, limit int) ([]models.ReviewRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT review_id, lead_role, subordinate_role, status, trend_direction, trend_slope, cos_score, tasks_reviewed, consecutive_failures, amendment_id, escalation_id, detail, created_at
FROM review_log WHERE lead_role = ? ORDER BY created_at DESC LIMIT ?`, leadRole, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.ReviewRecord
	for rows.Next() {
		var (
			r          models.ReviewRecord
			amendment  sql.NullString
			escalation sql.NullString
			createdAt  int64
		)
		if err := rows.Scan(&r.ReviewID, &r.LeadRole, &r.SubordinateRole, &r.Status, &r.TrendDirection, &r.TrendSlope, &r.CosScore,
			&r.TasksReviewed, &r.ConsecutiveFailures, &amendment, &escalation, &r.Detail, &createdAt); err != nil {
			return nil, err
		}
		if amendment.Valid {
			v := amendment.String
			r.AmendmentID = &v
		}
		if escalation.Valid {
			v := escalation.String
			r.EscalationID = &v
		}
		r.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// Bot metric snapshots

func (s *sqliteStore) InsertMetricSnapshot(ctx context.Context, snap MetricSnapshot) error {
	if snap.TakenAt.IsZero() {
		snap.TakenAt = time.Now().UTC()
	}
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO bot_metric_snapshots(bot_role, success_rate, selection_rate, taken_at) VALUES(?, ?, ?, ?)`,
		snap.BotRole, snap.SuccessRate, snap.SelectionRate, snap.TakenAt.Unix())
	return err
}

func (s *sqliteStore) ListMetricSnapshots(ctx context.Context, botRole string, limit int) ([]MetricSnapshot, error) {
	if limit <= 0 {
		limit = models.DefaultSnapshotWindow
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT bot_role, success_rate, selection_rate, taken_at FROM bot_metric_snapshots
WHERE bot_role = ? ORDER BY taken_at DESC LIMIT ?`, botRole, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []MetricSnapshot
	for rows.Next() {
		var (
			snap    MetricSnapshot
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

// Helpers

func randomID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("r-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullUnix(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Unix()
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
