package store

import (
	"context"
	"errors"
	"time"

	"github.com/overseerhq/overseer/pkg/models"
)

// ErrConflict is returned when an insert loses a unique-constraint race.
// Callers that treat first-write races as already-initialized check for it
// with errors.Is.
var ErrConflict = errors.New("store: unique constraint conflict")

// MetricSnapshot is one periodic capture of a bot's aggregate rates, used by
// the insight miner's trend window.
type MetricSnapshot struct {
	BotRole       string
	SuccessRate   float64
	SelectionRate float64
	TakenAt       time.Time
}

// Store is the persistence interface for tasks, amendments, recommendations,
// learning records, bot metrics, escalations, and the review audit log.
// Implementations: the SQLite store in this package and *postgres.Store.
type Store interface {
	// Tasks (written by the external execution pipeline; read-only here
	// beyond the seed/demo path).
	ListRecentTasks(ctx context.Context, subordinateRole string, since time.Time, limit int) ([]models.Task, error)
	CreateTask(ctx context.Context, t models.Task) error

	// Amendments
	CreateAmendment(ctx context.Context, a models.Amendment) error
	GetAmendment(ctx context.Context, amendmentID string) (*models.Amendment, error)
	ListAmendments(ctx context.Context, subordinateRole string, limit int) ([]models.Amendment, error)
	CountActiveAmendments(ctx context.Context, subordinateRole string) (int, error)
	SetAmendmentEvaluation(ctx context.Context, amendmentID, evaluationStatus string, isActive bool) error

	// Recommendations
	CreateRecommendation(ctx context.Context, r models.Recommendation) error
	GetRecommendationByAmendment(ctx context.Context, amendmentID string) (*models.Recommendation, error)
	ListPendingRecommendations(ctx context.Context, botRole, subordinateRole string) ([]models.Recommendation, error)
	LinkRecommendationAmendment(ctx context.Context, recommendationID, amendmentID string) error
	SetRecommendationOutcome(ctx context.Context, recommendationID string, succeeded bool, impact, varianceBefore, varianceAfter float64, at time.Time) error

	// Learning records, keyed by (bot_role, subordinate_role, targeting_pattern).
	GetLearningRecord(ctx context.Context, botRole, subordinateRole, pattern string) (*models.LearningRecord, error)
	ListLearningRecords(ctx context.Context, botRole, subordinateRole string) ([]models.LearningRecord, error)
	ListLearningRecordsByBot(ctx context.Context, botRole string) ([]models.LearningRecord, error)
	CreateLearningRecord(ctx context.Context, rec models.LearningRecord) error
	UpdateLearningRecord(ctx context.Context, rec models.LearningRecord) error

	// Bot metrics (one row per bot role; atomic upsert-with-increment).
	GetBotMetrics(ctx context.Context, botRole string) (*models.BotMetrics, error)
	ListBotMetrics(ctx context.Context) ([]models.BotMetrics, error)
	BumpBotGenerated(ctx context.Context, botRole string) error
	BumpBotSelected(ctx context.Context, botRole string) error
	BumpBotOutcome(ctx context.Context, botRole string, succeeded bool, at time.Time) error

	// Escalations and the parallel human-visible alert feed.
	CreateEscalation(ctx context.Context, e models.Escalation) error
	ListEscalations(ctx context.Context, status string, limit int) ([]models.Escalation, error)
	ResolveEscalation(ctx context.Context, escalationID string, at time.Time) error
	CreateAlert(ctx context.Context, severity, message string, at time.Time) error

	// Review audit log (insert is tolerant of a missing table).
	InsertReviewRecord(ctx context.Context, r models.ReviewRecord) error
	ListReviewRecords(ctx context.Context, leadRole string, limit int) ([]models.ReviewRecord, error)

	// Bot metric snapshots for the insight trend window.
	InsertMetricSnapshot(ctx context.Context, s MetricSnapshot) error
	ListMetricSnapshots(ctx context.Context, botRole string, limit int) ([]MetricSnapshot, error)

	// Lifecycle
	SeedDemo(ctx context.Context) error
	Close() error
}
