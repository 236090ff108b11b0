// Package models provides shared types for the Overseer HTTP API and external tools.
// These types mirror the API JSON and are stable for use by pkg/client and other consumers.
package models

import "time"

// Task is a unit of work executed by a subordinate agent. Tasks are created by
// the external execution pipeline and are read-only to the review core.
type Task struct {
	TaskID          string     `json:"task_id"`
	SubordinateRole string     `json:"subordinate_role"`
	Status          TaskStatus `json:"status"`
	QualityScore    *float64   `json:"quality_score,omitempty"` // 0-100
	DueDate         *time.Time `json:"due_date,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	RetryCount      int        `json:"retry_count"`
	Category        string     `json:"category,omitempty"`
	FailureReason   string     `json:"failure_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at,omitempty"`
}

// Amendment is a proposed corrective instruction targeting one subordinate.
// Team-lead-authored amendments always start pending and inactive.
type Amendment struct {
	AmendmentID      string    `json:"amendment_id"`
	SubordinateRole  string    `json:"subordinate_role"`
	CreatedByRole    string    `json:"created_by_role"`
	Type             string    `json:"type"`
	TriggerPattern   string    `json:"trigger_pattern"`
	InstructionDelta string    `json:"instruction_delta"`
	KnowledgeMutation string   `json:"knowledge_mutation,omitempty"`
	ApprovalStatus   string    `json:"approval_status"`
	IsActive         bool      `json:"is_active"`
	EvaluationStatus string    `json:"evaluation_status"`
	AutoApproved     bool      `json:"auto_approved"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
}

// Recommendation is a knowledge-bot proposal for one subordinate/pattern pair.
// Outcome fields are written back once the linked amendment has been evaluated.
type Recommendation struct {
	RecommendationID string     `json:"recommendation_id"`
	BotRole          string     `json:"bot_role"`
	SubordinateRole  string     `json:"subordinate_role"`
	TargetingPattern string     `json:"targeting_pattern"`
	ExpectedImpact   string     `json:"expected_impact"`
	Content          string     `json:"content,omitempty"`
	Sources          []string   `json:"sources,omitempty"`
	AmendmentID      *string    `json:"amendment_id,omitempty"`
	Succeeded        *bool      `json:"succeeded,omitempty"`
	Impact           *float64   `json:"impact,omitempty"`
	VarianceBefore   *float64   `json:"variance_before,omitempty"`
	VarianceAfter    *float64   `json:"variance_after,omitempty"`
	EvaluatedAt      *time.Time `json:"evaluated_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at,omitempty"`
}

// LearningRecord holds the running statistics for one (bot, subordinate,
// pattern) key. Records are created on first outcome and never deleted.
type LearningRecord struct {
	BotRole          string    `json:"bot_role"`
	SubordinateRole  string    `json:"subordinate_role"`
	TargetingPattern string    `json:"targeting_pattern"`
	Total            int       `json:"total_recommendations"`
	Successful       int       `json:"successful_recommendations"`
	Failed           int       `json:"failed_recommendations"`
	AvgImpact        float64   `json:"avg_impact"`
	ConfidenceScore  float64   `json:"confidence_score"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

// BotMetrics is the per-bot-role aggregate; one row per role.
type BotMetrics struct {
	BotRole       string     `json:"bot_role"`
	Generated     int64      `json:"generated"`
	Selected      int64      `json:"selected"`
	Succeeded     int64      `json:"succeeded"`
	Failed        int64      `json:"failed"`
	LastOutcomeAt *time.Time `json:"last_outcome_at,omitempty"`
}

// Escalation is an alert routed to a higher authority when thresholds are breached.
type Escalation struct {
	EscalationID    string     `json:"escalation_id"`
	FromRole        string     `json:"from_role"`
	Target          string     `json:"target"`
	SubordinateRole string     `json:"subordinate_role"`
	Reason          string     `json:"reason"`
	Priority        string     `json:"priority"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}

// ReviewRecord is one audit-log entry from a review cycle, one per subordinate.
type ReviewRecord struct {
	ReviewID            string    `json:"review_id"`
	LeadRole            string    `json:"lead_role"`
	SubordinateRole     string    `json:"subordinate_role"`
	Status              string    `json:"status"`
	TrendDirection      string    `json:"trend_direction,omitempty"`
	TrendSlope          float64   `json:"trend_slope"`
	CosScore            float64   `json:"cos_score"`
	TasksReviewed       int       `json:"tasks_reviewed"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	AmendmentID         *string   `json:"amendment_id,omitempty"`
	EscalationID        *string   `json:"escalation_id,omitempty"`
	Detail              string    `json:"detail,omitempty"`
	CreatedAt           time.Time `json:"created_at,omitempty"`
}

// BotReport is the /api/bots/{role}/metrics response.
type BotReport struct {
	BotRole                string  `json:"bot_role"`
	Generated              int64   `json:"generated"`
	Selected               int64   `json:"selected"`
	Succeeded              int64   `json:"succeeded"`
	Failed                 int64   `json:"failed"`
	SelectionRate          float64 `json:"selection_rate"`
	SuccessRate            float64 `json:"success_rate"`
	HighestImpactPattern   string  `json:"highest_impact_pattern,omitempty"`
	LowestSuccessPattern   string  `json:"lowest_success_pattern,omitempty"`
	CrossSubordinateCount  int     `json:"cross_subordinate_insights"`
	Trend                  string  `json:"trend"`
}

// Insight is one cross-subordinate pattern aggregate.
type Insight struct {
	TargetingPattern string   `json:"targeting_pattern"`
	Subordinates     []string `json:"subordinates"`
	SuccessCount     int      `json:"success_count"`
	WeightedImpact   float64  `json:"weighted_impact"`
	ConfidenceScore  float64  `json:"confidence_score"`
}

// OutcomeRequest is the POST /api/outcomes body.
type OutcomeRequest struct {
	AmendmentID    string  `json:"amendment_id"`
	Succeeded      bool    `json:"succeeded"`
	VarianceBefore float64 `json:"variance_before"`
	VarianceAfter  float64 `json:"variance_after"`
}

// Config is the /config API response.
type Config struct {
	Home         string `json:"home,omitempty"`
	ProfilesPath string `json:"profiles_path,omitempty"`
	LeadCount    int    `json:"lead_count,omitempty"`
}
