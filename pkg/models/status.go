package models

// TaskStatus is the closed set of statuses the execution pipeline writes.
type TaskStatus string

const (
	TaskQueued     TaskStatus = "queued"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskSuccess    TaskStatus = "success"
	TaskApproved   TaskStatus = "approved"
	TaskFailed     TaskStatus = "failed"
	TaskRejected   TaskStatus = "rejected"
)

// SuccessLike reports whether the status counts as a success for scoring.
// Every scoring function goes through this single predicate so the success
// set cannot drift between call sites.
func (s TaskStatus) SuccessLike() bool {
	switch s {
	case TaskCompleted, TaskSuccess, TaskApproved:
		return true
	}
	return false
}

// FailureLike reports whether the status counts as a failure for scoring.
func (s TaskStatus) FailureLike() bool {
	return s == TaskFailed || s == TaskRejected
}

// Amendment types.
const (
	AmendmentImprovement = "performance_improvement"
	AmendmentCritical    = "performance_critical"
)

// Amendment approval statuses.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Amendment evaluation statuses.
const (
	EvaluationPending      = "pending"
	EvaluationInEvaluation = "in_evaluation"
	EvaluationCompleted    = "completed"
)

// Expected impact levels for recommendations.
const (
	ImpactLow    = "low"
	ImpactMedium = "medium"
	ImpactHigh   = "high"
)

// Escalation statuses and the fixed escalation target.
const (
	EscalationPending  = "pending"
	EscalationResolved = "resolved"

	EscalationTargetCoS = "cos"
)

// Review entry statuses written to the audit log.
const (
	ReviewOK               = "ok"
	ReviewInsufficientData = "insufficient_data"
	ReviewAmendmentIssued  = "amendment"
	ReviewAmendmentBlocked = "amendment_blocked"
	ReviewEscalated        = "escalated"
	ReviewError            = "error"
)

// Review cadences.
const (
	CadenceDaily  = "daily"
	CadenceWeekly = "weekly"
)

// Default limits.
const (
	DefaultMaxRequestBodyBytes = 1 << 20 // 1 MiB
	DefaultReviewTaskLimit     = 100
	DefaultReviewWindowDays    = 30
	DefaultSnapshotWindow      = 10
	DefaultSSEChannelBuffer    = 256
)
