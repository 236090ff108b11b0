// Package scoring holds the pure performance-scoring primitives: per-task CoS
// score, success rate, sliding-window trend, and consecutive-failure count.
// Every function takes an explicit task window (and clock where relevant) so
// results are deterministic under test.
package scoring

import (
	"time"

	"github.com/overseerhq/overseer/pkg/models"
)

// Thresholds are load-time frozen; no runtime setter exists anywhere.
const (
	// MinTasksForTrend is the minimum history length for a trend to be computed.
	MinTasksForTrend = 5

	// DecliningSlope and ImprovingSlope bound the "stable" band.
	DecliningSlope = -0.15
	ImprovingSlope = 0.15

	// SevereDeclineSlope marks a decline steep enough for a critical amendment.
	SevereDeclineSlope = -0.3

	// CriticalCosThreshold and WarningCosThreshold drive the review decision tree.
	CriticalCosThreshold = 0.3
	WarningCosThreshold  = 0.5

	// lateDecayDays is how long after the due date timeliness credit decays to zero.
	lateDecayDays = 7

	// retryForgiveness is the retry count at which the retry credit reaches zero.
	retryForgiveness = 5
)

// TrendDirection is the qualitative direction of a task-history trend.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendStable    TrendDirection = "stable"
	TrendDeclining TrendDirection = "declining"
)

// TrendResult is the derived trend over a task window; never persisted,
// recomputed each cycle.
type TrendResult struct {
	Direction TrendDirection
	Slope     float64 // in [-1, 1]
}

// SuccessRate returns the fraction of tasks with a success-like status.
// Empty input rates as 0.
func SuccessRate(tasks []models.Task) float64 {
	if len(tasks) == 0 {
		return 0
	}
	var ok int
	for _, t := range tasks {
		if t.Status.SuccessLike() {
			ok++
		}
	}
	return float64(ok) / float64(len(tasks))
}

// Trend compares the success rate of the recent half of the history against
// the older half. history must be ordered newest-first. Histories shorter
// than MinTasksForTrend report {stable, 0}.
func Trend(history []models.Task) TrendResult {
	if len(history) < MinTasksForTrend {
		return TrendResult{Direction: TrendStable, Slope: 0}
	}
	mid := len(history) / 2
	slope := SuccessRate(history[:mid]) - SuccessRate(history[mid:])
	dir := TrendStable
	switch {
	case slope <= DecliningSlope:
		dir = TrendDeclining
	case slope >= ImprovingSlope:
		dir = TrendImproving
	}
	return TrendResult{Direction: dir, Slope: slope}
}

// CosScore computes the bounded [0,1] composite score for a single task:
// completion 0.4, quality 0.3, timeliness 0.2, retry discipline 0.1.
// now is the evaluation time used when the task has no completion timestamp.
func CosScore(t models.Task, now time.Time) float64 {
	// Each component is a [0,1] factor; integer weights summed then divided
	// once keep a full-credit task at exactly 1.0.
	var completion, quality, timeliness, retry float64

	// Completion: full credit for a success-like terminal status, partial for
	// work still in flight.
	switch {
	case t.Status.SuccessLike():
		completion = 1
	case t.Status == models.TaskInProgress:
		completion = 0.5
	}

	// Quality: explicit score wins; a successful task without one gets a
	// conservative default.
	switch {
	case t.QualityScore != nil:
		q := *t.QualityScore
		if q < 0 {
			q = 0
		}
		if q > 100 {
			q = 100
		}
		quality = q / 100
	case t.Status.SuccessLike():
		quality = 0.7
	}

	// Timeliness: on time earns full credit, then linear decay to zero over
	// lateDecayDays. No due date earns half credit.
	if t.DueDate == nil {
		timeliness = 0.5
	} else {
		ref := now
		if t.CompletedAt != nil {
			ref = *t.CompletedAt
		}
		if !ref.After(*t.DueDate) {
			timeliness = 1
		} else {
			lateDays := ref.Sub(*t.DueDate).Hours() / 24
			if frac := 1 - lateDays/lateDecayDays; frac > 0 {
				timeliness = frac
			}
		}
	}

	// Retry discipline: each retry erodes the credit until retryForgiveness.
	if frac := 1 - float64(t.RetryCount)/retryForgiveness; frac > 0 {
		retry = frac
	}

	return clamp01((40*completion + 30*quality + 20*timeliness + 10*retry) / 100)
}

// ConsecutiveFailures counts the leading run of failed/rejected tasks in a
// newest-first history. The run stops at the first success-like task.
func ConsecutiveFailures(history []models.Task) int {
	var n int
	for _, t := range history {
		switch {
		case t.Status.FailureLike():
			n++
		case t.Status.SuccessLike():
			return n
		default:
			// queued/in_progress neither extends nor breaks the run
		}
	}
	return n
}

// FailedTasks returns the failure-like subset of a history, preserving order.
func FailedTasks(history []models.Task) []models.Task {
	var out []models.Task
	for _, t := range history {
		if t.Status.FailureLike() {
			out = append(out, t)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
