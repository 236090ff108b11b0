// Package review runs the performance review cycle: one team lead looking at
// each of its subordinates' recent task history and deciding whether to leave
// it alone, issue a corrective amendment, or escalate.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/overseerhq/overseer/internal/amendment"
	"github.com/overseerhq/overseer/internal/config"
	"github.com/overseerhq/overseer/internal/otel"
	"github.com/overseerhq/overseer/internal/scoring"
	"github.com/overseerhq/overseer/internal/store"
	"github.com/overseerhq/overseer/pkg/models"
)

// AlertPublisher receives human-visible alerts as they are raised. The SSE
// hub implements it; a nil publisher drops alerts silently.
type AlertPublisher interface {
	PublishAlert(severity, message string)
}

// Controller runs review cycles for team leads against one store.
type Controller struct {
	Store   store.Store
	Creator *amendment.Creator
	Alerts  AlertPublisher
}

// NewController wires a controller and its amendment creator to one store.
func NewController(s store.Store) *Controller {
	return &Controller{
		Store:   s,
		Creator: &amendment.Creator{Store: s},
	}
}

// RunCycle reviews every subordinate of one team lead and returns the review
// records, one per subordinate, in roster order. A subordinate's failure is
// isolated as an error record; the cycle always runs to completion. Records
// are persisted to the audit log best-effort.
func (c *Controller) RunCycle(ctx context.Context, profile config.TeamLeadProfile, now time.Time) ([]models.ReviewRecord, error) {
	if c.Store == nil {
		slog.Warn("review controller has no store; cycle skipped", "lead_role", profile.Role)
		return nil, nil
	}
	start := time.Now()
	slog.Info("review cycle start", "lead_role", profile.Role, "subordinates", len(profile.Subordinates))

	records := make([]models.ReviewRecord, 0, len(profile.Subordinates))
	for _, sub := range profile.Subordinates {
		rec := c.reviewSubordinate(ctx, profile, sub, now)
		rec.ReviewID = uuid.NewString()
		rec.LeadRole = profile.Role
		rec.SubordinateRole = sub
		rec.CreatedAt = now

		if err := c.Store.InsertReviewRecord(ctx, rec); err != nil {
			// Audit log write failure never aborts the cycle.
			slog.Warn("review record write failed", "lead_role", profile.Role, "subordinate_role", sub, "err", err)
		}
		records = append(records, rec)
	}

	otel.RecordReviewCycle(ctx, profile.Role, time.Since(start))
	slog.Info("review cycle done", "lead_role", profile.Role, "records", len(records), "elapsed", time.Since(start))
	return records, nil
}

// reviewSubordinate scores one subordinate's recent history and applies the
// decision tree. Branches are mutually exclusive; first match wins.
func (c *Controller) reviewSubordinate(ctx context.Context, profile config.TeamLeadProfile, sub string, now time.Time) models.ReviewRecord {
	since := now.AddDate(0, 0, -models.DefaultReviewWindowDays)
	tasks, err := c.Store.ListRecentTasks(ctx, sub, since, models.DefaultReviewTaskLimit)
	if err != nil {
		slog.Error("task history fetch failed", "subordinate_role", sub, "err", err)
		otel.RecordIntervention(ctx, profile.Role, sub, otel.InterventionNone)
		return models.ReviewRecord{Status: models.ReviewError, Detail: err.Error()}
	}

	if len(tasks) < scoring.MinTasksForTrend {
		slog.Info("insufficient history for review", "subordinate_role", sub, "tasks", len(tasks))
		otel.RecordIntervention(ctx, profile.Role, sub, otel.InterventionNone)
		return models.ReviewRecord{
			Status:        models.ReviewInsufficientData,
			TasksReviewed: len(tasks),
		}
	}

	trend := scoring.Trend(tasks)
	cos := scoring.CosScore(tasks[0], now)
	consecutive := scoring.ConsecutiveFailures(tasks)

	rec := models.ReviewRecord{
		Status:              models.ReviewOK,
		TrendDirection:      string(trend.Direction),
		TrendSlope:          trend.Slope,
		CosScore:            cos,
		TasksReviewed:       len(tasks),
		ConsecutiveFailures: consecutive,
	}

	switch {
	case consecutive >= profile.FailureThreshold:
		reason := fmt.Sprintf("%d consecutive task failures", consecutive)
		rec.Status = models.ReviewEscalated
		rec.Detail = reason
		rec.EscalationID = c.escalate(ctx, profile.Role, sub, reason, "high", now)
		otel.RecordIntervention(ctx, profile.Role, sub, otel.InterventionEscalation)

	case cos < scoring.CriticalCosThreshold:
		reason := fmt.Sprintf("Critical CoS score: %.0f%%", cos*100)
		rec.Status = models.ReviewEscalated
		rec.Detail = reason
		rec.EscalationID = c.escalate(ctx, profile.Role, sub, reason, "critical", now)
		otel.RecordIntervention(ctx, profile.Role, sub, otel.InterventionEscalation)

	case trend.Direction == scoring.TrendDeclining || cos < scoring.WarningCosThreshold:
		if !profile.AmendmentAuthority {
			slog.Info("decline observed but lead lacks amendment authority",
				"lead_role", profile.Role, "subordinate_role", sub, "slope", trend.Slope, "cos", cos)
			rec.Detail = "decline observed; no amendment authority"
			otel.RecordIntervention(ctx, profile.Role, sub, otel.InterventionNone)
			break
		}
		c.issueAmendment(ctx, profile, sub, tasks, trend, now, &rec)

	default:
		otel.RecordIntervention(ctx, profile.Role, sub, otel.InterventionNone)
	}

	return rec
}

func (c *Controller) issueAmendment(ctx context.Context, profile config.TeamLeadProfile, sub string, tasks []models.Task, trend scoring.TrendResult, now time.Time, rec *models.ReviewRecord) {
	plan := amendment.Synthesize(sub, scoring.FailedTasks(tasks), trend)
	if plan == nil {
		// Low CoS on the newest task but no failures and no decline.
		rec.Detail = "below warning threshold; nothing to amend"
		otel.RecordIntervention(ctx, profile.Role, sub, otel.InterventionNone)
		return
	}

	res, err := c.Creator.Create(ctx, profile.Role, plan, now)
	if err != nil {
		// The decision stands even though the write failed; record it as made.
		slog.Error("amendment persist failed", "subordinate_role", sub, "err", err)
		rec.Status = models.ReviewError
		rec.Detail = fmt.Sprintf("amendment persist failed: %v", err)
		otel.RecordIntervention(ctx, profile.Role, sub, otel.InterventionNone)
		return
	}
	if res.Blocked {
		rec.Status = models.ReviewAmendmentBlocked
		rec.Detail = res.Reason
		otel.RecordBlockedAmendment(ctx, sub)
		otel.RecordIntervention(ctx, profile.Role, sub, otel.InterventionNone)
		return
	}
	rec.Status = models.ReviewAmendmentIssued
	rec.AmendmentID = &res.Amendment.AmendmentID
	rec.Detail = fmt.Sprintf("amendment %s issued for %q", res.Amendment.Type, plan.PrimaryCategory)
	otel.RecordIntervention(ctx, profile.Role, sub, otel.InterventionAmendment)
}

// escalate raises an escalation to the chief of staff plus a parallel
// human-visible alert. Persistence failures are logged; the decision itself
// is not rolled back.
func (c *Controller) escalate(ctx context.Context, leadRole, sub, reason, priority string, now time.Time) *string {
	e := models.Escalation{
		EscalationID:    uuid.NewString(),
		FromRole:        leadRole,
		Target:          models.EscalationTargetCoS,
		SubordinateRole: sub,
		Reason:          reason,
		Priority:        priority,
		Status:          models.EscalationPending,
		CreatedAt:       now,
	}
	if err := c.Store.CreateEscalation(ctx, e); err != nil {
		slog.Error("escalation persist failed", "subordinate_role", sub, "err", err)
		return nil
	}

	msg := fmt.Sprintf("[%s] escalation for %s: %s", leadRole, sub, reason)
	if err := c.Store.CreateAlert(ctx, priority, msg, now); err != nil {
		slog.Warn("alert persist failed", "subordinate_role", sub, "err", err)
	}
	if c.Alerts != nil {
		c.Alerts.PublishAlert(priority, msg)
	}
	slog.Warn("subordinate escalated", "lead_role", leadRole, "subordinate_role", sub, "reason", reason, "priority", priority)
	return &e.EscalationID
}
