package review

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/overseerhq/overseer/internal/amendment"
	"github.com/overseerhq/overseer/internal/config"
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

var taskSeq int

// seedHistory inserts tasks newest-first: statuses[0] becomes the most recent
// task. Quality is set on success-like tasks only.
func seedHistory(t *testing.T, s store.Store, sub string, now time.Time, statuses ...models.TaskStatus) {
	t.Helper()
	for i, st := range statuses {
		taskSeq++
		task := models.Task{
			TaskID:          fmt.Sprintf("t-%s-%d", sub, taskSeq),
			SubordinateRole: sub,
			Status:          st,
			RetryCount:      0,
			Category:        "analysis",
			CreatedAt:       now.Add(-time.Duration(i+1) * time.Hour),
		}
		if st.SuccessLike() {
			q := 90.0
			task.QualityScore = &q
			done := task.CreatedAt.Add(30 * time.Minute)
			task.CompletedAt = &done
		}
		if st.FailureLike() {
			task.FailureReason = "missing citations"
		}
		if err := s.CreateTask(context.Background(), task); err != nil {
			t.Fatalf("seed task: %v", err)
		}
	}
}

func profile(authority bool, threshold int) config.TeamLeadProfile {
	return config.TeamLeadProfile{
		Role:               "team_lead_research",
		Subordinates:       []string{"research_analyst"},
		Cadence:            models.CadenceDaily,
		FailureThreshold:   threshold,
		AmendmentAuthority: authority,
	}
}

type captureAlerts struct {
	msgs []string
}

func (c *captureAlerts) PublishAlert(severity, message string) {
	c.msgs = append(c.msgs, severity+": "+message)
}

func TestRunCycleHealthySubordinate(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	now := time.Now()
	seedHistory(t, s, "research_analyst", now,
		models.TaskCompleted, models.TaskCompleted, models.TaskCompleted,
		models.TaskCompleted, models.TaskCompleted, models.TaskCompleted)

	c := NewController(s)
	recs, err := c.RunCycle(context.Background(), profile(true, 3), now)
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	r := recs[0]
	if r.Status != models.ReviewOK {
		t.Fatalf("status %q, want ok (detail: %s)", r.Status, r.Detail)
	}
	if r.TasksReviewed != 6 || r.ConsecutiveFailures != 0 {
		t.Fatalf("reviewed=%d consec=%d", r.TasksReviewed, r.ConsecutiveFailures)
	}
	if r.AmendmentID != nil || r.EscalationID != nil {
		t.Fatal("healthy subordinate must trigger no intervention")
	}
}

func TestRunCycleInsufficientData(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	now := time.Now()
	seedHistory(t, s, "research_analyst", now,
		models.TaskCompleted, models.TaskFailed, models.TaskCompleted)

	c := NewController(s)
	recs, err := c.RunCycle(context.Background(), profile(true, 3), now)
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if recs[0].Status != models.ReviewInsufficientData {
		t.Fatalf("status %q, want insufficient_data", recs[0].Status)
	}
	if recs[0].TasksReviewed != 3 {
		t.Fatalf("reviewed %d, want 3", recs[0].TasksReviewed)
	}
}

func TestRunCycleConsecutiveFailuresEscalates(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	now := time.Now()
	alerts := &captureAlerts{}
	seedHistory(t, s, "research_analyst", now,
		models.TaskFailed, models.TaskFailed, models.TaskFailed,
		models.TaskCompleted, models.TaskCompleted)

	c := NewController(s)
	c.Alerts = alerts
	recs, err := c.RunCycle(context.Background(), profile(true, 3), now)
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	r := recs[0]
	if r.Status != models.ReviewEscalated {
		t.Fatalf("status %q, want escalated", r.Status)
	}
	if r.EscalationID == nil {
		t.Fatal("escalation id missing")
	}
	if !strings.Contains(r.Detail, "3 consecutive task failures") {
		t.Fatalf("detail %q", r.Detail)
	}

	esc, err := s.ListEscalations(context.Background(), models.EscalationPending, 10)
	if err != nil {
		t.Fatalf("list escalations: %v", err)
	}
	if len(esc) != 1 || esc[0].SubordinateRole != "research_analyst" || esc[0].Target != models.EscalationTargetCoS {
		t.Fatalf("escalation row: %+v", esc)
	}
	if len(alerts.msgs) != 1 || !strings.Contains(alerts.msgs[0], "escalation for research_analyst") {
		t.Fatalf("alert feed: %v", alerts.msgs)
	}
}

func TestRunCycleCriticalCosEscalates(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	now := time.Now()
	// One leading failure keeps consecutive failures below the threshold; the
	// newest task's CoS (failed, no due date) is 0.2, under the 0.3 floor.
	seedHistory(t, s, "research_analyst", now,
		models.TaskFailed, models.TaskCompleted, models.TaskCompleted,
		models.TaskCompleted, models.TaskCompleted)

	c := NewController(s)
	recs, err := c.RunCycle(context.Background(), profile(true, 3), now)
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	r := recs[0]
	if r.Status != models.ReviewEscalated {
		t.Fatalf("status %q, want escalated (detail: %s)", r.Status, r.Detail)
	}
	if !strings.Contains(r.Detail, "Critical CoS score") {
		t.Fatalf("detail %q", r.Detail)
	}
}

func TestRunCycleDecliningIssuesAmendment(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	now := time.Now()
	// Newest task healthy (keeps CoS above the floors) but the recent half is
	// 1/3 successful against an all-success older half: declining.
	seedHistory(t, s, "research_analyst", now,
		models.TaskCompleted, models.TaskFailed, models.TaskFailed,
		models.TaskCompleted, models.TaskCompleted, models.TaskCompleted)

	c := NewController(s)
	recs, err := c.RunCycle(context.Background(), profile(true, 3), now)
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	r := recs[0]
	if r.Status != models.ReviewAmendmentIssued {
		t.Fatalf("status %q, want amendment (detail: %s)", r.Status, r.Detail)
	}
	if r.TrendDirection != "declining" {
		t.Fatalf("trend %q, want declining", r.TrendDirection)
	}
	if r.AmendmentID == nil {
		t.Fatal("amendment id missing")
	}

	a, err := s.GetAmendment(context.Background(), *r.AmendmentID)
	if err != nil {
		t.Fatalf("get amendment: %v", err)
	}
	if a == nil || a.IsActive || a.ApprovalStatus != models.ApprovalPending {
		t.Fatalf("amendment must be pending and inactive: %+v", a)
	}
	if a.CreatedByRole != "team_lead_research" {
		t.Fatalf("created by %q", a.CreatedByRole)
	}
}

func TestRunCycleDecliningWithoutAuthority(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	now := time.Now()
	seedHistory(t, s, "research_analyst", now,
		models.TaskCompleted, models.TaskFailed, models.TaskFailed,
		models.TaskCompleted, models.TaskCompleted, models.TaskCompleted)

	c := NewController(s)
	recs, err := c.RunCycle(context.Background(), profile(false, 3), now)
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	r := recs[0]
	if r.Status != models.ReviewOK {
		t.Fatalf("status %q, want ok no-op without authority", r.Status)
	}
	if r.AmendmentID != nil {
		t.Fatal("no amendment may be issued without authority")
	}

	amds, err := s.ListAmendments(context.Background(), "research_analyst", 10)
	if err != nil {
		t.Fatalf("list amendments: %v", err)
	}
	if len(amds) != 0 {
		t.Fatalf("amendments persisted without authority: %d", len(amds))
	}
}

func TestRunCycleAmendmentBlockedAtCap(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()
	for i := 0; i < amendment.MaxActiveAmendments; i++ {
		err := s.CreateAmendment(ctx, models.Amendment{
			AmendmentID:      fmt.Sprintf("amd-cap-%d", i),
			SubordinateRole:  "research_analyst",
			CreatedByRole:    "team_lead_research",
			Type:             models.AmendmentImprovement,
			TriggerPattern:   "analysis",
			InstructionDelta: "x",
			ApprovalStatus:   models.ApprovalApproved,
			IsActive:         true,
			EvaluationStatus: models.EvaluationPending,
			CreatedAt:        now,
		})
		if err != nil {
			t.Fatalf("seed amendment: %v", err)
		}
	}
	seedHistory(t, s, "research_analyst", now,
		models.TaskCompleted, models.TaskFailed, models.TaskFailed,
		models.TaskCompleted, models.TaskCompleted, models.TaskCompleted)

	c := NewController(s)
	recs, err := c.RunCycle(ctx, profile(true, 3), now)
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	r := recs[0]
	if r.Status != models.ReviewAmendmentBlocked {
		t.Fatalf("status %q, want amendment_blocked (detail: %s)", r.Status, r.Detail)
	}

	n, err := s.CountActiveAmendments(ctx, "research_analyst")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != amendment.MaxActiveAmendments {
		t.Fatalf("active count %d, want unchanged %d", n, amendment.MaxActiveAmendments)
	}
}

func TestRunCyclePersistsAuditLog(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	now := time.Now()
	seedHistory(t, s, "research_analyst", now,
		models.TaskCompleted, models.TaskCompleted, models.TaskCompleted,
		models.TaskCompleted, models.TaskCompleted)

	c := NewController(s)
	if _, err := c.RunCycle(context.Background(), profile(true, 3), now); err != nil {
		t.Fatalf("run cycle: %v", err)
	}

	logged, err := s.ListReviewRecords(context.Background(), "team_lead_research", 10)
	if err != nil {
		t.Fatalf("list review records: %v", err)
	}
	if len(logged) != 1 || logged[0].SubordinateRole != "research_analyst" {
		t.Fatalf("audit log: %+v", logged)
	}
}

func TestRunCycleIsolatesSubordinateErrors(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	now := time.Now()
	seedHistory(t, s, "research_writer", now,
		models.TaskCompleted, models.TaskCompleted, models.TaskCompleted,
		models.TaskCompleted, models.TaskCompleted)

	// A cancelled context fails each subordinate's fetch, but the cycle still
	// produces one record per subordinate instead of aborting.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := config.TeamLeadProfile{
		Role:               "team_lead_research",
		Subordinates:       []string{"research_analyst", "research_writer"},
		FailureThreshold:   3,
		AmendmentAuthority: true,
	}
	c := NewController(s)
	recs, err := c.RunCycle(ctx, p, now)
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	for _, r := range recs {
		if r.Status != models.ReviewError {
			t.Fatalf("subordinate %s status %q, want error", r.SubordinateRole, r.Status)
		}
	}
}
