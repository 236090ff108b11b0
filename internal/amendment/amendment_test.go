package amendment

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/overseerhq/overseer/internal/scoring"
	"github.com/overseerhq/overseer/internal/store"
	"github.com/overseerhq/overseer/pkg/models"
)

func failedTask(category, reason string) models.Task {
	return models.Task{
		TaskID:          "t-" + category + "-" + reason,
		SubordinateRole: "research_analyst",
		Status:          models.TaskFailed,
		Category:        category,
		FailureReason:   reason,
	}
}

func TestSynthesizeNothingToAmend(t *testing.T) {
	t.Parallel()

	if p := Synthesize("research_analyst", nil, scoring.TrendResult{Direction: scoring.TrendStable}); p != nil {
		t.Fatalf("expected nil plan, got %+v", p)
	}
	if p := Synthesize("research_analyst", nil, scoring.TrendResult{Direction: scoring.TrendImproving, Slope: 0.5}); p != nil {
		t.Fatalf("expected nil plan, got %+v", p)
	}
}

func TestSynthesizeDecliningWithoutFailures(t *testing.T) {
	t.Parallel()

	p := Synthesize("research_analyst", nil, scoring.TrendResult{Direction: scoring.TrendDeclining, Slope: -0.2})
	if p == nil {
		t.Fatal("declining trend alone should produce a plan")
	}
	if p.PrimaryCategory != "general" {
		t.Fatalf("category %q, want general", p.PrimaryCategory)
	}
	if p.Type != models.AmendmentImprovement {
		t.Fatalf("type %q, want improvement", p.Type)
	}
}

func TestSynthesizePrimaryCategoryAndSeverity(t *testing.T) {
	t.Parallel()

	failed := []models.Task{
		failedTask("writing", "missing citations"),
		failedTask("analysis", "wrong dataset"),
		failedTask("analysis", "wrong dataset"),
		failedTask("writing", "tone"),
		failedTask("analysis", "stale numbers"),
	}
	p := Synthesize("research_analyst", failed, scoring.TrendResult{Direction: scoring.TrendDeclining, Slope: -0.4})
	if p.PrimaryCategory != "analysis" {
		t.Fatalf("category %q, want analysis", p.PrimaryCategory)
	}
	if p.Type != models.AmendmentCritical {
		t.Fatalf("type %q, want critical for slope -0.4", p.Type)
	}
	if !strings.HasPrefix(p.InstructionDelta, "CRITICAL:") {
		t.Fatalf("delta missing critical wording: %q", p.InstructionDelta)
	}
	// Deduplicated: "wrong dataset" appears once.
	if strings.Count(p.InstructionDelta, "wrong dataset") != 1 {
		t.Fatalf("reason not deduplicated: %q", p.InstructionDelta)
	}
}

func TestSynthesizeTieBreakFirstSeen(t *testing.T) {
	t.Parallel()

	failed := []models.Task{
		failedTask("writing", "a"),
		failedTask("analysis", "b"),
		failedTask("analysis", "c"),
		failedTask("writing", "d"),
	}
	p := Synthesize("research_analyst", failed, scoring.TrendResult{Direction: scoring.TrendStable})
	if p.PrimaryCategory != "writing" {
		t.Fatalf("tie should break to first-seen category, got %q", p.PrimaryCategory)
	}
}

func TestSynthesizeCapsReasonsAtThree(t *testing.T) {
	t.Parallel()

	failed := []models.Task{
		failedTask("general", "one"),
		failedTask("general", "two"),
		failedTask("general", "three"),
		failedTask("general", "four"),
	}
	p := Synthesize("research_analyst", failed, scoring.TrendResult{Direction: scoring.TrendStable})
	if strings.Contains(p.InstructionDelta, "four") {
		t.Fatalf("fourth reason should be dropped: %q", p.InstructionDelta)
	}
	for _, want := range []string{"one", "two", "three"} {
		if !strings.Contains(p.InstructionDelta, want) {
			t.Fatalf("delta missing reason %q: %q", want, p.InstructionDelta)
		}
	}
}

func openTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreatePersistsPendingInactive(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	plan := Synthesize("research_analyst",
		[]models.Task{failedTask("analysis", "wrong dataset")},
		scoring.TrendResult{Direction: scoring.TrendDeclining, Slope: -0.2})

	c := &Creator{Store: s}
	res, err := c.Create(ctx, "team_lead_research", plan, time.Now())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Blocked || res.Amendment == nil {
		t.Fatalf("unexpected result: %+v", res)
	}

	got, err := s.GetAmendment(ctx, res.Amendment.AmendmentID)
	if err != nil {
		t.Fatalf("get amendment: %v", err)
	}
	if got == nil {
		t.Fatal("amendment not persisted")
	}
	if got.AutoApproved || got.IsActive || got.ApprovalStatus != models.ApprovalPending {
		t.Fatalf("amendment must start pending and inactive: %+v", got)
	}
	if got.CreatedByRole != "team_lead_research" {
		t.Fatalf("created_by %q", got.CreatedByRole)
	}
}

func TestCreateBlockedAtActiveCap(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()
	for i := 0; i < MaxActiveAmendments; i++ {
		err := s.CreateAmendment(ctx, models.Amendment{
			AmendmentID:      fmt.Sprintf("amd-active-%d", i),
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
			t.Fatalf("seed amendment %d: %v", i, err)
		}
	}

	plan := Synthesize("research_analyst",
		[]models.Task{failedTask("analysis", "wrong dataset")},
		scoring.TrendResult{Direction: scoring.TrendDeclining, Slope: -0.2})
	c := &Creator{Store: s}
	res, err := c.Create(ctx, "team_lead_research", plan, now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !res.Blocked {
		t.Fatal("eleventh amendment must be blocked")
	}
	if res.Amendment != nil {
		t.Fatal("blocked plan must not be persisted")
	}

	n, err := s.CountActiveAmendments(ctx, "research_analyst")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != MaxActiveAmendments {
		t.Fatalf("active count %d changed, want %d", n, MaxActiveAmendments)
	}
}

func TestCreateNilPlanNoop(t *testing.T) {
	t.Parallel()

	c := &Creator{Store: openTestStore(t)}
	res, err := c.Create(context.Background(), "team_lead_research", nil, time.Now())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Blocked || res.Amendment != nil {
		t.Fatalf("nil plan should be an empty no-op result: %+v", res)
	}
}
