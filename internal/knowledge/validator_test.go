package knowledge

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/overseerhq/overseer/internal/store"
	"github.com/overseerhq/overseer/pkg/models"
)

func validRec() models.Recommendation {
	return models.Recommendation{
		BotRole:          "knowledge_bot_research",
		SubordinateRole:  "research_analyst",
		TargetingPattern: "citation discipline",
		ExpectedImpact:   models.ImpactMedium,
		Content:          "Cite at least two primary sources for every claim in the summary section.",
		Sources:          []string{"postmortem-2026-07"},
	}
}

func TestValidateAcceptsWellFormed(t *testing.T) {
	t.Parallel()

	if errs := DefaultRules.Validate(validRec()); len(errs) != 0 {
		t.Fatalf("unexpected violations: %v", errs)
	}
}

func TestValidateRequiredFields(t *testing.T) {
	t.Parallel()

	rec := validRec()
	rec.BotRole = "  "
	rec.SubordinateRole = ""
	rec.TargetingPattern = ""
	rec.Content = ""
	errs := DefaultRules.Validate(rec)
	if len(errs) != 4 {
		t.Fatalf("got %d violations, want 4: %v", len(errs), errs)
	}
	fields := make(map[string]bool)
	for _, e := range errs {
		fields[e.Field] = true
	}
	for _, f := range []string{"bot_role", "subordinate_role", "targeting_pattern", "content"} {
		if !fields[f] {
			t.Fatalf("missing violation for %s: %v", f, errs)
		}
	}
}

func TestValidateWordLimit(t *testing.T) {
	t.Parallel()

	rec := validRec()
	rec.Content = strings.Repeat("word ", DefaultRules.MaxContentWords+1)
	errs := DefaultRules.Validate(rec)
	if len(errs) != 1 || errs[0].Field != "content" {
		t.Fatalf("want one content violation, got %v", errs)
	}

	rec.Content = strings.Repeat("word ", DefaultRules.MaxContentWords)
	if errs := DefaultRules.Validate(rec); len(errs) != 0 {
		t.Fatalf("at-limit content must pass: %v", errs)
	}
}

func TestValidateSourcesAndImpact(t *testing.T) {
	t.Parallel()

	rec := validRec()
	rec.Sources = nil
	rec.ExpectedImpact = "enormous"
	errs := DefaultRules.Validate(rec)
	if len(errs) != 2 {
		t.Fatalf("got %d violations, want 2: %v", len(errs), errs)
	}
}

func TestSubmitPersistsAndBumpsGenerated(t *testing.T) {
	t.Parallel()

	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	in := NewIntake(s)
	stored, violations, err := in.Submit(ctx, validRec(), time.Now())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("violations: %v", violations)
	}
	if stored.RecommendationID == "" {
		t.Fatal("id not assigned")
	}

	pending, err := s.ListPendingRecommendations(ctx, "knowledge_bot_research", "research_analyst")
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].RecommendationID != stored.RecommendationID {
		t.Fatalf("pending: %+v", pending)
	}

	bm, err := s.GetBotMetrics(ctx, "knowledge_bot_research")
	if err != nil {
		t.Fatalf("bot metrics: %v", err)
	}
	if bm == nil || bm.Generated != 1 {
		t.Fatalf("generated counter: %+v", bm)
	}
}

func TestSubmitRejectsWithoutPersisting(t *testing.T) {
	t.Parallel()

	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	rec := validRec()
	rec.Sources = nil
	in := NewIntake(s)
	stored, violations, err := in.Submit(ctx, rec, time.Now())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if stored != nil || len(violations) == 0 {
		t.Fatalf("rejection expected: stored=%v violations=%v", stored, violations)
	}

	pending, err := s.ListPendingRecommendations(ctx, "knowledge_bot_research", "research_analyst")
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("rejected recommendation persisted: %+v", pending)
	}
}
