// Package knowledge handles recommendation intake from the external knowledge
// bots: rule validation and persistence of accepted candidates. This core
// never authors recommendation content itself.
package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/overseerhq/overseer/internal/store"
	"github.com/overseerhq/overseer/pkg/models"
)

// Rules bound what a submitted recommendation may look like.
type Rules struct {
	MaxContentWords int
	MinSources      int
}

// DefaultRules is the stock intake policy.
var DefaultRules = Rules{
	MaxContentWords: 200,
	MinSources:      1,
}

// ValidationError describes one rule violation. Intake rejections carry one
// per failed rule.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validate checks a candidate against the rules and returns every violation.
func (r Rules) Validate(rec models.Recommendation) []ValidationError {
	var errs []ValidationError
	if strings.TrimSpace(rec.BotRole) == "" {
		errs = append(errs, ValidationError{Field: "bot_role", Reason: "required"})
	}
	if strings.TrimSpace(rec.SubordinateRole) == "" {
		errs = append(errs, ValidationError{Field: "subordinate_role", Reason: "required"})
	}
	if strings.TrimSpace(rec.TargetingPattern) == "" {
		errs = append(errs, ValidationError{Field: "targeting_pattern", Reason: "required"})
	}
	switch rec.ExpectedImpact {
	case models.ImpactLow, models.ImpactMedium, models.ImpactHigh:
	default:
		errs = append(errs, ValidationError{Field: "expected_impact", Reason: "must be low, medium, or high"})
	}
	content := strings.TrimSpace(rec.Content)
	if content == "" {
		errs = append(errs, ValidationError{Field: "content", Reason: "required"})
	} else if n := len(strings.Fields(content)); n > r.MaxContentWords {
		errs = append(errs, ValidationError{Field: "content", Reason: fmt.Sprintf("%d words exceeds the %d-word limit", n, r.MaxContentWords)})
	}
	if len(rec.Sources) < r.MinSources {
		errs = append(errs, ValidationError{Field: "sources", Reason: fmt.Sprintf("at least %d source(s) required", r.MinSources)})
	}
	return errs
}

// Intake validates and persists incoming recommendations.
type Intake struct {
	Store store.Store
	Rules Rules
}

// NewIntake wires an intake with the default rules.
func NewIntake(s store.Store) *Intake {
	return &Intake{Store: s, Rules: DefaultRules}
}

// Submit validates one candidate. On success it assigns an ID if missing,
// persists the recommendation, and bumps the bot's generated counter.
func (in *Intake) Submit(ctx context.Context, rec models.Recommendation, now time.Time) (*models.Recommendation, []ValidationError, error) {
	if errs := in.Rules.Validate(rec); len(errs) > 0 {
		slog.Info("recommendation rejected at intake", "bot_role", rec.BotRole, "violations", len(errs))
		return nil, errs, nil
	}

	if rec.RecommendationID == "" {
		rec.RecommendationID = uuid.NewString()
	}
	rec.CreatedAt = now
	if err := in.Store.CreateRecommendation(ctx, rec); err != nil {
		return nil, nil, fmt.Errorf("persist recommendation: %w", err)
	}
	if err := in.Store.BumpBotGenerated(ctx, rec.BotRole); err != nil {
		slog.Warn("generated counter bump failed", "bot_role", rec.BotRole, "err", err)
	}
	slog.Info("recommendation accepted",
		"recommendation_id", rec.RecommendationID, "bot_role", rec.BotRole, "subordinate_role", rec.SubordinateRole)
	return &rec, nil, nil
}
