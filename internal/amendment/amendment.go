// Package amendment turns a subordinate's failure history into a corrective
// instruction amendment. Synthesis is a pure planning step; persistence and
// the active-amendment cap live in Creator.
package amendment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/overseerhq/overseer/internal/scoring"
	"github.com/overseerhq/overseer/internal/store"
	"github.com/overseerhq/overseer/pkg/models"
)

// MaxActiveAmendments caps how many active amendments one subordinate may
// carry; further synthesis is blocked until some are retired.
const MaxActiveAmendments = 10

// maxFailureReasons bounds how many distinct reasons appear in the delta text.
const maxFailureReasons = 3

// Mutation tells the knowledge layer what to adjust alongside the instruction
// change. It is guidance, not an executable patch.
type Mutation struct {
	Action   string `json:"action"`
	Category string `json:"category"`
	Guidance string `json:"guidance"`
}

// Plan is a synthesized, not-yet-persisted amendment.
type Plan struct {
	SubordinateRole  string
	Type             string // models.AmendmentImprovement or AmendmentCritical
	PrimaryCategory  string
	InstructionDelta string
	Mutation         Mutation
}

// Result reports what Creator did with a plan.
type Result struct {
	Amendment *models.Amendment
	Blocked   bool
	Reason    string
}

// Synthesize builds an amendment plan from the failed tasks and the trend.
// It returns nil when there is nothing to amend: no failures and a trend that
// is not declining.
func Synthesize(subordinateRole string, failed []models.Task, trend scoring.TrendResult) *Plan {
	if len(failed) == 0 && trend.Direction != scoring.TrendDeclining {
		return nil
	}

	primary := primaryCategory(failed)
	kind := models.AmendmentImprovement
	if trend.Slope <= scoring.SevereDeclineSlope {
		kind = models.AmendmentCritical
	}

	reasons := dedupeReasons(failed)
	return &Plan{
		SubordinateRole:  subordinateRole,
		Type:             kind,
		PrimaryCategory:  primary,
		InstructionDelta: instructionDelta(kind, primary, reasons),
		Mutation: Mutation{
			Action:   "reinforce",
			Category: primary,
			Guidance: fmt.Sprintf("strengthen working knowledge for %q tasks; recent failures cluster there", primary),
		},
	}
}

// primaryCategory buckets failures by category and picks the fullest bucket.
// Ties go to the category seen first in the history. Tasks without a category
// fall into "general".
func primaryCategory(failed []models.Task) string {
	if len(failed) == 0 {
		return "general"
	}
	counts := make(map[string]int, len(failed))
	order := make([]string, 0, len(failed))
	for _, t := range failed {
		cat := t.Category
		if cat == "" {
			cat = "general"
		}
		if _, seen := counts[cat]; !seen {
			order = append(order, cat)
		}
		counts[cat]++
	}
	best := order[0]
	for _, cat := range order[1:] {
		if counts[cat] > counts[best] {
			best = cat
		}
	}
	return best
}

func dedupeReasons(failed []models.Task) []string {
	seen := make(map[string]bool, len(failed))
	out := make([]string, 0, maxFailureReasons)
	for _, t := range failed {
		r := strings.TrimSpace(t.FailureReason)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
		if len(out) == maxFailureReasons {
			break
		}
	}
	return out
}

func instructionDelta(kind, category string, reasons []string) string {
	var b strings.Builder
	if kind == models.AmendmentCritical {
		fmt.Fprintf(&b, "CRITICAL: performance on %q tasks has degraded sharply and requires immediate correction.", category)
	} else {
		fmt.Fprintf(&b, "Attention: recent %q tasks show a pattern worth improving.", category)
	}
	if len(reasons) > 0 {
		b.WriteString(" Recurring failure reasons: ")
		for i, r := range reasons {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(r)
		}
		b.WriteString(".")
	}
	if kind == models.AmendmentCritical {
		b.WriteString(" Treat these as blocking defects and verify each before marking a task complete.")
	} else {
		b.WriteString(" Review these before starting similar work.")
	}
	return b.String()
}

// Creator persists synthesized plans, enforcing the active-amendment cap.
type Creator struct {
	Store store.Store
}

// Create persists a plan as a pending, inactive amendment. When the
// subordinate already carries MaxActiveAmendments active amendments the plan
// is returned blocked and nothing is written. Amendments never self-approve;
// activation is a separate approval step by a higher authority.
func (c *Creator) Create(ctx context.Context, createdByRole string, plan *Plan, now time.Time) (*Result, error) {
	if plan == nil {
		return &Result{}, nil
	}
	if c.Store == nil {
		slog.Warn("amendment creator has no store; plan dropped", "subordinate_role", plan.SubordinateRole)
		return &Result{Blocked: true, Reason: "store unavailable"}, nil
	}

	active, err := c.Store.CountActiveAmendments(ctx, plan.SubordinateRole)
	if err != nil {
		return nil, fmt.Errorf("count active amendments: %w", err)
	}
	if active >= MaxActiveAmendments {
		slog.Info("amendment blocked by active cap",
			"subordinate_role", plan.SubordinateRole, "active", active, "cap", MaxActiveAmendments)
		return &Result{
			Blocked: true,
			Reason:  fmt.Sprintf("subordinate already has %d active amendments (cap %d)", active, MaxActiveAmendments),
		}, nil
	}

	a := models.Amendment{
		AmendmentID:       uuid.NewString(),
		SubordinateRole:   plan.SubordinateRole,
		CreatedByRole:     createdByRole,
		Type:              plan.Type,
		TriggerPattern:    plan.PrimaryCategory,
		InstructionDelta:  plan.InstructionDelta,
		KnowledgeMutation: fmt.Sprintf("%s:%s: %s", plan.Mutation.Action, plan.Mutation.Category, plan.Mutation.Guidance),
		ApprovalStatus:    models.ApprovalPending,
		IsActive:          false,
		EvaluationStatus:  models.EvaluationPending,
		AutoApproved:      false,
		CreatedAt:         now,
	}
	if err := c.Store.CreateAmendment(ctx, a); err != nil {
		return nil, fmt.Errorf("persist amendment: %w", err)
	}
	slog.Info("amendment created",
		"amendment_id", a.AmendmentID, "subordinate_role", a.SubordinateRole, "type", a.Type, "category", plan.PrimaryCategory)
	return &Result{Amendment: &a}, nil
}
