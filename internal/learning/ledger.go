package learning

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/overseerhq/overseer/internal/otel"
	"github.com/overseerhq/overseer/internal/store"
	"github.com/overseerhq/overseer/pkg/models"
)

// Success-rate bands for reprioritization: below the floor a candidate is
// deprioritized, above the ceiling it is boosted.
const (
	deprioritizeBelow = 0.3
	boostAbove        = 0.7
)

// Ledger records amendment outcomes and maintains the learning statistics.
// A nil or disconnected store degrades every operation to a logged no-op so
// an inert deployment cannot crash the caller.
type Ledger struct {
	Store store.Store
}

// RecordOutcome writes an amendment's evaluation result back onto the linked
// recommendation and folds it into the learning record for that
// (bot, subordinate, pattern) key. Amendments authored directly by a team
// lead have no linked recommendation; that is a successful no-op, not an
// error. A recommendation that already carries an outcome is left untouched,
// so repeated calls for the same amendment cannot double-count.
func (l *Ledger) RecordOutcome(ctx context.Context, amendmentID string, succeeded bool, varianceBefore, varianceAfter float64, now time.Time) error {
	if l.Store == nil {
		slog.Warn("learning ledger has no store; outcome dropped", "amendment_id", amendmentID)
		return nil
	}

	rec, err := l.Store.GetRecommendationByAmendment(ctx, amendmentID)
	if err != nil {
		slog.Warn("outcome lookup failed", "amendment_id", amendmentID, "err", err)
		return nil
	}
	if rec == nil {
		slog.Info("no recommendation linked to amendment; skipping learning update", "amendment_id", amendmentID)
		return nil
	}
	if rec.EvaluatedAt != nil {
		slog.Info("recommendation outcome already recorded", "recommendation_id", rec.RecommendationID)
		return nil
	}

	// Positive impact means the variance shrank, i.e. the amendment helped.
	impact := varianceBefore - varianceAfter

	if err := l.Store.SetRecommendationOutcome(ctx, rec.RecommendationID, succeeded, impact, varianceBefore, varianceAfter, now); err != nil {
		slog.Warn("recommendation outcome write failed", "recommendation_id", rec.RecommendationID, "err", err)
		return nil
	}

	l.updateLearning(ctx, rec, succeeded, impact, now)

	if err := l.Store.BumpBotOutcome(ctx, rec.BotRole, succeeded, now); err != nil {
		slog.Warn("bot metrics update failed", "bot_role", rec.BotRole, "err", err)
	}
	return nil
}

// updateLearning applies one outcome to the learning record, creating it on
// first sight. Losing the first-insert race to a concurrent writer is treated
// as already-initialized and the increment is dropped; see the concurrency
// notes in DESIGN.md.
func (l *Ledger) updateLearning(ctx context.Context, rec *models.Recommendation, succeeded bool, impact float64, now time.Time) {
	existing, err := l.Store.GetLearningRecord(ctx, rec.BotRole, rec.SubordinateRole, rec.TargetingPattern)
	if err != nil {
		slog.Warn("learning record lookup failed", "bot_role", rec.BotRole, "pattern", rec.TargetingPattern, "err", err)
		return
	}

	if existing == nil {
		fresh := models.LearningRecord{
			BotRole:          rec.BotRole,
			SubordinateRole:  rec.SubordinateRole,
			TargetingPattern: rec.TargetingPattern,
			Total:            1,
			AvgImpact:        impact,
			UpdatedAt:        now,
		}
		if succeeded {
			fresh.Successful = 1
		} else {
			fresh.Failed = 1
		}
		fresh.ConfidenceScore = Confidence(fresh.Total, fresh.Successful, fresh.AvgImpact)
		err := l.Store.CreateLearningRecord(ctx, fresh)
		if errors.Is(err, store.ErrConflict) {
			slog.Info("learning record already initialized by concurrent writer",
				"bot_role", rec.BotRole, "subordinate_role", rec.SubordinateRole, "pattern", rec.TargetingPattern)
			return
		}
		if err != nil {
			slog.Warn("learning record create failed", "bot_role", rec.BotRole, "pattern", rec.TargetingPattern, "err", err)
			return
		}
		otel.RecordLearningUpdate(ctx, rec.BotRole)
		return
	}

	updated := *existing
	updated.Total++
	if succeeded {
		updated.Successful++
	} else {
		updated.Failed++
	}
	// Incremental mean keeps the average exact without re-reading history.
	updated.AvgImpact = (existing.AvgImpact*float64(existing.Total) + impact) / float64(updated.Total)
	updated.ConfidenceScore = Confidence(updated.Total, updated.Successful, updated.AvgImpact)
	updated.UpdatedAt = now

	if err := l.Store.UpdateLearningRecord(ctx, updated); err != nil {
		slog.Warn("learning record update failed", "bot_role", rec.BotRole, "pattern", rec.TargetingPattern, "err", err)
		return
	}
	otel.RecordLearningUpdate(ctx, rec.BotRole)
}

// Prioritized is a candidate recommendation annotated with historical
// statistics for its (bot, subordinate, pattern) key.
type Prioritized struct {
	models.Recommendation
	Note                  string   `json:"note,omitempty"`
	HistoricalSuccessRate *float64 `json:"historical_success_rate,omitempty"`
	HistoricalAvgImpact   *float64 `json:"historical_avg_impact,omitempty"`
	ConfidenceScore       *float64 `json:"confidence_score,omitempty"`
}

// AdjustPriority re-ranks candidate recommendations for one bot/subordinate
// pair against the learning table. Patterns with no history pass through
// unchanged aside from a note; well-evidenced winners are boosted to high
// impact and consistent losers forced to low. The result is sorted by impact
// rank, then confidence, both descending.
func (l *Ledger) AdjustPriority(ctx context.Context, botRole, subordinateRole string, candidates []models.Recommendation) ([]Prioritized, error) {
	out := make([]Prioritized, 0, len(candidates))
	if l.Store == nil {
		slog.Warn("learning ledger has no store; candidates pass through unranked")
		for _, c := range candidates {
			out = append(out, Prioritized{Recommendation: c, Note: "no historical data"})
		}
		return out, nil
	}

	records, err := l.Store.ListLearningRecords(ctx, botRole, subordinateRole)
	if err != nil {
		return nil, err
	}
	byPattern := make(map[string]models.LearningRecord, len(records))
	for _, r := range records {
		byPattern[r.TargetingPattern] = r
	}

	for _, c := range candidates {
		p := Prioritized{Recommendation: c}
		rec, ok := byPattern[c.TargetingPattern]
		if !ok || rec.Total == 0 {
			p.Note = "no historical data"
			out = append(out, p)
			continue
		}

		successRate := float64(rec.Successful) / float64(rec.Total)
		switch {
		case successRate < deprioritizeBelow:
			p.ExpectedImpact = models.ImpactLow
			p.Note = "deprioritized: historical success rate below 30%"
		case successRate > boostAbove:
			p.ExpectedImpact = models.ImpactHigh
			p.Note = "boosted: historical success rate above 70%"
		default:
			p.Note = "historical success rate within normal band"
		}
		sr := successRate
		ai := rec.AvgImpact
		cs := rec.ConfidenceScore
		p.HistoricalSuccessRate = &sr
		p.HistoricalAvgImpact = &ai
		p.ConfidenceScore = &cs
		out = append(out, p)
	}

	sortPrioritized(out)
	return out, nil
}

func impactRank(impact string) int {
	switch impact {
	case models.ImpactHigh:
		return 3
	case models.ImpactMedium:
		return 2
	case models.ImpactLow:
		return 1
	}
	return 0
}

func sortPrioritized(list []Prioritized) {
	confidence := func(p Prioritized) float64 {
		if p.ConfidenceScore == nil {
			return 0
		}
		return *p.ConfidenceScore
	}
	sort.SliceStable(list, func(i, j int) bool {
		ri, rj := impactRank(list[i].ExpectedImpact), impactRank(list[j].ExpectedImpact)
		if ri != rj {
			return ri > rj
		}
		return confidence(list[i]) > confidence(list[j])
	})
}
