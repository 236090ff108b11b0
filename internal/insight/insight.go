// Package insight aggregates learning records and bot metrics into per-bot
// reports and cross-subordinate pattern insights for the reporting surface.
package insight

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/overseerhq/overseer/internal/learning"
	"github.com/overseerhq/overseer/internal/store"
	"github.com/overseerhq/overseer/pkg/models"
)

// Snapshot-trend tuning. Fewer than minSnapshotsForTrend snapshots reads as
// stable; the halves diff must clear trendBand to register a direction.
const (
	minSnapshotsForTrend = 3
	trendBand            = 0.05

	// lowestSuccessMinTotal gates the worst-pattern pick to patterns with
	// enough samples to mean something.
	lowestSuccessMinTotal = 2
)

// Miner computes read-only reports over one store.
type Miner struct {
	Store store.Store
}

// BotMetrics builds the full per-bot report: counter-derived rates, the best
// and worst targeting patterns, the cross-subordinate pattern count, and the
// trend over recent metric snapshots.
func (m *Miner) BotMetrics(ctx context.Context, botRole string, now time.Time) (*models.BotReport, error) {
	rep := &models.BotReport{BotRole: botRole, Trend: string(TrendStable)}

	bm, err := m.Store.GetBotMetrics(ctx, botRole)
	if err != nil {
		return nil, fmt.Errorf("bot metrics: %w", err)
	}
	if bm != nil {
		rep.Generated = bm.Generated
		rep.Selected = bm.Selected
		rep.Succeeded = bm.Succeeded
		rep.Failed = bm.Failed
		if bm.Generated > 0 {
			rep.SelectionRate = float64(bm.Selected) / float64(bm.Generated)
		}
		if n := bm.Succeeded + bm.Failed; n > 0 {
			rep.SuccessRate = float64(bm.Succeeded) / float64(n)
		}
	}

	records, err := m.Store.ListLearningRecordsByBot(ctx, botRole)
	if err != nil {
		return nil, fmt.Errorf("learning records: %w", err)
	}
	rep.HighestImpactPattern = highestImpactPattern(records)
	rep.LowestSuccessPattern = lowestSuccessPattern(records)
	rep.CrossSubordinateCount = crossSubordinateCount(records)

	snaps, err := m.Store.ListMetricSnapshots(ctx, botRole, models.DefaultSnapshotWindow)
	if err != nil {
		return nil, fmt.Errorf("metric snapshots: %w", err)
	}
	rep.Trend = string(SnapshotTrend(snaps))
	return rep, nil
}

// Trend direction over snapshot history.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// SnapshotTrend compares the average success rate of the newer half of the
// (newest-first) snapshots against the older half.
func SnapshotTrend(snaps []store.MetricSnapshot) Trend {
	if len(snaps) < minSnapshotsForTrend {
		return TrendStable
	}
	mid := len(snaps) / 2
	diff := avgSuccessRate(snaps[:mid]) - avgSuccessRate(snaps[mid:])
	switch {
	case diff > trendBand:
		return TrendImproving
	case diff < -trendBand:
		return TrendDeclining
	}
	return TrendStable
}

func avgSuccessRate(snaps []store.MetricSnapshot) float64 {
	if len(snaps) == 0 {
		return 0
	}
	var sum float64
	for _, s := range snaps {
		sum += s.SuccessRate
	}
	return sum / float64(len(snaps))
}

// highestImpactPattern returns the pattern with the single highest average
// impact among records with at least one success.
func highestImpactPattern(records []models.LearningRecord) string {
	best := ""
	bestImpact := 0.0
	for _, r := range records {
		if r.Successful < 1 {
			continue
		}
		if best == "" || r.AvgImpact > bestImpact {
			best = r.TargetingPattern
			bestImpact = r.AvgImpact
		}
	}
	return best
}

// lowestSuccessPattern returns the pattern with the worst success ratio among
// records with more than lowestSuccessMinTotal outcomes.
func lowestSuccessPattern(records []models.LearningRecord) string {
	worst := ""
	worstRate := 0.0
	for _, r := range records {
		if r.Total <= lowestSuccessMinTotal {
			continue
		}
		rate := float64(r.Successful) / float64(r.Total)
		if worst == "" || rate < worstRate {
			worst = r.TargetingPattern
			worstRate = rate
		}
	}
	return worst
}

// crossSubordinateCount counts distinct patterns whose successful records span
// more than one subordinate.
func crossSubordinateCount(records []models.LearningRecord) int {
	subs := make(map[string]map[string]bool)
	for _, r := range records {
		if r.Successful < 1 {
			continue
		}
		if subs[r.TargetingPattern] == nil {
			subs[r.TargetingPattern] = make(map[string]bool)
		}
		subs[r.TargetingPattern][r.SubordinateRole] = true
	}
	n := 0
	for _, set := range subs {
		if len(set) > 1 {
			n++
		}
	}
	return n
}

// CrossSubordinateInsights groups a bot's successful learning records by
// targeting pattern and keeps the patterns that worked for more than one
// subordinate. Each insight carries an impact-weighted average and a
// confidence score, sorted by reach then success count.
func (m *Miner) CrossSubordinateInsights(ctx context.Context, botRole string) ([]models.Insight, error) {
	records, err := m.Store.ListLearningRecordsByBot(ctx, botRole)
	if err != nil {
		return nil, fmt.Errorf("learning records: %w", err)
	}

	type agg struct {
		subs        map[string]bool
		subOrder    []string
		successes   int
		total       int
		impactTimes float64 // Σ avgImpact × total
	}
	byPattern := make(map[string]*agg)
	order := make([]string, 0)
	for _, r := range records {
		if r.Successful < 1 {
			continue
		}
		a := byPattern[r.TargetingPattern]
		if a == nil {
			a = &agg{subs: make(map[string]bool)}
			byPattern[r.TargetingPattern] = a
			order = append(order, r.TargetingPattern)
		}
		if !a.subs[r.SubordinateRole] {
			a.subs[r.SubordinateRole] = true
			a.subOrder = append(a.subOrder, r.SubordinateRole)
		}
		a.successes += r.Successful
		a.total += r.Total
		a.impactTimes += r.AvgImpact * float64(r.Total)
	}

	out := make([]models.Insight, 0, len(byPattern))
	for _, pattern := range order {
		a := byPattern[pattern]
		if len(a.subs) <= 1 {
			continue
		}
		weighted := 0.0
		if a.total > 0 {
			weighted = a.impactTimes / float64(a.total)
		}
		out = append(out, models.Insight{
			TargetingPattern: pattern,
			Subordinates:     a.subOrder,
			SuccessCount:     a.successes,
			WeightedImpact:   weighted,
			ConfidenceScore:  learning.Confidence(a.total, a.successes, weighted),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].Subordinates) != len(out[j].Subordinates) {
			return len(out[i].Subordinates) > len(out[j].Subordinates)
		}
		return out[i].SuccessCount > out[j].SuccessCount
	})
	return out, nil
}

// TakeSnapshot records the bot's current rates into the snapshot history so
// SnapshotTrend has something to look at next period.
func (m *Miner) TakeSnapshot(ctx context.Context, botRole string, now time.Time) error {
	bm, err := m.Store.GetBotMetrics(ctx, botRole)
	if err != nil {
		return fmt.Errorf("bot metrics: %w", err)
	}
	snap := store.MetricSnapshot{BotRole: botRole, TakenAt: now}
	if bm != nil {
		if bm.Generated > 0 {
			snap.SelectionRate = float64(bm.Selected) / float64(bm.Generated)
		}
		if n := bm.Succeeded + bm.Failed; n > 0 {
			snap.SuccessRate = float64(bm.Succeeded) / float64(n)
		}
	}
	return m.Store.InsertMetricSnapshot(ctx, snap)
}
