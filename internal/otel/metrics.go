package otel

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Intervention kinds recorded per review decision.
const (
	InterventionNone       = "none"
	InterventionAmendment  = "amendment"
	InterventionEscalation = "escalation"
)

var (
	initMetricsOnce     sync.Once
	reviewCycles        metric.Int64Counter
	interventions       metric.Int64Counter
	learningUpdates     metric.Int64Counter
	blockedAmendments   metric.Int64Counter
	cycleDuration       metric.Float64Histogram
	sseConnectionsGauge metric.Int64ObservableGauge
	sseEventsCounter    metric.Int64Counter
	sseConnections      int64
	sseConnectionsMu    sync.Mutex
)

// InitMetrics creates the meter instruments. Safe to call multiple times; only runs once.
// Call after InitMeterProvider.
func InitMetrics(ctx context.Context) error {
	var err error
	initMetricsOnce.Do(func() {
		m := Meter()
		reviewCycles, err = m.Int64Counter("overseer_review_cycles_total", metric.WithDescription("Total review cycles run, by lead"))
		if err != nil {
			return
		}
		interventions, err = m.Int64Counter("overseer_interventions_total", metric.WithDescription("Review outcomes by kind (none, amendment, escalation)"))
		if err != nil {
			return
		}
		learningUpdates, err = m.Int64Counter("overseer_learning_updates_total", metric.WithDescription("Learning record updates applied"))
		if err != nil {
			return
		}
		blockedAmendments, err = m.Int64Counter("overseer_blocked_amendments_total", metric.WithDescription("Amendments blocked by the active cap"))
		if err != nil {
			return
		}
		cycleDuration, err = m.Float64Histogram("overseer_review_cycle_duration_seconds", metric.WithDescription("Review cycle duration in seconds, by lead"))
		if err != nil {
			return
		}
		sseEventsCounter, err = m.Int64Counter("overseer_sse_events_total", metric.WithDescription("Total SSE events published"))
		if err != nil {
			return
		}
		sseConnectionsGauge, err = m.Int64ObservableGauge("overseer_sse_connections", metric.WithDescription("Current SSE subscriber count"))
		if err != nil {
			return
		}
		_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
			sseConnectionsMu.Lock()
			n := sseConnections
			sseConnectionsMu.Unlock()
			o.ObserveInt64(sseConnectionsGauge, n)
			return nil
		}, sseConnectionsGauge)
		if err != nil {
			return
		}
	})
	return err
}

// RecordReviewCycle records one completed review cycle and its duration.
func RecordReviewCycle(ctx context.Context, lead string, duration time.Duration) {
	if reviewCycles != nil {
		reviewCycles.Add(ctx, 1, metric.WithAttributes(AttrLead.String(lead)))
	}
	if cycleDuration != nil {
		cycleDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(AttrLead.String(lead)))
	}
}

// RecordIntervention records one per-subordinate review decision.
func RecordIntervention(ctx context.Context, lead, subordinate, kind string) {
	if interventions == nil {
		return
	}
	interventions.Add(ctx, 1, metric.WithAttributes(
		AttrLead.String(lead),
		AttrSubordinate.String(subordinate),
		AttrKind.String(kind),
	))
}

// RecordLearningUpdate records one learning record update for a bot.
func RecordLearningUpdate(ctx context.Context, bot string) {
	if learningUpdates != nil {
		learningUpdates.Add(ctx, 1, metric.WithAttributes(AttrBot.String(bot)))
	}
}

// RecordBlockedAmendment records an amendment refused by the active cap.
func RecordBlockedAmendment(ctx context.Context, subordinate string) {
	if blockedAmendments != nil {
		blockedAmendments.Add(ctx, 1, metric.WithAttributes(AttrSubordinate.String(subordinate)))
	}
}

// RecordSSEEvent records one SSE event published.
func RecordSSEEvent(ctx context.Context) {
	if sseEventsCounter != nil {
		sseEventsCounter.Add(ctx, 1)
	}
}

// AddSSEConnection adds 1 to the SSE connection gauge (call on subscribe).
func AddSSEConnection() {
	sseConnectionsMu.Lock()
	sseConnections++
	sseConnectionsMu.Unlock()
}

// RemoveSSEConnection subtracts 1 from the SSE connection gauge (call on unsubscribe).
func RemoveSSEConnection() {
	sseConnectionsMu.Lock()
	sseConnections--
	if sseConnections < 0 {
		sseConnections = 0
	}
	sseConnectionsMu.Unlock()
}
