package otel

import (
	"context"
	"testing"
	"time"
)

func TestInitMetrics_RecordReviewCycle(t *testing.T) {
	ctx := context.Background()
	_, err := InitMeterProvider(ctx, "metrics-test")
	if err != nil {
		t.Fatalf("InitMeterProvider: %v", err)
	}
	if err := InitMetrics(ctx); err != nil {
		t.Fatalf("InitMetrics: %v", err)
	}
	RecordReviewCycle(ctx, "team_lead_research", 120*time.Millisecond)
	RecordIntervention(ctx, "team_lead_research", "research_analyst", InterventionAmendment)
	RecordIntervention(ctx, "team_lead_research", "research_writer", InterventionNone)
}

func TestAddSSEConnection_RemoveSSEConnection(t *testing.T) {
	AddSSEConnection()
	AddSSEConnection()
	RemoveSSEConnection()
	RemoveSSEConnection()
	RemoveSSEConnection() // should not go negative
}

func TestRecordLearningAndBlocked(t *testing.T) {
	ctx := context.Background()
	_, _ = InitMeterProvider(ctx, "record-test")
	_ = InitMetrics(ctx)
	RecordLearningUpdate(ctx, "knowledge_bot_research")
	RecordBlockedAmendment(ctx, "research_analyst")
	RecordSSEEvent(ctx)
}

func TestRecordBeforeInitIsNoop(t *testing.T) {
	// Instruments may be nil when recording happens before InitMetrics, for
	// example in a one-shot CLI run. Must not panic.
	RecordReviewCycle(context.Background(), "team_lead_finance", time.Second)
	RecordIntervention(context.Background(), "team_lead_finance", "bookkeeper", InterventionEscalation)
	RecordLearningUpdate(context.Background(), "knowledge_bot_finance")
	RecordBlockedAmendment(context.Background(), "bookkeeper")
}
