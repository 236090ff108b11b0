package daemon

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/overseerhq/overseer/internal/config"
	"github.com/overseerhq/overseer/internal/httpapi"
	"github.com/overseerhq/overseer/internal/insight"
	"github.com/overseerhq/overseer/internal/review"
	"github.com/overseerhq/overseer/pkg/models"
)

const (
	dailyPeriod  = 24 * time.Hour
	weeklyPeriod = 7 * 24 * time.Hour

	// snapshotPeriod paces the bot-metric snapshots the insight trend reads.
	snapshotPeriod = time.Hour

	// maxConcurrentCycles bounds how many team leads review at once.
	maxConcurrentCycles = 4
)

// cycleState tracks when each lead last ran, persisted across restarts so a
// daemon bounce does not re-trigger every cycle.
type cycleState struct {
	mu       sync.Mutex
	path     string
	LastRun  map[string]time.Time `json:"last_run"`
	LastSnap time.Time            `json:"last_snapshot"`
}

func loadCycleState(path string) *cycleState {
	st := &cycleState{path: path, LastRun: make(map[string]time.Time)}
	b, err := os.ReadFile(path)
	if err != nil {
		return st
	}
	if err := json.Unmarshal(b, st); err != nil {
		slog.Warn("review state unreadable; starting fresh", "path", path, "err", err)
		st.LastRun = make(map[string]time.Time)
	}
	if st.LastRun == nil {
		st.LastRun = make(map[string]time.Time)
	}
	return st
}

func (s *cycleState) save() {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		slog.Warn("review state write failed", "path", s.path, "err", err)
	}
}

func (s *cycleState) due(lead string, cadence string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	period := dailyPeriod
	if cadence == models.CadenceWeekly {
		period = weeklyPeriod
	}
	last, ok := s.LastRun[lead]
	return !ok || now.Sub(last) >= period
}

func (s *cycleState) markRan(lead string, now time.Time) {
	s.mu.Lock()
	s.LastRun[lead] = now
	s.mu.Unlock()
}

// runScheduler fires due review cycles on a ticker. Distinct team leads run
// concurrently; subordinates within a lead stay sequential inside RunCycle.
// It also takes periodic bot-metric snapshots for the insight trend window.
func runScheduler(ctx context.Context, opts StartOptions, app *httpapi.App, profiles *config.Profiles) {
	interval := time.Duration(opts.IntervalSec * float64(time.Second))
	if interval <= 0 {
		interval = time.Minute
	}

	state := loadCycleState(statePath(opts.Home))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			runDueCycles(ctx, app, profiles, state, now)
			maybeSnapshot(ctx, app, state, now)
		}
	}
}

func runDueCycles(ctx context.Context, app *httpapi.App, profiles *config.Profiles, state *cycleState, now time.Time) {
	var due []config.TeamLeadProfile
	for _, lead := range profiles.Leads() {
		if state.due(lead.Role, lead.Cadence, now) {
			due = append(due, lead)
		}
	}
	if len(due) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentCycles)
	for _, lead := range due {
		lead := lead
		g.Go(func() error {
			ctl := review.NewController(app.Store)
			ctl.Alerts = app.Hub
			records, err := ctl.RunCycle(gctx, lead, now)
			if err != nil {
				slog.Error("review cycle failed", "lead_role", lead.Role, "err", err)
				return nil // one lead's failure never cancels the others
			}
			state.markRan(lead.Role, now)
			app.Hub.PublishJSON(map[string]any{
				"type":      "review_cycle",
				"lead_role": lead.Role,
				"records":   len(records),
			})
			return nil
		})
	}
	_ = g.Wait()
	state.save()
}

func maybeSnapshot(ctx context.Context, app *httpapi.App, state *cycleState, now time.Time) {
	state.mu.Lock()
	last := state.LastSnap
	state.mu.Unlock()
	if now.Sub(last) < snapshotPeriod {
		return
	}

	miner := &insight.Miner{Store: app.Store}
	bots, err := app.Store.ListBotMetrics(ctx)
	if err != nil {
		slog.Warn("snapshot listing failed", "err", err)
		return
	}
	for _, b := range bots {
		if err := miner.TakeSnapshot(ctx, b.BotRole, now); err != nil {
			slog.Warn("snapshot failed", "bot_role", b.BotRole, "err", err)
		}
	}

	state.mu.Lock()
	state.LastSnap = now
	state.mu.Unlock()
	state.save()
}
