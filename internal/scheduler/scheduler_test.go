package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fentz26/petalpath/internal/audit"
	"github.com/fentz26/petalpath/internal/grid"
	"github.com/fentz26/petalpath/internal/models"
	"github.com/fentz26/petalpath/internal/store"
)

// mockRunner blocks each job until release is closed or the context ends.
type mockRunner struct {
	release chan struct{}
	err     error

	mu      sync.Mutex
	running map[string]int
	peak    map[string]int
}

func newMockRunner(block bool) *mockRunner {
	r := &mockRunner{
		release: make(chan struct{}),
		running: make(map[string]int),
		peak:    make(map[string]int),
	}
	if !block {
		close(r.release)
	}
	return r
}

func (m *mockRunner) Strategies() []string { return []string{"safe", "optimal"} }

func (m *mockRunner) RunJob(ctx context.Context, job *models.SolveJob) (int, string, error) {
	m.mu.Lock()
	m.running[job.Strategy]++
	if m.running[job.Strategy] > m.peak[job.Strategy] {
		m.peak[job.Strategy] = m.running[job.Strategy]
	}
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.running[job.Strategy]--
		m.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		return 0, "", ctx.Err()
	case <-m.release:
	}
	if m.err != nil {
		return 0, "", m.err
	}
	return 7, "victory", nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createJobs(t *testing.T, s *store.Store, strategy string, n int) []string {
	t.Helper()
	game, err := s.CreateGame(models.Board{Rows: 3, Cols: 3, Robot: grid.Pos(0, 0), Princess: grid.Pos(2, 2)}, grid.StatusInProgress)
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		job, err := s.CreateJob(game.ID, strategy)
		if err != nil {
			t.Fatalf("Failed to create job: %v", err)
		}
		ids = append(ids, job.ID)
	}
	return ids
}

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.After(timeout)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-deadline:
			t.Fatalf("Timeout waiting for %s", what)
		case <-ticker.C:
			if cond() {
				return
			}
		}
	}
}

func TestSchedulerConcurrencyLimits(t *testing.T) {
	s := newTestStore(t)
	runner := newMockRunner(true)
	cfg := &Config{
		GlobalMax:    3,
		ByStrategy:   map[string]int{"safe": 2, "optimal": 2},
		PollInterval: 20 * time.Millisecond,
	}
	sch := New(s, audit.NewDecisionWriter(s), runner, cfg, nil)

	createJobs(t, s, "safe", 5)
	createJobs(t, s, "optimal", 5)

	sch.Start()
	defer sch.Stop()

	waitFor(t, 5*time.Second, "three active workers", func() bool {
		return sch.GetStats()["active_workers"].(int) == 3
	})
	// Give a buggy scheduler time to overshoot.
	time.Sleep(200 * time.Millisecond)

	stats := sch.GetStats()
	if active := stats["active_workers"].(int); active > cfg.GlobalMax {
		t.Errorf("Active workers %d exceeds global max %d", active, cfg.GlobalMax)
	}
	counts := stats["strategy_counts"].(map[string]int)
	for name, limit := range cfg.ByStrategy {
		if counts[name] > limit {
			t.Errorf("%s workers %d exceed limit %d", name, counts[name], limit)
		}
	}

	close(runner.release)
	waitFor(t, 10*time.Second, "all jobs completed", func() bool {
		done, _ := s.ListJobs(string(models.JobStatusCompleted))
		return len(done) == 10
	})

	runner.mu.Lock()
	defer runner.mu.Unlock()
	for name, peak := range runner.peak {
		if peak > cfg.ByStrategy[name] {
			t.Errorf("%s peaked at %d concurrent runs", name, peak)
		}
	}
}

func TestSchedulerRecordsOutcome(t *testing.T) {
	s := newTestStore(t)
	sch := New(s, audit.NewDecisionWriter(s), newMockRunner(false), &Config{GlobalMax: 2, PollInterval: 20 * time.Millisecond}, nil)

	ids := createJobs(t, s, "optimal", 1)
	sch.Start()
	defer sch.Stop()

	waitFor(t, 5*time.Second, "job completion", func() bool {
		job, _ := s.GetJob(ids[0])
		return job != nil && job.Status == models.JobStatusCompleted
	})

	job, _ := s.GetJob(ids[0])
	if job.Actions != 7 || job.Outcome != "victory" {
		t.Errorf("Unexpected job result: %+v", job)
	}
	if job.ClaimedBy == "" {
		t.Error("Completed job has no holder")
	}

	decisions, err := s.ListDecisions(job.GameID)
	if err != nil {
		t.Fatalf("ListDecisions failed: %v", err)
	}
	if len(decisions) != 1 || decisions[0].Action != audit.ActionJobDispatch {
		t.Errorf("Expected one dispatch record, got %+v", decisions)
	}
	waitFor(t, time.Second, "stats update", func() bool {
		return sch.GetStats()["completed"].(int) == 1
	})
}

func TestSchedulerWithoutDecisionWriter(t *testing.T) {
	s := newTestStore(t)
	sch := New(s, nil, newMockRunner(false), &Config{GlobalMax: 1, PollInterval: 20 * time.Millisecond}, nil)

	ids := createJobs(t, s, "safe", 1)
	sch.Start()
	defer sch.Stop()

	waitFor(t, 5*time.Second, "job completion", func() bool {
		job, _ := s.GetJob(ids[0])
		return job != nil && job.Status == models.JobStatusCompleted
	})

	job, _ := s.GetJob(ids[0])
	decisions, err := s.ListDecisions(job.GameID)
	if err != nil {
		t.Fatalf("ListDecisions failed: %v", err)
	}
	if len(decisions) != 0 {
		t.Errorf("Expected no dispatch records, got %d", len(decisions))
	}
}

func TestSchedulerMarksFailure(t *testing.T) {
	s := newTestStore(t)
	runner := newMockRunner(false)
	runner.err = errors.New("replay diverged")
	sch := New(s, audit.NewDecisionWriter(s), runner, &Config{GlobalMax: 1, PollInterval: 20 * time.Millisecond}, nil)

	ids := createJobs(t, s, "safe", 1)
	sch.Start()
	defer sch.Stop()

	waitFor(t, 5*time.Second, "job failure", func() bool {
		job, _ := s.GetJob(ids[0])
		return job != nil && job.Status == models.JobStatusFailed
	})
	job, _ := s.GetJob(ids[0])
	if job.Error != "replay diverged" {
		t.Errorf("Expected error to be stored, got %q", job.Error)
	}
}

func TestStopReleasesRunningJobs(t *testing.T) {
	s := newTestStore(t)
	sch := New(s, audit.NewDecisionWriter(s), newMockRunner(true), &Config{GlobalMax: 2, PollInterval: 20 * time.Millisecond}, nil)

	ids := createJobs(t, s, "safe", 1)
	sch.Start()

	waitFor(t, 5*time.Second, "job to start", func() bool {
		job, _ := s.GetJob(ids[0])
		return job != nil && job.Status == models.JobStatusRunning
	})
	sch.Stop()

	job, _ := s.GetJob(ids[0])
	if job.Status != models.JobStatusPending {
		t.Errorf("Expected interrupted job back in queue, got %s", job.Status)
	}
}

func TestUnknownStrategyIsNotClaimed(t *testing.T) {
	s := newTestStore(t)
	sch := New(s, audit.NewDecisionWriter(s), newMockRunner(false), &Config{GlobalMax: 2, PollInterval: 20 * time.Millisecond}, nil)

	ids := createJobs(t, s, "mystery", 1)
	if sch.pollAndDispatch() {
		t.Error("Dispatched a job for a strategy the runner does not offer")
	}
	job, _ := s.GetJob(ids[0])
	if job.Status != models.JobStatusPending {
		t.Errorf("Expected job to stay pending, got %s", job.Status)
	}
}

func TestGetStrategyLimit(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.GetStrategyLimit("safe"); got != 2 {
		t.Errorf("safe limit = %d, want 2", got)
	}
	if got := cfg.GetStrategyLimit("step"); got != 1 {
		t.Errorf("default limit = %d, want 1", got)
	}
}
