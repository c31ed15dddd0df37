package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fentz26/petalpath/internal/audit"
	"github.com/fentz26/petalpath/internal/models"
	"github.com/fentz26/petalpath/internal/store"
	"github.com/google/uuid"
)

// Runner executes a claimed job.
type Runner interface {
	// Strategies lists the strategy names jobs may ask for.
	Strategies() []string

	// RunJob solves the job's game and commits the result.
	RunJob(ctx context.Context, job *models.SolveJob) (actions int, outcome string, err error)
}

// Scheduler manages job dispatching and worker pools.
type Scheduler struct {
	store     *store.Store
	decisions *audit.DecisionWriter
	runner    Runner
	config    *Config
	logger    *slog.Logger

	mu             sync.Mutex
	activeWorkers  int
	strategyCounts map[string]int
	completed      int
	failed         int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new scheduler. A nil config uses DefaultConfig and a nil
// logger discards output.
func New(s *store.Store, decisions *audit.DecisionWriter, runner Runner, cfg *Config, logger *slog.Logger) *Scheduler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		store:          s,
		decisions:      decisions,
		runner:         runner,
		config:         cfg,
		logger:         logger.With("component", "scheduler"),
		strategyCounts: make(map[string]int),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Start begins the scheduler loop.
func (sch *Scheduler) Start() {
	sch.wg.Add(1)
	go sch.schedulerLoop()
	sch.logger.Info("scheduler started", "global_max", sch.config.GlobalMax)
}

// Stop cancels running workers and waits for them to return.
func (sch *Scheduler) Stop() {
	sch.cancel()
	sch.wg.Wait()
	sch.logger.Info("scheduler stopped")
}

func (sch *Scheduler) schedulerLoop() {
	defer sch.wg.Done()

	ticker := time.NewTicker(sch.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sch.ctx.Done():
			return
		case <-ticker.C:
			for sch.pollAndDispatch() {
			}
		}
	}
}

// openStrategies lists strategies with a free worker slot, or nil when the
// global limit is reached.
func (sch *Scheduler) openStrategies() []string {
	sch.mu.Lock()
	defer sch.mu.Unlock()

	if sch.activeWorkers >= sch.config.GlobalMax {
		return nil
	}
	var open []string
	for _, name := range sch.runner.Strategies() {
		if sch.strategyCounts[name] < sch.config.GetStrategyLimit(name) {
			open = append(open, name)
		}
	}
	sort.Strings(open)
	return open
}

// pollAndDispatch claims one pending job and hands it to a worker. It
// reports whether a job was dispatched.
func (sch *Scheduler) pollAndDispatch() bool {
	if sch.ctx.Err() != nil {
		return false
	}
	open := sch.openStrategies()
	if len(open) == 0 {
		return false
	}

	workerID := uuid.New().String()
	job, err := sch.store.AtomicClaimJob(workerID, open)
	if err != nil {
		sch.logger.Warn("claim job failed", "error", err)
		return false
	}
	if job == nil {
		return false
	}

	if sch.decisions != nil {
		if _, err := sch.decisions.Record(audit.ActionJobDispatch, map[string]interface{}{
			"job_id":    job.ID,
			"game_id":   job.GameID,
			"worker_id": workerID,
			"strategy":  job.Strategy,
		}, "success", job.GameID, fmt.Sprintf("job %s dispatched to worker %s", job.ID, workerID)); err != nil {
			sch.logger.Warn("record dispatch failed", "job_id", job.ID, "error", err)
		}
	}

	sch.logger.Info("dispatched job", "job_id", job.ID, "game_id", job.GameID, "strategy", job.Strategy, "worker_id", workerID)

	sch.mu.Lock()
	sch.activeWorkers++
	sch.strategyCounts[job.Strategy]++
	sch.mu.Unlock()

	sch.wg.Add(1)
	go sch.runWorker(job, workerID)
	return true
}

func (sch *Scheduler) runWorker(job *models.SolveJob, workerID string) {
	defer sch.wg.Done()
	defer func() {
		sch.mu.Lock()
		sch.activeWorkers--
		sch.strategyCounts[job.Strategy]--
		sch.mu.Unlock()
	}()

	if err := sch.store.UpdateJobStatus(job.ID, models.JobStatusRunning); err != nil {
		sch.logger.Warn("mark job running failed", "job_id", job.ID, "error", err)
	}

	actions, outcome, err := sch.runner.RunJob(sch.ctx, job)
	if err != nil && sch.ctx.Err() != nil {
		// Interrupted by shutdown; leave it for the next run.
		if rerr := sch.store.ReleaseJob(job.ID); rerr != nil {
			sch.logger.Warn("release job failed", "job_id", job.ID, "error", rerr)
		}
		sch.logger.Info("worker interrupted", "job_id", job.ID, "worker_id", workerID)
		return
	}

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	if ferr := sch.store.FinishJob(job.ID, actions, outcome, errMsg); ferr != nil {
		sch.logger.Error("finish job failed", "job_id", job.ID, "error", ferr)
	}

	sch.mu.Lock()
	if err != nil {
		sch.failed++
	} else {
		sch.completed++
	}
	sch.mu.Unlock()

	if err != nil {
		sch.logger.Warn("job failed", "job_id", job.ID, "worker_id", workerID, "error", err)
		return
	}
	sch.logger.Info("job completed", "job_id", job.ID, "worker_id", workerID, "actions", actions, "outcome", outcome)
}

// GetStats returns current scheduler statistics.
func (sch *Scheduler) GetStats() map[string]interface{} {
	sch.mu.Lock()
	defer sch.mu.Unlock()

	strategyCounts := make(map[string]int)
	for k, v := range sch.strategyCounts {
		strategyCounts[k] = v
	}

	return map[string]interface{}{
		"active_workers":  sch.activeWorkers,
		"global_max":      sch.config.GlobalMax,
		"strategy_counts": strategyCounts,
		"completed":       sch.completed,
		"failed":          sch.failed,
	}
}
