package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/heaterlabs/warming-engine/internal/model"
	"github.com/heaterlabs/warming-engine/pkg/logger"
)

// CycleRunner executes one warming cycle for an instance.
type CycleRunner interface {
	RunCycle(ctx context.Context, instanceID int64) error
}

// InstanceLister provides the warming-enabled instances for each tick
// and the daily counter reset.
type InstanceLister interface {
	List(ctx context.Context, f model.InstanceFilter) ([]*model.Instance, error)
	ResetDailyCounters(ctx context.Context) error
}

// Scheduler drives the warming loop: on a fixed tick it walks the
// warming-enabled instances sequentially and runs a cycle for each.
// Failures are isolated per instance so one broken endpoint never
// stalls the rest of the fleet.
type Scheduler struct {
	instances InstanceLister
	runner    CycleRunner
	interval  time.Duration
	now       func() time.Time

	lastDay string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(instances InstanceLister, runner CycleRunner, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		instances: instances,
		runner:    runner,
		interval:  interval,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the tick loop in the background.
func (s *Scheduler) Start() {
	s.lastDay = s.now().Format("2006-01-02")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		logger.Info("warming scheduler started", "interval", s.interval.String())

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.Tick(s.ctx)
			}
		}
	}()
}

// Tick runs one full pass over the warming-enabled instances.
func (s *Scheduler) Tick(ctx context.Context) {
	s.maybeResetCounters(ctx)

	enabled := true
	instances, err := s.instances.List(ctx, model.InstanceFilter{WarmingEnabled: &enabled})
	if err != nil {
		logger.Error("failed to list instances for warming tick", "error", err)
		return
	}
	if len(instances) == 0 {
		return
	}

	logger.Debug("warming tick", "instances", len(instances))

	for _, inst := range instances {
		select {
		case <-ctx.Done():
			return
		default:
		}
		s.runCycle(ctx, inst)
	}
}

func (s *Scheduler) runCycle(ctx context.Context, inst *model.Instance) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic during warming cycle", "instance", inst.Name, "panic", r)
		}
	}()

	if err := s.runner.RunCycle(ctx, inst.ID); err != nil {
		logger.Error("warming cycle failed", "instance", inst.Name, "error", err)
	}
}

// maybeResetCounters zeroes the per-day message counters on the first
// tick after midnight.
func (s *Scheduler) maybeResetCounters(ctx context.Context) {
	day := s.now().Format("2006-01-02")
	if day == s.lastDay {
		return
	}

	if err := s.instances.ResetDailyCounters(ctx); err != nil {
		logger.Error("failed to reset daily counters", "error", err)
		return
	}

	s.lastDay = day
	logger.Info("daily message counters reset", "day", day)
}

// Stop halts the loop and waits for the in-flight tick to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	logger.Info("warming scheduler stopped")
}
