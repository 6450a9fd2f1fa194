package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

var _ RunnerInterface = (*CronRunner)(nil)

// CronRunner repeats a job on a cron schedule. A run that is still going when
// the next tick fires causes that tick to be skipped.
type CronRunner struct {
	cron   *cron.Cron
	job    func(ctx context.Context) error
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	busy   sync.Mutex
}

func NewCronRunner(ctx context.Context, schedule string, job func(ctx context.Context) error) (*CronRunner, error) {
	runCtx, cancel := context.WithCancel(ctx)
	logger := cronLogger{}

	r := &CronRunner{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		job:    job,
		ctx:    runCtx,
		cancel: cancel,
	}

	if _, err := r.cron.AddFunc(schedule, r.runOnce); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	return r, nil
}

// Start runs the job once right away, then on every tick.
func (r *CronRunner) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.runOnce()
	}()

	r.cron.Start()
}

func (r *CronRunner) Stop() {
	r.cancel()
	<-r.cron.Stop().Done()
	r.wg.Wait()
}

func (r *CronRunner) runOnce() {
	if r.ctx.Err() != nil {
		return
	}

	if !r.busy.TryLock() {
		slog.Info("Previous run still in progress, skipping")
		return
	}
	defer r.busy.Unlock()

	if err := r.job(r.ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Scheduled run failed", "error", err)
	}
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error(msg, append(keysAndValues, "error", err)...)
}
