// Package worker runs periodic housekeeping next to the API server.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/todolist/internal/observability"
)

// Task removes stale rows and reports how many it removed.
type Task struct {
	Name string
	Run  func(ctx context.Context, now time.Time) (int, error)
}

type Config struct {
	PollInterval time.Duration
	// TaskTimeout bounds a single Task.Run.
	TaskTimeout time.Duration
}

type Worker struct {
	cfg   Config
	tasks []Task
	log   *slog.Logger
	prom  *observability.Prom
	now   func() time.Time
}

func New(cfg Config, log *slog.Logger, prom *observability.Prom, tasks ...Task) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Hour
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	return &Worker{
		cfg:   cfg,
		tasks: tasks,
		log:   log,
		prom:  prom,
		now:   time.Now,
	}
}

// RunOnce runs every task once. A failing task does not stop the others;
// their errors are joined.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	total := 0
	var errs []error

	for _, t := range w.tasks {
		tctx, cancel := context.WithTimeout(ctx, w.cfg.TaskTimeout)
		n, err := t.Run(tctx, w.now().UTC())
		cancel()

		if err != nil {
			w.prom.ObserveSweep(t.Name, "error", 0)
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
			continue
		}

		w.prom.ObserveSweep(t.Name, "ok", n)
		total += n

		if n > 0 {
			w.log.Info("sweep removed rows", "task", t.Name, "rows", n)
		}
	}

	return total, errors.Join(errs...)
}

// Run sweeps every PollInterval until ctx is done. After a failed pass it
// retries with exponential backoff instead of waiting a full interval.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("worker started", "interval", w.cfg.PollInterval, "tasks", len(w.tasks))

	failures := 0
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker received shutdown signal")
			return nil

		case <-timer.C:
			next := w.cfg.PollInterval

			if _, err := w.RunOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				next = ExponentialBackoff(failures)
				failures++
				w.log.Error("sweep failed", "err", err, "attempt", failures, "retry_in", next)
			} else {
				failures = 0
			}

			if next > w.cfg.PollInterval {
				next = w.cfg.PollInterval
			}
			timer.Reset(next)
		}
	}
}
