package bookings

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cineplex/pkg/logger"
)

// JobProcessor runs the ledger housekeeping on a ticker: expiring lapsed
// holds and completing bookings for finished showtimes.
type JobProcessor struct {
	service  Service
	interval time.Duration
	log      *logger.Logger
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewJobProcessor(service Service, interval time.Duration, log *logger.Logger) *JobProcessor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &JobProcessor{
		service:  service,
		interval: interval,
		log:      log.WithComponent("booking-sweeper"),
		done:     make(chan struct{}),
	}
}

func (jp *JobProcessor) Start(ctx context.Context) {
	jp.wg.Add(1)
	go func() {
		defer jp.wg.Done()
		jp.run(ctx)
	}()
	jp.log.Info("booking sweeper started", slog.Duration("interval", jp.interval))
}

// Stop signals the sweeper and waits for an in-flight sweep to finish.
func (jp *JobProcessor) Stop() {
	jp.stopOnce.Do(func() { close(jp.done) })
	jp.wg.Wait()
	jp.log.Info("booking sweeper stopped")
}

func (jp *JobProcessor) run(ctx context.Context) {
	ticker := time.NewTicker(jp.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			jp.Sweep(ctx)
		case <-jp.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Sweep runs one housekeeping pass.
func (jp *JobProcessor) Sweep(ctx context.Context) {
	expired, err := jp.service.ExpireOverdue(ctx)
	if err != nil {
		jp.log.ErrorContext(ctx, "expiry sweep failed", slog.String("error", err.Error()))
	} else if expired > 0 {
		jp.log.InfoContext(ctx, "expired pending bookings", slog.Int("count", expired))
	}

	completed, err := jp.service.CompleteFinished(ctx)
	if err != nil {
		jp.log.ErrorContext(ctx, "completion sweep failed", slog.String("error", err.Error()))
	} else if completed > 0 {
		jp.log.InfoContext(ctx, "completed finished bookings", slog.Int64("count", completed))
	}
}
