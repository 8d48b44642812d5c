// Package retention enforces the eviction policy: chat histories
// otherwise accumulate without bound. A cron-scheduled run caps the
// number of threads and the number of messages kept per thread.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"docchat/pkg/config"
	"docchat/pkg/logger"
	"docchat/pkg/threads"
)

// Start starts the retention scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, cfg *config.Config, st *threads.Store) (context.CancelFunc, error) {
	ret := cfg.Retention
	if !ret.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}

	// map empty cron to default daily @02:00
	cronExpr := ret.Cron
	if cronExpr == "" {
		cronExpr = "0 2 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("retention_invalid_cron", "cron", ret.Cron)
		return nil, fmt.Errorf("invalid retention cron expression: %s", ret.Cron)
	}

	logger.Info("retention_enabled", "cron", cronExpr,
		"max_threads", ret.MaxThreads, "max_messages", ret.MaxMessagesPerThread)
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cfg, st, cronExpr)
	return cancel, nil
}

// runScheduler computes the next tick for the configured cron expression
// with gronx and sleeps until that time.
func runScheduler(ctx context.Context, cfg *config.Config, st *threads.Store, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("retention_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if err := RunOnce(cfg, st); err != nil {
				logger.Error("retention_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		}
	}
}

// RunOnce applies the retention policy a single time: oldest threads
// beyond the cap are deleted (the active thread is never evicted), then
// each surviving history is trimmed to its newest messages.
func RunOnce(cfg *config.Config, st *threads.Store) error {
	ret := cfg.Retention
	start := time.Now()

	deleted := 0
	if ret.MaxThreads > 0 {
		ids := st.ThreadIDs() // most-recent-first
		active := st.Active()
		kept := 0
		for _, id := range ids {
			if kept < ret.MaxThreads || id == active {
				kept++
				continue
			}
			if err := st.Delete(id); err != nil {
				return fmt.Errorf("evict thread %s: %w", id, err)
			}
			deleted++
		}
	}

	trimmed := 0
	if ret.MaxMessagesPerThread > 0 {
		for _, id := range st.ThreadIDs() {
			n, err := st.TrimHistory(id, ret.MaxMessagesPerThread)
			if err != nil {
				return fmt.Errorf("trim thread %s: %w", id, err)
			}
			trimmed += n
		}
	}

	logger.Info("retention_run_complete",
		"threads_deleted", deleted, "messages_trimmed", trimmed,
		"elapsed", time.Since(start).String())
	return nil
}
