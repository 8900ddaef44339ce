package submodule

import (
	"context"
	"log/slog"
	"time"

	"github.com/jwebster45206/fast-dialogue/internal/config"
	"github.com/jwebster45206/fast-dialogue/internal/events"
	"github.com/jwebster45206/fast-dialogue/pkg/host"
	"github.com/jwebster45206/fast-dialogue/pkg/observer"
	"github.com/jwebster45206/fast-dialogue/pkg/skip"
)

// Runtime is a sub-module plus the event pipeline started for it.
type Runtime struct {
	*SubModule

	Broadcaster *events.Broadcaster
	Queue       *events.Queue
	cancel      context.CancelFunc
}

// Start builds the sub-module described by cfg, reporting decisions to
// reporters. When REDIS_URL is set, decisions are also published to redis by
// a background queue; an unreachable redis disables events instead of
// failing startup.
func Start(ctx context.Context, engine host.Engine, cfg *config.Config, logger *slog.Logger, reporters ...observer.Reporter) (*Runtime, error) {
	rt := &Runtime{}
	opts := Options{
		RulesFile: cfg.SkipRulesFile,
		Watch:     cfg.WatchRules,
	}

	if cfg.RedisURL != "" {
		b, err := connectEvents(ctx, cfg, logger)
		if err != nil {
			logger.Warn("Interception events disabled", "redis_url", cfg.RedisURL, "error", err)
		} else {
			rt.Broadcaster = b
			rt.Queue = events.NewQueue(b, cfg.EventBuffer, logger)
			reporters = append(reporters, rt.Queue)

			qctx, cancel := context.WithCancel(ctx)
			rt.cancel = cancel
			go rt.Queue.Run(qctx)
			logger.Info("Interception events enabled", "channel", b.Channel())
		}
	}

	if len(reporters) > 0 {
		opts.Reporter = observer.Reporters(reporters)
	}

	m, err := New(engine, logger, opts)
	if err != nil {
		_ = rt.stopEvents()
		return nil, err
	}
	rt.SubModule = m
	return rt, nil
}

func connectEvents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*events.Broadcaster, error) {
	client, err := events.NewClient(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	b := events.NewBroadcaster(client, cfg.SessionID, cfg.RecentEventsLimit, logger)

	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := b.WaitForConnection(wctx, 3, 500*time.Millisecond); err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}

// Rules reports the rules currently in force.
func (rt *Runtime) Rules() skip.Rules {
	return rt.Observer().Rules()
}

// Close stops the rules watcher, flushes queued events and closes redis.
func (rt *Runtime) Close() error {
	var err error
	if rt.SubModule != nil {
		err = rt.SubModule.Close()
	}
	if stopErr := rt.stopEvents(); err == nil {
		err = stopErr
	}
	return err
}

func (rt *Runtime) stopEvents() error {
	if rt.cancel == nil {
		return nil
	}
	rt.cancel()
	<-rt.Queue.Done()
	rt.cancel = nil
	return rt.Broadcaster.Close()
}
