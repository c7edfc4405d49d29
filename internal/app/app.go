package app

import (
	"context"
	"fmt"

	obcfg "obsidian/internal/config"
	"obsidian/internal/logger"
	"obsidian/internal/scheduler"
	"obsidian/internal/store/tradelog"
	"obsidian/internal/trader"

	"golang.org/x/sync/errgroup"
)

// App owns the assembled bot and drives its lifecycle.
type App struct {
	cfg    *obcfg.Config
	engine *trader.Engine
	loop   *scheduler.PollLoop
	trades *tradelog.Store
	runID  string
}

// NewApp builds the application object from configuration without starting it.
func NewApp(cfg *obcfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run performs the pre-flight checks and then drives the poll loop until the
// context is cancelled. A pre-flight failure is fatal.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.engine == nil {
		return fmt.Errorf("app not initialized")
	}
	defer func() {
		if a.trades != nil {
			if err := a.trades.Close(); err != nil {
				logger.Warnf("closing trade log: %v", err)
			}
		}
	}()

	logger.Infof("starting %s on %s (run=%s)", "obsidian", a.cfg.Strategy.Contract, a.runID)
	if err := a.engine.Bootstrap(ctx); err != nil {
		return fmt.Errorf("pre-flight failed: %w", err)
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.loop.Run(ctx, a.engine.Step)
	})
	if err := group.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
