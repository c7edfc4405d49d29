//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject

package app

import (
	"context"

	"obsidian/internal/config"
)

func buildAppWithWire(ctx context.Context, cfg *config.Config) (*App, error) {
	gateway, err := provideGateway(cfg)
	if err != nil {
		return nil, err
	}
	store, err := provideTradeLog(cfg)
	if err != nil {
		return nil, err
	}
	sizer := provideSizer(cfg)
	runID := provideRunID()
	engine := provideEngine(cfg, gateway, sizer, store, runID)
	loop := providePollLoop(cfg)
	application := provideApp(cfg, engine, loop, store, runID)
	return application, nil
}
