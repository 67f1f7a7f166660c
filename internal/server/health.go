package server

import (
	"context"
	"fmt"
	"time"
)

// healthCheckInterval is how often storage and cache reachability is checked.
var healthCheckInterval = 10 * time.Second

type servingSetter interface {
	SetServing(serving bool)
}

// watchDependencies pings storage and the listing cache until ctx ends and
// mirrors the result on the health endpoint. Only transitions are logged.
func (app *App) watchDependencies(ctx context.Context, status servingSetter) error {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		err := app.checkDependencies(ctx)
		if ctx.Err() != nil {
			return nil
		}
		switch {
		case err != nil && healthy:
			app.logger.Warn(ctx, "Dependency check failed, reporting NOT_SERVING", "error", err)
		case err == nil && !healthy:
			app.logger.Info(ctx, "Dependencies recovered, reporting SERVING")
		default:
			continue
		}
		healthy = err == nil
		status.SetServing(healthy)
	}
}

func (app *App) checkDependencies(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckInterval)
	defer cancel()

	if err := app.repomanager.Ping(ctx); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if app.redis != nil {
		if err := app.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}
