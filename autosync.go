package pubmap

import (
	"context"
	"time"

	"github.com/agentstation/pubmap/pkg/constants"
	"github.com/agentstation/pubmap/pkg/errors"
	"github.com/agentstation/pubmap/pkg/logging"
)

// Compile-time interface check to ensure proper implementation.
var _ AutoSyncer = (*client)(nil)

// AutoSyncer provides controls for scheduled syncs.
type AutoSyncer interface {
	// AutoSyncOn begins scheduled syncs if configured
	AutoSyncOn() error

	// AutoSyncOff stops scheduled syncs and waits for a running one to end
	AutoSyncOff() error
}

// AutoSyncOn begins scheduled syncs if configured.
func (c *client) AutoSyncOn() error {
	if c.options.autoSyncInterval <= 0 {
		return &errors.ValidationError{
			Field:   "autoSyncInterval",
			Value:   c.options.autoSyncInterval,
			Message: "sync interval must be positive",
		}
	}

	// Stop any existing schedule to prevent resource leaks
	if err := c.AutoSyncOff(); err != nil {
		return err
	}

	c.autoMu.Lock()
	defer c.autoMu.Unlock()

	c.autoStop = make(chan struct{})
	c.autoDone = make(chan struct{})
	c.autoTicker = time.NewTicker(c.options.autoSyncInterval)

	// Create a cancellable context for the sync goroutine
	ctx, cancel := context.WithCancel(context.Background())
	c.autoCancel = cancel

	go func(parentCtx context.Context, ticker *time.Ticker, stop, done chan struct{}) {
		defer close(done)
		for {
			select {
			case <-ticker.C:
				syncCtx, syncCancel := context.WithTimeout(parentCtx, constants.SyncTimeout)
				result, err := c.Sync(syncCtx, c.options.autoSyncOptions...)
				syncCancel()

				if err != nil {
					if errors.Is(err, context.Canceled) {
						return
					}
					// Log other errors and try again on the next tick
					logging.Error().Err(err).Msg("Scheduled sync failed")
					continue
				}
				logging.Info().Str("summary", result.Summary()).Msg("Scheduled sync completed")
			case <-parentCtx.Done():
				return
			case <-stop:
				return
			}
		}
	}(ctx, c.autoTicker, c.autoStop, c.autoDone)

	return nil
}

// AutoSyncOff stops scheduled syncs.
func (c *client) AutoSyncOff() error {
	c.autoMu.Lock()
	defer c.autoMu.Unlock()

	if c.autoTicker != nil {
		c.autoTicker.Stop()
		c.autoTicker = nil
	}
	if c.autoCancel != nil {
		c.autoCancel()
		c.autoCancel = nil
	}
	if c.autoStop != nil {
		close(c.autoStop)
		c.autoStop = nil
	}
	if c.autoDone != nil {
		<-c.autoDone
		c.autoDone = nil
	}
	return nil
}
