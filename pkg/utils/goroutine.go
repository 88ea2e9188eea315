package utils

import (
	"context"
	"runtime/debug"

	"github.com/expertdial/pkg/commons"
)

// Go runs fn on a new goroutine and converts a panic into a logged stack
// trace instead of taking the process down. Fire-and-forget work that runs
// outside a request lifecycle must go through this.
func Go(ctx context.Context, logger commons.Logger, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("recovered panic in background goroutine: %v\n%s", r, debug.Stack())
			}
		}()
		select {
		case <-ctx.Done():
			return
		default:
		}
		fn()
	}()
}
