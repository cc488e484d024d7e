package shutdown

import (
	"context"
	"os/signal"
	"syscall"
	"time"
)

func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
}

// Graceful waits for ctx to end, then calls stop with a fresh context bounded by grace.
func Graceful(ctx context.Context, grace time.Duration, stop func(context.Context) error) error {
	<-ctx.Done()
	if grace <= 0 {
		grace = 5 * time.Second
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	return stop(stopCtx)
}
