// Package runctx builds the root context of a command run.
package runctx

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
)

type runIDKey struct{}

// New returns a context cancelled on SIGINT or SIGTERM and carrying a fresh run id
func New(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return WithRunID(ctx, uuid.NewString()), stop
}

// WithRunID attaches id to ctx
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run id carried by ctx, or "" if none
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
