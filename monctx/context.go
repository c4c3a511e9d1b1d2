package monctx

import (
	"context"
	"fmt"
	"log/slog"
)

type ctxIndex int

const (
	ctxIndexVerbose ctxIndex = iota
	ctxIndexTracer
)

// Tracer receives wire level trace lines of verbose contexts.
type Tracer func(msg string)

func IsVerbose(ctx context.Context) bool {
	val, _ := ctx.Value(ctxIndexVerbose).(bool)
	return val
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, ctxIndexVerbose, value)
}

// WithTracer replaces the default slog debug output of Tracef.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	return context.WithValue(ctx, ctxIndexTracer, t)
}

// Tracef emits a trace line when ctx is verbose.
func Tracef(ctx context.Context, msg string, args ...any) {
	if !IsVerbose(ctx) {
		return
	}
	line := fmt.Sprintf(msg, args...)
	if t, ok := ctx.Value(ctxIndexTracer).(Tracer); ok {
		t(line)
		return
	}
	slog.DebugContext(ctx, line)
}
