package obs

import (
	"context"
	"sync"
)

type routePatternKey struct{}

type annotationsKey struct{}

// WithRoutePattern stores the matched route pattern in the context.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if pattern == "" {
		return ctx
	}
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext extracts the route pattern if present.
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(routePatternKey{}).(string); ok {
		return v
	}
	return ""
}

type annotation struct {
	key   string
	value string
}

type annotations struct {
	mu     sync.Mutex
	fields []annotation
}

func (a *annotations) snapshot() []annotation {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]annotation(nil), a.fields...)
}

func withAnnotations(ctx context.Context) (context.Context, *annotations) {
	a := &annotations{}
	return context.WithValue(ctx, annotationsKey{}, a), a
}

// Annotate attaches a field to the request log line written by RequestLogger.
// Without RequestLogger in the chain it does nothing.
func Annotate(ctx context.Context, key, value string) {
	a, ok := ctx.Value(annotationsKey{}).(*annotations)
	if !ok || key == "" {
		return
	}
	a.mu.Lock()
	a.fields = append(a.fields, annotation{key: key, value: value})
	a.mu.Unlock()
}
