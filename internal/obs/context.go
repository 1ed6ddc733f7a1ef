package obs

import "context"

type routePatternKey struct{}

// WithRoutePattern stashes the matched chi pattern (e.g.
// /api/v1/products/{handle}) so metrics and logs label by route template
// instead of exploding cardinality on raw paths like every product handle.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext returns the stored pattern, or "" before routing
// has matched.
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(routePatternKey{}).(string); ok {
		return v
	}
	return ""
}
