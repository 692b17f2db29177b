package pipeline

import "context"

type fullRebuildKey struct{}

// FullRebuild marks ctx so that incremental tasks ignore their last-run
// timestamp and read every matching source.
func FullRebuild(ctx context.Context) context.Context {
	return context.WithValue(ctx, fullRebuildKey{}, true)
}

func isFullRebuild(ctx context.Context) bool {
	v, _ := ctx.Value(fullRebuildKey{}).(bool)
	return v
}
