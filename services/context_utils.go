package services

import "context"

// persistentContext detaches follow-up work (notifications, audit writes)
// from request cancellation while keeping context values.
func persistentContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}
