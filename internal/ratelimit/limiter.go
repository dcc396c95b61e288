package ratelimit

import "context"

// RateLimiter caps outbound sends per notification type so the engine
// stays inside provider quotas.
type RateLimiter interface {
	Allow(ctx context.Context, notificationType string) (bool, error)
	Wait(ctx context.Context, notificationType string) error
}
