package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ebalkan/notifyhub/internal/queue"
	"github.com/ebalkan/notifyhub/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultReconcileInterval = 30 * time.Second
	defaultReconcileGrace    = 5 * time.Minute
	defaultReconcileLimit    = 100
)

// Reconciler is a safety net for the at-least-once queue: it re-enqueues
// notifications stuck in retrying state whose scheduled retry time passed
// beyond a grace window without a delivery job showing up.
type Reconciler struct {
	notifications repository.NotificationRepository
	publisher     queue.Publisher
	logger        *zap.Logger
	interval      time.Duration
	grace         time.Duration
	limit         int
	now           func() time.Time
}

func NewReconciler(
	notifications repository.NotificationRepository,
	publisher queue.Publisher,
	interval time.Duration,
	grace time.Duration,
	limit int,
	logger *zap.Logger,
) (*Reconciler, error) {
	if notifications == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if interval <= 0 {
		interval = defaultReconcileInterval
	}
	if grace <= 0 {
		grace = defaultReconcileGrace
	}
	if limit <= 0 {
		limit = defaultReconcileLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Reconciler{
		notifications: notifications,
		publisher:     publisher,
		logger:        logger,
		interval:      interval,
		grace:         grace,
		limit:         limit,
		now:           time.Now,
	}, nil
}

func (r *Reconciler) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.scanStuck(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				r.logger.Error("reconciler scan failed", zap.Error(err))
			}
		}
	}
}

func (r *Reconciler) scanStuck(ctx context.Context) error {
	olderThan := r.now().Add(-r.grace)
	stuck, err := r.notifications.GetStuckRetries(ctx, olderThan, r.limit)
	if err != nil {
		return fmt.Errorf("failed to fetch stuck retries: %w", err)
	}

	for i := range stuck {
		notification := stuck[i]
		job := queue.DeliveryJob{
			NotificationID: notification.ID,
			AttemptCount:   notification.AttemptCount,
		}

		if err := r.publisher.Publish(ctx, job); err != nil {
			r.logger.Error("failed to re-enqueue stuck notification",
				zap.String("notificationId", notification.ID),
				zap.Error(err),
			)
			continue
		}

		if err := r.notifications.ClearNextRetryAt(ctx, notification.ID); err != nil {
			r.logger.Error("failed to clear retry timestamp after re-enqueue",
				zap.String("notificationId", notification.ID),
				zap.Error(err),
			)
			continue
		}

		r.logger.Info("re-enqueued stuck notification",
			zap.String("notificationId", notification.ID),
			zap.Int("attemptCount", notification.AttemptCount),
		)
	}

	return nil
}
