package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ebalkan/notifyhub/internal/domain"
	"github.com/ebalkan/notifyhub/internal/gateway"
	"github.com/ebalkan/notifyhub/internal/observability"
	"github.com/ebalkan/notifyhub/internal/queue"
	"github.com/ebalkan/notifyhub/internal/ratelimit"
	"github.com/ebalkan/notifyhub/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	minWorkerConcurrency = 1
	defaultSendTimeout   = 15 * time.Second
	emailSubject         = "New Notification"
)

// LiveBroadcaster pushes a payload to every live channel of a user.
// Implementations must never fail the caller.
type LiveBroadcaster interface {
	Broadcast(userID int64, payload []byte)
}

// Recipients holds the fixed delivery destinations resolved from account
// configuration. Destination addresses are not part of the notification
// payload.
type Recipients struct {
	Email string
	Phone string
}

// statusEvent is the payload pushed to live channels on status transitions.
type statusEvent struct {
	NotificationID string `json:"notification_id"`
	Status         string `json:"status"`
	Type           string `json:"type"`
}

// DeliveryWorker consumes delivery jobs, invokes the right gateway for the
// notification type, commits the status transition, and schedules retries.
type DeliveryWorker struct {
	notifications repository.NotificationRepository
	attempts      repository.AttemptRepository
	consumer      queue.Consumer
	publisher     queue.Publisher
	email         gateway.EmailSender
	sms           gateway.SMSSender
	live          LiveBroadcaster
	rateLimiter   ratelimit.RateLimiter
	retryPolicy   RetryPolicy
	recipients    Recipients
	logger        *zap.Logger
	metrics       *observability.Metrics
	concurrency   int
	sendTimeout   time.Duration
	now           func() time.Time
}

func NewDeliveryWorker(
	notifications repository.NotificationRepository,
	attempts repository.AttemptRepository,
	consumer queue.Consumer,
	publisher queue.Publisher,
	email gateway.EmailSender,
	sms gateway.SMSSender,
	live LiveBroadcaster,
	rateLimiter ratelimit.RateLimiter,
	retryPolicy RetryPolicy,
	recipients Recipients,
	concurrency int,
	logger *zap.Logger,
) (*DeliveryWorker, error) {
	if notifications == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	if consumer == nil {
		return nil, fmt.Errorf("consumer is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if concurrency < minWorkerConcurrency {
		concurrency = minWorkerConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DeliveryWorker{
		notifications: notifications,
		attempts:      attempts,
		consumer:      consumer,
		publisher:     publisher,
		email:         email,
		sms:           sms,
		live:          live,
		rateLimiter:   rateLimiter,
		retryPolicy:   retryPolicy,
		recipients:    recipients,
		logger:        logger,
		concurrency:   concurrency,
		sendTimeout:   defaultSendTimeout,
		now:           time.Now,
	}, nil
}

func (w *DeliveryWorker) SetMetrics(metrics *observability.Metrics) {
	if w == nil {
		return
	}
	w.metrics = metrics
}

// Start runs the worker pool until context cancellation. Each worker
// processes one job to completion before claiming another.
func (w *DeliveryWorker) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		workerID := i + 1

		g.Go(func() error {
			w.logger.Info("delivery worker started", zap.Int("workerId", workerID))

			err := w.consumer.Consume(groupCtx, w.processJob)
			if err != nil {
				w.logger.Error("delivery worker stopped with error",
					zap.Int("workerId", workerID),
					zap.Error(err),
				)
				return err
			}

			w.logger.Info("delivery worker stopped", zap.Int("workerId", workerID))
			return nil
		})
	}

	return g.Wait()
}

// processJob handles one delivery attempt. A nil return acks the job; an
// error nacks it for redelivery. Delivery failures are handled via the
// retry policy and never bubble up as job errors.
func (w *DeliveryWorker) processJob(ctx context.Context, job queue.DeliveryJob) error {
	notification, err := w.notifications.LockForDelivery(ctx, job.NotificationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Stale or malformed job, likely a producer bug. Not retried.
			w.logger.Warn("notification not found, dropping job",
				zap.String("notificationId", job.NotificationID),
			)
			return nil
		}
		return fmt.Errorf("failed to lock notification for delivery: %w", err)
	}

	// Nil means a terminal state was reached by another attempt; ack and skip.
	if notification == nil {
		return nil
	}

	typeName := notification.Type.String()
	if w.metrics != nil {
		w.metrics.IncWorkerInFlight(typeName)
		defer w.metrics.DecWorkerInFlight(typeName)
	}

	attemptNumber := job.AttemptCount + 1

	sendStart := w.now()
	sendErr := w.deliver(ctx, notification)
	if w.metrics != nil {
		w.metrics.ObserveSendDuration(typeName, w.now().Sub(sendStart))
	}

	if err := w.recordAttempt(ctx, notification.ID, attemptNumber, sendErr); err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}

	if sendErr == nil {
		if err := w.commitStatus(ctx, notification, domain.StatusSent, attemptNumber, nil); err != nil {
			return err
		}
		if w.metrics != nil {
			w.metrics.IncNotificationSent(typeName)
		}
		w.broadcastStatus(notification, domain.StatusSent)
		return nil
	}

	decision := w.retryPolicy.Decide(attemptNumber, sendErr)
	if decision.Retry {
		nextRetryAt := w.now().Add(decision.Delay)
		if err := w.commitStatus(ctx, notification, domain.StatusRetrying, attemptNumber, &nextRetryAt); err != nil {
			return err
		}

		// The retry job becomes visible only after the failed attempt's
		// transaction committed, preserving causal ordering per id.
		retryJob := queue.DeliveryJob{
			NotificationID: notification.ID,
			AttemptCount:   attemptNumber,
			NotBefore:      &nextRetryAt,
		}
		if err := w.publisher.Publish(ctx, retryJob); err != nil {
			return fmt.Errorf("failed to enqueue retry job: %w", err)
		}

		if w.metrics != nil {
			w.metrics.IncRetryScheduled(typeName)
		}
		w.logger.Warn("delivery attempt failed, retry scheduled",
			zap.String("notificationId", notification.ID),
			zap.Int("attempt", attemptNumber),
			zap.Int("maxAttempts", w.retryPolicy.MaxAttempts),
			zap.Duration("delay", decision.Delay),
			zap.Error(sendErr),
		)
		return nil
	}

	if err := w.commitStatus(ctx, notification, domain.StatusFailed, attemptNumber, nil); err != nil {
		return err
	}
	if w.metrics != nil {
		reason := "permanent_error"
		if gateway.IsTransient(sendErr) {
			reason = "attempts_exhausted"
		}
		w.metrics.IncNotificationFailed(typeName, reason)
	}
	w.logger.Error("terminal delivery failure",
		zap.String("notificationId", notification.ID),
		zap.Int("attempts", attemptNumber),
		zap.Error(sendErr),
	)
	w.broadcastStatus(notification, domain.StatusFailed)

	return nil
}

// deliver routes the notification to the gateway for its type. In-app
// notifications need no external call; the live push happens through the
// connection registry on the status transition.
func (w *DeliveryWorker) deliver(ctx context.Context, n *domain.Notification) error {
	switch n.Type {
	case domain.TypeEmail:
		return w.deliverExternal(ctx, n.Type, func(sendCtx context.Context) error {
			return w.email.SendEmail(sendCtx, w.recipients.Email, emailSubject, n.Message)
		})
	case domain.TypeSMS:
		return w.deliverExternal(ctx, n.Type, func(sendCtx context.Context) error {
			return w.sms.SendSMS(sendCtx, w.recipients.Phone, n.Message)
		})
	case domain.TypeInApp:
		return nil
	default:
		return &gateway.Error{
			Message:   fmt.Sprintf("unsupported notification type %q", n.Type),
			Transient: false,
		}
	}
}

func (w *DeliveryWorker) deliverExternal(ctx context.Context, typ domain.Type, send func(context.Context) error) error {
	if w.rateLimiter != nil {
		if err := w.rateLimiter.Wait(ctx, typ.String()); err != nil {
			return &gateway.Error{
				Message:   "rate limiter wait failed",
				Transient: true,
				Cause:     err,
			}
		}
	}

	// A gateway call that never returns is a liveness bug; the deadline
	// converts it into a transient transport failure.
	sendCtx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	defer cancel()

	return send(sendCtx)
}

func (w *DeliveryWorker) commitStatus(
	ctx context.Context,
	n *domain.Notification,
	status domain.Status,
	attemptCount int,
	nextRetryAt *time.Time,
) error {
	err := w.notifications.MarkAttempt(ctx, n.ID, status, attemptCount, nextRetryAt)
	if errors.Is(err, domain.ErrConflict) {
		// A concurrent attempt won the terminal transition; nothing to redo.
		w.logger.Warn("attempt outcome lost to a concurrent update",
			zap.String("notificationId", n.ID),
			zap.String("status", status.String()),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update notification status to %s: %w", status, err)
	}
	return nil
}

func (w *DeliveryWorker) recordAttempt(ctx context.Context, notificationID string, attemptNumber int, sendErr error) error {
	if w.attempts == nil {
		return nil
	}

	status := domain.StatusSent
	var attemptErr *string
	if sendErr != nil {
		status = domain.StatusFailed
		value := sendErr.Error()
		attemptErr = &value
	}

	attempt := &domain.DeliveryAttempt{
		ID:             uuid.NewString(),
		NotificationID: notificationID,
		AttemptNumber:  attemptNumber,
		Status:         status,
		Error:          attemptErr,
		CreatedAt:      w.now().UTC(),
	}

	return w.attempts.Create(ctx, attempt)
}

// broadcastStatus pushes a terminal transition to the owner's live
// channels. The push is fire-and-forget: a missing or broken channel never
// fails the worker.
func (w *DeliveryWorker) broadcastStatus(n *domain.Notification, status domain.Status) {
	if w.live == nil {
		return
	}

	payload, err := json.Marshal(statusEvent{
		NotificationID: n.ID,
		Status:         status.String(),
		Type:           n.Type.String(),
	})
	if err != nil {
		return
	}

	w.live.Broadcast(n.UserID, payload)
	if w.metrics != nil {
		w.metrics.IncBroadcast()
	}
}
