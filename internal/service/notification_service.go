package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ebalkan/notifyhub/internal/domain"
	"github.com/ebalkan/notifyhub/internal/queue"
	"github.com/ebalkan/notifyhub/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationService owns the producer side of the pipeline: it persists
// notifications and hands their identifiers to the dispatch queue.
type NotificationService struct {
	notifications repository.NotificationRepository
	attempts      repository.AttemptRepository
	users         repository.UserRepository
	publisher     queue.Publisher
	logger        *zap.Logger
}

func NewNotificationService(
	notifications repository.NotificationRepository,
	attempts repository.AttemptRepository,
	users repository.UserRepository,
	publisher queue.Publisher,
	logger *zap.Logger,
) (*NotificationService, error) {
	if notifications == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &NotificationService{
		notifications: notifications,
		attempts:      attempts,
		users:         users,
		publisher:     publisher,
		logger:        logger,
	}, nil
}

// Create persists a pending notification and enqueues its first delivery
// job. The job counter starts at zero; all retry state lives on the job.
func (s *NotificationService) Create(ctx context.Context, notification *domain.Notification) (*domain.Notification, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if notification == nil {
		return nil, fmt.Errorf("%w: notification is required", domain.ErrValidation)
	}

	if err := notification.Validate(); err != nil {
		return nil, err
	}

	if s.users != nil {
		if _, err := s.users.GetByID(ctx, notification.UserID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: user %d does not exist", domain.ErrValidation, notification.UserID)
			}
			return nil, err
		}
	}

	notification.ID = uuid.NewString()
	notification.Status = domain.StatusPending
	notification.AttemptCount = 0

	if err := s.notifications.Create(ctx, notification); err != nil {
		return nil, err
	}

	job := queue.DeliveryJob{
		NotificationID: notification.ID,
		AttemptCount:   0,
	}
	if err := s.publisher.Publish(ctx, job); err != nil {
		s.logger.Error("failed to publish delivery job",
			zap.String("notificationId", notification.ID),
			zap.String("type", notification.Type.String()),
			zap.Error(err),
		)
		if updateErr := s.notifications.UpdateStatus(ctx, notification.ID, domain.StatusFailed); updateErr != nil {
			s.logger.Error("failed to mark notification as failed after publish error",
				zap.String("notificationId", notification.ID),
				zap.Error(updateErr),
			)
			return nil, fmt.Errorf("failed to publish delivery job: %w (failed to mark as failed: %v)", err, updateErr)
		}
		notification.Status = domain.StatusFailed
		return nil, fmt.Errorf("failed to publish delivery job: %w", err)
	}

	return notification, nil
}

func (s *NotificationService) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: notification id is required", domain.ErrValidation)
	}
	return s.notifications.GetByID(ctx, strings.TrimSpace(id))
}

func (s *NotificationService) ListByUser(ctx context.Context, params repository.ListParams) ([]domain.Notification, int64, error) {
	if params.UserID <= 0 {
		return nil, 0, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	return s.notifications.ListByUser(ctx, params)
}

func (s *NotificationService) GetAttempts(ctx context.Context, notificationID string) ([]domain.DeliveryAttempt, error) {
	if strings.TrimSpace(notificationID) == "" {
		return nil, fmt.Errorf("%w: notification id is required", domain.ErrValidation)
	}
	if s.attempts == nil {
		return nil, nil
	}

	// Surface not-found instead of an empty attempt list.
	if _, err := s.notifications.GetByID(ctx, strings.TrimSpace(notificationID)); err != nil {
		return nil, err
	}

	return s.attempts.GetByNotificationID(ctx, strings.TrimSpace(notificationID))
}
