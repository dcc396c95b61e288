package service

import (
	"context"
	"sync"
	"time"

	"github.com/ebalkan/notifyhub/internal/domain"
	"github.com/ebalkan/notifyhub/internal/queue"
	"github.com/ebalkan/notifyhub/internal/repository"
)

type fakeNotificationRepo struct {
	createFn          func(ctx context.Context, n *domain.Notification) error
	getByIDFn         func(ctx context.Context, id string) (*domain.Notification, error)
	listByUserFn      func(ctx context.Context, params repository.ListParams) ([]domain.Notification, int64, error)
	updateStatusFn    func(ctx context.Context, id string, status domain.Status) error
	lockForDeliveryFn func(ctx context.Context, id string) (*domain.Notification, error)
	markAttemptFn     func(ctx context.Context, id string, status domain.Status, attemptCount int, nextRetryAt *time.Time) error
	getStuckRetriesFn func(ctx context.Context, olderThan time.Time, limit int) ([]domain.Notification, error)
	clearNextRetryFn  func(ctx context.Context, id string) error
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	if f.createFn != nil {
		return f.createFn(ctx, n)
	}
	return nil
}

func (f *fakeNotificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeNotificationRepo) ListByUser(ctx context.Context, params repository.ListParams) ([]domain.Notification, int64, error) {
	if f.listByUserFn != nil {
		return f.listByUserFn(ctx, params)
	}
	return nil, 0, nil
}

func (f *fakeNotificationRepo) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	if f.updateStatusFn != nil {
		return f.updateStatusFn(ctx, id, status)
	}
	return nil
}

func (f *fakeNotificationRepo) LockForDelivery(ctx context.Context, id string) (*domain.Notification, error) {
	if f.lockForDeliveryFn != nil {
		return f.lockForDeliveryFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeNotificationRepo) MarkAttempt(ctx context.Context, id string, status domain.Status, attemptCount int, nextRetryAt *time.Time) error {
	if f.markAttemptFn != nil {
		return f.markAttemptFn(ctx, id, status, attemptCount, nextRetryAt)
	}
	return nil
}

func (f *fakeNotificationRepo) GetStuckRetries(ctx context.Context, olderThan time.Time, limit int) ([]domain.Notification, error) {
	if f.getStuckRetriesFn != nil {
		return f.getStuckRetriesFn(ctx, olderThan, limit)
	}
	return nil, nil
}

func (f *fakeNotificationRepo) ClearNextRetryAt(ctx context.Context, id string) error {
	if f.clearNextRetryFn != nil {
		return f.clearNextRetryFn(ctx, id)
	}
	return nil
}

type fakeAttemptRepo struct {
	createFn  func(ctx context.Context, a *domain.DeliveryAttempt) error
	getByIDFn func(ctx context.Context, notificationID string) ([]domain.DeliveryAttempt, error)
}

func (f *fakeAttemptRepo) Create(ctx context.Context, a *domain.DeliveryAttempt) error {
	if f.createFn != nil {
		return f.createFn(ctx, a)
	}
	return nil
}

func (f *fakeAttemptRepo) GetByNotificationID(ctx context.Context, notificationID string) ([]domain.DeliveryAttempt, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, notificationID)
	}
	return nil, nil
}

type fakeUserRepo struct {
	getByIDFn func(ctx context.Context, id int64) (*domain.User, error)
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return &domain.User{ID: id, Email: "user@example.com", Phone: "+15550000002"}, nil
}

type fakePublisher struct {
	publishFn func(ctx context.Context, job queue.DeliveryJob) error
}

func (f *fakePublisher) Publish(ctx context.Context, job queue.DeliveryJob) error {
	if f.publishFn != nil {
		return f.publishFn(ctx, job)
	}
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeConsumer struct {
	consumeFn func(ctx context.Context, handler queue.JobHandler) error
}

func (f *fakeConsumer) Consume(ctx context.Context, handler queue.JobHandler) error {
	if f.consumeFn != nil {
		return f.consumeFn(ctx, handler)
	}
	<-ctx.Done()
	return nil
}

func (f *fakeConsumer) Close() error { return nil }

type fakeEmailSender struct {
	sendEmailFn func(ctx context.Context, to, subject, body string) error
}

func (f *fakeEmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	if f.sendEmailFn != nil {
		return f.sendEmailFn(ctx, to, subject, body)
	}
	return nil
}

type fakeSMSSender struct {
	sendSMSFn func(ctx context.Context, to, body string) error
}

func (f *fakeSMSSender) SendSMS(ctx context.Context, to, body string) error {
	if f.sendSMSFn != nil {
		return f.sendSMSFn(ctx, to, body)
	}
	return nil
}

type broadcastEvent struct {
	userID  int64
	payload []byte
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	sent []broadcastEvent
}

func (f *fakeBroadcaster) Broadcast(userID int64, payload []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, broadcastEvent{userID: userID, payload: payload})
}

func (f *fakeBroadcaster) events() []broadcastEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]broadcastEvent, len(f.sent))
	copy(out, f.sent)
	return out
}
