package repository

import (
	"time"

	"github.com/ebalkan/notifyhub/internal/domain"
)

// NotificationModel is the persistence model for the notifications table.
type NotificationModel struct {
	ID           string        `gorm:"type:uuid;primaryKey"`
	UserID       int64         `gorm:"not null;index"`
	Message      string        `gorm:"type:text;not null"`
	Type         domain.Type   `gorm:"type:varchar(10);not null"`
	Status       domain.Status `gorm:"type:varchar(10);not null"`
	AttemptCount int           `gorm:"not null;default:0"`
	NextRetryAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (NotificationModel) TableName() string {
	return "notifications"
}

// DeliveryAttemptModel is the persistence model for delivery_attempts.
type DeliveryAttemptModel struct {
	ID             string        `gorm:"type:uuid;primaryKey"`
	NotificationID string        `gorm:"type:uuid;not null"`
	AttemptNumber  int           `gorm:"not null"`
	Status         domain.Status `gorm:"type:varchar(10);not null"`
	Error          *string       `gorm:"type:text"`
	CreatedAt      time.Time
}

func (DeliveryAttemptModel) TableName() string {
	return "delivery_attempts"
}

// UserModel is the persistence model for the users table.
type UserModel struct {
	ID    int64  `gorm:"primaryKey"`
	Email string `gorm:"type:varchar(255)"`
	Phone string `gorm:"type:varchar(32)"`
}

func (UserModel) TableName() string {
	return "users"
}

func notificationModelFromDomain(n *domain.Notification) *NotificationModel {
	if n == nil {
		return nil
	}

	return &NotificationModel{
		ID:           n.ID,
		UserID:       n.UserID,
		Message:      n.Message,
		Type:         n.Type,
		Status:       n.Status,
		AttemptCount: n.AttemptCount,
		NextRetryAt:  n.NextRetryAt,
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    n.UpdatedAt,
	}
}

func notificationModelToDomain(m *NotificationModel) *domain.Notification {
	if m == nil {
		return nil
	}

	return &domain.Notification{
		ID:           m.ID,
		UserID:       m.UserID,
		Message:      m.Message,
		Type:         m.Type,
		Status:       m.Status,
		AttemptCount: m.AttemptCount,
		NextRetryAt:  m.NextRetryAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func attemptModelFromDomain(a *domain.DeliveryAttempt) *DeliveryAttemptModel {
	if a == nil {
		return nil
	}

	return &DeliveryAttemptModel{
		ID:             a.ID,
		NotificationID: a.NotificationID,
		AttemptNumber:  a.AttemptNumber,
		Status:         a.Status,
		Error:          a.Error,
		CreatedAt:      a.CreatedAt,
	}
}

func attemptModelToDomain(m *DeliveryAttemptModel) *domain.DeliveryAttempt {
	if m == nil {
		return nil
	}

	return &domain.DeliveryAttempt{
		ID:             m.ID,
		NotificationID: m.NotificationID,
		AttemptNumber:  m.AttemptNumber,
		Status:         m.Status,
		Error:          m.Error,
		CreatedAt:      m.CreatedAt,
	}
}

func userModelToDomain(m *UserModel) *domain.User {
	if m == nil {
		return nil
	}

	return &domain.User{
		ID:    m.ID,
		Email: m.Email,
		Phone: m.Phone,
	}
}
