package domain

import "time"

// DeliveryAttempt records a single delivery attempt for a notification.
type DeliveryAttempt struct {
	ID             string
	NotificationID string
	AttemptNumber  int
	Status         Status
	Error          *string
	CreatedAt      time.Time
}
