package queue

import (
	"fmt"
	"strings"
	"time"
)

// DeliveryJob is the broker payload for one delivery attempt of one
// notification. AttemptCount is the number of attempts already completed;
// it is the authoritative retry counter, carried on the payload rather
// than in worker state.
type DeliveryJob struct {
	NotificationID string     `json:"notificationId"`
	AttemptCount   int        `json:"attemptCount"`
	NotBefore      *time.Time `json:"notBefore,omitempty"`
}

func (j DeliveryJob) Validate() error {
	if strings.TrimSpace(j.NotificationID) == "" {
		return fmt.Errorf("notificationId is required")
	}
	if j.AttemptCount < 0 {
		return fmt.Errorf("attemptCount must not be negative")
	}
	return nil
}

// Delay returns how long the job must stay invisible to consumers, or zero
// when it is immediately due.
func (j DeliveryJob) Delay(now time.Time) time.Duration {
	if j.NotBefore == nil {
		return 0
	}
	d := j.NotBefore.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
