package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestParseStatusFromString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Status
		wantErr bool
	}{
		{name: "valid lowercase", input: "sent", want: StatusSent},
		{name: "valid uppercase with spaces", input: " PENDING ", want: StatusPending},
		{name: "retrying", input: "retrying", want: StatusRetrying},
		{name: "invalid", input: "queued", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseStatusFromString(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("ParseStatusFromString() error = %v, want ErrValidation", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseStatusFromString() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseStatusFromString() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStatusIsTerminal(t *testing.T) {
	t.Parallel()

	if !StatusSent.IsTerminal() {
		t.Error("sent should be terminal")
	}
	if !StatusFailed.IsTerminal() {
		t.Error("failed should be terminal")
	}
	if StatusPending.IsTerminal() {
		t.Error("pending should not be terminal")
	}
	if StatusRetrying.IsTerminal() {
		t.Error("retrying should not be terminal")
	}
}

func TestParseTypeFromString(t *testing.T) {
	t.Parallel()

	got, err := ParseTypeFromString(" SMS ")
	if err != nil {
		t.Fatalf("ParseTypeFromString() unexpected error = %v", err)
	}
	if got != TypeSMS {
		t.Fatalf("ParseTypeFromString() = %s, want %s", got, TypeSMS)
	}

	got, err = ParseTypeFromString("in_app")
	if err != nil {
		t.Fatalf("ParseTypeFromString() unexpected error = %v", err)
	}
	if got != TypeInApp {
		t.Fatalf("ParseTypeFromString() = %s, want %s", got, TypeInApp)
	}

	_, err = ParseTypeFromString("fax")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ParseTypeFromString() error = %v, want ErrValidation", err)
	}
}

func TestNotificationValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		notification Notification
		wantErr      bool
	}{
		{
			name: "valid email notification",
			notification: Notification{
				UserID:  7,
				Message: "hi",
				Type:    TypeEmail,
			},
		},
		{
			name: "valid in-app notification",
			notification: Notification{
				UserID:  1,
				Message: "welcome",
				Type:    TypeInApp,
			},
		},
		{
			name: "missing user id",
			notification: Notification{
				Message: "hi",
				Type:    TypeEmail,
			},
			wantErr: true,
		},
		{
			name: "empty message",
			notification: Notification{
				UserID: 7,
				Type:   TypeSMS,
			},
			wantErr: true,
		},
		{
			name: "invalid type",
			notification: Notification{
				UserID:  7,
				Message: "hi",
				Type:    Type("pigeon"),
			},
			wantErr: true,
		},
		{
			name: "message too long",
			notification: Notification{
				UserID:  7,
				Message: strings.Repeat("a", MaxMessageLength+1),
				Type:    TypeEmail,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.notification.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("Validate() error = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() unexpected error = %v", err)
			}
		})
	}
}
