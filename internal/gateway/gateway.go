package gateway

import "context"

// EmailSender is the outbound email delivery port.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender is the outbound SMS delivery port.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}
