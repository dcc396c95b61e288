package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	sendgridBaseURL     = "https://api.sendgrid.com"
	sendgridSendPath    = "/v3/mail/send"
	defaultEmailTimeout = 10 * time.Second
)

type sendgridAddress struct {
	Email string `json:"email"`
}

type sendgridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendgridPersonalization struct {
	To []sendgridAddress `json:"to"`
}

type sendgridRequest struct {
	Personalizations []sendgridPersonalization `json:"personalizations"`
	From             sendgridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendgridContent         `json:"content"`
}

// SendGridGateway delivers email through the SendGrid v3 mail send API.
type SendGridGateway struct {
	client *resty.Client
	apiKey string
	from   string
}

func NewSendGridGateway(apiKey, from string) (*SendGridGateway, error) {
	client := resty.New()
	client.SetBaseURL(sendgridBaseURL)
	client.SetTimeout(defaultEmailTimeout)
	client.SetRetryCount(0)

	return NewSendGridGatewayWithClient(apiKey, from, client)
}

func NewSendGridGatewayWithClient(apiKey, from string, client *resty.Client) (*SendGridGateway, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("sendgrid api key is required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("sendgrid from address is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultEmailTimeout)
	}
	client.SetRetryCount(0)

	return &SendGridGateway{
		client: client,
		apiKey: strings.TrimSpace(apiKey),
		from:   strings.TrimSpace(from),
	}, nil
}

func (g *SendGridGateway) SendEmail(ctx context.Context, to, subject, body string) error {
	if g == nil || g.client == nil {
		return fmt.Errorf("gateway is not initialized")
	}
	if strings.TrimSpace(to) == "" {
		return &Error{Message: "recipient address is required", Transient: false}
	}

	reqBody := sendgridRequest{
		Personalizations: []sendgridPersonalization{
			{To: []sendgridAddress{{Email: to}}},
		},
		From:    sendgridAddress{Email: g.from},
		Subject: subject,
		Content: []sendgridContent{{Type: "text/html", Value: body}},
	}

	response, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(g.apiKey).
		SetBody(reqBody).
		Post(sendgridSendPath)
	if err != nil {
		return &Error{
			Message:   "sendgrid request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}

	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return nil
	}

	return &Error{
		StatusCode: statusCode,
		Message:    gatewayErrorMessage("sendgrid", statusCode, response.String()),
		Transient:  isTransientHTTPStatus(statusCode),
	}
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}

func gatewayErrorMessage(name string, statusCode int, body string) string {
	base := fmt.Sprintf("%s returned status %d", name, statusCode)
	body = strings.TrimSpace(body)
	if body == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, body)
}
