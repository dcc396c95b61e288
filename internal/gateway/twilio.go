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
	twilioBaseURL     = "https://api.twilio.com"
	defaultSMSTimeout = 10 * time.Second
)

// TwilioGateway delivers SMS through the Twilio messages API.
type TwilioGateway struct {
	client     *resty.Client
	accountSID string
	authToken  string
	from       string
}

func NewTwilioGateway(accountSID, authToken, from string) (*TwilioGateway, error) {
	client := resty.New()
	client.SetBaseURL(twilioBaseURL)
	client.SetTimeout(defaultSMSTimeout)
	client.SetRetryCount(0)

	return NewTwilioGatewayWithClient(accountSID, authToken, from, client)
}

func NewTwilioGatewayWithClient(accountSID, authToken, from string, client *resty.Client) (*TwilioGateway, error) {
	if strings.TrimSpace(accountSID) == "" {
		return nil, fmt.Errorf("twilio account sid is required")
	}
	if strings.TrimSpace(authToken) == "" {
		return nil, fmt.Errorf("twilio auth token is required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("twilio from number is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultSMSTimeout)
	}
	client.SetRetryCount(0)

	return &TwilioGateway{
		client:     client,
		accountSID: strings.TrimSpace(accountSID),
		authToken:  strings.TrimSpace(authToken),
		from:       strings.TrimSpace(from),
	}, nil
}

func (g *TwilioGateway) SendSMS(ctx context.Context, to, body string) error {
	if g == nil || g.client == nil {
		return fmt.Errorf("gateway is not initialized")
	}
	if strings.TrimSpace(to) == "" {
		return &Error{Message: "recipient number is required", Transient: false}
	}

	response, err := g.client.R().
		SetContext(ctx).
		SetBasicAuth(g.accountSID, g.authToken).
		SetFormData(map[string]string{
			"To":   to,
			"From": g.from,
			"Body": body,
		}).
		Post(fmt.Sprintf("/2010-04-01/Accounts/%s/Messages.json", g.accountSID))
	if err != nil {
		return &Error{
			Message:   "twilio request failed",
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
		Message:    gatewayErrorMessage("twilio", statusCode, response.String()),
		Transient:  isTransientHTTPStatus(statusCode),
	}
}
