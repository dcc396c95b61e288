package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
)

func newTestClient(baseURL string) *resty.Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	return client
}

func TestSendGridGatewaySendEmailSuccess(t *testing.T) {
	t.Parallel()

	var gotBody sendgridRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != sendgridSendPath {
			t.Errorf("path = %s, want %s", r.URL.Path, sendgridSendPath)
		}
		gotAuth = r.Header.Get("Authorization")

		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}

		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	g, err := NewSendGridGatewayWithClient("sg-key", "noreply@example.com", newTestClient(server.URL))
	if err != nil {
		t.Fatalf("NewSendGridGatewayWithClient() error = %v", err)
	}

	if err := g.SendEmail(context.Background(), "user@example.com", "New Notification", "hi"); err != nil {
		t.Fatalf("SendEmail() unexpected error: %v", err)
	}

	if gotAuth != "Bearer sg-key" {
		t.Fatalf("authorization = %q, want bearer token", gotAuth)
	}
	if len(gotBody.Personalizations) != 1 || len(gotBody.Personalizations[0].To) != 1 {
		t.Fatal("expected exactly one recipient")
	}
	if gotBody.Personalizations[0].To[0].Email != "user@example.com" {
		t.Fatalf("recipient = %q, want user@example.com", gotBody.Personalizations[0].To[0].Email)
	}
	if gotBody.From.Email != "noreply@example.com" {
		t.Fatalf("from = %q, want noreply@example.com", gotBody.From.Email)
	}
	if gotBody.Subject != "New Notification" {
		t.Fatalf("subject = %q, want New Notification", gotBody.Subject)
	}
}

func TestSendGridGatewayStatusClassification(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		statusCode    int
		wantTransient bool
	}{
		{name: "too many requests is transient", statusCode: http.StatusTooManyRequests, wantTransient: true},
		{name: "bad request is permanent", statusCode: http.StatusBadRequest, wantTransient: false},
		{name: "unauthorized is permanent", statusCode: http.StatusUnauthorized, wantTransient: false},
		{name: "internal server error is transient", statusCode: http.StatusInternalServerError, wantTransient: true},
		{name: "bad gateway is transient", statusCode: http.StatusBadGateway, wantTransient: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				_, _ = w.Write([]byte("gateway failed"))
			}))
			defer server.Close()

			g, err := NewSendGridGatewayWithClient("sg-key", "noreply@example.com", newTestClient(server.URL))
			if err != nil {
				t.Fatalf("NewSendGridGatewayWithClient() error = %v", err)
			}

			err = g.SendEmail(context.Background(), "user@example.com", "subject", "hi")
			if err == nil {
				t.Fatal("SendEmail() expected error, got nil")
			}

			var gatewayErr *Error
			if !errors.As(err, &gatewayErr) {
				t.Fatalf("error type = %T, want *Error", err)
			}
			if gatewayErr.StatusCode != tc.statusCode {
				t.Fatalf("status code = %d, want %d", gatewayErr.StatusCode, tc.statusCode)
			}
			if IsTransient(err) != tc.wantTransient {
				t.Fatalf("IsTransient() = %v, want %v", IsTransient(err), tc.wantTransient)
			}
		})
	}
}

func TestSendGridGatewayEmptyRecipientIsPermanent(t *testing.T) {
	t.Parallel()

	g, err := NewSendGridGatewayWithClient("sg-key", "noreply@example.com", newTestClient("http://localhost:0"))
	if err != nil {
		t.Fatalf("NewSendGridGatewayWithClient() error = %v", err)
	}

	err = g.SendEmail(context.Background(), "  ", "subject", "hi")
	if err == nil {
		t.Fatal("SendEmail() expected error, got nil")
	}
	if IsTransient(err) {
		t.Fatal("empty recipient should be a permanent failure")
	}
}

func TestNewSendGridGatewayValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewSendGridGatewayWithClient("", "noreply@example.com", resty.New()); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if _, err := NewSendGridGatewayWithClient("sg-key", "", resty.New()); err == nil {
		t.Fatal("expected error for missing from address")
	}
	if _, err := NewSendGridGatewayWithClient("sg-key", "noreply@example.com", nil); err == nil {
		t.Fatal("expected error for nil client")
	}
}
