package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func healthyCheck(name string) HealthCheck {
	return HealthCheck{
		Name:  name,
		Check: func(ctx context.Context) error { return nil },
	}
}

func failingCheck(name string) HealthCheck {
	return HealthCheck{
		Name:  name,
		Check: func(ctx context.Context) error { return errors.New(name + " unreachable") },
	}
}

func performHealthRequest(t *testing.T, app *fiber.App, target string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		t.Fatalf("http.NewRequest() error = %v", err)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}

	return resp, body
}

func TestLivezHandler(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	RegisterHealthRoutes(app, healthyCheck("postgres"))

	resp, body := performHealthRequest(t, app, "/livez")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Fatalf("status field = %v, want ok", body["status"])
	}
}

func TestReadyzHandlerAllHealthy(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	RegisterHealthRoutes(app,
		healthyCheck("postgres"),
		healthyCheck("redis"),
		healthyCheck("rabbitmq"),
	)

	resp, body := performHealthRequest(t, app, "/readyz")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["status"] != "ready" {
		t.Fatalf("status field = %v, want ready", body["status"])
	}

	checks, ok := body["checks"].(map[string]any)
	if !ok {
		t.Fatalf("checks field missing: %v", body)
	}
	for _, name := range []string{"postgres", "redis", "rabbitmq"} {
		if checks[name] != "ok" {
			t.Fatalf("check %s = %v, want ok", name, checks[name])
		}
	}
}

func TestReadyzHandlerBrokerDown(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	RegisterHealthRoutes(app,
		healthyCheck("postgres"),
		healthyCheck("redis"),
		failingCheck("rabbitmq"),
	)

	resp, body := performHealthRequest(t, app, "/readyz")
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 when the broker is unreachable", resp.StatusCode)
	}
	if body["status"] != "not_ready" {
		t.Fatalf("status field = %v, want not_ready", body["status"])
	}

	checks, ok := body["checks"].(map[string]any)
	if !ok {
		t.Fatalf("checks field missing: %v", body)
	}
	if checks["rabbitmq"] != "down" {
		t.Fatalf("rabbitmq check = %v, want down", checks["rabbitmq"])
	}
	if checks["postgres"] != "ok" || checks["redis"] != "ok" {
		t.Fatalf("healthy checks should still report ok: %v", checks)
	}
}
