package routes

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alaaeddinekamel/gym-management/internal/applog"
	"github.com/gofiber/fiber/v2"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

func TestHealthReportsDatabaseState(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"reachable", nil, http.StatusOK},
		{"unreachable", errors.New("connection refused"), http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/health", healthHandler(stubPinger{err: tc.err}))

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.StatusCode)
			}
		})
	}
}

func TestErrorHandlerHidesUnexpectedErrors(t *testing.T) {
	var logs bytes.Buffer
	applog.SetOutput(&logs)
	t.Cleanup(func() { applog.SetOutput(nil) })

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("pq: relation does not exist")
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if !strings.Contains(logs.String(), `"action":"server.error"`) {
		t.Fatalf("expected server.error log line, got %q", logs.String())
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCORSOriginsNormalizesList(t *testing.T) {
	if got := CORSOrigins(" https://a.example.com , ,https://b.example.com "); got != "https://a.example.com,https://b.example.com" {
		t.Fatalf("unexpected origins %q", got)
	}
	if got := CORSOrigins(""); got != "*" {
		t.Fatalf("expected wildcard, got %q", got)
	}
}
