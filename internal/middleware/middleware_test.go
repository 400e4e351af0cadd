package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alaaeddinekamel/gym-management/internal/metrics"
	"github.com/alaaeddinekamel/gym-management/pkg/utils"
	"github.com/gofiber/fiber/v2"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newProtectedApp(secret string, roles ...string) *fiber.App {
	app := fiber.New()
	app.Get("/admin", AuthRequired(secret), RequireRoles(roles...), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("user_id"), "role": c.Locals("role")})
	})
	return app
}

func TestAuthRequiredRejectsMissingHeader(t *testing.T) {
	app := newProtectedApp("secret", "admin")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAuthRequiredRejectsForeignSignature(t *testing.T) {
	app := newProtectedApp("secret", "admin")
	token, err := utils.GenerateToken("1", "admin", "other-secret")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestRequireRolesForbidsMember(t *testing.T) {
	app := newProtectedApp("secret", "admin")
	token, err := utils.GenerateToken("5", "user", "secret")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestRequireRolesAllowsAdmin(t *testing.T) {
	app := newProtectedApp("secret", "admin")
	token, err := utils.GenerateToken("1", "admin", "secret")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAuthRequiredAcceptsLowercaseScheme(t *testing.T) {
	app := newProtectedApp("secret", "admin")
	token, err := utils.GenerateToken("1", "admin", "secret")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "bearer  "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAuthRequiredRejectsUnknownRoleClaim(t *testing.T) {
	app := newProtectedApp("secret", "superuser")
	token, err := utils.GenerateToken("1", "superuser", "secret")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAuthRequiredRejectsBasicScheme(t *testing.T) {
	app := newProtectedApp("secret", "admin")

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Basic YWRtaW46YWRtaW4=")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestMetricsRecordsRoutePattern(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	appMetrics, err := metrics.NewAppMetrics(provider.Meter("test"), "gym-api")
	if err != nil {
		t.Fatalf("NewAppMetrics: %v", err)
	}

	app := fiber.New()
	app.Use(Metrics(appMetrics))
	app.Get("/api/products/:id", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/products/99", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	var errorCount int64
	var route string
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "http.server.request.error.count" {
				continue
			}
			sum := m.Data.(metricdata.Sum[int64])
			for _, dp := range sum.DataPoints {
				errorCount += dp.Value
				if v, ok := dp.Attributes.Value("http.route"); ok {
					route = v.AsString()
				}
			}
		}
	}
	if errorCount != 1 {
		t.Fatalf("expected 1 error request, got %d", errorCount)
	}
	if route != "/api/products/:id" {
		t.Fatalf("expected route pattern, got %q", route)
	}
}
