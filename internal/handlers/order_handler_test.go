package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alaaeddinekamel/gym-management/internal/models"
	"github.com/alaaeddinekamel/gym-management/internal/services"
)

type stubOrderService struct {
	placeResult        *models.OrderDetail
	placeErr           error
	listResult         []models.OrderDetail
	listErr            error
	getResult          *models.OrderDetail
	getErr             error
	updateStatusResult *models.OrderDetail
	updateStatusErr    error
	lastLines          []services.OrderLineInput
	lastActorID        int64
	lastRole           string
	lastOrderID        int64
	lastStatus         string
	placeCalled        bool
}

func (s *stubOrderService) PlaceOrder(_ context.Context, userID int64, items []services.OrderLineInput) (*models.OrderDetail, error) {
	s.placeCalled = true
	s.lastActorID = userID
	s.lastLines = items
	return s.placeResult, s.placeErr
}

func (s *stubOrderService) ListAll(_ context.Context) ([]models.OrderDetail, error) {
	return s.listResult, s.listErr
}

func (s *stubOrderService) ListForUser(_ context.Context, userID int64) ([]models.OrderDetail, error) {
	s.lastActorID = userID
	return s.listResult, s.listErr
}

func (s *stubOrderService) GetOrder(_ context.Context, actorID int64, role string, orderID int64) (*models.OrderDetail, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastOrderID = orderID
	return s.getResult, s.getErr
}

func (s *stubOrderService) UpdateStatus(_ context.Context, orderID int64, requestedStatus string) (*models.OrderDetail, error) {
	s.lastOrderID = orderID
	s.lastStatus = requestedStatus
	return s.updateStatusResult, s.updateStatusErr
}

func TestPlaceOrderForwardsLinesWithoutClientPrices(t *testing.T) {
	service := &stubOrderService{
		placeResult: &models.OrderDetail{
			Order: models.Order{
				ID:          11,
				UserID:      42,
				TotalAmount: 59.98,
				Status:      models.OrderStatusPending,
				Items:       []models.OrderItem{{Name: "Premium Yoga Mat", Quantity: 2, Price: 29.99}},
			},
		},
	}
	handler := &OrderHandler{service: service}

	app := newActorApp("user", "42")
	app.Post("/api/orders", handler.PlaceOrder)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{
		"items": [
			{"product_id": 1, "quantity": 2, "price": 0.01},
			{"product_id": 3, "quantity": 1}
		],
		"total_amount": 0.01
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastActorID != 42 {
		t.Fatalf("expected actor 42, got %d", service.lastActorID)
	}
	if len(service.lastLines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(service.lastLines))
	}
	if service.lastLines[0] != (services.OrderLineInput{ProductID: 1, Quantity: 2}) {
		t.Fatalf("unexpected first line: %+v", service.lastLines[0])
	}

	var body struct {
		Order models.OrderDetail `json:"order"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Order.TotalAmount != 59.98 {
		t.Fatalf("expected server total 59.98, got %v", body.Order.TotalAmount)
	}
}

func TestPlaceOrderRejectsEmptyItems(t *testing.T) {
	service := &stubOrderService{}
	handler := &OrderHandler{service: service}

	app := newActorApp("user", "42")
	app.Post("/api/orders", handler.PlaceOrder)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"items": []}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if service.placeCalled {
		t.Fatal("expected service not to be called")
	}
}

func TestPlaceOrderRejectsNonPositiveQuantity(t *testing.T) {
	service := &stubOrderService{}
	handler := &OrderHandler{service: service}

	app := newActorApp("user", "42")
	app.Post("/api/orders", handler.PlaceOrder)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"items": [{"product_id": 1, "quantity": 0}]}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body.Fields["items[0].quantity"]; !ok {
		t.Fatalf("expected items[0].quantity in fields, got %+v", body.Fields)
	}
}

func TestPlaceOrderRejectsOversizedQuantity(t *testing.T) {
	service := &stubOrderService{}
	handler := &OrderHandler{service: service}

	app := newActorApp("user", "42")
	app.Post("/api/orders", handler.PlaceOrder)

	body := `{"items": [{"product_id": 1, "quantity": 9223372036854775807}, {"product_id": 1, "quantity": 9223372036854775807}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if service.placeCalled {
		t.Fatal("expected service not to be called")
	}
}

func TestPlaceOrderReturnsConflictForInsufficientStock(t *testing.T) {
	service := &stubOrderService{
		placeErr: &services.DomainError{Kind: services.ErrConflict, Message: `insufficient stock for "Whey Protein", available: 1`},
	}
	handler := &OrderHandler{service: service}

	app := newActorApp("user", "42")
	app.Post("/api/orders", handler.PlaceOrder)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"items": [{"product_id": 2, "quantity": 5}]}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(body["error"], "Whey Protein") {
		t.Fatalf("expected product name in error, got %q", body["error"])
	}
}

func TestGetOrderReturnsForbiddenForOtherUser(t *testing.T) {
	service := &stubOrderService{
		getErr: &services.DomainError{Kind: services.ErrForbidden, Message: "forbidden"},
	}
	handler := &OrderHandler{service: service}

	app := newActorApp("user", "42")
	app.Get("/api/orders/:id", handler.GetOrder)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/orders/77", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if service.lastOrderID != 77 || service.lastRole != "user" {
		t.Fatalf("unexpected call: id=%d role=%q", service.lastOrderID, service.lastRole)
	}
}

func TestUpdateOrderStatusPassesRawStatus(t *testing.T) {
	service := &stubOrderService{
		updateStatusResult: &models.OrderDetail{Order: models.Order{ID: 5, Status: models.OrderStatusCancelled}},
	}
	handler := &OrderHandler{service: service}

	app := newActorApp("admin", "1")
	app.Patch("/api/orders/:id/status", handler.UpdateStatus)

	req := httptest.NewRequest(http.MethodPatch, "/api/orders/5/status", strings.NewReader(`{"status":" Cancelled "}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastOrderID != 5 || service.lastStatus != " Cancelled " {
		t.Fatalf("unexpected call: id=%d status=%q", service.lastOrderID, service.lastStatus)
	}
}

func TestUpdateOrderStatusReturnsNotFound(t *testing.T) {
	service := &stubOrderService{
		updateStatusErr: &services.DomainError{Kind: services.ErrNotFound, Message: "order not found"},
	}
	handler := &OrderHandler{service: service}

	app := newActorApp("admin", "1")
	app.Patch("/api/orders/:id/status", handler.UpdateStatus)

	req := httptest.NewRequest(http.MethodPatch, "/api/orders/404/status", strings.NewReader(`{"status":"confirmed"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
