package handlers

import (
	"context"

	"github.com/alaaeddinekamel/gym-management/internal/applog"
	"github.com/alaaeddinekamel/gym-management/internal/models"
	"github.com/alaaeddinekamel/gym-management/internal/services"
	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	service orderApplicationService
}

type orderApplicationService interface {
	PlaceOrder(ctx context.Context, userID int64, items []services.OrderLineInput) (*models.OrderDetail, error)
	ListAll(ctx context.Context) ([]models.OrderDetail, error)
	ListForUser(ctx context.Context, userID int64) ([]models.OrderDetail, error)
	GetOrder(ctx context.Context, actorID int64, role string, orderID int64) (*models.OrderDetail, error)
	UpdateStatus(ctx context.Context, orderID int64, requestedStatus string) (*models.OrderDetail, error)
}

func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

type orderItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0,max=1000000"`
}

// Any price sent by the client is ignored; lines are priced from the catalog.
type placeOrderRequest struct {
	Items []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *OrderHandler) PlaceOrder(c *fiber.Ctx) error {
	userID, _, err := parseActor(c)
	if err != nil {
		return invalidToken(c)
	}

	var req placeOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	lines := make([]services.OrderLineInput, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, services.OrderLineInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.service.PlaceOrder(c.Context(), userID, lines)
	if err != nil {
		return mapServiceError(c, "order.place", err)
	}

	c.Status(fiber.StatusCreated)
	applog.Audit(c, "order.placed", map[string]any{
		"order_id":     order.ID,
		"total_amount": order.TotalAmount,
		"items":        len(order.Items),
	})
	return c.JSON(fiber.Map{"order": order})
}

func (h *OrderHandler) ListAll(c *fiber.Ctx) error {
	orders, err := h.service.ListAll(c.Context())
	if err != nil {
		return mapServiceError(c, "order.list", err)
	}
	return c.JSON(fiber.Map{"orders": orders})
}

func (h *OrderHandler) ListMine(c *fiber.Ctx) error {
	userID, _, err := parseActor(c)
	if err != nil {
		return invalidToken(c)
	}

	orders, err := h.service.ListForUser(c.Context(), userID)
	if err != nil {
		return mapServiceError(c, "order.list_mine", err)
	}
	return c.JSON(fiber.Map{"orders": orders})
}

func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, role, err := parseActor(c)
	if err != nil {
		return invalidToken(c)
	}

	orderID, ok := parseIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order id"})
	}

	order, err := h.service.GetOrder(c.Context(), userID, role, orderID)
	if err != nil {
		return mapServiceError(c, "order.get", err)
	}
	return c.JSON(fiber.Map{"order": order})
}

func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	orderID, ok := parseIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order id"})
	}

	var req updateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	order, err := h.service.UpdateStatus(c.Context(), orderID, req.Status)
	if err != nil {
		return mapServiceError(c, "order.status", err)
	}

	applog.Audit(c, "order.status", map[string]any{
		"order_id": order.ID,
		"status":   order.Status,
	})
	return c.JSON(fiber.Map{"order": order})
}
