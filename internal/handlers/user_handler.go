package handlers

import (
	"context"

	"github.com/alaaeddinekamel/gym-management/internal/applog"
	"github.com/alaaeddinekamel/gym-management/internal/models"
	"github.com/alaaeddinekamel/gym-management/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	service userApplicationService
}

type userApplicationService interface {
	ListUsers(ctx context.Context) ([]models.PublicUser, error)
	GetUser(ctx context.Context, actorID int64, role string, userID int64) (*models.PublicUser, error)
	UpdateUser(ctx context.Context, userID int64, input services.UpdateUserInput) (*models.PublicUser, error)
	DeleteUser(ctx context.Context, userID int64) (bool, error)
}

func NewUserHandler(service *services.MembershipService) *UserHandler {
	return &UserHandler{service: service}
}

type updateUserRequest struct {
	Name             *string `json:"name" validate:"omitempty,max=100"`
	Email            *string `json:"email" validate:"omitempty,email"`
	Role             *string `json:"role"`
	MembershipStatus *string `json:"membership_status"`
}

func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.Context())
	if err != nil {
		return mapServiceError(c, "user.list", err)
	}
	return c.JSON(fiber.Map{"users": users})
}

func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	actorID, role, err := parseActor(c)
	if err != nil {
		return invalidToken(c)
	}

	userID, ok := parseIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	user, err := h.service.GetUser(c.Context(), actorID, role, userID)
	if err != nil {
		return mapServiceError(c, "user.get", err)
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	userID, ok := parseIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	user, err := h.service.UpdateUser(c.Context(), userID, services.UpdateUserInput{
		Name:             req.Name,
		Email:            req.Email,
		Role:             req.Role,
		MembershipStatus: req.MembershipStatus,
	})
	if err != nil {
		return mapServiceError(c, "user.update", err)
	}

	if req.Role != nil {
		applog.Audit(c, "user.role_changed", map[string]any{
			"target_user_id": user.ID,
			"role":           user.Role,
		})
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	userID, ok := parseIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	coachRemoved, err := h.service.DeleteUser(c.Context(), userID)
	if err != nil {
		return mapServiceError(c, "user.delete", err)
	}

	applog.Audit(c, "user.deleted", map[string]any{
		"target_user_id": userID,
		"coach_removed":  coachRemoved,
	})
	return c.JSON(fiber.Map{"message": "User deleted", "coach_removed": coachRemoved})
}
