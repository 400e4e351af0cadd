package handlers

import (
	"context"

	"github.com/alaaeddinekamel/gym-management/internal/applog"
	"github.com/alaaeddinekamel/gym-management/internal/models"
	"github.com/alaaeddinekamel/gym-management/internal/services"
	"github.com/gofiber/fiber/v2"
)

type CoachHandler struct {
	service coachApplicationService
}

type coachApplicationService interface {
	ListCoaches(ctx context.Context) ([]models.CoachDetail, error)
	GetCoach(ctx context.Context, coachID int64) (*models.CoachDetail, error)
	CreateCoach(ctx context.Context, input services.CoachInput) (*models.CoachDetail, error)
	UpdateCoach(ctx context.Context, coachID int64, input services.UpdateCoachInput) (*models.CoachDetail, error)
	DeleteCoach(ctx context.Context, coachID int64) error
}

func NewCoachHandler(service *services.MembershipService) *CoachHandler {
	return &CoachHandler{service: service}
}

type createCoachRequest struct {
	UserID         int64                    `json:"user_id" validate:"required,gt=0"`
	Specialization []string                 `json:"specialization" validate:"required,min=1"`
	Experience     int                      `json:"experience" validate:"gte=0"`
	Availability   []models.AvailabilityDay `json:"availability"`
}

type updateCoachRequest struct {
	Specialization *[]string                 `json:"specialization"`
	Experience     *int                      `json:"experience" validate:"omitempty,gte=0"`
	Availability   *[]models.AvailabilityDay `json:"availability"`
}

func (h *CoachHandler) ListCoaches(c *fiber.Ctx) error {
	coaches, err := h.service.ListCoaches(c.Context())
	if err != nil {
		return mapServiceError(c, "coach.list", err)
	}
	return c.JSON(fiber.Map{"coaches": coaches})
}

func (h *CoachHandler) GetCoach(c *fiber.Ctx) error {
	coachID, ok := parseIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid coach id"})
	}

	coach, err := h.service.GetCoach(c.Context(), coachID)
	if err != nil {
		return mapServiceError(c, "coach.get", err)
	}
	return c.JSON(fiber.Map{"coach": coach})
}

func (h *CoachHandler) CreateCoach(c *fiber.Ctx) error {
	var req createCoachRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	coach, err := h.service.CreateCoach(c.Context(), services.CoachInput{
		UserID:         req.UserID,
		Specialization: req.Specialization,
		Experience:     req.Experience,
		Availability:   req.Availability,
	})
	if err != nil {
		return mapServiceError(c, "coach.create", err)
	}

	c.Status(fiber.StatusCreated)
	applog.Audit(c, "coach.created", map[string]any{
		"coach_id":       coach.ID,
		"target_user_id": coach.UserID,
	})
	return c.JSON(fiber.Map{"coach": coach})
}

func (h *CoachHandler) UpdateCoach(c *fiber.Ctx) error {
	coachID, ok := parseIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid coach id"})
	}

	var req updateCoachRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	coach, err := h.service.UpdateCoach(c.Context(), coachID, services.UpdateCoachInput{
		Specialization: req.Specialization,
		Experience:     req.Experience,
		Availability:   req.Availability,
	})
	if err != nil {
		return mapServiceError(c, "coach.update", err)
	}
	return c.JSON(fiber.Map{"coach": coach})
}

func (h *CoachHandler) DeleteCoach(c *fiber.Ctx) error {
	coachID, ok := parseIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid coach id"})
	}

	if err := h.service.DeleteCoach(c.Context(), coachID); err != nil {
		return mapServiceError(c, "coach.delete", err)
	}

	applog.Audit(c, "coach.deleted", map[string]any{"coach_id": coachID})
	return c.JSON(fiber.Map{"message": "Coach deleted"})
}
