package handlers

import (
	"context"
	"time"

	"github.com/alaaeddinekamel/gym-management/internal/applog"
	"github.com/alaaeddinekamel/gym-management/internal/models"
	"github.com/alaaeddinekamel/gym-management/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ScheduleHandler struct {
	service scheduleApplicationService
}

type scheduleApplicationService interface {
	BookSession(ctx context.Context, userID int64, input services.BookSessionInput) (*models.ScheduleDetail, error)
	ListAll(ctx context.Context) ([]models.ScheduleDetail, error)
	ListForActor(ctx context.Context, actorID int64, role string) ([]models.ScheduleDetail, error)
	GetSchedule(ctx context.Context, actorID int64, role string, scheduleID int64) (*models.ScheduleDetail, error)
	UpdateStatus(ctx context.Context, actorID int64, role string, scheduleID int64, requestedStatus string) (*models.ScheduleDetail, error)
	CoachAvailability(ctx context.Context, coachID int64, date time.Time) (*services.CoachAvailability, error)
}

func NewScheduleHandler(service *services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

type bookScheduleRequest struct {
	CoachID int64  `json:"coach_id" validate:"required,gt=0"`
	Date    string `json:"date" validate:"required"`
	Time    string `json:"time" validate:"required"`
	Type    string `json:"type" validate:"required,max=100"`
}

type updateScheduleStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *ScheduleHandler) BookSession(c *fiber.Ctx) error {
	userID, _, err := parseActor(c)
	if err != nil {
		return invalidToken(c)
	}

	var req bookScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	date, err := parseCalendarDate(req.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be YYYY-MM-DD or RFC3339"})
	}

	detail, err := h.service.BookSession(c.Context(), userID, services.BookSessionInput{
		CoachID: req.CoachID,
		Date:    date,
		Time:    req.Time,
		Type:    req.Type,
	})
	if err != nil {
		return mapServiceError(c, "schedule.book", err)
	}

	c.Status(fiber.StatusCreated)
	applog.Audit(c, "schedule.booked", map[string]any{
		"schedule_id": detail.ID,
		"coach_id":    detail.CoachID,
		"date":        detail.Date.Format(time.DateOnly),
		"time":        detail.Time,
	})
	return c.JSON(fiber.Map{"schedule": detail})
}

func (h *ScheduleHandler) ListAll(c *fiber.Ctx) error {
	schedules, err := h.service.ListAll(c.Context())
	if err != nil {
		return mapServiceError(c, "schedule.list", err)
	}
	return c.JSON(fiber.Map{"schedules": schedules})
}

func (h *ScheduleHandler) ListMine(c *fiber.Ctx) error {
	userID, role, err := parseActor(c)
	if err != nil {
		return invalidToken(c)
	}

	schedules, err := h.service.ListForActor(c.Context(), userID, role)
	if err != nil {
		return mapServiceError(c, "schedule.list_mine", err)
	}
	return c.JSON(fiber.Map{"schedules": schedules})
}

func (h *ScheduleHandler) GetSchedule(c *fiber.Ctx) error {
	userID, role, err := parseActor(c)
	if err != nil {
		return invalidToken(c)
	}

	scheduleID, ok := parseIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule id"})
	}

	schedule, err := h.service.GetSchedule(c.Context(), userID, role, scheduleID)
	if err != nil {
		return mapServiceError(c, "schedule.get", err)
	}
	return c.JSON(fiber.Map{"schedule": schedule})
}

func (h *ScheduleHandler) UpdateStatus(c *fiber.Ctx) error {
	userID, role, err := parseActor(c)
	if err != nil {
		return invalidToken(c)
	}

	scheduleID, ok := parseIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule id"})
	}

	var req updateScheduleStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	schedule, err := h.service.UpdateStatus(c.Context(), userID, role, scheduleID, req.Status)
	if err != nil {
		return mapServiceError(c, "schedule.status", err)
	}

	applog.Audit(c, "schedule.status", map[string]any{
		"schedule_id": schedule.ID,
		"status":      schedule.Status,
	})
	return c.JSON(fiber.Map{"schedule": schedule})
}

// CoachAvailability serves GET /api/coaches/:id/availability?date=.
func (h *ScheduleHandler) CoachAvailability(c *fiber.Ctx) error {
	coachID, ok := parseIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid coach id"})
	}

	date, err := parseCalendarDate(c.Query("date"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be YYYY-MM-DD or RFC3339"})
	}

	availability, err := h.service.CoachAvailability(c.Context(), coachID, date)
	if err != nil {
		return mapServiceError(c, "coach.availability", err)
	}
	return c.JSON(fiber.Map{"availability": availability})
}
