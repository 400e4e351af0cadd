package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/alaaeddinekamel/gym-management/internal/applog"
	"github.com/alaaeddinekamel/gym-management/internal/models"
	"github.com/alaaeddinekamel/gym-management/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type authUserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type coachProfileReader interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Coach, error)
}

type AuthHandler struct {
	users     authUserStore
	coaches   coachProfileReader
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthHandler(users authUserStore, coaches coachProfileReader, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	if tokenTTL <= 0 {
		tokenTTL = utils.DefaultTokenTTL
	}
	return &AuthHandler{
		users:     users,
		coaches:   coaches,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	existing, err := h.users.GetByEmail(c.Context(), req.Email)
	if err == nil && existing != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already exists"})
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return mapServiceError(c, "auth.register", err)
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return mapServiceError(c, "auth.register", err)
	}

	user := &models.User{
		Name:             req.Name,
		Email:            req.Email,
		PasswordHash:     hashed,
		Role:             models.RoleUser,
		MembershipStatus: models.MembershipActive,
	}
	if err := h.users.CreateUser(c.Context(), user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already exists"})
		}
		return mapServiceError(c, "auth.register", err)
	}

	token, err := utils.GenerateTokenWithTTL(strconv.FormatInt(user.ID, 10), user.Role, h.jwtSecret, h.tokenTTL)
	if err != nil {
		return mapServiceError(c, "auth.register", err)
	}

	c.Status(fiber.StatusCreated)
	applog.Audit(c, "auth.register", map[string]any{"new_user_id": user.ID})
	return c.JSON(fiber.Map{
		"token": token,
		"user":  user.Public(),
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	user, err := h.users.GetByEmail(c.Context(), req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			applog.Security(c, "auth.login_failed", map[string]any{"reason": "unknown_email"})
			return c.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{"error": "Invalid email or password"})
		}
		return mapServiceError(c, "auth.login", err)
	}

	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		applog.Security(c, "auth.login_failed", map[string]any{"reason": "bad_password", "target_user_id": user.ID})
		return c.Status(fiber.StatusUnauthorized).
			JSON(fiber.Map{"error": "Invalid email or password"})
	}

	token, err := utils.GenerateTokenWithTTL(strconv.FormatInt(user.ID, 10), user.Role, h.jwtSecret, h.tokenTTL)
	if err != nil {
		return mapServiceError(c, "auth.login", err)
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user.Public(),
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, _, err := parseActor(c)
	if err != nil {
		return invalidToken(c)
	}

	user, err := h.users.GetByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return mapServiceError(c, "auth.me", err)
	}

	response := fiber.Map{"user": user.Public()}
	if user.Role == models.RoleCoach {
		coach, err := h.coaches.GetByUserID(c.Context(), userID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return mapServiceError(c, "auth.me", err)
		}
		if err == nil {
			response["coach"] = coach
		}
	}
	return c.JSON(response)
}
