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

type stubMembershipService struct {
	users            []models.PublicUser
	getUserErr       error
	updateUserResult *models.PublicUser
	updateUserErr    error
	coachRemoved     bool
	deleteUserErr    error
	coaches          []models.CoachDetail
	coachResult      *models.CoachDetail
	coachErr         error
	deleteCoachErr   error
	lastActorID      int64
	lastRole         string
	lastUserID       int64
	lastCoachID      int64
	lastUserUpdate   services.UpdateUserInput
	lastCoachInput   services.CoachInput
	lastCoachUpdate  services.UpdateCoachInput
}

func (s *stubMembershipService) ListUsers(_ context.Context) ([]models.PublicUser, error) {
	return s.users, nil
}

func (s *stubMembershipService) GetUser(_ context.Context, actorID int64, role string, userID int64) (*models.PublicUser, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastUserID = userID
	if s.getUserErr != nil {
		return nil, s.getUserErr
	}
	return &models.PublicUser{ID: userID}, nil
}

func (s *stubMembershipService) UpdateUser(_ context.Context, userID int64, input services.UpdateUserInput) (*models.PublicUser, error) {
	s.lastUserID = userID
	s.lastUserUpdate = input
	return s.updateUserResult, s.updateUserErr
}

func (s *stubMembershipService) DeleteUser(_ context.Context, userID int64) (bool, error) {
	s.lastUserID = userID
	return s.coachRemoved, s.deleteUserErr
}

func (s *stubMembershipService) ListCoaches(_ context.Context) ([]models.CoachDetail, error) {
	return s.coaches, nil
}

func (s *stubMembershipService) GetCoach(_ context.Context, coachID int64) (*models.CoachDetail, error) {
	s.lastCoachID = coachID
	return s.coachResult, s.coachErr
}

func (s *stubMembershipService) CreateCoach(_ context.Context, input services.CoachInput) (*models.CoachDetail, error) {
	s.lastCoachInput = input
	return s.coachResult, s.coachErr
}

func (s *stubMembershipService) UpdateCoach(_ context.Context, coachID int64, input services.UpdateCoachInput) (*models.CoachDetail, error) {
	s.lastCoachID = coachID
	s.lastCoachUpdate = input
	return s.coachResult, s.coachErr
}

func (s *stubMembershipService) DeleteCoach(_ context.Context, coachID int64) error {
	s.lastCoachID = coachID
	return s.deleteCoachErr
}

func TestGetUserForbidsOtherMember(t *testing.T) {
	service := &stubMembershipService{
		getUserErr: &services.DomainError{Kind: services.ErrForbidden, Message: "forbidden"},
	}
	handler := &UserHandler{service: service}

	app := newActorApp("user", "42")
	app.Get("/api/users/:id", handler.GetUser)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/users/43", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if service.lastActorID != 42 || service.lastUserID != 43 {
		t.Fatalf("unexpected call: actor=%d target=%d", service.lastActorID, service.lastUserID)
	}
}

func TestUpdateUserForwardsRoleChange(t *testing.T) {
	service := &stubMembershipService{
		updateUserResult: &models.PublicUser{ID: 5, Role: models.RoleCoach},
	}
	handler := &UserHandler{service: service}

	app := newActorApp("admin", "1")
	app.Put("/api/users/:id", handler.UpdateUser)

	req := httptest.NewRequest(http.MethodPut, "/api/users/5", strings.NewReader(`{"role": "coach"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastUserUpdate.Role == nil || *service.lastUserUpdate.Role != "coach" {
		t.Fatalf("expected role coach, got %+v", service.lastUserUpdate.Role)
	}
	if service.lastUserUpdate.Email != nil {
		t.Fatal("expected email to be left unset")
	}
}

func TestUpdateUserRejectsMalformedEmail(t *testing.T) {
	service := &stubMembershipService{}
	handler := &UserHandler{service: service}

	app := newActorApp("admin", "1")
	app.Put("/api/users/:id", handler.UpdateUser)

	req := httptest.NewRequest(http.MethodPut, "/api/users/5", strings.NewReader(`{"email": "not-an-email"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if service.lastUserID != 0 {
		t.Fatal("expected service not to be called")
	}
}

func TestUpdateUserReturnsConflictForTakenEmail(t *testing.T) {
	service := &stubMembershipService{
		updateUserErr: &services.DomainError{Kind: services.ErrConflict, Message: "email already exists"},
	}
	handler := &UserHandler{service: service}

	app := newActorApp("admin", "1")
	app.Put("/api/users/:id", handler.UpdateUser)

	req := httptest.NewRequest(http.MethodPut, "/api/users/5", strings.NewReader(`{"email": "taken@example.com"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestDeleteUserReportsCoachRemoval(t *testing.T) {
	service := &stubMembershipService{coachRemoved: true}
	handler := &UserHandler{service: service}

	app := newActorApp("admin", "1")
	app.Delete("/api/users/:id", handler.DeleteUser)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/users/9", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastUserID != 9 {
		t.Fatalf("expected user 9, got %d", service.lastUserID)
	}

	var body struct {
		Message      string `json:"message"`
		CoachRemoved bool   `json:"coach_removed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Message != "User deleted" || !body.CoachRemoved {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestDeleteUserReturnsNotFound(t *testing.T) {
	service := &stubMembershipService{
		deleteUserErr: &services.DomainError{Kind: services.ErrNotFound, Message: "user not found"},
	}
	handler := &UserHandler{service: service}

	app := newActorApp("admin", "1")
	app.Delete("/api/users/:id", handler.DeleteUser)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/users/9", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/users/abc", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", resp.StatusCode)
	}
}

func TestCreateCoachRequiresSpecialization(t *testing.T) {
	service := &stubMembershipService{}
	handler := &CoachHandler{service: service}

	app := newActorApp("admin", "1")
	app.Post("/api/coaches", handler.CreateCoach)

	req := httptest.NewRequest(http.MethodPost, "/api/coaches", strings.NewReader(`{"user_id": 5, "experience": 3}`))
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
	if body.Fields["specialization"] != "required" {
		t.Fatalf("expected specialization to be required, got %+v", body.Fields)
	}
}

func TestCreateCoachForwardsAvailability(t *testing.T) {
	service := &stubMembershipService{
		coachResult: &models.CoachDetail{Coach: models.Coach{ID: 3, UserID: 5}},
	}
	handler := &CoachHandler{service: service}

	app := newActorApp("admin", "1")
	app.Post("/api/coaches", handler.CreateCoach)

	req := httptest.NewRequest(http.MethodPost, "/api/coaches", strings.NewReader(`{
		"user_id": 5,
		"specialization": ["Yoga", "Pilates"],
		"experience": 5,
		"availability": [{"day": "Monday", "slots": ["09:00", "10:00"]}]
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
	input := service.lastCoachInput
	if input.UserID != 5 || input.Experience != 5 || len(input.Specialization) != 2 {
		t.Fatalf("unexpected coach input: %+v", input)
	}
	if len(input.Availability) != 1 || input.Availability[0].Day != "Monday" || len(input.Availability[0].Slots) != 2 {
		t.Fatalf("unexpected availability: %+v", input.Availability)
	}
}

func TestCreateCoachReturnsConflictForExistingProfile(t *testing.T) {
	service := &stubMembershipService{
		coachErr: &services.DomainError{Kind: services.ErrConflict, Message: "user already has a coach profile"},
	}
	handler := &CoachHandler{service: service}

	app := newActorApp("admin", "1")
	app.Post("/api/coaches", handler.CreateCoach)

	req := httptest.NewRequest(http.MethodPost, "/api/coaches", strings.NewReader(`{
		"user_id": 5,
		"specialization": ["Yoga"]
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestDeleteCoachReturnsNotFound(t *testing.T) {
	service := &stubMembershipService{
		deleteCoachErr: &services.DomainError{Kind: services.ErrNotFound, Message: "coach not found"},
	}
	handler := &CoachHandler{service: service}

	app := newActorApp("admin", "1")
	app.Delete("/api/coaches/:id", handler.DeleteCoach)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/coaches/8", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if service.lastCoachID != 8 {
		t.Fatalf("expected coach 8, got %d", service.lastCoachID)
	}
}
