package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alaaeddinekamel/gym-management/internal/models"
	"github.com/alaaeddinekamel/gym-management/pkg/utils"
	"github.com/jackc/pgx/v5"
)

type stubAuthUserStore struct {
	byEmail   map[string]*models.User
	byID      map[int64]*models.User
	nextID    int64
	created   *models.User
	createErr error
}

func newStubAuthUserStore() *stubAuthUserStore {
	return &stubAuthUserStore{
		byEmail: make(map[string]*models.User),
		byID:    make(map[int64]*models.User),
		nextID:  100,
	}
}

func (s *stubAuthUserStore) add(user *models.User) {
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
}

func (s *stubAuthUserStore) CreateUser(_ context.Context, user *models.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	user.ID = s.nextID
	s.nextID++
	s.created = user
	s.add(user)
	return nil
}

func (s *stubAuthUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (s *stubAuthUserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

type stubCoachProfileReader struct {
	coach *models.Coach
}

func (s *stubCoachProfileReader) GetByUserID(_ context.Context, userID int64) (*models.Coach, error) {
	if s.coach == nil || s.coach.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	return s.coach, nil
}

type authResponse struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

func TestRegisterCreatesActiveMemberAndIssuesToken(t *testing.T) {
	store := newStubAuthUserStore()
	handler := NewAuthHandler(store, &stubCoachProfileReader{}, "secret", time.Hour)

	app := newActorApp("", "")
	app.Post("/api/auth/register", handler.Register)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{
		"name": " Jane Doe ",
		"email": "Jane@Example.com",
		"password": "supersecret",
		"role": "admin"
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
	if store.created == nil {
		t.Fatal("expected user to be created")
	}
	if store.created.Role != models.RoleUser {
		t.Fatalf("expected role user, got %q", store.created.Role)
	}
	if store.created.MembershipStatus != models.MembershipActive {
		t.Fatalf("expected active membership, got %q", store.created.MembershipStatus)
	}
	if store.created.Email != "jane@example.com" || store.created.Name != "Jane Doe" {
		t.Fatalf("expected normalized name and email, got %q %q", store.created.Name, store.created.Email)
	}
	if !utils.CheckPassword("supersecret", store.created.PasswordHash) {
		t.Fatal("expected stored password to be a hash of the input")
	}

	var body authResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := utils.ValidateToken(body.Token, "secret")
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "100" || claims.Role != models.RoleUser {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	store := newStubAuthUserStore()
	store.add(&models.User{ID: 1, Email: "jane@example.com", Role: models.RoleUser})
	handler := NewAuthHandler(store, &stubCoachProfileReader{}, "secret", time.Hour)

	app := newActorApp("", "")
	app.Post("/api/auth/register", handler.Register)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{
		"name": "Jane",
		"email": "jane@example.com",
		"password": "supersecret"
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

func TestRegisterRejectsShortPassword(t *testing.T) {
	store := newStubAuthUserStore()
	handler := NewAuthHandler(store, &stubCoachProfileReader{}, "secret", time.Hour)

	app := newActorApp("", "")
	app.Post("/api/auth/register", handler.Register)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{
		"name": "Jane",
		"email": "jane@example.com",
		"password": "short"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if store.created != nil {
		t.Fatal("expected no user to be created")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	hash, err := utils.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	store := newStubAuthUserStore()
	store.add(&models.User{ID: 7, Email: "sam@example.com", PasswordHash: hash, Role: models.RoleUser})
	handler := NewAuthHandler(store, &stubCoachProfileReader{}, "secret", time.Hour)

	app := newActorApp("", "")
	app.Post("/api/auth/login", handler.Login)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{
		"email": "sam@example.com",
		"password": "battery-staple"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestLoginIssuesTokenWithRole(t *testing.T) {
	hash, err := utils.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	store := newStubAuthUserStore()
	store.add(&models.User{ID: 7, Email: "sam@example.com", PasswordHash: hash, Role: models.RoleCoach})
	handler := NewAuthHandler(store, &stubCoachProfileReader{}, "secret", time.Hour)

	app := newActorApp("", "")
	app.Post("/api/auth/login", handler.Login)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{
		"email": "SAM@example.com",
		"password": "correct-horse"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body authResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := utils.ValidateToken(body.Token, "secret")
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "7" || claims.Role != models.RoleCoach {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestMeIncludesCoachProfileForCoach(t *testing.T) {
	store := newStubAuthUserStore()
	store.add(&models.User{ID: 9, Email: "sarah@example.com", Name: "Sarah Johnson", Role: models.RoleCoach})
	coaches := &stubCoachProfileReader{coach: &models.Coach{ID: 3, UserID: 9, Experience: 5}}
	handler := NewAuthHandler(store, coaches, "secret", time.Hour)

	app := newActorApp("coach", "9")
	app.Get("/api/auth/me", handler.Me)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		User  models.PublicUser `json:"user"`
		Coach *models.Coach     `json:"coach"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.User.ID != 9 {
		t.Fatalf("expected user 9, got %d", body.User.ID)
	}
	if body.Coach == nil || body.Coach.ID != 3 {
		t.Fatalf("expected coach profile 3, got %+v", body.Coach)
	}
}

func TestMeRejectsMissingActor(t *testing.T) {
	handler := NewAuthHandler(newStubAuthUserStore(), &stubCoachProfileReader{}, "secret", time.Hour)

	app := newActorApp("user", "not-a-number")
	app.Get("/api/auth/me", handler.Me)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
