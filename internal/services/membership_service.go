package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/alaaeddinekamel/gym-management/internal/models"
	"github.com/alaaeddinekamel/gym-management/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MembershipService administers users and coach profiles and keeps a user's
// coach role in step with the existence of their coach profile.
type MembershipService struct {
	db        *pgxpool.Pool
	userRepo  *repository.UserRepository
	coachRepo *repository.CoachRepository
}

func NewMembershipService(
	db *pgxpool.Pool,
	userRepo *repository.UserRepository,
	coachRepo *repository.CoachRepository,
) *MembershipService {
	return &MembershipService{db: db, userRepo: userRepo, coachRepo: coachRepo}
}

var weekdays = map[string]struct{}{
	"Monday": {}, "Tuesday": {}, "Wednesday": {}, "Thursday": {},
	"Friday": {}, "Saturday": {}, "Sunday": {},
}

type UpdateUserInput struct {
	Name             *string
	Email            *string
	Role             *string
	MembershipStatus *string
}

type CoachInput struct {
	UserID         int64
	Specialization []string
	Experience     int
	Availability   []models.AvailabilityDay
}

type UpdateCoachInput struct {
	Specialization *[]string
	Experience     *int
	Availability   *[]models.AvailabilityDay
}

func (s *MembershipService) ListUsers(ctx context.Context) ([]models.PublicUser, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, storageError("list users", err)
	}
	public := make([]models.PublicUser, 0, len(users))
	for _, user := range users {
		public = append(public, user.Public())
	}
	return public, nil
}

func (s *MembershipService) GetUser(ctx context.Context, actorID int64, role string, userID int64) (*models.PublicUser, error) {
	if role != models.RoleAdmin && actorID != userID {
		return nil, forbiddenError("forbidden")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundError("user not found")
		}
		return nil, storageError("load user", err)
	}
	public := user.Public()
	return &public, nil
}

func normalizeUserInput(input UpdateUserInput) (repository.UpdateUserInput, error) {
	out := repository.UpdateUserInput{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return out, validationError("name must not be empty")
		}
		out.Name = &name
	}
	if input.Email != nil {
		parsed, err := mail.ParseAddress(strings.TrimSpace(*input.Email))
		if err != nil {
			return out, validationError("invalid email format")
		}
		email := strings.ToLower(parsed.Address)
		out.Email = &email
	}
	if input.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*input.Role))
		if !models.IsValidRole(role) {
			return out, validationError("invalid role %q", *input.Role)
		}
		out.Role = &role
	}
	if input.MembershipStatus != nil {
		status := strings.ToLower(strings.TrimSpace(*input.MembershipStatus))
		if !models.IsValidMembershipStatus(status) {
			return out, validationError("invalid membership status %q", *input.MembershipStatus)
		}
		out.MembershipStatus = &status
	}
	return out, nil
}

// UpdateUser applies a partial update. Leaving the coach role deletes the
// coach profile; entering it creates an empty one.
func (s *MembershipService) UpdateUser(ctx context.Context, userID int64, input UpdateUserInput) (*models.PublicUser, error) {
	update, err := normalizeUserInput(input)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, storageError("begin user update", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txUserRepo := repository.NewUserRepository(tx)
	txCoachRepo := repository.NewCoachRepository(tx)

	current, err := txUserRepo.GetByIDForUpdate(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundError("user not found")
		}
		return nil, storageError("load user", err)
	}

	if update.Role != nil && *update.Role != current.Role {
		switch {
		case current.Role == models.RoleCoach:
			if _, err := txCoachRepo.DeleteByUserID(ctx, userID); err != nil {
				return nil, storageError("delete coach profile", err)
			}
		case *update.Role == models.RoleCoach:
			_, err := txCoachRepo.GetByUserID(ctx, userID)
			if errors.Is(err, pgx.ErrNoRows) {
				_, err = txCoachRepo.Create(ctx, repository.CreateCoachInput{UserID: userID})
			}
			if err != nil {
				return nil, storageError("create coach profile", err)
			}
		}
	}

	updated, err := txUserRepo.UpdatePartial(ctx, userID, update)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, conflictError("email already exists")
		}
		return nil, storageError("update user", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageError("commit user update", err)
	}

	public := updated.Public()
	return &public, nil
}

// DeleteUser removes the user together with any coach profile they own. It
// reports whether a coach profile was removed.
func (s *MembershipService) DeleteUser(ctx context.Context, userID int64) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, storageError("begin user delete", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txUserRepo := repository.NewUserRepository(tx)
	txCoachRepo := repository.NewCoachRepository(tx)

	if _, err := txUserRepo.GetByIDForUpdate(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, notFoundError("user not found")
		}
		return false, storageError("load user", err)
	}

	coachRemoved, err := txCoachRepo.DeleteByUserID(ctx, userID)
	if err != nil {
		return false, storageError("delete coach profile", err)
	}
	if err := txUserRepo.Delete(ctx, userID); err != nil {
		return false, storageError("delete user", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, storageError("commit user delete", err)
	}
	return coachRemoved, nil
}

func (s *MembershipService) ListCoaches(ctx context.Context) ([]models.CoachDetail, error) {
	coaches, err := s.coachRepo.ListDetails(ctx)
	if err != nil {
		return nil, storageError("list coaches", err)
	}
	return coaches, nil
}

func (s *MembershipService) GetCoach(ctx context.Context, coachID int64) (*models.CoachDetail, error) {
	coach, err := s.coachRepo.GetDetailByID(ctx, coachID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundError("coach not found")
		}
		return nil, storageError("load coach", err)
	}
	return coach, nil
}

func validateSpecialization(values []string) ([]string, error) {
	cleaned := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			return nil, validationError("specialization entries must not be empty")
		}
		cleaned = append(cleaned, value)
	}
	return cleaned, nil
}

// ValidateAvailability checks day names. Slot labels are kept verbatim.
func ValidateAvailability(days []models.AvailabilityDay) error {
	for i, day := range days {
		if _, ok := weekdays[day.Day]; !ok {
			return validationError("availability[%d]: unknown day %q", i, day.Day)
		}
		for j, slot := range day.Slots {
			if strings.TrimSpace(slot) == "" {
				return validationError("availability[%d].slots[%d]: slot must not be empty", i, j)
			}
		}
	}
	return nil
}

// CreateCoach creates the profile and promotes its owner to the coach role
// in one transaction.
func (s *MembershipService) CreateCoach(ctx context.Context, input CoachInput) (*models.CoachDetail, error) {
	if input.UserID <= 0 {
		return nil, validationError("user_id is required")
	}
	if input.Experience < 0 {
		return nil, validationError("experience must not be negative")
	}
	specialization, err := validateSpecialization(input.Specialization)
	if err != nil {
		return nil, err
	}
	if len(specialization) == 0 {
		return nil, validationError("specialization is required")
	}
	if err := ValidateAvailability(input.Availability); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, storageError("begin coach create", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txUserRepo := repository.NewUserRepository(tx)
	txCoachRepo := repository.NewCoachRepository(tx)

	user, err := txUserRepo.GetByIDForUpdate(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundError("user not found")
		}
		return nil, storageError("load user", err)
	}
	if user.MembershipStatus != models.MembershipActive {
		return nil, validationError("user membership is not active")
	}

	if _, err := txCoachRepo.GetByUserID(ctx, user.ID); err == nil {
		return nil, conflictError("user already has a coach profile")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, storageError("load coach profile", err)
	}

	coach, err := txCoachRepo.Create(ctx, repository.CreateCoachInput{
		UserID:         user.ID,
		Specialization: specialization,
		Experience:     input.Experience,
		Availability:   input.Availability,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, conflictError("user already has a coach profile")
		}
		return nil, storageError("create coach profile", err)
	}

	if user.Role != models.RoleCoach {
		if _, err := txUserRepo.UpdateRole(ctx, user.ID, models.RoleCoach); err != nil {
			return nil, storageError("promote user", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageError("commit coach create", err)
	}
	return s.GetCoach(ctx, coach.ID)
}

func (s *MembershipService) UpdateCoach(ctx context.Context, coachID int64, input UpdateCoachInput) (*models.CoachDetail, error) {
	update := repository.UpdateCoachInput{
		Experience:   input.Experience,
		Availability: input.Availability,
	}
	if input.Experience != nil && *input.Experience < 0 {
		return nil, validationError("experience must not be negative")
	}
	if input.Specialization != nil {
		specialization, err := validateSpecialization(*input.Specialization)
		if err != nil {
			return nil, err
		}
		if len(specialization) == 0 {
			return nil, validationError("specialization is required")
		}
		update.Specialization = &specialization
	}
	if input.Availability != nil {
		if err := ValidateAvailability(*input.Availability); err != nil {
			return nil, err
		}
	}

	if _, err := s.coachRepo.UpdatePartial(ctx, coachID, update); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundError("coach not found")
		}
		return nil, storageError("update coach", err)
	}
	return s.GetCoach(ctx, coachID)
}

// DeleteCoach removes the profile and returns its owner to the user role.
func (s *MembershipService) DeleteCoach(ctx context.Context, coachID int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return storageError("begin coach delete", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txUserRepo := repository.NewUserRepository(tx)
	txCoachRepo := repository.NewCoachRepository(tx)

	coach, err := txCoachRepo.GetByID(ctx, coachID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFoundError("coach not found")
		}
		return storageError("load coach", err)
	}

	// Lock the owner before touching coaches, the same order UpdateUser and
	// DeleteUser use.
	owner, err := txUserRepo.GetByIDForUpdate(ctx, coach.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFoundError("coach not found")
		}
		return storageError("load coach owner", err)
	}

	if _, err := txCoachRepo.Delete(ctx, coachID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFoundError("coach not found")
		}
		return storageError("delete coach", err)
	}

	if owner.Role == models.RoleCoach {
		if _, err := txUserRepo.UpdateRole(ctx, owner.ID, models.RoleUser); err != nil {
			return storageError("demote user", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storageError("commit coach delete", err)
	}
	return nil
}
