package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/alaaeddinekamel/gym-management/internal/metrics"
	"github.com/alaaeddinekamel/gym-management/internal/models"
	"github.com/alaaeddinekamel/gym-management/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ScheduleService struct {
	db           *pgxpool.Pool
	scheduleRepo *repository.ScheduleRepository
	coachRepo    *repository.CoachRepository
	metrics      *metrics.AppMetrics
	now          func() time.Time
}

func NewScheduleService(
	db *pgxpool.Pool,
	scheduleRepo *repository.ScheduleRepository,
	coachRepo *repository.CoachRepository,
	appMetrics *metrics.AppMetrics,
) *ScheduleService {
	return &ScheduleService{
		db:           db,
		scheduleRepo: scheduleRepo,
		coachRepo:    coachRepo,
		metrics:      appMetrics,
		now:          time.Now,
	}
}

type BookSessionInput struct {
	CoachID int64
	Date    time.Time
	Time    string
	Type    string
}

type CoachAvailability struct {
	CoachID int64     `json:"coach_id"`
	Date    time.Time `json:"date"`
	Day     string    `json:"day"`
	Slots   []string  `json:"slots"`
	Booked  []string  `json:"booked"`
	Open    []string  `json:"open"`
}

func validateBookingInput(input BookSessionInput) error {
	missing := make([]string, 0, 4)
	if input.CoachID <= 0 {
		missing = append(missing, "coach_id")
	}
	if input.Date.IsZero() {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(input.Time) == "" {
		missing = append(missing, "time")
	}
	if strings.TrimSpace(input.Type) == "" {
		missing = append(missing, "type")
	}
	if len(missing) > 0 {
		return validationError("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// CalendarDate drops the clock and zone of t, keeping its calendar day.
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// BookSession runs every booking check inside one transaction that holds the
// coach's advisory lock, so two requests for the same coach serialize.
func (s *ScheduleService) BookSession(
	ctx context.Context,
	userID int64,
	input BookSessionInput,
) (*models.ScheduleDetail, error) {
	if err := validateBookingInput(input); err != nil {
		return nil, err
	}
	date := CalendarDate(input.Date)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, storageError("begin booking", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txScheduleRepo := repository.NewScheduleRepository(tx)
	txCoachRepo := repository.NewCoachRepository(tx)
	txUserRepo := repository.NewUserRepository(tx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", input.CoachID); err != nil {
		return nil, storageError("lock coach", err)
	}

	coach, err := txCoachRepo.GetByID(ctx, input.CoachID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundError("coach not found")
		}
		return nil, storageError("load coach", err)
	}

	user, err := txUserRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, forbiddenError("user not found")
		}
		return nil, storageError("load user", err)
	}
	if user.MembershipStatus != models.MembershipActive {
		return nil, forbiddenError("membership is not active")
	}

	if !IsBookable(coach, date, input.Time) {
		return nil, validationError("coach is not available on %s at %s", WeekdayName(date), input.Time)
	}

	taken, err := txScheduleRepo.ExistsScheduled(ctx, coach.ID, date, input.Time)
	if err != nil {
		return nil, storageError("check slot", err)
	}
	if taken {
		s.metrics.RecordBookingConflict(ctx)
		return nil, conflictError("time slot is already booked")
	}

	schedule, err := txScheduleRepo.Create(ctx, repository.CreateScheduleInput{
		UserID:  userID,
		CoachID: coach.ID,
		Date:    date,
		Time:    input.Time,
		Type:    strings.TrimSpace(input.Type),
	})
	if err != nil {
		if isUniqueViolation(err) {
			s.metrics.RecordBookingConflict(ctx)
			return nil, conflictError("time slot is already booked")
		}
		return nil, storageError("create schedule", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageError("commit booking", err)
	}
	s.metrics.RecordBooking(ctx, schedule.Type)

	return s.loadDetail(ctx, schedule.ID)
}

func (s *ScheduleService) ListAll(ctx context.Context) ([]models.ScheduleDetail, error) {
	schedules, err := s.scheduleRepo.List(ctx, repository.ScheduleListFilter{})
	if err != nil {
		return nil, storageError("list schedules", err)
	}
	return schedules, nil
}

// ListForActor returns the bookings a member made, or for a coach the
// bookings made with them.
func (s *ScheduleService) ListForActor(ctx context.Context, actorID int64, role string) ([]models.ScheduleDetail, error) {
	filter := repository.ScheduleListFilter{UserID: actorID}
	if role == models.RoleCoach {
		coach, err := s.coachRepo.GetByUserID(ctx, actorID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, storageError("load coach", err)
		}
		if err == nil {
			filter = repository.ScheduleListFilter{CoachID: coach.ID}
		}
	}

	schedules, err := s.scheduleRepo.List(ctx, filter)
	if err != nil {
		return nil, storageError("list schedules", err)
	}
	return schedules, nil
}

func (s *ScheduleService) GetSchedule(
	ctx context.Context,
	actorID int64,
	role string,
	scheduleID int64,
) (*models.ScheduleDetail, error) {
	detail, err := s.loadDetail(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if !canAccessSchedule(role, actorID, &detail.Schedule, detail.Coach.UserID) {
		return nil, forbiddenError("forbidden")
	}
	return detail, nil
}

func (s *ScheduleService) UpdateStatus(
	ctx context.Context,
	actorID int64,
	role string,
	scheduleID int64,
	requestedStatus string,
) (*models.ScheduleDetail, error) {
	nextStatus := requestedStatus
	if !models.IsValidScheduleStatus(nextStatus) {
		return nil, validationError("invalid status %q", requestedStatus)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, storageError("begin status update", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txScheduleRepo := repository.NewScheduleRepository(tx)
	txCoachRepo := repository.NewCoachRepository(tx)

	schedule, err := txScheduleRepo.GetByIDForUpdate(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundError("schedule not found")
		}
		return nil, storageError("load schedule", err)
	}

	var coachUserID int64
	if role == models.RoleCoach {
		coach, err := txCoachRepo.GetByID(ctx, schedule.CoachID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, storageError("load coach", err)
		}
		if err == nil {
			coachUserID = coach.UserID
		}
	}
	if !canAccessSchedule(role, actorID, schedule, coachUserID) {
		return nil, forbiddenError("forbidden")
	}

	if nextStatus == models.ScheduleStatusCancelled && IsPastSession(schedule.Date, s.now()) {
		return nil, conflictError("cannot cancel a past session")
	}

	if schedule.Status != nextStatus {
		if _, err := txScheduleRepo.UpdateStatus(ctx, schedule.ID, nextStatus); err != nil {
			if isUniqueViolation(err) {
				return nil, conflictError("time slot is already booked")
			}
			return nil, storageError("update schedule", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageError("commit status update", err)
	}

	return s.loadDetail(ctx, schedule.ID)
}

// CoachAvailability lists the coach's declared slots for the date and which
// of them are still open.
func (s *ScheduleService) CoachAvailability(ctx context.Context, coachID int64, date time.Time) (*CoachAvailability, error) {
	if date.IsZero() {
		return nil, validationError("date is required")
	}
	date = CalendarDate(date)

	coach, err := s.coachRepo.GetByID(ctx, coachID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundError("coach not found")
		}
		return nil, storageError("load coach", err)
	}

	booked, err := s.scheduleRepo.ListBookedSlots(ctx, coach.ID, date)
	if err != nil {
		return nil, storageError("list booked slots", err)
	}

	slots, _ := SlotsForDay(coach, date)
	if slots == nil {
		slots = []string{}
	}
	return &CoachAvailability{
		CoachID: coach.ID,
		Date:    date,
		Day:     WeekdayName(date),
		Slots:   slots,
		Booked:  booked,
		Open:    OpenSlots(coach, date, booked),
	}, nil
}

func (s *ScheduleService) loadDetail(ctx context.Context, scheduleID int64) (*models.ScheduleDetail, error) {
	detail, err := s.scheduleRepo.GetDetailByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundError("schedule not found")
		}
		return nil, storageError("load schedule", err)
	}
	return detail, nil
}

// IsPastSession reports whether the start of the session's calendar day,
// taken in UTC, is already behind now.
func IsPastSession(sessionDate time.Time, now time.Time) bool {
	return CalendarDate(sessionDate).Before(now)
}

func canAccessSchedule(role string, actorID int64, schedule *models.Schedule, coachUserID int64) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleCoach:
		return schedule.UserID == actorID || (coachUserID != 0 && coachUserID == actorID)
	default:
		return schedule.UserID == actorID
	}
}
