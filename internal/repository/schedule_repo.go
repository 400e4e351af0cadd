package repository

import (
	"context"
	"time"

	"github.com/alaaeddinekamel/gym-management/internal/models"
	"github.com/jackc/pgx/v5"
)

const scheduleColumns = `s.id, s.user_id, s.coach_id, s.date, s.time, s.type, s.status, s.created_at, s.updated_at`

const scheduleDetailQuery = `
	SELECT ` + scheduleColumns + `,
		   u.id, u.name, u.email, u.role, u.membership_status, u.join_date,
		   c.id, c.user_id, c.specialization, c.experience, c.availability, c.created_at, c.updated_at,
		   cu.id, cu.name, cu.email, cu.role, cu.membership_status, cu.join_date
	FROM schedules s
	JOIN users u ON u.id = s.user_id
	JOIN coaches c ON c.id = s.coach_id
	JOIN users cu ON cu.id = c.user_id
`

type CreateScheduleInput struct {
	UserID  int64
	CoachID int64
	Date    time.Time
	Time    string
	Type    string
}

type ScheduleListFilter struct {
	UserID  int64
	CoachID int64
}

type ScheduleRepository struct {
	db DBTX
}

func NewScheduleRepository(db DBTX) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func scanSchedule(row pgx.Row) (*models.Schedule, error) {
	var schedule models.Schedule
	err := row.Scan(
		&schedule.ID,
		&schedule.UserID,
		&schedule.CoachID,
		&schedule.Date,
		&schedule.Time,
		&schedule.Type,
		&schedule.Status,
		&schedule.CreatedAt,
		&schedule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func scanScheduleDetail(row pgx.Row) (*models.ScheduleDetail, error) {
	var detail models.ScheduleDetail
	err := row.Scan(
		&detail.ID,
		&detail.UserID,
		&detail.CoachID,
		&detail.Date,
		&detail.Time,
		&detail.Type,
		&detail.Status,
		&detail.CreatedAt,
		&detail.UpdatedAt,
		&detail.User.ID,
		&detail.User.Name,
		&detail.User.Email,
		&detail.User.Role,
		&detail.User.MembershipStatus,
		&detail.User.JoinDate,
		&detail.Coach.ID,
		&detail.Coach.UserID,
		&detail.Coach.Specialization,
		&detail.Coach.Experience,
		&detail.Coach.Availability,
		&detail.Coach.CreatedAt,
		&detail.Coach.UpdatedAt,
		&detail.Coach.User.ID,
		&detail.Coach.User.Name,
		&detail.Coach.User.Email,
		&detail.Coach.User.Role,
		&detail.Coach.User.MembershipStatus,
		&detail.Coach.User.JoinDate,
	)
	if err != nil {
		return nil, err
	}
	normalizeCoach(&detail.Coach.Coach)
	return &detail, nil
}

func (r *ScheduleRepository) Create(ctx context.Context, input CreateScheduleInput) (*models.Schedule, error) {
	query := `
		INSERT INTO schedules AS s (user_id, coach_id, date, time, type, status)
		VALUES ($1, $2, $3, $4, $5, 'scheduled')
		RETURNING ` + scheduleColumns
	return scanSchedule(r.db.QueryRow(ctx, query,
		input.UserID,
		input.CoachID,
		input.Date,
		input.Time,
		input.Type,
	))
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id int64) (*models.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules s WHERE s.id = $1`
	return scanSchedule(r.db.QueryRow(ctx, query, id))
}

func (r *ScheduleRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules s WHERE s.id = $1 FOR UPDATE`
	return scanSchedule(r.db.QueryRow(ctx, query, id))
}

func (r *ScheduleRepository) GetDetailByID(ctx context.Context, id int64) (*models.ScheduleDetail, error) {
	return scanScheduleDetail(r.db.QueryRow(ctx, scheduleDetailQuery+` WHERE s.id = $1`, id))
}

func (r *ScheduleRepository) List(ctx context.Context, filter ScheduleListFilter) ([]models.ScheduleDetail, error) {
	query := scheduleDetailQuery + `
		WHERE ($1::bigint = 0 OR s.user_id = $1)
		  AND ($2::bigint = 0 OR s.coach_id = $2)
		ORDER BY s.date ASC, s.time ASC, s.id ASC
	`
	rows, err := r.db.Query(ctx, query, filter.UserID, filter.CoachID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := make([]models.ScheduleDetail, 0)
	for rows.Next() {
		detail, err := scanScheduleDetail(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *detail)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *ScheduleRepository) ExistsScheduled(ctx context.Context, coachID int64, date time.Time, slot string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM schedules
			WHERE coach_id = $1
			  AND date = $2
			  AND time = $3
			  AND status = 'scheduled'
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, coachID, date, slot).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListBookedSlots returns the slot labels already held by scheduled
// bookings for the coach on date.
func (r *ScheduleRepository) ListBookedSlots(ctx context.Context, coachID int64, date time.Time) ([]string, error) {
	query := `
		SELECT time
		FROM schedules
		WHERE coach_id = $1 AND date = $2 AND status = 'scheduled'
		ORDER BY time ASC
	`
	rows, err := r.db.Query(ctx, query, coachID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]string, 0)
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *ScheduleRepository) UpdateStatus(ctx context.Context, id int64, status string) (*models.Schedule, error) {
	query := `
		UPDATE schedules AS s
		SET status = $2, updated_at = NOW()
		WHERE s.id = $1
		RETURNING ` + scheduleColumns
	return scanSchedule(r.db.QueryRow(ctx, query, id, status))
}
