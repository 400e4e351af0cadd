package repository

import (
	"context"

	"github.com/alaaeddinekamel/gym-management/internal/models"
	"github.com/jackc/pgx/v5"
)

const coachColumns = `c.id, c.user_id, c.specialization, c.experience, c.availability, c.created_at, c.updated_at`

const coachDetailColumns = coachColumns + `,
	u.id, u.name, u.email, u.role, u.membership_status, u.join_date`

type CreateCoachInput struct {
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

type CoachRepository struct {
	db DBTX
}

func NewCoachRepository(db DBTX) *CoachRepository {
	return &CoachRepository{db: db}
}

func scanCoach(row pgx.Row) (*models.Coach, error) {
	var coach models.Coach
	err := row.Scan(
		&coach.ID,
		&coach.UserID,
		&coach.Specialization,
		&coach.Experience,
		&coach.Availability,
		&coach.CreatedAt,
		&coach.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	normalizeCoach(&coach)
	return &coach, nil
}

func scanCoachDetail(row pgx.Row) (*models.CoachDetail, error) {
	var detail models.CoachDetail
	err := row.Scan(
		&detail.ID,
		&detail.UserID,
		&detail.Specialization,
		&detail.Experience,
		&detail.Availability,
		&detail.CreatedAt,
		&detail.UpdatedAt,
		&detail.User.ID,
		&detail.User.Name,
		&detail.User.Email,
		&detail.User.Role,
		&detail.User.MembershipStatus,
		&detail.User.JoinDate,
	)
	if err != nil {
		return nil, err
	}
	normalizeCoach(&detail.Coach)
	return &detail, nil
}

func normalizeCoach(coach *models.Coach) {
	if coach.Specialization == nil {
		coach.Specialization = []string{}
	}
	if coach.Availability == nil {
		coach.Availability = []models.AvailabilityDay{}
	}
}

func (r *CoachRepository) Create(ctx context.Context, input CreateCoachInput) (*models.Coach, error) {
	specialization := input.Specialization
	if specialization == nil {
		specialization = []string{}
	}
	availability := input.Availability
	if availability == nil {
		availability = []models.AvailabilityDay{}
	}

	query := `
		INSERT INTO coaches AS c (user_id, specialization, experience, availability)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + coachColumns
	return scanCoach(r.db.QueryRow(ctx, query,
		input.UserID,
		specialization,
		input.Experience,
		availability,
	))
}

func (r *CoachRepository) GetByID(ctx context.Context, id int64) (*models.Coach, error) {
	query := `SELECT ` + coachColumns + ` FROM coaches c WHERE c.id = $1`
	return scanCoach(r.db.QueryRow(ctx, query, id))
}

func (r *CoachRepository) GetByUserID(ctx context.Context, userID int64) (*models.Coach, error) {
	query := `SELECT ` + coachColumns + ` FROM coaches c WHERE c.user_id = $1`
	return scanCoach(r.db.QueryRow(ctx, query, userID))
}

func (r *CoachRepository) GetDetailByID(ctx context.Context, id int64) (*models.CoachDetail, error) {
	query := `
		SELECT ` + coachDetailColumns + `
		FROM coaches c
		JOIN users u ON u.id = c.user_id
		WHERE c.id = $1
	`
	return scanCoachDetail(r.db.QueryRow(ctx, query, id))
}

func (r *CoachRepository) ListDetails(ctx context.Context) ([]models.CoachDetail, error) {
	query := `
		SELECT ` + coachDetailColumns + `
		FROM coaches c
		JOIN users u ON u.id = c.user_id
		ORDER BY c.experience DESC, c.id ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	coaches := make([]models.CoachDetail, 0)
	for rows.Next() {
		detail, err := scanCoachDetail(rows)
		if err != nil {
			return nil, err
		}
		coaches = append(coaches, *detail)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return coaches, nil
}

func (r *CoachRepository) UpdatePartial(ctx context.Context, id int64, input UpdateCoachInput) (*models.Coach, error) {
	query := `
		UPDATE coaches AS c
		SET specialization = COALESCE($2, c.specialization),
			experience = COALESCE($3, c.experience),
			availability = COALESCE($4::jsonb, c.availability),
			updated_at = NOW()
		WHERE c.id = $1
		RETURNING ` + coachColumns
	return scanCoach(r.db.QueryRow(ctx, query,
		id,
		input.Specialization,
		input.Experience,
		input.Availability,
	))
}

// Delete removes a coach profile and returns the owning user id.
func (r *CoachRepository) Delete(ctx context.Context, id int64) (int64, error) {
	var userID int64
	err := r.db.QueryRow(ctx, `DELETE FROM coaches WHERE id = $1 RETURNING user_id`, id).Scan(&userID)
	if err != nil {
		return 0, err
	}
	return userID, nil
}

func (r *CoachRepository) DeleteByUserID(ctx context.Context, userID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM coaches WHERE user_id = $1`, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
