// Package seed loads demo fixtures into an empty or partially seeded database.
// Every step is skipped when its record already exists, so running it twice
// is harmless.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"os"
	"strings"

	"github.com/alaaeddinekamel/gym-management/internal/models"
	"github.com/alaaeddinekamel/gym-management/internal/services"
	"github.com/alaaeddinekamel/gym-management/pkg/utils"
	"github.com/jackc/pgx/v5"
	"gopkg.in/yaml.v3"
)

type UserFixture struct {
	Name             string `yaml:"name"`
	Email            string `yaml:"email"`
	Password         string `yaml:"password"`
	MembershipStatus string `yaml:"membership_status"`
}

type AvailabilityFixture struct {
	Day   string   `yaml:"day"`
	Slots []string `yaml:"slots"`
}

type CoachFixture struct {
	User           UserFixture           `yaml:"user"`
	Specialization []string              `yaml:"specialization"`
	Experience     int                   `yaml:"experience"`
	Availability   []AvailabilityFixture `yaml:"availability"`
}

type ProductFixture struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Price       float64 `yaml:"price"`
	Category    string  `yaml:"category"`
	Stock       int     `yaml:"stock"`
}

type Fixtures struct {
	Admin    *UserFixture     `yaml:"admin"`
	Members  []UserFixture    `yaml:"members"`
	Coaches  []CoachFixture   `yaml:"coaches"`
	Products []ProductFixture `yaml:"products"`
}

// Load reads and validates a fixtures file. Unknown keys are rejected.
func Load(path string) (*Fixtures, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Fixtures, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)

	var fixtures Fixtures
	if err := decoder.Decode(&fixtures); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	if err := fixtures.Validate(); err != nil {
		return nil, err
	}
	return &fixtures, nil
}

func (f *Fixtures) Validate() error {
	seen := make(map[string]struct{})
	checkUser := func(label string, user UserFixture) error {
		if strings.TrimSpace(user.Name) == "" {
			return fmt.Errorf("%s: name is required", label)
		}
		if _, err := mail.ParseAddress(user.Email); err != nil {
			return fmt.Errorf("%s: invalid email %q", label, user.Email)
		}
		if len(user.Password) < 8 {
			return fmt.Errorf("%s: password must be at least 8 characters", label)
		}
		if user.MembershipStatus != "" && !models.IsValidMembershipStatus(user.MembershipStatus) {
			return fmt.Errorf("%s: invalid membership status %q", label, user.MembershipStatus)
		}
		key := strings.ToLower(user.Email)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%s: duplicate email %q", label, user.Email)
		}
		seen[key] = struct{}{}
		return nil
	}

	if f.Admin != nil {
		if err := checkUser("admin", *f.Admin); err != nil {
			return err
		}
	}
	for i, member := range f.Members {
		if err := checkUser(fmt.Sprintf("members[%d]", i), member); err != nil {
			return err
		}
	}
	for i, coach := range f.Coaches {
		label := fmt.Sprintf("coaches[%d]", i)
		if err := checkUser(label+".user", coach.User); err != nil {
			return err
		}
		if len(coach.Specialization) == 0 {
			return fmt.Errorf("%s: specialization is required", label)
		}
		if err := services.ValidateAvailability(coach.availability()); err != nil {
			return fmt.Errorf("%s: %w", label, err)
		}
	}
	for i, product := range f.Products {
		label := fmt.Sprintf("products[%d]", i)
		if strings.TrimSpace(product.Name) == "" || strings.TrimSpace(product.Category) == "" {
			return fmt.Errorf("%s: name and category are required", label)
		}
		if product.Price < 0 || product.Stock < 0 {
			return fmt.Errorf("%s: price and stock must not be negative", label)
		}
	}
	return nil
}

func (c CoachFixture) availability() []models.AvailabilityDay {
	days := make([]models.AvailabilityDay, 0, len(c.Availability))
	for _, day := range c.Availability {
		days = append(days, models.AvailabilityDay{Day: day.Day, Slots: day.Slots})
	}
	return days
}

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}

type ProductStore interface {
	GetByName(ctx context.Context, name string) (*models.Product, error)
}

type CoachCreator interface {
	CreateCoach(ctx context.Context, input services.CoachInput) (*models.CoachDetail, error)
}

type ProductCreator interface {
	CreateProduct(ctx context.Context, input services.ProductInput) (*models.Product, error)
}

type Seeder struct {
	Users          UserStore
	Products       ProductStore
	Coaches        CoachCreator
	ProductCreator ProductCreator
	Logger         *log.Logger
}

// Report counts what a run inserted and what it found already present.
type Report struct {
	UsersCreated    int
	UsersSkipped    int
	CoachesCreated  int
	CoachesSkipped  int
	ProductsCreated int
	ProductsSkipped int
}

func (s *Seeder) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}

func (s *Seeder) Run(ctx context.Context, fixtures *Fixtures) (Report, error) {
	var report Report

	if fixtures.Admin != nil {
		if _, err := s.ensureUser(ctx, *fixtures.Admin, models.RoleAdmin, &report); err != nil {
			return report, fmt.Errorf("seed admin: %w", err)
		}
	}

	for _, member := range fixtures.Members {
		if _, err := s.ensureUser(ctx, member, models.RoleUser, &report); err != nil {
			return report, fmt.Errorf("seed member %s: %w", member.Email, err)
		}
	}

	for _, coach := range fixtures.Coaches {
		user, err := s.ensureUser(ctx, coach.User, models.RoleUser, &report)
		if err != nil {
			return report, fmt.Errorf("seed coach user %s: %w", coach.User.Email, err)
		}
		_, err = s.Coaches.CreateCoach(ctx, services.CoachInput{
			UserID:         user.ID,
			Specialization: coach.Specialization,
			Experience:     coach.Experience,
			Availability:   coach.availability(),
		})
		switch {
		case err == nil:
			report.CoachesCreated++
			s.logf("created coach profile for %s", user.Email)
		case errors.Is(err, services.ErrConflict):
			report.CoachesSkipped++
		default:
			return report, fmt.Errorf("seed coach %s: %w", coach.User.Email, err)
		}
	}

	for _, product := range fixtures.Products {
		_, err := s.Products.GetByName(ctx, product.Name)
		if err == nil {
			report.ProductsSkipped++
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return report, fmt.Errorf("look up product %q: %w", product.Name, err)
		}
		if _, err := s.ProductCreator.CreateProduct(ctx, services.ProductInput{
			Name:        product.Name,
			Description: product.Description,
			Price:       product.Price,
			Category:    product.Category,
			Stock:       product.Stock,
		}); err != nil {
			return report, fmt.Errorf("seed product %q: %w", product.Name, err)
		}
		report.ProductsCreated++
		s.logf("created product %q", product.Name)
	}

	return report, nil
}

func (s *Seeder) ensureUser(ctx context.Context, fixture UserFixture, role string, report *Report) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(fixture.Email))
	existing, err := s.Users.GetByEmail(ctx, email)
	if err == nil {
		report.UsersSkipped++
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := utils.HashPassword(fixture.Password)
	if err != nil {
		return nil, err
	}
	status := fixture.MembershipStatus
	if status == "" {
		status = models.MembershipActive
	}

	user := &models.User{
		Name:             strings.TrimSpace(fixture.Name),
		Email:            email,
		PasswordHash:     hash,
		Role:             role,
		MembershipStatus: status,
	}
	if err := s.Users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	report.UsersCreated++
	s.logf("created %s %s", role, email)
	return user, nil
}
