package main

import (
	"context"
	"log"
	"os"

	"github.com/alaaeddinekamel/gym-management/internal/config"
	"github.com/alaaeddinekamel/gym-management/internal/database"
	"github.com/alaaeddinekamel/gym-management/internal/repository"
	"github.com/alaaeddinekamel/gym-management/internal/seed"
	"github.com/alaaeddinekamel/gym-management/internal/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.DBUrl == "" {
		log.Fatal("DB_URL is required")
	}

	path := cfg.SeedFile
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	fixtures, err := seed.Load(path)
	if err != nil {
		log.Fatalf("Failed to load fixtures: %v", err)
	}

	if cfg.DefaultAdminEmail != "" && cfg.DefaultAdminPassword != "" {
		fixtures.Admin = &seed.UserFixture{
			Name:     cfg.DefaultAdminName,
			Email:    cfg.DefaultAdminEmail,
			Password: cfg.DefaultAdminPassword,
		}
		if err := fixtures.Validate(); err != nil {
			log.Fatalf("Invalid default admin: %v", err)
		}
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, cfg.DBUrl)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	coachRepo := repository.NewCoachRepository(pool)
	productRepo := repository.NewProductRepository(pool)

	seeder := &seed.Seeder{
		Users:          userRepo,
		Products:       productRepo,
		Coaches:        services.NewMembershipService(pool, userRepo, coachRepo),
		ProductCreator: services.NewCatalogService(productRepo, nil, nil),
		Logger:         log.Default(),
	}

	report, err := seeder.Run(ctx, fixtures)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf(
		"Seed complete: users %d created/%d existing, coaches %d/%d, products %d/%d",
		report.UsersCreated, report.UsersSkipped,
		report.CoachesCreated, report.CoachesSkipped,
		report.ProductsCreated, report.ProductsSkipped,
	)
}
