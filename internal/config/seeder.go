package config

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/adapters/persistence/repositories"
	"libraryhub/internal/core/domain"
	"libraryhub/internal/pkg/logger"
	"libraryhub/internal/pkg/password"
)

// Seeder handles database seeding
type Seeder struct {
	repos *repositories.Set
	cfg   SeedConfig
}

// NewSeeder creates a new seeder instance
func NewSeeder(repos *repositories.Set, cfg SeedConfig) *Seeder {
	return &Seeder{repos: repos, cfg: cfg}
}

// Run executes all seeders. Individual failures are logged, not fatal.
func (s *Seeder) Run(ctx context.Context) error {
	log := logger.GetLogger(ctx)
	log.Info("🌱 Running database seeders...")

	if err := s.seedAdminUser(ctx); err != nil {
		log.WithError(err).Warn("⚠️ Admin seeder skipped")
	}
	if err := s.seedGenres(ctx); err != nil {
		log.WithError(err).Warn("⚠️ Genre seeder skipped")
	}

	log.Info("✅ Database seeding completed")
	return nil
}

// seedAdminUser creates the first admin when none exists. Without
// ADMIN_PASSWORD a random one is generated and logged once.
func (s *Seeder) seedAdminUser(ctx context.Context) error {
	counts, err := s.repos.Users.CountByRole(ctx)
	if err != nil {
		return err
	}
	if counts[string(domain.RoleAdmin)] > 0 {
		return nil
	}

	plain := s.cfg.AdminPassword
	generated := plain == ""
	if generated {
		if plain, err = password.GenerateRandom(8); err != nil {
			return err
		}
	}

	hashed, err := password.Hash(plain)
	if err != nil {
		return err
	}

	admin := &models.User{
		Name:     s.cfg.AdminName,
		Email:    s.cfg.AdminEmail,
		Password: hashed,
		Role:     string(domain.RoleAdmin),
		IsActive: true,
	}
	if err := s.repos.Users.Create(ctx, admin); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}

	log := logger.GetLogger(ctx).WithField("email", admin.Email)
	if generated {
		log.WithField("password", plain).Warn("🔑 Admin user created with generated password, change it after first login")
	} else {
		log.Info("✅ Admin user created")
	}
	return nil
}

var defaultGenres = []models.Genre{
	{Name: "Fiction", Description: "Novels and short stories"},
	{Name: "Non-fiction", Description: "Essays, biographies and reportage"},
	{Name: "Science", Description: "Natural and formal sciences"},
	{Name: "History", Description: "History and historical studies"},
	{Name: "Children", Description: "Books for young readers"},
}

func (s *Seeder) seedGenres(ctx context.Context) error {
	existing, err := s.repos.Genres.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for _, g := range defaultGenres {
		genre := g
		if err := s.repos.Genres.Create(ctx, &genre); err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}

	logger.GetLogger(ctx).Infof("✅ Seeded %d genres", len(defaultGenres))
	return nil
}
