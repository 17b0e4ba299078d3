package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"libraryhub/internal/adapters/persistence/memory"
	"libraryhub/internal/config"
	"libraryhub/internal/pkg/password"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_MODE", "dev")
	t.Setenv("DB_DRIVER", "memory")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDev())
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 14, cfg.Library.LoanDays)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "*", cfg.GetAllowedOrigins())
	assert.Empty(t, cfg.Queue.RedisAddr)
}

func TestLoadPostgresUsesPrefixedVariables(t *testing.T) {
	t.Setenv("APP_MODE", "prod")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("PROD_DB_HOST", "db.internal")
	t.Setenv("PROD_JWT_SECRET", "s1")
	t.Setenv("PROD_JWT_REFRESH_SECRET", "s2")
	t.Setenv("LOAN_DAYS", "21")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, 21, cfg.Library.LoanDays)
}

func TestLoadTrustedProxies(t *testing.T) {
	t.Setenv("APP_MODE", "dev")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("TRUSTED_PROXIES", " 10.0.0.1, ,10.0.0.0/8 ")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.0/8"}, cfg.TrustedProxies)
}

func TestLoadRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown mode", env: map[string]string{"APP_MODE": "staging"}},
		{name: "unknown driver", env: map[string]string{"APP_MODE": "dev", "DB_DRIVER": "oracle"}},
		{name: "default secrets in prod", env: map[string]string{"APP_MODE": "prod", "DB_DRIVER": "mysql"}},
		{name: "zero loan days", env: map[string]string{"APP_MODE": "dev", "DB_DRIVER": "mysql", "LOAN_DAYS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestSeederCreatesAdminOnce(t *testing.T) {
	password.SetCost(bcrypt.MinCost)
	t.Cleanup(func() { password.SetCost(password.DefaultCost) })

	ctx := context.Background()
	repos := memory.NewSet()
	seed := config.SeedConfig{AdminName: "Root", AdminEmail: "root@library.local", AdminPassword: "supersecret"}

	require.NoError(t, config.NewSeeder(repos, seed).Run(ctx))
	require.NoError(t, config.NewSeeder(repos, seed).Run(ctx))

	counts, err := repos.Users.CountByRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts["ADMIN"])

	admin, err := repos.Users.GetByEmail(ctx, "root@library.local")
	require.NoError(t, err)
	assert.True(t, password.Verify("supersecret", admin.Password))

	genres, err := repos.Genres.List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, genres)
}
