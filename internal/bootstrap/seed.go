package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/JovenGabriel/users-api/internal/config"
	"github.com/JovenGabriel/users-api/internal/domain"
	"github.com/JovenGabriel/users-api/internal/password"
	"github.com/JovenGabriel/users-api/internal/repository"
)

// EnsureAdmin creates the default admin user for dev/e2e if missing. It is a
// no-op when ADMIN_PASSWORD is not configured.
func EnsureAdmin(lc fx.Lifecycle, cfg config.Config, users repository.UserRepository, node *snowflake.Node, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return ensureAdmin(ctx, cfg, users, node, logger)
		},
	})
}

func ensureAdmin(ctx context.Context, cfg config.Config, users repository.UserRepository, node *snowflake.Node, logger *zap.Logger) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || strings.TrimSpace(cfg.AdminPassword) == "" {
		return nil
	}

	if _, err := users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("seed lookup admin: %w", err)
	}

	hashed, err := password.Hash(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("seed hash password: %w", err)
	}

	admin := domain.User{
		ID:           node.Generate().Int64(),
		Name:         "Admin",
		Email:        email,
		PasswordHash: hashed,
		IsActive:     true,
	}

	created, err := users.Create(ctx, admin)
	if err != nil {
		// Another replica may have seeded concurrently.
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil
		}
		return fmt.Errorf("seed create admin: %w", err)
	}

	if logger != nil {
		logger.Info("seed admin user created",
			zap.String("email", created.Email),
			zap.Int64("user_id", created.ID),
		)
	}
	return nil
}
