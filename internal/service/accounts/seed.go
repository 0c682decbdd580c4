package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/todolist/internal/domain/user"
	"github.com/geocoder89/todolist/internal/security"
)

type AdminSeed struct {
	UserName  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// SeedIdentity makes sure both roles and the configured admin exist.
// Safe to run on every boot.
func (s *Service) SeedIdentity(ctx context.Context, seed AdminSeed) error {
	for _, role := range user.Roles {
		if err := s.roles.EnsureRole(ctx, role); err != nil {
			return fmt.Errorf("ensure role %s: %w", role, err)
		}
	}

	if seed.Email == "" || seed.Password == "" {
		s.log.Info("admin seed skipped: email or password not set")
		return nil
	}

	existing, err := s.users.GetByEmail(ctx, seed.Email)
	if err == nil {
		if !existing.HasRole(user.RoleAdmin) {
			if err := s.roles.AddToRole(ctx, existing.ID, user.RoleAdmin); err != nil {
				return fmt.Errorf("promote seeded admin: %w", err)
			}
		}
		s.log.Info("admin seed: admin already exists", "email", seed.Email)
		return nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return fmt.Errorf("lookup seeded admin: %w", err)
	}

	hash, err := security.HashPassword(seed.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	userName := seed.UserName
	if userName == "" {
		userName = seed.Email
	}

	u, err := s.users.Create(ctx, user.User{
		UserName:       userName,
		Email:          seed.Email,
		FirstName:      seed.FirstName,
		LastName:       seed.LastName,
		PasswordHash:   hash,
		EmailConfirmed: true,
	})
	if err != nil {
		return fmt.Errorf("create seeded admin: %w", err)
	}

	if err := s.roles.AddToRole(ctx, u.ID, user.RoleAdmin); err != nil {
		return fmt.Errorf("add seeded admin to role: %w", err)
	}

	s.log.Info("admin seed: admin created", "email", seed.Email, "user_id", u.ID)
	return nil
}
