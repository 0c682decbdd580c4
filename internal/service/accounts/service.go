// Package accounts owns user identity: registration, sign-in, password
// resets, profiles and the admin-side user management operations.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/geocoder89/todolist/internal/domain/user"
	"github.com/geocoder89/todolist/internal/notifications"
	"github.com/geocoder89/todolist/internal/observability"
	"github.com/geocoder89/todolist/internal/security"
	"github.com/google/uuid"
)

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
	ListByRole(ctx context.Context, role string) ([]user.User, error)
	UpdateProfile(ctx context.Context, id, firstName, lastName, email string) (user.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) error
}

type RoleStore interface {
	EnsureRole(ctx context.Context, name string) error
	AddToRole(ctx context.Context, userID, role string) error
}

type ResetStore interface {
	Create(ctx context.Context, row user.PasswordReset) error
	// Consume spends a live token and sets the user's password hash
	// atomically.
	Consume(ctx context.Context, userID, tokenHash, passwordHash string, now time.Time) (user.PasswordReset, error)
}

type TaskCounter interface {
	CountByUser(ctx context.Context, userID string) (int, error)
}

type Revoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
}

type Deps struct {
	Users    UserStore
	Roles    RoleStore
	Resets   ResetStore
	Tasks    TaskCounter
	Revoker  Revoker
	Notifier notifications.Notifier
	Log      *slog.Logger
	Prom     *observability.Prom

	// TokenSecret keys the hash under which reset tokens are stored.
	TokenSecret   []byte
	ResetTokenTTL time.Duration
	PublicBaseURL string
}

type Service struct {
	users    UserStore
	roles    RoleStore
	resets   ResetStore
	tasks    TaskCounter
	revoker  Revoker
	notifier notifications.Notifier
	log      *slog.Logger
	prom     *observability.Prom

	tokenSecret []byte
	resetTTL    time.Duration
	baseURL     string
	now         func() time.Time
}

func NewService(d Deps) *Service {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Notifier == nil {
		d.Notifier = notifications.NewLogNotifier(d.Log)
	}
	if d.ResetTokenTTL <= 0 {
		d.ResetTokenTTL = 24 * time.Hour
	}

	return &Service{
		users:       d.Users,
		roles:       d.Roles,
		resets:      d.Resets,
		tasks:       d.Tasks,
		revoker:     d.Revoker,
		notifier:    d.Notifier,
		log:         d.Log,
		prom:        d.Prom,
		tokenSecret: d.TokenSecret,
		resetTTL:    d.ResetTokenTTL,
		baseURL:     strings.TrimRight(d.PublicBaseURL, "/"),
		now:         time.Now,
	}
}

// Register creates a self-service account in the User role.
func (s *Service) Register(ctx context.Context, req user.RegisterRequest) (user.User, error) {
	u, err := s.createWithRole(ctx, req.Email, req.Password, req.FirstName, req.LastName, user.RoleUser)

	switch {
	case err == nil:
		s.prom.ObserveAuth("register", "ok")
	case errors.Is(err, user.ErrEmailTaken) || isPolicyError(err):
		s.prom.ObserveAuth("register", "rejected")
	default:
		s.prom.ObserveAuth("register", "error")
	}

	return u, err
}

// CreateUser is registration on behalf of an admin, who picks the role.
func (s *Service) CreateUser(ctx context.Context, req user.CreateUserRequest) (user.User, error) {
	role := req.Role
	if role != user.RoleAdmin && role != user.RoleUser {
		return user.User{}, fmt.Errorf("unknown role %q", role)
	}
	return s.createWithRole(ctx, req.Email, req.Password, req.FirstName, req.LastName, role)
}

func (s *Service) createWithRole(ctx context.Context, email, password, firstName, lastName, role string) (user.User, error) {
	if problems := security.PasswordProblems(password); len(problems) > 0 {
		return user.User{}, &PasswordPolicyError{Problems: problems}
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	email = strings.TrimSpace(email)

	u, err := s.users.Create(ctx, user.User{
		UserName:     email,
		Email:        email,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		PasswordHash: hash,
	})
	if err != nil {
		return user.User{}, err
	}

	if err := s.assignRole(ctx, u.ID, role); err != nil {
		// an account without a role can neither sign in usefully nor be
		// re-registered, so take it back out
		if delErr := s.users.Delete(ctx, u.ID); delErr != nil {
			s.log.ErrorContext(ctx, "rollback of roleless user failed", "user_id", u.ID, "err", delErr)
		}
		return user.User{}, err
	}

	u.Roles = []string{role}
	return u, nil
}

func (s *Service) assignRole(ctx context.Context, userID, role string) error {
	if err := s.roles.EnsureRole(ctx, role); err != nil {
		return fmt.Errorf("ensure role %s: %w", role, err)
	}
	if err := s.roles.AddToRole(ctx, userID, role); err != nil {
		return fmt.Errorf("add to role %s: %w", role, err)
	}
	return nil
}

// Authenticate does not distinguish unknown emails from wrong passwords.
func (s *Service) Authenticate(ctx context.Context, email, password string) (user.User, error) {
	u, err := s.authenticate(ctx, email, password)
	s.prom.ObserveAuth("login", authResult(err))
	return u, err
}

func (s *Service) AuthenticateAdmin(ctx context.Context, email, password string) (user.User, error) {
	u, err := s.authenticate(ctx, email, password)
	if err == nil && !u.HasRole(user.RoleAdmin) {
		err = ErrNotAdmin
	}
	s.prom.ObserveAuth("admin_login", authResult(err))

	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Service) authenticate(ctx context.Context, email, password string) (user.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrInvalidCredentials
		}
		return user.User{}, err
	}

	if err := security.CheckPassword(u.PasswordHash, password); err != nil {
		return user.User{}, ErrInvalidCredentials
	}

	return u, nil
}

// Logout revokes a token id until the token would have expired on its own.
func (s *Service) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.revoker == nil || jti == "" {
		return nil
	}
	return s.revoker.Revoke(ctx, jti, expiresAt)
}

// ForgotPassword issues a single-use reset token and hands the link to the
// notifier. The raw token is returned for callers that deliver it themselves.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	raw, err := security.NewOpaqueToken()
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}

	now := s.now().UTC()
	err = s.resets.Create(ctx, user.PasswordReset{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		TokenHash: security.HashToken(s.tokenSecret, raw),
		ExpiresAt: now.Add(s.resetTTL),
		CreatedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}

	in := notifications.PasswordResetInput{
		Email:    u.Email,
		Name:     u.FullName(),
		ResetURL: s.resetURL(u.Email, raw),
	}
	if err := s.notifier.SendPasswordReset(ctx, in); err != nil {
		s.log.WarnContext(ctx, "password reset notification failed", "user_id", u.ID, "err", err)
	}

	return raw, nil
}

func (s *Service) resetURL(email, token string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)
	return s.baseURL + "/Account/ResetPassword?" + q.Encode()
}

func (s *Service) ResetPassword(ctx context.Context, req user.ResetPasswordRequest) error {
	if problems := security.PasswordProblems(req.NewPassword); len(problems) > 0 {
		return &PasswordPolicyError{Problems: problems}
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	hash, err := security.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = s.resets.Consume(ctx, u.ID, security.HashToken(s.tokenSecret, req.Token), hash, s.now().UTC())
	return err
}

// SetPassword overwrites a user's password without the old one (admin only).
func (s *Service) SetPassword(ctx context.Context, userID, password string) error {
	if problems := security.PasswordProblems(password); len(problems) > 0 {
		return &PasswordPolicyError{Problems: problems}
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.users.UpdatePasswordHash(ctx, userID, hash)
}

func (s *Service) Profile(ctx context.Context, userID string) (user.Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return user.Profile{}, err
	}

	n, err := s.tasks.CountByUser(ctx, userID)
	if err != nil {
		return user.Profile{}, fmt.Errorf("count tasks: %w", err)
	}

	return user.Profile{
		ID:        u.ID,
		UserName:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		TaskCount: n,
	}, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, req user.UpdateProfileRequest) (user.User, error) {
	return s.users.UpdateProfile(ctx, userID,
		strings.TrimSpace(req.FirstName),
		strings.TrimSpace(req.LastName),
		strings.TrimSpace(req.Email),
	)
}

func (s *Service) List(ctx context.Context) ([]user.User, error) {
	return s.users.List(ctx)
}

func (s *Service) ListByRole(ctx context.Context, role string) ([]user.User, error) {
	return s.users.ListByRole(ctx, role)
}

func (s *Service) GetByID(ctx context.Context, id string) (user.User, error) {
	return s.users.GetByID(ctx, id)
}

// DeleteUser removes the account; tasks and role memberships go with it.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.users.Delete(ctx, id)
}

// DeleteUsers skips unknown ids and stops at the first store failure,
// returning how many were deleted before it.
func (s *Service) DeleteUsers(ctx context.Context, ids []string) (int, error) {
	n := 0
	for _, id := range ids {
		err := s.users.Delete(ctx, id)
		if errors.Is(err, user.ErrNotFound) {
			continue
		}
		if err != nil {
			return n, fmt.Errorf("delete user %s: %w", id, err)
		}
		n++
	}
	return n, nil
}

func isPolicyError(err error) bool {
	var pe *PasswordPolicyError
	return errors.As(err, &pe)
}

func authResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrNotAdmin):
		return "rejected"
	default:
		return "error"
	}
}
