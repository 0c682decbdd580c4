package accounts

import (
	"errors"
	"strings"

	"github.com/geocoder89/todolist/internal/domain/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotAdmin           = errors.New("account is not an administrator")
	ErrInvalidResetToken  = user.ErrResetTokenInvalid
)

// PasswordPolicyError lists every rule a proposed password broke.
type PasswordPolicyError struct {
	Problems []string
}

func (e *PasswordPolicyError) Error() string {
	return "password rejected: " + strings.Join(e.Problems, " ")
}
