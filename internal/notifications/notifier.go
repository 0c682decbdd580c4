package notifications

import "context"

type PasswordResetInput struct {
	Email    string
	Name     string
	ResetURL string
}

// Notifier delivers account mail. Delivery failures must not leak whether
// an address is registered, so callers log rather than surface them.
type Notifier interface {
	SendPasswordReset(ctx context.Context, input PasswordResetInput) error
}
