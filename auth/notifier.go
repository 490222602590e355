package auth

import "context"

// Registration is the payload sent to the downstream registration service.
type Registration struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	AuthUserID string `json:"authUserId"`
}

// Notifier confirms a registration with a downstream service. A returned error
// rolls the registration back.
type Notifier interface {
	NotifyRegistration(ctx context.Context, r Registration) error
}
