package auth

import (
	"context"
	"fmt"

	"cineplex/internal/users"

	"github.com/google/uuid"
)

// UserDirectory resolves notification recipients from the users table
// without the notifications package importing users directly.
type UserDirectory struct {
	repo users.Repository
}

func NewUserDirectory(repo users.Repository) *UserDirectory {
	return &UserDirectory{repo: repo}
}

// Recipient returns the email address and display name for a user.
func (d *UserDirectory) Recipient(ctx context.Context, userID uuid.UUID) (email, name string, err error) {
	user, err := d.repo.GetByID(ctx, userID)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch user %s: %w", userID, err)
	}
	return user.Email, user.FullName(), nil
}
