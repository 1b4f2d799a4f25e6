package ports

import (
	"context"

	"github.com/Vovarama1992/voicecheck/internal/models"
)

type RegisterInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, *models.User, error)
	// CurrentUser returns nil, nil when the token is valid but the user is gone.
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}
