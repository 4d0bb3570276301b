package command

import (
	"context"
	"time"

	"github.com/ingvionio/fullstack/internal/application/uow"
	"github.com/ingvionio/fullstack/internal/domain/shared"
	"github.com/ingvionio/fullstack/internal/domain/user"
	"github.com/ingvionio/fullstack/pkg/logger"
)

// SignInResult is an authenticated user with an access token.
type SignInResult struct {
	User        *user.User
	AccessToken string
	ExpiresAt   time.Time
}

// AuthHandler verifies credentials and issues tokens.
type AuthHandler struct {
	deps   Deps
	hasher PasswordHasher
	tokens TokenIssuer
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(d Deps, hasher PasswordHasher, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{deps: d.withDefaults(), hasher: hasher, tokens: tokens}
}

// SignIn finds the user by username or email and checks the password.
// Unknown logins and wrong passwords both return ErrInvalidCredential.
func (h *AuthHandler) SignIn(ctx context.Context, login, password string) (*SignInResult, error) {
	var u *user.User
	err := h.deps.UoW.DoReadOnly(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		u, err = repos.Users.GetByLogin(ctx, login)
		return err
	})
	switch {
	case shared.IsNotFound(err):
		return nil, shared.ErrInvalidCredential
	case err != nil:
		return nil, err
	}

	if err := h.hasher.Verify(u.PasswordHash, password); err != nil {
		h.deps.Logger.Info("sign in rejected", logger.UserID(u.ID))
		return nil, shared.ErrInvalidCredential
	}

	token, exp, err := h.tokens.Issue(u.ID, u.Username)
	if err != nil {
		return nil, err
	}
	return &SignInResult{User: u, AccessToken: token, ExpiresAt: exp}, nil
}
