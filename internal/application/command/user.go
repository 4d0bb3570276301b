package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ingvionio/fullstack/internal/application/uow"
	"github.com/ingvionio/fullstack/internal/domain/shared"
	"github.com/ingvionio/fullstack/internal/domain/user"
	"github.com/ingvionio/fullstack/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// CreateUserCommand contains the registration data.
type CreateUserCommand struct {
	Username  string
	Email     string
	Password  string
	AvatarURL *string
}

// UpdateUserCommand is a partial update. Nil fields are left unchanged.
type UpdateUserCommand struct {
	UserID    int64
	Username  *string
	Email     *string
	Password  *string
	AvatarURL *string
}

// UserHandler handles user writes.
type UserHandler struct {
	deps   Deps
	hasher PasswordHasher
	blobs  BlobStore
}

// NewUserHandler creates a UserHandler. blobs may be nil if avatar upload
// is not used.
func NewUserHandler(d Deps, hasher PasswordHasher, blobs BlobStore) *UserHandler {
	return &UserHandler{deps: d.withDefaults(), hasher: hasher, blobs: blobs}
}

// Create registers a user at level 1 with no experience.
func (h *UserHandler) Create(ctx context.Context, cmd CreateUserCommand) (*user.User, error) {
	if err := user.ValidatePassword(cmd.Password); err != nil {
		return nil, fmt.Errorf("create_user: %w", err)
	}
	hash, err := h.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("create_user: hash password: %w", err)
	}

	u, err := user.NewUser(user.NewUserParams{
		Username:     cmd.Username,
		Email:        cmd.Email,
		PasswordHash: hash,
		AvatarURL:    cmd.AvatarURL,
		CreatedAt:    h.deps.Engine.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("create_user: %w", err)
	}

	err = h.deps.run(ctx, "create_user", func(ctx context.Context, repos uow.Repositories, _ *uow.Outbox) error {
		taken, err := repos.Users.ExistsOther(ctx, 0, u.Username, u.Email)
		if err != nil {
			return err
		}
		if taken {
			return shared.ErrUserAlreadyExists
		}
		return repos.Users.Create(ctx, u)
	})
	if err != nil {
		return nil, err
	}

	h.deps.Logger.Info("user registered", logger.UserID(u.ID), logger.String("username", u.Username))
	return u, nil
}

// Update applies a partial profile update. A new avatar moves the previous
// one to the avatar history.
func (h *UserHandler) Update(ctx context.Context, cmd UpdateUserCommand) (*user.User, error) {
	var hash string
	if cmd.Password != nil {
		if err := user.ValidatePassword(*cmd.Password); err != nil {
			return nil, fmt.Errorf("update_user: %w", err)
		}
		var err error
		if hash, err = h.hasher.Hash(*cmd.Password); err != nil {
			return nil, fmt.Errorf("update_user: hash password: %w", err)
		}
	}

	var updated *user.User
	err := h.deps.run(ctx, "update_user", func(ctx context.Context, repos uow.Repositories, _ *uow.Outbox) error {
		u, err := repos.Users.GetByID(ctx, cmd.UserID)
		if err != nil {
			return err
		}

		var username, email string
		if cmd.Username != nil {
			username = strings.TrimSpace(*cmd.Username)
		}
		if cmd.Email != nil {
			email = strings.TrimSpace(*cmd.Email)
		}
		if username != "" || email != "" {
			taken, err := repos.Users.ExistsOther(ctx, u.ID, username, email)
			if err != nil {
				return err
			}
			if taken {
				return shared.ErrUserAlreadyExists
			}
		}

		if cmd.Username != nil {
			u.Username = username
		}
		if cmd.Email != nil {
			u.Email = email
		}
		if hash != "" {
			u.PasswordHash = hash
		}
		if cmd.AvatarURL != nil {
			u.SetAvatar(*cmd.AvatarURL)
		}
		if err := u.Validate(); err != nil {
			return err
		}

		u.UpdatedAt = h.deps.Engine.Now()
		if err := repos.Users.Update(ctx, u); err != nil {
			return fmt.Errorf("save user: %w", err)
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UploadAvatar stores the file and makes it the user's avatar.
func (h *UserHandler) UploadAvatar(ctx context.Context, userID int64, file Upload) (*user.User, error) {
	if h.blobs == nil {
		return nil, errors.New("upload_avatar: blob store is not configured")
	}

	var (
		updated *user.User
		url     string
	)
	err := h.deps.run(ctx, "upload_avatar", func(ctx context.Context, repos uow.Repositories, _ *uow.Outbox) error {
		u, err := repos.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if url == "" {
			if url, err = h.blobs.SaveAvatar(ctx, userID, file.Name, file.Body); err != nil {
				return fmt.Errorf("save avatar: %w", err)
			}
		}
		u.SetAvatar(url)
		u.UpdatedAt = h.deps.Engine.Now()
		if err := repos.Users.Update(ctx, u); err != nil {
			return fmt.Errorf("save user: %w", err)
		}
		updated = u
		return nil
	})
	if err != nil {
		if url != "" {
			if rerr := h.blobs.Remove(ctx, url); rerr != nil {
				h.deps.Logger.Warn("orphaned upload", logger.String("url", url), logger.Err(rerr))
			}
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a user with their points, marks and achievement progress,
// then recomputes the ratings of other points the user had marked.
func (h *UserHandler) Delete(ctx context.Context, userID int64) error {
	err := h.deps.run(ctx, "delete_user", func(ctx context.Context, repos uow.Repositories, out *uow.Outbox) error {
		if _, err := repos.Users.GetByID(ctx, userID); err != nil {
			return err
		}
		touched, err := repos.Marks.PointIDsByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("list marked points: %w", err)
		}
		if err := repos.Users.Delete(ctx, userID); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if err := recomputeRatings(ctx, repos, touched); err != nil {
			return err
		}
		out.Add(shared.NewUserDeletedEvent(userID, h.deps.Engine.Now()))
		return nil
	})
	if err != nil {
		return err
	}

	h.deps.Logger.Info("user deleted", logger.UserID(userID))
	return nil
}
