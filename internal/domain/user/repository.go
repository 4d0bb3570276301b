package user

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранилища пользователей.
type Repository interface {
	// Create сохраняет нового пользователя и заполняет ID.
	// Возвращает ErrUserAlreadyExists при конфликте username или email.
	Create(ctx context.Context, u *User) error

	// GetByID возвращает пользователя по ID.
	// Возвращает ErrUserNotFound, если пользователь не найден.
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByLogin ищет пользователя по username или email.
	GetByLogin(ctx context.Context, login string) (*User, error)

	// ExistsOther сообщает, занят ли username или email другим пользователем.
	// Пустые значения не проверяются.
	ExistsOther(ctx context.Context, excludeID int64, username, email string) (bool, error)

	// List возвращает пользователей по возрастанию ID.
	List(ctx context.Context, opts ListOptions) ([]*User, error)

	// Update сохраняет все изменяемые поля, включая XP и уровень.
	Update(ctx context.Context, u *User) error

	// Delete удаляет пользователя вместе с его точками, отзывами и достижениями.
	Delete(ctx context.Context, id int64) error

	// ListTopByXP возвращает пользователей по убыванию XP.
	ListTopByXP(ctx context.Context, limit int) ([]*User, error)

	// Standing возвращает число пользователей с XP строго больше xp
	// и общее число пользователей.
	Standing(ctx context.Context, xp int) (above, total int, err error)
}
