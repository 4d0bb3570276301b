// Package user содержит доменную модель пользователя платформы отзывов:
// учётные данные, аватар с историей и игровой прогресс (XP и уровень).
//
// Пакет не зависит от инфраструктуры. Хеширование паролей и хранение
// файлов предоставляются снаружи через интерфейсы прикладного слоя.
package user

import (
	"strings"
	"time"

	"github.com/ingvionio/fullstack/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONSTRAINTS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// MinUsernameLength - минимальная длина имени пользователя.
	MinUsernameLength = 3
	// MaxUsernameLength - максимальная длина имени пользователя.
	MaxUsernameLength = 64
	// MinPasswordLength - минимальная длина пароля.
	MinPasswordLength = 6
	// MaxPasswordLength - максимальная длина пароля.
	MaxPasswordLength = 256
)

// ══════════════════════════════════════════════════════════════════════════════
// USER ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// User - пользователь платформы.
type User struct {
	// ID - внутренний идентификатор.
	ID int64

	// Username - уникальное имя пользователя.
	Username string

	// Email - уникальный адрес почты.
	Email string

	// PasswordHash - хеш пароля. Никогда не отдаётся наружу.
	PasswordHash string

	// XP - накопленный опыт. Уменьшается только вручную, в системе нет такого пути.
	XP int

	// Level - сохранённый уровень, не меньше 1.
	Level int

	// AvatarURL - текущий аватар (может отсутствовать).
	AvatarURL *string

	// AvatarHistory - предыдущие аватары в порядке замены.
	AvatarHistory []string

	// CreatedAt - время регистрации.
	CreatedAt time.Time

	// UpdatedAt - время последнего изменения профиля или прогресса.
	UpdatedAt time.Time
}

// NewUserParams - параметры для создания пользователя.
type NewUserParams struct {
	Username     string
	Email        string
	PasswordHash string
	AvatarURL    *string
	CreatedAt    time.Time
}

// NewUser создаёт нового пользователя на первом уровне с нулевым опытом.
func NewUser(p NewUserParams) (*User, error) {
	u := &User{
		Username:      strings.TrimSpace(p.Username),
		Email:         strings.TrimSpace(p.Email),
		PasswordHash:  p.PasswordHash,
		XP:            0,
		Level:         MinLevel,
		AvatarURL:     p.AvatarURL,
		AvatarHistory: []string{},
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.CreatedAt,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate проверяет инварианты пользователя.
func (u *User) Validate() error {
	if err := ValidateUsername(u.Username); err != nil {
		return err
	}
	if err := shared.ValidateEmail(u.Email); err != nil {
		return err
	}
	if u.PasswordHash == "" {
		return shared.NewDomainError("user", "Validate", shared.ErrEmptyValue, "password hash cannot be empty")
	}
	if u.XP < 0 {
		return shared.NewDomainError("user", "Validate", shared.ErrNegativeValue, "xp cannot be negative")
	}
	if u.Level < MinLevel {
		return shared.ValidationError("user", "Validate", "level must be at least %d", MinLevel)
	}
	return nil
}

// ValidateUsername проверяет длину имени пользователя.
func ValidateUsername(username string) error {
	return shared.TextLength("user", "username", username, MinUsernameLength, MaxUsernameLength)
}

// ValidatePassword проверяет длину пароля в открытом виде.
func ValidatePassword(password string) error {
	n := len([]rune(password))
	if n < MinPasswordLength || n > MaxPasswordLength {
		return shared.ValidationError("user", "Validate", "password must be between %d and %d characters", MinPasswordLength, MaxPasswordLength)
	}
	return nil
}

// SetAvatar заменяет аватар. Предыдущий аватар, если был, дописывается в историю.
func (u *User) SetAvatar(url string) {
	if u.AvatarURL != nil && *u.AvatarURL != "" {
		u.AvatarHistory = append(u.AvatarHistory, *u.AvatarURL)
	}
	u.AvatarURL = &url
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST OPTIONS
// ══════════════════════════════════════════════════════════════════════════════

// ListOptions - параметры пагинации списка пользователей.
type ListOptions struct {
	Page shared.Page
}
