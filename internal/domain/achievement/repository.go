package achievement

import "context"

// Repository хранит каталог достижений.
type Repository interface {
	Create(ctx context.Context, a *Achievement) error
	GetByID(ctx context.Context, id int64) (*Achievement, error)

	// GetByName возвращает ErrAchievementNotFound, если имени нет в каталоге.
	GetByName(ctx context.Context, name string) (*Achievement, error)

	List(ctx context.Context) ([]*Achievement, error)
	ListByType(ctx context.Context, t Type) ([]*Achievement, error)
}

// ProgressRepository хранит записи UserAchievement.
type ProgressRepository interface {
	// Get возвращает ErrUserAchievementNotFound, если записи нет.
	Get(ctx context.Context, userID, achievementID int64) (*UserAchievement, error)

	Create(ctx context.Context, ua *UserAchievement) error

	// Save обновляет прогресс и отметку завершения.
	Save(ctx context.Context, ua *UserAchievement) error

	// ListByUser возвращает записи пользователя, опционально только завершённые.
	ListByUser(ctx context.Context, userID int64, onlyCompleted bool) ([]*UserAchievement, error)

	// ListRecentCompleted возвращает до limit последних завершённых записей с достижениями.
	ListRecentCompleted(ctx context.Context, userID int64, limit int) ([]Unlocked, error)
}
