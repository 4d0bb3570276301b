package mark

import (
	"context"
	"time"
)

// Repository хранит отзывы.
type Repository interface {
	// Create сохраняет отзыв и заполняет ID.
	Create(ctx context.Context, m *Mark) error

	// GetByID возвращает ErrMarkNotFound, если отзыва нет.
	GetByID(ctx context.Context, id int64) (*Mark, error)

	// List возвращает отзывы, опционально только одной точки.
	List(ctx context.Context, pointID *int64) ([]*Mark, error)

	// UpdatePhotos перезаписывает список фотографий.
	UpdatePhotos(ctx context.Context, id int64, photos []string) error

	Delete(ctx context.Context, id int64) error

	// ScoresByPoint возвращает TotalScore всех отзывов точки.
	ScoresByPoint(ctx context.Context, pointID int64) ([]float64, error)

	// CountByUser возвращает число отзывов пользователя.
	CountByUser(ctx context.Context, userID int64) (int, error)

	// CreatedAtByUser возвращает время создания всех отзывов пользователя.
	CreatedAtByUser(ctx context.Context, userID int64) ([]time.Time, error)

	// ListCommentsByUser возвращает отзывы с непустым комментарием, новые первыми.
	ListCommentsByUser(ctx context.Context, userID int64) ([]*Mark, error)

	// ListRecentByUser возвращает до limit последних отзывов с названием точки.
	ListRecentByUser(ctx context.Context, userID int64, limit int) ([]Summary, error)

	// PointIDsByUser возвращает различные точки, на которые пользователь оставлял отзывы.
	PointIDsByUser(ctx context.Context, userID int64) ([]int64, error)
}
