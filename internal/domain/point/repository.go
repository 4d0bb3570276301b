package point

import "context"

// Repository хранит точки.
type Repository interface {
	// Create сохраняет точку и заполняет ID.
	Create(ctx context.Context, p *Point) error

	// GetByID возвращает ErrPointNotFound, если точки нет.
	GetByID(ctx context.Context, id int64) (*Point, error)

	List(ctx context.Context, f Filter) ([]*Point, error)

	// Update сохраняет изменяемые поля. Рейтинг не трогает.
	Update(ctx context.Context, p *Point) error

	// UpdateRating - единственный путь записи рейтинга.
	UpdateRating(ctx context.Context, id int64, rating float64) error

	// Delete удаляет точку вместе с отзывами.
	Delete(ctx context.Context, id int64) error

	// CountByCreator возвращает число точек, созданных пользователем.
	CountByCreator(ctx context.Context, creatorID int64) (int, error)

	// ListRecentByCreator возвращает до limit последних точек пользователя.
	ListRecentByCreator(ctx context.Context, creatorID int64, limit int) ([]Summary, error)

	// ListIDsBySubIndustry возвращает точки подотрасли.
	ListIDsBySubIndustry(ctx context.Context, subIndustryID int64) ([]int64, error)
}
