package industry

import "context"

// Repository хранит отрасли. Удаление каскадно удаляет подотрасли и критерии;
// если на отрасль ссылаются точки, возвращается ErrIndustryInUse.
type Repository interface {
	Create(ctx context.Context, i *Industry) error
	GetByID(ctx context.Context, id int64) (*Industry, error)
	List(ctx context.Context) ([]*Industry, error)
	Update(ctx context.Context, i *Industry) error
	Delete(ctx context.Context, id int64) error
}

// SubIndustryRepository хранит подотрасли.
type SubIndustryRepository interface {
	Create(ctx context.Context, s *SubIndustry) error
	GetByID(ctx context.Context, id int64) (*SubIndustry, error)

	// List возвращает подотрасли, опционально только одной отрасли.
	List(ctx context.Context, industryID *int64) ([]*SubIndustry, error)

	Update(ctx context.Context, s *SubIndustry) error
	Delete(ctx context.Context, id int64) error
}

// CriteriaRepository хранит критерии.
type CriteriaRepository interface {
	Create(ctx context.Context, c *Criteria) error
	GetByID(ctx context.Context, id int64) (*Criteria, error)
	List(ctx context.Context, industryID *int64) ([]*Criteria, error)
	Update(ctx context.Context, c *Criteria) error
	Delete(ctx context.Context, id int64) error

	// IDsByIndustry возвращает идентификаторы всех критериев отрасли.
	IDsByIndustry(ctx context.Context, industryID int64) ([]int64, error)
}
