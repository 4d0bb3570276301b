package query

import (
	"context"

	"github.com/ingvionio/fullstack/internal/application/uow"
	"github.com/ingvionio/fullstack/internal/domain/industry"
	"github.com/ingvionio/fullstack/internal/domain/mark"
	"github.com/ingvionio/fullstack/internal/domain/point"
	"github.com/ingvionio/fullstack/internal/domain/shared"
	"github.com/ingvionio/fullstack/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTENT QUERIES
// Чтение пользователей, таксономии, точек и отзывов.
// ══════════════════════════════════════════════════════════════════════════════

// ListPointsQuery - фильтры списка точек.
type ListPointsQuery struct {
	IndustryID    *int64
	SubIndustryID *int64
	Skip          int
	Limit         int
}

// ContentHandler обрабатывает запросы чтения сущностей.
type ContentHandler struct {
	deps Deps
}

// NewContentHandler создаёт обработчик.
func NewContentHandler(d Deps) *ContentHandler {
	return &ContentHandler{deps: d.withDefaults()}
}

// ──────────────────────────────────────────────────────────────────────────────
// Users
// ──────────────────────────────────────────────────────────────────────────────

// GetUser возвращает пользователя.
func (h *ContentHandler) GetUser(ctx context.Context, id int64) (UserDTO, error) {
	var u *user.User
	err := h.deps.read(ctx, "get_user", func(ctx context.Context, repos uow.Repositories) error {
		var err error
		u, err = repos.Users.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return UserDTO{}, err
	}
	return NewUserDTO(u), nil
}

// ListUsers возвращает страницу пользователей.
func (h *ContentHandler) ListUsers(ctx context.Context, skip, limit int) ([]UserDTO, error) {
	var list []*user.User
	err := h.deps.read(ctx, "list_users", func(ctx context.Context, repos uow.Repositories) error {
		var err error
		list, err = repos.Users.List(ctx, user.ListOptions{Page: shared.NewPage(skip, limit)})
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]UserDTO, 0, len(list))
	for _, u := range list {
		out = append(out, NewUserDTO(u))
	}
	return out, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Taxonomy
// ──────────────────────────────────────────────────────────────────────────────

// GetIndustry возвращает отрасль.
func (h *ContentHandler) GetIndustry(ctx context.Context, id int64) (IndustryDTO, error) {
	var i *industry.Industry
	err := h.deps.read(ctx, "get_industry", func(ctx context.Context, repos uow.Repositories) error {
		var err error
		i, err = repos.Industries.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return IndustryDTO{}, err
	}
	return NewIndustryDTO(i), nil
}

// ListIndustries возвращает все отрасли.
func (h *ContentHandler) ListIndustries(ctx context.Context) ([]IndustryDTO, error) {
	var list []*industry.Industry
	err := h.deps.read(ctx, "list_industries", func(ctx context.Context, repos uow.Repositories) error {
		var err error
		list, err = repos.Industries.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]IndustryDTO, 0, len(list))
	for _, i := range list {
		out = append(out, NewIndustryDTO(i))
	}
	return out, nil
}

// GetSubIndustry возвращает подотрасль.
func (h *ContentHandler) GetSubIndustry(ctx context.Context, id int64) (SubIndustryDTO, error) {
	var s *industry.SubIndustry
	err := h.deps.read(ctx, "get_sub_industry", func(ctx context.Context, repos uow.Repositories) error {
		var err error
		s, err = repos.SubIndustries.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return SubIndustryDTO{}, err
	}
	return NewSubIndustryDTO(s), nil
}

// ListSubIndustries возвращает подотрасли, опционально одной отрасли.
func (h *ContentHandler) ListSubIndustries(ctx context.Context, industryID *int64) ([]SubIndustryDTO, error) {
	var list []*industry.SubIndustry
	err := h.deps.read(ctx, "list_sub_industries", func(ctx context.Context, repos uow.Repositories) error {
		var err error
		list, err = repos.SubIndustries.List(ctx, industryID)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]SubIndustryDTO, 0, len(list))
	for _, s := range list {
		out = append(out, NewSubIndustryDTO(s))
	}
	return out, nil
}

// GetCriteria возвращает критерий.
func (h *ContentHandler) GetCriteria(ctx context.Context, id int64) (CriteriaDTO, error) {
	var c *industry.Criteria
	err := h.deps.read(ctx, "get_criteria", func(ctx context.Context, repos uow.Repositories) error {
		var err error
		c, err = repos.Criteria.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return CriteriaDTO{}, err
	}
	return NewCriteriaDTO(c), nil
}

// ListCriteria возвращает критерии, опционально одной отрасли.
func (h *ContentHandler) ListCriteria(ctx context.Context, industryID *int64) ([]CriteriaDTO, error) {
	var list []*industry.Criteria
	err := h.deps.read(ctx, "list_criteria", func(ctx context.Context, repos uow.Repositories) error {
		var err error
		list, err = repos.Criteria.List(ctx, industryID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return criteriaDTOs(list), nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Points
// ──────────────────────────────────────────────────────────────────────────────

// GetPoint возвращает точку.
func (h *ContentHandler) GetPoint(ctx context.Context, id int64) (PointDTO, error) {
	var p *point.Point
	err := h.deps.read(ctx, "get_point", func(ctx context.Context, repos uow.Repositories) error {
		var err error
		p, err = repos.Points.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return PointDTO{}, err
	}
	return NewPointDTO(p), nil
}

// ListPoints возвращает точки по фильтрам.
func (h *ContentHandler) ListPoints(ctx context.Context, q ListPointsQuery) ([]PointDTO, error) {
	var list []*point.Point
	err := h.deps.read(ctx, "list_points", func(ctx context.Context, repos uow.Repositories) error {
		var err error
		list, err = repos.Points.List(ctx, point.Filter{
			IndustryID:    q.IndustryID,
			SubIndustryID: q.SubIndustryID,
			Page:          shared.NewPage(q.Skip, q.Limit),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]PointDTO, 0, len(list))
	for _, p := range list {
		out = append(out, NewPointDTO(p))
	}
	return out, nil
}

// PointCriteria возвращает критерии отрасли точки.
func (h *ContentHandler) PointCriteria(ctx context.Context, pointID int64) ([]CriteriaDTO, error) {
	var list []*industry.Criteria
	err := h.deps.read(ctx, "get_point_criteria", func(ctx context.Context, repos uow.Repositories) error {
		p, err := repos.Points.GetByID(ctx, pointID)
		if err != nil {
			return err
		}
		list, err = repos.Criteria.List(ctx, &p.IndustryID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return criteriaDTOs(list), nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Marks
// ──────────────────────────────────────────────────────────────────────────────

// GetMark возвращает отзыв.
func (h *ContentHandler) GetMark(ctx context.Context, id int64) (MarkDTO, error) {
	var m *mark.Mark
	err := h.deps.read(ctx, "get_mark", func(ctx context.Context, repos uow.Repositories) error {
		var err error
		m, err = repos.Marks.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return MarkDTO{}, err
	}
	return NewMarkDTO(m), nil
}

// ListMarks возвращает отзывы, опционально одной точки.
func (h *ContentHandler) ListMarks(ctx context.Context, pointID *int64) ([]MarkDTO, error) {
	var list []*mark.Mark
	err := h.deps.read(ctx, "list_marks", func(ctx context.Context, repos uow.Repositories) error {
		var err error
		list, err = repos.Marks.List(ctx, pointID)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]MarkDTO, 0, len(list))
	for _, m := range list {
		out = append(out, NewMarkDTO(m))
	}
	return out, nil
}

// UserComments возвращает непустые комментарии пользователя, новые первыми.
func (h *ContentHandler) UserComments(ctx context.Context, userID int64) ([]CommentDTO, error) {
	var list []*mark.Mark
	err := h.deps.read(ctx, "list_user_comments", func(ctx context.Context, repos uow.Repositories) error {
		if err := requireUser(ctx, repos, userID); err != nil {
			return err
		}
		var err error
		list, err = repos.Marks.ListCommentsByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]CommentDTO, 0, len(list))
	for _, m := range list {
		if !m.HasComment() {
			continue
		}
		out = append(out, CommentDTO{ID: m.ID, PointID: m.PointID, Comment: *m.Comment, CreatedAt: m.CreatedAt})
	}
	return out, nil
}

func criteriaDTOs(list []*industry.Criteria) []CriteriaDTO {
	out := make([]CriteriaDTO, 0, len(list))
	for _, c := range list {
		out = append(out, NewCriteriaDTO(c))
	}
	return out
}
