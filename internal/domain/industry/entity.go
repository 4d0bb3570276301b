// Package industry описывает таксономию точек: отрасли, подотрасли
// с базовой оценкой и критерии (вопросы), по которым оставляются отзывы.
package industry

import (
	"strings"
	"time"

	"github.com/ingvionio/fullstack/internal/domain/shared"
)

// MaxNameLength - максимальная длина названий и текста критериев.
const MaxNameLength = 255

// Industry - отрасль (например, "Медицина").
type Industry struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate проверяет название отрасли.
func (i *Industry) Validate() error {
	i.Name = strings.TrimSpace(i.Name)
	return shared.TextLength("industry", "name", i.Name, 1, MaxNameLength)
}

// SubIndustry - подотрасль с редакционной базовой оценкой.
type SubIndustry struct {
	ID         int64
	Name       string
	IndustryID int64

	// BaseScore участвует в рейтинге каждой точки этой подотрасли.
	BaseScore float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate проверяет название подотрасли.
func (s *SubIndustry) Validate() error {
	s.Name = strings.TrimSpace(s.Name)
	return shared.TextLength("sub_industry", "name", s.Name, 1, MaxNameLength)
}

// BelongsTo сообщает, принадлежит ли подотрасль отрасли industryID.
func (s *SubIndustry) BelongsTo(industryID int64) bool {
	return s.IndustryID == industryID
}

// Criteria - вопрос отрасли, на который отвечают в отзыве.
type Criteria struct {
	ID         int64
	Text       string
	IndustryID int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate проверяет текст критерия.
func (c *Criteria) Validate() error {
	c.Text = strings.TrimSpace(c.Text)
	return shared.TextLength("criteria", "text", c.Text, 1, MaxNameLength)
}

// CriteriaSubset проверяет, что все questionIDs входят в allowed.
func CriteriaSubset(questionIDs, allowed []int64) bool {
	set := make(map[int64]struct{}, len(allowed))
	for _, id := range allowed {
		set[id] = struct{}{}
	}
	for _, id := range questionIDs {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
