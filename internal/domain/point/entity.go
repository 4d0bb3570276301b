// Package point содержит точку на карте и расчёт её агрегированного рейтинга.
package point

import (
	"strings"
	"time"

	"github.com/ingvionio/fullstack/internal/domain/shared"
)

// MaxNameLength - максимальная длина названия точки.
const MaxNameLength = 255

// Point - объект на карте с отображаемым рейтингом.
type Point struct {
	ID   int64
	Name string

	shared.Coordinates

	// Rating - агрегированная оценка (поле mark). Пишется только через RecomputeRating.
	Rating float64

	IndustryID    int64
	SubIndustryID int64
	CreatorID     *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate проверяет название и координаты.
func (p *Point) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if err := shared.TextLength("point", "name", p.Name, 1, MaxNameLength); err != nil {
		return err
	}
	return p.Coordinates.Validate()
}

// Filter ограничивает выборку точек.
type Filter struct {
	IndustryID    *int64
	SubIndustryID *int64
	CreatorID     *int64
	Page          shared.Page
}

// Summary - облегчённое представление точки для ленты активности.
type Summary struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}
