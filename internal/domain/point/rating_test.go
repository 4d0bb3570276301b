package point

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ingvionio/fullstack/internal/domain/shared"
)

func TestRecomputeRating_NoMarks(t *testing.T) {
	assert.Equal(t, 3.0, RecomputeRating(nil, 3.0))
	assert.Equal(t, -1.5, RecomputeRating([]float64{}, -1.5))
}

func TestRecomputeRating_BlendsWithBase(t *testing.T) {
	assert.InDelta(t, 3.75, RecomputeRating([]float64{4.5}, 3.0), 1e-9)
	assert.InDelta(t, 3.5, RecomputeRating([]float64{4, 5, 3}, 3.0), 1e-9)
}

func TestRecomputeRating_Idempotent(t *testing.T) {
	scores := []float64{2.5, 4.0, 5.0}
	first := RecomputeRating(scores, 1.0)
	second := RecomputeRating(scores, 1.0)
	assert.Equal(t, first, second)
}

func TestPoint_Validate(t *testing.T) {
	p := &Point{Name: "Клиника", Coordinates: shared.Coordinates{Latitude: 43.2, Longitude: 76.9}}
	assert.NoError(t, p.Validate())

	p.Latitude = 91
	assert.True(t, shared.IsValidation(p.Validate()))

	p.Latitude = 0
	p.Longitude = -181
	assert.True(t, shared.IsValidation(p.Validate()))

	p.Longitude = 0
	p.Name = " "
	assert.True(t, shared.IsValidation(p.Validate()))
}
