package mark

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingvionio/fullstack/internal/domain/shared"
)

func TestComputeScore(t *testing.T) {
	tests := []struct {
		name    string
		answers []int
		weights []float64
		want    float64
	}{
		{"equal weights", []int{4, 5}, []float64{1, 1}, 4.5},
		{"weighted", []int{1, 5}, []float64{3, 1}, 2.0},
		{"zero weight ignored", []int{10, 2}, []float64{0, 2}, 2.0},
		{"not clamped", []int{100}, []float64{0.5}, 100.0},
		{"negative answers", []int{-2, 4}, []float64{1, 1}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeScore(tt.answers, tt.weights)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestComputeScore_Errors(t *testing.T) {
	_, err := ComputeScore([]int{1, 2}, []float64{1})
	assert.ErrorIs(t, err, shared.ErrLengthMismatch)
	assert.True(t, shared.IsValidation(err))

	_, err = ComputeScore([]int{1, 2}, []float64{0, 0})
	assert.ErrorIs(t, err, shared.ErrZeroWeightSum)

	_, err = ComputeScore(nil, nil)
	assert.ErrorIs(t, err, shared.ErrZeroWeightSum)

	_, err = ComputeScore([]int{1}, []float64{-1})
	assert.True(t, shared.IsValidation(err))
}

func TestNewMark(t *testing.T) {
	m, err := NewMark(NewMarkParams{
		PointID:     1,
		QuestionIDs: []int64{10, 11},
		Answers:     []int{4, 5},
		Weights:     []float64{1, 1},
	})
	require.NoError(t, err)
	assert.InDelta(t, 4.5, m.TotalScore, 1e-9)
	assert.NotNil(t, m.Photos)
	assert.False(t, m.HasComment())

	m.AppendPhotos("/media/marks/mark_1/a.jpg")
	m.AppendPhotos("/media/marks/mark_1/b.jpg")
	assert.Equal(t, []string{"/media/marks/mark_1/a.jpg", "/media/marks/mark_1/b.jpg"}, m.Photos)
}

func TestNewMark_Validation(t *testing.T) {
	_, err := NewMark(NewMarkParams{
		QuestionIDs: []int64{1},
		Answers:     []int{4, 5},
		Weights:     []float64{1, 1},
	})
	assert.ErrorIs(t, err, shared.ErrQuestionsLength)

	long := strings.Repeat("я", MaxCommentLength+1)
	_, err = NewMark(NewMarkParams{
		QuestionIDs: []int64{1},
		Answers:     []int{4},
		Weights:     []float64{1},
		Comment:     &long,
	})
	assert.ErrorIs(t, err, shared.ErrCommentTooLong)
}
