// Package mark содержит отзыв (оценку) точки по критериям отрасли
// и движок расчёта взвешенной оценки отзыва.
package mark

import (
	"time"
	"unicode/utf8"

	"github.com/ingvionio/fullstack/internal/domain/shared"
)

// MaxCommentLength - максимальная длина комментария в символах.
const MaxCommentLength = 2000

// Mark - отзыв пользователя о точке.
//
// QuestionIDs, Answers и Weights - параллельные последовательности
// одинаковой длины. TotalScore вычисляется один раз при создании.
type Mark struct {
	ID      int64
	PointID int64
	UserID  *int64

	QuestionIDs []int64
	Answers     []int
	Weights     []float64

	Comment *string

	// Photos - URL фотографий, только дописываются.
	Photos []string

	TotalScore float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewMarkParams - параметры для создания отзыва.
type NewMarkParams struct {
	PointID     int64
	UserID      *int64
	QuestionIDs []int64
	Answers     []int
	Weights     []float64
	Comment     *string
	Photos      []string
	CreatedAt   time.Time
}

// NewMark проверяет инварианты, считает TotalScore и возвращает отзыв.
func NewMark(p NewMarkParams) (*Mark, error) {
	if len(p.QuestionIDs) != len(p.Answers) {
		return nil, shared.ErrQuestionsLength
	}
	if p.Comment != nil && utf8.RuneCountInString(*p.Comment) > MaxCommentLength {
		return nil, shared.ErrCommentTooLong
	}
	score, err := ComputeScore(p.Answers, p.Weights)
	if err != nil {
		return nil, err
	}
	photos := p.Photos
	if photos == nil {
		photos = []string{}
	}
	return &Mark{
		PointID:     p.PointID,
		UserID:      p.UserID,
		QuestionIDs: p.QuestionIDs,
		Answers:     p.Answers,
		Weights:     p.Weights,
		Comment:     p.Comment,
		Photos:      photos,
		TotalScore:  score,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.CreatedAt,
	}, nil
}

// AppendPhotos дописывает фотографии в конец списка.
func (m *Mark) AppendPhotos(urls ...string) {
	m.Photos = append(m.Photos, urls...)
}

// HasComment сообщает, есть ли у отзыва непустой комментарий.
func (m *Mark) HasComment() bool {
	return m.Comment != nil && *m.Comment != ""
}

// Summary - облегчённое представление отзыва для ленты активности.
type Summary struct {
	ID         int64
	PointID    int64
	PointName  string
	TotalScore float64
	CreatedAt  time.Time
}
