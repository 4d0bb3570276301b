package mark

import "github.com/ingvionio/fullstack/internal/domain/shared"

// ComputeScore возвращает взвешенное среднее Σ(answer·weight) / Σweight.
//
// Результат не ограничивается диапазоном шкалы ответов.
// Ошибка валидации, если длины различаются, вес отрицательный или сумма весов равна нулю.
func ComputeScore(answers []int, weights []float64) (float64, error) {
	if len(answers) != len(weights) {
		return 0, shared.ErrLengthMismatch
	}
	var total, sum float64
	for i, a := range answers {
		w := weights[i]
		if w < 0 {
			return 0, shared.ErrNegativeWeight
		}
		total += float64(a) * w
		sum += w
	}
	if sum == 0 {
		return 0, shared.ErrZeroWeightSum
	}
	return total / sum, nil
}
