package point

// RecomputeRating возвращает рейтинг точки по оценкам её отзывов.
//
// Без отзывов рейтинг равен baseScore подотрасли. Иначе среднее оценок
// усредняется с baseScore поровну: (avg + base) / 2. Функция чистая,
// повторный вызов с теми же данными даёт тот же результат.
func RecomputeRating(markScores []float64, baseScore float64) float64 {
	if len(markScores) == 0 {
		return baseScore
	}
	var sum float64
	for _, s := range markScores {
		sum += s
	}
	avg := sum / float64(len(markScores))
	return (avg + baseScore) / 2
}
