package achievement

import (
	"time"

	"github.com/ingvionio/fullstack/pkg/timeutil"
)

// CalculateStreak считает серию дней подряд с хотя бы одним отзывом.
//
// Даты берутся по UTC. Если отзывов нет ни сегодня, ни вчера, серия равна 0.
// Иначе отсчёт начинается с сегодняшнего дня (или со вчерашнего, если сегодня
// отзывов нет) и идёт назад, пока у каждого предыдущего дня есть отзыв.
func CalculateStreak(markTimes []time.Time, now time.Time) int {
	if len(markTimes) == 0 {
		return 0
	}
	days := timeutil.NewDaySet(markTimes)

	day := timeutil.StartOfDay(now)
	if !days.Has(day) {
		day = day.AddDate(0, 0, -1)
		if !days.Has(day) {
			return 0
		}
	}

	streak := 0
	for days.Has(day) {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
