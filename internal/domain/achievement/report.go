package achievement

import "time"

// Report - достижение глазами пользователя: сохранённый и живой прогресс.
type Report struct {
	Achievement     *Achievement
	Progress        int
	CurrentProgress int
	IsCompleted     bool
	CompletedAt     *time.Time
}

// BuildReport сводит запись каталога, сохранённую запись (может быть nil)
// и живое значение метрики. Хранилище не меняется.
//
// IsCompleted истинно, если достижение завершено в хранилище или живой
// прогресс уже достиг порога.
func BuildReport(a *Achievement, stored *UserAchievement, live int) Report {
	r := Report{
		Achievement:     a,
		CurrentProgress: live,
	}
	if stored == nil {
		r.Progress = live
		r.IsCompleted = live >= a.RequirementValue
		return r
	}
	r.Progress = stored.Progress
	r.IsCompleted = stored.IsCompleted || live >= a.RequirementValue
	r.CompletedAt = stored.CompletedAt
	return r
}
