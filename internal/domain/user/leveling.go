package user

import "math"

// ══════════════════════════════════════════════════════════════════════════════
// LEVELING
// Уровни растут по геометрическому ряду: чтобы дойти до уровня k, нужно
// floor(Σ BaseXP·Multiplier^(i-1)) для i от 1 до k-1.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// BaseXP - опыт, нужный для перехода с первого уровня на второй.
	BaseXP = 100

	// LevelMultiplier - множитель каждого следующего шага.
	LevelMultiplier = 1.5

	// MinLevel - стартовый уровень.
	MinLevel = 1

	// maxLevel ограничивает линейный поиск. 1.5^60 уже больше любого int XP.
	maxLevel = 64
)

// XPForLevel возвращает суммарный опыт, необходимый для уровня level.
// Для уровней ≤ 1 это 0.
func XPForLevel(level int) int {
	if level <= MinLevel {
		return 0
	}
	total := 0.0
	for i := 1; i < level; i++ {
		total += BaseXP * math.Pow(LevelMultiplier, float64(i-1))
	}
	return int(math.Floor(total))
}

// LevelFromXP возвращает наибольший уровень, порог которого не превышает xp.
func LevelFromXP(xp int) int {
	level := MinLevel
	for level < maxLevel && XPForLevel(level+1) <= xp {
		level++
	}
	return level
}

// AddXP начисляет опыт и пересчитывает уровень. Уровень только растёт:
// если пересчитанный уровень ниже сохранённого, сохранённый остаётся.
// Возвращает старый и новый уровень.
func (u *User) AddXP(amount int) (oldLevel, newLevel int) {
	oldLevel = u.Level
	u.XP += amount
	if computed := LevelFromXP(u.XP); computed > u.Level {
		u.Level = computed
	}
	return oldLevel, u.Level
}

// ReconcileLevel приводит сохранённый уровень к вычисленному из XP.
// В отличие от AddXP, уровень может понизиться. Возвращает true, если уровень изменился.
func (u *User) ReconcileLevel() bool {
	computed := LevelFromXP(u.XP)
	if computed == u.Level {
		return false
	}
	u.Level = computed
	return true
}

// Progress - прогресс пользователя внутри текущего уровня.
type Progress struct {
	CurrentLevel       int     `json:"current_level"`
	CurrentXP          int     `json:"current_xp"`
	XPForCurrentLevel  int     `json:"xp_for_current_level"`
	XPForNextLevel     int     `json:"xp_for_next_level"`
	XPProgress         int     `json:"xp_progress"`
	XPNeeded           int     `json:"xp_needed"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

// ProgressFor вычисляет прогресс для пары (xp, level) без сверки уровня.
func ProgressFor(xp, level int) Progress {
	current := XPForLevel(level)
	next := XPForLevel(level + 1)
	p := Progress{
		CurrentLevel:      level,
		CurrentXP:         xp,
		XPForCurrentLevel: current,
		XPForNextLevel:    next,
		XPProgress:        xp - current,
		XPNeeded:          next - xp,
	}
	if span := next - current; span > 0 {
		p.ProgressPercentage = math.Round(float64(p.XPProgress)/float64(span)*100*100) / 100
	} else {
		p.ProgressPercentage = 100
	}
	return p
}

// Progress возвращает прогресс пользователя по сохранённым XP и уровню.
func (u *User) Progress() Progress {
	return ProgressFor(u.XP, u.Level)
}
