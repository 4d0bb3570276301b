package user

// RankEntry - строка рейтинга пользователей по опыту.
type RankEntry struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	XP       int    `json:"xp"`
	Level    int    `json:"level"`

	// Rank - место в рейтинге, начиная с 1.
	Rank int `json:"rank"`
}

// EntryOf возвращает строку рейтинга без места.
func EntryOf(u *User) RankEntry {
	return RankEntry{UserID: u.ID, Username: u.Username, XP: u.XP, Level: u.Level}
}

// RankByXP нумерует пользователей, уже упорядоченных по убыванию XP.
// Пользователи с одинаковым XP делят место.
func RankByXP(users []*User) []RankEntry {
	entries := make([]RankEntry, 0, len(users))
	for i, u := range users {
		e := EntryOf(u)
		if i > 0 && entries[i-1].XP == e.XP {
			e.Rank = entries[i-1].Rank
		} else {
			e.Rank = i + 1
		}
		entries = append(entries, e)
	}
	return entries
}
