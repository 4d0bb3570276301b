package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankByXP_SharesPlaceOnTies(t *testing.T) {
	users := []*User{
		{ID: 3, Username: "первый", XP: 300, Level: 3},
		{ID: 1, Username: "второй", XP: 120, Level: 2},
		{ID: 2, Username: "третий", XP: 120, Level: 2},
		{ID: 4, Username: "четвёртый", XP: 10, Level: 1},
	}

	entries := RankByXP(users)

	require.Len(t, entries, 4)
	assert.Equal(t, []int{1, 2, 2, 4}, []int{entries[0].Rank, entries[1].Rank, entries[2].Rank, entries[3].Rank})
	assert.Equal(t, int64(3), entries[0].UserID)
	assert.Equal(t, "первый", entries[0].Username)
}

func TestRankByXP_Empty(t *testing.T) {
	assert.Empty(t, RankByXP(nil))
}
