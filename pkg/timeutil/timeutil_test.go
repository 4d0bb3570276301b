package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfDay(t *testing.T) {
	almaty := time.FixedZone("UTC+5", 5*60*60)
	ts := time.Date(2026, 3, 10, 2, 30, 0, 0, almaty) // 2026-03-09 21:30 UTC

	assert.Equal(t, Date(2026, 3, 9), StartOfDay(ts))
	assert.Equal(t, Date(2026, 3, 1), StartOfDay(DateTime(2026, 3, 1, 23, 59, 59)))
}

func TestDaySet(t *testing.T) {
	set := NewDaySet([]time.Time{
		DateTime(2026, 5, 1, 8, 0, 0),
		DateTime(2026, 5, 1, 20, 0, 0),
		DateTime(2026, 5, 3, 12, 0, 0),
	})

	assert.Len(t, set, 2)
	assert.True(t, set.Has(Date(2026, 5, 1)))
	assert.False(t, set.Has(Date(2026, 5, 2)))
	assert.True(t, set.Has(DateTime(2026, 5, 3, 23, 59, 0)))
}

func TestFixedClock(t *testing.T) {
	now := DateTime(2026, 1, 1, 12, 0, 0)
	clock := Fixed(now)
	assert.Equal(t, now, clock())
	assert.Equal(t, time.UTC, SystemClock().Location())
}
