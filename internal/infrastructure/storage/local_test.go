package storage

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, maxBytes int64) *LocalStore {
	t.Helper()
	s := NewLocalStore(t.TempDir(), "/media/", maxBytes)
	n := 0
	s.newID = func() string {
		n++
		return "id" + strconv.Itoa(n)
	}
	return s
}

func TestSaveAvatar(t *testing.T) {
	s := newStore(t, 0)

	url, err := s.SaveAvatar(context.Background(), 7, "me.png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.Equal(t, "/media/avatars/user_7/id1_me.png", url)

	data, err := os.ReadFile(filepath.Join(s.Root(), "avatars", "user_7", "id1_me.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestSaveMarkPhoto(t *testing.T) {
	s := newStore(t, 0)
	ctx := context.Background()

	first, err := s.SaveMarkPhoto(ctx, 3, "a.jpg", strings.NewReader("a"))
	require.NoError(t, err)
	second, err := s.SaveMarkPhoto(ctx, 3, "", strings.NewReader("b"))
	require.NoError(t, err)

	assert.Equal(t, "/media/marks/mark_3/id1_a.jpg", first)
	assert.Equal(t, "/media/marks/mark_3/id2_photo", second)
}

func TestSave_TooLargeLeavesNoFile(t *testing.T) {
	s := newStore(t, 4)

	_, err := s.SaveMarkPhoto(context.Background(), 3, "big.jpg", strings.NewReader("too big"))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(filepath.Join(s.Root(), "marks", "mark_3"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSave_EmptyFile(t *testing.T) {
	s := newStore(t, 0)

	_, err := s.SaveAvatar(context.Background(), 1, "x.png", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestSave_CanceledContext(t *testing.T) {
	s := newStore(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.SaveAvatar(ctx, 1, "x.png", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRemove(t *testing.T) {
	s := newStore(t, 0)
	ctx := context.Background()

	url, err := s.SaveAvatar(ctx, 1, "x.png", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, url))
	_, err = os.Stat(filepath.Join(s.Root(), "avatars", "user_1", "id1_x.png"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Remove(ctx, url))
	assert.NoError(t, s.Remove(ctx, "https://elsewhere/x.png"))
	assert.NoError(t, s.Remove(ctx, "/media/../../etc/passwd"))
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "passwd", cleanName("../../etc/passwd", "f"))
	assert.Equal(t, "my_photo.jpg", cleanName("my photo.jpg", "f"))
	assert.Equal(t, "evil.png", cleanName(`C:\temp\evil.png`, "f"))
	assert.Equal(t, "f", cleanName("фото", "f"))
	assert.Equal(t, "f", cleanName("..", "f"))
}
