// Package storage stores uploaded avatars and mark photos on the local
// filesystem and returns the public URLs they are served under.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrTooLarge is returned when an upload exceeds the size limit.
	ErrTooLarge = errors.New("storage: file too large")

	// ErrEmptyFile is returned for zero-byte uploads.
	ErrEmptyFile = errors.New("storage: file is empty")
)

// LocalStore writes files under root and builds URLs under prefix.
//
// Layout: {root}/avatars/user_{id}/{uuid}_{name} and
// {root}/marks/mark_{id}/{uuid}_{name}.
type LocalStore struct {
	root     string
	prefix   string
	maxBytes int64
	newID    func() string
}

// NewLocalStore creates a LocalStore. A maxBytes <= 0 disables the size limit.
func NewLocalStore(root, prefix string, maxBytes int64) *LocalStore {
	if prefix == "" {
		prefix = "/media"
	}
	return &LocalStore{
		root:     root,
		prefix:   "/" + strings.Trim(prefix, "/"),
		maxBytes: maxBytes,
		newID:    func() string { return uuid.NewString() },
	}
}

// Root returns the directory files are written to.
func (s *LocalStore) Root() string {
	return s.root
}

// SaveAvatar stores a user's avatar and returns its URL.
func (s *LocalStore) SaveAvatar(ctx context.Context, userID int64, name string, body io.Reader) (string, error) {
	return s.save(ctx, path.Join("avatars", fmt.Sprintf("user_%d", userID)), name, body, "avatar")
}

// SaveMarkPhoto stores one photo of a mark and returns its URL.
func (s *LocalStore) SaveMarkPhoto(ctx context.Context, markID int64, name string, body io.Reader) (string, error) {
	return s.save(ctx, path.Join("marks", fmt.Sprintf("mark_%d", markID)), name, body, "photo")
}

// Remove deletes the file behind a URL returned by this store.
// Unknown URLs and missing files are ignored.
func (s *LocalStore) Remove(ctx context.Context, url string) error {
	rel, ok := strings.CutPrefix(url, s.prefix+"/")
	if !ok || rel == "" {
		return nil
	}
	clean := path.Clean(rel)
	if strings.HasPrefix(clean, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", url, err)
	}
	return nil
}

func (s *LocalStore) save(ctx context.Context, dir, filename string, body io.Reader, fallback string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := s.newID() + "_" + cleanName(filename, fallback)
	full := filepath.Join(s.root, filepath.FromSlash(dir))
	if err := os.MkdirAll(full, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	dest := filepath.Join(full, name)
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}

	src := body
	if s.maxBytes > 0 {
		src = io.LimitReader(body, s.maxBytes+1)
	}
	n, err := io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	switch {
	case err != nil:
		err = fmt.Errorf("write %s: %w", name, err)
	case n == 0:
		err = ErrEmptyFile
	case s.maxBytes > 0 && n > s.maxBytes:
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(dest)
		return "", err
	}

	return s.prefix + "/" + path.Join(dir, name), nil
}

// cleanName keeps the base name and drops characters unsafe in URLs.
func cleanName(name, fallback string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return fallback
	}
	return out
}
