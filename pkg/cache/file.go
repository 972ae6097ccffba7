package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/spf13/afero"
	"github.com/vmihailenco/msgpack/v5"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// File keeps entries as msgpack files in a directory.
type File struct {
	fs  afero.Fs
	dir string
	now func() time.Time
}

// NewFile creates a File cache in dir.
func NewFile(fs afero.Fs, dir string) *File {
	return &File{fs: fs, dir: dir, now: time.Now}
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, unsafeKeyChars.ReplaceAllString(key, "_")+".cache")
}

func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := afero.ReadFile(f.fs, f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}
	// Unreadable entries are misses, like expired ones.
	var e envelope
	if err := msgpack.Unmarshal(b, &e); err != nil || e.expired(f.now()) {
		if _, err := f.Delete(context.Background(), key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return e.Value, true, nil
}

func (f *File) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	b, err := msgpack.Marshal(envelope{Value: value, ExpiresAt: expiry(f.now(), ttl)})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := f.fs.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	if err := afero.WriteFile(f.fs, f.path(key), b, 0o644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

func (f *File) Delete(_ context.Context, key string) (bool, error) {
	err := f.fs.Remove(f.path(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("delete cache entry: %w", err)
}
