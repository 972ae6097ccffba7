package migrator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Repository lists migrations and registers new ones.
type Repository interface {
	// Migrations returns every migration, ordered by timestamp, counter and name.
	Migrations() ([]*Migration, error)

	// Register stores a new migration and returns it.
	Register(name, database, up, down string) (*Migration, error)
}

// FileRepository keeps migrations as files in a directory.
type FileRepository struct {
	fs  afero.Fs
	cfg Config
	now func() time.Time
}

// NewFileRepository creates a repository on fs using cfg.Directory.
func NewFileRepository(fs afero.Fs, cfg Config) *FileRepository {
	return &FileRepository{fs: fs, cfg: cfg.withDefaults(), now: time.Now}
}

// Migrations implements Repository. A missing directory holds no migrations.
func (r *FileRepository) Migrations() ([]*Migration, error) {
	entries, err := afero.ReadDir(r.fs, r.cfg.Directory)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}
	var migs []*Migration
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		created, counter, name, ok := parseFilename(entry.Name())
		if !ok {
			continue
		}
		path := filepath.Join(r.cfg.Directory, entry.Name())
		m := &Migration{
			Filename: path,
			Name:     name,
			Created:  created,
			Counter:  counter,
		}
		if other, ok := seen[m.Key()]; ok {
			return nil, fmt.Errorf("duplicate migration %s: %s and %s", m.Key(), other, path)
		}
		seen[m.Key()] = path
		content, err := afero.ReadFile(r.fs, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", path, err)
		}
		if err := parseBody(m, string(content)); err != nil {
			return nil, fmt.Errorf("invalid migration %s: %w", path, err)
		}
		m.Md5, err = checksum(string(content), r.cfg.Newline)
		if err != nil {
			return nil, err
		}
		migs = append(migs, m)
	}
	sortMigrations(migs)
	return migs, nil
}

// Register implements Repository.
func (r *FileRepository) Register(name, database, up, down string) (*Migration, error) {
	path, err := writeMigration(r.fs, r.cfg.Directory, r.cfg.Namespace, name, database, up, down, r.now())
	if err != nil {
		return nil, err
	}
	content, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, err
	}
	created, counter, _, _ := parseFilename(filepath.Base(path))
	m := &Migration{Filename: path, Name: name, Created: created, Counter: counter}
	if err := parseBody(m, string(content)); err != nil {
		return nil, err
	}
	m.Md5, err = checksum(string(content), r.cfg.Newline)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// newID returns a migration identifier such as "Orm3f2a...".
func newID() string {
	return "Orm" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func writeMigration(fs afero.Fs, dir, namespace, name, database, up, down string, now time.Time) (string, error) {
	if namespace == "" {
		namespace = DefaultConfig.Namespace
	}
	counter, err := NextCounter(fs, dir, name)
	if err != nil {
		return "", err
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create migration directory: %w", err)
	}
	path := filepath.Join(dir, Filename(now, counter, name))
	body := renderBody(namespace, newID(), database, up, down)
	if err := afero.WriteFile(fs, path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("failed to write migration file: %w", err)
	}
	return path, nil
}
