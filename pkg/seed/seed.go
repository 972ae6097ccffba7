// Package seed loads and scaffolds database seeds. Seeds are SQL files in the
// seed directory or Go values registered by name.
package seed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bcomnes/cyclekit/pkg/dbal"
	"github.com/bcomnes/cyclekit/pkg/naming"
)

var (
	ErrNotFound    = errors.New("seed not found")
	ErrInvalidName = errors.New("invalid seed name")
	ErrInvalidSeed = errors.New("invalid seed")
)

// Seed fills a database with data.
type Seed interface {
	Run(ctx context.Context) error
}

// DatabaseAware seeds receive their database before running.
type DatabaseAware interface {
	SetDatabase(db *dbal.Database)
}

// DatabaseNamer seeds choose the database they run against.
type DatabaseNamer interface {
	DatabaseName() string
}

// DatabaseName returns the database s runs against. An empty name is the
// default database.
func DatabaseName(s Seed) string {
	if n, ok := s.(DatabaseNamer); ok {
		return n.DatabaseName()
	}
	return ""
}

// Factory creates a seed.
type Factory func() Seed

// Registry holds seeds written in Go.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a seed under name, which must be PascalCase.
func (r *Registry) Register(name string, f Factory) error {
	if !naming.IsPascalCase(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if f == nil {
		return fmt.Errorf("%w: nil factory for %q", ErrInvalidSeed, name)
	}
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("seed %q is already registered", name)
	}
	r.factories[name] = f
	return nil
}

// Names lists registered seeds, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) get(name string) (Factory, bool) {
	if r == nil {
		return nil, false
	}
	f, ok := r.factories[name]
	return f, ok
}

// SQL is a seed kept as a SQL file.
type SQL struct {
	Name     string
	Path     string
	Database string
	Script   string

	db *dbal.Database
}

func (s *SQL) SetDatabase(db *dbal.Database) {
	s.db = db
}

func (s *SQL) DatabaseName() string {
	return s.Database
}

// Run executes the script in a transaction.
func (s *SQL) Run(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("seed %s: no database set", s.Name)
	}
	if strings.TrimSpace(s.Script) == "" {
		return nil
	}
	tx, err := s.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, s.Script); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("seed %s: %w", s.Name, err)
	}
	return tx.Commit()
}

const headerDatabase = "-- database:"

func parseSQL(name, path, content string) *SQL {
	s := &SQL{Name: name, Path: path, Script: content}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, headerDatabase) {
			s.Database = strings.TrimSpace(strings.TrimPrefix(line, headerDatabase))
			break
		}
	}
	return s
}
