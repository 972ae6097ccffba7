package seed

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/bcomnes/cyclekit/pkg/naming"
)

// Extension of seed files.
const Extension = ".sql"

// Loader finds seeds by name in a registry and a directory.
type Loader struct {
	fs       afero.Fs
	dir      string
	registry *Registry
}

// NewLoader creates a Loader. registry may be nil.
func NewLoader(fs afero.Fs, dir string, registry *Registry) *Loader {
	return &Loader{fs: fs, dir: dir, registry: registry}
}

// Directory returns the seed directory.
func (l *Loader) Directory() string {
	return l.dir
}

// Load returns the seed called name. Registered seeds win over files.
func (l *Loader) Load(name string) (Seed, error) {
	if !naming.IsPascalCase(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if f, ok := l.registry.get(name); ok {
		s := f()
		if s == nil {
			return nil, fmt.Errorf("%w: factory of %q returned nil", ErrInvalidSeed, name)
		}
		return s, nil
	}
	path := filepath.Join(l.dir, name+Extension)
	content, err := afero.ReadFile(l.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	return parseSQL(name, path, string(content)), nil
}

// Names lists every seed: registered ones and files in the directory, sorted.
// A missing directory contributes no names.
func (l *Loader) Names() ([]string, error) {
	seen := make(map[string]bool)
	var names []string
	if l.registry != nil {
		for _, name := range l.registry.Names() {
			seen[name] = true
			names = append(names, name)
		}
	}
	entries, err := afero.ReadDir(l.fs, l.dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read seed directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != Extension {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), Extension)
		if !naming.IsPascalCase(name) || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
