package schema

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Locator finds entity definitions in directories.
type Locator struct {
	fs   afero.Fs
	dirs []string
}

// NewLocator creates a Locator over dirs.
func NewLocator(fsys afero.Fs, dirs []string) *Locator {
	return &Locator{fs: fsys, dirs: dirs}
}

// Definitions parses every *.yaml and *.yml file below the directories, in
// path order. Missing directories are an error.
func (l *Locator) Definitions() ([]*Definition, error) {
	var files []string
	for _, dir := range l.dirs {
		if _, err := l.fs.Stat(dir); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("entity directory %q does not exist", dir)
			}
			return nil, err
		}
		err := afero.Walk(l.fs, dir, func(path string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".yaml", ".yml":
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan entity directory %q: %w", dir, err)
		}
	}
	sort.Strings(files)

	var defs []*Definition
	for _, file := range files {
		found, err := l.parse(file)
		if err != nil {
			return nil, err
		}
		defs = append(defs, found...)
	}
	return defs, nil
}

func (l *Locator) parse(file string) ([]*Definition, error) {
	f, err := l.fs.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var defs []*Definition
	dec := yaml.NewDecoder(f)
	for {
		def := &Definition{}
		if err := dec.Decode(def); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		if def.Role == "" {
			return nil, fmt.Errorf("parse %s: definition without role", file)
		}
		if def.Kind == "" {
			def.Kind = KindEntity
		}
		if def.Kind != KindEntity && def.Kind != KindEmbedding {
			return nil, fmt.Errorf("parse %s: unknown kind %q for %s", file, def.Kind, def.Role)
		}
		def.Source = file
		defs = append(defs, def)
	}
	return defs, nil
}
