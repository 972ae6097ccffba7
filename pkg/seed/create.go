package seed

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/bcomnes/cyclekit/pkg/naming"
)

const template = `-- Seed: %s
-- Statements below run in one transaction.

`

// CreateSeed writes an empty seed called name into dir and returns its path.
// Existing seeds are not overwritten.
func CreateSeed(fs afero.Fs, dir, name, database string) (string, error) {
	if !naming.IsPascalCase(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create seed directory: %w", err)
	}
	path := filepath.Join(dir, name+Extension)
	if _, err := fs.Stat(path); err == nil {
		return "", fmt.Errorf("seed %s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	body := fmt.Sprintf(template, name)
	if database != "" {
		body = headerDatabase + " " + database + "\n" + body
	}
	if err := afero.WriteFile(fs, path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write seed: %w", err)
	}
	return path, nil
}
