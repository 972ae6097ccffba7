package migrator

import (
	"errors"
	"time"

	"github.com/spf13/afero"

	"github.com/bcomnes/cyclekit/pkg/naming"
)

// ErrInvalidName is returned for migration names that are not PascalCase.
var ErrInvalidName = errors.New("invalid migration name")

// CreateMigration writes an empty migration for database into dir and
// returns its path.
func CreateMigration(fs afero.Fs, dir, namespace, name, database string, now time.Time) (string, error) {
	if !naming.IsPascalCase(name) {
		return "", ErrInvalidName
	}
	return writeMigration(fs, dir, namespace, name, database, "", "", now)
}
