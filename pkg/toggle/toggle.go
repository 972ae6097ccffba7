// Package toggle decides whether the migration features are switched on.
package toggle

import (
	"os"
	"strings"
)

// EnvDisabled is the environment variable that switches migrations off.
const EnvDisabled = "CYCLE_MIGRATIONS_DISABLED"

// Toggle reads the migrations feature flag.
type Toggle struct {
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(key string) (string, bool)

	// MigratorAvailable and GenerateMigrationsAvailable let embedders that
	// ship without the migration engine turn the features off.
	MigratorAvailable           bool
	GenerateMigrationsAvailable bool
}

// New returns a Toggle reading the process environment.
func New() *Toggle {
	return &Toggle{
		LookupEnv:                   os.LookupEnv,
		MigratorAvailable:           true,
		GenerateMigrationsAvailable: true,
	}
}

// IsDisabledByEnv reports whether CYCLE_MIGRATIONS_DISABLED holds a truthy value.
func (t *Toggle) IsDisabledByEnv() bool {
	lookup := t.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	flag, ok := lookup(EnvDisabled)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(flag)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func (t *Toggle) IsMigratorAvailable() bool {
	return t.MigratorAvailable
}

func (t *Toggle) IsGenerateMigrationsAvailable() bool {
	return t.GenerateMigrationsAvailable
}

// AreMigrationsEnabled reports whether the migrator and its commands should be wired.
func (t *Toggle) AreMigrationsEnabled() bool {
	return t.IsMigratorAvailable() && !t.IsDisabledByEnv()
}
