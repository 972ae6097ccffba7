package migrator

import (
	"context"
	"errors"

	"github.com/bcomnes/cyclekit/pkg/toggle"
)

// ErrUnavailable is returned by NullMigrator for every operation that would
// touch the database.
var ErrUnavailable = errors.New("migrations are disabled. To enable them, remove env " + toggle.EnvDisabled + " or set it to false")

// NullMigrator stands in for a Migrator when migrations are disabled.
type NullMigrator struct{}

func (NullMigrator) IsConfigured(context.Context) (bool, error) {
	return false, nil
}

func (NullMigrator) Configure(context.Context) error {
	return ErrUnavailable
}

func (NullMigrator) Run(context.Context) (*Migration, error) {
	return nil, nil
}

func (NullMigrator) Rollback(context.Context) (*Migration, error) {
	return nil, ErrUnavailable
}

func (NullMigrator) Repository() (Repository, error) {
	return nil, ErrUnavailable
}

func (NullMigrator) Config() (Config, error) {
	return Config{}, ErrUnavailable
}

var (
	_ Interface = (*Migrator)(nil)
	_ Interface = NullMigrator{}
)
