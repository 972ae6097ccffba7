// Package service runs migrations and seeds on behalf of the commands.
package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/bcomnes/cyclekit/pkg/dbal"
	"github.com/bcomnes/cyclekit/pkg/log"
	"github.com/bcomnes/cyclekit/pkg/migrator"
	"github.com/bcomnes/cyclekit/pkg/seed"
)

// MigratorService drives a migrator and runs seeds.
type MigratorService struct {
	migrator migrator.Interface
	dbs      dbal.Provider
	logE     *logrus.Entry
}

// NewMigratorService creates a MigratorService.
func NewMigratorService(m migrator.Interface, dbs dbal.Provider, logE *logrus.Entry) *MigratorService {
	return &MigratorService{migrator: m, dbs: dbs, logE: log.OrDiscard(logE)}
}

func (s *MigratorService) configure(ctx context.Context) error {
	ok, err := s.migrator.IsConfigured(ctx)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	s.logE.Debug("configuring migrations table")
	return s.migrator.Configure(ctx)
}

// Migrate runs every pending migration. output receives a line per migration.
func (s *MigratorService) Migrate(ctx context.Context, output func(string)) error {
	if err := s.configure(ctx); err != nil {
		return err
	}
	for {
		m, err := s.migrator.Run(ctx)
		if err != nil {
			return err
		}
		if m == nil {
			return nil
		}
		if output != nil {
			output("Migrating " + m.Name)
		}
	}
}

// Rollback reverts the last executed migration.
func (s *MigratorService) Rollback(ctx context.Context) (*migrator.Migration, error) {
	if err := s.configure(ctx); err != nil {
		return nil, err
	}
	return s.migrator.Rollback(ctx)
}

// Seed hands sd its database and runs it.
func (s *MigratorService) Seed(ctx context.Context, sd seed.Seed) error {
	name := seed.DatabaseName(sd)
	if aware, ok := sd.(seed.DatabaseAware); ok {
		db, err := s.dbs.Database(name)
		if err != nil {
			return fmt.Errorf("resolve seed database: %w", err)
		}
		aware.SetDatabase(db)
		name = db.Name
	}
	log.WithDatabase(s.logE, name).WithField("seed", fmt.Sprintf("%T", sd)).Debug("running seed")
	return sd.Run(ctx)
}
