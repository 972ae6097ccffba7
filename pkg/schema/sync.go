package schema

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"
	"github.com/go-openapi/inflect"

	"github.com/bcomnes/cyclekit/pkg/dbal"
	"github.com/bcomnes/cyclekit/pkg/log"
	"github.com/bcomnes/cyclekit/pkg/migrator"
)

// openDriver returns the atlas driver of db.
func openDriver(db *dbal.Database) (migrate.Driver, error) {
	switch db.Dialect {
	case dbal.DialectSQLite:
		return sqlite.Open(db.DB)
	case dbal.DialectPostgres:
		return postgres.Open(db.DB)
	case dbal.DialectMySQL:
		return mysql.Open(db.DB)
	}
	return nil, fmt.Errorf("dialect %q not supported", db.Dialect)
}

// diff compares the rendered tables of database with what exists.
func diff(ctx context.Context, r *Registry, database string) (migrate.Driver, *schema.Schema, *schema.Schema, error) {
	db, err := r.dbs.Database(database)
	if err != nil {
		return nil, nil, nil, err
	}
	drv, err := openDriver(db)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open schema driver for %q: %w", database, err)
	}
	desired := r.Schema(database)
	names := make([]string, 0, len(desired.Tables))
	for _, t := range desired.Tables {
		names = append(names, t.Name)
	}
	current, err := drv.InspectSchema(ctx, "", &schema.InspectOptions{Tables: names})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("inspect %q: %w", database, err)
	}
	desired.Name = current.Name
	return drv, current, desired, nil
}

// SyncTables applies the rendered tables to the databases. Tables are
// created and altered, never dropped.
type SyncTables struct{}

func (SyncTables) Run(ctx context.Context, r *Registry) error {
	for _, database := range r.Databases() {
		drv, current, desired, err := diff(ctx, r, database)
		if err != nil {
			return err
		}
		changes, err := drv.SchemaDiff(current, desired)
		if err != nil {
			return fmt.Errorf("diff %q: %w", database, err)
		}
		changes = withoutDrops(changes)
		if len(changes) == 0 {
			continue
		}
		log.WithDatabase(r.logE, database).WithField("changes", len(changes)).Info("syncing tables")
		if err := drv.ApplyChanges(ctx, changes); err != nil {
			return fmt.Errorf("sync tables of %q: %w", database, err)
		}
	}
	return nil
}

func withoutDrops(changes []schema.Change) []schema.Change {
	kept := changes[:0]
	for _, c := range changes {
		if _, ok := c.(*schema.DropTable); ok {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// GenerateMigrations writes the difference between the rendered tables and
// the databases as migrations, one per database with changes.
type GenerateMigrations struct {
	Repository migrator.Repository
}

// MigrationName is the name of generated migrations for database.
func MigrationName(database string) string {
	parts := strings.FieldsFunc(database, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	b.WriteString("OrmDefault")
	for _, p := range parts {
		b.WriteString(inflect.Capitalize(p))
	}
	return b.String()
}

func (g GenerateMigrations) Run(ctx context.Context, r *Registry) error {
	for _, database := range r.Databases() {
		drv, current, desired, err := diff(ctx, r, database)
		if err != nil {
			return err
		}
		up, err := drv.SchemaDiff(current, desired)
		if err != nil {
			return fmt.Errorf("diff %q: %w", database, err)
		}
		up = withoutDrops(up)
		if len(up) == 0 {
			continue
		}
		down, err := drv.SchemaDiff(desired, current)
		if err != nil {
			return fmt.Errorf("diff %q: %w", database, err)
		}
		upSQL, err := plan(ctx, drv, "up", up)
		if err != nil {
			return err
		}
		downSQL, err := plan(ctx, drv, "down", down)
		if err != nil {
			return err
		}
		m, err := g.Repository.Register(MigrationName(database), database, upSQL, downSQL)
		if err != nil {
			return fmt.Errorf("register migration for %q: %w", database, err)
		}
		log.WithDatabase(r.logE, database).WithField("migration", m.Filename).Info("generated migration")
	}
	return nil
}

func plan(ctx context.Context, drv migrate.Driver, name string, changes []schema.Change) (string, error) {
	if len(changes) == 0 {
		return "", nil
	}
	p, err := drv.PlanChanges(ctx, name, changes)
	if err != nil {
		return "", fmt.Errorf("plan %s changes: %w", name, err)
	}
	stmts := make([]string, 0, len(p.Changes))
	for _, c := range p.Changes {
		stmts = append(stmts, strings.TrimSuffix(c.Cmd, ";")+";")
	}
	return strings.Join(stmts, "\n"), nil
}
