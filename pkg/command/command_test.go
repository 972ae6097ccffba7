package command_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcomnes/cyclekit/pkg/cache"
	"github.com/bcomnes/cyclekit/pkg/command"
	"github.com/bcomnes/cyclekit/pkg/dbal"
	"github.com/bcomnes/cyclekit/pkg/enum"
	"github.com/bcomnes/cyclekit/pkg/migrator"
	"github.com/bcomnes/cyclekit/pkg/seed"
	"github.com/bcomnes/cyclekit/pkg/service"
)

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func newManager(t *testing.T) *dbal.Manager {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	m, err := dbal.NewManager(dbal.Config{
		Databases: map[string]dbal.DatabaseConfig{
			dbal.DefaultDatabase: {Connection: "main"},
		},
		Connections: map[string]dbal.ConnectionConfig{
			"main": {Driver: "sqlite", DSN: "file:" + name + "?mode=memory&cache=shared", MaxOpenConns: 1},
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

type env struct {
	fs  afero.Fs
	mgr *dbal.Manager
	m   *migrator.Migrator
	svc *service.MigratorService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	fs := afero.NewMemMapFs()
	mgr := newManager(t)
	cfg := migrator.Config{Directory: "/db/migrations", SeedDirectory: "/db/seeds"}
	m := migrator.New(cfg, mgr, migrator.NewFileRepository(fs, cfg))
	return &env{fs: fs, mgr: mgr, m: m, svc: service.NewMigratorService(m, mgr, nil)}
}

func fixedNow() time.Time {
	return time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
}

func TestCreateMigration(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	out, err := execute(t, command.NewCreateMigration(e.m, e.fs, fixedNow), "CreateUsers", "-b", "logs")
	require.NoError(t, err)
	path := filepath.Join("/db/migrations", "20240203.040506_0_0_CreateUsers.sql")
	assert.Contains(t, out, "[OK] Migration created: "+path)
	content, err := afero.ReadFile(e.fs, path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "-- database: logs")

	out, err = execute(t, command.NewCreateMigration(e.m, e.fs, fixedNow), "create_users")
	require.ErrorIs(t, err, command.ErrFailure)
	assert.Contains(t, out, "Invalid migration name. Use PascalCase format.")

	out, err = execute(t, command.NewCreateMigration(migrator.NullMigrator{}, e.fs, fixedNow), "CreateUsers")
	require.ErrorIs(t, err, command.ErrFailure)
	assert.Contains(t, out, "Failed to create migration: migrations are disabled")

	_, err = execute(t, command.NewCreateMigration(e.m, e.fs, fixedNow))
	require.Error(t, err)
}

func TestMigrateAndRollback(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	body := "-- +migrate up\nCREATE TABLE users (id INTEGER PRIMARY KEY);\n-- +migrate down\nDROP TABLE users;\n"
	require.NoError(t, afero.WriteFile(e.fs, "/db/migrations/20240101.000000_0_0_CreateUsers.sql", []byte(body), 0o644))

	out, err := execute(t, command.NewMigrate(e.svc))
	require.NoError(t, err)
	assert.Contains(t, out, "Starting Migration Process")
	assert.Contains(t, out, "Migrating CreateUsers")
	assert.Contains(t, out, "[OK] Migration successful")

	out, err = execute(t, command.NewRollback(e.svc))
	require.NoError(t, err)
	assert.Contains(t, out, "[OK] Migration rollback successful")

	out, err = execute(t, command.NewRollback(e.svc))
	require.NoError(t, err)
	assert.Contains(t, out, "No executed migration to roll back.")
}

func TestMigrate_Error(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	require.NoError(t, afero.WriteFile(e.fs, "/db/migrations/20240101.000000_0_0_Broken.sql", []byte("-- +migrate up\nCREATE TABLE (;\n"), 0o644))

	out, err := execute(t, command.NewMigrate(e.svc))
	require.ErrorIs(t, err, command.ErrFailure)
	assert.Contains(t, out, "An error occurred during migration:")

	disabled := service.NewMigratorService(migrator.NullMigrator{}, e.mgr, nil)
	out, err = execute(t, command.NewRollback(disabled))
	require.ErrorIs(t, err, command.ErrFailure)
	assert.Contains(t, out, "CYCLE_MIGRATIONS_DISABLED")
}

func TestCreateSeed(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()

	out, err := execute(t, command.NewCreateSeed(fs, "/db/seeds"), "Users", "--database", "logs")
	require.NoError(t, err)
	assert.Contains(t, out, "Seed created: "+filepath.Join("/db/seeds", "Users.sql"))

	out, err = execute(t, command.NewCreateSeed(fs, "/db/seeds"))
	require.ErrorIs(t, err, command.ErrFailure)
	assert.Contains(t, out, "Seed name is required.")

	out, err = execute(t, command.NewCreateSeed(fs, "/db/seeds"), "users")
	require.ErrorIs(t, err, command.ErrFailure)
	assert.Contains(t, out, "Invalid seed name. Use PascalCase format.")

	out, err = execute(t, command.NewCreateSeed(afero.NewReadOnlyFs(fs), "/db/other"), "Users")
	require.ErrorIs(t, err, command.ErrFailure)
	assert.Contains(t, out, "Failed to create seed:")
}

type goSeed struct {
	err error
}

func (s *goSeed) Run(context.Context) error {
	return s.err
}

func TestRunSeed(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	db, err := e.mgr.Database("")
	require.NoError(t, err)
	_, err = db.DB.Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(e.fs, "/db/seeds/Users.sql", []byte("INSERT INTO users (id) VALUES (1);\n"), 0o644))
	registry := seed.NewRegistry()
	require.NoError(t, registry.Register("Settings", func() seed.Seed { return &goSeed{} }))

	out, err := execute(t, command.NewRunSeed(e.svc, e.fs, "/db/seeds", registry), "Users")
	require.NoError(t, err)
	assert.Contains(t, out, "Running seed: Users")
	assert.Contains(t, out, `Seed "Users" executed successfully.`)

	out, err = execute(t, command.NewRunSeed(e.svc, e.fs, "/db/seeds", registry), "--seed", "Missing")
	require.ErrorIs(t, err, command.ErrFailure)
	assert.Contains(t, out, `Seed file "Missing" not found in directory "/db/seeds".`)

	// Users fails the second time on the primary key.
	out, err = execute(t, command.NewRunSeed(e.svc, e.fs, "/db/seeds", registry))
	require.ErrorIs(t, err, command.ErrFailure)
	assert.Contains(t, out, "Running seed: Settings")
	assert.Contains(t, out, "Seed execution completed with errors. 1 succeeded, 1 failed.")

	require.NoError(t, afero.WriteFile(e.fs, "/other/Users.sql", []byte("DELETE FROM users;\n"), 0o644))
	out, err = execute(t, command.NewRunSeed(e.svc, e.fs, "/db/seeds", registry), "--directory", "/other")
	require.NoError(t, err)
	assert.Contains(t, out, "All 2 seeds executed successfully.")
}

func TestRunSeed_Empty(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	out, err := execute(t, command.NewRunSeed(e.svc, e.fs, "/db/seeds", nil), "-d", "/does/not/exist")
	require.NoError(t, err)
	assert.Contains(t, out, `No seed files found in directory "/db/seeds".`)
}

type failingCache struct {
	cache.Cache
}

func (failingCache) Delete(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

func TestClearCache(t *testing.T) {
	t.Parallel()
	mem, err := cache.NewMemory(1)
	require.NoError(t, err)
	require.NoError(t, mem.Set(context.Background(), cache.DefaultKey, []byte("x"), 0))

	out, err := execute(t, command.NewClearCache(mem, ""))
	require.NoError(t, err)
	assert.Contains(t, out, "[OK] Cycle ORM schema cache has been cleared successfully.")

	out, err = execute(t, command.NewClearCache(mem, ""))
	require.NoError(t, err)
	assert.Contains(t, out, "No cache entry was found to clear.")

	out, err = execute(t, command.NewClearCache(nil, ""))
	require.NoError(t, err)
	assert.Contains(t, out, "Schema cache is disabled by configuration. Nothing to clear.")

	out, err = execute(t, command.NewClearCache(failingCache{}, ""))
	require.ErrorIs(t, err, command.ErrFailure)
	assert.Contains(t, out, "Failed to clear Cycle ORM schema cache: connection refused")
}

func TestFailing(t *testing.T) {
	t.Parallel()
	out, err := execute(t, command.Failing(enum.RunMigration, command.MigrateShort, errors.New("expected config migrator")), "extra")
	require.ErrorIs(t, err, command.ErrFailure)
	assert.Contains(t, out, "[ERROR] expected config migrator")
}
