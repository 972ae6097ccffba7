package seed_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcomnes/cyclekit/pkg/dbal"
	"github.com/bcomnes/cyclekit/pkg/seed"
)

type usersSeed struct {
	db  *dbal.Database
	ran bool
}

func (s *usersSeed) Run(context.Context) error {
	s.ran = true
	return nil
}

func (s *usersSeed) SetDatabase(db *dbal.Database) {
	s.db = db
}

func (s *usersSeed) DatabaseName() string {
	return "logs"
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()
	r := seed.NewRegistry()
	require.NoError(t, r.Register("Users", func() seed.Seed { return &usersSeed{} }))
	require.ErrorIs(t, r.Register("users", func() seed.Seed { return &usersSeed{} }), seed.ErrInvalidName)
	require.ErrorIs(t, r.Register("Posts", nil), seed.ErrInvalidSeed)
	require.Error(t, r.Register("Users", func() seed.Seed { return &usersSeed{} }))
	assert.Equal(t, []string{"Users"}, r.Names())
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/seeds/Posts.sql", []byte("-- database: blog\nINSERT INTO posts (title) VALUES ('hi');\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/seeds/Users.sql", []byte("INSERT INTO users (id) VALUES (1);\n"), 0o644))
	r := seed.NewRegistry()
	require.NoError(t, r.Register("Users", func() seed.Seed { return &usersSeed{} }))
	l := seed.NewLoader(fs, "/seeds", r)

	s, err := l.Load("Users")
	require.NoError(t, err)
	assert.IsType(t, &usersSeed{}, s, "registered seeds win over files")
	assert.Equal(t, "logs", seed.DatabaseName(s))

	s, err = l.Load("Posts")
	require.NoError(t, err)
	sqlSeed, ok := s.(*seed.SQL)
	require.True(t, ok)
	assert.Equal(t, "blog", sqlSeed.Database)
	assert.Equal(t, filepath.Join("/seeds", "Posts.sql"), sqlSeed.Path)

	_, err = l.Load("Comments")
	require.ErrorIs(t, err, seed.ErrNotFound)
	_, err = l.Load("comments")
	require.ErrorIs(t, err, seed.ErrInvalidName)
}

func TestLoader_Names(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	for _, name := range []string{"Posts.sql", "Users.sql", "notes.sql", "README.md"} {
		require.NoError(t, afero.WriteFile(fs, "/seeds/"+name, nil, 0o644))
	}
	r := seed.NewRegistry()
	require.NoError(t, r.Register("Accounts", func() seed.Seed { return &usersSeed{} }))
	require.NoError(t, r.Register("Users", func() seed.Seed { return &usersSeed{} }))

	names, err := seed.NewLoader(fs, "/seeds", r).Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"Accounts", "Posts", "Users"}, names)

	names, err = seed.NewLoader(fs, "/missing", nil).Names()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSQL_Run(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/seeds/Users.sql", []byte("INSERT INTO users (id) VALUES (1);"), 0o644))
	s, err := seed.NewLoader(fs, "/seeds", nil).Load("Users")
	require.NoError(t, err)
	require.Error(t, s.Run(context.Background()), "running without a database fails")

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	s.(seed.DatabaseAware).SetDatabase(&dbal.Database{Name: "main-db", DB: db})
	require.NoError(t, s.Run(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSeed(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	path, err := seed.CreateSeed(fs, "/db/seeds", "Users", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/db/seeds", "Users.sql"), path)
	content, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "-- database:")

	_, err = seed.CreateSeed(fs, "/db/seeds", "Users", "")
	require.ErrorContains(t, err, "already exists")
	_, err = seed.CreateSeed(fs, "/db/seeds", "users", "")
	require.ErrorIs(t, err, seed.ErrInvalidName)
	_, err = seed.CreateSeed(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/db/seeds", "Users", "")
	require.Error(t, err)

	s, err := seed.NewLoader(fs, "/db/seeds", nil).Load("Users")
	require.NoError(t, err)
	assert.Empty(t, seed.DatabaseName(s))

	_, err = seed.CreateSeed(fs, "/db/seeds", "Logs", "logs")
	require.NoError(t, err)
	s, err = seed.NewLoader(fs, "/db/seeds", nil).Load("Logs")
	require.NoError(t, err)
	assert.Equal(t, "logs", seed.DatabaseName(s))
}
