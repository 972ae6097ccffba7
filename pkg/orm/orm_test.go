package orm_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcomnes/cyclekit/pkg/cache"
	"github.com/bcomnes/cyclekit/pkg/dbal"
	"github.com/bcomnes/cyclekit/pkg/enum"
	"github.com/bcomnes/cyclekit/pkg/orm"
	"github.com/bcomnes/cyclekit/pkg/schema"
)

const entities = `role: user
columns:
  id: primary
  email: string
  active: boolean
  score:
    type: float
    nullable: true
behaviors: [timestamps]
---
role: admin
extends: user
columns:
  level: integer
`

func newManager(t *testing.T, prefix string) *dbal.Manager {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	m, err := dbal.NewManager(dbal.Config{
		Databases: map[string]dbal.DatabaseConfig{
			dbal.DefaultDatabase: {Connection: "main", Prefix: prefix},
		},
		Connections: map[string]dbal.ConnectionConfig{
			"main": {Driver: "sqlite", DSN: "file:" + name + "?mode=memory&cache=shared", MaxOpenConns: 1},
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func buildOptions(t *testing.T, mgr *dbal.Manager, c cache.Cache) orm.BuildOptions {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/entities/user.yaml", []byte(entities), 0o644))
	sync := enum.SyncTables
	return orm.BuildOptions{
		Locator:    schema.NewLocator(fs, []string{"/entities"}),
		DBAL:       mgr,
		Generators: schema.Pipeline(schema.PipelineConfig{Property: &sync}),
		Cache:      c,
	}
}

func TestBuild_Select(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mgr := newManager(t, "app_")

	o, err := orm.Build(ctx, buildOptions(t, mgr, nil))
	require.NoError(t, err)

	table, err := o.Table("user")
	require.NoError(t, err)
	assert.Equal(t, "app_users", table)
	db, err := o.Database("admin")
	require.NoError(t, err)
	assert.Equal(t, dbal.DefaultDatabase, db.Name)

	_, err = db.DB.ExecContext(ctx, `INSERT INTO app_users (email, active, score, created_at, _type, level)
		VALUES ('a@example.com', 1, NULL, '2024-01-02 03:04:05', NULL, NULL),
		       ('b@example.com', 0, 1.5, '2024-01-02 03:04:05', 'admin', 3)`)
	require.NoError(t, err)

	users, err := o.Select(ctx, "user", map[string]any{"email": "a@example.com"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(1), users[0]["id"])
	assert.Equal(t, true, users[0]["active"])
	assert.Nil(t, users[0]["score"])
	createdAt, ok := users[0]["createdAt"].(time.Time)
	require.True(t, ok)
	assert.True(t, createdAt.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)), createdAt)

	admins, err := o.Select(ctx, "admin", nil)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "b@example.com", admins[0]["email"])
	assert.Equal(t, int64(3), admins[0]["level"])
	assert.Equal(t, 1.5, admins[0]["score"])

	_, err = o.Select(ctx, "user", map[string]any{"nope": 1})
	require.Error(t, err)
	_, err = o.Select(ctx, "ghost", nil)
	require.ErrorIs(t, err, orm.ErrUnknownRole)
}

type countingCache struct {
	cache.Cache
	sets int
}

func (c *countingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.sets++
	return c.Cache.Set(ctx, key, value, ttl)
}

func TestBuild_Cache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem, err := cache.NewMemory(4)
	require.NoError(t, err)
	c := &countingCache{Cache: mem}

	first, err := orm.Build(ctx, buildOptions(t, newManager(t, ""), c))
	require.NoError(t, err)
	assert.Equal(t, 1, c.sets)

	// A cached schema is used without reading definitions.
	opts := buildOptions(t, newManager(t, ""), c)
	opts.Locator = schema.NewLocator(afero.NewMemMapFs(), []string{"/missing"})
	opts.Manual = schema.Schema{"audit": {Table: "audit_log"}}
	second, err := orm.Build(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, c.sets)
	assert.Equal(t, first.Schema()["user"], second.Schema()["user"])
	table, err := second.Table("audit")
	require.NoError(t, err)
	assert.Equal(t, "audit_log", table)
}

func TestTypecast(t *testing.T) {
	t.Parallel()
	tests := []struct {
		rule string
		in   any
		want any
	}{
		{schema.CastInt, []byte("42"), int64(42)},
		{schema.CastInt, int64(7), int64(7)},
		{schema.CastFloat, "2.5", 2.5},
		{schema.CastFloat, int64(2), 2.0},
		{schema.CastBool, int64(0), false},
		{schema.CastBool, "true", true},
		{schema.CastJSON, `{"a":1}`, map[string]any{"a": float64(1)}},
		{schema.CastString, int64(5), "5"},
		{schema.CastDatetime, "2024-01-02", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{schema.CastString, nil, nil},
	}
	for _, tt := range tests {
		got, err := orm.Typecast(tt.rule, tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s(%v)", tt.rule, tt.in)
	}
	_, err := orm.Typecast(schema.CastInt, "x")
	require.Error(t, err)
	_, err = orm.Typecast(schema.CastDatetime, "yesterday")
	require.Error(t, err)
}
