package dbal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/bcomnes/cyclekit/pkg/log"
)

// ErrUnknownDatabase is returned for an alias missing from the configuration.
var ErrUnknownDatabase = errors.New("unknown database")

// Database is an opened database alias.
type Database struct {
	Name    string
	Driver  string
	Dialect string
	Prefix  string
	DB      *sql.DB
}

// Table returns name with the database prefix applied.
func (d *Database) Table(name string) string {
	return d.Prefix + name
}

// Provider hands out databases by alias.
type Provider interface {
	Database(name string) (*Database, error)
}

// Opener opens a *sql.DB. It defaults to sql.Open.
type Opener func(driverName, dsn string) (*sql.DB, error)

// Manager lazily opens configured databases and keeps them for reuse.
type Manager struct {
	cfg    Config
	open   Opener
	logE   *logrus.Entry
	mu     sync.Mutex
	opened map[string]*Database
	// pools are shared by aliases using the same connection.
	pools map[string]*sql.DB
}

// Option configures a Manager.
type Option func(*Manager)

// WithOpener replaces sql.Open, e.g. to hand out sqlmock connections.
func WithOpener(open Opener) Option {
	return func(m *Manager) {
		m.open = open
	}
}

func WithLogger(logE *logrus.Entry) Option {
	return func(m *Manager) {
		m.logE = logE
	}
}

// NewManager validates cfg and returns a Manager. No connection is opened.
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}
	m := &Manager{
		cfg:    cfg,
		open:   sql.Open,
		opened: make(map[string]*Database),
		pools:  make(map[string]*sql.DB),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logE = log.OrDiscard(m.logE)
	return m, nil
}

// Config returns the configuration the manager was built with.
func (m *Manager) Config() Config {
	return m.cfg
}

// Default returns the alias used for an empty name.
func (m *Manager) Default() string {
	return m.cfg.defaultAlias()
}

// Databases lists the configured aliases, sorted.
func (m *Manager) Databases() []string {
	return sortedKeys(m.cfg.Databases)
}

// Database returns the database for alias, opening it on first use.
func (m *Manager) Database(name string) (*Database, error) {
	if name == "" {
		name = m.Default()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if db, ok := m.opened[name]; ok {
		return db, nil
	}
	dbCfg, ok := m.cfg.Databases[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDatabase, name)
	}
	connCfg := m.cfg.Connections[dbCfg.Connection]
	info, err := lookupDriver(connCfg.Driver)
	if err != nil {
		return nil, err
	}

	pool, ok := m.pools[dbCfg.Connection]
	if !ok {
		pool, err = m.open(info.sqlName, connCfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open connection %q: %w", dbCfg.Connection, err)
		}
		if connCfg.MaxOpenConns > 0 {
			pool.SetMaxOpenConns(connCfg.MaxOpenConns)
		}
		if connCfg.MaxIdleConns > 0 {
			pool.SetMaxIdleConns(connCfg.MaxIdleConns)
		}
		if connCfg.ConnMaxLifetime > 0 {
			pool.SetConnMaxLifetime(connCfg.ConnMaxLifetime)
		}
		m.pools[dbCfg.Connection] = pool
		m.logE.WithFields(logrus.Fields{
			"connection": dbCfg.Connection,
			"driver":     info.sqlName,
		}).Debug("opened database connection")
	}

	db := &Database{
		Name:    name,
		Driver:  info.sqlName,
		Dialect: info.dialect,
		Prefix:  dbCfg.Prefix,
		DB:      pool,
	}
	m.opened[name] = db
	return db, nil
}

// Ping opens and pings every configured database concurrently.
func (m *Manager) Ping(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, name := range m.Databases() {
		db, err := m.Database(name)
		if err != nil {
			return err
		}
		eg.Go(func() error {
			if err := db.DB.PingContext(ctx); err != nil {
				return fmt.Errorf("ping database %q: %w", db.Name, err)
			}
			return nil
		})
	}
	return eg.Wait()
}

// Close closes every opened connection pool.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for name, pool := range m.pools {
		if err := pool.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection %q: %w", name, err))
		}
	}
	m.pools = make(map[string]*sql.DB)
	m.opened = make(map[string]*Database)
	return errors.Join(errs...)
}

// Shutdown closes the manager when its injector shuts down.
func (m *Manager) Shutdown() error {
	return m.Close()
}
