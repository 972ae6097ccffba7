// Package dbal manages named database connections. A database alias points at a
// connection; connections carry the driver, DSN and pool settings.
package dbal

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// DefaultDatabase is the alias used when none is given.
const DefaultDatabase = "main-db"

// Config describes databases and the connections backing them.
type Config struct {
	// Default is the alias returned for an empty database name.
	Default string `mapstructure:"default" yaml:"default"`

	Databases   map[string]DatabaseConfig   `mapstructure:"databases" yaml:"databases"`
	Connections map[string]ConnectionConfig `mapstructure:"connections" yaml:"connections"`
}

// DatabaseConfig binds a database alias to a connection.
type DatabaseConfig struct {
	Connection string `mapstructure:"connection" yaml:"connection"`

	// Prefix is prepended to every table of the database.
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
}

// ConnectionConfig holds the driver settings of a connection.
type ConnectionConfig struct {
	// Driver is one of: pg, pgx, postgres, sqlite3, sqlite, mysql.
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"`

	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// Validate checks that every database points at a known connection with a
// supported driver.
func (c *Config) Validate() error {
	if len(c.Databases) == 0 {
		return errors.New("at least one database is required")
	}
	if c.Default != "" {
		if _, ok := c.Databases[c.Default]; !ok {
			return fmt.Errorf("default database %q is not defined", c.Default)
		}
	}
	for _, name := range sortedKeys(c.Databases) {
		db := c.Databases[name]
		conn, ok := c.Connections[db.Connection]
		if !ok {
			return fmt.Errorf("database %q: connection %q is not defined", name, db.Connection)
		}
		if _, err := lookupDriver(conn.Driver); err != nil {
			return fmt.Errorf("database %q: %w", name, err)
		}
	}
	return nil
}

// defaultAlias resolves the alias used for an empty name.
func (c *Config) defaultAlias() string {
	if c.Default != "" {
		return c.Default
	}
	if _, ok := c.Databases[DefaultDatabase]; ok {
		return DefaultDatabase
	}
	if len(c.Databases) == 1 {
		for name := range c.Databases {
			return name
		}
	}
	return DefaultDatabase
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
