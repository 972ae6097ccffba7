// Package config loads the cyclekit configuration file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/bcomnes/cyclekit/pkg/cache"
	"github.com/bcomnes/cyclekit/pkg/dbal"
	"github.com/bcomnes/cyclekit/pkg/enum"
	"github.com/bcomnes/cyclekit/pkg/migrator"
	"github.com/bcomnes/cyclekit/pkg/schema"
)

// ErrMissing is wrapped by errors about absent configuration sections.
var ErrMissing = errors.New("missing configuration")

// Missing returns an error naming the absent section.
func Missing(section string) error {
	return fmt.Errorf("expected config %s: %w", section, ErrMissing)
}

// Config is the whole configuration file.
type Config struct {
	Cycle Cycle `mapstructure:"cycle" yaml:"cycle"`

	// Cache configures the default "cache" service. Nil means no such service.
	Cache *cache.Config `mapstructure:"cache" yaml:"cache"`
}

// Cycle groups the ORM, DBAL and migrator settings. Pointers are nil when the
// section is absent.
type Cycle struct {
	DBConfig *dbal.Config     `mapstructure:"db-config" yaml:"db-config"`
	Entities *[]string        `mapstructure:"entities" yaml:"entities"`
	Schema   Schema           `mapstructure:"schema" yaml:"schema"`
	Migrator *migrator.Config `mapstructure:"migrator" yaml:"migrator"`
}

// Schema configures schema compilation.
type Schema struct {
	// Property is "", "sync_tables" (0) or "generate_migrations" (1).
	Property string `mapstructure:"property" yaml:"property"`

	// Generators are service names appended to the pipeline in order.
	Generators []string    `mapstructure:"generators" yaml:"generators"`
	Cache      SchemaCache `mapstructure:"cache" yaml:"cache"`

	ManualMappingSchemaDefinitions map[string]*schema.Entity `mapstructure:"manual_mapping_schema_definitions" yaml:"manual_mapping_schema_definitions"`
}

type SchemaCache struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Key     string `mapstructure:"key" yaml:"key"`
	// Service names the cache service. Empty falls back to "cache".
	Service string        `mapstructure:"service" yaml:"service"`
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// DBConfig returns the DBAL configuration.
func (c *Config) DBConfig() (dbal.Config, error) {
	if c.Cycle.DBConfig == nil {
		return dbal.Config{}, Missing("databases")
	}
	return *c.Cycle.DBConfig, nil
}

// Entities returns the entity directories.
func (c *Config) Entities() ([]string, error) {
	if c.Cycle.Entities == nil {
		return nil, Missing("entities")
	}
	return *c.Cycle.Entities, nil
}

// Migrator returns the migrator configuration.
func (c *Config) Migrator() (migrator.Config, error) {
	if c.Cycle.Migrator == nil {
		return migrator.Config{}, Missing("migrator")
	}
	return *c.Cycle.Migrator, nil
}

// SeedDirectory returns the directory seeds are read from and written to.
func (c *Config) SeedDirectory() (string, error) {
	m, err := c.Migrator()
	if err != nil {
		return "", err
	}
	if m.SeedDirectory == "" {
		return "", Missing("migrator.seed-directory")
	}
	return m.SeedDirectory, nil
}

// SchemaProperty parses cycle.schema.property.
func (c *Config) SchemaProperty() (*enum.SchemaProperty, error) {
	p, err := enum.ParseSchemaProperty(c.Cycle.Schema.Property)
	if err != nil {
		return nil, fmt.Errorf("cycle.schema.property: %w", err)
	}
	return p, nil
}

// ManualMapping returns the hand-written entities keyed by role. Entities
// that set a role are keyed by it.
func (c *Config) ManualMapping() schema.Schema {
	if len(c.Cycle.Schema.ManualMappingSchemaDefinitions) == 0 {
		return nil
	}
	s := make(schema.Schema, len(c.Cycle.Schema.ManualMappingSchemaDefinitions))
	for key, e := range c.Cycle.Schema.ManualMappingSchemaDefinitions {
		if e == nil {
			continue
		}
		if e.Role != "" {
			key = e.Role
		}
		s[key] = e
	}
	return s
}
