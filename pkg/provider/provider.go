// Package provider wires the DBAL, migrator, ORM and CLI commands into a
// samber/do injector.
//
// Services are registered untyped (as any) under string names so that
// configuration can refer to them, e.g. a cache service or an extra schema
// generator. Aliases keyed by Go type names forward to those services.
package provider

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/do/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/bcomnes/cyclekit/pkg/dbal"
	"github.com/bcomnes/cyclekit/pkg/enum"
	"github.com/bcomnes/cyclekit/pkg/log"
	"github.com/bcomnes/cyclekit/pkg/migrator"
	"github.com/bcomnes/cyclekit/pkg/orm"
	"github.com/bcomnes/cyclekit/pkg/toggle"
)

// Service names.
const (
	ServiceConfig          = "config"
	ServiceDBAL            = "dbal"
	ServiceMigrator        = "migrator"
	ServiceORM             = "orm"
	ServiceMigratorService = "migrator.service"
	ServiceSeedRegistry    = "seed.registry"
	ServiceCache           = "cache"

	ServiceClearCache      = "command.cache.clear"
	ServiceMigrate         = "command.migrator.run"
	ServiceRollback        = "command.migrator.rollback"
	ServiceCreateMigration = "command.migrator.create"
	ServiceCreateSeed      = "command.seed.create"
	ServiceRunSeed         = "command.seed.run"
)

// Factory builds a service.
type Factory func(i do.Injector) (any, error)

// Dependencies lists the services of the provider.
type Dependencies struct {
	// Aliases maps an alias to the service it resolves to.
	Aliases   map[string]string
	Factories map[string]Factory
}

// CLI maps command names to the services building them.
type CLI struct {
	Commands map[enum.CommandName]string
}

// Config is what a ConfigProvider contributes to an application.
type Config struct {
	Dependencies Dependencies
	CLI          CLI
}

// ConfigProvider describes the services and commands of cyclekit.
type ConfigProvider struct {
	Toggle *toggle.Toggle
	Fs     afero.Fs
	Logger *logrus.Entry
	Now    func() time.Time
}

// New returns a ConfigProvider over the OS filesystem and environment.
func New(logE *logrus.Entry) *ConfigProvider {
	return &ConfigProvider{
		Toggle: toggle.New(),
		Fs:     afero.NewOsFs(),
		Logger: logE,
		Now:    time.Now,
	}
}

func (p *ConfigProvider) toggle() *toggle.Toggle {
	if p.Toggle == nil {
		return toggle.New()
	}
	return p.Toggle
}

func (p *ConfigProvider) fs() afero.Fs {
	if p.Fs == nil {
		return afero.NewOsFs()
	}
	return p.Fs
}

func (p *ConfigProvider) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p *ConfigProvider) logger() *logrus.Entry {
	return log.OrDiscard(p.Logger)
}

// Config returns the dependencies and commands. Migration commands are only
// present when migrations are enabled.
func (p *ConfigProvider) Config() Config {
	return Config{
		Dependencies: p.Dependencies(),
		CLI:          p.CLI(),
	}
}

func (p *ConfigProvider) Dependencies() Dependencies {
	factories := map[string]Factory{
		ServiceDBAL:            p.dbal,
		ServiceMigrator:        p.migrator,
		ServiceORM:             p.orm,
		ServiceMigratorService: p.migratorService,
		ServiceSeedRegistry:    p.seedRegistry,
		ServiceCache:           p.cache,
		ServiceClearCache:      p.clearCacheCommand,
	}
	if p.toggle().AreMigrationsEnabled() {
		factories[ServiceMigrate] = p.migrateCommand
		factories[ServiceRollback] = p.rollbackCommand
		factories[ServiceCreateMigration] = p.createMigrationCommand
		factories[ServiceCreateSeed] = p.createSeedCommand
		factories[ServiceRunSeed] = p.runSeedCommand
	}
	return Dependencies{
		Aliases: map[string]string{
			do.NameOf[dbal.Provider]():      ServiceDBAL,
			do.NameOf[migrator.Interface](): ServiceMigrator,
			do.NameOf[*orm.ORM]():           ServiceORM,
		},
		Factories: factories,
	}
}

func (p *ConfigProvider) CLI() CLI {
	commands := map[enum.CommandName]string{
		enum.ClearCache: ServiceClearCache,
	}
	if p.toggle().AreMigrationsEnabled() {
		commands[enum.RunMigration] = ServiceMigrate
		commands[enum.RollbackMigration] = ServiceRollback
		commands[enum.GenerateMigration] = ServiceCreateMigration
		commands[enum.GenerateSeed] = ServiceCreateSeed
		commands[enum.RunSeed] = ServiceRunSeed
	}
	return CLI{Commands: commands}
}

// Register installs the services and aliases of cfg into i. Services are built
// lazily on first use.
func Register(i do.Injector, cfg Config) {
	for _, name := range sortedKeys(cfg.Dependencies.Factories) {
		do.ProvideNamed[any](i, name, do.Provider[any](cfg.Dependencies.Factories[name]))
	}
	for _, alias := range sortedKeys(cfg.Dependencies.Aliases) {
		target := cfg.Dependencies.Aliases[alias]
		do.ProvideNamed[any](i, alias, func(i do.Injector) (any, error) {
			return do.InvokeNamed[any](i, target)
		})
	}
}

// Invoke returns the service name as a T.
func Invoke[T any](i do.Injector, name string) (T, error) {
	var zero T
	v, err := do.InvokeNamed[any](i, name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("service %q is %T, not %s", name, v, do.NameOf[T]())
	}
	return t, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
