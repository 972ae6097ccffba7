package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/bcomnes/cyclekit/pkg/cache"
	"github.com/bcomnes/cyclekit/pkg/command"
	"github.com/bcomnes/cyclekit/pkg/config"
	"github.com/bcomnes/cyclekit/pkg/dbal"
	"github.com/bcomnes/cyclekit/pkg/enum"
	"github.com/bcomnes/cyclekit/pkg/migrator"
	"github.com/bcomnes/cyclekit/pkg/orm"
	"github.com/bcomnes/cyclekit/pkg/schema"
	"github.com/bcomnes/cyclekit/pkg/seed"
	"github.com/bcomnes/cyclekit/pkg/service"
)

// configOf returns the configuration service, or an empty configuration when
// there is none.
func configOf(i do.Injector) (*config.Config, error) {
	cfg, err := Invoke[*config.Config](i, ServiceConfig)
	if errors.Is(err, do.ErrServiceNotFound) {
		return &config.Config{}, nil
	}
	return cfg, err
}

func (p *ConfigProvider) dbal(i do.Injector) (any, error) {
	cfg, err := configOf(i)
	if err != nil {
		return nil, err
	}
	dbCfg, err := cfg.DBConfig()
	if err != nil {
		return nil, err
	}
	return dbal.NewManager(dbCfg, dbal.WithLogger(p.logger()))
}

// migrator returns a NullMigrator when migrations are disabled.
func (p *ConfigProvider) migrator(i do.Injector) (any, error) {
	if !p.toggle().AreMigrationsEnabled() {
		return migrator.NullMigrator{}, nil
	}
	cfg, err := configOf(i)
	if err != nil {
		return nil, err
	}
	mCfg, err := cfg.Migrator()
	if err != nil {
		return nil, err
	}
	dbs, err := Invoke[dbal.Provider](i, ServiceDBAL)
	if err != nil {
		return nil, err
	}
	repo := migrator.NewFileRepository(p.fs(), mCfg)
	return migrator.New(mCfg, dbs, repo, migrator.WithLogger(p.logger()), migrator.WithClock(p.now)), nil
}

func (p *ConfigProvider) orm(i do.Injector) (any, error) {
	cfg, err := configOf(i)
	if err != nil {
		return nil, err
	}
	entities, err := cfg.Entities()
	if err != nil {
		return nil, err
	}
	dbs, err := Invoke[dbal.Provider](i, ServiceDBAL)
	if err != nil {
		return nil, err
	}
	property, err := cfg.SchemaProperty()
	if err != nil {
		return nil, err
	}

	pipeline := schema.PipelineConfig{
		Property:          property,
		MigrationsEnabled: p.toggle().AreMigrationsEnabled() && p.toggle().IsGenerateMigrationsAvailable(),
	}
	if property != nil && *property == enum.GenerateMigrations && pipeline.MigrationsEnabled {
		m, err := Invoke[migrator.Interface](i, ServiceMigrator)
		if err != nil {
			return nil, err
		}
		if pipeline.Repository, err = m.Repository(); err != nil {
			return nil, err
		}
	}
	for _, name := range cfg.Cycle.Schema.Generators {
		g, err := Invoke[schema.Generator](i, name)
		if err != nil {
			return nil, fmt.Errorf("schema generator: %w", err)
		}
		pipeline.Extra = append(pipeline.Extra, g)
	}

	opts := orm.BuildOptions{
		Locator:    schema.NewLocator(p.fs(), entities),
		DBAL:       dbs,
		Generators: schema.Pipeline(pipeline),
		CacheKey:   cfg.Cycle.Schema.Cache.Key,
		CacheTTL:   cfg.Cycle.Schema.Cache.TTL,
		Manual:     cfg.ManualMapping(),
		Logger:     p.logger(),
	}
	if cfg.Cycle.Schema.Cache.Enabled {
		if opts.Cache, err = cache.Resolve(i, cfg.Cycle.Schema.Cache.Service); err != nil {
			return nil, err
		}
	}
	// Providers have no caller context; compilation runs to completion.
	return orm.Build(context.Background(), opts)
}

func (p *ConfigProvider) migratorService(i do.Injector) (any, error) {
	m, err := Invoke[migrator.Interface](i, ServiceMigrator)
	if err != nil {
		return nil, err
	}
	dbs, err := Invoke[dbal.Provider](i, ServiceDBAL)
	if err != nil {
		return nil, err
	}
	return service.NewMigratorService(m, dbs, p.logger()), nil
}

func (p *ConfigProvider) seedRegistry(do.Injector) (any, error) {
	return seed.NewRegistry(), nil
}

// cache builds the default cache from the top-level cache section. Without
// that section the service holds nil and cache.Resolve reports ErrNoCache.
func (p *ConfigProvider) cache(i do.Injector) (any, error) {
	cfg, err := configOf(i)
	if err != nil {
		return nil, err
	}
	if cfg.Cache == nil {
		return nil, nil
	}
	return cache.New(*cfg.Cache, p.fs())
}

func (p *ConfigProvider) clearCacheCommand(i do.Injector) (any, error) {
	cfg, err := configOf(i)
	if err != nil {
		return nil, err
	}
	c, err := cache.Resolve(i, cfg.Cycle.Schema.Cache.Service)
	if err != nil && !errors.Is(err, cache.ErrNoCache) {
		return nil, err
	}
	return command.NewClearCache(c, cfg.Cycle.Schema.Cache.Key), nil
}

func (p *ConfigProvider) migrateCommand(i do.Injector) (any, error) {
	svc, err := Invoke[*service.MigratorService](i, ServiceMigratorService)
	if err != nil {
		return nil, err
	}
	return command.NewMigrate(svc), nil
}

func (p *ConfigProvider) rollbackCommand(i do.Injector) (any, error) {
	svc, err := Invoke[*service.MigratorService](i, ServiceMigratorService)
	if err != nil {
		return nil, err
	}
	return command.NewRollback(svc), nil
}

func (p *ConfigProvider) createMigrationCommand(i do.Injector) (any, error) {
	m, err := Invoke[migrator.Interface](i, ServiceMigrator)
	if err != nil {
		return nil, err
	}
	return command.NewCreateMigration(m, p.fs(), p.now), nil
}

func (p *ConfigProvider) createSeedCommand(i do.Injector) (any, error) {
	cfg, err := configOf(i)
	if err != nil {
		return nil, err
	}
	dir, err := cfg.SeedDirectory()
	if err != nil {
		return nil, err
	}
	return command.NewCreateSeed(p.fs(), dir), nil
}

func (p *ConfigProvider) runSeedCommand(i do.Injector) (any, error) {
	cfg, err := configOf(i)
	if err != nil {
		return nil, err
	}
	dir, err := cfg.SeedDirectory()
	if err != nil {
		return nil, err
	}
	svc, err := Invoke[*service.MigratorService](i, ServiceMigratorService)
	if err != nil {
		return nil, err
	}
	registry, err := Invoke[*seed.Registry](i, ServiceSeedRegistry)
	if err != nil {
		return nil, err
	}
	return command.NewRunSeed(svc, p.fs(), dir, registry), nil
}
