package orm

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bcomnes/cyclekit/pkg/cache"
	"github.com/bcomnes/cyclekit/pkg/dbal"
	"github.com/bcomnes/cyclekit/pkg/log"
	"github.com/bcomnes/cyclekit/pkg/schema"
)

// BuildOptions describe how the schema of an ORM is obtained.
type BuildOptions struct {
	Locator    *schema.Locator
	DBAL       dbal.Provider
	Generators []schema.Generator

	// Cache short-circuits compilation when it holds a schema. Nil disables caching.
	Cache    cache.Cache
	CacheKey string
	CacheTTL time.Duration

	// Manual entities replace compiled ones with the same role.
	Manual schema.Schema

	Logger *logrus.Entry
}

// Build compiles or loads the schema and returns the ORM.
func Build(ctx context.Context, opts BuildOptions) (*ORM, error) {
	logE := log.OrDiscard(opts.Logger)
	key := opts.CacheKey
	if key == "" {
		key = cache.DefaultKey
	}

	if opts.Cache != nil {
		b, ok, err := opts.Cache.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read schema cache: %w", err)
		}
		if ok {
			s, err := schema.Decode(b)
			if err == nil {
				logE.WithField("key", key).Debug("loaded schema from cache")
				return New(opts.DBAL, s.Merge(opts.Manual)), nil
			}
			logE.WithError(err).Warn("ignoring unreadable schema cache")
		}
	}

	defs, err := opts.Locator.Definitions()
	if err != nil {
		return nil, err
	}
	reg := schema.NewRegistry(opts.DBAL, defs, logE)
	s, err := schema.NewCompiler(logE).Compile(ctx, reg, opts.Generators)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	if opts.Cache != nil {
		b, err := schema.Encode(s)
		if err != nil {
			return nil, err
		}
		if err := opts.Cache.Set(ctx, key, b, opts.CacheTTL); err != nil {
			return nil, fmt.Errorf("write schema cache: %w", err)
		}
	}
	return New(opts.DBAL, s.Merge(opts.Manual)), nil
}
