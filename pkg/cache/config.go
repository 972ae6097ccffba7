package cache

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
)

// Adapters.
const (
	AdapterMemory = "memory"
	AdapterFile   = "file"
	AdapterRedis  = "redis"
)

// Config selects and configures the default cache service.
type Config struct {
	Adapter   string      `mapstructure:"adapter" yaml:"adapter"`
	Size      int         `mapstructure:"size" yaml:"size"`
	Directory string      `mapstructure:"directory" yaml:"directory"`
	Redis     RedisConfig `mapstructure:"redis" yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
}

// New builds the cache cfg describes. File caches live on fs.
func New(cfg Config, fs afero.Fs) (Cache, error) {
	switch cfg.Adapter {
	case "", AdapterMemory:
		return NewMemory(cfg.Size)
	case AdapterFile:
		if cfg.Directory == "" {
			return nil, fmt.Errorf("file cache needs a directory")
		}
		return NewFile(fs, cfg.Directory), nil
	case AdapterRedis:
		addr := cfg.Redis.Addr
		if addr == "" {
			addr = "localhost:6379"
		}
		return NewRedis(redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})), nil
	}
	return nil, fmt.Errorf("unknown cache adapter %q", cfg.Adapter)
}
