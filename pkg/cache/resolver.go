package cache

import (
	"errors"
	"fmt"

	"github.com/samber/do/v2"
)

// ServiceName is the default cache service.
const ServiceName = "cache"

// Resolve finds the schema cache in injector: the named service when
// service is set, else the default cache service. A missing or nil default
// service yields ErrNoCache.
func Resolve(injector do.Injector, service string) (Cache, error) {
	if service != "" {
		v, err := do.InvokeNamed[any](injector, service)
		if err != nil {
			return nil, fmt.Errorf("resolve cache service %q: %w", service, err)
		}
		c, ok := v.(Cache)
		if !ok {
			return nil, fmt.Errorf("%w: service %q is %T", ErrNotCache, service, v)
		}
		return c, nil
	}
	v, err := do.InvokeNamed[any](injector, ServiceName)
	if errors.Is(err, do.ErrServiceNotFound) {
		return nil, ErrNoCache
	}
	if err != nil {
		return nil, fmt.Errorf("resolve cache service: %w", err)
	}
	if v == nil {
		return nil, ErrNoCache
	}
	c, ok := v.(Cache)
	if !ok {
		return nil, fmt.Errorf("%w: service %q is %T", ErrNotCache, ServiceName, v)
	}
	return c, nil
}
