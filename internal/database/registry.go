package database

import (
	"fmt"
	"sort"
	"sync"

	"github.com/orakit-io/orakit/internal/errs"
)

// Factory builds a Connector from a validated Config.
type Factory func(cfg *Config) (Connector, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a connector implementation available under the given
// name. Drivers call it from init, the same way database/sql drivers
// self-register; registering the same name twice panics because it is a
// wiring bug, not a runtime condition.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if factory == nil {
		panic("database: Register with nil factory")
	}
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("database: Register called twice for %q", name))
	}
	registry[name] = factory
}

// Open builds a Connector for cfg.Driver. Unknown driver names report
// the registered alternatives so misconfiguration is diagnosable.
func Open(cfg *Config) (Connector, error) {
	registryMu.RLock()
	factory, ok := registry[cfg.Driver]
	registryMu.RUnlock()

	if !ok {
		return nil, errs.New(errs.Unknown,
			fmt.Sprintf("unknown driver %q (registered: %v)", cfg.Driver, Drivers()))
	}
	return factory(cfg)
}

// Drivers returns the sorted names of all registered connectors.
func Drivers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
