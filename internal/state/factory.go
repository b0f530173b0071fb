package state

import (
	"fmt"
	"sync"
)

// Config selects and parameterizes a store backend.
type Config struct {
	Type string `toml:"type" mapstructure:"type"` // "file" (default), "sqlite", "postgres"
	Path string `toml:"path" mapstructure:"path"` // file and sqlite backends
	DSN  string `toml:"dsn" mapstructure:"dsn"`   // postgres backend
}

// Builder is a function that creates a store from config.
type Builder func(cfg Config) (Store, error)

type factory struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

var globalFactory = &factory{builders: make(map[string]Builder)}

func init() {
	RegisterStoreType("file", func(cfg Config) (Store, error) {
		return NewFileStore(cfg.Path), nil
	})
	RegisterStoreType("sqlite", func(cfg Config) (Store, error) {
		return NewSQLiteStore(cfg.Path)
	})
	RegisterStoreType("postgres", func(cfg Config) (Store, error) {
		return NewPostgresStore(cfg.DSN)
	})
	RegisterStoreType("postgresql", func(cfg Config) (Store, error) {
		return NewPostgresStore(cfg.DSN)
	})
}

// RegisterStoreType registers a builder for a store type. Embedders can add
// their own backends before calling New.
func RegisterStoreType(storeType string, b Builder) {
	globalFactory.mu.Lock()
	globalFactory.builders[storeType] = b
	globalFactory.mu.Unlock()
}

// New creates a store from config. An empty type selects the file backend.
func New(cfg Config) (Store, error) {
	t := cfg.Type
	if t == "" {
		t = "file"
	}
	globalFactory.mu.RLock()
	b, ok := globalFactory.builders[t]
	globalFactory.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported state store type: %s (supported: %v)", t, SupportedTypes())
	}
	return b(cfg)
}

// SupportedTypes returns the registered store type names.
func SupportedTypes() []string {
	globalFactory.mu.RLock()
	defer globalFactory.mu.RUnlock()
	out := make([]string, 0, len(globalFactory.builders))
	for t := range globalFactory.builders {
		out = append(out, t)
	}
	return out
}
