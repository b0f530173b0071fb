package zypin

import (
	"context"
	"log/slog"

	"github.com/zypin-testing/zypin-core/internal/config"
	"github.com/zypin-testing/zypin-core/internal/logger"
	"github.com/zypin-testing/zypin-core/internal/provider"
	"github.com/zypin-testing/zypin-core/internal/registry"
	"github.com/zypin-testing/zypin-core/internal/server"
	"github.com/zypin-testing/zypin-core/internal/state"
	"github.com/zypin-testing/zypin-core/internal/supervisor"
)

// Re-export core types for embedding hosts. These are aliases, so
// conversions are zero-cost.

type Capability = provider.Capability

const (
	CapStart  = provider.CapStart
	CapRun    = provider.CapRun
	CapHealth = provider.CapHealth
)

type Package = provider.Package

type Template = registry.Template

type Record = state.Record

type StoreConfig = state.Config

type Snapshot = supervisor.Snapshot

type Config = config.Config

// LoadConfig reads the TOML file at path (may be empty) and applies
// ZYPIN_* environment overrides.
func LoadConfig(path string) (Config, error) { return config.Load(path) }

// NewLogger builds the colored stderr logger used by the CLI.
func NewLogger(level string) *slog.Logger { return logger.New(level) }

// Registry is a thin facade over the internal plugin registry.
type Registry struct{ inner *registry.Registry }

// NewRegistry creates a registry over the given package roots.
func NewRegistry(roots []string, log *slog.Logger) *Registry {
	return &Registry{inner: registry.New(roots, log)}
}

func (r *Registry) Discover()                                  { r.inner.Discover() }
func (r *Registry) Reload()                                    { r.inner.Reload() }
func (r *Registry) Lookup(name string) (*Package, bool)        { return r.inner.Lookup(name) }
func (r *Registry) LookupTemplate(id string) (*Template, bool) { return r.inner.LookupTemplate(id) }
func (r *Registry) Providers() []*Package                      { return r.inner.Providers() }
func (r *Registry) Templates() []*Template                     { return r.inner.Templates() }

// Supervisor is a thin facade over the internal process supervisor.
type Supervisor struct{ inner *supervisor.Supervisor }

// NewSupervisor creates a supervisor persisting into the configured store.
func NewSupervisor(storeCfg StoreConfig, log *slog.Logger) (*Supervisor, error) {
	st, err := state.New(storeCfg)
	if err != nil {
		return nil, err
	}
	return &Supervisor{inner: supervisor.New(supervisor.Options{Store: st, Logger: log})}, nil
}

func (s *Supervisor) StartPackage(ctx context.Context, name string, p *Package) bool {
	return s.inner.StartPackage(ctx, name, p)
}
func (s *Supervisor) Status() Snapshot            { return s.inner.Status() }
func (s *Supervisor) Cleanup(ctx context.Context) { s.inner.Cleanup(ctx) }
func (s *Supervisor) Close() error                { return s.inner.Close() }

// NewStatusServer creates the read-only status service for a supervisor.
func NewStatusServer(addr, basePath string, s *Supervisor, log *slog.Logger) *server.Server {
	return server.New(addr, basePath, s.inner, log)
}
