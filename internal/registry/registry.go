package registry

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/zypin-testing/zypin-core/internal/provider"
)

// Registry discovers capability-provider packages under a set of root
// directories and catalogs them together with their templates. The catalog
// is rebuilt wholesale on every discovery pass; records are never mutated
// in place.
//
// Discovery never returns an error: every per-candidate failure (unreadable
// directory, missing or malformed manifest, validation) is logged and the
// candidate skipped.
type Registry struct {
	mu        sync.RWMutex
	roots     []string
	logger    *slog.Logger
	providers map[string]*provider.Package
	templates map[string]*Template
}

// New creates a registry over the given root directories, in priority order.
// Duplicate logical names across roots resolve last-writer-wins.
func New(roots []string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		roots:     append([]string(nil), roots...),
		logger:    logger,
		providers: make(map[string]*provider.Package),
		templates: make(map[string]*Template),
	}
}

// Discover scans all roots and replaces the current catalog.
func (r *Registry) Discover() {
	providers := make(map[string]*provider.Package)
	templates := make(map[string]*Template)

	for _, root := range r.roots {
		for _, dir := range r.candidateDirs(root) {
			pkg, err := provider.Load(dir)
			if err != nil {
				r.logger.Debug("skipping provider candidate", "dir", dir, "error", err)
				continue
			}
			tmpls := r.scanTemplates(pkg)
			ids := make([]string, 0, len(tmpls))
			for _, t := range tmpls {
				ids = append(ids, t.ID)
			}
			pkg.SetTemplates(ids)

			if _, dup := providers[pkg.Name()]; dup {
				// last writer wins; drop templates registered by the loser
				for id := range templates {
					if strings.HasPrefix(id, pkg.Name()+TemplateSeparator) {
						delete(templates, id)
					}
				}
				r.logger.Warn("duplicate provider name, overwriting", "name", pkg.Name(), "dir", dir)
			}
			providers[pkg.Name()] = pkg
			for _, t := range tmpls {
				templates[t.ID] = t
			}
			r.logger.Debug("registered provider",
				"name", pkg.Name(), "version", pkg.Version(), "templates", len(tmpls))
		}
	}

	r.mu.Lock()
	r.providers = providers
	r.templates = templates
	r.mu.Unlock()
}

// Reload clears the catalog and re-runs discovery plus template scanning.
// Useful for long-running hosts embedding the registry; the CLI itself is
// short-lived and discovers once per invocation.
func (r *Registry) Reload() { r.Discover() }

// Lookup returns the provider registered under the logical name.
func (r *Registry) Lookup(name string) (*provider.Package, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// LookupTemplate returns the template registered under the namespaced
// "provider/template" id.
func (r *Registry) LookupTemplate(id string) (*Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[id]
	return t, ok
}

// Providers returns the catalog sorted by logical name.
func (r *Registry) Providers() []*provider.Package {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*provider.Package, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Templates returns all registered templates sorted by namespaced id.
func (r *Registry) Templates() []*Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// candidateDirs lists immediate subdirectories of root (symlinks to
// directories included). npm-style scope directories ("@scope") are not
// providers themselves; their children are the candidates.
func (r *Registry) candidateDirs(root string) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Debug("skipping unreadable root", "root", root, "error", err)
		}
		return nil
	}
	var dirs []string
	for _, e := range entries {
		p := filepath.Join(root, e.Name())
		if !isDir(p) {
			continue
		}
		if strings.HasPrefix(e.Name(), "@") {
			subs, err := os.ReadDir(p)
			if err != nil {
				r.logger.Debug("skipping unreadable scope dir", "dir", p, "error", err)
				continue
			}
			for _, s := range subs {
				sp := filepath.Join(p, s.Name())
				if isDir(sp) {
					dirs = append(dirs, sp)
				}
			}
			continue
		}
		dirs = append(dirs, p)
	}
	return dirs
}

// isDir follows symlinks, unlike DirEntry.IsDir.
func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
