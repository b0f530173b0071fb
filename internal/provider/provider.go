package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ManifestFile is the interface entry point each provider package must carry
// at its root to be loadable.
const ManifestFile = "zypin.json"

// Capability names one of the operations a provider may implement.
type Capability string

const (
	CapStart  Capability = "start"
	CapRun    Capability = "run"
	CapHealth Capability = "health"
)

// Validation failures. Candidates failing any of these are excluded from the
// catalog, never fatal to discovery.
var (
	ErrNoName       = errors.New("manifest declares no name")
	ErrNoVersion    = errors.New("manifest declares no version")
	ErrNoCapability = errors.New("manifest declares no usable capability")
)

// CommandSpec is the invocation behind a declared capability.
type CommandSpec struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
	Env     []string `json:"env,omitempty"`
}

// Manifest mirrors zypin.json at the provider package root. Capabilities are
// declared explicitly; there is no runtime introspection step.
type Manifest struct {
	Name         string                 `json:"name"`
	Version      string                 `json:"version"`
	Description  string                 `json:"description,omitempty"`
	Capabilities map[string]CommandSpec `json:"capabilities"`
}

// Package is one validated capability provider as found on disk.
// Instances are immutable after registration; a registry reload builds
// fresh ones.
type Package struct {
	name     string // logical name, scope prefix stripped
	rawName  string // name as declared in the manifest
	version  string
	dir      string
	caps     map[Capability]CommandSpec
	desc     string
	tmplIDs  []string
}

// Load reads and validates the manifest in dir. Any failure (missing file,
// malformed JSON, validation) is returned for the caller to log and skip.
func Load(dir string) (*Package, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	rawName := strings.TrimSpace(m.Name)
	if rawName == "" {
		rawName = filepath.Base(dir)
	}
	if rawName == "" || rawName == "." {
		return nil, ErrNoName
	}
	if strings.TrimSpace(m.Version) == "" {
		return nil, ErrNoVersion
	}
	caps := make(map[Capability]CommandSpec)
	for k, cs := range m.Capabilities {
		c := Capability(strings.ToLower(strings.TrimSpace(k)))
		switch c {
		case CapStart, CapRun, CapHealth:
			if strings.TrimSpace(cs.Command) != "" {
				caps[c] = cs
			}
		default:
			// unknown capabilities are ignored, not an error
		}
	}
	if len(caps) == 0 {
		return nil, ErrNoCapability
	}
	return &Package{
		name:    StripScope(rawName),
		rawName: rawName,
		version: m.Version,
		dir:     dir,
		caps:    caps,
		desc:    m.Description,
	}, nil
}

// StripScope removes an npm-style "@scope/" prefix from a package name.
func StripScope(name string) string {
	if strings.HasPrefix(name, "@") {
		if i := strings.IndexByte(name, '/'); i >= 0 {
			return name[i+1:]
		}
	}
	return name
}

func (p *Package) Name() string        { return p.name }
func (p *Package) RawName() string     { return p.rawName }
func (p *Package) Version() string     { return p.version }
func (p *Package) Dir() string         { return p.dir }
func (p *Package) Description() string { return p.desc }

// Has reports whether the capability was declared with a usable command.
func (p *Package) Has(c Capability) bool {
	_, ok := p.caps[c]
	return ok
}

// Capabilities returns the declared capability set in stable order.
func (p *Package) Capabilities() []Capability {
	out := make([]Capability, 0, len(p.caps))
	for c := range p.caps {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SetTemplates records the namespaced template ids owned by this provider.
// Called once by the registry during the per-provider sub-scan.
func (p *Package) SetTemplates(ids []string) { p.tmplIDs = append([]string(nil), ids...) }

// Templates returns the namespaced ids of templates owned by this provider.
func (p *Package) Templates() []string { return append([]string(nil), p.tmplIDs...) }

// TemplatesDir is where the per-provider template sub-scan looks.
func (p *Package) TemplatesDir() string { return filepath.Join(p.dir, "templates") }
