package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zypin-testing/zypin-core/internal/provider"
)

// Files a template directory must carry to be registered. The descriptor
// holds metadata; the entry point is what a provider's run capability
// executes against a scaffolded project.
const (
	TemplateDescriptor = "template.json"
	TemplateEntryPoint = "run.js"
	TemplateSeparator  = "/"
)

// Meta is the parsed template descriptor. A parse failure leaves it zero;
// the registry does not treat that as an error.
type Meta struct {
	Description string            `json:"description,omitempty"`
	Version     string            `json:"version,omitempty"`
	Params      map[string]string `json:"params,omitempty"`
}

// Template is one provider-owned sub-resource bundle. Immutable once built;
// discarded and rebuilt on registry reload.
type Template struct {
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	ID          string `json:"id"` // provider/template
	Dir         string `json:"dir"`
	Runner      string `json:"runner"`
	HasRunner   bool   `json:"has_runner"`
	Meta        Meta   `json:"meta"`
	Description string `json:"description"`
}

// scanTemplates enumerates the provider's templates/ subdirectory. A
// candidate is registered only when both the descriptor and the entry point
// exist; anything else is logged and skipped.
func (r *Registry) scanTemplates(pkg *provider.Package) []*Template {
	entries, err := os.ReadDir(pkg.TemplatesDir())
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Debug("skipping unreadable templates dir", "provider", pkg.Name(), "error", err)
		}
		return nil
	}
	var out []*Template
	for _, e := range entries {
		dir := filepath.Join(pkg.TemplatesDir(), e.Name())
		if !isDir(dir) {
			continue
		}
		descriptor := filepath.Join(dir, TemplateDescriptor)
		runner := filepath.Join(dir, TemplateEntryPoint)
		if !fileExists(descriptor) {
			r.logger.Debug("template missing descriptor", "provider", pkg.Name(), "template", e.Name())
			continue
		}
		if !fileExists(runner) {
			r.logger.Debug("template missing entry point", "provider", pkg.Name(), "template", e.Name())
			continue
		}

		var meta Meta
		if data, err := os.ReadFile(descriptor); err != nil {
			r.logger.Debug("template descriptor unreadable", "provider", pkg.Name(), "template", e.Name(), "error", err)
		} else if err := json.Unmarshal(data, &meta); err != nil {
			// tolerated: metadata defaults to empty
			r.logger.Debug("template descriptor unparsable", "provider", pkg.Name(), "template", e.Name(), "error", err)
			meta = Meta{}
		}

		desc := meta.Description
		if desc == "" {
			desc = fmt.Sprintf("%s %s template", pkg.Name(), e.Name())
		}
		out = append(out, &Template{
			Name:        e.Name(),
			Provider:    pkg.Name(),
			ID:          pkg.Name() + TemplateSeparator + e.Name(),
			Dir:         dir,
			Runner:      runner,
			HasRunner:   true,
			Meta:        meta,
			Description: desc,
		})
	}
	return out
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
