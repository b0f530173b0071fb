package registry

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeProvider(t *testing.T, root, dir, manifest string) string {
	t.Helper()
	p := filepath.Join(root, dir)
	if err := os.MkdirAll(p, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if manifest != "" {
		if err := os.WriteFile(filepath.Join(p, "zypin.json"), []byte(manifest), 0o600); err != nil {
			t.Fatalf("write manifest: %v", err)
		}
	}
	return p
}

const validManifest = `{
	"name": "@zypin/selenium",
	"version": "1.2.0",
	"capabilities": {
		"start": {"command": "node", "args": ["server.js"]},
		"run": {"command": "node", "args": ["run.js"]}
	}
}`

func TestDiscoverSkipsCandidatesWithoutManifest(t *testing.T) {
	root := t.TempDir()
	writeProvider(t, root, "selenium", validManifest)
	writeProvider(t, root, "broken", "") // no entry point at all

	r := New([]string{root}, quietLogger())
	r.Discover()

	if got := len(r.Providers()); got != 1 {
		t.Fatalf("expected catalog of size 1, got %d", got)
	}
	if _, ok := r.Lookup("selenium"); !ok {
		t.Fatalf("valid provider missing from catalog")
	}
}

func TestDiscoverValidation(t *testing.T) {
	cases := []struct {
		name     string
		manifest string
	}{
		{"malformed", `{not json`},
		{"no-version", `{"name":"a","capabilities":{"start":{"command":"x"}}}`},
		{"no-capability", `{"name":"a","version":"1.0.0","capabilities":{}}`},
		{"empty-command", `{"name":"a","version":"1.0.0","capabilities":{"start":{"command":"  "}}}`},
		{"unknown-capability-only", `{"name":"a","version":"1.0.0","capabilities":{"deploy":{"command":"x"}}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			writeProvider(t, root, "candidate", tc.manifest)
			r := New([]string{root}, quietLogger())
			r.Discover()
			if got := len(r.Providers()); got != 0 {
				t.Fatalf("expected exclusion, got %d providers", got)
			}
		})
	}
}

func TestDiscoverScopedDirectories(t *testing.T) {
	root := t.TempDir()
	writeProvider(t, filepath.Join(root, "@zypin"), "selenium", validManifest)

	r := New([]string{root}, quietLogger())
	r.Discover()

	p, ok := r.Lookup("selenium")
	if !ok {
		t.Fatalf("scoped provider not discovered")
	}
	if p.RawName() != "@zypin/selenium" {
		t.Fatalf("raw name lost: %s", p.RawName())
	}
}

func TestDiscoverFollowsSymlinkedDirs(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	realRoot := t.TempDir()
	target := writeProvider(t, realRoot, "selenium", validManifest)

	root := t.TempDir()
	if err := os.Symlink(target, filepath.Join(root, "selenium")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	r := New([]string{root}, quietLogger())
	r.Discover()
	if _, ok := r.Lookup("selenium"); !ok {
		t.Fatalf("symlinked provider not discovered")
	}
}

func TestDiscoverLastWriterWins(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	writeProvider(t, rootA, "selenium", `{
		"name": "selenium", "version": "1.0.0",
		"capabilities": {"start": {"command": "old"}}
	}`)
	writeProvider(t, rootB, "selenium", `{
		"name": "selenium", "version": "2.0.0",
		"capabilities": {"start": {"command": "new"}}
	}`)

	r := New([]string{rootA, rootB}, quietLogger())
	r.Discover()

	p, ok := r.Lookup("selenium")
	if !ok {
		t.Fatalf("provider missing")
	}
	if p.Version() != "2.0.0" {
		t.Fatalf("expected later root to win, got version %s", p.Version())
	}
	if got := len(r.Providers()); got != 1 {
		t.Fatalf("duplicate not collapsed: %d", got)
	}
}

func TestDiscoverMissingRootIsQuiet(t *testing.T) {
	r := New([]string{filepath.Join(t.TempDir(), "does-not-exist")}, quietLogger())
	r.Discover()
	if got := len(r.Providers()); got != 0 {
		t.Fatalf("expected empty catalog, got %d", got)
	}
}

func TestLookupNotFound(t *testing.T) {
	r := New(nil, quietLogger())
	r.Discover()
	if _, ok := r.Lookup("ghost"); ok {
		t.Fatalf("expected not found")
	}
	if _, ok := r.LookupTemplate("ghost/basic"); ok {
		t.Fatalf("expected template not found")
	}
}

func TestReloadPicksUpNewProviders(t *testing.T) {
	root := t.TempDir()
	r := New([]string{root}, quietLogger())
	r.Discover()
	if len(r.Providers()) != 0 {
		t.Fatalf("expected empty catalog")
	}

	writeProvider(t, root, "selenium", validManifest)
	r.Reload()
	if _, ok := r.Lookup("selenium"); !ok {
		t.Fatalf("reload did not pick up new provider")
	}
}
