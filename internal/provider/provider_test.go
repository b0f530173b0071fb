package provider

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(content), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
}

func TestLoadValidManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `{
		"name": "@zypin/selenium",
		"version": "1.2.0",
		"description": "browser grid",
		"capabilities": {
			"start": {"command": "node", "args": ["server.js"], "env": ["PORT=4444"]},
			"HEALTH": {"command": "node", "args": ["health.js"]},
			"deploy": {"command": "ignored"}
		}
	}`)

	p, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Name() != "selenium" || p.RawName() != "@zypin/selenium" {
		t.Fatalf("names: %s / %s", p.Name(), p.RawName())
	}
	if p.Version() != "1.2.0" || p.Description() != "browser grid" {
		t.Fatalf("metadata: %s / %s", p.Version(), p.Description())
	}
	if !p.Has(CapStart) || !p.Has(CapHealth) {
		t.Fatalf("declared capabilities missing: %v", p.Capabilities())
	}
	if p.Has(CapRun) {
		t.Fatalf("undeclared capability reported")
	}
	// unknown capability names are dropped silently
	if got := len(p.Capabilities()); got != 2 {
		t.Fatalf("capability count = %d", got)
	}
}

func TestLoadFallsBackToDirectoryName(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "playwright")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeManifest(t, dir, `{"version":"1.0.0","capabilities":{"run":{"command":"node"}}}`)

	p, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Name() != "playwright" {
		t.Fatalf("name = %s", p.Name())
	}
}

func TestLoadValidationErrors(t *testing.T) {
	cases := []struct {
		name     string
		manifest string
		want     error
	}{
		{"no-version", `{"name":"a","capabilities":{"start":{"command":"x"}}}`, ErrNoVersion},
		{"no-capabilities", `{"name":"a","version":"1.0.0"}`, ErrNoCapability},
		{"blank-command", `{"name":"a","version":"1.0.0","capabilities":{"start":{"command":"   "}}}`, ErrNoCapability},
		{"unknown-only", `{"name":"a","version":"1.0.0","capabilities":{"deploy":{"command":"x"}}}`, ErrNoCapability},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, tc.manifest)
			if _, err := Load(dir); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestLoadMissingOrMalformedManifest(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatalf("expected error for missing manifest")
	}

	dir := t.TempDir()
	writeManifest(t, dir, `{broken`)
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected error for malformed manifest")
	}
}

func TestStripScope(t *testing.T) {
	cases := map[string]string{
		"@zypin/selenium": "selenium",
		"selenium":        "selenium",
		"@lonely":         "@lonely",
		"a/b":             "a/b",
	}
	for in, want := range cases {
		if got := StripScope(in); got != want {
			t.Fatalf("StripScope(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMergeEnvPrecedence(t *testing.T) {
	t.Setenv("ZYPIN_TEST_BASE", "os")
	t.Setenv("ZYPIN_TEST_HOST", "localhost")

	env := mergeEnv(
		[]string{"ZYPIN_TEST_BASE=global", "GRID_PORT=4444"},
		[]string{"ZYPIN_TEST_BASE=cap", "GRID_URL=http://${ZYPIN_TEST_HOST}:${GRID_PORT}"},
	)

	m := make(map[string]string, len(env))
	for _, kv := range env {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				m[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	if m["ZYPIN_TEST_BASE"] != "cap" {
		t.Fatalf("capability env should win: %q", m["ZYPIN_TEST_BASE"])
	}
	if m["GRID_URL"] != "http://localhost:4444" {
		t.Fatalf("expansion: %q", m["GRID_URL"])
	}
}
