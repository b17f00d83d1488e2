package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/agentstation/pubmap"
)

func newTestApp(t *testing.T) (*App, string) {
	t.Helper()
	dir := isolate(t)
	catalog := filepath.Join(dir, "publications.yaml")

	logger := zerolog.Nop()
	app, err := New("1.0.0", "abc123", "2024-01-01", "test", WithLogger(&logger))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	app.config.CatalogPath = catalog
	return app, dir
}

// TestApp_New verifies app initialization.
func TestApp_New(t *testing.T) {
	app, _ := newTestApp(t)

	if app.Version() != "1.0.0" {
		t.Errorf("Version() = %s, want 1.0.0", app.Version())
	}
	if app.Commit() != "abc123" {
		t.Errorf("Commit() = %s, want abc123", app.Commit())
	}
	if app.Date() != "2024-01-01" {
		t.Errorf("Date() = %s, want 2024-01-01", app.Date())
	}
	if app.BuiltBy() != "test" {
		t.Errorf("BuiltBy() = %s, want test", app.BuiltBy())
	}
	if app.Logger() == nil {
		t.Error("Logger() returned nil")
	}
	if app.Config() == nil {
		t.Error("Config() returned nil")
	}
}

// TestApp_OutputFormat verifies an unset format is detected, never empty.
func TestApp_OutputFormat(t *testing.T) {
	app, _ := newTestApp(t)

	app.config.Format = "yaml"
	if got := app.OutputFormat(); got != "yaml" {
		t.Errorf("OutputFormat() = %q, want yaml", got)
	}

	app.config.Format = ""
	if got := app.OutputFormat(); got != "table" && got != "json" {
		t.Errorf("OutputFormat() = %q, want table or json", got)
	}
}

// TestApp_WithConfigNil verifies a nil config is rejected.
func TestApp_WithConfigNil(t *testing.T) {
	isolate(t)
	if _, err := New("1.0.0", "", "", "", WithConfig(nil)); err == nil {
		t.Error("New(WithConfig(nil)) should fail")
	}
}

// TestApp_Client_Singleton verifies that Client() returns the same instance.
func TestApp_Client_Singleton(t *testing.T) {
	app, _ := newTestApp(t)

	c1, err := app.Client()
	if err != nil {
		t.Fatalf("Client() failed: %v", err)
	}
	c2, err := app.Client()
	if err != nil {
		t.Fatalf("Client() failed on second call: %v", err)
	}
	if c1 != c2 {
		t.Error("Client() returned different instances, expected singleton")
	}
	if c1.Path() != app.config.CatalogPath {
		t.Errorf("Path() = %s, want %s", c1.Path(), app.config.CatalogPath)
	}
}

// TestApp_Client_ThreadSafe verifies concurrent Client() calls are safe.
func TestApp_Client_ThreadSafe(t *testing.T) {
	app, _ := newTestApp(t)

	const goroutines = 50
	var wg sync.WaitGroup
	results := make([]pubmap.Client, goroutines)
	errs := make([]error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = app.Client()
		}(i)
	}
	wg.Wait()

	for i := 0; i < goroutines; i++ {
		if errs[i] != nil {
			t.Fatalf("goroutine %d: Client() failed: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Fatalf("goroutine %d got a different instance", i)
		}
	}
}

// TestApp_Client_WithOptions verifies custom clients are not cached.
func TestApp_Client_WithOptions(t *testing.T) {
	app, dir := newTestApp(t)

	other := filepath.Join(dir, "other.yaml")
	custom, err := app.Client(pubmap.WithCatalogPath(other))
	if err != nil {
		t.Fatalf("Client(opts) failed: %v", err)
	}
	if custom.Path() != other {
		t.Errorf("Path() = %s, want %s", custom.Path(), other)
	}

	def, err := app.Client()
	if err != nil {
		t.Fatal(err)
	}
	if def == custom {
		t.Error("Client() returned the custom instance")
	}
}

// TestApp_Catalog verifies a missing catalog reads as empty.
func TestApp_Catalog(t *testing.T) {
	app, _ := newTestApp(t)

	cat, err := app.Catalog()
	if err != nil {
		t.Fatalf("Catalog() failed: %v", err)
	}
	if cat.Len() != 0 {
		t.Errorf("Len() = %d, want 0", cat.Len())
	}
}

// TestApp_Shutdown verifies shutdown without and with clients.
func TestApp_Shutdown(t *testing.T) {
	app, _ := newTestApp(t)
	if err := app.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() without clients failed: %v", err)
	}

	if _, err := app.Client(); err != nil {
		t.Fatal(err)
	}
	if err := app.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() failed: %v", err)
	}
}

// TestApp_Execute runs the CLI end to end against the file source.
func TestApp_Execute(t *testing.T) {
	app, dir := newTestApp(t)

	input := filepath.Join(dir, "export.yaml")
	export := `- title: Deep Things
  authors: A. Author, B. Author
  venue: Journal of Things
  year: 2022
  link: https://example.org/deep
- title: Older Work
  authors: A. Author
  year: 2019
`
	if err := os.WriteFile(input, []byte(export), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	run := func(args ...string) error {
		out.Reset()
		root := app.createRootCommand()
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(args)
		return root.ExecuteContext(context.Background())
	}

	if err := run("sync", "--input", input, "--no-enhance", "-o", "json", "--log-level", "error"); err != nil {
		t.Fatalf("sync failed: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), `"written": true`) {
		t.Errorf("sync output missing written flag:\n%s", out.String())
	}

	if err := run("list", "-o", "json", "--log-level", "error"); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out.String(), "Deep Things") || !strings.Contains(out.String(), "Older Work") {
		t.Errorf("list output missing publications:\n%s", out.String())
	}

	if err := run("validate", "--log-level", "error"); err != nil {
		t.Errorf("validate failed on a synced catalog: %v\n%s", err, out.String())
	}

	if err := run("version"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "pubmap 1.0.0") {
		t.Errorf("version output = %q", out.String())
	}

	if err := run("list", "-o", "csv"); err == nil {
		t.Error("an unknown format should fail")
	}
}
