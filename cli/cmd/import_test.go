package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/zeebo/xxh3"

	"github.com/ardnew/pkgport/fetch"
	"github.com/ardnew/pkgport/log"
)

// mapFetcher serves descriptors from memory.
type mapFetcher struct {
	mu    sync.Mutex
	seen  []string
	texts map[string]string
}

func (f *mapFetcher) Fetch(_ context.Context, location string) (string, error) {
	f.mu.Lock()
	f.seen = append(f.seen, location)
	f.mu.Unlock()

	text, ok := f.texts[location]
	if !ok {
		return "", &fetch.Error{Location: location, Status: http.StatusNotFound}
	}

	return text, nil
}

func newImport(outDir string, fetcher fetch.Fetcher, urls ...string) *Import {
	return &Import{
		Parse:   parseFlags{ExpandDepth: 1},
		Output:  outputFlags{Indent: 2},
		URLs:    urls,
		OutDir:  outDir,
		Jobs:    2,
		fetcher: fetcher,
	}
}

func TestImport_HTTP(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/packages/foo/-/raw/main/PKGBUILD", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(descriptor))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	outDir := t.TempDir()
	ctx, _, errOut := testContext("")

	c := newImport(outDir, nil, srv.URL+"/packages/foo")
	c.Branch = fetch.DefaultBranch
	c.Timeout = DefaultTimeout

	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	dir := filepath.Join(outDir, "foo-aurora")

	manifest, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(string(manifest), "pkgbase: foo\n") {
		t.Errorf("%s:\n%s", ManifestFile, manifest)
	}

	script, err := os.ReadFile(filepath.Join(dir, ScriptFile))
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(string(script), "package_foo() {\n") {
		t.Errorf("%s:\n%s", ScriptFile, script)
	}

	progress := errOut.String()
	for _, want := range []string{
		"[*] Fetching PKGBUILD from: " + srv.URL + "/packages/foo/-/raw/main/PKGBUILD",
		"[*] Detected split package with base: foo",
		"[*] Found base: foo version 2.0",
		"[+] Success! Build files for 'foo' created in '" + dir + "'.",
	} {
		if !strings.Contains(progress, want) {
			t.Errorf("progress missing %q:\n%s", want, progress)
		}
	}
}

func TestImport_Concurrent(t *testing.T) {
	single := strings.ReplaceAll(
		strings.ReplaceAll(descriptor, "pkgbase=foo\n", ""),
		"pkgname=('foo' 'foo-doc')", "pkgname=bar",
	)
	single = strings.ReplaceAll(single, "package_foo()", "package()")

	f := &mapFetcher{texts: map[string]string{
		"repo/foo": descriptor,
		"repo/bar": single,
	}}

	outDir := t.TempDir()
	ctx, _, errOut := testContext("")

	err := newImport(outDir, f, "repo/foo", "repo/missing", "repo/bar").Run(ctx)

	var ferr *fetch.Error
	if !errors.Is(err, ErrFetch) || !errors.As(err, &ferr) || ferr.Location != "repo/missing" {
		t.Fatalf("Run() error = %v, want fetch error for repo/missing", err)
	}

	for _, name := range []string{"foo", "bar"} {
		if _, err := os.Stat(filepath.Join(outDir, name+OutputSuffix, ScriptFile)); err != nil {
			t.Errorf("%s not imported: %v", name, err)
		}
	}

	if len(f.seen) != 3 {
		t.Errorf("fetched %q", f.seen)
	}

	if !strings.Contains(errOut.String(), "[!] missing:") {
		t.Errorf("progress missing failure line:\n%s", errOut.String())
	}
}

func TestImport_ExistingOutput(t *testing.T) {
	f := &mapFetcher{texts: map[string]string{"foo": descriptor}}
	outDir := t.TempDir()

	ctx, _, _ := testContext("")
	if err := newImport(outDir, f, "foo").Run(ctx); err != nil {
		t.Fatal(err)
	}

	// Same content again is not a conflict.
	if err := newImport(outDir, f, "foo").Run(ctx); err != nil {
		t.Fatalf("repeated import error = %v", err)
	}

	f.texts["foo"] = strings.Replace(descriptor, "pkgver=2.0", "pkgver=2.1", 1)

	if err := newImport(outDir, f, "foo").Run(ctx); !errors.Is(err, ErrOutputExists) {
		t.Fatalf("changed import error = %v, want %v", err, ErrOutputExists)
	}

	c := newImport(outDir, f, "foo")
	c.Force = true

	if err := c.Run(ctx); err != nil {
		t.Fatalf("forced import error = %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(outDir, "foo-aurora", ManifestFile))
	if !strings.Contains(string(data), "version: \"2.1\"") && !strings.Contains(string(data), "version: 2.1") {
		t.Errorf("forced import left:\n%s", data)
	}
}

func TestImport_Quiet(t *testing.T) {
	f := &mapFetcher{texts: map[string]string{"foo": descriptor}}
	ctx, _, errOut := testContext("")

	c := newImport(t.TempDir(), f, "foo")
	c.Quiet = true

	if err := c.Run(ctx); err != nil {
		t.Fatal(err)
	}

	if errOut.Len() != 0 {
		t.Errorf("quiet import wrote %q", errOut.String())
	}
}

func TestImport_LogsDigest(t *testing.T) {
	prev := log.Default()
	t.Cleanup(func() {
		log.Config(log.WithOutput(os.Stderr), log.WithLevel(prev.Level()), log.WithFormat(prev.Format()))
	})

	var buf bytes.Buffer

	log.Config(log.WithOutput(&buf), log.WithLevel(log.LevelInfo), log.WithFormat(log.FormatJSON))

	f := &mapFetcher{texts: map[string]string{"foo": descriptor}}
	ctx, _, _ := testContext("")

	if err := newImport(t.TempDir(), f, "foo").Run(ctx); err != nil {
		t.Fatal(err)
	}

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("Unmarshal(%q) error = %v", buf.String(), err)
	}

	if want := fmt.Sprintf("%016x", xxh3.HashString(descriptor)); rec["msg"] != "imported" || rec["digest"] != want {
		t.Errorf("record = %v, want digest %s", rec, want)
	}
}
