package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/pkgport/cli/cmd"
	"github.com/ardnew/pkgport/pkg"
)

const descriptor = `pkgname=zlib
pkgver=1.3.1
pkgrel=2
pkgdesc='Compression library'
arch=('x86_64')
url="https://zlib.net"
depends=('glibc')
source=("https://zlib.net/zlib-${pkgver}.tar.gz")
sha256sums=('9a93b2b7dfdac77ceba5a558a580e74667dd6fede4585b91eefb60f03b72df23')

build() {
  cd "$srcdir/zlib-$pkgver"
  make
}

package() {
  cd "$srcdir/zlib-$pkgver"
  make DESTDIR="$pkgdir" install
}
`

// TestMain isolates the runtime directories, which are resolved once per
// process.
func TestMain(m *testing.M) {
	home, err := os.MkdirTemp("", "pkgport-cli-*")
	if err != nil {
		panic(err)
	}

	os.Setenv("HOME", home)
	os.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	os.Setenv("XDG_CACHE_HOME", filepath.Join(home, "cache"))

	code := m.Run()

	os.RemoveAll(home)
	os.Exit(code)
}

// runCLI runs the command line and returns its standard output.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer

	streams := cmd.Streams{In: strings.NewReader(stdin), Out: &out, Err: &errOut}
	exit := func(code int) { t.Errorf("exit(%d): %s", code, errOut.String()) }

	args = append([]string{"--log-level=error"}, args...)

	err := run(context.Background(), exit, streams, args...)

	return out.String(), err
}

func TestRun_Version(t *testing.T) {
	out, err := runCLI(t, "", "version", "--short")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}

	if want := pkg.Version() + "\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestRun_ConvertStdin(t *testing.T) {
	out, err := runCLI(t, descriptor, "convert", "manifest")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}

	for _, want := range []string{"name: zlib\n", "version: 1.3.1\n", "arch: x86_64\n", "- glibc\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("manifest missing %q:\n%s", want, out)
		}
	}
}

func TestRun_ImportLocal(t *testing.T) {
	src := filepath.Join(t.TempDir(), "PKGBUILD")
	if err := os.WriteFile(src, []byte(descriptor), 0o644); err != nil {
		t.Fatal(err)
	}

	outDir := t.TempDir()

	if _, err := runCLI(t, "", "import", "--quiet", "--out-dir", outDir, src); err != nil {
		t.Fatalf("run error = %v", err)
	}

	script, err := os.ReadFile(filepath.Join(outDir, "zlib-aurora", cmd.ScriptFile))
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(string(script), `make DESTDIR="$PKG_DIR" install`) {
		t.Errorf("build.sh:\n%s", script)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	if _, err := runCLI(t, "", "frobnicate"); err == nil {
		t.Error("run succeeded for unknown command")
	}
}

func TestRun_ConfigFile(t *testing.T) {
	if err := mkdirAllRequired(); err != nil {
		t.Fatal(err)
	}

	path := configPath(baseConfig) + ".yaml"
	if err := os.WriteFile(path, []byte("indent: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() { os.Remove(path) })

	out, err := runCLI(t, descriptor, "convert", "manifest")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}

	if !strings.HasPrefix(out, "{") {
		t.Errorf("manifest with indent 0 is not flow style:\n%s", out)
	}

	out, err = runCLI(t, descriptor, "convert", "manifest", "--indent", "2")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}

	if strings.HasPrefix(out, "{") {
		t.Errorf("--indent did not override the configuration file:\n%s", out)
	}
}
