package manifest

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/ardnew/pkgport/pkgbuild"
)

const singleDescriptor = `pkgname=hello
pkgver=2.12
pkgrel=1
pkgdesc="GNU Hello"
arch=('x86_64' 'aarch64')
makedepends=('gcc>=13')
depends=('glibc>=2.34' 'bash')
conflicts=('hello-git=2.0')
provides=('greeter')
source=("https://ftp.gnu.org/gnu/$pkgname/$pkgname-$pkgver.tar.gz"
        'hello.patch')
sha256sums=('aaaa'
            'SKIP')

prepare() {
  cd "$srcdir/$pkgname-$pkgver"
  patch -p1 < "${srcdir}/hello.patch"
}

build() {
  cd "$srcdir/$pkgname-$pkgver"
  ./configure --prefix=/usr
  make
}

package() {
  cd "$srcdir/$pkgname-$pkgver"
  make DESTDIR="$pkgdir" install
  install -Dm644 COPYING "${pkgdir}/usr/share/licenses/$pkgname/COPYING"
  echo "$srcdir_extra $pkgdir_x"
}
`

const splitDescriptor = `pkgbase=foo
pkgname=(foo foo-doc foo-extra)
pkgver=1.0
pkgdesc="Foo suite"
arch=(any)
makedepends=(cmake)
source=("git+https://example.com/foo.git#tag=v$pkgver")
sha512sums=('SKIP')

build() {
  cmake -B build -S "$srcdir/foo"
}

_package() {
  pkgdesc="Foo core"
  depends=('libbar>=1.2' zlib)
  provides=("foo-core=$pkgver")
  DESTDIR="$pkgdir" cmake --install build
}

_package-extra() {
  pkgdesc="Foo extras"
  conflicts=(foo-extra-git)
  install -d "$pkgdir/usr/share/foo"
}
`

func extract(t *testing.T, source string) (*pkgbuild.Document, *Descriptor) {
	t.Helper()

	ctx := context.Background()

	doc, err := pkgbuild.Parse(ctx, source)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	desc, err := Extract(ctx, doc)
	if err != nil {
		t.Fatalf("extract error: %v", err)
	}

	return doc, desc
}

func TestExtract_Single(t *testing.T) {
	_, desc := extract(t, singleDescriptor)

	if desc.Split() {
		t.Fatal("Split() = true, want false")
	}

	if desc.Name() != "hello" || desc.Version != "2.12" || desc.Description != "GNU Hello" {
		t.Errorf("metadata = %q %q %q", desc.Name(), desc.Version, desc.Description)
	}

	lists := []struct {
		name string
		got  []string
		want []string
	}{
		{"makedepends", desc.MakeDepends, []string{"gcc"}},
		{"depends", desc.Depends, []string{"glibc", "bash"}},
		{"conflicts", desc.Conflicts, []string{"hello-git"}},
		{"provides", desc.Provides, []string{"greeter"}},
		{"replaces", desc.Replaces, nil},
	}

	for _, l := range lists {
		if !slices.Equal(l.got, l.want) {
			t.Errorf("%s = %q, want %q", l.name, l.got, l.want)
		}
	}

	if len(desc.Sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(desc.Sources))
	}

	first := desc.Sources[0]
	if first.URL != "https://ftp.gnu.org/gnu/hello/hello-2.12.tar.gz" ||
		first.Name != "hello-2.12.tar.gz" {
		t.Errorf("first source = %+v", first)
	}

	if first.Checksum != (Checksum{Algorithm: "sha256", Sum: "aaaa"}) {
		t.Errorf("first checksum = %+v", first.Checksum)
	}

	if !desc.Sources[1].Checksum.IsZero() {
		t.Errorf("SKIP checksum = %+v, want none", desc.Sources[1].Checksum)
	}
}

func TestExtract_Split(t *testing.T) {
	_, desc := extract(t, splitDescriptor)

	if !desc.Split() || desc.Name() != "foo" {
		t.Fatalf("Split() = %v, Name() = %q", desc.Split(), desc.Name())
	}

	want := []Package{
		{
			Name:        "foo",
			Description: "Foo core",
			Depends:     []string{"libbar", "zlib"},
			Provides:    []string{"foo-core"},
			Function:    "_package",
		},
		{
			// no _package-doc: falls back to _package
			Name:        "foo-doc",
			Description: "Foo core",
			Depends:     []string{"libbar", "zlib"},
			Provides:    []string{"foo-core"},
			Function:    "_package",
		},
		{
			Name:        "foo-extra",
			Description: "Foo extras",
			Conflicts:   []string{"foo-extra-git"},
			Function:    "_package-extra",
		},
	}

	if len(desc.Packages) != len(want) {
		t.Fatalf("packages = %d, want %d", len(desc.Packages), len(want))
	}

	for i, w := range want {
		got := desc.Packages[i]

		if got.Name != w.Name || got.Description != w.Description || got.Function != w.Function {
			t.Errorf("package %d = {%q %q %q}, want {%q %q %q}", i,
				got.Name, got.Description, got.Function,
				w.Name, w.Description, w.Function)
		}

		if !slices.Equal(got.Depends, w.Depends) ||
			!slices.Equal(got.Conflicts, w.Conflicts) ||
			!slices.Equal(got.Provides, w.Provides) {
			t.Errorf("package %d lists = %q %q %q", i, got.Depends, got.Conflicts, got.Provides)
		}
	}

	src := desc.Sources[0]
	if src.Type != SourceGit || src.Name != "foo" || src.Tag() != "v1.0" || !src.Checksum.IsZero() {
		t.Errorf("source = %+v", src)
	}
}

func TestPackageFunction(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   map[string]string
	}{
		{
			name:   "suffix and makepkg names",
			source: "_package-doc() { :; }\npackage_foo-bin() { :; }\n",
			want: map[string]string{
				"foo-doc":  "_package-doc",
				"foo-bin":  "package_foo-bin",
				"foo-test": "",
			},
		},
		{
			name:   "generic function before makepkg name",
			source: "_package() { :; }\npackage_foo-doc() { :; }\n_package-bin() { :; }\n",
			want: map[string]string{
				"foo-doc": "_package",
				"foo-bin": "_package-bin",
				"foo":     "_package",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := pkgbuild.Parse(context.Background(), tt.source)
			if err != nil {
				t.Fatal(err)
			}

			for name, want := range tt.want {
				if got := PackageFunction(doc, "foo", name); got != want {
					t.Errorf("PackageFunction(%q) = %q, want %q", name, got, want)
				}
			}
		})
	}
}

func TestExtract_GenericBeforeMakepkgName(t *testing.T) {
	const source = `pkgbase=foo
pkgname=(foo foo-doc)
pkgver=1

_package() {
  pkgdesc="main"
}

package_foo-doc() {
  pkgdesc="doc via makepkg name"
}
`

	_, desc := extract(t, source)

	for _, p := range desc.Packages {
		if p.Function != "_package" || p.Description != "main" {
			t.Errorf("package %q = {%q %q}, want {_package main}", p.Name, p.Function, p.Description)
		}
	}
}

func TestExtract_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{name: "no pkgname", source: "pkgver=1\n"},
		{name: "empty pkgname", source: "pkgname=\n"},
		{name: "empty split list", source: "pkgbase=foo\npkgname=()\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			doc, err := pkgbuild.Parse(ctx, tt.source)
			if err != nil {
				t.Fatal(err)
			}

			if _, err := Extract(ctx, doc); !errors.Is(err, ErrMalformedDescriptor) {
				t.Errorf("Extract() error = %v, want %v", err, ErrMalformedDescriptor)
			}
		})
	}
}
