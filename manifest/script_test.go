package manifest

import (
	"bytes"
	"strings"
	"testing"
)

func TestRewritePaths(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`cd "$srcdir/foo"`, `cd "./foo"`},
		{`cd ${srcdir}`, `cd .`},
		{`make DESTDIR="$pkgdir"`, `make DESTDIR="$PKG_DIR"`},
		{`install -d "${pkgdir}/usr"`, `install -d "${PKG_DIR}/usr"`},
		{`echo $srcdir_extra $pkgdirs`, `echo $srcdir_extra $pkgdirs`},
		{`echo $srcdir-$pkgdir.`, `echo .-$PKG_DIR.`},
	}

	for _, tt := range tests {
		if got := RewritePaths(tt.in); got != tt.want {
			t.Errorf("RewritePaths(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewScript_Single(t *testing.T) {
	doc, desc := extract(t, singleDescriptor)

	s := NewScript(doc, desc)

	var names []string
	for _, fn := range s.Functions {
		names = append(names, fn.Name)
	}

	if got := strings.Join(names, " "); got != "prepare build package" {
		t.Fatalf("functions = %q, want prepare build package", got)
	}

	want := strings.Join([]string{
		`cd "./hello-2.12"`,
		`make DESTDIR="$PKG_DIR" install`,
		`install -Dm644 COPYING "${PKG_DIR}/usr/share/licenses/hello/COPYING"`,
		`echo "$srcdir_extra $pkgdir_x"`,
	}, "\n")

	if got := s.Functions[2].Body; got != want {
		t.Errorf("package body =\n%s\nwant\n%s", got, want)
	}

	if got := s.Functions[0].Body; !strings.Contains(got, `patch -p1 < "./hello.patch"`) {
		t.Errorf("prepare body =\n%s", got)
	}
}

func TestNewScript_Split(t *testing.T) {
	doc, desc := extract(t, splitDescriptor)

	s := NewScript(doc, desc)

	var names []string
	for _, fn := range s.Functions {
		names = append(names, fn.Name)
	}

	want := "build package_foo package_foo-doc package_foo-extra"
	if got := strings.Join(names, " "); got != want {
		t.Fatalf("functions = %q, want %q", got, want)
	}

	if got := s.Functions[1].Body; !strings.HasPrefix(got, `pkgdesc="Foo core"`) ||
		!strings.Contains(got, `DESTDIR="$PKG_DIR"`) {
		t.Errorf("package_foo body =\n%s", got)
	}
}

func TestScript_Encode(t *testing.T) {
	s := &Script{Functions: []ScriptFunction{
		{Name: "build", Body: "cd .\n\nmake"},
		{Name: "package", Body: "make install"},
	}}

	tests := []struct {
		indent int
		want   string
	}{
		{
			indent: 0,
			want: "#!/bin/bash\n\n# Automatically generated by pkgport\n\n" +
				"build() {\ncd .\n\nmake\n}\n\n" +
				"package() {\nmake install\n}\n\n",
		},
		{
			indent: 2,
			want: "#!/bin/bash\n\n# Automatically generated by pkgport\n\n" +
				"build() {\n  cd .\n\n  make\n}\n\n" +
				"package() {\n  make install\n}\n\n",
		},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		if err := s.Encode(&buf, tt.indent); err != nil {
			t.Fatalf("Encode() error = %v", err)
		}

		if got := buf.String(); got != tt.want {
			t.Errorf("indent %d: Encode() =\n%q\nwant\n%q", tt.indent, got, tt.want)
		}
	}
}
