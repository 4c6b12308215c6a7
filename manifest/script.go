package manifest

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/ardnew/pkgport/pkg"
	"github.com/ardnew/pkgport/pkgbuild"
)

// stages are the build functions copied into every script, in order.
var stages = []string{"prepare", "build", "check"}

// pathRewrites map makepkg directory variables to their replacements in a
// build script. Bare references must end at an identifier boundary.
var pathRewrites = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`\$\{srcdir\}`), "."},
	{regexp.MustCompile(`\$srcdir\b`), "."},
	{regexp.MustCompile(`\$\{pkgdir\}`), "$${PKG_DIR}"},
	{regexp.MustCompile(`\$pkgdir\b`), "$$PKG_DIR"},
}

// ScriptFunction is one function of a build script.
type ScriptFunction struct {
	Name string
	Body string
}

// Script is the build script (build.sh) of a descriptor.
type Script struct {
	Functions []ScriptFunction
}

// NewScript builds the script of a descriptor: the prepare, build and check
// functions, followed by package for a single descriptor or one
// package_<name> per sub-package of a split descriptor. Each body is
// substituted and has its directory variables rewritten. Functions with
// empty bodies are omitted.
func NewScript(doc *pkgbuild.Document, desc *Descriptor) *Script {
	var s Script

	add := func(name, fn string) {
		if body := RewritePaths(doc.Substitute(doc.Function(fn))); body != "" {
			s.Functions = append(s.Functions, ScriptFunction{Name: name, Body: body})
		}
	}

	for _, stage := range stages {
		add(stage, stage)
	}

	if !desc.Split() {
		add("package", "package")

		return &s
	}

	for _, p := range desc.Packages {
		if p.Function != "" {
			add("package_"+p.Name, p.Function)
		}
	}

	return &s
}

// RewritePaths replaces $srcdir with "." and $pkgdir with $PKG_DIR, in both
// bare and braced forms.
func RewritePaths(body string) string {
	for _, r := range pathRewrites {
		body = r.re.ReplaceAllString(body, r.repl)
	}

	return body
}

// Header returns the comment lines written after the interpreter line.
func Header() string {
	return "# Automatically generated by " + pkg.Name
}

// Encode writes the script. Function bodies are indented by indent spaces.
func (s *Script) Encode(w io.Writer, indent int) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("#!/bin/bash\n\n")
	bw.WriteString(Header())
	bw.WriteString("\n\n")

	pad := strings.Repeat(" ", max(indent, 0))

	for _, fn := range s.Functions {
		bw.WriteString(fn.Name)
		bw.WriteString("() {\n")

		for line := range strings.Lines(fn.Body) {
			if strings.TrimSpace(line) != "" {
				bw.WriteString(pad)
			}

			bw.WriteString(line)
		}

		bw.WriteString("\n}\n\n")
	}

	return bw.Flush()
}
