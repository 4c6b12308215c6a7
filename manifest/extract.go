package manifest

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/ardnew/pkgport/log"
	"github.com/ardnew/pkgport/pkgbuild"
)

// checksumArrays lists the checksum arrays consulted for sources, in order
// of preference.
var checksumArrays = []struct {
	key       string
	algorithm string
}{
	{"sha256sums", "sha256"},
	{"sha512sums", "sha512"},
	{"b2sums", "b2"},
}

// skipChecksum marks a source whose checksum is not verified.
const skipChecksum = "SKIP"

// Package holds the metadata overrides of one sub-package of a split
// descriptor.
type Package struct {
	Name        string   `json:"name"                  yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Depends     []string `json:"depends,omitempty"     yaml:"depends,omitempty"`
	Conflicts   []string `json:"conflicts,omitempty"   yaml:"conflicts,omitempty"`
	Replaces    []string `json:"replaces,omitempty"    yaml:"replaces,omitempty"`
	Provides    []string `json:"provides,omitempty"    yaml:"provides,omitempty"`

	// Function is the descriptor function supplying the overrides and the
	// staging steps, or empty if there is none.
	Function string `json:"-" yaml:"-"`
}

// Descriptor is the package metadata extracted from a PKGBUILD.
//
// A descriptor is split when it declares a pkgbase. A split descriptor has
// one [Package] per name in pkgname.
type Descriptor struct {
	Base        string
	Names       []string
	Version     string
	Release     string
	Description string
	URL         string
	Arch        []string
	MakeDepends []string
	Depends     []string
	Conflicts   []string
	Replaces    []string
	Provides    []string
	Sources     []Source
	Packages    []Package
}

// Split reports whether the descriptor declares several packages.
func (d *Descriptor) Split() bool { return d.Base != "" }

// Name returns the pkgbase of a split descriptor or the package name of a
// single one.
func (d *Descriptor) Name() string {
	if d.Split() {
		return d.Base
	}

	if len(d.Names) > 0 {
		return d.Names[0]
	}

	return ""
}

// Option configures extraction.
type Option func(*extractor)

// WithLogger sets the structured logger for trace-level debugging.
func WithLogger(logger log.Logger) Option {
	return func(x *extractor) {
		x.logger = logger
	}
}

type extractor struct {
	logger log.Logger
}

// Extract reads package metadata from a parsed descriptor.
//
// Dependency-like lists (makedepends, depends, conflicts, replaces,
// provides) have version constraints removed. It fails with
// [ErrMalformedDescriptor] if no package name is declared.
func Extract(ctx context.Context, doc *pkgbuild.Document, opts ...Option) (*Descriptor, error) {
	var x extractor

	for _, opt := range opts {
		opt(&x)
	}

	desc := &Descriptor{
		Base:        doc.Value("pkgbase"),
		Version:     doc.Value("pkgver"),
		Release:     doc.Value("pkgrel"),
		Description: doc.Value("pkgdesc"),
		URL:         doc.Value("url"),
		Arch:        doc.Array("arch"),
		MakeDepends: stripVersions(doc.Array("makedepends")),
		Depends:     stripVersions(doc.Array("depends")),
		Conflicts:   stripVersions(doc.Array("conflicts")),
		Replaces:    stripVersions(doc.Array("replaces")),
		Provides:    stripVersions(doc.Array("provides")),
	}

	desc.Names = packageNames(doc, desc.Split())
	if len(desc.Names) == 0 {
		return nil, ErrMalformedDescriptor.With(
			slog.String("reason", "no package name declared"),
		)
	}

	desc.Sources = sources(doc)

	if desc.Split() {
		x.logger.DebugContext(ctx, "split descriptor",
			slog.String("pkgbase", desc.Base),
			slog.Any("packages", desc.Names),
		)

		for _, name := range desc.Names {
			desc.Packages = append(desc.Packages, x.subPackage(ctx, doc, desc.Base, name))
		}
	}

	x.logger.TraceContext(ctx, "descriptor extracted",
		slog.String("name", desc.Name()),
		slog.String("version", desc.Version),
		slog.Int("sources", len(desc.Sources)),
	)

	return desc, nil
}

// packageNames returns the declared package names, dropping empty ones.
func packageNames(doc *pkgbuild.Document, split bool) []string {
	names := doc.Array("pkgname")
	if !split || names == nil {
		names = []string{doc.Value("pkgname")}
	}

	return slices.DeleteFunc(names, func(s string) bool {
		return strings.TrimSpace(s) == ""
	})
}

// sources parses the source array and pairs each entry with the checksum
// at the same index of the first checksum array declared.
func sources(doc *pkgbuild.Document) []Source {
	specs := doc.Array("source")
	if len(specs) == 0 {
		return nil
	}

	var (
		sums      []string
		algorithm string
	)

	for _, c := range checksumArrays {
		if sums = doc.Array(c.key); sums != nil {
			algorithm = c.algorithm

			break
		}
	}

	out := make([]Source, len(specs))

	for i, spec := range specs {
		out[i] = ParseSource(spec)

		if i < len(sums) && sums[i] != skipChecksum {
			out[i].Checksum = Checksum{Algorithm: algorithm, Sum: sums[i]}
		}
	}

	return out
}

// PackageFunction returns the name of the function supplying metadata and
// staging steps for sub-package name of a split descriptor with the given
// base. Candidates are _package<suffix> (suffix is name without the base
// prefix), _package, and the makepkg name package_<name>, in that order. It returns an empty
// string if none is defined.
func PackageFunction(doc *pkgbuild.Document, base, name string) string {
	candidates := []string{
		"_package" + strings.TrimPrefix(name, base),
		"_package",
		"package_" + name,
	}

	for _, fn := range candidates {
		if doc.HasFunction(fn) {
			return fn
		}
	}

	return ""
}

func (x *extractor) subPackage(
	ctx context.Context,
	doc *pkgbuild.Document,
	base, name string,
) Package {
	pkg := Package{
		Name:     name,
		Function: PackageFunction(doc, base, name),
	}

	if pkg.Function == "" {
		x.logger.DebugContext(ctx, "no package function",
			slog.String("package", name),
		)

		return pkg
	}

	scope := doc.Scope(doc.Function(pkg.Function))

	pkg.Description = scope.Value("pkgdesc")
	pkg.Depends = stripVersions(scope.Array("depends"))
	pkg.Conflicts = stripVersions(scope.Array("conflicts"))
	pkg.Replaces = stripVersions(scope.Array("replaces"))
	pkg.Provides = stripVersions(scope.Array("provides"))

	x.logger.TraceContext(ctx, "package overrides",
		slog.String("package", name),
		slog.String("function", pkg.Function),
	)

	return pkg
}
