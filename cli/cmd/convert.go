package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/ardnew/pkgport/log"
	"github.com/ardnew/pkgport/manifest"
	"github.com/ardnew/pkgport/pkgbuild"
)

// Output kinds.
const (
	KindManifest = "manifest"
	KindScript   = "script"
)

// outputFlags control the layout of generated files.
type outputFlags struct {
	Indent       int `default:"${defaultIndent}" help:"Manifest indentation; 0 or less writes flow style."`
	ScriptIndent int `default:"0"                help:"Indentation added to script function bodies."`
}

// writeManifest writes the YAML manifest of desc to w.
func (f outputFlags) writeManifest(ctx context.Context, w io.Writer, desc *manifest.Descriptor) error {
	return manifest.NewManifest(desc).Encode(ctx, w, f.Indent)
}

// writeScript writes the build script of desc to w.
func (f outputFlags) writeScript(w io.Writer, doc *pkgbuild.Document, desc *manifest.Descriptor) error {
	return manifest.NewScript(doc, desc).Encode(w, f.ScriptIndent)
}

// Convert prints the manifest or script of one descriptor.
type Convert struct {
	Parse  parseFlags  `embed:""`
	Output outputFlags `embed:""`

	Kind string `arg:"" enum:"manifest,script" help:"Output to produce (${enum})."`
	File string `arg:"" default:"-"             help:"Descriptor file, or - for stdin." optional:""`
	JSON bool   `help:"Write the manifest as JSON." short:"j"`
}

// Run executes the convert command.
func (c *Convert) Run(ctx context.Context) error {
	doc, desc, err := c.Parse.describe(ctx, c.File)
	if err != nil {
		return err
	}

	log.DebugContext(ctx, "convert",
		slog.String("kind", c.Kind),
		slog.String("name", desc.Name()),
		slog.Bool("json", c.JSON),
	)

	out := streamsFrom(ctx).Out

	switch {
	case c.Kind == KindScript:
		return c.Output.writeScript(out, doc, desc)
	case c.JSON:
		return manifest.NewManifest(desc).EncodeJSON(out, c.Output.Indent)
	default:
		return c.Output.writeManifest(ctx, out, desc)
	}
}
