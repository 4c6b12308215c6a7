package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ardnew/pkgport/log"
	"github.com/ardnew/pkgport/manifest"
	"github.com/ardnew/pkgport/pkgbuild"
)

type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, _ := ctx.Value(contextKey{}).(*kong.Context)

	return ktx
}

// Streams are the standard streams of a command.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

type streamsKey struct{}

// WithStreams returns a new context.Context whose commands read from and
// write to s.
func WithStreams(ctx context.Context, s Streams) context.Context {
	return context.WithValue(ctx, streamsKey{}, s)
}

// streamsFrom returns the streams stored by WithStreams, filling unset ones
// from the kong context or the process.
func streamsFrom(ctx context.Context) Streams {
	s, _ := ctx.Value(streamsKey{}).(Streams)

	if ktx := kongContextFrom(ctx); ktx != nil {
		if s.Out == nil {
			s.Out = ktx.Stdout
		}

		if s.Err == nil {
			s.Err = ktx.Stderr
		}
	}

	if s.In == nil {
		s.In = os.Stdin
	}

	if s.Out == nil {
		s.Out = os.Stdout
	}

	if s.Err == nil {
		s.Err = os.Stderr
	}

	return s
}

// stdinSource names the standard input as a command argument.
const stdinSource = "-"

// parseFlags are the parser options shared by all commands.
type parseFlags struct {
	ExpandDepth int  `default:"${defaultDepth}" help:"Number of substitution passes over values."`
	Strict      bool `help:"Fail on malformed syntax instead of reporting it."`
}

func (f parseFlags) options(logger log.Logger) []pkgbuild.Option {
	return []pkgbuild.Option{
		pkgbuild.WithLogger(logger),
		pkgbuild.WithStrict(f.Strict),
		pkgbuild.WithExpandDepth(f.ExpandDepth),
	}
}

// readInput parses the descriptor named by path, or the standard input if
// path is empty or "-".
func (f parseFlags) readInput(ctx context.Context, path string) (*pkgbuild.Document, error) {
	logger := log.Default().With(slog.String("input", inputName(path)))

	var r io.Reader

	if path == "" || path == stdinSource {
		r = streamsFrom(ctx).In
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, pkgbuild.ErrReadInput.Wrap(err).With(slog.String("path", path))
		}
		defer file.Close()

		r = file
	}

	return pkgbuild.ParseReader(ctx, r, f.options(logger)...)
}

// describe parses path and extracts its descriptor.
func (f parseFlags) describe(ctx context.Context, path string) (*pkgbuild.Document, *manifest.Descriptor, error) {
	doc, err := f.readInput(ctx, path)
	if err != nil {
		return nil, nil, err
	}

	desc, err := manifest.Extract(ctx, doc, manifest.WithLogger(log.Default()))
	if err != nil {
		return nil, nil, err
	}

	return doc, desc, nil
}

func inputName(path string) string {
	if path == "" || path == stdinSource {
		return "stdin"
	}

	return path
}
