package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ardnew/pkgport/fetch"
	"github.com/ardnew/pkgport/log"
	"github.com/ardnew/pkgport/manifest"
	"github.com/ardnew/pkgport/pkgbuild"
)

// Import fetches descriptors and writes their build files.
type Import struct {
	Parse  parseFlags  `embed:""`
	Output outputFlags `embed:""`

	URLs    []string      `arg:""                  help:"Package repository URL, PKGBUILD URL, or local path." name:"url"`
	OutDir  string        `default:"."             help:"Directory receiving <name>${suffix} directories."    short:"o" type:"path"`
	Force   bool          `help:"Overwrite output files with different content."                              short:"f"`
	Branch  string        `default:"${defaultBranch}"  help:"Repository branch holding the PKGBUILD."         short:"b"`
	Jobs    int           `default:"${defaultJobs}"    help:"Number of descriptors imported concurrently."    short:"J"`
	Timeout time.Duration `default:"${defaultTimeout}" help:"Timeout of each fetch."`
	Quiet   bool          `help:"Suppress progress output."                                                   short:"q"`

	fetcher fetch.Fetcher `kong:"-"`
}

// Run executes the import command.
//
// Descriptors are imported independently; a failure does not stop the
// others, and all failures are returned joined.
func (c *Import) Run(ctx context.Context) error {
	fetcher := c.fetcher
	if fetcher == nil {
		fetcher = fetch.New(
			fetch.WithBranch(c.Branch),
			fetch.WithTimeout(c.Timeout),
			fetch.WithLogger(log.Default()),
		)
	}

	prog := newProgress(streamsFrom(ctx).Err, c.Quiet)
	errs := make([]error, len(c.URLs))

	var g errgroup.Group

	g.SetLimit(max(c.Jobs, 1))

	for i, location := range c.URLs {
		label := ""
		if len(c.URLs) > 1 {
			label = path.Base(strings.TrimRight(location, "/"))
		}

		g.Go(func() error {
			if err := c.importOne(ctx, fetcher, prog, label, location); err != nil {
				prog.Failf(label, "%v", err)
				errs[i] = err
			}

			return nil
		})
	}

	_ = g.Wait()

	return errors.Join(errs...)
}

func (c *Import) importOne(
	ctx context.Context,
	fetcher fetch.Fetcher,
	prog *progress,
	label, location string,
) error {
	logger := log.Default().With(slog.String("location", location))

	from := location
	if !fetch.IsLocal(location) {
		from = fetch.RawURL(location, c.Branch)
	}

	prog.Stepf(label, "Fetching PKGBUILD from: %s", from)

	text, err := fetcher.Fetch(ctx, location)
	if err != nil {
		return ErrFetch.Wrap(err).With(slog.String("location", location))
	}

	doc, err := pkgbuild.Parse(ctx, text, c.Parse.options(logger)...)
	if err != nil {
		return err
	}

	desc, err := manifest.Extract(ctx, doc, manifest.WithLogger(logger))
	if err != nil {
		return err
	}

	name := desc.Name()

	if desc.Split() {
		prog.Stepf(label, "Detected split package with base: %s", desc.Base)
	}

	prog.Stepf(label, "Found base: %s version %s", name, desc.Version)

	dir := OutputDir(c.OutDir, name)

	prog.Stepf(label, "Creating build files in: %s", dir)

	var yamlBuf, scriptBuf bytes.Buffer

	if err := c.Output.writeManifest(ctx, &yamlBuf, desc); err != nil {
		return err
	}

	if err := c.Output.writeScript(&scriptBuf, doc, desc); err != nil {
		return manifest.ErrEncode.Wrap(err)
	}

	w := writer{dir: dir, force: c.Force, logger: logger}

	result, err := w.write(
		file{name: ManifestFile, data: yamlBuf.Bytes(), mode: manifestMode},
		file{name: ScriptFile, data: scriptBuf.Bytes(), mode: scriptMode},
	)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "imported",
		slog.String("name", name),
		slog.String("dir", dir),
		slog.String("digest", fmt.Sprintf("%016x", doc.Digest())),
		slog.String(ManifestFile, result[ManifestFile].String()),
		slog.String(ScriptFile, result[ScriptFile].String()),
	)

	prog.Donef(label, "Success! Build files for '%s' created in '%s'.", name, dir)

	return nil
}
