package cmd

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"

	"github.com/ardnew/pkgport/log"
)

// Output file names and modes.
const (
	ManifestFile = "build.yaml"
	ScriptFile   = "build.sh"

	manifestMode fs.FileMode = 0o644
	scriptMode   fs.FileMode = 0o755
	outDirMode   fs.FileMode = 0o755
)

// OutputDir returns the directory under dir that receives the files of the
// descriptor named name.
func OutputDir(dir, name string) string {
	return filepath.Join(dir, name+OutputSuffix)
}

// digest hashes file contents for the unchanged-output check.
var digest = xxh3.Hash

// file is one generated output file.
type file struct {
	name string
	data []byte
	mode fs.FileMode
}

// writer stores generated files in an output directory.
type writer struct {
	dir    string
	force  bool
	logger log.Logger
}

// status of a file after writer.write.
type status int

const (
	statusCreated status = iota
	statusUpdated
	statusUnchanged
)

func (s status) String() string {
	switch s {
	case statusCreated:
		return "created"
	case statusUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

// write stores files in w.dir.
//
// A file whose content on disk is identical is left alone; digests are
// compared first and the bytes confirm a match.
// A file with different content is replaced only if w.force is set;
// otherwise nothing is written and [ErrOutputExists] is returned.
func (w writer) write(files ...file) (map[string]status, error) {
	plan := make(map[string]status, len(files))

	for _, f := range files {
		path := filepath.Join(w.dir, f.name)

		st, err := w.compare(path, f.data)
		if err != nil {
			return nil, err
		}

		plan[f.name] = st
	}

	if err := os.MkdirAll(w.dir, outDirMode); err != nil {
		return nil, ErrWriteOutput.Wrap(err).With(slog.String("dir", w.dir))
	}

	for _, f := range files {
		path := filepath.Join(w.dir, f.name)

		if plan[f.name] == statusUnchanged {
			w.logger.Debug("output unchanged", slog.String("path", path))

			continue
		}

		if err := writeFile(path, f.data, f.mode); err != nil {
			return nil, ErrWriteOutput.Wrap(err).With(slog.String("path", path))
		}

		w.logger.Debug("output written",
			slog.String("path", path),
			slog.String("status", plan[f.name].String()),
			slog.Int("bytes", len(f.data)),
		)
	}

	return plan, nil
}

// compare reports what writing data to path would do.
func (w writer) compare(path string, data []byte) (status, error) {
	existing, err := os.ReadFile(path)

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return statusCreated, nil
	case err != nil:
		return 0, ErrWriteOutput.Wrap(err).With(slog.String("path", path))
	case digest(existing) == digest(data) && bytes.Equal(existing, data):
		return statusUnchanged, nil
	case !w.force:
		return 0, ErrOutputExists.With(slog.String("path", path))
	default:
		return statusUpdated, nil
	}
}

// writeFile replaces path with data through a temporary file in the same
// directory.
func writeFile(path string, data []byte, mode fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}

	name := tmp.Name()
	defer os.Remove(name)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()

		return err
	}

	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()

		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(name, path)
}
