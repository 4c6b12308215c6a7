package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
)

// anyArch is the architecture of packages that run everywhere.
const anyArch = "any"

// Manifest is the declarative build manifest (build.yaml) of a descriptor.
//
// A single-package manifest carries its dependency lists at the top level. A
// split-package manifest carries them per entry of Packages.
type Manifest struct {
	PkgBase     string    `json:"pkgbase,omitempty"     yaml:"pkgbase,omitempty"`
	Name        string    `json:"name,omitempty"        yaml:"name,omitempty"`
	Version     string    `json:"version"               yaml:"version"`
	Arch        string    `json:"arch"                  yaml:"arch"`
	Description string    `json:"description"           yaml:"description"`
	MakeDepends []string  `json:"makedepends,omitempty" yaml:"makedepends,omitempty"`
	Sources     []Source  `json:"source,omitempty"      yaml:"source,omitempty"`
	Depends     []string  `json:"deps,omitempty"        yaml:"deps,omitempty"`
	Conflicts   []string  `json:"conflicts,omitempty"   yaml:"conflicts,omitempty"`
	Replaces    []string  `json:"replaces,omitempty"    yaml:"replaces,omitempty"`
	Provides    []string  `json:"provides,omitempty"    yaml:"provides,omitempty"`
	Packages    []Package `json:"packages,omitempty"    yaml:"packages,omitempty"`
}

// NewManifest builds the manifest of desc.
func NewManifest(desc *Descriptor) *Manifest {
	m := &Manifest{
		Version:     desc.Version,
		Arch:        manifestArch(desc.Arch),
		Description: desc.Description,
		MakeDepends: desc.MakeDepends,
		Sources:     desc.Sources,
	}

	if desc.Split() {
		m.PkgBase = desc.Base
		m.Packages = desc.Packages

		return m
	}

	m.Name = desc.Name()
	m.Depends = desc.Depends
	m.Conflicts = desc.Conflicts
	m.Replaces = desc.Replaces
	m.Provides = desc.Provides

	return m
}

// manifestArch returns "any" if listed, else the first architecture.
func manifestArch(arch []string) string {
	if len(arch) == 0 || slices.Contains(arch, anyArch) {
		return anyArch
	}

	return arch[0]
}

// Encode writes the manifest as YAML. A non-positive indent selects flow
// style.
func (m *Manifest) Encode(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts,
			yaml.Indent(indent),
			yaml.IndentSequence(true),
		)
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, m, opts...)
	if err != nil {
		return ErrEncode.Wrap(err)
	}

	_, err = w.Write(data)

	return err
}

// EncodeJSON writes the manifest as JSON. A non-positive indent selects
// compact output.
func (m *Manifest) EncodeJSON(w io.Writer, indent int) error {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(m, "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(m)
	}

	if err != nil {
		return ErrEncode.Wrap(err)
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}
