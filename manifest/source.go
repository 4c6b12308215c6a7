package manifest

import (
	"bytes"
	"encoding/json"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
)

// SourceType classifies a source entry.
type SourceType string

// Source types.
const (
	SourceArchive SourceType = "archive"
	SourceGit     SourceType = "git"
)

// Fragment keys understood for git sources, in output order.
var fragmentKeys = []string{"tag", "commit", "branch", "revision"}

// Checksum is the expected digest of a source.
type Checksum struct {
	Algorithm string // sha256, sha512 or b2
	Sum       string
}

// Key returns the manifest key of the checksum, such as "sha256sum".
func (c Checksum) Key() string { return c.Algorithm + "sum" }

// IsZero reports whether no checksum is set.
func (c Checksum) IsZero() bool { return c.Sum == "" }

// Source is one entry of a descriptor's source array.
type Source struct {
	Fragment map[string]string // git only
	Checksum Checksum
	Name     string
	Type     SourceType
	URL      string
}

// ParseSource parses a source array element of the form
// [name::]url[#fragment].
//
// A "git+" marker anywhere in spec makes the source a git source, and a
// leading one is removed from the URL. The stored URL keeps only scheme,
// host and path. For git sources the fragment is decoded as key=value pairs
// separated by '&' (the first value of a repeated key wins, and a trailing
// ?query is ignored). Without an explicit name, the name is the last path
// segment of the URL, without its extension for git sources.
func ParseSource(spec string) Source {
	src := Source{Type: SourceArchive}

	location := spec
	if name, rest, ok := strings.Cut(spec, "::"); ok {
		src.Name, location = name, rest
	}

	if strings.Contains(spec, "git+") {
		src.Type = SourceGit
	}

	location = strings.TrimPrefix(location, "git+")
	location, fragment, _ := strings.Cut(location, "#")

	var segment string

	if u, err := url.Parse(location); err == nil {
		u.RawQuery = ""
		u.ForceQuery = false
		u.Fragment = ""
		u.RawFragment = ""

		src.URL = u.String()
		segment = path.Base(strings.TrimRight(u.Path, "/"))

		if segment == "." || segment == "/" {
			segment = u.Host
		}
	} else {
		src.URL, _, _ = strings.Cut(location, "?")
		segment = path.Base(strings.TrimRight(src.URL, "/"))
	}

	if src.Type == SourceGit && fragment != "" {
		fragment, _, _ = strings.Cut(fragment, "?")

		values, _ := url.ParseQuery(fragment)
		for key, list := range values {
			if key == "" || len(list) == 0 {
				continue
			}

			if src.Fragment == nil {
				src.Fragment = make(map[string]string, len(values))
			}

			src.Fragment[key] = list[0]
		}
	}

	if src.Name == "" {
		src.Name = segment
		if src.Type == SourceGit {
			src.Name = strings.TrimSuffix(segment, path.Ext(segment))
		}
	}

	return src
}

// Tag returns the git tag named by the fragment, if any.
func (s Source) Tag() string { return s.Fragment["tag"] }

type field struct {
	key   string
	value string
}

// fields returns the serialized fields of s in output order.
func (s Source) fields() []field {
	fs := []field{
		{"name", s.Name},
		{"type", string(s.Type)},
		{"url", s.URL},
	}

	for _, key := range fragmentKeys {
		if v, ok := s.Fragment[key]; ok {
			fs = append(fs, field{key, v})
		}
	}

	var other []string

	for key := range s.Fragment {
		if !slices.Contains(fragmentKeys, key) {
			other = append(other, key)
		}
	}

	slices.Sort(other)

	for _, key := range other {
		fs = append(fs, field{key, s.Fragment[key]})
	}

	if !s.Checksum.IsZero() {
		fs = append(fs, field{s.Checksum.Key(), s.Checksum.Sum})
	}

	return fs
}

// MarshalYAML implements yaml.InterfaceMarshaler, keeping field order.
func (s Source) MarshalYAML() (any, error) {
	fs := s.fields()
	ms := make(yaml.MapSlice, 0, len(fs))

	for _, f := range fs {
		ms = append(ms, yaml.MapItem{Key: f.key, Value: f.value})
	}

	return ms, nil
}

// MarshalJSON implements json.Marshaler, keeping field order.
func (s Source) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, f := range s.fields() {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}

		value, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// StripVersion removes a version constraint from a dependency, truncating
// it at the first '<', '>' or '='.
func StripVersion(dep string) string {
	if i := strings.IndexAny(dep, "<>="); i >= 0 {
		return dep[:i]
	}

	return dep
}

// stripVersions applies [StripVersion] to every element of deps.
func stripVersions(deps []string) []string {
	if len(deps) == 0 {
		return nil
	}

	out := make([]string, len(deps))
	for i, dep := range deps {
		out[i] = StripVersion(dep)
	}

	return out
}
