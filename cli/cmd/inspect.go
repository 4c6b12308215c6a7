package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/ardnew/pkgport/manifest"
	"github.com/ardnew/pkgport/pkgbuild"
)

// maxSuggestions bounds the "did you mean" candidates of a failed lookup.
const maxSuggestions = 3

// Inspect shows what the parser extracted from a descriptor.
type Inspect struct {
	Vars InspectVars `cmd:"" help:"List variable assignments."`
	Func InspectFunc `cmd:"" help:"Print a function body."`
}

// InspectVars lists the variable table.
type InspectVars struct {
	Parse parseFlags `embed:""`

	File  string   `arg:""                              default:"-" help:"Descriptor file, or - for stdin." optional:""`
	Names []string `help:"Only show the named variables." name:"name"  short:"n"                            sep:","`
	Raw   bool     `help:"Show values before substitution."`
	JSON  bool     `help:"Write JSON instead of text."    short:"j"`
}

// variable is the JSON form of one table entry.
type variable struct {
	Name  string   `json:"name"`
	Kind  string   `json:"kind"`
	Value string   `json:"value,omitempty"`
	Words []string `json:"words,omitempty"`
	Line  int      `json:"line"`
}

// Run executes the inspect vars command.
func (c *InspectVars) Run(ctx context.Context) error {
	doc, err := c.Parse.readInput(ctx, c.File)
	if err != nil {
		return err
	}

	var vars []variable

	if len(c.Names) == 0 {
		for e := range doc.Entries() {
			vars = append(vars, c.variable(doc, e))
		}
	} else {
		for _, name := range c.Names {
			e, ok := doc.Table().Lookup(name)
			if !ok {
				return notFound(ErrVariableNotFound, name, entryNames(doc))
			}

			vars = append(vars, c.variable(doc, e))
		}
	}

	out := streamsFrom(ctx).Out

	if c.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		if err := enc.Encode(vars); err != nil {
			return manifest.ErrEncode.Wrap(err)
		}

		return nil
	}

	return writeVariables(out, vars)
}

func (c *InspectVars) variable(doc *pkgbuild.Document, e pkgbuild.Entry) variable {
	v := variable{Name: e.Name, Kind: e.Kind.String(), Line: e.Pos.Line}

	switch {
	case e.Kind == pkgbuild.KindArray && c.Raw:
		v.Words = e.Words
	case e.Kind == pkgbuild.KindArray:
		v.Words = doc.Array(e.Name)
	case c.Raw:
		v.Value = e.Raw
	default:
		v.Value = doc.Value(e.Name)
	}

	return v
}

// writeVariables writes one shell-like assignment per variable.
func writeVariables(w io.Writer, vars []variable) error {
	var b strings.Builder

	for _, v := range vars {
		if v.Kind == pkgbuild.KindArray.String() {
			quoted := make([]string, len(v.Words))
			for i, word := range v.Words {
				quoted[i] = quote(word)
			}

			fmt.Fprintf(&b, "%s=(%s)\n", v.Name, strings.Join(quoted, " "))

			continue
		}

		fmt.Fprintf(&b, "%s=%s\n", v.Name, quote(v.Value))
	}

	_, err := io.WriteString(w, b.String())

	return err
}

// quote single-quotes s unless it is a plain shell word.
func quote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\$`;&|()<>*?[]#~") {
		return s
	}

	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// InspectFunc prints one function body.
type InspectFunc struct {
	Parse parseFlags `embed:""`

	Name    string `arg:""                                        help:"Function name."`
	File    string `arg:""                                        default:"-" help:"Descriptor file, or - for stdin." optional:""`
	Rewrite bool   `help:"Substitute variables and rewrite paths as in build.sh." short:"r"`
}

// Run executes the inspect func command.
func (c *InspectFunc) Run(ctx context.Context) error {
	doc, err := c.Parse.readInput(ctx, c.File)
	if err != nil {
		return err
	}

	if !doc.HasFunction(c.Name) {
		return notFound(ErrFunctionNotFound, c.Name, slices.Collect(doc.Functions()))
	}

	body := doc.Function(c.Name)
	if c.Rewrite {
		body = manifest.RewritePaths(doc.Substitute(body))
	}

	_, err = fmt.Fprintln(streamsFrom(ctx).Out, body)

	return err
}

// notFound returns sentinel annotated with name and the candidates closest
// to it.
func notFound(sentinel *Error, name string, candidates []string) error {
	err := sentinel.With(slog.String("name", name))

	if s := suggest(name, candidates); len(s) > 0 {
		err = err.With(slog.String("suggestions", strings.Join(s, ", ")))
	}

	return err
}

// suggest returns up to maxSuggestions distinct candidates that fuzzily
// match name, best first.
func suggest(name string, candidates []string) []string {
	candidates = slices.Compact(slices.Sorted(slices.Values(candidates)))

	var out []string

	for _, m := range fuzzy.Find(name, candidates) {
		if len(out) == maxSuggestions {
			break
		}

		out = append(out, m.Str)
	}

	return out
}

func entryNames(doc *pkgbuild.Document) []string {
	var names []string

	for e := range doc.Entries() {
		names = append(names, e.Name)
	}

	return names
}
