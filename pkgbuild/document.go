package pkgbuild

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"strings"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/pkgport/log"
)

// Document is a parsed descriptor: its variable table, its function index
// and any diagnostics found while scanning.
//
// A Document is immutable after [Parse] returns and is safe for concurrent
// use.
type Document struct {
	top    Scope
	source string
	funcs  []Function
	issues []*ParseError
	logger log.Logger
	strict bool
	depth  int
}

// Scope answers variable lookups over a subset of a descriptor.
//
// The top-level scope of a [Document] sees every assignment made outside
// function bodies. A scope created with [Document.Scope] sees only the
// assignments inside the given text. Substitution always uses the table of
// the whole document.
type Scope struct {
	doc   *Document
	table *Table
}

// Parse scans descriptor source and returns the resulting [Document].
//
// Malformed input (unbalanced braces, unterminated quotes or arrays) never
// prevents parsing: the scanner falls back to a best-effort reading and
// records a [*ParseError] in [Document.Diagnostics]. With [WithStrict] the
// first such error is returned instead.
func Parse(ctx context.Context, source string, opts ...Option) (*Document, error) {
	doc := &Document{source: strings.ReplaceAll(source, "\r\n", "\n")}

	applyDefaults(doc)
	applyOptions(doc, opts...)

	doc.logger.TraceContext(
		ctx,
		"parse start",
		slog.Int("source_length", len(doc.source)),
	)

	s := newScanner(doc.source).scan()

	doc.top = Scope{doc: doc, table: newTable(s.entries)}
	doc.funcs = s.funcs
	doc.issues = s.issues

	for _, issue := range doc.issues {
		if doc.strict {
			doc.logger.DebugContext(ctx, "parse failed", slog.Any("error", issue))

			return nil, issue
		}

		doc.logger.WarnContext(ctx, "malformed descriptor", slog.Any("error", issue))
	}

	doc.logger.TraceContext(
		ctx,
		"parse complete",
		slog.Int("variables", doc.top.table.Len()),
		slog.Int("functions", len(doc.funcs)),
		slog.Int("diagnostics", len(doc.issues)),
	)

	return doc, nil
}

// ParseReader reads all descriptor source from r and parses it.
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*Document, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("source", "reader"))
	}

	return Parse(ctx, string(data), opts...)
}

// Source returns the descriptor text with line endings normalized.
func (d *Document) Source() string { return d.source }

// Digest returns the xxh3 hash of the descriptor text.
func (d *Document) Digest() uint64 { return xxh3.HashString(d.source) }

// Diagnostics returns the malformed-input reports recorded while scanning.
func (d *Document) Diagnostics() []*ParseError { return d.issues }

// Table returns the top-level variable table.
func (d *Document) Table() *Table { return d.top.table }

// Entries returns an iterator over the top-level variable table.
func (d *Document) Entries() iter.Seq[Entry] { return d.top.table.All() }

// Substitute replaces variable references in s using the top-level table.
func (d *Document) Substitute(s string) string {
	return d.top.table.expand(s, d.depth)
}

// Value returns the substituted value of a top-level variable.
func (d *Document) Value(key string) string { return d.top.Value(key) }

// Array returns the substituted words of a top-level array variable.
func (d *Document) Array(key string) []string { return d.top.Array(key) }

// Scope returns a scope over the assignments found in text, which is
// normally the body of one of the document's functions.
func (d *Document) Scope(text string) *Scope {
	s := newScanner(text).scan()

	for _, issue := range s.issues {
		d.logger.Debug("malformed scope", slog.Any("error", issue))
	}

	return &Scope{doc: d, table: newTable(s.entries)}
}

// Function returns the de-indented body of the first top-level function
// named name, or an empty string if there is none.
func (d *Document) Function(name string) string {
	f, ok := d.lookupFunction(name)
	if !ok {
		return ""
	}

	return f.Dedent()
}

// HasFunction reports whether a top-level function named name exists.
func (d *Document) HasFunction(name string) bool {
	_, ok := d.lookupFunction(name)

	return ok
}

// Functions returns an iterator over the names of top-level functions in
// definition order. A name defined twice is yielded twice.
func (d *Document) Functions() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, f := range d.funcs {
			if !yield(f.Name) {
				return
			}
		}
	}
}

func (d *Document) lookupFunction(name string) (Function, bool) {
	for _, f := range d.funcs {
		if f.Name == name {
			return f, true
		}
	}

	return Function{}, false
}

// Table returns the variables assigned within the scope.
func (s *Scope) Table() *Table { return s.table }

// Value returns the substituted value of key.
//
// An array variable yields its first word. An absent key yields an empty
// string.
func (s *Scope) Value(key string) string {
	e, ok := s.table.Lookup(key)
	if !ok {
		return ""
	}

	if e.Kind == KindArray {
		if words := s.Array(key); len(words) > 0 {
			return words[0]
		}

		return ""
	}

	return s.doc.Substitute(e.Raw)
}

// Array returns the words of the array variable key after substitution.
//
// Substitution is applied to the raw array body before it is split, so a
// substituted value containing blanks yields several words. A scalar or
// absent key yields nil.
func (s *Scope) Array(key string) []string {
	e, ok := s.table.Lookup(key)
	if !ok || e.Kind != KindArray {
		return nil
	}

	return ParseArray(s.doc.Substitute(e.Raw))
}
