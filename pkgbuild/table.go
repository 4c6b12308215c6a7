package pkgbuild

import (
	"iter"
	"strings"
)

// Kind distinguishes scalar from array assignments.
type Kind int

const (
	// KindScalar is a NAME=value assignment.
	KindScalar Kind = iota

	// KindArray is a NAME=( ... ) assignment.
	KindArray
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Entry is one variable assignment found by the scanner.
//
// Raw holds the unsubstituted value: the scalar text with one layer of
// surrounding quotes removed, or the body between the parentheses of an
// array with comments removed. Words is Raw split with [ParseArray].
type Entry struct {
	Name   string
	Kind   Kind
	Raw    string
	Words  []string
	Pos    Position
	Append bool // NAME+=( ... )
}

// Table maps variable names to their assignments in insertion order.
//
// A Table is built once by [newTable] and never modified afterward.
type Table struct {
	order []string
	index map[string]*Entry
}

// newTable merges scanned entries using the assignment policy:
//
//   - the first scalar assignment of a name wins;
//   - an array assignment replaces any scalar, and the last array wins;
//   - an append (NAME+=( ... )) extends an existing array, or acts as a plain
//     array assignment otherwise.
//
// Iteration order is the order in which names first appear.
func newTable(entries []Entry) *Table {
	t := &Table{index: make(map[string]*Entry, len(entries))}

	for _, e := range entries {
		prev, seen := t.index[e.Name]
		if !seen {
			t.order = append(t.order, e.Name)
			t.index[e.Name] = &e

			continue
		}

		switch e.Kind {
		case KindScalar:
			// first scalar wins, and arrays always win over scalars

		case KindArray:
			if e.Append && prev.Kind == KindArray {
				prev.Raw = strings.TrimSpace(prev.Raw + "\n" + e.Raw)
				prev.Words = append(prev.Words[:len(prev.Words):len(prev.Words)], e.Words...)

				continue
			}

			*prev = e
		}
	}

	return t
}

// Len returns the number of distinct variable names.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}

	return len(t.order)
}

// Lookup returns the entry for name.
func (t *Table) Lookup(name string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}

	e, ok := t.index[name]
	if !ok {
		return Entry{}, false
	}

	return *e, true
}

// All returns an iterator over all entries in insertion order.
func (t *Table) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		if t == nil {
			return
		}

		for _, name := range t.order {
			if !yield(*t.index[name]) {
				return
			}
		}
	}
}

// Substitute replaces references to scalar variables in s with their raw
// values in a single left-to-right pass. Inserted values are not scanned
// again, so a value that itself refers to other variables is inserted
// verbatim.
func (t *Table) Substitute(s string) string {
	return t.expand(s, 1)
}

// expand replaces ${NAME} and $NAME references to scalar entries.
//
// Each inserted value is expanded again with depth-1, so depth bounds how
// many levels of chained references are resolved and also terminates
// self-referencing chains. Array variables, unknown names and escaped
// dollars (\$) are left as they are. A bare $NAME reference extends over all
// following identifier characters, so $pkg never matches inside $pkgname.
func (t *Table) expand(s string, depth int) string {
	if t == nil || depth <= 0 || !strings.Contains(s, "$") {
		return s
	}

	var sb strings.Builder

	sb.Grow(len(s))

	for i := 0; i < len(s); {
		c := s[i]

		if c == '\\' && i+1 < len(s) && s[i+1] == '$' {
			sb.WriteString(s[i : i+2])

			i += 2

			continue
		}

		if c != '$' {
			sb.WriteByte(c)

			i++

			continue
		}

		name, n := reference(s[i:])
		if n > 0 {
			if e, ok := t.index[name]; ok && e.Kind == KindScalar {
				sb.WriteString(t.expand(e.Raw, depth-1))

				i += n

				continue
			}
		}

		sb.WriteByte(c)

		i++
	}

	return sb.String()
}

// reference parses a variable reference at the start of s, which must begin
// with '$'. It returns the variable name and the length of the reference, or
// zero length if s does not start with ${NAME} or $NAME.
func reference(s string) (name string, n int) {
	if len(s) < 2 || s[0] != '$' {
		return "", 0
	}

	if s[1] == '{' {
		end := identEnd(s, 2)
		if end == 2 || end >= len(s) || s[end] != '}' {
			return "", 0
		}

		return s[2:end], end + 1
	}

	end := identEnd(s, 1)
	if end == 1 {
		return "", 0
	}

	return s[1:end], end
}

// identEnd returns the index following the identifier that starts at s[i],
// or i if no identifier starts there.
func identEnd(s string, i int) int {
	if i >= len(s) || !isIdentStart(s[i]) {
		return i
	}

	i++
	for i < len(s) && isIdentContinue(s[i]) {
		i++
	}

	return i
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentContinue(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// isIdent reports whether s is a shell variable name.
func isIdent(s string) bool {
	return s != "" && identEnd(s, 0) == len(s)
}
