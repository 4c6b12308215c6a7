package pkgbuild

import "strings"

// Function is a shell function defined at the top level of a descriptor.
// Body is the raw text between the opening and closing braces.
type Function struct {
	Name string
	Body string
	Pos  Position
}

// Dedent returns the function body de-indented.
func (f Function) Dedent() string { return dedent(f.Body) }

// dedent trims leading and trailing blank lines from body and removes the
// indentation of the first non-empty line from every line.
//
// A line no longer than that width becomes empty, as does a whitespace-only
// line. Every other line loses its first width bytes.
func dedent(body string) string {
	lines := strings.Split(body, "\n")

	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}

	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	if len(lines) == 0 {
		return ""
	}

	width := indentOf(lines[0])

	for i, line := range lines {
		if len(line) <= width || indentOf(line) == len(line) {
			lines[i] = ""
		} else {
			lines[i] = line[width:]
		}
	}

	return strings.TrimRight(strings.Join(lines, "\n"), " \t")
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t\r"))
}
