package pkgbuild

import (
	"strings"
	"unicode/utf8"
)

// declarations are builtins whose arguments never produce table entries.
var declarations = map[string]bool{
	"local":    true,
	"declare":  true,
	"export":   true,
	"readonly": true,
	"typeset":  true,
}

// scanner walks descriptor text one character at a time.
//
// The top-level loop reads statements. An assignment switches into the
// in-array state (NAME=( ... )) or reads a scalar word. A function
// definition pushes a scope: its body is consumed by brace matching and
// recorded in the function index, so nothing assigned inside a function is
// ever seen by the top-level table. Quotes, comments and heredoc bodies are
// skipped as units wherever they appear.
type scanner struct {
	input []byte
	pos   int
	line  int
	col   int

	heredocs []heredoc // pending bodies, consumed at the next newline

	entries []Entry
	funcs   []Function
	issues  []*ParseError
}

type heredoc struct {
	delim string
	strip bool // <<- allows indented delimiter lines
}

type mark struct {
	pos, line, col int
}

func newScanner(src string) *scanner {
	return &scanner{
		input: []byte(src),
		line:  1,
		col:   1,
	}
}

// scan reads all top-level statements.
func (s *scanner) scan() *scanner {
	for !s.eof() {
		s.skipBlanks()

		if s.eof() {
			break
		}

		switch c := s.peek(); {
		case c == '\n':
			s.newline()

		case c == ';' || c == '&' || c == '|':
			s.advance()

		case c == '#':
			s.skipComment()

		case isNameChar(c):
			s.statement()

		default:
			s.skipStatement()
		}
	}

	return s
}

// statement reads one statement starting with a word.
func (s *scanner) statement() {
	start := s.position()
	word := s.readName()

	switch {
	case word == "":
		s.skipStatement()

	case s.peek() == '=' && isIdent(word):
		s.advance()
		s.assignment(word, start, false)

	case s.peekN(2) == "+=" && isIdent(word):
		s.advance()
		s.advance()

		if s.peek() != '(' {
			// scalar appends are not recorded
			s.skipStatement()

			return
		}

		s.assignment(word, start, true)

	case word == "function":
		s.skipBlanks()

		name := s.readName()
		if name == "" {
			s.skipStatement()

			return
		}

		s.skipBlanks()

		if s.peekN(2) == "()" {
			s.advance()
			s.advance()
		}

		s.function(name, start)

	case declarations[word]:
		s.skipStatement()

	default:
		m := s.mark()

		s.skipBlanks()

		if s.peek() == '(' {
			s.advance()
			s.skipBlanks()

			if s.peek() == ')' {
				s.advance()
				s.function(word, start)

				return
			}
		}

		s.reset(m)
		s.skipStatement()
	}
}

// assignment reads the value following NAME= or NAME+=.
func (s *scanner) assignment(name string, start Position, appendTo bool) {
	e := Entry{Name: name, Pos: start, Append: appendTo}

	if s.peek() == '(' {
		s.advance()

		e.Kind = KindArray
		e.Raw = strings.TrimSpace(s.arrayBody(start))
		e.Words = ParseArray(e.Raw)
	} else {
		e.Kind = KindScalar
		e.Raw = unquote(s.scalarValue())
	}

	s.entries = append(s.entries, e)

	// Trailing comment or command following an environment prefix.
	s.skipBlanks()

	switch {
	case s.eof(), s.peek() == '\n', s.peek() == ';':
	case s.peek() == '#':
		s.skipComment()
	default:
		s.skipStatement()
	}
}

// arrayBody reads the text between the parentheses of an array assignment,
// leaving the scanner after the closing parenthesis. Comments are dropped.
//
// If the array is malformed, the body falls back to the text up to the next
// ')' anywhere, or to the end of the line if there is none.
func (s *scanner) arrayBody(start Position) string {
	m := s.mark()

	var (
		sb    strings.Builder
		depth int
	)

	for !s.eof() {
		c := s.peek()

		switch {
		case c == '\\':
			sb.WriteString(s.peekN(2))
			s.advance()
			s.advance()

		case c == '"' || c == '\'' || c == '`':
			from := s.pos
			if !s.skipQuoted() {
				return s.arrayFallback(m, ErrUnterminatedQuote, start)
			}

			sb.Write(s.input[from:s.pos])

		case c == '#' && s.atWordStart():
			s.skipComment()

		case c == '(':
			depth++

			sb.WriteByte(c)
			s.advance()

		case c == ')':
			s.advance()

			if depth == 0 {
				return sb.String()
			}

			depth--

			sb.WriteByte(c)

		default:
			sb.WriteByte(c)
			s.advance()
		}
	}

	return s.arrayFallback(m, ErrUnterminatedArray, start)
}

func (s *scanner) arrayFallback(m mark, err *Error, start Position) string {
	s.reset(m)
	s.report(err, start)

	end := len(s.input)
	if i := strings.IndexByte(string(s.input[m.pos:]), ')'); i >= 0 {
		end = m.pos + i
	} else if i := strings.IndexByte(string(s.input[m.pos:]), '\n'); i >= 0 {
		end = m.pos + i
	}

	for s.pos < end {
		s.advance()
	}

	body := string(s.input[m.pos:end])

	if s.peek() == ')' {
		s.advance()
	}

	return body
}

// scalarValue reads one shell word as the value of a scalar assignment.
// Quoted spans, $( ... ) and ${ ... } may contain blanks. An unterminated
// quote makes the value run to the end of the line.
func (s *scanner) scalarValue() string {
	m := s.mark()

	for !s.eof() {
		c := s.peek()

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == ';':
			return string(s.input[m.pos:s.pos])

		case c == '\\':
			s.advance()
			s.advance()

		case c == '"' || c == '\'' || c == '`':
			q := s.position()
			if !s.skipQuoted() {
				s.reset(m)
				s.report(ErrUnterminatedQuote, q)
				s.skipLine()

				return strings.TrimSpace(string(s.input[m.pos:s.pos]))
			}

		case c == '$' && (s.peekAt(1) == '(' || s.peekAt(1) == '{'):
			s.advance()

			if !s.skipGroup() {
				s.reset(m)
				s.skipLine()

				return strings.TrimSpace(string(s.input[m.pos:s.pos]))
			}

		default:
			s.advance()
		}
	}

	return string(s.input[m.pos:s.pos])
}

// skipGroup skips a balanced ( ... ) or { ... } group starting at the
// current opening character, honoring quotes.
func (s *scanner) skipGroup() bool {
	open := s.peek()
	close := byte(')')

	if open == '{' {
		close = '}'
	}

	depth := 0

	for !s.eof() {
		c := s.peek()

		switch {
		case c == '\\':
			s.advance()
			s.advance()

		case c == '"' || c == '\'' || c == '`':
			if !s.skipQuoted() {
				return false
			}

		case c == open:
			depth++

			s.advance()

		case c == close:
			depth--

			s.advance()

			if depth == 0 {
				return true
			}

		default:
			s.advance()
		}
	}

	return false
}

// function records a function definition whose name and parentheses have
// been read. The body must be a brace group.
func (s *scanner) function(name string, start Position) {
	s.skipSpace()

	if s.peek() != '{' {
		s.skipStatement()

		return
	}

	open := s.position()

	s.advance()

	from := s.pos
	to := s.matchBrace(open)

	s.funcs = append(s.funcs, Function{
		Name: name,
		Body: string(s.input[from:to]),
		Pos:  start,
	})
}

// matchBrace consumes a brace group body whose opening brace has been read
// and returns the offset of its closing brace.
//
// Depth starts at 1 and the group ends as soon as depth reaches 0. Braces
// inside quotes, comments and heredocs are not counted. If that fails, the
// braces are counted naively over the raw text. If that fails too, the body
// extends to the end of text.
func (s *scanner) matchBrace(open Position) int {
	m := s.mark()
	depth := 1

	var quote Position

aware:
	for !s.eof() {
		c := s.peek()

		switch {
		case c == '\\':
			s.advance()
			s.advance()

		case c == '"' || c == '\'' || c == '`':
			quote = s.position()

			if !s.skipQuoted() {
				break aware
			}

			quote = Position{}

		case c == '#' && s.atWordStart():
			s.skipComment()

		case c == '<' && s.peekN(2) == "<<":
			s.heredocStart()

		case c == '\n':
			s.newline()

		case c == '{':
			depth++

			s.advance()

		case c == '}':
			depth--

			if depth == 0 {
				end := s.pos

				s.advance()

				return end
			}

			s.advance()

		default:
			s.advance()
		}
	}

	s.reset(m)
	s.heredocs = nil

	for depth = 1; !s.eof(); s.advance() {
		switch s.peek() {
		case '{':
			depth++
		case '}':
			depth--
		}

		if depth == 0 {
			end := s.pos

			s.advance()

			return end
		}
	}

	if quote.Line > 0 {
		s.report(ErrUnterminatedQuote, quote)
	} else {
		s.report(ErrUnbalancedBraces, open)
	}

	return len(s.input)
}

// skipStatement consumes the rest of a statement up to, but not including,
// an unquoted newline or semicolon.
func (s *scanner) skipStatement() {
	for !s.eof() {
		c := s.peek()

		switch {
		case c == '\n' || c == ';':
			return

		case c == '\\':
			s.advance()
			s.advance()

		case c == '"' || c == '\'' || c == '`':
			m := s.mark()
			q := s.position()

			if !s.skipQuoted() {
				s.reset(m)
				s.report(ErrUnterminatedQuote, q)
				s.skipLine()

				return
			}

		case c == '#' && s.atWordStart():
			s.skipComment()

		case c == '<' && s.peekN(2) == "<<":
			s.heredocStart()

		default:
			s.advance()
		}
	}
}

// skipQuoted consumes a quoted span starting at the current quote
// character. Double quotes, backquotes and $'...' honor backslash escapes.
// It reports false if the text ends before the closing quote.
func (s *scanner) skipQuoted() bool {
	q := s.peek()
	escapes := q != '\'' || (s.pos > 0 && s.input[s.pos-1] == '$')

	s.advance()

	for !s.eof() {
		c := s.peek()

		if escapes && c == '\\' {
			s.advance()
			s.advance()

			continue
		}

		s.advance()

		if c == q {
			return true
		}
	}

	return false
}

// heredocStart reads a << or <<- redirection and queues its delimiter. The
// body is skipped by the next call to newline. Here-strings (<<<) and
// arithmetic shifts are not heredocs.
func (s *scanner) heredocStart() {
	if s.peekN(3) == "<<<" {
		s.advance()
		s.advance()
		s.advance()

		return
	}

	s.advance()
	s.advance()

	var h heredoc

	if s.peek() == '-' {
		h.strip = true

		s.advance()
	}

	s.skipBlanks()

	var delim strings.Builder

	for !s.eof() {
		c := s.peek()
		if c == ' ' || c == '\t' || c == '\n' || strings.IndexByte(";&|<>()", c) >= 0 {
			break
		}

		if c != '"' && c != '\'' && c != '\\' {
			delim.WriteByte(c)
		}

		s.advance()
	}

	h.delim = delim.String()
	if h.delim == "" || !isIdentStart(h.delim[0]) {
		return
	}

	s.heredocs = append(s.heredocs, h)
}

// newline consumes a newline and the bodies of any pending heredocs.
func (s *scanner) newline() {
	s.advance()

	pending := s.heredocs
	s.heredocs = nil

	for _, h := range pending {
		for !s.eof() {
			from := s.pos

			s.skipLine()

			line := string(s.input[from:s.pos])
			if h.strip {
				line = strings.TrimLeft(line, "\t")
			}

			s.advance() // newline

			if strings.TrimRight(line, " \t") == h.delim {
				break
			}
		}
	}
}

// Helper methods

func (s *scanner) eof() bool { return s.pos >= len(s.input) }

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}

	return s.input[s.pos]
}

func (s *scanner) peekAt(n int) byte {
	if s.pos+n >= len(s.input) {
		return 0
	}

	return s.input[s.pos+n]
}

func (s *scanner) peekN(n int) string {
	if s.pos+n > len(s.input) {
		return string(s.input[s.pos:])
	}

	return string(s.input[s.pos : s.pos+n])
}

func (s *scanner) advance() {
	if s.eof() {
		return
	}

	r, size := utf8.DecodeRune(s.input[s.pos:])

	s.pos += size
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
}

func (s *scanner) mark() mark { return mark{s.pos, s.line, s.col} }

func (s *scanner) reset(m mark) { s.pos, s.line, s.col = m.pos, m.line, m.col }

func (s *scanner) position() Position {
	return Position{
		Offset: s.pos,
		Line:   s.line,
		Column: s.col,
	}
}

func (s *scanner) report(err *Error, pos Position) {
	s.issues = append(s.issues, newParseError(err, pos, string(s.input)))
}

// atWordStart reports whether the current character begins a shell word,
// which is where '#' starts a comment.
func (s *scanner) atWordStart() bool {
	if s.pos == 0 {
		return true
	}

	return strings.IndexByte(" \t\n;&|()", s.input[s.pos-1]) >= 0
}

func (s *scanner) skipBlanks() {
	for !s.eof() && (s.peek() == ' ' || s.peek() == '\t') {
		s.advance()
	}
}

// skipSpace skips blanks, newlines and comments.
func (s *scanner) skipSpace() {
	for !s.eof() {
		switch c := s.peek(); {
		case c == ' ' || c == '\t' || c == '\r':
			s.advance()
		case c == '\n':
			s.newline()
		case c == '#':
			s.skipComment()
		default:
			return
		}
	}
}

func (s *scanner) skipComment() { s.skipLine() }

// skipLine advances to the next newline without consuming it.
func (s *scanner) skipLine() {
	for !s.eof() && s.peek() != '\n' {
		s.advance()
	}
}

// readName reads a command or function name. A '+' directly followed by
// '=' is left for the caller.
func (s *scanner) readName() string {
	start := s.pos

	for !s.eof() {
		c := s.peek()
		if c == '+' && s.peekAt(1) == '=' {
			break
		}

		if !isNameChar(c) {
			break
		}

		s.advance()
	}

	return string(s.input[start:s.pos])
}

func isNameChar(c byte) bool {
	return isIdentContinue(c) || c == '-' || c == '.' || c == '+' || c == '@'
}

// unquote removes one layer of matching quotes surrounding s.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}

	return s
}
