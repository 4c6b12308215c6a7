package pkgbuild

import (
	"slices"
	"testing"
)

func TestParseArray(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "quoted words",
			input: `a "b c" 'd'`,
			want:  []string{"a", "b c", "d"},
		},
		{
			name:  "newlines separate words",
			input: "'glibc>=2.34'\n\tzlib\n",
			want:  []string{"glibc>=2.34", "zlib"},
		},
		{
			name:  "adjacent quoted spans join",
			input: `foo"bar baz"qux`,
			want:  []string{"foobar bazqux"},
		},
		{
			name:  "mixed quotes",
			input: `"it's" 'say "hi"'`,
			want:  []string{"it's", `say "hi"`},
		},
		{
			name:  "empty quotes dropped",
			input: `"" a ''`,
			want:  []string{"a"},
		},
		{
			name:  "no escape processing",
			input: `a\ b`,
			want:  []string{`a\`, "b"},
		},
		{
			name:  "unterminated quote swallows remainder",
			input: `a "b c d`,
			want:  []string{"a", "b c d"},
		},
		{
			name:  "empty",
			input: " \n\t ",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseArray(tt.input)
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParseArray(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
