package pkgbuild

import "unicode"

// ParseArray splits text into whitespace-separated words.
//
// A single or double quote starts a quoted span that ends at the next
// occurrence of the same quote character. Quote characters are removed and
// whitespace inside a quoted span does not split words. There is no escape
// processing and no nesting. An unterminated quote extends to the end of
// text, so the remainder becomes part of the final word. Empty words (such as
// "") are dropped.
func ParseArray(text string) []string {
	var (
		words []string
		word  []rune
		quote rune
	)

	for _, r := range text {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				word = append(word, r)
			}

		case r == '"' || r == '\'':
			quote = r

		case unicode.IsSpace(r):
			if len(word) > 0 {
				words = append(words, string(word))
				word = word[:0]
			}

		default:
			word = append(word, r)
		}
	}

	if len(word) > 0 {
		words = append(words, string(word))
	}

	return words
}
