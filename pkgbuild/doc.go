// Package pkgbuild reads PKGBUILD package descriptors without executing them.
//
// A descriptor is a bash script that assigns metadata variables and defines
// build functions. This package recognizes a small subset of shell syntax,
// which is enough to recover that information:
//
//	pkgname=example                # scalar assignment
//	depends=('glibc>=2.34' zlib)   # array assignment
//	depends+=(openssl)             # array append
//	package() {                    # function definition
//	  install -Dm755 "$srcdir/example" "$pkgdir/usr/bin/example"
//	}
//
// # Scanning
//
// [Parse] makes a single pass over the text. Assignments made outside any
// function become entries of the top-level [Table]. Function bodies are
// recorded by name and skipped, so assignments inside them never reach the
// table. Quotes, comments and heredocs are honored when matching braces and
// parentheses. Declarations (local, declare, export, readonly, typeset) are
// ignored. Nothing is evaluated: control flow, command substitution and
// arithmetic are carried through as text.
//
// When a name is assigned several times, the first scalar assignment is
// kept, any array assignment replaces a scalar, and the last array
// assignment wins.
//
// # Lookups
//
// Lookups are total. An absent variable yields an empty string or a nil
// slice and an absent function yields an empty body. Values are stored raw
// and substituted on lookup: ${NAME} and $NAME references to scalar
// variables are replaced by their raw values in one pass, so chained
// references resolve one level deep unless [WithExpandDepth] asks for more.
//
// [Document.Scope] restricts lookups to the assignments inside a piece of
// text, typically a function body, while still substituting through the
// top-level table.
package pkgbuild
