package pkgbuild

import "github.com/ardnew/pkgport/log"

// DefaultExpandDepth is the number of substitution levels applied by
// default: inserted values are not scanned again.
const DefaultExpandDepth = 1

// Option configures parsing behavior.
type Option func(*Document)

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(doc *Document) {
		doc.logger = logger
	}
}

// WithStrict makes [Parse] fail with a [*ParseError] on malformed input
// instead of recording diagnostics.
func WithStrict(strict bool) Option {
	return func(doc *Document) {
		doc.strict = strict
	}
}

// WithExpandDepth sets how many levels of chained variable references are
// resolved by substitution. Values less than 1 disable substitution.
func WithExpandDepth(depth int) Option {
	return func(doc *Document) {
		doc.depth = depth
	}
}

func applyDefaults(doc *Document) {
	doc.depth = DefaultExpandDepth
}

func applyOptions(doc *Document, opts ...Option) {
	for _, opt := range opts {
		opt(doc)
	}
}
