package manifest

import "github.com/ardnew/pkgport/pkgbuild"

// Error is the structured error type shared with package pkgbuild.
type Error = pkgbuild.Error

// Predefined errors (sentinel values).
var (
	ErrMalformedDescriptor = pkgbuild.NewError("malformed descriptor")
	ErrEncode              = pkgbuild.NewError("failed to encode output")
)
