package cmd

import "github.com/ardnew/pkgport/pkgbuild"

// Error is a command error with structured logging attributes.
type Error = pkgbuild.Error

var (
	ErrFetch            = pkgbuild.NewError("failed to fetch descriptor")
	ErrWriteOutput      = pkgbuild.NewError("failed to write output")
	ErrOutputExists     = pkgbuild.NewError("output exists with different content (use --force to overwrite)")
	ErrFunctionNotFound = pkgbuild.NewError("function not found")
	ErrVariableNotFound = pkgbuild.NewError("variable not found")
)
