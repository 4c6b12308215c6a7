// Package cmd implements the pkgport subcommands.
//
// Every command parses its input with [pkgbuild.Parse] and reads package
// metadata with [manifest.Extract]. The import command fetches descriptors
// and writes build.yaml and build.sh under <dir>/<name>-aurora; convert and
// inspect print to the standard output.
package cmd

import (
	"strconv"
	"time"

	"github.com/alecthomas/kong"

	"github.com/ardnew/pkgport/fetch"
	"github.com/ardnew/pkgport/pkgbuild"
)

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the configuration file without extension.
	ConfigIdentifier = "config"
)

// Defaults of command flags.
const (
	DefaultJobs    = 4
	DefaultTimeout = 30 * time.Second
	DefaultIndent  = 2
	OutputSuffix   = "-aurora"
)

// Vars returns the kong variables referenced by command flag tags.
func Vars() kong.Vars {
	return kong.Vars{
		"defaultBranch":  fetch.DefaultBranch,
		"defaultJobs":    strconv.Itoa(DefaultJobs),
		"defaultTimeout": DefaultTimeout.String(),
		"defaultIndent":  strconv.Itoa(DefaultIndent),
		"defaultDepth":   strconv.Itoa(pkgbuild.DefaultExpandDepth),
		"suffix":         OutputSuffix,
	}
}
