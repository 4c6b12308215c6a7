// Package cli contains the command line interface for pkgport.
//
// # Usage
//
//	pkgport import https://gitlab.archlinux.org/archlinux/packaging/packages/zlib
//	pkgport convert manifest ./PKGBUILD
//	pkgport inspect func package ./PKGBUILD
//
// # Configuration
//
// Flag defaults are read from config.json and config.yaml in the user
// configuration directory (for example ~/.config/pkgport). YAML keys may be
// nested; see [resolveYAML]. Command-line flags take precedence.
//
// # Logging Options
//
//   - --log-level: minimum level (trace, debug, info, warn, error)
//   - --log-format: record encoding (text, json)
//   - --log-time: timestamp layout, a Go layout or a name like RFC3339
//   - --log-caller: include the caller's source location
//   - --log-pretty: colorize text output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof .
//
//   - --pprof-mode: profile to record (cpu, heap, mutex, ...)
//   - --pprof-dir: output directory (default ~/.cache/pkgport/pprof)
package cli
