// Package log is a thin leveled layer over [log/slog].
//
// A [Logger] is built with [Make] and functional options, and records are
// written with typed [slog.Attr] values:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithTimeLayout("RFC3339"))
//	logger.Info("wrote manifest", slog.String("path", path))
//
// Besides the slog levels there is [LevelTrace], used for the step-by-step
// output of the descriptor parser.
//
// The text format is styled with lipgloss when written to a color terminal
// and degrades to plain text elsewhere. [FormatJSON] writes one JSON object
// per record.
//
// The zero Logger discards everything, which lets packages accept a Logger
// option without requiring callers to configure one. The package-level
// functions ([Info], [Warn], ...) use a default logger writing to standard
// error, reconfigured with [Config].
package log
