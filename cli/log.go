package cli

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/pkgport/log"
)

// logLevel applies itself to the default logger while kong parses, so that
// parse errors are already reported at the requested level.
type logLevel string

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(*l))))

	return nil
}

// logFormat applies itself to the default logger while kong parses.
type logFormat string

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(*f))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"${logLevelDefault}"  enum:"${logLevelEnum}"  help:"Set log level."                     placeholder:"${enum}"`
	Format     logFormat `default:"${logFormatDefault}" enum:"${logFormatEnum}" help:"Set log format."                    placeholder:"${enum}"`
	TimeLayout string    `default:"TimeOnly"            help:"Set timestamp layout (Go layout or name, none to omit)." name:"time"`
	Caller     bool      `default:"false"               help:"Include caller information."       negatable:""`
	Pretty     bool      `default:"true"                help:"Enable colorized pretty printing." negatable:""`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{
		"logLevelDefault":  log.DefaultLevel.String(),
		"logLevelEnum":     strings.Join(slices.Collect(log.Levels()), ","),
		"logFormatDefault": log.DefaultFormat.String(),
		"logFormatEnum":    strings.Join(slices.Collect(log.Formats()), ","),
	}
}

func (*logConfig) group() kong.Group {
	return kong.Group{Key: "log", Title: "Logging options"}
}

// start applies every parsed logging flag to the default logger.
// The returned function is deferred by [Run].
func (c *logConfig) start(ctx context.Context) func() {
	log.Config(c.options()...)

	log.DebugContext(ctx, "logger configured",
		slog.String("level", string(c.Level)),
		slog.String("format", string(c.Format)),
		slog.String("time", c.TimeLayout),
		slog.Bool("caller", c.Caller),
		slog.Bool("pretty", c.Pretty),
	)

	return func() {}
}

func (c *logConfig) options() []log.Option {
	return []log.Option{
		log.WithLevel(log.ParseLevel(string(c.Level))),
		log.WithFormat(log.ParseFormat(string(c.Format))),
		log.WithTimeLayout(c.TimeLayout),
		log.WithCaller(c.Caller),
		log.WithPretty(c.Pretty),
	}
}

// scan applies logging flags found in args before kong runs.
//
// The enum flags also configure the logger through UnmarshalText during
// parsing, but the boolean flags do not, and any flag that appears after an
// invalid argument would never be reached.
func (c *logConfig) scan(args []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return
		}

		name, negated := strings.CutPrefix(arg, "--no-log-")
		if !negated {
			var ok bool
			if name, ok = strings.CutPrefix(arg, "--log-"); !ok {
				continue
			}
		}

		name, value, assigned := strings.Cut(name, "=")

		// next consumes the following argument when the value was not
		// given with "=".
		next := func() string {
			if !assigned && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++

				return args[i]
			}

			return value
		}

		// flag resolves a boolean flag, honoring "--no-" and "=false".
		flag := func() (bool, bool) {
			on := true
			if assigned {
				v, err := strconv.ParseBool(value)
				if err != nil {
					return false, false
				}

				on = v
			}

			return on != negated, true
		}

		switch name {
		case "level":
			if !negated {
				_ = c.Level.UnmarshalText([]byte(next()))
			}

		case "format":
			if !negated {
				_ = c.Format.UnmarshalText([]byte(next()))
			}

		case "time":
			if !negated {
				c.TimeLayout = next()
				log.Config(log.WithTimeLayout(c.TimeLayout))
			}

		case "caller":
			if on, ok := flag(); ok {
				c.Caller = on
				log.Config(log.WithCaller(on))
			}

		case "pretty":
			if on, ok := flag(); ok {
				c.Pretty = on
				log.Config(log.WithPretty(on))
			}
		}
	}
}
