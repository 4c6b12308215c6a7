//go:build pprof

package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/pkgport/log"
	"github.com/ardnew/pkgport/profile"
)

type pprofConfig struct {
	Mode string `default:""            enum:",${pprofModeEnum}" help:"Enable profiling."         placeholder:"${enum}" short:"p"`
	Dir  string `default:"${pprofDir}"                          help:"Profile output directory." type:"path"`
}

func (pprofConfig) vars() kong.Vars {
	return kong.Vars{
		"pprofModeEnum": strings.Join(profile.Modes(), ","),
		"pprofDir":      filepath.Join(cacheDir(), profile.Tag),
	}
}

func (pprofConfig) group() kong.Group {
	return kong.Group{Key: "pprof", Title: "Profiling (pprof)"}
}

// start begins profiling if a mode was selected.
func (c pprofConfig) start(ctx context.Context) func() {
	if c.Mode == "" {
		return func() {}
	}

	attrs := []slog.Attr{slog.String("mode", c.Mode), slog.String("dir", c.Dir)}

	log.DebugContext(ctx, "pprof start", attrs...)

	stop := profile.Profiler{Mode: c.Mode, Dir: c.Dir, Quiet: true}.Start()

	return func() {
		stop.Stop()
		log.DebugContext(ctx, "pprof stop", attrs...)
	}
}
