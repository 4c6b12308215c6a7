package cli

import (
	"context"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ardnew/pkgport/cli/cmd"
	"github.com/ardnew/pkgport/pkg"
)

// CLI is the top-level command-line interface for pkgport.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Import  cmd.Import  `cmd:"" help:"Fetch descriptors and write build.yaml and build.sh"`
	Convert cmd.Convert `cmd:"" help:"Convert one descriptor to a manifest or script on stdout"`
	Inspect cmd.Inspect `cmd:"" help:"Show parsed variables or function bodies"`
	Version cmd.Version `cmd:"" help:"Print version information"`
}

// Run executes the pkgport command line given by args.
// The exit function is called by kong for --help and usage errors.
func Run(ctx context.Context, exit func(code int), args ...string) error {
	return run(ctx, exit, cmd.Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}, args...)
}

func run(ctx context.Context, exit func(code int), streams cmd.Streams, args ...string) error {
	var cli CLI

	if err := mkdirAllRequired(); err != nil {
		return err
	}

	configFile := configPath(baseConfig)

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFile,
		cmd.CacheIdentifier:  cacheDir(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars()).
		CloneWith(cmd.Vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.Writers(streams.Out, streams.Err),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configFile+".json"),
		kong.Configuration(resolveYAML(ctx), configFile+".yaml", configFile+".yml"),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithStreams(ctx, streams)

	defer cli.Log.start(ctx)()
	defer cli.Pprof.start(ctx)()

	return ktx.Run()
}
