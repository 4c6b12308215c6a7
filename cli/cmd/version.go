package cmd

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/ardnew/pkgport/pkg"
)

// Version prints version information.
type Version struct {
	Short bool `help:"Print only the version number." short:"s"`
}

// Run executes the version command.
func (c *Version) Run(ctx context.Context) error {
	out := streamsFrom(ctx).Out

	if c.Short {
		_, err := fmt.Fprintln(out, pkg.Version())

		return err
	}

	authors := make([]string, len(pkg.Author))
	for i, a := range pkg.Author {
		authors[i] = fmt.Sprintf("%s <%s>", a.Name, a.Email)
	}

	_, err := fmt.Fprintf(out, "%s %s (%s %s/%s)\n%s\n",
		pkg.Name, pkg.Version(),
		runtime.Version(), runtime.GOOS, runtime.GOARCH,
		strings.Join(authors, ", "),
	)

	return err
}
