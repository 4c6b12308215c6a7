package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/pkgport/log"
)

// resolveYAML returns a [kong.ConfigurationLoader] for YAML configuration
// files. Use it with [kong.Configuration]:
//
//	kong.Configuration(resolveYAML(ctx), "/path/to/config.yaml")
//
// Keys name flags without the leading dashes. Nested mappings are joined
// with "-", so the following two files are equivalent:
//
//	log-level: debug
//	log-pretty: false
//
//	log:
//	  level: debug
//	  pretty: false
//
// Underscores may stand in for hyphens. A file that does not parse is
// reported and ignored. Command-line flags override file values.
func resolveYAML(ctx context.Context) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		var doc map[string]any

		err := yaml.NewDecoder(r).Decode(&doc)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.WarnContext(ctx, "ignoring configuration file",
					slog.String("error", err.Error()),
				)
			}

			return config{}, nil
		}

		cfg := config{}
		cfg.flatten("", doc)

		return cfg, nil
	}
}

// config implements [kong.Resolver] over a flat map of flag names.
type config map[string]any

// flatten copies m into c, joining nested keys with "-".
func (c config) flatten(prefix string, m map[string]any) {
	for key, value := range m {
		name := strings.ReplaceAll(key, "_", "-")
		if prefix != "" {
			name = prefix + "-" + name
		}

		if sub, ok := value.(map[string]any); ok {
			c.flatten(name, sub)

			continue
		}

		c[name] = scalar(value)
	}
}

// scalar converts decoded YAML values to the forms kong's mappers accept.
func scalar(value any) any {
	switch v := value.(type) {
	case nil, string, bool:
		return v
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = scalar(e)
		}

		return out
	default:
		return fmt.Sprint(v)
	}
}

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if value, ok := c[flag.Name]; ok {
		return value, nil
	}

	return nil, nil
}
