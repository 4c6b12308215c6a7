package cli

import (
	"testing"

	"github.com/ardnew/pkgport/log"
)

func TestLogConfig_Scan(t *testing.T) {
	prev := log.Default()
	t.Cleanup(func() { log.Config(log.WithLevel(prev.Level()), log.WithFormat(prev.Format())) })

	tests := []struct {
		name string
		args []string
		want logConfig
	}{
		{
			name: "separate values",
			args: []string{"import", "--log-level", "debug", "--log-format", "json", "url"},
			want: logConfig{Level: "debug", Format: "json", Pretty: true},
		},
		{
			name: "assigned values",
			args: []string{"--log-level=trace", "--log-time=none", "inspect"},
			want: logConfig{Level: "trace", TimeLayout: "none", Pretty: true},
		},
		{
			name: "booleans",
			args: []string{"--log-caller", "--no-log-pretty"},
			want: logConfig{Caller: true},
		},
		{
			name: "assigned booleans",
			args: []string{"--log-caller=false", "--no-log-pretty=false"},
			want: logConfig{Pretty: true},
		},
		{
			name: "invalid boolean ignored",
			args: []string{"--log-caller=maybe"},
			want: logConfig{Pretty: true},
		},
		{
			name: "stops at terminator",
			args: []string{"--", "--log-level=debug"},
			want: logConfig{Pretty: true},
		},
		{
			name: "value that looks like a flag is not consumed",
			args: []string{"--log-level", "--log-caller"},
			want: logConfig{Caller: true, Pretty: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := logConfig{Pretty: true}
			got.scan(tt.args)

			if got != tt.want {
				t.Errorf("scan(%q) = %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}
}

func TestLogConfig_ScanConfiguresLogger(t *testing.T) {
	prev := log.Default()
	t.Cleanup(func() { log.Config(log.WithLevel(prev.Level()), log.WithFormat(prev.Format())) })

	var c logConfig

	c.scan([]string{"--log-level=error", "--log-format", "json"})

	if got := log.Default(); got.Level() != log.LevelError || got.Format() != log.FormatJSON {
		t.Errorf("default logger = %v/%v", got.Level(), got.Format())
	}
}
