package profile

import (
	"slices"
	"testing"
)

func TestProfiler_StartDisabled(t *testing.T) {
	stop := Profiler{}.Start()
	if stop == nil {
		t.Fatal("Start() returned nil")
	}

	stop.Stop()
}

func TestModes(t *testing.T) {
	modes := Modes()

	if !Enabled {
		if len(modes) != 0 {
			t.Errorf("Modes() = %q without profiling support", modes)
		}

		return
	}

	if !slices.IsSorted(modes) || !slices.Contains(modes, "cpu") {
		t.Errorf("Modes() = %q", modes)
	}
}

func TestProfiler_UnknownMode(t *testing.T) {
	stop := Profiler{Mode: "bogus", Dir: t.TempDir(), Quiet: true}.Start()
	if _, ok := stop.(ignore); !ok {
		t.Errorf("Start() with unknown mode = %T, want no-op", stop)
	}

	stop.Stop()
}
