package ibl

import (
	"testing"

	"github.com/Faultbox/sceneview/pkg/math"
)

func TestPassPlanOrder(t *testing.T) {
	plan := passPlan()
	want := []State{
		StateCubemapProjected,
		StateMipsGenerated,
		StateIrradianceConvolved,
		StatePrefilterComplete,
		StateBRDFComplete,
	}
	if len(plan) != len(want) {
		t.Fatalf("got %d passes, want %d", len(plan), len(want))
	}
	for i := range want {
		if plan[i] != want[i] {
			t.Errorf("pass %d: got %v, want %v", i, plan[i], want[i])
		}
	}
}

func TestPassPlanBRDFOnce(t *testing.T) {
	count := 0
	for _, s := range passPlan() {
		if s == StateBRDFComplete {
			count++
		}
	}
	if count != 1 {
		t.Errorf("BRDF pass appears %d times, want exactly once", count)
	}
	plan := passPlan()
	if plan[len(plan)-1] != StateBRDFComplete {
		t.Error("BRDF pass must come last")
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateEnvironmentReady, "environment-ready"},
		{StateCubemapProjected, "cubemap-projected"},
		{StateMipsGenerated, "mips-generated"},
		{StateIrradianceConvolved, "irradiance-convolved"},
		{StatePrefilterComplete, "prefilter-complete"},
		{StateBRDFComplete, "brdf-complete"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.SkyFaceSize != 128 {
		t.Errorf("SkyFaceSize = %d, want 128", cfg.SkyFaceSize)
	}
	if cfg.CubemapSize != 512 {
		t.Errorf("CubemapSize = %d, want 512", cfg.CubemapSize)
	}
	if cfg.IrradianceSize != 32 {
		t.Errorf("IrradianceSize = %d, want 32", cfg.IrradianceSize)
	}
	if cfg.PrefilterSize != 128 || cfg.PrefilterMips != 5 {
		t.Errorf("prefilter = %dx%d mips, want 128x5", cfg.PrefilterSize, cfg.PrefilterMips)
	}
	if cfg.BRDFSize != 512 {
		t.Errorf("BRDFSize = %d, want 512", cfg.BRDFSize)
	}
	if cfg.Sky.SunIntensity == 0 {
		t.Error("default sky should carry a sun")
	}
}

func TestMapsValid(t *testing.T) {
	var m Maps
	if m.Valid() {
		t.Error("zero Maps must not be valid")
	}
	m = Maps{Environment: 1, Irradiance: 2, Prefiltered: 3, BRDFLUT: 4, PrefilterMips: 5}
	if !m.Valid() {
		t.Error("fully populated Maps must be valid")
	}
	m.Irradiance = 0
	if m.Valid() {
		t.Error("Maps missing a convolution must not be valid")
	}
}

// Each capture view must put the face's center direction straight ahead
// of the camera, on the negative Z axis in view space.
func TestCaptureViewsFaceForward(t *testing.T) {
	centers := [6]math.Vec3{
		{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1},
	}
	views := captureViews()
	for face, view := range views {
		v := view.TransformVec3(centers[face])
		if v.Z >= -0.999 {
			t.Errorf("face %d: center direction maps to %+v, want -Z forward", face, v)
		}
		if absf(v.X) > 1e-5 || absf(v.Y) > 1e-5 {
			t.Errorf("face %d: center direction not centered: %+v", face, v)
		}
	}
}

// Build advances only through states the plan names; anything else has
// no pass behind it.
func TestRunPassRejectsNonPlanStates(t *testing.T) {
	p := &Pipeline{}
	var maps Maps
	if err := p.runPass(StateEnvironmentReady, &maps); err == nil {
		t.Error("environment-ready is the starting state, no pass should complete it")
	}
	if err := p.runPass(State(99), &maps); err == nil {
		t.Error("unknown state should not map to a pass")
	}
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
