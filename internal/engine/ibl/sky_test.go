package ibl

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/sceneview/pkg/math"
)

func almostEqual(a, b float32) bool {
	return gomath.Abs(float64(a-b)) < 1e-5
}

func TestFaceDirectionCenters(t *testing.T) {
	tests := []struct {
		face int
		want math.Vec3
	}{
		{0, math.Vec3{X: 1}},
		{1, math.Vec3{X: -1}},
		{2, math.Vec3{Y: 1}},
		{3, math.Vec3{Y: -1}},
		{4, math.Vec3{Z: 1}},
		{5, math.Vec3{Z: -1}},
	}
	for _, tt := range tests {
		got := FaceDirection(tt.face, 0, 0)
		if got != tt.want {
			t.Errorf("face %d center: got %+v, want %+v", tt.face, got, tt.want)
		}
	}
}

func TestFaceDirectionCorners(t *testing.T) {
	// Top-left texel of +X looks up and toward +Z.
	d := FaceDirection(0, -1, -1)
	if d.Y <= 0 || d.Z <= 0 {
		t.Errorf("+X top-left should look up and toward +Z, got %+v", d)
	}

	// +Y face: v increases toward +Z.
	d = FaceDirection(2, 0, 1)
	if d.Z <= 0 {
		t.Errorf("+Y with v=1 should lean toward +Z, got %+v", d)
	}
}

func TestSkyRadianceGradient(t *testing.T) {
	p := DefaultSkyParams()
	// Point away from the sun so only the gradient contributes.
	p.SunDirection = math.Vec3{Y: 1}

	down := SkyRadiance(math.Vec3{Y: -1}, p)
	if !almostEqual(down.X, p.HorizonColor.X) || !almostEqual(down.Z, p.HorizonColor.Z) {
		t.Errorf("straight down should be horizon color, got %+v", down)
	}

	side := SkyRadiance(math.Vec3{X: 1}, p)
	mid := lerp(p.HorizonColor, p.ZenithColor, 0.5)
	if !almostEqual(side.X, mid.X) || !almostEqual(side.Z, mid.Z) {
		t.Errorf("horizon direction should be the gradient midpoint, got %+v want %+v", side, mid)
	}
}

func TestSkyRadianceSun(t *testing.T) {
	p := DefaultSkyParams()
	sunDir := p.SunDirection.Normalize()

	atSun := SkyRadiance(sunDir, p)
	away := SkyRadiance(sunDir.Scale(-1), p)

	if atSun.X <= away.X {
		t.Errorf("sun direction should be brighter: at sun %+v, away %+v", atSun, away)
	}

	// The lobe peaks at exactly SunIntensity above the gradient.
	t0 := sunDir.Y*0.5 + 0.5
	base := lerp(p.HorizonColor, p.ZenithColor, t0)
	if !almostEqual(atSun.X, base.X+p.SunIntensity) {
		t.Errorf("peak sun contribution: got %v, want %v", atSun.X, base.X+p.SunIntensity)
	}
}

func TestSkyRadianceNoNegativeSun(t *testing.T) {
	p := DefaultSkyParams()
	opposite := p.SunDirection.Normalize().Scale(-1)
	got := SkyRadiance(opposite, p)
	t0 := opposite.Y*0.5 + 0.5
	want := lerp(p.HorizonColor, p.ZenithColor, t0)
	if !almostEqual(got.X, want.X) {
		t.Errorf("direction opposite the sun must be pure gradient: got %v, want %v", got.X, want.X)
	}
}

func TestGenerateSkyFaceSize(t *testing.T) {
	p := DefaultSkyParams()
	for face := 0; face < 6; face++ {
		px := GenerateSkyFace(face, 4, p)
		if len(px) != 4*4*3 {
			t.Fatalf("face %d: got %d floats, want %d", face, len(px), 4*4*3)
		}
		for i, v := range px {
			if v < 0 || gomath.IsNaN(float64(v)) {
				t.Fatalf("face %d: invalid radiance %v at index %d", face, v, i)
			}
		}
	}
}

func TestGenerateSkyFaceTopOfSkyIsBrightestBlue(t *testing.T) {
	p := DefaultSkyParams()
	p.SunIntensity = 0

	up := GenerateSkyFace(2, 8, p)   // +Y
	down := GenerateSkyFace(3, 8, p) // -Y

	// Compare the blue channel at the face centers.
	center := (8/2*8 + 8/2) * 3
	if up[center+2] <= down[center+2] {
		t.Errorf("zenith should be bluer than nadir: up %v, down %v", up[center+2], down[center+2])
	}
}
