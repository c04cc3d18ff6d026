// Package ibl precomputes image-based lighting: an environment cubemap
// from a procedural sky or an HDR panorama, its diffuse irradiance and
// specular prefilter convolutions, and the BRDF integration lookup table.
package ibl

import (
	gomath "math"

	"github.com/Faultbox/sceneview/pkg/math"
)

// SkyParams drives the procedural sky: a vertical gradient plus a
// powered sun lobe.
type SkyParams struct {
	SunDirection math.Vec3
	SunIntensity float32
	SunPower     float32
	HorizonColor math.Vec3
	ZenithColor  math.Vec3
}

// DefaultSkyParams returns a soft blue sky with a warm-white sun.
func DefaultSkyParams() SkyParams {
	return SkyParams{
		SunDirection: math.Vec3{X: 0.5, Y: 0.8, Z: 0.3},
		SunIntensity: 6.0,
		SunPower:     64.0,
		HorizonColor: math.Vec3{X: 0.02, Y: 0.02, Z: 0.02},
		ZenithColor:  math.Vec3{X: 0.6, Y: 0.7, Z: 0.9},
	}
}

// FaceDirection maps cubemap face-local coordinates u,v in [-1,1] to a
// world direction, before normalization. Faces follow GL cubemap order:
// +X -X +Y -Y +Z -Z.
func FaceDirection(face int, u, v float32) math.Vec3 {
	switch face {
	case 0:
		return math.Vec3{X: 1, Y: -v, Z: -u}
	case 1:
		return math.Vec3{X: -1, Y: -v, Z: u}
	case 2:
		return math.Vec3{X: u, Y: 1, Z: v}
	case 3:
		return math.Vec3{X: u, Y: -1, Z: -v}
	case 4:
		return math.Vec3{X: u, Y: -v, Z: 1}
	default:
		return math.Vec3{X: -u, Y: -v, Z: -1}
	}
}

// SkyRadiance evaluates the sky color for a unit direction.
func SkyRadiance(dir math.Vec3, p SkyParams) math.Vec3 {
	t := dir.Y*0.5 + 0.5
	sky := lerp(p.HorizonColor, p.ZenithColor, t)

	sunDot := dir.Dot(p.SunDirection.Normalize())
	if sunDot > 0 {
		sun := p.SunIntensity * float32(gomath.Pow(float64(sunDot), float64(p.SunPower)))
		sky = sky.Add(math.Vec3{X: sun, Y: sun, Z: sun})
	}
	return sky
}

// GenerateSkyFace renders one cubemap face of the procedural sky on the
// CPU as tightly packed RGB float rows, top row first.
func GenerateSkyFace(face, size int, p SkyParams) []float32 {
	out := make([]float32, size*size*3)
	i := 0
	for y := 0; y < size; y++ {
		v := 2*(float32(y)+0.5)/float32(size) - 1
		for x := 0; x < size; x++ {
			u := 2*(float32(x)+0.5)/float32(size) - 1
			dir := FaceDirection(face, u, v).Normalize()
			c := SkyRadiance(dir, p)
			out[i] = c.X
			out[i+1] = c.Y
			out[i+2] = c.Z
			i += 3
		}
	}
	return out
}

func lerp(a, b math.Vec3, t float32) math.Vec3 {
	return a.Add(b.Sub(a).Scale(t))
}
