package scene

import (
	"github.com/Faultbox/sceneview/internal/engine/model"
	"github.com/Faultbox/sceneview/pkg/math"
)

// Bounds is an axis-aligned box.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// Center returns the box midpoint.
func (b Bounds) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the box extents.
func (b Bounds) Size() math.Vec3 {
	return b.Max.Sub(b.Min)
}

// Merge grows the box to enclose other.
func (b Bounds) Merge(other Bounds) Bounds {
	return Bounds{
		Min: math.Vec3{X: minf(b.Min.X, other.Min.X), Y: minf(b.Min.Y, other.Min.Y), Z: minf(b.Min.Z, other.Min.Z)},
		Max: math.Vec3{X: maxf(b.Max.X, other.Max.X), Y: maxf(b.Max.Y, other.Max.Y), Z: maxf(b.Max.Z, other.Max.Z)},
	}
}

// BoundsOf computes the model's local bounding box from its vertices.
// Node transforms are already baked in at import, so vertex positions
// are model-space extremes directly.
func BoundsOf(m *model.Model) Bounds {
	b := Bounds{
		Min: math.Vec3{X: 3.4e38, Y: 3.4e38, Z: 3.4e38},
		Max: math.Vec3{X: -3.4e38, Y: -3.4e38, Z: -3.4e38},
	}
	found := false
	for _, mesh := range m.Meshes {
		for _, v := range mesh.Vertices {
			found = true
			b.Min.X = minf(b.Min.X, v.Position[0])
			b.Min.Y = minf(b.Min.Y, v.Position[1])
			b.Min.Z = minf(b.Min.Z, v.Position[2])
			b.Max.X = maxf(b.Max.X, v.Position[0])
			b.Max.Y = maxf(b.Max.Y, v.Position[1])
			b.Max.Z = maxf(b.Max.Z, v.Position[2])
		}
	}
	if !found {
		return Bounds{}
	}
	return b
}

// Placement is a model instance positioned in the world. The base
// matrix recenters the model on its bounding box center at the
// requested position; Offset accumulates interactive movement for
// placements marked movable.
type Placement struct {
	Model   *model.Model
	Bounds  Bounds
	Movable bool
	Offset  math.Vec3

	base math.Mat4
}

// Place positions a model at worldPos with uniform scale. The model is
// recentered so its bounding box center lands exactly at worldPos.
func Place(m *model.Model, worldPos [3]float32, scale float32, movable bool) *Placement {
	if scale == 0 {
		scale = 1
	}
	b := BoundsOf(m)
	c := b.Center()

	base := math.Translate(worldPos[0], worldPos[1], worldPos[2]).
		Mul(math.Scale(scale, scale, scale)).
		Mul(math.Translate(-c.X, -c.Y, -c.Z))

	return &Placement{
		Model:   m,
		Bounds:  b,
		Movable: movable,
		base:    base,
	}
}

// PlaceGrounded positions a model so its bounding box straddles
// worldPos on X and Z and its lowest point rests exactly at worldPos
// on Y.
func PlaceGrounded(m *model.Model, worldPos [3]float32, scale float32, movable bool) *Placement {
	if scale == 0 {
		scale = 1
	}
	b := BoundsOf(m)
	lift := (b.Center().Y - b.Min.Y) * scale
	return Place(m, [3]float32{worldPos[0], worldPos[1] + lift, worldPos[2]}, scale, movable)
}

// Move shifts a movable placement by delta in world units. Fixed
// placements ignore it.
func (p *Placement) Move(delta math.Vec3) {
	if !p.Movable {
		return
	}
	p.Offset = p.Offset.Add(delta)
}

// WorldMatrix returns the full model-to-world transform, the movement
// offset applied in world space after the base placement.
func (p *Placement) WorldMatrix() math.Mat4 {
	if p.Offset == (math.Vec3{}) {
		return p.base
	}
	return math.Translate(p.Offset.X, p.Offset.Y, p.Offset.Z).Mul(p.base)
}

// WorldBounds transforms the local bounding box corners into world
// space and reboxes them.
func (p *Placement) WorldBounds() Bounds {
	world := p.WorldMatrix()
	b := p.Bounds

	corners := [8]math.Vec3{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}

	out := Bounds{
		Min: math.Vec3{X: 3.4e38, Y: 3.4e38, Z: 3.4e38},
		Max: math.Vec3{X: -3.4e38, Y: -3.4e38, Z: -3.4e38},
	}
	for _, corner := range corners {
		w := world.TransformVec3(corner)
		out.Min.X = minf(out.Min.X, w.X)
		out.Min.Y = minf(out.Min.Y, w.Y)
		out.Min.Z = minf(out.Min.Z, w.Z)
		out.Max.X = maxf(out.Max.X, w.X)
		out.Max.Y = maxf(out.Max.Y, w.Y)
		out.Max.Z = maxf(out.Max.Z, w.Z)
	}
	return out
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
