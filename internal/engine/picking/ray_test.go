package picking

import (
	"testing"

	"github.com/Faultbox/sceneview/pkg/math"
)

func TestIntersectAABBHit(t *testing.T) {
	r := Ray{Origin: math.Vec3{Z: 10}, Direction: math.Vec3{Z: -1}}
	box := NewAABB(math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{X: 1, Y: 1, Z: 1})

	dist, hit := r.IntersectAABB(box)
	if !hit {
		t.Fatal("ray down -Z should hit the unit box")
	}
	if dist < 8.9 || dist > 9.1 {
		t.Errorf("entry distance = %v, want ~9", dist)
	}
}

func TestIntersectAABBMiss(t *testing.T) {
	r := Ray{Origin: math.Vec3{X: 5, Z: 10}, Direction: math.Vec3{Z: -1}}
	box := NewAABB(math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{X: 1, Y: 1, Z: 1})

	if _, hit := r.IntersectAABB(box); hit {
		t.Error("offset ray should miss the unit box")
	}
}

func TestIntersectAABBBehind(t *testing.T) {
	r := Ray{Origin: math.Vec3{Z: 10}, Direction: math.Vec3{Z: 1}}
	box := NewAABB(math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{X: 1, Y: 1, Z: 1})

	if _, hit := r.IntersectAABB(box); hit {
		t.Error("box behind the ray origin should not hit")
	}
}

func TestIntersectAABBFromInside(t *testing.T) {
	r := Ray{Origin: math.Vec3{}, Direction: math.Vec3{Z: -1}}
	box := NewAABB(math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{X: 1, Y: 1, Z: 1})

	dist, hit := r.IntersectAABB(box)
	if !hit {
		t.Fatal("ray starting inside should hit")
	}
	if dist < 0.9 || dist > 1.1 {
		t.Errorf("exit distance = %v, want ~1", dist)
	}
}

func TestIntersectPlaneY(t *testing.T) {
	r := Ray{Origin: math.Vec3{X: 1, Y: 10, Z: 2}, Direction: math.Vec3{Y: -1}}
	x, z, ok := r.IntersectPlaneY(0)
	if !ok {
		t.Fatal("straight-down ray should hit the ground plane")
	}
	if x != 1 || z != 2 {
		t.Errorf("hit at (%v,%v), want (1,2)", x, z)
	}

	parallel := Ray{Origin: math.Vec3{Y: 10}, Direction: math.Vec3{X: 1}}
	if _, _, ok := parallel.IntersectPlaneY(0); ok {
		t.Error("parallel ray should not hit the plane")
	}
}

func TestNewAABBSwapsCorners(t *testing.T) {
	box := NewAABB(math.Vec3{X: 1, Y: -1, Z: 5}, math.Vec3{X: -1, Y: 1, Z: -5})
	if box.Min.X != -1 || box.Min.Y != -1 || box.Min.Z != -5 {
		t.Errorf("min = %+v", box.Min)
	}
	if box.Max.X != 1 || box.Max.Y != 1 || box.Max.Z != 5 {
		t.Errorf("max = %+v", box.Max)
	}
}

func TestScreenToRayCenterPointsForward(t *testing.T) {
	view := math.LookAt(math.Vec3{Z: 5}, math.Vec3{}, math.Vec3{Y: 1})
	proj := math.Perspective(0.785398, 1, 0.1, 100)
	inv := proj.Mul(view).Inverse()

	r := ScreenToRay(400, 300, 800, 600, inv)

	if r.Direction.Z >= 0 {
		t.Errorf("center ray should point -Z, got %+v", r.Direction)
	}
	if absf(r.Direction.X) > 0.01 || absf(r.Direction.Y) > 0.01 {
		t.Errorf("center ray should be straight ahead, got %+v", r.Direction)
	}
}

// Dragging the cursor right must move the ground-plane hit the same
// way under an elevated camera.
func TestScreenToRayGroundDragFollowsCursor(t *testing.T) {
	view := math.LookAt(math.Vec3{Y: 5, Z: 5}, math.Vec3{}, math.Vec3{Y: 1})
	proj := math.Perspective(0.785398, 1, 0.1, 100)
	inv := proj.Mul(view).Inverse()

	x0, z0, ok := ScreenToRay(400, 300, 800, 600, inv).IntersectPlaneY(0)
	if !ok {
		t.Fatal("center ray should hit the ground plane")
	}
	if absf(x0) > 0.01 || absf(z0) > 0.01 {
		t.Errorf("center hit at (%v,%v), want the look-at point (0,0)", x0, z0)
	}

	x1, _, ok := ScreenToRay(500, 300, 800, 600, inv).IntersectPlaneY(0)
	if !ok {
		t.Fatal("offset ray should hit the ground plane")
	}
	if x1 <= x0 {
		t.Errorf("cursor moved right but hit went from x=%v to x=%v", x0, x1)
	}
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
