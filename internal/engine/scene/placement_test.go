package scene

import (
	"testing"

	"github.com/Faultbox/sceneview/internal/engine/model"
	"github.com/Faultbox/sceneview/internal/logger"
	"github.com/Faultbox/sceneview/pkg/math"
)

func newTestScene() *Scene {
	return &Scene{log: logger.Named("scene")}
}

func boxModel(min, max [3]float32) *model.Model {
	mesh := &model.Mesh{
		Vertices: []model.Vertex{
			{Position: min},
			{Position: max},
			{Position: [3]float32{min[0], max[1], min[2]}},
		},
	}
	return &model.Model{Meshes: []*model.Mesh{mesh}}
}

func nearVec(t *testing.T, got, want math.Vec3, label string) {
	t.Helper()
	if absf(got.X-want.X) > 1e-4 || absf(got.Y-want.Y) > 1e-4 || absf(got.Z-want.Z) > 1e-4 {
		t.Errorf("%s: got %+v, want %+v", label, got, want)
	}
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestBoundsOf(t *testing.T) {
	m := boxModel([3]float32{-1, -2, -3}, [3]float32{4, 5, 6})
	b := BoundsOf(m)
	nearVec(t, b.Min, math.Vec3{X: -1, Y: -2, Z: -3}, "min")
	nearVec(t, b.Max, math.Vec3{X: 4, Y: 5, Z: 6}, "max")
	nearVec(t, b.Center(), math.Vec3{X: 1.5, Y: 1.5, Z: 1.5}, "center")
	nearVec(t, b.Size(), math.Vec3{X: 5, Y: 7, Z: 9}, "size")
}

func TestBoundsOfEmptyModel(t *testing.T) {
	b := BoundsOf(&model.Model{})
	if b != (Bounds{}) {
		t.Errorf("empty model should yield zero bounds, got %+v", b)
	}
}

func TestBoundsMerge(t *testing.T) {
	a := Bounds{Min: math.Vec3{X: -1, Y: 0, Z: 0}, Max: math.Vec3{X: 1, Y: 1, Z: 1}}
	b := Bounds{Min: math.Vec3{X: 0, Y: -2, Z: 0}, Max: math.Vec3{X: 3, Y: 0, Z: 0.5}}
	m := a.Merge(b)
	nearVec(t, m.Min, math.Vec3{X: -1, Y: -2, Z: 0}, "merged min")
	nearVec(t, m.Max, math.Vec3{X: 3, Y: 1, Z: 1}, "merged max")
}

func TestPlaceRecentersOnBoundsCenter(t *testing.T) {
	// Box from (2,4,2) to (4,8,4): center (3,6,3).
	m := boxModel([3]float32{2, 4, 2}, [3]float32{4, 8, 4})
	p := Place(m, [3]float32{10, 0, 10}, 1, false)

	// The bounding box center lands exactly at the placement point.
	got := p.WorldMatrix().TransformVec3(math.Vec3{X: 3, Y: 6, Z: 3})
	nearVec(t, got, math.Vec3{X: 10, Y: 0, Z: 10}, "bbox center")

	// The bottom center sits half the box height below it.
	got = p.WorldMatrix().TransformVec3(math.Vec3{X: 3, Y: 4, Z: 3})
	nearVec(t, got, math.Vec3{X: 10, Y: -2, Z: 10}, "bottom center")
}

func TestPlaceGroundedRestsOnPosition(t *testing.T) {
	m := boxModel([3]float32{2, 4, 2}, [3]float32{4, 8, 4})
	p := PlaceGrounded(m, [3]float32{10, 0, 10}, 1, false)

	// Bottom center of the box lands exactly at the placement point.
	got := p.WorldMatrix().TransformVec3(math.Vec3{X: 3, Y: 4, Z: 3})
	nearVec(t, got, math.Vec3{X: 10, Y: 0, Z: 10}, "bottom center")

	// The top center sits the box height above it.
	got = p.WorldMatrix().TransformVec3(math.Vec3{X: 3, Y: 8, Z: 3})
	nearVec(t, got, math.Vec3{X: 10, Y: 4, Z: 10}, "top center")
}

func TestPlaceGroundedAppliesScaleToLift(t *testing.T) {
	m := boxModel([3]float32{-1, 0, -1}, [3]float32{1, 2, 1})
	p := PlaceGrounded(m, [3]float32{0, 0, 0}, 3, false)

	got := p.WorldMatrix().TransformVec3(math.Vec3{X: 0, Y: 0, Z: 0})
	nearVec(t, got, math.Vec3{X: 0, Y: 0, Z: 0}, "scaled bottom center")
}

func TestPlaceAppliesScale(t *testing.T) {
	m := boxModel([3]float32{-1, 0, -1}, [3]float32{1, 2, 1})
	p := Place(m, [3]float32{0, 0, 0}, 3, false)

	// Center (0,1,0) is the pivot: corner (1,2,1) is (1,1,1) away.
	got := p.WorldMatrix().TransformVec3(math.Vec3{X: 1, Y: 2, Z: 1})
	nearVec(t, got, math.Vec3{X: 3, Y: 3, Z: 3}, "scaled corner")
}

func TestPlaceZeroScaleDefaultsToOne(t *testing.T) {
	m := boxModel([3]float32{-1, 0, -1}, [3]float32{1, 2, 1})
	p := Place(m, [3]float32{0, 0, 0}, 0, false)

	got := p.WorldMatrix().TransformVec3(math.Vec3{X: 1, Y: 2, Z: 1})
	nearVec(t, got, math.Vec3{X: 1, Y: 1, Z: 1}, "unit scale corner")
}

func TestMoveOnlyWhenMovable(t *testing.T) {
	m := boxModel([3]float32{-1, 0, -1}, [3]float32{1, 2, 1})

	fixed := Place(m, [3]float32{0, 0, 0}, 1, false)
	fixed.Move(math.Vec3{X: 5})
	if fixed.Offset != (math.Vec3{}) {
		t.Errorf("fixed placement moved: %+v", fixed.Offset)
	}

	movable := Place(m, [3]float32{0, 0, 0}, 1, true)
	movable.Move(math.Vec3{X: 5})
	movable.Move(math.Vec3{X: 1, Z: -2})
	nearVec(t, movable.Offset, math.Vec3{X: 6, Z: -2}, "accumulated offset")

	got := movable.WorldMatrix().TransformVec3(math.Vec3{X: 0, Y: 1, Z: 0})
	nearVec(t, got, math.Vec3{X: 6, Y: 0, Z: -2}, "moved center")
}

func TestWorldBounds(t *testing.T) {
	m := boxModel([3]float32{-1, 0, -1}, [3]float32{1, 2, 1})
	p := Place(m, [3]float32{10, 5, 0}, 2, true)
	p.Move(math.Vec3{Y: 1})

	// Center (0,1,0), scale 2: the box spans 2 units around (10,5,0)
	// in every axis, shifted up one more by the move.
	b := p.WorldBounds()
	nearVec(t, b.Min, math.Vec3{X: 8, Y: 4, Z: -2}, "world min")
	nearVec(t, b.Max, math.Vec3{X: 12, Y: 8, Z: 2}, "world max")
}

func TestCombinedBounds(t *testing.T) {
	m := boxModel([3]float32{-1, 0, -1}, [3]float32{1, 2, 1})
	s := newTestScene()
	if s.CombinedBounds() != (Bounds{}) {
		t.Error("empty scene should yield zero bounds")
	}

	s.Add(PlaceGrounded(m, [3]float32{0, 0, 0}, 1, false))
	s.Add(PlaceGrounded(m, [3]float32{10, 0, 0}, 1, false))

	b := s.CombinedBounds()
	nearVec(t, b.Min, math.Vec3{X: -1, Y: 0, Z: -1}, "combined min")
	nearVec(t, b.Max, math.Vec3{X: 11, Y: 2, Z: 1}, "combined max")
}

func TestMovablePlacements(t *testing.T) {
	m := boxModel([3]float32{-1, 0, -1}, [3]float32{1, 2, 1})
	s := newTestScene()
	s.Add(Place(m, [3]float32{0, 0, 0}, 1, false))
	mov := Place(m, [3]float32{5, 0, 0}, 1, true)
	s.Add(mov)

	got := s.MovablePlacements()
	if len(got) != 1 || got[0] != mov {
		t.Errorf("got %d movable placements, want the single movable one", len(got))
	}
}
