// Package camera provides camera implementations for 3D rendering.
package camera

import (
	gomath "math"

	"github.com/Faultbox/sceneview/pkg/math"
)

// FlyCamera is a free-look camera driven by mouse look and WASD-style
// movement. Yaw and pitch are radians; pitch is clamped short of the
// poles so the view never flips.
type FlyCamera struct {
	Position math.Vec3
	Yaw      float32
	Pitch    float32

	MoveSpeed       float32
	LookSensitivity float32
	SpeedMultiplier float32

	maxPitch float32
}

// NewFlyCamera creates a fly camera at the origin looking down -Z.
func NewFlyCamera() *FlyCamera {
	return &FlyCamera{
		Yaw:             -gomath.Pi / 2,
		MoveSpeed:       5.0,
		LookSensitivity: 0.0025,
		SpeedMultiplier: 4.0,
		maxPitch:        1.55,
	}
}

// Forward returns the unit view direction.
func (c *FlyCamera) Forward() math.Vec3 {
	cp := float32(gomath.Cos(float64(c.Pitch)))
	return math.Vec3{
		X: float32(gomath.Cos(float64(c.Yaw))) * cp,
		Y: float32(gomath.Sin(float64(c.Pitch))),
		Z: float32(gomath.Sin(float64(c.Yaw))) * cp,
	}
}

// Right returns the unit right direction on the horizontal plane.
func (c *FlyCamera) Right() math.Vec3 {
	f := c.Forward()
	return f.Cross(math.Vec3{Y: 1}).Normalize()
}

// ViewMatrix returns the view matrix for this camera.
func (c *FlyCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position, c.Position.Add(c.Forward()), math.Vec3{Y: 1})
}

// HandleLook applies a mouse delta to yaw and pitch.
func (c *FlyCamera) HandleLook(deltaX, deltaY float32) {
	c.Yaw += deltaX * c.LookSensitivity
	c.Pitch -= deltaY * c.LookSensitivity

	if c.Pitch > c.maxPitch {
		c.Pitch = c.maxPitch
	}
	if c.Pitch < -c.maxPitch {
		c.Pitch = -c.maxPitch
	}
}

// HandleMovement moves the camera along its local axes. forward, right
// and up are -1..1 input axes; fast engages the speed multiplier.
func (c *FlyCamera) HandleMovement(forward, right, up float32, fast bool, dt float32) {
	speed := c.MoveSpeed
	if fast {
		speed *= c.SpeedMultiplier
	}
	step := speed * dt

	c.Position = c.Position.Add(c.Forward().Scale(forward * step))
	c.Position = c.Position.Add(c.Right().Scale(right * step))
	c.Position = c.Position.Add(math.Vec3{Y: up * step})
}

// LookAtPoint orients the camera toward a world point.
func (c *FlyCamera) LookAtPoint(target math.Vec3) {
	dir := target.Sub(c.Position)
	if dir.Length() < 1e-6 {
		return
	}
	dir = dir.Normalize()
	c.Yaw = float32(gomath.Atan2(float64(dir.Z), float64(dir.X)))
	c.Pitch = float32(gomath.Asin(float64(dir.Y)))
	if c.Pitch > c.maxPitch {
		c.Pitch = c.maxPitch
	}
	if c.Pitch < -c.maxPitch {
		c.Pitch = -c.maxPitch
	}
}

// FrameBounds positions the camera to view a bounding box: pulled back
// along the diagonal far enough that the whole box fits a ~45 degree
// field of view, looking at its center. Movement speed is rescaled to
// the scene so large and tiny models feel the same.
func (c *FlyCamera) FrameBounds(min, max math.Vec3) {
	center := min.Add(max).Scale(0.5)
	size := max.Sub(min)

	radius := size.Length() * 0.5
	if radius < 1e-4 {
		radius = 1
	}
	distance := radius * 2.2

	c.Position = center.Add(math.Vec3{X: 0.4, Y: 0.35, Z: 1}.Normalize().Scale(distance))
	c.LookAtPoint(center)
	c.MoveSpeed = radius * 0.8
}

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	CenterX, CenterY, CenterZ float32

	Distance  float32
	RotationX float32
	RotationY float32

	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        10.0,
		RotationX:       0.4,
		RotationY:       0.0,
		MinDistance:     0.1,
		MaxDistance:     5000.0,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	x := c.Distance * float32(gomath.Cos(float64(c.RotationX))*gomath.Sin(float64(c.RotationY)))
	y := c.Distance * float32(gomath.Sin(float64(c.RotationX)))
	z := c.Distance * float32(gomath.Cos(float64(c.RotationX))*gomath.Cos(float64(c.RotationY)))

	return math.Vec3{
		X: c.CenterX + x,
		Y: c.CenterY + y,
		Z: c.CenterZ + z,
	}
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	pos := c.Position()
	center := math.Vec3{X: c.CenterX, Y: c.CenterY, Z: c.CenterZ}
	return math.LookAt(pos, center, math.Vec3{Y: 1})
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX += deltaY * c.DragSensitivity

	if c.RotationX < c.MinPitch {
		c.RotationX = c.MinPitch
	}
	if c.RotationX > c.MaxPitch {
		c.RotationX = c.MaxPitch
	}
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	if c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}

// SetCenter sets the camera's center point.
func (c *OrbitCamera) SetCenter(x, y, z float32) {
	c.CenterX = x
	c.CenterY = y
	c.CenterZ = z
}

// FitToBounds adjusts the camera to view the given bounding box.
func (c *OrbitCamera) FitToBounds(min, max math.Vec3) {
	c.CenterX = (min.X + max.X) / 2
	c.CenterY = (min.Y + max.Y) / 2
	c.CenterZ = (min.Z + max.Z) / 2

	size := max.Sub(min)
	radius := size.Length() * 0.5
	if radius < 1e-4 {
		radius = 1
	}

	c.Distance = radius * 2.2
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	c.RotationX = 0.4
	c.RotationY = 0.0
}
