package graphics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a free-flying observer. Its position drives the scanner.
type Camera struct {
	Position mgl32.Vec3
	Yaw      float64
	Pitch    float64

	Speed       float32
	Sensitivity float64
}

// NewCamera creates a camera at the given position looking down -z.
func NewCamera(position mgl32.Vec3) *Camera {
	return &Camera{
		Position:    position,
		Yaw:         -90,
		Pitch:       0,
		Speed:       48,
		Sensitivity: 0.1,
	}
}

// Front returns the unit view direction.
func (c *Camera) Front() mgl32.Vec3 {
	yaw := mgl32.DegToRad(float32(c.Yaw))
	pitch := mgl32.DegToRad(float32(c.Pitch))
	return mgl32.Vec3{
		float32(math.Cos(float64(yaw)) * math.Cos(float64(pitch))),
		float32(math.Sin(float64(pitch))),
		float32(math.Sin(float64(yaw)) * math.Cos(float64(pitch))),
	}.Normalize()
}

// ViewMatrix returns the camera's view transform.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front()), mgl32.Vec3{0, 1, 0})
}

// ProcessMouse applies a cursor delta to yaw/pitch, clamping pitch so the
// view never flips.
func (c *Camera) ProcessMouse(dx, dy float64) {
	c.Yaw += dx * c.Sensitivity
	c.Pitch -= dy * c.Sensitivity
	if c.Pitch > 89 {
		c.Pitch = 89
	}
	if c.Pitch < -89 {
		c.Pitch = -89
	}
}

// Move translates the camera. forward/right/up are -1, 0 or 1.
func (c *Camera) Move(forward, right, up float32, dt float64) {
	front := c.Front()
	rightDir := front.Cross(mgl32.Vec3{0, 1, 0}).Normalize()
	delta := front.Mul(forward).Add(rightDir.Mul(right)).Add(mgl32.Vec3{0, up, 0})
	if delta.Len() > 0 {
		c.Position = c.Position.Add(delta.Normalize().Mul(c.Speed * float32(dt)))
	}
}
