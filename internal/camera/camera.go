package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"quanta.gg/internal/event"
	"quanta.gg/internal/gpu"
)

// Camera is the render thread's fly camera. The worker only ever receives
// its position value, never a handle.
type Camera struct {
	pos   mgl32.Vec3
	yaw   float32
	pitch float32

	held        map[event.KeyCode]bool
	speed       float32
	sensitivity float32
}

func New(speed, sensitivity float32) *Camera {
	return &Camera{
		held:        make(map[event.KeyCode]bool),
		speed:       speed,
		sensitivity: sensitivity,
	}
}

func (c *Camera) Pos() mgl32.Vec3 { return c.pos }

// SetPos overrides the position, used when restoring a saved viewpoint.
func (c *Camera) SetPos(p mgl32.Vec3) { c.pos = p }

// Push builds the per-draw parameter block from the committed origin and
// root size.
func (c *Camera) Push(origin mgl32.Vec3, rootSize float32) gpu.PushConstants {
	return gpu.PushConstants{Origin: origin, RootSize: rootSize}
}

// Update integrates held-key movement over dt seconds.
func (c *Camera) Update(dt float64) {
	dir := mgl32.Vec3{}
	forward := c.forward()
	right := mgl32.Vec3{-forward.Z(), 0, forward.X()}
	if c.held[event.KeyForward] {
		dir = dir.Add(forward)
	}
	if c.held[event.KeyBack] {
		dir = dir.Sub(forward)
	}
	if c.held[event.KeyRight] {
		dir = dir.Add(right)
	}
	if c.held[event.KeyLeft] {
		dir = dir.Sub(right)
	}
	if c.held[event.KeyUp] {
		dir = dir.Add(mgl32.Vec3{0, 1, 0})
	}
	if c.held[event.KeyDown] {
		dir = dir.Sub(mgl32.Vec3{0, 1, 0})
	}
	if dir.Len() > 0 {
		c.pos = c.pos.Add(dir.Normalize().Mul(c.speed * float32(dt)))
	}
}

func (c *Camera) Process(ev event.Event) {
	switch e := ev.(type) {
	case event.Key:
		c.held[e.Code] = e.Pressed
	case event.MouseMove:
		c.yaw += e.DX * c.sensitivity
		c.pitch -= e.DY * c.sensitivity
		if c.pitch > 1.55 {
			c.pitch = 1.55
		}
		if c.pitch < -1.55 {
			c.pitch = -1.55
		}
	}
}

func (c *Camera) forward() mgl32.Vec3 {
	cy := float32(math.Cos(float64(c.yaw)))
	sy := float32(math.Sin(float64(c.yaw)))
	cp := float32(math.Cos(float64(c.pitch)))
	sp := float32(math.Sin(float64(c.pitch)))
	return mgl32.Vec3{sy * cp, sp, -cy * cp}
}
