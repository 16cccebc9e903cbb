package camera

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a 2D orthographic camera. Position is the world coordinate shown at
// the bottom left of the viewport; ProjectionSize is the visible world extent.
type Camera struct {
	Position       mgl32.Vec2
	ProjectionSize mgl32.Vec2
	Zoom           float32
}

func New(position, size mgl32.Vec2) *Camera {
	return &Camera{Position: position, ProjectionSize: size, Zoom: 1}
}

func (c *Camera) zoom() float32 {
	if c.Zoom <= 0 {
		return 1
	}
	return c.Zoom
}

// Projection maps the visible world extent onto clip space.
func (c *Camera) Projection() mgl32.Mat4 {
	z := c.zoom()
	return mgl32.Ortho(0, c.ProjectionSize.X()/z, 0, c.ProjectionSize.Y()/z, -100, 100)
}

func (c *Camera) View() mgl32.Mat4 {
	return mgl32.Translate3D(-c.Position.X(), -c.Position.Y(), 0)
}

// ScreenToWorld converts a viewport position in pixels (origin bottom left) of a
// viewport with the given size into world coordinates.
func (c *Camera) ScreenToWorld(screen, viewport mgl32.Vec2) mgl32.Vec2 {
	if viewport.X() == 0 || viewport.Y() == 0 {
		return c.Position
	}
	z := c.zoom()
	return mgl32.Vec2{
		c.Position.X() + screen.X()/viewport.X()*c.ProjectionSize.X()/z,
		c.Position.Y() + screen.Y()/viewport.Y()*c.ProjectionSize.Y()/z,
	}
}

// Pan moves the camera by a screen space delta.
func (c *Camera) Pan(delta, viewport mgl32.Vec2) {
	if viewport.X() == 0 || viewport.Y() == 0 {
		return
	}
	z := c.zoom()
	c.Position = c.Position.Sub(mgl32.Vec2{
		delta.X() / viewport.X() * c.ProjectionSize.X() / z,
		delta.Y() / viewport.Y() * c.ProjectionSize.Y() / z,
	})
}

// Extent is the world size currently visible.
func (c *Camera) Extent() mgl32.Vec2 {
	return c.ProjectionSize.Mul(1 / c.zoom())
}
