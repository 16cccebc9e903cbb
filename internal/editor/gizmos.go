package editor

import (
	"math"

	"sprite-editor/internal/engine2D/camera"
	"sprite-editor/internal/engine2D/debugdraw"
	"sprite-editor/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	GridColor      = mgl32.Vec3{0.3, 0.3, 0.3}
	SelectionColor = mgl32.Vec3{1, 1, 0}
	BoundsColor    = mgl32.Vec3{0, 1, 0}
	OriginColor    = mgl32.Vec3{1, 0, 0}
)

const originMarker = 4

// DrawGrid queues one frame of grid lines, size world units apart, covering
// what the camera sees. It returns the number of lines queued.
func DrawGrid(lines *debugdraw.Renderer, cam *camera.Camera, size float32, color mgl32.Vec3) int {
	if size <= 0 {
		return 0
	}
	extent := cam.Extent()
	minX, minY := cam.Position.X(), cam.Position.Y()
	maxX, maxY := minX+extent.X(), minY+extent.Y()

	added := 0
	for x := snap(minX, size); x <= maxX; x += size {
		if lines.AddLine(mgl32.Vec2{x, minY}, mgl32.Vec2{x, maxY}, color, 0) {
			added++
		}
	}
	for y := snap(minY, size); y <= maxY; y += size {
		if lines.AddLine(mgl32.Vec2{minX, y}, mgl32.Vec2{maxX, y}, color, 0) {
			added++
		}
	}
	return added
}

// snap returns the first multiple of size at or after v.
func snap(v, size float32) float32 {
	return float32(math.Ceil(float64(v/size))) * size
}

// OutlineEntity queues the rotated bounds of e plus a marker on its origin for one frame.
func OutlineEntity(lines *debugdraw.Renderer, e *scene.Entity, color mgl32.Vec3) {
	t := e.Transform()
	lines.AddBox(t.Position, t.Scale, t.Rotation, color, 0)
	lines.AddBox(t.Position, mgl32.Vec2{originMarker, originMarker}, 0, OriginColor, 0)
}

// OutlineScene outlines every entity, the selected one in SelectionColor.
func OutlineScene(lines *debugdraw.Renderer, s *scene.Scene, selected int) {
	for _, e := range s.Entities() {
		if e.ID() == selected {
			continue
		}
		OutlineEntity(lines, e, BoundsColor)
	}
	if e, ok := s.EntityByPickID(selected); ok {
		OutlineEntity(lines, e, SelectionColor)
	}
}
