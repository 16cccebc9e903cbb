// Package editor is the glue between the window and the rendering core:
// viewport mapping, debounced picking, grid and selection gizmos and the stats overlay.
package editor

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	ScalingFit  = "fit"
	ScalingFill = "fill"
)

// Viewport maps window pixels onto the off-screen scene image, which is drawn
// centered and scaled to fit (letterboxed) or fill (cropped) the window.
type Viewport struct {
	SceneWidth  int
	SceneHeight int
	Scaling     string

	Scale   float64
	OffsetX float64
	OffsetY float64
}

func NewViewport(sceneWidth, sceneHeight int, scaling string) *Viewport {
	return &Viewport{SceneWidth: sceneWidth, SceneHeight: sceneHeight, Scaling: scaling, Scale: 1}
}

// Update recomputes the scale and offsets for the current window size.
func (v *Viewport) Update(screenWidth, screenHeight int) {
	if v.SceneWidth <= 0 || v.SceneHeight <= 0 {
		return
	}
	scaleW := float64(screenWidth) / float64(v.SceneWidth)
	scaleH := float64(screenHeight) / float64(v.SceneHeight)

	if v.Scaling == ScalingFill {
		v.Scale = math.Max(scaleW, scaleH)
	} else {
		v.Scale = math.Min(scaleW, scaleH)
	}

	v.OffsetX = (float64(screenWidth) - float64(v.SceneWidth)*v.Scale) / 2
	v.OffsetY = (float64(screenHeight) - float64(v.SceneHeight)*v.Scale) / 2
}

// Dest is the window rectangle the scene image covers.
func (v *Viewport) Dest() (x, y, w, h float32) {
	return float32(v.OffsetX), float32(v.OffsetY),
		float32(float64(v.SceneWidth) * v.Scale), float32(float64(v.SceneHeight) * v.Scale)
}

// ToScene converts a window position (origin top left) into scene pixels with
// the origin at the bottom left, the convention of the camera and of pixel
// read-back. ok is false outside the scene image.
func (v *Viewport) ToScene(mouseX, mouseY float64) (x, y float64, ok bool) {
	if v.Scale <= 0 {
		return 0, 0, false
	}
	relX := (mouseX - v.OffsetX) / v.Scale
	relY := (mouseY - v.OffsetY) / v.Scale
	if relX < 0 || relY < 0 || relX >= float64(v.SceneWidth) || relY >= float64(v.SceneHeight) {
		return 0, 0, false
	}
	return relX, float64(v.SceneHeight) - relY, true
}

// ToPixel is ToScene rounded down to the pixel the picking target is read at.
func (v *Viewport) ToPixel(mouseX, mouseY float64) (x, y int, ok bool) {
	if _, _, ok := v.ToScene(mouseX, mouseY); !ok {
		return 0, 0, false
	}
	col := int((mouseX - v.OffsetX) / v.Scale)
	row := int((mouseY - v.OffsetY) / v.Scale)
	return col, v.SceneHeight - 1 - row, true
}

// Size is the scene size as a vector, handy for camera conversions.
func (v *Viewport) Size() mgl32.Vec2 {
	return mgl32.Vec2{float32(v.SceneWidth), float32(v.SceneHeight)}
}
