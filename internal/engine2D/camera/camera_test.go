package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// near compares with an absolute tolerance.
func near(a, b mgl32.Vec2) bool {
	const tol = 1e-4
	return math.Abs(float64(a.X()-b.X())) < tol && math.Abs(float64(a.Y()-b.Y())) < tol
}

func TestProjectionMapsExtentToClipSpace(t *testing.T) {
	cam := New(mgl32.Vec2{100, 50}, mgl32.Vec2{1920, 1080})
	mvp := cam.Projection().Mul4(cam.View())

	tests := []struct {
		world mgl32.Vec2
		clip  mgl32.Vec2
	}{
		{mgl32.Vec2{100, 50}, mgl32.Vec2{-1, -1}},
		{mgl32.Vec2{2020, 1130}, mgl32.Vec2{1, 1}},
		{mgl32.Vec2{1060, 590}, mgl32.Vec2{0, 0}},
	}
	for _, tt := range tests {
		got := mvp.Mul4x1(mgl32.Vec4{tt.world.X(), tt.world.Y(), 0, 1})
		if !near(got.Vec2(), tt.clip) {
			t.Errorf("world %v -> clip %v, want %v", tt.world, got.Vec2(), tt.clip)
		}
	}
}

func TestScreenToWorld(t *testing.T) {
	cam := New(mgl32.Vec2{10, 20}, mgl32.Vec2{320, 180})
	viewport := mgl32.Vec2{640, 360}

	got := cam.ScreenToWorld(mgl32.Vec2{320, 180}, viewport)
	want := mgl32.Vec2{170, 110}
	if !near(got, want) {
		t.Errorf("ScreenToWorld = %v, want %v", got, want)
	}

	cam.Zoom = 2
	got = cam.ScreenToWorld(mgl32.Vec2{320, 180}, viewport)
	want = mgl32.Vec2{90, 65}
	if !near(got, want) {
		t.Errorf("ScreenToWorld at zoom 2 = %v, want %v", got, want)
	}
}

func TestPan(t *testing.T) {
	cam := New(mgl32.Vec2{0, 0}, mgl32.Vec2{100, 100})
	cam.Pan(mgl32.Vec2{50, -25}, mgl32.Vec2{200, 200})
	if want := (mgl32.Vec2{-25, 12.5}); !near(cam.Position, want) {
		t.Errorf("Position = %v, want %v", cam.Position, want)
	}
}

func TestExtent(t *testing.T) {
	cam := New(mgl32.Vec2{}, mgl32.Vec2{800, 600})
	if got := cam.Extent(); got != (mgl32.Vec2{800, 600}) {
		t.Errorf("Extent = %v at zoom 1", got)
	}
	cam.Zoom = 2
	if got := cam.Extent(); got != (mgl32.Vec2{400, 300}) {
		t.Errorf("Extent = %v at zoom 2", got)
	}
	cam.Zoom = 0
	if got := cam.Extent(); got != (mgl32.Vec2{800, 600}) {
		t.Errorf("Extent = %v with an unset zoom", got)
	}
}
