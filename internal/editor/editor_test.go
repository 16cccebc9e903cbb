package editor

import (
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sprite-editor/internal/engine2D/assets"
	"sprite-editor/internal/engine2D/camera"
	"sprite-editor/internal/engine2D/debugdraw"
	"sprite-editor/internal/engine2D/framebuffer"
	"sprite-editor/internal/engine2D/gpu"
	"sprite-editor/internal/engine2D/gpu/gputest"
	"sprite-editor/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
)

func TestViewportFitAndFill(t *testing.T) {
	tests := []struct {
		name             string
		scaling          string
		screenW, screenH int
		scale            float64
		offX, offY       float64
	}{
		{"fit wide window", ScalingFit, 2000, 1000, 0.5, 750, 0},
		{"fill wide window", ScalingFill, 2000, 1000, 2, 0, -1500},
		{"fit exact", ScalingFit, 1000, 2000, 1, 0, 0},
		{"unknown scaling fits", "stretch", 500, 500, 0.25, 125, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewViewport(1000, 2000, tt.scaling)
			v.Update(tt.screenW, tt.screenH)
			if v.Scale != tt.scale || v.OffsetX != tt.offX || v.OffsetY != tt.offY {
				t.Errorf("scale %v offset (%v, %v), want %v (%v, %v)", v.Scale, v.OffsetX, v.OffsetY, tt.scale, tt.offX, tt.offY)
			}
		})
	}
}

func TestViewportToPixelFlipsY(t *testing.T) {
	v := NewViewport(100, 50, ScalingFit)
	v.Update(200, 200) // scale 2, 50px letterbox above and below

	tests := []struct {
		mx, my float64
		x, y   int
		ok     bool
	}{
		{0, 50, 0, 49, true},     // top left of the image
		{199, 149, 99, 0, true},  // bottom right
		{21, 52.5, 10, 48, true}, // second row from the top
		{100, 10, 0, 0, false},   // letterbox
		{100, 150, 0, 0, false},  // just below the image
		{-1, 100, 0, 0, false},
	}
	for _, tt := range tests {
		x, y, ok := v.ToPixel(tt.mx, tt.my)
		if ok != tt.ok || (ok && (x != tt.x || y != tt.y)) {
			t.Errorf("ToPixel(%v, %v) = (%d, %d, %v), want (%d, %d, %v)", tt.mx, tt.my, x, y, ok, tt.x, tt.y, tt.ok)
		}
	}

	if sx, sy, ok := v.ToScene(100, 100); !ok || sx != 50 || sy != 25 {
		t.Errorf("ToScene(center) = (%v, %v, %v), want (50, 25, true)", sx, sy, ok)
	}
}

func TestViewportDest(t *testing.T) {
	v := NewViewport(100, 50, ScalingFit)
	v.Update(200, 200)
	x, y, w, h := v.Dest()
	if x != 0 || y != 50 || w != 200 || h != 100 {
		t.Errorf("Dest = (%v, %v, %v, %v)", x, y, w, h)
	}
}

func newPicking(t *testing.T, dev *gputest.Device) *framebuffer.Picking {
	t.Helper()
	p, err := framebuffer.NewPicking(dev, 64, 64)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPickerCooldown(t *testing.T) {
	dev := gputest.New()
	dev.Pixels = map[image.Point][3]float32{{X: 3, Y: 4}: framebuffer.EncodeID(42)}
	picker := NewPicker(newPicking(t, dev), 200*time.Millisecond)

	now := time.Unix(1000, 0)
	picker.Now = func() time.Time { return now }

	if id, ok := picker.Pick(3, 4); !ok || id != 42 {
		t.Fatalf("first Pick = %d, %v, want 42, true", id, ok)
	}

	now = now.Add(100 * time.Millisecond)
	if id, ok := picker.Pick(3, 4); ok || id != framebuffer.NoObject {
		t.Errorf("Pick inside cooldown = %d, %v, want -1, false", id, ok)
	}
	if dev.Reads != 1 {
		t.Errorf("reads = %d, the debounced call must not touch the GPU", dev.Reads)
	}

	now = now.Add(100 * time.Millisecond)
	if id, ok := picker.Pick(10, 10); !ok || id != framebuffer.NoObject {
		t.Errorf("Pick after cooldown over background = %d, %v, want -1, true", id, ok)
	}

	picker.Reset()
	if _, ok := picker.Pick(3, 4); !ok {
		t.Error("Pick right after Reset was debounced")
	}
}

const lineShader = `#type vertex
void main() { gl_Position = vec4(0.0); }
#type fragment
out vec4 color;
void main() { color = vec4(1.0); }
`

func newLines(t *testing.T, maxLines int) *debugdraw.Renderer {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "line2d.glsl"), []byte(lineShader), 0644); err != nil {
		t.Fatal(err)
	}
	dev := gputest.New()
	reg := assets.NewRegistry(dev, assets.WithResolver(func(p string) string { return filepath.Join(dir, p) }))
	lines, err := debugdraw.New(dev, reg, "line2d.glsl", maxLines)
	if err != nil {
		t.Fatal(err)
	}
	return lines
}

func TestDrawGridCoversView(t *testing.T) {
	lines := newLines(t, 0)
	cam := camera.New(mgl32.Vec2{-10, 0}, mgl32.Vec2{100, 64})

	n := DrawGrid(lines, cam, 32, GridColor)
	// x: 0, 32, 64 inside [-10, 90]; y: 0, 32, 64 inside [0, 64].
	if n != 6 || lines.Len() != 6 {
		t.Fatalf("grid lines = %d (Len %d), want 6", n, lines.Len())
	}
	first := lines.Lines()[0]
	if first.Start != (mgl32.Vec2{0, 0}) || first.End != (mgl32.Vec2{0, 64}) {
		t.Errorf("first line = %v -> %v", first.Start, first.End)
	}

	lines.Tick()
	if lines.Len() != 0 {
		t.Error("grid lines outlived the frame")
	}
	if DrawGrid(lines, cam, 0, GridColor) != 0 {
		t.Error("grid drawn with a zero cell size")
	}
}

func TestOutlineScene(t *testing.T) {
	lines := newLines(t, 0)
	s := scene.New(gputest.New(), scene.NewIDAllocator(0), 10)
	a := scene.NewEntity("a", scene.Transform{Position: mgl32.Vec2{10, 10}, Scale: mgl32.Vec2{4, 4}}, scene.SpriteRenderer{}, 0)
	b := scene.NewEntity("b", scene.Transform{Position: mgl32.Vec2{50, 50}, Scale: mgl32.Vec2{8, 2}}, scene.SpriteRenderer{}, 0)
	s.Add(a)
	s.Add(b)

	OutlineScene(lines, s, b.ID())
	if lines.Len() != 16 {
		t.Fatalf("outline lines = %d, want 16 (bounds and origin marker per entity)", lines.Len())
	}
	var selected int
	for _, l := range lines.Lines() {
		if l.Color == SelectionColor {
			selected++
		}
	}
	if selected != 4 {
		t.Errorf("selection colored lines = %d, want 4", selected)
	}
}

func TestOverlayLines(t *testing.T) {
	o := NewOverlay()
	p := o.build(FrameStats{
		FPS:      60,
		GPU:      gpu.Stats{DrawCalls: 3},
		Sprites:  1001,
		Batches:  2,
		Selected: []scene.Field{{Name: "Name", Value: "player"}},
	})

	joined := linesText(p)
	for _, want := range []string{"FPS: 60", "Draw Calls: 3", "Sprites: 1001 in 2 batches", "Name: player"} {
		if !strings.Contains(joined, want) {
			t.Errorf("overlay missing %q:\n%s", want, joined)
		}
	}

	if p := o.build(FrameStats{}); strings.Contains(linesText(p), "Selection:") {
		t.Error("selection header shown without a selection")
	}
}

func linesText(p *panel) string {
	var b strings.Builder
	for _, l := range p.lines {
		b.WriteString(l.text)
		b.WriteByte('\n')
	}
	return b.String()
}
