package editor

import (
	"fmt"
	"runtime"
	"time"

	"sprite-editor/internal/engine2D/gpu"
	"sprite-editor/internal/scene"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// FrameStats is what the overlay reports for one frame.
type FrameStats struct {
	FPS       int32
	FrameTime float32 // seconds
	GPU       gpu.Stats
	GPUName   string

	Sprites  int
	Batches  int
	Lines    int
	MaxLines int
	Shaders  int
	Textures int

	// Selected lists the fields of the selected entity, nil when nothing is selected.
	Selected []scene.Field
}

type overlayLine struct {
	text   string
	indent int
	gap    bool
}

// panel collects overlay text; draw renders it with raylib.
type panel struct {
	lines []overlayLine
}

func (p *panel) Header(text string) { p.lines = append(p.lines, overlayLine{text: text}) }

func (p *panel) IndentLabel(text string, indent int) {
	p.lines = append(p.lines, overlayLine{text: text, indent: indent})
}

func (p *panel) Separator() { p.lines = append(p.lines, overlayLine{gap: true}) }

// Overlay draws frame statistics in the top left corner of the window.
type Overlay struct {
	X, Y       int
	LineHeight int
	FontHeight int

	memStats   runtime.MemStats
	memUpdated time.Time
}

func NewOverlay() *Overlay {
	return &Overlay{X: 10, Y: 10, LineHeight: 20, FontHeight: 16}
}

func (o *Overlay) build(s FrameStats) *panel {
	p := &panel{}

	p.Header("Timing:")
	p.IndentLabel(fmt.Sprintf("FPS: %d", s.FPS), 10)
	p.IndentLabel(fmt.Sprintf("Frame Time: %.2f ms", s.FrameTime*1000), 10)
	p.Separator()

	p.Header("Renderer:")
	p.IndentLabel(fmt.Sprintf("Draw Calls: %d", s.GPU.DrawCalls), 10)
	p.IndentLabel(fmt.Sprintf("Vertices: %d", s.GPU.Vertices), 10)
	p.IndentLabel(fmt.Sprintf("Buffer Uploads: %d", s.GPU.Uploads), 10)
	p.IndentLabel(fmt.Sprintf("Pixel Reads: %d", s.GPU.PixelReadback), 10)
	p.IndentLabel(fmt.Sprintf("Sprites: %d in %d batches", s.Sprites, s.Batches), 10)
	p.IndentLabel(fmt.Sprintf("Debug Lines: %d / %d", s.Lines, s.MaxLines), 10)
	p.IndentLabel(fmt.Sprintf("Shaders: %d  Textures: %d", s.Shaders, s.Textures), 10)
	if s.GPUName != "" {
		p.IndentLabel(fmt.Sprintf("GPU: %s", s.GPUName), 10)
	}
	p.Separator()

	p.Header("Memory Usage:")
	p.IndentLabel(fmt.Sprintf("Allocated: %.2f MB", float64(o.memStats.Alloc)/1024/1024), 10)
	p.IndentLabel(fmt.Sprintf("Process Total: %.2f MB", float64(o.memStats.Sys)/1024/1024), 10)
	p.IndentLabel(fmt.Sprintf("Goroutines: %d", runtime.NumGoroutine()), 10)

	if s.Selected != nil {
		p.Separator()
		p.Header("Selection:")
		for _, f := range s.Selected {
			p.IndentLabel(fmt.Sprintf("%s: %s", f.Name, f.Value), 10)
		}
	}
	return p
}

// Draw renders the overlay. It must be called between rl.BeginDrawing and rl.EndDrawing.
func (o *Overlay) Draw(s FrameStats) {
	// ReadMemStats stops the world, so refresh at most twice a second.
	if now := time.Now(); now.Sub(o.memUpdated) > 500*time.Millisecond {
		runtime.ReadMemStats(&o.memStats)
		o.memUpdated = now
	}

	y := o.Y
	for _, l := range o.build(s).lines {
		if l.gap {
			y += o.LineHeight / 2
			continue
		}
		rl.DrawText(l.text, int32(o.X+l.indent), int32(y), int32(o.FontHeight), rl.White)
		y += o.LineHeight
	}
}
