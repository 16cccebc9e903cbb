package editor

import (
	"sprite-editor/internal/utils"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Cursor reports the mouse position in window pixels, origin top left.
type Cursor interface {
	Position() (x, y float64, ok bool)
	Close()
}

type raylibCursor struct{}

func (raylibCursor) Position() (float64, float64, bool) {
	p := rl.GetMousePosition()
	return float64(p.X), float64(p.Y), true
}

func (raylibCursor) Close() {}

// x11Cursor asks the X server for the pointer, which keeps tracking while
// the window does not receive motion events.
type x11Cursor struct {
	pointer *utils.X11Pointer
}

func (c *x11Cursor) Position() (float64, float64, bool) {
	x, y, err := c.pointer.Position()
	if err != nil {
		return 0, 0, false
	}
	win := rl.GetWindowPosition()
	return float64(x) - float64(win.X), float64(y) - float64(win.Y), true
}

func (c *x11Cursor) Close() { c.pointer.Close() }

// NewCursor returns the cursor source named by kind ("raylib" or "x11"). When
// the X server cannot be reached it falls back to raylib.
func NewCursor(kind string) Cursor {
	if kind != "x11" {
		return raylibCursor{}
	}
	pointer, err := utils.NewX11Pointer()
	if err != nil {
		utils.Warn("Cursor: X11 unavailable (%v), using raylib mouse input", err)
		return raylibCursor{}
	}
	utils.Info("Cursor: Using X11 pointer")
	return &x11Cursor{pointer: pointer}
}
