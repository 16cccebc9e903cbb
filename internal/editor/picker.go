package editor

import (
	"time"

	"sprite-editor/internal/engine2D/framebuffer"
	"sprite-editor/internal/utils"
)

// Picker debounces reads from the picking target. Every read stalls the
// pipeline, so at most one happens per cooldown.
type Picker struct {
	picking  *framebuffer.Picking
	cooldown time.Duration
	last     time.Time

	// Now is the clock used for the cooldown.
	Now func() time.Time
}

func NewPicker(picking *framebuffer.Picking, cooldown time.Duration) *Picker {
	return &Picker{picking: picking, cooldown: cooldown, Now: time.Now}
}

// Pick returns the identifier drawn at (x, y) of the picking target, NoObject
// for the background. ok is false when the call fell inside the cooldown and
// nothing was read.
func (p *Picker) Pick(x, y int) (id int, ok bool) {
	now := p.Now()
	if !p.last.IsZero() && now.Sub(p.last) < p.cooldown {
		return framebuffer.NoObject, false
	}
	p.last = now

	id = p.picking.ReadObjectIDAt(x, y)
	utils.Debug("Picker: (%d, %d) -> %d", x, y, id)
	return id, true
}

// Reset lets the next Pick read immediately.
func (p *Picker) Reset() { p.last = time.Time{} }
