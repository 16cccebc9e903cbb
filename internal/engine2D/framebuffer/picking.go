package framebuffer

import (
	"math"

	"sprite-editor/internal/engine2D/gpu"
	"sprite-editor/internal/utils"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxID bounds the identifiers that round-trip exactly: a float32 channel holds
// every whole number up to 1<<24, and identifiers are stored as n+1.
const MaxID = 1 << 24

// NoObject is returned for background pixels and failed reads.
const NoObject = -1

// EncodeID returns the picking color for identifier n: n+1 in every channel,
// so the cleared background (0) decodes to NoObject.
func EncodeID(n int) [3]float32 {
	v := float32(n + 1)
	return [3]float32{v, v, v}
}

// DecodeID undoes EncodeID. Anything that is not a positive whole number decodes to NoObject.
func DecodeID(px [3]float32) int {
	v := px[0]
	if !(v >= 1) || v > MaxID || float32(math.Trunc(float64(v))) != v {
		return NoObject
	}
	return int(v) - 1
}

// Picking is a float framebuffer whose color encodes object identifiers.
type Picking struct {
	*Framebuffer
}

func NewPicking(device gpu.Device, width, height int) (*Picking, error) {
	fb, err := newFramebuffer(device, width, height, gpu.FormatRGBA32F)
	if err != nil {
		return nil, err
	}
	return &Picking{Framebuffer: fb}, nil
}

// Clear resets every pixel to the background identifier.
func (p *Picking) Clear() {
	p.device.Clear(mgl32.Vec4{0, 0, 0, 0})
}

// ReadObjectIDAt reads one pixel and returns the identifier drawn there, or NoObject.
// The read stalls until queued GPU work finishes, so callers should debounce it.
// Coordinates have their origin at the bottom left of the target.
func (p *Picking) ReadObjectIDAt(x, y int) int {
	if x < 0 || y < 0 || x >= p.target.Width || y >= p.target.Height {
		return NoObject
	}
	px, err := p.device.ReadPixel(p.target, x, y)
	if err != nil {
		utils.Warn("Picking: Read at (%d, %d) failed: %v", x, y, err)
		return NoObject
	}
	return DecodeID(px)
}
