package framebuffer

import (
	"errors"
	"fmt"

	"sprite-editor/internal/engine2D/gpu"
	"sprite-editor/internal/utils"
)

// IncompleteError is returned when the backend rejects a framebuffer configuration.
// It is a setup bug, not a runtime condition to recover from.
type IncompleteError struct {
	Width, Height int
	Format        gpu.Format
	Err           error
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("framebuffer: incomplete %s target %dx%d: %v", e.Format, e.Width, e.Height, e.Err)
}

func (e *IncompleteError) Unwrap() error { return e.Err }

// Framebuffer is an off-screen color + depth target.
type Framebuffer struct {
	device gpu.Device
	target gpu.RenderTarget
	bound  bool
}

// New allocates an RGBA8 target used to compose the scene for display.
func New(device gpu.Device, width, height int) (*Framebuffer, error) {
	return newFramebuffer(device, width, height, gpu.FormatRGBA8)
}

func newFramebuffer(device gpu.Device, width, height int, format gpu.Format) (*Framebuffer, error) {
	target, err := device.NewRenderTarget(width, height, format)
	if err != nil {
		if !errors.Is(err, gpu.ErrIncompleteTarget) {
			err = fmt.Errorf("%w: %w", gpu.ErrIncompleteTarget, err)
		}
		return nil, &IncompleteError{Width: width, Height: height, Format: format, Err: err}
	}
	utils.Debug("Framebuffer: Created %s %dx%d (FBO %d)", format, width, height, target.FBO)
	return &Framebuffer{device: device, target: target}, nil
}

// Bind redirects draws into the framebuffer until Unbind.
func (f *Framebuffer) Bind() {
	f.device.BindRenderTarget(f.target)
	f.bound = true
}

func (f *Framebuffer) Unbind() {
	if !f.bound {
		return
	}
	f.device.UnbindRenderTarget()
	f.bound = false
}

// Do runs fn with the framebuffer bound and always unbinds, also when fn fails or panics.
func (f *Framebuffer) Do(fn func() error) error {
	f.Bind()
	defer f.Unbind()
	return fn()
}

// ColorAttachment returns the texture handle of the color attachment.
func (f *Framebuffer) ColorAttachment() uint32 { return f.target.Color }

func (f *Framebuffer) Target() gpu.RenderTarget { return f.target }

func (f *Framebuffer) Size() (int, int) { return f.target.Width, f.target.Height }

func (f *Framebuffer) Bound() bool { return f.bound }

// Resize replaces the attachments with ones of the new size. A bound
// framebuffer stays bound, now to the new attachments.
func (f *Framebuffer) Resize(width, height int) error {
	if width == f.target.Width && height == f.target.Height {
		return nil
	}
	next, err := newFramebuffer(f.device, width, height, f.target.Format)
	if err != nil {
		return err
	}
	bound := f.bound
	f.Unbind()
	f.device.DeleteRenderTarget(f.target)
	f.target = next.target
	if bound {
		f.Bind()
	}
	return nil
}

func (f *Framebuffer) Release() {
	f.Unbind()
	f.device.DeleteRenderTarget(f.target)
	f.target = gpu.RenderTarget{}
}
