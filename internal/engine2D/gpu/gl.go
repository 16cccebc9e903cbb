package gpu

import (
	"fmt"
	"image"
	"strings"

	"sprite-editor/internal/utils"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// GLDevice implements Device on the OpenGL context owned by the raylib window.
// raylib queues its own draws, so every entry point that touches GL state flushes
// the raylib batch first.
type GLDevice struct {
	Renderer string
	Vendor   string
	Version  string

	Stats Stats

	boundTargets []boundTarget
}

// Stats counts backend work since the last ResetStats.
type Stats struct {
	DrawCalls     int
	Vertices      int
	Uploads       int
	PixelReadback int
}

type boundTarget struct {
	target   RenderTarget
	viewport [4]int32
}

// NewGLDevice loads GL entry points. It must be called after rl.InitWindow.
func NewGLDevice() (*GLDevice, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gpu: loading GL functions: %w", err)
	}

	d := &GLDevice{
		Renderer: gl.GoStr(gl.GetString(gl.RENDERER)),
		Vendor:   gl.GoStr(gl.GetString(gl.VENDOR)),
		Version:  gl.GoStr(gl.GetString(gl.VERSION)),
	}
	utils.Info("GPU: %s (%s), OpenGL %s", d.Renderer, d.Vendor, d.Version)
	return d, nil
}

func (d *GLDevice) ResetStats() { d.Stats = Stats{} }

func (d *GLDevice) flush() { rl.DrawRenderBatchActive() }

func (d *GLDevice) CompileProgram(vertex, fragment string) (uint32, error) {
	d.flush()

	vs, err := compileStage(vertex, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	defer gl.DeleteShader(vs)

	fs, err := compileStage(fragment, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("fragment: %w", err)
	}
	defer gl.DeleteShader(fs)

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", strings.TrimRight(log, "\x00"))
	}
	return program, nil
}

func compileStage(source string, stage uint32) (uint32, error) {
	shader := gl.CreateShader(stage)

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile: %s", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func (d *GLDevice) DeleteProgram(id uint32) {
	d.flush()
	rl.UnloadShaderProgram(id)
}

func (d *GLDevice) UseProgram(id uint32) {
	d.flush()
	rl.EnableShader(id)
}

func (d *GLDevice) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (d *GLDevice) UniformMat4(loc int32, m mgl32.Mat4) {
	gl.UniformMatrix4fv(loc, 1, false, &m[0])
}

func (d *GLDevice) UniformVec4(loc int32, v mgl32.Vec4) { gl.Uniform4f(loc, v[0], v[1], v[2], v[3]) }
func (d *GLDevice) UniformVec3(loc int32, v mgl32.Vec3) { gl.Uniform3f(loc, v[0], v[1], v[2]) }
func (d *GLDevice) UniformFloat(loc int32, v float32)   { gl.Uniform1f(loc, v) }
func (d *GLDevice) UniformInt(loc int32, v int32)       { gl.Uniform1i(loc, v) }

func (d *GLDevice) UniformInts(loc int32, v []int32) {
	if len(v) == 0 {
		return
	}
	gl.Uniform1iv(loc, int32(len(v)), &v[0])
}

func (d *GLDevice) UploadTexture(img *image.NRGBA, filter Filter) (uint32, error) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 || h == 0 {
		return 0, fmt.Errorf("gpu: empty image")
	}
	pix := img.Pix
	if img.Stride != w*4 || img.Rect.Min != (image.Point{}) {
		packed := image.NewNRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			copy(packed.Pix[y*packed.Stride:(y+1)*packed.Stride], img.Pix[img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y):])
		}
		pix = packed.Pix
	}

	d.flush()
	rlImg := rl.NewImage(pix, int32(w), int32(h), 1, rl.UncompressedR8g8b8a8)
	tex := rl.LoadTextureFromImage(rlImg)
	if !rl.IsTextureValid(tex) {
		return 0, fmt.Errorf("gpu: texture upload failed (%dx%d)", w, h)
	}

	mode := rl.FilterPoint
	if filter == FilterLinear {
		mode = rl.FilterBilinear
	}
	rl.SetTextureFilter(tex, mode)
	rl.SetTextureWrap(tex, rl.WrapClamp)

	d.Stats.Uploads++
	return tex.ID, nil
}

func (d *GLDevice) DeleteTexture(id uint32) {
	d.flush()
	rl.UnloadTexture(rl.Texture2D{ID: id})
}

func (d *GLDevice) BindTexture(slot int, id uint32) {
	d.flush()
	rl.ActiveTextureSlot(int32(slot))
	if id == 0 {
		rl.DisableTexture()
	} else {
		rl.EnableTexture(id)
	}
	rl.ActiveTextureSlot(0)
}

func (d *GLDevice) NewMesh(desc MeshDesc) (Mesh, error) {
	if desc.Layout.Stride <= 0 || desc.MaxVertices <= 0 {
		return Mesh{}, fmt.Errorf("gpu: invalid mesh (stride %d, vertices %d)", desc.Layout.Stride, desc.MaxVertices)
	}
	d.flush()

	m := Mesh{
		Layout:      desc.Layout,
		MaxVertices: desc.MaxVertices,
		Indexed:     len(desc.Indices) > 0,
		Primitive:   desc.Primitive,
	}

	m.VAO = rl.LoadVertexArray()
	rl.EnableVertexArray(m.VAO)

	gl.GenBuffers(1, &m.VBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, desc.MaxVertices*desc.Layout.StrideBytes(), nil, gl.DYNAMIC_DRAW)

	if m.Indexed {
		gl.GenBuffers(1, &m.IBO)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.IBO)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(desc.Indices)*4, gl.Ptr(desc.Indices), gl.STATIC_DRAW)
	}

	stride := int32(desc.Layout.StrideBytes())
	for _, a := range desc.Layout.Attributes {
		gl.VertexAttribPointerWithOffset(a.Location, int32(a.Size), gl.FLOAT, false, stride, uintptr(a.Offset*floatSize))
		gl.EnableVertexAttribArray(a.Location)
	}

	rl.DisableVertexArray()
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return m, nil
}

func (d *GLDevice) UploadVertices(m Mesh, data []float32) {
	if len(data) == 0 {
		return
	}
	d.flush()
	gl.BindBuffer(gl.ARRAY_BUFFER, m.VBO)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(data)*floatSize, gl.Ptr(data))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	d.Stats.Uploads++
}

func (d *GLDevice) DrawMesh(m Mesh, count int) {
	if count <= 0 {
		return
	}
	d.flush()

	mode := uint32(gl.TRIANGLES)
	if m.Primitive == Lines {
		mode = gl.LINES
	}

	rl.EnableVertexArray(m.VAO)
	if m.Indexed {
		gl.DrawElements(mode, int32(count), gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(mode, 0, int32(count))
	}
	rl.DisableVertexArray()

	d.Stats.DrawCalls++
	d.Stats.Vertices += count
}

func (d *GLDevice) DeleteMesh(m Mesh) {
	d.flush()
	if m.IBO != 0 {
		gl.DeleteBuffers(1, &m.IBO)
	}
	rl.UnloadVertexBuffer(m.VBO)
	gl.DeleteVertexArrays(1, &m.VAO)
}

func (d *GLDevice) NewRenderTarget(width, height int, format Format) (RenderTarget, error) {
	if width <= 0 || height <= 0 {
		return RenderTarget{}, fmt.Errorf("%w: size %dx%d", ErrIncompleteTarget, width, height)
	}
	d.flush()

	switch format {
	case FormatRGBA8:
		rt := rl.LoadRenderTexture(int32(width), int32(height))
		if !rl.IsRenderTextureValid(rt) || !rl.FramebufferComplete(rt.ID) {
			rl.UnloadRenderTexture(rt)
			return RenderTarget{}, fmt.Errorf("%w: %s %dx%d", ErrIncompleteTarget, format, width, height)
		}
		return RenderTarget{
			FBO: rt.ID, Color: rt.Texture.ID, Depth: rt.Depth.ID,
			Width: width, Height: height, Format: format,
		}, nil

	case FormatRGBA32F:
		t := RenderTarget{Width: width, Height: height, Format: format}

		gl.GenTextures(1, &t.Color)
		gl.BindTexture(gl.TEXTURE_2D, t.Color)
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA32F, int32(width), int32(height), 0, gl.RGBA, gl.FLOAT, nil)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
		gl.BindTexture(gl.TEXTURE_2D, 0)

		t.Depth = rl.LoadTextureDepth(int32(width), int32(height), true)
		t.FBO = rl.LoadFramebuffer()
		rl.FramebufferAttach(t.FBO, t.Color, rl.AttachmentColorChannel0, rl.AttachmentTexture2d, 0)
		rl.FramebufferAttach(t.FBO, t.Depth, rl.AttachmentDepth, rl.AttachmentRenderbuffer, 0)

		if !rl.FramebufferComplete(t.FBO) {
			d.DeleteRenderTarget(t)
			return RenderTarget{}, fmt.Errorf("%w: %s %dx%d", ErrIncompleteTarget, format, width, height)
		}
		return t, nil
	}
	return RenderTarget{}, fmt.Errorf("%w: unknown format %d", ErrIncompleteTarget, format)
}

func (d *GLDevice) DeleteRenderTarget(t RenderTarget) {
	d.flush()
	if t.Format == FormatRGBA8 {
		rl.UnloadRenderTexture(rl.RenderTexture2D{
			ID:      t.FBO,
			Texture: rl.Texture2D{ID: t.Color},
			Depth:   rl.Texture2D{ID: t.Depth},
		})
		return
	}
	if t.Depth != 0 {
		gl.DeleteRenderbuffers(1, &t.Depth)
	}
	if t.Color != 0 {
		gl.DeleteTextures(1, &t.Color)
	}
	if t.FBO != 0 {
		rl.UnloadFramebuffer(t.FBO)
	}
}

func (d *GLDevice) BindRenderTarget(t RenderTarget) {
	d.flush()
	var vp [4]int32
	gl.GetIntegerv(gl.VIEWPORT, &vp[0])
	d.boundTargets = append(d.boundTargets, boundTarget{target: t, viewport: vp})

	rl.EnableFramebuffer(t.FBO)
	gl.Viewport(0, 0, int32(t.Width), int32(t.Height))
}

func (d *GLDevice) UnbindRenderTarget() {
	if len(d.boundTargets) == 0 {
		return
	}
	d.flush()

	top := d.boundTargets[len(d.boundTargets)-1]
	d.boundTargets = d.boundTargets[:len(d.boundTargets)-1]

	if n := len(d.boundTargets); n > 0 {
		rl.EnableFramebuffer(d.boundTargets[n-1].target.FBO)
	} else {
		rl.DisableFramebuffer()
	}
	vp := top.viewport
	gl.Viewport(vp[0], vp[1], vp[2], vp[3])
}

func (d *GLDevice) Clear(c mgl32.Vec4) {
	d.flush()
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (d *GLDevice) SetBlending(enabled bool) {
	d.flush()
	if enabled {
		rl.EnableColorBlend()
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	} else {
		rl.DisableColorBlend()
	}
}

func (d *GLDevice) SetLineWidth(width float32) {
	d.flush()
	rl.SetLineWidth(width)
}

func (d *GLDevice) ReadPixel(t RenderTarget, x, y int) ([3]float32, error) {
	var px [3]float32
	if x < 0 || y < 0 || x >= t.Width || y >= t.Height {
		return px, fmt.Errorf("gpu: pixel (%d,%d) outside %dx%d target", x, y, t.Width, t.Height)
	}
	d.flush()

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, t.FBO)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	if t.Format == FormatRGBA32F {
		var rgba [4]float32
		gl.ReadPixels(int32(x), int32(y), 1, 1, gl.RGBA, gl.FLOAT, gl.Ptr(&rgba[0]))
		px = [3]float32{rgba[0], rgba[1], rgba[2]}
	} else {
		var rgba [4]uint8
		gl.ReadPixels(int32(x), int32(y), 1, 1, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&rgba[0]))
		px = [3]float32{float32(rgba[0]) / 255, float32(rgba[1]) / 255, float32(rgba[2]) / 255}
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)

	d.Stats.PixelReadback++
	if errCode := gl.GetError(); errCode != gl.NO_ERROR {
		return px, fmt.Errorf("gpu: glReadPixels failed with 0x%x", errCode)
	}
	return px, nil
}

var _ Device = (*GLDevice)(nil)
