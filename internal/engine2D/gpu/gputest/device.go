// Package gputest provides a recording gpu.Device for tests that run without a GL context.
package gputest

import (
	"errors"
	"fmt"
	"image"

	"sprite-editor/internal/engine2D/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

type Draw struct {
	Mesh      gpu.Mesh
	Count     int
	Program   uint32
	Target    uint32 // FBO bound at draw time, 0 for the default framebuffer
	Textures  map[int]uint32
	Blending  bool
	LineWidth float32
}

type Compile struct {
	Vertex, Fragment string
}

// Device records every call. Zero value is ready to use.
type Device struct {
	nextID uint32

	Compiles  []Compile
	Uploads   []*image.NRGBA
	Deleted   []uint32
	Draws     []Draw
	Meshes    map[uint32]gpu.Mesh
	MeshData  map[uint32][]float32
	Indices   map[uint32][]uint32
	Targets   map[uint32]gpu.RenderTarget
	Clears    []mgl32.Vec4
	Reads     int
	Uniforms  map[string]interface{}
	Locations map[int32]string

	VertexUploads int
	Program       uint32
	Bound         []gpu.RenderTarget
	Textures      map[int]uint32
	Blending      bool
	LineWidth     float32

	// CompileErr, when set, fails every CompileProgram call.
	CompileErr error
	// Incomplete makes NewRenderTarget report an incomplete framebuffer.
	Incomplete bool
	// Pixels answers ReadPixel by coordinate; missing coordinates read as black.
	Pixels map[image.Point][3]float32
}

func New() *Device { return &Device{} }

func (d *Device) id() uint32 {
	d.nextID++
	return d.nextID
}

func (d *Device) init() {
	if d.Meshes == nil {
		d.Meshes = map[uint32]gpu.Mesh{}
		d.MeshData = map[uint32][]float32{}
		d.Indices = map[uint32][]uint32{}
		d.Targets = map[uint32]gpu.RenderTarget{}
		d.Uniforms = map[string]interface{}{}
		d.Locations = map[int32]string{}
		d.Textures = map[int]uint32{}
	}
}

func (d *Device) CompileProgram(vertex, fragment string) (uint32, error) {
	d.Compiles = append(d.Compiles, Compile{Vertex: vertex, Fragment: fragment})
	if d.CompileErr != nil {
		return 0, d.CompileErr
	}
	return d.id(), nil
}

func (d *Device) DeleteProgram(id uint32) { d.Deleted = append(d.Deleted, id) }
func (d *Device) UseProgram(id uint32)    { d.Program = id }

func (d *Device) UniformLocation(program uint32, name string) int32 {
	d.init()
	loc := int32(d.id())
	d.Locations[loc] = name
	return loc
}

func (d *Device) setUniform(loc int32, v interface{}) {
	d.init()
	d.Uniforms[d.Locations[loc]] = v
}

func (d *Device) UniformMat4(loc int32, m mgl32.Mat4) { d.setUniform(loc, m) }
func (d *Device) UniformVec4(loc int32, v mgl32.Vec4) { d.setUniform(loc, v) }
func (d *Device) UniformVec3(loc int32, v mgl32.Vec3) { d.setUniform(loc, v) }
func (d *Device) UniformFloat(loc int32, v float32)   { d.setUniform(loc, v) }
func (d *Device) UniformInt(loc int32, v int32)       { d.setUniform(loc, v) }

func (d *Device) UniformInts(loc int32, v []int32) {
	d.setUniform(loc, append([]int32(nil), v...))
}

func (d *Device) UploadTexture(img *image.NRGBA, filter gpu.Filter) (uint32, error) {
	if img.Rect.Empty() {
		return 0, errors.New("gputest: empty image")
	}
	d.Uploads = append(d.Uploads, img)
	return d.id(), nil
}

func (d *Device) DeleteTexture(id uint32) { d.Deleted = append(d.Deleted, id) }

func (d *Device) BindTexture(slot int, id uint32) {
	d.init()
	if id == 0 {
		delete(d.Textures, slot)
		return
	}
	d.Textures[slot] = id
}

func (d *Device) NewMesh(desc gpu.MeshDesc) (gpu.Mesh, error) {
	d.init()
	if desc.Layout.Stride <= 0 || desc.MaxVertices <= 0 {
		return gpu.Mesh{}, fmt.Errorf("gputest: invalid mesh")
	}
	m := gpu.Mesh{
		VAO:         d.id(),
		VBO:         d.id(),
		Layout:      desc.Layout,
		MaxVertices: desc.MaxVertices,
		Indexed:     len(desc.Indices) > 0,
		Primitive:   desc.Primitive,
	}
	if m.Indexed {
		m.IBO = d.id()
		d.Indices[m.VAO] = append([]uint32(nil), desc.Indices...)
	}
	d.Meshes[m.VAO] = m
	return m, nil
}

func (d *Device) UploadVertices(m gpu.Mesh, data []float32) {
	d.init()
	d.VertexUploads++
	d.MeshData[m.VAO] = append([]float32(nil), data...)
}

func (d *Device) DrawMesh(m gpu.Mesh, count int) {
	d.init()
	textures := make(map[int]uint32, len(d.Textures))
	for k, v := range d.Textures {
		textures[k] = v
	}
	var target uint32
	if n := len(d.Bound); n > 0 {
		target = d.Bound[n-1].FBO
	}
	d.Draws = append(d.Draws, Draw{
		Mesh: m, Count: count, Program: d.Program, Target: target,
		Textures: textures, Blending: d.Blending, LineWidth: d.LineWidth,
	})
}

func (d *Device) DeleteMesh(m gpu.Mesh) {
	d.init()
	delete(d.Meshes, m.VAO)
	d.Deleted = append(d.Deleted, m.VAO)
}

func (d *Device) NewRenderTarget(width, height int, format gpu.Format) (gpu.RenderTarget, error) {
	d.init()
	if d.Incomplete || width <= 0 || height <= 0 {
		return gpu.RenderTarget{}, fmt.Errorf("%w: %s %dx%d", gpu.ErrIncompleteTarget, format, width, height)
	}
	t := gpu.RenderTarget{
		FBO: d.id(), Color: d.id(), Depth: d.id(),
		Width: width, Height: height, Format: format,
	}
	d.Targets[t.FBO] = t
	return t, nil
}

func (d *Device) DeleteRenderTarget(t gpu.RenderTarget) {
	d.init()
	delete(d.Targets, t.FBO)
	d.Deleted = append(d.Deleted, t.FBO)
}

func (d *Device) BindRenderTarget(t gpu.RenderTarget) { d.Bound = append(d.Bound, t) }

func (d *Device) UnbindRenderTarget() {
	if n := len(d.Bound); n > 0 {
		d.Bound = d.Bound[:n-1]
	}
}

func (d *Device) Clear(c mgl32.Vec4)         { d.Clears = append(d.Clears, c) }
func (d *Device) SetBlending(enabled bool)   { d.Blending = enabled }
func (d *Device) SetLineWidth(width float32) { d.LineWidth = width }

func (d *Device) ReadPixel(t gpu.RenderTarget, x, y int) ([3]float32, error) {
	d.Reads++
	if x < 0 || y < 0 || x >= t.Width || y >= t.Height {
		return [3]float32{}, fmt.Errorf("gputest: pixel (%d,%d) outside %dx%d", x, y, t.Width, t.Height)
	}
	return d.Pixels[image.Point{X: x, Y: y}], nil
}

// LastDraw returns the most recent draw call.
func (d *Device) LastDraw() (Draw, bool) {
	if len(d.Draws) == 0 {
		return Draw{}, false
	}
	return d.Draws[len(d.Draws)-1], true
}

var _ gpu.Device = (*Device)(nil)
