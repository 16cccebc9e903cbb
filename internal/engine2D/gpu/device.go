// Package gpu is the seam between the renderers and the graphics backend.
// Every GPU call made by the batch, framebuffer, debug line and asset code goes
// through Device so the same code runs against OpenGL or a recording fake.
package gpu

import (
	"errors"
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrIncompleteTarget is returned when the backend reports a framebuffer as incomplete.
var ErrIncompleteTarget = errors.New("gpu: render target incomplete")

type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
)

// ParseFilter maps "nearest"/"linear"; anything else is nearest.
func ParseFilter(s string) Filter {
	if s == "linear" {
		return FilterLinear
	}
	return FilterNearest
}

type Format int

const (
	FormatRGBA8 Format = iota
	// FormatRGBA32F stores one float per channel, exact for integers below 1<<24.
	// RGB32F is not required to be color-renderable, so alpha is carried too.
	FormatRGBA32F
)

func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatRGBA32F:
		return "RGBA32F"
	}
	return "unknown"
}

type Primitive int

const (
	Triangles Primitive = iota
	Lines
)

// Attribute describes one float vertex attribute. Size and Offset count floats.
type Attribute struct {
	Location uint32
	Size     int
	Offset   int
}

// Layout is an interleaved float32 vertex layout. Stride counts floats.
type Layout struct {
	Stride     int
	Attributes []Attribute
}

const floatSize = 4

func (l Layout) StrideBytes() int { return l.Stride * floatSize }

type MeshDesc struct {
	Layout      Layout
	MaxVertices int
	// Indices are uploaded once into a static element buffer. Nil means non-indexed drawing.
	Indices   []uint32
	Primitive Primitive
}

// Mesh is a vertex array with a dynamic vertex buffer and an optional static index buffer.
type Mesh struct {
	VAO, VBO, IBO uint32
	Layout        Layout
	MaxVertices   int
	Indexed       bool
	Primitive     Primitive
}

// RenderTarget is an off-screen framebuffer with one color attachment and a depth attachment.
type RenderTarget struct {
	FBO    uint32
	Color  uint32
	Depth  uint32
	Width  int
	Height int
	Format Format
}

type Device interface {
	// CompileProgram compiles and links a program. The error carries the compiler or linker log.
	CompileProgram(vertex, fragment string) (uint32, error)
	DeleteProgram(id uint32)
	UseProgram(id uint32)

	UniformLocation(program uint32, name string) int32
	UniformMat4(loc int32, m mgl32.Mat4)
	UniformVec4(loc int32, v mgl32.Vec4)
	UniformVec3(loc int32, v mgl32.Vec3)
	UniformFloat(loc int32, v float32)
	UniformInt(loc int32, v int32)
	UniformInts(loc int32, v []int32)

	// UploadTexture uploads tightly packed RGBA pixels.
	UploadTexture(img *image.NRGBA, filter Filter) (uint32, error)
	DeleteTexture(id uint32)
	// BindTexture binds id to texture unit slot. An id of 0 unbinds the unit.
	BindTexture(slot int, id uint32)

	NewMesh(desc MeshDesc) (Mesh, error)
	// UploadVertices replaces the vertex buffer contents starting at offset 0.
	UploadVertices(m Mesh, data []float32)
	// DrawMesh draws count indices (indexed meshes) or count vertices.
	DrawMesh(m Mesh, count int)
	DeleteMesh(m Mesh)

	NewRenderTarget(width, height int, format Format) (RenderTarget, error)
	DeleteRenderTarget(t RenderTarget)
	BindRenderTarget(t RenderTarget)
	UnbindRenderTarget()

	Clear(c mgl32.Vec4)
	SetBlending(enabled bool)
	SetLineWidth(width float32)

	// ReadPixel reads a single RGB pixel from t. Coordinates have their origin at the bottom left.
	ReadPixel(t RenderTarget, x, y int) ([3]float32, error)
}
