// Package debugdraw draws short-lived and persistent line gizmos on top of the scene.
package debugdraw

import (
	"fmt"

	"sprite-editor/internal/engine2D/assets"
	"sprite-editor/internal/engine2D/camera"
	"sprite-editor/internal/engine2D/gpu"
	"sprite-editor/internal/utils"

	"github.com/go-gl/mathgl/mgl32"
)

const DefaultMaxLines = 10000

// Vertex layout: position(2) color(3).
const (
	posSize    = 2
	colorSize  = 3
	vertexSize = posSize + colorSize
)

var Layout = gpu.Layout{
	Stride: vertexSize,
	Attributes: []gpu.Attribute{
		{Location: 0, Size: posSize, Offset: 0},
		{Location: 1, Size: colorSize, Offset: posSize},
	},
}

// Line is one debug segment. Life counts the ticks left; persistent lines ignore it.
type Line struct {
	Start, End mgl32.Vec2
	Color      mgl32.Vec3
	Life       int
	Persistent bool
}

// Renderer keeps the live line list and redraws all of it every frame.
type Renderer struct {
	device   gpu.Device
	shader   *assets.Shader
	mesh     gpu.Mesh
	maxLines int

	lines    []Line
	vertices []float32
	dropped  bool

	// LineWidth is applied before every draw. Drivers may clamp anything above 1.
	LineWidth float32
}

// New creates a renderer holding at most maxLines lines (DefaultMaxLines when maxLines <= 0).
// The line shader is fetched through the registry.
func New(device gpu.Device, registry *assets.Registry, shaderPath string, maxLines int) (*Renderer, error) {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}

	shader, err := registry.GetOrCreateShader(shaderPath)
	if err != nil {
		return nil, fmt.Errorf("debugdraw: %w", err)
	}

	mesh, err := device.NewMesh(gpu.MeshDesc{
		Layout:      Layout,
		MaxVertices: maxLines * 2,
		Primitive:   gpu.Lines,
	})
	if err != nil {
		return nil, fmt.Errorf("debugdraw: %w", err)
	}

	utils.Debug("DebugDraw: Created (max %d lines)", maxLines)
	return &Renderer{
		device:    device,
		shader:    shader,
		mesh:      mesh,
		maxLines:  maxLines,
		lines:     make([]Line, 0, 64),
		LineWidth: 1,
	}, nil
}

// AddLine queues a line that lives for lifetime ticks. When the renderer is full the
// line is dropped and AddLine reports false.
func (r *Renderer) AddLine(start, end mgl32.Vec2, color mgl32.Vec3, lifetime int) bool {
	return r.add(Line{Start: start, End: end, Color: color, Life: lifetime})
}

// AddPersistentLine queues a line that stays until ClearPersistentLines.
func (r *Renderer) AddPersistentLine(start, end mgl32.Vec2, color mgl32.Vec3) bool {
	return r.add(Line{Start: start, End: end, Color: color, Persistent: true})
}

func (r *Renderer) add(l Line) bool {
	if len(r.lines) >= r.maxLines {
		if !r.dropped {
			utils.Debug("DebugDraw: Line limit %d reached, dropping lines this frame", r.maxLines)
			r.dropped = true
		}
		return false
	}
	r.lines = append(r.lines, l)
	return true
}

// Tick ages every timed line by one and removes those whose life dropped below zero.
func (r *Renderer) Tick() {
	n := 0
	for _, l := range r.lines {
		if !l.Persistent {
			l.Life--
			if l.Life < 0 {
				continue
			}
		}
		r.lines[n] = l
		n++
	}
	clear(r.lines[n:])
	r.lines = r.lines[:n]
	r.dropped = false
}

// Render rebuilds the vertex buffer from the live lines and draws them in one call.
func (r *Renderer) Render(cam *camera.Camera) {
	if len(r.lines) == 0 {
		return
	}

	r.vertices = r.vertices[:0]
	for _, l := range r.lines {
		r.vertices = append(r.vertices,
			l.Start.X(), l.Start.Y(), l.Color.X(), l.Color.Y(), l.Color.Z(),
			l.End.X(), l.End.Y(), l.Color.X(), l.Color.Y(), l.Color.Z(),
		)
	}
	r.device.UploadVertices(r.mesh, r.vertices)

	r.shader.Use()
	r.shader.UploadMat4("uProjection", cam.Projection())
	r.shader.UploadMat4("uView", cam.View())
	r.device.SetLineWidth(r.LineWidth)
	r.device.DrawMesh(r.mesh, len(r.lines)*2)
	r.shader.Detach()
}

// ClearPersistentLines empties the live list, timed lines included.
func (r *Renderer) ClearPersistentLines() {
	clear(r.lines)
	r.lines = r.lines[:0]
}

func (r *Renderer) Len() int { return len(r.lines) }

func (r *Renderer) MaxLines() int { return r.maxLines }

// Lines returns a copy of the live lines.
func (r *Renderer) Lines() []Line {
	return append([]Line(nil), r.lines...)
}

func (r *Renderer) Release() {
	r.device.DeleteMesh(r.mesh)
	r.lines = nil
}
