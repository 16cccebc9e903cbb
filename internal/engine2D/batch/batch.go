package batch

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"sprite-editor/internal/engine2D/assets"
	"sprite-editor/internal/engine2D/gpu"
	"sprite-editor/internal/utils"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultCapacity = 1000

	// MaxTextures is the number of texture units a batch samples from. Unit 0 is
	// reserved for untextured sprites, so a batch holds MaxTextures-1 textures.
	MaxTextures = 8
)

// Vertex layout: position(2) color(4) uv(2) textureSlot(1) entityID(1).
const (
	posSize      = 2
	colorSize    = 4
	uvSize       = 2
	texSlotSize  = 1
	entityIDSize = 1

	posOffset      = 0
	colorOffset    = posOffset + posSize
	uvOffset       = colorOffset + colorSize
	texSlotOffset  = uvOffset + uvSize
	entityIDOffset = texSlotOffset + texSlotSize

	VertexSize = entityIDOffset + entityIDSize

	verticesPerQuad = 4
	indicesPerQuad  = 6
)

// Layout is shared by the vertex buffer and the layout(location = N) inputs of the sprite shaders.
var Layout = gpu.Layout{
	Stride: VertexSize,
	Attributes: []gpu.Attribute{
		{Location: 0, Size: posSize, Offset: posOffset},
		{Location: 1, Size: colorSize, Offset: colorOffset},
		{Location: 2, Size: uvSize, Offset: uvOffset},
		{Location: 3, Size: texSlotSize, Offset: texSlotOffset},
		{Location: 4, Size: entityIDSize, Offset: entityIDOffset},
	},
}

// TextureUnits is the value of the uTextures sampler array expected by the sprite shaders.
var TextureUnits = []int32{0, 1, 2, 3, 4, 5, 6, 7}

var (
	// ErrBatchFull is returned by AddSprite once the batch holds capacity sprites.
	ErrBatchFull = errors.New("batch: no room")
	// ErrNoTextureRoom is returned by AddSprite when the sprite would need a texture slot and none is left.
	ErrNoTextureRoom = errors.New("batch: no texture slot left")
)

// Renderable is what a scene entity exposes to be batched. Position is the quad center.
type Renderable interface {
	Position() mgl32.Vec2
	Size() mgl32.Vec2
	// Rotation in radians, counter-clockwise.
	Rotation() float32
	Color() mgl32.Vec4
	// Texture may be nil for a solid-color quad.
	Texture() *assets.Texture
	// TexCoords in bottom-left, top-left, top-right, bottom-right order.
	TexCoords() [4]mgl32.Vec2
	// PickID is the picking identifier. A negative ID excludes the sprite from picking.
	PickID() int
	IsDirty() bool
	SetClean()
}

// Batch packs up to capacity sprites into one vertex buffer drawn with one call.
// It never binds a shader; the caller selects the display or picking program.
type Batch struct {
	device   gpu.Device
	mesh     gpu.Mesh
	capacity int
	zIndex   int

	sprites  []Renderable
	textures []*assets.Texture
	vertices []float32
	rebuffer bool
	evicted  []Renderable
}

func New(device gpu.Device, capacity, zIndex int) (*Batch, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("batch: capacity must be positive, got %d", capacity)
	}

	mesh, err := device.NewMesh(gpu.MeshDesc{
		Layout:      Layout,
		MaxVertices: capacity * verticesPerQuad,
		Indices:     generateIndices(capacity),
		Primitive:   gpu.Triangles,
	})
	if err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}

	utils.Debug("Batch: Created (capacity %d, z %d)", capacity, zIndex)
	return &Batch{
		device:   device,
		mesh:     mesh,
		capacity: capacity,
		zIndex:   zIndex,
		sprites:  make([]Renderable, 0, capacity),
		textures: make([]*assets.Texture, 0, MaxTextures-1),
		vertices: make([]float32, capacity*verticesPerQuad*VertexSize),
	}, nil
}

// generateIndices builds two triangles (0,1,2) and (0,2,3) per quad.
func generateIndices(capacity int) []uint32 {
	indices := make([]uint32, capacity*indicesPerQuad)
	for i := 0; i < capacity; i++ {
		offset := uint32(i * verticesPerQuad)
		idx := i * indicesPerQuad
		indices[idx+0] = offset + 0
		indices[idx+1] = offset + 1
		indices[idx+2] = offset + 2
		indices[idx+3] = offset + 0
		indices[idx+4] = offset + 2
		indices[idx+5] = offset + 3
	}
	return indices
}

// AddSprite appends r to the batch and packs its vertices. It returns the sprite's
// slot index. On error the batch is left unchanged.
func (b *Batch) AddSprite(r Renderable) (int, error) {
	if !b.HasRoom() {
		return -1, ErrBatchFull
	}
	tex := r.Texture()
	if tex != nil && !b.HasTexture(tex) {
		if !b.HasTextureRoom() {
			return -1, ErrNoTextureRoom
		}
		b.textures = append(b.textures, tex)
	}

	index := len(b.sprites)
	b.sprites = append(b.sprites, r)
	b.pack(index)
	b.rebuffer = true
	return index, nil
}

func (b *Batch) HasRoom() bool { return len(b.sprites) < b.capacity }

func (b *Batch) HasTextureRoom() bool { return len(b.textures) < MaxTextures-1 }

func (b *Batch) HasTexture(tex *assets.Texture) bool { return b.textureSlot(tex) != 0 }

// textureSlot returns the slot ID of tex, 0 when it is not registered.
func (b *Batch) textureSlot(tex *assets.Texture) int {
	for i, t := range b.textures {
		if t == tex {
			return i + 1
		}
	}
	return 0
}

func (b *Batch) Len() int      { return len(b.sprites) }
func (b *Batch) Capacity() int { return b.capacity }
func (b *Batch) ZIndex() int   { return b.zIndex }

// Textures returns the slot table in slot order, slot 1 first.
func (b *Batch) Textures() []*assets.Texture {
	return append([]*assets.Texture(nil), b.textures...)
}

// Refresh re-packs dirty sprites. A texture first seen on a dirty sprite takes
// the next free slot. When no slot is left the sprite is removed from the batch
// and returned so the caller can place it in another one.
func (b *Batch) Refresh() []Renderable {
	var evicted []Renderable
	for i := 0; i < len(b.sprites); {
		r := b.sprites[i]
		if !r.IsDirty() {
			i++
			continue
		}
		if tex := r.Texture(); tex != nil && !b.HasTexture(tex) {
			if !b.HasTextureRoom() {
				b.remove(i)
				evicted = append(evicted, r)
				continue
			}
			b.textures = append(b.textures, tex)
		}
		b.pack(i)
		r.SetClean()
		b.rebuffer = true
		i++
	}
	return evicted
}

// Evicted drains the sprites Render had to drop because their texture did not fit.
func (b *Batch) Evicted() []Renderable {
	out := b.evicted
	b.evicted = nil
	return out
}

// remove drops sprite index and shifts the packed vertices of later sprites down.
func (b *Batch) remove(index int) {
	quad := verticesPerQuad * VertexSize
	last := len(b.sprites) - 1
	copy(b.vertices[index*quad:], b.vertices[(index+1)*quad:(last+1)*quad])
	clear(b.vertices[last*quad : (last+1)*quad])
	b.sprites = slices.Delete(b.sprites, index, index+1)
	b.rebuffer = true
}

// Render re-packs dirty sprites, re-uploads the vertex buffer when anything
// changed and draws every sprite with one call using the currently bound shader.
// Sprites that no longer fit are kept for Evicted.
func (b *Batch) Render() {
	b.evicted = append(b.evicted, b.Refresh()...)

	if b.rebuffer {
		b.device.UploadVertices(b.mesh, b.vertices)
		b.rebuffer = false
	}

	if len(b.sprites) == 0 {
		return
	}

	for i, t := range b.textures {
		b.device.BindTexture(i+1, t.ID)
	}
	b.device.DrawMesh(b.mesh, len(b.sprites)*indicesPerQuad)
	for i := range b.textures {
		b.device.BindTexture(i+1, 0)
	}
}

func (b *Batch) pack(index int) {
	r := b.sprites[index]

	pos := r.Position()
	half := r.Size().Mul(0.5)
	color := r.Color()
	coords := r.TexCoords()
	var pickID float32 // stored as id+1, 0 means not pickable
	if id := r.PickID(); id >= 0 {
		pickID = float32(id + 1)
	}

	var texSlot float32
	if tex := r.Texture(); tex != nil {
		texSlot = float32(b.textureSlot(tex))
	}

	corners := [verticesPerQuad]mgl32.Vec2{
		{-half.X(), -half.Y()},
		{-half.X(), half.Y()},
		{half.X(), half.Y()},
		{half.X(), -half.Y()},
	}

	rotation := r.Rotation()
	var sin, cos float32
	if rotation != 0 {
		s, c := math.Sincos(float64(rotation))
		sin, cos = float32(s), float32(c)
	}

	offset := index * verticesPerQuad * VertexSize
	for i, c := range corners {
		x, y := pos.X()+c.X(), pos.Y()+c.Y()
		if rotation != 0 {
			x = pos.X() + c.X()*cos - c.Y()*sin
			y = pos.Y() + c.X()*sin + c.Y()*cos
		}

		v := b.vertices[offset : offset+VertexSize]
		v[posOffset+0] = x
		v[posOffset+1] = y
		v[colorOffset+0] = color[0]
		v[colorOffset+1] = color[1]
		v[colorOffset+2] = color[2]
		v[colorOffset+3] = color[3]
		v[uvOffset+0] = coords[i].X()
		v[uvOffset+1] = coords[i].Y()
		v[texSlotOffset] = texSlot
		v[entityIDOffset] = pickID

		offset += VertexSize
	}
}

// Release frees the GPU buffers. The batch must not be used afterwards.
func (b *Batch) Release() {
	b.device.DeleteMesh(b.mesh)
	b.sprites = nil
	b.textures = nil
	b.evicted = nil
}
