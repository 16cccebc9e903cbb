package scene

import (
	"fmt"
	"path/filepath"

	"sprite-editor/internal/engine2D/assets"

	"github.com/go-gl/mathgl/mgl32"
)

// IDAllocator hands out dense, increasing entity identifiers. It is passed to
// the scene explicitly so two scenes (or two tests) never share a counter.
type IDAllocator struct {
	next int
}

func NewIDAllocator(start int) *IDAllocator {
	if start < 0 {
		start = 0
	}
	return &IDAllocator{next: start}
}

func (a *IDAllocator) Next() int {
	id := a.next
	a.next++
	return id
}

// Peek returns the identifier the next call to Next will return.
func (a *IDAllocator) Peek() int { return a.next }

// Transform places a sprite. Position is the quad center, Scale its size in world
// units and Rotation is in radians, counter-clockwise.
type Transform struct {
	Position mgl32.Vec2
	Scale    mgl32.Vec2
	Rotation float32
}

func (t Transform) Describe() []Field {
	return []Field{
		{Name: "Position", Value: fmt.Sprintf("%.1f, %.1f", t.Position.X(), t.Position.Y())},
		{Name: "Scale", Value: fmt.Sprintf("%.1f x %.1f", t.Scale.X(), t.Scale.Y())},
		{Name: "Rotation", Value: fmt.Sprintf("%.1f deg", mgl32.RadToDeg(t.Rotation))},
	}
}

// SpriteRenderer is the visual part of an entity. A nil Sprite.Texture draws a solid Color quad.
type SpriteRenderer struct {
	Color  mgl32.Vec4
	Sprite assets.Sprite
}

func (s SpriteRenderer) Describe() []Field {
	tex := "none"
	if s.Sprite.Texture != nil {
		tex = filepath.Base(s.Sprite.Texture.Path)
	}
	return []Field{
		{Name: "Color", Value: fmt.Sprintf("%.2f %.2f %.2f %.2f", s.Color[0], s.Color[1], s.Color[2], s.Color[3])},
		{Name: "Texture", Value: tex},
	}
}

// Entity is a sprite in the scene. Mutate it through the setters so the batch
// holding it re-packs its vertices on the next render.
type Entity struct {
	Name string

	id       int
	zIndex   int
	pickable bool
	added    bool

	transform Transform
	renderer  SpriteRenderer
	dirty     bool
}

// NewEntity returns a pickable entity. It gets its identifier when added to a scene.
func NewEntity(name string, t Transform, r SpriteRenderer, zIndex int) *Entity {
	return &Entity{
		Name:      name,
		id:        -1,
		zIndex:    zIndex,
		pickable:  true,
		transform: t,
		renderer:  r,
		dirty:     true,
	}
}

// ID is -1 until the entity is added to a scene.
func (e *Entity) ID() int        { return e.id }
func (e *Entity) ZIndex() int    { return e.zIndex }
func (e *Entity) Pickable() bool { return e.pickable }

// SetPickable excludes (or re-includes) the entity from picking. Gizmos use false.
func (e *Entity) SetPickable(p bool) {
	e.pickable = p
	e.dirty = true
}

func (e *Entity) Transform() Transform           { return e.transform }
func (e *Entity) SpriteRenderer() SpriteRenderer { return e.renderer }

func (e *Entity) SetTransform(t Transform) {
	e.transform = t
	e.dirty = true
}

func (e *Entity) SetPosition(p mgl32.Vec2) {
	e.transform.Position = p
	e.dirty = true
}

func (e *Entity) Move(delta mgl32.Vec2) {
	e.transform.Position = e.transform.Position.Add(delta)
	e.dirty = true
}

func (e *Entity) SetScale(s mgl32.Vec2) {
	e.transform.Scale = s
	e.dirty = true
}

func (e *Entity) SetRotation(radians float32) {
	e.transform.Rotation = radians
	e.dirty = true
}

func (e *Entity) SetColor(c mgl32.Vec4) {
	e.renderer.Color = c
	e.dirty = true
}

// SetSprite swaps the sprite region. A texture the entity's batch has not
// registered draws as a solid color quad.
func (e *Entity) SetSprite(s assets.Sprite) {
	e.renderer.Sprite = s
	e.dirty = true
}

// batch.Renderable

func (e *Entity) Position() mgl32.Vec2     { return e.transform.Position }
func (e *Entity) Size() mgl32.Vec2         { return e.transform.Scale }
func (e *Entity) Rotation() float32        { return e.transform.Rotation }
func (e *Entity) Color() mgl32.Vec4        { return e.renderer.Color }
func (e *Entity) Texture() *assets.Texture { return e.renderer.Sprite.Texture }

func (e *Entity) TexCoords() [4]mgl32.Vec2 {
	if e.renderer.Sprite.TexCoords == ([4]mgl32.Vec2{}) {
		return assets.DefaultTexCoords
	}
	return e.renderer.Sprite.TexCoords
}

func (e *Entity) PickID() int {
	if !e.pickable {
		return -1
	}
	return e.id
}

func (e *Entity) IsDirty() bool { return e.dirty }
func (e *Entity) SetClean()     { e.dirty = false }

func (e *Entity) Describe() []Field {
	fields := []Field{
		{Name: "Name", Value: e.Name},
		{Name: "ID", Value: fmt.Sprint(e.id)},
		{Name: "Z", Value: fmt.Sprint(e.zIndex)},
	}
	fields = append(fields, e.transform.Describe()...)
	return append(fields, e.renderer.Describe()...)
}
