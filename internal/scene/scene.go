// Package scene holds the entities of the edited level and routes them into sprite batches.
package scene

import (
	"errors"
	"fmt"
	"slices"

	"sprite-editor/internal/engine2D/assets"
	"sprite-editor/internal/engine2D/batch"
	"sprite-editor/internal/engine2D/camera"
	"sprite-editor/internal/engine2D/gpu"
	"sprite-editor/internal/utils"
)

var ErrAlreadyAdded = errors.New("scene: entity already added")

// Scene owns the entity table and the batches drawing it. Batches are kept in
// ascending z-index order and every batch holds a single z-index.
type Scene struct {
	device   gpu.Device
	alloc    *IDAllocator
	capacity int

	entities []*Entity
	byID     map[int]*Entity
	batches  []*batch.Batch
}

// New creates an empty scene. capacity is the sprite capacity of every batch
// (batch.DefaultCapacity when <= 0).
func New(device gpu.Device, alloc *IDAllocator, capacity int) *Scene {
	if capacity <= 0 {
		capacity = batch.DefaultCapacity
	}
	if alloc == nil {
		alloc = NewIDAllocator(0)
	}
	return &Scene{
		device:   device,
		alloc:    alloc,
		capacity: capacity,
		byID:     make(map[int]*Entity),
	}
}

// Add assigns e an identifier and places it in the first batch of its z-index
// with room for it, opening a new batch when none has.
func (s *Scene) Add(e *Entity) error {
	if e.added {
		return fmt.Errorf("%w: %s (%d)", ErrAlreadyAdded, e.Name, e.id)
	}

	e.id = s.alloc.Next()
	if err := s.place(e); err != nil {
		e.id = -1
		return err
	}

	e.added = true
	s.entities = append(s.entities, e)
	s.byID[e.id] = e
	return nil
}

func (s *Scene) place(e *Entity) error {
	tex := e.Texture()
	for _, b := range s.batches {
		if b.ZIndex() != e.zIndex || !b.HasRoom() {
			continue
		}
		if tex != nil && !b.HasTexture(tex) && !b.HasTextureRoom() {
			continue
		}
		if _, err := b.AddSprite(e); err == nil {
			return nil
		}
	}

	b, err := batch.New(s.device, s.capacity, e.zIndex)
	if err != nil {
		return fmt.Errorf("scene: %w", err)
	}
	if _, err := b.AddSprite(e); err != nil {
		b.Release()
		return fmt.Errorf("scene: %w", err)
	}

	// Insert after every batch with a z-index <= the new one so draw order stays stable.
	at, _ := slices.BinarySearchFunc(s.batches, e.zIndex+1, func(b *batch.Batch, z int) int {
		return b.ZIndex() - z
	})
	s.batches = slices.Insert(s.batches, at, b)
	utils.Debug("Scene: Opened batch %d (z %d)", len(s.batches), e.zIndex)
	return nil
}

// Render draws every batch with shader bound. The same geometry is rendered
// with the display shader and the picking shader.
func (s *Scene) Render(shader *assets.Shader, cam *camera.Camera) {
	s.reroute()

	shader.Use()
	shader.UploadMat4("uProjection", cam.Projection())
	shader.UploadMat4("uView", cam.View())
	shader.UploadIntArray("uTextures", batch.TextureUnits)

	for _, b := range s.batches {
		b.Render()
	}

	shader.Detach()
}

// reroute moves entities whose new texture no longer fits their batch.
func (s *Scene) reroute() {
	var moved []batch.Renderable
	for _, b := range s.batches {
		moved = append(moved, b.Refresh()...)
		moved = append(moved, b.Evicted()...)
	}
	for _, r := range moved {
		e := r.(*Entity)
		if err := s.place(e); err != nil {
			utils.Error("Scene: Could not move %s: %v", e.Name, err)
			continue
		}
		utils.Debug("Scene: Moved %s to another batch", e.Name)
	}
}

// EntityByPickID looks up the entity a picking read returned.
func (s *Scene) EntityByPickID(id int) (*Entity, bool) {
	if id < 0 {
		return nil, false
	}
	e, ok := s.byID[id]
	return e, ok
}

func (s *Scene) Entities() []*Entity { return s.entities }

func (s *Scene) Batches() []*batch.Batch { return s.batches }

func (s *Scene) Len() int { return len(s.entities) }

// Release frees every batch. Entities stay valid but are no longer drawn.
func (s *Scene) Release() {
	for _, b := range s.batches {
		b.Release()
	}
	s.batches = nil
	for _, e := range s.entities {
		e.added = false
	}
	s.entities = nil
	clear(s.byID)
}
