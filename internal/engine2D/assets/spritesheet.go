package assets

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Sprite is a rectangular region of a texture.
type Sprite struct {
	Texture   *Texture
	TexCoords [4]mgl32.Vec2
	Width     int
	Height    int
}

// Spritesheet slices a texture into equally sized sprites, left to right and top to bottom.
type Spritesheet struct {
	Texture *Texture
	Sprites []Sprite
}

func NewSpritesheet(tex *Texture, spriteWidth, spriteHeight, count, spacing int) (*Spritesheet, error) {
	if tex == nil {
		return nil, fmt.Errorf("spritesheet: nil texture")
	}
	if spriteWidth <= 0 || spriteHeight <= 0 || spriteWidth > tex.Width || spriteHeight > tex.Height {
		return nil, fmt.Errorf("spritesheet: sprite size %dx%d does not fit %dx%d texture", spriteWidth, spriteHeight, tex.Width, tex.Height)
	}

	if count <= 0 || spacing < 0 {
		return nil, fmt.Errorf("spritesheet: invalid count %d or spacing %d", count, spacing)
	}

	sheet := &Spritesheet{Texture: tex, Sprites: make([]Sprite, 0, count)}
	w, h := float32(tex.Width), float32(tex.Height)

	x, y := 0, 0
	for len(sheet.Sprites) < count {
		if y+spriteHeight > tex.Height {
			return nil, fmt.Errorf("spritesheet: %s holds %d sprites, %d requested", tex.Path, len(sheet.Sprites), count)
		}

		left := float32(x) / w
		right := float32(x+spriteWidth) / w
		top := float32(y) / h
		bottom := float32(y+spriteHeight) / h

		sheet.Sprites = append(sheet.Sprites, Sprite{
			Texture: tex,
			TexCoords: [4]mgl32.Vec2{
				{left, bottom},
				{left, top},
				{right, top},
				{right, bottom},
			},
			Width:  spriteWidth,
			Height: spriteHeight,
		})

		x += spriteWidth + spacing
		if x+spriteWidth > tex.Width {
			x = 0
			y += spriteHeight + spacing
		}
	}
	return sheet, nil
}

func (s *Spritesheet) Len() int { return len(s.Sprites) }

// Sprite returns the sprite at index i, false when out of range.
func (s *Spritesheet) Sprite(i int) (Sprite, bool) {
	if i < 0 || i >= len(s.Sprites) {
		return Sprite{}, false
	}
	return s.Sprites[i], true
}
