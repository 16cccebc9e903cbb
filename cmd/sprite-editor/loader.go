package main

import (
	"context"
	"errors"
	"fmt"
	"math"

	"sprite-editor/internal/config"
	"sprite-editor/internal/engine2D/assets"
	"sprite-editor/internal/scene"
	"sprite-editor/internal/utils"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/schollz/progressbar/v3"
)

// preload decodes the configured textures up front with a progress bar on stderr.
func preload(ctx context.Context, registry *assets.Registry, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	utils.Info("Preloading %d textures...", len(paths))

	bar := progressbar.Default(int64(len(paths)), "textures")
	defer bar.Close()

	return registry.Preload(ctx, paths, func(done, total int) {
		bar.Set(done)
	})
}

// loadTexture returns the texture for name, or the placeholder when it cannot be loaded.
func loadTexture(registry *assets.Registry, name string) *assets.Texture {
	path := utils.FindTextureFile(name)
	if path == "" {
		utils.Warn("Loader: Texture %s not found, using placeholder", name)
		return placeholder(registry)
	}
	tex, err := registry.GetOrCreateTexture(path)
	if err != nil {
		var lerr *assets.LoadError
		if errors.As(err, &lerr) {
			utils.Warn("Loader: %s failed to load, using placeholder", lerr.Path)
		}
		return placeholder(registry)
	}
	return tex
}

func placeholder(registry *assets.Registry) *assets.Texture {
	tex, err := registry.Placeholder()
	if err != nil {
		utils.Error("Loader: %v", err)
		return nil
	}
	return tex
}

// loadDemoScene fills s with a field of colored quads, a row of textured
// sprites and, when a sheet is available, one sprite per sheet cell.
func loadDemoScene(s *scene.Scene, registry *assets.Registry, vp config.Viewport) error {
	const cell = 48
	cols := vp.Width / cell
	rows := vp.Height / cell / 2

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			hue := float64(x+y) / float64(cols+rows)
			e := scene.NewEntity(fmt.Sprintf("quad_%d_%d", x, y),
				scene.Transform{
					Position: mgl32.Vec2{float32(x*cell + cell/2), float32(y*cell + cell/2)},
					Scale:    mgl32.Vec2{cell - 6, cell - 6},
				},
				scene.SpriteRenderer{Color: hueColor(hue)},
				0)
			if err := s.Add(e); err != nil {
				return err
			}
		}
	}

	for i, name := range []string{"logo", "hero", "crate"} {
		tex := loadTexture(registry, name)
		if tex == nil {
			continue
		}
		e := scene.NewEntity(name,
			scene.Transform{
				Position: mgl32.Vec2{float32(200 + i*260), float32(vp.Height) * 0.7},
				Scale:    mgl32.Vec2{192, 192},
				Rotation: float32(i) * mgl32.DegToRad(15),
			},
			scene.SpriteRenderer{Color: mgl32.Vec4{1, 1, 1, 1}, Sprite: assets.Sprite{Texture: tex}},
			1)
		if err := s.Add(e); err != nil {
			return err
		}
	}

	return loadSheet(s, registry, vp)
}

func loadSheet(s *scene.Scene, registry *assets.Registry, vp config.Viewport) error {
	path := utils.FindTextureFile("spritesheet")
	if path == "" {
		return nil
	}
	tex, err := registry.GetOrCreateTexture(path)
	if err != nil {
		var lerr *assets.LoadError
		if errors.As(err, &lerr) {
			utils.Warn("Loader: Spritesheet %s failed to load, skipping it", lerr.Path)
			return nil
		}
		return err
	}

	sheet, ok := registry.Spritesheet(path)
	if !ok {
		sheet, err = assets.NewSpritesheet(tex, 16, 16, (tex.Width/16)*(tex.Height/16), 0)
		if err != nil {
			utils.Warn("Loader: %v", err)
			return nil
		}
		registry.AddSpritesheet(path, sheet)
	}

	for i, sprite := range sheet.Sprites {
		e := scene.NewEntity(fmt.Sprintf("sheet_%d", i),
			scene.Transform{
				Position: mgl32.Vec2{float32(40 + (i%24)*72), float32(vp.Height) - float32(40+(i/24)*72)},
				Scale:    mgl32.Vec2{64, 64},
			},
			scene.SpriteRenderer{Color: mgl32.Vec4{1, 1, 1, 1}, Sprite: sprite},
			2)
		if err := s.Add(e); err != nil {
			return err
		}
	}
	return nil
}

func hueColor(h float64) mgl32.Vec4 {
	r := math.Abs(h*6-3) - 1
	g := 2 - math.Abs(h*6-2)
	b := 2 - math.Abs(h*6-4)
	clamp := func(v float64) float32 { return float32(math.Max(0, math.Min(1, v))) }
	return mgl32.Vec4{clamp(r), clamp(g), clamp(b), 1}
}
