package main

import (
	"context"

	"sprite-editor/internal/config"
	"sprite-editor/internal/editor"
	"sprite-editor/internal/engine2D/assets"
	"sprite-editor/internal/engine2D/camera"
	"sprite-editor/internal/engine2D/debugdraw"
	"sprite-editor/internal/engine2D/framebuffer"
	"sprite-editor/internal/engine2D/gpu"
	"sprite-editor/internal/scene"
	"sprite-editor/internal/utils"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	nudgeStep = 4
	zoomStep  = 0.1
	minZoom   = 0.1
	maxZoom   = 10
)

type Window struct {
	cfg      *config.Config
	device   *gpu.GLDevice
	registry *assets.Registry

	scene   *scene.Scene
	camera  *camera.Camera
	lines   *debugdraw.Renderer
	display *framebuffer.Framebuffer
	picking *framebuffer.Picking

	spriteShader  *assets.Shader
	pickingShader *assets.Shader

	viewport *editor.Viewport
	picker   *editor.Picker
	cursor   editor.Cursor
	overlay  *editor.Overlay

	selected   int
	pending    bool
	pendingX   int
	pendingY   int
	showGrid   bool
	showStats  bool
	clearColor mgl32.Vec4
}

// NewWindow builds the render targets, shaders and editor state. It must run
// after the GL context exists.
func NewWindow(cfg *config.Config, device *gpu.GLDevice, registry *assets.Registry) (*Window, error) {
	width, height := cfg.Viewport.Width, cfg.Viewport.Height

	spriteShader, err := registry.GetOrCreateShader(cfg.Assets.Shaders.Default)
	if err != nil {
		return nil, err
	}
	pickingShader, err := registry.GetOrCreateShader(cfg.Assets.Shaders.Picking)
	if err != nil {
		return nil, err
	}

	display, err := framebuffer.New(device, width, height)
	if err != nil {
		return nil, err
	}
	picking, err := framebuffer.NewPicking(device, width, height)
	if err != nil {
		display.Release()
		return nil, err
	}

	lines, err := debugdraw.New(device, registry, cfg.Assets.Shaders.Line, cfg.Render.MaxDebugLines)
	if err != nil {
		display.Release()
		picking.Release()
		return nil, err
	}
	lines.LineWidth = cfg.Render.LineWidth

	return &Window{
		cfg:           cfg,
		device:        device,
		registry:      registry,
		scene:         scene.New(device, scene.NewIDAllocator(0), cfg.Render.BatchCapacity),
		camera:        camera.New(mgl32.Vec2{}, mgl32.Vec2{float32(width), float32(height)}),
		lines:         lines,
		display:       display,
		picking:       picking,
		spriteShader:  spriteShader,
		pickingShader: pickingShader,
		viewport:      editor.NewViewport(width, height, cfg.Viewport.Scaling),
		picker:        editor.NewPicker(picking, cfg.Render.PickingCooldown.Duration),
		cursor:        editor.NewCursor(cfg.Editor.Cursor),
		overlay:       editor.NewOverlay(),
		selected:      framebuffer.NoObject,
		showGrid:      cfg.Editor.Grid,
		showStats:     cfg.Editor.ShowStats,
		clearColor:    mgl32.Vec4(cfg.Render.ClearColor),
	}, nil
}

func (w *Window) Run(ctx context.Context) {
	for !rl.WindowShouldClose() && ctx.Err() == nil {
		w.Update()

		rl.BeginDrawing()
		w.Draw()
		rl.EndDrawing()

		w.lines.Tick()
	}
}

func (w *Window) Update() {
	w.viewport.Update(rl.GetScreenWidth(), rl.GetScreenHeight())

	if rl.IsKeyPressed(rl.KeyF1) {
		w.showStats = !w.showStats
	}
	if rl.IsKeyPressed(rl.KeyG) {
		w.showGrid = !w.showGrid
	}
	if rl.IsKeyPressed(rl.KeyF8) {
		utils.DebugMode = !utils.DebugMode
	}

	if mx, my, ok := w.cursor.Position(); ok && rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		if px, py, inside := w.viewport.ToPixel(mx, my); inside {
			w.pending, w.pendingX, w.pendingY = true, px, py
		}
	}

	if rl.IsMouseButtonDown(rl.MouseButtonRight) && w.viewport.Scale > 0 {
		d := rl.GetMouseDelta()
		scale := float32(w.viewport.Scale)
		w.camera.Pan(mgl32.Vec2{d.X / scale, -d.Y / scale}, w.viewport.Size())
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		w.camera.Zoom = mgl32.Clamp(w.camera.Zoom*(1+wheel*zoomStep), minZoom, maxZoom)
	}

	if e, ok := w.scene.EntityByPickID(w.selected); ok {
		w.nudge(e)
	}

	if w.showGrid {
		editor.DrawGrid(w.lines, w.camera, w.cfg.Editor.GridSize, editor.GridColor)
	}
	if utils.DebugMode {
		editor.OutlineScene(w.lines, w.scene, w.selected)
	} else if e, ok := w.scene.EntityByPickID(w.selected); ok {
		editor.OutlineEntity(w.lines, e, editor.SelectionColor)
	}
}

// nudge moves or turns the selected entity from the keyboard.
func (w *Window) nudge(e *scene.Entity) {
	var delta mgl32.Vec2
	if rl.IsKeyDown(rl.KeyLeft) {
		delta[0] -= nudgeStep
	}
	if rl.IsKeyDown(rl.KeyRight) {
		delta[0] += nudgeStep
	}
	if rl.IsKeyDown(rl.KeyUp) {
		delta[1] += nudgeStep
	}
	if rl.IsKeyDown(rl.KeyDown) {
		delta[1] -= nudgeStep
	}
	if delta != (mgl32.Vec2{}) {
		e.Move(delta)
	}
	if rl.IsKeyDown(rl.KeyQ) {
		e.SetRotation(e.Rotation() + mgl32.DegToRad(2))
	}
	if rl.IsKeyDown(rl.KeyE) {
		e.SetRotation(e.Rotation() - mgl32.DegToRad(2))
	}
}

func (w *Window) Draw() {
	w.device.ResetStats()

	// Picking pass: identifiers must not blend.
	w.device.SetBlending(false)
	err := w.picking.Do(func() error {
		w.picking.Clear()
		w.scene.Render(w.pickingShader, w.camera)
		if w.pending {
			w.pending = false
			if id, ok := w.picker.Pick(w.pendingX, w.pendingY); ok {
				w.selected = id
				w.logSelection()
			}
		}
		return nil
	})
	w.device.SetBlending(true)
	if err != nil {
		utils.Error("Window: picking pass: %v", err)
	}

	err = w.display.Do(func() error {
		w.device.Clear(w.clearColor)
		w.scene.Render(w.spriteShader, w.camera)
		w.lines.Render(w.camera)
		return nil
	})
	if err != nil {
		utils.Error("Window: display pass: %v", err)
	}

	rl.ClearBackground(rl.Black)
	w.drawDisplay()

	if w.showStats {
		w.overlay.Draw(w.frameStats())
	}
}

// drawDisplay blits the display framebuffer into the viewport rectangle.
// Render targets are stored bottom-up, hence the negative source height.
func (w *Window) drawDisplay() {
	sw, sh := w.display.Size()
	tex := rl.Texture2D{
		ID:      w.display.ColorAttachment(),
		Width:   int32(sw),
		Height:  int32(sh),
		Mipmaps: 1,
		Format:  rl.UncompressedR8g8b8a8,
	}
	x, y, dw, dh := w.viewport.Dest()
	rl.DrawTexturePro(tex,
		rl.NewRectangle(0, 0, float32(sw), -float32(sh)),
		rl.NewRectangle(x, y, dw, dh),
		rl.NewVector2(0, 0), 0, rl.White)
}

func (w *Window) logSelection() {
	if e, ok := w.scene.EntityByPickID(w.selected); ok {
		utils.Info("Window: Selected %s (%d)", e.Name, e.ID())
		return
	}
	utils.Debug("Window: Selection cleared")
}

func (w *Window) frameStats() editor.FrameStats {
	shaders, textures := w.registry.Counts()
	stats := editor.FrameStats{
		FPS:       rl.GetFPS(),
		FrameTime: rl.GetFrameTime(),
		GPU:       w.device.Stats,
		GPUName:   w.device.Renderer,
		Sprites:   w.scene.Len(),
		Batches:   len(w.scene.Batches()),
		Lines:     w.lines.Len(),
		MaxLines:  w.lines.MaxLines(),
		Shaders:   shaders,
		Textures:  textures,
	}
	if e, ok := w.scene.EntityByPickID(w.selected); ok {
		stats.Selected = e.Describe()
	}
	return stats
}

func (w *Window) Release() {
	w.cursor.Close()
	w.lines.Release()
	w.scene.Release()
	w.display.Release()
	w.picking.Release()
}
