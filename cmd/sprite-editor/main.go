package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"sprite-editor/internal/config"
	"sprite-editor/internal/convert"
	"sprite-editor/internal/engine2D/assets"
	"sprite-editor/internal/engine2D/batch"
	"sprite-editor/internal/engine2D/gpu"
	"sprite-editor/internal/utils"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	logLevel := flag.String("log", "", "Log level: debug, info, warn, error (overrides the config)")
	debugFlag := flag.Bool("debug", false, "Enable verbose debug logging")
	pkgPath := flag.String("pkg", "", "Path to a .pkg archive to extract into the asset roots")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		utils.Error("%v", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *pkgPath != "" {
		cfg.Assets.Package = *pkgPath
	}

	level, err := utils.ParseLevel(cfg.Log.Level)
	if err != nil {
		utils.Warn("Config: %v", err)
	}
	utils.CurrentLevel = level
	utils.ShowRaylibInfo = cfg.Log.RaylibInfo
	if *debugFlag {
		utils.DebugMode = true
		utils.CurrentLevel = utils.LevelDebug
	}

	utils.Info("--- Sprite Editor Start ---")

	utils.AssetRoots = []string{cfg.Assets.Root}
	if cfg.Assets.Package != "" {
		if _, err := os.Stat(cfg.Assets.ExtractDir); os.IsNotExist(err) {
			utils.Info("Unpacking %s...", cfg.Assets.Package)
			if _, err := convert.ExtractPkg(cfg.Assets.Package, cfg.Assets.ExtractDir); err != nil {
				utils.Error("Failed to extract pkg: %v", err)
				os.Exit(1)
			}
		}
		utils.AssetRoots = append(utils.AssetRoots, cfg.Assets.ExtractDir)
	}

	rl.SetTraceLogCallback(utils.RaylibLogCallback)
	if cfg.Window.Resizable {
		rl.SetConfigFlags(rl.FlagWindowResizable)
	}
	rl.InitWindow(int32(cfg.Window.Width), int32(cfg.Window.Height), cfg.Window.Title)
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Window.TargetFPS))

	device, err := gpu.NewGLDevice()
	if err != nil {
		utils.Error("%v", err)
		os.Exit(1)
	}

	registry := assets.NewRegistry(device,
		assets.WithFilter(gpu.ParseFilter(cfg.Render.TextureFilter)),
		assets.WithDefines(map[string]int{"MAX_TEXTURES": batch.MaxTextures}),
	)
	defer registry.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := preload(ctx, registry, cfg.Assets.Preload); err != nil {
		utils.Error("Preload failed: %v", err)
		os.Exit(1)
	}

	window, err := NewWindow(cfg, device, registry)
	if err != nil {
		utils.Error("%v", err)
		os.Exit(1)
	}
	defer window.Release()

	if err := loadDemoScene(window.scene, registry, cfg.Viewport); err != nil {
		utils.Error("Failed to build scene: %v", err)
		os.Exit(1)
	}

	utils.Info("Starting editor loop...")
	window.Run(ctx)
}
