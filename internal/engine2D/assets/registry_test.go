package assets

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sprite-editor/internal/engine2D/gpu/gputest"

	"github.com/go-gl/mathgl/mgl32"
)

func writePNG(t *testing.T, dir, name string, w, h int, c color.NRGBA) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeText(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGetOrCreateTextureIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "hero.png", 4, 2, color.NRGBA{R: 255, A: 255})

	dev := gputest.New()
	reg := NewRegistry(dev, WithResolver(func(p string) string { return filepath.Join(dir, p) }))

	first, err := reg.GetOrCreateTexture("hero.png")
	if err != nil {
		t.Fatalf("GetOrCreateTexture error = %v", err)
	}
	second, err := reg.GetOrCreateTexture("./hero.png")
	if err != nil {
		t.Fatalf("second GetOrCreateTexture error = %v", err)
	}

	if first != second {
		t.Errorf("got different handles %p and %p for the same path", first, second)
	}
	if len(dev.Uploads) != 1 {
		t.Errorf("uploads = %d, want exactly 1", len(dev.Uploads))
	}
	if first.Width != 4 || first.Height != 2 {
		t.Errorf("size = %dx%d, want 4x2", first.Width, first.Height)
	}
	if !filepath.IsAbs(first.Path) {
		t.Errorf("Path %q is not absolute", first.Path)
	}
}

func TestGetOrCreateTextureDecodeError(t *testing.T) {
	dir := t.TempDir()
	path := writeText(t, dir, "broken.png", "definitely not a png")

	dev := gputest.New()
	reg := NewRegistry(dev)

	_, err := reg.GetOrCreateTexture(path)
	var lerr *LoadError
	if !errors.As(err, &lerr) {
		t.Fatalf("error = %v, want *LoadError", err)
	}
	if lerr.Kind != KindTexture || lerr.Path != path || lerr.Log == "" {
		t.Errorf("LoadError = %+v", lerr)
	}
	if len(dev.Uploads) != 0 {
		t.Errorf("uploads = %d after a decode failure", len(dev.Uploads))
	}

	_, err = reg.GetOrCreateTexture(filepath.Join(dir, "missing.png"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want os.ErrNotExist in chain", err)
	}
}

const spriteShader = `// sprite shader
#type vertex
#include "common.glsl"
layout (location = 0) in vec2 aPos;
void main() { gl_Position = vec4(aPos, 0.0, 1.0); }

#type fragment
#include "common.glsl"
#include "common.glsl"
out vec4 color;
void main() { color = vec4(MAX_TEXTURES); }
`

func TestGetOrCreateShader(t *testing.T) {
	dir := t.TempDir()
	path := writeText(t, dir, "default.glsl", spriteShader)
	writeText(t, dir, "common.glsl", "float luminance(vec3 c) { return dot(c, vec3(0.299, 0.587, 0.114)); }")

	dev := gputest.New()
	reg := NewRegistry(dev, WithDefines(map[string]int{"MAX_TEXTURES": 8}))

	first, err := reg.GetOrCreateShader(path)
	if err != nil {
		t.Fatalf("GetOrCreateShader error = %v", err)
	}
	second, err := reg.GetOrCreateShader(path)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("shader handles differ for the same path")
	}
	if len(dev.Compiles) != 1 {
		t.Fatalf("compiles = %d, want 1", len(dev.Compiles))
	}

	c := dev.Compiles[0]
	if !strings.HasPrefix(c.Vertex, "#version 330 core\n") {
		t.Errorf("vertex stage does not start with the version line:\n%s", c.Vertex)
	}
	if !strings.Contains(c.Fragment, "#define MAX_TEXTURES 8") {
		t.Errorf("fragment stage is missing the injected define:\n%s", c.Fragment)
	}
	if strings.Count(c.Fragment, "float luminance") != 1 {
		t.Errorf("include should be expanded exactly once:\n%s", c.Fragment)
	}
	if strings.Contains(c.Vertex, "#include") || strings.Contains(c.Vertex, "out vec4 color") {
		t.Errorf("vertex stage leaked include or fragment code:\n%s", c.Vertex)
	}
}

func TestGetOrCreateShaderCompileError(t *testing.T) {
	dir := t.TempDir()
	path := writeText(t, dir, "bad.glsl", spriteShader)

	dev := gputest.New()
	dev.CompileErr = errors.New("fragment: compile: 0:4(12): error: syntax error")
	reg := NewRegistry(dev)

	_, err := reg.GetOrCreateShader(path)
	var lerr *LoadError
	if !errors.As(err, &lerr) {
		t.Fatalf("error = %v, want *LoadError", err)
	}
	if lerr.Kind != KindShader || !strings.Contains(lerr.Log, "syntax error") {
		t.Errorf("LoadError = %+v", lerr)
	}
	if !errors.Is(err, dev.CompileErr) {
		t.Error("LoadError does not unwrap to the compiler error")
	}

	// Failures are not cached; the next call compiles again.
	dev.CompileErr = nil
	if _, err := reg.GetOrCreateShader(path); err != nil {
		t.Fatalf("retry error = %v", err)
	}
	if len(dev.Compiles) != 2 {
		t.Errorf("compiles = %d, want 2", len(dev.Compiles))
	}
}

type panickingDevice struct {
	*gputest.Device
}

func (panickingDevice) CompileProgram(string, string) (uint32, error) {
	panic("cgo: driver crashed")
}

func TestGetOrCreateShaderRecoversPanic(t *testing.T) {
	dir := t.TempDir()
	path := writeText(t, dir, "crash.glsl", spriteShader)

	reg := NewRegistry(panickingDevice{gputest.New()})
	_, err := reg.GetOrCreateShader(path)
	var lerr *LoadError
	if !errors.As(err, &lerr) || !strings.Contains(lerr.Log, "driver crashed") {
		t.Fatalf("error = %v, want LoadError carrying the panic", err)
	}
}

func TestSplitShaderSourceErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"no fragment", "#type vertex\nvoid main(){}\n", "missing #type fragment"},
		{"no vertex", "#type fragment\nvoid main(){}\n", "missing #type vertex"},
		{"unknown stage", "#type geometry\n", "unknown shader stage"},
		{"duplicate", "#type vertex\n#type vertex\n", "duplicate vertex"},
		{"code before type", "void main(){}\n#type vertex\n", "before the first #type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := SplitShaderSource(tt.src)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestPreprocessShaderKeepsExplicitVersion(t *testing.T) {
	out := PreprocessShader("\n#version 410 core\nvoid main() {}\n", map[string]int{"B": 2, "A": 1}, t.TempDir(), "x")
	want := "#version 410 core\n#define A 1\n#define B 2\nvoid main() {}\n"
	if !strings.HasPrefix(out, want) {
		t.Errorf("PreprocessShader =\n%q\nwant prefix\n%q", out, want)
	}
}

func TestShaderLocationCache(t *testing.T) {
	dir := t.TempDir()
	path := writeText(t, dir, "default.glsl", spriteShader)
	writeText(t, dir, "common.glsl", "")

	dev := gputest.New()
	reg := NewRegistry(dev)
	s, err := reg.GetOrCreateShader(path)
	if err != nil {
		t.Fatal(err)
	}

	s.Use()
	s.UploadMat4("uProjection", mgl32.Ident4())
	s.UploadMat4("uProjection", mgl32.Scale3D(2, 2, 1))
	s.UploadIntArray("uTextures", []int32{0, 1, 2})

	if dev.Program != s.ID {
		t.Errorf("bound program = %d, want %d", dev.Program, s.ID)
	}
	if len(dev.Locations) != 2 {
		t.Errorf("uniform lookups = %d, want 2 (one per name)", len(dev.Locations))
	}
	if got := dev.Uniforms["uProjection"].(mgl32.Mat4); got != mgl32.Scale3D(2, 2, 1) {
		t.Errorf("uProjection = %v", got)
	}
	s.Detach()
	if dev.Program != 0 {
		t.Errorf("program after Detach = %d", dev.Program)
	}
}

func TestPlaceholder(t *testing.T) {
	dev := gputest.New()
	reg := NewRegistry(dev)

	a, err := reg.Placeholder()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := reg.Placeholder()
	if a != b || len(dev.Uploads) != 1 {
		t.Fatalf("placeholder not cached: %p %p, uploads %d", a, b, len(dev.Uploads))
	}
	if got := dev.Uploads[0].NRGBAAt(0, 0); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("placeholder pixel = %v", got)
	}
}

func TestPreload(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 6; i++ {
		paths = append(paths, writePNG(t, dir, fmt.Sprintf("tile%d.png", i), 2, 2, color.NRGBA{G: uint8(i * 40), A: 255}))
	}
	paths = append(paths, paths[0]) // duplicates are loaded once

	dev := gputest.New()
	reg := NewRegistry(dev, WithWorkers(2))

	var calls []int
	err := reg.Preload(context.Background(), paths, func(done, total int) {
		if total != 6 {
			t.Errorf("total = %d, want 6", total)
		}
		calls = append(calls, done)
	})
	if err != nil {
		t.Fatalf("Preload error = %v", err)
	}
	if len(calls) != 6 || calls[5] != 6 {
		t.Errorf("progress calls = %v", calls)
	}
	if len(dev.Uploads) != 6 {
		t.Errorf("uploads = %d, want 6", len(dev.Uploads))
	}

	tex, err := reg.GetOrCreateTexture(paths[3])
	if err != nil || tex == nil {
		t.Fatalf("GetOrCreateTexture after preload: %v", err)
	}
	if len(dev.Uploads) != 6 {
		t.Error("preloaded texture was uploaded again")
	}

	if err := reg.Preload(context.Background(), paths, nil); err != nil {
		t.Errorf("second Preload error = %v", err)
	}
	if len(dev.Uploads) != 6 {
		t.Error("second Preload uploaded again")
	}
}

func TestPreloadReportsLoadError(t *testing.T) {
	dir := t.TempDir()
	good := writePNG(t, dir, "good.png", 1, 1, color.NRGBA{A: 255})
	bad := writeText(t, dir, "bad.png", "garbage")

	reg := NewRegistry(gputest.New(), WithWorkers(1))
	err := reg.Preload(context.Background(), []string{good, bad}, nil)

	var lerr *LoadError
	if !errors.As(err, &lerr) || lerr.Path != bad {
		t.Fatalf("Preload error = %v, want LoadError for %s", err, bad)
	}
}

func TestPreloadCanceled(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "a.png", 1, 1, color.NRGBA{A: 255})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reg := NewRegistry(gputest.New())
	if err := reg.Preload(ctx, []string{path}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("Preload error = %v, want context.Canceled", err)
	}
}

func TestClose(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "a.png", 1, 1, color.NRGBA{A: 255})

	dev := gputest.New()
	reg := NewRegistry(dev)
	tex, _ := reg.GetOrCreateTexture(path)
	reg.Close()

	if s, n := reg.Counts(); s != 0 || n != 0 {
		t.Errorf("Counts after Close = %d, %d", s, n)
	}
	if len(dev.Deleted) != 1 || dev.Deleted[0] != tex.ID {
		t.Errorf("deleted = %v, want [%d]", dev.Deleted, tex.ID)
	}
}
