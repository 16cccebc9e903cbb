package assets

import (
	"image"
	"image/color"
	"path/filepath"
	"runtime"

	"sprite-editor/internal/engine2D/gpu"
	"sprite-editor/internal/utils"
)

// Registry owns the process-lifetime shader and texture caches. Entries are keyed
// by absolute path and never evicted. It must only be used from the render thread.
type Registry struct {
	device  gpu.Device
	filter  gpu.Filter
	defines map[string]int
	resolve func(string) string
	workers int

	shaders     map[string]*Shader
	textures    map[string]*Texture
	sheets      map[string]*Spritesheet
	placeholder *Texture
}

type Option func(*Registry)

func WithFilter(f gpu.Filter) Option { return func(r *Registry) { r.filter = f } }

// WithDefines injects #define NAME value lines into every shader stage.
func WithDefines(defines map[string]int) Option {
	return func(r *Registry) {
		for k, v := range defines {
			r.defines[k] = v
		}
	}
}

// WithResolver replaces utils.ResolveAssetPath for turning relative asset paths into files.
func WithResolver(resolve func(string) string) Option {
	return func(r *Registry) { r.resolve = resolve }
}

// WithWorkers bounds the number of concurrent decoders used by Preload.
func WithWorkers(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.workers = n
		}
	}
}

func NewRegistry(device gpu.Device, opts ...Option) *Registry {
	r := &Registry{
		device:   device,
		defines:  map[string]int{},
		resolve:  utils.ResolveAssetPath,
		workers:  runtime.NumCPU(),
		shaders:  map[string]*Shader{},
		textures: map[string]*Texture{},
		sheets:   map[string]*Spritesheet{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) key(path string) string {
	p := r.resolve(path)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// GetOrCreateShader returns the cached program for path, compiling it on first use.
func (r *Registry) GetOrCreateShader(path string) (*Shader, error) {
	key := r.key(path)
	if s, ok := r.shaders[key]; ok {
		return s, nil
	}

	s, err := r.loadShader(key)
	if err != nil {
		utils.Error("Registry: %v", err)
		return nil, err
	}
	r.shaders[key] = s
	utils.Info("Registry: Shader %s loaded (ID: %d)", filepath.Base(key), s.ID)
	return s, nil
}

// GetOrCreateTexture returns the cached texture for path, decoding and uploading it on first use.
func (r *Registry) GetOrCreateTexture(path string) (*Texture, error) {
	key := r.key(path)
	if t, ok := r.textures[key]; ok {
		return t, nil
	}

	img, err := DecodeImage(key)
	if err != nil {
		lerr := textureError(key, err)
		utils.Error("Registry: %v", lerr)
		return nil, lerr
	}
	return r.upload(key, img)
}

func (r *Registry) upload(key string, img *image.NRGBA) (*Texture, error) {
	id, err := r.device.UploadTexture(img, r.filter)
	if err != nil {
		lerr := textureError(key, err)
		utils.Error("Registry: %v", lerr)
		return nil, lerr
	}
	t := &Texture{ID: id, Width: img.Rect.Dx(), Height: img.Rect.Dy(), Path: key}
	r.textures[key] = t
	utils.Info("Registry: Texture %s loaded (%dx%d, ID: %d)", filepath.Base(key), t.Width, t.Height, id)
	return t, nil
}

// Placeholder returns a 1x1 white texture. The registry never substitutes it on
// its own; callers may use it after a LoadError.
func (r *Registry) Placeholder() (*Texture, error) {
	if r.placeholder != nil {
		return r.placeholder, nil
	}
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	id, err := r.device.UploadTexture(img, gpu.FilterNearest)
	if err != nil {
		return nil, textureError("<placeholder>", err)
	}
	r.placeholder = &Texture{ID: id, Width: 1, Height: 1, Path: "<placeholder>"}
	return r.placeholder, nil
}

// AddSpritesheet caches sheet under the path of the texture it slices.
func (r *Registry) AddSpritesheet(path string, sheet *Spritesheet) {
	r.sheets[r.key(path)] = sheet
}

func (r *Registry) Spritesheet(path string) (*Spritesheet, bool) {
	s, ok := r.sheets[r.key(path)]
	return s, ok
}

// Counts reports how many shaders and textures are cached.
func (r *Registry) Counts() (shaders, textures int) {
	return len(r.shaders), len(r.textures)
}

// Close deletes every GPU resource owned by the registry.
func (r *Registry) Close() {
	for key, s := range r.shaders {
		r.device.DeleteProgram(s.ID)
		delete(r.shaders, key)
	}
	for key, t := range r.textures {
		r.device.DeleteTexture(t.ID)
		delete(r.textures, key)
	}
	if r.placeholder != nil {
		r.device.DeleteTexture(r.placeholder.ID)
		r.placeholder = nil
	}
	clear(r.sheets)
}
