package assets

import (
	"context"
	"errors"
	"image"

	"sprite-editor/internal/utils"

	"golang.org/x/sync/errgroup"
)

type decoded struct {
	key string
	img *image.NRGBA
}

// Preload decodes textures concurrently and uploads them on the calling goroutine,
// which must be the render thread. Paths already cached are skipped. progress, when
// non-nil, is called on the calling goroutine after each upload.
func (r *Registry) Preload(ctx context.Context, paths []string, progress func(done, total int)) error {
	seen := make(map[string]bool, len(paths))
	todo := make([]string, 0, len(paths))
	for _, p := range paths {
		key := r.key(p)
		if _, ok := r.textures[key]; ok || seen[key] {
			continue
		}
		seen[key] = true
		todo = append(todo, key)
	}
	if len(todo) == 0 {
		return nil
	}
	utils.Info("Registry: Preloading %d textures with %d workers", len(todo), r.workers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	results := make(chan decoded)
	waitErr := make(chan error, 1)
	go func() {
		for _, key := range todo {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				img, err := DecodeImage(key)
				if err != nil {
					return textureError(key, err)
				}
				select {
				case results <- decoded{key: key, img: img}:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		waitErr <- g.Wait()
		close(results)
	}()

	var uploadErr error
	done := 0
	for res := range results {
		if uploadErr != nil {
			continue
		}
		if _, err := r.upload(res.key, res.img); err != nil {
			uploadErr = err
			cancel()
			continue
		}
		done++
		if progress != nil {
			progress(done, len(todo))
		}
	}

	if err := <-waitErr; err != nil && uploadErr == nil {
		var lerr *LoadError
		if errors.As(err, &lerr) {
			utils.Error("Registry: %v", lerr)
		}
		return err
	}
	return uploadErr
}
