package assets

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"sprite-editor/internal/convert"

	"github.com/go-gl/mathgl/mgl32"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Texture is an uploaded RGBA texture. Row 0 of the source image is at v = 0.
type Texture struct {
	ID     uint32
	Width  int
	Height int
	Path   string
}

// DefaultTexCoords covers the whole texture in bottom-left, top-left, top-right,
// bottom-right order.
var DefaultTexCoords = [4]mgl32.Vec2{
	{0, 1},
	{0, 0},
	{1, 0},
	{1, 1},
}

// DecodeImage reads an image file into tightly packed NRGBA pixels.
// .tex containers go through the converter; everything else through image.Decode.
func DecodeImage(path string) (*image.NRGBA, error) {
	var src image.Image
	if strings.EqualFold(filepath.Ext(path), ".tex") {
		img, err := convert.DecodeTexFile(path)
		if err != nil {
			return nil, err
		}
		src = img
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		src = img
	}
	return toNRGBA(src), nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == b.Dx()*4 {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Src)
	return dst
}
