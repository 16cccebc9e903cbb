package convert

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"os"

	"sprite-editor/internal/utils"

	"github.com/mauserzjeh/dxt"
	"github.com/pierrec/lz4/v4"
)

// Pixel formats stored in the .tex header.
const (
	FormatRGBA8888 uint32 = 0
	FormatDXT5     uint32 = 4
	FormatDXT3     uint32 = 6
	FormatDXT1     uint32 = 7
	FormatRG88     uint32 = 8
	FormatR8       uint32 = 9
)

const (
	texMagic        = "TEXV0005"
	texInfoMagic    = "TEXI0001"
	containerV1     = "TEXB0001"
	containerV2     = "TEXB0002"
	containerV3     = "TEXB0003"
	magicFieldBytes = 8
)

type texReader struct {
	r   io.Reader
	err error
}

func (t *texReader) uint32() uint32 {
	if t.err != nil {
		return 0
	}
	var v uint32
	t.err = binary.Read(t.r, binary.LittleEndian, &v)
	return v
}

// magic reads a NUL terminated 8 byte tag.
func (t *texReader) magic() string {
	if t.err != nil {
		return ""
	}
	b := make([]byte, magicFieldBytes+1)
	if _, err := io.ReadFull(t.r, b); err != nil {
		t.err = err
		return ""
	}
	return string(bytes.Trim(b, "\x00"))
}

func (t *texReader) bytes(n uint32) []byte {
	if t.err != nil {
		return nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(t.r, b); err != nil {
		t.err = err
		return nil
	}
	return b
}

// DecodeTexFile decodes the first mipmap of a .tex texture container.
func DecodeTexFile(path string) (image.Image, error) {
	utils.Debug("Convert: Decoding texture %s", path)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := DecodeTex(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// DecodeTex decodes the first mipmap of the first image in a .tex stream.
// The result is cropped to the image size recorded in the header.
func DecodeTex(r io.Reader) (image.Image, error) {
	t := &texReader{r: r}

	if m := t.magic(); t.err == nil && m != texMagic {
		return nil, fmt.Errorf("invalid magic: %q", m)
	}
	if m := t.magic(); t.err == nil && m != texInfoMagic {
		return nil, fmt.Errorf("invalid info magic: %q", m)
	}

	format := t.uint32()
	_ = t.uint32() // flags
	_ = t.uint32() // texture width
	_ = t.uint32() // texture height
	imgW := t.uint32()
	imgH := t.uint32()
	_ = t.uint32()

	container := t.magic()
	imageCount := t.uint32()
	if t.err != nil {
		return nil, fmt.Errorf("reading header: %w", t.err)
	}

	switch container {
	case containerV1, containerV2:
	case containerV3:
		_ = t.uint32() // free image format
	default:
		return nil, fmt.Errorf("unsupported container %q", container)
	}

	utils.Debug("Convert:     Format: %d, Image Size: %dx%d, Container: %s", format, imgW, imgH, container)

	if imageCount == 0 {
		return nil, fmt.Errorf("no image found in texture")
	}

	mipmapCount := t.uint32()
	if t.err == nil && mipmapCount == 0 {
		return nil, fmt.Errorf("no mipmap found in texture")
	}

	mW := t.uint32()
	mH := t.uint32()
	var isLZ4 bool
	var decompressedSize uint32
	if container != containerV1 {
		isLZ4 = t.uint32() == 1
		decompressedSize = t.uint32()
	}
	dataSize := t.uint32()
	data := t.bytes(dataSize)
	if t.err != nil {
		return nil, fmt.Errorf("reading mipmap: %w", t.err)
	}

	if isLZ4 {
		utils.Debug("Convert:     Decompressing LZ4: %d -> %d", dataSize, decompressedSize)
		decoded := make([]byte, decompressedSize)
		n, err := lz4.UncompressBlock(data, decoded)
		if err != nil {
			return nil, fmt.Errorf("lz4: %w", err)
		}
		data = decoded[:n]
	}

	pix, err := decodePixels(format, data, mW, mH)
	if err != nil {
		return nil, err
	}

	img := &image.NRGBA{
		Pix:    pix,
		Stride: int(mW * 4),
		Rect:   image.Rect(0, 0, int(mW), int(mH)),
	}
	if imgW > 0 && imgH > 0 && (imgW < mW || imgH < mH) {
		return img.SubImage(image.Rect(0, 0, int(imgW), int(imgH))), nil
	}
	return img, nil
}

func decodePixels(format uint32, data []byte, w, h uint32) ([]byte, error) {
	numPixels := int(w) * int(h)

	switch format {
	case FormatRGBA8888:
		if len(data) != numPixels*4 {
			return nil, fmt.Errorf("RGBA8888: got %d bytes, want %d", len(data), numPixels*4)
		}
		return data, nil
	case FormatDXT5:
		return dxt.DecodeDXT5(data, uint(w), uint(h))
	case FormatDXT1:
		return dxt.DecodeDXT1(data, uint(w), uint(h))
	case FormatRG88:
		if len(data) != numPixels*2 {
			return nil, fmt.Errorf("RG88: got %d bytes, want %d", len(data), numPixels*2)
		}
		pix := make([]byte, numPixels*4)
		for i := 0; i < numPixels; i++ {
			lum, alpha := data[i*2], data[i*2+1]
			pix[i*4+0] = lum
			pix[i*4+1] = lum
			pix[i*4+2] = lum
			pix[i*4+3] = alpha
		}
		return pix, nil
	case FormatR8:
		if len(data) != numPixels {
			return nil, fmt.Errorf("R8: got %d bytes, want %d", len(data), numPixels)
		}
		pix := make([]byte, numPixels*4)
		for i, v := range data {
			pix[i*4+0] = v
			pix[i*4+1] = v
			pix[i*4+2] = v
			pix[i*4+3] = 255
		}
		return pix, nil
	}
	return nil, fmt.Errorf("unsupported format %d with size %d", format, len(data))
}
