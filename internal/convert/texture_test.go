package convert

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pierrec/lz4/v4"
)

type texFixture struct {
	magic     string
	container string
	format    uint32
	imgW      uint32
	imgH      uint32
	mipW      uint32
	mipH      uint32
	data      []byte
	lz4       bool
}

func putMagic(buf *bytes.Buffer, m string) {
	b := make([]byte, 9)
	copy(b, m)
	buf.Write(b)
}

func putU32(buf *bytes.Buffer, v uint32) {
	binary.Write(buf, binary.LittleEndian, v)
}

func (f texFixture) encode(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	magic := f.magic
	if magic == "" {
		magic = texMagic
	}
	putMagic(&buf, magic)
	putMagic(&buf, texInfoMagic)
	putU32(&buf, f.format)
	putU32(&buf, 0)
	putU32(&buf, f.mipW)
	putU32(&buf, f.mipH)
	putU32(&buf, f.imgW)
	putU32(&buf, f.imgH)
	putU32(&buf, 0)
	putMagic(&buf, f.container)
	putU32(&buf, 1) // image count
	if f.container == containerV3 {
		putU32(&buf, 0xFFFFFFFF)
	}
	putU32(&buf, 1) // mipmap count
	putU32(&buf, f.mipW)
	putU32(&buf, f.mipH)

	payload := f.data
	if f.container != containerV1 {
		if f.lz4 {
			compressed := make([]byte, lz4.CompressBlockBound(len(f.data)))
			n, err := lz4.CompressBlock(f.data, compressed, nil)
			if err != nil || n == 0 {
				t.Fatalf("lz4 fixture did not compress: n=%d err=%v", n, err)
			}
			payload = compressed[:n]
			putU32(&buf, 1)
		} else {
			putU32(&buf, 0)
		}
		putU32(&buf, uint32(len(f.data)))
	}
	putU32(&buf, uint32(len(payload)))
	buf.Write(payload)
	return buf.Bytes()
}

func solidRGBA(n int, c color.NRGBA) []byte {
	pix := make([]byte, 0, n*4)
	for i := 0; i < n; i++ {
		pix = append(pix, c.R, c.G, c.B, c.A)
	}
	return pix
}

func TestDecodeTex(t *testing.T) {
	orange := color.NRGBA{R: 255, G: 128, B: 0, A: 200}

	tests := []struct {
		name    string
		fixture texFixture
		bounds  image.Rectangle
		at      color.NRGBA
	}{
		{
			name: "rgba lz4 cropped",
			fixture: texFixture{
				container: containerV2, format: FormatRGBA8888,
				imgW: 6, imgH: 5, mipW: 8, mipH: 8,
				data: solidRGBA(64, orange), lz4: true,
			},
			bounds: image.Rect(0, 0, 6, 5),
			at:     orange,
		},
		{
			name: "rgba uncompressed v3",
			fixture: texFixture{
				container: containerV3, format: FormatRGBA8888,
				imgW: 4, imgH: 4, mipW: 4, mipH: 4,
				data: solidRGBA(16, orange),
			},
			bounds: image.Rect(0, 0, 4, 4),
			at:     orange,
		},
		{
			name: "r8 v1",
			fixture: texFixture{
				container: containerV1, format: FormatR8,
				imgW: 2, imgH: 2, mipW: 2, mipH: 2,
				data: []byte{90, 90, 90, 90},
			},
			bounds: image.Rect(0, 0, 2, 2),
			at:     color.NRGBA{R: 90, G: 90, B: 90, A: 255},
		},
		{
			name: "rg88",
			fixture: texFixture{
				container: containerV2, format: FormatRG88,
				imgW: 2, imgH: 1, mipW: 2, mipH: 1,
				data: []byte{40, 100, 40, 100},
			},
			bounds: image.Rect(0, 0, 2, 1),
			at:     color.NRGBA{R: 40, G: 40, B: 40, A: 100},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := DecodeTex(bytes.NewReader(tt.fixture.encode(t)))
			if err != nil {
				t.Fatalf("DecodeTex error = %v", err)
			}
			if img.Bounds() != tt.bounds {
				t.Errorf("Bounds = %v, want %v", img.Bounds(), tt.bounds)
			}
			got := color.NRGBAModel.Convert(img.At(1, 0)).(color.NRGBA)
			if got != tt.at {
				t.Errorf("At(1,0) = %v, want %v", got, tt.at)
			}
		})
	}
}

func TestDecodeTexDXT1Bounds(t *testing.T) {
	block := []byte{0x00, 0xF8, 0x00, 0x00, 0, 0, 0, 0} // one 4x4 block, all texels color0
	fixture := texFixture{
		container: containerV2, format: FormatDXT1,
		imgW: 4, imgH: 4, mipW: 4, mipH: 4,
		data: block,
	}
	img, err := DecodeTex(bytes.NewReader(fixture.encode(t)))
	if err != nil {
		t.Fatalf("DecodeTex error = %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 4, 4) {
		t.Errorf("Bounds = %v", img.Bounds())
	}
}

func TestDecodeTexErrors(t *testing.T) {
	valid := texFixture{
		container: containerV2, format: FormatRGBA8888,
		imgW: 2, imgH: 2, mipW: 2, mipH: 2,
		data: solidRGBA(4, color.NRGBA{A: 255}),
	}

	tests := []struct {
		name string
		data func() []byte
		want string
	}{
		{"bad magic", func() []byte {
			f := valid
			f.magic = "TEXV0004"
			return f.encode(t)
		}, "invalid magic"},
		{"bad container", func() []byte {
			f := valid
			f.container = "TEXB0009"
			return f.encode(t)
		}, "unsupported container"},
		{"size mismatch", func() []byte {
			f := valid
			f.data = f.data[:8]
			return f.encode(t)
		}, "RGBA8888"},
		{"unknown format", func() []byte {
			f := valid
			f.format = 42
			return f.encode(t)
		}, "unsupported format"},
		{"truncated", func() []byte {
			b := valid.encode(t)
			return b[:len(b)-3]
		}, "reading mipmap"},
		{"empty", func() []byte { return nil }, "reading header"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTex(bytes.NewReader(tt.data()))
			if err == nil {
				t.Fatal("DecodeTex succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestDecodeTexFile(t *testing.T) {
	fixture := texFixture{
		container: containerV2, format: FormatR8,
		imgW: 1, imgH: 1, mipW: 1, mipH: 1,
		data: []byte{7},
	}
	path := filepath.Join(t.TempDir(), "mask.tex")
	if err := os.WriteFile(path, fixture.encode(t), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeTexFile(path); err != nil {
		t.Fatalf("DecodeTexFile error = %v", err)
	}
	if _, err := DecodeTexFile(path + ".missing"); err == nil {
		t.Fatal("DecodeTexFile of missing file succeeded")
	}
}
