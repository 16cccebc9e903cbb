package convert

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type pkgFile struct {
	name string
	data string
}

func buildPkg(t *testing.T, files []pkgFile) string {
	t.Helper()
	var buf bytes.Buffer
	putStr := func(s string) {
		binary.Write(&buf, binary.LittleEndian, uint32(len(s)))
		buf.WriteString(s)
	}

	putStr("PKGV0019")
	binary.Write(&buf, binary.LittleEndian, uint32(len(files)))
	offset := uint32(0)
	for _, f := range files {
		putStr(f.name)
		binary.Write(&buf, binary.LittleEndian, offset)
		binary.Write(&buf, binary.LittleEndian, uint32(len(f.data)))
		offset += uint32(len(f.data))
	}
	for _, f := range files {
		buf.WriteString(f.data)
	}

	path := filepath.Join(t.TempDir(), "scene.pkg")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractPkg(t *testing.T) {
	files := []pkgFile{
		{"shaders/default.glsl", "#type vertex\n"},
		{"textures/hero.png", "not really a png"},
		{"readme.txt", ""},
	}
	out := t.TempDir()

	entries, err := ExtractPkg(buildPkg(t, files), out)
	if err != nil {
		t.Fatalf("ExtractPkg error = %v", err)
	}
	if len(entries) != len(files) {
		t.Fatalf("got %d entries, want %d", len(entries), len(files))
	}
	for _, f := range files {
		got, err := os.ReadFile(filepath.Join(out, f.name))
		if err != nil {
			t.Fatalf("reading %s: %v", f.name, err)
		}
		if string(got) != f.data {
			t.Errorf("%s = %q, want %q", f.name, got, f.data)
		}
	}
}

func TestExtractPkgRejectsEscapingNames(t *testing.T) {
	path := buildPkg(t, []pkgFile{{"../outside.txt", "x"}})
	_, err := ExtractPkg(path, t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "escapes") {
		t.Fatalf("ExtractPkg error = %v, want escape error", err)
	}
}

func TestReadPkgIndexTruncated(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(4))
	buf.WriteString("PKGV")
	binary.Write(&buf, binary.LittleEndian, uint32(3)) // claims three entries, has none

	if _, _, _, err := ReadPkgIndex(bytes.NewReader(buf.Bytes())); err == nil {
		t.Fatal("ReadPkgIndex succeeded on a truncated header")
	}
}
