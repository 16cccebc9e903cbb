package assets

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sprite-editor/internal/engine2D/gpu"
	"sprite-editor/internal/utils"

	"github.com/go-gl/mathgl/mgl32"
)

const glslVersion = "#version 330 core"

// Shader is a linked program with a cache of uniform locations.
type Shader struct {
	ID   uint32
	Path string

	device    gpu.Device
	locations map[string]int32
}

func newShader(device gpu.Device, id uint32, path string) *Shader {
	return &Shader{ID: id, Path: path, device: device, locations: make(map[string]int32)}
}

func (s *Shader) Use()    { s.device.UseProgram(s.ID) }
func (s *Shader) Detach() { s.device.UseProgram(0) }

// Location returns the uniform location for name, -1 if the program has no such uniform.
func (s *Shader) Location(name string) int32 {
	if loc, ok := s.locations[name]; ok {
		return loc
	}
	loc := s.device.UniformLocation(s.ID, name)
	s.locations[name] = loc
	return loc
}

func (s *Shader) UploadMat4(name string, m mgl32.Mat4) { s.device.UniformMat4(s.Location(name), m) }
func (s *Shader) UploadVec4(name string, v mgl32.Vec4) { s.device.UniformVec4(s.Location(name), v) }
func (s *Shader) UploadVec3(name string, v mgl32.Vec3) { s.device.UniformVec3(s.Location(name), v) }
func (s *Shader) UploadFloat(name string, v float32)   { s.device.UniformFloat(s.Location(name), v) }
func (s *Shader) UploadInt(name string, v int32)       { s.device.UniformInt(s.Location(name), v) }

func (s *Shader) UploadIntArray(name string, v []int32) { s.device.UniformInts(s.Location(name), v) }

// UploadTexture points the sampler uniform name at texture unit slot.
func (s *Shader) UploadTexture(name string, slot int32) { s.device.UniformInt(s.Location(name), slot) }

// SplitShaderSource splits a combined source into its vertex and fragment stages.
// Stages start with a "#type vertex" or "#type fragment" line.
func SplitShaderSource(source string) (vertex, fragment string, err error) {
	var current *strings.Builder
	var vb, fb strings.Builder
	seen := map[string]bool{}

	scanner := bufio.NewScanner(strings.NewReader(source))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#type") {
			stage := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(trimmed, "#type")))
			switch stage {
			case "vertex":
				current = &vb
			case "fragment", "pixel":
				stage = "fragment"
				current = &fb
			default:
				return "", "", fmt.Errorf("line %d: unknown shader stage %q", lineNo, stage)
			}
			if seen[stage] {
				return "", "", fmt.Errorf("line %d: duplicate %s stage", lineNo, stage)
			}
			seen[stage] = true
			continue
		}
		if current == nil {
			if trimmed != "" && !strings.HasPrefix(trimmed, "//") {
				return "", "", fmt.Errorf("line %d: source before the first #type line", lineNo)
			}
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return "", "", err
	}
	if !seen["vertex"] {
		return "", "", fmt.Errorf("missing #type vertex stage")
	}
	if !seen["fragment"] {
		return "", "", fmt.Errorf("missing #type fragment stage")
	}
	return vb.String(), fb.String(), nil
}

// PreprocessShader handles shader preprocessing, including:
// - Injecting the GLSL version
// - Injecting defines
// - Processing includes relative to includeDir
func PreprocessShader(source string, defines map[string]int, includeDir, name string) string {
	var sb strings.Builder

	lines := strings.Split(strings.TrimPrefix(source, "\ufeff"), "\n")
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[start]), "#version") {
		sb.WriteString(strings.TrimSpace(lines[start]))
		start++
	} else {
		sb.WriteString(glslVersion)
	}
	sb.WriteString("\n")

	keys := make([]string, 0, len(defines))
	for k := range defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("#define %s %d\n", k, defines[k]))
	}

	included := make(map[string]bool)
	for _, line := range lines[start:] {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#include \"") && strings.HasSuffix(trimmed, "\"") {
			includeFile := strings.Trim(trimmed[len("#include \""):len(trimmed)-1], " ")
			if included[includeFile] {
				continue
			}
			includePath := filepath.Join(includeDir, includeFile)
			if content, err := os.ReadFile(includePath); err == nil {
				sb.WriteString(strings.Trim(string(content), "\ufeff"))
				sb.WriteString("\n")
				included[includeFile] = true
				continue
			}
			utils.Warn("Shader: Could not resolve include %s in %s", includeFile, name)
			continue
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return sb.String()
}

func (r *Registry) loadShader(path string) (shader *Shader, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, shaderError(path, err)
	}

	vSource, fSource, err := SplitShaderSource(string(data))
	if err != nil {
		return nil, shaderError(path, err)
	}

	dir := filepath.Dir(path)
	name := filepath.Base(path)
	utils.Debug("Shader: Preprocessing %s (Defines: %v)", name, r.defines)
	vSource = PreprocessShader(vSource, r.defines, dir, name)
	fSource = PreprocessShader(fSource, r.defines, dir, name)

	var id uint32
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("compilation panic: %v", rec)
			}
		}()
		id, err = r.device.CompileProgram(vSource, fSource)
	}()
	if err != nil {
		return nil, shaderError(path, err)
	}
	return newShader(r.device, id, path), nil
}
