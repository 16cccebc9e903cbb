package assets

import "fmt"

type Kind int

const (
	KindShader Kind = iota
	KindTexture
)

func (k Kind) String() string {
	if k == KindShader {
		return "shader"
	}
	return "texture"
}

// LoadError reports a resource that could not be read, decoded, compiled or uploaded.
// Log holds the diagnostic text (compiler output or decoder message).
type LoadError struct {
	Kind Kind
	Path string
	Log  string
	Err  error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("load %s %s", e.Kind, e.Path)
	if e.Log != "" {
		return msg + ": " + e.Log
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

func shaderError(path string, err error) *LoadError {
	return &LoadError{Kind: KindShader, Path: path, Log: err.Error(), Err: err}
}

func textureError(path string, err error) *LoadError {
	return &LoadError{Kind: KindTexture, Path: path, Log: err.Error(), Err: err}
}
