package debugdraw

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const DefaultCircleSegments = 20

type Kind int

const (
	KindBox Kind = iota
	KindCircle
	KindTriangle
)

func (k Kind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindCircle:
		return "circle"
	case KindTriangle:
		return "triangle"
	}
	return "unknown"
}

// Shape is an outline drawn as debug lines. Which fields apply depends on Kind:
// boxes use Center and Size, circles Center, Radius and Segments, triangles Points.
// Rotation (radians, counter-clockwise) turns the outline about its centroid.
type Shape struct {
	Kind     Kind
	Center   mgl32.Vec2
	Size     mgl32.Vec2
	Radius   float32
	Segments int
	Points   [3]mgl32.Vec2
	Rotation float32

	Color      mgl32.Vec3
	Life       int
	Persistent bool
}

func Box(center, size mgl32.Vec2, rotation float32, color mgl32.Vec3, lifetime int) Shape {
	return Shape{Kind: KindBox, Center: center, Size: size, Rotation: rotation, Color: color, Life: lifetime}
}

func Circle(center mgl32.Vec2, radius float32, segments int, color mgl32.Vec3, lifetime int) Shape {
	return Shape{Kind: KindCircle, Center: center, Radius: radius, Segments: segments, Color: color, Life: lifetime}
}

func Triangle(a, b, c mgl32.Vec2, rotation float32, color mgl32.Vec3, lifetime int) Shape {
	return Shape{Kind: KindTriangle, Points: [3]mgl32.Vec2{a, b, c}, Rotation: rotation, Color: color, Life: lifetime}
}

// Centroid is the point rotations turn around.
func (s Shape) Centroid() mgl32.Vec2 {
	if s.Kind == KindTriangle {
		return s.Points[0].Add(s.Points[1]).Add(s.Points[2]).Mul(1.0 / 3)
	}
	return s.Center
}

// Outline returns the closed polygon of the shape, rotation applied.
func (s Shape) Outline() []mgl32.Vec2 {
	var pts []mgl32.Vec2
	switch s.Kind {
	case KindBox:
		half := s.Size.Mul(0.5)
		pts = []mgl32.Vec2{
			{s.Center.X() - half.X(), s.Center.Y() - half.Y()},
			{s.Center.X() - half.X(), s.Center.Y() + half.Y()},
			{s.Center.X() + half.X(), s.Center.Y() + half.Y()},
			{s.Center.X() + half.X(), s.Center.Y() - half.Y()},
		}
	case KindCircle:
		segments := s.Segments
		if segments < 3 {
			segments = DefaultCircleSegments
		}
		pts = make([]mgl32.Vec2, segments)
		step := 2 * math.Pi / float64(segments)
		for i := range pts {
			sin, cos := math.Sincos(step * float64(i))
			pts[i] = mgl32.Vec2{
				s.Center.X() + s.Radius*float32(cos),
				s.Center.Y() + s.Radius*float32(sin),
			}
		}
	case KindTriangle:
		pts = append([]mgl32.Vec2(nil), s.Points[:]...)
	default:
		return nil
	}

	if s.Rotation != 0 {
		origin := s.Centroid()
		sin, cos := math.Sincos(float64(s.Rotation))
		for i, p := range pts {
			pts[i] = rotate(p, origin, float32(sin), float32(cos))
		}
	}
	return pts
}

func rotate(p, origin mgl32.Vec2, sin, cos float32) mgl32.Vec2 {
	d := p.Sub(origin)
	return mgl32.Vec2{
		origin.X() + d.X()*cos - d.Y()*sin,
		origin.Y() + d.X()*sin + d.Y()*cos,
	}
}

// Draw emits the outline edges into r and returns how many lines were accepted.
func (s Shape) Draw(r *Renderer) int {
	pts := s.Outline()
	added := 0
	for i := range pts {
		l := Line{
			Start:      pts[i],
			End:        pts[(i+1)%len(pts)],
			Color:      s.Color,
			Life:       s.Life,
			Persistent: s.Persistent,
		}
		if r.add(l) {
			added++
		}
	}
	return added
}

// AddBox outlines a size box centered on center.
func (r *Renderer) AddBox(center, size mgl32.Vec2, rotation float32, color mgl32.Vec3, lifetime int) int {
	return Box(center, size, rotation, color, lifetime).Draw(r)
}

// AddCircle outlines a circle with segments edges, DefaultCircleSegments when segments < 3.
func (r *Renderer) AddCircle(center mgl32.Vec2, radius float32, segments int, color mgl32.Vec3, lifetime int) int {
	return Circle(center, radius, segments, color, lifetime).Draw(r)
}

func (r *Renderer) AddTriangle(a, b, c mgl32.Vec2, rotation float32, color mgl32.Vec3, lifetime int) int {
	return Triangle(a, b, c, rotation, color, lifetime).Draw(r)
}
