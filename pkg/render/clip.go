package render

import (
	"errors"
	"fmt"

	"github.com/taigrr/ember/pkg/math3d"
)

// MaxClipVertices bounds the scratch polygon used while clipping. One plane
// adds at most two vertices to a convex polygon, so a quad clipped by the
// five frustum planes needs at most 4+2*5 slots; the rest is margin.
const MaxClipVertices = 32

// ErrClipOverflow is the panic value (wrapped) raised when a polygon could
// exceed the clip scratch pool. It signals a caller bug, never bad input data.
var ErrClipOverflow = errors.New("render: clip scratch pool overflow")

// ClipVertex is a polygon vertex carried through clipping. UV and Light are
// interpolated linearly at plane crossings.
type ClipVertex struct {
	Position math3d.Vec3
	UV       math3d.Vec2
	Light    float64
}

// lerpClipVertex interpolates from a toward b by t.
func lerpClipVertex(a, b ClipVertex, t float64) ClipVertex {
	return ClipVertex{
		Position: a.Position.Lerp(b.Position, t),
		UV:       a.UV.Lerp(b.UV, t),
		Light:    a.Light + (b.Light-a.Light)*t,
	}
}

// clipScratch is a fixed-capacity polygon. It never grows.
type clipScratch struct {
	v [MaxClipVertices]ClipVertex
	n int
}

func (s *clipScratch) push(v ClipVertex) {
	if s.n == MaxClipVertices {
		panic(fmt.Errorf("%w: more than %d vertices", ErrClipOverflow, MaxClipVertices))
	}
	s.v[s.n] = v
	s.n++
}

// ClipPolygon clips the convex polygon poly against planes, in order, with
// the Sutherland-Hodgman algorithm and appends the result to dst.
//
// A vertex exactly on a plane is inside. If fewer than three vertices
// survive, the polygon is fully outside and dst is returned unchanged. A
// polygon inside every plane comes back unchanged and in its original order.
//
// ClipPolygon panics with ErrClipOverflow when len(poly)+2*len(planes)
// exceeds MaxClipVertices.
func ClipPolygon(dst []ClipVertex, planes []Plane, poly []ClipVertex) []ClipVertex {
	if len(poly) < 3 {
		return dst
	}
	if worst := len(poly) + 2*len(planes); worst > MaxClipVertices {
		panic(fmt.Errorf("%w: %d vertices against %d planes needs %d slots, have %d",
			ErrClipOverflow, len(poly), len(planes), worst, MaxClipVertices))
	}

	var bufs [2]clipScratch
	in, out := &bufs[0], &bufs[1]
	in.n = copy(in.v[:], poly)

	for _, plane := range planes {
		out.n = 0
		clipAgainstPlane(plane, in, out)
		if out.n < 3 {
			return dst
		}
		in, out = out, in
	}

	return append(dst, in.v[:in.n]...)
}

// clipAgainstPlane walks the edges (prev, cur) of in and writes the part of
// the polygon on the inside of plane to out.
func clipAgainstPlane(plane Plane, in, out *clipScratch) {
	prev := in.v[in.n-1]
	prevDist := plane.DistanceToPoint(prev.Position)

	for i := 0; i < in.n; i++ {
		cur := in.v[i]
		curDist := plane.DistanceToPoint(cur.Position)

		curInside := curDist >= 0
		prevInside := prevDist >= 0

		if curInside != prevInside {
			// One distance is negative and the other is not, so the
			// denominator is never zero.
			t := prevDist / (prevDist - curDist)
			out.push(lerpClipVertex(prev, cur, t))
		}
		if curInside {
			out.push(cur)
		}

		prev, prevDist = cur, curDist
	}
}
