package main

import (
	"math"

	"github.com/taigrr/ember/pkg/math3d"
	"github.com/taigrr/ember/pkg/render"
)

const (
	roomHalfSize = 6.0
	roomTiles    = 3.0 // Texture repeats per wall
)

// wall describes one room face as seen from the center of the room.
type wall struct {
	center, forward, up math3d.Vec3
}

// buildRoom returns the six inward-facing walls of a cube of the given half
// size, lit by a point lamp. Each wall is wound clockwise as seen from
// inside.
func buildRoom(half float64, tex *render.Texture, lamp math3d.Vec3) []*render.WorldFace {
	walls := []wall{
		{math3d.V3(0, 0, -half), math3d.V3(0, 0, -1), math3d.V3(0, 1, 0)}, // back
		{math3d.V3(0, 0, half), math3d.V3(0, 0, 1), math3d.V3(0, 1, 0)},   // front
		{math3d.V3(-half, 0, 0), math3d.V3(-1, 0, 0), math3d.V3(0, 1, 0)}, // left
		{math3d.V3(half, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0)},   // right
		{math3d.V3(0, -half, 0), math3d.V3(0, -1, 0), math3d.V3(0, 0, -1)}, // floor
		{math3d.V3(0, half, 0), math3d.V3(0, 1, 0), math3d.V3(0, 0, 1)},    // ceiling
	}

	faces := make([]*render.WorldFace, 0, len(walls))
	for _, w := range walls {
		right := w.forward.Cross(w.up).Scale(half)
		up := w.up.Scale(half)

		bl := w.center.Sub(right).Sub(up)
		tl := w.center.Sub(right).Add(up)
		tr := w.center.Add(right).Add(up)
		br := w.center.Add(right).Sub(up)

		f := &render.WorldFace{
			Vertices: []math3d.Vec3{bl, tl, tr, br},
			UVs: []math3d.Vec2{
				math3d.V2(0, 0), math3d.V2(0, roomTiles),
				math3d.V2(roomTiles, roomTiles), math3d.V2(roomTiles, 0),
			},
			Texture: tex,
		}
		f.CornerLight[render.CornerTopLeft] = lampLight(tl, lamp, half)
		f.CornerLight[render.CornerTopRight] = lampLight(tr, lamp, half)
		f.CornerLight[render.CornerBottomLeft] = lampLight(bl, lamp, half)
		f.CornerLight[render.CornerBottomRight] = lampLight(br, lamp, half)
		faces = append(faces, f)
	}
	return faces
}

// lampLight falls off linearly with distance from the lamp.
func lampLight(p, lamp math3d.Vec3, half float64) float64 {
	d := p.Sub(lamp).Len() / (4 * half)
	return math.Max(0.25, math.Min(1.1, 1.2-d))
}

// relight recomputes corner light for a moved lamp and drops the cached
// surfaces so they are composed again.
func relight(faces []*render.WorldFace, lamp math3d.Vec3, half float64) {
	corners := [4]int{render.CornerBottomLeft, render.CornerTopLeft, render.CornerTopRight, render.CornerBottomRight}
	for _, f := range faces {
		for i, v := range f.Vertices {
			f.CornerLight[corners[i]] = lampLight(v, lamp, half)
		}
		f.Invalidate()
	}
}
