package geometry

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Subdivisions is the number of centroid fan passes applied to each face.
const Subdivisions = 2

// Polygon is a convex planar polygon with counter-clockwise vertices when
// seen from the side its normal points to.
type Polygon []mgl64.Vec3

// boxFaces lists the corner indices (bit 0 = x, bit 1 = y, bit 2 = z) of
// the six faces, counter-clockwise from outside.
var boxFaces = [6][4]int{
	{0, 4, 6, 2}, // -x
	{1, 3, 7, 5}, // +x
	{0, 1, 5, 4}, // -y
	{2, 6, 7, 3}, // +y
	{0, 2, 3, 1}, // -z
	{4, 5, 7, 6}, // +z
}

// Box returns the six outward-facing quads of bounds.
func Box(bounds [6]float64) []Polygon {
	var corners [8]mgl64.Vec3
	for i := range corners {
		corners[i] = mgl64.Vec3{
			bounds[i&1],
			bounds[2+(i>>1)&1],
			bounds[4+(i>>2)&1],
		}
	}
	faces := make([]Polygon, 0, 6)
	for _, f := range boxFaces {
		faces = append(faces, Polygon{corners[f[0]], corners[f[1]], corners[f[2]], corners[f[3]]})
	}
	return faces
}

// Clip keeps the part of the closed convex surface faces on the side of
// the plane its normal points to, and closes the cut with a cap facing
// against the normal.
func Clip(faces []Polygon, origin, normal mgl64.Vec3) []Polygon {
	dist := func(p mgl64.Vec3) float64 { return p.Sub(origin).Dot(normal) }

	var (
		out []Polygon
		cut []mgl64.Vec3
	)
	for _, f := range faces {
		var kept Polygon
		for i := range f {
			a, b := f[i], f[(i+1)%len(f)]
			da, db := dist(a), dist(b)
			if da >= 0 {
				kept = append(kept, a)
			}
			if (da >= 0) != (db >= 0) {
				p := a.Add(b.Sub(a).Mul(da / (da - db)))
				kept = append(kept, p)
				cut = append(cut, p)
			}
		}
		if len(kept) >= 3 {
			out = append(out, kept)
		}
	}
	if lid := capPolygon(cut, normal.Mul(-1)); len(lid) >= 3 {
		out = append(out, lid)
	}
	return out
}

// capPolygon orders points counter-clockwise around facing, dropping
// duplicates.
func capPolygon(points []mgl64.Vec3, facing mgl64.Vec3) Polygon {
	var uniq Polygon
	for _, p := range points {
		dup := false
		for _, q := range uniq {
			if p.ApproxEqualThreshold(q, 1e-12) {
				dup = true
				break
			}
		}
		if !dup {
			uniq = append(uniq, p)
		}
	}
	if len(uniq) < 3 {
		return nil
	}

	var c mgl64.Vec3
	for _, p := range uniq {
		c = c.Add(p)
	}
	c = c.Mul(1 / float64(len(uniq)))

	u := uniq[0].Sub(c).Normalize()
	v := facing.Normalize().Cross(u)
	sort.Slice(uniq, func(i, j int) bool {
		pi, pj := uniq[i].Sub(c), uniq[j].Sub(c)
		return math.Atan2(pi.Dot(v), pi.Dot(u)) < math.Atan2(pj.Dot(v), pj.Dot(u))
	})
	return uniq
}

// Densify splits every polygon into triangles by fanning from its
// centroid, repeating the split passes times. Orientation is preserved.
func Densify(polys []Polygon, passes int) []Polygon {
	for n := 0; n < passes; n++ {
		next := make([]Polygon, 0, 4*len(polys))
		for _, p := range polys {
			var c mgl64.Vec3
			for _, q := range p {
				c = c.Add(q)
			}
			c = c.Mul(1 / float64(len(p)))
			for i := range p {
				next = append(next, Polygon{c, p[i], p[(i+1)%len(p)]})
			}
		}
		polys = next
	}
	return polys
}

// Mesh is an indexed triangle list with float32 xyz positions.
type Mesh struct {
	Vertices []float32
	Indices  []uint32
}

// Triangles returns the number of triangles.
func (m *Mesh) Triangles() int { return len(m.Indices) / 3 }

// Index merges shared vertices of triangles into a mesh. When flip is set
// every triangle's winding is reversed.
func Index(tris []Polygon, flip bool) *Mesh {
	m := &Mesh{}
	ids := make(map[[3]float32]uint32)
	order := [3]int{0, 1, 2}
	if flip {
		order = [3]int{2, 1, 0}
	}
	for _, t := range tris {
		for _, k := range order {
			p := t[k]
			key := [3]float32{float32(p[0]), float32(p[1]), float32(p[2])}
			id, ok := ids[key]
			if !ok {
				id = uint32(len(m.Vertices) / 3) //nolint:gosec // G115: vertex count is small
				ids[key] = id
				m.Vertices = append(m.Vertices, key[0], key[1], key[2])
			}
			m.Indices = append(m.Indices, id)
		}
	}
	return m
}

// BuildMesh tessellates the bounding box of bounds, clipped by the near
// plane when the camera is inside the volume.
func BuildMesh(bounds [6]float64, v View, inside bool) *Mesh {
	faces := Box(bounds)
	if inside {
		origin, normal := NearPlane(v)
		faces = Clip(faces, origin, normal)
	}
	return Index(Densify(faces, Subdivisions), !PreservesOrientation(v.VolumeMatrix))
}
