// Copyright © 2024-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package nav

// query.go answers the geometric questions runtime code asks of a
// mesh: where is the ground under a point, can an agent stand here,
// what does this ray hit, and can one position see another.

import (
	"math"

	"github.com/pkg/errors"

	"github.com/gazed/odyssey/math/lin"
)

// ErrInvalidQuery marks a query asked of an empty mesh where the
// operation has no defined result. Most queries prefer sentinel
// answers; only lookups whose result is an index can not degrade.
var ErrInvalidQuery = errors.New("invalid query on empty mesh")

// Query tuning. Walkability accepts a candidate only when it is close
// enough to the query both vertically and on the ground plane.
const (
	projectSearchRadius = 5.0 // nearby face search for projection.
	walkableMaxVertical = 2.0 // height difference limit.
	walkableMaxRadial   = 5.0 // face center distance limit.
	losTolerance        = 0.1 // hits this close to the target do not block.
)

// SurfaceKind orders projection candidates by surface priority:
// ground faces win over platforms, platforms over elevated bands, and
// obstacle tops come last.
type SurfaceKind int

// Projection surface kinds in priority order.
const (
	GroundSurface SurfaceKind = iota
	PlatformSurface
	ElevatedSurface
	ObstacleSurface
)

// candidate is one possible projection target.
type candidate struct {
	point    lin.V3
	kind     SurfaceKind
	dist     float64
	face     int // -1 unless a static face.
	obstacle int // obstacle id, valid when kind is ObstacleSurface.
	level    int // level id for level candidates.
	walkable bool
}

// geometry helpers
// =============================================================================

// sameSide returns true when p and ref are on the same side of the
// a-b line on the ground plane.
func sameSide(p, ref, a, b *lin.V3) bool {
	abx, aby := b.X-a.X, b.Y-a.Y
	cp1 := abx*(p.Y-a.Y) - aby*(p.X-a.X)
	cp2 := abx*(ref.Y-a.Y) - aby*(ref.X-a.X)
	return cp1*cp2 >= 0
}

// pointInTriangle2D is the same side test against each triangle edge
// on the ground plane. Triangles that are edge-on to the ground plane
// have no footprint and contain nothing.
func pointInTriangle2D(p, a, b, c *lin.V3) bool {
	area2 := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	if lin.AeqZ(area2) {
		return false
	}
	return sameSide(p, c, a, b) && sameSide(p, a, b, c) && sameSide(p, b, c, a)
}

// triangleHeight solves the triangle's plane equation for the height
// at a ground plane position. Degenerate triangles fall back to the
// mean of the corner heights.
func triangleHeight(p, a, b, c *lin.V3) float64 {
	ab, ac := lin.V3{}, lin.V3{}
	ab.Sub(b, a)
	ac.Sub(c, a)
	normal := lin.V3{}
	normal.Cross(&ab, &ac)
	if lin.AeqZ(normal.Z) {
		return (a.Z + b.Z + c.Z) / 3
	}
	d := -normal.Dot(a)
	return -(normal.X*p.X + normal.Y*p.Y + d) / normal.Z
}

// rayTriangle is the Möller-Trumbore ray/triangle intersection,
// returning the distance along the ray on a hit.
func rayTriangle(origin, dir, a, b, c *lin.V3) (t float64, hit bool) {
	const epsilon = 1e-9
	edge1, edge2 := lin.V3{}, lin.V3{}
	edge1.Sub(b, a)
	edge2.Sub(c, a)
	pvec := lin.V3{}
	pvec.Cross(dir, &edge2)
	det := edge1.Dot(&pvec)
	if math.Abs(det) < epsilon {
		return 0, false // ray parallel to the triangle.
	}
	inv := 1 / det
	tvec := lin.V3{}
	tvec.Sub(origin, a)
	u := tvec.Dot(&pvec) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	qvec := lin.V3{}
	qvec.Cross(&tvec, &edge1)
	v := dir.Dot(&qvec) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t = edge2.Dot(&qvec) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}

// projection
// =============================================================================

// Project drops a point onto the best supporting surface: the
// containing static face, nearby faces, active obstacle tops, and
// registered levels, preferring lower priority surface kinds and then
// smaller distances. The projected point and its height are returned;
// ok is false when nothing lies under the point.
func (m *Mesh) Project(p *lin.V3) (projected lin.V3, height float64, ok bool) {
	best, any := m.bestCandidate(p, nil)
	if !any {
		return lin.V3{}, 0, false
	}
	return best.point, best.point.Z, true
}

// IsWalkable reports whether an agent could stand at the point: the
// best walkable candidate must be within the vertical and radial
// acceptance limits.
func (m *Mesh) IsWalkable(p *lin.V3) bool {
	best, any := m.bestCandidate(p, func(c *candidate) bool { return c.walkable })
	if !any {
		return false
	}
	if math.Abs(best.point.Z-p.Z) > walkableMaxVertical {
		return false
	}
	if best.face >= 0 {
		center := m.FaceCenter(best.face)
		if center.Dist2D(p) > walkableMaxRadial {
			return false
		}
	}
	return true
}

// bestCandidate gathers projection candidates, filters them, and
// returns the winner by surface kind priority then distance.
func (m *Mesh) bestCandidate(p *lin.V3, keep func(*candidate) bool) (candidate, bool) {
	var candidates []candidate
	add := func(c candidate) {
		c.dist = c.point.Dist(p)
		if keep == nil || keep(&c) {
			candidates = append(candidates, c)
		}
	}

	// containing static face, unless destroyed.
	seen := map[int]bool{}
	if f := m.faceAt2D(p); f >= 0 && !m.faceDestroyed(f) {
		add(m.faceCandidate(f, p))
		seen[f] = true
	}

	// nearby faces within the search radius.
	for _, f := range m.nearbyFaces(p, projectSearchRadius) {
		if seen[f] || m.faceDestroyed(f) {
			continue
		}
		seen[f] = true
		add(m.faceCandidate(f, p))
	}

	// dynamic obstacles within their influence radius.
	for id, o := range m.obstacles {
		if !o.Active {
			continue
		}
		center := o.Position
		if center.Dist2D(p) > o.InfluenceRadius+boxRadius2D(o.box()) {
			continue
		}
		top := lin.V3{X: p.X, Y: p.Y, Z: o.BoundsMax.Z}
		if !o.HasTopSurface {
			// expanded footprint, projected to the box top.
			box := *o.box()
			box.Expand(o.InfluenceRadius)
			if !box.Contains2D(p) {
				continue
			}
		}
		add(candidate{point: top, kind: ObstacleSurface, obstacle: id, face: -1,
			walkable: o.Walkable})
	}

	// levels whose height band contains the query.
	for _, level := range m.levels {
		if p.Z >= level.BaseHeight && p.Z <= level.BaseHeight+level.HeightRange {
			add(candidate{
				point:    lin.V3{X: p.X, Y: p.Y, Z: level.BaseHeight},
				kind:     level.Surface,
				level:    level.ID,
				face:     -1,
				walkable: level.Walkable,
			})
		}
	}

	if len(candidates) == 0 {
		return candidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.kind < best.kind || (c.kind == best.kind && c.dist < best.dist) {
			best = c
		}
	}
	return best, true
}

// faceCandidate projects the point onto face f's plane.
func (m *Mesh) faceCandidate(f int, p *lin.V3) candidate {
	corners := m.FaceVertices(f)
	z := triangleHeight(p, &corners[0], &corners[1], &corners[2])
	return candidate{
		point:    lin.V3{X: p.X, Y: p.Y, Z: z},
		kind:     GroundSurface,
		face:     f,
		obstacle: -1,
		walkable: m.FaceWalkable(f),
	}
}

// faceDestroyed reports a destructible modification flagged destroyed.
func (m *Mesh) faceDestroyed(f int) bool {
	mod, ok := m.mods[f]
	return ok && mod.Destroyed
}

// FaceAt returns the index of the face whose ground plane footprint
// contains the point, -1 when no face does, and ErrInvalidQuery when
// the mesh has no faces at all.
func (m *Mesh) FaceAt(p *lin.V3) (int, error) {
	if len(m.materials) == 0 {
		return -1, ErrInvalidQuery
	}
	return m.faceAt2D(p), nil
}

// raycast and line of sight
// =============================================================================

// Raycast casts from origin along dir for at most tMax and returns the
// nearest face hit. ok is false when nothing is hit.
func (m *Mesh) Raycast(origin, dir *lin.V3, tMax float64) (hit lin.V3, face int, ok bool) {
	t, f := m.raycastWhere(origin, dir, tMax, nil)
	if f < 0 {
		return lin.V3{}, -1, false
	}
	hit.Scale(dir, t).Add(&hit, origin)
	return hit, f, true
}

// raycastWhere is Raycast with a face skip predicate, via the box tree
// when one exists and a full face scan otherwise.
func (m *Mesh) raycastWhere(origin, dir *lin.V3, tMax float64, skip func(int) bool) (float64, int) {
	if m.tree != nil {
		return m.treeRaycast(m.tree, origin, dir, tMax, skip)
	}
	bestT, bestF := 0.0, -1
	for f := 0; f < len(m.materials); f++ {
		if skip != nil && skip(f) {
			continue
		}
		corners := m.FaceVertices(f)
		if t, ok := rayTriangle(origin, dir, &corners[0], &corners[1], &corners[2]); ok && t <= tMax {
			if bestF < 0 || t < bestT {
				bestT, bestF = t, f
			}
		}
	}
	return bestT, bestF
}

// LineOfSight reports whether b is visible from a. Walkable faces and
// destroyed faces do not block; neither do faces within the tolerance
// of the target itself. Active non-walkable obstacles block when their
// box intersects the segment short of the target.
func (m *Mesh) LineOfSight(a, b *lin.V3) bool {
	dir := lin.V3{}
	dir.Sub(b, a)
	dist := dir.Len()
	if lin.AeqZ(dist) {
		return true
	}
	dir.Div(dist)

	// static faces: only solid faces block.
	passThrough := func(f int) bool { return m.FaceWalkable(f) || m.faceDestroyed(f) }
	if t, f := m.raycastWhere(a, &dir, dist, passThrough); f >= 0 && t < dist-losTolerance {
		return false
	}

	// dynamic obstacles.
	for _, o := range m.obstacles {
		if !o.Active || o.Walkable {
			continue
		}
		if t, hit := o.box().Ray(a, &dir); hit && t < dist-losTolerance {
			return false
		}
	}
	return true
}
