// Copyright © 2024-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package nav turns parsed walkmesh data into a queryable navigation
// mesh: deduplicated vertices, face adjacency, a box tree for spatial
// lookups, point projection, raycasts, line of sight, dynamic
// obstacles, destructible faces, cover points, and tactical path
// finding over the face adjacency graph.
//
// A Mesh is single owner: all mutating operations assume exclusive
// access. Readers of static data are safe to share after construction;
// guard mixed readers and writers externally.
//
// Package nav is provided as part of the odyssey asset toolkit.
package nav

// Design Notes:
// The mesh keeps flat arrays: face f owns entries 3f..3f+2 of the
// face index and adjacency arrays, and adjacency entries encode
// neighbour*3+edge so an edge crossing is one divide away. This
// mirrors how the walkmesh format stores adjacency and keeps merge
// re-indexing simple.

import (
	"math"

	"github.com/gazed/odyssey/load"
	"github.com/gazed/odyssey/math/lin"
)

// Mesh is a navigation mesh built from one or more walkmeshes.
type Mesh struct {
	verts     []lin.V3 // deduplicated vertex positions.
	faces     []int32  // 3 vertex indices per face.
	materials []uint32 // surface material per face.
	adjacency []int32  // neighbour*3+edge per face edge, -1 open.
	tree      *treeNode
	surfaces  *Surfaces

	// dynamic overlay.
	obstacles     map[int]*Obstacle
	prevObstacles map[int]Obstacle // change detection snapshot.
	mods          map[int]*FaceModification
	levels        []Level
	cover         []CoverPoint
	invalidated   map[int]bool
	meshDirty     bool
	coverDirty    bool

	// optional game world for threat aware path costs.
	world World
	self  Entity

	// rebuild timing for callers that profile.
	Timing Timing
}

// Level declares a walkable surface band that is not backed by
// walkmesh faces: catwalks, force fields, scripted platforms.
type Level struct {
	ID          int
	BaseHeight  float64
	HeightRange float64
	Surface     SurfaceKind
	Walkable    bool
}

// newMesh returns an empty mesh with the stock surface table.
func newMesh() *Mesh {
	return &Mesh{
		surfaces:      DefaultSurfaces(),
		obstacles:     map[int]*Obstacle{},
		prevObstacles: map[int]Obstacle{},
		mods:          map[int]*FaceModification{},
		invalidated:   map[int]bool{},
	}
}

// vertKey quantizes a position to six decimal digits so coincident
// world positions from different rooms land on the same key.
type vertKey struct{ x, y, z int64 }

func quantize(v *lin.V3) vertKey {
	return vertKey{
		x: int64(math.Round(v.X * 1e6)),
		y: int64(math.Round(v.Y * 1e6)),
		z: int64(math.Round(v.Z * 1e6)),
	}
}

// FromWalkmesh builds a navigation mesh from a parsed walkmesh.
// A non-nil worldOffset is added to each vertex before deduplication,
// placing room meshes at their world positions. Surface materials are
// copied verbatim: walkability is defined by the material table and
// losing materials silently would hide bugs. A box tree is built for
// area meshes only; placeable and door meshes are small enough to
// scan.
func FromWalkmesh(wm *load.Walkmesh, worldOffset *lin.V3) *Mesh {
	m := newMesh()
	dedup := map[vertKey]int32{}
	for _, face := range wm.Faces {
		for _, vi := range face.Indices {
			v := lin.V3{
				X: float64(wm.Vertices[vi][0]),
				Y: float64(wm.Vertices[vi][1]),
				Z: float64(wm.Vertices[vi][2]),
			}
			if worldOffset != nil {
				v.Add(&v, worldOffset)
			}
			key := quantize(&v)
			index, ok := dedup[key]
			if !ok {
				index = int32(len(m.verts))
				m.verts = append(m.verts, v)
				dedup[key] = index
			}
			m.faces = append(m.faces, index)
		}
		m.materials = append(m.materials, face.Material)
	}

	// adjacency between walkable faces; everything else stays open.
	m.adjacency = make([]int32, len(m.materials)*3)
	for i := range m.adjacency {
		m.adjacency[i] = -1
	}
	for fi := range wm.Faces {
		if fi >= len(wm.Adjacency) || !m.FaceWalkable(fi) {
			continue
		}
		for edge, entry := range wm.Adjacency[fi] {
			if entry < 0 {
				continue
			}
			neighbour := int(entry / 3)
			if neighbour < len(m.materials) && m.FaceWalkable(neighbour) {
				m.adjacency[fi*3+edge] = entry
			}
		}
	}

	if wm.Type == load.WalkmeshArea {
		m.rebuildTree()
	}
	return m
}

// Merge combines navigation meshes in input order: vertices and faces
// are concatenated with re-indexing, and walkable faces that share an
// edge across mesh boundaries are stitched together. The box tree is
// rebuilt over the combined face set.
func Merge(meshes []*Mesh) *Mesh {
	m := newMesh()
	for _, in := range meshes {
		vertOffset := int32(len(m.verts))
		faceOffset := int32(len(m.materials))
		m.verts = append(m.verts, in.verts...)
		for _, vi := range in.faces {
			m.faces = append(m.faces, vi+vertOffset)
		}
		m.materials = append(m.materials, in.materials...)
		for _, entry := range in.adjacency {
			if entry >= 0 {
				face := entry / 3
				edge := entry % 3
				entry = (face+faceOffset)*3 + edge
			}
			m.adjacency = append(m.adjacency, entry)
		}
		for _, level := range in.levels {
			m.levels = append(m.levels, level)
		}
	}
	m.stitch()
	m.rebuildTree()
	return m
}

// edgeKey identifies an unordered edge by its two endpoint positions
// quantized to a millimetre, coarse enough to bridge float drift
// between separately authored room meshes.
type edgeKey struct{ ax, ay, az, bx, by, bz int64 }

func quantizeEdge(a, b *lin.V3) edgeKey {
	ka := vertKey{int64(math.Round(a.X * 1e3)), int64(math.Round(a.Y * 1e3)), int64(math.Round(a.Z * 1e3))}
	kb := vertKey{int64(math.Round(b.X * 1e3)), int64(math.Round(b.Y * 1e3)), int64(math.Round(b.Z * 1e3))}
	if kb.x < ka.x || (kb.x == ka.x && (kb.y < ka.y || (kb.y == ka.y && kb.z < ka.z))) {
		ka, kb = kb, ka
	}
	return edgeKey{ka.x, ka.y, ka.z, kb.x, kb.y, kb.z}
}

// edgeUse records one face edge using a shared edge key.
type edgeUse struct {
	face     int
	edge     int
	walkable bool
}

// stitch connects walkable faces that share an edge but have no
// recorded adjacency, which happens along the seams between merged
// meshes. The first walkable pair found for a key wins, keeping the
// result stable by input order.
func (m *Mesh) stitch() {
	uses := map[edgeKey][]edgeUse{}
	for f := 0; f < len(m.materials); f++ {
		for edge := 0; edge < 3; edge++ {
			a := m.verts[m.faces[f*3+edge]]
			b := m.verts[m.faces[f*3+(edge+1)%3]]
			key := quantizeEdge(&a, &b)
			uses[key] = append(uses[key], edgeUse{face: f, edge: edge, walkable: m.FaceWalkable(f)})
		}
	}
	for _, shared := range uses {
		var open []edgeUse
		for _, use := range shared {
			if use.walkable && m.adjacency[use.face*3+use.edge] == -1 {
				open = append(open, use)
			}
		}
		if len(open) >= 2 {
			a, b := open[0], open[1]
			m.adjacency[a.face*3+a.edge] = int32(b.face*3 + b.edge)
			m.adjacency[b.face*3+b.edge] = int32(a.face*3 + a.edge)
		}
	}
}

// accessors
// =============================================================================

// FaceCount returns the number of faces in the mesh.
func (m *Mesh) FaceCount() int { return len(m.materials) }

// VertexCount returns the number of deduplicated vertices.
func (m *Mesh) VertexCount() int { return len(m.verts) }

// Material returns the surface material of face f.
func (m *Mesh) Material(f int) uint32 { return m.materials[f] }

// Adjacent returns the neighbour face across the given edge of face f,
// or -1 for an open edge.
func (m *Mesh) Adjacent(f, edge int) int {
	entry := m.adjacency[f*3+edge]
	if entry < 0 {
		return -1
	}
	return int(entry / 3)
}

// FaceWalkable returns true if face f has a walkable material and has
// not been destroyed.
func (m *Mesh) FaceWalkable(f int) bool {
	if mod, ok := m.mods[f]; ok && mod.Destroyed {
		return false
	}
	return m.surfaces.Walkable(m.materials[f])
}

// SetSurfaces replaces the surface material table.
func (m *Mesh) SetSurfaces(s *Surfaces) { m.surfaces = s }

// AddLevel registers a walkable surface band not backed by faces.
func (m *Mesh) AddLevel(level Level) {
	m.levels = append(m.levels, level)
}

// FaceVertices returns the three corner positions of face f,
// substituting replacement vertices from a destructible modification
// when present.
func (m *Mesh) FaceVertices(f int) [3]lin.V3 {
	var corners [3]lin.V3
	if mod, ok := m.mods[f]; ok && len(mod.Vertices) == 3 {
		copy(corners[:], mod.Vertices)
		return corners
	}
	for i := 0; i < 3; i++ {
		corners[i] = m.verts[m.faces[f*3+i]]
	}
	return corners
}

// FaceCenter returns the centroid of face f.
func (m *Mesh) FaceCenter(f int) lin.V3 {
	corners := m.FaceVertices(f)
	c := lin.V3{}
	c.Add(&corners[0], &corners[1])
	c.Add(&c, &corners[2])
	return *c.Div(3)
}

// FaceNormal returns the unit normal of face f. Degenerate faces
// return the zero vector.
func (m *Mesh) FaceNormal(f int) lin.V3 {
	corners := m.FaceVertices(f)
	ab, ac := lin.V3{}, lin.V3{}
	ab.Sub(&corners[1], &corners[0])
	ac.Sub(&corners[2], &corners[0])
	normal := lin.V3{}
	return *normal.Cross(&ab, &ac).Unit()
}

// state machine
// =============================================================================

// InvalidatedFaces returns the faces affected by obstacle and
// destruction changes since the last ClearInvalidated. The set is a
// signal for higher layers with path or visibility caches; the mesh
// never touches those caches itself.
func (m *Mesh) InvalidatedFaces() []int {
	faces := make([]int, 0, len(m.invalidated))
	for f := range m.invalidated {
		faces = append(faces, f)
	}
	return faces
}

// ClearInvalidated empties the invalidated face set once consumers
// have reacted to it.
func (m *Mesh) ClearInvalidated() { m.invalidated = map[int]bool{} }

// NeedsRebuild reports whether obstacle or destruction changes have
// outdated derived data since the last MarkRebuilt.
func (m *Mesh) NeedsRebuild() bool { return m.meshDirty }

// MarkRebuilt clears the rebuild flag after the caller has refreshed
// whatever it derives from the mesh.
func (m *Mesh) MarkRebuilt() { m.meshDirty = false }

// invalidate records face f in the invalidated set.
func (m *Mesh) invalidate(f int) { m.invalidated[f] = true }
