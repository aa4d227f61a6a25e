// Copyright © 2024-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/f32"

	"github.com/gazed/odyssey/load"
	"github.com/gazed/odyssey/math/lin"
)

// triangleWalkmesh is the single grass triangle used across the query
// and path tests.
func triangleWalkmesh() *load.Walkmesh {
	return &load.Walkmesh{
		Type:     load.WalkmeshPlaceable,
		Vertices: []f32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces:    []load.WalkFace{{Indices: [3]uint32{0, 1, 2}, Material: SurfaceGrass}},
	}
}

// squareWalkmesh is two dirt triangles covering the unit square with
// explicit adjacency across the shared diagonal.
func squareWalkmesh() *load.Walkmesh {
	return &load.Walkmesh{
		Type:     load.WalkmeshArea,
		Vertices: []f32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Faces: []load.WalkFace{
			{Indices: [3]uint32{0, 1, 2}, Material: SurfaceDirt},
			{Indices: [3]uint32{0, 2, 3}, Material: SurfaceDirt},
		},
		Adjacency: [][3]int32{
			{-1, -1, 1*3 + 0}, // edge v2-v0 meets face 1 edge 0.
			{0*3 + 2, -1, -1}, // edge v0-v2 meets face 0 edge 2.
		},
	}
}

// gridWalkmesh covers an n by n square with two triangles per cell.
// Adjacency is left open; merging stitches the shared edges.
func gridWalkmesh(n int, material uint32) *load.Walkmesh {
	wm := &load.Walkmesh{Type: load.WalkmeshArea}
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			wm.Vertices = append(wm.Vertices, f32.Vec3{float32(x), float32(y), 0})
		}
	}
	at := func(x, y int) uint32 { return uint32(y*(n+1) + x) }
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			wm.Faces = append(wm.Faces,
				load.WalkFace{Indices: [3]uint32{at(x, y), at(x+1, y), at(x+1, y+1)}, Material: material},
				load.WalkFace{Indices: [3]uint32{at(x, y), at(x+1, y+1), at(x, y+1)}, Material: material})
		}
	}
	return wm
}

// gridMesh is a stitched navigation mesh over gridWalkmesh.
func gridMesh(n int) *Mesh {
	return Merge([]*Mesh{FromWalkmesh(gridWalkmesh(n, SurfaceDirt), nil)})
}

// Ingest deduplicates vertices shared between faces and copies
// materials verbatim.
func TestFromWalkmesh(t *testing.T) {
	m := FromWalkmesh(squareWalkmesh(), nil)
	assert.Equal(t, 4, m.VertexCount(), "shared corners deduplicate")
	assert.Equal(t, 2, m.FaceCount())
	assert.Equal(t, SurfaceDirt, m.Material(0))
	assert.Equal(t, SurfaceDirt, m.Material(1))
	assert.Equal(t, 1, m.Adjacent(0, 2))
	assert.Equal(t, 0, m.Adjacent(1, 0))
	assert.Equal(t, -1, m.Adjacent(0, 0))
}

// A world offset moves vertices before deduplication so coincident
// room borders land on shared keys.
func TestFromWalkmeshOffset(t *testing.T) {
	m := FromWalkmesh(triangleWalkmesh(), &lin.V3{X: 10, Y: 20, Z: 0})
	assert.True(t, m.IsWalkable(&lin.V3{X: 10.25, Y: 20.25, Z: 0}))
	assert.False(t, m.IsWalkable(&lin.V3{X: 0.25, Y: 0.25, Z: 0}))
}

// Adjacency only ever links walkable faces.
func TestFromWalkmeshNonWalkAdjacency(t *testing.T) {
	wm := squareWalkmesh()
	wm.Faces[1].Material = SurfaceNonWalk
	m := FromWalkmesh(wm, nil)
	assert.Equal(t, -1, m.Adjacent(0, 2), "links into unwalkable faces are dropped")
}

// Merging a single mesh preserves faces, materials, and adjacency.
func TestMergeIdentity(t *testing.T) {
	single := FromWalkmesh(squareWalkmesh(), nil)
	merged := Merge([]*Mesh{single})
	assert.Equal(t, single.VertexCount(), merged.VertexCount())
	assert.Equal(t, single.FaceCount(), merged.FaceCount())
	for f := 0; f < single.FaceCount(); f++ {
		assert.Equal(t, single.Material(f), merged.Material(f))
		for edge := 0; edge < 3; edge++ {
			assert.Equal(t, single.Adjacent(f, edge), merged.Adjacent(f, edge))
		}
	}
}

// Two meshes sharing an edge by position stitch together during a
// merge: both directions of the shared edge link.
func TestMergeStitch(t *testing.T) {
	a := FromWalkmesh(&load.Walkmesh{
		Type:     load.WalkmeshArea,
		Vertices: []f32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces:    []load.WalkFace{{Indices: [3]uint32{0, 1, 2}, Material: SurfaceGrass}},
	}, nil)
	b := FromWalkmesh(&load.Walkmesh{
		Type:     load.WalkmeshArea,
		Vertices: []f32.Vec3{{1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Faces:    []load.WalkFace{{Indices: [3]uint32{0, 1, 2}, Material: SurfaceGrass}},
	}, nil)
	m := Merge([]*Mesh{a, b})
	require.Equal(t, 2, m.FaceCount())
	assert.Equal(t, 1, m.Adjacent(0, 1), "face 0 edge v1-v2 links face 1")
	assert.Equal(t, 0, m.Adjacent(1, 2), "face 1 edge v2-v0 links face 0")
}

// Every adjacency entry refers back to a matching edge: the linked
// edge's endpoints coincide with this edge's endpoints within a
// millimetre.
func TestAdjacencyConsistency(t *testing.T) {
	m := gridMesh(4)
	for f := 0; f < m.FaceCount(); f++ {
		for edge := 0; edge < 3; edge++ {
			entry := m.adjacency[f*3+edge]
			if entry == -1 {
				continue
			}
			require.True(t, entry >= 0 && int(entry) < 3*m.FaceCount())
			a := m.verts[m.faces[f*3+edge]]
			b := m.verts[m.faces[f*3+(edge+1)%3]]
			other, otherEdge := int(entry/3), int(entry%3)
			c := m.verts[m.faces[other*3+otherEdge]]
			d := m.verts[m.faces[other*3+(otherEdge+1)%3]]
			assert.Equal(t, quantizeEdge(&a, &b), quantizeEdge(&c, &d),
				"face %d edge %d does not share positions with face %d edge %d", f, edge, other, otherEdge)
		}
	}
}

// Stitched grids connect every cell: a path exists corner to corner.
func TestGridConnectivity(t *testing.T) {
	m := gridMesh(4)
	path := m.FindPath(&lin.V3{X: 0.2, Y: 0.2, Z: 0}, &lin.V3{X: 3.8, Y: 3.8, Z: 0})
	assert.False(t, path.BestEffort)
	assert.True(t, len(path.Points) >= 2)
}

// Levels merge along with the geometry.
func TestMergeLevels(t *testing.T) {
	a := FromWalkmesh(triangleWalkmesh(), nil)
	a.AddLevel(Level{ID: 1, BaseHeight: 5, HeightRange: 1, Surface: PlatformSurface, Walkable: true})
	m := Merge([]*Mesh{a})
	_, height, ok := m.Project(&lin.V3{X: 50, Y: 50, Z: 5.5})
	require.True(t, ok, "the level band survives the merge")
	assert.InDelta(t, 5.0, height, 1e-9)
}
