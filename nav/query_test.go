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

// A point over a grass triangle is walkable and a downward ray hits
// the surface under it.
func TestWalkableAndRaycast(t *testing.T) {
	m := FromWalkmesh(triangleWalkmesh(), nil)
	assert.True(t, m.IsWalkable(&lin.V3{X: 0.25, Y: 0.25, Z: 0}))

	hit, face, ok := m.Raycast(&lin.V3{X: 0.25, Y: 0.25, Z: 1}, &lin.V3{Z: -1}, 2)
	require.True(t, ok)
	assert.Equal(t, 0, face)
	assert.True(t, hit.Aeq(&lin.V3{X: 0.25, Y: 0.25, Z: 0}), "hit at %s", hit.Dump())
}

// Raycasts through the box tree hit the surface, miss off the mesh,
// and respect the range limit.
func TestRaycastTree(t *testing.T) {
	m := gridMesh(4)
	require.NotNil(t, m.tree)
	origin := &lin.V3{X: 2.3, Y: 1.7, Z: 3}
	down := &lin.V3{Z: -1}
	hit, _, ok := m.Raycast(origin, down, 5)
	require.True(t, ok)
	assert.InDelta(t, 0.0, hit.Z, 1e-9)

	// a miss stays a miss.
	_, _, ok = m.Raycast(&lin.V3{X: 50, Y: 50, Z: 3}, down, 5)
	assert.False(t, ok)

	// range limits apply.
	_, _, ok = m.Raycast(origin, down, 2)
	assert.False(t, ok, "surface is beyond the ray limit")
}

// Projection drops a point to the supporting face and projecting the
// result lands on the same face.
func TestProjectIdempotent(t *testing.T) {
	m := gridMesh(4)
	p := &lin.V3{X: 1.3, Y: 2.6, Z: 1.2}
	projected, height, ok := m.Project(p)
	require.True(t, ok)
	assert.InDelta(t, 0.0, height, 1e-9)

	again, _, ok := m.Project(&projected)
	require.True(t, ok)
	assert.Equal(t, m.projectToFace(&projected), m.projectToFace(&again))
	assert.True(t, projected.Aeq(&again))
}

// Walkability rejects points too far above the surface or too far
// from any face.
func TestWalkableLimits(t *testing.T) {
	m := FromWalkmesh(triangleWalkmesh(), nil)
	assert.False(t, m.IsWalkable(&lin.V3{X: 0.25, Y: 0.25, Z: 5}), "too high above the surface")
	assert.False(t, m.IsWalkable(&lin.V3{X: 50, Y: 50, Z: 0}), "too far from any face")
}

// Unwalkable materials project but refuse walkability.
func TestWalkableMaterial(t *testing.T) {
	wm := triangleWalkmesh()
	wm.Faces[0].Material = SurfaceLava
	m := FromWalkmesh(wm, nil)
	_, _, ok := m.Project(&lin.V3{X: 0.25, Y: 0.25, Z: 0})
	assert.True(t, ok, "projection still works over lava")
	assert.False(t, m.IsWalkable(&lin.V3{X: 0.25, Y: 0.25, Z: 0}))
}

// Empty meshes answer every query with a sentinel instead of
// panicking.
func TestEmptyMesh(t *testing.T) {
	m := FromWalkmesh(&load.Walkmesh{Type: load.WalkmeshPlaceable}, nil)
	_, _, ok := m.Project(&lin.V3{})
	assert.False(t, ok)
	assert.False(t, m.IsWalkable(&lin.V3{}))
	_, _, ok = m.Raycast(&lin.V3{Z: 1}, &lin.V3{Z: -1}, 2)
	assert.False(t, ok)
	assert.True(t, m.LineOfSight(&lin.V3{}, &lin.V3{X: 1}))
	assert.Empty(t, m.FindCoverPoints(&lin.V3{}, 10))
	path := m.FindPath(&lin.V3{}, &lin.V3{X: 1})
	assert.True(t, path.BestEffort)
	assert.Empty(t, path.Points)
}

// Face lookup answers indexes or the invalid query error kind.
func TestFaceAt(t *testing.T) {
	m := FromWalkmesh(triangleWalkmesh(), nil)
	f, err := m.FaceAt(&lin.V3{X: 0.25, Y: 0.25, Z: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, f)
	f, err = m.FaceAt(&lin.V3{X: 5, Y: 5, Z: 0})
	require.NoError(t, err)
	assert.Equal(t, -1, f)

	empty := FromWalkmesh(&load.Walkmesh{}, nil)
	_, err = empty.FaceAt(&lin.V3{})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

// Degenerate triangles are zero area leaves whose projection falls
// back to the mean of the corner heights.
func TestDegenerateTriangle(t *testing.T) {
	wm := &load.Walkmesh{
		Type:     load.WalkmeshArea,
		Vertices: []f32.Vec3{{0, 0, 0}, {1, 0, 1}, {2, 0, 2}},
		Faces:    []load.WalkFace{{Indices: [3]uint32{0, 1, 2}, Material: SurfaceDirt}},
	}
	m := FromWalkmesh(wm, nil) // tree build must not divide by zero.
	corners := m.FaceVertices(0)
	assert.InDelta(t, 1.0, triangleHeight(&lin.V3{X: 1, Y: 0}, &corners[0], &corners[1], &corners[2]), 1e-9)
}

// An obstacle between two points blocks sight when solid and stops
// blocking when marked walkable.
func TestLineOfSightObstacle(t *testing.T) {
	m := FromWalkmesh(triangleWalkmesh(), nil)
	a, b := &lin.V3{X: 0, Y: 0, Z: 1}, &lin.V3{X: 2, Y: 0, Z: 1}
	assert.True(t, m.LineOfSight(a, b))

	wall := Obstacle{
		ID:        1,
		Position:  lin.V3{X: 1, Y: 0, Z: 1},
		BoundsMin: lin.V3{X: 0.9, Y: -1, Z: 0},
		BoundsMax: lin.V3{X: 1.1, Y: 1, Z: 2},
		Active:    true,
	}
	m.RegisterObstacle(wall)
	assert.False(t, m.LineOfSight(a, b), "solid wall blocks")

	wall.Walkable = true
	m.UpdateObstacle(wall)
	assert.True(t, m.LineOfSight(a, b), "walkable obstacles do not block")
}

// Destroyed faces stop blocking sight.
func TestLineOfSightDestruction(t *testing.T) {
	// a vertical wall face between the two points.
	wm := &load.Walkmesh{
		Type:     load.WalkmeshPlaceable,
		Vertices: []f32.Vec3{{1, -1, 0}, {1, 1, 0}, {1, 0, 2}},
		Faces:    []load.WalkFace{{Indices: [3]uint32{0, 1, 2}, Material: SurfaceNonWalk}},
	}
	m := FromWalkmesh(wm, nil)
	a, b := &lin.V3{X: 0, Y: 0, Z: 1}, &lin.V3{X: 2, Y: 0, Z: 1}
	assert.False(t, m.LineOfSight(a, b), "wall face blocks")

	m.ModifyFace(FaceModification{FaceID: 0, Destroyed: true})
	assert.True(t, m.LineOfSight(a, b), "destroyed faces do not block")
}

// Nearby face queries stay within their radius and their cap.
func TestNearbyFaces(t *testing.T) {
	m := gridMesh(6)
	found := m.nearbyFaces(&lin.V3{X: 3, Y: 3, Z: 0}, 1.5)
	assert.True(t, len(found) > 0)
	assert.True(t, len(found) <= nearbyFaceCap)
	for _, f := range found {
		center := m.FaceCenter(f)
		assert.True(t, center.Dist2D(&lin.V3{X: 3, Y: 3, Z: 0}) <= 1.5)
	}
}
