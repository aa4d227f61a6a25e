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

// walledFloor is a 2x2 dirt floor with a chest high wall along y=1
// facing the lower half.
func walledFloor() *Mesh {
	wm := &load.Walkmesh{
		Type: load.WalkmeshArea,
		Vertices: []f32.Vec3{
			{0, 0, 0}, {2, 0, 0}, {2, 2, 0}, {0, 2, 0}, // floor corners.
			{0, 1, 0}, {2, 1, 0}, {0, 1, 1.5}, {2, 1, 1.5}, // wall corners.
		},
		Faces: []load.WalkFace{
			{Indices: [3]uint32{0, 1, 2}, Material: SurfaceDirt},
			{Indices: [3]uint32{0, 2, 3}, Material: SurfaceDirt},
			{Indices: [3]uint32{4, 5, 7}, Material: SurfaceNonWalk},
			{Indices: [3]uint32{4, 7, 6}, Material: SurfaceNonWalk},
		},
	}
	return FromWalkmesh(wm, nil)
}

// Wall-like faces spawn cover points on the walkable floor beside
// them, sorted best first.
func TestCoverFromWalls(t *testing.T) {
	m := walledFloor()
	points := m.FindCoverPoints(&lin.V3{X: 1, Y: 1, Z: 0}, 5)
	require.NotEmpty(t, points, "a chest high wall provides cover")
	for i, cp := range points {
		assert.GreaterOrEqual(t, cp.Quality, coverMinQuality, "point %d below the keep threshold", i)
		assert.InDelta(t, 1.5, cp.Height, 1e-6)
		assert.True(t, cp.Face >= 0)
		assert.Equal(t, -1, cp.Obstacle)
		if i > 0 {
			assert.True(t, points[i-1].Quality >= cp.Quality, "sorted by quality")
		}
	}
}

// Flat floors provide no cover.
func TestNoCoverOnOpenFloor(t *testing.T) {
	m := gridMesh(4)
	assert.Empty(t, m.FindCoverPoints(&lin.V3{X: 2, Y: 2, Z: 0}, 10))
}

// Standing obstacles spawn perimeter cover once they are tall enough.
func TestCoverFromObstacles(t *testing.T) {
	m := gridMesh(6)
	crate := Obstacle{
		ID:        4,
		Position:  lin.V3{X: 3, Y: 3, Z: 0},
		BoundsMin: lin.V3{X: 2.6, Y: 2.6, Z: 0},
		BoundsMax: lin.V3{X: 3.4, Y: 3.4, Z: 1.4},
		Height:    1.4,
		Active:    true,
	}
	m.RegisterObstacle(crate)
	points := m.FindCoverPoints(&lin.V3{X: 3, Y: 3, Z: 0}, 3)
	require.NotEmpty(t, points)
	fromCrate := 0
	for _, cp := range points {
		if cp.Obstacle == 4 {
			fromCrate++
			assert.Equal(t, -1, cp.Face)
		}
	}
	assert.True(t, fromCrate > 0, "the crate contributes cover points")

	// too short to duck behind: no cover.
	short := crate
	short.ID = 5
	short.Height = 0.4
	short.BoundsMax.Z = 0.4
	short.Position = lin.V3{X: 1, Y: 1, Z: 0}
	short.BoundsMin = lin.V3{X: 0.8, Y: 0.8, Z: 0}
	short.BoundsMax = lin.V3{X: 1.2, Y: 1.2, Z: 0.4}
	m.RegisterObstacle(short)
	for _, cp := range m.FindCoverPoints(&lin.V3{X: 1, Y: 1, Z: 0}, 1.5) {
		assert.NotEqual(t, 5, cp.Obstacle)
	}
}

// A point behind the wall is covered from threats beyond it and
// exposed from behind.
func TestProvidesCover(t *testing.T) {
	m := walledFloor()
	pos := &lin.V3{X: 1, Y: 0.7, Z: 0}
	behindWall := &lin.V3{X: 1, Y: 3, Z: 0}
	openSide := &lin.V3{X: 1, Y: -2, Z: 0}
	assert.True(t, m.ProvidesCover(pos, behindWall))
	assert.False(t, m.ProvidesCover(pos, openSide))
}

// Cover regenerates lazily after overlay changes.
func TestCoverRegeneration(t *testing.T) {
	m := gridMesh(6)
	assert.Empty(t, m.FindCoverPoints(&lin.V3{X: 3, Y: 3, Z: 0}, 5))
	builds := m.Timing.CoverBuilds

	crate := Obstacle{
		ID:        1,
		Position:  lin.V3{X: 3, Y: 3, Z: 0},
		BoundsMin: lin.V3{X: 2.6, Y: 2.6, Z: 0},
		BoundsMax: lin.V3{X: 3.4, Y: 3.4, Z: 1.4},
		Height:    1.4,
		Active:    true,
	}
	m.RegisterObstacle(crate)
	assert.NotEmpty(t, m.FindCoverPoints(&lin.V3{X: 3, Y: 3, Z: 0}, 5))
	assert.Equal(t, builds+1, m.Timing.CoverBuilds, "one rebuild after the change")

	// no further rebuilds while nothing changes.
	m.FindCoverPoints(&lin.V3{X: 3, Y: 3, Z: 0}, 5)
	assert.Equal(t, builds+1, m.Timing.CoverBuilds)
}
