// Copyright © 2024-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gazed/odyssey/math/lin"
)

func testObstacle(id int) Obstacle {
	return Obstacle{
		ID:              id,
		Position:        lin.V3{X: 2, Y: 2, Z: 0},
		BoundsMin:       lin.V3{X: 1.5, Y: 1.5, Z: 0},
		BoundsMax:       lin.V3{X: 2.5, Y: 2.5, Z: 1.5},
		Height:          1.5,
		InfluenceRadius: 0.5,
		Active:          true,
	}
}

// Registering then removing an obstacle restores the registry while
// leaving the invalidated set holding the affected faces.
func TestRegisterRemove(t *testing.T) {
	m := gridMesh(4)
	m.RegisterObstacle(testObstacle(7))
	assert.Equal(t, 1, m.ObstacleCount())
	assert.True(t, m.NeedsRebuild())
	affected := len(m.InvalidatedFaces())
	assert.True(t, affected > 0, "faces under the obstacle are invalidated")

	m.RemoveObstacle(7)
	assert.Equal(t, 0, m.ObstacleCount())
	_, ok := m.Obstacle(7)
	assert.False(t, ok)
	assert.True(t, len(m.InvalidatedFaces()) >= affected,
		"removal keeps the affected faces flagged for consumers")
}

// The invalidated set is a signal: it empties only when the consumer
// clears it.
func TestInvalidatedSignal(t *testing.T) {
	m := gridMesh(4)
	m.RegisterObstacle(testObstacle(1))
	require.NotEmpty(t, m.InvalidatedFaces())
	m.ClearInvalidated()
	assert.Empty(t, m.InvalidatedFaces())

	m.MarkRebuilt()
	assert.False(t, m.NeedsRebuild())
}

// UpdateAll only reacts to meaningful changes: small jitter is
// ignored, real movement and flag flips invalidate.
func TestUpdateAllChangeDetection(t *testing.T) {
	m := gridMesh(4)
	o := testObstacle(1)
	m.UpdateAll([]Obstacle{o})
	require.NotEmpty(t, m.InvalidatedFaces())
	m.ClearInvalidated()
	m.MarkRebuilt()

	// jitter below the delta is not a change.
	o.Position.X += 0.05
	m.UpdateAll([]Obstacle{o})
	assert.Empty(t, m.InvalidatedFaces())
	assert.False(t, m.NeedsRebuild())

	// real movement is.
	o.Position.X += 1.0
	o.BoundsMin.X += 1.0
	o.BoundsMax.X += 1.0
	m.UpdateAll([]Obstacle{o})
	assert.NotEmpty(t, m.InvalidatedFaces())
	assert.True(t, m.NeedsRebuild())
	m.ClearInvalidated()
	m.MarkRebuilt()

	// so is flipping the active flag in place.
	o.Active = false
	m.UpdateAll([]Obstacle{o})
	assert.NotEmpty(t, m.InvalidatedFaces())
}

// Holes destroy every face around the center and flag them for
// consumers; the faces stay in the arrays.
func TestCreateHole(t *testing.T) {
	m := gridMesh(4)
	faceCount := m.FaceCount()
	center := &lin.V3{X: 2, Y: 2, Z: 0}
	destroyed := m.CreateHole(center, 1.0, 12.5)
	require.NotEmpty(t, destroyed)
	assert.Equal(t, faceCount, m.FaceCount(), "destroyed faces stay in the arrays")

	invalidated := map[int]bool{}
	for _, f := range m.InvalidatedFaces() {
		invalidated[f] = true
	}
	for f := 0; f < m.FaceCount(); f++ {
		c := m.FaceCenter(f)
		if c.Dist2D(center) <= 1.0 {
			mod, ok := m.Modification(f)
			require.True(t, ok, "face %d inside the hole has a modification", f)
			assert.True(t, mod.Destroyed)
			assert.Equal(t, 12.5, mod.Time)
			assert.True(t, invalidated[f], "face %d is in the invalidated set", f)
			assert.False(t, m.FaceWalkable(f))
		}
	}
}

// Replacement vertices reshape a face for projection.
func TestModifiedVertices(t *testing.T) {
	m := FromWalkmesh(triangleWalkmesh(), nil)
	m.ModifyFace(FaceModification{
		FaceID: 0,
		Vertices: []lin.V3{
			{X: 0, Y: 0, Z: 0.5}, {X: 1, Y: 0, Z: 0.5}, {X: 0, Y: 1, Z: 0.5},
		},
	})
	_, height, ok := m.Project(&lin.V3{X: 0.25, Y: 0.25, Z: 0.5})
	require.True(t, ok)
	assert.InDelta(t, 0.5, height, 1e-9)
}

// Inactive obstacles do not project, block, or penalize.
func TestInactiveObstacle(t *testing.T) {
	m := FromWalkmesh(triangleWalkmesh(), nil)
	o := testObstacle(3)
	o.Active = false
	o.Position = lin.V3{X: 0.5, Y: 0, Z: 0}
	o.BoundsMin = lin.V3{X: 0.4, Y: -1, Z: 0}
	o.BoundsMax = lin.V3{X: 0.6, Y: 1, Z: 2}
	m.RegisterObstacle(o)
	assert.True(t, m.LineOfSight(&lin.V3{Z: 1}, &lin.V3{X: 2, Z: 1}))
	assert.Equal(t, 0.0, m.obstaclePenalty(&o.Position))
}
