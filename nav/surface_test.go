// Copyright © 2024-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The stock table matches the games: dirt walks, lava does not, and
// difficult surfaces cost more.
func TestDefaultSurfaces(t *testing.T) {
	s := DefaultSurfaces()
	for _, m := range []uint32{
		SurfaceDirt, SurfaceGrass, SurfaceStone, SurfaceWood, SurfaceWater,
		SurfaceCarpet, SurfaceMetal, SurfacePuddles, SurfaceSwamp, SurfaceMud,
		SurfaceLeaves, SurfaceBottomlessPit, SurfaceDoor, SurfaceSand,
		SurfaceBareBones, SurfaceStoneBridge, SurfaceTrigger,
	} {
		assert.True(t, s.Walkable(m), "material %d", m)
	}
	for _, m := range []uint32{SurfaceUndefined, SurfaceNonWalk, SurfaceLava, SurfaceDeepWater, SurfaceObscuring} {
		assert.False(t, s.Walkable(m), "material %d", m)
	}

	assert.Equal(t, 1.5, s.CostModifier(SurfaceWater))
	assert.Equal(t, 1.5, s.CostModifier(SurfacePuddles))
	assert.Equal(t, 1.5, s.CostModifier(SurfaceSwamp))
	assert.Equal(t, 1.5, s.CostModifier(SurfaceMud))
	assert.Equal(t, 10.0, s.CostModifier(SurfaceBottomlessPit))
	assert.Equal(t, 1.0, s.CostModifier(SurfaceDirt))
}

// Yaml overrides replace walkability and costs on top of the stock
// table.
func TestLoadSurfaces(t *testing.T) {
	doc := []byte(`
surfaces:
  - material: 15
    walkable: true
    cost: 3.5
  - material: 1
    walkable: false
`)
	s, err := LoadSurfaces(doc)
	require.NoError(t, err)
	assert.True(t, s.Walkable(SurfaceLava), "lava override")
	assert.Equal(t, 3.5, s.CostModifier(SurfaceLava))
	assert.False(t, s.Walkable(SurfaceDirt), "dirt override")
	assert.True(t, s.Walkable(SurfaceGrass), "stock entries survive")
}

// Bad yaml reports an error instead of a half built table.
func TestLoadSurfacesBadYaml(t *testing.T) {
	_, err := LoadSurfaces([]byte(":\n  - not yaml"))
	assert.Error(t, err)
}
