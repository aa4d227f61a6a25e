// Copyright © 2024-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package nav

// surface.go defines the surface material table: which materials can
// be walked on and how much crossing them costs the path finder.
// The built-in table matches the stock games; projects with custom
// materials can override it from a yaml document.

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Surface materials from the walkmesh format.
const (
	SurfaceUndefined     uint32 = 0
	SurfaceDirt          uint32 = 1
	SurfaceObscuring     uint32 = 2
	SurfaceGrass         uint32 = 3
	SurfaceStone         uint32 = 4
	SurfaceWood          uint32 = 5
	SurfaceWater         uint32 = 6
	SurfaceNonWalk       uint32 = 7
	SurfaceTransparent   uint32 = 8
	SurfaceCarpet        uint32 = 9
	SurfaceMetal         uint32 = 10
	SurfacePuddles       uint32 = 11
	SurfaceSwamp         uint32 = 12
	SurfaceMud           uint32 = 13
	SurfaceLeaves        uint32 = 14
	SurfaceLava          uint32 = 15
	SurfaceBottomlessPit uint32 = 16
	SurfaceDeepWater     uint32 = 17
	SurfaceDoor          uint32 = 18
	SurfaceNonWalkGrass  uint32 = 19
	SurfaceSand          uint32 = 20
	SurfaceBareBones     uint32 = 21
	SurfaceStoneBridge   uint32 = 22
	SurfaceTrigger       uint32 = 30
)

// Surfaces is the walkability and path cost table keyed by surface
// material. It is pure data: two lookups with no global state beyond
// the stock defaults.
type Surfaces struct {
	walkable map[uint32]bool
	cost     map[uint32]float64
}

// DefaultSurfaces returns the stock material table.
func DefaultSurfaces() *Surfaces {
	s := &Surfaces{walkable: map[uint32]bool{}, cost: map[uint32]float64{}}
	for _, m := range []uint32{
		SurfaceDirt, SurfaceGrass, SurfaceStone, SurfaceWood, SurfaceWater,
		SurfaceCarpet, SurfaceMetal, SurfacePuddles, SurfaceSwamp, SurfaceMud,
		SurfaceLeaves, SurfaceBottomlessPit, SurfaceDoor, SurfaceSand,
		SurfaceBareBones, SurfaceStoneBridge, SurfaceTrigger,
	} {
		s.walkable[m] = true
	}
	for _, m := range []uint32{SurfaceWater, SurfacePuddles, SurfaceSwamp, SurfaceMud} {
		s.cost[m] = 1.5
	}
	s.cost[SurfaceBottomlessPit] = 10.0
	return s
}

// Walkable returns true if the material can be walked on.
func (s *Surfaces) Walkable(material uint32) bool { return s.walkable[material] }

// CostModifier returns the path cost multiplier for crossing the
// material: difficult surfaces cost more, everything else is 1.
func (s *Surfaces) CostModifier(material uint32) float64 {
	if cost, ok := s.cost[material]; ok {
		return cost
	}
	return 1.0
}

// surfaceConfig is the yaml override document. The yaml is string
// free so that material tables stay compact:
//	surfaces:
//	  - material: 6
//	    walkable: true
//	    cost: 1.5
type surfaceConfig struct {
	Surfaces []struct {
		Material uint32  `yaml:"material"`
		Walkable bool    `yaml:"walkable"`
		Cost     float64 `yaml:"cost"`
	} `yaml:"surfaces"`
}

// LoadSurfaces reads yaml material overrides on top of the stock
// table. Overridden materials replace their walkability; a non-zero
// cost replaces their cost modifier and a zero or missing cost resets
// it to 1.
func LoadSurfaces(data []byte) (*Surfaces, error) {
	cfg := surfaceConfig{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("surfaces: yaml %w", err)
	}
	s := DefaultSurfaces()
	for _, override := range cfg.Surfaces {
		s.walkable[override.Material] = override.Walkable
		if override.Cost != 0 {
			s.cost[override.Material] = override.Cost
		} else {
			delete(s.cost, override.Material)
		}
	}
	return s, nil
}
