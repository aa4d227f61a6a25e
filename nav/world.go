// Copyright © 2024-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package nav

// world.go declares the optional game world callback used by tactical
// path finding. The mesh knows geometry; the world knows who is in it.
// Without a world the path finder falls back to a geometric threat
// heuristic.

import (
	"github.com/gazed/odyssey/math/lin"
)

// Entity is one game actor as seen by the path finder.
type Entity interface {
	Alive() bool               // False once dead or destroyed.
	Position() lin.V3          // World position.
	HostileTo(ref Entity) bool // Faction hostility against ref.
}

// World answers the two questions threat scoring asks: who is near a
// position, and can one position see another. Implementations usually
// delegate the sight check back to this mesh plus whatever dynamic
// geometry the game tracks.
type World interface {
	EntitiesInRadius(center *lin.V3, r float64) []Entity
	LineOfSight(a, b *lin.V3) bool
}

// SetWorld connects the mesh to a game world for threat aware path
// costs. The self entity is the agent paths are found for; hostility
// is judged against it. A nil world selects the heuristic fallback.
func (m *Mesh) SetWorld(w World, self Entity) {
	m.world = w
	m.self = self
}
