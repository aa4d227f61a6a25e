// Copyright © 2024-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package nav

// obstacle.go is the dynamic overlay on a static mesh: obstacles that
// appear and move at runtime, and destructible face modifications.
// Changes feed the invalidated face set so higher layers can drop
// their path and visibility caches; the mesh itself keeps serving
// queries against the updated state.

import (
	"math"

	"github.com/gazed/odyssey/math/lin"
)

// Change detection thresholds: movement or resizing below the delta
// is ignored, and affected faces are gathered from the obstacle bounds
// pushed out by the influence scale.
const (
	obstacleChangeDelta  = 0.1
	obstacleAffectScale  = 1.5
)

// Obstacle is a bounded region that affects walkability, line of
// sight, and path costs. Ids are chosen by the caller and stay stable
// across updates.
type Obstacle struct {
	ID              int
	Position        lin.V3
	BoundsMin       lin.V3
	BoundsMax       lin.V3
	Height          float64
	InfluenceRadius float64
	Active          bool
	Walkable        bool
	HasTopSurface   bool
}

// box returns the obstacle's bounding box.
func (o *Obstacle) box() *lin.Abox {
	return &lin.Abox{
		Sx: o.BoundsMin.X, Sy: o.BoundsMin.Y, Sz: o.BoundsMin.Z,
		Lx: o.BoundsMax.X, Ly: o.BoundsMax.Y, Lz: o.BoundsMax.Z,
	}
}

// obstacleChanged compares an obstacle against its previous state.
func obstacleChanged(prev, cur *Obstacle) bool {
	return prev.Position.Dist(&cur.Position) > obstacleChangeDelta ||
		prev.BoundsMin.Dist(&cur.BoundsMin) > obstacleChangeDelta ||
		prev.BoundsMax.Dist(&cur.BoundsMax) > obstacleChangeDelta ||
		math.Abs(prev.InfluenceRadius-cur.InfluenceRadius) > obstacleChangeDelta ||
		prev.Active != cur.Active ||
		prev.Walkable != cur.Walkable
}

// FaceModification marks a destructible change to one face: destroyed,
// or reshaped with replacement vertices. The face stays in the arrays;
// destruction only removes it from walkability and sight blocking.
type FaceModification struct {
	FaceID    int
	Destroyed bool
	Vertices  []lin.V3 // optional replacement corners, three when set.
	Time      float64  // caller supplied modification time.
}

// obstacle registry
// =============================================================================

// RegisterObstacle adds or replaces an obstacle, invalidating the
// faces it affects.
func (m *Mesh) RegisterObstacle(o Obstacle) {
	m.obstacles[o.ID] = &o
	m.invalidateObstacle(&o)
	m.prevObstacles[o.ID] = o
	m.markDirty()
}

// UpdateObstacle replaces an obstacle by id, invalidating faces from
// both its old and new states.
func (m *Mesh) UpdateObstacle(o Obstacle) {
	if prev, ok := m.obstacles[o.ID]; ok {
		m.invalidateObstacle(prev)
	}
	m.obstacles[o.ID] = &o
	m.invalidateObstacle(&o)
	m.prevObstacles[o.ID] = o
	m.markDirty()
}

// RemoveObstacle drops an obstacle, invalidating the faces it was
// affecting.
func (m *Mesh) RemoveObstacle(id int) {
	if prev, ok := m.obstacles[id]; ok {
		m.invalidateObstacle(prev)
		delete(m.obstacles, id)
		delete(m.prevObstacles, id)
		m.markDirty()
	}
}

// Obstacle returns the registered obstacle with the given id.
func (m *Mesh) Obstacle(id int) (Obstacle, bool) {
	if o, ok := m.obstacles[id]; ok {
		return *o, true
	}
	return Obstacle{}, false
}

// ObstacleCount returns the number of registered obstacles.
func (m *Mesh) ObstacleCount() int { return len(m.obstacles) }

// UpdateAll applies a batch of obstacle states in the supplied order
// with change detection: an obstacle is considered changed when it
// moved or resized by more than the delta, its influence changed, or
// its active or walkable flags flipped. Affected faces from both the
// previous and new states are invalidated; unchanged obstacles cost
// nothing.
func (m *Mesh) UpdateAll(obstacles []Obstacle) {
	for i := range obstacles {
		o := obstacles[i]
		prev, had := m.prevObstacles[o.ID]
		m.obstacles[o.ID] = &o
		if had && !obstacleChanged(&prev, &o) {
			continue
		}
		if had {
			m.invalidateObstacle(&prev)
		}
		m.invalidateObstacle(&o)
		m.prevObstacles[o.ID] = o
		m.markDirty()
	}
}

// invalidateObstacle records every face whose centroid or corner lies
// in the obstacle's bounds pushed outward by its influence.
func (m *Mesh) invalidateObstacle(o *Obstacle) {
	box := *o.box()
	box.Expand(o.InfluenceRadius * obstacleAffectScale)
	for f := 0; f < len(m.materials); f++ {
		center := m.FaceCenter(f)
		if box.Contains(&center) {
			m.invalidate(f)
			continue
		}
		corners := m.FaceVertices(f)
		for i := range corners {
			if box.Contains(&corners[i]) {
				m.invalidate(f)
				break
			}
		}
	}
}

// markDirty flags derived data for rebuild after an overlay change.
func (m *Mesh) markDirty() {
	m.meshDirty = true
	m.coverDirty = true
}

// destructible modifications
// =============================================================================

// ModifyFace records a destructible modification for one face.
func (m *Mesh) ModifyFace(mod FaceModification) {
	m.mods[mod.FaceID] = &mod
	m.invalidate(mod.FaceID)
	m.markDirty()
}

// Modification returns the destructible modification for a face.
func (m *Mesh) Modification(face int) (FaceModification, bool) {
	if mod, ok := m.mods[face]; ok {
		return *mod, true
	}
	return FaceModification{}, false
}

// CreateHole destroys every face whose centroid lies within radius of
// the center on the ground plane, typically after an explosion or a
// collapsing floor. Destroyed faces stay in the arrays but stop being
// walkable and stop blocking sight.
func (m *Mesh) CreateHole(center *lin.V3, radius float64, when float64) []int {
	var destroyed []int
	for f := 0; f < len(m.materials); f++ {
		faceCenter := m.FaceCenter(f)
		if faceCenter.Dist2D(center) > radius {
			continue
		}
		if mod, ok := m.mods[f]; ok {
			mod.Destroyed = true
			mod.Time = when
		} else {
			m.mods[f] = &FaceModification{FaceID: f, Destroyed: true, Time: when}
		}
		m.invalidate(f)
		destroyed = append(destroyed, f)
	}
	if len(destroyed) > 0 {
		m.markDirty()
	}
	return destroyed
}
