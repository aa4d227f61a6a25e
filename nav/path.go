// Copyright © 2024-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package nav

// path.go routes over the face adjacency graph with the generic A*
// path finder. The edge cost is tactical: distance scaled by surface,
// pushed up near obstacles and exposed positions, pulled down near
// cover. Degraded results beat failure: an exhausted or impossible
// search returns a direct segment flagged best effort.

import (
	"math"
	"time"

	"github.com/gazed/odyssey/ai"
	"github.com/gazed/odyssey/math/lin"
)

// Path search tuning.
const (
	maxPathIterations   = 10000 // A* budget before degrading.
	threatSearchRadius  = 50.0  // world entity query radius.
	threatMaxPenalty    = 3.0   // per threat cost ceiling.
	threatCoverRelief   = 0.3   // penalty scale when covered.
	obstaclePathRadius  = 2.0   // obstacle cost influence.
	obstaclePathPenalty = 5.0   // obstacle cost at its center.
	coverBonusRadius    = 3.0   // cover attraction reach.
	coverBonusMax       = 2.0   // cover attraction ceiling.
	minEdgeCost         = 0.1   // edge cost floor.
)

// tempObstacleBase starts the reserved id range for the temporary
// obstacles of FindPathAroundObstacles.
const tempObstacleBase = -1 << 20

// Path is a route between two points. BestEffort marks degraded
// results: the endpoints could not be projected, the search budget ran
// out, or no route exists, in which case Points is the direct segment.
// On an empty mesh Points is empty.
type Path struct {
	Points     []lin.V3
	BestEffort bool
}

// Sphere is a temporary avoidance volume for FindPathAroundObstacles.
type Sphere struct {
	Center lin.V3
	Radius float64
}

// FindPath searches for a tactical route from start to goal over the
// walkable faces. Both endpoints are projected onto the mesh; start
// and goal on the same face short circuit to a two point path.
func (m *Mesh) FindPath(start, goal *lin.V3) Path {
	began := time.Now()
	defer func() {
		m.Timing.PathFind += time.Since(began)
		m.Timing.PathFinds++
	}()

	direct := Path{Points: []lin.V3{*start, *goal}, BestEffort: true}
	if len(m.materials) == 0 {
		return Path{BestEffort: true} // empty mesh, no route at all.
	}
	startFace := m.projectToFace(start)
	goalFace := m.projectToFace(goal)
	if startFace < 0 || goalFace < 0 {
		return direct
	}
	if startFace == goalFace {
		return Path{Points: []lin.V3{*start, *goal}}
	}

	graph := &faceGraph{m: m, start: *start, goal: *goal}
	var route []ai.Point
	if !ai.Find(graph, faceRef(startFace), faceRef(goalFace), &route, maxPathIterations) {
		return direct
	}
	if len(route) == 0 {
		return direct
	}

	// face centers between the endpoints, then line of sight smoothing.
	points := []lin.V3{*start}
	for _, p := range route[1 : len(route)-1] {
		points = append(points, m.FaceCenter(int(p.(faceRef))))
	}
	points = append(points, *goal)
	return Path{Points: m.smooth(points)}
}

// FindPathAroundObstacles is FindPath with extra avoidance volumes:
// each sphere becomes a temporary boxed obstacle in a reserved id
// range for the duration of the search and is unconditionally removed
// before returning.
func (m *Mesh) FindPathAroundObstacles(start, goal *lin.V3, spheres []Sphere) Path {
	temps := make([]Obstacle, 0, len(spheres))
	for i, s := range spheres {
		temps = append(temps, Obstacle{
			ID:              tempObstacleBase - i,
			Position:        s.Center,
			BoundsMin:       lin.V3{X: s.Center.X - s.Radius, Y: s.Center.Y - s.Radius, Z: s.Center.Z - s.Radius},
			BoundsMax:       lin.V3{X: s.Center.X + s.Radius, Y: s.Center.Y + s.Radius, Z: s.Center.Z + s.Radius},
			Height:          s.Radius * 2,
			InfluenceRadius: s.Radius,
			Active:          true,
		})
	}
	m.UpdateAll(temps)
	defer func() {
		for _, temp := range temps {
			m.RemoveObstacle(temp.ID)
		}
	}()
	return m.FindPath(start, goal)
}

// projectToFace resolves a point to its supporting static face.
func (m *Mesh) projectToFace(p *lin.V3) int {
	if f := m.faceAt2D(p); f >= 0 && !m.faceDestroyed(f) {
		return f
	}
	best, any := m.bestCandidate(p, func(c *candidate) bool { return c.face >= 0 })
	if !any {
		return -1
	}
	return best.face
}

// smooth drops intermediate waypoints whose neighbours can see each
// other, walking as far ahead as sight allows from each kept point.
func (m *Mesh) smooth(points []lin.V3) []lin.V3 {
	if len(points) <= 2 {
		return points
	}
	kept := []lin.V3{points[0]}
	at := 0
	for at < len(points)-1 {
		next := at + 1
		for look := len(points) - 1; look > next; look-- {
			if m.LineOfSight(&points[at], &points[look]) {
				next = look
				break
			}
		}
		kept = append(kept, points[next])
		at = next
	}
	return kept
}

// tactical cost
// =============================================================================

// faceRef adapts a face index to the path finder's point interface.
type faceRef int

// ID implements ai.Point.
func (f faceRef) ID() int64 { return int64(f) }

// faceGraph adapts the mesh adjacency to the ai search interfaces
// with the tactical cost function.
type faceGraph struct {
	m           *Mesh
	start, goal lin.V3
}

// Neighbours returns the walkable faces adjacent to the given face.
func (g *faceGraph) Neighbours(at ai.Point) []ai.Point {
	f := int(at.(faceRef))
	var pts []ai.Point
	for edge := 0; edge < 3; edge++ {
		if n := g.m.Adjacent(f, edge); n >= 0 && g.m.FaceWalkable(n) {
			pts = append(pts, faceRef(n))
		}
	}
	return pts
}

// Cost is the tactical edge cost from face a to its neighbour b.
func (g *faceGraph) Cost(a, b ai.Point) float64 {
	m := g.m
	from := m.FaceCenter(int(a.(faceRef)))
	to := m.FaceCenter(int(b.(faceRef)))
	cost := from.Dist(&to) * m.surfaces.CostModifier(m.Material(int(b.(faceRef))))
	cost += m.obstaclePenalty(&to)
	cost += m.threatExposure(&to, &g.start, &g.goal)
	cost -= m.coverBonus(&to)
	return math.Max(cost, minEdgeCost)
}

// Estimate is the straight line distance between face centers.
func (g *faceGraph) Estimate(a, b ai.Point) float64 {
	from := g.m.FaceCenter(int(a.(faceRef)))
	to := g.m.FaceCenter(int(b.(faceRef)))
	return from.Dist(&to)
}

// obstaclePenalty sums the active obstacles pressing on a position,
// each falling off linearly from its center.
func (m *Mesh) obstaclePenalty(c *lin.V3) float64 {
	penalty := 0.0
	for _, o := range m.obstacles {
		if !o.Active {
			continue
		}
		if d := o.Position.Dist2D(c); d < obstaclePathRadius {
			penalty += (1 - d/obstaclePathRadius) * obstaclePathPenalty
		}
	}
	return penalty
}

// threatExposure scores how dangerous a position is. With a world
// connected, every live hostile with clear sight of the position adds
// a distance scaled penalty, relieved when cover stands between.
// Without a world, positions near the midpoint of the route are
// penalized in proportion to route length as a stand-in for the open
// ground a route crosses, again relieved by cover.
func (m *Mesh) threatExposure(c, start, goal *lin.V3) float64 {
	if m.world != nil {
		exposure := 0.0
		for _, entity := range m.world.EntitiesInRadius(c, threatSearchRadius) {
			if !entity.Alive() {
				continue
			}
			if m.self != nil && !entity.HostileTo(m.self) {
				continue
			}
			pos := entity.Position()
			if !m.world.LineOfSight(&pos, c) {
				continue
			}
			penalty := threatMaxPenalty * (1 - pos.Dist(c)/threatSearchRadius)
			if m.ProvidesCover(c, &pos) {
				penalty *= threatCoverRelief
			}
			exposure += math.Max(penalty, 0)
		}
		return exposure
	}

	// geometric fallback.
	mid := lin.V3{}
	mid.Lerp(start, goal, 0.5)
	length := start.Dist(goal)
	half := length/2 + lin.Epsilon
	openness := 1 - mid.Dist2D(c)/half
	if openness <= 0 {
		return 0
	}
	penalty := openness * math.Min(length*0.1, threatMaxPenalty)
	if m.ProvidesCover(c, &mid) {
		penalty *= threatCoverRelief
	}
	return penalty
}

// coverBonus rewards positions close to good cover.
func (m *Mesh) coverBonus(c *lin.V3) float64 {
	m.regenCover()
	best := 0.0
	for i := range m.cover {
		cp := &m.cover[i]
		d := cp.Position.Dist2D(c)
		if d >= coverBonusRadius {
			continue
		}
		bonus := cp.Quality * (1 - d/coverBonusRadius) * coverBonusMax
		if bonus > best {
			best = bonus
		}
	}
	return best
}
