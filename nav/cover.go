// Copyright © 2024-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package nav

// cover.go generates tactical cover points from wall-like faces and
// standing obstacles. Generation is lazy: points are rebuilt the next
// time they are asked for after the overlay changed.

import (
	"math"
	"sort"
	"time"

	"github.com/gazed/odyssey/math/lin"
)

// Cover generation tuning. A face is wall-like when its normal is
// closer to horizontal than the wall threshold and it is tall enough
// to duck behind.
const (
	coverWallThreshold  = 0.707 // |normal z| below cos 45 degrees.
	coverMinWallHeight  = 0.8   // minimum wall rise in units.
	coverSampleSpacing  = 1.0   // sample step along wall edges.
	coverMinQuality     = 0.3   // keep threshold.
	coverHeightNorm     = 2.0   // full quality cover height.
	coverSupportRadius  = 2.0   // nearby support search radius.
	coverStandoff       = 0.3   // sample offset out from the surface.
	coverMinObstacle    = 1.0   // minimum obstacle height for cover.
	coverProtectDot     = 0.5   // alignment for a point to protect.
	coverProtectRadius  = 1.5   // how close a point must be to help.
)

// CoverPoint is a position adjacent to a wall-like surface or an
// obstacle, rated for how well it protects.
type CoverPoint struct {
	Position lin.V3
	Normal   lin.V3  // horizontal direction into the covering surface.
	Quality  float64 // 0..1.
	Height   float64 // cover height in units.
	Face     int     // source face, -1 for obstacle cover.
	Obstacle int     // source obstacle id, -1 for face cover.
}

// FindCoverPoints returns the cover points within radius r of center,
// best quality first and nearer points breaking ties. Cover is
// regenerated first if the overlay changed.
func (m *Mesh) FindCoverPoints(center *lin.V3, r float64) []CoverPoint {
	m.regenCover()
	var found []CoverPoint
	for _, cp := range m.cover {
		if cp.Position.Dist2D(center) <= r {
			found = append(found, cp)
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Quality != found[j].Quality {
			return found[i].Quality > found[j].Quality
		}
		return found[i].Position.Dist2D(center) < found[j].Position.Dist2D(center)
	})
	return found
}

// ProvidesCover reports whether a point near pos protects against a
// threat: some cover point close to pos must face the threat. Targets
// off the walkmesh are tested with the raw point.
func (m *Mesh) ProvidesCover(pos, threat *lin.V3) bool {
	m.regenCover()
	toThreat := lin.V3{}
	toThreat.Sub(threat, pos)
	toThreat.Z = 0
	if toThreat.AeqZ() {
		return false
	}
	toThreat.Unit()
	for i := range m.cover {
		cp := &m.cover[i]
		if cp.Position.Dist2D(pos) > coverProtectRadius {
			continue
		}
		if cp.Normal.Dot(&toThreat) > coverProtectDot {
			return true
		}
	}
	return false
}

// regenCover rebuilds the cover point list when flagged dirty.
func (m *Mesh) regenCover() {
	if !m.coverDirty && m.cover != nil {
		return
	}
	start := time.Now()
	var points []CoverPoint
	for f := 0; f < len(m.materials); f++ {
		points = m.faceCover(f, points)
	}
	for id, o := range m.obstacles {
		points = m.obstacleCover(id, o, points)
	}

	// second pass: support from neighbouring cover, then suppression
	// of points crowding a better one.
	for i := range points {
		support := 0
		for j := range points {
			if i != j && points[i].Position.Dist2D(&points[j].Position) <= coverSupportRadius {
				support++
			}
		}
		points[i].Quality += lin.Clamp(float64(support)/5, 0, 1) * 0.2
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Quality > points[j].Quality })
	kept := make([]CoverPoint, 0, len(points))
	for _, cp := range points {
		if cp.Quality < coverMinQuality {
			continue
		}
		crowded := false
		for i := range kept {
			if kept[i].Position.Dist2D(&cp.Position) < coverSampleSpacing/2 {
				crowded = true
				break
			}
		}
		if !crowded {
			kept = append(kept, cp)
		}
	}
	m.cover = kept
	m.coverDirty = false
	m.Timing.CoverBuild += time.Since(start)
	m.Timing.CoverBuilds++
}

// faceCover samples cover candidates along the edges of a wall-like
// face.
func (m *Mesh) faceCover(f int, points []CoverPoint) []CoverPoint {
	if m.faceDestroyed(f) {
		return points
	}
	normal := m.FaceNormal(f)
	if math.Abs(normal.Z) >= coverWallThreshold {
		return points
	}
	corners := m.FaceVertices(f)
	minZ := lin.Min3(corners[0].Z, corners[1].Z, corners[2].Z)
	maxZ := lin.Max3(corners[0].Z, corners[1].Z, corners[2].Z)
	height := maxZ - minZ
	if height < coverMinWallHeight {
		return points
	}

	// into-the-wall direction on the ground plane.
	into := lin.V3{X: -normal.X, Y: -normal.Y}
	if into.AeqZ() {
		return points
	}
	into.Unit()

	for edge := 0; edge < 3; edge++ {
		a, b := corners[edge], corners[(edge+1)%3]
		length := a.Dist2D(&b)
		steps := int(length/coverSampleSpacing) + 1
		for s := 0; s <= steps; s++ {
			sample := lin.V3{}
			sample.Lerp(&a, &b, float64(s)/float64(steps))
			sample.X -= into.X * coverStandoff
			sample.Y -= into.Y * coverStandoff
			projected, _, ok := m.Project(&sample)
			if !ok || !m.IsWalkable(&projected) {
				continue
			}
			quality := lin.Clamp(height/coverHeightNorm, 0, 1)*0.4 +
				(1-math.Abs(normal.Z))*0.3 +
				0.1 // walkable at point, by construction.
			points = append(points, CoverPoint{
				Position: projected,
				Normal:   into,
				Quality:  quality,
				Height:   height,
				Face:     f,
				Obstacle: -1,
			})
		}
	}
	return points
}

// obstacleCover samples eight perimeter directions around a standing
// obstacle tall enough to duck behind.
func (m *Mesh) obstacleCover(id int, o *Obstacle, points []CoverPoint) []CoverPoint {
	if !o.Active || o.Walkable {
		return points
	}
	height := o.Height
	if height == 0 {
		height = o.BoundsMax.Z - o.BoundsMin.Z
	}
	if height < coverMinObstacle {
		return points
	}
	radius := boxRadius2D(o.box()) + coverStandoff
	center := o.box().Center(&lin.V3{})
	for i := 0; i < 8; i++ {
		angle := float64(i) * lin.PIx2 / 8
		dir := lin.V3{X: math.Cos(angle), Y: math.Sin(angle)}
		sample := lin.V3{
			X: center.X + dir.X*radius,
			Y: center.Y + dir.Y*radius,
			Z: o.BoundsMin.Z,
		}
		projected, _, ok := m.Project(&sample)
		if !ok || !m.IsWalkable(&projected) {
			continue
		}
		into := lin.V3{}
		into.Neg(&dir)
		quality := lin.Clamp(height/coverHeightNorm, 0, 1)*0.4 + 0.3 + 0.1
		points = append(points, CoverPoint{
			Position: projected,
			Normal:   into,
			Quality:  quality,
			Height:   height,
			Face:     -1,
			Obstacle: id,
		})
	}
	return points
}
