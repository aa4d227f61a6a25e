// Copyright © 2024-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package nav

// tactical.go scores standing positions for combat value: height
// advantage, nearby cover, flanking angles, chokepoints, and sight
// lines. Callers feed the results to whatever decides where units
// actually move.

import (
	"math"
	"sort"

	"github.com/gazed/odyssey/math/lin"
)

// Tactical sampling tuning.
const (
	tacticalGridSpacing   = 3.0  // grid step without mesh faces.
	tacticalMaxResults    = 50   // returned position cap.
	tacticalProbeRadius   = 2.0  // neighbourhood probe distance.
	tacticalSightDistance = 10.0 // visibility ray length.
	tacticalHighGround    = 1.5  // height delta for the high ground type.
	tacticalCoverNear     = 2.0  // cover distance for the cover type.
	tacticalNarrow        = 0.5  // narrowness for the chokepoint type.
	tacticalFlankAngle    = 0.6  // flank score for the flanking type.
)

// TacticalType names the primary feature of a tactical position.
type TacticalType int

// Tactical position types.
const (
	StandardPosition TacticalType = iota
	HighGroundPosition
	CoverPosition
	ChokepointPosition
	FlankingPosition
)

// TacticalPosition is one scored standing position.
type TacticalPosition struct {
	Position lin.V3
	Value    float64 // 0..1 composite tactical value.
	Type     TacticalType
}

// FindTacticalPositions samples and scores positions within radius of
// center. When the mesh has faces, candidates are face centers and
// edge midpoints; an empty mesh falls back to a grid. A non-nil threat
// position adds flanking scores against it. The best positions are
// returned, at most fifty, highest value first.
func (m *Mesh) FindTacticalPositions(center, threat *lin.V3, radius float64) []TacticalPosition {
	var candidates []lin.V3
	if len(m.materials) > 0 {
		seen := map[vertKey]bool{}
		push := func(p lin.V3) {
			key := quantize(&p)
			if !seen[key] && p.Dist2D(center) <= radius {
				seen[key] = true
				candidates = append(candidates, p)
			}
		}
		for f := 0; f < len(m.materials); f++ {
			if !m.FaceWalkable(f) {
				continue
			}
			push(m.FaceCenter(f))
			corners := m.FaceVertices(f)
			for edge := 0; edge < 3; edge++ {
				mid := lin.V3{}
				mid.Lerp(&corners[edge], &corners[(edge+1)%3], 0.5)
				push(mid)
			}
		}
	} else {
		for x := -radius; x <= radius; x += tacticalGridSpacing {
			for y := -radius; y <= radius; y += tacticalGridSpacing {
				candidates = append(candidates, lin.V3{X: center.X + x, Y: center.Y + y, Z: center.Z})
			}
		}
	}

	var positions []TacticalPosition
	for i := range candidates {
		if tp, ok := m.scorePosition(&candidates[i], center, threat); ok {
			positions = append(positions, tp)
		}
	}
	sort.SliceStable(positions, func(i, j int) bool { return positions[i].Value > positions[j].Value })
	if len(positions) > tacticalMaxResults {
		positions = positions[:tacticalMaxResults]
	}
	return positions
}

// scorePosition composes the tactical value of one candidate.
func (m *Mesh) scorePosition(p, center, threat *lin.V3) (TacticalPosition, bool) {
	if !m.IsWalkable(p) {
		return TacticalPosition{}, false
	}

	// height advantage against the query center and the local
	// neighbourhood mean.
	delta := p.Z - center.Z
	neighbourhood := m.neighbourhoodMean(p)
	highGround := lin.Clamp(delta/3, 0, 1)*0.5 + lin.Clamp((p.Z-neighbourhood)/2, 0, 1)*0.5

	// nearest cover.
	coverDist := math.MaxFloat64
	for _, cp := range m.FindCoverPoints(p, coverBonusRadius) {
		if d := cp.Position.Dist2D(p); d < coverDist {
			coverDist = d
		}
	}
	coverScore := 0.0
	if coverDist < coverBonusRadius {
		coverScore = 1 - coverDist/coverBonusRadius
	}

	// flanking angle against the threat, when known.
	flankScore := 0.0
	if threat != nil {
		toCenter := lin.V3{}
		toCenter.Sub(center, threat)
		toCandidate := lin.V3{}
		toCandidate.Sub(p, threat)
		toCenter.Z, toCandidate.Z = 0, 0
		if !toCenter.AeqZ() && !toCandidate.AeqZ() {
			cos := toCenter.Dot(&toCandidate) / (toCenter.Len() * toCandidate.Len())
			flankScore = math.Acos(lin.Clamp(cos, -1, 1)) / lin.PI
		}
	}

	// chokepoint: blocked direction count at the probe radius, with
	// narrowness refined over sixteen directions.
	blocked8 := m.blockedDirections(p, 8)
	narrowness := float64(m.blockedDirections(p, 16)) / 16
	chokeScore := 0.0
	if blocked8 >= 4 {
		chokeScore = narrowness
	}

	// visibility: open sight lines over sixteen directions.
	open := 0
	for i := 0; i < 16; i++ {
		angle := float64(i) * lin.PIx2 / 16
		target := lin.V3{
			X: p.X + math.Cos(angle)*tacticalSightDistance,
			Y: p.Y + math.Sin(angle)*tacticalSightDistance,
			Z: p.Z,
		}
		if m.LineOfSight(p, &target) {
			open++
		}
	}
	visibility := float64(open) / 16

	value := lin.Clamp(0.3*highGround+0.25*coverScore+0.2*chokeScore+
		0.15*flankScore+0.1*visibility, 0, 1)

	kind := StandardPosition
	switch {
	case delta >= tacticalHighGround:
		kind = HighGroundPosition
	case coverDist < tacticalCoverNear:
		kind = CoverPosition
	case narrowness > tacticalNarrow:
		kind = ChokepointPosition
	case flankScore > tacticalFlankAngle:
		kind = FlankingPosition
	}
	return TacticalPosition{Position: *p, Value: value, Type: kind}, true
}

// neighbourhoodMean samples the walkable height around a point in
// eight directions.
func (m *Mesh) neighbourhoodMean(p *lin.V3) float64 {
	total, count := 0.0, 0
	for i := 0; i < 8; i++ {
		angle := float64(i) * lin.PIx2 / 8
		probe := lin.V3{
			X: p.X + math.Cos(angle)*tacticalProbeRadius,
			Y: p.Y + math.Sin(angle)*tacticalProbeRadius,
			Z: p.Z,
		}
		if projected, _, ok := m.Project(&probe); ok {
			total += projected.Z
			count++
		}
	}
	if count == 0 {
		return p.Z
	}
	return total / float64(count)
}

// blockedDirections counts the probe directions that land on
// unwalkable ground.
func (m *Mesh) blockedDirections(p *lin.V3, directions int) int {
	blocked := 0
	for i := 0; i < directions; i++ {
		angle := float64(i) * lin.PIx2 / float64(directions)
		probe := lin.V3{
			X: p.X + math.Cos(angle)*tacticalProbeRadius,
			Y: p.Y + math.Sin(angle)*tacticalProbeRadius,
			Z: p.Z,
		}
		if !m.IsWalkable(&probe) {
			blocked++
		}
	}
	return blocked
}
