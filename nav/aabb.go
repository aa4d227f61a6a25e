// Copyright © 2024-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package nav

// aabb.go builds and queries the axis aligned box tree over mesh
// faces. The tree splits top-down on the longest axis midpoint with a
// median fallback when every centroid lands on one side, giving one
// leaf per face.

import (
	"math"
	"sort"
	"time"

	"github.com/gazed/odyssey/math/lin"
)

// treeMaxDepth bounds recursion; deeper sets become leaves.
const treeMaxDepth = 32

// nearbyFaceCap bounds radius query results.
const nearbyFaceCap = 10

// treeNode is one box of the face tree. Leaves carry a face index,
// interior nodes -1.
type treeNode struct {
	box         lin.Abox
	left, right *treeNode
	face        int32
}

// rebuildTree rebuilds the box tree over every face, recording the
// build time for callers that profile.
func (m *Mesh) rebuildTree() {
	start := time.Now()
	if len(m.materials) == 0 {
		m.tree = nil
		return
	}
	faces := make([]int32, len(m.materials))
	for i := range faces {
		faces[i] = int32(i)
	}
	m.tree = m.buildTree(faces, 0)
	m.Timing.TreeBuild += time.Since(start)
	m.Timing.TreeBuilds++
}

// buildTree recursively partitions the face set.
func (m *Mesh) buildTree(faces []int32, depth int) *treeNode {
	node := &treeNode{face: -1}
	node.box = *lin.NewAbox()
	for _, f := range faces {
		corners := m.FaceVertices(int(f))
		for i := range corners {
			node.box.Extend(&corners[i])
		}
	}
	if len(faces) == 1 || depth >= treeMaxDepth {
		node.face = faces[0]
		return node
	}

	// split on the longest axis midpoint.
	axis := node.box.LongestAxis()
	mid := axisValue(node.box.Center(&lin.V3{}), axis)
	var left, right []int32
	for _, f := range faces {
		center := m.FaceCenter(int(f))
		if axisValue(&center, axis) < mid {
			left = append(left, f)
		} else {
			right = append(right, f)
		}
	}

	// median fallback when every centroid lands on one side.
	if len(left) == 0 || len(right) == 0 {
		sort.Slice(faces, func(i, j int) bool {
			ci, cj := m.FaceCenter(int(faces[i])), m.FaceCenter(int(faces[j]))
			return axisValue(&ci, axis) < axisValue(&cj, axis)
		})
		half := len(faces) / 2
		left, right = faces[:half], faces[half:]
	}
	node.left = m.buildTree(left, depth+1)
	node.right = m.buildTree(right, depth+1)
	return node
}

func axisValue(v *lin.V3, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}

// tree build
// =============================================================================
// tree queries

// faceAt2D returns the first face whose ground plane footprint
// contains the point, or -1. Trees are descended by 2D extent; meshes
// without a tree scan every face.
func (m *Mesh) faceAt2D(p *lin.V3) int {
	if m.tree == nil {
		for f := 0; f < len(m.materials); f++ {
			corners := m.FaceVertices(f)
			if pointInTriangle2D(p, &corners[0], &corners[1], &corners[2]) {
				return f
			}
		}
		return -1
	}
	return m.treeFaceAt2D(m.tree, p)
}

func (m *Mesh) treeFaceAt2D(n *treeNode, p *lin.V3) int {
	if n == nil || !n.box.Contains2D(p) {
		return -1
	}
	if n.face >= 0 {
		corners := m.FaceVertices(int(n.face))
		if pointInTriangle2D(p, &corners[0], &corners[1], &corners[2]) {
			return int(n.face)
		}
		return -1
	}
	if f := m.treeFaceAt2D(n.left, p); f >= 0 {
		return f
	}
	return m.treeFaceAt2D(n.right, p)
}

// nearbyFaces returns up to ten faces whose centroid lies within
// radius r of the point on the ground plane.
func (m *Mesh) nearbyFaces(p *lin.V3, r float64) []int {
	var found []int
	if m.tree == nil {
		for f := 0; f < len(m.materials) && len(found) < nearbyFaceCap; f++ {
			center := m.FaceCenter(f)
			if center.Dist2D(p) <= r {
				found = append(found, f)
			}
		}
		return found
	}
	m.treeNearby(m.tree, p, r, &found)
	return found
}

func (m *Mesh) treeNearby(n *treeNode, p *lin.V3, r float64, found *[]int) {
	if n == nil || len(*found) >= nearbyFaceCap {
		return
	}
	center := n.box.Center(&lin.V3{})
	if center.Dist2D(p) > r*lin.Sqrt2+boxRadius2D(&n.box) {
		return
	}
	if n.face >= 0 {
		faceCenter := m.FaceCenter(int(n.face))
		if faceCenter.Dist2D(p) <= r {
			*found = append(*found, int(n.face))
		}
		return
	}
	m.treeNearby(n.left, p, r, found)
	m.treeNearby(n.right, p, r, found)
}

// boxRadius2D is half the ground plane diagonal of a box, the furthest
// its contents can sit from its centroid.
func boxRadius2D(b *lin.Abox) float64 {
	dx, dy := (b.Lx-b.Sx)*0.5, (b.Ly-b.Sy)*0.5
	return math.Sqrt(dx*dx + dy*dy)
}

// treeRaycast finds the nearest face hit along the ray within tMax,
// ignoring faces the skip predicate rejects.
func (m *Mesh) treeRaycast(n *treeNode, origin, dir *lin.V3, tMax float64, skip func(int) bool) (float64, int) {
	if n == nil {
		return 0, -1
	}
	entry, hit := n.box.Ray(origin, dir)
	if !hit || entry > tMax {
		return 0, -1
	}
	if n.face >= 0 {
		if skip != nil && skip(int(n.face)) {
			return 0, -1
		}
		corners := m.FaceVertices(int(n.face))
		if t, ok := rayTriangle(origin, dir, &corners[0], &corners[1], &corners[2]); ok && t <= tMax {
			return t, int(n.face)
		}
		return 0, -1
	}
	lt, lf := m.treeRaycast(n.left, origin, dir, tMax, skip)
	rt, rf := m.treeRaycast(n.right, origin, dir, tMax, skip)
	switch {
	case lf < 0:
		return rt, rf
	case rf < 0:
		return lt, lf
	case lt <= rt:
		return lt, lf
	}
	return rt, rf
}
