// Copyright © 2024-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package lin

// Box is the axis-aligned bounding box math needed by spatial indexes
// and overlap queries.

import "math"

// Abox is an axis aligned bounding box used with collision detection
// and spatial partitioning. Its size is implied by two opposite corners.
type Abox struct {
	Sx, Sy, Sz float64 // Smallest point.
	Lx, Ly, Lz float64 // Largest point.
}

// NewAbox returns an inverted box ready to be extended with points.
// Extending an inverted box with a single point gives a zero volume
// box holding exactly that point.
func NewAbox() *Abox {
	return &Abox{Large, Large, Large, -Large, -Large, -Large}
}

// SetS sets the box corners from the given values.
// The updated box a is returned.
func (a *Abox) SetS(sx, sy, sz, lx, ly, lz float64) *Abox {
	a.Sx, a.Sy, a.Sz, a.Lx, a.Ly, a.Lz = sx, sy, sz, lx, ly, lz
	return a
}

// Set (=, copy, clone) updates box a to match box b.
// The updated box a is returned.
func (a *Abox) Set(b *Abox) *Abox {
	a.Sx, a.Sy, a.Sz, a.Lx, a.Ly, a.Lz = b.Sx, b.Sy, b.Sz, b.Lx, b.Ly, b.Lz
	return a
}

// Eq (==) returns true if both corners of box a match those of box b.
func (a *Abox) Eq(b *Abox) bool {
	return a.Sx == b.Sx && a.Sy == b.Sy && a.Sz == b.Sz &&
		a.Lx == b.Lx && a.Ly == b.Ly && a.Lz == b.Lz
}

// Extend grows box a as necessary to include point p.
// The updated box a is returned.
func (a *Abox) Extend(p *V3) *Abox {
	a.Sx, a.Sy, a.Sz = math.Min(a.Sx, p.X), math.Min(a.Sy, p.Y), math.Min(a.Sz, p.Z)
	a.Lx, a.Ly, a.Lz = math.Max(a.Lx, p.X), math.Max(a.Ly, p.Y), math.Max(a.Lz, p.Z)
	return a
}

// Merge grows box a as necessary to include box b.
// The updated box a is returned.
func (a *Abox) Merge(b *Abox) *Abox {
	a.Sx, a.Sy, a.Sz = math.Min(a.Sx, b.Sx), math.Min(a.Sy, b.Sy), math.Min(a.Sz, b.Sz)
	a.Lx, a.Ly, a.Lz = math.Max(a.Lx, b.Lx), math.Max(a.Ly, b.Ly), math.Max(a.Lz, b.Lz)
	return a
}

// Expand pushes each face of box a outwards by the given margin.
// Negative margins shrink the box. The updated box a is returned.
func (a *Abox) Expand(margin float64) *Abox {
	a.Sx, a.Sy, a.Sz = a.Sx-margin, a.Sy-margin, a.Sz-margin
	a.Lx, a.Ly, a.Lz = a.Lx+margin, a.Ly+margin, a.Lz+margin
	return a
}

// Overlaps returns true if Abox a and b are intersecting. Returns false
// if Abox a and b are not intersecting or are just touching along one or
// more points, edges, or faces.
func (a *Abox) Overlaps(b *Abox) bool {
	return a.Lx > b.Sx && a.Sx < b.Lx && a.Ly > b.Sy && a.Sy < b.Ly && a.Lz > b.Sz && a.Sz < b.Lz
}

// Contains returns true if point p is inside or on the boundary of box a.
func (a *Abox) Contains(p *V3) bool {
	return p.X >= a.Sx && p.X <= a.Lx &&
		p.Y >= a.Sy && p.Y <= a.Ly &&
		p.Z >= a.Sz && p.Z <= a.Lz
}

// Contains2D returns true if point p is inside or on the boundary of
// box a when both are projected onto the ground plane.
func (a *Abox) Contains2D(p *V3) bool {
	return p.X >= a.Sx && p.X <= a.Lx && p.Y >= a.Sy && p.Y <= a.Ly
}

// Center updates vector c to be the center point of box a.
// The updated vector c is returned.
func (a *Abox) Center(c *V3) *V3 {
	return c.SetS((a.Sx+a.Lx)*0.5, (a.Sy+a.Ly)*0.5, (a.Sz+a.Lz)*0.5)
}

// LongestAxis returns 0, 1, or 2 for the x, y, or z axis with the
// largest extent.
func (a *Abox) LongestAxis() int {
	dx, dy, dz := a.Lx-a.Sx, a.Ly-a.Sy, a.Lz-a.Sz
	switch {
	case dx >= dy && dx >= dz:
		return 0
	case dy >= dz:
		return 1
	}
	return 2
}

// Ray intersects box a with the ray starting at origin in direction dir
// using the standard slab test. The entry distance along the ray and
// true are returned on a hit. Rays starting inside the box hit at
// distance 0. Axis parallel rays are handled explicitly so boundary
// origins do not produce 0 times infinity.
func (a *Abox) Ray(origin, dir *V3) (t float64, hit bool) {
	tmin, tmax := 0.0, Large
	mins := [3]float64{a.Sx, a.Sy, a.Sz}
	maxs := [3]float64{a.Lx, a.Ly, a.Lz}
	origins := [3]float64{origin.X, origin.Y, origin.Z}
	dirs := [3]float64{dir.X, dir.Y, dir.Z}
	for i := 0; i < 3; i++ {
		if dirs[i] == 0 {
			if origins[i] < mins[i] || origins[i] > maxs[i] {
				return 0, false
			}
			continue
		}
		inv := 1 / dirs[i]
		t0 := (mins[i] - origins[i]) * inv
		t1 := (maxs[i] - origins[i]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tmin, tmax = math.Max(tmin, t0), math.Min(tmax, t1)
		if tmax < tmin {
			return 0, false
		}
	}
	return tmin, true
}
