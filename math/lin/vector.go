// Copyright © 2013-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package lin

// Vector performs 3 or 4 element vector related math needed for 3D applications.

import (
	"fmt"
	"log"
	"math"
)

// V3 is a 3 element vector. This can also be used as a point.
type V3 struct {
	X float64 // increments as X moves to the right.
	Y float64 // increments as Y moves up from bottom left.
	Z float64 // increments as Z moves out of the screen (right handed view space).
}

// V4 is a 4 element vector. It can be used for points and directions where,
// as a point it would have W:1, and as a direction it would have W:0.
type V4 struct {
	X float64 // increments as X moves to the right.
	Y float64 // increments as Y moves up from bottom left.
	Z float64 // increments as Z moves out of the screen (right handed view space).
	W float64 // fourth dimension makes for nice 3D matrix math.
}

// Eq (==) returns true if each element in the vector v has the same value
// as the corresponding element in vector a.
func (v *V3) Eq(a *V3) bool {
	return v.Z == a.Z && v.Y == a.Y && v.X == a.X
}

// Eq (==) returns true if each element in the vector v has the same value
// as the corresponding element in vector a.
func (v *V4) Eq(a *V4) bool {
	return v.W == a.W && v.Z == a.Z && v.Y == a.Y && v.X == a.X
}

// Aeq (~=) almost-equals returns true if all the elements in vector v have
// essentially the same value as the corresponding elements in vector a.
// Used where a direct comparison is unlikely to return true due to floats.
func (v *V3) Aeq(a *V3) bool {
	return Aeq(v.X, a.X) && Aeq(v.Y, a.Y) && Aeq(v.Z, a.Z)
}

// AeqZ (~=) almost equals zero returns true if the square length of the vector
// is close enough to zero that it makes no difference.
func (v *V3) AeqZ() bool { return v.Dot(v) < Epsilon }

// GetS returns the float64 values of the vector.
func (v *V3) GetS() (x, y, z float64) { return v.X, v.Y, v.Z }

// GetS returns the float64 values of the vector.
func (v *V4) GetS() (x, y, z, w float64) { return v.X, v.Y, v.Z, v.W }

// SetS (=) sets the vector elements to the given values.
// The updated vector v is returned.
func (v *V3) SetS(x, y, z float64) *V3 {
	v.X, v.Y, v.Z = x, y, z
	return v
}

// SetS (=) sets the vector elements to the given values.
// The updated vector v is returned.
func (v *V4) SetS(x, y, z, w float64) *V4 {
	v.X, v.Y, v.Z, v.W = x, y, z, w
	return v
}

// Set (=, copy, clone) sets the elements of vector v to have the same values
// as the elements of vector a. The updated vector v is returned.
func (v *V3) Set(a *V3) *V3 {
	v.X, v.Y, v.Z = a.X, a.Y, a.Z
	return v
}

// Set (=, copy, clone) sets the elements of vector v to have the same values
// as the elements of vector a. The updated vector v is returned.
func (v *V4) Set(a *V4) *V4 {
	v.X, v.Y, v.Z, v.W = a.X, a.Y, a.Z, a.W
	return v
}

// Min updates the vector v elements to be the minimum of the corresponding
// elements from either vectors a or b. The updated vector v is returned.
func (v *V3) Min(a, b *V3) *V3 {
	v.X, v.Y, v.Z = math.Min(b.X, a.X), math.Min(b.Y, a.Y), math.Min(b.Z, a.Z)
	return v
}

// Max updates the vector v elements to be the maximum of the corresponding
// elements from either vectors a or b. The updated vector v is returned.
func (v *V3) Max(a, b *V3) *V3 {
	v.X, v.Y, v.Z = math.Max(b.X, a.X), math.Max(b.Y, a.Y), math.Max(b.Z, a.Z)
	return v
}

// Neg (-) sets vector v to be the negative values of vector a.
// The updated vector v is returned.
func (v *V3) Neg(a *V3) *V3 {
	v.X, v.Y, v.Z = -a.X, -a.Y, -a.Z
	return v
}

// Add (+) adds vectors a and b storing the results of the addition
// in vector v. The updated vector v is returned.
// It is safe to use the calling vector v as one or both of the parameters.
func (v *V3) Add(a, b *V3) *V3 {
	v.X, v.Y, v.Z = a.X+b.X, a.Y+b.Y, a.Z+b.Z
	return v
}

// Sub (-) subtracts vector b from vector a storing the results of the
// subtraction in vector v. The updated vector v is returned.
// It is safe to use the calling vector v as one or both of the parameters.
func (v *V3) Sub(a, b *V3) *V3 {
	v.X, v.Y, v.Z = a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return v
}

// Scale (*) each element of vector a by the given scalar s, storing the
// results in vector v. The updated vector v is returned.
func (v *V3) Scale(a *V3, s float64) *V3 {
	v.X, v.Y, v.Z = a.X*s, a.Y*s, a.Z*s
	return v
}

// Div (/= inverse-scale) divides each element in vector v by the given
// scalar value. The updated vector v is returned.
// Divide by zero is logged as a development error and v is not updated.
func (v *V3) Div(s float64) *V3 {
	if s == 0 {
		log.Printf("vector:V3.Div: division by zero")
		return v
	}
	s = 1 / s
	v.X, v.Y, v.Z = v.X*s, v.Y*s, v.Z*s
	return v
}

// Dot returns the dot product of vectors v and a.
func (v *V3) Dot(a *V3) float64 { return v.X*a.X + v.Y*a.Y + v.Z*a.Z }

// Dot returns the dot product of vectors v and a.
func (v *V4) Dot(a *V4) float64 { return v.X*a.X + v.Y*a.Y + v.Z*a.Z + v.W*a.W }

// Len returns the length of vector v. Note that the Dot of a vector
// with itself is the square of its length.
func (v *V3) Len() float64 { return math.Sqrt(v.Dot(v)) }

// LenSqr returns the length squared of vector v.
func (v *V3) LenSqr() float64 { return v.Dot(v) }

// Len returns the length of vector v.
func (v *V4) Len() float64 { return math.Sqrt(v.Dot(v)) }

// Dist returns the distance between vectors v and a when treated as points.
func (v *V3) Dist(a *V3) float64 { return math.Sqrt(v.DistSqr(a)) }

// DistSqr returns the distance squared between vectors v and a
// when treated as points.
func (v *V3) DistSqr(a *V3) float64 {
	dx, dy, dz := v.X-a.X, v.Y-a.Y, v.Z-a.Z
	return dx*dx + dy*dy + dz*dz
}

// Dist2D returns the distance between vectors v and a when treated
// as points on the ground plane, ignoring height.
func (v *V3) Dist2D(a *V3) float64 {
	dx, dy := v.X-a.X, v.Y-a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Unit normalizes vector v to have length 1.
// The updated vector v is returned. Vector v is not updated
// if its length is zero.
func (v *V3) Unit() *V3 {
	length := v.Len()
	if length != 0 {
		return v.Scale(v, 1/length)
	}
	return v
}

// Unit normalizes vector v to have length 1. Same behaviour as V3.Unit().
func (v *V4) Unit() *V4 {
	length := v.Len()
	if length != 0 {
		s := 1 / length
		v.X, v.Y, v.Z, v.W = v.X*s, v.Y*s, v.Z*s, v.W*s
	}
	return v
}

// Cross sets vector v to be the cross product of vectors a and b.
// The updated vector v is returned. It is safe to use the calling
// vector v as one or both of the parameters.
func (v *V3) Cross(a, b *V3) *V3 {
	x := a.Y*b.Z - a.Z*b.Y
	y := a.Z*b.X - a.X*b.Z
	z := a.X*b.Y - a.Y*b.X
	v.X, v.Y, v.Z = x, y, z
	return v
}

// Lerp updates vector v to be the linear interpolation between vectors
// a and b at the given ratio. The input vectors a and b are unchanged.
// The updated vector v is returned.
func (v *V3) Lerp(a, b *V3, ratio float64) *V3 {
	v.X = (b.X-a.X)*ratio + a.X
	v.Y = (b.Y-a.Y)*ratio + a.Y
	v.Z = (b.Z-a.Z)*ratio + a.Z
	return v
}

// Dump the vector to a string for debugging.
func (v *V3) Dump() string { return fmt.Sprintf("%+2.4f,%+2.4f,%+2.4f", v.X, v.Y, v.Z) }

// Dump the vector to a string for debugging.
func (v *V4) Dump() string {
	return fmt.Sprintf("%+2.4f,%+2.4f,%+2.4f,%+2.4f", v.X, v.Y, v.Z, v.W)
}

// methods above do not allocate memory.
// ============================================================================
// convenience functions for allocating vectors. Nothing else should allocate.

// NewV3 creates a new, all zero, 3D vector.
func NewV3() *V3 { return &V3{} }

// NewV3S creates a new 3D vector with the given values.
func NewV3S(x, y, z float64) *V3 { return &V3{x, y, z} }

// NewV4 creates a new, all zero, 4D vector.
func NewV4() *V4 { return &V4{} }

// NewV4S creates a new 4D vector with the given values.
func NewV4S(x, y, z, w float64) *V4 { return &V4{x, y, z, w} }
