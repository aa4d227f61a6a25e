// Copyright © 2013-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package lin

import (
	"testing"
)

// Where applicable, tests check that the output vector can also be
// used as one of the input vectors.

func TestAddV(t *testing.T) {
	v, want := &V3{1, 2, 3}, &V3{2, 4, 6}
	if !v.Add(v, v).Eq(want) {
		t.Errorf(format, v.Dump(), want.Dump())
	}
}

func TestSubtractV(t *testing.T) {
	v, want := &V3{1, 2, 3}, &V3{0, 0, 0}
	if !v.Sub(v, v).Eq(want) {
		t.Errorf(format, v.Dump(), want.Dump())
	}
}

func TestScaleV(t *testing.T) {
	v, want := &V3{1, 2, 3}, &V3{2, 4, 6}
	if !v.Scale(v, 2).Eq(want) {
		t.Errorf(format, v.Dump(), want.Dump())
	}
}

func TestDivV(t *testing.T) {
	v, want := &V3{2, 4, 6}, &V3{1, 2, 3}
	if !v.Div(2).Eq(want) {
		t.Errorf(format, v.Dump(), want.Dump())
	}
	v, want = &V3{1, 2, 3}, &V3{1, 2, 3}
	if !v.Div(0).Eq(want) { // divide by zero leaves v unchanged.
		t.Errorf(format, v.Dump(), want.Dump())
	}
}

func TestDotV(t *testing.T) {
	v, a := &V3{1, 2, 3}, &V3{4, 5, 6}
	if v.Dot(a) != 32 {
		t.Errorf("dot product should be 32, got %f", v.Dot(a))
	}
}

func TestLenV(t *testing.T) {
	v := &V3{3, 4, 0}
	if v.Len() != 5 || v.LenSqr() != 25 {
		t.Errorf("expecting length 5, got %f", v.Len())
	}
}

func TestDistV(t *testing.T) {
	v, a := &V3{1, 1, 1}, &V3{1, 1, 5}
	if v.Dist(a) != 4 {
		t.Errorf("expecting distance 4, got %f", v.Dist(a))
	}
	if v.Dist2D(a) != 0 { // height is ignored on the ground plane.
		t.Errorf("expecting 2D distance 0, got %f", v.Dist2D(a))
	}
}

func TestUnitV(t *testing.T) {
	v, want := &V3{3, 4, 0}, &V3{0.6, 0.8, 0}
	if !v.Unit().Aeq(want) {
		t.Errorf(format, v.Dump(), want.Dump())
	}
	v, want = &V3{0, 0, 0}, &V3{0, 0, 0}
	if !v.Unit().Eq(want) { // zero vectors are not normalized.
		t.Errorf(format, v.Dump(), want.Dump())
	}
}

func TestCrossV(t *testing.T) {
	v, a, want := &V3{1, 0, 0}, &V3{0, 1, 0}, &V3{0, 0, 1}
	if !v.Cross(v, a).Eq(want) {
		t.Errorf(format, v.Dump(), want.Dump())
	}
}

func TestLerpV(t *testing.T) {
	v, a, b, want := &V3{}, &V3{0, 0, 0}, &V3{2, 4, 6}, &V3{1, 2, 3}
	if !v.Lerp(a, b, 0.5).Eq(want) {
		t.Errorf(format, v.Dump(), want.Dump())
	}
}

func TestMinMaxV(t *testing.T) {
	v, a, b := &V3{}, &V3{1, 5, 3}, &V3{4, 2, 6}
	if !v.Min(a, b).Eq(&V3{1, 2, 3}) {
		t.Errorf("bad min %s", v.Dump())
	}
	if !v.Max(a, b).Eq(&V3{4, 5, 6}) {
		t.Errorf("bad max %s", v.Dump())
	}
}
