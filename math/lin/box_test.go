// Copyright © 2024-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package lin

import (
	"testing"
)

func TestOverlapsB(t *testing.T) {
	a, o := &Abox{0, 0, 0, 1, 1, 1}, &Abox{-1, -1, -1, 0.1, 0.1, 0.1}
	if !a.Overlaps(o) {
		t.Errorf("%+v should overlap %+v", a, o)
	}
	o = &Abox{2, 2, 2, 3, 3, 3}
	if a.Overlaps(o) {
		t.Errorf("%+v should not overlap %+v", a, o)
	}
	o = &Abox{1, 1, 1, 2, 2, 2} // touching is not overlapping.
	if a.Overlaps(o) {
		t.Errorf("%+v touches %+v", a, o)
	}
}

func TestExtendB(t *testing.T) {
	a := NewAbox().Extend(&V3{1, 2, 3})
	if !a.Eq(&Abox{1, 2, 3, 1, 2, 3}) {
		t.Errorf("first point gives a zero volume box %+v", a)
	}
	a.Extend(&V3{-1, 0, 5})
	if !a.Eq(&Abox{-1, 0, 3, 1, 2, 5}) {
		t.Errorf("got %+v", a)
	}
}

func TestContainsB(t *testing.T) {
	a := &Abox{0, 0, 0, 1, 1, 1}
	if !a.Contains(&V3{0.5, 0.5, 0.5}) || a.Contains(&V3{0.5, 0.5, 2}) {
		t.Errorf("contains failed for %+v", a)
	}
	if !a.Contains2D(&V3{0.5, 0.5, 99}) { // height ignored in 2D.
		t.Errorf("contains2D should ignore height")
	}
}

func TestLongestAxisB(t *testing.T) {
	if (&Abox{0, 0, 0, 3, 1, 1}).LongestAxis() != 0 {
		t.Errorf("expecting x axis")
	}
	if (&Abox{0, 0, 0, 1, 3, 1}).LongestAxis() != 1 {
		t.Errorf("expecting y axis")
	}
	if (&Abox{0, 0, 0, 1, 1, 3}).LongestAxis() != 2 {
		t.Errorf("expecting z axis")
	}
}

func TestRayB(t *testing.T) {
	a := &Abox{0, 0, 0, 1, 1, 1}
	if d, hit := a.Ray(&V3{0.5, 0.5, 2}, &V3{0, 0, -1}); !hit || !Aeq(d, 1) {
		t.Errorf("expecting hit at 1, got %f %t", d, hit)
	}
	if _, hit := a.Ray(&V3{0.5, 0.5, 2}, &V3{0, 0, 1}); hit {
		t.Errorf("ray pointing away should miss")
	}
	if d, hit := a.Ray(&V3{0.5, 0.5, 0.5}, &V3{0, 0, 1}); !hit || d != 0 {
		t.Errorf("ray inside box hits at 0, got %f %t", d, hit)
	}
}

func TestExpandCenterB(t *testing.T) {
	a := (&Abox{0, 0, 0, 1, 1, 1}).Expand(0.5)
	if !a.Eq(&Abox{-0.5, -0.5, -0.5, 1.5, 1.5, 1.5}) {
		t.Errorf("got %+v", a)
	}
	c := a.Center(&V3{})
	if !c.Eq(&V3{0.5, 0.5, 0.5}) {
		t.Errorf("got center %s", c.Dump())
	}
}
