// Copyright © 2013-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package lin

import (
	"math"
	"testing"
)

func TestInverseQ(t *testing.T) {
	q, qi, want := &Q{0.2, 0.4, 0.5, 0.7}, &Q{}, &Q{-0.2, -0.4, -0.5, 0.7}
	if !qi.Inv(q).Eq(want) {
		t.Errorf(format, q.Dump(), want.Dump())
	}
	if !q.Mult(q, qi).Unit().Aeq(QI) {
		t.Errorf(format, q.Dump(), QI.Dump())
	}
}

func TestNormalizeQ(t *testing.T) {
	q, want := &Q{1, 2, 3, 4}, &Q{0.1825742, 0.3651484, 0.5477226, 0.7302967}
	if !q.Unit().Aeq(want) {
		t.Errorf(format, q.Dump(), want.Dump())
	}
	q, want = &Q{0, 0, 0, 0}, &Q{0, 0, 0, 0}
	if !q.Unit().Eq(want) {
		t.Errorf(format, q.Dump(), want.Dump())
	}
}

func TestMultiplyQ(t *testing.T) {
	q, want := &Q{1, 2, 3, 4}, &Q{8, 16, 24, 2}
	if !q.Mult(q, q).Eq(want) {
		t.Errorf(format, q.Dump(), want.Dump())
	}
}

func TestAxisAngleQ(t *testing.T) {
	q, want := &Q{}, &Q{0.2588190, 0, 0, 0.9659258}
	if !q.SetAa(1, 0, 0, Rad(30)).Aeq(want) {
		t.Errorf(format, q.Dump(), want.Dump())
	}
	ax, ay, az, angle := q.Aa()
	if !Aeq(ax, 1) || !Aeq(ay, 0) || !Aeq(az, 0) || !Aeq(angle, Rad(30)) {
		t.Errorf("got axis %f %f %f angle %f", ax, ay, az, angle)
	}
}

// Any unit axis and angle must produce a unit quaternion.
func TestAxisAngleUnitQ(t *testing.T) {
	axes := []V3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {0.6, 0.8, 0}}
	for _, axis := range axes {
		for angle := 0.0; angle < PIx2; angle += 0.1 {
			q := NewQ().SetAa(axis.X, axis.Y, axis.Z, angle)
			if !Aeq(q.Len(), 1) {
				t.Errorf("axis %s angle %f length %f", axis.Dump(), angle, q.Len())
			}
		}
	}
}

func TestZeroAxisQ(t *testing.T) {
	q := NewQ().SetAa(0, 0, 0, Rad(45))
	if !q.Eq(QI) { // zero axis gives identity.
		t.Errorf(format, q.Dump(), QI.Dump())
	}
}

func TestNlerpQ(t *testing.T) {
	q, r, s := &Q{}, &Q{0, 0, 0, 1}, &Q{0, 0, 1, 0}
	if !Aeq(q.Nlerp(r, s, 0.5).Len(), 1) {
		t.Errorf("nlerp result is not unit length %f", q.Len())
	}
	if !Aeq(q.Z, math.Sqrt(0.5)) {
		t.Errorf("nlerp half way %s", q.Dump())
	}
}
