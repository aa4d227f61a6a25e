// Copyright © 2015-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package nav

// timing.go collects rebuild and search durations while a mesh is in
// use. The numbers give a rough idea; expect things to go slower with
// more faces, more obstacles, and longer paths. Applications are
// expected to read and zero these between frames or load screens.

import (
	"fmt"
	"time"
)

// Timing accumulates time spent in the expensive mesh operations.
type Timing struct {
	TreeBuild   time.Duration // Total box tree build time.
	TreeBuilds  int           // Number of tree builds.
	CoverBuild  time.Duration // Total cover regeneration time.
	CoverBuilds int           // Number of cover regenerations.
	PathFind    time.Duration // Total path search time.
	PathFinds   int           // Number of path searches.
}

// Zero all time and counter values.
func (t *Timing) Zero() {
	t.TreeBuild, t.TreeBuilds = 0, 0
	t.CoverBuild, t.CoverBuilds = 0, 0
	t.PathFind, t.PathFinds = 0, 0
}

// Dump current accumulated times in milliseconds.
func (t *Timing) Dump() {
	milliseconds := 1000.0
	fmt.Printf("tree:%2.4f #:%d cover:%2.4f #:%d path:%2.4f #:%d\n",
		t.TreeBuild.Seconds()*milliseconds, t.TreeBuilds,
		t.CoverBuild.Seconds()*milliseconds, t.CoverBuilds,
		t.PathFind.Seconds()*milliseconds, t.PathFinds)
}
