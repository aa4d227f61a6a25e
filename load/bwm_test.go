// Copyright © 2024-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package load

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/f32"
)

func squareBwm() *Walkmesh {
	return &Walkmesh{
		Type:     WalkmeshArea,
		Vertices: []f32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Faces: []WalkFace{
			{Indices: [3]uint32{0, 1, 2}, Material: 1},
			{Indices: [3]uint32{0, 2, 3}, Material: 3},
		},
		Adjacency: [][3]int32{
			{-1, -1, 1*3 + 0},
			{0*3 + 2, -1, -1},
		},
		Tree: []WalkmeshTreeNode{
			{Min: f32.Vec3{0, 0, 0}, Max: f32.Vec3{1, 1, 0}, Left: 1, Right: 2, FaceIndex: -1},
			{Min: f32.Vec3{0, 0, 0}, Max: f32.Vec3{1, 1, 0}, Left: -1, Right: -1, FaceIndex: 0},
			{Min: f32.Vec3{0, 0, 0}, Max: f32.Vec3{1, 1, 0}, Left: -1, Right: -1, FaceIndex: 1},
		},
	}
}

// Walkmeshes survive a write and read unchanged.
func TestBwmRoundTrip(t *testing.T) {
	wm := squareBwm()
	data, err := wm.Encode()
	require.NoError(t, err)
	parsed, err := Bwm(data)
	require.NoError(t, err)
	assert.Equal(t, wm, parsed)
}

// The reader and writer wrappers stream the same bytes.
func TestBwmReaderWriter(t *testing.T) {
	wm := squareBwm()
	buf := &bytes.Buffer{}
	require.NoError(t, WriteBwm(buf, wm))
	parsed, err := ReadBwm(buf)
	require.NoError(t, err)
	assert.Equal(t, wm, parsed)
}

// Bad signatures and types are rejected with their error kinds.
func TestBwmBadHeader(t *testing.T) {
	wm := squareBwm()
	data, err := wm.Encode()
	require.NoError(t, err)

	bad := append([]byte{}, data...)
	copy(bad, "XXX V9.9")
	_, err = Bwm(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))

	bad = append([]byte{}, data...)
	bad[8] = 9 // walkmesh type.
	_, err = Bwm(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupported))
}

// Truncation anywhere fails cleanly.
func TestBwmTruncated(t *testing.T) {
	data, err := squareBwm().Encode()
	require.NoError(t, err)
	for _, size := range []int{0, 7, 20, 60, len(data) - 4} {
		_, err := Bwm(data[:size])
		assert.Error(t, err, "size %d", size)
	}
}

// Face indices outside the vertex array are malformed.
func TestBwmBadIndices(t *testing.T) {
	wm := squareBwm()
	wm.Faces[0].Indices[1] = 99
	data, err := wm.Encode()
	require.NoError(t, err)
	_, err = Bwm(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}
