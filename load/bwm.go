// Copyright © 2024-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package load

// bwm.go reads and writes the binary walkmesh format. Walkmeshes
// declare the walkable surfaces of an area, placeable, or door:
// vertices, triangle faces tagged with a surface material, per-edge
// adjacency, and for area meshes an axis aligned box tree over the
// faces. The navigation package turns this data into a queryable mesh.

import (
	"github.com/pkg/errors"
	"golang.org/x/image/math/f32"

	"github.com/gazed/odyssey/math/lin"
)

// bwmSignature starts every walkmesh file.
const bwmSignature = "BWM V1.0"

// bwmHeaderSize is the signature plus type, use position, and the
// array counts and offsets.
const bwmHeaderSize = 56

// WalkmeshType distinguishes the small placeable and door meshes from
// full area meshes. Only area meshes carry a box tree.
type WalkmeshType uint32

// The walkmesh types.
const (
	WalkmeshPlaceable WalkmeshType = 0 // Placeables and doors.
	WalkmeshArea      WalkmeshType = 1 // Area models.
)

// Walkmesh is a parsed binary walkmesh.
type Walkmesh struct {
	Type      WalkmeshType
	Position  lin.V3     // Use position for placeables and doors.
	Vertices  []f32.Vec3
	Faces     []WalkFace
	Adjacency [][3]int32 // neighbour*3+edge per edge, -1 for open.
	Tree      []WalkmeshTreeNode // Box tree, empty unless an area mesh.
}

// WalkFace is one walkmesh triangle with its surface material.
type WalkFace struct {
	Indices  [3]uint32
	Material uint32
}

// WalkmeshTreeNode is one box of the walkmesh face tree. Child links
// are indices into the flat node array, -1 for none; leaves carry a
// face index, interior nodes -1.
type WalkmeshTreeNode struct {
	Min, Max    f32.Vec3
	Left, Right int32
	FaceIndex   int32
	Plane       uint32
}

// decodeWalkmesh is the Bwm entry point.
func decodeWalkmesh(data []byte) (*Walkmesh, error) {
	r := newReader(data)
	sig := string(r.bytes(8))
	if r.err != nil {
		return nil, r.err
	}
	if sig != bwmSignature {
		return nil, errors.Wrapf(ErrMalformed, "bad walkmesh signature %q", sig)
	}
	wm := &Walkmesh{}
	wm.Type = WalkmeshType(r.u32())
	if r.err == nil && wm.Type != WalkmeshPlaceable && wm.Type != WalkmeshArea {
		return nil, errors.Wrapf(ErrUnsupported, "walkmesh type %d", wm.Type)
	}
	wm.Position = r.v3()
	vertexCount := int(r.u32())
	vertexOffset := int(r.u32())
	faceCount := int(r.u32())
	faceOffset := int(r.u32())
	materialOffset := int(r.u32())
	adjacencyOffset := int(r.u32())
	treeCount := int(r.u32())
	treeOffset := int(r.u32())
	if r.err != nil {
		return nil, r.err
	}

	r.seek(vertexOffset)
	for i := 0; i < vertexCount; i++ {
		wm.Vertices = append(wm.Vertices, r.vec3())
	}

	r.seek(faceOffset)
	for i := 0; i < faceCount; i++ {
		f := WalkFace{}
		f.Indices[0], f.Indices[1], f.Indices[2] = r.u32(), r.u32(), r.u32()
		wm.Faces = append(wm.Faces, f)
	}
	r.seek(materialOffset)
	for i := 0; i < faceCount; i++ {
		wm.Faces[i].Material = r.u32()
	}
	if r.err != nil {
		return nil, r.err
	}
	for fi, f := range wm.Faces {
		for _, v := range f.Indices {
			if int(v) >= vertexCount {
				return nil, errors.Wrapf(ErrMalformed, "face %d vertex %d exceeds %d vertices", fi, v, vertexCount)
			}
		}
	}

	r.seek(adjacencyOffset)
	for i := 0; i < faceCount; i++ {
		var adj [3]int32
		adj[0], adj[1], adj[2] = r.i32(), r.i32(), r.i32()
		for _, a := range adj {
			if a != -1 && (a < 0 || int(a) >= faceCount*3) {
				return nil, errors.Wrapf(ErrMalformed, "face %d adjacency %d out of range", i, a)
			}
		}
		wm.Adjacency = append(wm.Adjacency, adj)
	}

	r.seek(treeOffset)
	for i := 0; i < treeCount; i++ {
		n := WalkmeshTreeNode{}
		n.Min = r.vec3()
		n.Max = r.vec3()
		n.Left = r.i32()
		n.Right = r.i32()
		n.FaceIndex = r.i32()
		n.Plane = r.u32()
		wm.Tree = append(wm.Tree, n)
	}
	if r.err != nil {
		return nil, r.err
	}
	return wm, nil
}

// Encode serializes walkmesh wm, reproducing the layout the reader
// expects: header, vertices, face indices, materials, adjacency, and
// the optional box tree.
func (wm *Walkmesh) Encode() ([]byte, error) {
	if len(wm.Adjacency) != 0 && len(wm.Adjacency) != len(wm.Faces) {
		return nil, errors.Wrapf(ErrUnrepresentable,
			"adjacency for %d faces, have %d", len(wm.Faces), len(wm.Adjacency))
	}
	w := newWriter()
	w.raw([]byte(bwmSignature))
	w.u32(uint32(wm.Type))
	w.v3(wm.Position)

	at := bwmHeaderSize
	w.u32(uint32(len(wm.Vertices)))
	w.u32(uint32(at))
	at += 12 * len(wm.Vertices)
	w.u32(uint32(len(wm.Faces)))
	w.u32(uint32(at))
	at += 12 * len(wm.Faces)
	w.u32(uint32(at)) // materials.
	at += 4 * len(wm.Faces)
	w.u32(uint32(at)) // adjacency.
	at += 12 * len(wm.Faces)
	w.u32(uint32(len(wm.Tree)))
	w.u32(uint32(at)) // tree.

	for _, v := range wm.Vertices {
		w.vec3(v)
	}
	for _, f := range wm.Faces {
		w.u32(f.Indices[0])
		w.u32(f.Indices[1])
		w.u32(f.Indices[2])
	}
	for _, f := range wm.Faces {
		w.u32(f.Material)
	}
	for i := range wm.Faces {
		if len(wm.Adjacency) == 0 {
			w.i32(-1)
			w.i32(-1)
			w.i32(-1)
			continue
		}
		w.i32(wm.Adjacency[i][0])
		w.i32(wm.Adjacency[i][1])
		w.i32(wm.Adjacency[i][2])
	}
	for _, n := range wm.Tree {
		w.vec3(n.Min)
		w.vec3(n.Max)
		w.i32(n.Left)
		w.i32(n.Right)
		w.i32(n.FaceIndex)
		w.u32(n.Plane)
	}
	return w.bytes(), nil
}
