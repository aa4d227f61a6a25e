// Copyright © 2013-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package load reads and writes the binary asset formats used by the
// Odyssey era BioWare engines. Data is returned in an intermediate
// format that is close to how the data was stored on disk:
//	Data                       File            Likely Used For
//	------                     ------          ------------------
//	model node hierarchy     : file.mdl   --> rendered model, animations
//	per-vertex data streams  : file.mdx   --> rendered model mesh
//	walkable surface data    : file.wok   --> navigation mesh
//
// Models round-trip: writing a parsed model reproduces the original
// bytes for the documented KOTOR 1 and KOTOR 2 layouts. Walkmeshes are
// read for the navigation package and written mostly for tooling and
// test fixtures.
//
// Package load is provided as part of the odyssey asset toolkit.
package load

// Design Notes:
// All formats are little-endian. Model file offsets are relative to the
// start of model data, 12 bytes into the file, so offset 0 on disk is
// byte 12 of the buffer. Fixed width string fields are NUL padded.
// FUTURE: the ascii mdl dialect used by community tooling.

import (
	"io"

	"github.com/pkg/errors"
)

// Read failures are wrapped around one of the error kinds below so that
// callers can test with errors.Is while still seeing offset context.
var (
	// ErrTruncated marks input that ended before a structure could be read.
	ErrTruncated = errors.New("truncated input")

	// ErrMalformed marks an offset or count pointing outside the input.
	ErrMalformed = errors.New("malformed format")

	// ErrUnsupported marks a geometry type, node type, or controller
	// encoding outside the documented set.
	ErrUnsupported = errors.New("unsupported format")

	// ErrUnrepresentable marks in-memory data that cannot be serialized:
	// over-long names, attribute arrays disagreeing with vertex counts,
	// controller rows disagreeing with column counts.
	ErrUnrepresentable = errors.New("unrepresentable data")
)

// Mdl parses a binary model from the mdl file bytes and, when the model
// has meshes, the companion mdx file bytes. The returned model owns no
// part of the input buffers.
func Mdl(mdl, mdx []byte) (*Model, error) { return decodeModel(mdl, mdx) }

// ReadMdl reads both model files before parsing with Mdl.
// The readers are expected to be opened and closed by the caller.
func ReadMdl(r, rx io.Reader) (*Model, error) {
	mdl, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(ErrTruncated, err.Error())
	}
	mdx, err := io.ReadAll(rx)
	if err != nil {
		return nil, errors.Wrap(ErrTruncated, err.Error())
	}
	return Mdl(mdl, mdx)
}

// WriteMdl serializes model m for the given game variant, writing the
// model file to w and the vertex data file to wx.
func WriteMdl(w, wx io.Writer, m *Model, variant Variant) error {
	mdl, mdx, err := m.Encode(variant)
	if err != nil {
		return err
	}
	if _, err = w.Write(mdl); err != nil {
		return errors.Wrap(err, "mdl")
	}
	_, err = wx.Write(mdx)
	return errors.Wrap(err, "mdx")
}

// Bwm parses a binary walkmesh from the given bytes.
func Bwm(data []byte) (*Walkmesh, error) { return decodeWalkmesh(data) }

// ReadBwm reads the walkmesh file before parsing with Bwm.
// The Reader r is expected to be opened and closed by the caller.
func ReadBwm(r io.Reader) (*Walkmesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(ErrTruncated, err.Error())
	}
	return Bwm(data)
}

// WriteBwm serializes walkmesh wm to w.
func WriteBwm(w io.Writer, wm *Walkmesh) error {
	data, err := wm.Encode()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return errors.Wrap(err, "bwm")
}
