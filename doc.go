// Copyright © 2024-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package odyssey is a toolkit for the model and walkmesh assets of
// the Odyssey era BioWare engines, plus the runtime navigation layer
// built on top of them.
//
// The packages, leaf first:
//
//	math/lin : vectors, quaternions, axis aligned boxes.
//	ai       : A* path finding over an application graph.
//	load     : binary codecs; the mdl/mdx model reader and writer
//	           and the bwm walkmesh reader and writer.
//	nav      : navigation meshes built from walkmesh data; spatial
//	           queries, dynamic obstacles, destructible faces, cover
//	           points, and tactical path finding.
//
// Data flows raw bytes -> load -> data model, and data model -> load
// -> bytes for the writers. Parsed walkmeshes flow into nav meshes;
// nav meshes plus the dynamic overlay answer the path queries.
package odyssey
