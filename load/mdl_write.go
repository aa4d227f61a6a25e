// Copyright © 2024-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package load

// mdl_write.go serializes models in three phases. Phase A builds the
// shadow data the headers need: the name table, node numbering,
// repacked controller floats, and derived type words. Phase B lays the
// file out top-down, model header through name table, animations, and
// the main node tree, computing each block's absolute offset as it is
// reached. Phase C interleaves per-vertex streams into the mdx buffer
// in the attribute order the bitmap describes. Reading the written
// bytes reproduces the model exactly.

import (
	"github.com/pkg/errors"
)

// Encode serializes model m for the given game variant, returning the
// model file bytes and the companion vertex data file bytes.
func (m *Model) Encode(variant Variant) (mdl, mdx []byte, err error) {
	e := &mdlEncoder{w: newWriter(), x: newWriter(), variant: variant}
	if err = e.model(m); err != nil {
		return nil, nil, err
	}
	return e.w.bytes(), e.x.bytes(), nil
}

// mdlEncoder tracks the output buffers and the shadow name table while
// a model serializes.
type mdlEncoder struct {
	w       *writer // model file.
	x       *writer // vertex data file.
	variant Variant
	names   []string
	nameAt  map[string]uint16
}

// rel converts an absolute buffer position to an on-disk offset
// relative to the start of model data.
func rel(pos int) uint32 { return uint32(pos - mdlDataStart) }

// model drives the three serialization phases.
func (e *mdlEncoder) model(m *Model) error {
	if m.Root == nil {
		return errors.Wrap(ErrUnrepresentable, "model has no root node")
	}

	// Phase A: shadow structures.
	e.collectNames(m)
	for _, name := range e.names {
		if len(name) > 32 {
			return errors.Wrapf(ErrUnrepresentable, "node name %q exceeds 32 bytes", name)
		}
	}
	if err := validateTree(m.Root); err != nil {
		return err
	}
	for _, a := range m.Animations {
		if err := validateTree(a.Root); err != nil {
			return err
		}
	}

	// Phase B: top level layout.
	w := e.w
	w.u32(0) // reserved.
	mdlSizeAt := w.len()
	w.u32(0) // model data size, patched last.
	mdxSizeAt := w.len()
	w.u32(0) // vertex data size, patched last.

	// geometry header.
	fp := modelFuncPtrs[e.variant]
	w.u32(fp[0])
	w.u32(fp[1])
	if err := w.str(m.Name, 32); err != nil {
		return err
	}
	rootAt := w.len()
	w.u32(0) // root node offset, patched when the tree is written.
	w.u32(uint32(countNodes(m.Root)))
	w.pad(24) // runtime array triples.
	w.u32(0)  // reference count.
	w.u8(geometryModel)
	w.pad(3)

	// model header.
	w.u8(uint8(m.Classification))
	w.u8(m.Subclassification)
	w.u8(0) // unknown.
	w.u8(b2u(m.Fog))
	w.u32(uint32(countNodes(m.Root)))
	animTripleAt := w.len()
	w.triple(0, len(m.Animations)) // offset patched below.
	w.u32(0)                       // parent model pointer.
	w.v3(m.BoundingMin)
	w.v3(m.BoundingMax)
	w.f32(m.Radius)
	w.f32(m.AnimationScale)
	if err := w.str(m.Supermodel, 32); err != nil {
		return err
	}

	// names header.
	namesRootAt := w.len()
	w.u32(0) // root node offset, patched with the geometry header.
	w.u32(0) // unused.
	w.u32(0) // model data size duplicate, patched last.
	w.u32(0) // vertex data size duplicate, patched last.
	nameTripleAt := w.len()
	w.triple(0, len(e.names)) // offset patched below.

	// name offset array then the packed names.
	w.putU32(nameTripleAt, rel(w.len()))
	nameArrayAt := w.len()
	for range e.names {
		w.u32(0)
	}
	for i, name := range e.names {
		w.putU32(nameArrayAt+4*i, rel(w.len()))
		w.raw([]byte(name))
		w.u8(0)
	}

	// animation offset array then each packed animation.
	w.putU32(animTripleAt, rel(w.len()))
	animArrayAt := w.len()
	for range m.Animations {
		w.u32(0)
	}
	for i, a := range m.Animations {
		w.putU32(animArrayAt+4*i, rel(w.len()))
		if err := e.animation(a); err != nil {
			return err
		}
	}

	// main node tree.
	rootPos := w.len()
	w.putU32(rootAt, rel(rootPos))
	w.putU32(namesRootAt, rel(rootPos))
	if err := e.node(m.Root, rel(rootPos), 0, numberNodes(m.Root)); err != nil {
		return err
	}

	// file sizes, also duplicated in the names header.
	w.putU32(mdlSizeAt, rel(w.len()))
	w.putU32(namesRootAt+8, rel(w.len()))
	w.putU32(mdxSizeAt, uint32(e.x.len()))
	w.putU32(namesRootAt+12, uint32(e.x.len()))
	return nil
}

// animation packs one animation header, its events, and its node tree.
func (e *mdlEncoder) animation(a *Animation) error {
	w := e.w
	fp := animFuncPtrs[e.variant]
	w.u32(fp[0])
	w.u32(fp[1])
	if err := w.str(a.Name, 32); err != nil {
		return err
	}
	rootAt := w.len()
	w.u32(0) // root node offset, patched below.
	w.u32(uint32(countNodes(a.Root)))
	w.pad(24)
	w.u32(0)
	w.u8(geometryAnimation)
	w.pad(3)
	w.f32(a.Length)
	w.f32(a.TransitionTime)
	if err := w.str(a.RootModel, 32); err != nil {
		return err
	}
	eventTripleAt := w.len()
	w.triple(0, len(a.Events))
	w.u32(0) // unused.

	// events directly follow the animation header.
	if len(a.Events) > 0 {
		w.putU32(eventTripleAt, rel(w.len()))
	}
	for _, ev := range a.Events {
		w.f32(ev.ActivationTime)
		if err := w.str(ev.Name, 32); err != nil {
			return err
		}
	}

	if a.Root == nil {
		return errors.Wrapf(ErrUnrepresentable, "animation %q has no node tree", a.Name)
	}
	w.putU32(rootAt, rel(w.len()))
	return e.node(a.Root, rel(w.len()), 0, numberNodes(a.Root))
}

// node packs one node block: header, sub-headers, children offsets,
// controllers, controller data, auxiliary arrays, then each child
// block recursively.
func (e *mdlEncoder) node(n *Node, rootRel, parentRel uint32, numbering map[*Node]uint16) error {
	w := e.w
	nodeOff := w.len()
	flags := n.TypeFlags()

	// controller shadow data.
	descs, floats, err := repackControllers(n.Controllers)
	if err != nil {
		return errors.Wrapf(err, "node %q", n.Name)
	}

	// section positions inside this block.
	childrenPos := nodeOff + nodeHeaderSize + e.subheaderSize(flags)
	ctrlPos := childrenPos + 4*len(n.Children)
	dataPos := ctrlPos + controllerSize*len(descs)
	auxPos := dataPos + 4*len(floats)
	aux, err := e.planAux(n, flags, auxPos)
	if err != nil {
		return errors.Wrapf(err, "node %q", n.Name)
	}

	// node header.
	w.u16(flags)
	w.u16(numbering[n])
	w.u16(e.nameAt[n.Name])
	w.u16(0)
	w.u32(rootRel)
	w.u32(parentRel)
	w.v3(n.Position)
	w.quat(n.Orientation)
	w.triple(rel(childrenPos), len(n.Children))
	w.triple(rel(ctrlPos), len(descs))
	w.triple(rel(dataPos), len(floats))

	// sub-headers.
	if n.Light != nil {
		e.lightHeader(n.Light, aux)
	}
	if n.Emitter != nil {
		if err = e.emitterHeader(n.Emitter); err != nil {
			return err
		}
	}
	if n.Reference != nil {
		if err = e.referenceHeader(n.Reference); err != nil {
			return err
		}
	}
	if n.Mesh != nil {
		if err = e.meshHeader(n.Mesh, aux); err != nil {
			return errors.Wrapf(err, "node %q", n.Name)
		}
	}

	// children offset array, patched as each child block is written.
	childArrayAt := w.len()
	for range n.Children {
		w.u32(0)
	}

	// controller descriptors then the flat float data.
	for _, desc := range descs {
		w.u32(desc.ctype)
		w.u16(0xFFFF)
		w.u16(desc.rows)
		w.u16(desc.timeIndex)
		w.u16(desc.dataIndex)
		w.u8(desc.colByte)
		w.pad(3)
	}
	for _, f := range floats {
		w.f32(f)
	}

	// auxiliary arrays.
	if err = e.emitAux(n, aux); err != nil {
		return errors.Wrapf(err, "node %q", n.Name)
	}

	// child blocks.
	for i, kid := range n.Children {
		w.putU32(childArrayAt+4*i, rel(w.len()))
		if err = e.node(kid, rootRel, rel(nodeOff), numbering); err != nil {
			return err
		}
	}
	return nil
}

// shadow helpers
// =============================================================================

func b2u(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// collectNames builds the model name table: main tree names in depth
// first order, then any animation node names not already present.
func (e *mdlEncoder) collectNames(m *Model) {
	e.names = e.names[:0]
	e.nameAt = map[string]uint16{}
	add := func(n *Node) {
		if _, ok := e.nameAt[n.Name]; !ok {
			e.nameAt[n.Name] = uint16(len(e.names))
			e.names = append(e.names, n.Name)
		}
	}
	walkNodes(m.Root, add)
	for _, a := range m.Animations {
		walkNodes(a.Root, add)
	}
}

func walkNodes(n *Node, visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, kid := range n.Children {
		walkNodes(kid, visit)
	}
}

func countNodes(n *Node) int {
	count := 0
	walkNodes(n, func(*Node) { count++ })
	return count
}

// numberNodes assigns sequential node indices in depth first order.
func numberNodes(root *Node) map[*Node]uint16 {
	numbering := map[*Node]uint16{}
	walkNodes(root, func(n *Node) { numbering[n] = uint16(len(numbering)) })
	return numbering
}

// validateTree checks each mesh's attribute arrays against its vertex
// count before any bytes are written.
func validateTree(root *Node) error {
	var err error
	walkNodes(root, func(n *Node) {
		if err != nil || n.Mesh == nil {
			return
		}
		m := n.Mesh
		verts := len(m.Positions)
		check := func(length int, what string) {
			if err == nil && length != 0 && length != verts {
				err = errors.Wrapf(ErrUnrepresentable,
					"node %q %s length %d disagrees with %d vertices", n.Name, what, length, verts)
			}
		}
		check(len(m.Normals), "normal")
		check(len(m.UV1), "texture coordinate")
		check(len(m.UV2), "lightmap coordinate")
		check(len(m.Colors), "color")
		if len(m.Tangents) != 0 && len(m.Tangents) != 3*verts {
			err = errors.Wrapf(ErrUnrepresentable,
				"node %q tangent length %d disagrees with %d vertices", n.Name, len(m.Tangents), verts)
		}
		if s := m.Skin; s != nil {
			check(len(s.Weights), "bone weight")
			check(len(s.Indices), "bone index")
		}
		if dg := m.Dangly; dg != nil {
			check(len(dg.Constraints), "constraint")
			check(len(dg.Vertices), "constraint vertex")
		}
		for _, f := range m.Faces {
			for _, v := range f.Vertices {
				if err == nil && int(v) >= verts {
					err = errors.Wrapf(ErrUnrepresentable,
						"node %q face vertex %d exceeds %d vertices", n.Name, v, verts)
				}
			}
		}
	})
	return err
}

// controllerDesc is the shadow form of one 16 byte controller
// descriptor with its indices into the node's float data.
type controllerDesc struct {
	ctype     uint32
	rows      uint16
	timeIndex uint16
	dataIndex uint16
	colByte   uint8
}

// repackControllers rebuilds each controller's float data as all times
// followed by all row payloads, recording running positions in the
// per-node buffer.
func repackControllers(ctrls []*Controller) ([]controllerDesc, []float32, error) {
	var descs []controllerDesc
	var floats []float32
	for _, c := range ctrls {
		if c.Columns > 0x0F {
			return nil, nil, errors.Wrapf(ErrUnrepresentable, "controller %d has %d columns", c.Type, c.Columns)
		}
		cols := c.dataColumns()
		desc := controllerDesc{
			ctype:     c.Type,
			rows:      uint16(len(c.Rows)),
			timeIndex: uint16(len(floats)),
			colByte:   c.Columns,
		}
		if c.Bezier {
			desc.colByte |= bezierFlag
		}
		for _, row := range c.Rows {
			floats = append(floats, row.Time)
		}
		desc.dataIndex = uint16(len(floats))
		for _, row := range c.Rows {
			if len(row.Data) != cols {
				return nil, nil, errors.Wrapf(ErrUnrepresentable,
					"controller %d row has %d floats, want %d", c.Type, len(row.Data), cols)
			}
			floats = append(floats, row.Data...)
		}
		descs = append(descs, desc)
	}
	return descs, floats, nil
}

// layout planning
// =============================================================================

// subheaderSize totals the fixed sub-header bytes selected by a node's
// type flags.
func (e *mdlEncoder) subheaderSize(flags uint16) int {
	size := 0
	if flags&flagLight != 0 {
		size += lightSize
	}
	if flags&flagEmitter != 0 {
		size += emitterSize
	}
	if flags&flagReference != 0 {
		size += referenceSize
	}
	if flags&flagMesh != 0 {
		size += e.trimeshSize()
	}
	if flags&flagSkin != 0 {
		size += skinSize
	}
	if flags&flagDangly != 0 {
		size += danglySize
	}
	if flags&flagAABB != 0 {
		size += aabbSize
	}
	if flags&flagSaber != 0 {
		size += saberSize
	}
	if flags&flagAnim != 0 {
		size += animmeshSize
	}
	return size
}

func (e *mdlEncoder) trimeshSize() int {
	if e.variant == Kotor2 {
		return trimeshSizeK2
	}
	return trimeshSizeK1
}

// auxLayout records the absolute position of each auxiliary array in a
// node block so sub-headers can reference them before they are written.
type auxLayout struct {
	lightSizes, lightPositions, lightShifts, lightNames int
	idxCounts, idxOffsets, inverted                     int
	faceIdx, verts, faceRecs                            int
	boneMap, qBones, tBones                             int
	constraints, danglyVerts                            int
	treeRoot                                            int
	saberVerts, saberUVs, saberNormals                  int
	animVerts, animUVs                                  int
	end                                                 int
}

// pad4 rounds a byte count up to 4 byte alignment.
func pad4(n int) int { return (n + 3) &^ 3 }

// planAux assigns auxiliary array positions in emission order.
func (e *mdlEncoder) planAux(n *Node, flags uint16, at int) (*auxLayout, error) {
	aux := &auxLayout{}
	if l := n.Light; l != nil {
		aux.lightSizes = at
		at += 4 * len(l.FlareSizes)
		aux.lightPositions = at
		at += 4 * len(l.FlarePositions)
		aux.lightShifts = at
		at += 12 * len(l.FlareColorShift)
		aux.lightNames = at
		at += 32 * len(l.FlareTextures)
	}
	if m := n.Mesh; m != nil {
		faces, verts := len(m.Faces), len(m.Positions)
		if faces > 0 {
			aux.idxCounts = at
			at += 4
			aux.idxOffsets = at
			at += 4
			aux.inverted = at
			at += 4
			aux.faceIdx = at
			at += pad4(2 * 3 * faces)
		}
		aux.verts = at
		at += 12 * verts
		aux.faceRecs = at
		at += faceSize * faces
		if s := m.Skin; s != nil {
			aux.boneMap = at
			at += 4 * len(s.BoneMap)
			aux.qBones = at
			at += 16 * len(s.QBones)
			aux.tBones = at
			at += 12 * len(s.TBones)
		}
		if dg := m.Dangly; dg != nil {
			aux.constraints = at
			at += 4 * len(dg.Constraints)
			aux.danglyVerts = at
			at += 12 * len(dg.Vertices)
		}
		if wm := m.Walkmesh; wm != nil {
			aux.treeRoot = at
			at += treeNodeSize * wm.Root.count()
		}
		if s := m.Saber; s != nil {
			aux.saberVerts = at
			at += 12 * len(s.Vertices)
			aux.saberUVs = at
			at += 8 * len(s.UVs)
			aux.saberNormals = at
			at += 12 * len(s.Normals)
		}
		if am := m.Anim; am != nil {
			aux.animVerts = at
			at += 12 * len(am.Positions)
			aux.animUVs = at
			at += 8 * len(am.UVs)
		}
	}
	aux.end = at
	return aux, nil
}

// sub-header emission
// =============================================================================

func (e *mdlEncoder) lightHeader(l *Light, aux *auxLayout) {
	w := e.w
	w.f32(l.FlareRadius)
	w.u32(l.Unknown[0])
	w.u32(l.Unknown[1])
	w.u32(l.Unknown[2])
	w.triple(rel(aux.lightSizes), len(l.FlareSizes))
	w.triple(rel(aux.lightPositions), len(l.FlarePositions))
	w.triple(rel(aux.lightShifts), len(l.FlareColorShift))
	w.triple(rel(aux.lightNames), len(l.FlareTextures))
	w.u32(l.Priority)
	w.u32(l.AmbientOnly)
	w.u32(l.DynamicType)
	w.u32(l.AffectDynamic)
	w.u32(l.Shadow)
	w.u32(l.Flare)
	w.u32(l.Fading)
}

func (e *mdlEncoder) emitterHeader(em *Emitter) error {
	w := e.w
	w.f32(em.DeadSpace)
	w.f32(em.BlastRadius)
	w.f32(em.BlastLength)
	w.u32(em.BranchCount)
	w.f32(em.Smoothing)
	w.u32(em.XGrid)
	w.u32(em.YGrid)
	w.u32(em.SpawnType)
	for _, field := range []struct {
		s     string
		width int
	}{
		{em.Update, 32}, {em.Render, 32}, {em.Blend, 32},
		{em.Texture, 32}, {em.ChunkName, 16},
	} {
		if err := w.str(field.s, field.width); err != nil {
			return err
		}
	}
	w.u32(em.TwoSidedTexture)
	w.u32(em.Loop)
	w.u16(em.RenderOrder)
	w.u8(em.FrameBlending)
	if err := w.str(em.DepthTextureName, 32); err != nil {
		return err
	}
	w.u8(0) // pad.
	w.u32(em.Flags)
	return nil
}

func (e *mdlEncoder) referenceHeader(ref *Reference) error {
	if err := e.w.str(ref.Model, 32); err != nil {
		return err
	}
	e.w.u32(ref.Reattachable)
	return nil
}

// meshHeader packs the trimesh sub-header and its extensions, and
// streams the mesh's per-vertex data into the mdx buffer (Phase C).
func (e *mdlEncoder) meshHeader(m *Mesh, aux *auxLayout) error {
	w := e.w
	verts := len(m.Positions)
	faces := len(m.Faces)

	// vertex record layout: attribute slot offsets and total stride.
	bitmap := m.MdxBitmap()
	slots, stride := mdxLayout(m)
	mdxDataOffset := e.x.len()

	fp := meshWords(e.variant, m)
	w.u32(fp[0])
	w.u32(fp[1])
	w.triple(rel(aux.faceRecs), faces)
	w.v3(m.BoundingMin)
	w.v3(m.BoundingMax)
	w.f32(m.Radius)
	w.v3(m.Average)
	w.f32(m.Diffuse[2]) // BGR on disk.
	w.f32(m.Diffuse[1])
	w.f32(m.Diffuse[0])
	w.f32(m.Ambient[2])
	w.f32(m.Ambient[1])
	w.f32(m.Ambient[0])
	w.u32(m.TransparencyHint)
	if err := w.str(textureName(m.Texture1), 32); err != nil {
		return err
	}
	if err := w.str(m.Texture2, 32); err != nil {
		return err
	}
	if err := w.str(m.Texture3, 12); err != nil {
		return err
	}
	if err := w.str(m.Texture4, 12); err != nil {
		return err
	}
	counts := 0
	if faces > 0 {
		counts = 1
	}
	w.triple(rel(aux.idxCounts), counts)
	w.triple(rel(aux.idxOffsets), counts)
	w.triple(rel(aux.inverted), counts)
	w.u32(m.UnknownA[0])
	w.u32(m.UnknownA[1])
	w.u32(m.UnknownA[2])
	blob := m.SaberUnknowns
	if blob == ([8]uint8{}) {
		blob = DefaultSaberUnknowns
	}
	w.raw(blob[:])
	w.u32(uint32(b2u(m.AnimateUV)))
	w.f32(m.UVDirectionX)
	w.f32(m.UVDirectionY)
	w.f32(m.UVJitter)
	w.f32(m.UVJitterSpeed)
	w.u32(uint32(stride))
	w.u32(bitmap)
	for _, slot := range slots {
		w.i32(slot)
	}
	w.u16(uint16(verts))
	w.u16(m.TextureCount())
	w.u8(b2u(m.Texture2 != ""))
	w.u8(b2u(m.RotateTexture))
	w.u8(b2u(m.BackgroundGeometry))
	w.u8(b2u(m.Shadow))
	w.u8(b2u(m.Beaming))
	w.u8(b2u(m.Render))
	w.u16(m.UnknownB)
	if e.variant == Kotor2 {
		w.u8(m.DirtEnabled)
		w.u8(0)
		w.u16(m.DirtTexture)
		w.u16(m.DirtCoordSpace)
		w.u8(m.HideInHolograms)
		w.u8(0)
	}
	w.f32(m.TotalArea)
	w.u32(m.UnknownC)
	w.u32(uint32(mdxDataOffset))
	w.u32(rel(aux.verts))

	// extension headers in the reader's fixed order.
	if s := m.Skin; s != nil {
		w.pad(12) // runtime array triple.
		w.i32(skinSlot(slots, stride, 0))
		w.i32(skinSlot(slots, stride, 1))
		w.u32(rel(aux.boneMap))
		w.u32(uint32(len(s.BoneMap)))
		w.triple(rel(aux.qBones), len(s.QBones))
		w.triple(rel(aux.tBones), len(s.TBones))
		w.pad(12) // runtime array triple.
		for _, serial := range s.BoneSerial {
			w.u16(serial)
		}
		w.u32(0) // pad.
	}
	if dg := m.Dangly; dg != nil {
		w.triple(rel(aux.constraints), len(dg.Constraints))
		w.f32(dg.Displacement)
		w.f32(dg.Tightness)
		w.f32(dg.Period)
		w.u32(rel(aux.danglyVerts))
	}
	if wm := m.Walkmesh; wm != nil {
		w.u32(rel0(treeRootAt(wm, aux)))
	}
	if s := m.Saber; s != nil {
		w.u32(rel(aux.saberVerts))
		w.u32(rel(aux.saberUVs))
		w.u32(rel(aux.saberNormals))
		w.u32(0) // inverted counters.
		w.u32(0)
	}
	if am := m.Anim; am != nil {
		w.f32(am.SamplePeriod)
		w.triple(rel(aux.animVerts), len(am.Positions))
		w.triple(rel(aux.animUVs), len(am.UVs))
		w.u32(0) // unused.
	}

	// Phase C: interleave the vertex records into the mdx stream.
	e.mdxStream(m, slots, stride)
	return nil
}

// emitAux writes a node's auxiliary arrays at their planned positions.
func (e *mdlEncoder) emitAux(n *Node, aux *auxLayout) error {
	w := e.w
	if l := n.Light; l != nil {
		for _, size := range l.FlareSizes {
			w.f32(size)
		}
		for _, pos := range l.FlarePositions {
			w.f32(pos)
		}
		for _, shift := range l.FlareColorShift {
			w.vec3(shift)
		}
		for _, name := range l.FlareTextures {
			if err := w.str(name, 32); err != nil {
				return err
			}
		}
	}
	m := n.Mesh
	if m == nil {
		return e.checkAux(aux)
	}
	faces := len(m.Faces)
	if faces > 0 {
		w.u32(uint32(3 * faces)) // indices count array.
		w.u32(rel(aux.faceIdx))  // indices offset array.
		w.u32(0)                 // inverted counter array.
		for _, f := range m.Faces {
			w.u16(uint16(f.Vertices[0]))
			w.u16(uint16(f.Vertices[1]))
			w.u16(uint16(f.Vertices[2]))
		}
		w.pad(pad4(2*3*faces) - 2*3*faces)
	}
	for _, p := range m.Positions {
		w.vec3(p)
	}
	for _, f := range m.Faces {
		w.vec3(f.Normal)
		w.f32(f.PlaneDistance)
		w.f32(f.Area)
		w.u32(f.Material)
		w.i32(f.Adjacent[0])
		w.i32(f.Adjacent[1])
		w.i32(f.Adjacent[2])
		w.u32(f.Vertices[0])
		w.u32(f.Vertices[1])
		w.u32(f.Vertices[2])
		w.u32(f.Unknown[0])
		w.u32(f.Unknown[1])
	}
	if s := m.Skin; s != nil {
		for _, bone := range s.BoneMap {
			w.u32(bone)
		}
		for _, q := range s.QBones {
			w.quat(q)
		}
		for _, t := range s.TBones {
			w.v3(t)
		}
	}
	if dg := m.Dangly; dg != nil {
		for _, c := range dg.Constraints {
			w.f32(c)
		}
		for _, v := range dg.Vertices {
			w.vec3(v)
		}
	}
	if wm := m.Walkmesh; wm != nil && wm.Root != nil {
		e.treeNodes(wm.Root, aux.treeRoot)
	}
	if s := m.Saber; s != nil {
		for _, v := range s.Vertices {
			w.vec3(v)
		}
		for _, uv := range s.UVs {
			w.vec2(uv)
		}
		for _, normal := range s.Normals {
			w.vec3(normal)
		}
	}
	if am := m.Anim; am != nil {
		for _, v := range am.Positions {
			w.vec3(v)
		}
		for _, uv := range am.UVs {
			w.vec2(uv)
		}
	}
	return e.checkAux(aux)
}

// checkAux catches layout drift between planAux and emitAux.
func (e *mdlEncoder) checkAux(aux *auxLayout) error {
	if e.w.len() != aux.end {
		return errors.Wrapf(ErrUnrepresentable,
			"layout drift: wrote to %d, planned %d", e.w.len(), aux.end)
	}
	return nil
}

// treeNodes emits a box tree pre-order: parent, left subtree, right
// subtree, with child offsets computed from subtree sizes.
func (e *mdlEncoder) treeNodes(n *MeshTreeNode, at int) {
	w := e.w
	w.vec3(n.Min)
	w.vec3(n.Max)
	left, right := 0, 0
	if n.Left != nil {
		left = at + treeNodeSize
	}
	if n.Right != nil {
		right = at + treeNodeSize*(1+n.Left.count())
	}
	w.u32(rel0(left))
	w.u32(rel0(right))
	w.i32(n.FaceIndex)
	w.u32(n.Plane)
	if n.Left != nil {
		e.treeNodes(n.Left, left)
	}
	if n.Right != nil {
		e.treeNodes(n.Right, right)
	}
}

// rel0 is rel that keeps nil child pointers as zero.
func rel0(pos int) uint32 {
	if pos == 0 {
		return 0
	}
	return rel(pos)
}

// treeRootAt resolves the planned tree position, zero for empty trees.
func treeRootAt(wm *MeshTree, aux *auxLayout) int {
	if wm.Root == nil {
		return 0
	}
	return aux.treeRoot
}

// mdx stream
// =============================================================================

// mdxLayout computes the vertex record slot offsets and stride for a
// mesh: positions, normals, colors, uv1, uv2, tangent space, and for
// skinned meshes bone weights then bone indices at the record's end.
func mdxLayout(m *Mesh) (slots [11]int32, stride int) {
	for i := range slots {
		slots[i] = -1
	}
	if len(m.Positions) > 0 {
		slots[0] = int32(stride)
		stride += 12
	}
	if len(m.Normals) > 0 {
		slots[1] = int32(stride)
		stride += 12
	}
	if len(m.Colors) > 0 {
		slots[2] = int32(stride)
		stride += 12
	}
	if len(m.UV1) > 0 {
		slots[3] = int32(stride)
		stride += 8
	}
	if len(m.UV2) > 0 {
		slots[4] = int32(stride)
		stride += 8
	}
	if len(m.Tangents) > 0 {
		slots[7] = int32(stride)
		stride += 36
	}
	if m.Skin != nil {
		stride += 32 // weights and indices, offsets in the skin header.
	}
	return slots, stride
}

// skinSlot returns the vertex record offset of the bone weight (0) or
// bone index (1) attribute: the last 32 bytes of a skinned record.
func skinSlot(slots [11]int32, stride int, which int) int32 {
	return int32(stride - 32 + which*16)
}

// mdxStream emits the interleaved vertex records followed by the
// sentinel padding row.
func (e *mdlEncoder) mdxStream(m *Mesh, slots [11]int32, stride int) {
	x := e.x
	if stride == 0 {
		return
	}
	for i := range m.Positions {
		x.vec3(m.Positions[i])
		if len(m.Normals) > 0 {
			x.vec3(m.Normals[i])
		}
		if len(m.Colors) > 0 {
			x.vec3(m.Colors[i])
		}
		if len(m.UV1) > 0 {
			x.vec2(m.UV1[i])
		}
		if len(m.UV2) > 0 {
			x.vec2(m.UV2[i])
		}
		if len(m.Tangents) > 0 {
			x.vec3(m.Tangents[3*i])
			x.vec3(m.Tangents[3*i+1])
			x.vec3(m.Tangents[3*i+2])
		}
		if m.Skin != nil {
			x.vec4(m.Skin.Weights[i])
			x.vec4(m.Skin.Indices[i])
		}
	}

	// sentinel padding after the last vertex.
	x.f32(1e7)
	x.f32(1e7)
	x.f32(1e7)
	if len(m.Normals) > 0 {
		x.vec3([3]float32{})
	}
	if len(m.Colors) > 0 {
		x.vec3([3]float32{})
	}
	if len(m.UV1) > 0 {
		x.vec2([2]float32{})
	}
	if len(m.UV2) > 0 {
		x.vec2([2]float32{})
	}
	if len(m.Tangents) > 0 {
		x.pad(36)
	}
	if m.Skin != nil {
		pattern := [16]float32{1e6, 1e6, 1e6, 0, 0, 0, 0, 1}
		for _, f := range pattern {
			x.f32(f)
		}
	}
}

// textureName substitutes the NULL placeholder for absent textures.
func textureName(s string) string {
	if s == "" {
		return "NULL"
	}
	return s
}
