// Copyright © 2024-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package load

// mdl_read.go parses the binary model format: file header, geometry
// header, model header, name table, animations, and the node tree with
// its variant sub-headers dispatched by the node type bitmask.
// Per-vertex streams are pulled from the companion mdx buffer using the
// stride, attribute bitmap, and per-attribute offsets recorded in each
// mesh header.

import (
	"github.com/pkg/errors"
)

// Shared layout sizes. Offsets stored on disk are relative to
// mdlDataStart, 12 bytes into the model file.
const (
	mdlDataStart    = 12
	geomHeaderSize  = 80
	modelHeaderSize = 88
	namesHeaderSize = 28
	animHeaderSize  = 136
	eventSize       = 36
	nodeHeaderSize  = 80
	trimeshSizeK1   = 332
	trimeshSizeK2   = 340
	skinSize        = 100
	danglySize      = 28
	aabbSize        = 4
	saberSize       = 20
	animmeshSize    = 32
	lightSize       = 92
	emitterSize     = 224
	referenceSize   = 36
	controllerSize  = 16
	faceSize        = 56
	treeNodeSize    = 40
)

// knownNodeFlags is every node type bit the formats document.
const knownNodeFlags = flagHeader | flagLight | flagEmitter | flagReference |
	flagMesh | flagSkin | flagAnim | flagDangly | flagAABB | flagSaber

// mdlDecoder tracks shared parse state: the two input buffers, the
// name table, and the offsets already visited to reject cyclic trees.
type mdlDecoder struct {
	r       *reader
	mdx     []byte
	variant Variant
	names   []string
	visited map[int]bool
}

// decodeModel is the Mdl entry point.
func decodeModel(mdl, mdx []byte) (*Model, error) {
	d := &mdlDecoder{r: newReader(mdl), mdx: mdx, visited: map[int]bool{}}
	r := d.r

	// file header.
	r.u32() // reserved.
	mdlSize := int(r.u32())
	mdxSize := int(r.u32())
	if r.err != nil {
		return nil, r.err
	}
	if mdlDataStart+mdlSize > len(mdl) {
		return nil, errors.Wrapf(ErrTruncated, "model data %d exceeds %d bytes", mdlSize, len(mdl))
	}
	if mdxSize > len(mdx) {
		return nil, errors.Wrapf(ErrTruncated, "vertex data %d exceeds %d bytes", mdxSize, len(mdx))
	}

	// geometry header.
	fp0 := r.u32()
	r.u32() // second identifier word.
	variant, ok := variantOf(fp0)
	if r.err == nil && !ok {
		return nil, errors.Wrapf(ErrUnsupported, "unknown engine identifier %d", fp0)
	}
	d.variant = variant
	m := &Model{}
	m.Name = r.str(32)
	rootOffset := int(r.u32())
	r.u32()       // node count.
	r.bytes(24)   // two runtime array triples.
	r.u32()       // reference count.
	geomType := r.u8()
	r.bytes(3) // pad.
	if r.err == nil && geomType != 1 && geomType != geometryModel {
		return nil, errors.Wrapf(ErrUnsupported, "geometry type %d", geomType)
	}

	// model header.
	m.Classification = Classification(r.u8())
	m.Subclassification = r.u8()
	r.u8() // unknown.
	m.Fog = r.u8() != 0
	r.u32() // child model count.
	animOffset, animCount := r.triple("animation")
	r.u32() // parent model pointer.
	m.BoundingMin = r.v3()
	m.BoundingMax = r.v3()
	m.Radius = r.f32()
	m.AnimationScale = r.f32()
	m.Supermodel = r.str(32)

	// names header.
	r.u32() // root node pointer, duplicates the geometry header.
	r.u32() // unused.
	r.u32() // model size, duplicates the file header.
	r.u32() // vertex data size, duplicates the file header.
	nameOffset, nameCount := r.triple("name")
	if r.err != nil {
		return nil, r.err
	}

	// name table.
	r.seek(mdlDataStart + nameOffset)
	nameOffsets := make([]int, nameCount)
	for i := range nameOffsets {
		nameOffsets[i] = int(r.u32())
	}
	d.names = make([]string, nameCount)
	for i, off := range nameOffsets {
		r.seek(mdlDataStart + off)
		d.names[i] = r.cstr()
	}
	if r.err != nil {
		return nil, r.err
	}

	// animations.
	r.seek(mdlDataStart + animOffset)
	animOffsets := make([]int, animCount)
	for i := range animOffsets {
		animOffsets[i] = int(r.u32())
	}
	for _, off := range animOffsets {
		anim, err := d.animation(off)
		if err != nil {
			return nil, err
		}
		m.Animations = append(m.Animations, anim)
	}

	// main node tree.
	root, err := d.node(rootOffset)
	if err != nil {
		return nil, err
	}
	m.Root = root
	return m, nil
}

// animation parses one 136 byte animation header and its node tree.
func (d *mdlDecoder) animation(off int) (*Animation, error) {
	r := d.r
	r.seek(mdlDataStart + off)
	r.u32() // identifier words.
	r.u32()
	a := &Animation{}
	a.Name = r.str(32)
	rootOffset := int(r.u32())
	r.u32()     // node count.
	r.bytes(24) // runtime triples.
	r.u32()     // reference count.
	geomType := r.u8()
	r.bytes(3)
	if r.err == nil && geomType != geometryAnimation {
		return nil, errors.Wrapf(ErrUnsupported, "animation geometry type %d", geomType)
	}
	a.Length = r.f32()
	a.TransitionTime = r.f32()
	a.RootModel = r.str(32)
	eventOffset, eventCount := r.triple("event")
	r.u32() // unused.
	if r.err != nil {
		return nil, r.err
	}

	r.seek(mdlDataStart + eventOffset)
	for i := 0; i < eventCount; i++ {
		e := Event{ActivationTime: r.f32()}
		e.Name = r.str(32)
		a.Events = append(a.Events, e)
	}
	if r.err != nil {
		return nil, r.err
	}

	root, err := d.node(rootOffset)
	if err != nil {
		return nil, err
	}
	a.Root = root
	return a, nil
}

// node parses one node header, its type specific sub-headers, its
// controllers, and recursively its children.
func (d *mdlDecoder) node(off int) (*Node, error) {
	if d.visited[off] {
		return nil, errors.Wrapf(ErrMalformed, "node cycle at offset %d", off)
	}
	d.visited[off] = true
	r := d.r
	r.seek(mdlDataStart + off)

	flags := r.u16()
	if r.err == nil && (flags&flagHeader == 0 || flags&^knownNodeFlags != 0) {
		return nil, errors.Wrapf(ErrUnsupported, "node type %#x at offset %d", flags, off)
	}
	n := &Node{}
	n.NodeIndex = r.u16()
	n.NameIndex = r.u16()
	r.u16() // pad.
	r.u32() // root node pointer.
	r.u32() // parent node pointer, recomputed on demand.
	n.Position = r.v3()
	n.Orientation = r.quat()
	childOffset, childCount := r.triple("children")
	ctrlOffset, ctrlCount := r.triple("controller")
	dataOffset, dataCount := r.triple("controller data")
	if r.err != nil {
		return nil, r.err
	}
	if int(n.NameIndex) < len(d.names) {
		n.Name = d.names[n.NameIndex]
	}

	// sub-headers follow the node header in a fixed order.
	if flags&flagLight != 0 {
		n.Light = d.light()
	}
	if flags&flagEmitter != 0 {
		n.Emitter = d.emitter()
	}
	if flags&flagReference != 0 {
		n.Reference = d.reference()
	}
	if flags&flagMesh != 0 {
		mesh, err := d.mesh(flags)
		if err != nil {
			return nil, err
		}
		n.Mesh = mesh
	}
	if r.err != nil {
		return nil, r.err
	}

	// controllers.
	ctrls, err := d.controllers(ctrlOffset, ctrlCount, dataOffset, dataCount)
	if err != nil {
		return nil, err
	}
	n.Controllers = ctrls

	// children.
	r.seek(mdlDataStart + childOffset)
	childOffsets := make([]int, childCount)
	for i := range childOffsets {
		childOffsets[i] = int(r.u32())
	}
	if r.err != nil {
		return nil, r.err
	}
	for _, kid := range childOffsets {
		child, err := d.node(kid)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

// controllers rebuilds keyframe rows from the descriptor array and the
// node's flat float data.
func (d *mdlDecoder) controllers(ctrlOffset, ctrlCount, dataOffset, dataCount int) ([]*Controller, error) {
	r := d.r
	r.seek(mdlDataStart + dataOffset)
	data := make([]float32, dataCount)
	for i := range data {
		data[i] = r.f32()
	}
	if r.err != nil {
		return nil, r.err
	}

	var ctrls []*Controller
	for i := 0; i < ctrlCount; i++ {
		r.seek(mdlDataStart + ctrlOffset + i*controllerSize)
		c := &Controller{}
		c.Type = r.u32()
		r.u16() // always 0xFFFF.
		rows := int(r.u16())
		timeIndex := int(r.u16())
		dataIndex := int(r.u16())
		colByte := r.u8()
		r.bytes(3) // pad.
		if r.err != nil {
			return nil, r.err
		}
		if colByte&^(bezierFlag|0x0F) != 0 {
			return nil, errors.Wrapf(ErrUnsupported, "controller %d column encoding %#x", c.Type, colByte)
		}
		c.Bezier = colByte&bezierFlag != 0
		c.Columns = colByte &^ bezierFlag
		cols := c.dataColumns()
		if timeIndex+rows > len(data) || dataIndex+rows*cols > len(data) {
			return nil, errors.Wrapf(ErrMalformed, "controller %d data exceeds %d floats", c.Type, len(data))
		}
		for row := 0; row < rows; row++ {
			cr := ControllerRow{Time: data[timeIndex+row]}
			cr.Data = append(cr.Data, data[dataIndex+row*cols:dataIndex+(row+1)*cols]...)
			c.Rows = append(c.Rows, cr)
		}
		ctrls = append(ctrls, c)
	}
	return ctrls, nil
}

// mesh parses the trimesh sub-header, any extensions selected by the
// node flags, and the referenced face and vertex data.
func (d *mdlDecoder) mesh(flags uint16) (*Mesh, error) {
	r := d.r
	m := &Mesh{}
	r.u32() // identifier words.
	r.u32()
	faceOffset, faceCount := r.triple("face")
	m.BoundingMin = r.v3()
	m.BoundingMax = r.v3()
	m.Radius = r.f32()
	m.Average = r.v3()
	m.Diffuse[2], m.Diffuse[1], m.Diffuse[0] = r.f32(), r.f32(), r.f32() // BGR on disk.
	m.Ambient[2], m.Ambient[1], m.Ambient[0] = r.f32(), r.f32(), r.f32()
	m.TransparencyHint = r.u32()
	m.Texture1 = r.str(32)
	if m.Texture1 == "NULL" {
		m.Texture1 = "" // absent texture placeholder.
	}
	m.Texture2 = r.str(32)
	m.Texture3 = r.str(12)
	m.Texture4 = r.str(12)
	r.bytes(12) // indices count array triple.
	r.bytes(12) // indices offset array triple.
	r.bytes(12) // inverted counter array triple.
	m.UnknownA[0], m.UnknownA[1], m.UnknownA[2] = r.u32(), r.u32(), r.u32()
	copy(m.SaberUnknowns[:], r.bytes(8))
	m.AnimateUV = r.u32() != 0
	m.UVDirectionX = r.f32()
	m.UVDirectionY = r.f32()
	m.UVJitter = r.f32()
	m.UVJitterSpeed = r.f32()
	stride := int(r.u32())
	bitmap := r.u32()
	var attrOffsets [11]int32
	for i := range attrOffsets {
		attrOffsets[i] = r.i32()
	}
	vertexCount := int(r.u16())
	r.u16() // texture count, derived from textures on write.
	r.u8()  // lightmap flag, derived from texture2 on write.
	m.RotateTexture = r.u8() != 0
	m.BackgroundGeometry = r.u8() != 0
	m.Shadow = r.u8() != 0
	m.Beaming = r.u8() != 0
	m.Render = r.u8() != 0
	m.UnknownB = r.u16()
	if d.variant == Kotor2 {
		m.DirtEnabled = r.u8()
		r.u8() // pad.
		m.DirtTexture = r.u16()
		m.DirtCoordSpace = r.u16()
		m.HideInHolograms = r.u8()
		r.u8() // pad.
	}
	m.TotalArea = r.f32()
	m.UnknownC = r.u32()
	mdxDataOffset := int(r.u32())
	r.u32() // offset to the mdl vertex copy, regenerated on write.
	if r.err != nil {
		return nil, r.err
	}

	// extensions in fixed order after the trimesh header.
	var skinWeights, skinIndices int32
	if flags&flagSkin != 0 {
		skin, werr := d.skin(m)
		if werr != nil {
			return nil, werr
		}
		m.Skin = skin.skin
		skinWeights, skinIndices = skin.weightOffset, skin.indexOffset
	}
	if flags&flagDangly != 0 {
		if err := d.dangly(m); err != nil {
			return nil, err
		}
	}
	if flags&flagAABB != 0 {
		if err := d.meshTree(m); err != nil {
			return nil, err
		}
	}
	if flags&flagSaber != 0 {
		if err := d.saber(m, vertexCount); err != nil {
			return nil, err
		}
	}
	if flags&flagAnim != 0 {
		if err := d.animMesh(m); err != nil {
			return nil, err
		}
	}

	// face records.
	r.seek(mdlDataStart + faceOffset)
	for i := 0; i < faceCount; i++ {
		f := Face{}
		f.Normal = r.vec3()
		f.PlaneDistance = r.f32()
		f.Area = r.f32()
		f.Material = r.u32()
		f.Adjacent[0], f.Adjacent[1], f.Adjacent[2] = r.i32(), r.i32(), r.i32()
		f.Vertices[0], f.Vertices[1], f.Vertices[2] = r.u32(), r.u32(), r.u32()
		f.Unknown[0], f.Unknown[1] = r.u32(), r.u32()
		m.Faces = append(m.Faces, f)
	}
	if r.err != nil {
		return nil, r.err
	}

	// per-vertex streams from the mdx buffer.
	if err := d.vertexStreams(m, bitmap, stride, mdxDataOffset, vertexCount, attrOffsets, skinWeights, skinIndices); err != nil {
		return nil, err
	}
	return m, nil
}

// light parses the 92 byte light sub-header and its flare arrays.
func (d *mdlDecoder) light() *Light {
	r := d.r
	l := &Light{}
	l.FlareRadius = r.f32()
	l.Unknown[0], l.Unknown[1], l.Unknown[2] = r.u32(), r.u32(), r.u32()
	sizeOffset, sizeCount := r.triple("flare size")
	posOffset, posCount := r.triple("flare position")
	shiftOffset, shiftCount := r.triple("flare color shift")
	nameOffset, nameCount := r.triple("flare texture")
	l.Priority = r.u32()
	l.AmbientOnly = r.u32()
	l.DynamicType = r.u32()
	l.AffectDynamic = r.u32()
	l.Shadow = r.u32()
	l.Flare = r.u32()
	l.Fading = r.u32()
	if r.err != nil {
		return l
	}
	at := r.pos

	r.seek(mdlDataStart + sizeOffset)
	for i := 0; i < sizeCount; i++ {
		l.FlareSizes = append(l.FlareSizes, r.f32())
	}
	r.seek(mdlDataStart + posOffset)
	for i := 0; i < posCount; i++ {
		l.FlarePositions = append(l.FlarePositions, r.f32())
	}
	r.seek(mdlDataStart + shiftOffset)
	for i := 0; i < shiftCount; i++ {
		l.FlareColorShift = append(l.FlareColorShift, r.vec3())
	}
	r.seek(mdlDataStart + nameOffset)
	for i := 0; i < nameCount; i++ {
		l.FlareTextures = append(l.FlareTextures, r.str(32))
	}
	r.seek(at)
	return l
}

// emitter parses the 224 byte particle emitter sub-header.
func (d *mdlDecoder) emitter() *Emitter {
	r := d.r
	e := &Emitter{}
	e.DeadSpace = r.f32()
	e.BlastRadius = r.f32()
	e.BlastLength = r.f32()
	e.BranchCount = r.u32()
	e.Smoothing = r.f32()
	e.XGrid = r.u32()
	e.YGrid = r.u32()
	e.SpawnType = r.u32()
	e.Update = r.str(32)
	e.Render = r.str(32)
	e.Blend = r.str(32)
	e.Texture = r.str(32)
	e.ChunkName = r.str(16)
	e.TwoSidedTexture = r.u32()
	e.Loop = r.u32()
	e.RenderOrder = r.u16()
	e.FrameBlending = r.u8()
	e.DepthTextureName = r.str(32)
	r.u8() // pad.
	e.Flags = r.u32()
	return e
}

// reference parses the 36 byte reference sub-header.
func (d *mdlDecoder) reference() *Reference {
	r := d.r
	ref := &Reference{}
	ref.Model = r.str(32)
	ref.Reattachable = r.u32()
	return ref
}

// skinExtra carries the mdx attribute offsets that live in the skin
// header rather than the trimesh header.
type skinExtra struct {
	skin         *Skin
	weightOffset int32
	indexOffset  int32
}

func (d *mdlDecoder) skin(m *Mesh) (skinExtra, error) {
	r := d.r
	s := &Skin{}
	r.bytes(12) // runtime array triple.
	weightOffset := r.i32()
	indexOffset := r.i32()
	boneMapOffset := int(r.u32())
	boneMapCount := int(r.u32())
	qboneOffset, qboneCount := r.triple("bone rotation")
	tboneOffset, tboneCount := r.triple("bone translation")
	r.bytes(12) // runtime array triple.
	for i := range s.BoneSerial {
		s.BoneSerial[i] = r.u16()
	}
	r.u32() // pad.
	if r.err != nil {
		return skinExtra{}, r.err
	}
	at := r.pos // extensions continue after this header.

	r.seek(mdlDataStart + boneMapOffset)
	for i := 0; i < boneMapCount; i++ {
		s.BoneMap = append(s.BoneMap, r.u32())
	}
	r.seek(mdlDataStart + qboneOffset)
	for i := 0; i < qboneCount; i++ {
		s.QBones = append(s.QBones, r.quat())
	}
	r.seek(mdlDataStart + tboneOffset)
	for i := 0; i < tboneCount; i++ {
		s.TBones = append(s.TBones, r.v3())
	}
	r.seek(at)
	return skinExtra{skin: s, weightOffset: weightOffset, indexOffset: indexOffset}, r.err
}

func (d *mdlDecoder) dangly(m *Mesh) error {
	r := d.r
	dg := &Dangly{}
	constraintOffset, constraintCount := r.triple("constraint")
	dg.Displacement = r.f32()
	dg.Tightness = r.f32()
	dg.Period = r.f32()
	dataOffset := int(r.u32())
	if r.err != nil {
		return r.err
	}
	at := r.pos

	r.seek(mdlDataStart + constraintOffset)
	for i := 0; i < constraintCount; i++ {
		dg.Constraints = append(dg.Constraints, r.f32())
	}
	r.seek(mdlDataStart + dataOffset)
	for i := 0; i < constraintCount; i++ {
		dg.Vertices = append(dg.Vertices, r.vec3())
	}
	r.seek(at)
	m.Dangly = dg
	return r.err
}

func (d *mdlDecoder) meshTree(m *Mesh) error {
	r := d.r
	rootOffset := int(r.u32())
	if r.err != nil {
		return r.err
	}
	at := r.pos
	root, err := d.treeNode(rootOffset, 0)
	if err != nil {
		return err
	}
	r.seek(at)
	m.Walkmesh = &MeshTree{Root: root}
	return r.err
}

// treeNode reads one 40 byte box tree node and recurses on child
// pointers. Depth is bounded to reject self referencing trees.
func (d *mdlDecoder) treeNode(off, depth int) (*MeshTreeNode, error) {
	if off == 0 {
		return nil, nil
	}
	if depth > 64 {
		return nil, errors.Wrapf(ErrMalformed, "box tree too deep at offset %d", off)
	}
	r := d.r
	r.seek(mdlDataStart + off)
	n := &MeshTreeNode{}
	n.Min = r.vec3()
	n.Max = r.vec3()
	leftOffset := int(r.u32())
	rightOffset := int(r.u32())
	n.FaceIndex = r.i32()
	n.Plane = r.u32()
	if r.err != nil {
		return nil, r.err
	}
	var err error
	if n.Left, err = d.treeNode(leftOffset, depth+1); err != nil {
		return nil, err
	}
	if n.Right, err = d.treeNode(rightOffset, depth+1); err != nil {
		return nil, err
	}
	return n, nil
}

func (d *mdlDecoder) saber(m *Mesh, vertexCount int) error {
	r := d.r
	vertOffset := int(r.u32())
	uvOffset := int(r.u32())
	normalOffset := int(r.u32())
	r.u32() // inverted counters.
	r.u32()
	if r.err != nil {
		return r.err
	}
	at := r.pos

	s := &Saber{}
	r.seek(mdlDataStart + vertOffset)
	for i := 0; i < vertexCount; i++ {
		s.Vertices = append(s.Vertices, r.vec3())
	}
	r.seek(mdlDataStart + uvOffset)
	for i := 0; i < vertexCount; i++ {
		s.UVs = append(s.UVs, r.vec2())
	}
	r.seek(mdlDataStart + normalOffset)
	for i := 0; i < vertexCount; i++ {
		s.Normals = append(s.Normals, r.vec3())
	}
	r.seek(at)
	m.Saber = s
	return r.err
}

func (d *mdlDecoder) animMesh(m *Mesh) error {
	r := d.r
	am := &AnimMesh{}
	am.SamplePeriod = r.f32()
	posOffset, posCount := r.triple("animated vertex")
	uvOffset, uvCount := r.triple("animated texcoord")
	r.u32() // unused.
	if r.err != nil {
		return r.err
	}
	at := r.pos

	r.seek(mdlDataStart + posOffset)
	for i := 0; i < posCount; i++ {
		am.Positions = append(am.Positions, r.vec3())
	}
	r.seek(mdlDataStart + uvOffset)
	for i := 0; i < uvCount; i++ {
		am.UVs = append(am.UVs, r.vec2())
	}
	r.seek(at)
	m.Anim = am
	return r.err
}

// vertexStreams interprets stride*vertexCount bytes of the mdx buffer,
// extracting each attribute the bitmap declares at its recorded offset
// within the vertex record. The offset slot order is fixed: positions,
// normals, colors, uv1, uv2, with slot 7 holding tangent space.
func (d *mdlDecoder) vertexStreams(m *Mesh, bitmap uint32, stride, base, vertexCount int,
	slots [11]int32, weightOffset, indexOffset int32) error {
	if vertexCount == 0 || stride == 0 {
		return nil
	}
	if base < 0 || base+stride*vertexCount > len(d.mdx) {
		return errors.Wrapf(ErrMalformed, "vertex data %d..%d exceeds %d bytes",
			base, base+stride*vertexCount, len(d.mdx))
	}
	x := newReader(d.mdx)
	read := func(slot int32, flag uint32, fn func()) {
		if bitmap&flag == 0 || slot < 0 {
			return
		}
		for i := 0; i < vertexCount; i++ {
			x.seek(base + i*stride + int(slot))
			fn()
		}
	}
	read(slots[0], MdxPositions, func() { m.Positions = append(m.Positions, x.vec3()) })
	read(slots[1], MdxNormals, func() { m.Normals = append(m.Normals, x.vec3()) })
	read(slots[2], MdxColors, func() { m.Colors = append(m.Colors, x.vec3()) })
	read(slots[3], MdxUV1, func() { m.UV1 = append(m.UV1, x.vec2()) })
	read(slots[4], MdxUV2, func() { m.UV2 = append(m.UV2, x.vec2()) })
	read(slots[7], MdxTangents, func() { m.Tangents = append(m.Tangents, x.vec3(), x.vec3(), x.vec3()) })
	if m.Skin != nil {
		all := MdxPositions // weights are present on every skinned vertex.
		read(weightOffset, all, func() { m.Skin.Weights = append(m.Skin.Weights, x.vec4()) })
		read(indexOffset, all, func() { m.Skin.Indices = append(m.Skin.Indices, x.vec4()) })
	}
	return x.err
}
