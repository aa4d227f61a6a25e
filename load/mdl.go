// Copyright © 2024-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package load

// mdl.go holds the in-memory model entity graph shared by the reader
// and writer: the model, its node tree, mesh data, animations, and
// controller tracks. The model exclusively owns its animations and
// nodes; each node exclusively owns its children and attachments.
// Nodes do not store parent pointers, parent lookup is a tree search.

import (
	"golang.org/x/image/math/f32"

	"github.com/gazed/odyssey/math/lin"
)

// Variant selects the game specific binary layout.
type Variant int

// The documented model layouts.
const (
	Kotor1 Variant = iota // 332 byte mesh headers.
	Kotor2                // 340 byte mesh headers, two extra fields.
)

// Classification marks what a model is used for in game.
type Classification uint8

// Model classifications.
const (
	ClassOther      Classification = 0x00
	ClassEffect     Classification = 0x01
	ClassTile       Classification = 0x02
	ClassCharacter  Classification = 0x04
	ClassDoor       Classification = 0x08
	ClassLightsaber Classification = 0x10
	ClassPlaceable  Classification = 0x20
	ClassFlyer      Classification = 0x40
)

// DefaultAnimationScale is used by models that do not override
// animation playback speed.
const DefaultAnimationScale float32 = 0.971

// Model is a parsed binary model: a named node hierarchy with meshes
// and animations. Animations reference nodes by name, not by pointer,
// so the writer can serialize them independently.
type Model struct {
	Name                string
	Classification      Classification
	Subclassification   uint8
	Fog                 bool
	Supermodel          string  // Parent model for animation lookup.
	AnimationScale      float32 // Playback speed scale, default 0.971.
	BoundingMin         lin.V3
	BoundingMax         lin.V3
	Radius              float32
	CompressQuaternions bool // Layout flag only, see design notes.
	Animations          []*Animation
	Root                *Node
}

// NewModel returns an empty model with a root node named after the
// model and the default animation scale.
func NewModel(name string) *Model {
	return &Model{
		Name:           name,
		AnimationScale: DefaultAnimationScale,
		Root:           &Node{Name: name},
	}
}

// ParentOf returns the parent of node n or nil for the root and for
// nodes outside this model's tree. Parent links are not stored, they
// are recovered by searching from the root.
func (m *Model) ParentOf(n *Node) *Node { return parentSearch(m.Root, n) }

func parentSearch(at, target *Node) *Node {
	for _, kid := range at.Children {
		if kid == target {
			return at
		}
		if p := parentSearch(kid, target); p != nil {
			return p
		}
	}
	return nil
}

// NodeByName returns the first node with the given name in depth first
// order, or nil.
func (m *Model) NodeByName(name string) *Node { return nodeSearch(m.Root, name) }

func nodeSearch(at *Node, name string) *Node {
	if at == nil {
		return nil
	}
	if at.Name == name {
		return at
	}
	for _, kid := range at.Children {
		if n := nodeSearch(kid, name); n != nil {
			return n
		}
	}
	return nil
}

// Model
// =============================================================================
// Node

// Node type bitmask flags. The node's flag word is always derived from
// which attachments exist, never stored separately.
const (
	flagHeader    uint16 = 0x0001 // always set.
	flagLight     uint16 = 0x0002
	flagEmitter   uint16 = 0x0004
	flagReference uint16 = 0x0010
	flagMesh      uint16 = 0x0020
	flagSkin      uint16 = 0x0040
	flagAnim      uint16 = 0x0080
	flagDangly    uint16 = 0x0100
	flagAABB      uint16 = 0x0200
	flagSaber     uint16 = 0x0800
)

// Concrete node type words produced by the flag combinations
// the formats use.
const (
	NodeDummy      uint16 = flagHeader                                  // 1
	NodeLight      uint16 = flagHeader | flagLight                      // 3
	NodeEmitter    uint16 = flagHeader | flagEmitter                    // 5
	NodeReference  uint16 = flagHeader | flagReference                  // 17
	NodeTrimesh    uint16 = flagHeader | flagMesh                       // 33
	NodeSkin       uint16 = flagHeader | flagMesh | flagSkin            // 97
	NodeAnimmesh   uint16 = flagHeader | flagMesh | flagAnim            // 161
	NodeDanglymesh uint16 = flagHeader | flagMesh | flagDangly          // 289
	NodeAABB       uint16 = flagHeader | flagMesh | flagAABB            // 545
	NodeSaber      uint16 = flagHeader | flagMesh | flagSaber           // 2081
)

// Node is a named entry in the model hierarchy. A node may carry at
// most one of each attachment; mesh level attachments (skin, dangly,
// saber, walkmesh, animated vertices) hang off the Mesh.
type Node struct {
	Name        string
	NodeIndex   uint16 // Sequential id over the tree.
	NameIndex   uint16 // Index into the model name table.
	Position    lin.V3
	Orientation lin.Q // X,Y,Z,W in memory, stored W,X,Y,Z on disk.
	Children    []*Node
	Controllers []*Controller

	// Attachments. At most one of each.
	Mesh      *Mesh
	Light     *Light
	Emitter   *Emitter
	Reference *Reference
}

// TypeFlags derives the node's type word from its attachments.
// Skin, dangly, walkmesh, and saber data require mesh data so their
// flags imply the mesh flag.
func (n *Node) TypeFlags() uint16 {
	flags := flagHeader
	if n.Light != nil {
		flags |= flagLight
	}
	if n.Emitter != nil {
		flags |= flagEmitter
	}
	if n.Reference != nil {
		flags |= flagReference
	}
	if m := n.Mesh; m != nil {
		flags |= flagMesh
		if m.Skin != nil {
			flags |= flagSkin
		}
		if m.Dangly != nil {
			flags |= flagDangly
		}
		if m.Walkmesh != nil {
			flags |= flagAABB
		}
		if m.Saber != nil {
			flags |= flagSaber
		}
		if m.Anim != nil {
			flags |= flagAnim
		}
	}
	return flags
}

// Node
// =============================================================================
// Mesh

// MDX per-vertex attribute presence bits.
const (
	MdxPositions uint32 = 0x0001
	MdxUV1       uint32 = 0x0002
	MdxUV2       uint32 = 0x0004
	MdxNormals   uint32 = 0x0020
	MdxColors    uint32 = 0x0040
	MdxTangents  uint32 = 0x0080
)

// Mesh holds triangle geometry for one node. Per-vertex streams live
// in the companion mdx file interleaved by a layout the mesh header
// describes; in memory each attribute is its own slice and the
// interleaving is recomputed on write.
type Mesh struct {
	Positions []f32.Vec3
	Normals   []f32.Vec3
	UV1       []f32.Vec2
	UV2       []f32.Vec2
	Colors    []f32.Vec3
	Tangents  []f32.Vec3 // Three vectors per vertex when present.
	Faces     []Face

	Texture1 string // Diffuse texture, "" serializes as "NULL".
	Texture2 string // Lightmap texture.
	Texture3 string // Rarely used overrides, 12 byte fields.
	Texture4 string

	Diffuse [3]float32 // RGB in memory, BGR on disk.
	Ambient [3]float32

	TransparencyHint   uint32
	Render             bool
	Shadow             bool
	Beaming            bool
	BackgroundGeometry bool
	RotateTexture      bool

	AnimateUV     bool
	UVDirectionX  float32
	UVDirectionY  float32
	UVJitter      float32
	UVJitterSpeed float32

	BoundingMin lin.V3
	BoundingMax lin.V3
	Radius      float32
	Average     lin.V3
	TotalArea   float32

	// SaberUnknowns is an 8 byte blob with no claimed semantics,
	// preserved on round-trip. Defaults to 3,0,0,0,0,0,0,0.
	SaberUnknowns [8]uint8

	// Unknown header words preserved on round-trip: three words before
	// the saber blob, one after the render flag, one after the area.
	UnknownA [3]uint32
	UnknownB uint16
	UnknownC uint32

	// K2 only fields, written only for the Kotor2 variant.
	DirtEnabled     uint8
	DirtTexture     uint16
	DirtCoordSpace  uint16
	HideInHolograms uint8

	// Mesh level attachments. At most one of each.
	Skin     *Skin
	Dangly   *Dangly
	Saber    *Saber
	Walkmesh *MeshTree
	Anim     *AnimMesh
}

// DefaultSaberUnknowns is written when a mesh carries no preserved blob.
var DefaultSaberUnknowns = [8]uint8{3, 0, 0, 0, 0, 0, 0, 0}

// TextureCount is 2 when a lightmap texture is present, else 1.
func (m *Mesh) TextureCount() uint16 {
	if m.Texture2 != "" {
		return 2
	}
	return 1
}

// MdxBitmap derives the attribute presence bits from which per-vertex
// slices are populated.
func (m *Mesh) MdxBitmap() uint32 {
	bitmap := uint32(0)
	if len(m.Positions) > 0 {
		bitmap |= MdxPositions
	}
	if len(m.Normals) > 0 {
		bitmap |= MdxNormals
	}
	if len(m.UV1) > 0 {
		bitmap |= MdxUV1
	}
	if len(m.UV2) > 0 {
		bitmap |= MdxUV2
	}
	if len(m.Colors) > 0 {
		bitmap |= MdxColors
	}
	if len(m.Tangents) > 0 {
		bitmap |= MdxTangents
	}
	return bitmap
}

// Face is one mesh triangle with its surface data and edge adjacency.
type Face struct {
	Normal        f32.Vec3
	PlaneDistance float32
	Area          float32
	Material      uint32    // Packed surface material and smoothing group.
	Adjacent      [3]int32  // Adjacent face per edge, -1 for open edges.
	Vertices      [3]uint32 // Vertex indices.
	Unknown       [2]uint32 // Preserved on round-trip.
}

// PackMaterial packs a surface material and smoothing group into the
// face material word: the lower 5 bits hold the surface material.
func PackMaterial(surface, smoothing uint32) uint32 {
	return (smoothing << 5) | (surface & 0x1F)
}

// UnpackMaterial splits a face material word into surface material and
// smoothing group.
func UnpackMaterial(material uint32) (surface, smoothing uint32) {
	return material & 0x1F, material >> 5
}

// Mesh
// =============================================================================
// mesh attachments

// Skin adds per-vertex bone weights to a mesh.
type Skin struct {
	Weights    []f32.Vec4 // Four weights per vertex.
	Indices    []f32.Vec4 // Four bone indices per vertex, stored as floats.
	BoneMap    []uint32   // Node index to bone index.
	QBones     []lin.Q    // Bind pose rotations.
	TBones     []lin.V3   // Bind pose translations.
	BoneSerial [16]uint16 // Bone node serial table.
}

// Dangly marks mesh vertices that sway: chains, cloth, antennae.
type Dangly struct {
	Constraints  []float32  // One constraint value per vertex.
	Vertices     []f32.Vec3 // Rest positions matching the constraints.
	Displacement float32
	Tightness    float32
	Period       float32
}

// Saber carries the blade geometry sub-arrays of a lightsaber mesh.
type Saber struct {
	Vertices []f32.Vec3
	UVs      []f32.Vec2
	Normals  []f32.Vec3
}

// AnimMesh carries per-frame vertex animation samples.
type AnimMesh struct {
	SamplePeriod float32
	Positions    []f32.Vec3
	UVs          []f32.Vec2
}

// MeshTree is the axis aligned box tree embedded in walkmesh bearing
// model nodes. Leaves reference faces; interior nodes have two kids.
type MeshTree struct {
	Root *MeshTreeNode
}

// MeshTreeNode is one box of a MeshTree. FaceIndex is -1 for interior
// nodes.
type MeshTreeNode struct {
	Min, Max    f32.Vec3
	Left, Right *MeshTreeNode
	FaceIndex   int32
	Plane       uint32 // Most significant split plane.
}

// count returns the number of tree nodes at and below n.
func (n *MeshTreeNode) count() int {
	if n == nil {
		return 0
	}
	return 1 + n.Left.count() + n.Right.count()
}

// mesh attachments
// =============================================================================
// non-mesh attachments

// Light attaches a light source to a node.
type Light struct {
	FlareRadius     float32
	Unknown         [3]uint32 // Preserved on round-trip.
	FlareSizes      []float32
	FlarePositions  []float32
	FlareColorShift []f32.Vec3
	FlareTextures   []string // 32 byte fields on disk.
	Priority        uint32
	AmbientOnly     uint32
	DynamicType     uint32
	AffectDynamic   uint32
	Shadow          uint32
	Flare           uint32
	Fading          uint32
}

// Emitter attaches a particle emitter to a node.
type Emitter struct {
	DeadSpace         float32
	BlastRadius       float32
	BlastLength       float32
	BranchCount       uint32
	Smoothing         float32
	XGrid             uint32
	YGrid             uint32
	SpawnType         uint32
	Update            string // 32 byte fields on disk.
	Render            string
	Blend             string
	Texture           string
	ChunkName         string // 16 byte field on disk.
	TwoSidedTexture   uint32
	Loop              uint32
	RenderOrder       uint16
	FrameBlending     uint8
	DepthTextureName  string // 32 byte field on disk.
	Flags             uint32
}

// Reference attaches another model by resource name.
type Reference struct {
	Model        string // 32 byte field on disk.
	Reattachable uint32
}

// non-mesh attachments
// =============================================================================
// controllers and animations

// Controller is a time-indexed track of floats animating one property
// of a node. The property selector meanings are catalogued in
// controller.go; selectors outside the catalogue round-trip verbatim.
type Controller struct {
	Type    uint32 // Property selector.
	Bezier  bool   // Marked by 0x10 in the column count byte.
	Columns uint8  // Floats per keyframe, before the bezier multiplier.
	Rows    []ControllerRow
}

// ControllerRow is one keyframe: a time and its column data. Bezier
// tracks carry three times the columns: value, in and out tangents.
type ControllerRow struct {
	Time float32
	Data []float32
}

// dataColumns is the stored column count including the bezier
// multiplier.
func (c *Controller) dataColumns() int {
	if c.Bezier {
		return int(c.Columns) * 3
	}
	return int(c.Columns)
}

// Animation names a keyframed sequence. Its node tree parallels the
// model tree, matching nodes by name, and carries the controller
// keyframes for the animated properties.
type Animation struct {
	Name           string
	RootModel      string // Model the animation was built against.
	Length         float32
	TransitionTime float32
	Events         []Event
	Root           *Node
}

// Event marks a named point in time during an animation.
type Event struct {
	ActivationTime float32
	Name           string // 32 byte field on disk.
}

// controllers and animations
// =============================================================================
// engine identifier words

// geometryType discriminates the header kind.
const (
	geometryModel     uint8 = 2
	geometryAnimation uint8 = 5
)

// Engine identifier words. The two leading words of each geometry and
// mesh header are engine function pointers fixed per game variant and
// node kind; the reader uses the geometry words to identify the layout.
var (
	modelFuncPtrs = map[Variant][2]uint32{
		Kotor1: {4273776, 4216096},
		Kotor2: {4285200, 4216320},
	}
	animFuncPtrs = map[Variant][2]uint32{
		Kotor1: {4273392, 4451552},
		Kotor2: {4284816, 4522928},
	}
	meshFuncPtrs = map[Variant]map[uint16][2]uint32{
		Kotor1: {
			flagMesh:   {4216656, 4216672},
			flagSkin:   {4216592, 4216608},
			flagDangly: {4216640, 4216624},
		},
		Kotor2: {
			flagMesh:   {4216880, 4216896},
			flagSkin:   {4216816, 4216832},
			flagDangly: {4216864, 4216848},
		},
	}
)

// variantOf recovers the game variant from the first geometry word.
func variantOf(word uint32) (Variant, bool) {
	switch word {
	case modelFuncPtrs[Kotor1][0], animFuncPtrs[Kotor1][0]:
		return Kotor1, true
	case modelFuncPtrs[Kotor2][0], animFuncPtrs[Kotor2][0]:
		return Kotor2, true
	}
	return Kotor1, false
}

// meshWords picks the mesh header identifier words for a node kind.
func meshWords(variant Variant, m *Mesh) [2]uint32 {
	kind := flagMesh
	switch {
	case m.Skin != nil:
		kind = flagSkin
	case m.Dangly != nil:
		kind = flagDangly
	}
	return meshFuncPtrs[variant][kind]
}
