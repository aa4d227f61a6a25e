// Copyright © 2024-2025 Galvanized Logic Inc.

package load

// buffer.go provides little-endian cursor access over byte slices.
// The binary model and walkmesh formats are offset driven, so reads
// seek freely while writes append and backpatch offsets.

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/math/f32"

	"github.com/gazed/odyssey/math/lin"
)

// reader consumes a byte slice little-endian. The first read or seek
// past the data records a sticky error carrying the failing offset;
// later reads return zero values so that decode code can run straight
// through and check the error once per structure.
type reader struct {
	data []byte
	pos  int
	err  error
}

func newReader(data []byte) *reader { return &reader{data: data} }

// fail records the first error at the current position.
func (r *reader) fail(kind error, what string) {
	if r.err == nil {
		r.err = errors.Wrapf(kind, "%s at offset %d", what, r.pos)
	}
}

// seek moves the cursor to an absolute byte offset.
func (r *reader) seek(off int) *reader {
	if r.err != nil {
		return r
	}
	if off < 0 || off > len(r.data) {
		r.fail(ErrMalformed, "seek out of range")
		return r
	}
	r.pos = off
	return r
}

// bytes returns the next n bytes. The returned slice aliases the input
// buffer and must be copied if kept.
func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.fail(ErrTruncated, "short read")
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) u8() uint8 {
	b := r.bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.bytes(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) i32() int32   { return int32(r.u32()) }
func (r *reader) f32() float32 { return math.Float32frombits(r.u32()) }

// vec2, vec3, vec4 read packed float32 vectors for per-vertex streams.
func (r *reader) vec2() f32.Vec2 { return f32.Vec2{r.f32(), r.f32()} }
func (r *reader) vec3() f32.Vec3 { return f32.Vec3{r.f32(), r.f32(), r.f32()} }
func (r *reader) vec4() f32.Vec4 { return f32.Vec4{r.f32(), r.f32(), r.f32(), r.f32()} }

// v3 reads a float32 vector into the float64 math type used for
// node transforms.
func (r *reader) v3() lin.V3 {
	return lin.V3{X: float64(r.f32()), Y: float64(r.f32()), Z: float64(r.f32())}
}

// quat reads a disk order W,X,Y,Z quaternion, returning the in-memory
// X,Y,Z,W order.
func (r *reader) quat() lin.Q {
	w := float64(r.f32())
	x := float64(r.f32())
	y := float64(r.f32())
	z := float64(r.f32())
	return lin.Q{X: x, Y: y, Z: z, W: w}
}

// cstr reads a NUL terminated ASCII string of any length.
func (r *reader) cstr() string {
	if r.err != nil {
		return ""
	}
	for i := r.pos; i < len(r.data); i++ {
		if r.data[i] == 0 {
			s := string(r.data[r.pos:i])
			r.pos = i + 1
			return s
		}
	}
	r.fail(ErrTruncated, "unterminated string")
	return ""
}

// str reads a fixed width NUL padded ASCII field.
func (r *reader) str(width int) string {
	b := r.bytes(width)
	if b == nil {
		return ""
	}
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

// triple reads the (offset, count, duplicate count) array descriptor
// used throughout the model format. A duplicate count disagreeing with
// its primary marks a malformed file.
func (r *reader) triple(what string) (off int, count int) {
	o := r.u32()
	c1 := r.u32()
	c2 := r.u32()
	if r.err == nil && c1 != c2 {
		r.fail(ErrMalformed, what+" array counts disagree")
	}
	return int(o), int(c1)
}

// reader
// =============================================================================
// writer

// writer builds a little-endian byte slice by appending, with absolute
// offset backpatching for the layout pass.
type writer struct {
	data []byte
}

func newWriter() *writer { return &writer{data: make([]byte, 0, 4096)} }

func (w *writer) len() int      { return len(w.data) }
func (w *writer) bytes() []byte { return w.data }

func (w *writer) u8(v uint8)  { w.data = append(w.data, v) }
func (w *writer) raw(b []byte) { w.data = append(w.data, b...) }

func (w *writer) u16(v uint16) {
	w.data = binary.LittleEndian.AppendUint16(w.data, v)
}

func (w *writer) u32(v uint32) {
	w.data = binary.LittleEndian.AppendUint32(w.data, v)
}

func (w *writer) i32(v int32)   { w.u32(uint32(v)) }
func (w *writer) f32(v float32) { w.u32(math.Float32bits(v)) }

func (w *writer) vec2(v f32.Vec2) { w.f32(v[0]); w.f32(v[1]) }
func (w *writer) vec3(v f32.Vec3) { w.f32(v[0]); w.f32(v[1]); w.f32(v[2]) }
func (w *writer) vec4(v f32.Vec4) { w.f32(v[0]); w.f32(v[1]); w.f32(v[2]); w.f32(v[3]) }

// v3 writes the float64 math type as packed float32s.
func (w *writer) v3(v lin.V3) {
	w.f32(float32(v.X))
	w.f32(float32(v.Y))
	w.f32(float32(v.Z))
}

// quat writes an X,Y,Z,W quaternion in disk order W,X,Y,Z.
func (w *writer) quat(q lin.Q) {
	w.f32(float32(q.W))
	w.f32(float32(q.X))
	w.f32(float32(q.Y))
	w.f32(float32(q.Z))
}

// str writes a fixed width NUL padded ASCII field. Over-long values
// cannot be represented on disk.
func (w *writer) str(s string, width int) error {
	if len(s) > width {
		return errors.Wrapf(ErrUnrepresentable, "name %q exceeds %d bytes", s, width)
	}
	w.raw([]byte(s))
	w.pad(width - len(s))
	return nil
}

// pad appends n zero bytes.
func (w *writer) pad(n int) {
	for i := 0; i < n; i++ {
		w.data = append(w.data, 0)
	}
}

// triple writes an (offset, count, duplicate count) array descriptor.
func (w *writer) triple(off uint32, count int) {
	w.u32(off)
	w.u32(uint32(count))
	w.u32(uint32(count))
}

// putU32 backpatches a previously written u32 at an absolute position.
func (w *writer) putU32(at int, v uint32) {
	binary.LittleEndian.PutUint32(w.data[at:at+4], v)
}
