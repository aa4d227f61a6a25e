// Copyright © 2024-2025 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package load

// controller.go catalogues the controller property selectors used by
// the model formats. The reader accepts any selector and the writer
// emits exactly what it was given, so the catalogue is informative:
// it names the documented selectors and their expected column counts
// for tooling that creates controllers from scratch.

// Controller property selectors common to every node type.
const (
	ControllerPosition    uint32 = 8  // 3 columns.
	ControllerOrientation uint32 = 20 // 4 columns.
	ControllerScale       uint32 = 36 // 1 column.
)

// Controller property selectors for light nodes.
const (
	ControllerLightColor        uint32 = 76 // 3 columns.
	ControllerLightRadius       uint32 = 88 // 1 column.
	ControllerLightShadowRadius uint32 = 96 // 1 column.
	ControllerLightMultiplier   uint32 = 140
)

// Controller property selectors for mesh nodes.
const (
	ControllerSelfIllumColor uint32 = 100 // 3 columns.
	ControllerAlpha          uint32 = 128 // 1 column.
)

// Controller property selectors for emitter nodes.
const (
	ControllerAlphaEnd       uint32 = 80
	ControllerAlphaStart     uint32 = 84
	ControllerBirthRate      uint32 = 88
	ControllerBounce         uint32 = 92
	ControllerCombineTime    uint32 = 96
	ControllerDrag           uint32 = 100
	ControllerFPS            uint32 = 104
	ControllerFrameEnd       uint32 = 108
	ControllerFrameStart     uint32 = 112
	ControllerGravity        uint32 = 116
	ControllerLifeExpectancy uint32 = 120
	ControllerMass           uint32 = 124
	ControllerParticleRot    uint32 = 136
	ControllerRandomVelocity uint32 = 140
	ControllerSizeStart      uint32 = 144
	ControllerSizeEnd        uint32 = 148
	ControllerSizeStartY     uint32 = 152
	ControllerSizeEndY       uint32 = 156
	ControllerSpread         uint32 = 160
	ControllerThreshold      uint32 = 164
	ControllerVelocity       uint32 = 168
	ControllerXSize          uint32 = 172
	ControllerYSize          uint32 = 176
	ControllerBlurLength     uint32 = 180
	ControllerAlphaMid       uint32 = 216
	ControllerPercentStart   uint32 = 220
	ControllerPercentMid     uint32 = 224
	ControllerPercentEnd     uint32 = 228
	ControllerSizeMid        uint32 = 232
	ControllerSizeMidY       uint32 = 236
	ControllerColorMid       uint32 = 284
	ControllerColorEnd       uint32 = 380
	ControllerColorStart     uint32 = 392
	ControllerDetonate       uint32 = 502
)

// bezierFlag marks bezier interpolated tracks in the stored column
// count byte. Bezier rows hold three times the columns: the value and
// the in and out tangents.
const bezierFlag uint8 = 0x10

// controllerColumns maps the catalogued selectors to their keyframe
// column counts. Selectors outside this map still parse; the column
// count then comes from the file alone.
var controllerColumns = map[uint32]uint8{
	ControllerPosition:          3,
	ControllerOrientation:       4,
	ControllerScale:             1,
	ControllerLightColor:        3,
	ControllerLightRadius:       1,
	ControllerLightShadowRadius: 1,
	ControllerSelfIllumColor:    3,
	ControllerAlpha:             1,
}

// ControllerColumnCount returns the documented column count for a
// catalogued selector and ok=false for selectors that are format
// pass-through.
func ControllerColumnCount(selector uint32) (columns uint8, ok bool) {
	columns, ok = controllerColumns[selector]
	return columns, ok
}
