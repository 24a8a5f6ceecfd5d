// This file is part of gopsx.
//
// gopsx is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// gopsx is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with gopsx.  If not, see <https://www.gnu.org/licenses/>.

// Package cop2 implements the geometry transformation engine (coprocessor
// 2): a fixed-point 3D matrix/vector pipeline with saturating 44-bit
// accumulators, a sticky flags register, and a 22-command dispatch table.
// Grounded on original_source/src/core/cpu/cop2.rs for exact per-command
// semantics, expressed as a register-file-plus-flags state machine in the
// style of the rest of this module's coprocessor packages.
package cop2

import "github.com/gopsx/psx/logger"

// GTE is the coprocessor 2 register file and command processor.
type GTE struct {
	// Data registers (32 x 32-bit).
	V   [3]Vector16 // V0, V1, V2
	RGBC Color       // packed R,G,B,CODE
	OTZ  uint16

	IR0, IR1, IR2, IR3 int32 // sign-extended 16-bit accumulator outputs

	// screen XY FIFO (3 deep) and Z FIFO (4 deep; of the commands, only AVSZ4 reads SZ0)
	SXY [3]ScreenXY
	SZ  [4]uint16

	// colour FIFO (3 deep)
	RGBFIFO [3]Color

	RES1 uint32

	MAC0 int32
	MAC1, MAC2, MAC3 int64 // kept wide; truncated to 32 bits on read

	LZCS int32

	// Control registers.
	RT  Matrix3 // rotation matrix
	TR  Vector32 // translation vector
	L   Matrix3  // light matrix
	BK  Vector32 // background colour
	LCM Matrix3  // light colour matrix
	FC  Vector32 // far colour

	OFX, OFY int32 // screen offsets, 16.16 fixed point
	H        uint16 // projection plane distance
	DQA      int16
	DQB      int32
	ZSF3, ZSF4 int16

	Flags uint32

	// BusyCycles models the remaining per-command cost; the CPU decrements
	// it each step, and MFC2/LWC2/SWC2/COP2 charge whatever is left of it
	// as stall cycles (CFC2 does not).
	BusyCycles int
}

// Vector16 is a 3-component fixed-point vector with 16-bit lanes, as stored
// in V0-V2.
type Vector16 struct{ X, Y, Z int16 }

// Vector32 is a 3-component vector with 32-bit lanes (TR, BK, FC).
type Vector32 struct{ X, Y, Z int32 }

// Matrix3 is a 3x3 matrix of 16-bit fixed point lanes.
type Matrix3 [3][3]int16

// Color is the packed 8.8.8.8 RGBC/code register layout.
type Color struct{ R, G, B, Code uint8 }

// Pack returns the 32-bit packed representation (code in bits 24-31).
func (c Color) Pack() uint32 {
	return uint32(c.R) | uint32(c.G)<<8 | uint32(c.B)<<16 | uint32(c.Code)<<24
}

// UnpackColor reverses Color.Pack.
func UnpackColor(v uint32) Color {
	return Color{R: uint8(v), G: uint8(v >> 8), B: uint8(v >> 16), Code: uint8(v >> 24)}
}

// ScreenXY is a signed 16-bit screen coordinate pair, as pushed to the SXY FIFO.
type ScreenXY struct{ X, Y int16 }

// Pack returns the 32-bit packed (Y<<16 | X) representation used by SXY/SXYP reads.
func (s ScreenXY) Pack() uint32 {
	return uint32(uint16(s.X)) | uint32(uint16(s.Y))<<16
}

// New returns a GTE with all registers zeroed, matching power-on state.
func New() *GTE {
	return &GTE{}
}

// flag bits: writing saturated results sets specific bits;
// reading the flag register ORs in a sticky bit 31 derived from bits
// {13..18, 23..30}.
const (
	flagIR0Sat    = 1 << 12
	flagSZ3OTZSat = 1 << 18
	flagColorRSat = 1 << 21
	flagColorGSat = 1 << 20
	flagColorBSat = 1 << 19
	flagSX2Sat    = 1 << 14
	flagSY2Sat    = 1 << 13
	flagIR1Sat    = 1 << 24
	flagIR2Sat    = 1 << 23
	flagIR3Sat    = 1 << 22
	flagMAC0Neg   = 1 << 15
	flagMAC0Pos   = 1 << 16
	flagDivOverflow = 1 << 17
	flagMAC1Pos   = 1 << 30
	flagMAC2Pos   = 1 << 29
	flagMAC3Pos   = 1 << 28
	flagMAC1Neg   = 1 << 27
	flagMAC2Neg   = 1 << 26
	flagMAC3Neg   = 1 << 25
)

const stickyMask = 0x7f87e000 // bits 13..18 and 23..30

// ReadFlags implements reading control register 31: the accumulated bits
// plus the sticky OR of the error-indicating subset.
func (g *GTE) ReadFlags() uint32 {
	v := g.Flags &^ (1 << 31)
	if v&stickyMask != 0 {
		v |= 1 << 31
	}
	return v
}

func (g *GTE) setFlag(bit uint32) { g.Flags |= bit }

// saturate clamps v to [lo, hi], setting bit in Flags if clamping occurred.
func (g *GTE) saturate(v int64, lo, hi int64, bit uint32) int64 {
	if v < lo {
		g.setFlag(bit)
		return lo
	}
	if v > hi {
		g.setFlag(bit)
		return hi
	}
	return v
}

// saturateIR saturates a MAC value into an IR register, honouring the lm bit
// (0 = allow negative down to -0x8000, 1 = clamp to 0).
func (g *GTE) saturateIR(v int64, lm bool, bit uint32) int32 {
	lo := int64(-0x8000)
	if lm {
		lo = 0
	}
	return int32(g.saturate(v, lo, 0x7fff, bit))
}

func (g *GTE) saturateColor(v int64, bit uint32) uint8 {
	return uint8(g.saturate(v, 0, 0xff, bit))
}

func (g *GTE) saturateSXY(v int64, bit uint32) int16 {
	return int16(g.saturate(v, -0x400, 0x3ff, bit))
}

func (g *GTE) saturateSZ(v int64) uint16 {
	return uint16(g.saturate(v, 0, 0xffff, flagSZ3OTZSat))
}

// pushSXY pushes a new screen-coordinate entry into the 3-deep FIFO.
func (g *GTE) pushSXY(x, y int16) {
	g.SXY[0] = g.SXY[1]
	g.SXY[1] = g.SXY[2]
	g.SXY[2] = ScreenXY{X: x, Y: y}
}

// pushSZ pushes a new Z entry into the 4-deep FIFO.
func (g *GTE) pushSZ(z uint16) {
	g.SZ[0] = g.SZ[1]
	g.SZ[1] = g.SZ[2]
	g.SZ[2] = g.SZ[3]
	g.SZ[3] = z
}

// pushRGB pushes a new colour entry into the 3-deep FIFO.
func (g *GTE) pushRGB(c Color) {
	g.RGBFIFO[0] = g.RGBFIFO[1]
	g.RGBFIFO[1] = g.RGBFIFO[2]
	g.RGBFIFO[2] = c
}

// LeadingZeroCount implements LZCS/LZCR: counts the leading run of the bit
// identical to bit 31 of LZCS (so negatives count leading ones).
func (g *GTE) LeadingZeroCount() uint32 {
	v := uint32(g.LZCS)
	sign := v >> 31
	count := uint32(0)
	for count < 32 && (v>>(31-count))&1 == sign {
		count++
	}
	return count
}

// Execute decodes and runs a COP2 imm25 command word.
func (g *GTE) Execute(opcode uint32) {
	g.Flags = 0

	cmd := opcode & 0x3f
	sf := (opcode>>19)&1 != 0
	lm := (opcode>>10)&1 != 0
	mx := (opcode >> 17) & 0x3
	sv := (opcode >> 15) & 0x3
	cv := (opcode >> 13) & 0x3

	fn, cost := g.lookup(cmd)
	if fn == nil {
		logger.Logf("gte", "unsupported command %#02x, opcode %#08x", cmd, opcode)
		g.BusyCycles = 1
		return
	}
	fn(cmdArgs{sf: sf, lm: lm, mx: mx, sv: sv, cv: cv})
	g.BusyCycles = cost
}

type cmdArgs struct {
	sf   bool
	lm   bool
	mx   uint32
	sv   uint32
	cv   uint32
}

func (g *GTE) lookup(cmd uint32) (func(cmdArgs), int) {
	switch cmd {
	case 0x01:
		return g.opRTPS, 15
	case 0x06:
		return g.opNCLIP, 8
	case 0x0c:
		return g.opOP, 6
	case 0x10:
		return g.opDPCS, 8
	case 0x11:
		return g.opINTPL, 8
	case 0x12:
		return g.opMVMVA, 8
	case 0x13:
		return g.opNCDS, 14
	case 0x14:
		return g.opCDP, 13
	case 0x16:
		return g.opNCDT, 44
	case 0x1b:
		return g.opNCCS, 17
	case 0x1c:
		return g.opCC, 11
	case 0x1e:
		return g.opNCS, 14
	case 0x20:
		return g.opNCT, 30
	case 0x28:
		return g.opSQR, 5
	case 0x29:
		return g.opDCPL, 8
	case 0x2a:
		return g.opDPCT, 17
	case 0x2d:
		return g.opAVSZ3, 5
	case 0x2e:
		return g.opAVSZ4, 6
	case 0x30:
		return g.opRTPT, 23
	case 0x3d:
		return g.opGPF, 5
	case 0x3e:
		return g.opGPL, 5
	case 0x3f:
		return g.opNCCT, 39
	default:
		return nil, 0
	}
}
