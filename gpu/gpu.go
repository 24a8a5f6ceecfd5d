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

// Package gpu implements the GP0 rendering command machine, the GP1
// display-control ports, a 1024x512x16bpp VRAM, and scanout timing. GP0 is
// a small state machine: a command word either executes immediately or
// starts a parameter-collection run; textured/shaded primitives rasterize
// once all their words have arrived.
package gpu

import (
	"github.com/gopsx/psx/clock"
	"github.com/gopsx/psx/interrupt"
)

const (
	vramWidth  = 1024
	vramHeight = 512
)

// TextureDepth selects how a texpage's texels are packed into VRAM words.
type TextureDepth uint8

const (
	Tex4Bit TextureDepth = iota
	Tex8Bit
	Tex15Bit
	texReserved
)

// SemiTransparency is one of the four blend modes selected by GP0(E1) bits 5-6.
type SemiTransparency uint8

const (
	HalfBackHalfFront SemiTransparency = iota
	AddBackFront
	SubBackFront
	AddBackQuarterFront
)

// DMADirection is the GP1(04h) data-request routing, reflected in GPUSTAT.
type DMADirection uint8

const (
	DMAOff DMADirection = iota
	DMAFifo
	DMACPUToGP0
	DMAVRAMToCPU
)

// VideoMode selects the scanout timing table.
type VideoMode uint8

const (
	NTSC VideoMode = iota
	PAL
)

// Field is the current interlaced scanout half, toggled every frame when
// interlacing is enabled.
type Field uint8

const (
	FieldTop Field = iota
	FieldBottom
)

// Presenter receives a completed frame's RGBA8 pixels, row-major.
type Presenter interface {
	Present(pixels []byte, width, height int)
}

// Color is an 8-bit-per-channel RGB triple, as used by Gouraud interpolation
// and texture modulation before it is re-encoded to VRAM's 5-bit format.
type Color struct {
	R, G, B uint8
}

// ColorFromU16 unpacks a VRAM/CLUT 16-bit BGR555 word (bit 15 is the mask bit,
// ignored here).
func ColorFromU16(v uint16) Color {
	return Color{
		R: expand5(uint8(v & 0x1f)),
		G: expand5(uint8((v >> 5) & 0x1f)),
		B: expand5(uint8((v >> 10) & 0x1f)),
	}
}

func expand5(v uint8) uint8 { return (v << 3) | (v >> 2) }

// ToU16 re-quantizes to 5 bits per channel; mask is OR'd in as bit 15.
func (c Color) ToU16(mask bool) uint16 {
	v := uint16(c.R>>3) | uint16(c.G>>3)<<5 | uint16(c.B>>3)<<10
	if mask {
		v |= 0x8000
	}
	return v
}

// Modulate implements the textured-primitive shading formula
// min(255, texel*shade/128), applied per channel.
func (c Color) Modulate(shade Color) Color {
	mod := func(texel, s uint8) uint8 {
		v := (int(texel) * int(s)) / 128
		if v > 255 {
			v = 255
		}
		return uint8(v)
	}
	return Color{R: mod(c.R, shade.R), G: mod(c.G, shade.G), B: mod(c.B, shade.B)}
}

// texpage describes the draw environment set by E1: base address, blend
// mode, depth, dithering, and draw-to-display-area permission.
type texpage struct {
	baseX             uint32 // in 64-halfword units
	baseY             uint32 // in 256-line units (0 or 1)
	semiTransparency  SemiTransparency
	depth             TextureDepth
	dither            bool
	drawToDisplayArea bool
	textureDisabled   bool
	rectFlipX         bool
	rectFlipY         bool
}

// GPU owns VRAM, the GP0/GP1 state machines, and scanout.
type GPU struct {
	vram [vramWidth * vramHeight]uint16

	gp0state    gp0State
	cmdWord     uint32
	params      []uint32
	vramCopyRun vramCopyState
	polyline    polylineState

	page texpage

	textureWindowMaskX, textureWindowMaskY     uint32
	textureWindowOffsetX, textureWindowOffsetY uint32

	drawAreaX1, drawAreaY1, drawAreaX2, drawAreaY2 int32
	drawOffsetX, drawOffsetY                       int32

	forceMaskBit      bool
	preserveMaskedBit bool

	displayVRAMX, displayVRAMY       uint32
	displayHorizStart, displayHorizEnd uint32
	displayLineStart, displayLineEnd   uint32
	horizontalRes                      uint8 // 0-3: 256/320/512/640, bit2: 368
	horizontalResFull                  bool
	verticalRes                        uint8 // 0=240,1=480(interlaced)
	videoMode                          VideoMode
	isInterlaced                       bool
	displayDisabled                    bool
	interruptRequest                   bool
	dmaDirection                       DMADirection

	field Field

	gpuread       uint32
	gpureadValid  bool
	gpureadWindow copyWindow

	clock     *clock.Clock
	irqs      *interrupt.Collector
	present   Presenter
	scanline  uint32
	cycleInLn uint32
	inHBlank  bool
	inVBlank  bool

	vblankEntered bool
	vblankExited  bool
}

// New returns a GPU with fields reset to their power-on values.
func New(c *clock.Clock, irqs *interrupt.Collector, p Presenter) *GPU {
	g := &GPU{clock: c, irqs: irqs, present: p}
	g.Reset()
	return g
}

// Reset restores GPUSTAT-derived state and clears the pipeline, but leaves
// VRAM contents untouched (mirrors real hardware, which doesn't clear VRAM
// on GP1(00h)).
func (g *GPU) Reset() {
	g.gp0state = gp0WaitingCommand
	g.params = g.params[:0]
	g.page = texpage{}
	g.textureWindowMaskX, g.textureWindowMaskY = 0, 0
	g.textureWindowOffsetX, g.textureWindowOffsetY = 0, 0
	g.drawAreaX1, g.drawAreaY1, g.drawAreaX2, g.drawAreaY2 = 0, 0, 0, 0
	g.drawOffsetX, g.drawOffsetY = 0, 0
	g.forceMaskBit, g.preserveMaskedBit = false, false
	g.displayVRAMX, g.displayVRAMY = 0, 0
	g.displayHorizStart, g.displayHorizEnd = 0x200, 0xc00
	g.displayLineStart, g.displayLineEnd = 0x10, 0x100
	g.horizontalRes, g.horizontalResFull = 0, false
	g.verticalRes = 0
	g.videoMode = NTSC
	g.isInterlaced = false
	g.displayDisabled = true
	g.interruptRequest = false
	g.dmaDirection = DMAOff
	g.field = FieldTop
	g.scanline, g.cycleInLn = 0, 0
	g.inHBlank, g.inVBlank = false, false
	g.vblankEntered, g.vblankExited = false, false
	if g.clock != nil {
		g.clock.Cancel(clock.HBlankStart)
		g.clock.Cancel(clock.HBlankEnd)
		g.clock.Cancel(clock.ScanlineEnd)
		g.scheduleScanlineEnd()
	}
}

// SetVideoMode selects the NTSC/PAL scanline timing table, for console
// wiring to apply a region setting before the first step.
func (g *GPU) SetVideoMode(m VideoMode) {
	g.videoMode = m
}

func (g *GPU) vramIndex(x, y uint32) int {
	return int((y%vramHeight)*vramWidth + (x % vramWidth))
}

func (g *GPU) readVRAM(x, y uint32) uint16 { return g.vram[g.vramIndex(x, y)] }

func (g *GPU) writeVRAM(x, y uint32, v uint16) { g.vram[g.vramIndex(x, y)] = v }

// GPUSTAT assembles the read-only status register from current state.
func (g *GPU) GPUSTAT() uint32 {
	var v uint32
	v |= g.page.baseX & 0xf
	v |= (g.page.baseY & 1) << 4
	v |= uint32(g.page.semiTransparency&3) << 5
	v |= uint32(g.page.depth&3) << 7
	if g.page.dither {
		v |= 1 << 9
	}
	if g.page.drawToDisplayArea {
		v |= 1 << 10
	}
	if g.forceMaskBit {
		v |= 1 << 11
	}
	if g.preserveMaskedBit {
		v |= 1 << 12
	}
	if g.field == FieldBottom {
		v |= 1 << 13
	}
	// bit 14: "distortion" test bit, always 0
	if g.page.textureDisabled {
		v |= 1 << 15
	}
	v |= uint32(g.horizontalRes&3) << 17
	if g.horizontalResFull {
		v |= 1 << 16
	}
	if g.verticalRes == 1 {
		v |= 1 << 19
	}
	if g.videoMode == PAL {
		v |= 1 << 20
	}
	if g.isInterlaced {
		v |= 1 << 22
	}
	if g.displayDisabled {
		v |= 1 << 23
	}
	if g.interruptRequest {
		v |= 1 << 24
	}
	if g.dmaRequestLine() {
		v |= 1 << 25
	}
	if g.gp0state == gp0WaitingCommand {
		v |= 1 << 26
	}
	if g.readyToSendVRAMToCPU() {
		v |= 1 << 27
	}
	if g.readyForDMABlock() {
		v |= 1 << 28
	}
	v |= uint32(g.dmaDirection&3) << 29
	if g.verticalRes == 1 && g.isInterlaced && g.field == FieldBottom {
		v |= 1 << 31
	}
	return v
}

func (g *GPU) readyToSendVRAMToCPU() bool {
	return g.gp0state == gp0VRamCopy && g.vramCopyRun.toCPU
}

func (g *GPU) readyForDMABlock() bool {
	switch g.dmaDirection {
	case DMAOff:
		return false
	case DMAFifo:
		return true
	case DMACPUToGP0:
		return g.gp0state == gp0WaitingCommand || g.gp0state == gp0WaitingCommandParameters || g.gp0state == gp0VRamCopy
	case DMAVRAMToCPU:
		return g.readyToSendVRAMToCPU()
	}
	return false
}

func (g *GPU) dmaRequestLine() bool {
	switch g.dmaDirection {
	case DMAOff:
		return false
	case DMAFifo:
		return true
	case DMACPUToGP0:
		return g.readyForDMABlock()
	case DMAVRAMToCPU:
		return g.readyToSendVRAMToCPU()
	}
	return false
}

// GPUREAD is the GPU's read-port: either the VRAM-to-CPU transfer word, or
// the result of the last GP1(10h) "get GPU info" request.
func (g *GPU) GPUREAD() uint32 {
	if g.gp0state == gp0VRamCopy && g.vramCopyRun.toCPU {
		return g.nextVRAMReadWord()
	}
	return g.gpuread
}

// ReadRegister implements bus.Peripheral for the GP0/GPUREAD and
// GP1/GPUSTAT word pair at 0x1f801810/0x1f801814.
func (g *GPU) ReadRegister(addr uint32) uint32 {
	switch addr &^ 3 {
	case 0x1f801810:
		return g.GPUREAD()
	case 0x1f801814:
		return g.GPUSTAT()
	}
	return 0
}

// WriteRegister dispatches to GP0 or GP1 depending on which word is hit.
func (g *GPU) WriteRegister(addr uint32, value uint32) {
	switch addr &^ 3 {
	case 0x1f801810:
		g.WriteGP0(value)
	case 0x1f801814:
		g.WriteGP1(value)
	}
}
