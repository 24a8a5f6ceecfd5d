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

package gpu

// gp0State is the GP0 command-port state machine.
type gp0State int

const (
	gp0WaitingCommand gp0State = iota
	gp0WaitingCommandParameters
	gp0VRamCopy
	gp0WaitingPolyline
)

// copyWindow is the rectangular VRAM region a CPU<->VRAM copy streams
// through, plus how far into it the transfer has progressed.
type copyWindow struct {
	x, y, w, h   uint32
	curX, curY   uint32
}

func (w *copyWindow) done() bool { return w.curY >= w.h }

func (w *copyWindow) advance() (x, y uint32) {
	x, y = w.x+w.curX, w.y+w.curY
	w.curX++
	if w.curX >= w.w {
		w.curX = 0
		w.curY++
	}
	return
}

type vramCopyState struct {
	win   copyWindow
	toCPU bool
	// for CPU->VRAM, a pending low halfword waiting for its high halfword
	// is never needed since each 32-bit word packs exactly two pixels.
}

type polylineState struct {
	vertices        []Vertex
	colors          []Color
	shaded          bool
	semiTransparent bool
}

// WriteGP0 feeds one 32-bit word to the rendering command port.
func (g *GPU) WriteGP0(word uint32) {
	switch g.gp0state {
	case gp0WaitingCommand:
		g.beginCommand(word)
	case gp0WaitingCommandParameters:
		g.params = append(g.params, word)
		if g.commandReady() {
			g.dispatchCommand()
		}
	case gp0VRamCopy:
		g.feedVRAMCopyWord(word)
	case gp0WaitingPolyline:
		g.feedPolylineWord(word)
	}
}

// commandReady reports whether enough parameter words have arrived for the
// buffered command, consulting paramCount for commands whose length depends
// on a flag bit in the command word itself.
func (g *GPU) commandReady() bool {
	return len(g.params) >= g.paramCount()
}

func (g *GPU) paramCount() int {
	op := g.cmdWord >> 24
	switch {
	case op>>5 == 0x1: // polygon
		return polygonParamCount(g.cmdWord)
	case op>>5 == 0x2: // line, non-poly handled separately via WaitingPolyline
		return lineParamCount(g.cmdWord)
	case op>>5 == 0x3: // rectangle
		return rectangleParamCount(g.cmdWord)
	case op>>5 == 0x4: // vram to vram
		return 3
	case op>>5 == 0x5: // cpu to vram
		return 2
	case op>>5 == 0x6: // vram to cpu
		return 2
	}
	switch op {
	case 0x02:
		return 2
	case 0xe1, 0xe2, 0xe3, 0xe4, 0xe5, 0xe6:
		return 0
	}
	return 0
}

// polygonParamCount returns how many words follow the command word: one
// position word per vertex, one UV/CLUT word per vertex if textured, and
// one color word per vertex after the first if Gouraud-shaded (the first
// vertex's color is packed into the command word itself).
func polygonParamCount(cmd uint32) int {
	vertices := 3
	if cmd&(1<<27) != 0 {
		vertices = 4
	}
	n := vertices
	if cmd&(1<<26) != 0 {
		n += vertices
	}
	if cmd&(1<<28) != 0 {
		n += vertices - 1
	}
	return n
}

func lineParamCount(cmd uint32) int {
	// polylines are handled by gp0WaitingPolyline; this only covers a
	// single fixed two-point line.
	n := 2
	if cmd&(1<<28) != 0 {
		n = 3 // one extra color word for the second vertex
	}
	return n
}

func rectangleParamCount(cmd uint32) int {
	n := 1 // position word
	size := (cmd >> 27) & 3
	if size == 0 {
		n++ // variable size word
	}
	if cmd&(1<<26) != 0 {
		n++ // uv/clut word
	}
	return n
}

// beginCommand decodes the top three bits of a fresh command word and
// either executes immediately or starts collecting parameters.
func (g *GPU) beginCommand(word uint32) {
	op := word >> 24
	g.cmdWord = word
	g.params = g.params[:0]

	switch op {
	case 0x00:
		return // NOP
	case 0x01:
		return // clear texture cache: VRAM model has none to clear
	case 0x02:
		g.gp0state = gp0WaitingCommandParameters
		return
	case 0xe1:
		g.writeE1(word)
		return
	case 0xe2:
		g.writeE2(word)
		return
	case 0xe3:
		g.writeE3(word)
		return
	case 0xe4:
		g.writeE4(word)
		return
	case 0xe5:
		g.writeE5(word)
		return
	case 0xe6:
		g.writeE6(word)
		return
	}

	switch op >> 5 {
	case 0x1, 0x3, 0x4, 0x5, 0x6:
		g.gp0state = gp0WaitingCommandParameters
		if op>>5 == 0x5 { // CPU->VRAM needs only the dest rect + size before streaming
			// handled specially below once both params arrive
		}
	case 0x2:
		if word&(1<<27) != 0 { // polyline
			g.startPolyline(word)
			return
		}
		g.gp0state = gp0WaitingCommandParameters
	default:
		g.gp0state = gp0WaitingCommand
	}
}

func (g *GPU) dispatchCommand() {
	op := g.cmdWord >> 24
	g.gp0state = gp0WaitingCommand

	switch {
	case op == 0x02:
		g.execFillRectVRAM()
		return
	case op>>5 == 0x1:
		g.execPolygon()
		return
	case op>>5 == 0x2:
		g.execLine()
		return
	case op>>5 == 0x3:
		g.execRectangle()
		return
	case op>>5 == 0x4:
		g.execVRAMToVRAM()
		return
	case op>>5 == 0x5:
		g.startCPUToVRAM()
		return
	case op>>5 == 0x6:
		g.startVRAMToCPU()
		return
	}
}

// execFillRectVRAM implements GP0(02h): an opaque, mask-ignoring flat fill.
func (g *GPU) execFillRectVRAM() {
	color := colorFromCmdWord(g.cmdWord)
	pos := g.params[0]
	size := g.params[1]
	x0 := pos & 0x3f0
	y0 := (pos >> 16) & 0x1ff
	w := ((size & 0x3ff) + 0xf) &^ 0xf
	h := (size >> 16) & 0x1ff
	if w == 0 {
		w = 0x10
	}
	v := color.ToU16(false)
	for y := uint32(0); y < h; y++ {
		for x := uint32(0); x < w; x++ {
			g.writeVRAM(x0+x, y0+y, v)
		}
	}
}

func (g *GPU) startCPUToVRAM() {
	pos := g.params[0]
	size := g.params[1]
	x0 := pos & 0x3ff
	y0 := (pos >> 16) & 0x1ff
	w := size & 0xffff
	if w == 0 {
		w = vramWidth
	}
	h := (size >> 16) & 0xffff
	if h == 0 {
		h = vramHeight
	}
	g.vramCopyRun = vramCopyState{win: copyWindow{x: x0, y: y0, w: w, h: h}}
	g.gp0state = gp0VRamCopy
}

func (g *GPU) startVRAMToCPU() {
	pos := g.params[0]
	size := g.params[1]
	x0 := pos & 0x3ff
	y0 := (pos >> 16) & 0x1ff
	w := size & 0xffff
	if w == 0 {
		w = vramWidth
	}
	h := (size >> 16) & 0xffff
	if h == 0 {
		h = vramHeight
	}
	g.vramCopyRun = vramCopyState{win: copyWindow{x: x0, y: y0, w: w, h: h}, toCPU: true}
	g.gp0state = gp0VRamCopy
}

// feedVRAMCopyWord unpacks an incoming CPU->VRAM word into its two pixels.
// VRAM->CPU transfers never reach here: GPUREAD drains them on demand via
// nextVRAMReadWord, and the state resets to WaitingCommand once the window
// is exhausted so a later write can begin a new command.
func (g *GPU) feedVRAMCopyWord(word uint32) {
	if g.vramCopyRun.toCPU {
		return
	}
	lo := uint16(word)
	hi := uint16(word >> 16)
	if !g.vramCopyRun.win.done() {
		x, y := g.vramCopyRun.win.advance()
		g.writeMaybeProtected(x, y, lo)
	}
	if !g.vramCopyRun.win.done() {
		x, y := g.vramCopyRun.win.advance()
		g.writeMaybeProtected(x, y, hi)
	}
	if g.vramCopyRun.win.done() {
		g.gp0state = gp0WaitingCommand
	}
}

func (g *GPU) nextVRAMReadWord() uint32 {
	win := &g.vramCopyRun.win
	var lo, hi uint16
	if !win.done() {
		x, y := win.advance()
		lo = g.readVRAM(x, y)
	}
	if !win.done() {
		x, y := win.advance()
		hi = g.readVRAM(x, y)
	}
	if win.done() {
		g.gp0state = gp0WaitingCommand
	}
	return uint32(lo) | uint32(hi)<<16
}

func (g *GPU) execVRAMToVRAM() {
	src := g.params[0]
	dst := g.params[1]
	size := g.params[2]
	sx, sy := src&0x3ff, (src>>16)&0x1ff
	dx, dy := dst&0x3ff, (dst>>16)&0x1ff
	w := size & 0xffff
	if w == 0 {
		w = vramWidth
	}
	h := (size >> 16) & 0xffff
	if h == 0 {
		h = vramHeight
	}
	for y := uint32(0); y < h; y++ {
		for x := uint32(0); x < w; x++ {
			v := g.readVRAM(sx+x, sy+y)
			g.writeMaybeProtected(dx+x, dy+y, v)
		}
	}
}

func (g *GPU) writeMaybeProtected(x, y uint32, v uint16) {
	if g.preserveMaskedBit && g.readVRAM(x, y)&0x8000 != 0 {
		return
	}
	if g.forceMaskBit {
		v |= 0x8000
	}
	g.writeVRAM(x, y, v)
}

// writeE1 sets the texpage/draw-environment fields (GP0(E1h)).
func (g *GPU) writeE1(word uint32) {
	g.page.baseX = word & 0xf
	g.page.baseY = (word >> 4) & 1
	g.page.semiTransparency = SemiTransparency((word >> 5) & 3)
	g.page.depth = TextureDepth((word >> 7) & 3)
	g.page.dither = word&(1<<9) != 0
	g.page.drawToDisplayArea = word&(1<<10) != 0
	g.page.textureDisabled = word&(1<<11) != 0
	g.page.rectFlipX = word&(1<<12) != 0
	g.page.rectFlipY = word&(1<<13) != 0
}

// writeE2 sets the texture window mask/offset (GP0(E2h)), in 8-pixel units.
func (g *GPU) writeE2(word uint32) {
	g.textureWindowMaskX = word & 0x1f
	g.textureWindowMaskY = (word >> 5) & 0x1f
	g.textureWindowOffsetX = (word >> 10) & 0x1f
	g.textureWindowOffsetY = (word >> 15) & 0x1f
}

// writeE3/E4 set the drawing-area top-left/bottom-right corners (GP0(E3h/E4h)).
func (g *GPU) writeE3(word uint32) {
	g.drawAreaX1 = int32(word & 0x3ff)
	g.drawAreaY1 = int32((word >> 10) & 0x3ff)
}

func (g *GPU) writeE4(word uint32) {
	g.drawAreaX2 = int32(word & 0x3ff)
	g.drawAreaY2 = int32((word >> 10) & 0x3ff)
}

// writeE5 sets the signed drawing offset applied to every vertex (GP0(E5h)).
func (g *GPU) writeE5(word uint32) {
	g.drawOffsetX = signExtend11(word & 0x7ff)
	g.drawOffsetY = signExtend11((word >> 11) & 0x7ff)
}

func signExtend11(v uint32) int32 {
	if v&0x400 != 0 {
		return int32(v) - 0x800
	}
	return int32(v)
}

// writeE6 sets mask-bit handling (GP0(E6h)).
func (g *GPU) writeE6(word uint32) {
	g.forceMaskBit = word&1 != 0
	g.preserveMaskedBit = word&2 != 0
}
