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

import (
	"github.com/gopsx/psx/clock"
	"github.com/gopsx/psx/interrupt"
)

// videoTiming holds the two constants that differ between NTSC and PAL:
// total scanlines per frame and CPU cycles per scanline.
type videoTiming struct {
	lines            uint32
	cyclesPerLine    uint32
}

var timings = map[VideoMode]videoTiming{
	NTSC: {lines: 263, cyclesPerLine: 3413},
	PAL:  {lines: 314, cyclesPerLine: 3406},
}

func (g *GPU) timing() videoTiming { return timings[g.videoMode] }

// scheduleScanlineEnd arms the next scanline-end event relative to the
// clock's current position.
func (g *GPU) scheduleScanlineEnd() {
	t := g.timing()
	remaining := uint64(t.cyclesPerLine - g.cycleInLn)
	g.clock.Schedule(clock.ScanlineEnd, remaining, 0)
}

// hblankCycles approximates the fraction of a scanline the beam spends
// outside the active display area; PSX horizontal timing is dot-clock
// divider dependent, so this is a fixed quarter-line approximation rather
// than a per-mode lookup.
func (g *GPU) hblankCycles() uint64 {
	return uint64(g.timing().cyclesPerLine / 4)
}

// NotifyEvent handles a due clock.Event routed to the GPU by the top-level
// step loop (HBlankStart/HBlankEnd/ScanlineEnd). The caller is also
// responsible for forwarding HBlankStart/HBlankEnd to the timer
// controller's NotifyHBlankStart/NotifyHBlankEnd, since GPU has no
// reference to timer and must not acquire one.
func (g *GPU) NotifyEvent(t clock.EventType) {
	switch t {
	case clock.ScanlineEnd:
		g.onScanlineEnd()
	case clock.HBlankStart:
		g.inHBlank = true
		g.clock.Schedule(clock.HBlankEnd, g.hblankCycles(), 0)
	case clock.HBlankEnd:
		g.inHBlank = false
	}
}

// ConsumeVBlankEdge reports whether a vertical-blank entry/exit happened
// since the last call, clearing both flags. The step loop polls this once
// per drained event batch to forward the edge to the timer controller,
// which has no reference to GPU and cannot observe it directly.
func (g *GPU) ConsumeVBlankEdge() (entered, exited bool) {
	entered, exited = g.vblankEntered, g.vblankExited
	g.vblankEntered, g.vblankExited = false, false
	return entered, exited
}

func (g *GPU) onScanlineEnd() {
	t := g.timing()
	g.scanline++
	g.cycleInLn = 0
	wasVBlank := g.inVBlank

	if g.scanline >= t.lines {
		g.scanline = 0
		if g.isInterlaced {
			if g.field == FieldTop {
				g.field = FieldBottom
			} else {
				g.field = FieldTop
			}
		}
		g.presentFrame()
	}

	g.inVBlank = g.scanline < g.displayLineStart || g.scanline >= g.displayLineEnd
	if g.inVBlank && !wasVBlank {
		g.irqs.Set(interrupt.VBlank)
		g.vblankEntered = true
	} else if !g.inVBlank && wasVBlank {
		g.vblankExited = true
	}

	g.scheduleScanlineEnd()
	g.clock.Schedule(clock.HBlankStart, uint64(t.cyclesPerLine)-g.hblankCycles(), 0)
}

// Step advances the within-scanline cycle counter; scanline/hblank
// transitions themselves fire from scheduled clock events (see
// scheduleScanlineEnd and onScanlineEnd), not from this tally. Present for
// symmetry with the other chip controllers' Step(cycles) signature.
func (g *GPU) Step(cpuCycles uint64) {
	g.cycleInLn += uint32(cpuCycles)
}

// presentFrame samples VRAM at the configured display origin/size and
// hands an RGBA8 buffer to the Presenter.
func (g *GPU) presentFrame() {
	if g.present == nil {
		return
	}
	width := displayWidth(g.horizontalRes, g.horizontalResFull)
	height := int(g.displayLineEnd - g.displayLineStart)
	if height <= 0 {
		height = 1
	}
	pixels := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := g.readVRAM(g.displayVRAMX+uint32(x), g.displayVRAMY+uint32(y))
			c := ColorFromU16(v)
			o := (y*width + x) * 4
			pixels[o] = c.R
			pixels[o+1] = c.G
			pixels[o+2] = c.B
			pixels[o+3] = 255
		}
	}
	g.present.Present(pixels, width, height)
}

func displayWidth(res uint8, full bool) int {
	if full {
		return 368
	}
	switch res & 3 {
	case 0:
		return 256
	case 1:
		return 320
	case 2:
		return 512
	case 3:
		return 640
	}
	return 256
}
