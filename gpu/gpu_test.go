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
	"testing"

	"github.com/gopsx/psx/clock"
	"github.com/gopsx/psx/interrupt"
)

func newGPU() *GPU {
	g, _ := newGPUWithCollector()
	return g
}

func newGPUWithCollector() (*GPU, *interrupt.Collector) {
	c := clock.New(1.585)
	h := &interrupt.Collector{}
	return New(c, h, nil), h
}

func TestFillRectangleWritesFlatColor(t *testing.T) {
	g := newGPU()
	g.WriteGP0(0x02000080 | 0x00ff0000) // blue-ish fill
	g.WriteGP0(0x00100010)              // x=0x10, y=0x10
	g.WriteGP0(0x00100010)              // w=0x10, h=0x10

	v := g.readVRAM(0x10, 0x10)
	if v&0x8000 != 0 {
		t.Fatalf("fill must not set the mask bit on its own")
	}
	if v == 0 {
		t.Fatalf("fill left pixel as 0, want a colored pixel")
	}
}

func TestCPUToVRAMThenVRAMToCPURoundTrips(t *testing.T) {
	g := newGPU()
	g.WriteGP0(0xa0000000)
	g.WriteGP0(0x00000000) // x=0,y=0
	g.WriteGP0(0x00020002) // 2x2
	g.WriteGP0(0x22221111)
	g.WriteGP0(0x44443333)

	if g.gp0state != gp0WaitingCommand {
		t.Fatalf("state = %v after full window, want WaitingCommand", g.gp0state)
	}
	if g.readVRAM(0, 0) != 0x1111 || g.readVRAM(1, 0) != 0x2222 {
		t.Fatalf("row 0 = %#x %#x, want 1111 2222", g.readVRAM(0, 0), g.readVRAM(1, 0))
	}

	g.WriteGP0(0xc0000000)
	g.WriteGP0(0x00000000)
	g.WriteGP0(0x00020002)
	word := g.GPUREAD()
	if word != 0x22221111 {
		t.Fatalf("GPUREAD = %#x, want 0x22221111", word)
	}
}

func TestFlatTriangleFillsInteriorNotExterior(t *testing.T) {
	g := newGPU()
	g.writeE3(0)
	g.writeE4(0x1ff | (0x1ff << 10))
	g.WriteGP0(0x20ff0000) // flat opaque triangle, red
	g.WriteGP0(packPos(10, 10))
	g.WriteGP0(packPos(50, 10))
	g.WriteGP0(packPos(10, 50))

	if g.readVRAM(20, 20) == 0 {
		t.Fatalf("expected interior pixel (20,20) to be filled")
	}
	if g.readVRAM(100, 100) != 0 {
		t.Fatalf("expected exterior pixel (100,100) to be untouched")
	}
}

func packPos(x, y int32) uint32 {
	return uint32(x&0x7ff) | uint32(y&0x7ff)<<11
}

func TestLineDrawsBothEndpointsForDegenerateCase(t *testing.T) {
	g := newGPU()
	g.writeE4(0x1ff | (0x1ff << 10))
	g.WriteGP0(0x40ff00ff)
	g.WriteGP0(packPos(5, 5))
	g.WriteGP0(packPos(5, 5))

	if g.readVRAM(5, 5) == 0 {
		t.Fatalf("degenerate line did not draw its single pixel")
	}
}

func TestSemiTransparencyHalfPlusHalf(t *testing.T) {
	g := newGPU()
	g.writeVRAM(3, 3, Color{R: 200}.ToU16(false))
	front := Color{R: 100}
	out := g.blend(3, 3, front, HalfBackHalfFront)
	if out.R < 140 || out.R > 160 {
		t.Fatalf("blended R = %d, want close to 150", out.R)
	}
}

func TestGPUSTATReflectsDisplayMode(t *testing.T) {
	g := newGPU()
	g.WriteGP1(0x08000000 | 1<<3 | 1) // PAL, 320 horizontal res
	st := g.GPUSTAT()
	if st&(1<<20) == 0 {
		t.Fatalf("GPUSTAT PAL bit not set")
	}
}

func TestVBlankIRQFiresOnBlankEntry(t *testing.T) {
	g, h := newGPUWithCollector()
	g.displayLineStart, g.displayLineEnd = 16, 256
	g.scanline = uint32(g.timing().lines - 1)
	g.onScanlineEnd()

	var c interrupt.Controller
	h.Flush(&c)
	if c.Status()&(1<<interrupt.VBlank) == 0 {
		t.Fatalf("vblank interrupt not raised on blank entry")
	}
}
