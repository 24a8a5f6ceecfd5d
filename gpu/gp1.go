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

// WriteGP1 dispatches a display-control command. Unlike GP0, every GP1
// command is a single word; there is no parameter-collection state.
func (g *GPU) WriteGP1(word uint32) {
	switch (word >> 24) & 0x3f {
	case 0x00:
		g.Reset()
	case 0x01:
		g.gp0state = gp0WaitingCommand
		g.params = g.params[:0]
	case 0x02:
		g.interruptRequest = false
	case 0x03:
		g.displayDisabled = word&1 != 0
	case 0x04:
		g.dmaDirection = DMADirection(word & 3)
	case 0x05:
		g.displayVRAMX = word & 0x3fe
		g.displayVRAMY = (word >> 10) & 0x1ff
	case 0x06:
		g.displayHorizStart = word & 0xfff
		g.displayHorizEnd = (word >> 12) & 0xfff
	case 0x07:
		g.displayLineStart = word & 0x3ff
		g.displayLineEnd = (word >> 10) & 0x3ff
	case 0x08:
		g.writeDisplayMode(word)
	case 0x10:
		g.readGPUInfo(word & 7)
	}
}

func (g *GPU) writeDisplayMode(word uint32) {
	g.horizontalRes = uint8(word & 3)
	g.horizontalResFull = word&(1<<6) != 0
	if word&(1<<2) != 0 {
		g.verticalRes = 1
	} else {
		g.verticalRes = 0
	}
	if word&(1<<3) != 0 {
		g.videoMode = PAL
	} else {
		g.videoMode = NTSC
	}
	g.isInterlaced = word&(1<<5) != 0
	// bit 4 (24bpp display depth) and bit 7 (reverseflag) aren't modeled:
	// scanout always samples VRAM as 15bpp and ignores the test flag.
}

// readGPUInfo implements GP1(10h): the requested value is latched and
// becomes readable through GPUREAD until the next such request.
func (g *GPU) readGPUInfo(which uint32) {
	switch which {
	case 2:
		g.gpuread = uint32(g.textureWindowMaskX) | uint32(g.textureWindowMaskY)<<5 |
			uint32(g.textureWindowOffsetX)<<10 | uint32(g.textureWindowOffsetY)<<15
	case 3:
		g.gpuread = uint32(g.drawAreaX1) | uint32(g.drawAreaY1)<<10
	case 4:
		g.gpuread = uint32(g.drawAreaX2) | uint32(g.drawAreaY2)<<10
	case 5:
		g.gpuread = uint32(uint32(g.drawOffsetX)&0x7ff) | (uint32(uint32(g.drawOffsetY)&0x7ff) << 11)
	case 7:
		g.gpuread = 2 // GPU type
	default:
		g.gpuread = 0
	}
}
