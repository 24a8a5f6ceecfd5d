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

package bus

import "github.com/gopsx/psx/logger"

// Read8/Read16/Read32/Write8/Write16/Write32 implement cpu.Bus.

func (b *Bus) Read8(addr uint32) uint8 {
	if b.watchRead != nil {
		b.watchRead(addr)
	}
	reg, off := classify(addr)
	switch reg {
	case regionRAM:
		return b.ram[off]
	case regionScratchpad:
		return b.scratchpad[off]
	case regionBIOS:
		return b.bios[off]
	case regionIOPorts:
		if dev, ok := b.findPeripheral(addr); ok {
			return uint8(dev.ReadRegister(addr))
		}
		return b.ioPorts[off]
	case regionExpansion2:
		if off < expansion2Size {
			return b.expansion2[off]
		}
		return 0xff
	case regionCacheControl:
		return uint8(b.cacheControl)
	default:
		logger.Logf("bus", "read8 from unmapped address %#08x", addr)
		return 0xff
	}
}

func (b *Bus) Read16(addr uint32) uint16 {
	return uint16(b.Read8(addr)) | uint16(b.Read8(addr+1))<<8
}

func (b *Bus) Read32(addr uint32) uint32 {
	if b.watchRead != nil {
		b.watchRead(addr)
	}
	reg, off := classify(addr)
	switch reg {
	case regionRAM:
		return le32(b.ram[off:])
	case regionScratchpad:
		return le32(b.scratchpad[off:])
	case regionBIOS:
		return le32(b.bios[off:])
	case regionIOPorts:
		if dev, ok := b.findPeripheral(addr); ok {
			return dev.ReadRegister(addr)
		}
		return le32(b.ioPorts[off:])
	case regionCacheControl:
		return b.cacheControl
	default:
		return uint32(b.Read8(addr)) | uint32(b.Read8(addr+1))<<8 |
			uint32(b.Read8(addr+2))<<16 | uint32(b.Read8(addr+3))<<24
	}
}

func (b *Bus) Write8(addr uint32, v uint8) {
	if b.watchWrite != nil {
		b.watchWrite(addr)
	}
	reg, off := classify(addr)
	switch reg {
	case regionRAM:
		b.ram[off] = v
	case regionScratchpad:
		b.scratchpad[off] = v
	case regionBIOS:
		// ROM; writes ignored.
	case regionIOPorts:
		if dev, ok := b.findPeripheral(addr); ok {
			dev.WriteRegister(addr, uint32(v))
			return
		}
		b.ioPorts[off] = v
	case regionExpansion2:
		if off < expansion2Size {
			b.expansion2[off] = v
		}
	case regionCacheControl:
		b.cacheControl = (b.cacheControl &^ 0xff) | uint32(v)
	default:
		logger.Logf("bus", "write8 to unmapped address %#08x", addr)
	}
}

func (b *Bus) Write16(addr uint32, v uint16) {
	b.Write8(addr, uint8(v))
	b.Write8(addr+1, uint8(v>>8))
}

func (b *Bus) Write32(addr uint32, v uint32) {
	if b.watchWrite != nil {
		b.watchWrite(addr)
	}
	reg, off := classify(addr)
	switch reg {
	case regionRAM:
		putLE32(b.ram[off:], v)
	case regionScratchpad:
		putLE32(b.scratchpad[off:], v)
	case regionBIOS:
		// ROM; writes ignored.
	case regionIOPorts:
		if dev, ok := b.findPeripheral(addr); ok {
			dev.WriteRegister(addr, v)
			return
		}
		putLE32(b.ioPorts[off:], v)
	case regionCacheControl:
		b.cacheControl = v
	default:
		b.Write8(addr, uint8(v))
		b.Write8(addr+1, uint8(v>>8))
		b.Write8(addr+2, uint8(v>>16))
		b.Write8(addr+3, uint8(v>>24))
	}
}

// AccessCycles implements cpu.Bus: the per-region, per-size timing table.
// Expansion 1-3 and BIOS are charged by access width; everything else is a
// flat cost regardless of size.
func (b *Bus) AccessCycles(addr uint32, size uint8) uint32 {
	reg, _ := classify(addr)
	switch reg {
	case regionRAM:
		return ramAccessCycles
	case regionScratchpad:
		return scratchpadAccessCycles
	case regionIOPorts:
		return ioPortAccessCycles
	case regionCacheControl:
		return cacheControlAccessCycles
	case regionExpansion1:
		return sizedAccessCycles(size, exp1_8AccessCycles, exp1_16AccessCycles, exp1_32AccessCycles)
	case regionExpansion2:
		return sizedAccessCycles(size, exp2_8AccessCycles, exp2_16AccessCycles, exp2_32AccessCycles)
	case regionExpansion3:
		return sizedAccessCycles(size, exp3_8AccessCycles, exp3_16AccessCycles, exp3_32AccessCycles)
	case regionBIOS:
		return sizedAccessCycles(size, bios8AccessCycles, bios16AccessCycles, bios32AccessCycles)
	default:
		return 0
	}
}

func sizedAccessCycles(size uint8, c8, c16, c32 uint32) uint32 {
	switch size {
	case 1:
		return c8
	case 2:
		return c16
	default:
		return c32
	}
}

// Peek reads a 32-bit word the way Read32 does, but never logs and never
// dispatches to a peripheral's side-effecting register read, for the
// debugger's memory viewer.
func (b *Bus) Peek(addr uint32) uint32 {
	reg, off := classify(addr)
	switch reg {
	case regionRAM:
		return le32(b.ram[off:])
	case regionScratchpad:
		return le32(b.scratchpad[off:])
	case regionBIOS:
		return le32(b.bios[off:])
	case regionIOPorts:
		return le32(b.ioPorts[off:])
	case regionCacheControl:
		return b.cacheControl
	default:
		return 0
	}
}

// Poke writes a 32-bit word directly into backing storage, bypassing
// peripheral dispatch, for the debugger.
func (b *Bus) Poke(addr uint32, v uint32) {
	reg, off := classify(addr)
	switch reg {
	case regionRAM:
		putLE32(b.ram[off:], v)
	case regionScratchpad:
		putLE32(b.scratchpad[off:], v)
	case regionIOPorts:
		putLE32(b.ioPorts[off:], v)
	case regionCacheControl:
		b.cacheControl = v
	default:
	}
}

func le32(m []uint8) uint32 {
	return uint32(m[0]) | uint32(m[1])<<8 | uint32(m[2])<<16 | uint32(m[3])<<24
}

func putLE32(m []uint8, v uint32) {
	m[0] = uint8(v)
	m[1] = uint8(v >> 8)
	m[2] = uint8(v >> 16)
	m[3] = uint8(v >> 24)
}
