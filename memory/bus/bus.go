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

// Package bus implements the physical address map: region decoding for
// KUSEG/KSEG0/KSEG1/KSEG2, main RAM (mirrored within its 8MB window),
// scratchpad, BIOS ROM, and MMIO register dispatch. Grounded on the
// CPUBus/DebuggerBus interface split the rest of the stack uses for
// memory areas, generalised from a 16-bit single-region bus to a 32-bit
// segmented one.
package bus

import (
	"github.com/gopsx/psx/logger"
)

const (
	ramSize        = 2 * 1024 * 1024
	ramMirrorWindow = 8 * 1024 * 1024
	scratchpadSize = 1024
	biosSize       = 512 * 1024
	ioPortsSize    = 8 * 1024
	expansion2Size = 8 * 1024
)

// Per-region, per-size bus timing in CPU cycles. One table serves both
// reads and writes; the hardware doesn't charge them differently.
const (
	ramAccessCycles          = 5
	scratchpadAccessCycles   = 1
	ioPortAccessCycles       = 5
	cacheControlAccessCycles = 5

	bios8AccessCycles  = 8
	bios16AccessCycles = 12
	bios32AccessCycles = 24

	exp1_8AccessCycles  = 7
	exp1_16AccessCycles = 13
	exp1_32AccessCycles = 25

	exp2_8AccessCycles  = 11
	exp2_16AccessCycles = 26
	exp2_32AccessCycles = 56

	exp3_8AccessCycles  = 7
	exp3_16AccessCycles = 6
	exp3_32AccessCycles = 10
)

// Peripheral is the narrow set of operations Bus needs from any MMIO-mapped
// component (DMA, GPU, timers, the interrupt controller, SIO, CD-ROM). Each
// component registers itself for the 32-bit-aligned word range it owns; Bus
// never imports any of those packages, so there is no dependency back from
// bus to the subsystems it dispatches to.
type Peripheral interface {
	ReadRegister(addr uint32) uint32
	WriteRegister(addr uint32, value uint32)
}

// peripheralMapping is one registered device's address window, [base, base+size).
type peripheralMapping struct {
	base uint32
	size uint32
	dev  Peripheral
}

// Bus is the PSX physical address space. It satisfies cpu.Bus structurally.
type Bus struct {
	ram         [ramSize]uint8
	scratchpad  [scratchpadSize]uint8
	bios        [biosSize]uint8
	ioPorts     [ioPortsSize]uint8
	expansion2  [expansion2Size]uint8

	peripherals []peripheralMapping

	cacheControl uint32

	dmaStallCycles uint32

	watchRead  func(addr uint32)
	watchWrite func(addr uint32)
}

// SetWatchHooks installs the debugger's data-breakpoint callbacks, called
// with the address of every CPU-initiated Read8/Read32/Write8/Write32
// before it is serviced (a 16-bit access arrives as two byte accesses, a
// 32-bit one as a single call). Either hook may
// be nil. Passing nil, nil removes both.
func (b *Bus) SetWatchHooks(onRead, onWrite func(addr uint32)) {
	b.watchRead = onRead
	b.watchWrite = onWrite
}

// New returns a Bus with RAM, scratchpad, and I/O ports zeroed and no BIOS
// image loaded yet (the loader is expected to call LoadBIOS before the CPU
// starts fetching from the reset vector).
func New() *Bus {
	return &Bus{}
}

// LoadBIOS copies a 512KB BIOS image into ROM. Callers validate the length
// before calling this (see the loader package); Bus itself only logs a size
// mismatch and then truncates or zero-pads the image.
func (b *Bus) LoadBIOS(image []byte) {
	if len(image) != biosSize {
		logger.Logf("bus", "BIOS image is %d bytes, want %d; truncating/zero-padding", len(image), biosSize)
	}
	n := copy(b.bios[:], image)
	for i := n; i < biosSize; i++ {
		b.bios[i] = 0
	}
}

// RAM exposes the main RAM array directly, for the loader to deposit an
// executable's segments and the debugger to dump memory.
func (b *Bus) RAM() []uint8 { return b.ram[:] }

// Register wires a peripheral into the address window it owns. Only
// accesses in the I/O-port region (0x1f801000-0x1f801fff) are dispatched to
// registered peripherals. addr/size are physical (KUSEG) addresses; Bus
// strips the segment bits itself before matching.
func (b *Bus) Register(addr, size uint32, dev Peripheral) {
	b.peripherals = append(b.peripherals, peripheralMapping{base: addr & 0x1fffffff, size: size, dev: dev})
}

// SetDMAStallCycles records the number of cycles the CPU should add to its
// count this step because DMA burst-stole the bus; console.Emulator.Step
// calls this after a step in which the DMA controller reported an active
// transfer.
func (b *Bus) SetDMAStallCycles(cycles uint32) { b.dmaStallCycles = cycles }

// DMAStallCycles implements cpu.Bus.
func (b *Bus) DMAStallCycles() uint32 {
	c := b.dmaStallCycles
	b.dmaStallCycles = 0
	return c
}

func physical(addr uint32) uint32 { return addr & 0x1fffffff }

// region identifies which physical memory section an address (already
// stripped of its segment bits) falls in.
type region int

const (
	regionRAM region = iota
	regionExpansion1
	regionScratchpad
	regionIOPorts
	regionExpansion2
	regionExpansion3
	regionBIOS
	regionCacheControl
	regionUnmapped
)

func classify(addr uint32) (region, uint32) {
	if addr == 0xfffe0130 {
		return regionCacheControl, 0
	}
	phys := physical(addr)
	switch {
	case phys < 0x1f000000:
		return regionRAM, phys % ramMirrorWindow % ramSize
	case phys < 0x1f800000:
		return regionExpansion1, phys - 0x1f000000
	case phys < 0x1f801000:
		return regionScratchpad, phys - 0x1f800000
	case phys < 0x1f802000:
		return regionIOPorts, phys - 0x1f801000
	case phys < 0x1fa00000:
		return regionExpansion2, phys - 0x1f802000
	case phys < 0x1fc00000:
		return regionExpansion3, phys - 0x1fa00000
	case phys < 0x20000000:
		return regionBIOS, phys - 0x1fc00000
	default:
		return regionUnmapped, 0
	}
}

func (b *Bus) findPeripheral(addr uint32) (Peripheral, bool) {
	phys := physical(addr)
	for _, m := range b.peripherals {
		if phys >= m.base && phys < m.base+m.size {
			return m.dev, true
		}
	}
	return nil, false
}
