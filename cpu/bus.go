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

package cpu

// Bus is the narrow, structurally-satisfied view of the memory map that the
// CPU needs. It is defined here rather than imported from memory/bus so
// that this package never depends on the concrete bus implementation;
// *bus.Bus simply happens to implement this interface.
type Bus interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, v uint8)
	Write16(addr uint32, v uint16)
	Write32(addr uint32, v uint32)

	// DMAStallCycles reports how many extra cycles the current fetch/data
	// access must wait for, for example while a DMA burst owns the bus.
	DMAStallCycles() uint32

	// AccessCycles reports the bus's timing-table penalty, in CPU cycles,
	// for an access of size bytes (1, 2, or 4) at addr. Charged by the CPU
	// into its per-step cycle count on every fetch, load, and immediate
	// (uncached) store.
	AccessCycles(addr uint32, size uint8) uint32
}
