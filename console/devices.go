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

package console

// inertDMADevice backs the DMA channels this module doesn't model as a
// real chip (MDEC in/out, SPU, PIO) and channel 6 (OTC), whose linked-list
// clear is generated entirely inside the DMA controller without ever
// calling into its Device. These regions accept any value and never
// request a burst.
type inertDMADevice struct{}

func (inertDMADevice) Ready() bool   { return false }
func (inertDMADevice) Request() bool { return false }
func (inertDMADevice) Write(uint32)  {}
func (inertDMADevice) Read() uint32  { return 0xffffffff }
