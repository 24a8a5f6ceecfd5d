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

// Ready and Request both report the GP0/GP1 DMA request line described by
// GPUSTAT bit 25 (readyForDMABlock/dmaRequestLine already compute it per
// the configured transfer direction); DMA slice mode asks the two
// questions separately, but the GPU's FIFO has no notion of "more blocks
// remain" beyond "the request line is still up".
func (g *GPU) Ready() bool   { return g.dmaRequestLine() }
func (g *GPU) Request() bool { return g.dmaRequestLine() }

// Write hands a word from RAM to GP0, exactly as a CPU store to the GP0
// register would.
func (g *GPU) Write(word uint32) { g.WriteGP0(word) }

// Read pulls a word bound for RAM from GPUREAD, exactly as a CPU load
// from the GP0/GPUREAD register would.
func (g *GPU) Read() uint32 { return g.GPUREAD() }
