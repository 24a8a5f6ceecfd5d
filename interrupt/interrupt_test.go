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

package interrupt

import "testing"

func TestPendingRequiresUnmaskedBit(t *testing.T) {
	c := New()
	c.Raise(VBlank)
	if c.Pending() {
		t.Fatalf("Pending() = true with mask clear, want false")
	}
	c.SetMask(1 << VBlank)
	if !c.Pending() {
		t.Fatalf("Pending() = false once VBlank is unmasked, want true")
	}
}

func TestAcknowledgeClearsOnlyZeroBits(t *testing.T) {
	c := New()
	c.Raise(VBlank)
	c.Raise(DMA)
	c.Acknowledge(^uint16(1 << VBlank)) // write 0 to VBlank's bit, 1 elsewhere
	if c.Status()&(1<<VBlank) != 0 {
		t.Fatalf("VBlank still set after acknowledging it")
	}
	if c.Status()&(1<<DMA) == 0 {
		t.Fatalf("DMA cleared despite writing 1 to its bit")
	}
}

func TestCollectorFlushIsIdempotentWhenEmpty(t *testing.T) {
	c := New()
	var h Collector
	h.Flush(c)
	if c.Status() != 0 {
		t.Fatalf("status = %#x after flushing an empty collector, want 0", c.Status())
	}
}

func TestRegisterAccessMatchesISTATIMASK(t *testing.T) {
	c := New()
	c.Raise(DMA)
	if got := c.ReadRegister(0x1f801070); got != uint32(1<<DMA) {
		t.Fatalf("ReadRegister(I_STAT) = %#x, want %#x", got, uint32(1<<DMA))
	}
	c.WriteRegister(0x1f801074, 1<<DMA)
	if c.Mask() != 1<<DMA {
		t.Fatalf("Mask() = %#x after WriteRegister(I_MASK), want %#x", c.Mask(), 1<<DMA)
	}
	c.WriteRegister(0x1f801070, ^uint32(1<<DMA))
	if c.Status() != 0 {
		t.Fatalf("Status() = %#x after acknowledging via WriteRegister, want 0", c.Status())
	}
}

func TestCollectorBatchesMultipleSources(t *testing.T) {
	c := New()
	var h Collector
	h.Set(Timer0)
	h.Set(SPU)
	h.Flush(c)
	want := uint16(1<<Timer0 | 1<<SPU)
	if c.Status() != want {
		t.Fatalf("status = %#x, want %#x", c.Status(), want)
	}
}
