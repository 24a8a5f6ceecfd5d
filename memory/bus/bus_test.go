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

import "testing"

func TestRAMRoundTripThroughKSEG0(t *testing.T) {
	b := New()
	b.Write32(0x80000010, 0xcafebabe)
	if got := b.Read32(0x00000010); got != 0xcafebabe {
		t.Fatalf("Read32(KUSEG) = %#x, want 0xcafebabe (same backing RAM as KSEG0)", got)
	}
}

func TestRAMMirroredWithin8MBWindow(t *testing.T) {
	b := New()
	b.Write32(0x00000020, 0x11223344)
	if got := b.Read32(0x00200020); got != 0x11223344 {
		t.Fatalf("Read32(mirror) = %#x, want 0x11223344", got)
	}
}

func TestBIOSIsReadOnly(t *testing.T) {
	b := New()
	b.LoadBIOS(make([]byte, biosSize))
	b.Write32(0xbfc00000, 0xdeadbeef)
	if got := b.Read32(0xbfc00000); got != 0 {
		t.Fatalf("BIOS word = %#x after write, want 0 (BIOS is read-only)", got)
	}
}

func TestScratchpadIndependentOfRAM(t *testing.T) {
	b := New()
	b.Write32(0x1f800000, 0x99999999)
	if got := b.Read32(0x1f800000); got != 0x99999999 {
		t.Fatalf("scratchpad readback = %#x, want 0x99999999", got)
	}
	if got := b.Read32(0x00000000); got == 0x99999999 {
		t.Fatalf("scratchpad write leaked into main RAM")
	}
}

type fakePeripheral struct {
	last uint32
}

func (p *fakePeripheral) ReadRegister(addr uint32) uint32  { return 0x1234 }
func (p *fakePeripheral) WriteRegister(addr uint32, v uint32) { p.last = v }

func TestRegisteredPeripheralInterceptsItsWindow(t *testing.T) {
	b := New()
	dev := &fakePeripheral{}
	b.Register(0x1f801070, 8, dev)

	if got := b.Read32(0x1f801070); got != 0x1234 {
		t.Fatalf("Read32 via peripheral = %#x, want 0x1234", got)
	}
	b.Write32(0x1f801070, 0x55)
	if dev.last != 0x55 {
		t.Fatalf("peripheral.last = %#x, want 0x55", dev.last)
	}
}

func TestCacheControlRegister(t *testing.T) {
	b := New()
	b.Write32(0xfffe0130, 0x1e988)
	if got := b.Read32(0xfffe0130); got != 0x1e988 {
		t.Fatalf("cache control readback = %#x, want 0x1e988", got)
	}
}
