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

package loader

import (
	"testing"

	"github.com/gopsx/psx/cpu"
	"github.com/gopsx/psx/memory/bus"
)

// buildExe assembles a minimal PS-X EXE byte array around a fixed-size
// header, mirroring the on-disk layout real BIOS loaders parse.
func buildExe(pc, gp, addr, sp uint32, payload []byte) []byte {
	raw := make([]byte, exeHeaderSize+len(payload))
	copy(raw, exeMagic)
	putLE32(raw[exePCOffset:], pc)
	putLE32(raw[exeGPOffset:], gp)
	putLE32(raw[exeAddrOffset:], addr)
	putLE32(raw[exeLenOffset:], uint32(len(payload)))
	putLE32(raw[exeSPOffset:], sp)
	copy(raw[exeHeaderSize:], payload)
	return raw
}

func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func TestParseExeRejectsBadMagic(t *testing.T) {
	raw := make([]byte, exeHeaderSize)
	copy(raw, "NOT-AN-EXE")
	if _, err := ParseExe(raw); err == nil {
		t.Fatalf("expected an error for a missing magic")
	}
}

func TestParseExeRejectsTruncatedHeader(t *testing.T) {
	if _, err := ParseExe(make([]byte, 16)); err == nil {
		t.Fatalf("expected an error for a header shorter than %d bytes", exeHeaderSize)
	}
}

func TestParseExeRejectsOverrunLength(t *testing.T) {
	raw := buildExe(0x80010000, 0, 0x80010000, 0, []byte{1, 2, 3, 4})
	putLE32(raw[exeLenOffset:], 0xffffffff)
	if _, err := ParseExe(raw); err == nil {
		t.Fatalf("expected an error when declared length overruns the buffer")
	}
}

func TestLoadDepositsPayloadAndPrimesRegisters(t *testing.T) {
	payload := []byte{'H', 'i', '\n', 0}
	raw := buildExe(0x80010000, 0x12345678, 0x80010000, 0x801ffff0, payload)

	exe, err := ParseExe(raw)
	if err != nil {
		t.Fatalf("ParseExe failed: %v", err)
	}

	b := bus.New()
	var c cpu.CPU
	Load(exe, b, &c, &c.Regs)

	if c.PC() != 0x80010000 {
		t.Fatalf("PC = %#08x, want 0x80010000", c.PC())
	}
	if got := c.Regs.Get(regGP); got != 0x12345678 {
		t.Fatalf("GP = %#08x, want 0x12345678", got)
	}
	if got := c.Regs.Get(regSP); got != 0x801ffff0 {
		t.Fatalf("SP = %#08x, want 0x801ffff0", got)
	}
	if got := c.Regs.Get(regFP); got != 0x801ffff0 {
		t.Fatalf("FP = %#08x, want SP mirrored into FP", got)
	}

	want := uint32('H') | uint32('i')<<8 | uint32('\n')<<16
	if word := b.Read32(0x80010000); word != want {
		t.Fatalf("first word of deposited payload = %#08x, want %#08x", word, want)
	}
}

func TestValidateBIOSRejectsWrongSize(t *testing.T) {
	if err := ValidateBIOS(make([]byte, 1024)); err == nil {
		t.Fatalf("expected an error for a BIOS image of the wrong size")
	}
	if err := ValidateBIOS(make([]byte, BIOSSize)); err != nil {
		t.Fatalf("unexpected error for a correctly-sized BIOS image: %v", err)
	}
}
