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

package disassembly

import "testing"

func TestDisassembleADDIU(t *testing.T) {
	// ADDIU $t0, $zero, 5
	instr := uint32(0x09)<<26 | uint32(8)<<16 | 5
	e := Disassemble(0, instr)
	if e.Mnemonic != "addiu" {
		t.Fatalf("mnemonic = %q, want addiu", e.Mnemonic)
	}
	if e.Operands != "$t0, $zero, 0005" {
		t.Fatalf("operands = %q, want %q", e.Operands, "$t0, $zero, 0005")
	}
}

func TestDisassembleSLLZeroIsNop(t *testing.T) {
	e := Disassemble(0, 0)
	if e.Mnemonic != "nop" {
		t.Fatalf("mnemonic = %q, want nop", e.Mnemonic)
	}
}

func TestDisassembleBEQZeroTargetIsAliased(t *testing.T) {
	// BEQ $zero, $zero, 0
	instr := uint32(0x04) << 26
	e := Disassemble(0x1000, instr)
	if e.Mnemonic != "beqz" {
		t.Fatalf("mnemonic = %q, want beqz", e.Mnemonic)
	}
	if e.Operands != "$zero, 00001004" {
		t.Fatalf("operands = %q, want target pc+4", e.Operands)
	}
}

func TestDisassembleJTargetUsesUpperPCBits(t *testing.T) {
	// J 0x40
	instr := uint32(0x02)<<26 | 0x10
	e := Disassemble(0x80010000, instr)
	if e.Operands != "80000040" {
		t.Fatalf("operands = %q, want 80000040", e.Operands)
	}
}

func TestDisassembleMFC0ReadsNamedRegister(t *testing.T) {
	// MFC0 $t0, $12 (Status)
	instr := uint32(0x10)<<26 | uint32(8)<<16 | uint32(12)<<11
	e := Disassemble(0, instr)
	if e.Mnemonic != "mfc0" {
		t.Fatalf("mnemonic = %q, want mfc0", e.Mnemonic)
	}
	if e.Operands != "$t0, SR" {
		t.Fatalf("operands = %q, want $t0, SR", e.Operands)
	}
}

func TestDisassembleUnsupportedOpcode(t *testing.T) {
	e := Disassemble(0, uint32(0x3f)<<26)
	if e.Mnemonic != "???" {
		t.Fatalf("mnemonic = %q, want ???", e.Mnemonic)
	}
}
