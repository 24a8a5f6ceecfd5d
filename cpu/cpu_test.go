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

import "testing"

// fakeBus is a flat 64KiB little-endian memory, enough to exercise fetch/
// decode/execute without pulling in the real memory map.
type fakeBus struct {
	mem [1 << 16]uint8
}

func (b *fakeBus) off(addr uint32) uint32 { return addr & 0xffff }

func (b *fakeBus) Read8(addr uint32) uint8 { return b.mem[b.off(addr)] }
func (b *fakeBus) Read16(addr uint32) uint16 {
	o := b.off(addr)
	return uint16(b.mem[o]) | uint16(b.mem[o+1])<<8
}
func (b *fakeBus) Read32(addr uint32) uint32 {
	o := b.off(addr)
	return uint32(b.mem[o]) | uint32(b.mem[o+1])<<8 | uint32(b.mem[o+2])<<16 | uint32(b.mem[o+3])<<24
}
func (b *fakeBus) Write8(addr uint32, v uint8) { b.mem[b.off(addr)] = v }
func (b *fakeBus) Write16(addr uint32, v uint16) {
	o := b.off(addr)
	b.mem[o] = uint8(v)
	b.mem[o+1] = uint8(v >> 8)
}
func (b *fakeBus) Write32(addr uint32, v uint32) {
	o := b.off(addr)
	b.mem[o] = uint8(v)
	b.mem[o+1] = uint8(v >> 8)
	b.mem[o+2] = uint8(v >> 16)
	b.mem[o+3] = uint8(v >> 24)
}
func (b *fakeBus) DMAStallCycles() uint32 { return 0 }

func (b *fakeBus) AccessCycles(addr uint32, size uint8) uint32 { return 1 }

// asm encodes an R-type instruction.
func asmR(op, rs, rt, rd, shamt, funct uint32) uint32 {
	return op<<26 | rs<<21 | rt<<16 | rd<<11 | shamt<<6 | funct
}

func asmI(op, rs, rt, imm uint32) uint32 {
	return op<<26 | rs<<21 | rt<<16 | (imm & 0xffff)
}

func newTestCPU() (*CPU, *fakeBus) {
	bus := &fakeBus{}
	c := New(bus)
	c.SetPC(0)
	return c, bus
}

func loadProgram(bus *fakeBus, addr uint32, words ...uint32) {
	for i, w := range words {
		bus.Write32(addr+uint32(i*4), w)
	}
}

func TestFetchDecodeExecuteADDIU(t *testing.T) {
	c, bus := newTestCPU()
	loadProgram(bus, 0, asmI(0x09, 0, 8, 5)) // ADDIU $t0, $zero, 5

	c.Step()

	if got := c.Regs.Get(8); got != 5 {
		t.Fatalf("$t0 = %d, want 5", got)
	}
}

func TestBranchDelaySlotExecutes(t *testing.T) {
	c, bus := newTestCPU()
	loadProgram(bus, 0,
		asmI(0x09, 0, 9, 1),      // ADDIU $t1, $zero, 1
		asmI(0x04, 0, 0, 2),      // BEQ $zero, $zero, +2 (skip one instruction)
		asmI(0x09, 0, 8, 0xffff), // delay slot: ADDIU $t0, $zero, -1  (always executes)
		asmI(0x09, 0, 8, 0x2a),   // ADDIU $t0, $zero, 42  (skipped if branch taken)
		asmI(0x09, 0, 8, 0x63),   // ADDIU $t0, $zero, 99  (branch target)
	)

	for i := 0; i < 4; i++ {
		c.Step()
	}

	if got := c.Regs.Get(8); got != 0x63 {
		t.Fatalf("$t0 = %#x after branch, want 0x63 (branch target reached, delay slot honoured)", got)
	}
}

func TestLoadDelaySlotEndToEnd(t *testing.T) {
	c, bus := newTestCPU()
	bus.Write32(0x100, 0xdeadbeef)
	loadProgram(bus, 0,
		asmI(0x09, 0, 4, 0x100),  // ADDIU $a0, $zero, 0x100
		asmI(0x23, 4, 5, 0),      // LW $a1, 0($a0)
		asmI(0x09, 0, 6, 7),      // ADDIU $a2, $zero, 7  (runs in the load's delay slot)
		asmI(0x00, 0, 0, 0),      // NOP
	)

	c.Step() // ADDIU $a0
	c.Step() // LW $a1  (result not yet visible)
	if got := c.Regs.Get(5); got != 0 {
		t.Fatalf("$a1 = %#x immediately after LW, want 0 (load delay slot not yet committed)", got)
	}
	c.Step() // ADDIU $a2 commits the LW result
	if got := c.Regs.Get(5); got != 0xdeadbeef {
		t.Fatalf("$a1 = %#x after the load delay slot, want 0xdeadbeef", got)
	}
	if got := c.Regs.Get(6); got != 7 {
		t.Fatalf("$a2 = %d, want 7", got)
	}
}

func TestConflictingLoadDroppedEndToEnd(t *testing.T) {
	c, bus := newTestCPU()
	bus.Write32(0x100, 0x11111111)
	bus.Write32(0x104, 0x22222222)
	loadProgram(bus, 0,
		asmI(0x09, 0, 4, 0x100), // ADDIU $a0, $zero, 0x100
		asmI(0x23, 4, 5, 0),     // LW $a1, 0($a0)
		asmI(0x23, 4, 5, 4),     // LW $a1, 4($a0)  (targets the still-pending $a1)
		asmI(0x00, 0, 0, 0),     // NOP
	)

	c.Step() // ADDIU $a0
	c.Step() // LW $a1 <- 0x11111111 (pending)
	c.Step() // LW $a1 <- 0x22222222, drops the still-pending first load
	c.Step() // NOP, commits the second load

	if got := c.Regs.Get(5); got != 0x22222222 {
		t.Fatalf("$a1 = %#x, want 0x22222222 (first load's value must never be observed)", got)
	}
}

func TestSyscallEntersExceptionVector(t *testing.T) {
	c, bus := newTestCPU()
	loadProgram(bus, 0, asmR(0x00, 0, 0, 0, 0, 0x0c)) // SYSCALL

	c.Step()

	if c.PC() != 0xbfc00180 {
		t.Fatalf("PC = %#x after SYSCALL, want the BEV general exception vector 0xbfc00180 (Status.BEV set at reset)", c.PC())
	}
}

func TestRFERestoresPreviousMode(t *testing.T) {
	c, bus := newTestCPU()
	loadProgram(bus, 0, asmR(0x00, 0, 0, 0, 0, 0x0c)) // SYSCALL
	c.Step()

	rfe := asmR(0x10, 0x10, 0, 0, 0, 0x10)
	loadProgram(bus, c.PC(), rfe)
	c.Step()

	if c.Cop0.KernelMode() != true {
		t.Fatalf("expected kernel mode to still hold immediately after RFE restores the pre-exception stack level")
	}
}

func TestGTERegisterMoveRoundTrip(t *testing.T) {
	c, bus := newTestCPU()
	c.Cop0.WriteRegister(12, 1<<30) // Status.CU2

	loadProgram(bus, 0,
		asmI(0x09, 0, 8, 0x2a),     // ADDIU $t0, $zero, 42
		asmR(0x12, 0x04, 8, 9, 0, 0), // MTC2 $t0, $9  (IR1)
		asmR(0x12, 0x00, 10, 9, 0, 0), // MFC2 $10, $9
		asmR(0x00, 0, 0, 0, 0, 0),    // NOP, commits the MFC2 load
	)

	for i := 0; i < 4; i++ {
		c.Step()
	}

	if got := c.Regs.Get(10); got != 42 {
		t.Fatalf("$t2 = %d after MTC2/MFC2 round trip through IR1, want 42", got)
	}
}
