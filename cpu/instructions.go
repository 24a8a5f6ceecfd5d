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

import "github.com/gopsx/psx/cpu/cop0"

// --- arithmetic / logic, register-register (SPECIAL) -----------------------

func execADD(c *CPU, instr uint32) error {
	a := int32(c.Regs.Get(fieldRs(instr)))
	b := int32(c.Regs.Get(fieldRt(instr)))
	sum := a + b
	if overflowsAdd(a, b, sum) {
		return simpleException(cop0.ExcArithmeticOverflow)
	}
	c.Regs.Set(fieldRd(instr), uint32(sum))
	return nil
}

func execADDU(c *CPU, instr uint32) error {
	c.Regs.Set(fieldRd(instr), c.Regs.Get(fieldRs(instr))+c.Regs.Get(fieldRt(instr)))
	return nil
}

func execSUB(c *CPU, instr uint32) error {
	a := int32(c.Regs.Get(fieldRs(instr)))
	b := int32(c.Regs.Get(fieldRt(instr)))
	diff := a - b
	if overflowsSub(a, b, diff) {
		return simpleException(cop0.ExcArithmeticOverflow)
	}
	c.Regs.Set(fieldRd(instr), uint32(diff))
	return nil
}

func execSUBU(c *CPU, instr uint32) error {
	c.Regs.Set(fieldRd(instr), c.Regs.Get(fieldRs(instr))-c.Regs.Get(fieldRt(instr)))
	return nil
}

func execAND(c *CPU, instr uint32) error {
	c.Regs.Set(fieldRd(instr), c.Regs.Get(fieldRs(instr))&c.Regs.Get(fieldRt(instr)))
	return nil
}

func execOR(c *CPU, instr uint32) error {
	c.Regs.Set(fieldRd(instr), c.Regs.Get(fieldRs(instr))|c.Regs.Get(fieldRt(instr)))
	return nil
}

func execXOR(c *CPU, instr uint32) error {
	c.Regs.Set(fieldRd(instr), c.Regs.Get(fieldRs(instr))^c.Regs.Get(fieldRt(instr)))
	return nil
}

func execNOR(c *CPU, instr uint32) error {
	c.Regs.Set(fieldRd(instr), ^(c.Regs.Get(fieldRs(instr)) | c.Regs.Get(fieldRt(instr))))
	return nil
}

func execSLT(c *CPU, instr uint32) error {
	a := int32(c.Regs.Get(fieldRs(instr)))
	b := int32(c.Regs.Get(fieldRt(instr)))
	c.Regs.Set(fieldRd(instr), boolToWord(a < b))
	return nil
}

func execSLTU(c *CPU, instr uint32) error {
	c.Regs.Set(fieldRd(instr), boolToWord(c.Regs.Get(fieldRs(instr)) < c.Regs.Get(fieldRt(instr))))
	return nil
}

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func overflowsAdd(a, b, sum int32) bool {
	return (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum >= 0)
}

func overflowsSub(a, b, diff int32) bool {
	return (a >= 0 && b < 0 && diff < 0) || (a < 0 && b >= 0 && diff >= 0)
}

// --- arithmetic / logic, register-immediate ---------------------------------

func execADDI(c *CPU, instr uint32) error {
	a := int32(c.Regs.Get(fieldRs(instr)))
	imm := int32(fieldImm16(instr))
	sum := a + imm
	if overflowsAdd(a, imm, sum) {
		return simpleException(cop0.ExcArithmeticOverflow)
	}
	c.Regs.Set(fieldRt(instr), uint32(sum))
	return nil
}

func execADDIU(c *CPU, instr uint32) error {
	c.Regs.Set(fieldRt(instr), c.Regs.Get(fieldRs(instr))+fieldImm16(instr))
	return nil
}

func execSLTI(c *CPU, instr uint32) error {
	a := int32(c.Regs.Get(fieldRs(instr)))
	imm := int32(fieldImm16(instr))
	c.Regs.Set(fieldRt(instr), boolToWord(a < imm))
	return nil
}

func execSLTIU(c *CPU, instr uint32) error {
	c.Regs.Set(fieldRt(instr), boolToWord(c.Regs.Get(fieldRs(instr)) < fieldImm16(instr)))
	return nil
}

func execANDI(c *CPU, instr uint32) error {
	c.Regs.Set(fieldRt(instr), c.Regs.Get(fieldRs(instr))&fieldImm16u(instr))
	return nil
}

func execORI(c *CPU, instr uint32) error {
	c.Regs.Set(fieldRt(instr), c.Regs.Get(fieldRs(instr))|fieldImm16u(instr))
	return nil
}

func execXORI(c *CPU, instr uint32) error {
	c.Regs.Set(fieldRt(instr), c.Regs.Get(fieldRs(instr))^fieldImm16u(instr))
	return nil
}

func execLUI(c *CPU, instr uint32) error {
	c.Regs.Set(fieldRt(instr), fieldImm16u(instr)<<16)
	return nil
}

// --- shifts ------------------------------------------------------------------

func execSLL(c *CPU, instr uint32) error {
	c.Regs.Set(fieldRd(instr), c.Regs.Get(fieldRt(instr))<<fieldShamt(instr))
	return nil
}

func execSRL(c *CPU, instr uint32) error {
	c.Regs.Set(fieldRd(instr), c.Regs.Get(fieldRt(instr))>>fieldShamt(instr))
	return nil
}

func execSRA(c *CPU, instr uint32) error {
	v := int32(c.Regs.Get(fieldRt(instr))) >> fieldShamt(instr)
	c.Regs.Set(fieldRd(instr), uint32(v))
	return nil
}

func execSLLV(c *CPU, instr uint32) error {
	c.Regs.Set(fieldRd(instr), c.Regs.Get(fieldRt(instr))<<(c.Regs.Get(fieldRs(instr))&0x1f))
	return nil
}

func execSRLV(c *CPU, instr uint32) error {
	c.Regs.Set(fieldRd(instr), c.Regs.Get(fieldRt(instr))>>(c.Regs.Get(fieldRs(instr))&0x1f))
	return nil
}

func execSRAV(c *CPU, instr uint32) error {
	v := int32(c.Regs.Get(fieldRt(instr))) >> (c.Regs.Get(fieldRs(instr)) & 0x1f)
	c.Regs.Set(fieldRd(instr), uint32(v))
	return nil
}

// --- multiply / divide ---------------------------------------------------

func execMULT(c *CPU, instr uint32) error {
	a := int64(int32(c.Regs.Get(fieldRs(instr))))
	b := int64(int32(c.Regs.Get(fieldRt(instr))))
	prod := uint64(a * b)
	c.Regs.LO = uint32(prod)
	c.Regs.HI = uint32(prod >> 32)
	c.mulDivPendingCycles = mulPendingCycles
	return nil
}

func execMULTU(c *CPU, instr uint32) error {
	prod := uint64(c.Regs.Get(fieldRs(instr))) * uint64(c.Regs.Get(fieldRt(instr)))
	c.Regs.LO = uint32(prod)
	c.Regs.HI = uint32(prod >> 32)
	c.mulDivPendingCycles = mulPendingCycles
	return nil
}

func execDIV(c *CPU, instr uint32) error {
	n := int32(c.Regs.Get(fieldRs(instr)))
	d := int32(c.Regs.Get(fieldRt(instr)))
	switch {
	case d == 0:
		c.Regs.HI = uint32(n)
		if n >= 0 {
			c.Regs.LO = 0xffffffff
		} else {
			c.Regs.LO = 1
		}
	case n == -0x80000000 && d == -1:
		c.Regs.LO = uint32(n)
		c.Regs.HI = 0
	default:
		c.Regs.LO = uint32(n / d)
		c.Regs.HI = uint32(n % d)
	}
	c.mulDivPendingCycles = divPendingCycles
	return nil
}

func execDIVU(c *CPU, instr uint32) error {
	n := c.Regs.Get(fieldRs(instr))
	d := c.Regs.Get(fieldRt(instr))
	if d == 0 {
		c.Regs.HI = n
		c.Regs.LO = 0xffffffff
	} else {
		c.Regs.LO = n / d
		c.Regs.HI = n % d
	}
	c.mulDivPendingCycles = divPendingCycles
	return nil
}

// execMFHI, execMTHI, execMFLO, and execMTLO all stall while a MULT/MULTU/
// DIV/DIVU result is still latching into HI/LO.
func execMFHI(c *CPU, instr uint32) error {
	if c.mulDivPendingCycles > 0 {
		return errStall
	}
	c.Regs.Set(fieldRd(instr), c.Regs.HI)
	return nil
}

func execMTHI(c *CPU, instr uint32) error {
	if c.mulDivPendingCycles > 0 {
		return errStall
	}
	c.Regs.HI = c.Regs.Get(fieldRs(instr))
	return nil
}

func execMFLO(c *CPU, instr uint32) error {
	if c.mulDivPendingCycles > 0 {
		return errStall
	}
	c.Regs.Set(fieldRd(instr), c.Regs.LO)
	return nil
}

func execMTLO(c *CPU, instr uint32) error {
	if c.mulDivPendingCycles > 0 {
		return errStall
	}
	c.Regs.LO = c.Regs.Get(fieldRs(instr))
	return nil
}

// --- branches / jumps ------------------------------------------------------

func execJ(c *CPU, instr uint32) error {
	c.markDelaySlot()
	target := (c.pc & 0xf0000000) | (fieldTarget(instr) << 2)
	c.branch(target)
	return nil
}

func execJAL(c *CPU, instr uint32) error {
	c.markDelaySlot()
	c.Regs.Set(31, c.nextPC)
	target := (c.pc & 0xf0000000) | (fieldTarget(instr) << 2)
	c.branch(target)
	return nil
}

func execJR(c *CPU, instr uint32) error {
	c.markDelaySlot()
	c.branch(c.Regs.Get(fieldRs(instr)))
	return nil
}

func execJALR(c *CPU, instr uint32) error {
	c.markDelaySlot()
	target := c.Regs.Get(fieldRs(instr))
	c.Regs.Set(fieldRd(instr), c.nextPC)
	c.branch(target)
	return nil
}

func branchTarget(pc uint32, instr uint32) uint32 {
	return pc + 4 + (fieldImm16(instr) << 2)
}

func execBEQ(c *CPU, instr uint32) error {
	c.markDelaySlot()
	if c.Regs.Get(fieldRs(instr)) == c.Regs.Get(fieldRt(instr)) {
		c.branch(branchTarget(c.currentPC, instr))
	}
	return nil
}

func execBNE(c *CPU, instr uint32) error {
	c.markDelaySlot()
	if c.Regs.Get(fieldRs(instr)) != c.Regs.Get(fieldRt(instr)) {
		c.branch(branchTarget(c.currentPC, instr))
	}
	return nil
}

func execBLEZ(c *CPU, instr uint32) error {
	c.markDelaySlot()
	if int32(c.Regs.Get(fieldRs(instr))) <= 0 {
		c.branch(branchTarget(c.currentPC, instr))
	}
	return nil
}

func execBGTZ(c *CPU, instr uint32) error {
	c.markDelaySlot()
	if int32(c.Regs.Get(fieldRs(instr))) > 0 {
		c.branch(branchTarget(c.currentPC, instr))
	}
	return nil
}

func execBLTZ(c *CPU, instr uint32) error {
	c.markDelaySlot()
	if int32(c.Regs.Get(fieldRs(instr))) < 0 {
		c.branch(branchTarget(c.currentPC, instr))
	}
	return nil
}

func execBGEZ(c *CPU, instr uint32) error {
	c.markDelaySlot()
	if int32(c.Regs.Get(fieldRs(instr))) >= 0 {
		c.branch(branchTarget(c.currentPC, instr))
	}
	return nil
}

func execBLTZAL(c *CPU, instr uint32) error {
	c.markDelaySlot()
	c.Regs.Set(31, c.nextPC)
	if int32(c.Regs.Get(fieldRs(instr))) < 0 {
		c.branch(branchTarget(c.currentPC, instr))
	}
	return nil
}

func execBGEZAL(c *CPU, instr uint32) error {
	c.markDelaySlot()
	c.Regs.Set(31, c.nextPC)
	if int32(c.Regs.Get(fieldRs(instr))) >= 0 {
		c.branch(branchTarget(c.currentPC, instr))
	}
	return nil
}

// --- loads / stores ----------------------------------------------------------

func execLB(c *CPU, instr uint32) error {
	addr := c.Regs.Get(fieldRs(instr)) + fieldImm16(instr)
	v, err := c.readData(addr, 1)
	if err != nil {
		return err
	}
	c.stageLoad(fieldRt(instr), uint32(int32(int8(uint8(v)))))
	return nil
}

func execLBU(c *CPU, instr uint32) error {
	addr := c.Regs.Get(fieldRs(instr)) + fieldImm16(instr)
	v, err := c.readData(addr, 1)
	if err != nil {
		return err
	}
	c.stageLoad(fieldRt(instr), v)
	return nil
}

func execLH(c *CPU, instr uint32) error {
	addr := c.Regs.Get(fieldRs(instr)) + fieldImm16(instr)
	if err := checkAlign(addr, 2, false); err != nil {
		return err
	}
	v, err := c.readData(addr, 2)
	if err != nil {
		return err
	}
	c.stageLoad(fieldRt(instr), uint32(int32(int16(uint16(v)))))
	return nil
}

func execLHU(c *CPU, instr uint32) error {
	addr := c.Regs.Get(fieldRs(instr)) + fieldImm16(instr)
	if err := checkAlign(addr, 2, false); err != nil {
		return err
	}
	v, err := c.readData(addr, 2)
	if err != nil {
		return err
	}
	c.stageLoad(fieldRt(instr), v)
	return nil
}

func execLW(c *CPU, instr uint32) error {
	addr := c.Regs.Get(fieldRs(instr)) + fieldImm16(instr)
	if err := checkAlign(addr, 4, false); err != nil {
		return err
	}
	v, err := c.readData(addr, 4)
	if err != nil {
		return err
	}
	c.stageLoad(fieldRt(instr), v)
	return nil
}

// execLWL and execLWR implement the unaligned partial-word loads: each
// reads the aligned word straddling addr and merges it with the
// load-delay-aware base value according to which bytes the opcode
// contributes, the "left"/"right" partial-word semantics the R3000 defines
// for a little-endian bus.
func execLWL(c *CPU, instr uint32) error {
	addr := c.Regs.Get(fieldRs(instr)) + fieldImm16(instr)
	aligned := addr &^ 3
	word, err := c.readData(aligned, 4)
	if err != nil {
		return err
	}
	base := c.Regs.MergeBase(fieldRt(instr))

	var merged uint32
	switch addr & 3 {
	case 0:
		merged = (base & 0x00ffffff) | (word << 24)
	case 1:
		merged = (base & 0x0000ffff) | (word << 16)
	case 2:
		merged = (base & 0x000000ff) | (word << 8)
	case 3:
		merged = word
	}
	c.stageLoad(fieldRt(instr), merged)
	return nil
}

func execLWR(c *CPU, instr uint32) error {
	addr := c.Regs.Get(fieldRs(instr)) + fieldImm16(instr)
	aligned := addr &^ 3
	word, err := c.readData(aligned, 4)
	if err != nil {
		return err
	}
	base := c.Regs.MergeBase(fieldRt(instr))

	var merged uint32
	switch addr & 3 {
	case 0:
		merged = word
	case 1:
		merged = (base & 0xff000000) | (word >> 8)
	case 2:
		merged = (base & 0xffff0000) | (word >> 16)
	case 3:
		merged = (base & 0xffffff00) | (word >> 24)
	}
	c.stageLoad(fieldRt(instr), merged)
	return nil
}

func execSB(c *CPU, instr uint32) error {
	addr := c.Regs.Get(fieldRs(instr)) + fieldImm16(instr)
	return c.queueOrWriteByte(addr, uint8(c.Regs.Get(fieldRt(instr))))
}

func execSH(c *CPU, instr uint32) error {
	addr := c.Regs.Get(fieldRs(instr)) + fieldImm16(instr)
	if err := checkAlign(addr, 2, true); err != nil {
		return err
	}
	return c.queueOrWriteHalf(addr, uint16(c.Regs.Get(fieldRt(instr))))
}

func execSW(c *CPU, instr uint32) error {
	addr := c.Regs.Get(fieldRs(instr)) + fieldImm16(instr)
	if err := checkAlign(addr, 4, true); err != nil {
		return err
	}
	return c.queueOrWriteWord(addr, c.Regs.Get(fieldRt(instr)))
}

func execSWL(c *CPU, instr uint32) error {
	addr := c.Regs.Get(fieldRs(instr)) + fieldImm16(instr)
	aligned := addr &^ 3
	old, err := c.readData(aligned, 4)
	if err != nil {
		return err
	}
	v := c.Regs.Get(fieldRt(instr))

	var merged uint32
	switch addr & 3 {
	case 0:
		merged = (old & 0xffffff00) | (v >> 24)
	case 1:
		merged = (old & 0xffff0000) | (v >> 16)
	case 2:
		merged = (old & 0xff000000) | (v >> 8)
	case 3:
		merged = v
	}
	return c.queueOrWriteWord(aligned, merged)
}

func execSWR(c *CPU, instr uint32) error {
	addr := c.Regs.Get(fieldRs(instr)) + fieldImm16(instr)
	aligned := addr &^ 3
	old, err := c.readData(aligned, 4)
	if err != nil {
		return err
	}
	v := c.Regs.Get(fieldRt(instr))

	var merged uint32
	switch addr & 3 {
	case 0:
		merged = v
	case 1:
		merged = (old & 0x000000ff) | (v << 8)
	case 2:
		merged = (old & 0x0000ffff) | (v << 16)
	case 3:
		merged = (old & 0x00ffffff) | (v << 24)
	}
	return c.queueOrWriteWord(aligned, merged)
}

// queueOrWrite{Byte,Half,Word} route a store through the write queue when
// the target is a cached segment (KUSEG/KSEG0) and the cache isn't
// isolated, perform the isolated-cache-write shortcut (the CPU never
// reaches memory while Status.IsC is set; instead it invalidates the
// addressed instruction-cache word) when it is, or otherwise (an
// uncached KSEG1 target) write straight through to the bus immediately.
func (c *CPU) queueOrWriteByte(addr uint32, v uint8) error {
	if c.Cop0.CacheIsolated() {
		c.isolatedCacheWrite(addr)
		return nil
	}
	return c.enqueueOrImmediate(addr, uint32(v), 1)
}

func (c *CPU) queueOrWriteHalf(addr uint32, v uint16) error {
	if c.Cop0.CacheIsolated() {
		c.isolatedCacheWrite(addr)
		return nil
	}
	return c.enqueueOrImmediate(addr, uint32(v), 2)
}

func (c *CPU) queueOrWriteWord(addr uint32, v uint32) error {
	if c.Cop0.CacheIsolated() {
		c.isolatedCacheWrite(addr)
		return nil
	}
	return c.enqueueOrImmediate(addr, v, 4)
}

func (c *CPU) enqueueOrImmediate(addr, value uint32, size uint8) error {
	if !isCacheable(addr) {
		c.opCycles += uint64(c.Bus.AccessCycles(addr, size))
		switch size {
		case 1:
			c.Bus.Write8(addr, uint8(value))
		case 2:
			c.Bus.Write16(addr, uint16(value))
		default:
			c.Bus.Write32(addr, value)
		}
		return nil
	}

	if c.WriteQueue.Full() {
		return errStall
	}
	c.WriteQueue.Push(addr, value, size)
	return nil
}

// isolatedCacheWrite implements the BIOS cache-init idiom: a store issued
// while Status.IsC is set invalidates the addressed i-cache word instead of
// reaching the bus. The cache-control register is not consulted: no such
// store invalidates a whole line, and the stored value is never written
// into the cache.
func (c *CPU) isolatedCacheWrite(addr uint32) {
	c.ICache.InvalidateWord(addr)
}

// --- syscall / break ---------------------------------------------------------

func execSYSCALL(c *CPU, instr uint32) error {
	return simpleException(cop0.ExcSysCall)
}

func execBREAK(c *CPU, instr uint32) error {
	return simpleException(cop0.ExcBreakPoint)
}
