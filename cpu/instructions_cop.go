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

// cop0Rs values identifying the coprocessor-0 sub-instruction, decoded from
// the rs field of a COP0 (opcode 0x10) instruction word.
const (
	cop0RsMFC0 = 0x00
	cop0RsMTC0 = 0x04
	cop0RsRFE  = 0x10
)

// execCop0 dispatches MFC0/MTC0/RFE, all encoded under the COP0 major opcode
// and distinguished by the rs field (RFE further requires funct == 0x10).
func execCop0(c *CPU, instr uint32) error {
	if !c.Cop0.Cop0Usable() {
		return coprocessorUnusable(0)
	}

	switch fieldRs(instr) {
	case cop0RsMFC0:
		c.stageLoad(fieldRt(instr), c.Cop0.ReadRegister(fieldRd(instr)))
		return nil
	case cop0RsMTC0:
		c.Cop0.WriteRegister(fieldRd(instr), c.Regs.Get(fieldRt(instr)))
		return nil
	case cop0RsRFE:
		if fieldFunct(instr) != 0x10 {
			return simpleException(cop0.ExcReservedInstruction)
		}
		c.Cop0.RFE()
		return nil
	default:
		return simpleException(cop0.ExcReservedInstruction)
	}
}

// cop2Rs values identifying the coprocessor-2 sub-instruction. Any rs value
// with bit 4 set (0x10-0x1f) is a GTE command word rather than a register
// move, dispatched through GTE.Execute on the low 25 bits of the instruction.
const (
	cop2RsMFC2 = 0x00
	cop2RsCFC2 = 0x02
	cop2RsMTC2 = 0x04
	cop2RsCTC2 = 0x06
)

// stallForGTE charges any cycles remaining from a still-running GTE command
// into this step and clears the countdown, implementing the rule that
// MFC2/LWC2/SWC2/COP2 imm25 hold the CPU until the GTE has finished rather
// than observing a command in flight.
func (c *CPU) stallForGTE() {
	c.opCycles += uint64(c.GTE.BusyCycles)
	c.GTE.BusyCycles = 0
}

// execCop2 dispatches MFC2/CFC2/MTC2/CTC2 and GTE command execution, all
// encoded under the COP2 major opcode. MFC2 and a new GTE command both
// stall for any busy-cycles left over from the previous command; CFC2/MTC2/
// CTC2 do not.
func execCop2(c *CPU, instr uint32) error {
	if !c.Cop0.Cop2Usable() {
		return coprocessorUnusable(2)
	}

	rs := fieldRs(instr)
	if rs&0x10 != 0 {
		c.stallForGTE()
		c.GTE.Execute(instr & 0x01ffffff)
		return nil
	}

	switch rs {
	case cop2RsMFC2:
		c.stallForGTE()
		c.stageLoad(fieldRt(instr), c.GTE.ReadData(fieldRd(instr)))
	case cop2RsCFC2:
		c.stageLoad(fieldRt(instr), c.GTE.ReadControl(fieldRd(instr)))
	case cop2RsMTC2:
		c.GTE.WriteData(fieldRd(instr), c.Regs.Get(fieldRt(instr)))
	case cop2RsCTC2:
		c.GTE.WriteControl(fieldRd(instr), c.Regs.Get(fieldRt(instr)))
	default:
		return simpleException(cop0.ExcReservedInstruction)
	}
	return nil
}

// execLWC2 loads a word from memory directly into a GTE data register.
func execLWC2(c *CPU, instr uint32) error {
	if !c.Cop0.Cop2Usable() {
		return coprocessorUnusable(2)
	}
	addr := c.Regs.Get(fieldRs(instr)) + fieldImm16(instr)
	if err := checkAlign(addr, 4, false); err != nil {
		return err
	}
	v, err := c.readData(addr, 4)
	if err != nil {
		return err
	}
	c.stallForGTE()
	c.GTE.WriteData(fieldRt(instr), v)
	return nil
}

// execSWC2 stores a GTE data register to memory, through the same write
// queue as every other store.
func execSWC2(c *CPU, instr uint32) error {
	if !c.Cop0.Cop2Usable() {
		return coprocessorUnusable(2)
	}
	addr := c.Regs.Get(fieldRs(instr)) + fieldImm16(instr)
	if err := checkAlign(addr, 4, true); err != nil {
		return err
	}
	if err := c.queueOrWriteWord(addr, c.GTE.ReadData(fieldRt(instr))); err != nil {
		return err
	}
	c.stallForGTE()
	return nil
}
