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

// instrFunc executes one decoded instruction against c. Errors are either an
// exception value, unwound by Step into the handler entry path, or errStall.
type instrFunc func(c *CPU, instr uint32) error

// Field extraction helpers for the standard R3000 encodings.
func fieldOp(instr uint32) uint32     { return instr >> 26 }
func fieldRs(instr uint32) uint32     { return (instr >> 21) & 0x1f }
func fieldRt(instr uint32) uint32     { return (instr >> 16) & 0x1f }
func fieldRd(instr uint32) uint32     { return (instr >> 11) & 0x1f }
func fieldShamt(instr uint32) uint32  { return (instr >> 6) & 0x1f }
func fieldFunct(instr uint32) uint32  { return instr & 0x3f }
func fieldImm16(instr uint32) uint32  { return uint32(int32(int16(instr))) }
func fieldImm16u(instr uint32) uint32 { return instr & 0xffff }
func fieldTarget(instr uint32) uint32 { return instr & 0x03ffffff }

// opcodeTable dispatches on the primary 6-bit opcode field. Entries left nil
// fall through to SPECIAL/REGIMM/COPz sub-dispatch or to a reserved-
// instruction exception.
var opcodeTable [64]instrFunc
var specialTable [64]instrFunc
var regimmTable [32]instrFunc

func init() {
	opcodeTable[0x00] = execSpecial
	opcodeTable[0x01] = execRegimm
	opcodeTable[0x02] = execJ
	opcodeTable[0x03] = execJAL
	opcodeTable[0x04] = execBEQ
	opcodeTable[0x05] = execBNE
	opcodeTable[0x06] = execBLEZ
	opcodeTable[0x07] = execBGTZ
	opcodeTable[0x08] = execADDI
	opcodeTable[0x09] = execADDIU
	opcodeTable[0x0a] = execSLTI
	opcodeTable[0x0b] = execSLTIU
	opcodeTable[0x0c] = execANDI
	opcodeTable[0x0d] = execORI
	opcodeTable[0x0e] = execXORI
	opcodeTable[0x0f] = execLUI
	opcodeTable[0x10] = execCop0
	opcodeTable[0x12] = execCop2
	opcodeTable[0x20] = execLB
	opcodeTable[0x21] = execLH
	opcodeTable[0x22] = execLWL
	opcodeTable[0x23] = execLW
	opcodeTable[0x24] = execLBU
	opcodeTable[0x25] = execLHU
	opcodeTable[0x26] = execLWR
	opcodeTable[0x28] = execSB
	opcodeTable[0x29] = execSH
	opcodeTable[0x2a] = execSWL
	opcodeTable[0x2b] = execSW
	opcodeTable[0x2e] = execSWR
	opcodeTable[0x32] = execLWC2
	opcodeTable[0x3a] = execSWC2

	specialTable[0x00] = execSLL
	specialTable[0x02] = execSRL
	specialTable[0x03] = execSRA
	specialTable[0x04] = execSLLV
	specialTable[0x06] = execSRLV
	specialTable[0x07] = execSRAV
	specialTable[0x08] = execJR
	specialTable[0x09] = execJALR
	specialTable[0x0c] = execSYSCALL
	specialTable[0x0d] = execBREAK
	specialTable[0x10] = execMFHI
	specialTable[0x11] = execMTHI
	specialTable[0x12] = execMFLO
	specialTable[0x13] = execMTLO
	specialTable[0x18] = execMULT
	specialTable[0x19] = execMULTU
	specialTable[0x1a] = execDIV
	specialTable[0x1b] = execDIVU
	specialTable[0x20] = execADD
	specialTable[0x21] = execADDU
	specialTable[0x22] = execSUB
	specialTable[0x23] = execSUBU
	specialTable[0x24] = execAND
	specialTable[0x25] = execOR
	specialTable[0x26] = execXOR
	specialTable[0x27] = execNOR
	specialTable[0x2a] = execSLT
	specialTable[0x2b] = execSLTU

	regimmTable[0x00] = execBLTZ
	regimmTable[0x01] = execBGEZ
	regimmTable[0x10] = execBLTZAL
	regimmTable[0x11] = execBGEZAL
}

func execSpecial(c *CPU, instr uint32) error {
	fn := specialTable[fieldFunct(instr)]
	if fn == nil {
		return simpleException(cop0.ExcReservedInstruction)
	}
	return fn(c, instr)
}

func execRegimm(c *CPU, instr uint32) error {
	fn := regimmTable[fieldRt(instr)&0x1f]
	if fn == nil {
		return simpleException(cop0.ExcReservedInstruction)
	}
	return fn(c, instr)
}
