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

// Package disassembly turns a (PC, instruction word) pair into a structured
// record describing the instruction, for the debugger's disassembly view
// and trace logging. It is a pure function of its inputs: it holds no CPU
// state and never touches memory beyond the one word it is given.
package disassembly

import "fmt"

// Entry is one disassembled instruction.
type Entry struct {
	Address  uint32
	Raw      uint32
	Mnemonic string
	Operands string
}

// String renders an Entry the way a trace log or debugger listing does:
// address, raw word, and the padded mnemonic/operand pair.
func (e Entry) String() string {
	return fmt.Sprintf("%08X %08X %-7s %s", e.Address, e.Raw, e.Mnemonic, e.Operands)
}

var registerAliases = [32]string{
	"$zero", "$at", "$v0", "$v1", "$a0", "$a1", "$a2", "$a3",
	"$t0", "$t1", "$t2", "$t3", "$t4", "$t5", "$t6", "$t7",
	"$s0", "$s1", "$s2", "$s3", "$s4", "$s5", "$s6", "$s7",
	"$t8", "$t9", "$k0", "$k1", "$gp", "$sp", "$fp", "$ra",
}

func reg(n uint32) string { return registerAliases[n&0x1f] }

var cop0RegisterAliases = [32]string{
	"r0", "r1", "r2", "BPC", "r4", "BDA", "JUMPDEST", "DCIC",
	"BadVAddr", "BDAM", "r10", "BPCM", "SR", "Cause", "EPC", "PRId",
	"r16", "r17", "r18", "r19", "r20", "r21", "r22", "r23",
	"r24", "r25", "r26", "r27", "r28", "r29", "r30", "r31",
}

var cop2DataRegisterAliases = [32]string{
	"vxy0", "vz0", "vxy1", "vz1", "vxy2", "vz2", "rgbc", "otz",
	"ir0", "ir1", "ir2", "ir3", "sxy0", "sxy1", "sxy2", "sxyp",
	"sz0", "sz1", "sz2", "sz3", "rgb0", "rgb1", "rgb2", "res1",
	"mac0", "mac1", "mac2", "mac3", "irgb", "orgb", "lzcs", "lzcr",
}

var cop2ControlRegisterAliases = [32]string{
	"r11r12", "r13r21", "r22r23", "r31r32", "trx", "try", "trz", "r8",
	"l11l12", "l13l21", "l22l23", "l31l32", "rbk", "gbk", "bbk", "r23",
	"lr1lr2", "lr3lg1", "lg2lg3", "lb1lb2", "rfc", "gfc", "bfc", "ofx",
	"ofy", "h", "dqa", "dqb", "zsf3", "zsf4", "flag", "r31",
}

func copReg(cop, n uint32, data bool) string {
	switch cop {
	case 0:
		return cop0RegisterAliases[n&0x1f]
	case 2:
		if data {
			return cop2DataRegisterAliases[n&0x1f]
		}
		return cop2ControlRegisterAliases[n&0x1f]
	default:
		return fmt.Sprintf("$cop%d_r%d", cop, n&0x1f)
	}
}

func signedImm16(instr uint32) int32 { return int32(int16(instr)) }

func hex16Signed(instr uint32) string {
	v := signedImm16(instr)
	if v < 0 {
		return fmt.Sprintf("-%04X", uint16(-v))
	}
	return fmt.Sprintf("%04X", uint16(v))
}

func branchTarget(pc, instr uint32) uint32 {
	return pc + 4 + uint32(signedImm16(instr)<<2)
}

func jumpTarget(pc, instr uint32) uint32 {
	return (pc & 0xf0000000) | ((instr & 0x03ffffff) << 2)
}

// Disassemble decodes the instruction word at pc into an Entry.
func Disassemble(pc uint32, instr uint32) Entry {
	op := instr >> 26
	rs := (instr >> 21) & 0x1f
	rt := (instr >> 16) & 0x1f
	rd := (instr >> 11) & 0x1f
	sa := (instr >> 6) & 0x1f

	switch op {
	case 0x00:
		return disassembleSpecial(pc, instr, rs, rt, rd, sa)
	case 0x01:
		return disassembleRegimm(pc, instr, rs, rt)
	case 0x02:
		return Entry{pc, instr, "j", fmt.Sprintf("%08X", jumpTarget(pc, instr))}
	case 0x03:
		return Entry{pc, instr, "jal", fmt.Sprintf("%08X", jumpTarget(pc, instr))}
	case 0x04:
		if rt == 0 {
			return Entry{pc, instr, "beqz", fmt.Sprintf("%s, %08X", reg(rs), branchTarget(pc, instr))}
		}
		return Entry{pc, instr, "beq", fmt.Sprintf("%s, %s, %08X", reg(rs), reg(rt), branchTarget(pc, instr))}
	case 0x05:
		if rt == 0 {
			return Entry{pc, instr, "bnez", fmt.Sprintf("%s, %08X", reg(rs), branchTarget(pc, instr))}
		}
		return Entry{pc, instr, "bne", fmt.Sprintf("%s, %s, %08X", reg(rs), reg(rt), branchTarget(pc, instr))}
	case 0x06:
		return Entry{pc, instr, "blez", fmt.Sprintf("%s, %08X", reg(rs), branchTarget(pc, instr))}
	case 0x07:
		return Entry{pc, instr, "bgtz", fmt.Sprintf("%s, %08X", reg(rs), branchTarget(pc, instr))}
	case 0x08:
		return Entry{pc, instr, "addi", fmt.Sprintf("%s, %s, %s", reg(rt), reg(rs), hex16Signed(instr))}
	case 0x09:
		return Entry{pc, instr, "addiu", fmt.Sprintf("%s, %s, %s", reg(rt), reg(rs), hex16Signed(instr))}
	case 0x0a:
		return Entry{pc, instr, "slti", fmt.Sprintf("%s, %s, %s", reg(rt), reg(rs), hex16Signed(instr))}
	case 0x0b:
		return Entry{pc, instr, "sltiu", fmt.Sprintf("%s, %s, %s", reg(rt), reg(rs), hex16Signed(instr))}
	case 0x0c:
		return Entry{pc, instr, "andi", fmt.Sprintf("%s, %s, %04X", reg(rt), reg(rs), instr&0xffff)}
	case 0x0d:
		return Entry{pc, instr, "ori", fmt.Sprintf("%s, %s, %04X", reg(rt), reg(rs), instr&0xffff)}
	case 0x0e:
		return Entry{pc, instr, "xori", fmt.Sprintf("%s, %s, %04X", reg(rt), reg(rs), instr&0xffff)}
	case 0x0f:
		return Entry{pc, instr, "lui", fmt.Sprintf("%s, %04X", reg(rt), instr&0xffff)}
	case 0x10, 0x12:
		return disassembleCop(pc, instr, op, rs, rt, rd)
	case 0x20:
		return Entry{pc, instr, "lb", fmt.Sprintf("%s, %s(%s)", reg(rt), hex16Signed(instr), reg(rs))}
	case 0x21:
		return Entry{pc, instr, "lh", fmt.Sprintf("%s, %s(%s)", reg(rt), hex16Signed(instr), reg(rs))}
	case 0x22:
		return Entry{pc, instr, "lwl", fmt.Sprintf("%s, %s(%s)", reg(rt), hex16Signed(instr), reg(rs))}
	case 0x23:
		return Entry{pc, instr, "lw", fmt.Sprintf("%s, %s(%s)", reg(rt), hex16Signed(instr), reg(rs))}
	case 0x24:
		return Entry{pc, instr, "lbu", fmt.Sprintf("%s, %s(%s)", reg(rt), hex16Signed(instr), reg(rs))}
	case 0x25:
		return Entry{pc, instr, "lhu", fmt.Sprintf("%s, %s(%s)", reg(rt), hex16Signed(instr), reg(rs))}
	case 0x26:
		return Entry{pc, instr, "lwr", fmt.Sprintf("%s, %s(%s)", reg(rt), hex16Signed(instr), reg(rs))}
	case 0x28:
		return Entry{pc, instr, "sb", fmt.Sprintf("%s, %s(%s)", reg(rt), hex16Signed(instr), reg(rs))}
	case 0x29:
		return Entry{pc, instr, "sh", fmt.Sprintf("%s, %s(%s)", reg(rt), hex16Signed(instr), reg(rs))}
	case 0x2a:
		return Entry{pc, instr, "swl", fmt.Sprintf("%s, %s(%s)", reg(rt), hex16Signed(instr), reg(rs))}
	case 0x2b:
		return Entry{pc, instr, "sw", fmt.Sprintf("%s, %s(%s)", reg(rt), hex16Signed(instr), reg(rs))}
	case 0x2e:
		return Entry{pc, instr, "swr", fmt.Sprintf("%s, %s(%s)", reg(rt), hex16Signed(instr), reg(rs))}
	case 0x32:
		return Entry{pc, instr, "lwc2", fmt.Sprintf("%s, %s(%s)", copReg(2, rt, true), hex16Signed(instr), reg(rs))}
	case 0x3a:
		return Entry{pc, instr, "swc2", fmt.Sprintf("%s, %s(%s)", copReg(2, rt, true), hex16Signed(instr), reg(rs))}
	default:
		return Entry{pc, instr, "???", ""}
	}
}

func disassembleSpecial(pc, instr, rs, rt, rd, sa uint32) Entry {
	switch instr & 0x3f {
	case 0x00:
		if instr == 0 {
			return Entry{pc, instr, "nop", ""}
		}
		return Entry{pc, instr, "sll", fmt.Sprintf("%s, %s, %02X", reg(rd), reg(rt), sa)}
	case 0x02:
		return Entry{pc, instr, "srl", fmt.Sprintf("%s, %s, %02X", reg(rd), reg(rt), sa)}
	case 0x03:
		return Entry{pc, instr, "sra", fmt.Sprintf("%s, %s, %02X", reg(rd), reg(rt), sa)}
	case 0x04:
		return Entry{pc, instr, "sllv", fmt.Sprintf("%s, %s, %s", reg(rd), reg(rt), reg(rs))}
	case 0x06:
		return Entry{pc, instr, "srlv", fmt.Sprintf("%s, %s, %s", reg(rd), reg(rt), reg(rs))}
	case 0x07:
		return Entry{pc, instr, "srav", fmt.Sprintf("%s, %s, %s", reg(rd), reg(rt), reg(rs))}
	case 0x08:
		return Entry{pc, instr, "jr", reg(rs)}
	case 0x09:
		if rd == 31 {
			return Entry{pc, instr, "jalr", reg(rs)}
		}
		return Entry{pc, instr, "jalr", fmt.Sprintf("%s, %s", reg(rd), reg(rs))}
	case 0x0c:
		return Entry{pc, instr, "syscall", fmt.Sprintf("%05X", (instr>>6)&0xfffff)}
	case 0x0d:
		return Entry{pc, instr, "break", fmt.Sprintf("%05X", (instr>>6)&0xfffff)}
	case 0x10:
		return Entry{pc, instr, "mfhi", reg(rd)}
	case 0x11:
		return Entry{pc, instr, "mthi", reg(rs)}
	case 0x12:
		return Entry{pc, instr, "mflo", reg(rd)}
	case 0x13:
		return Entry{pc, instr, "mtlo", reg(rs)}
	case 0x18:
		return Entry{pc, instr, "mult", fmt.Sprintf("%s, %s", reg(rs), reg(rt))}
	case 0x19:
		return Entry{pc, instr, "multu", fmt.Sprintf("%s, %s", reg(rs), reg(rt))}
	case 0x1a:
		return Entry{pc, instr, "div", fmt.Sprintf("%s, %s", reg(rs), reg(rt))}
	case 0x1b:
		return Entry{pc, instr, "divu", fmt.Sprintf("%s, %s", reg(rs), reg(rt))}
	case 0x20:
		return Entry{pc, instr, "add", fmt.Sprintf("%s, %s, %s", reg(rd), reg(rs), reg(rt))}
	case 0x21:
		if rt == 0 {
			return Entry{pc, instr, "move", fmt.Sprintf("%s, %s", reg(rd), reg(rs))}
		}
		return Entry{pc, instr, "addu", fmt.Sprintf("%s, %s, %s", reg(rd), reg(rs), reg(rt))}
	case 0x22:
		return Entry{pc, instr, "sub", fmt.Sprintf("%s, %s, %s", reg(rd), reg(rs), reg(rt))}
	case 0x23:
		return Entry{pc, instr, "subu", fmt.Sprintf("%s, %s, %s", reg(rd), reg(rs), reg(rt))}
	case 0x24:
		return Entry{pc, instr, "and", fmt.Sprintf("%s, %s, %s", reg(rd), reg(rs), reg(rt))}
	case 0x25:
		if rt == 0 {
			return Entry{pc, instr, "move", fmt.Sprintf("%s, %s", reg(rd), reg(rs))}
		}
		return Entry{pc, instr, "or", fmt.Sprintf("%s, %s, %s", reg(rd), reg(rs), reg(rt))}
	case 0x26:
		return Entry{pc, instr, "xor", fmt.Sprintf("%s, %s, %s", reg(rd), reg(rs), reg(rt))}
	case 0x27:
		return Entry{pc, instr, "nor", fmt.Sprintf("%s, %s, %s", reg(rd), reg(rs), reg(rt))}
	case 0x2a:
		return Entry{pc, instr, "slt", fmt.Sprintf("%s, %s, %s", reg(rd), reg(rs), reg(rt))}
	case 0x2b:
		return Entry{pc, instr, "sltu", fmt.Sprintf("%s, %s, %s", reg(rd), reg(rs), reg(rt))}
	default:
		return Entry{pc, instr, "???", ""}
	}
}

func disassembleRegimm(pc, instr, rs, rt uint32) Entry {
	target := branchTarget(pc, instr)
	switch rt & 0x1f {
	case 0x00:
		return Entry{pc, instr, "bltz", fmt.Sprintf("%s, %08X", reg(rs), target)}
	case 0x01:
		return Entry{pc, instr, "bgez", fmt.Sprintf("%s, %08X", reg(rs), target)}
	case 0x10:
		return Entry{pc, instr, "bltzal", fmt.Sprintf("%s, %08X", reg(rs), target)}
	case 0x11:
		return Entry{pc, instr, "bgezal", fmt.Sprintf("%s, %08X", reg(rs), target)}
	default:
		return Entry{pc, instr, "???", ""}
	}
}

func disassembleCop(pc, instr, op, rs, rt, rd uint32) Entry {
	cop := op & 0xf
	if op == 0x12 && rs&0x10 != 0 {
		return Entry{pc, instr, fmt.Sprintf("cop%d", cop), fmt.Sprintf("%06X", instr&0x01ffffff)}
	}
	switch rs {
	case 0x00:
		return Entry{pc, instr, fmt.Sprintf("mfc%d", cop), fmt.Sprintf("%s, %s", reg(rt), copReg(cop, rd, true))}
	case 0x02:
		return Entry{pc, instr, fmt.Sprintf("cfc%d", cop), fmt.Sprintf("%s, %s", reg(rt), copReg(cop, rd, false))}
	case 0x04:
		return Entry{pc, instr, fmt.Sprintf("mtc%d", cop), fmt.Sprintf("%s, %s", reg(rt), copReg(cop, rd, true))}
	case 0x06:
		return Entry{pc, instr, fmt.Sprintf("ctc%d", cop), fmt.Sprintf("%s, %s", reg(rt), copReg(cop, rd, false))}
	case 0x10:
		if cop == 0 && instr&0x3f == 0x10 {
			return Entry{pc, instr, "rfe", ""}
		}
		return Entry{pc, instr, "???", ""}
	default:
		return Entry{pc, instr, "???", ""}
	}
}
