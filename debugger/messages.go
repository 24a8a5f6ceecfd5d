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

package debugger

import (
	"github.com/gopsx/psx/cpu/disassembly"
	"github.com/gopsx/psx/debugger/govern"
)

// Request is the set of messages the REPL front-end may push onto a
// Debugger's request queue. The emulation goroutine only inspects these
// between instructions, never touching Debugger state from outside it.
type Request interface{ isRequest() }

// RunModeChanged asks the emulation loop to adopt a new run mode; for
// BreakMode, Breakpoints supplies the address/pattern set to halt on.
type RunModeChanged struct {
	Mode        govern.Mode
	Breakpoints BreakpointSet
}

// Step asks the loop to execute exactly one instruction; only meaningful
// in StepByStep mode, ignored otherwise.
type Step struct{}

// ReqCpuRegs asks for a CpuRegs response describing the next instruction
// about to execute and the GPR/HI/LO snapshot as it stands right now.
type ReqCpuRegs struct{}

// ReqCop0Regs asks for a Cop0Regs response.
type ReqCop0Regs struct{}

// ReadMemory asks for a Memory response covering Count words of Size bytes
// each, starting at Address. Size must be 1, 2, or 4.
type ReadMemory struct {
	Address uint32
	Count   uint32
	Size    uint8
}

// LogLevel is the diagnostic threshold a Log request sets. The debugger
// records it (see Debugger.LogLevel) and logs the change; it does not
// filter or forward any log output by it.
type LogLevel uint8

const (
	LogOff LogLevel = iota
	LogError
	LogWarn
	LogInfo
	LogDebug
)

// Log changes the debugger's logging threshold.
type Log struct {
	Level LogLevel
}

func (RunModeChanged) isRequest() {}
func (Step) isRequest()           {}
func (ReqCpuRegs) isRequest()     {}
func (ReqCop0Regs) isRequest()    {}
func (ReadMemory) isRequest()     {}
func (Log) isRequest()            {}

// Response is the set of messages the emulation loop pushes onto a
// Debugger's response queue.
type Response interface{ isResponse() }

// CpuRegs answers ReqCpuRegs and is also pushed unprompted after every
// instruction in StepByStep mode.
type CpuRegs struct {
	Instruction   disassembly.Entry
	GPR           [32]uint32
	HI, LO        uint32
	LastCycleCost uint64
}

// Cop0Regs answers ReqCop0Regs: the 16 coprocessor-0 registers, indexed by
// register number (unimplemented numbers read zero, per cop0.ReadRegister).
type Cop0Regs struct {
	Regs [16]uint32
}

// Memory answers ReadMemory.
type Memory struct {
	Address uint32
	Values  []uint32
}

// BreakAt is pushed unprompted when BreakMode execution halts on a
// breakpoint hit.
type BreakAt struct {
	Address uint32
}

func (CpuRegs) isResponse()  {}
func (Cop0Regs) isResponse() {}
func (Memory) isResponse()   {}
func (BreakAt) isResponse()  {}
