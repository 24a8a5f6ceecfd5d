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

// Package debugger runs an emulation on its own goroutine behind a pair of
// request/response queues, so a REPL front-end (see debugger/terminal) can
// drive it without ever touching emulator state directly.
package debugger

import (
	"io"

	"github.com/gopsx/psx/console"
	"github.com/gopsx/psx/cpu/disassembly"
	"github.com/gopsx/psx/debugger/govern"
	"github.com/gopsx/psx/logger"
)

// Debugger wraps a console.Emulator with run-mode and breakpoint state and
// the two message queues a front-end exchanges with it. All emulator
// access happens on the goroutine running Run; the request/response
// channels are the only safe cross-goroutine surface.
type Debugger struct {
	emu *console.Emulator

	requests  chan Request
	responses chan Response

	mode        govern.Mode
	breakpoints BreakpointSet
	logLevel    LogLevel

	halted bool

	watchHit     uint32
	watchHitSeen bool
}

// New wraps emu for debugger-driven stepping. It starts in StepByStep mode
// so attaching a front-end never races the emulator into running before a
// mode has been chosen; send RunModeChanged to switch to FreeMode/BreakMode.
func New(emu *console.Emulator) *Debugger {
	d := &Debugger{
		emu:       emu,
		requests:  make(chan Request, 32),
		responses: make(chan Response, 256),
		mode:      govern.StepByStep,
	}
	emu.Bus.SetWatchHooks(d.onRead, d.onWrite)
	return d
}

// Requests is the send-only queue a front-end pushes Request values onto.
func (d *Debugger) Requests() chan<- Request { return d.requests }

// Responses is the receive-only queue a front-end drains Response values
// from.
func (d *Debugger) Responses() <-chan Response { return d.responses }

// Mode reports the run mode as of the last processed RunModeChanged
// request (may be stale by one in-flight request).
func (d *Debugger) Mode() govern.Mode { return d.mode }

// Stop ends Run's loop at its next request-queue check.
func (d *Debugger) Stop() { close(d.requests) }

// LogLevel reports the threshold set by the last processed Log request.
func (d *Debugger) LogLevel() LogLevel { return d.logLevel }

// DumpScheduledEvents writes a Graphviz graph of the clock's currently
// pending events to w, for a front-end's memory/schedule visualizer.
func (d *Debugger) DumpScheduledEvents(w io.Writer) {
	DumpScheduledEvents(w, d.emu.Clock.Pending())
}

func (d *Debugger) onRead(addr uint32) {
	if d.mode == govern.BreakMode && d.breakpoints.MatchesRead(addr) {
		d.watchHit, d.watchHitSeen = addr, true
	}
}

func (d *Debugger) onWrite(addr uint32) {
	if d.mode == govern.BreakMode && d.breakpoints.MatchesWrite(addr) {
		d.watchHit, d.watchHitSeen = addr, true
	}
}

// Run services the request queue until Stop is called. In StepByStep mode
// (or while halted on a breakpoint) it blocks for the next request; in
// FreeMode/BreakMode it drains any pending request without blocking and
// otherwise keeps stepping the emulator.
func (d *Debugger) Run() {
	for {
		if d.mode == govern.StepByStep || d.halted {
			req, ok := <-d.requests
			if !ok {
				return
			}
			d.handle(req)
			continue
		}

		select {
		case req, ok := <-d.requests:
			if !ok {
				return
			}
			d.handle(req)
			continue
		default:
		}

		if addr, hit := d.step(false); hit {
			d.halted = true
			d.push(BreakAt{Address: addr})
		}
	}
}

func (d *Debugger) handle(req Request) {
	switch r := req.(type) {
	case RunModeChanged:
		d.mode = r.Mode
		d.halted = false
		if r.Mode == govern.BreakMode {
			d.breakpoints = r.Breakpoints
		}
	case Step:
		if d.mode == govern.StepByStep {
			d.step(true)
		}
	case ReqCpuRegs:
		d.push(d.cpuRegsSnapshot())
	case ReqCop0Regs:
		var regs [16]uint32
		for i := range regs {
			regs[i] = d.emu.CPU.Cop0.ReadRegister(uint32(i))
		}
		d.push(Cop0Regs{Regs: regs})
	case ReadMemory:
		d.push(d.readMemory(r))
	case Log:
		d.logLevel = r.Level
		logger.Logf("debugger", "log threshold set to %d", r.Level)
	}
}

// step executes exactly one instruction and reports whether a BreakMode
// execute or watch breakpoint matched. It only pushes a CpuRegs response
// when announce is set, so BreakMode/FreeMode free-running doesn't flood
// the response queue with one message per instruction.
func (d *Debugger) step(announce bool) (addr uint32, hit bool) {
	pc := d.emu.CPU.PC()
	instrWord := d.emu.Bus.Peek(pc)
	execHit := d.mode == govern.BreakMode && d.breakpoints.matchesExecute(pc, instrWord)

	d.watchHitSeen = false
	before := d.emu.CPU.Cycles
	d.emu.Step()
	cost := d.emu.CPU.Cycles - before

	if announce {
		d.push(CpuRegs{
			Instruction:   disassembly.Disassemble(pc, instrWord),
			GPR:           gprSnapshot(d.emu),
			HI:            d.emu.CPU.Regs.HI,
			LO:            d.emu.CPU.Regs.LO,
			LastCycleCost: cost,
		})
	}

	switch {
	case execHit:
		return pc, true
	case d.mode == govern.BreakMode && d.watchHitSeen:
		return d.watchHit, true
	}
	return 0, false
}

func (d *Debugger) cpuRegsSnapshot() CpuRegs {
	pc := d.emu.CPU.PC()
	instrWord := d.emu.Bus.Peek(pc)
	return CpuRegs{
		Instruction: disassembly.Disassemble(pc, instrWord),
		GPR:         gprSnapshot(d.emu),
		HI:          d.emu.CPU.Regs.HI,
		LO:          d.emu.CPU.Regs.LO,
	}
}

func gprSnapshot(emu *console.Emulator) [32]uint32 {
	var gpr [32]uint32
	for i := range gpr {
		gpr[i] = emu.CPU.Regs.Get(uint32(i))
	}
	return gpr
}

// readMemory services a ReadMemory request via Bus.Peek, word-aligned and
// shifted down to the requested size; it never dispatches to a
// peripheral's side-effecting register read.
func (d *Debugger) readMemory(r ReadMemory) Memory {
	size := uint32(r.Size)
	if size != 1 && size != 2 {
		size = 4
	}
	values := make([]uint32, 0, r.Count)
	for i := uint32(0); i < r.Count; i++ {
		addr := r.Address + i*size
		word := d.emu.Bus.Peek(addr &^ 3)
		shift := (addr & 3) * 8
		var v uint32
		switch size {
		case 1:
			v = (word >> shift) & 0xff
		case 2:
			v = (word >> shift) & 0xffff
		default:
			v = d.emu.Bus.Peek(addr)
		}
		values = append(values, v)
	}
	return Memory{Address: r.Address, Values: values}
}

func (d *Debugger) push(r Response) {
	select {
	case d.responses <- r:
	default:
		logger.Log("debugger", "dropped response, queue full")
	}
}
