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

// Package cpu implements the R3000-style 32-bit interpreter: fetch/decode/
// execute, the instruction cache, the bounded store write queue, the load-
// delay and branch-delay slot pipelines, and exception entry. Grounded on
// the fetch/decode/execute/cycle-accounting shape of a stock-standard
// table-driven 8/16-bit interpreter, generalised to a 32-bit load/store
// architecture the way a 32-bit coprocessor interpreter in the same family
// of emulators would be structured.
package cpu

import (
	"github.com/gopsx/psx/cpu/cop0"
	"github.com/gopsx/psx/cpu/cop2"
	"github.com/gopsx/psx/logger"
)

// resetVector is the address execution begins at after reset.
const resetVector = 0xbfc00000

// icacheMissPenalty is the extra cost, on top of the underlying memory
// read, of a cold instruction-cache line fill.
const icacheMissPenalty = 4

// mulPendingCycles and divPendingCycles are the latency MULT/MULTU and
// DIV/DIVU hold HI/LO unavailable for; MFHI/MFLO/MTHI/MTLO stall while
// either is still counting down.
const (
	mulPendingCycles = 9
	divPendingCycles = 36
)

// stallHazard is the sentinel error an opcode handler returns to signal a
// structural hazard (full write queue, a pending mul/div result, a read
// racing a not-yet-drained queued write to the same address): the step
// aborts without advancing PC or committing register state, charging only
// the cycles already accumulated. The next call to Step retries the exact
// same instruction.
type stallHazard struct{}

func (stallHazard) Error() string { return "cpu: stalled on a structural hazard" }

var errStall error = stallHazard{}

// CPU is the R3000 interpreter.
type CPU struct {
	Regs Registers
	Cop0 *cop0.Cop0
	GTE  *cop2.GTE
	Bus  Bus

	ICache     ICache
	WriteQueue WriteQueue

	pc     uint32
	nextPC uint32

	thisIsDelaySlot    bool
	thisBranchTaken    bool
	nextIsDelaySlot    bool
	nextBranchTaken    bool

	// currentPC is the address of the instruction currently executing; kept
	// separate from pc (which by the time execute runs already holds the
	// delay slot's address) so exception entry can report the right EPC.
	currentPC uint32

	halted bool

	Cycles uint64

	// opCycles is the current step's running cycle count (reset to 1 at
	// the top of every Step, per the base one-cycle issue cost); lastStepCycles
	// is the previous step's final opCycles, used to drain the pending
	// counters below by the time that actually elapsed, not the time about
	// to elapse.
	opCycles       uint64
	lastStepCycles uint64

	// mulDivPendingCycles counts down the latency of the last MULT/MULTU/
	// DIV/DIVU; HI/LO access stalls while it is nonzero.
	mulDivPendingCycles uint64

	// writeQueueElapsed accumulates cycles while the write queue is
	// non-empty; every writeQueueDrainCycles it retires the oldest entry.
	writeQueueElapsed uint64
}

// New returns a CPU wired to the given bus, with Cop0/GTE freshly
// constructed and PC at the reset vector.
func New(bus Bus) *CPU {
	c := &CPU{
		Cop0: cop0.New(),
		GTE:  cop2.New(),
		Bus:  bus,
	}
	c.Reset()
	return c
}

// Reset restores the CPU to its power-on state.
func (c *CPU) Reset() {
	c.Regs.Reset()
	c.Cop0.Reset()
	c.ICache = ICache{}
	c.WriteQueue = WriteQueue{}
	c.pc = resetVector
	c.nextPC = resetVector + 4
	c.thisIsDelaySlot = false
	c.thisBranchTaken = false
	c.nextIsDelaySlot = false
	c.nextBranchTaken = false
	c.halted = false
	c.opCycles = 0
	c.lastStepCycles = 0
	c.mulDivPendingCycles = 0
	c.writeQueueElapsed = 0
}

// PC reports the address of the instruction about to be fetched.
func (c *CPU) PC() uint32 { return c.pc }

// SetPC forces the program counter, used by the debugger and by loaders
// seeding an executable's entry point.
func (c *CPU) SetPC(addr uint32) {
	c.pc = addr
	c.nextPC = addr + 4
}

// branch stages a taken branch/jump's target for the step after the delay
// slot, per the two-step pc/nextPC pipeline.
func (c *CPU) branch(target uint32) {
	c.nextPC = target
	c.nextBranchTaken = true
}

// markDelaySlot records that the instruction currently executing is itself
// a branch or jump, so the following step knows it is executing a delay
// slot (used for EPC/Cause.BD on exceptions raised from within it).
func (c *CPU) markDelaySlot() {
	c.nextIsDelaySlot = true
}

// checkAlign returns a load/store address error for addr if it isn't
// naturally aligned for size bytes.
func checkAlign(addr uint32, size uint32, isStore bool) error {
	if addr%size != 0 {
		if isStore {
			return addressError(cop0.ExcAddressErrorStore, addr)
		}
		return addressError(cop0.ExcAddressErrorLoad, addr)
	}
	return nil
}

// stageLoad applies the load-delay-conflict rule before staging this
// instruction's own load: if the previous, not-yet-committed load targeted
// the same register, it is dropped so its value is never observed.
func (c *CPU) stageLoad(reg uint32, value uint32) {
	if c.Regs.ConflictsWithPending(reg) {
		c.Regs.DropPending()
	}
	c.Regs.BeginLoad(reg, value)
}

// Step executes exactly one instruction (which may be a branch-delay slot),
// advancing the clock by the per-step cycle cost this instruction actually
// incurred (icache misses, memory-bus timing, DMA contention), draining the
// write queue and pending mul/div and GTE latencies by the cycles the
// previous step charged, and entering an exception handler if fetch,
// decode, or execute faulted. A structural hazard (full write queue, a
// pending mul/div result, a load racing an undrained queued store) instead
// returns early without advancing PC, charging only the cycles already
// spent; the next call retries the same instruction.
func (c *CPU) Step() {
	c.drainPending()
	c.opCycles = 1

	if c.Cop0.InterruptPending() {
		c.enterException(simpleException(cop0.ExcInterrupt))
		c.finishStep()
		return
	}

	thisPC := c.pc
	c.currentPC = thisPC
	isDelay := c.thisIsDelaySlot
	branchTaken := c.thisBranchTaken

	if thisPC%4 != 0 {
		c.enterExceptionAt(thisPC, addressError(cop0.ExcAddressErrorLoad, thisPC), isDelay, branchTaken)
		c.finishStep()
		return
	}

	if c.Cop0.HardwareBreakpointHit(thisPC) {
		c.enterExceptionAt(thisPC, simpleException(cop0.ExcBreakPoint), isDelay, branchTaken)
		c.finishStep()
		return
	}

	instr, ok := c.fetch(thisPC)
	if !ok {
		c.finishStep()
		return
	}

	c.opCycles += uint64(c.Bus.DMAStallCycles())

	op := fieldOp(instr)
	fn := opcodeTable[op]

	// Speculatively advance the pc/nextPC pipeline before executing, so
	// branch/jump handlers (which stage their target into nextPC) and JAL
	// (which reads nextPC as the return address) see the values they
	// expect; rolled back below if the instruction stalls instead of
	// completing.
	c.pc = c.nextPC
	c.nextPC += 4
	c.nextIsDelaySlot = false
	c.nextBranchTaken = false

	var err error
	if fn == nil {
		err = simpleException(cop0.ExcReservedInstruction)
	} else {
		err = fn(c, instr)
	}

	if err == errStall {
		c.pc = thisPC
		c.nextPC = thisPC + 4
		c.finishStep()
		return
	}

	if err != nil {
		c.enterExceptionAt(thisPC, err, isDelay, branchTaken)
		c.finishStep()
		return
	}

	c.Regs.CommitAndAdvance()
	c.thisIsDelaySlot = c.nextIsDelaySlot
	c.thisBranchTaken = c.nextBranchTaken
	c.finishStep()
}

// finishStep folds this step's cycle count into the running total and
// records it for the next call's drainPending, regardless of whether the
// step completed, faulted, or stalled.
func (c *CPU) finishStep() {
	c.Cycles += c.opCycles
	c.lastStepCycles = c.opCycles
}

// drainPending advances every latency counter left over from the previous
// step by the cycles that step actually charged: the mul/div result
// latency, the GTE command's busy-cycle countdown, and the write queue's
// retire-one-entry-every-4-cycles drain.
func (c *CPU) drainPending() {
	elapsed := c.lastStepCycles

	if c.mulDivPendingCycles > 0 {
		c.mulDivPendingCycles = saturatingSub(c.mulDivPendingCycles, elapsed)
	}

	if c.GTE.BusyCycles > 0 {
		dec := elapsed
		if dec > uint64(c.GTE.BusyCycles) {
			dec = uint64(c.GTE.BusyCycles)
		}
		c.GTE.BusyCycles -= int(dec)
	}

	if c.WriteQueue.Len() > 0 {
		c.writeQueueElapsed += elapsed
		for c.writeQueueElapsed >= writeQueueDrainCycles && c.WriteQueue.Len() > 0 {
			c.writeQueueElapsed -= writeQueueDrainCycles
			c.WriteQueue.Drain(func(addr, value uint32, size uint8) {
				switch size {
				case 1:
					c.Bus.Write8(addr, uint8(value))
				case 2:
					c.Bus.Write16(addr, uint16(value))
				default:
					c.Bus.Write32(addr, value)
				}
			})
		}
	}
}

func saturatingSub(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}

// fetch reads the instruction word at addr, serving it from the i-cache
// when the region is cacheable (KUSEG/KSEG0) and not currently isolated. A
// miss charges the underlying bus read plus the fixed cache-line-fill
// penalty.
func (c *CPU) fetch(addr uint32) (uint32, bool) {
	if c.Cop0.CacheIsolated() {
		c.opCycles += uint64(c.Bus.AccessCycles(addr, 4))
		return c.Bus.Read32(addr), true
	}

	if isCacheable(addr) {
		if v, hit := c.ICache.Lookup(addr); hit {
			return v, true
		}
		v := c.Bus.Read32(addr)
		c.opCycles += icacheMissPenalty + uint64(c.Bus.AccessCycles(addr, 4))
		c.ICache.Fill(addr, v)
		return v, true
	}

	c.opCycles += uint64(c.Bus.AccessCycles(addr, 4))
	return c.Bus.Read32(addr), true
}

// isCacheable reports whether addr falls in KUSEG or KSEG0, the two regions
// the instruction cache and write queue service (KSEG1 and I/O space bypass
// both: fetches always reach the bus and stores reach it immediately).
func isCacheable(addr uint32) bool {
	seg := addr >> 29
	return seg == 0 || seg == 4 // KUSEG (0x0000_0000+) or KSEG0 (0x8000_0000+)
}

// readData performs a CPU-initiated data read of size bytes (1, 2, or 4) at
// addr: it stalls if a not-yet-drained queued write still targets any of
// those bytes (so the read would otherwise observe stale memory), and
// otherwise charges the bus's access-cycle penalty before reading through.
func (c *CPU) readData(addr uint32, size uint8) (uint32, error) {
	if c.WriteQueue.Overlaps(addr, size) {
		return 0, errStall
	}
	c.opCycles += uint64(c.Bus.AccessCycles(addr, size))
	switch size {
	case 1:
		return uint32(c.Bus.Read8(addr)), nil
	case 2:
		return uint32(c.Bus.Read16(addr)), nil
	default:
		return c.Bus.Read32(addr), nil
	}
}

// enterException handles a fault raised before thisPC/isDelay have been
// established for this step (currently only the interrupt check at the top
// of Step), using the CPU's last-known committed PC.
func (c *CPU) enterException(e error) {
	c.enterExceptionAt(c.pc, e, c.thisIsDelaySlot, c.thisBranchTaken)
}

// enterExceptionAt performs the actual Status/Cause/EPC update and
// redirects fetch to the exception vector, discarding any load-delay slot
// and pending stores in flight in the faulting step (the store path already
// hasn't reached Bus by the time an exception is raised, since the queue is
// only drained at the top of the next step).
func (c *CPU) enterExceptionAt(pc uint32, err error, isDelay, branchTaken bool) {
	exc, ok := err.(exception)
	if !ok {
		logger.Logf("cpu", "non-exception error reached enterExceptionAt: %v", err)
		exc = simpleException(cop0.ExcReservedInstruction)
	}

	if exc.code == cop0.ExcCoprocessorUnusable {
		c.Cop0.SetCoprocessorUnusable(exc.coproc)
	}

	badVAddr := exc.badVAddr
	vector := c.Cop0.EnterException(pc, exc.code, isDelay, branchTaken, badVAddr, false)

	c.Regs.DropPending()
	c.pc = vector
	c.nextPC = vector + 4
	c.thisIsDelaySlot = false
	c.thisBranchTaken = false
}
