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

// NumGPR is the number of general-purpose registers, $zero through $ra.
const NumGPR = 32

// pendingLoad is a load result that has not yet become visible in the GPR
// file: the value a LW/LB/... instruction produced, staged for one step so
// that an immediately-following instruction reading the same register still
// observes the old value.
type pendingLoad struct {
	reg   uint32
	value uint32
	valid bool
}

// Registers is the R3000 general-purpose register file plus the HI/LO
// multiply/divide result registers and the load-delay staging slot.
//
// Register 0 is hardwired to zero: Set silently drops writes targeting it,
// matching the real CPU's behaviour of producing zero on every read
// regardless of what was last written.
type Registers struct {
	gpr [NumGPR]uint32
	PC  uint32
	HI  uint32
	LO  uint32

	pending pendingLoad
	staged  pendingLoad
}

// Get reads a general-purpose register. Register 0 always reads zero.
func (r *Registers) Get(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	return r.gpr[n]
}

// Set writes a general-purpose register immediately (bypassing the
// load-delay slot), used by every non-load instruction result and by
// exception/branch-link writes. Writes to register 0 are dropped.
func (r *Registers) Set(n uint32, v uint32) {
	if n == 0 {
		return
	}
	r.gpr[n] = v
}

// BeginLoad stages the result of a load instruction so it becomes visible
// only after the following step commits it. Must be called at most once per
// step; RestageMerged overwrites an already-staged value in place.
func (r *Registers) BeginLoad(reg uint32, value uint32) {
	if reg == 0 {
		// still occupies the delay slot timing-wise, but Commit will no-op
		// the actual write.
		r.staged = pendingLoad{reg: 0, value: 0, valid: true}
		return
	}
	r.staged = pendingLoad{reg: reg, value: value, valid: true}
}

// StagedLoadRegister reports the register number targeted by this step's
// own (not-yet-committed) load, and whether one is staged at all. LWL/LWR
// do not call it; they merge through MergeBase.
func (r *Registers) StagedLoadRegister() (uint32, bool) {
	if !r.staged.valid {
		return 0, false
	}
	return r.staged.reg, true
}

// StagedLoadValue returns the value currently staged for this step's load.
// LWL/LWR do not call it; they merge through MergeBase.
func (r *Registers) StagedLoadValue() uint32 {
	return r.staged.value
}

// RestageMerged overwrites this step's staged load value in place, without
// touching its validity or target register.
func (r *Registers) RestageMerged(value uint32) {
	r.staged.value = value
}

// ConflictsWithPending reports whether reg is the target of the previous
// (not yet committed) pending load. The decode/execute stage must call this
// before this step's own body runs: if true, the pending load is discarded
// before it can ever be observed (per the CPU's "value never observed"
// load-delay-conflict rule), rather than being committed normally at the end
// of the step.
func (r *Registers) ConflictsWithPending(reg uint32) bool {
	return r.pending.valid && r.pending.reg == reg
}

// CommitAndAdvance finishes a step's load-delay bookkeeping: the previous
// step's pending load (unless it was dropped earlier in this step via
// ConflictsWithPending) is written into the GPR file, and this step's own
// staged load becomes the next step's pending load.
func (r *Registers) CommitAndAdvance() {
	if r.pending.valid && r.pending.reg != 0 {
		r.gpr[r.pending.reg] = r.pending.value
	}
	r.pending = r.staged
	r.staged = pendingLoad{}
}

// MergeBase returns the value LWL/LWR should merge new bytes into: the
// still-pending (not yet committed) load's value if one targets the same
// register, else the register's currently-committed value. This reproduces
// the one documented exception to the load-delay-conflict rule, where LWL/
// LWR immediately following a load to the same register merges with that
// load's in-flight result instead of discarding it.
func (r *Registers) MergeBase(reg uint32) uint32 {
	if r.pending.valid && r.pending.reg == reg {
		return r.pending.value
	}
	return r.Get(reg)
}

// DropPending discards the previous step's not-yet-committed load without
// committing it, for the same-register load-delay-conflict rule.
func (r *Registers) DropPending() {
	r.pending = pendingLoad{}
}

// Reset clears every register and the load-delay slot, matching the reset
// vector entry state (PC is left to the caller, which seeds it from the
// reset exception vector).
func (r *Registers) Reset() {
	*r = Registers{}
}
