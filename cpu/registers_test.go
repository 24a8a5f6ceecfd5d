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

func TestRegisterZeroIsHardwired(t *testing.T) {
	var r Registers
	r.Set(0, 0xdeadbeef)
	if got := r.Get(0); got != 0 {
		t.Fatalf("register 0 should always read zero, got %#x", got)
	}
}

func TestImmediateSetIsVisibleRightAway(t *testing.T) {
	var r Registers
	r.Set(4, 123)
	if got := r.Get(4); got != 123 {
		t.Fatalf("expected immediate write to be visible, got %d", got)
	}
}

// TestLoadDelaySlot exercises the two-step pipeline for a single load: the
// loaded value must not be visible until the step after the one that staged
// it.
func TestLoadDelaySlot(t *testing.T) {
	var r Registers

	r.BeginLoad(8, 0x1111)
	r.CommitAndAdvance() // step N: load staged, nothing committed yet
	if got := r.Get(8); got != 0 {
		t.Fatalf("load value should not be visible in the same step, got %#x", got)
	}

	r.CommitAndAdvance() // step N+1: no new load, previous one commits
	if got := r.Get(8); got != 0x1111 {
		t.Fatalf("load value should be visible after one step, got %#x", got)
	}
}

// TestConflictingLoadIsSilentlyDropped reproduces the scenario where two
// consecutive load instructions target the same register: the first load's
// value must never be observed, even transiently.
func TestConflictingLoadIsSilentlyDropped(t *testing.T) {
	var r Registers

	r.BeginLoad(9, 0xaaaa) // instruction A: LW $9, ...
	r.CommitAndAdvance()

	// instruction B: LW $9, ... again, before A's result has committed.
	if !r.ConflictsWithPending(9) {
		t.Fatalf("expected a conflict with the still-pending load")
	}
	r.DropPending()
	r.BeginLoad(9, 0xbbbb)
	r.CommitAndAdvance()

	if got := r.Get(9); got != 0 {
		t.Fatalf("register should still be unwritten immediately after B staged, got %#x", got)
	}

	r.CommitAndAdvance()
	if got := r.Get(9); got != 0xbbbb {
		t.Fatalf("only B's value should ever become visible, got %#x", got)
	}
}

func TestLoadTargetingRegisterZeroNeverWrites(t *testing.T) {
	var r Registers
	r.BeginLoad(0, 0xffffffff)
	r.CommitAndAdvance()
	r.CommitAndAdvance()
	if got := r.Get(0); got != 0 {
		t.Fatalf("register 0 should remain zero even through the load pipeline, got %#x", got)
	}
}

func TestResetClearsRegistersAndPendingLoad(t *testing.T) {
	var r Registers
	r.Set(1, 42)
	r.BeginLoad(2, 99)
	r.Reset()
	if got := r.Get(1); got != 0 {
		t.Fatalf("expected register cleared by reset, got %d", got)
	}
	r.CommitAndAdvance()
	r.CommitAndAdvance()
	if got := r.Get(2); got != 0 {
		t.Fatalf("expected no stale pending load to survive reset, got %d", got)
	}
}
