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

package timer

import (
	"testing"

	"github.com/gopsx/psx/clock"
	"github.com/gopsx/psx/interrupt"
)

func newController() (*Controller, *interrupt.Collector) {
	var h interrupt.Collector
	c := clock.New(1.585)
	return New(c, &h), &h
}

func TestFreeRunningSystemClockCounts(t *testing.T) {
	ctl, _ := newController()
	ctl.clock.Advance(100)
	if got := ctl.Counter(0); got != 100 {
		t.Fatalf("Counter(0) = %d, want 100", got)
	}
}

func TestSystemClockDiv8OnTimer2(t *testing.T) {
	ctl, _ := newController()
	ctl.WriteRegister(0x1f801124, uint32(0x2)<<modeClockSrcShift)
	ctl.clock.Advance(80)
	if got := ctl.Counter(2); got != 10 {
		t.Fatalf("Counter(2) = %d, want 10 (80 cycles / 8)", got)
	}
}

func TestTargetReachedSetsLatchAndFiresIRQWhenEnabled(t *testing.T) {
	ctl, h := newController()
	ctl.WriteRegister(0x1f801104, modeIRQAtTarget|modeResetAtTarget)
	ctl.WriteRegister(0x1f801108, 50)

	ctl.clock.Advance(50)
	ctl.Advance(50)

	mode := ctl.ReadRegister(0x1f801104)
	if mode&modeReachedTarget == 0 {
		t.Fatalf("reached-target flag not set after crossing target")
	}

	var c interrupt.Controller
	h.Flush(&c)
	c.SetMask(1 << interrupt.Timer0)
	if !c.Pending() {
		t.Fatalf("timer 0 IRQ not raised on reaching target")
	}
}

func TestOneShotIRQFiresOnlyOnce(t *testing.T) {
	ctl, h := newController()
	ctl.WriteRegister(0x1f801104, modeIRQAtFFFF)

	ctl.clock.Advance(uint64(counterMax) + 1)
	ctl.Advance(uint64(counterMax) + 1)

	var c interrupt.Controller
	h.Flush(&c)
	if bits := c.Status(); bits&(1<<interrupt.Timer0) == 0 {
		t.Fatalf("expected timer 0 irq to fire on the first overflow")
	}
	c.Acknowledge(0)

	ctl.clock.Advance(uint64(counterMax) + 1)
	ctl.Advance(uint64(counterMax) + 1)
	h.Flush(&c)
	if bits := c.Status(); bits&(1<<interrupt.Timer0) != 0 {
		t.Fatalf("one-shot timer 0 irq fired again on the second overflow")
	}
}

func TestPauseDuringBlankStopsCounting(t *testing.T) {
	ctl, _ := newController()
	ctl.WriteRegister(0x1f801104, modeSyncEnable) // sync mode bits = 0 => PauseDuringBlank
	ctl.NotifyHBlankStart()

	ctl.clock.Advance(1000)
	if got := ctl.Counter(0); got != 0 {
		t.Fatalf("Counter(0) = %d while paused during blank, want 0", got)
	}

	ctl.NotifyHBlankEnd()
	ctl.clock.Advance(10)
	if got := ctl.Counter(0); got != 10 {
		t.Fatalf("Counter(0) = %d after blank ends, want 10", got)
	}
}

func TestResetAtBlankPauseOutsideHoldsValueOutsideBlank(t *testing.T) {
	ctl, _ := newController()
	// sync mode bits = 2 => ResetToZeroAtBlankPauseOutside
	ctl.WriteRegister(0x1f801104, modeSyncEnable|(2<<modeSyncModeShift))

	ctl.clock.Advance(30)
	if got := ctl.Counter(0); got != 30 {
		t.Fatalf("Counter(0) = %d before first blank, want 30 (runs until blank seen)", got)
	}

	ctl.NotifyHBlankStart()
	if got := ctl.Counter(0); got != 0 {
		t.Fatalf("Counter(0) = %d at blank entry, want reset to 0", got)
	}
	ctl.NotifyHBlankEnd()

	ctl.clock.Advance(1000)
	if got := ctl.Counter(0); got != 0 {
		t.Fatalf("Counter(0) = %d outside blank, want paused at 0", got)
	}
}

func TestPauseUntilBlankThenFreeRun(t *testing.T) {
	ctl, _ := newController()
	// sync mode bits = 3 => PauseUntilBlankThenFreeRun
	ctl.WriteRegister(0x1f801104, modeSyncEnable|(3<<modeSyncModeShift))

	ctl.clock.Advance(1000)
	if got := ctl.Counter(0); got != 0 {
		t.Fatalf("Counter(0) = %d before first blank, want paused at 0", got)
	}

	ctl.NotifyHBlankStart()
	ctl.clock.Advance(25)
	if got := ctl.Counter(0); got != 25 {
		t.Fatalf("Counter(0) = %d after blank seen once, want free-running at 25", got)
	}

	ctl.NotifyHBlankEnd()
	ctl.clock.Advance(25)
	if got := ctl.Counter(0); got != 50 {
		t.Fatalf("Counter(0) = %d outside blank, want still free-running at 50", got)
	}
}

func TestModeRegisterReadClearsLatches(t *testing.T) {
	ctl, _ := newController()
	ctl.WriteRegister(0x1f801104, modeIRQAtTarget|modeResetAtTarget)
	ctl.WriteRegister(0x1f801108, 10)
	ctl.clock.Advance(10)
	ctl.Advance(10)

	first := ctl.ReadRegister(0x1f801104)
	if first&modeReachedTarget == 0 {
		t.Fatalf("expected reached-target set on first read")
	}
	second := ctl.ReadRegister(0x1f801104)
	if second&modeReachedTarget != 0 {
		t.Fatalf("reached-target flag should clear after being read")
	}
}
