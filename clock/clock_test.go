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

package clock_test

import (
	"testing"

	"github.com/gopsx/psx/clock"
)

func TestScheduleAndDrain(t *testing.T) {
	c := clock.New(1.585)

	c.Schedule(clock.Timer0Expiry, 10, 0)
	c.Schedule(clock.HBlankStart, 5, 0)

	if _, ok := c.NextDue(); ok {
		t.Fatalf("nothing should be due yet")
	}

	c.Advance(5)
	e, ok := c.NextDue()
	if !ok || e.Type != clock.HBlankStart {
		t.Fatalf("expected hblank-start due, got %+v ok=%v", e, ok)
	}
	if _, ok := c.NextDue(); ok {
		t.Fatalf("timer should not be due yet")
	}

	c.Advance(5)
	e, ok = c.NextDue()
	if !ok || e.Type != clock.Timer0Expiry {
		t.Fatalf("expected timer-0-expiry due, got %+v ok=%v", e, ok)
	}
}

func TestTiesBreakFIFO(t *testing.T) {
	c := clock.New(1.585)
	c.Schedule(clock.HBlankStart, 10, 1)
	c.Schedule(clock.HBlankEnd, 10, 2)
	c.Schedule(clock.ScanlineEnd, 10, 3)

	c.Advance(10)

	var order []int
	c.DrainDue(func(e clock.Event) { order = append(order, e.Tag) })

	want := []int{1, 2, 3}
	for i, w := range want {
		if order[i] != w {
			t.Fatalf("fifo order violated: got %v want %v", order, want)
		}
	}
}

func TestCancelWhere(t *testing.T) {
	c := clock.New(1.585)
	c.Schedule(clock.Timer0Expiry, 5, 1)
	c.Schedule(clock.Timer0Expiry, 5, 2)
	c.Schedule(clock.Timer1Expiry, 5, 3)

	c.CancelWhere(func(e clock.Event) bool { return e.Type == clock.Timer0Expiry && e.Tag == 1 })

	c.Advance(5)
	var fired []int
	c.DrainDue(func(e clock.Event) { fired = append(fired, e.Tag) })

	if len(fired) != 2 {
		t.Fatalf("expected 2 events after cancel, got %d (%v)", len(fired), fired)
	}
}

func TestScheduleScaled(t *testing.T) {
	c := clock.New(2.0)
	ts := c.ScheduleScaled(clock.GP0Completion, 100, 0)
	if ts != 200 {
		t.Fatalf("expected scaled timestamp 200, got %d", ts)
	}
}
