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

package cdrom

import (
	"testing"

	"github.com/gopsx/psx/clock"
	"github.com/gopsx/psx/interrupt"
)

func newController() (*Controller, *clock.Clock, *interrupt.Collector) {
	c := clock.New(1.585)
	var h interrupt.Collector
	return New(c, &h), c, &h
}

// run advances the clock until every due event has been dispatched,
// simulating the main loop's drain of the shared event queue.
func run(ctl *Controller, c *clock.Clock, cycles uint64) {
	c.Advance(cycles)
	c.DrainDue(func(e clock.Event) { ctl.OnEvent(e) })
}

func TestBCDRoundTrip(t *testing.T) {
	for _, v := range []uint8{0, 1, 9, 10, 42, 99} {
		enc := BCDEncode(v)
		if got := BCDDecode(enc); got != v {
			t.Fatalf("BCDDecode(BCDEncode(%d)) = %d", v, got)
		}
	}
}

func TestNopAcknowledgesWithStat(t *testing.T) {
	ctl, c, h := newController()
	ctl.WriteRegister(0x1f801800, 1) // bank 1 to reach HINTMSK
	ctl.WriteRegister(0x1f801802, 0x07)
	ctl.WriteRegister(0x1f801800, 0) // back to bank 0
	ctl.WriteRegister(0x1f801801, 0x01)

	run(ctl, c, firstResponseIRQDelay)

	stat := ctl.ReadRegister(0x1f801801)
	if stat&0xe0 != 0 { // no play/seek/read bits set while idle
		t.Fatalf("unexpected stat bits after Nop: %#02x", stat)
	}
	if ctl.hintsts&7 != uint8(irq3Ack) {
		t.Fatalf("HINTSTS = %#02x, want INT3", ctl.hintsts)
	}

	var ic interrupt.Controller
	ic.SetMask(1 << interrupt.CDROM)
	h.Flush(&ic)
	if !ic.Pending() {
		t.Fatalf("CDROM interrupt should have been raised into the controller")
	}
}

func TestWrongParameterCountRaisesError(t *testing.T) {
	ctl, c, _ := newController()
	ctl.WriteRegister(0x1f801800, 0)
	ctl.WriteRegister(0x1f801802, 0xaa) // one stray parameter before Nop
	ctl.WriteRegister(0x1f801801, 0x01)

	run(ctl, c, firstResponseIRQDelay)

	if ctl.hintsts&7 != uint8(irq5Error) {
		t.Fatalf("HINTSTS = %#02x, want INT5", ctl.hintsts)
	}
	if len(ctl.resultFIFO) != 2 {
		t.Fatalf("result FIFO = %v, want [stat, errWrongNumberOfParameters]", ctl.resultFIFO)
	}
	if errorCause(ctl.resultFIFO[1]) != errWrongNumberOfParameters {
		t.Fatalf("error byte = %#02x, want %#02x", ctl.resultFIFO[1], errWrongNumberOfParameters)
	}
}

func TestSetModeUpdatesSpeedAndSectorSize(t *testing.T) {
	ctl, c, _ := newController()
	ctl.WriteRegister(0x1f801800, 0)
	ctl.WriteRegister(0x1f801802, 0x80|0x20) // double speed, whole sector
	ctl.WriteRegister(0x1f801801, 0x0e)

	run(ctl, c, firstResponseIRQDelay)

	if ctl.getSpeed() != speedDouble {
		t.Fatalf("speed = %v, want double", ctl.getSpeed())
	}
	if ctl.getSectorSize() != WholeSectorExceptSyncBytes {
		t.Fatalf("sector size = %v, want WholeSectorExceptSyncBytes", ctl.getSectorSize())
	}
}

func TestInt1PendingFlagReplaysAfterAck(t *testing.T) {
	ctl, _, _ := newController()

	ctl.setIRQ(irq1DataReady)
	if ctl.hintsts&7 != uint8(irq1DataReady) {
		t.Fatalf("first INT1 not latched")
	}

	// A second INT1 arrives before the first is acknowledged: it must be
	// deferred rather than silently lost.
	ctl.setIRQ(irq1DataReady)
	if !ctl.int1Pending {
		t.Fatalf("second INT1 should have set the pending flag")
	}

	ctl.ackIRQs(7)
	if ctl.int1Pending {
		t.Fatalf("pending flag should clear once replayed")
	}
	if ctl.hintsts&7 != uint8(irq1DataReady) {
		t.Fatalf("HINTSTS = %#02x after ack, want replayed INT1", ctl.hintsts&7)
	}
}

func TestRegisterBankMultiplexing(t *testing.T) {
	ctl, _, _ := newController()

	ctl.WriteRegister(0x1f801800, 1) // select bank 1
	ctl.WriteRegister(0x1f801802, 0x1f)
	if ctl.hintmsk != 0x1f {
		t.Fatalf("bank 1 write to register 2 should set HINTMSK, got %#02x", ctl.hintmsk)
	}

	ctl.hintsts = 0x05
	got := ctl.ReadRegister(0x1f801803)
	if got&7 != 0x05 {
		t.Fatalf("bank 1 read of register 3 should return HINTSTS, got %#02x", got)
	}

	ctl.WriteRegister(0x1f801800, 0) // back to bank 0
	got = ctl.ReadRegister(0x1f801803)
	if got&0x1f != 0x1f {
		t.Fatalf("bank 0 read of register 3 should return HINTMSK, got %#02x", got)
	}
}

func TestDMAReadPullsLittleEndianWordFromBuffer(t *testing.T) {
	ctl, _, _ := newController()
	ctl.readBuffer = []uint8{0x01, 0x02, 0x03, 0x04, 0xff}

	if !ctl.Ready() {
		t.Fatalf("Ready() should be true with a full word buffered")
	}
	if got := ctl.Read(); got != 0x04030201 {
		t.Fatalf("Read() = %#08x, want 0x04030201", got)
	}
	if len(ctl.readBuffer) != 1 {
		t.Fatalf("readBuffer should have one byte left, got %d", len(ctl.readBuffer))
	}
}

func TestGetTNWithoutDiscRaisesCannotRespondYet(t *testing.T) {
	ctl, c, _ := newController()
	ctl.WriteRegister(0x1f801800, 0)
	ctl.WriteRegister(0x1f801801, 0x13)

	run(ctl, c, firstResponseIRQDelay)

	if ctl.hintsts&7 != uint8(irq5Error) {
		t.Fatalf("HINTSTS = %#02x, want INT5", ctl.hintsts)
	}
	if errorCause(ctl.resultFIFO[1]) != errCannotRespondYet {
		t.Fatalf("error byte = %#02x, want errCannotRespondYet", ctl.resultFIFO[1])
	}
}

func TestTestCommandUnknownSubFunctionReportsInvalidSubFunction(t *testing.T) {
	ctl, c, _ := newController()
	ctl.WriteRegister(0x1f801800, 0)
	ctl.WriteRegister(0x1f801802, 0x99)
	ctl.WriteRegister(0x1f801801, 0x19)

	run(ctl, c, firstResponseIRQDelay)

	if ctl.hintsts&7 != uint8(irq5Error) {
		t.Fatalf("HINTSTS = %#02x, want INT5", ctl.hintsts)
	}
	if errorCause(ctl.resultFIFO[1]) != errInvalidSubFunction {
		t.Fatalf("error byte = %#02x, want errInvalidSubFunction", ctl.resultFIFO[1])
	}
}

func TestTestCommandVersionQuery(t *testing.T) {
	ctl, c, _ := newController()
	ctl.WriteRegister(0x1f801800, 0)
	ctl.WriteRegister(0x1f801802, 0x20)
	ctl.WriteRegister(0x1f801801, 0x19)

	run(ctl, c, firstResponseIRQDelay)

	if len(ctl.resultFIFO) != 4 {
		t.Fatalf("result FIFO = %v, want the 4-byte version quadruplet", ctl.resultFIFO)
	}
	for i, b := range testVersion {
		if ctl.resultFIFO[i] != b {
			t.Fatalf("version byte %d = %#02x, want %#02x", i, ctl.resultFIFO[i], b)
		}
	}
}

func TestPauseCancelsInFlightSecondResponse(t *testing.T) {
	ctl, c, _ := newController()
	ctl.WriteRegister(0x1f801800, 0)
	ctl.WriteRegister(0x1f801801, 0x09) // Pause schedules a second response

	run(ctl, c, firstResponseIRQDelay)
	if len(c.Pending()) == 0 {
		t.Fatalf("expected the second-response phase to still be scheduled")
	}

	run(ctl, c, stdSecondResponseIRQDelay)
	run(ctl, c, firstResponseIRQDelay) // drain the final INT2 scheduled by return2ndResponseStat

	if len(c.Pending()) != 0 {
		t.Fatalf("all CD-ROM events should be drained once Pause fully completes")
	}
	if ctl.busyStatus {
		t.Fatalf("controller should be idle once Pause completes")
	}
}

func TestResetClearsFIFOsAndPendingEvents(t *testing.T) {
	ctl, c, _ := newController()
	ctl.WriteRegister(0x1f801800, 0)
	ctl.WriteRegister(0x1f801801, 0x09)
	run(ctl, c, firstResponseIRQDelay)

	ctl.Reset()

	if len(ctl.parameterFIFO) != 0 || len(ctl.resultFIFO) != 0 {
		t.Fatalf("Reset should clear both FIFOs")
	}
	if len(c.Pending()) != 0 {
		t.Fatalf("Reset should cancel every pending CD-ROM event")
	}
}
