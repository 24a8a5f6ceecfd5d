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

package sio

import (
	"testing"

	"github.com/gopsx/psx/clock"
	"github.com/gopsx/psx/interrupt"
)

func newTestController() (*Controller, *Pad, *interrupt.Collector) {
	c := clock.New(1.585)
	var h interrupt.Collector
	ctl := New(c, &h)
	pad := NewPad(true)
	ctl.AttachDevice(0, pad)
	return ctl, pad, &h
}

func selectDeviceZero(ctl *Controller) {
	ctl.WriteCTRL(ctrlTXEN | ctrlDTR | ctrlDSRIRQEnable)
}

func TestPollSequenceReturnsDigitalID(t *testing.T) {
	ctl, _, _ := newTestController()
	selectDeviceZero(ctl)

	bytes := []uint8{0x01, 0x42, 0x00, 0x00}
	var got []uint8
	for _, b := range bytes {
		ctl.WriteTXData(b)
		ctl.clock.Advance(txRxCycles)
		ctl.OnTransmitComplete()
		got = append(got, ctl.ReadRXData())
	}

	want := []uint8{0xff, uint8(padID & 0xff), uint8(padID >> 8), 0xff}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x (full=%v)", i, got[i], want[i], got)
		}
	}
}

func TestDSRInterruptFiresOnAck(t *testing.T) {
	ctl, _, h := newTestController()
	selectDeviceZero(ctl)

	ctl.WriteTXData(0x01)
	ctl.clock.Advance(txRxCycles)
	ctl.OnTransmitComplete()

	var c interrupt.Controller
	h.Flush(&c)
	if c.Status()&(1<<interrupt.ControllerMemoryCard) == 0 {
		t.Fatalf("controller/memory-card IRQ not raised on ack")
	}
}

func TestUnselectedDeviceDiscardsTX(t *testing.T) {
	ctl, _, _ := newTestController()
	ctl.WriteCTRL(ctrlTXEN) // no DTR: nothing selected

	ctl.WriteTXData(0x01)
	if len(ctl.txData) != 0 {
		t.Fatalf("byte queued despite no device selected")
	}
}

func TestTXFIFOOverflowDiscardsThirdByte(t *testing.T) {
	ctl, _, _ := newTestController()
	selectDeviceZero(ctl)

	ctl.WriteTXData(0x01)
	ctl.WriteTXData(0x02)
	ctl.WriteTXData(0x03)
	if len(ctl.txData) != 2 {
		t.Fatalf("txData len = %d, want 2 (third byte must be dropped)", len(ctl.txData))
	}
}

func TestDisconnectedPadAlwaysReturnsFF(t *testing.T) {
	p := NewPad(false)
	resp, ack := p.ReplyTo(0x01)
	if resp != 0xff || ack {
		t.Fatalf("disconnected pad replied %#x ack=%v, want 0xff false", resp, ack)
	}
}
