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

// Package sio implements the controller/memory-card serial port: a
// two-deep TX queue, an eight-deep RX FIFO, and the /CS device-select
// logic, driven by a clock-scheduled transmit-complete event rather than
// a bit-at-a-time shift register.
package sio

import (
	"github.com/gopsx/psx/clock"
	"github.com/gopsx/psx/interrupt"
)

// txRxCycles approximates one byte exchanged at the fixed ~250kHz the
// controller/memory-card bus runs at, in CPU cycles.
const txRxCycles = 12 * (33868800 / 250000)

// Device is anything that can sit behind a /CS-selected SIO port: a
// controller pad or a memory card. ReplyTo receives the byte just clocked
// out and returns the byte clocked in, plus whether it asserts /ACK.
type Device interface {
	ReplyTo(cmd uint8) (response uint8, ack bool)
	Reset()
}

const (
	ctrlTXEN          = 1 << 0
	ctrlDTR           = 1 << 1
	ctrlRXEN          = 1 << 2
	ctrlAcknowledge   = 1 << 4
	ctrlReset         = 1 << 6
	ctrlDSRIRQEnable  = 1 << 12
	ctrlPortSelect    = 1 << 13
)

// Controller is the SIO0 port: two device slots (controller 1, controller
// 2 / memory card 1, memory card 2 in real hardware; gopsx models one
// Device per slot and leaves memory-card wiring to whatever is plugged in
// there).
type Controller struct {
	devices [2]Device

	mode uint16
	ctrl uint16
	baud uint16

	txData      []uint8
	rxFIFO      []uint8
	txIdle      bool
	ackAsserted bool
	irq         bool

	selected        int
	selectedValid   bool
	startTimestamp  uint64

	clock *clock.Clock
	irqs  *interrupt.Collector
}

// New returns an SIO0 Controller with both device slots empty. Plug
// devices in with AttachDevice.
func New(c *clock.Clock, irqs *interrupt.Collector) *Controller {
	ctl := &Controller{clock: c, irqs: irqs}
	ctl.Reset()
	return ctl
}

// AttachDevice plugs a Device into slot 0 or 1 (selected by SIO_CTRL bit 13).
func (ctl *Controller) AttachDevice(slot int, dev Device) {
	ctl.devices[slot] = dev
}

// Reset restores power-on register values; devices are left connected.
func (ctl *Controller) Reset() {
	ctl.mode = 0
	ctl.ctrl = 0
	ctl.baud = 0
	ctl.txData = ctl.txData[:0]
	ctl.rxFIFO = ctl.rxFIFO[:0]
	ctl.txIdle = true
	ctl.ackAsserted = false
	ctl.irq = false
	ctl.selectedValid = false
	if ctl.clock != nil {
		ctl.clock.Cancel(clock.SIOTransmitComplete)
	}
}

// WriteTXData queues a byte to transmit, starting (or restarting) the
// transfer timer if a device is currently selected and TX is enabled.
func (ctl *Controller) WriteTXData(data uint8) {
	if !ctl.selectedValid || ctl.ctrl&ctrlTXEN == 0 {
		return
	}
	if len(ctl.txData) >= 2 {
		return // FIFO overflow: discard, matching real hardware
	}
	ctl.txData = append(ctl.txData, data)
	ctl.reschedule()
}

func (ctl *Controller) reschedule() {
	ctl.txIdle = false
	ctl.startTimestamp = ctl.clock.Now()
	ctl.clock.Cancel(clock.SIOTransmitComplete)
	ctl.clock.Schedule(clock.SIOTransmitComplete, txRxCycles, 0)
}

// OnTransmitComplete is called by the top-level step loop when the
// SIOTransmitComplete event fires: it pops the queued byte, hands it to
// the selected device, pushes the reply into the RX FIFO, and raises the
// controller/memory-card IRQ if DSR interrupts are enabled and the device
// acknowledged.
func (ctl *Controller) OnTransmitComplete() {
	if len(ctl.txData) == 0 {
		return
	}
	tx := ctl.txData[0]
	ctl.txData = ctl.txData[1:]

	if ctl.selectedValid {
		dev := ctl.devices[ctl.selected]
		var rx uint8 = 0xff
		ack := false
		if dev != nil {
			rx, ack = dev.ReplyTo(tx)
		}
		ctl.ackAsserted = ack
		if ack && ctl.ctrl&ctrlDSRIRQEnable != 0 {
			ctl.irq = true
			ctl.irqs.Set(interrupt.ControllerMemoryCard)
		}
		ctl.pushRX(rx)
	}

	ctl.ctrl &^= ctrlRXEN
	ctl.txIdle = len(ctl.txData) == 0
	if !ctl.txIdle {
		ctl.reschedule()
	}
}

func (ctl *Controller) pushRX(v uint8) {
	if len(ctl.rxFIFO) < 8 {
		ctl.rxFIFO = append(ctl.rxFIFO, v)
	}
}

// ReadRXData pops the oldest queued byte, or returns 0xff once empty.
func (ctl *Controller) ReadRXData() uint8 {
	if len(ctl.rxFIFO) == 0 {
		return 0xff
	}
	v := ctl.rxFIFO[0]
	ctl.rxFIFO = ctl.rxFIFO[1:]
	return v
}

// WriteCTRL implements the SIO_CTRL side effects: acknowledge clears the
// IRQ latch, reset clears device selection, and DTR+port-select asserts
// /CS on one of the two device slots.
func (ctl *Controller) WriteCTRL(value uint16) {
	ctl.ctrl = value &^ 0x50
	if value&ctrlAcknowledge != 0 {
		ctl.irq = false
	}
	if value&ctrlReset != 0 {
		ctl.irq = false
		ctl.selectedValid = false
	}
	if value&ctrlDTR != 0 {
		ctl.selected = int((value >> 13) & 1)
		ctl.selectedValid = true
	} else {
		ctl.selectedValid = false
	}
}

func (ctl *Controller) ReadCTRL() uint16 { return ctl.ctrl }

func (ctl *Controller) WriteMode(value uint16) { ctl.mode = value }
func (ctl *Controller) ReadMode() uint16       { return ctl.mode }

func (ctl *Controller) WriteBaud(value uint16) { ctl.baud = value }
func (ctl *Controller) ReadBaud() uint16       { return ctl.baud }

// Status assembles SIO_STAT: TX-ready, RX-not-empty, TX-idle, DSR level,
// IRQ flag, and a coarse baud-rate-timer readback.
func (ctl *Controller) Status() uint32 {
	var v uint32
	if len(ctl.txData) < 2 {
		v |= 1 << 0
	}
	if len(ctl.rxFIFO) > 0 {
		v |= 1 << 1
	}
	if ctl.txIdle {
		v |= 1 << 2
	}
	if ctl.ackAsserted {
		v |= 1 << 7
	}
	if ctl.irq {
		v |= 1 << 9
	}
	elapsed := uint32(0)
	if ctl.clock != nil {
		elapsed = uint32(ctl.clock.Now() - ctl.startTimestamp)
	}
	v |= elapsed << 11
	return v
}

const (
	regData = 0x1f801040
	regStat = 0x1f801044
	regMode = 0x1f801048
	regCtrl = 0x1f80104a
	regBaud = 0x1f80104e
)

// ReadRegister implements bus.Peripheral over the SIO0 register window.
func (ctl *Controller) ReadRegister(addr uint32) uint32 {
	switch addr &^ 1 {
	case regData:
		return uint32(ctl.ReadRXData())
	case regStat:
		return ctl.Status()
	case regMode:
		return uint32(ctl.ReadMode())
	case regCtrl:
		return uint32(ctl.ReadCTRL())
	case regBaud:
		return uint32(ctl.ReadBaud())
	}
	return 0
}

// WriteRegister implements bus.Peripheral.
func (ctl *Controller) WriteRegister(addr uint32, value uint32) {
	switch addr &^ 1 {
	case regData:
		ctl.WriteTXData(uint8(value))
	case regMode:
		ctl.WriteMode(uint16(value))
	case regCtrl:
		ctl.WriteCTRL(uint16(value))
	case regBaud:
		ctl.WriteBaud(uint16(value))
	}
}
