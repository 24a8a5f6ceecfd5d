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

import "github.com/gopsx/psx/logger"

// ReadRegister implements bus.Peripheral for the 4-byte window at
// 0x1f801800-0x1f801803. Register 0 (HSTS/status) and register 1
// (RESULT) read the same thing regardless of the bank; register 2
// (RDDATA) pulls from the byte-stream read buffer on every bank;
// register 3 alternates between HINTMSK and HINTSTS depending on
// whether the bank is even or odd.
func (ctl *Controller) ReadRegister(addr uint32) uint32 {
	switch addr & 3 {
	case 0:
		return uint32(ctl.statusRegister())
	case 1:
		return uint32(ctl.popResult())
	case 2:
		return uint32(ctl.popReadData())
	case 3:
		if ctl.bankAddress%2 == 0 {
			return uint32(ctl.hintmsk | 0xe0)
		}
		return uint32(ctl.hintsts | 0xe0)
	default:
		return 0xff
	}
}

// WriteRegister implements bus.Peripheral. Register 0 always selects the
// bank; the other three registers' meaning depends on which bank is
// currently selected.
func (ctl *Controller) WriteRegister(addr uint32, value uint32) {
	v := uint8(value)
	switch addr & 3 {
	case 0:
		ctl.bankAddress = int(v & 3)
	case 1:
		switch ctl.bankAddress {
		case 0:
			ctl.writeCmd(v, false)
		case 1:
			// ATV2: right-CD-to-right-SPU volume, not modelled.
		case 2, 3:
			// ADPCTL / ATV2 echoes depending on firmware revision, not modelled.
		}
	case 2:
		switch ctl.bankAddress {
		case 0:
			ctl.pushParameter(v)
		case 1:
			ctl.hintmsk = v & 0x1f
			ctl.checkIRQ()
		default:
			// ATV0 / ATV3 volume registers, not modelled.
		}
	case 3:
		switch ctl.bankAddress {
		case 0:
			ctl.hchpctl = v
			if v&0x80 != 0 {
				ctl.parameterFIFO = ctl.parameterFIFO[:0]
			}
		case 1:
			ctl.ackIRQs(v & 0x1f)
			if v&0x40 != 0 {
				ctl.resultFIFO = ctl.resultFIFO[:0]
			}
		default:
			// ATV1 / ADPCTL apply-volume-changes register, not modelled.
		}
	}
}

// statusRegister assembles HSTS: the bank selector plus FIFO-state flags
// every command-submission protocol relies on to know when it may write
// the next parameter or command byte.
func (ctl *Controller) statusRegister() uint8 {
	stat := uint8(ctl.bankAddress) & 3
	if len(ctl.parameterFIFO) == 0 {
		stat |= 1 << 3 // parameter FIFO empty
	}
	if len(ctl.parameterFIFO) < parameterFIFOLen {
		stat |= 1 << 4 // parameter FIFO not full, ready to accept
	}
	if len(ctl.resultFIFO) > 0 {
		stat |= 1 << 5 // result FIFO not empty
	}
	if len(ctl.readBuffer) > 0 {
		stat |= 1 << 6 // data FIFO not empty
	}
	if ctl.busyStatus {
		stat |= 1 << 7 // command/parameter transmission busy
	}
	return stat
}

func (ctl *Controller) pushParameter(v uint8) {
	if len(ctl.parameterFIFO) >= parameterFIFOLen {
		logger.Logf("cdrom", "parameter FIFO overflow, dropping %02x", v)
		return
	}
	ctl.parameterFIFO = append(ctl.parameterFIFO, v)
}

func (ctl *Controller) popResult() uint8 {
	if len(ctl.resultFIFO) == 0 {
		return 0
	}
	v := ctl.resultFIFO[0]
	ctl.resultFIFO = ctl.resultFIFO[1:]
	return v
}

func (ctl *Controller) popReadData() uint8 {
	if len(ctl.readBuffer) == 0 {
		return 0
	}
	v := ctl.readBuffer[0]
	ctl.readBuffer = ctl.readBuffer[1:]
	return v
}

// Ready implements dma.Device: the read buffer always has a whole word
// ready once any bytes are in it, since readDataSector appends full
// sectors at a time.
func (ctl *Controller) Ready() bool {
	return len(ctl.readBuffer) >= 4
}

// Request implements dma.Device for slice-mode transfers between blocks.
func (ctl *Controller) Request() bool {
	return len(ctl.readBuffer) >= 4
}

// Write implements dma.Device. The CD-ROM's DMA channel only ever moves
// data device-to-RAM, so this side is never exercised by real firmware.
func (ctl *Controller) Write(word uint32) {
	logger.Logf("cdrom", "unexpected DMA write %08x to CD-ROM channel", word)
}

// Read implements dma.Device: pulls one little-endian word out of the
// read buffer for DMA channel 3 to deposit into RAM.
func (ctl *Controller) Read() uint32 {
	if len(ctl.readBuffer) < 4 {
		logger.Logf("cdrom", "DMA read with fewer than 4 bytes buffered")
		b := ctl.popReadData()
		return uint32(b)
	}
	w := uint32(ctl.readBuffer[0]) | uint32(ctl.readBuffer[1])<<8 | uint32(ctl.readBuffer[2])<<16 | uint32(ctl.readBuffer[3])<<24
	ctl.readBuffer = ctl.readBuffer[4:]
	return w
}
