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
	"github.com/gopsx/psx/clock"
	"github.com/gopsx/psx/logger"
)

// cancelPendingCommandEvents cancels every outstanding clock event owned by
// the controller and clears their lookup tables, used when a command
// (Pause, Init) aborts whatever was in flight.
func (ctl *Controller) cancelPendingCommandEvents() {
	ctl.clock.Cancel(clock.CDROMIRQ)
	ctl.clock.Cancel(clock.CDROMIRQSecondResponse)
	ctl.clock.Cancel(clock.CDROMNextSector)
	ctl.pendingFirst = map[int]firstResponseStep{}
	ctl.pendingSecond = map[int]secondResponseStep{}
	ctl.pendingSector = map[int]uint8{}
}

// commandNop - 01h --> INT3(stat). Closing the shell clears the
// once-opened sticky bit, matching the real drive's behaviour on any Nop
// issued after the lid has been shut again.
func (ctl *Controller) commandNop() {
	if len(ctl.parameterFIFO) > 0 {
		ctl.raiseWrongNumberOfParametersError()
		return
	}
	ctl.return1stResponseStat()
	if !ctl.isShellOpened() {
		ctl.shellOnce = false
	}
}

// commandSetloc - 02h,mm,ss,ff --> INT3(stat). Parameters are BCD; the
// seek itself doesn't happen until the next ReadN/SeekL consumes
// pendingSetloc.
func (ctl *Controller) commandSetloc() {
	if len(ctl.parameterFIFO) != 3 {
		ctl.raiseWrongNumberOfParametersError()
		return
	}
	m := BCDDecode(ctl.popParameter())
	s := BCDDecode(ctl.popParameter())
	f := BCDDecode(ctl.popParameter())

	if loc, ok := NewDiscTimeChecked(m, s, f); ok {
		ctl.pendingSetloc = &loc
		ctl.return1stResponseStat()
	} else {
		ctl.raiseInvalidParametersError()
	}
}

func (ctl *Controller) popParameter() uint8 {
	if len(ctl.parameterFIFO) == 0 {
		return 0
	}
	v := ctl.parameterFIFO[0]
	ctl.parameterFIFO = ctl.parameterFIFO[1:]
	return v
}

// commandReadN - 06h --> INT3(stat) --> INT1(stat) --> datablock, then
// repeats INT1/datablock every sector at the configured speed until
// interrupted by Pause.
func (ctl *Controller) commandReadN(secondResponse bool) {
	if secondResponse || ctl.state == stateRead {
		if ctl.disc == nil {
			return
		}
		if ctl.pendingSetloc != nil {
			ctl.disc.SeekSector(*ctl.pendingSetloc)
			ctl.pendingSetloc = nil
		}
		ctl.readDataSector()
		ctl.returnDataReadyResponseStat(0x06)
		return
	}

	if !ctl.isDiscInserted() {
		ctl.scheduleIRQ(irq5Error, []uint8{ctl.getStat(false, false, true), uint8(errCannotRespondYet)}, firstResponseIRQDelay, true)
		return
	}
	ctl.state = stateRead
	stat := ctl.getStat(false, false, false)
	readSectorCycles := cyclesPerMs(ctl.getSpeed().readSectorMs())
	ctl.scheduleIRQWithSecondResponse(irq3Ack, []uint8{stat}, firstResponseIRQDelay, 0x06, readSectorCycles)
}

// commandPause - 09h --> INT3(stat) --> INT2(stat). Cancels any
// in-flight read/seek scheduling on completion.
func (ctl *Controller) commandPause(secondResponse bool) {
	if secondResponse {
		ctl.cancelPendingCommandEvents()
		ctl.commandCompleted()
		ctl.return2ndResponseStat()
		return
	}
	if len(ctl.parameterFIFO) != 0 {
		ctl.raiseWrongNumberOfParametersError()
		return
	}
	stat := ctl.getStat(false, false, false)
	ctl.scheduleIRQWithSecondResponse(irq3Ack, []uint8{stat}, firstResponseIRQDelay, 0x09, stdSecondResponseIRQDelay)
}

// commandInit - 0Ah --> INT3(stat) --> INT2(stat), resets mode to
// 20h, spins up the motor, and aborts any command in progress.
func (ctl *Controller) commandInit(secondResponse bool) {
	if secondResponse {
		ctl.state = stateIdle
		ctl.pendingSetloc = nil
		ctl.mode = 0x20
		ctl.activateMotor()
		ctl.cancelPendingCommandEvents()
		ctl.return2ndResponseStat()
		return
	}
	if len(ctl.parameterFIFO) > 0 {
		ctl.raiseWrongNumberOfParametersError()
		return
	}
	stat := ctl.getStat(false, false, false)
	ctl.scheduleIRQWithSecondResponse(irq3Ack, []uint8{stat}, firstResponseIRQDelay, 0x0a, initSecondResponseIRQDelay)
}

// commandDemute - 0Ch --> INT3(stat). Audio output muting isn't modelled,
// so this is a pure stat acknowledgement.
func (ctl *Controller) commandDemute() {
	if len(ctl.parameterFIFO) != 0 {
		ctl.raiseWrongNumberOfParametersError()
		return
	}
	ctl.return1stResponseStat()
}

// commandSetMode - 0Eh,mode --> INT3(stat).
func (ctl *Controller) commandSetMode() {
	if len(ctl.parameterFIFO) != 1 {
		ctl.raiseWrongNumberOfParametersError()
		return
	}
	ctl.mode = ctl.popParameter()
	logger.Logf("cdrom", "set mode to %02x, speed=%v sector size=%v", ctl.mode, ctl.getSpeed(), ctl.getSectorSize())
	ctl.return1stResponseStat()
}

// commandGetTN - 13h --> INT3(stat,first,last) BCD-encoded.
func (ctl *Controller) commandGetTN() {
	if len(ctl.parameterFIFO) > 0 {
		ctl.raiseWrongNumberOfParametersError()
		return
	}
	if ctl.disc == nil {
		stat := ctl.getStat(false, false, true)
		ctl.scheduleIRQ(irq5Error, []uint8{stat, uint8(errCannotRespondYet)}, firstResponseIRQDelay, true)
		return
	}
	tracks := ctl.disc.Tracks()
	first := tracks[0].Number()
	last := tracks[len(tracks)-1].Number()
	stat := ctl.getStat(false, false, false)
	ctl.scheduleIRQ(irq3Ack, []uint8{stat, BCDEncode(first), BCDEncode(last)}, firstResponseIRQDelay, true)
}

// commandSeekL - 15h --> INT3(stat) --> INT2(stat). The second response's
// delay is proportional to the seek distance in sectors.
func (ctl *Controller) commandSeekL(secondResponse bool) {
	if secondResponse {
		if ctl.disc != nil && ctl.pendingSetloc != nil {
			ctl.disc.SeekSector(*ctl.pendingSetloc)
			ctl.pendingSetloc = nil
		}
		stat := ctl.getStat(false, false, false)
		ctl.scheduleIRQ(irq2Complete, []uint8{stat}, firstResponseIRQDelay, true)
		ctl.state = stateIdle
		return
	}
	if len(ctl.parameterFIFO) > 0 {
		ctl.raiseWrongNumberOfParametersError()
		return
	}
	ctl.state = stateSeek
	var seekCycles uint64 = stdSecondResponseIRQDelay
	if ctl.disc != nil && ctl.pendingSetloc != nil {
		seekCycles = ctl.getApproxSeekCycles(ctl.disc.HeadPosition(), *ctl.pendingSetloc)
	}
	stat := ctl.getStat(false, false, false)
	ctl.scheduleIRQWithSecondResponse(irq3Ack, []uint8{stat}, firstResponseIRQDelay, 0x15, seekCycles)
}

// commandTest - 19h,sub. Only sub-function 20h (read firmware
// date/version) is implemented; everything else reports an invalid
// sub-function error, matching what real firmware actually probes for.
func (ctl *Controller) commandTest() {
	if len(ctl.parameterFIFO) != 1 {
		ctl.raiseWrongNumberOfParametersError()
		return
	}
	sub := ctl.popParameter()
	switch sub {
	case 0x20:
		ctl.scheduleIRQ(irq3Ack, testVersion[:], firstResponseIRQDelay, true)
	default:
		logger.Logf("cdrom", "unsupported test sub-function %02x", sub)
		ctl.scheduleIRQ(irq5Error, []uint8{ctl.getStat(false, false, true), uint8(errInvalidSubFunction)}, firstResponseIRQDelay, true)
	}
}

// commandGetID - 1Ah --> INT3(stat) --> INT2/INT5. Reports disc presence,
// licensing, and region, following the documented drive-status table.
func (ctl *Controller) commandGetID(secondResponse bool) {
	if secondResponse {
		switch {
		case ctl.isShellOpened() || ctl.motorOn:
			ctl.scheduleIRQ(irq5Error, []uint8{ctl.getStat(false, false, true), uint8(errCannotRespondYet)}, firstResponseIRQDelay, true)
		case ctl.disc != nil && ctl.disc.IsAudioCD():
			ctl.scheduleIRQ(irq5Error, []uint8{ctl.getStat(true, false, true), uint8(errInvalidCommand)}, firstResponseIRQDelay, true)
		case ctl.disc != nil:
			tracks := ctl.disc.Tracks()
			mode := uint8(0x00)
			if tracks[0].Type().Mode == 2 {
				mode = 0x20
			}
			region, ok := ctl.disc.Region()
			letter := RegionUSA.sceeLetter()
			if ok {
				letter = region.sceeLetter()
			}
			ctl.scheduleIRQ(irq2Complete, []uint8{ctl.getStat(false, false, false), 0x00, mode, 0x00, 'S', 'C', 'E', letter}, firstResponseIRQDelay, true)
		default:
			ctl.scheduleIRQ(irq5Error, []uint8{ctl.getStat(true, false, false), uint8(errInvalidCommand)}, firstResponseIRQDelay, true)
		}
		return
	}

	if len(ctl.parameterFIFO) > 0 {
		ctl.raiseWrongNumberOfParametersError()
		return
	}
	if ctl.isShellOpened() || ctl.motorOn || ctl.busyStatus {
		ctl.scheduleIRQ(irq5Error, []uint8{ctl.getStat(false, false, true), uint8(errCannotRespondYet)}, firstResponseIRQDelay, true)
		return
	}
	stat := ctl.getStat(false, false, false)
	ctl.scheduleIRQWithSecondResponse(irq3Ack, []uint8{stat}, firstResponseIRQDelay, 0x1a, getIDSecondResponseIRQDelay)
}
