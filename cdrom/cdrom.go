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

// Package cdrom implements the CD-ROM controller at 0x1f801800-0x1f801803:
// a register-bank-multiplexed MMIO window, 16-deep parameter/result FIFOs,
// a sector read buffer, and the command set (Nop, SetLoc, ReadN, Pause,
// Init, Demute, SetMode, GetTN, SeekL, Test, GetID) needed to boot and run
// commercial firmware and discs. Command processing is cycle-scheduled:
// each command queues its first response immediately and schedules an IRQ
// event a fixed delay later, with a second IRQ event (a command-specific
// or seek-distance-proportional delay further out) for commands that
// complete in two steps.
package cdrom

import (
	"github.com/gopsx/psx/clock"
	"github.com/gopsx/psx/interrupt"
	"github.com/gopsx/psx/logger"
)

const (
	firstResponseIRQDelay       = 0x20 // almost immediately
	getIDSecondResponseIRQDelay = 0x4a00
	initSecondResponseIRQDelay  = 0x13cce
	stdSecondResponseIRQDelay   = 0x4a73
)

// irqType is the 3-bit value the drive latches into HINTSTS's low bits.
// The hardware treats these as a single "interrupt type" rather than as
// independent flag bits.
type irqType uint8

const (
	irqNone       irqType = 0
	irq1DataReady irqType = 1
	irq2Complete  irqType = 2
	irq3Ack       irqType = 3
	irq5Error     irqType = 5
)

// errorCause is the second response byte sent alongside an INT5 error.
type errorCause uint8

const (
	errInvalidSubFunction      errorCause = 0x10
	errWrongNumberOfParameters errorCause = 0x20
	errInvalidCommand          errorCause = 0x40
	errCannotRespondYet        errorCause = 0x80
)

// driveState is the Play/Seek/Read/Idle status bits, mutually exclusive,
// reported in every stat byte.
type driveState uint8

const (
	stateIdle driveState = 0x00
	statePlay driveState = 0x80
	stateSeek driveState = 0x40
	stateRead driveState = 0x20
)

// speed is the SetMode bit-7 data rate: normal (1x, 75 sectors/s) or
// double (2x, 150 sectors/s).
type speed uint8

const (
	speedNormal speed = iota
	speedDouble
)

func (s speed) readSectorMs() uint64 {
	if s == speedDouble {
		return 1000 / 150
	}
	return 1000 / 75
}

// testVersion is the date/version quadruplet Test(20h) reports, matching
// a late PU-8 HC05 controller.
var testVersion = [4]byte{0x95, 0x07, 0x24, 0xc1}

const parameterFIFOLen = 16

// firstResponseStep is what a plain (no second response) scheduled IRQ
// does once its delay elapses.
type firstResponseStep struct {
	irq       irqType
	completed bool
}

// secondResponseStep models the two-stage "set IRQ, wait, resolve
// command" sequence a second-response command goes through. Phase 1 fires
// after the short first-response delay and sets the commanded IRQ; phase
// 2 fires secondDelay cycles after that and re-enters the command's
// handler with second_response semantics.
type secondResponseStep struct {
	phase       int
	irq         irqType
	cmd         uint8
	secondDelay uint64
}

// Controller is the CD-ROM block's full register and command-processing
// state.
type Controller struct {
	bankAddress int

	parameterFIFO []uint8
	resultFIFO    []uint8

	hintmsk uint8
	hintsts uint8

	int1Pending bool
	int2Pending bool

	state      driveState
	motorOn    bool
	shellOnce  bool
	busyStatus bool
	mode       uint8

	disc          *Disc
	pendingSetloc *DiscTime
	readBuffer    []uint8
	hchpctl       uint8

	pendingFirst  map[int]firstResponseStep
	pendingSecond map[int]secondResponseStep
	pendingSector map[int]uint8
	nextTagID     int

	clock *clock.Clock
	irqs  *interrupt.Collector
}

// New returns a Controller with no disc inserted.
func New(c *clock.Clock, irqs *interrupt.Collector) *Controller {
	ctl := &Controller{clock: c, irqs: irqs}
	ctl.Reset()
	return ctl
}

// Reset restores power-on register state; any inserted disc stays
// inserted, matching a soft reset rather than a tray-open event.
func (ctl *Controller) Reset() {
	ctl.bankAddress = 0
	ctl.parameterFIFO = ctl.parameterFIFO[:0]
	ctl.resultFIFO = ctl.resultFIFO[:0]
	ctl.hintmsk = 0
	ctl.hintsts = 0
	ctl.int1Pending = false
	ctl.int2Pending = false
	ctl.state = stateIdle
	ctl.motorOn = false
	ctl.shellOnce = false
	ctl.busyStatus = false
	ctl.mode = 0
	ctl.pendingSetloc = nil
	ctl.readBuffer = ctl.readBuffer[:0]
	ctl.hchpctl = 0
	ctl.pendingFirst = map[int]firstResponseStep{}
	ctl.pendingSecond = map[int]secondResponseStep{}
	ctl.pendingSector = map[int]uint8{}
	ctl.nextTagID = 0
	if ctl.clock != nil {
		ctl.clock.Cancel(clock.CDROMIRQ)
		ctl.clock.Cancel(clock.CDROMIRQSecondResponse)
		ctl.clock.Cancel(clock.CDROMNextSector)
	}
}

// InsertDisc mounts a loaded disc image.
func (ctl *Controller) InsertDisc(d *Disc) {
	ctl.disc = d
	logger.Logf("cdrom", "inserted disc %q", d.CueFileName())
}

func (ctl *Controller) isShellOpened() bool  { return false }
func (ctl *Controller) isDiscInserted() bool { return ctl.disc != nil }

func (ctl *Controller) activateMotor() { ctl.motorOn = true }

func (ctl *Controller) getSpeed() speed {
	if ctl.mode&0x80 != 0 {
		return speedDouble
	}
	return speedNormal
}

func (ctl *Controller) getSectorSize() TrackSectorDataSize {
	if ctl.mode&0x20 != 0 {
		return WholeSectorExceptSyncBytes
	}
	return DataOnly
}

// getStat assembles the one-byte status code every response begins with.
func (ctl *Controller) getStat(idError, seekError, errorBit bool) uint8 {
	stat := uint8(ctl.state)
	if ctl.shellOnce || ctl.isShellOpened() {
		stat |= 1 << 4
	}
	if idError {
		stat |= 1 << 3
	}
	if seekError {
		stat |= 1 << 2
	}
	if ctl.motorOn {
		stat |= 1 << 1
	}
	if errorBit {
		stat |= 1 << 0
	}
	return stat
}

// setIRQ latches a new interrupt type into HINTSTS, deferring it behind a
// pending flag if an earlier INT1/INT2 hasn't been acknowledged yet: the
// HC05 cannot hold more than one undelivered INT1 or INT2 at a time.
func (ctl *Controller) setIRQ(irq irqType) {
	current := irqType(ctl.hintsts & 7)
	switch {
	case irq == irq1DataReady && current == irq1DataReady:
		ctl.int1Pending = true
	case irq == irq2Complete && current == irq2Complete:
		ctl.int2Pending = true
	}
	ctl.hintsts = (ctl.hintsts &^ 7) | uint8(irq)
}

// ackIRQs clears the requested HINTSTS bits, then replays whichever
// INT1/INT2 had been queued behind the just-cleared latch.
func (ctl *Controller) ackIRQs(bits uint8) {
	ctl.hintsts = (ctl.hintsts &^ 7) | (ctl.hintsts & 7 &^ bits)
	switch {
	case ctl.int1Pending:
		ctl.int1Pending = false
		ctl.hintsts |= uint8(irq1DataReady)
	case ctl.int2Pending:
		ctl.int2Pending = false
		ctl.hintsts |= uint8(irq2Complete)
	}
}

func (ctl *Controller) checkIRQ() {
	if ctl.hintmsk&ctl.hintsts != 0 {
		ctl.irqs.Set(interrupt.CDROM)
	}
}

func (ctl *Controller) commandCompleted() {
	ctl.busyStatus = false
	ctl.state = stateIdle
}

func (ctl *Controller) newTagID() int {
	id := ctl.nextTagID
	ctl.nextTagID++
	return id
}

// scheduleIRQ queues response bytes immediately and arranges for a single
// IRQ to fire irqDelay cycles from now.
func (ctl *Controller) scheduleIRQ(irq irqType, bytes []uint8, irqDelay uint64, completed bool) {
	ctl.busyStatus = true
	tag := ctl.newTagID()
	ctl.pendingFirst[tag] = firstResponseStep{irq: irq, completed: completed}
	ctl.clock.Schedule(clock.CDROMIRQ, irqDelay, tag)
	ctl.resultFIFO = append(ctl.resultFIFO, bytes...)
}

// scheduleIRQWithSecondResponse is like scheduleIRQ but additionally
// arranges for cmdToComplete to be re-entered (with second-response
// semantics) secondDelay cycles after the first IRQ fires.
func (ctl *Controller) scheduleIRQWithSecondResponse(irq irqType, bytes []uint8, irqDelay uint64, cmdToComplete uint8, secondDelay uint64) {
	ctl.busyStatus = true
	tag := ctl.newTagID()
	ctl.pendingSecond[tag] = secondResponseStep{phase: 1, irq: irq, cmd: cmdToComplete, secondDelay: secondDelay}
	ctl.clock.Schedule(clock.CDROMIRQSecondResponse, irqDelay, tag)
	ctl.resultFIFO = append(ctl.resultFIFO, bytes...)
}

func (ctl *Controller) raiseInvalidParametersError() {
	ctl.scheduleIRQ(irq5Error, []uint8{ctl.getStat(false, false, true), uint8(errInvalidCommand)}, firstResponseIRQDelay, true)
}

func (ctl *Controller) raiseWrongNumberOfParametersError() {
	ctl.scheduleIRQ(irq5Error, []uint8{ctl.getStat(false, false, true), uint8(errWrongNumberOfParameters)}, firstResponseIRQDelay, true)
}

func (ctl *Controller) return1stResponseStat() {
	ctl.scheduleIRQ(irq3Ack, []uint8{ctl.getStat(false, false, false)}, firstResponseIRQDelay, true)
}

func (ctl *Controller) return2ndResponseStat() {
	ctl.scheduleIRQ(irq2Complete, []uint8{ctl.getStat(false, false, false)}, firstResponseIRQDelay, true)
}

func (ctl *Controller) returnDataReadyResponseStat(cmd uint8) {
	ctl.scheduleIRQ(irq1DataReady, []uint8{ctl.getStat(false, false, false)}, firstResponseIRQDelay, false)
	tag := ctl.newTagID()
	ctl.pendingSector[tag] = cmd
	ms := ctl.getSpeed().readSectorMs()
	ctl.clock.Schedule(clock.CDROMNextSector, cyclesPerMs(ms), tag)
}

// cyclesPerMs converts a millisecond duration to CPU cycles at the
// nominal PSX system clock (33.8688MHz).
func cyclesPerMs(ms uint64) uint64 {
	return ms * 33868800 / 1000
}

func (ctl *Controller) readDataSector() {
	sectorSize := ctl.getSectorSize()
	if ctl.disc == nil {
		return
	}
	sector, ok := ctl.disc.ReadSector()
	if !ok {
		logger.Logf("cdrom", "read_data_sector at %s failed", ctl.disc.HeadPosition())
		return
	}
	ctl.readBuffer = append(ctl.readBuffer, sector.UserData(sectorSize)...)
	ctl.disc.AdvanceSector()
}

func (ctl *Controller) getApproxSeekCycles(from, target DiscTime) uint64 {
	fromLBA, targetLBA := int64(from.ToLBA()), int64(target.ToLBA())
	distance := targetLBA - fromLBA
	if distance < 0 {
		distance = -distance
	}
	seekMs := uint64(600*distance) / (75 * 60 * 80)
	cycles := cyclesPerMs(seekMs)
	if cycles < 1000 {
		return 1000
	}
	return cycles
}

// OnIRQEvent resolves a CDROMIRQ event: set the latched IRQ, notify, and
// finish the command if this was its last response.
func (ctl *Controller) OnIRQEvent(tag int) {
	step, ok := ctl.pendingFirst[tag]
	if !ok {
		return
	}
	delete(ctl.pendingFirst, tag)
	ctl.setIRQ(step.irq)
	ctl.checkIRQ()
	if step.completed {
		ctl.commandCompleted()
	}
}

// OnIRQSecondResponseEvent resolves one phase of a two-stage command: the
// first phase latches the IRQ and reschedules the resolution after the
// command-specific delay; the second phase re-enters the command handler
// with second-response semantics.
func (ctl *Controller) OnIRQSecondResponseEvent(tag int) {
	step, ok := ctl.pendingSecond[tag]
	if !ok {
		return
	}
	delete(ctl.pendingSecond, tag)

	if step.phase == 1 {
		ctl.setIRQ(step.irq)
		ctl.checkIRQ()
		next := ctl.newTagID()
		ctl.pendingSecond[next] = secondResponseStep{phase: 2, cmd: step.cmd}
		ctl.clock.Schedule(clock.CDROMIRQSecondResponse, step.secondDelay, next)
		return
	}
	ctl.writeCmd(step.cmd, true)
}

// OnNextSectorEvent resolves a CDROMNextSector event: re-enter ReadN to
// deliver the next buffered sector and reschedule the following one.
func (ctl *Controller) OnNextSectorEvent(tag int) {
	cmd, ok := ctl.pendingSector[tag]
	if !ok {
		return
	}
	delete(ctl.pendingSector, tag)
	ctl.writeCmd(cmd, false)
}

// OnEvent routes a due clock event to the matching resolver by its type,
// giving a single entry point the main step loop can call without caring
// which of the three CD-ROM event kinds fired.
func (ctl *Controller) OnEvent(e clock.Event) {
	switch e.Type {
	case clock.CDROMIRQ:
		ctl.OnIRQEvent(e.Tag)
	case clock.CDROMIRQSecondResponse:
		ctl.OnIRQSecondResponseEvent(e.Tag)
	case clock.CDROMNextSector:
		ctl.OnNextSectorEvent(e.Tag)
	}
}

// writeCmd dispatches a command byte to its handler. secondResponse is
// true when this call is the continuation of a two-stage command rather
// than the command's initial invocation.
func (ctl *Controller) writeCmd(value uint8, secondResponse bool) {
	if secondResponse {
		logger.Logf("cdrom", "completing second response of command %02x", value)
	} else {
		logger.Logf("cdrom", "sending command %02x", value)
		ctl.resultFIFO = ctl.resultFIFO[:0]
	}

	switch value {
	case 0x01:
		ctl.commandNop()
	case 0x02:
		ctl.commandSetloc()
	case 0x06:
		ctl.commandReadN(secondResponse)
	case 0x09:
		ctl.commandPause(secondResponse)
	case 0x0a:
		ctl.commandInit(secondResponse)
	case 0x0c:
		ctl.commandDemute()
	case 0x0e:
		ctl.commandSetMode()
	case 0x13:
		ctl.commandGetTN()
	case 0x15:
		ctl.commandSeekL(secondResponse)
	case 0x19:
		ctl.commandTest()
	case 0x1a:
		ctl.commandGetID(secondResponse)
	default:
		logger.Logf("cdrom", "unknown command %02x", value)
		ctl.scheduleIRQ(irq5Error, []uint8{ctl.getStat(false, false, true), uint8(errInvalidCommand)}, firstResponseIRQDelay, true)
	}
}
