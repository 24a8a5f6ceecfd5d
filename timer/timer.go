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

// Package timer implements the three hardware counters at
// 0x1f801100-0x1f80112f: their clock source selection, blank-relative sync
// modes, and target/overflow IRQ conditions. Counters driven by the system
// clock are computed lazily from elapsed cycles rather than incremented one
// tick at a time; counters driven by the video blanking signal are advanced
// explicitly by the GPU side calling NotifyHBlank/NotifyVBlankStart/
// NotifyVBlankEnd.
package timer

import (
	"github.com/gopsx/psx/clock"
	"github.com/gopsx/psx/interrupt"
)

// ClockSource is one counter's tick source, meaning depends on which of the
// three timers it is configured on.
type ClockSource uint8

const (
	SystemClock ClockSource = iota
	DotClock
	HBlank
	SystemClockDiv8
)

// SyncMode is the blank-relative gating behaviour selected by bits 1-2 of a
// counter's mode register. Not every value is reachable by every timer; see
// clockSourceForMode/syncModeForMode.
type SyncMode uint8

const (
	NoSync SyncMode = iota
	PauseDuringBlank
	ResetToZeroAtBlank
	ResetToZeroAtBlankPauseOutside
	PauseUntilBlankThenFreeRun
	StopAtCurrentValue // timer 2 only
	FreeRunIgnoreSync  // timer 2 only
)

// IRQRepeatMode selects whether an IRQ condition fires once or every time it
// recurs.
type IRQRepeatMode uint8

const (
	OneShot IRQRepeatMode = iota
	Repeatedly
)

// IRQPulseMode selects the shape of the IRQ line's assertion.
type IRQPulseMode uint8

const (
	Pulse IRQPulseMode = iota
	Toggle
)

const counterMax = 0xffff

// Mode register bit layout (0x1f801X04).
const (
	modeSyncEnable    = 1 << 0
	modeSyncModeShift = 1
	modeSyncModeMask  = 0x3 << modeSyncModeShift
	modeResetAtTarget = 1 << 3
	modeIRQAtTarget   = 1 << 4
	modeIRQAtFFFF     = 1 << 5
	modeIRQRepeat     = 1 << 6
	modeIRQPulse      = 1 << 7
	modeClockSrcShift = 8
	modeClockSrcMask  = 0x3 << modeClockSrcShift
	modeIRQLineClear  = 1 << 10 // inverted: 0 = IRQ requested, 1 = idle
	modeReachedTarget = 1 << 11
	modeReachedFFFF   = 1 << 12
)

var expiryEvent = [3]clock.EventType{clock.Timer0Expiry, clock.Timer1Expiry, clock.Timer2Expiry}
var irqSource = [3]interrupt.Source{interrupt.Timer0, interrupt.Timer1, interrupt.Timer2}

// Timer is one of the three hardware counters.
type Timer struct {
	index int

	target uint16

	syncEnabled bool
	syncMode    SyncMode
	resetAtFFFF bool // true: overflow wraps at 0xffff; false: wraps at target
	irqAtTarget bool
	irqAtFFFF   bool
	repeatMode  IRQRepeatMode
	pulseMode   IRQPulseMode
	clockSource ClockSource

	reachedTarget bool
	reachedFFFF   bool
	irqLineClear  bool // mirrors bit 10's read value
	oneShotFired  bool

	paused      bool
	insideBlank bool

	baseCounter uint16 // counter value as of baseTime
	baseTime    uint64 // clock.Now() when baseCounter was last valid

	dotClockDivider uint64
}

// Controller owns the three timers, the clock they schedule expiry events
// on, and the collector their IRQ conditions are reported through.
type Controller struct {
	timers [3]Timer
	clock  *clock.Clock
	irqs   *interrupt.Collector
}

// New creates a Controller with every timer in its power-on state: sync
// disabled (free-running), system clock source, one-shot/pulse IRQ mode.
func New(c *clock.Clock, irqs *interrupt.Collector) *Controller {
	ctl := &Controller{clock: c, irqs: irqs}
	for i := range ctl.timers {
		ctl.timers[i] = Timer{index: i, irqLineClear: true, dotClockDivider: 8, resetAtFFFF: true}
	}
	return ctl
}

// Reset returns every timer to its power-on state.
func (ctl *Controller) Reset() {
	for i := range ctl.timers {
		ctl.timers[i] = Timer{index: i, irqLineClear: true, dotClockDivider: 8, resetAtFFFF: true}
	}
	ctl.clock.Cancel(clock.Timer0Expiry)
	ctl.clock.Cancel(clock.Timer1Expiry)
	ctl.clock.Cancel(clock.Timer2Expiry)
}

func clockSourceForMode(index int, mode uint16) ClockSource {
	bits := (mode & modeClockSrcMask) >> modeClockSrcShift
	switch index {
	case 0:
		if bits&1 != 0 {
			return DotClock
		}
		return SystemClock
	case 1:
		if bits&1 != 0 {
			return HBlank
		}
		return SystemClock
	default: // timer 2
		if bits&2 != 0 {
			return SystemClockDiv8
		}
		return SystemClock
	}
}

func syncModeForMode(index int, mode uint16) SyncMode {
	bits := (mode & modeSyncModeMask) >> modeSyncModeShift
	if index == 2 {
		if bits == 0 || bits == 3 {
			return StopAtCurrentValue
		}
		return FreeRunIgnoreSync
	}
	return SyncMode(1 + bits) // PauseDuringBlank..PauseUntilBlankThenFreeRun
}

// elapsedTicks converts a span of CPU clock cycles into counter increments
// for the given clock source.
func (t *Timer) elapsedTicks(cpuCycles uint64) uint64 {
	switch t.clockSource {
	case SystemClockDiv8:
		return cpuCycles / 8
	case DotClock:
		return cpuCycles / t.dotClockDivider
	default: // SystemClock; HBlank-sourced timers are advanced explicitly
		return cpuCycles
	}
}

// resync folds elapsed system-clock-domain ticks into baseCounter and
// advances baseTime to now, firing any IRQ condition crossed in the
// process. Returns the pre-wrap running total, or 0 if nothing elapsed.
func (ctl *Controller) resync(t *Timer) uint64 {
	now := ctl.clock.Now()
	if t.paused || t.clockSource == HBlank {
		t.baseTime = now
		return 0
	}
	delta := now - t.baseTime
	ticks := t.elapsedTicks(delta)
	t.baseTime = now
	if ticks == 0 {
		return 0
	}
	prev := t.baseCounter
	wrap := uint64(counterMax) + 1
	if !t.resetAtFFFF {
		wrap = uint64(t.target) + 1
		if wrap == 0 {
			wrap = uint64(counterMax) + 1
		}
	}
	total := uint64(prev) + ticks
	t.baseCounter = uint16(total % wrap)
	ctl.checkCrossing(t, prev, total)
	ctl.scheduleNextExpiry(t)
	return total
}

// scheduleNextExpiry pushes a clock event for the next cycle at which this
// timer's counter will cross an IRQ-enabled boundary, so the console's
// event loop can wake exactly on overflow even if nothing else polls the
// counter in the meantime. HBlank-sourced and fully paused timers schedule
// nothing, since they only move on an explicit Notify call.
func (ctl *Controller) scheduleNextExpiry(t *Timer) {
	ctl.clock.Cancel(expiryEvent[t.index])
	if t.paused || t.clockSource == HBlank {
		return
	}
	var ticksToBoundary uint64
	if t.irqAtTarget && t.target != 0 && uint64(t.target) > uint64(t.baseCounter) {
		ticksToBoundary = uint64(t.target) - uint64(t.baseCounter)
	}
	if t.irqAtFFFF {
		ffff := uint64(counterMax) + 1 - uint64(t.baseCounter)
		if ticksToBoundary == 0 || ffff < ticksToBoundary {
			ticksToBoundary = ffff
		}
	}
	if ticksToBoundary == 0 {
		return
	}
	cyclesPerTick := uint64(1)
	switch t.clockSource {
	case SystemClockDiv8:
		cyclesPerTick = 8
	case DotClock:
		cyclesPerTick = t.dotClockDivider
	}
	ctl.clock.Schedule(expiryEvent[t.index], ticksToBoundary*cyclesPerTick, 0)
}

// Counter returns the current 16-bit counter value.
func (ctl *Controller) Counter(index int) uint16 {
	t := &ctl.timers[index]
	ctl.resync(t)
	return t.baseCounter
}

// Advance is called once per CPU step with the number of cycles elapsed;
// it folds system-clock-domain timers forward, firing any IRQ conditions
// crossed in the process. HBlank-sourced timers are unaffected; they move
// only via NotifyHBlank.
func (ctl *Controller) Advance(cpuCycles uint64) {
	for i := range ctl.timers {
		t := &ctl.timers[i]
		if t.clockSource == HBlank {
			continue
		}
		ctl.resync(t)
	}
}

// checkCrossing evaluates whether advancing from prev by a running total
// (pre-wrap) of total ticks crossed the target or 0xffff boundary, and
// raises an IRQ if so configured.
func (ctl *Controller) checkCrossing(t *Timer, prev uint16, total uint64) {
	crossedTarget := t.target != 0 && total >= uint64(t.target) && uint64(prev) < uint64(t.target)
	crossedFFFF := total >= uint64(counterMax)+1
	if crossedTarget {
		t.reachedTarget = true
	}
	if crossedFFFF {
		t.reachedFFFF = true
	}
	fireTarget := crossedTarget && t.irqAtTarget
	fireFFFF := crossedFFFF && t.irqAtFFFF
	if fireTarget || fireFFFF {
		ctl.fireIRQ(t)
	}
}

func (ctl *Controller) fireIRQ(t *Timer) {
	if t.repeatMode == OneShot && t.oneShotFired {
		return
	}
	t.oneShotFired = true
	if t.pulseMode == Toggle && !t.irqLineClear {
		// Toggle mode flips the line on every IRQ condition: one that
		// finds it asserted releases it and raises no new request. In
		// both modes a mode-register read also releases the line (see
		// ReadRegister).
		t.irqLineClear = true
		return
	}
	t.irqLineClear = false
	ctl.irqs.Set(irqSource[t.index])
}

// NotifyHBlank is called by the GPU side each time horizontal blanking
// begins. Timer 1 is the only counter whose clock source can be HBlank, and
// timers 0/1's sync modes gate on blank transitions.
func (ctl *Controller) NotifyHBlank() {
	t := &ctl.timers[1]
	if t.clockSource == HBlank {
		ctl.tickHBlankDriven(t)
	}
}

func (ctl *Controller) tickHBlankDriven(t *Timer) {
	if t.paused {
		return
	}
	wrap := uint64(counterMax) + 1
	if !t.resetAtFFFF {
		wrap = uint64(t.target) + 1
		if wrap == 0 {
			wrap = uint64(counterMax) + 1
		}
	}
	prev := t.baseCounter
	total := uint64(prev) + 1
	t.baseCounter = uint16(total % wrap)
	ctl.checkCrossing(t, prev, total)
}

// NotifyVBlankStart/NotifyVBlankEnd apply the sync-mode gating documented
// for timers 0 and 1 (timer 0 syncs on HBlank in real hardware; gopsx
// exposes both hooks on Controller so the GPU can drive whichever boundary
// a given timer's sync mode cares about without the timer package knowing
// about scanout timing).
func (ctl *Controller) NotifyVBlankStart() { ctl.enterBlank(1) }
func (ctl *Controller) NotifyVBlankEnd()   { ctl.exitBlank(1) }
func (ctl *Controller) NotifyHBlankStart() { ctl.enterBlank(0) }
func (ctl *Controller) NotifyHBlankEnd()   { ctl.exitBlank(0) }

func (ctl *Controller) enterBlank(index int) {
	t := &ctl.timers[index]
	if !t.syncEnabled {
		t.insideBlank = true
		return
	}
	t.insideBlank = true
	switch t.syncMode {
	case PauseDuringBlank:
		ctl.resync(t)
		t.paused = true
	case ResetToZeroAtBlank:
		ctl.resync(t)
		t.baseCounter = 0
	case ResetToZeroAtBlankPauseOutside:
		ctl.resync(t)
		t.baseCounter = 0
		t.paused = false
	case PauseUntilBlankThenFreeRun:
		t.paused = false
		t.syncEnabled = false // once unpaused it free-runs for good
	}
}

func (ctl *Controller) exitBlank(index int) {
	t := &ctl.timers[index]
	t.insideBlank = false
	if !t.syncEnabled {
		return
	}
	switch t.syncMode {
	case PauseDuringBlank:
		ctl.resync(t)
		t.paused = false
	case ResetToZeroAtBlankPauseOutside:
		ctl.resync(t)
		t.paused = true
	}
}

// ReadRegister implements bus.Peripheral for the 0x1f801100-0x1f80112f
// window.
func (ctl *Controller) ReadRegister(addr uint32) uint32 {
	index, reg := decodeAddr(addr)
	t := &ctl.timers[index]
	switch reg {
	case 0x0:
		return uint32(ctl.Counter(index))
	case 0x4:
		v := ctl.modeBits(t)
		// Reading the mode register clears the latched reached-target/
		// reached-FFFF flags and clears the IRQ line.
		t.reachedTarget = false
		t.reachedFFFF = false
		t.irqLineClear = true
		return v
	case 0x8:
		return uint32(t.target)
	default:
		return 0
	}
}

// WriteRegister implements bus.Peripheral.
func (ctl *Controller) WriteRegister(addr uint32, v uint32) {
	index, reg := decodeAddr(addr)
	t := &ctl.timers[index]
	switch reg {
	case 0x0:
		ctl.resync(t)
		t.baseCounter = uint16(v)
	case 0x4:
		ctl.resync(t)
		mode := uint16(v)
		t.syncEnabled = mode&modeSyncEnable != 0
		t.syncMode = syncModeForMode(index, mode)
		t.resetAtFFFF = mode&modeResetAtTarget == 0
		t.irqAtTarget = mode&modeIRQAtTarget != 0
		t.irqAtFFFF = mode&modeIRQAtFFFF != 0
		if mode&modeIRQRepeat != 0 {
			t.repeatMode = Repeatedly
		} else {
			t.repeatMode = OneShot
		}
		if mode&modeIRQPulse != 0 {
			t.pulseMode = Toggle
		} else {
			t.pulseMode = Pulse
		}
		t.clockSource = clockSourceForMode(index, mode)
		t.baseCounter = 0
		t.oneShotFired = false
		t.irqLineClear = true
		t.reachedTarget = false
		t.reachedFFFF = false
		switch {
		case !t.syncEnabled:
			t.paused = false
		case t.syncMode == PauseDuringBlank || t.syncMode == ResetToZeroAtBlankPauseOutside:
			t.paused = t.insideBlank
		case t.syncMode == PauseUntilBlankThenFreeRun:
			t.paused = true
		default:
			t.paused = false
		}
		ctl.scheduleNextExpiry(t)
	case 0x8:
		ctl.resync(t)
		t.target = uint16(v)
		ctl.scheduleNextExpiry(t)
	}
}

func (ctl *Controller) modeBits(t *Timer) uint32 {
	var v uint16
	if t.syncEnabled {
		v |= modeSyncEnable
	}
	v |= syncModeBits(t.index, t.syncMode) << modeSyncModeShift
	if !t.resetAtFFFF {
		v |= modeResetAtTarget
	}
	if t.irqAtTarget {
		v |= modeIRQAtTarget
	}
	if t.irqAtFFFF {
		v |= modeIRQAtFFFF
	}
	if t.repeatMode == Repeatedly {
		v |= modeIRQRepeat
	}
	if t.pulseMode == Toggle {
		v |= modeIRQPulse
	}
	v |= clockSourceBits(t.index, t.clockSource) << modeClockSrcShift
	if t.irqLineClear {
		v |= modeIRQLineClear
	}
	if t.reachedTarget {
		v |= modeReachedTarget
	}
	if t.reachedFFFF {
		v |= modeReachedFFFF
	}
	return uint32(v)
}

func syncModeBits(index int, m SyncMode) uint16 {
	if index == 2 {
		if m == StopAtCurrentValue {
			return 0
		}
		return 1
	}
	return uint16(m - 1)
}

func clockSourceBits(index int, c ClockSource) uint16 {
	switch index {
	case 0:
		if c == DotClock {
			return 1
		}
		return 0
	case 1:
		if c == HBlank {
			return 1
		}
		return 0
	default:
		if c == SystemClockDiv8 {
			return 2
		}
		return 0
	}
}

func decodeAddr(addr uint32) (index int, reg uint32) {
	off := addr - 0x1f801100
	return int(off / 0x10), off % 0x10
}
