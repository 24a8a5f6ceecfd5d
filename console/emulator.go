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

// Package console wires every subsystem (bus, CPU, DMA, GPU, timers, SIO,
// CD-ROM, the interrupt controller, and the master clock) into a single
// steppable Emulator, and implements the BIOS-call/executable-loading
// surface a front-end (debugger, CLI, test harness) drives it through.
//
// The per-step loop shape follows the classic emulator-core pattern: execute
// one CPU instruction, advance the clock, tick DMA, forward raised
// interrupts into the controller, then drain and dispatch any events the
// clock's advance made due, forwarding interrupts again after each.
package console

import (
	"fmt"

	"github.com/gopsx/psx/cdrom"
	"github.com/gopsx/psx/clock"
	"github.com/gopsx/psx/config"
	"github.com/gopsx/psx/cpu"
	"github.com/gopsx/psx/gpu"
	"github.com/gopsx/psx/interrupt"
	"github.com/gopsx/psx/loader"
	"github.com/gopsx/psx/memory/bus"
	"github.com/gopsx/psx/memory/dma"
	"github.com/gopsx/psx/sio"
	"github.com/gopsx/psx/timer"
)

// ntscGPUClockRatio/palGPUClockRatio convert the GPU's pixel clock into
// CPU cycles for clock.ScheduleScaled, matching the real console's fixed
// CPU:GPU clock relationship for each region.
const (
	ntscGPUClockRatio = 1.585
	palGPUClockRatio  = 1.571
)

// biosACallVector is the address the BIOS's A-table trampoline jumps
// through; function number arrives in register 9 ($t1) by convention.
const biosACallVector = 0xa0

// biosTTYPutcharFunction is A-table entry 3Ch, "putchar".
const biosTTYPutcharFunction = 0x3c

const (
	regFunctionNumber = 9  // $t1
	regArg0           = 4  // $a0
	regReturnAddr     = 31 // $ra
)

// Emulator owns every subsystem and drives them through Step.
type Emulator struct {
	cfg config.Config

	Bus       *bus.Bus
	CPU       *cpu.CPU
	Clock     *clock.Clock
	Interrupt *interrupt.Controller
	DMA       *dma.Controller
	GPU       *gpu.GPU
	Timers    *timer.Controller
	SIO       *sio.Controller
	CDROM     *cdrom.Controller

	irqs *interrupt.Collector

	ttyLines   [][]byte
	ttyCurrent []byte

	throttle *throttle
}

// New builds a fully-wired Emulator: every peripheral is constructed,
// registered onto the bus at its MMIO window, and the GPU's region is set
// from cfg. The BIOS and any executable are loaded separately, via
// LoadBIOS/LoadExecutable.
func New(cfg config.Config, present gpu.Presenter) *Emulator {
	e := &Emulator{cfg: cfg}

	gpuRatio := ntscGPUClockRatio
	if cfg.Region == config.RegionPAL {
		gpuRatio = palGPUClockRatio
	}

	e.Clock = clock.New(gpuRatio)
	e.Bus = bus.New()
	e.Interrupt = interrupt.New()
	e.irqs = &interrupt.Collector{}

	e.Timers = timer.New(e.Clock, e.irqs)
	e.SIO = sio.New(e.Clock, e.irqs)
	e.CDROM = cdrom.New(e.Clock, e.irqs)
	e.GPU = gpu.New(e.Clock, e.irqs, present)
	if cfg.Region == config.RegionPAL {
		e.GPU.SetVideoMode(gpu.PAL)
	}

	devices := [7]dma.Device{
		inertDMADevice{}, // 0: MDECin
		inertDMADevice{}, // 1: MDECout
		e.GPU,            // 2: GPU
		e.CDROM,          // 3: CD-ROM
		inertDMADevice{}, // 4: SPU
		inertDMADevice{}, // 5: PIO
		inertDMADevice{}, // 6: OTC
	}
	e.DMA = dma.New(devices, e.irqs)

	e.Bus.Register(0x1f801070, 8, e.Interrupt)
	e.Bus.Register(0x1f801080, 0x80, e.DMA)
	e.Bus.Register(0x1f801100, 0x30, e.Timers)
	e.Bus.Register(0x1f801040, 0x10, e.SIO)
	e.Bus.Register(0x1f801800, 4, e.CDROM)
	e.Bus.Register(0x1f801810, 8, e.GPU)

	e.CPU = cpu.New(e.Bus)

	if cfg.RealTime {
		fps := ntscFramesPerSecond
		if cfg.Region == config.RegionPAL {
			fps = palFramesPerSecond
		}
		e.throttle = newThrottle(fps)
		e.Clock.Schedule(clock.ThrottleTick, e.throttle.cyclesPerFrame, 0)
	}

	return e
}

// Close releases resources New acquired outside the Go heap (currently
// just the RealTime throttle's ticker). Safe to call on an Emulator built
// without RealTime.
func (e *Emulator) Close() {
	if e.throttle != nil {
		e.throttle.stop()
	}
}

// LoadBIOS validates and installs a 512KB BIOS image.
func (e *Emulator) LoadBIOS(image []byte) error {
	if err := loader.ValidateBIOS(image); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	e.Bus.LoadBIOS(image)
	return nil
}

// LoadExecutable parses and deposits a PS-X EXE. Outside FastBoot mode this
// may only be called once PC has reached the executable-loader hook
// (0x80030000); FastBoot instead forces PC there itself, skipping the BIOS
// shell animation the hook would otherwise have run first.
func (e *Emulator) LoadExecutable(raw []byte) error {
	exe, err := loader.ParseExe(raw)
	if err != nil {
		return fmt.Errorf("console: %w", err)
	}
	if e.cfg.FastBoot {
		e.CPU.SetPC(loader.ExeLoadHook)
	} else if e.CPU.PC() != loader.ExeLoadHook {
		return fmt.Errorf("console: executable loader invoked at PC %#08x, want %#08x", e.CPU.PC(), loader.ExeLoadHook)
	}
	loader.Load(exe, e.Bus, e.CPU, &e.CPU.Regs)
	return nil
}

// TTYLines returns each line captured through the BIOS putchar hook so
// far, newline-terminated input split into lines with the terminator
// itself dropped (only populated when config.Config.TTYCapture is set).
func (e *Emulator) TTYLines() [][]byte {
	return e.ttyLines
}

// TTYBuffer concatenates every completed line, for callers (and the
// hello-world scenario) that only care about the characters printed, not
// line boundaries.
func (e *Emulator) TTYBuffer() []byte {
	var out []byte
	for _, line := range e.ttyLines {
		out = append(out, line...)
	}
	return out
}

// Step advances the emulator by exactly one CPU instruction's worth of
// work: the BIOS TTY intercept (if armed and matched) short-circuits the
// instruction that would otherwise run at the call vector; otherwise one
// instruction executes, DMA gets a tick proportional to its cost, any
// interrupt sources raised in the process are forwarded into the
// interrupt controller and then into Cop0, and any clock events the
// advance made due are drained and dispatched to their owning chip.
func (e *Emulator) Step() {
	if e.interceptBIOSCall() {
		return
	}

	before := e.CPU.Cycles
	e.CPU.Step()
	elapsed := e.CPU.Cycles - before
	if elapsed == 0 {
		elapsed = 1
	}

	e.Clock.Advance(elapsed)

	dmaActive := e.DMA.Step(int(elapsed), e.Bus)
	if dmaActive {
		e.Bus.SetDMAStallCycles(uint32(elapsed))
	}

	e.flushInterrupts()

	e.Clock.DrainDue(func(ev clock.Event) {
		e.dispatch(ev)
		e.flushInterrupts()
	})

	if entered, exited := e.GPU.ConsumeVBlankEdge(); entered || exited {
		if entered {
			e.Timers.NotifyVBlankStart()
		}
		if exited {
			e.Timers.NotifyVBlankEnd()
		}
		e.flushInterrupts()
	}
}

// dispatch routes one due clock event to the chip that owns it.
func (e *Emulator) dispatch(ev clock.Event) {
	switch ev.Type {
	case clock.HBlankStart, clock.HBlankEnd, clock.ScanlineEnd:
		e.GPU.NotifyEvent(ev.Type)
		switch ev.Type {
		case clock.HBlankStart:
			e.Timers.NotifyHBlankStart()
		case clock.HBlankEnd:
			e.Timers.NotifyHBlankEnd()
		}
	case clock.Timer0Expiry, clock.Timer1Expiry, clock.Timer2Expiry:
		e.Timers.Advance(0)
	case clock.SIOTransmitComplete:
		e.SIO.OnTransmitComplete()
	case clock.ThrottleTick:
		e.throttle.wait()
		e.Clock.Schedule(clock.ThrottleTick, e.throttle.cyclesPerFrame, 0)
	case clock.CDROMIRQ, clock.CDROMIRQSecondResponse, clock.CDROMNextSector:
		e.CDROM.OnEvent(ev)
	}
}

// flushInterrupts moves any raised sources from the collector into the
// interrupt controller and updates Cop0's latched hardware-interrupt bit,
// the step every wiring I-can't-import-you boundary in the chip packages
// leaves to the owner of all of them.
func (e *Emulator) flushInterrupts() {
	e.irqs.Flush(e.Interrupt)
	e.CPU.Cop0.SetHardwareInterruptPending(e.Interrupt.Pending())
}

// interceptBIOSCall implements the TTY putchar HLE hook: when TTYCapture
// is enabled and execution reaches the A-table call vector requesting
// function 3Ch, the character in $a0 is captured and control returns to
// $ra immediately, standing in for the real BIOS routine a loaded image
// may not actually provide.
func (e *Emulator) interceptBIOSCall() bool {
	if !e.cfg.TTYCapture || e.CPU.PC() != biosACallVector {
		return false
	}
	if e.CPU.Regs.Get(regFunctionNumber) != biosTTYPutcharFunction {
		return false
	}
	ch := byte(e.CPU.Regs.Get(regArg0))
	if ch == '\n' {
		e.ttyLines = append(e.ttyLines, e.ttyCurrent)
		e.ttyCurrent = nil
	} else {
		e.ttyCurrent = append(e.ttyCurrent, ch)
	}
	e.CPU.SetPC(e.CPU.Regs.Get(regReturnAddr))
	return true
}
