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

package console

import (
	"testing"

	"github.com/gopsx/psx/clock"
	"github.com/gopsx/psx/config"
)

type nullPresenter struct{}

func (nullPresenter) Present(pixels []byte, width, height int) {}

func newTestEmulator(cfg config.Config) *Emulator {
	return New(cfg, nullPresenter{})
}

func TestNewRegistersEveryPeripheral(t *testing.T) {
	e := newTestEmulator(config.Config{})
	// A 32-bit read from each peripheral's window must not panic; the
	// values read are not checked.
	addrs := []uint32{0x1f801070, 0x1f801080, 0x1f801100, 0x1f801040, 0x1f801800, 0x1f801814}
	for _, a := range addrs {
		_ = e.Bus.Read32(a)
	}
}

func TestLoadBIOSRejectsWrongSize(t *testing.T) {
	e := newTestEmulator(config.Config{})
	if err := e.LoadBIOS(make([]byte, 1024)); err == nil {
		t.Fatalf("expected an error loading an undersized BIOS image")
	}
}

func TestLoadBIOSInstallsImage(t *testing.T) {
	e := newTestEmulator(config.Config{})
	image := make([]byte, 512*1024)
	image[0] = 0x42
	if err := e.LoadBIOS(image); err != nil {
		t.Fatalf("LoadBIOS failed: %v", err)
	}
	if got := e.Bus.Read8(0xbfc00000); got != 0x42 {
		t.Fatalf("BIOS byte 0 = %#02x, want 0x42", got)
	}
}

func buildExe(pc, gp, addr, sp uint32, payload []byte) []byte {
	const headerSize = 0x800
	raw := make([]byte, headerSize+len(payload))
	copy(raw, "PS-X EXE")
	put := func(off int, v uint32) {
		raw[off] = byte(v)
		raw[off+1] = byte(v >> 8)
		raw[off+2] = byte(v >> 16)
		raw[off+3] = byte(v >> 24)
	}
	put(0x10, pc)
	put(0x14, gp)
	put(0x18, addr)
	put(0x1c, uint32(len(payload)))
	put(0x30, sp)
	copy(raw[headerSize:], payload)
	return raw
}

func TestLoadExecutableRejectsWrongPCWithoutFastBoot(t *testing.T) {
	e := newTestEmulator(config.Config{})
	raw := buildExe(0x80010000, 0, 0x80010000, 0, []byte{1, 2, 3, 4})
	if err := e.LoadExecutable(raw); err == nil {
		t.Fatalf("expected an error: PC has not reached the executable-loader hook")
	}
}

func TestLoadExecutableFastBootForcesHookAndLoads(t *testing.T) {
	e := newTestEmulator(config.Config{FastBoot: true})
	raw := buildExe(0x80010000, 0x1234, 0x80010000, 0x801ffff0, []byte{1, 2, 3, 4})
	if err := e.LoadExecutable(raw); err != nil {
		t.Fatalf("LoadExecutable failed: %v", err)
	}
	if e.CPU.PC() != 0x80010000 {
		t.Fatalf("PC = %#08x, want 0x80010000", e.CPU.PC())
	}
	if got := e.Bus.Read32(0x80010000); got != 0x04030201 {
		t.Fatalf("deposited word = %#08x, want 0x04030201", got)
	}
}

// TestTTYHookCapturesHelloWorldLine exercises the exact hello-world
// scenario: three BIOS putchar calls writing 'H', 'i', '\n', each driven
// through Step() by presenting the call vector and registers the way a
// real A-table trampoline would leave them, and checks the captured line
// equals "Hi" with the terminator stripped.
func TestTTYHookCapturesHelloWorldLine(t *testing.T) {
	e := newTestEmulator(config.Config{TTYCapture: true})

	putchar := func(ch byte, returnTo uint32) {
		e.CPU.SetPC(biosACallVector)
		e.CPU.Regs.Set(regFunctionNumber, biosTTYPutcharFunction)
		e.CPU.Regs.Set(regArg0, uint32(ch))
		e.CPU.Regs.Set(regReturnAddr, returnTo)
		e.Step()
	}

	putchar('H', 0x80010004)
	if e.CPU.PC() != 0x80010004 {
		t.Fatalf("PC after putchar('H') = %#08x, want 0x80010004", e.CPU.PC())
	}
	putchar('i', 0x80010008)
	putchar('\n', 0x8001000c)

	if got := string(e.TTYBuffer()); got != "Hi" {
		t.Fatalf("TTYBuffer() = %q, want %q", got, "Hi")
	}
	lines := e.TTYLines()
	if len(lines) != 1 || string(lines[0]) != "Hi" {
		t.Fatalf("TTYLines() = %v, want a single \"Hi\" line", lines)
	}
}

func TestTTYHookInertWithoutCapture(t *testing.T) {
	e := newTestEmulator(config.Config{})
	e.CPU.SetPC(biosACallVector)
	e.CPU.Regs.Set(regFunctionNumber, biosTTYPutcharFunction)
	e.CPU.Regs.Set(regArg0, uint32('X'))
	e.CPU.Regs.Set(regReturnAddr, 0x80010004)

	if e.interceptBIOSCall() {
		t.Fatalf("the BIOS hook should be inert when TTYCapture is false")
	}
}

func TestRealTimeModeSchedulesThrottleTick(t *testing.T) {
	e := newTestEmulator(config.Config{RealTime: true})
	defer e.Close()

	found := false
	for _, ev := range e.Clock.Pending() {
		if ev.Type == clock.ThrottleTick {
			found = true
		}
	}
	if !found {
		t.Fatalf("RealTime config did not schedule a ThrottleTick event")
	}
}

func TestRealTimeOffSchedulesNoThrottleTick(t *testing.T) {
	e := newTestEmulator(config.Config{})
	defer e.Close()

	for _, ev := range e.Clock.Pending() {
		if ev.Type == clock.ThrottleTick {
			t.Fatalf("ThrottleTick scheduled without RealTime set")
		}
	}
}
