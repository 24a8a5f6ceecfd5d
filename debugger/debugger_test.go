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

package debugger

import (
	"testing"
	"time"

	"github.com/gopsx/psx/config"
	"github.com/gopsx/psx/console"
	"github.com/gopsx/psx/debugger/govern"
)

type discardPresenter struct{}

func (discardPresenter) Present(pixels []byte, width, height int) {}

func newTestDebugger(t *testing.T) *Debugger {
	t.Helper()
	emu := console.New(config.Config{}, discardPresenter{})
	d := New(emu)
	go d.Run()
	t.Cleanup(d.Stop)
	return d
}

func recvResponse(t *testing.T, d *Debugger) Response {
	t.Helper()
	select {
	case r := <-d.Responses():
		return r
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a response")
		return nil
	}
}

func TestStepByStepExecutesOneInstructionPerStepRequest(t *testing.T) {
	d := newTestDebugger(t)
	d.Requests() <- RunModeChanged{Mode: govern.StepByStep}

	startPC := d.emu.CPU.PC()
	d.Requests() <- Step{}

	r := recvResponse(t, d)
	regs, ok := r.(CpuRegs)
	if !ok {
		t.Fatalf("response = %#v, want CpuRegs", r)
	}
	if regs.Instruction.Address != startPC {
		t.Fatalf("disassembled address = %#08x, want %#08x", regs.Instruction.Address, startPC)
	}
	if d.emu.CPU.PC() == startPC {
		t.Fatalf("PC did not advance after a single Step request")
	}
}

func TestReqCpuRegsDoesNotAdvancePC(t *testing.T) {
	d := newTestDebugger(t)
	d.Requests() <- RunModeChanged{Mode: govern.StepByStep}

	startPC := d.emu.CPU.PC()
	d.Requests() <- ReqCpuRegs{}
	recvResponse(t, d)

	if d.emu.CPU.PC() != startPC {
		t.Fatalf("PC = %#08x after ReqCpuRegs, want unchanged %#08x", d.emu.CPU.PC(), startPC)
	}
}

func TestReqCop0RegsReportsPRId(t *testing.T) {
	d := newTestDebugger(t)
	d.Requests() <- RunModeChanged{Mode: govern.StepByStep}
	d.Requests() <- ReqCop0Regs{}

	r := recvResponse(t, d)
	regs, ok := r.(Cop0Regs)
	if !ok {
		t.Fatalf("response = %#v, want Cop0Regs", r)
	}
	if regs.Regs[15] != d.emu.CPU.Cop0.ReadRegister(15) {
		t.Fatalf("PRId mismatch: got %#08x", regs.Regs[15])
	}
}

func TestReadMemoryReturnsByteAlignedValues(t *testing.T) {
	d := newTestDebugger(t)
	d.emu.Bus.Poke(0x1000, 0x04030201)

	d.Requests() <- RunModeChanged{Mode: govern.StepByStep}
	d.Requests() <- ReadMemory{Address: 0x1000, Count: 4, Size: 1}

	r := recvResponse(t, d)
	mem, ok := r.(Memory)
	if !ok {
		t.Fatalf("response = %#v, want Memory", r)
	}
	want := []uint32{1, 2, 3, 4}
	if len(mem.Values) != len(want) {
		t.Fatalf("len(Values) = %d, want %d", len(mem.Values), len(want))
	}
	for i, v := range want {
		if mem.Values[i] != v {
			t.Fatalf("Values[%d] = %#x, want %#x", i, mem.Values[i], v)
		}
	}
}

func TestBreakModeHaltsOnExecuteBreakpoint(t *testing.T) {
	d := newTestDebugger(t)
	pc := d.emu.CPU.PC()

	d.Requests() <- RunModeChanged{
		Mode:        govern.BreakMode,
		Breakpoints: BreakpointSet{Execute: []uint32{pc}},
	}

	var hit BreakAt
	found := false
	for i := 0; i < 8 && !found; i++ {
		switch r := recvResponse(t, d).(type) {
		case BreakAt:
			hit = r
			found = true
		case CpuRegs:
		}
	}
	if !found {
		t.Fatalf("never received a BreakAt response")
	}
	if hit.Address != pc {
		t.Fatalf("BreakAt.Address = %#08x, want %#08x", hit.Address, pc)
	}
}
