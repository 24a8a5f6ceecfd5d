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

package cop0_test

import (
	"testing"

	"github.com/gopsx/psx/cpu/cop0"
)

func TestResetState(t *testing.T) {
	c := cop0.New()
	if c.PRId != 1 {
		t.Fatalf("PRId should reset to 1, got %d", c.PRId)
	}
	if !c.KernelMode() {
		t.Fatalf("should reset into kernel mode")
	}
}

func TestExceptionVectorSelection(t *testing.T) {
	c := cop0.New() // BEV=1 after reset
	vec := c.EnterException(0x80010000, cop0.ExcSysCall, false, false, 0, false)
	if vec != 0xbfc00180 {
		t.Fatalf("expected BEV vector, got %#x", vec)
	}

	c2 := cop0.New()
	c2.Status &^= 1 << 22 // clear BEV
	vec2 := c2.EnterException(0x80010000, cop0.ExcSysCall, false, false, 0, false)
	if vec2 != 0x80000080 {
		t.Fatalf("expected general vector, got %#x", vec2)
	}
}

func TestStatusStackShift(t *testing.T) {
	c := cop0.New()
	c.Status |= 1 // IEc = 1
	c.EnterException(0x80010000, cop0.ExcSysCall, false, false, 0, false)
	if c.InterruptsEnabled() {
		t.Fatalf("IEc should be 0 after entering exception")
	}
	if c.Status&(1<<2) == 0 {
		t.Fatalf("previous IE should carry the old current IE")
	}

	c.RFE()
	if !c.InterruptsEnabled() {
		t.Fatalf("IEc should be restored by RFE")
	}
}

func TestBranchDelaySlotEPC(t *testing.T) {
	c := cop0.New()
	c.EnterException(0x80010004, cop0.ExcReservedInstruction, true, true, 0, false)
	if c.EPC != 0x80010000 {
		t.Fatalf("EPC should point at the branch, got %#x", c.EPC)
	}
	if c.Cause&(1<<31) == 0 {
		t.Fatalf("BD bit should be set")
	}
}

func TestAddressErrorSetsBadVAddr(t *testing.T) {
	c := cop0.New()
	c.EnterException(0x80010000, cop0.ExcAddressErrorLoad, false, false, 0xdeadbeef, false)
	if c.BadVAddr != 0xdeadbeef {
		t.Fatalf("BadVAddr not set: %#x", c.BadVAddr)
	}
}
