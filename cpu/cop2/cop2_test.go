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

package cop2_test

import (
	"testing"

	"github.com/gopsx/psx/cpu/cop2"
)

func TestResetState(t *testing.T) {
	g := cop2.New()
	if g.MAC0 != 0 || g.IR0 != 0 {
		t.Fatalf("expected zeroed accumulators on reset")
	}
}

func TestColorPackRoundTrip(t *testing.T) {
	c := cop2.Color{R: 0x11, G: 0x22, B: 0x33, Code: 0x44}
	v := c.Pack()
	got := cop2.UnpackColor(v)
	if got != c {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, c)
	}
}

func TestScreenXYPackRoundTrip(t *testing.T) {
	s := cop2.ScreenXY{X: -100, Y: 200}
	v := s.Pack()
	if int16(v) != -100 {
		t.Fatalf("X lane corrupted: %#x", v)
	}
	if int16(v>>16) != 200 {
		t.Fatalf("Y lane corrupted: %#x", v)
	}
}

func TestLeadingZeroCountPositive(t *testing.T) {
	g := cop2.New()
	g.LZCS = 0x0000_00ff
	if got := g.LeadingZeroCount(); got != 24 {
		t.Fatalf("expected 24 leading zeros, got %d", got)
	}
}

func TestLeadingZeroCountNegative(t *testing.T) {
	g := cop2.New()
	g.LZCS = -1 // all ones: counts leading ones
	if got := g.LeadingZeroCount(); got != 32 {
		t.Fatalf("expected 32 leading ones, got %d", got)
	}
}

func TestSQRCommand(t *testing.T) {
	g := cop2.New()
	g.IR1, g.IR2, g.IR3 = 4, -5, 6
	g.Execute(0x28) // SQR, sf=0
	if g.IR1 != 16 || g.IR2 != 25 || g.IR3 != 36 {
		t.Fatalf("unexpected squared IR values: %d %d %d", g.IR1, g.IR2, g.IR3)
	}
}

func TestAVSZ3Averaging(t *testing.T) {
	g := cop2.New()
	g.SZ = [4]uint16{0, 100, 200, 300}
	g.ZSF3 = 1365 // ~4096/3, matches the typical BIOS divisor constant
	g.Execute(0x2d) // AVSZ3
	if g.OTZ == 0 {
		t.Fatalf("expected a non-zero averaged Z")
	}
}

func TestRTPSProducesScreenCoordinate(t *testing.T) {
	g := cop2.New()
	g.RT = cop2.Matrix3{{4096, 0, 0}, {0, 4096, 0}, {0, 0, 4096}}
	g.V[0] = cop2.Vector16{X: 0, Y: 0, Z: 100}
	g.H = 100
	g.OFX = 320 << 16
	g.OFY = 240 << 16
	g.Execute(0x01) // RTPS
	if g.BusyCycles == 0 {
		t.Fatalf("expected a non-zero busy-cycle cost to be latched")
	}
}

func TestUnsupportedCommandLogsAndSettlesCycles(t *testing.T) {
	g := cop2.New()
	g.Execute(0x3b) // unassigned opcode
	if g.BusyCycles != 1 {
		t.Fatalf("expected fallback busy-cycle cost of 1, got %d", g.BusyCycles)
	}
}
