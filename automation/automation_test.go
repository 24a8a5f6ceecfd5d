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

package automation

import (
	"strconv"
	"testing"

	"github.com/gopsx/psx/config"
	"github.com/gopsx/psx/console"
)

type discardPresenter struct{}

func (discardPresenter) Present(pixels []byte, width, height int) {}

func TestLoadRunsPokeAndPeek(t *testing.T) {
	emu := console.New(config.Config{}, discardPresenter{})
	defer emu.Close()

	s, err := Load(emu, `
		poke(0x1000, 0x12345678)
		result = peek(0x1000)
	`)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer s.Close()

	got := s.L.GetGlobal("result")
	want := strconv.FormatUint(0x12345678, 10)
	if got.String() != want {
		t.Fatalf("result = %s, want %s", got.String(), want)
	}
}

func TestLoadExposesPCAndStep(t *testing.T) {
	emu := console.New(config.Config{}, discardPresenter{})
	defer emu.Close()

	image := make([]byte, 512*1024)
	if err := emu.LoadBIOS(image); err != nil {
		t.Fatalf("LoadBIOS failed: %v", err)
	}
	startPC := emu.CPU.PC()

	s, err := Load(emu, `
		start = pc()
		step()
		finish = pc()
	`)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer s.Close()

	start := s.L.GetGlobal("start")
	want := strconv.FormatUint(uint64(startPC), 10)
	if start.String() != want {
		t.Fatalf("start = %s, want %s", start.String(), want)
	}
}
