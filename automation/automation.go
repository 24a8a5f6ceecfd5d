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

// Package automation drives an emulation from a Lua script instead of an
// interactive front-end: a narrow set of global functions (step, peek,
// poke, pc, reg) let a script advance emulation and inspect or steer it,
// the same surface a bot would be given rather than direct access to
// console.Emulator's fields.
package automation

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/gopsx/psx/console"
)

// Script wraps a Lua state bound to a single emulator. Close must be
// called once the script is no longer needed to release the interpreter.
type Script struct {
	L   *lua.LState
	emu *console.Emulator
}

// Load creates a fresh Lua interpreter, registers the emulator-control
// globals, and runs source to completion (a script is expected to drive
// the emulator itself, e.g. via a loop calling step()).
func Load(emu *console.Emulator, source string) (*Script, error) {
	s := &Script{L: lua.NewState(), emu: emu}

	s.L.SetGlobal("step", s.L.NewFunction(s.luaStep))
	s.L.SetGlobal("peek", s.L.NewFunction(s.luaPeek))
	s.L.SetGlobal("poke", s.L.NewFunction(s.luaPoke))
	s.L.SetGlobal("pc", s.L.NewFunction(s.luaPC))
	s.L.SetGlobal("reg", s.L.NewFunction(s.luaReg))

	if err := s.L.DoString(source); err != nil {
		s.L.Close()
		return nil, fmt.Errorf("automation: %w", err)
	}
	return s, nil
}

// Close releases the Lua interpreter.
func (s *Script) Close() {
	s.L.Close()
}

// luaStep implements step([n]): advance the emulator by n instructions
// (default 1).
func (s *Script) luaStep(L *lua.LState) int {
	n := L.OptInt(1, 1)
	for i := 0; i < n; i++ {
		s.emu.Step()
	}
	return 0
}

// luaPeek implements peek(addr): a side-effect-free word read.
func (s *Script) luaPeek(L *lua.LState) int {
	addr := uint32(L.CheckInt64(1))
	L.Push(lua.LNumber(s.emu.Bus.Peek(addr)))
	return 1
}

// luaPoke implements poke(addr, value): a side-effect-free word write.
func (s *Script) luaPoke(L *lua.LState) int {
	addr := uint32(L.CheckInt64(1))
	value := uint32(L.CheckInt64(2))
	s.emu.Bus.Poke(addr, value)
	return 0
}

// luaPC implements pc(): the program counter of the next instruction to
// execute.
func (s *Script) luaPC(L *lua.LState) int {
	L.Push(lua.LNumber(s.emu.CPU.PC()))
	return 1
}

// luaReg implements reg(n): general-purpose register n's current value.
func (s *Script) luaReg(L *lua.LState) int {
	n := uint32(L.CheckInt64(1))
	L.Push(lua.LNumber(s.emu.CPU.Regs.Get(n)))
	return 1
}
