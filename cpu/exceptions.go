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

package cpu

import "github.com/gopsx/psx/cpu/cop0"

// exception is raised internally by instruction execution to unwind the
// current step and enter the handler instead of committing any of its
// side effects, per the CPU's all-or-nothing exception-entry contract: a
// faulting instruction must never partially commit (a store that also
// overflows, for instance, must not reach memory).
type exception struct {
	code     cop0.ExcCode
	badVAddr uint32
	hasBad   bool
	coproc   uint32
}

func (e exception) Error() string {
	return "cpu exception"
}

func addressError(code cop0.ExcCode, addr uint32) exception {
	return exception{code: code, badVAddr: addr, hasBad: true}
}

func busError(code cop0.ExcCode) exception {
	return exception{code: code}
}

func simpleException(code cop0.ExcCode) exception {
	return exception{code: code}
}

func coprocessorUnusable(n uint32) exception {
	return exception{code: cop0.ExcCoprocessorUnusable, coproc: n}
}
