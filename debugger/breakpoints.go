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

// BreakpointSet is the payload of a BreakMode RunModeChanged request: the
// addresses (and, optionally, opcode bit pattern) that halt BreakMode
// execution. A zero-value BreakpointSet never matches.
type BreakpointSet struct {
	Execute []uint32
	Read    []uint32
	Write   []uint32

	// OpcodePattern, when non-nil, additionally requires the fetched
	// instruction word to match (after masking by OpcodeMask) before an
	// Execute address counts as a hit.
	OpcodePattern *uint32
	OpcodeMask    uint32
}

func contains(set []uint32, addr uint32) bool {
	for _, a := range set {
		if a == addr {
			return true
		}
	}
	return false
}

// matchesExecute reports whether pc/instr hits this set's Execute list,
// honoring OpcodePattern when present.
func (bs BreakpointSet) matchesExecute(pc, instr uint32) bool {
	if !contains(bs.Execute, pc) {
		return false
	}
	if bs.OpcodePattern == nil {
		return true
	}
	return instr&bs.OpcodeMask == *bs.OpcodePattern&bs.OpcodeMask
}

// MatchesRead reports whether a CPU-initiated read of addr hits this set's
// Read watch list.
func (bs BreakpointSet) MatchesRead(addr uint32) bool {
	return contains(bs.Read, addr)
}

// MatchesWrite reports whether a CPU-initiated write of addr hits this
// set's Write watch list.
func (bs BreakpointSet) MatchesWrite(addr uint32) bool {
	return contains(bs.Write, addr)
}
