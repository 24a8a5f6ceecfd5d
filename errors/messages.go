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

package errors

// Message templates shared by more than one package, kept here so the
// wording stays consistent. Packages with a single call site define their
// own template inline at the Errorf() call instead of adding an entry here.
const (
	BadBIOSLength  = "load: BIOS image must be exactly %d bytes, got %d"
	BadEXEMagic    = "load: executable missing PS-X EXE magic"
	BadCueFile     = "load: malformed CUE sheet: %s"
	UnalignedAccess = "cpu: unaligned memory access to address %#08x"
)
