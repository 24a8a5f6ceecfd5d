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

// Categories used across the emulator's subsystems. Subsystem-specific fault
// enumerations (cop0.ExcAddressErrorLoad, cop0.ExcBusErrorData, ...) are distinct Go
// types in their own packages; these categories exist for the handful of
// cases where a caller only cares about the broad shape of the failure (for
// example the debugger deciding whether to show a value in red).
const (
	CategoryLoad      Category = "load"      // BIOS/executable/disc loading
	CategoryBus       Category = "bus"       // memory bus / MMIO dispatch
	CategoryCPU       Category = "cpu"       // CPU exceptions
	CategoryGPU       Category = "gpu"       // GPU command stream
	CategoryCDROM     Category = "cdrom"     // CD-ROM controller
	CategoryDebugger  Category = "debugger"  // debugger request/response
	CategoryAutomation Category = "automation" // lua scripting layer
)
