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

// Package config holds the small set of programmatic preferences
// console.New accepts: plain typed values rather than a CLI-flag or
// config-file layer, which sits outside this module's scope.
package config

// Region selects the scanline timing table a console.Emulator boots with.
type Region uint8

const (
	RegionNTSC Region = iota
	RegionPAL
)

// Config is passed to console.New. There is no persistence layer; callers
// construct one directly.
type Config struct {
	Region Region

	// FastBoot skips the BIOS shell animation: LoadExecutable forces PC to
	// the executable-loader hook address and deposits the executable at
	// once, instead of waiting for the BIOS to reach the hook naturally.
	FastBoot bool

	// TTYCapture mirrors BIOS TTY output (A-table function 3Ch,
	// "putchar") into a readable buffer. When false the call is not
	// intercepted and its output is not recorded anywhere.
	TTYCapture bool

	// RealTime paces emulation to wall-clock speed via the scheduler's
	// throttle tick; false (the default) runs as fast as the host can.
	RealTime bool

	// Metrics starts the optional live throughput dashboard when true.
	Metrics bool
}
