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

package console

import "time"

// cpuClockHz is the R3000's fixed clock rate.
const cpuClockHz = 33868800

const (
	ntscFramesPerSecond = 60.0
	palFramesPerSecond  = 50.0
)

// throttle paces Step via a wall-clock ticker, one tick per video frame,
// so RealTime mode runs at the real console's speed instead of as fast as
// the host allows. Frame-level granularity is enough here: unlike a GUI
// front-end, a headless run has no per-scanline visual stutter to smooth
// out by throttling at finer granularity.
type throttle struct {
	ticker         *time.Ticker
	cyclesPerFrame uint64
}

func newThrottle(framesPerSecond float64) *throttle {
	period := time.Duration(float64(time.Second) / framesPerSecond)
	return &throttle{
		ticker:         time.NewTicker(period),
		cyclesPerFrame: uint64(cpuClockHz / framesPerSecond),
	}
}

func (t *throttle) wait() { <-t.ticker.C }

func (t *throttle) stop() { t.ticker.Stop() }
