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

// Package metrics serves a live runtime dashboard for a long-running
// headless session, gated behind config.Config.Metrics, alongside a
// simple steps/frames throughput counter a front-end can poll.
package metrics

import (
	"sync/atomic"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// Counters are incremented by the running emulation; a front-end can poll
// Snapshot to read the step and frame counts.
type Counters struct {
	Steps  uint64
	Frames uint64
}

// AddStep and AddFrame are called once per console.Emulator.Step and once
// per gpu.Presenter.Present respectively.
func (c *Counters) AddStep()  { atomic.AddUint64(&c.Steps, 1) }
func (c *Counters) AddFrame() { atomic.AddUint64(&c.Frames, 1) }

// Snapshot reads both counters without blocking the emulation goroutine.
func (c *Counters) Snapshot() (steps, frames uint64) {
	return atomic.LoadUint64(&c.Steps), atomic.LoadUint64(&c.Frames)
}

// Dashboard serves statsview's live view of the process's own runtime
// stats (goroutines, heap, GC pauses) for the duration of a long headless
// run.
type Dashboard struct {
	viewer *statsview.Viewer
}

// Start launches the dashboard on its own goroutine, serving addr (e.g.
// ":8899"), and returns immediately.
func Start(addr string) *Dashboard {
	v := statsview.New(viewer.WithAddr(addr))
	go v.Start()
	return &Dashboard{viewer: v}
}
