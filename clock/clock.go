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

// Package clock implements the master cycle counter and the priority-ordered
// event scheduler. Every time-based subsystem (GPU scanout, timers, CD-ROM
// phases, serial-IO transmit) is driven by events pushed onto this heap
// rather than by being ticked directly every cycle.
package clock

import "container/heap"

// EventType is a closed enumeration of everything the clock can schedule.
type EventType int

const (
	HBlankStart EventType = iota
	HBlankEnd
	ScanlineEnd
	Timer0Expiry
	Timer1Expiry
	Timer2Expiry
	SIOTransmitComplete
	ThrottleTick
	GP0Completion
	CDROMIRQ
	CDROMIRQSecondResponse
	CDROMNextSector
)

func (t EventType) String() string {
	switch t {
	case HBlankStart:
		return "hblank-start"
	case HBlankEnd:
		return "hblank-end"
	case ScanlineEnd:
		return "scanline-end"
	case Timer0Expiry:
		return "timer-0-expiry"
	case Timer1Expiry:
		return "timer-1-expiry"
	case Timer2Expiry:
		return "timer-2-expiry"
	case SIOTransmitComplete:
		return "sio-transmit-complete"
	case ThrottleTick:
		return "throttle-tick"
	case GP0Completion:
		return "gp0-completion"
	case CDROMIRQ:
		return "cdrom-irq"
	case CDROMIRQSecondResponse:
		return "cdrom-irq-second-response"
	case CDROMNextSector:
		return "cdrom-next-sector"
	default:
		return "unknown-event"
	}
}

// Event is a scheduled occurrence: fire Type once the Clock's cycle counter
// reaches Timestamp. Tag carries an optional subsystem-defined payload (e.g.
// a CD-ROM command's invocation step identifier) so a single EventType can
// be reused for more than one in-flight occurrence without the heap needing
// to know about it.
type Event struct {
	Type      EventType
	Timestamp uint64
	Tag       int

	seq int // insertion order, used to break timestamp ties
	idx int // index in the heap, maintained by container/heap
}

// Clock is a monotonic cycle counter plus a min-heap of scheduled events.
type Clock struct {
	cycles uint64
	heap   eventHeap
	seq    int

	// GPUClockRatio converts GPU-domain deltas into CPU cycles for
	// ScheduleScaled (NTSC ~1.585, PAL ~1.571).
	GPUClockRatio float64
}

// New creates a Clock with the given CPU cycle to GPU-pixel-clock ratio.
func New(gpuClockRatio float64) *Clock {
	c := &Clock{GPUClockRatio: gpuClockRatio}
	heap.Init(&c.heap)
	return c
}

// Now returns the current cycle count.
func (c *Clock) Now() uint64 {
	return c.cycles
}

// Advance moves the cycle counter forward by n cycles.
func (c *Clock) Advance(n uint64) {
	c.cycles += n
}

// Schedule pushes an event to fire delta cycles from now and returns its
// absolute target timestamp.
func (c *Clock) Schedule(eventType EventType, delta uint64, tag int) uint64 {
	ts := c.cycles + delta
	c.push(eventType, ts, tag)
	return ts
}

// ScheduleScaled is like Schedule but delta is expressed in GPU-domain units
// and is converted to CPU cycles via GPUClockRatio before scheduling.
func (c *Clock) ScheduleScaled(eventType EventType, delta float64, tag int) uint64 {
	cpuDelta := uint64(delta * c.GPUClockRatio)
	return c.Schedule(eventType, cpuDelta, tag)
}

func (c *Clock) push(eventType EventType, ts uint64, tag int) {
	e := &Event{Type: eventType, Timestamp: ts, Tag: tag, seq: c.seq}
	c.seq++
	heap.Push(&c.heap, e)
}

// Cancel removes every pending event of the given type, regardless of tag.
func (c *Clock) Cancel(eventType EventType) {
	c.CancelWhere(func(e Event) bool { return e.Type == eventType })
}

// CancelWhere removes every pending event matching predicate. O(n), and
// rebuilds the heap.
func (c *Clock) CancelWhere(predicate func(Event) bool) {
	kept := c.heap[:0]
	for _, e := range c.heap {
		if predicate(*e) {
			continue
		}
		kept = append(kept, e)
	}
	c.heap = kept
	heap.Init(&c.heap)
}

// NextDue pops and returns the earliest event if its timestamp has been
// reached, else returns (Event{}, false) without modifying the heap.
func (c *Clock) NextDue() (Event, bool) {
	if len(c.heap) == 0 {
		return Event{}, false
	}
	if c.heap[0].Timestamp > c.cycles {
		return Event{}, false
	}
	e := heap.Pop(&c.heap).(*Event)
	return *e, true
}

// DrainDue repeatedly pops due events, calling handle for each, until none
// remain due. handle is called in timestamp order, ties broken by a stable
// FIFO on insertion order.
func (c *Clock) DrainDue(handle func(Event)) {
	for {
		e, ok := c.NextDue()
		if !ok {
			return
		}
		handle(e)
	}
}

// Pending returns a copy of every currently scheduled event (used by tests
// and by the debugger's memviz dump).
func (c *Clock) Pending() []Event {
	out := make([]Event, len(c.heap))
	for i, e := range c.heap {
		out[i] = *e
	}
	return out
}

// eventHeap implements container/heap.Interface, ordering by timestamp and
// then by insertion sequence so same-timestamp events fire FIFO.
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Timestamp != h[j].Timestamp {
		return h[i].Timestamp < h[j].Timestamp
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].idx = i
	h[j].idx = j
}

func (h *eventHeap) Push(x interface{}) {
	e := x.(*Event)
	e.idx = len(*h)
	*h = append(*h, e)
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}
