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

// writeQueueDepth is the number of in-flight stores the bus can absorb
// before the CPU must stall waiting for one to drain.
const writeQueueDepth = 4

// writeQueueDrainCycles is how many CPU cycles must elapse before the
// oldest queued store is retired to the bus. Cycles a step spends stalled
// on DMA contention count toward it like any other cycle.
const writeQueueDrainCycles = 4

type queuedWrite struct {
	addr  uint32
	value uint32
	size  uint8 // 1, 2, or 4 bytes
}

// WriteQueue is the bounded FIFO of stores waiting to reach the bus. The CPU
// can retire a store into the queue and move on immediately; only once the
// queue is full does a further store stall the pipeline.
type WriteQueue struct {
	entries [writeQueueDepth]queuedWrite
	count   int
}

// Full reports whether the queue has no room for another entry.
func (q *WriteQueue) Full() bool {
	return q.count == writeQueueDepth
}

// Push enqueues a store. Callers must check Full first; Push on a full
// queue panics, since the CPU step algorithm is expected to stall instead of
// calling it.
func (q *WriteQueue) Push(addr, value uint32, size uint8) {
	if q.Full() {
		panic("cpu: write queue overflow")
	}
	q.entries[q.count] = queuedWrite{addr: addr, value: value, size: size}
	q.count++
}

// Drain hands the oldest queued write to drain, if any, and reports whether
// one was available.
func (q *WriteQueue) Drain(drain func(addr, value uint32, size uint8)) bool {
	if q.count == 0 {
		return false
	}
	w := q.entries[0]
	copy(q.entries[:], q.entries[1:q.count])
	q.count--
	drain(w.addr, w.value, w.size)
	return true
}

// Len reports the number of writes currently queued.
func (q *WriteQueue) Len() int {
	return q.count
}

// Overlaps reports whether any currently-queued write covers any of the
// size bytes starting at addr, used to stall a load until a queued store to
// the same location has drained and the read observes the written value.
func (q *WriteQueue) Overlaps(addr uint32, size uint8) bool {
	for i := 0; i < q.count; i++ {
		e := q.entries[i]
		if addr < e.addr+uint32(e.size) && addr+uint32(size) > e.addr {
			return true
		}
	}
	return false
}
