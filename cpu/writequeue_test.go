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

import "testing"

func TestWriteQueueFillsAndDrainsInOrder(t *testing.T) {
	var q WriteQueue
	for i := uint32(0); i < writeQueueDepth; i++ {
		if q.Full() {
			t.Fatalf("queue reported full too early at i=%d", i)
		}
		q.Push(i, i*10, 4)
	}
	if !q.Full() {
		t.Fatalf("queue should be full after %d pushes", writeQueueDepth)
	}

	var order []uint32
	for q.Len() > 0 {
		q.Drain(func(addr, value uint32, size uint8) { order = append(order, addr) })
	}
	for i, addr := range order {
		if addr != uint32(i) {
			t.Fatalf("expected FIFO drain order, got %v", order)
		}
	}
}

func TestWriteQueueDrainOnEmptyReportsFalse(t *testing.T) {
	var q WriteQueue
	if q.Drain(func(uint32, uint32, uint8) {}) {
		t.Fatalf("expected Drain to report false on an empty queue")
	}
}
