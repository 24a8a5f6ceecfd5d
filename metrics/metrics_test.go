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

package metrics

import "testing"

func TestCountersSnapshotReflectsAdds(t *testing.T) {
	var c Counters
	c.AddStep()
	c.AddStep()
	c.AddFrame()

	steps, frames := c.Snapshot()
	if steps != 2 {
		t.Fatalf("steps = %d, want 2", steps)
	}
	if frames != 1 {
		t.Fatalf("frames = %d, want 1", frames)
	}
}
