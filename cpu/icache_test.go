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

func TestICacheMissThenHit(t *testing.T) {
	var c ICache
	if _, ok := c.Lookup(0x1000); ok {
		t.Fatalf("expected a miss on an empty cache")
	}
	c.Fill(0x1000, 0xabcd1234)
	v, ok := c.Lookup(0x1000)
	if !ok || v != 0xabcd1234 {
		t.Fatalf("expected a hit with the filled value, got %#x ok=%v", v, ok)
	}
}

func TestICacheTagChangeEvictsLine(t *testing.T) {
	var c ICache
	c.Fill(0x1000, 0x11111111)
	c.Fill(0x1004, 0x22222222)

	// 0x1000 and 0x2000 map to the same line (line = (addr>>4)&0xff) but
	// carry different tags, so filling any word under the new tag must
	// evict the first tag's sub-blocks.
	c.Fill(0x2000, 0x33333333)
	if _, ok := c.Lookup(0x1000); ok {
		t.Fatalf("expected the old tag's entry to be evicted")
	}
}

func TestICacheInvalidateLineAndWord(t *testing.T) {
	var c ICache
	c.Fill(0x1000, 0x11111111)
	c.Fill(0x1004, 0x22222222)

	c.InvalidateWord(0x1004)
	if _, ok := c.Lookup(0x1004); ok {
		t.Fatalf("expected word invalidate to clear only that sub-block")
	}
	if _, ok := c.Lookup(0x1000); !ok {
		t.Fatalf("word invalidate should not disturb sibling sub-blocks")
	}

	c.InvalidateLine(0x1000)
	if _, ok := c.Lookup(0x1000); ok {
		t.Fatalf("expected line invalidate to clear the whole line")
	}
}
