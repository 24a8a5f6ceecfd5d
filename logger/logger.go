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

// Package logger implements a small process-wide ring-buffer log. Entries are
// tagged by subsystem ("cpu", "bus", "gte", "cdrom", ...) and are intended for
// the kind of "log a warning and carry on" situations:
// unknown MMIO addresses, malformed CD-ROM commands, unsupported GTE
// commands. None of these are fatal and none of them should panic.
package logger

import (
	"fmt"
	"io"
	"sync"
)

// maxEntries bounds the ring buffer. Once full, the oldest entry is
// overwritten by new log activity.
const maxEntries = 2000

type entry struct {
	tag     string
	message string
}

func (e entry) String() string {
	return fmt.Sprintf("%s: %s", e.tag, e.message)
}

var (
	mu      sync.Mutex
	entries []entry
)

// Log appends a tag:message entry to the log.
func Log(tag string, message string) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, entry{tag: tag, message: message})
	if len(entries) > maxEntries {
		entries = entries[len(entries)-maxEntries:]
	}
}

// Logf is like Log but with fmt.Sprintf-style formatting.
func Logf(tag string, format string, args ...interface{}) {
	Log(tag, fmt.Sprintf(format, args...))
}

// Write dumps the entire log to w, one "tag: message" line per entry.
func Write(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	for _, e := range entries {
		fmt.Fprintf(w, "%s\n", e)
	}
}

// Tail dumps the last n entries (or fewer, if the log is shorter; or none,
// for n <= 0) to w.
func Tail(w io.Writer, n int) {
	mu.Lock()
	defer mu.Unlock()
	if n <= 0 {
		return
	}
	if n > len(entries) {
		n = len(entries)
	}
	for _, e := range entries[len(entries)-n:] {
		fmt.Fprintf(w, "%s\n", e)
	}
}

// Clear empties the log. Used by tests.
func Clear() {
	mu.Lock()
	defer mu.Unlock()
	entries = nil
}
