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

package debugger

import (
	"io"

	"github.com/bradleyjkemp/memviz"

	"github.com/gopsx/psx/clock"
)

// DumpScheduledEvents renders the clock's pending event heap as a Graphviz
// graph, for a front-end to shell out to `dot` and display on request.
func DumpScheduledEvents(w io.Writer, pending []clock.Event) {
	memviz.Map(w, &pending)
}
