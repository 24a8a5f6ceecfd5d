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

package logger_test

import (
	"strings"
	"testing"

	"github.com/gopsx/psx/logger"
)

func TestLogger(t *testing.T) {
	logger.Clear()

	var sb strings.Builder
	logger.Write(&sb)
	if sb.String() != "" {
		t.Fatalf("expected empty log, got %q", sb.String())
	}

	logger.Log("test", "this is a test")
	sb.Reset()
	logger.Write(&sb)
	if sb.String() != "test: this is a test\n" {
		t.Fatalf("unexpected log contents: %q", sb.String())
	}

	logger.Logf("test2", "this is %s", "another test")
	sb.Reset()
	logger.Write(&sb)
	want := "test: this is a test\ntest2: this is another test\n"
	if sb.String() != want {
		t.Fatalf("got %q want %q", sb.String(), want)
	}

	// asking for too many entries in a Tail() should be okay
	sb.Reset()
	logger.Tail(&sb, 100)
	if sb.String() != want {
		t.Fatalf("tail(100) got %q want %q", sb.String(), want)
	}

	// exactly the correct number of entries
	sb.Reset()
	logger.Tail(&sb, 2)
	if sb.String() != want {
		t.Fatalf("tail(2) got %q want %q", sb.String(), want)
	}

	// fewer entries
	sb.Reset()
	logger.Tail(&sb, 1)
	if sb.String() != "test2: this is another test\n" {
		t.Fatalf("tail(1) got %q", sb.String())
	}

	// no entries
	sb.Reset()
	logger.Tail(&sb, 0)
	if sb.String() != "" {
		t.Fatalf("tail(0) got %q", sb.String())
	}

	logger.Clear()
}
