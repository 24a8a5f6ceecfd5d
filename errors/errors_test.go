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

package errors_test

import (
	"testing"

	"github.com/gopsx/psx/errors"
)

func TestErrorf(t *testing.T) {
	err := errors.Errorf("bus: unmapped address %#08x", uint32(0x1f801234))
	if err.Error() != "bus: unmapped address 0x1f801234" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestCategorised(t *testing.T) {
	err := errors.Categorised(errors.CategoryCDROM, "cdrom: bad command %#02x", uint8(0xff))
	if !errors.Is(err, errors.CategoryCDROM) {
		t.Fatalf("expected category match")
	}
	if errors.Is(err, errors.CategoryGPU) {
		t.Fatalf("expected no category match")
	}
}
