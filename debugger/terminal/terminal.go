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

// Package terminal is a thin raw-mode line reader for the debugger REPL,
// built on pkg/term/termios: put the controlling terminal in cbreak mode,
// read one line of input at a time with basic backspace handling, and
// restore canonical mode on Close.
package terminal

import (
	"fmt"
	"os"
	"syscall"

	"github.com/pkg/term/termios"
)

// Terminal reads command lines from a file descriptor in cbreak mode:
// input is available a character at a time, without the shell's own
// line-editing, but without needing full raw mode either (signals like
// Ctrl-C still reach the process normally).
type Terminal struct {
	f *os.File

	canonical syscall.Termios
	cbreak    syscall.Termios
}

// Open puts f (typically os.Stdin) into cbreak mode.
func Open(f *os.File) (*Terminal, error) {
	t := &Terminal{f: f}
	if err := termios.Tcgetattr(f.Fd(), &t.canonical); err != nil {
		return nil, fmt.Errorf("terminal: %w", err)
	}
	t.cbreak = t.canonical
	termios.Cfmakecbreak(&t.cbreak)
	if err := termios.Tcsetattr(f.Fd(), termios.TCSANOW, &t.cbreak); err != nil {
		return nil, fmt.Errorf("terminal: %w", err)
	}
	return t, nil
}

// Close restores the terminal's original (canonical) mode.
func (t *Terminal) Close() error {
	return termios.Tcsetattr(t.f.Fd(), termios.TCSANOW, &t.canonical)
}

// ReadLine reads one line of input, handling backspace (0x7f/0x08) by
// deleting the previous rune, and returns it without the trailing
// newline. It echoes each character back to the terminal itself, since
// cbreak mode disables the kernel's own echo-and-edit line discipline.
func (t *Terminal) ReadLine() (string, error) {
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := t.f.Read(buf)
		if err != nil {
			return "", err
		}
		if n == 0 {
			continue
		}

		switch buf[0] {
		case '\r', '\n':
			t.f.WriteString("\r\n")
			return string(line), nil
		case 0x7f, 0x08:
			if len(line) > 0 {
				line = line[:len(line)-1]
				t.f.WriteString("\b \b")
			}
		case 0x03: // Ctrl-C
			return "", fmt.Errorf("terminal: interrupted")
		default:
			line = append(line, buf[0])
			t.f.Write(buf)
		}
	}
}
