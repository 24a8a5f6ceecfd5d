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

// Package loader abstracts the two ways a byte array reaches the
// emulator: a 512KB BIOS image presented read-only at the reset vector,
// and a PS-X EXE deposited into RAM once the BIOS shell reaches its
// fixed executable-loading hook. Grounded on the byte-array, no-file-IO
// shape of cartridgeloader.Loader, narrowed to this format's fixed
// header layout rather than that package's fingerprinting/streaming
// machinery.
package loader

import (
	"fmt"
)

// BIOSSize is the fixed size of a PSX BIOS ROM image.
const BIOSSize = 512 * 1024

// ExeLoadHook is the BIOS address execution must reach before an
// executable may be injected into RAM.
const ExeLoadHook = 0x80030000

const (
	exeMagic       = "PS-X EXE"
	exeHeaderSize  = 0x800
	exePCOffset    = 0x10
	exeGPOffset    = 0x14
	exeAddrOffset  = 0x18
	exeLenOffset   = 0x1c
	exeSPOffset    = 0x30
)

// Exe is a parsed PS-X EXE header plus its code/data payload.
type Exe struct {
	PC     uint32
	GP     uint32
	Addr   uint32
	SP     uint32
	Data   []byte
}

// ParseExe validates an executable's fixed 2KB header and extracts the
// fields the loader needs to deposit it into RAM and prime the CPU.
func ParseExe(raw []byte) (Exe, error) {
	if len(raw) < exeHeaderSize {
		return Exe{}, fmt.Errorf("loader: executable is %d bytes, shorter than the %d-byte header", len(raw), exeHeaderSize)
	}
	if string(raw[:len(exeMagic)]) != exeMagic {
		return Exe{}, fmt.Errorf("loader: missing %q magic", exeMagic)
	}

	pc := le32(raw[exePCOffset:])
	gp := le32(raw[exeGPOffset:])
	addr := le32(raw[exeAddrOffset:]) & 0x1fffff
	length := le32(raw[exeLenOffset:])
	sp := le32(raw[exeSPOffset:])

	end := exeHeaderSize + int(length)
	if end > len(raw) {
		return Exe{}, fmt.Errorf("loader: declared length %d overruns file of %d bytes", length, len(raw))
	}

	return Exe{
		PC:   pc,
		GP:   gp,
		Addr: addr,
		SP:   sp,
		Data: raw[exeHeaderSize:end],
	}, nil
}

// RAM is the narrow interface the loader needs to deposit an
// executable's payload, satisfied by bus.Bus.
type RAM interface {
	Write32(addr uint32, v uint32)
}

// GPRFile is the narrow interface the loader needs to prime general
// purpose registers after depositing an executable, satisfied by
// cpu.Registers.
type GPRFile interface {
	Set(n uint32, v uint32)
}

// CPU is the narrow interface the loader needs to prime PC after
// depositing an executable, satisfied by cpu.CPU.
type CPU interface {
	SetPC(addr uint32)
}

// gp, sp, and fp register numbers in the standard MIPS ABI.
const (
	regGP = 28
	regSP = 29
	regFP = 30
)

// Load deposits an executable's payload into RAM at its declared load
// address and primes PC/GP/SP/FP, mirroring what the BIOS itself does at
// its executable-loading hook.
func Load(exe Exe, ram RAM, cpu CPU, gpr GPRFile) {
	for i := 0; i+3 < len(exe.Data); i += 4 {
		word := le32(exe.Data[i:])
		ram.Write32(exe.Addr+uint32(i), word)
	}
	cpu.SetPC(exe.PC)
	gpr.Set(regGP, exe.GP)
	if exe.SP != 0 {
		gpr.Set(regSP, exe.SP)
		gpr.Set(regFP, exe.SP)
	}
}

// ValidateBIOS checks a BIOS image is the expected fixed size before
// Bus.LoadBIOS copies it in.
func ValidateBIOS(image []byte) error {
	if len(image) != BIOSSize {
		return fmt.Errorf("loader: BIOS image is %d bytes, want %d", len(image), BIOSSize)
	}
	return nil
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
