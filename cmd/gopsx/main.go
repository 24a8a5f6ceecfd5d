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

// Command gopsx is a minimal CLI front-end: it reads a BIOS image and
// (optionally) a PS-X EXE off disk, wires up a console.Emulator, and
// either runs it headlessly or hands it to the interactive debugger REPL.
// File I/O and flag parsing live here deliberately, outside the loader and
// console packages, which only ever see byte slices.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/gopsx/psx/config"
	"github.com/gopsx/psx/console"
	"github.com/gopsx/psx/debugger"
	"github.com/gopsx/psx/debugger/govern"
	"github.com/gopsx/psx/logger"
	"github.com/gopsx/psx/metrics"
)

// frameCounter is the headless presenter: it has nowhere to draw to, so it
// just counts completed frames and, when metrics are enabled, reports
// them to the dashboard's counters.
type frameCounter struct {
	frames   int
	counters *metrics.Counters
}

func (f *frameCounter) Present(pixels []byte, width, height int) {
	f.frames++
	if f.counters != nil {
		f.counters.AddFrame()
	}
}

func main() {
	biosPath := flag.String("bios", "", "path to a 512KB BIOS image (required)")
	exePath := flag.String("exe", "", "path to a PS-X EXE to load once the BIOS reaches its loader hook")
	region := flag.String("region", "ntsc", "console region: ntsc or pal")
	fastBoot := flag.Bool("fastboot", false, "skip the BIOS shell animation and load -exe immediately")
	ttyCapture := flag.Bool("tty", false, "capture BIOS putchar TTY output and print it on exit")
	debug := flag.Bool("debug", false, "start the interactive debugger REPL instead of running headlessly")
	realTime := flag.Bool("realtime", false, "pace emulation to wall-clock speed instead of running flat out")
	metricsAddr := flag.String("metrics", "", "serve a live runtime dashboard at this address (e.g. :18066); disabled if empty")
	logEcho := flag.Bool("log", false, "print the runtime log to stderr on exit")
	flag.Parse()

	if *logEcho {
		defer logger.Write(os.Stderr)
	}

	if *biosPath == "" {
		fmt.Fprintln(os.Stderr, "gopsx: -bios is required")
		os.Exit(2)
	}

	cfg := config.Config{FastBoot: *fastBoot, TTYCapture: *ttyCapture, RealTime: *realTime, Metrics: *metricsAddr != ""}
	switch strings.ToLower(*region) {
	case "pal":
		cfg.Region = config.RegionPAL
	case "ntsc", "":
		cfg.Region = config.RegionNTSC
	default:
		fmt.Fprintf(os.Stderr, "gopsx: unknown region %q\n", *region)
		os.Exit(2)
	}

	bios, err := os.ReadFile(*biosPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gopsx: reading BIOS: %v\n", err)
		os.Exit(1)
	}

	var counters *metrics.Counters
	if cfg.Metrics {
		counters = &metrics.Counters{}
		metrics.Start(*metricsAddr)
	}

	presenter := &frameCounter{counters: counters}
	emu := console.New(cfg, presenter)
	defer emu.Close()
	if err := emu.LoadBIOS(bios); err != nil {
		fmt.Fprintf(os.Stderr, "gopsx: %v\n", err)
		os.Exit(1)
	}

	if *exePath != "" {
		raw, err := os.ReadFile(*exePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "gopsx: reading executable: %v\n", err)
			os.Exit(1)
		}
		if *fastBoot {
			if err := emu.LoadExecutable(raw); err != nil {
				fmt.Fprintf(os.Stderr, "gopsx: %v\n", err)
				os.Exit(1)
			}
		} else {
			// Deferred until PC reaches the loader hook; runHeadless polls
			// for this before every step, runDebugger before every command.
		}
	}

	if *debug {
		runDebugger(emu, *exePath, *fastBoot)
		return
	}
	runHeadless(emu, presenter, *exePath, *fastBoot)
}

// pendingExeLoad reports whether an EXE still needs to be deposited once
// PC reaches the loader hook (only relevant without -fastboot).
func pendingExeLoad(exePath string, fastBoot bool) bool {
	return exePath != "" && !fastBoot
}

func runHeadless(emu *console.Emulator, presenter *frameCounter, exePath string, fastBoot bool) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	pending := pendingExeLoad(exePath, fastBoot)
	for {
		select {
		case <-quit:
			printExitSummary(emu, presenter)
			return
		default:
		}

		if pending {
			tryLoadExe(emu, exePath, &pending)
		}
		emu.Step()
		if presenter.counters != nil {
			presenter.counters.AddStep()
		}
	}
}

func tryLoadExe(emu *console.Emulator, exePath string, pending *bool) {
	raw, err := os.ReadFile(exePath)
	if err != nil {
		return
	}
	if emu.LoadExecutable(raw) == nil {
		*pending = false
	}
}

func printExitSummary(emu *console.Emulator, presenter *frameCounter) {
	fmt.Printf("gopsx: %d frames presented\n", presenter.frames)
	if tty := emu.TTYBuffer(); len(tty) > 0 {
		fmt.Printf("gopsx: TTY output: %q\n", string(tty))
	}
}

// runDebugger drives emu through a Debugger and a line-oriented REPL
// reading commands from stdin. It's deliberately plain (no raw terminal
// mode, no color): lines are read through bufio, not debugger/terminal.
func runDebugger(emu *console.Emulator, exePath string, fastBoot bool) {
	dbg := debugger.New(emu)
	go dbg.Run()
	defer dbg.Stop()

	pending := pendingExeLoad(exePath, fastBoot)

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("gopsx debugger: step | cont | break <hex addr> | regs | cop0 | mem <hex addr> <count> | quit")
	for scanner.Scan() {
		if pending {
			tryLoadExe(emu, exePath, &pending)
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "exit":
			return
		case "step":
			dbg.Requests() <- debugger.RunModeChanged{Mode: govern.StepByStep}
			dbg.Requests() <- debugger.Step{}
			printResponse(<-dbg.Responses())
		case "cont":
			dbg.Requests() <- debugger.RunModeChanged{Mode: govern.FreeMode}
		case "break":
			if len(fields) < 2 {
				fmt.Println("usage: break <hex addr>")
				continue
			}
			addr, err := strconv.ParseUint(strings.TrimPrefix(fields[1], "0x"), 16, 32)
			if err != nil {
				fmt.Printf("bad address: %v\n", err)
				continue
			}
			dbg.Requests() <- debugger.RunModeChanged{
				Mode:        govern.BreakMode,
				Breakpoints: debugger.BreakpointSet{Execute: []uint32{uint32(addr)}},
			}
		case "regs":
			dbg.Requests() <- debugger.ReqCpuRegs{}
			printResponse(<-dbg.Responses())
		case "cop0":
			dbg.Requests() <- debugger.ReqCop0Regs{}
			printResponse(<-dbg.Responses())
		case "mem":
			if len(fields) < 3 {
				fmt.Println("usage: mem <hex addr> <count>")
				continue
			}
			addr, err := strconv.ParseUint(strings.TrimPrefix(fields[1], "0x"), 16, 32)
			if err != nil {
				fmt.Printf("bad address: %v\n", err)
				continue
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil {
				fmt.Printf("bad count: %v\n", err)
				continue
			}
			dbg.Requests() <- debugger.ReadMemory{Address: uint32(addr), Count: uint32(count), Size: 4}
			printResponse(<-dbg.Responses())
		default:
			fmt.Printf("unknown command: %s\n", fields[0])
		}
	}
}

func printResponse(r debugger.Response) {
	switch v := r.(type) {
	case debugger.CpuRegs:
		fmt.Println(v.Instruction.String())
	case debugger.Cop0Regs:
		fmt.Printf("Status=%#08x Cause=%#08x EPC=%#08x\n", v.Regs[12], v.Regs[13], v.Regs[14])
	case debugger.Memory:
		fmt.Printf("%#08x: %v\n", v.Address, v.Values)
	case debugger.BreakAt:
		fmt.Printf("break at %#08x\n", v.Address)
	}
}
