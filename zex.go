// This file is part of Mal-80.
//
// Mal-80 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Mal-80 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Mal-80.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/harrowm/mal-80/curated"
	"github.com/harrowm/mal-80/hardware/cpu"
	"github.com/harrowm/mal-80/hardware/memory"
	"github.com/harrowm/mal-80/modalflag"
)

// The ZEX mode runs a CP/M .COM file (zexdoc.com or zexall.com) against
// the CPU core on the flat 64KiB bus, with just enough of CP/M faked up
// to satisfy it: a RET at the warm-boot and BDOS entry points and the two
// BDOS console output functions trapped.

const (
	cpmTPAStart  = 0x0100
	cpmBDOSEntry = 0x0005
	cpmStackTop  = 0xf000

	bdosConsoleOut = 2
	bdosPrintStr   = 9
)

// sentinel errors.
const (
	ZexNoFile   = "zex: no com file specified"
	ZexTooLarge = "zex: com file too large (%d bytes)"
)

func zex(md *modalflag.Modes) error {
	md.NewMode()

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	if len(md.RemainingArgs()) != 1 {
		return curated.Errorf(ZexNoFile)
	}

	return runZex(md.GetArg(0), os.Stdout)
}

func runZex(path string, output *os.File) error {
	image, err := os.ReadFile(path)
	if err != nil {
		return curated.Errorf("zex: %v", err)
	}
	if len(image) > cpmStackTop-cpmTPAStart {
		return curated.Errorf(ZexTooLarge, len(image))
	}

	bus := memory.NewFlatBus()
	for i, v := range image {
		bus.Write(cpmTPAStart+uint16(i), v)
	}

	// CP/M page zero: warm boot and BDOS entry both RET; a believable
	// top-of-TPA for programs that read it
	bus.Write(0x0000, 0xc9)
	bus.Write(cpmBDOSEntry, 0xc9)
	bus.Write(0x0006, 0x00)
	bus.Write(0x0007, 0xf0)

	z := cpu.NewCPU(bus)
	z.Reg.PC = cpmTPAStart
	z.Reg.SP = cpmStackTop

	fmt.Fprintf(output, "running %s (%d bytes)\n\n", path, len(image))

	start := time.Now()
	var tstates uint64
	var instructions uint64

	for {
		pc := z.Reg.PC

		if pc == 0x0000 {
			break // warm boot: program exit
		}

		if pc == cpmBDOSEntry {
			switch z.Reg.C() {
			case bdosConsoleOut:
				fmt.Fprintf(output, "%c", z.Reg.E())
			case bdosPrintStr:
				for addr := z.Reg.DE; bus.Peek(addr) != '$'; addr++ {
					fmt.Fprintf(output, "%c", bus.Peek(addr))
				}
			}
		}

		tstates += uint64(z.Step())
		for z.MidInstruction() {
			tstates += uint64(z.Step())
		}
		instructions++
	}

	elapsed := time.Since(start)
	fmt.Fprintf(output, "\n\n%d instructions, %d T-states in %v (%.1f MHz effective)\n",
		instructions, tstates, elapsed.Round(time.Millisecond),
		float64(tstates)/elapsed.Seconds()/1e6)

	return nil
}
