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

	"github.com/harrowm/mal-80/debugger"
	"github.com/harrowm/mal-80/gui/sdlplay"
	"github.com/harrowm/mal-80/hardware"
	"github.com/harrowm/mal-80/hardware/cassette"
	"github.com/harrowm/mal-80/hardware/memory"
	"github.com/harrowm/mal-80/logger"
	"github.com/harrowm/mal-80/performance/limiter"
	"github.com/harrowm/mal-80/resources"
	"github.com/harrowm/mal-80/trapper"
	"github.com/harrowm/mal-80/wavwriter"
)

const windowTitle = "Mal-80 - TRS-80 Model I"

// render only every Nth frame while in turbo mode
const turboRenderEvery = 10

type speedMode int

const (
	speedNormal speedMode = iota
	speedTurbo
)

// emulator ties the machine to its host-side collaborators and runs the
// outer frame loop.
type emulator struct {
	machine *hardware.Mal80
	traps   *trapper.Trapper
	dbg     *debugger.Debugger
	scr     *sdlplay.SdlPlay
	wav     *wavwriter.WavWriter
	lmtr    *limiter.FPSLimiter

	// shared by reference with the bus. the GUI writes it between frames,
	// the bus reads it per instruction; both on this thread
	matrix [8]uint8

	speed            speedMode
	turboRenderCount int

	prevStatus string
}

func newEmulator(load string, disk string, wavFile string, scale int) (*emulator, error) {
	em := &emulator{
		lmtr: limiter.NewFPSLimiter(60),
	}

	bus := memory.NewBus()

	// a missing ROM is fatal: there is nothing to run
	if err := bus.LoadROM(resources.ROMPath(resources.ROMLevel2)); err != nil {
		fmt.Fprintf(os.Stderr, "place the Level II BASIC ROM in %s\n",
			resources.ROMPath(resources.ROMLevel2))
		return nil, err
	}

	// a missing disk image is not: warn and run from cassette alone
	if disk != "" {
		if err := bus.FDC.LoadDisk(0, disk); err != nil {
			logger.Logf("mal80", "%v", err)
		}
	}

	em.machine = hardware.NewMal80(bus)
	bus.SetKeyboardMatrix(&em.matrix)

	em.traps = trapper.NewTrapper(em.machine.CPU, bus)
	em.machine.AttachTrapper(em.traps)

	em.dbg = debugger.NewDebugger()
	em.machine.AttachMonitor(em.dbg)

	scr, err := sdlplay.NewSdlPlay(windowTitle, scale)
	if err != nil {
		return nil, err
	}
	em.scr = scr
	em.machine.AttachAudioMixer(scr)

	if wavFile != "" {
		em.wav = wavwriter.NewWavWriter(wavFile)
		em.machine.AttachAudioMixer(em.wav)
	}

	em.machine.Reset()

	if load != "" {
		em.traps.SetupFromCLI(load)
	}

	return em, nil
}

// run is the outer loop: one iteration per rendered frame until the
// window closes.
func (em *emulator) run() error {
	for em.scr.HandleEvents(&em.matrix) {
		// auto-select speed: turbo while keystroke injection is active
		desired := speedNormal
		if em.traps.Keys.Active() {
			desired = speedTurbo
		}
		if desired != em.speed {
			if em.speed == speedTurbo {
				// leaving turbo: drop the stale silence in the audio queue
				em.scr.ClearAudio()
				em.lmtr.Reset()
			}
			em.speed = desired
			em.turboRenderCount = 0
		}

		budget := uint64(hardware.TStatesPerFrame)
		if em.speed == speedTurbo {
			budget *= hardware.TurboMultiplier
		}

		// mute while the sound line carries cassette data, and in turbo
		audioActive := em.speed == speedNormal &&
			em.machine.Mem.Deck.State() == cassette.Idle

		em.machine.StepFrame(budget, audioActive)

		em.updateTitle()

		shouldRender := em.speed == speedNormal
		if !shouldRender {
			em.turboRenderCount++
			shouldRender = em.turboRenderCount%turboRenderEvery == 0
		}
		if shouldRender {
			em.scr.Render(em.machine.Mem)
		}

		if em.speed == speedNormal {
			em.scr.FlushAudio()
			em.lmtr.Wait()
		}
	}

	return em.shutdown()
}

// updateTitle reflects the cassette deck state and speed mode in the
// window title.
func (em *emulator) updateTitle() {
	status := em.machine.Mem.Deck.Status()
	if em.speed == speedTurbo {
		status += " [TURBO]"
	}
	if status == em.prevStatus {
		return
	}
	em.prevStatus = status

	if status == "" {
		em.scr.SetTitle(windowTitle)
	} else {
		em.scr.SetTitle(windowTitle + " - " + status)
	}
}

// shutdown drains the final state: an exit-time trace dump, the wav
// capture and the log.
func (em *emulator) shutdown() error {
	if em.dbg.HasEntries() {
		if err := em.dbg.Dump(em.machine.Mem); err != nil {
			logger.Logf("mal80", "%v", err)
		}
	}

	var err error
	if em.wav != nil {
		err = em.wav.End()
	}

	em.scr.Destroy()
	logger.Write(os.Stderr)

	return err
}
