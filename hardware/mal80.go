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

package hardware

import (
	"github.com/harrowm/mal-80/hardware/cpu"
	"github.com/harrowm/mal-80/hardware/memory"
)

// T-state budgets for the frame driver.
const (
	// one 60Hz frame worth of T-states at the 1.77408 MHz clock
	TStatesPerFrame = 29498

	// the turbo multiplier applied while the key-injection queue drains
	TurboMultiplier = 100

	// IM1 interrupt acceptance: two T-states to sample the bus plus the
	// push and jump
	interruptTStates = 13
)

// Trapper is the ROM entry-point watcher polled before every CPU step. The
// returned T-states are charged when the trap fires; skip means the trap
// replaced the instruction entirely and the CPU must not step this cycle.
type Trapper interface {
	Probe() (ticks int, skip bool)
}

// Monitor records CPU state ahead of every step and watches for freezes. A
// true return from CheckFreeze asks for a dump.
type Monitor interface {
	Record(z *cpu.CPU, tstates uint64)
	CheckFreeze(pc uint16) bool
	Dump(bus *memory.Bus) error
}

// AudioMixer consumes the 1-bit sound line once per CPU step. active is
// false while the line is carrying cassette data or the machine is in
// turbo, when the output must be muted.
type AudioMixer interface {
	Update(soundBit bool, ticks int, active bool)
}

// Mal80 is the whole machine: the CPU, the bus (which owns the cassette
// deck and disk controller), and the attachment points for the passive
// collaborators.
type Mal80 struct {
	CPU *cpu.CPU
	Mem *memory.Bus

	// the trap layer, monitor and audio mixers are optional. a bare
	// machine runs without them, which is what the scenario tests do
	Traps  Trapper
	Mon    Monitor
	Mixers []AudioMixer

	// total T-states since power on, as charged by the frame driver
	TotalTStates uint64
}

// NewMal80 creates the machine around a prepared bus.
func NewMal80(bus *memory.Bus) *Mal80 {
	return &Mal80{
		CPU: cpu.NewCPU(bus),
		Mem: bus,
	}
}

// AttachTrapper connects the ROM trap layer.
func (m *Mal80) AttachTrapper(t Trapper) {
	m.Traps = t
}

// AttachMonitor connects the debugger.
func (m *Mal80) AttachMonitor(mon Monitor) {
	m.Mon = mon
}

// AttachAudioMixer adds a consumer of the 1-bit sound line.
func (m *Mal80) AttachAudioMixer(mix AudioMixer) {
	m.Mixers = append(m.Mixers, mix)
}

// Reset puts the machine into its power-on state.
func (m *Mal80) Reset() {
	m.CPU.Reset()
	m.CPU.Reg.PC = 0x0000
	m.Mem.Reset()
	m.TotalTStates = 0
}

// StepFrame runs the machine for a budget of T-states: the trap probe, the
// debugger, one CPU instruction, bus tick accounting, the audio sample,
// interrupt acceptance, and the cassette idle transitions, in that order,
// until the budget is spent.
//
// audioActive mutes the mixers when false (cassette IO or turbo mode).
func (m *Mal80) StepFrame(budget uint64, audioActive bool) {
	frame := uint64(0)

	for frame < budget {
		if m.Traps != nil {
			if ticks, skip := m.Traps.Probe(); skip {
				m.Mem.AddTicks(ticks)
				frame += uint64(ticks)
				m.TotalTStates += uint64(ticks)
				continue
			}
		}

		if m.Mon != nil {
			m.Mon.Record(m.CPU, m.TotalTStates)
			if m.Mon.CheckFreeze(m.CPU.Reg.PC) {
				// the monitor latches, so at most one dump per run. a dump
				// failure is already logged
				_ = m.Mon.Dump(m.Mem)
			}
		}

		ticks := m.CPU.Step()
		m.Mem.AddTicks(ticks)
		frame += uint64(ticks)
		m.TotalTStates += uint64(ticks)

		for _, mix := range m.Mixers {
			mix.Update(m.Mem.SoundBit(), ticks, audioActive)
		}

		if m.Mem.InterruptPending() && m.CPU.Reg.IFF1 {
			m.acceptInterrupt()
			frame += interruptTStates
		}

		now := m.Mem.TStates()
		if m.Mem.Deck.RecordingIdle(now) || m.Mem.Deck.PlaybackDone(now) {
			m.Mem.Deck.Stop()
		}
	}
}

// acceptInterrupt performs IM1 interrupt acceptance. The Model I wires both
// the 60Hz timer and the FDC INTRQ to the maskable interrupt line.
//
// Acceptance copies IFF1 into IFF2 before clearing IFF1: RETI restores
// IFF1 from IFF2, so clearing both here would permanently disable
// interrupts.
func (m *Mal80) acceptInterrupt() {
	m.Mem.ClearInterrupt()

	m.CPU.Reg.IFF2 = m.CPU.Reg.IFF1
	m.CPU.Reg.IFF1 = false

	if m.CPU.Reg.Halted {
		// wake: execution resumes after the HALT instruction
		m.CPU.Reg.Halted = false
		m.CPU.Reg.PC++
	}

	// push the return address and jump to the IM1 vector
	sp := m.CPU.Reg.SP - 2
	ret := m.CPU.Reg.PC
	m.Mem.Write(sp, uint8(ret))
	m.Mem.Write(sp+1, uint8(ret>>8))
	m.CPU.Reg.SP = sp
	m.CPU.Reg.PC = 0x0038

	m.Mem.AddTicks(interruptTStates)
	m.TotalTStates += interruptTStates
}
