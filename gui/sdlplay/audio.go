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

package sdlplay

import (
	"encoding/binary"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/harrowm/mal-80/logger"
)

// The machine has no speaker. Games toggle the cassette output line at
// audio frequencies and the cassette jack feeds an external amplifier.
// The amplifier path has an RC low-pass that rounds off the square wave
// and AC coupling that removes any DC bias; both are modelled with
// first-order IIR filters.
const (
	sampleRate = 44100

	// T-states per audio sample: 1774000 / 44100
	ticksPerSample = 40

	// low-pass alpha for a ~4kHz cutoff at 44.1kHz
	lpAlpha = 0.363

	// DC-blocking high-pass, ~7Hz cutoff
	hpAlpha = 0.999

	// half of full scale leaves headroom
	amplitude = 16384

	// cap on queued audio, to bound latency
	maxQueuedFrames = 4
	bytesPerFrame   = sampleRate / 60 * 2
)

// sound accumulates filtered samples during a frame and queues them to
// the SDL audio device once per frame.
type sound struct {
	device sdl.AudioDeviceID

	lpState float32
	hpState float32
	tickAcc int
	buf     []int16
}

// newSound opens the audio device. Returns nil on failure: audio is a
// non-fatal feature.
func newSound() *sound {
	spec := &sdl.AudioSpec{
		Freq:     sampleRate,
		Format:   sdl.AUDIO_S16SYS,
		Channels: 1,
		Samples:  512,
	}

	var actualSpec sdl.AudioSpec
	device, err := sdl.OpenAudioDevice("", false, spec, &actualSpec, 0)
	if err != nil {
		logger.Logf("sdlplay", "no audio: %v", err)
		return nil
	}

	sdl.PauseAudioDevice(device, false)
	return &sound{device: device}
}

// Update implements the hardware.AudioMixer interface. Called once per
// CPU step with the state of the sound line and the T-states consumed.
func (snd *sound) Update(soundBit bool, ticks int, active bool) {
	if snd == nil {
		return
	}

	raw := float32(0)
	if active && soundBit {
		raw = 1.0
	}

	snd.tickAcc += ticks
	for snd.tickAcc >= ticksPerSample {
		snd.tickAcc -= ticksPerSample

		// low-pass then DC block
		snd.lpState += lpAlpha * (raw - snd.lpState)
		out := snd.lpState - snd.hpState
		snd.hpState += (1 - hpAlpha) * out

		snd.buf = append(snd.buf, int16(out*amplitude))
	}
}

// Flush queues the accumulated samples. Call once per rendered frame in
// normal speed mode.
func (snd *sound) Flush() {
	if snd == nil || len(snd.buf) == 0 {
		return
	}

	// bound latency by dropping the frame when the queue is already deep
	if sdl.GetQueuedAudioSize(snd.device) < maxQueuedFrames*bytesPerFrame {
		data := make([]byte, len(snd.buf)*2)
		for i, s := range snd.buf {
			binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
		}
		_ = sdl.QueueAudio(snd.device, data)
	}

	snd.buf = snd.buf[:0]
}

// Clear discards buffered and queued samples. Call when leaving turbo
// mode so stale silence does not play ahead of live audio.
func (snd *sound) Clear() {
	if snd == nil {
		return
	}
	snd.buf = snd.buf[:0]
	sdl.ClearQueuedAudio(snd.device)
}

func (snd *sound) destroy() {
	if snd == nil {
		return
	}
	sdl.CloseAudioDevice(snd.device)
}
