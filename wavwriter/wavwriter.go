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

// Package wavwriter captures the 1-bit sound line to a WAV file on disk.
// Samples are buffered in memory in their entirety and written on program
// end, so it is most suitable for capturing short sessions and for
// testing.
package wavwriter

import (
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/harrowm/mal-80/curated"
	"github.com/harrowm/mal-80/logger"
)

const (
	sampleRate = 44100

	// T-states per audio sample: 1774000 / 44100
	ticksPerSample = 40

	// the same output filter as the live audio path
	lpAlpha   = 0.363
	hpAlpha   = 0.999
	amplitude = 16384
)

// sentinel error.
const WavError = "wavwriter: %v"

// WavWriter implements the hardware.AudioMixer interface.
type WavWriter struct {
	filename string

	lpState float32
	hpState float32
	tickAcc int
	buffer  []int
}

// NewWavWriter is the preferred method of initialisation for the
// WavWriter type.
func NewWavWriter(filename string) *WavWriter {
	return &WavWriter{filename: filename}
}

// Update implements the hardware.AudioMixer interface.
func (aw *WavWriter) Update(soundBit bool, ticks int, active bool) {
	raw := float32(0)
	if active && soundBit {
		raw = 1.0
	}

	aw.tickAcc += ticks
	for aw.tickAcc >= ticksPerSample {
		aw.tickAcc -= ticksPerSample

		aw.lpState += lpAlpha * (raw - aw.lpState)
		out := aw.lpState - aw.hpState
		aw.hpState += (1 - hpAlpha) * out

		aw.buffer = append(aw.buffer, int(out*amplitude))
	}
}

// End writes the buffered audio to disk.
func (aw *WavWriter) End() (rerr error) {
	f, err := os.Create(aw.filename)
	if err != nil {
		return curated.Errorf(WavError, err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = curated.Errorf(WavError, err)
		}
	}()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           aw.buffer,
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		return curated.Errorf(WavError, err)
	}
	if err := enc.Close(); err != nil {
		return curated.Errorf(WavError, err)
	}

	logger.Logf("wavwriter", "wrote %d samples to %s", len(aw.buffer), aw.filename)
	return nil
}
