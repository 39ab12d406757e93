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

package cassette_test

import (
	"testing"

	"github.com/harrowm/mal-80/hardware/cassette"
	"github.com/harrowm/mal-80/test"
)

// driveEdges emits the FSK rising-edge sequence for a byte stream into a
// recording deck, at the canonical encoding timings.
func driveEdges(d *cassette.Deck, data []uint8, start uint64) uint64 {
	now := start

	pulse := func(at uint64) {
		d.Edge(0x01, at)
		d.Edge(0x00, at)
	}

	for _, v := range data {
		for bit := 7; bit >= 0; bit-- {
			if v>>uint(bit)&0x01 == 0 {
				// one full cycle per cell
				pulse(now)
			} else {
				// two cycles per cell
				pulse(now)
				pulse(now + cassette.BitPeriod/2)
			}
			now += cassette.BitPeriod
		}
	}

	// one trailing edge so the final bit's interval is measurable
	pulse(now)
	return now
}

func TestRecordingRoundTrip(t *testing.T) {
	d := cassette.NewDeck()
	d.Record(0)

	payload := []uint8{0xa5, 0x55, 0x01, 0x02, 0x03}
	driveEdges(d, payload, 10000)

	rec := d.Recorded()
	test.DemandEquality(t, len(rec), len(payload))
	for i := range payload {
		test.ExpectEquality(t, rec[i], payload[i])
	}
}

func TestRecordingIdleReset(t *testing.T) {
	d := cassette.NewDeck()
	d.Record(0)

	// a first block, then silence far beyond the idle timeout, then a
	// second block. the second block must decode cleanly: the long gap is a
	// reset, not a zero bit
	end := driveEdges(d, []uint8{0xaa}, 10000)
	driveEdges(d, []uint8{0x55}, end+cassette.IdleTimeout*2)

	rec := d.Recorded()
	test.DemandEquality(t, len(rec), 2)
	test.ExpectEquality(t, rec[0], uint8(0xaa))
	test.ExpectEquality(t, rec[1], uint8(0x55))
}

func TestRecordingFlushPadsPartialByte(t *testing.T) {
	d := cassette.NewDeck()
	d.Record(0)

	// four one-bits and no more edges. Stop() must left-pad to 0xf0
	now := uint64(10000)
	for i := 0; i < 4; i++ {
		d.Edge(0x01, now)
		d.Edge(0x00, now)
		d.Edge(0x01, now+cassette.BitPeriod/2)
		d.Edge(0x00, now+cassette.BitPeriod/2)
		now += cassette.BitPeriod
	}
	d.Edge(0x01, now)

	d.Stop()
	rec := d.Recorded()
	test.DemandEquality(t, len(rec), 1)
	test.ExpectEquality(t, rec[0], uint8(0xf0))
	test.ExpectEquality(t, d.State(), cassette.Idle)
}

func TestIdleSignalToggles(t *testing.T) {
	d := cassette.NewDeck()

	// the idle line must change state within any 2000 T-state window
	first := d.Signal(0)
	changed := false
	for now := uint64(0); now < 2500; now += 100 {
		if d.Signal(now) != first {
			changed = true
			break
		}
	}
	test.ExpectEquality(t, changed, true)
}

func TestPlaybackLeadIn(t *testing.T) {
	d := cassette.NewDeck()
	d.SetImage([]uint8{0xff})
	d.Play(1000)

	// the first half bit-period is always low
	for now := uint64(1000); now < 1000+cassette.BitPeriod/2; now += 100 {
		test.ExpectEquality(t, d.Signal(now), false)
	}

	// immediately after the lead-in the first (one) bit starts high
	test.ExpectEquality(t, d.Signal(1000+cassette.BitPeriod/2), true)
}

// the loop-back law: play an image, sample the line, feed the edges to a
// recording deck, and recover the original bytes.
func TestPlaybackRecordingLoopBack(t *testing.T) {
	payload := []uint8{0x00, 0xa5, 0x55, 0x01, 0x02, 0x03, 0xfe, 0x80, 0x7f}

	play := cassette.NewDeck()
	play.SetImage(payload)
	play.Play(0)

	rec := cassette.NewDeck()
	rec.Record(0)

	// sample well past the end of the image so the final bits are
	// terminated by the zero tail
	end := uint64((len(payload) + 4) * 8 * cassette.BitPeriod)
	prev := false
	for now := uint64(0); now < end; now += 10 {
		s := play.Signal(now)
		if s != prev {
			if s {
				rec.Edge(0x01, now)
			} else {
				rec.Edge(0x00, now)
			}
			prev = s
		}
	}

	got := rec.Recorded()
	if len(got) < len(payload) {
		t.Fatalf("recovered only %d of %d bytes", len(got), len(payload))
	}
	for i := range payload {
		test.ExpectEquality(t, got[i], payload[i])
	}

	// everything after the payload is the zero tail
	for i := len(payload); i < len(got); i++ {
		test.ExpectEquality(t, got[i], uint8(0x00))
	}
}

func TestPlaybackDone(t *testing.T) {
	d := cassette.NewDeck()
	d.SetImage([]uint8{0x01, 0x02})
	d.Play(0)

	test.ExpectEquality(t, d.PlaybackDone(0), false)

	// still inside the zero-padding tail
	inTail := uint64(100 * 8 * cassette.BitPeriod)
	test.ExpectEquality(t, d.PlaybackDone(inTail), false)

	// well beyond the tail
	past := uint64((2 + 501) * 8 * cassette.BitPeriod)
	test.ExpectEquality(t, d.PlaybackDone(past), true)
}

func TestRealign(t *testing.T) {
	d := cassette.NewDeck()
	d.SetImage([]uint8{0xa5, 0x12, 0x34})
	d.Play(0)

	// wander into the middle of byte 1
	now := uint64(cassette.BitPeriod/2 + cassette.BitPeriod*8 + cassette.BitPeriod*3 + 17)
	b, bit := d.Position(now)
	test.ExpectEquality(t, b, 1)
	test.ExpectEquality(t, bit, 3)

	// realignment snaps the current moment back to the start of byte 1
	d.Realign(now)
	b, bit = d.Position(now)
	test.ExpectEquality(t, b, 1)
	test.ExpectEquality(t, bit, 0)
}

func TestRecordingIdleDetection(t *testing.T) {
	d := cassette.NewDeck()
	d.Record(1000)

	test.ExpectEquality(t, d.RecordingIdle(1000), false)
	test.ExpectEquality(t, d.RecordingIdle(1000+cassette.IdleTimeout+1), true)

	// activity pushes the deadline out
	d.Edge(0x01, 5000)
	test.ExpectEquality(t, d.RecordingIdle(5000+cassette.IdleTimeout), false)
}
