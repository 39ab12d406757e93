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

// Package limiter paces the emulation to a fixed frame rate.
//
//	lmtr := limiter.NewFPSLimiter(60)
//	for {
//		stepFrame()
//		render()
//		lmtr.Wait()
//	}
//
// Wait() sleeps away whatever remains of the frame period, compensating
// for drift between frames. When the emulation falls behind, Wait()
// returns immediately rather than trying to catch up.
package limiter

import (
	"time"
)

// FPSLimiter stalls the caller to a fixed number of events per second.
type FPSLimiter struct {
	period   time.Duration
	deadline time.Time
}

// NewFPSLimiter is the preferred method of initialisation for the
// FPSLimiter type.
func NewFPSLimiter(framesPerSecond int) *FPSLimiter {
	lim := &FPSLimiter{}
	lim.SetLimit(framesPerSecond)
	return lim
}

// SetLimit changes the rate at which Wait() triggers.
func (lim *FPSLimiter) SetLimit(framesPerSecond int) {
	lim.period = time.Second / time.Duration(framesPerSecond)
	lim.deadline = time.Now().Add(lim.period)
}

// Wait blocks until the current frame period has elapsed.
func (lim *FPSLimiter) Wait() {
	now := time.Now()
	if now.Before(lim.deadline) {
		time.Sleep(lim.deadline.Sub(now))
		lim.deadline = lim.deadline.Add(lim.period)
		return
	}

	// running behind. rebase rather than accumulate debt
	lim.deadline = now.Add(lim.period)
}

// Reset forgets any accumulated drift. Call when returning from turbo
// mode.
func (lim *FPSLimiter) Reset() {
	lim.deadline = time.Now().Add(lim.period)
}
