// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package runtime

import (
	"crypto/rand"
	"math"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// FPSSamples is the number of frame deltas averaged into FPS.
const FPSSamples = 120

// IO is the frame timing block of a run. Frames are measured by pairing
// BeginFrame with the function it returns.
//
// IO is safe for concurrent use so metrics can be read off the loop
// goroutine.
type IO struct {
	mu      sync.Mutex
	now     func() time.Time
	session ulid.ULID
	args    []string
	started time.Time

	frame     uint64
	delta     time.Duration
	samples   [FPSSamples]float64
	index     int
	filled    int
	accum     float64
	fps       float64
	frameFrom time.Time
}

// IOOption configures an IO.
type IOOption func(*IO)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) IOOption {
	return func(io *IO) {
		io.now = now
	}
}

// NewIO creates a timing block for a run started with args.
func NewIO(args []string, opts ...IOOption) *IO {
	io := &IO{
		now:  time.Now,
		args: append([]string(nil), args...),
	}
	for _, opt := range opts {
		opt(io)
	}
	io.started = io.now()
	io.session = ulid.MustNew(ulid.Timestamp(io.started), rand.Reader)
	return io
}

// BeginFrame starts timing a frame. The FPS average is updated from the
// previous frame's delta; the returned function ends the frame, recording
// its delta and incrementing the frame count.
func (io *IO) BeginFrame() (end func()) {
	io.mu.Lock()
	io.frameFrom = io.now()

	if io.frame > 0 {
		dt := io.delta.Seconds()
		io.accum += dt - io.samples[io.index]
		io.samples[io.index] = dt
		io.index = (io.index + 1) % FPSSamples
		io.filled = min(io.filled+1, FPSSamples)
	}
	if io.accum > 0 {
		io.fps = float64(io.filled) / io.accum
	} else {
		io.fps = math.Inf(1)
	}
	io.mu.Unlock()

	return func() {
		io.mu.Lock()
		defer io.mu.Unlock()
		io.frame++
		io.delta = io.now().Sub(io.frameFrom)
	}
}

// Frame returns the number of completed frames.
func (io *IO) Frame() uint64 {
	io.mu.Lock()
	defer io.mu.Unlock()
	return io.frame
}

// Delta returns the duration of the last completed frame.
func (io *IO) Delta() time.Duration {
	io.mu.Lock()
	defer io.mu.Unlock()
	return io.delta
}

// FPS returns frames per second averaged over the last FPSSamples frames,
// or over every completed frame while fewer have run.
// It is +Inf before any frame has taken measurable time.
func (io *IO) FPS() float64 {
	io.mu.Lock()
	defer io.mu.Unlock()
	return io.fps
}

// Uptime returns the time since the IO was created.
func (io *IO) Uptime() time.Duration {
	return io.now().Sub(io.started)
}

// Session returns the run's unique identifier.
func (io *IO) Session() ulid.ULID { return io.session }

// Args returns the command-line arguments of the run.
func (io *IO) Args() []string { return append([]string(nil), io.args...) }
