// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package runtime_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Gurman8r/modus-sub002/internal/runtime"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestIO_FrameTiming(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	io := runtime.NewIO([]string{"modus", "run"}, runtime.WithClock(clock.now))

	end := io.BeginFrame()
	assert.True(t, math.IsInf(io.FPS(), 1), "no measured frames yet")
	clock.advance(10 * time.Millisecond)
	end()

	assert.Equal(t, uint64(1), io.Frame())
	assert.Equal(t, 10*time.Millisecond, io.Delta())

	for range runtime.FPSSamples {
		end = io.BeginFrame()
		clock.advance(10 * time.Millisecond)
		end()
	}
	assert.InDelta(t, 100.0, io.FPS(), 0.5)
	assert.Equal(t, uint64(runtime.FPSSamples+1), io.Frame())
	assert.Equal(t, time.Duration(runtime.FPSSamples+1)*10*time.Millisecond, io.Uptime())
}

func TestIO_FPSWarmUp(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	io := runtime.NewIO(nil, runtime.WithClock(clock.now))

	tests := []struct {
		name  string
		delta time.Duration
		want  float64
	}{
		{"first frame", 16 * time.Millisecond, 62.5},
		{"second frame", 16 * time.Millisecond, 62.5},
		{"third frame", 16 * time.Millisecond, 62.5},
		{"slower frame", 36 * time.Millisecond, 4 / 0.084},
	}

	// a frame enters the average when the next one begins
	end := io.BeginFrame()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.advance(tt.delta)
			end()
			end = io.BeginFrame()
			assert.InDelta(t, tt.want, io.FPS(), 0.01)
		})
	}
}

func TestIO_SessionAndArgs(t *testing.T) {
	args := []string{"modus", "-v"}
	a := runtime.NewIO(args)
	b := runtime.NewIO(nil)

	assert.NotEqual(t, a.Session(), b.Session())
	assert.Equal(t, args, a.Args())

	got := a.Args()
	got[0] = "changed"
	assert.Equal(t, "modus", a.Args()[0])
}
