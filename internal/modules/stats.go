// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package modules

import (
	"encoding/binary"
	"log/slog"
	"sync"
	"time"

	"github.com/Gurman8r/modus-sub002/internal/event"
	"github.com/Gurman8r/modus-sub002/internal/plugin"
	"github.com/Gurman8r/modus-sub002/internal/runtime"
	"github.com/Gurman8r/modus-sub002/pkg/abi"
	"github.com/Gurman8r/modus-sub002/pkg/errutil"
)

// StatsSamples is the number of frame deltas the stats module keeps.
const StatsSamples = 256

const sampleSize = 8

// Summary describes the frames observed by a stats instance.
type Summary struct {
	Frames uint64        `json:"frames"`
	Min    time.Duration `json:"min"`
	Max    time.Duration `json:"max"`
	Mean   time.Duration `json:"mean"`
	// Recent is the mean over the retained window of samples.
	Recent time.Duration `json:"recent"`
}

// statsModule records frame deltas in a ring held in the shared allocator.
type statsModule struct {
	*plugin.Plugin
	logger *slog.Logger

	mu      sync.Mutex
	samples []byte
	next    int
	filled  int
	summary Summary
	total   time.Duration
}

var stats abi.Table[statsModule]

func createStats(host, user abi.Ref) abi.Ref {
	m := plugin.FromRef(host)
	if m == nil {
		return 0
	}
	logger := loggerFrom(m.UserData(user)).With("module", Stats)

	buf, err := m.Context().Memory().AllocateN(StatsSamples, sampleSize)
	if err != nil {
		errutil.LogError(logger, "allocate sample buffer", err)
		return 0
	}

	s := &statsModule{logger: logger, samples: buf}
	s.Plugin = plugin.NewPlugin(host, user, s)
	s.Subscribe(
		event.TypeOf[runtime.FrameEvent](),
		event.TypeOf[runtime.ExitEvent](),
	)
	return stats.Put(s)
}

func destroyStats(_, inst abi.Ref) {
	s := stats.Take(inst)
	if s == nil {
		return
	}
	s.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Memory().Deallocate(s.samples)
	s.samples = nil
}

func (s *statsModule) OnEvent(ev event.Event) {
	switch ev := ev.(type) {
	case runtime.FrameEvent:
		s.record(ev.Delta)
	case runtime.ExitEvent:
		sum := s.Summary()
		s.logger.Info("frame statistics",
			"frames", sum.Frames,
			"min", sum.Min,
			"max", sum.Max,
			"mean", sum.Mean,
			"recent", sum.Recent)
	}
}

func (s *statsModule) record(delta time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.samples == nil {
		return
	}
	binary.LittleEndian.PutUint64(s.samples[s.next*sampleSize:], uint64(delta))
	s.next = (s.next + 1) % StatsSamples
	if s.filled < StatsSamples {
		s.filled++
	}

	sum := &s.summary
	if sum.Frames == 0 || delta < sum.Min {
		sum.Min = delta
	}
	if delta > sum.Max {
		sum.Max = delta
	}
	sum.Frames++
	s.total += delta
}

// Summary returns the statistics gathered so far.
func (s *statsModule) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := s.summary
	if sum.Frames > 0 {
		sum.Mean = s.total / time.Duration(sum.Frames)
	}
	if s.filled > 0 {
		var window time.Duration
		for i := range s.filled {
			window += time.Duration(binary.LittleEndian.Uint64(s.samples[i*sampleSize:]))
		}
		sum.Recent = window / time.Duration(s.filled)
	}
	return sum
}

// StatsSummary returns the summary of the stats instance behind ref.
func StatsSummary(ref abi.Ref) (Summary, bool) {
	s := stats.Get(ref)
	if s == nil {
		return Summary{}, false
	}
	return s.Summary(), true
}
