// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package observability

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Gurman8r/modus-sub002/internal/memory"
)

// pluginOperations counts plugin manager operations by outcome. The plugin
// manager records into it without holding a Server.
var pluginOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "modus_plugin_operations_total",
		Help: "Total number of plugin manager operations by operation and result",
	},
	[]string{"operation", "result"},
)

// RecordPluginOperation increments the plugin operation counter.
func RecordPluginOperation(operation, result string) {
	pluginOperations.WithLabelValues(operation, result).Inc()
}

// MemorySource reports allocator statistics.
type MemorySource interface {
	Stats() memory.Stats
}

// PluginSource reports installed plugins.
type PluginSource interface {
	Len() int
}

// BusSource reports event bus activity.
type BusSource interface {
	Listeners() int
	Fired() uint64
	Delivered() uint64
}

// LoopSource reports frame timing.
type LoopSource interface {
	Frame() uint64
	FPS() float64
}

// Sources are the runtime components a Collector reads. Nil sources are
// skipped.
type Sources struct {
	Memory  MemorySource
	Plugins PluginSource
	Bus     BusSource
	Loop    LoopSource
}

// Collector exports runtime state as Prometheus metrics at scrape time.
type Collector struct {
	src Sources

	memLive   *prometheus.Desc
	memBytes  *prometheus.Desc
	memAllocs *prometheus.Desc
	plugins   *prometheus.Desc
	listeners *prometheus.Desc
	fired     *prometheus.Desc
	delivered *prometheus.Desc
	frames    *prometheus.Desc
	fps       *prometheus.Desc
}

// NewCollector creates a collector over src.
func NewCollector(src Sources) *Collector {
	return &Collector{
		src:       src,
		memLive:   prometheus.NewDesc("modus_memory_live_blocks", "Blocks currently allocated through the shared allocator", nil, nil),
		memBytes:  prometheus.NewDesc("modus_memory_live_bytes", "Bytes currently allocated through the shared allocator", nil, nil),
		memAllocs: prometheus.NewDesc("modus_memory_allocations_total", "Total number of allocations made through the shared allocator", nil, nil),
		plugins:   prometheus.NewDesc("modus_plugins_installed", "Number of installed plugins", nil, nil),
		listeners: prometheus.NewDesc("modus_bus_listeners", "Number of distinct listeners subscribed on the bus", nil, nil),
		fired:     prometheus.NewDesc("modus_bus_events_fired_total", "Total number of events fired on the bus", nil, nil),
		delivered: prometheus.NewDesc("modus_bus_deliveries_total", "Total number of handler invocations", nil, nil),
		frames:    prometheus.NewDesc("modus_loop_frames_total", "Total number of frames processed", nil, nil),
		fps:       prometheus.NewDesc("modus_loop_fps", "Frames per second averaged over recent frames", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.memLive, c.memBytes, c.memAllocs, c.plugins,
		c.listeners, c.fired, c.delivered, c.frames, c.fps,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.src.Memory != nil {
		st := c.src.Memory.Stats()
		ch <- prometheus.MustNewConstMetric(c.memLive, prometheus.GaugeValue, float64(st.Live))
		ch <- prometheus.MustNewConstMetric(c.memBytes, prometheus.GaugeValue, float64(st.Bytes))
		ch <- prometheus.MustNewConstMetric(c.memAllocs, prometheus.CounterValue, float64(st.Allocations))
	}
	if c.src.Plugins != nil {
		ch <- prometheus.MustNewConstMetric(c.plugins, prometheus.GaugeValue, float64(c.src.Plugins.Len()))
	}
	if c.src.Bus != nil {
		ch <- prometheus.MustNewConstMetric(c.listeners, prometheus.GaugeValue, float64(c.src.Bus.Listeners()))
		ch <- prometheus.MustNewConstMetric(c.fired, prometheus.CounterValue, float64(c.src.Bus.Fired()))
		ch <- prometheus.MustNewConstMetric(c.delivered, prometheus.CounterValue, float64(c.src.Bus.Delivered()))
	}
	if c.src.Loop != nil {
		ch <- prometheus.MustNewConstMetric(c.frames, prometheus.CounterValue, float64(c.src.Loop.Frame()))
		if fps := c.src.Loop.FPS(); !math.IsInf(fps, 0) && !math.IsNaN(fps) {
			ch <- prometheus.MustNewConstMetric(c.fps, prometheus.GaugeValue, fps)
		}
	}
}
