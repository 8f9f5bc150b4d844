// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CapturePacketsTotal counts link-layer frames read per device
	CapturePacketsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bpsniff_capture_packets_total",
			Help: "Total number of frames read from the capture source",
		},
		[]string{"device"},
	)

	// CaptureErrorsTotal counts non-timeout read errors
	CaptureErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bpsniff_capture_errors_total",
			Help: "Total number of non-timeout capture read errors",
		},
		[]string{"device"},
	)

	// CaptureRunning is 1 while the capture loop runs
	CaptureRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bpsniff_capture_running",
			Help: "Whether the capture loop is running (1) or stopped (0)",
		},
	)

	// DeviceSwitchesTotal counts processed device-switch requests
	DeviceSwitchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bpsniff_capture_device_switches_total",
			Help: "Total number of device switches",
		},
	)

	// SegmentsTotal counts TCP segments by how the tracker handled them
	SegmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bpsniff_stream_segments_total",
			Help: "Total number of TCP segments seen by the stream tracker",
		},
		[]string{"result"}, // matched | unmatched | detected | discarded
	)

	// ServerChangesTotal counts detected game server conversations
	ServerChangesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bpsniff_stream_server_changes_total",
			Help: "Total number of game server conversations detected",
		},
	)

	// ReassemblyResetsTotal counts forced resyncs and idle reconnects
	ReassemblyResetsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bpsniff_stream_resets_total",
			Help: "Total number of reassembly resets",
		},
		[]string{"reason"}, // gap | idle | switch
	)

	// FramesTotal counts application frames by message type
	FramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bpsniff_decoder_frames_total",
			Help: "Total number of application frames decoded",
		},
		[]string{"type"},
	)

	// FramesDroppedTotal counts frames abandoned by the decoder
	FramesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bpsniff_decoder_frames_dropped_total",
			Help: "Total number of frames dropped during decoding",
		},
		[]string{"reason"}, // short | decompress | payload | depth | resync_byte
	)

	// EventsTotal counts emitted events by kind
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bpsniff_events_total",
			Help: "Total number of events emitted",
		},
		[]string{"kind"},
	)

	// EventsDroppedTotal counts events evicted from the full queue
	EventsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bpsniff_events_dropped_total",
			Help: "Total number of events dropped by the bounded queue",
		},
	)

	// RegistryEntries tracks the UUID registry size
	RegistryEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bpsniff_registry_entries",
			Help: "Number of entity UUIDs with a known base id",
		},
	)

	// FeedClients tracks connected websocket clients
	FeedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bpsniff_feed_clients",
			Help: "Number of connected event feed clients",
		},
	)
)
