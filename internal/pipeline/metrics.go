package pipeline

import "sync/atomic"

// Stats contains the pipeline counters. They are written by the capture
// goroutine and may be read from anywhere.
type Stats struct {
	Segments      atomic.Uint64
	ServerChanges atomic.Uint64
	Frames        atomic.Uint64
	Events        atomic.Uint64
	Resets        atomic.Uint64
}

func (s *Stats) snapshot() StatsSnapshot {
	return StatsSnapshot{
		Segments:      s.Segments.Load(),
		ServerChanges: s.ServerChanges.Load(),
		Frames:        s.Frames.Load(),
		Events:        s.Events.Load(),
		Resets:        s.Resets.Load(),
	}
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Segments      uint64
	ServerChanges uint64
	Frames        uint64
	Events        uint64
	Resets        uint64
}
