// Package console prints events to a writer, one per line.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"firestige.xyz/bpsniff/internal/event"
	"firestige.xyz/bpsniff/internal/log"
)

const Name = "console"

// Sink writes events as JSON envelopes or as short text lines.
type Sink struct {
	format  string // "json" or "text"
	w       *bufio.Writer
	log     *logrus.Entry
	sent    atomic.Uint64
	skipped atomic.Uint64
}

// NewSink creates a console sink writing to w; a nil w means stdout.
func NewSink(w io.Writer, format string) (*Sink, error) {
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "text" {
		return nil, fmt.Errorf("invalid format %q, must be json or text", format)
	}
	if w == nil {
		w = os.Stdout
	}
	return &Sink{format: format, w: bufio.NewWriter(w), log: log.WithComponent("console")}, nil
}

func (s *Sink) Name() string { return Name }

// Send writes the batch and flushes it. An event that cannot be encoded is
// logged and skipped.
func (s *Sink) Send(_ context.Context, evs []event.Event) error {
	for _, ev := range evs {
		var line []byte
		if s.format == "json" {
			data, err := event.Marshal(ev)
			if err != nil {
				s.skipped.Add(1)
				s.log.WithError(err).WithField("type", ev.Kind()).Warn("skipping event")
				continue
			}
			line = data
		} else {
			line = []byte(Text(ev))
		}
		if _, err := s.w.Write(line); err != nil {
			return err
		}
		if err := s.w.WriteByte('\n'); err != nil {
			return err
		}
		s.sent.Add(1)
	}
	return s.w.Flush()
}

// Sent returns the number of events written.
func (s *Sink) Sent() uint64 { return s.sent.Load() }

// Skipped returns the number of events that could not be encoded.
func (s *Sink) Skipped() uint64 { return s.skipped.Load() }

func (s *Sink) Close() error { return s.w.Flush() }

// Text renders ev as a single human-readable line.
func Text(ev event.Event) string {
	var b strings.Builder
	b.WriteString(string(ev.Kind()))
	switch e := ev.(type) {
	case event.Damage:
		fmt.Fprintf(&b, " uid=%d value=%d%s%s", e.PlayerUID, e.Damage, flag(e.IsCrit, "crit"), flag(e.IsLucky, "lucky"))
	case event.Healing:
		fmt.Fprintf(&b, " uid=%d value=%d%s%s", e.PlayerUID, e.Healing, flag(e.IsCrit, "crit"), flag(e.IsLucky, "lucky"))
	case event.DamageTaken:
		fmt.Fprintf(&b, " uid=%d hp_lessen=%d%s%s", e.PlayerUID, e.HpLessen, flag(e.IsMiss, "miss"), flag(e.IsDead, "dead"))
	case event.PlayerName:
		fmt.Fprintf(&b, " uid=%d name=%q", e.PlayerUID, e.Name)
	case event.EntityPosition:
		fmt.Fprintf(&b, " uuid=%d type=%s", e.UUID, e.EntityType)
		if e.Position != nil {
			fmt.Fprintf(&b, " pos=(%.1f,%.1f,%.1f)", e.Position.X, e.Position.Y, e.Position.Z)
		}
		if e.MobBaseID != nil {
			fmt.Fprintf(&b, " mob=%d", *e.MobBaseID)
		}
		if e.CurrentHP != nil {
			fmt.Fprintf(&b, " hp=%d", *e.CurrentHP)
		}
		if e.MaxHP != nil {
			fmt.Fprintf(&b, " max_hp=%d", *e.MaxHP)
		}
	case event.LocalPlayerPosition:
		fmt.Fprintf(&b, " pos=(%.1f,%.1f,%.1f)", e.Position.X, e.Position.Y, e.Position.Z)
	case event.ServerChange:
		fmt.Fprintf(&b, " server=%s", e.ServerEndpoint)
	case event.PlayerAccountInfo:
		fmt.Fprintf(&b, " uid=%d account=%s", e.UID, e.AccountID)
	case event.PlayerLineInfo:
		fmt.Fprintf(&b, " line=%d", e.LineID)
	case event.ModuleData:
		fmt.Fprintf(&b, " modules=%d", len(e.Modules))
	}
	return b.String()
}

func flag(set bool, name string) string {
	if set {
		return " " + name
	}
	return ""
}
