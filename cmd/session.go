package cmd

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"firestige.xyz/bpsniff/internal/capture"
	"firestige.xyz/bpsniff/internal/config"
	"firestige.xyz/bpsniff/internal/device"
	"firestige.xyz/bpsniff/internal/log"
	"firestige.xyz/bpsniff/internal/metrics"
	"firestige.xyz/bpsniff/internal/mobs"
	"firestige.xyz/bpsniff/internal/pipeline"
	"firestige.xyz/bpsniff/internal/sink"
	"firestige.xyz/bpsniff/internal/sink/console"
	"firestige.xyz/bpsniff/internal/sink/feed"
)

// session is one run of the capture pipeline, live or from a file.
type session struct {
	cfg     *config.GlobalConfig
	devices []device.Device
	initial int
	open    capture.Opener
	out     io.Writer // console sink destination
	live    bool      // serve the websocket feed and metrics
}

// run wires capture, pipeline and sinks and blocks until capture ends or ctx
// is cancelled. Queued events are flushed before it returns.
func (s session) run(ctx context.Context) error {
	logger := log.WithComponent("session")

	catalog, watcher, err := loadCatalog(s.cfg.Mobs)
	if err != nil {
		return err
	}

	queue := sink.NewQueue(s.cfg.Sink.QueueCapacity)
	p, err := pipeline.NewBuilder().
		WithStream(s.cfg.Stream).
		WithDecoder(s.cfg.Decoder).
		WithCatalog(catalog).
		WithOutput(queue).
		Build()
	if err != nil {
		return err
	}
	defer p.Close()

	c := capture.New(s.devices, s.initial, s.open, p, capture.Options{MaxReadErrors: s.cfg.Capture.MaxReadError})

	var sinks []sink.Sink
	if s.cfg.Sink.Console.Enabled {
		cs, err := console.NewSink(s.out, s.cfg.Sink.Console.Format)
		if err != nil {
			return err
		}
		sinks = append(sinks, cs)
	}
	var fd *feed.Feed
	if s.live && s.cfg.Sink.WebSocket.Enabled {
		fd = feed.New(s.cfg.Sink.WebSocket.Listen, s.cfg.Sink.WebSocket.Path, c)
		sinks = append(sinks, fd)
	}

	g, gctx := errgroup.WithContext(ctx)
	// Everything else stops once capture returns.
	runCtx, stop := context.WithCancel(gctx)
	defer stop()

	g.Go(func() error {
		defer stop()
		return c.Run(runCtx)
	})
	g.Go(func() error {
		return sink.NewDispatcher(queue, sinks...).Run(runCtx)
	})
	if fd != nil {
		g.Go(func() error { return fd.Run(runCtx) })
	}
	if s.live && s.cfg.Metrics.Enabled {
		srv := metrics.NewServer(s.cfg.Metrics.Listen, s.cfg.Metrics.Path)
		g.Go(func() error { return srv.Run(runCtx) })
	}
	if watcher != nil {
		g.Go(func() error { return watcher.Watch(runCtx) })
	}

	err = g.Wait()
	stats := p.Stats()
	logger.WithField("segments", stats.Segments).
		WithField("frames", stats.Frames).
		WithField("events", stats.Events).
		WithField("server_changes", stats.ServerChanges).
		WithField("events_dropped", queue.Dropped()).
		Info("session finished")
	return err
}

// loadCatalog returns the configured monster catalog and, when the file
// should be watched, the catalog to watch.
func loadCatalog(mc config.MobsConfig) (mobs.Catalog, *mobs.FileCatalog, error) {
	if mc.CatalogFile == "" {
		return mobs.Static(), nil, nil
	}
	fc, err := mobs.LoadFile(mc.CatalogFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load mob catalog: %w", err)
	}
	if !mc.Watch {
		return fc, nil, nil
	}
	return fc, fc, nil
}
