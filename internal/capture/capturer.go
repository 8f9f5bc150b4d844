package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"firestige.xyz/bpsniff/internal/core"
	"firestige.xyz/bpsniff/internal/core/decoder"
	"firestige.xyz/bpsniff/internal/device"
	"firestige.xyz/bpsniff/internal/log"
	"firestige.xyz/bpsniff/internal/metrics"
)

// DefaultMaxReadErrors is the run of consecutive read failures after which a
// device is considered dead.
const DefaultMaxReadErrors = 64

// Handler consumes the segments decoded by a Capturer. Both methods are
// called from the Run goroutine only.
type Handler interface {
	HandleSegment(seg core.Segment)
	// Reset discards all stream and decoder state after a device switch.
	Reset()
}

// Options configures a Capturer.
type Options struct {
	MaxReadErrors int
}

// Capturer is the capture actor. Run owns the capture handle, the link
// decoder and, through the Handler, all stream state. Other goroutines talk
// to it only through SwitchDevice and observe it through Done and Err.
type Capturer struct {
	devices       []device.Device
	open          Opener
	handler       Handler
	maxReadErrors int

	switchCh chan int
	current  atomic.Int64
	done     chan struct{}
	once     sync.Once
	err      error
	log      *logrus.Entry
}

// New creates a capturer that starts on devices[initial].
func New(devices []device.Device, initial int, open Opener, h Handler, opts Options) *Capturer {
	if opts.MaxReadErrors <= 0 {
		opts.MaxReadErrors = DefaultMaxReadErrors
	}
	c := &Capturer{
		devices:       devices,
		open:          open,
		handler:       h,
		maxReadErrors: opts.MaxReadErrors,
		switchCh:      make(chan int, 1),
		done:          make(chan struct{}),
		log:           log.WithComponent("capture"),
	}
	c.current.Store(int64(initial))
	return c
}

// SwitchDevice asks the capture loop to move to devices[index]. It never
// blocks; when requests pile up only the latest is kept. The switch takes
// effect after the in-flight read returns.
func (c *Capturer) SwitchDevice(index int) {
	for {
		select {
		case c.switchCh <- index:
			return
		default:
		}
		select {
		case <-c.switchCh:
		default:
		}
	}
}

// Current returns the index of the device being captured.
func (c *Capturer) Current() int { return int(c.current.Load()) }

// Done is closed when Run returns.
func (c *Capturer) Done() <-chan struct{} { return c.done }

// Err returns the capture-fatal error, if any, once Done is closed.
func (c *Capturer) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Run captures until ctx is cancelled, an offline source is exhausted or the
// device fails. Only the last case returns an error.
func (c *Capturer) Run(ctx context.Context) error {
	metrics.CaptureRunning.Set(1)
	defer func() {
		metrics.CaptureRunning.Set(0)
		c.once.Do(func() { close(c.done) })
	}()

	index := c.Current()
	for {
		next, err := c.runDevice(ctx, index)
		if err != nil {
			c.err = err
			c.log.WithError(err).Error("capture stopped")
			return err
		}
		if next < 0 {
			return nil
		}

		c.handler.Reset()
		metrics.DeviceSwitchesTotal.Inc()
		metrics.ReassemblyResetsTotal.WithLabelValues("switch").Inc()
		index = next
		c.current.Store(int64(index))
	}
}

// runDevice captures on one device. It returns the index to switch to, or -1
// when capture should end.
func (c *Capturer) runDevice(ctx context.Context, index int) (int, error) {
	dev, err := device.ByIndex(c.devices, index)
	if err != nil {
		return -1, err
	}
	src, err := c.open(dev)
	if err != nil {
		return -1, fmt.Errorf("open %s: %w", dev.DisplayName, err)
	}
	defer src.Close()

	logger := c.log.WithField("device", dev.DisplayName).WithField("index", index)
	logger.Info("capture started")

	dec := decoder.New(src.LinkType())
	packets := metrics.CapturePacketsTotal.WithLabelValues(dev.DisplayName)
	readErrors := metrics.CaptureErrorsTotal.WithLabelValues(dev.DisplayName)
	failures := 0

	for {
		select {
		case <-ctx.Done():
			logger.Info("capture stopped")
			return -1, nil
		default:
		}

		raw, err := src.ReadPacket()
		switch {
		case err == nil:
			failures = 0
			packets.Inc()
			if seg, derr := dec.Decode(raw); derr == nil {
				c.handler.HandleSegment(seg)
			}
		case errors.Is(err, core.ErrCaptureTimeout):
		case errors.Is(err, io.EOF):
			logger.Info("capture source exhausted")
			return -1, nil
		default:
			failures++
			readErrors.Inc()
			logger.WithError(err).Warn("capture read failed")
			if failures >= c.maxReadErrors {
				return -1, fmt.Errorf("%w: %d consecutive read errors on %s: %v",
					core.ErrCaptureStopped, failures, dev.DisplayName, err)
			}
		}

		select {
		case next := <-c.switchCh:
			if _, err := device.ByIndex(c.devices, next); err != nil {
				logger.WithError(err).Warn("ignoring device switch")
				continue
			}
			logger.WithField("to", next).Info("switching device")
			return next, nil
		default:
		}
	}
}
