// Package capture wraps the platform audio device behind a small state
// machine: Idle -> AwaitingPermission -> Recording -> Finalizing -> Idle.
package capture

import (
	"context"
	"errors"
	"sync"

	"voicestudio/internal/domain"
	"voicestudio/internal/ports"
)

var (
	// ErrCaptureActive rejects Start while a capture is already underway.
	ErrCaptureActive = errors.New("capture already in progress")
	// ErrNotRecording marks Stop outside Recording; callers treat it as a no-op.
	ErrNotRecording = errors.New("no recording in progress")
)

// Config controls capture behavior.
type Config struct {
	Audio     ports.AudioConfig
	ChunkSize int
}

// Controller owns the device stream and the chunk accumulator for one
// capture at a time. It exposes state changes only through its own
// transition outputs; callers see Start, Stop and the finalized buffer.
type Controller struct {
	capture ports.AudioCapture
	events  ports.EventSink
	cfg     Config

	mu       sync.Mutex
	state    domain.CaptureState
	session  ports.AudioSession
	acc      *chunkAccumulator
	readDone chan struct{}
}

func NewController(capture ports.AudioCapture, events ports.EventSink, cfg Config) *Controller {
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = 4096
	}
	return &Controller{
		capture: capture,
		events:  events,
		cfg:     cfg,
		state:   domain.CaptureIdle,
	}
}

// Start requests exclusive access to the capture device and begins
// accumulating chunks as they arrive. A start is only meaningful from
// Idle; any other state is rejected. Acquisition failure transitions
// straight back to Idle with a typed error and no partial state.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != domain.CaptureIdle {
		c.mu.Unlock()
		return ErrCaptureActive
	}
	c.setStateLocked(domain.CaptureAwaitingPermission)
	c.mu.Unlock()

	session, err := c.capture.Start(ctx, c.cfg.Audio)
	if err != nil {
		c.mu.Lock()
		c.setStateLocked(domain.CaptureIdle)
		c.mu.Unlock()
		return err
	}

	acc := newChunkAccumulator()
	readDone := make(chan struct{})

	c.mu.Lock()
	c.session = session
	c.acc = acc
	c.readDone = readDone
	c.setStateLocked(domain.CaptureRecording)
	c.mu.Unlock()

	go readChunks(session, acc, c.cfg.ChunkSize, readDone)
	return nil
}

// Stop finalizes the capture: the device stream is released exactly once,
// the reader drains, and all accumulated chunks are assembled into one
// contiguous buffer. Invoked in any state other than Recording it is a
// no-op and returns ErrNotRecording.
func (c *Controller) Stop() ([]byte, error) {
	c.mu.Lock()
	if c.state != domain.CaptureRecording {
		c.mu.Unlock()
		return nil, ErrNotRecording
	}
	session := c.session
	acc := c.acc
	readDone := c.readDone
	c.setStateLocked(domain.CaptureFinalizing)
	c.mu.Unlock()

	stopErr := session.Stop()
	<-readDone
	buf := acc.Assemble()

	c.mu.Lock()
	c.session = nil
	c.acc = nil
	c.readDone = nil
	c.setStateLocked(domain.CaptureIdle)
	c.mu.Unlock()

	if stopErr != nil && len(buf) == 0 {
		return nil, stopErr
	}
	return buf, nil
}

// State returns the current capture state.
func (c *Controller) State() domain.CaptureState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close discards any active capture on teardown.
func (c *Controller) Close() error {
	_, err := c.Stop()
	if errors.Is(err, ErrNotRecording) {
		return nil
	}
	return err
}

func (c *Controller) setStateLocked(state domain.CaptureState) {
	c.state = state
	if c.events != nil {
		c.events.CaptureStateChanged(state)
	}
}

// readChunks drains the device stream into the accumulator until the
// stream ends. Read errors after Stop are the normal termination path.
func readChunks(session ports.AudioSession, acc *chunkAccumulator, chunkSize int, done chan struct{}) {
	defer close(done)

	buf := make([]byte, chunkSize)
	for {
		n, err := session.Read(buf)
		if n > 0 {
			acc.Add(buf[:n])
		}
		if err != nil {
			return
		}
	}
}
