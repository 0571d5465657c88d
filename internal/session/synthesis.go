// Package session composes the remote client, the capture controller and
// the resource manager into the two externally consumed orchestrators.
package session

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"voicestudio/internal/domain"
	"voicestudio/internal/ports"
	"voicestudio/internal/resource"
)

// SynthesisConfig bounds client-side validation.
type SynthesisConfig struct {
	MaxTextLength int
}

// Synthesis orchestrates speech generation: parameters, one in-flight
// request, one terminal outcome, one live audio artifact.
type Synthesis struct {
	service   ports.SpeechService
	resources *resource.Manager
	events    ports.EventSink
	cfg       SynthesisConfig

	mu     sync.Mutex
	params domain.SynthesisRequest
	status domain.SessionStatus
	err    error
	epoch  uint64
}

func NewSynthesis(service ports.SpeechService, resources *resource.Manager, events ports.EventSink, cfg SynthesisConfig) *Synthesis {
	if cfg.MaxTextLength <= 0 {
		cfg.MaxTextLength = 2000
	}
	return &Synthesis{
		service:   service,
		resources: resources,
		events:    events,
		cfg:       cfg,
		status:    domain.StatusIdle,
	}
}

// SetParams replaces the request parameters for the next generation.
func (s *Synthesis) SetParams(params domain.SynthesisRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = params
}

// Params returns the current request parameters.
func (s *Synthesis) Params() domain.SynthesisRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// Generate validates the text, releases any prior artifact, performs the
// remote synthesis call and publishes the resulting audio. Empty or
// whitespace-only text is refused before any I/O.
func (s *Synthesis) Generate(ctx context.Context) error {
	s.mu.Lock()
	req := s.params
	req.Text = strings.TrimSpace(req.Text)

	if req.Text == "" {
		return s.refuseLocked(domain.NewValidationError("text must not be empty"))
	}
	if utf8.RuneCountInString(req.Text) > s.cfg.MaxTextLength {
		return s.refuseLocked(domain.NewValidationError(fmt.Sprintf("text exceeds the %d character limit", s.cfg.MaxTextLength)))
	}

	s.err = nil
	s.status = domain.StatusInFlight
	s.epoch++
	epoch := s.epoch
	s.mu.Unlock()

	if err := s.resources.Release(); err != nil {
		return s.settle(epoch, nil, err)
	}
	s.emitStatus(domain.StatusInFlight, domain.ReasonRequestStarted)

	result, err := s.service.Synthesize(ctx, req)
	return s.settle(epoch, result, err)
}

// settle applies one call's outcome. Settlements stamped with a superseded
// epoch are discarded so a stale response can never overwrite newer state.
func (s *Synthesis) settle(epoch uint64, result *domain.SynthesisResult, err error) error {
	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return nil
	}

	if err == nil && result != nil {
		if _, pubErr := s.resources.Publish(result.Audio, result.Filename); pubErr != nil {
			err = pubErr
		}
	}

	if err != nil {
		s.err = err
		s.status = domain.StatusFailed
		s.mu.Unlock()
		s.emitStatus(domain.StatusFailed, domain.ReasonRequestFailed)
		s.emitError(err)
		return err
	}

	s.err = nil
	s.status = domain.StatusSucceeded
	s.mu.Unlock()
	s.emitStatus(domain.StatusSucceeded, domain.ReasonRequestSucceeded)
	return nil
}

// Result returns the live audio artifact, or nil before the first success.
func (s *Synthesis) Result() *resource.Handle {
	return s.resources.Current()
}

// Status returns the session status.
func (s *Synthesis) Status() domain.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the visible error, nil unless the session failed.
func (s *Synthesis) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Download copies the live artifact to destPath.
func (s *Synthesis) Download(destPath string) error {
	handle := s.resources.Current()
	if handle == nil {
		return resource.ErrNoLiveHandle
	}
	if err := os.WriteFile(destPath, handle.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to save audio to %q: %w", destPath, err)
	}
	return nil
}

// Close releases the session's artifact on teardown.
func (s *Synthesis) Close() error {
	return s.resources.Release()
}

// refuseLocked records a pre-I/O refusal. It unlocks s.mu before emitting
// events; the prior artifact is released so the error is never paired with
// a stale result.
func (s *Synthesis) refuseLocked(err error) error {
	s.err = err
	s.status = domain.StatusFailed
	s.epoch++
	_ = s.resources.Release()
	s.mu.Unlock()

	s.emitStatus(domain.StatusFailed, domain.ReasonValidationRefused)
	s.emitError(err)
	return err
}

func (s *Synthesis) emitStatus(status domain.SessionStatus, reason domain.StatusReason) {
	if s.events != nil {
		s.events.StatusChanged(domain.FeatureSynthesis, status, reason)
	}
}

func (s *Synthesis) emitError(err error) {
	if s.events != nil {
		s.events.SessionError(domain.FeatureSynthesis, err)
	}
}
