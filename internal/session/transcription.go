package session

import (
	"context"
	"errors"
	"io"
	"sync"

	"voicestudio/internal/audio"
	"voicestudio/internal/capture"
	"voicestudio/internal/domain"
	"voicestudio/internal/ports"
)

// TranscriptionConfig describes the PCM produced by the capture backend so
// recordings can be wrapped as WAV before upload.
type TranscriptionConfig struct {
	SampleRate      int
	Channels        int
	DefaultLanguage string
}

// Transcription orchestrates speech-to-text over two exclusive modes:
// uploading an existing file or recording from the capture device.
type Transcription struct {
	service  ports.SpeechService
	recorder *capture.Controller
	events   ports.EventSink
	cfg      TranscriptionConfig

	mu       sync.Mutex
	mode     domain.Mode
	language string
	status   domain.SessionStatus
	result   *domain.TranscriptionResult
	err      error
	epoch    uint64
}

func NewTranscription(service ports.SpeechService, recorder *capture.Controller, events ports.EventSink, cfg TranscriptionConfig) *Transcription {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "auto"
	}
	return &Transcription{
		service:  service,
		recorder: recorder,
		events:   events,
		cfg:      cfg,
		mode:     domain.ModeUpload,
		language: cfg.DefaultLanguage,
		status:   domain.StatusIdle,
	}
}

// SetLanguage selects the language sent with the next transcription.
func (t *Transcription) SetLanguage(language string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if language == "" {
		language = t.cfg.DefaultLanguage
	}
	t.language = language
}

// Language returns the currently selected language code.
func (t *Transcription) Language() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.language
}

// Mode returns the current input mode.
func (t *Transcription) Mode() domain.Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

// SetMode switches between upload and record. The displayed transcript,
// error and status reset to idle; an in-flight operation of the mode being
// left is not cancelled (its settlement is discarded by epoch), and an
// active capture keeps running.
func (t *Transcription) SetMode(mode domain.Mode) {
	t.mu.Lock()
	if mode == t.mode {
		t.mu.Unlock()
		return
	}
	t.mode = mode
	t.result = nil
	t.err = nil
	t.status = domain.StatusIdle
	t.epoch++
	t.mu.Unlock()

	t.emitStatus(domain.StatusIdle, domain.ReasonModeSwitched)
}

// UploadFile sends a named audio file to the transcription service.
func (t *Transcription) UploadFile(ctx context.Context, filename string, file io.Reader) error {
	epoch, language := t.begin()
	result, err := t.service.TranscribeFile(ctx, filename, file, language)
	return t.settle(epoch, result, err)
}

// StartRecording acquires the capture device. Acquisition failures carry
// their typed error into the session.
func (t *Transcription) StartRecording(ctx context.Context) error {
	t.mu.Lock()
	t.err = nil
	t.mu.Unlock()

	if err := t.recorder.Start(ctx); err != nil {
		if errors.Is(err, capture.ErrCaptureActive) {
			return err
		}
		t.mu.Lock()
		t.err = err
		t.result = nil
		t.status = domain.StatusFailed
		t.mu.Unlock()
		t.emitStatus(domain.StatusFailed, domain.ReasonCaptureFailed)
		t.emitError(err)
		return err
	}
	return nil
}

// StopRecording finalizes the capture, wraps the buffer as WAV and sends
// it for transcription. Outside an active recording it is a no-op.
func (t *Transcription) StopRecording(ctx context.Context) error {
	buf, err := t.recorder.Stop()
	if errors.Is(err, capture.ErrNotRecording) {
		return nil
	}
	if err != nil {
		t.mu.Lock()
		t.err = err
		t.result = nil
		t.status = domain.StatusFailed
		t.mu.Unlock()
		t.emitStatus(domain.StatusFailed, domain.ReasonCaptureFailed)
		t.emitError(err)
		return err
	}

	wav := audio.EncodeWAV(buf, t.cfg.SampleRate, t.cfg.Channels)

	epoch, language := t.begin()
	result, remoteErr := t.service.TranscribeRecording(ctx, wav, language)
	return t.settle(epoch, result, remoteErr)
}

// Result returns the last transcript, or nil before the first success.
func (t *Transcription) Result() *domain.TranscriptionResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Status returns the session status.
func (t *Transcription) Status() domain.SessionStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Err returns the visible error, nil unless the session failed.
func (t *Transcription) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// CaptureState exposes the recorder's state machine position.
func (t *Transcription) CaptureState() domain.CaptureState {
	return t.recorder.State()
}

// Close discards an active capture on teardown.
func (t *Transcription) Close() error {
	return t.recorder.Close()
}

// begin stamps a new call epoch and clears the prior outcome.
func (t *Transcription) begin() (uint64, string) {
	t.mu.Lock()
	t.err = nil
	t.result = nil
	t.status = domain.StatusInFlight
	t.epoch++
	epoch := t.epoch
	language := t.language
	t.mu.Unlock()

	t.emitStatus(domain.StatusInFlight, domain.ReasonRequestStarted)
	return epoch, language
}

// settle applies one call's outcome unless its epoch has been superseded.
func (t *Transcription) settle(epoch uint64, result *domain.TranscriptionResult, err error) error {
	t.mu.Lock()
	if epoch != t.epoch {
		t.mu.Unlock()
		return nil
	}

	if err != nil {
		t.err = err
		t.result = nil
		t.status = domain.StatusFailed
		t.mu.Unlock()
		t.emitStatus(domain.StatusFailed, domain.ReasonRequestFailed)
		t.emitError(err)
		return err
	}

	t.err = nil
	t.result = result
	t.status = domain.StatusSucceeded
	t.mu.Unlock()
	t.emitStatus(domain.StatusSucceeded, domain.ReasonRequestSucceeded)
	return nil
}

func (t *Transcription) emitStatus(status domain.SessionStatus, reason domain.StatusReason) {
	if t.events != nil {
		t.events.StatusChanged(domain.FeatureTranscription, status, reason)
	}
}

func (t *Transcription) emitError(err error) {
	if t.events != nil {
		t.events.SessionError(domain.FeatureTranscription, err)
	}
}
