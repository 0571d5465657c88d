package ports

import (
	"context"
	"io"

	"voicestudio/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions. Acquisition failures
// must be returned as typed domain errors (device unavailable or
// permission denied).
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// SpeechService issues the remote synthesis and transcription operations.
// Every call is attempted exactly once; callers decide whether to re-invoke.
type SpeechService interface {
	Synthesize(ctx context.Context, req domain.SynthesisRequest) (*domain.SynthesisResult, error)
	TranscribeFile(ctx context.Context, filename string, file io.Reader, language string) (*domain.TranscriptionResult, error)
	TranscribeRecording(ctx context.Context, audio []byte, language string) (*domain.TranscriptionResult, error)
}

// CatalogService exposes the read-only voice and language catalogs.
type CatalogService interface {
	Voices(ctx context.Context) (map[string][]domain.Voice, error)
	Languages(ctx context.Context) ([]domain.Language, error)
}

// EventSink receives session and capture lifecycle events for observability.
type EventSink interface {
	StatusChanged(feature domain.Feature, status domain.SessionStatus, reason domain.StatusReason)
	CaptureStateChanged(state domain.CaptureState)
	SessionError(feature domain.Feature, err error)
}
