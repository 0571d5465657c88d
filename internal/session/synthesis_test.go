package session

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"voicestudio/internal/domain"
	"voicestudio/internal/ports"
	"voicestudio/internal/resource"
)

func newTestSynthesis(t *testing.T, service ports.SpeechService) (*Synthesis, *resource.Manager) {
	t.Helper()
	resources, err := resource.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("new manager failed: %v", err)
	}
	return NewSynthesis(service, resources, nil, SynthesisConfig{}), resources
}

func TestGenerateRefusesEmptyTextWithoutNetworkCall(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "   ", "\t\n "} {
		service := &fakeSpeechService{}
		synthesis, resources := newTestSynthesis(t, service)
		synthesis.SetParams(domain.SynthesisRequest{Text: text, Language: "en", Voice: "v1", Speed: 1.0})

		err := synthesis.Generate(context.Background())
		if domain.KindOf(err) != domain.ErrValidation {
			t.Fatalf("text %q: expected validation error, got %v", text, err)
		}
		if service.calls() != 0 {
			t.Fatalf("text %q: expected no network call, got %d", text, service.calls())
		}
		if synthesis.Status() != domain.StatusFailed {
			t.Fatalf("text %q: expected failed status, got %s", text, synthesis.Status())
		}
		if resources.Current() != nil {
			t.Fatalf("text %q: expected no artifact", text)
		}
	}
}

func TestGenerateRefusesOverlongText(t *testing.T) {
	t.Parallel()

	service := &fakeSpeechService{}
	resources, err := resource.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("new manager failed: %v", err)
	}
	synthesis := NewSynthesis(service, resources, nil, SynthesisConfig{MaxTextLength: 5})
	synthesis.SetParams(domain.SynthesisRequest{Text: "too long for limit"})

	genErr := synthesis.Generate(context.Background())
	if domain.KindOf(genErr) != domain.ErrValidation {
		t.Fatalf("expected validation error, got %v", genErr)
	}
	if service.calls() != 0 {
		t.Fatalf("expected no network call")
	}
}

func TestGenerateCountsTextLengthInCharacters(t *testing.T) {
	t.Parallel()

	// Accented text is two UTF-8 bytes per character; the limit applies to
	// characters, matching the server's rule.
	service := &fakeSpeechService{
		synthesisResult: &domain.SynthesisResult{Audio: []byte("wav"), Filename: "a.wav"},
	}
	synthesis, _ := newTestSynthesis(t, service)
	synthesis.SetParams(domain.SynthesisRequest{Text: strings.Repeat("é", 2000), Language: "fr"})

	if err := synthesis.Generate(context.Background()); err != nil {
		t.Fatalf("2000-character text refused: %v", err)
	}
	if service.calls() != 1 {
		t.Fatalf("expected one synthesis call, got %d", service.calls())
	}

	synthesis.SetParams(domain.SynthesisRequest{Text: strings.Repeat("é", 2001), Language: "fr"})
	err := synthesis.Generate(context.Background())
	if domain.KindOf(err) != domain.ErrValidation {
		t.Fatalf("expected validation error for 2001 characters, got %v", err)
	}
	if service.calls() != 1 {
		t.Fatalf("refusal must not reach the network, calls=%d", service.calls())
	}
}

func TestGenerateRefusalEmitsWithoutHoldingSessionLock(t *testing.T) {
	t.Parallel()

	service := &fakeSpeechService{}
	synthesis, _ := newTestSynthesis(t, service)
	sink := &reentrantSink{}
	synthesis.events = sink
	sink.synthesis = synthesis
	synthesis.SetParams(domain.SynthesisRequest{Text: "   "})

	if err := synthesis.Generate(context.Background()); domain.KindOf(err) != domain.ErrValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if sink.observedStatus != domain.StatusFailed {
		t.Fatalf("sink observed status %s, want %s", sink.observedStatus, domain.StatusFailed)
	}
	if domain.KindOf(sink.observedErr) != domain.ErrValidation {
		t.Fatalf("sink observed error %v", sink.observedErr)
	}
}

// reentrantSink reads the session back during emission, as a logging sink
// that snapshots state would.
type reentrantSink struct {
	synthesis *Synthesis

	observedStatus domain.SessionStatus
	observedErr    error
}

func (r *reentrantSink) StatusChanged(_ domain.Feature, _ domain.SessionStatus, _ domain.StatusReason) {
	r.observedStatus = r.synthesis.Status()
}

func (r *reentrantSink) CaptureStateChanged(domain.CaptureState) {}

func (r *reentrantSink) SessionError(_ domain.Feature, _ error) {
	r.observedErr = r.synthesis.Err()
}

func TestGenerateSuccessPublishesNamedArtifact(t *testing.T) {
	t.Parallel()

	service := &fakeSpeechService{
		synthesisResult: &domain.SynthesisResult{Audio: []byte("wav"), Filename: "audio_1.wav"},
	}
	synthesis, _ := newTestSynthesis(t, service)
	synthesis.SetParams(domain.SynthesisRequest{Text: "Hello", Language: "en", Voice: "v1", Speed: 1.0})

	if err := synthesis.Generate(context.Background()); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if synthesis.Status() != domain.StatusSucceeded {
		t.Fatalf("expected succeeded, got %s", synthesis.Status())
	}
	if synthesis.Err() != nil {
		t.Fatalf("expected nil error, got %v", synthesis.Err())
	}

	handle := synthesis.Result()
	if handle == nil || handle.Name() != "audio_1.wav" {
		t.Fatalf("expected live handle named audio_1.wav, got %+v", handle)
	}
	if string(handle.Bytes()) != "wav" {
		t.Fatalf("unexpected artifact contents: %q", handle.Bytes())
	}
}

func TestGenerateServerRejectionKeepsNoArtifact(t *testing.T) {
	t.Parallel()

	service := &fakeSpeechService{
		synthesisErr: domain.NewServerRejectedError(http.StatusUnprocessableEntity, "text too long"),
	}
	synthesis, resources := newTestSynthesis(t, service)
	synthesis.SetParams(domain.SynthesisRequest{Text: "Hello"})

	err := synthesis.Generate(context.Background())
	remote, ok := domain.AsRemoteError(err)
	if !ok || remote.Kind != domain.ErrServerRejected || remote.Message != "text too long" {
		t.Fatalf("unexpected error: %v", err)
	}
	if synthesis.Status() != domain.StatusFailed {
		t.Fatalf("expected failed, got %s", synthesis.Status())
	}
	if resources.Current() != nil {
		t.Fatalf("expected no artifact after rejection")
	}
}

func TestGenerateClearsPriorErrorOnNewTrigger(t *testing.T) {
	t.Parallel()

	service := &fakeSpeechService{
		synthesisErr: domain.NewTransportError(io.ErrUnexpectedEOF),
	}
	synthesis, _ := newTestSynthesis(t, service)
	synthesis.SetParams(domain.SynthesisRequest{Text: "Hello"})

	if err := synthesis.Generate(context.Background()); err == nil {
		t.Fatalf("expected first generate to fail")
	}

	service.setOutcome(&domain.SynthesisResult{Audio: []byte("ok"), Filename: "a.wav"}, nil)
	if err := synthesis.Generate(context.Background()); err != nil {
		t.Fatalf("second generate failed: %v", err)
	}
	if synthesis.Err() != nil {
		t.Fatalf("expected error cleared, got %v", synthesis.Err())
	}
	if synthesis.Status() != domain.StatusSucceeded {
		t.Fatalf("expected succeeded, got %s", synthesis.Status())
	}
}

func TestStaleSettlementIsDiscarded(t *testing.T) {
	t.Parallel()

	service := &fakeSpeechService{
		synthesisResult: &domain.SynthesisResult{Audio: []byte("new"), Filename: "new.wav"},
	}
	synthesis, _ := newTestSynthesis(t, service)
	synthesis.SetParams(domain.SynthesisRequest{Text: "Hello"})

	if err := synthesis.Generate(context.Background()); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	// A response from a superseded call must not overwrite newer state.
	staleErr := synthesis.settle(0, &domain.SynthesisResult{Audio: []byte("old"), Filename: "old.wav"}, nil)
	if staleErr != nil {
		t.Fatalf("stale settlement returned error: %v", staleErr)
	}
	if handle := synthesis.Result(); handle == nil || handle.Name() != "new.wav" {
		t.Fatalf("stale settlement changed the artifact: %+v", handle)
	}

	staleErr = synthesis.settle(0, nil, domain.NewTransportError(io.ErrUnexpectedEOF))
	if staleErr != nil {
		t.Fatalf("stale failure settlement returned error: %v", staleErr)
	}
	if synthesis.Status() != domain.StatusSucceeded || synthesis.Err() != nil {
		t.Fatalf("stale failure mutated state: status=%s err=%v", synthesis.Status(), synthesis.Err())
	}
}

func TestRepeatedGeneratesHoldAtMostOneArtifact(t *testing.T) {
	t.Parallel()

	service := &fakeSpeechService{
		synthesisResult: &domain.SynthesisResult{Audio: []byte("wav"), Filename: "a.wav"},
	}
	synthesis, resources := newTestSynthesis(t, service)
	synthesis.SetParams(domain.SynthesisRequest{Text: "Hello"})

	var previous *resource.Handle
	for i := 0; i < 4; i++ {
		if err := synthesis.Generate(context.Background()); err != nil {
			t.Fatalf("generate %d failed: %v", i, err)
		}
		current := resources.Current()
		if current == nil {
			t.Fatalf("expected a live handle after generate %d", i)
		}
		if previous != nil && !previous.Released() {
			t.Fatalf("previous handle still live after generate %d", i)
		}
		previous = current
	}
}

func TestDownloadWritesArtifact(t *testing.T) {
	t.Parallel()

	service := &fakeSpeechService{
		synthesisResult: &domain.SynthesisResult{Audio: []byte("wav-data"), Filename: "a.wav"},
	}
	synthesis, _ := newTestSynthesis(t, service)
	synthesis.SetParams(domain.SynthesisRequest{Text: "Hello"})

	dest := filepath.Join(t.TempDir(), "out.wav")
	if err := synthesis.Download(dest); err != resource.ErrNoLiveHandle {
		t.Fatalf("expected ErrNoLiveHandle before generate, got %v", err)
	}

	if err := synthesis.Generate(context.Background()); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if err := synthesis.Download(dest); err != nil {
		t.Fatalf("download failed: %v", err)
	}

	contents, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(contents) != "wav-data" {
		t.Fatalf("unexpected download contents: %q", contents)
	}
}

// fakeSpeechService records calls and serves configured outcomes.
type fakeSpeechService struct {
	mu              sync.Mutex
	synthesisResult *domain.SynthesisResult
	synthesisErr    error

	transcript    *domain.TranscriptionResult
	transcriptErr error

	synthesizeCalls int
	uploads         []uploadCall
}

type uploadCall struct {
	filename string
	language string
	payload  []byte
}

func (f *fakeSpeechService) Synthesize(_ context.Context, _ domain.SynthesisRequest) (*domain.SynthesisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.synthesizeCalls++
	return f.synthesisResult, f.synthesisErr
}

func (f *fakeSpeechService) TranscribeFile(_ context.Context, filename string, file io.Reader, language string) (*domain.TranscriptionResult, error) {
	payload, _ := io.ReadAll(file)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, uploadCall{filename: filename, language: language, payload: payload})
	return f.transcript, f.transcriptErr
}

func (f *fakeSpeechService) TranscribeRecording(ctx context.Context, audio []byte, language string) (*domain.TranscriptionResult, error) {
	return f.TranscribeFile(ctx, "recording.wav", bytes.NewReader(audio), language)
}

func (f *fakeSpeechService) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.synthesizeCalls
}

func (f *fakeSpeechService) setOutcome(result *domain.SynthesisResult, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.synthesisResult = result
	f.synthesisErr = err
}

func (f *fakeSpeechService) lastUpload() (uploadCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.uploads) == 0 {
		return uploadCall{}, false
	}
	return f.uploads[len(f.uploads)-1], true
}

