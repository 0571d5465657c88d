// Package audio provides capture device adapters and PCM helpers.
package audio

import (
	"context"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"

	"voicestudio/internal/domain"
	"voicestudio/internal/ports"
)

const framesPerBuffer = 1024

// PortAudioCapture opens the host's default input device through PortAudio.
// This is the default capture backend.
type PortAudioCapture struct{}

func NewPortAudioCapture() *PortAudioCapture {
	return &PortAudioCapture{}
}

func (c *PortAudioCapture) Start(ctx context.Context, cfg ports.AudioConfig) (ports.AudioSession, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, classifyDeviceError(err.Error())
	}

	buffer := make([]int16, framesPerBuffer*cfg.Channels)
	stream, err := portaudio.OpenDefaultStream(cfg.Channels, 0, float64(cfg.SampleRate), framesPerBuffer, buffer)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, classifyDeviceError(err.Error())
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, classifyDeviceError(err.Error())
	}

	readFrame := func() ([]byte, error) {
		if err := stream.Read(); err != nil {
			return nil, err
		}
		return int16ToLittleEndian(buffer), nil
	}
	return &portAudioSession{stream: stream, readFrame: readFrame}, nil
}

type portAudioSession struct {
	stream    *portaudio.Stream
	readFrame func() ([]byte, error)

	mu      sync.Mutex
	stopped bool
	pending []byte

	stopOnce sync.Once
	stopErr  error
}

// Read returns captured little-endian 16-bit PCM. A device frame larger
// than p is carried over and delivered by subsequent reads, so no captured
// bytes are lost to a small destination buffer.
func (s *portAudioSession) Read(p []byte) (int, error) {
	s.mu.Lock()
	if len(s.pending) > 0 {
		n := copy(p, s.pending)
		s.pending = s.pending[n:]
		s.mu.Unlock()
		return n, nil
	}
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return 0, domain.NewDeviceUnavailableError("capture stream is stopped")
	}

	frame, err := s.readFrame()
	if err != nil {
		return 0, err
	}
	n := copy(p, frame)
	if n < len(frame) {
		s.mu.Lock()
		s.pending = append([]byte(nil), frame[n:]...)
		s.mu.Unlock()
	}
	return n, nil
}

func (s *portAudioSession) Close() error {
	return s.Stop()
}

// Stop releases the device stream exactly once per session.
func (s *portAudioSession) Stop() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()

		if err := s.stream.Stop(); err != nil {
			s.stopErr = err
		}
		if err := s.stream.Close(); err != nil && s.stopErr == nil {
			s.stopErr = err
		}
		if err := portaudio.Terminate(); err != nil && s.stopErr == nil {
			s.stopErr = err
		}
	})
	return s.stopErr
}

func int16ToLittleEndian(in []int16) []byte {
	out := make([]byte, len(in)*2)
	for i, v := range in {
		out[2*i] = byte(v)
		out[2*i+1] = byte(v >> 8)
	}
	return out
}

// classifyDeviceError distinguishes refused access from missing hardware.
// Host APIs report permission problems in free text, so the mapping is by
// message inspection.
func classifyDeviceError(detail string) *domain.RemoteError {
	lower := strings.ToLower(detail)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "access denied") || strings.Contains(lower, "not authorized") {
		return domain.NewPermissionDeniedError(detail)
	}
	return domain.NewDeviceUnavailableError(detail)
}
