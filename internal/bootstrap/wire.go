package bootstrap

import (
	"fmt"
	"net/http"

	"voicestudio/internal/api"
	"voicestudio/internal/audio"
	"voicestudio/internal/capture"
	"voicestudio/internal/config"
	"voicestudio/internal/ports"
	"voicestudio/internal/resource"
	"voicestudio/internal/session"
)

// Services is the assembled runtime graph.
type Services struct {
	Client        *api.Client
	Synthesis     *session.Synthesis
	Transcription *session.Transcription
	Config        config.Config
}

// Build wires all client dependencies for the current runtime.
func Build(events ports.EventSink) (Services, error) {
	cfg := config.Load()

	client := api.NewClient(api.Config{
		BaseURL:    cfg.Server.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.Server.RequestTimeout},
		UserAgent:  cfg.Server.UserAgent,
	})

	var capturer ports.AudioCapture
	switch cfg.Audio.Backend {
	case "portaudio":
		capturer = audio.NewPortAudioCapture()
	case "ffmpeg":
		capturer = audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand)
	default:
		return Services{}, fmt.Errorf("unknown capture backend %q", cfg.Audio.Backend)
	}

	recorder := capture.NewController(capturer, events, capture.Config{
		Audio: ports.AudioConfig{
			SampleRate:  cfg.Audio.SampleRate,
			Channels:    cfg.Audio.Channels,
			InputFormat: cfg.Audio.InputFormat,
			InputDevice: cfg.Audio.InputDevice,
		},
		ChunkSize: cfg.Capture.ChunkSize,
	})

	resources, err := resource.NewManager(cfg.Resources.Dir)
	if err != nil {
		return Services{}, err
	}

	synthesis := session.NewSynthesis(client, resources, events, session.SynthesisConfig{
		MaxTextLength: cfg.Synthesis.MaxTextLength,
	})

	transcription := session.NewTranscription(client, recorder, events, session.TranscriptionConfig{
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.Channels,
	})

	return Services{
		Client:        client,
		Synthesis:     synthesis,
		Transcription: transcription,
		Config:        cfg,
	}, nil
}
