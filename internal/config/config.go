package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config stores runtime configuration for the client.
type Config struct {
	Server    ServerConfig
	Audio     AudioConfig
	Capture   CaptureConfig
	Synthesis SynthesisConfig
	Resources ResourceConfig
}

type ServerConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	UserAgent      string
}

type AudioConfig struct {
	Backend         string
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
}

type CaptureConfig struct {
	ChunkSize int
}

type SynthesisConfig struct {
	DefaultLanguage string
	DefaultSpeed    float64
	MaxTextLength   int
}

type ResourceConfig struct {
	Dir string
}

// Load resolves configuration from environment variables and sensible defaults.
func Load() Config {
	cfg := Config{
		Server: ServerConfig{
			BaseURL:        envOrDefault("VOICESTUDIO_SERVER_URL", "http://localhost:8000"),
			RequestTimeout: time.Duration(envOrDefaultInt("VOICESTUDIO_REQUEST_TIMEOUT_MS", 120000)) * time.Millisecond,
			UserAgent:      envOrDefault("VOICESTUDIO_USER_AGENT", "voicestudio"),
		},
		Audio: AudioConfig{
			Backend:         envOrDefault("VOICESTUDIO_CAPTURE_BACKEND", "portaudio"),
			RecorderCommand: envOrDefault("VOICESTUDIO_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("VOICESTUDIO_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:     envOrDefault("VOICESTUDIO_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:      envOrDefaultInt("VOICESTUDIO_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("VOICESTUDIO_CHANNELS", 1),
		},
		Capture: CaptureConfig{
			ChunkSize: envOrDefaultInt("VOICESTUDIO_AUDIO_CHUNK_SIZE", 4096),
		},
		Synthesis: SynthesisConfig{
			DefaultLanguage: envOrDefault("VOICESTUDIO_DEFAULT_LANGUAGE", "fr"),
			DefaultSpeed:    envOrDefaultFloat("VOICESTUDIO_DEFAULT_SPEED", 1.0),
			MaxTextLength:   envOrDefaultInt("VOICESTUDIO_MAX_TEXT_LENGTH", 2000),
		},
		Resources: ResourceConfig{
			Dir: strings.TrimSpace(os.Getenv("VOICESTUDIO_ARTIFACT_DIR")),
		},
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Capture.ChunkSize < 256 {
		cfg.Capture.ChunkSize = 4096
	}
	if cfg.Synthesis.DefaultSpeed < 0.5 || cfg.Synthesis.DefaultSpeed > 2.0 {
		cfg.Synthesis.DefaultSpeed = 1.0
	}
	if cfg.Synthesis.MaxTextLength <= 0 {
		cfg.Synthesis.MaxTextLength = 2000
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 120 * time.Second
	}

	return cfg
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
