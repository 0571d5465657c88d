// Package api implements the HTTP client for the remote speech service.
// It turns raw responses into typed results and typed errors; no retries,
// no state.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"voicestudio/internal/domain"
)

const (
	headerAudioFilename      = "X-Audio-Filename"
	headerGenerationDuration = "X-Generation-Duration"

	// Deterministic name for in-memory recordings so server-side format
	// sniffing sees a .wav extension.
	recordingFilename = "recording.wav"
)

// Config controls how the client reaches the speech service.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

// Client issues the remote operations against one speech service endpoint.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		http:      cfg.HTTPClient,
		userAgent: cfg.UserAgent,
	}
}

// Synthesize generates speech for req and returns the audio bytes plus the
// filename the server suggested in its response headers.
func (c *Client) Synthesize(ctx context.Context, req domain.SynthesisRequest) (*domain.SynthesisResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, domain.NewTransportError(fmt.Errorf("failed to encode synthesis request: %w", err))
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/tts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, domain.NewTransportError(err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, decodeErrorResponse(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewTransportError(err)
	}

	filename := strings.TrimSpace(resp.Header.Get(headerAudioFilename))
	if filename == "" {
		filename = fmt.Sprintf("audio_%s.wav", uuid.NewString()[:8])
	}

	result := &domain.SynthesisResult{Audio: audio, Filename: filename}
	if raw := resp.Header.Get(headerGenerationDuration); raw != "" {
		if seconds, parseErr := strconv.ParseFloat(raw, 64); parseErr == nil {
			result.GenerationSeconds = seconds
		}
	}
	return result, nil
}

// TranscribeFile uploads a named audio file for transcription. Pass
// language "auto" to let the server detect it.
func (c *Client) TranscribeFile(ctx context.Context, filename string, file io.Reader, language string) (*domain.TranscriptionResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, domain.NewTransportError(err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, domain.NewTransportError(fmt.Errorf("failed to read upload: %w", err))
	}
	if err := writer.WriteField("language", language); err != nil {
		return nil, domain.NewTransportError(err)
	}
	if err := writer.Close(); err != nil {
		return nil, domain.NewTransportError(err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/stt/transcribe", &buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, domain.NewTransportError(err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, decodeErrorResponse(resp)
	}

	var payload struct {
		Success bool `json:"success"`
		domain.TranscriptionResult
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, domain.NewDecodeFailureError(resp.StatusCode)
	}
	return &payload.TranscriptionResult, nil
}

// TranscribeRecording uploads an in-memory recording under a deterministic
// virtual filename.
func (c *Client) TranscribeRecording(ctx context.Context, audio []byte, language string) (*domain.TranscriptionResult, error) {
	return c.TranscribeFile(ctx, recordingFilename, bytes.NewReader(audio), language)
}

// Voices fetches the voice catalog keyed by language code.
func (c *Client) Voices(ctx context.Context) (map[string][]domain.Voice, error) {
	var payload struct {
		Success bool                      `json:"success"`
		Voices  map[string][]domain.Voice `json:"voices"`
	}
	if err := c.getJSON(ctx, "/voices", &payload); err != nil {
		return nil, err
	}
	return payload.Voices, nil
}

// Languages fetches the ordered transcription language catalog.
func (c *Client) Languages(ctx context.Context) ([]domain.Language, error) {
	var payload struct {
		Success   bool              `json:"success"`
		Languages []domain.Language `json:"languages"`
	}
	if err := c.getJSON(ctx, "/stt/languages", &payload); err != nil {
		return nil, err
	}
	return payload.Languages, nil
}

// Health probes the service liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	var payload struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, "/health", &payload); err != nil {
		return err
	}
	if payload.Status != "ok" {
		return domain.NewServerRejectedError(http.StatusOK, fmt.Sprintf("unexpected health status %q", payload.Status))
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	httpReq, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return domain.NewTransportError(err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return decodeErrorResponse(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewDecodeFailureError(resp.StatusCode)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, domain.NewTransportError(err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// decodeErrorResponse extracts the human-readable detail from a failing
// response. Binary routes still deliver the error body as bytes, so it is
// decoded as UTF-8 text and then parsed as JSON; anything unparsable
// degrades to a decode failure with a generic message.
func decodeErrorResponse(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.NewDecodeFailureError(resp.StatusCode)
	}

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || strings.TrimSpace(payload.Detail) == "" {
		return domain.NewDecodeFailureError(resp.StatusCode)
	}
	return domain.NewServerRejectedError(resp.StatusCode, payload.Detail)
}
