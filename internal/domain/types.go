package domain

// Feature identifies which session a state change belongs to.
type Feature string

const (
	FeatureSynthesis     Feature = "synthesis"
	FeatureTranscription Feature = "transcription"
)

// SessionStatus models one session's request lifecycle.
type SessionStatus string

const (
	StatusIdle      SessionStatus = "idle"
	StatusInFlight  SessionStatus = "in_flight"
	StatusSucceeded SessionStatus = "succeeded"
	StatusFailed    SessionStatus = "failed"
)

// StatusReason provides a structured reason for status transitions.
type StatusReason string

const (
	ReasonRequestStarted    StatusReason = "request_started"
	ReasonRequestSucceeded  StatusReason = "request_succeeded"
	ReasonRequestFailed     StatusReason = "request_failed"
	ReasonValidationRefused StatusReason = "validation_refused"
	ReasonModeSwitched      StatusReason = "mode_switched"
	ReasonCaptureFailed     StatusReason = "capture_failed"
)

// Mode selects how the transcription session obtains audio.
type Mode string

const (
	ModeUpload Mode = "upload"
	ModeRecord Mode = "record"
)

// CaptureState models the microphone capture lifecycle.
type CaptureState string

const (
	CaptureIdle               CaptureState = "idle"
	CaptureAwaitingPermission CaptureState = "awaiting_permission"
	CaptureRecording          CaptureState = "recording"
	CaptureFinalizing         CaptureState = "finalizing"
)

// ErrorKind classifies every failure a session can surface.
type ErrorKind string

const (
	ErrValidation        ErrorKind = "validation"
	ErrTransport         ErrorKind = "transport"
	ErrServerRejected    ErrorKind = "server_rejected"
	ErrDecodeFailure     ErrorKind = "decode_failure"
	ErrDeviceUnavailable ErrorKind = "device_unavailable"
	ErrPermissionDenied  ErrorKind = "permission_denied"
)

// SynthesisRequest holds the parameters for one speech generation call.
type SynthesisRequest struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Voice    string  `json:"voice"`
	Speed    float64 `json:"speed"`
}

// SynthesisResult is the decoded outcome of a successful synthesis call.
type SynthesisResult struct {
	Audio             []byte
	Filename          string
	GenerationSeconds float64
}

// Segment is one timestamped slice of a transcript.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptionResult is the decoded outcome of a successful transcription call.
type TranscriptionResult struct {
	Text                string    `json:"text"`
	Language            string    `json:"language"`
	LanguageProbability float64   `json:"language_probability"`
	Segments            []Segment `json:"segments"`
	DurationSeconds     float64   `json:"duration"`
}

// Voice describes one selectable synthesis voice.
type Voice struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Language describes one selectable transcription language.
type Language struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}
