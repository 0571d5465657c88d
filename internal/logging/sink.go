// Package logging adapts structured zap logging to the event sink port.
package logging

import (
	"go.uber.org/zap"

	"voicestudio/internal/domain"
)

// Sink logs session and capture lifecycle events.
type Sink struct {
	logger *zap.Logger
}

func NewSink(logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{logger: logger}
}

func (s *Sink) StatusChanged(feature domain.Feature, status domain.SessionStatus, reason domain.StatusReason) {
	s.logger.Info("session status changed",
		zap.String("feature", string(feature)),
		zap.String("status", string(status)),
		zap.String("reason", string(reason)),
		zap.String("message", StatusReasonMessage(reason)),
	)
}

func (s *Sink) CaptureStateChanged(state domain.CaptureState) {
	s.logger.Info("capture state changed", zap.String("state", string(state)))
}

func (s *Sink) SessionError(feature domain.Feature, err error) {
	s.logger.Warn("session error",
		zap.String("feature", string(feature)),
		zap.String("kind", string(domain.KindOf(err))),
		zap.Error(err),
	)
}

// StatusReasonMessage renders a human-readable line for a status reason.
func StatusReasonMessage(reason domain.StatusReason) string {
	switch reason {
	case domain.ReasonRequestStarted:
		return "Request started"
	case domain.ReasonRequestSucceeded:
		return "Request succeeded"
	case domain.ReasonRequestFailed:
		return "Request failed"
	case domain.ReasonValidationRefused:
		return "Request refused before sending"
	case domain.ReasonModeSwitched:
		return "Input mode switched"
	case domain.ReasonCaptureFailed:
		return "Audio capture failed"
	default:
		return ""
	}
}
