// Package diagnostics provides container.DiagnosticListener implementations
// that translate resolve-pipeline events into structured logs and metrics.
package diagnostics

import (
	"go.uber.org/zap"

	"github.com/km-arc/ioc/container"
)

// ZapListener writes every pipeline event as a structured zap log line.
// Enabled is sampled on each call, so toggling it off costs one bool
// check per middleware on the hot path.
type ZapListener struct {
	log     *zap.Logger
	enabled bool
}

// NewZapListener wraps log. enabled controls IsEnabled(); pass false to
// keep the listener attached but silent (useful for flipping verbosity at
// runtime without rebuilding the container).
func NewZapListener(log *zap.Logger, enabled bool) *ZapListener {
	return &ZapListener{log: log, enabled: enabled}
}

func (l *ZapListener) IsEnabled() bool { return l.enabled && l.log != nil }

// SetEnabled toggles verbosity without touching the underlying logger.
func (l *ZapListener) SetEnabled(enabled bool) { l.enabled = enabled }

func (l *ZapListener) Write(eventKey string, payload any) {
	switch v := payload.(type) {
	case container.OperationEvent:
		fields := []zap.Field{zap.String("service", v.Service.String())}
		if v.Err != nil {
			fields = append(fields, zap.Error(v.Err))
			l.log.Warn(eventKey, fields...)
			return
		}
		l.log.Debug(eventKey, fields...)
	case container.RequestEvent:
		fields := []zap.Field{zap.String("service", v.Service.String())}
		if v.Registration != nil {
			fields = append(fields, zap.String("registrationID", string(v.Registration.ID())))
		}
		if v.Err != nil {
			fields = append(fields, zap.Error(v.Err))
			l.log.Warn(eventKey, fields...)
			return
		}
		l.log.Debug(eventKey, fields...)
	case container.MiddlewareEvent:
		fields := []zap.Field{
			zap.String("phase", v.Phase.String()),
			zap.String("middleware", v.Name),
			zap.String("service", v.Service.String()),
		}
		if v.Err != nil {
			fields = append(fields, zap.Error(v.Err))
			l.log.Warn(eventKey, fields...)
			return
		}
		l.log.Debug(eventKey, fields...)
	default:
		l.log.Debug(eventKey, zap.Any("payload", v))
	}
}

var _ container.DiagnosticListener = (*ZapListener)(nil)
