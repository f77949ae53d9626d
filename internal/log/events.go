package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// RequestStarted logs an inbound request at debug level.
func (l *Logger) RequestStarted(ctx context.Context, r *http.Request, clientIP string) {
	fields := Fields{}.Request(r, clientIP).Add(FieldUserAgent, r.UserAgent())
	l.DebugContext(ctx, "HTTP request started", fields...)
}

// RequestCompleted logs the outcome of an inbound request. 4xx responses
// are warnings and 5xx errors.
func (l *Logger) RequestCompleted(ctx context.Context, r *http.Request, status int, elapsed time.Duration, clientIP string) {
	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}
	fields := Fields{}.Request(r, clientIP).Response(status, elapsed)
	l.Log(ctx, level, "HTTP request completed", l.attrs(fields)...)
}

// AssessmentScored logs a scored loan application. eventID is empty when
// no event was published.
func (l *Logger) AssessmentScored(ctx context.Context, score int, label string, riskFactors int, eventID string) {
	fields := Fields{}.Assessment(score, label, riskFactors).Operation(OpAssess)
	if eventID != "" {
		fields = fields.Add(FieldEventID, eventID)
	}
	l.InfoContext(ctx, "Assessment completed", fields...)
}

// Failure logs err at error level for operation op.
func (l *Logger) Failure(ctx context.Context, msg, op string, err error, extra ...any) {
	fields := append(Fields{}.Operation(op).Err(err), extra...)
	l.ErrorContext(ctx, msg, fields...)
}
