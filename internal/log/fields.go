package log

import (
	"net/http"
	"time"
)

// Field names shared by every component.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldEndpoint    = "endpoint"
	FieldErrorKind   = "error_kind"
	FieldScore       = "score"
	FieldScoreLabel  = "score_label"
	FieldRiskFactors = "risk_factors"
	FieldTxCount     = "transaction_count"
	FieldCountry     = "country"
	FieldEventID     = "event_id"
	FieldOnline      = "online"
)

// Component names.
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentAPIClient  = "api_client"
	ComponentAssessment = "assessment"
	ComponentHealth     = "health"
	ComponentAMQP       = "amqp"
	ComponentNotifier   = "notifier"
	ComponentSecurity   = "security"
	ComponentRateLimit  = "rate_limit"
	ComponentTemplate   = "template"
)

// Operation names.
const (
	OpAssess  = "assess"
	OpFetch   = "fetch"
	OpAnalyze = "analyze"
	OpCheck   = "check"
	OpPublish = "publish"
	OpNotify  = "notify"
	OpParse   = "parse"
	OpRender  = "render"
)

// Fields collects key/value pairs for a log call, keeping the order they
// were added in.
type Fields []any

// Add appends one pair.
func (f Fields) Add(key string, value any) Fields {
	return append(f, key, value)
}

func (f Fields) Operation(op string) Fields {
	return f.Add(FieldOperation, op)
}

// Err appends the error message; a nil error adds nothing.
func (f Fields) Err(err error) Fields {
	if err == nil {
		return f
	}
	return f.Add(FieldError, err.Error())
}

// Request appends what identifies an inbound request. The query is left
// out when empty.
func (f Fields) Request(r *http.Request, clientIP string) Fields {
	f = f.Add(FieldMethod, r.Method).Add(FieldPath, r.URL.Path)
	if r.URL.RawQuery != "" {
		f = f.Add(FieldQuery, r.URL.RawQuery)
	}
	if clientIP != "" {
		f = f.Add(FieldClientIP, clientIP)
	}
	return f
}

func (f Fields) Response(status int, elapsed time.Duration) Fields {
	return f.Add(FieldStatusCode, status).Add(FieldDuration, elapsed.Milliseconds())
}

// Assessment appends the outcome of a scored application.
func (f Fields) Assessment(score int, label string, riskFactors int) Fields {
	return f.Add(FieldScore, score).Add(FieldScoreLabel, label).Add(FieldRiskFactors, riskFactors)
}
