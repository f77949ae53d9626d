// Package http serves the EconoRise pages and HTMX partials.
package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// HX-Trigger events the pages listen for.
const (
	EventAssessmentCompleted = "assessment:completed"
	EventHealthAnalyzed      = "financial-health:analyzed"
	EventStepChanged         = "apply:step"
	EventShowNotification    = "show-notification"
)

// ToastKind selects the style of a show-notification toast.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastWarning ToastKind = "warning"
	ToastInfo    ToastKind = "info"
)

var toastDurations = map[ToastKind]int{
	ToastSuccess: 3000,
	ToastError:   5000,
	ToastWarning: 4000,
	ToastInfo:    3000,
}

// Response is one HTMX partial: a status, an HTML fragment and the events
// to fire client-side once it is swapped in.
type Response struct {
	status int
	html   []byte
	events map[string]any
	header http.Header
}

// newPartial starts a 200 response with no body.
func newPartial() *Response {
	return &Response{status: http.StatusOK, events: map[string]any{}, header: http.Header{}}
}

// Banner is the error banner every widget and form swaps in on failure.
// message is escaped.
func Banner(status int, message string) *Response {
	return newPartial().
		WithStatus(status).
		HTML([]byte(`<div class="error-banner" role="alert"><p>` + template.HTMLEscapeString(message) + `</p></div>`))
}

// tooManySubmissions is sent when a client exceeds the submission rate.
func tooManySubmissions() *Response {
	return Banner(http.StatusTooManyRequests, "Too many submissions. Please wait a moment and try again.").
		Toast(ToastError, "Rate limit exceeded")
}

func (r *Response) WithStatus(code int) *Response {
	r.status = code
	return r
}

func (r *Response) HTML(fragment []byte) *Response {
	r.header.Set("Content-Type", "text/html; charset=utf-8")
	r.html = fragment
	return r
}

// Fire queues event with detail; a later call with the same name wins.
func (r *Response) Fire(event string, detail any) *Response {
	r.events[event] = detail
	return r
}

// AssessmentCompleted lets the page react to a scored application.
func (r *Response) AssessmentCompleted(score int, tier string) *Response {
	return r.Fire(EventAssessmentCompleted, map[string]any{"score": score, "tier": tier})
}

func (r *Response) HealthAnalyzed(transactions int) *Response {
	return r.Fire(EventHealthAnalyzed, map[string]int{"transactions": transactions})
}

func (r *Response) StepChanged(step int) *Response {
	return r.Fire(EventStepChanged, map[string]int{"step": step})
}

// Toast shows a notification for the kind's default duration.
func (r *Response) Toast(kind ToastKind, message string) *Response {
	return r.Fire(EventShowNotification, map[string]any{
		"type":     string(kind),
		"message":  message,
		"duration": toastDurations[kind],
	})
}

// Write sends the response. Events go out as one HX-Trigger JSON object.
func (r *Response) Write(w http.ResponseWriter) {
	for name, values := range r.header {
		w.Header()[name] = values
	}
	if len(r.events) > 0 {
		if payload, err := json.Marshal(r.events); err == nil {
			w.Header().Set("HX-Trigger", string(payload))
		}
	}
	w.WriteHeader(r.status)
	if len(r.html) > 0 {
		_, _ = w.Write(r.html)
	}
}
