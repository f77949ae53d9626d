package http

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"

	"econorise/internal/api"
	"econorise/internal/core"
	"econorise/internal/log"
	"econorise/internal/render"
	appweb "econorise/web"
)

// genericErrorMessage is shown for failures that are not backend errors.
const genericErrorMessage = "Something went wrong. Please try again."

var funcMap = template.FuncMap{
	"currency":   core.FormatCurrency,
	"percent":    core.FormatPercentage,
	"number":     core.FormatNumber,
	"population": core.FormatPopulation,
	"scoreLabel": core.ScoreLabel,
	"scoreTier":  core.ScoreTier,
	"approval":   core.ApprovalStatus,
	"clamp":      core.ClampScore,
	"positive":   core.IsPositiveTrend,
	"markdown":   render.MarkdownOrText,
}

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(funcMap).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

// renderPartial executes a named template into memory so a failure never
// leaves a half-written response.
func (s *Server) renderPartial(ctx context.Context, name string, data any) ([]byte, error) {
	if s.templates == nil {
		return nil, errors.New("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentTemplate).ErrorContext(ctx, "Template execution failed",
			"template", name,
			log.FieldOperation, log.OpRender,
			log.FieldError, err)
		return nil, err
	}
	return buf.Bytes(), nil
}

// writePage renders a template with status 200 or the error banner on failure.
func (s *Server) writePage(w http.ResponseWriter, r *http.Request, name string, data any) {
	s.respond(w, r, newPartial(), name, data)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, resp *Response, name string, data any) {
	body, err := s.renderPartial(r.Context(), name, data)
	if err != nil {
		Banner(http.StatusInternalServerError, genericErrorMessage).Write(w)
		return
	}
	resp.HTML(body).Write(w)
}

// errorMessage is the banner text for err. Backend errors and local
// validation errors carry a message meant for the user; anything else
// gets a generic one.
func errorMessage(err error) string {
	if apiErr, ok := api.AsError(err); ok {
		return apiErr.Error()
	}
	if isValidationError(err) {
		return err.Error()
	}
	return genericErrorMessage
}

// errorStatus maps err to the status the banner is served with.
func errorStatus(err error) int {
	if apiErr, ok := api.AsError(err); ok {
		if apiErr.Kind == api.KindConnection {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	}
	if isValidationError(err) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrNoValidTransactions) ||
		errors.Is(err, core.ErrEmptyDescription) ||
		errors.Is(err, core.ErrEmptyTransactionData)
}

// writeError logs err and renders the error banner.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	fields := []any{log.FieldOperation, operation, log.FieldError, err}
	if apiErr, ok := api.AsError(err); ok {
		fields = append(fields, log.FieldEndpoint, apiErr.Endpoint, log.FieldErrorKind, apiErr.Kind.String())
	}
	if isValidationError(err) {
		logger.InfoContext(ctx, "Request rejected", fields...)
	} else {
		logger.ErrorContext(ctx, "Request failed", fields...)
	}
	Banner(errorStatus(err), errorMessage(err)).Write(w)
}
