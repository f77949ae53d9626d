package http

import (
	"html/template"
	"net/http"
	"strings"

	"econorise/internal/core"
	"econorise/internal/log"
	"econorise/internal/render"
)

const totalSteps = 3

var stepTitles = [totalSteps + 1]struct{ Title, Description, Hint string }{
	1: {"Business Details", "Tell us about your business and loan requirements", "Please describe your business before continuing."},
	2: {"Transaction Data", "Provide your transaction history for analysis", "Please enter your transaction history before continuing."},
	3: {"Review & Submit", "Review your information and submit for assessment", ""},
}

// applyForm is the wizard state. It travels in hidden form fields between
// requests, so nothing is kept on the server.
type applyForm struct {
	Step                int
	BusinessDescription string
	TransactionData     string
	Hint                string
}

func applyFormFrom(sub *submission) applyForm {
	return applyForm{
		Step:                min(max(sub.Int("step", 1), 1), totalSteps),
		BusinessDescription: sub.Raw("business_description"),
		TransactionData:     sub.Raw("transaction_data"),
	}
}

// StepValid reports whether the current step may be left going forward.
func (f applyForm) StepValid() bool {
	switch f.Step {
	case 1:
		return strings.TrimSpace(f.BusinessDescription) != ""
	case 2:
		return strings.TrimSpace(f.TransactionData) != ""
	default:
		return true
	}
}

// Next advances one step when the current one is valid and otherwise
// stays put with a hint.
func (f applyForm) Next() applyForm {
	f.Hint = ""
	if !f.StepValid() {
		f.Hint = stepTitles[f.Step].Hint
		return f
	}
	if f.Step < totalSteps {
		f.Step++
	}
	return f
}

// Back moves one step back; the first step has nowhere to go.
func (f applyForm) Back() applyForm {
	f.Hint = ""
	if f.Step > 1 {
		f.Step--
	}
	return f
}

func (f applyForm) Title() string       { return stepTitles[f.Step].Title }
func (f applyForm) Description() string { return stepTitles[f.Step].Description }
func (f applyForm) TotalSteps() int     { return totalSteps }
func (f applyForm) Progress() int       { return f.Step * 100 / totalSteps }
func (f applyForm) CanGoBack() bool     { return f.Step > 1 }
func (f applyForm) IsLast() bool        { return f.Step == totalSteps }

// assessmentView is what the results partial shows for a scored application.
type assessmentView struct {
	Score          int
	Bar            int
	Label          string
	Tier           string
	Approval       string
	RiskFactors    []string
	Recommendation template.HTML
}

func newAssessmentView(resp *core.AssessmentResponse) assessmentView {
	return assessmentView{
		Score:          resp.LoanEligibilityScore,
		Bar:            core.ClampScore(resp.LoanEligibilityScore),
		Label:          core.ScoreLabel(resp.LoanEligibilityScore),
		Tier:           core.ScoreTier(resp.LoanEligibilityScore),
		Approval:       core.ApprovalStatus(resp.LoanEligibilityScore),
		RiskFactors:    resp.KeyRiskFactors,
		Recommendation: render.MarkdownOrText(resp.Recommendation),
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, r, "index_page", nil)
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, r, "apply_page", applyForm{Step: 1})
}

// handleApplyStep moves the wizard forward or back and returns the new step.
func (s *Server) handleApplyStep(w http.ResponseWriter, r *http.Request) {
	sub, ok := decodeSubmission(w, r)
	if !ok {
		return
	}

	form := applyFormFrom(sub)
	if sub.Raw("direction") == "back" {
		form = form.Back()
	} else {
		form = form.Next()
	}

	s.respond(w, r, newPartial().StepChanged(form.Step), "apply_wizard", form)
}

// handleApplySubmit sends the application for scoring. Both fields go to the
// backend exactly as typed; emptiness is checked on the trimmed text.
func (s *Server) handleApplySubmit(w http.ResponseWriter, r *http.Request) {
	sub, ok := decodeSubmission(w, r)
	if !ok {
		return
	}

	req := core.AssessmentRequest{
		BusinessDescription: sub.Raw("business_description"),
		TransactionData:     sub.Raw("transaction_data"),
	}

	resp, err := s.deps.Assessor.Assess(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err, log.OpAssess)
		return
	}

	view := newAssessmentView(resp)
	s.respond(w, r,
		newPartial().
			AssessmentCompleted(view.Score, view.Tier).
			Toast(ToastSuccess, "Assessment complete"),
		"assessment_results", view)
}
