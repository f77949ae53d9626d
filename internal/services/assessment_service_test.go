package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"econorise/internal/amqp"
	"econorise/internal/api"
	"econorise/internal/core"
	"econorise/internal/log"
)

type fakeAssessor struct {
	resp  *core.AssessmentResponse
	err   error
	calls int
	last  core.AssessmentRequest
}

func (f *fakeAssessor) AssessEligibility(_ context.Context, req core.AssessmentRequest) (*core.AssessmentResponse, error) {
	f.calls++
	f.last = req
	return f.resp, f.err
}

type fakePublisher struct {
	err  error
	sent []*amqp.AssessmentCompletedMessage
}

func (f *fakePublisher) PublishAssessmentCompleted(_ context.Context, msg *amqp.AssessmentCompletedMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeMetrics struct{ tiers []string }

func (f *fakeMetrics) RecordRequest(string, string, time.Duration) {}
func (f *fakeMetrics) RecordBackendUp(bool)                        {}
func (f *fakeMetrics) RecordAssessment(tier string)                { f.tiers = append(f.tiers, tier) }

func validRequest() core.AssessmentRequest {
	return core.AssessmentRequest{
		BusinessDescription: "Tailoring shop",
		TransactionData:     "1000 income\n300 expense",
	}
}

func TestAssessmentService_Validation(t *testing.T) {
	assessor := &fakeAssessor{}
	svc := NewAssessmentService(assessor, nil)

	tests := []struct {
		name string
		req  core.AssessmentRequest
		want error
	}{
		{"missing description", core.AssessmentRequest{TransactionData: "1 income"}, core.ErrEmptyDescription},
		{"missing transactions", core.AssessmentRequest{BusinessDescription: "shop", TransactionData: "  "}, core.ErrEmptyTransactionData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Assess(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Fatalf("Assess() error = %v, want %v", err, tt.want)
			}
		})
	}
	if assessor.calls != 0 {
		t.Fatalf("backend called %d times for invalid input", assessor.calls)
	}
}

func TestAssessmentService_PublishesEvent(t *testing.T) {
	assessor := &fakeAssessor{resp: &core.AssessmentResponse{
		LoanEligibilityScore: 65,
		KeyRiskFactors:       []string{"Thin margins"},
		Recommendation:       "Proceed with a small loan.",
	}}
	publisher := &fakePublisher{}
	m := &fakeMetrics{}
	svc := NewAssessmentService(assessor, publisher, WithMetrics(m))

	resp, err := svc.Assess(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if resp.LoanEligibilityScore != 65 {
		t.Fatalf("resp = %+v", resp)
	}
	if assessor.last.TransactionData != "1000 income\n300 expense" {
		t.Fatalf("transaction data altered: %q", assessor.last.TransactionData)
	}
	if len(publisher.sent) != 1 {
		t.Fatalf("published %d events, want 1", len(publisher.sent))
	}
	if ev := publisher.sent[0]; ev.Score != 65 || ev.ScoreLabel != "Good" || ev.RiskFactorCount != 1 {
		t.Fatalf("event = %+v", ev)
	}
	if len(m.tiers) != 1 || m.tiers[0] != "medium" {
		t.Fatalf("tiers = %v", m.tiers)
	}
}

func TestAssessmentService_PublishFailureIsNotFatal(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewText(&buf, slog.LevelInfo, log.ComponentApp)

	assessor := &fakeAssessor{resp: &core.AssessmentResponse{LoanEligibilityScore: 40}}
	publisher := &fakePublisher{err: errors.New("broker down")}
	svc := NewAssessmentService(assessor, publisher, WithLogger(logger))

	resp, err := svc.Assess(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Assess should succeed when publishing fails: %v", err)
	}
	if resp.LoanEligibilityScore != 40 {
		t.Fatalf("resp = %+v", resp)
	}
	if !strings.Contains(buf.String(), "Failed to publish assessment event") {
		t.Fatalf("publish failure not logged: %s", buf.String())
	}
}

func TestAssessmentService_BackendErrorPassesThrough(t *testing.T) {
	backendErr := &api.Error{Kind: api.KindHTTP, Status: 500, Endpoint: api.PathAssessEligibility}
	svc := NewAssessmentService(&fakeAssessor{err: backendErr}, &fakePublisher{})

	_, err := svc.Assess(context.Background(), validRequest())
	if err == nil || err.Error() != "HTTP error! status: 500" {
		t.Fatalf("Assess error = %v", err)
	}
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Status != 500 {
		t.Fatalf("error lost its type: %T", err)
	}
}
