package services

import (
	"context"
	"fmt"

	"econorise/internal/amqp"
	"econorise/internal/core"
	"econorise/internal/log"
	"econorise/internal/metrics"
)

// Assessor scores a loan application.
type Assessor interface {
	AssessEligibility(ctx context.Context, req core.AssessmentRequest) (*core.AssessmentResponse, error)
}

// EventPublisher announces completed assessments.
type EventPublisher interface {
	PublishAssessmentCompleted(ctx context.Context, msg *amqp.AssessmentCompletedMessage) error
}

// AssessmentService submits applications and announces the results.
type AssessmentService struct {
	assessor  Assessor
	publisher EventPublisher
	logger    *log.Logger
	metrics   metrics.Collector
}

type Option func(*AssessmentService)

func WithLogger(l *log.Logger) Option {
	return func(s *AssessmentService) {
		s.logger = l.WithComponent(log.ComponentAssessment)
	}
}

func WithMetrics(m metrics.Collector) Option {
	return func(s *AssessmentService) { s.metrics = m }
}

// NewAssessmentService wires the scoring client. publisher may be nil, in
// which case no events are sent.
func NewAssessmentService(assessor Assessor, publisher EventPublisher, opts ...Option) *AssessmentService {
	s := &AssessmentService{
		assessor:  assessor,
		publisher: publisher,
		logger:    log.Discard(),
		metrics:   metrics.NoOp{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Assess validates the application and sends it for scoring. The
// transaction text goes to the backend unparsed. Errors from the backend
// are returned unchanged so callers can show their message.
func (s *AssessmentService) Assess(ctx context.Context, req core.AssessmentRequest) (*core.AssessmentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp, err := s.assessor.AssessEligibility(ctx, req)
	if err != nil {
		s.logger.Failure(ctx, "Assessment failed", log.OpAssess, err)
		return nil, err
	}

	score := core.ClampScore(resp.LoanEligibilityScore)
	s.metrics.RecordAssessment(core.ScoreTier(score))

	eventID := ""
	if msg, err := s.publish(ctx, req, *resp); err != nil {
		// The applicant still gets the result.
		s.logger.Failure(ctx, "Failed to publish assessment event", log.OpPublish, err)
	} else if msg != nil {
		eventID = msg.ID
	}

	s.logger.AssessmentScored(ctx, score, core.ScoreLabel(score), len(resp.KeyRiskFactors), eventID)
	return resp, nil
}

func (s *AssessmentService) publish(ctx context.Context, req core.AssessmentRequest, resp core.AssessmentResponse) (*amqp.AssessmentCompletedMessage, error) {
	if s.publisher == nil {
		return nil, nil
	}
	msg := amqp.NewAssessmentCompletedMessage(req.BusinessDescription, resp)
	if err := s.publisher.PublishAssessmentCompleted(ctx, msg); err != nil {
		return nil, fmt.Errorf("publish event %s: %w", msg.ID, err)
	}
	return msg, nil
}
