package amqp

import (
	"encoding/json"
	"time"

	"econorise/internal/core"

	"github.com/google/uuid"
)

// summaryRunes bounds the business description carried in an event.
const summaryRunes = 140

// AssessmentCompletedMessage announces a scored loan application.
// It carries what a lender needs to triage the application, not the raw
// transaction data.
type AssessmentCompletedMessage struct {
	ID              string    `json:"id"`
	Score           int       `json:"score"`
	ScoreLabel      string    `json:"score_label"`
	ApprovalStatus  string    `json:"approval_status"`
	RiskFactorCount int       `json:"risk_factor_count"`
	RiskFactors     []string  `json:"risk_factors"`
	Recommendation  string    `json:"recommendation"`
	BusinessSummary string    `json:"business_summary"`
	Timestamp       time.Time `json:"timestamp"`
}

// NewAssessmentCompletedMessage builds the event for a successful assessment
func NewAssessmentCompletedMessage(businessDescription string, resp core.AssessmentResponse) *AssessmentCompletedMessage {
	score := core.ClampScore(resp.LoanEligibilityScore)
	risks := resp.KeyRiskFactors
	if risks == nil {
		risks = []string{}
	}
	return &AssessmentCompletedMessage{
		ID:              uuid.NewString(),
		Score:           score,
		ScoreLabel:      core.ScoreLabel(score),
		ApprovalStatus:  core.ApprovalStatus(score),
		RiskFactorCount: len(risks),
		RiskFactors:     risks,
		Recommendation:  resp.Recommendation,
		BusinessSummary: core.Summary(businessDescription, summaryRunes),
		Timestamp:       time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *AssessmentCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AssessmentCompletedMessageFromJSON creates a message from JSON bytes
func AssessmentCompletedMessageFromJSON(data []byte) (*AssessmentCompletedMessage, error) {
	var msg AssessmentCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
