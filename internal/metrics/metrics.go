// Package metrics defines the measurements the front end records about its
// traffic to the EconoRise backend.
package metrics

import "time"

// Outcome labels for backend calls.
const (
	OutcomeSuccess         = "success"
	OutcomeHTTPError       = "http_error"
	OutcomeConnectionError = "connection_error"
)

// Collector receives measurements. Implementations must be safe for concurrent use.
type Collector interface {
	// RecordRequest records one backend call and how it ended.
	RecordRequest(endpoint, outcome string, duration time.Duration)

	// RecordBackendUp records the result of the latest health check.
	RecordBackendUp(up bool)

	// RecordAssessment records a completed eligibility assessment by score tier.
	RecordAssessment(tier string)
}

// NoOp discards every measurement.
type NoOp struct{}

func (NoOp) RecordRequest(string, string, time.Duration) {}
func (NoOp) RecordBackendUp(bool)                        {}
func (NoOp) RecordAssessment(string)                     {}
