package services

import (
	"context"

	"econorise/internal/core"
	"econorise/internal/log"
)

// HealthAnalyzer computes financial health from parsed transactions.
type HealthAnalyzer interface {
	GetFinancialHealth(ctx context.Context, transactions []core.Transaction) (*core.FinancialHealthResult, error)
}

// FinancialHealthService turns free text into an analysis request.
type FinancialHealthService struct {
	analyzer HealthAnalyzer
	logger   *log.Logger
}

func NewFinancialHealthService(analyzer HealthAnalyzer, logger *log.Logger) *FinancialHealthService {
	if logger == nil {
		logger = log.Discard()
	}
	return &FinancialHealthService{analyzer: analyzer, logger: logger.WithComponent(log.ComponentAssessment)}
}

// Analyze parses text and asks the backend for an analysis. When nothing in
// text parses it returns core.ErrNoValidTransactions without a backend call.
func (s *FinancialHealthService) Analyze(ctx context.Context, text string) ([]core.Transaction, *core.FinancialHealthResult, error) {
	transactions, err := core.ParseTransactionsStrict(text)
	if err != nil {
		s.logger.DebugContext(ctx, "No transactions parsed", log.FieldOperation, log.OpParse)
		return nil, nil, err
	}

	result, err := s.analyzer.GetFinancialHealth(ctx, transactions)
	if err != nil {
		return transactions, nil, err
	}

	s.logger.InfoContext(ctx, "Financial health analyzed",
		log.FieldOperation, log.OpAnalyze,
		log.FieldTxCount, len(transactions))
	return transactions, result, nil
}
