package core

import (
	"errors"
	"strings"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	// Transaction is a single parsed cash movement. Amount is never negative.
	Transaction struct {
		Amount float64         `json:"amount"`
		Type   TransactionType `json:"type"`
	}

	// AssessmentRequest is sent as-is to the scoring endpoint.
	// TransactionData stays raw text: the scoring service does its own reading.
	AssessmentRequest struct {
		BusinessDescription string `json:"business_description"`
		TransactionData     string `json:"transaction_data"`
	}

	AssessmentResponse struct {
		LoanEligibilityScore int      `json:"loan_eligibility_score"`
		KeyRiskFactors       []string `json:"key_risk_factors"`
		Recommendation       string   `json:"recommendation"`
	}

	// EconomicIndicators keeps both series in the order the server sent them.
	EconomicIndicators struct {
		UnemploymentRate   Series `json:"unemployment_rate"`
		ConsumerPriceIndex Series `json:"consumer_price_index"`
	}

	MarketDataItem struct {
		AsOfDate    string `json:"as_of_date"`
		Description string `json:"description"`
		FileID      string `json:"file_id"`
		Title       string `json:"title"`
	}

	FinancialHealthRequest struct {
		Transactions []Transaction `json:"transactions"`
	}

	FinancialHealthResult struct {
		AverageMonthlyIncome   float64 `json:"average_monthly_income"`
		AverageMonthlyExpenses float64 `json:"average_monthly_expenses"`
		CashFlowTrend          string  `json:"cash_flow_trend"`
		DebtToIncomeRatio      float64 `json:"debt_to_income_ratio"`
		Summary                string  `json:"summary"`
	}

	YearValue struct {
		Year  string  `json:"year"`
		Value float64 `json:"value"`
	}

	DevelopmentIndicators struct {
		Country   string      `json:"country"`
		Indicator string      `json:"indicator"`
		Data      []YearValue `json:"data"`
	}
)

var (
	ErrEmptyDescription     = errors.New("business description is required")
	ErrEmptyTransactionData = errors.New("transaction data is required")
)

// Validate checks the fields the application form requires before submission.
func (r AssessmentRequest) Validate() error {
	if strings.TrimSpace(r.BusinessDescription) == "" {
		return ErrEmptyDescription
	}
	if strings.TrimSpace(r.TransactionData) == "" {
		return ErrEmptyTransactionData
	}
	return nil
}

// Latest returns the last data point, if any.
func (d DevelopmentIndicators) Latest() (YearValue, bool) {
	if len(d.Data) == 0 {
		return YearValue{}, false
	}
	return d.Data[len(d.Data)-1], true
}

// Tail returns at most the last n data points, preserving order.
func (d DevelopmentIndicators) Tail(n int) []YearValue {
	if n <= 0 || len(d.Data) <= n {
		return d.Data
	}
	return d.Data[len(d.Data)-n:]
}
