package http

import (
	"net/http"

	"econorise/internal/core"
	"econorise/internal/log"
)

type financialHealthView struct {
	Result       *core.FinancialHealthResult
	Transactions int
	Income       float64
	Expenses     float64
	Positive     bool
	// DebtBar is the debt-to-income ratio as a 0-100 gauge value.
	DebtBar int
}

func newFinancialHealthView(txs []core.Transaction, res *core.FinancialHealthResult) financialHealthView {
	income, expenses := core.Totals(txs)
	return financialHealthView{
		Result:       res,
		Transactions: len(txs),
		Income:       income,
		Expenses:     expenses,
		Positive:     core.IsPositiveTrend(res.CashFlowTrend),
		DebtBar:      core.ClampScore(int(res.DebtToIncomeRatio*100 + 0.5)),
	}
}

// handleFinancialHealth parses the pasted transactions and analyses them.
// Input without a single valid line is rejected here and never sent on.
func (s *Server) handleFinancialHealth(w http.ResponseWriter, r *http.Request) {
	sub, ok := decodeSubmission(w, r)
	if !ok {
		return
	}

	txs, res, err := s.deps.Analyzer.Analyze(r.Context(), sub.Raw("transactions"))
	if err != nil {
		s.writeError(w, r, err, log.OpAnalyze)
		return
	}

	s.respond(w, r,
		newPartial().HealthAnalyzed(len(txs)),
		"financial_health", newFinancialHealthView(txs, res))
}
