// Package core provides the domain types of the loan assessment front end.
//
// This file contains the free-text transaction parser shared by the
// financial health analyzer and the command line tool.
package core

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoValidTransactions is returned when no line of the input matched.
// Its message is shown to the user as-is.
var ErrNoValidTransactions = errors.New("No valid transactions found. Please use format like '1000 income' or '500 expense'")

// transactionLine finds a signed decimal followed, after optional
// whitespace, by a keyword. Only the keyword is case-insensitive.
// Whitespace includes Unicode spaces such as the no-break space that pasted
// spreadsheet text often carries.
var transactionLine = regexp.MustCompile(`([+-]?\d+(?:\.\d+)?)[\s\v\p{Zs}\x{FEFF}\x{2028}\x{2029}]*((?i:income|expense|revenue|cost))`)

// ParseTransactions extracts one transaction per matching line.
//
// Lines are separated by "\n". Only the first match on a line is used and any
// trailing text is ignored; lines without a match are skipped. The sign of the
// amount is accepted but dropped, so "-500 income" and "500 income" are equal.
// The result may be empty.
//
// Examples:
//   ParseTransactions("1000 income\n300 cost") -> [{1000 income} {300 expense}]
//   ParseTransactions("-250 expense")          -> [{250 expense}]
//   ParseTransactions("hello world")           -> []
func ParseTransactions(text string) []Transaction {
	transactions := make([]Transaction, 0)
	for _, line := range strings.Split(text, "\n") {
		m := transactionLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		amount, err := strconv.ParseFloat(m[1], 64)
		if err != nil || math.IsInf(amount, 0) {
			continue
		}
		transactions = append(transactions, Transaction{
			Amount: math.Abs(amount),
			Type:   classifyKeyword(m[2]),
		})
	}
	return transactions
}

// ParseTransactionsStrict is ParseTransactions that fails with
// ErrNoValidTransactions when nothing matched.
func ParseTransactionsStrict(text string) ([]Transaction, error) {
	transactions := ParseTransactions(text)
	if len(transactions) == 0 {
		return nil, ErrNoValidTransactions
	}
	return transactions, nil
}

func classifyKeyword(keyword string) TransactionType {
	switch strings.ToLower(keyword) {
	case "income", "revenue":
		return Income
	default:
		return Expense
	}
}

// Totals sums parsed transactions by type.
func Totals(transactions []Transaction) (income, expenses float64) {
	for _, t := range transactions {
		switch t.Type {
		case Income:
			income += t.Amount
		case Expense:
			expenses += t.Amount
		}
	}
	return income, expenses
}
