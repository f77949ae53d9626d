package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Score thresholds shared by labels, tiers and approval status.
const (
	ScoreExcellent = 80
	ScoreGood      = 60
	ScoreFair      = 40
)

// FormatCurrency formats an amount as whole US dollars (e.g., "$1,235").
func FormatCurrency(amount float64) string {
	whole := int64(math.Round(math.Abs(amount)))
	s := "$" + humanize.Comma(whole)
	if amount < 0 && whole != 0 {
		return "-" + s
	}
	return s
}

// FormatPercentage formats a fraction as a percentage with one decimal
// (0.361 -> "36.1%").
func FormatPercentage(value float64) string {
	return strconv.FormatFloat(value*100, 'f', 1, 64) + "%"
}

// FormatPopulation formats a head count in millions with one decimal.
func FormatPopulation(value float64) string {
	return strconv.FormatFloat(value/1e6, 'f', 1, 64) + "M"
}

// FormatNumber formats a value with thousands separators and up to two decimals.
func FormatNumber(value float64) string {
	rounded := math.Round(value*100) / 100
	if rounded == 0 {
		rounded = 0 // no "-0"
	}
	return humanize.Commaf(rounded)
}

// ScoreLabel returns the human label for a loan eligibility score.
func ScoreLabel(score int) string {
	switch {
	case score >= ScoreExcellent:
		return "Excellent"
	case score >= ScoreGood:
		return "Good"
	case score >= ScoreFair:
		return "Fair"
	default:
		return "Needs Improvement"
	}
}

// ScoreTier buckets a score into high, medium or low for colouring.
func ScoreTier(score int) string {
	switch {
	case score >= ScoreExcellent:
		return "high"
	case score >= ScoreGood:
		return "medium"
	default:
		return "low"
	}
}

// ApprovalStatus is the quick summary shown next to the score.
func ApprovalStatus(score int) string {
	if score >= ScoreGood {
		return "Approved"
	}
	return "Under Review"
}

// ClampScore bounds a score to 0..100. The backend promises that range but
// the UI must not break when it is violated.
func ClampScore(score int) int {
	return max(0, min(100, score))
}

// IsPositiveTrend reports whether a cash flow trend label reads as good news.
func IsPositiveTrend(trend string) bool {
	t := strings.ToLower(trend)
	return strings.Contains(t, "positive") || strings.Contains(t, "improving")
}

// Summary returns the first n runes of s followed by an ellipsis when cut.
func Summary(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return fmt.Sprintf("%s…", strings.TrimSpace(string(r[:n])))
}
