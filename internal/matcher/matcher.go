package matcher

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gerrardelliot83-create/bankrecon/internal/config"
	"github.com/gerrardelliot83-create/bankrecon/internal/domain"
)

// Engine scores candidate expenses/invoices against a bank transaction
// and returns ranked suggestions. Pure computation; all thresholds come
// from MatchingConfig.
type Engine struct {
	cfg config.MatchingConfig
}

func NewEngine(cfg config.MatchingConfig) *Engine {
	return &Engine{cfg: cfg}
}

// scored carries the per-component breakdown used for ranking.
type scored struct {
	suggestion  domain.Suggestion
	amountScore float64
	dateDays    int
}

// Rank scores every candidate and returns suggestions ordered highest
// confidence first, capped at MaxSuggestions. Ordering is deterministic:
// ties break on amount component, then date proximity, then candidate id.
func (e *Engine) Rank(tx *domain.BankTransaction, targetType domain.MatchTargetType, candidates []domain.Candidate) []domain.Suggestion {
	results := make([]scored, 0, len(candidates))

	for _, c := range candidates {
		if s, ok := e.score(tx, targetType, c); ok {
			results = append(results, s)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.suggestion.Confidence != b.suggestion.Confidence {
			return a.suggestion.Confidence > b.suggestion.Confidence
		}
		if a.amountScore != b.amountScore {
			return a.amountScore > b.amountScore
		}
		if a.dateDays != b.dateDays {
			return a.dateDays < b.dateDays
		}
		return a.suggestion.Candidate.ID < b.suggestion.Candidate.ID
	})

	if len(results) > e.cfg.MaxSuggestions {
		results = results[:e.cfg.MaxSuggestions]
	}

	suggestions := make([]domain.Suggestion, len(results))
	for i, r := range results {
		suggestions[i] = r.suggestion
	}
	return suggestions
}

// Score returns the confidence for one specific candidate, used when a
// match is confirmed so the stored confidence reflects the same scoring
// as the suggestion list.
func (e *Engine) Score(tx *domain.BankTransaction, targetType domain.MatchTargetType, candidate domain.Candidate) (float64, bool) {
	s, ok := e.score(tx, targetType, candidate)
	if !ok {
		return 0, false
	}
	return s.suggestion.Confidence, true
}

func (e *Engine) score(tx *domain.BankTransaction, targetType domain.MatchTargetType, c domain.Candidate) (scored, bool) {
	days := dateDistanceDays(tx.Date, c.Date)
	if days > e.cfg.DateWindowDays {
		return scored{}, false
	}

	var reasons []string

	amountScore, amountReason := e.amountScore(tx.Amount(), c.Amount)
	if amountReason != "" {
		reasons = append(reasons, amountReason)
	}

	dateScore, dateReason := e.dateScore(days)
	if dateReason != "" {
		reasons = append(reasons, dateReason)
	}

	descScore, descReason := descriptionScore(tx.Description, c)
	if descReason != "" {
		reasons = append(reasons, descReason)
	}

	confidence := amountScore*e.cfg.AmountWeight +
		dateScore*e.cfg.DateWeight +
		descScore*e.cfg.DescriptionWeight
	confidence = clamp01(confidence)

	return scored{
		suggestion: domain.Suggestion{
			Type:       targetType,
			Candidate:  c,
			Confidence: confidence,
			Reasons:    reasons,
		},
		amountScore: amountScore,
		dateDays:    days,
	}, true
}

// amountScore is 1 for an exact match to the cent, decaying linearly to
// zero at a tolerance of AmountTolerancePercent of the amount or
// AmountToleranceFloor, whichever is larger.
func (e *Engine) amountScore(txAmount, candidateAmount decimal.Decimal) (float64, string) {
	txAmount = txAmount.Abs()
	candidateAmount = candidateAmount.Abs()

	if txAmount.Equal(candidateAmount) {
		return 1.0, "exact amount match"
	}

	tolerance := txAmount.Mul(e.cfg.AmountTolerancePercent)
	if tolerance.LessThan(e.cfg.AmountToleranceFloor) {
		tolerance = e.cfg.AmountToleranceFloor
	}

	diff := txAmount.Sub(candidateAmount).Abs()
	if diff.GreaterThanOrEqual(tolerance) {
		return 0, ""
	}

	score := 1.0 - diff.Div(tolerance).InexactFloat64()
	return clamp01(score), fmt.Sprintf("amount within %s", diff.StringFixed(2))
}

// dateScore is 1 for the same day, decaying linearly to zero at the
// window edge.
func (e *Engine) dateScore(days int) (float64, string) {
	if days == 0 {
		return 1.0, "same day"
	}
	score := 1.0 - float64(days)/float64(e.cfg.DateWindowDays)
	if score <= 0 {
		return 0, ""
	}
	if days == 1 {
		return score, "within 1 day"
	}
	return score, fmt.Sprintf("within %d days", days)
}

// descriptionScore is the token-overlap ratio between the transaction
// description and the candidate's name or description, whichever
// overlaps more. Case-insensitive; denominator is the smaller token set
// so a short vendor name inside a long narrative scores fully.
func descriptionScore(description string, c domain.Candidate) (float64, string) {
	score := tokenOverlap(description, c.Name)
	if s := tokenOverlap(description, c.Description); s > score {
		score = s
	}
	if score <= 0 {
		return 0, ""
	}
	return score, "description overlap"
}

func tokenOverlap(a, b string) float64 {
	ta, tb := tokenize(a), tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	set := make(map[string]bool, len(ta))
	for t := range ta {
		set[t] = true
	}

	common := 0
	for t := range tb {
		if set[t] {
			common++
		}
	}

	smaller := len(ta)
	if len(tb) < smaller {
		smaller = len(tb)
	}
	return float64(common) / float64(smaller)
}

func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, f := range strings.Fields(strings.ToLower(s)) {
		f = strings.Trim(f, ".,;:-()\"'")
		if f != "" {
			tokens[f] = true
		}
	}
	return tokens
}

func dateDistanceDays(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	days := int(ad.Sub(bd).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
