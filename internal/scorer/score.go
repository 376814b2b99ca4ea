package scorer

import (
	"math"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/emails"
	"github.com/sells-group/outreach-cli/internal/model"
)

// Result is the total lead score and its rounded components.
type Result struct {
	Total     float64
	Breakdown model.ScoreBreakdown
}

// Score combines authority (0-100), search rank and the best validated email
// confidence (0-1) into a 0-100 lead score rounded to one decimal.
func Score(authority float64, rank int, bestEmail float64) Result {
	a := clamp(authority, 0, 100) / 100 * AuthorityWeight
	r := rankComponent(rank)
	e := clamp(bestEmail, 0, 1) * EmailWeight

	return Result{
		Total: round1(a + r + e),
		Breakdown: model.ScoreBreakdown{
			Authority: round1(a),
			Rank:      round1(r),
			Email:     round1(e),
		},
	}
}

// rankComponent decays linearly from RankWeight at rank 1 to RankWeight/20
// at MaxRank, and is 0 outside [1, MaxRank].
func rankComponent(rank int) float64 {
	if rank < 1 || rank > MaxRank {
		return 0
	}
	return float64(MaxRank+1-rank) * RankWeight / MaxRank
}

// Best returns the highest email score in emails, or 0 when there are none.
func Best(list []model.Email) float64 {
	best := 0.0
	for _, e := range list {
		if e.Score > best {
			best = e.Score
		}
	}
	return best
}

// StatusWeight returns the weight for status under w.
func StatusWeight(status model.ValidationStatus, w config.StatusWeights) float64 {
	switch status {
	case model.StatusValid:
		return w.Valid
	case model.StatusCatchAll:
		return w.CatchAll
	case model.StatusInvalid:
		return w.Invalid
	default:
		return w.Unknown
	}
}

// EmailScore weights a candidate's confidence by its validation status. An
// unknown confidence counts as 1 so validation alone decides the score.
func EmailScore(c model.EmailCandidate, status model.ValidationStatus, w config.StatusWeights) float64 {
	return clamp(StatusWeight(status, w)*clamp(c.ConfidenceOr(1), 0, 1), 0, 1)
}

// ScoreEmails joins candidates with their validation results. A candidate
// without a result is treated as unknown/not_checked.
func ScoreEmails(cands []model.EmailCandidate, results map[string]model.ValidationResult, w config.StatusWeights) []model.Email {
	out := make([]model.Email, 0, len(cands))
	for _, c := range cands {
		res, ok := results[emails.Key(c.Address)]
		if !ok {
			res = model.Unknown(c.Address, model.SubStatusNotChecked)
		}
		out = append(out, model.Email{
			Address:    c.Address,
			Confidence: c.Confidence,
			Source:     c.Source,
			Status:     res.Status,
			SubStatus:  res.SubStatus,
			Valid:      res.Status == model.StatusValid,
			Score:      round2(EmailScore(c, res.Status, w)),
		})
	}
	return out
}

// NewLead scores an enriched domain whose Emails are already validated.
func NewLead(d model.EnrichedDomain) model.Lead {
	res := Score(d.AuthorityScore, d.Domain.BestRank, Best(d.Emails))
	return model.Lead{
		Domain:         d.Domain.Host,
		Rank:           d.Domain.BestRank,
		AuthorityScore: d.AuthorityScore,
		Emails:         d.Emails,
		Score:          res.Total,
		Breakdown:      res.Breakdown,
	}
}

// SortLeads orders leads by score descending, then authority descending.
// Equal leads keep their input order.
func SortLeads(leads []model.Lead) {
	// Insertion sort is stable and result sets are small (<= max domains).
	for i := 1; i < len(leads); i++ {
		for j := i; j > 0 && less(leads[j], leads[j-1]); j-- {
			leads[j], leads[j-1] = leads[j-1], leads[j]
		}
	}
}

func less(a, b model.Lead) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.AuthorityScore > b.AuthorityScore
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
