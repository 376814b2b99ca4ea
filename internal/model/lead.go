// Package model holds the entities created and discarded within a single
// outreach run: search hits, candidate domains, discovered emails, their
// validation outcome and the scored leads built from them.
package model

import (
	"time"
)

// SearchHit is one organic search result. Rank is the 1-based position in
// the provider response.
type SearchHit struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	Rank  int    `json:"rank"`
}

// Domain is a canonical host extracted from search hits. BestRank is the
// lowest rank observed for the host; Hits counts every hit seen for it.
type Domain struct {
	Host     string   `json:"host"`
	BestRank int      `json:"best_rank"`
	Hits     int      `json:"hits"`
	Titles   []string `json:"titles,omitempty"`
	URLs     []string `json:"urls,omitempty"`
}

// AuthoritySignal is a normalized 0-100 authority estimate for a domain.
type AuthoritySignal struct {
	DomainScore float64 `json:"domain_score"`
	Source      string  `json:"source"`
}

// EmailCandidate is a discovered address before validation. A nil
// Confidence means the provider did not report one.
type EmailCandidate struct {
	Address    string   `json:"address"`
	Confidence *float64 `json:"confidence,omitempty"`
	Source     string   `json:"source"`
	RoleHint   string   `json:"role_hint,omitempty"`
}

// ConfidenceOr returns the candidate confidence, or def when unknown.
func (c EmailCandidate) ConfidenceOr(def float64) float64 {
	if c.Confidence == nil {
		return def
	}
	return *c.Confidence
}

// Confidence is a helper for building candidates with a known confidence.
func Confidence(v float64) *float64 {
	return &v
}

// Email is a merged candidate joined with its validation outcome.
type Email struct {
	Address    string           `json:"email"`
	Confidence *float64         `json:"confidence,omitempty"`
	Source     string           `json:"source"`
	Status     ValidationStatus `json:"status"`
	SubStatus  string           `json:"sub_status,omitempty"`
	Valid      bool             `json:"valid"`
	Score      float64          `json:"score"`
}

// EnrichedDomain is the output of the domain enricher.
type EnrichedDomain struct {
	Domain         Domain           `json:"domain"`
	AuthorityScore float64          `json:"authority_score"`
	Candidates     []EmailCandidate `json:"candidates"`
	Emails         []Email          `json:"emails"`
	Providers      []string         `json:"providers,omitempty"`
}

// ScoreBreakdown holds the rounded per-component scores of a lead.
type ScoreBreakdown struct {
	Authority float64 `json:"authority"`
	Rank      float64 `json:"rank"`
	Email     float64 `json:"email"`
}

// Lead is a scored domain. Immutable after creation.
type Lead struct {
	Domain         string         `json:"domain"`
	Rank           int            `json:"rank"`
	AuthorityScore float64        `json:"authority_score"`
	Emails         []Email        `json:"emails"`
	Score          float64        `json:"score"`
	Breakdown      ScoreBreakdown `json:"score_breakdown"`
}

// OutreachResult is the terminal output of one keyword run. Leads are
// sorted by score descending.
type OutreachResult struct {
	Keyword      string        `json:"keyword"`
	TotalDomains int           `json:"total_domains"`
	Leads        []Lead        `json:"leads"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
}

// OutputRow is one flattened (lead, email) pair accepted by the filter.
type OutputRow struct {
	Timestamp      time.Time `json:"timestamp"`
	Keyword        string    `json:"keyword"`
	Domain         string    `json:"domain"`
	AuthorityScore float64   `json:"authority_score"`
	Rank           int       `json:"rank"`
	Email          string    `json:"email"`
	EmailScore     float64   `json:"email_score"`
	LeadScore      float64   `json:"lead_score"`
}

// RowHeader is the column order used by spreadsheet sinks.
var RowHeader = []string{"timestamp", "keyword", "domain", "authority", "rank", "email", "email_score", "lead_score"}

// Values returns the row in RowHeader order.
func (r OutputRow) Values() []any {
	return []any{
		r.Timestamp.UTC().Format(time.RFC3339),
		r.Keyword,
		r.Domain,
		r.AuthorityScore,
		r.Rank,
		r.Email,
		r.EmailScore,
		r.LeadScore,
	}
}
