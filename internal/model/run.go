package model

import "time"

// RunRecord is the bookkeeping kept for one keyword run. It never carries
// provider payloads.
type RunRecord struct {
	ID        string        `json:"id"`
	Keyword   string        `json:"keyword"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Domains   int           `json:"domains"`
	Leads     int           `json:"leads"`
	Rows      int           `json:"rows"`
	Error     string        `json:"error,omitempty"`
}

// BatchSummary totals a multi-keyword run.
type BatchSummary struct {
	Keywords  int `json:"keywords"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Rows      int `json:"rows"`
	// Skipped counts keywords dropped by the per-run cap.
	Skipped int `json:"skipped"`
}
