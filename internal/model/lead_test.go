package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseValidationStatus(t *testing.T) {
	tests := []struct {
		in   string
		want ValidationStatus
	}{
		{"valid", StatusValid},
		{"Valid", StatusValid},
		{"catch-all", StatusCatchAll},
		{"accept_all", StatusCatchAll},
		{"invalid", StatusInvalid},
		{"spamtrap", StatusInvalid},
		{"do_not_mail", StatusInvalid},
		{"unknown", StatusUnknown},
		{"", StatusUnknown},
		{"something-new", StatusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseValidationStatus(tt.in))
		})
	}
}

func TestEmailCandidate_ConfidenceOr(t *testing.T) {
	assert.InDelta(t, 0.7, EmailCandidate{Confidence: Confidence(0.7)}.ConfidenceOr(1), 1e-9)
	assert.InDelta(t, 1.0, EmailCandidate{}.ConfidenceOr(1), 1e-9)
}

func TestOutputRow_Values(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	row := OutputRow{
		Timestamp:      ts,
		Keyword:        "plumbers leeds",
		Domain:         "acme.co.uk",
		AuthorityScore: 42,
		Rank:           3,
		Email:          "jane@acme.co.uk",
		EmailScore:     0.9,
		LeadScore:      71.5,
	}

	vals := row.Values()
	assert.Len(t, vals, len(RowHeader))
	assert.Equal(t, "2026-03-01T12:00:00Z", vals[0])
	assert.Equal(t, "acme.co.uk", vals[2])
	assert.Equal(t, "jane@acme.co.uk", vals[5])
	assert.Equal(t, 71.5, vals[7])
}
