// Package scorer turns enriched domains into scored leads and flattens
// accepted leads into output rows.
package scorer

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/config"
)

// Component caps. Their sum is the maximum lead score.
const (
	AuthorityWeight = 50.0
	RankWeight      = 30.0
	EmailWeight     = 20.0

	// MaxRank is the last rank that earns a rank component.
	MaxRank = 20
)

// Thresholds decide which leads and emails become output rows.
type Thresholds struct {
	MinLeadScore  float64
	MinEmailScore float64
}

// DefaultScoringConfig returns a config.ScoringConfig with the production
// thresholds and status weights.
func DefaultScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		MinLeadScore:  30,
		MinEmailScore: 0.5,
		Weights: config.StatusWeights{
			Valid:    1.0,
			CatchAll: 0.5,
			Unknown:  0,
			Invalid:  0,
		},
	}
}

// ThresholdsFrom extracts the filter thresholds from c.
func ThresholdsFrom(c config.ScoringConfig) Thresholds {
	return Thresholds{MinLeadScore: c.MinLeadScore, MinEmailScore: c.MinEmailScore}
}

// ValidateConfig checks that a ScoringConfig is internally consistent.
func ValidateConfig(c config.ScoringConfig) error {
	var errs []string

	if c.MinLeadScore < 0 || c.MinLeadScore > 100 {
		errs = append(errs, "min_lead_score must be between 0 and 100")
	}
	if c.MinEmailScore < 0 || c.MinEmailScore > 1 {
		errs = append(errs, "min_email_score must be between 0 and 1")
	}

	weights := map[string]float64{
		"valid":     c.Weights.Valid,
		"catch_all": c.Weights.CatchAll,
		"unknown":   c.Weights.Unknown,
		"invalid":   c.Weights.Invalid,
	}
	for name, w := range weights {
		if w < 0 || w > 1 {
			errs = append(errs, fmt.Sprintf("weights.%s must be between 0 and 1", name))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
