package scorer

import (
	"time"

	"github.com/sells-group/outreach-cli/internal/model"
)

// ExtractRows flattens result into one row per (lead, email) pair where the
// lead scores at least MinLeadScore and the email is valid with a score of at
// least MinEmailScore. Leads without a qualifying email add no rows.
func ExtractRows(result *model.OutreachResult, t Thresholds, now time.Time) []model.OutputRow {
	if result == nil {
		return nil
	}
	var rows []model.OutputRow
	for _, lead := range result.Leads {
		if lead.Score < t.MinLeadScore {
			continue
		}
		for _, e := range lead.Emails {
			if !e.Valid || e.Score < t.MinEmailScore {
				continue
			}
			rows = append(rows, model.OutputRow{
				Timestamp:      now,
				Keyword:        result.Keyword,
				Domain:         lead.Domain,
				AuthorityScore: lead.AuthorityScore,
				Rank:           lead.Rank,
				Email:          e.Address,
				EmailScore:     e.Score,
				LeadScore:      lead.Score,
			})
		}
	}
	return rows
}
