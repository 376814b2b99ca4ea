package outreach

import (
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/idna"

	"github.com/sells-group/outreach-cli/internal/model"
)

// CanonicalHost returns the lowercase ASCII hostname of rawURL with any
// leading "www." removed, or "" when rawURL has no usable host.
func CanonicalHost(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return ""
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		// Lookup rejects some hosts real sites use (underscores); fall back
		// to the lenient profile before giving up.
		ascii, err = idna.Punycode.ToASCII(host)
		if err != nil {
			return ""
		}
	}
	return strings.TrimPrefix(ascii, "www.")
}

// Blocked reports whether host equals a blocked host or is a subdomain of one.
func Blocked(host string, blocked []string) bool {
	for _, b := range blocked {
		b = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(b)), "www.")
		if b == "" {
			continue
		}
		if host == b || strings.HasSuffix(host, "."+b) {
			return true
		}
	}
	return false
}

// ExtractDomains collapses hits into one Domain per canonical host, keeping
// the lowest rank seen. Unparsable URLs and blocked hosts are skipped. The
// result is ordered by best rank and capped at max when max > 0.
func ExtractDomains(hits []model.SearchHit, blocked []string, max int) []model.Domain {
	index := make(map[string]int)
	var out []model.Domain
	for _, h := range hits {
		host := CanonicalHost(h.URL)
		if host == "" {
			zap.L().Debug("outreach: skipping unparsable url", zap.String("url", h.URL))
			continue
		}
		if Blocked(host, blocked) {
			continue
		}

		i, ok := index[host]
		if !ok {
			index[host] = len(out)
			out = append(out, model.Domain{Host: host, BestRank: h.Rank})
			i = len(out) - 1
		}
		d := &out[i]
		d.Hits++
		if h.Rank < d.BestRank {
			d.BestRank = h.Rank
		}
		if h.Title != "" {
			d.Titles = append(d.Titles, h.Title)
		}
		d.URLs = append(d.URLs, h.URL)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].BestRank < out[j].BestRank })
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}
