// Package emails merges candidate lists from several discovery providers and
// filters out role mailboxes.
package emails

import (
	"net/mail"
	"strings"

	"github.com/sells-group/outreach-cli/internal/model"
)

// RolePrefixes are local parts that identify shared mailboxes.
var RolePrefixes = []string{
	"info", "support", "admin", "sales", "billing",
	"noreply", "no-reply", "webmaster", "contact", "help",
}

// Key returns the deduplication key for an address.
func Key(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// IsRoleAddress reports whether the local part is a role prefix, either
// exactly or followed by one of . - _ +.
func IsRoleAddress(addr string) bool {
	local, _, ok := strings.Cut(Key(addr), "@")
	if !ok {
		return false
	}
	for _, p := range RolePrefixes {
		if local == p {
			return true
		}
		if strings.HasPrefix(local, p) && len(local) > len(p) {
			switch local[len(p)] {
			case '.', '-', '_', '+':
				return true
			}
		}
	}
	return false
}

// Valid is a syntactic check: one "@", non-empty local part and a dotted domain.
func Valid(addr string) bool {
	addr = strings.TrimSpace(addr)
	if strings.Count(addr, "@") != 1 || strings.ContainsAny(addr, " \t<>") {
		return false
	}
	local, domain, _ := strings.Cut(addr, "@")
	if local == "" || !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	_, err := mail.ParseAddress(addr)
	return err == nil
}

// Merge combines candidate lists into one list keyed by lowercase address.
// A known confidence beats an unknown one and the higher confidence wins;
// ties keep the first occurrence. Output follows first-occurrence order, with
// role addresses and strings without "@" removed. Merge is idempotent.
func Merge(lists ...[]model.EmailCandidate) []model.EmailCandidate {
	index := make(map[string]int)
	var out []model.EmailCandidate

	for _, list := range lists {
		for _, c := range list {
			key := Key(c.Address)
			if !strings.Contains(key, "@") {
				continue
			}
			c.Address = key

			i, seen := index[key]
			if !seen {
				index[key] = len(out)
				out = append(out, c)
				continue
			}
			if better(c, out[i]) {
				out[i] = c
			}
		}
	}

	kept := make([]model.EmailCandidate, 0, len(out))
	for _, c := range out {
		if IsRoleAddress(c.Address) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func better(c, cur model.EmailCandidate) bool {
	switch {
	case c.Confidence == nil:
		return false
	case cur.Confidence == nil:
		return true
	default:
		return *c.Confidence > *cur.Confidence
	}
}
