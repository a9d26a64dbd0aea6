// Package match scores and ranks directory employees against redirect or
// assignment search criteria. Ranking is a pure function over the directory
// snapshot: identical inputs always yield the identical ordered result.
package match

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spec-kit/ticket-routing/internal/domain"
)

// Score weights. These values are part of the external contract: downstream
// tooling compares match scores across systems, so they must not change.
const (
	scoreExactIdentity   = 20
	scorePartialIdentity = 15
	scoreRole            = 10
	scoreExpertise       = 8
)

// Criteria carries the hints extracted from a conversation outcome or the
// initial ticket classification.
type Criteria struct {
	IdentityHint      string   `json:"identity_hint"`
	RoleHint          string   `json:"role_hint"`
	ExpertiseKeywords string   `json:"expertise_keywords"`
	ExcludeUsernames  []string `json:"exclude_usernames"`
}

// Empty reports whether no hint is set at all.
func (c Criteria) Empty() bool {
	return strings.TrimSpace(c.IdentityHint) == "" &&
		strings.TrimSpace(c.RoleHint) == "" &&
		strings.TrimSpace(c.ExpertiseKeywords) == ""
}

// Result is one scored candidate.
type Result struct {
	Employee domain.Employee
	Score    int
	Reasons  []string
}

// Rank scores every non-excluded employee and returns candidates with a
// positive score, ordered by descending score. The sort is stable so equal
// scores keep directory order.
func Rank(criteria Criteria, directory []domain.Employee) []Result {
	excluded := make(map[string]struct{}, len(criteria.ExcludeUsernames))
	for _, username := range criteria.ExcludeUsernames {
		excluded[strings.ToLower(username)] = struct{}{}
	}

	identity := strings.ToLower(strings.TrimSpace(criteria.IdentityHint))
	role := strings.ToLower(strings.TrimSpace(criteria.RoleHint))
	expertise := strings.ToLower(strings.TrimSpace(criteria.ExpertiseKeywords))

	var results []Result
	for _, emp := range directory {
		if _, skip := excluded[strings.ToLower(emp.Username)]; skip {
			continue
		}

		score := 0
		var reasons []string

		if identity != "" {
			username := strings.ToLower(emp.Username)
			if identity == username {
				score += scoreExactIdentity
				reasons = append(reasons, fmt.Sprintf("exact identity match: %s", identity))
			} else if strings.Contains(username, identity) || strings.Contains(identity, username) {
				score += scorePartialIdentity
				reasons = append(reasons, fmt.Sprintf("partial identity match: %s", identity))
			}
		}

		if role != "" {
			empRole := strings.ToLower(emp.Role)
			if empRole != "" && (strings.Contains(empRole, role) || strings.Contains(role, empRole)) {
				score += scoreRole
				reasons = append(reasons, fmt.Sprintf("role match: %s", role))
			}
		}

		if expertise != "" {
			empExpertise := strings.ToLower(emp.Expertise)
			for _, keyword := range strings.Split(expertise, ",") {
				keyword = strings.TrimSpace(keyword)
				if keyword == "" {
					continue
				}
				if strings.Contains(empExpertise, keyword) || tokenContains(empExpertise, keyword) {
					score += scoreExpertise
					reasons = append(reasons, fmt.Sprintf("expertise match: %s", keyword))
					// one expertise bonus per candidate; first keyword wins
					break
				}
			}
		}

		if score > 0 {
			results = append(results, Result{Employee: emp, Score: score, Reasons: reasons})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// SelectTop picks the winning candidate from an already-ranked list. Ties on
// score are broken by role character overlap with the hinted role; remaining
// ties keep the ranked (directory) order.
func SelectTop(results []Result, roleHint string) (Result, bool) {
	if len(results) == 0 {
		return Result{}, false
	}

	best := results[0]
	if strings.TrimSpace(roleHint) == "" {
		return best, true
	}

	bestOverlap := roleOverlap(best.Employee.Role, roleHint)
	for _, candidate := range results[1:] {
		if candidate.Score < best.Score {
			break
		}
		if overlap := roleOverlap(candidate.Employee.Role, roleHint); overlap > bestOverlap {
			best = candidate
			bestOverlap = overlap
		}
	}
	return best, true
}

// roleOverlap counts the case-insensitive multiset intersection of the two
// strings' non-space characters.
func roleOverlap(a, b string) int {
	counts := make(map[rune]int)
	for _, ch := range strings.ToLower(a) {
		if ch == ' ' {
			continue
		}
		counts[ch]++
	}
	overlap := 0
	for _, ch := range strings.ToLower(b) {
		if ch == ' ' {
			continue
		}
		if counts[ch] > 0 {
			counts[ch]--
			overlap++
		}
	}
	return overlap
}

// tokenContains checks the keyword against each comma-separated expertise token.
func tokenContains(expertise, keyword string) bool {
	for _, token := range strings.Split(expertise, ",") {
		if strings.Contains(strings.TrimSpace(token), keyword) {
			return true
		}
	}
	return false
}
