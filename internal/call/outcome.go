package call

import (
	"bufio"
	"strings"

	"github.com/spec-kit/ticket-routing/internal/match"
)

// Recognized outcome headers. The dialogue layer is an LLM: it sometimes
// emits REDIRECT_REQUESTED instead of REDIRECT_REQUEST, TRUE instead of YES,
// and decorates values with markdown asterisks. Parsing tolerates all of it.
const (
	headerRedirectRequest   = "REDIRECT_REQUEST"
	headerRedirectRequested = "REDIRECT_REQUESTED"
	headerUsername          = "USERNAME_TO_REDIRECT"
	headerRole              = "ROLE_OF_THE_REDIRECT_TO"
	headerResponsibility    = "RESPONSIBILITIES"
)

// ParseOutcome interprets the raw conversation outcome. A missing or
// malformed header block yields redirectRequested=false with the entire raw
// text as the solution: the flow fails open to completion, never to an
// unbounded redirect.
func ParseOutcome(raw string) Outcome {
	var (
		sawRedirectHeader bool
		redirectRequested bool
		criteria          match.Criteria
		bodyLines         []string
	)

	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := scanner.Text()
		key, value, isHeader := splitHeader(line)
		if !isHeader {
			bodyLines = append(bodyLines, line)
			continue
		}

		switch key {
		case headerRedirectRequest, headerRedirectRequested:
			sawRedirectHeader = true
			redirectRequested = isAffirmative(value)
		case headerUsername:
			criteria.IdentityHint = value
		case headerRole:
			criteria.RoleHint = value
		case headerResponsibility:
			criteria.ExpertiseKeywords = value
		}
	}

	if !sawRedirectHeader {
		return Outcome{SolutionText: strings.TrimSpace(raw)}
	}

	outcome := Outcome{
		RedirectRequested: redirectRequested,
		SolutionText:      strings.TrimSpace(strings.Join(bodyLines, "\n")),
	}
	if redirectRequested {
		outcome.RedirectCriteria = &criteria
	}
	return outcome
}

// splitHeader recognizes "KEY: value" lines for known keys, normalizing the
// key and stripping markdown noise from the value. A value of the literal
// placeholder NONE means absent.
func splitHeader(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	key = strings.ToUpper(strings.TrimSpace(line[:idx]))
	key = strings.ReplaceAll(key, " ", "_")
	switch key {
	case headerRedirectRequest, headerRedirectRequested, headerUsername, headerRole, headerResponsibility:
	default:
		return "", "", false
	}

	value = strings.TrimSpace(line[idx+1:])
	value = strings.TrimSpace(strings.Trim(value, "*"))
	if strings.EqualFold(value, "NONE") {
		value = ""
	}
	return key, value, true
}

func isAffirmative(value string) bool {
	return strings.EqualFold(value, "YES") || strings.EqualFold(value, "TRUE")
}
