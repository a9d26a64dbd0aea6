package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-routing/internal/match"
	"github.com/spec-kit/ticket-routing/internal/repository"
	apperrors "github.com/spec-kit/ticket-routing/pkg/errorutil"
)

// Assigner ranks directory employees against search criteria and recommends
// the assignment target.
type Assigner struct {
	directory repository.WorkerDirectory
	logger    *zap.Logger
}

func NewAssigner(directory repository.WorkerDirectory, logger *zap.Logger) *Assigner {
	return &Assigner{directory: directory, logger: logger}
}

func (a *Assigner) Name() string { return "assigner" }

// Execute expects "identity_hint", "role_hint", "expertise_keywords" and
// "exclude_usernames", and returns "matched_employees" with the ranked
// candidates plus "recommended_assignment". An empty recommendation means no
// candidate scored above zero.
func (a *Assigner) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	criteria := match.Criteria{
		IdentityHint:      stringValue(input, "identity_hint"),
		RoleHint:          stringValue(input, "role_hint"),
		ExpertiseKeywords: stringValue(input, "expertise_keywords"),
		ExcludeUsernames:  stringsValue(input, "exclude_usernames"),
	}

	directory, err := a.directory.ListAll(ctx, true)
	if err != nil {
		return nil, apperrors.NewAgentError(a.Name(), err)
	}

	ranked := match.Rank(criteria, directory)
	output := map[string]any{
		"matched_employees":      ranked,
		"recommended_assignment": "",
	}

	winner, ok := match.SelectTop(ranked, criteria.RoleHint)
	if !ok {
		a.logger.Info("no assignment candidate matched",
			zap.String("role_hint", criteria.RoleHint),
			zap.Int("directory_size", len(directory)))
		return output, nil
	}

	output["recommended_assignment"] = winner.Employee.Username
	output["score"] = winner.Score
	output["reasons"] = winner.Reasons
	a.logger.Info("assignment recommended",
		zap.String("username", winner.Employee.Username),
		zap.Int("score", winner.Score))
	return output, nil
}
