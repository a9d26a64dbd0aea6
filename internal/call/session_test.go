package call

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-routing/internal/domain"
	apperrors "github.com/spec-kit/ticket-routing/pkg/errorutil"
)

func TestStartSessionTwiceForSameTicket(t *testing.T) {
	c := NewController()
	ticket := &domain.Ticket{ID: "t-1"}
	worker := &domain.Employee{Username: "alice"}

	first, err := c.StartSession(ticket, worker)
	require.NoError(t, err)
	assert.Equal(t, SessionActive, first.State)

	_, err = c.StartSession(ticket, worker)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "STATE_ERROR"))
}

func TestEndSessionTwiceRaisesStateError(t *testing.T) {
	c := NewController()
	session, err := c.StartSession(&domain.Ticket{ID: "t-1"}, &domain.Employee{Username: "alice"})
	require.NoError(t, err)

	outcome, err := c.EndSession(session, "all sorted, resetting the VPN profile fixed it")
	require.NoError(t, err)
	assert.False(t, outcome.RedirectRequested)

	_, err = c.EndSession(session, "again")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "STATE_ERROR"))
}

func TestSessionCanRestartAfterEnd(t *testing.T) {
	c := NewController()
	ticket := &domain.Ticket{ID: "t-1"}

	session, err := c.StartSession(ticket, &domain.Employee{Username: "alice"})
	require.NoError(t, err)
	_, err = c.EndSession(session, "done")
	require.NoError(t, err)

	// a fresh session for the same ticket is allowed once the first ended
	second, err := c.StartSession(ticket, &domain.Employee{Username: "bob"})
	require.NoError(t, err)
	assert.NotEqual(t, session.ID, second.ID)
}

func TestParseOutcomeRedirectBlock(t *testing.T) {
	raw := `REDIRECT_REQUEST: YES
USERNAME_TO_REDIRECT: alice
ROLE_OF_THE_REDIRECT_TO: DevOps Engineer
RESPONSIBILITIES: infrastructure, deployment

I looked at the ticket but this needs infra access I don't have.`

	outcome := ParseOutcome(raw)
	assert.True(t, outcome.RedirectRequested)
	require.NotNil(t, outcome.RedirectCriteria)
	assert.Equal(t, "alice", outcome.RedirectCriteria.IdentityHint)
	assert.Equal(t, "DevOps Engineer", outcome.RedirectCriteria.RoleHint)
	assert.Equal(t, "infrastructure, deployment", outcome.RedirectCriteria.ExpertiseKeywords)
	assert.Equal(t, "I looked at the ticket but this needs infra access I don't have.", outcome.SolutionText)
}

func TestParseOutcomeRedirectDeclined(t *testing.T) {
	raw := "REDIRECT_REQUEST: NO\n\nResolved during the call."
	outcome := ParseOutcome(raw)
	assert.False(t, outcome.RedirectRequested)
	assert.Nil(t, outcome.RedirectCriteria)
	assert.Equal(t, "Resolved during the call.", outcome.SolutionText)
}

func TestParseOutcomeToleratesLLMNoise(t *testing.T) {
	raw := `REDIRECT_REQUESTED: ** TRUE
USERNAME_TO_REDIRECT: ** Patrick
ROLE_OF_THE_REDIRECT_TO: ** Product Development Lead
RESPONSIBILITIES: ** NONE`

	outcome := ParseOutcome(raw)
	assert.True(t, outcome.RedirectRequested)
	require.NotNil(t, outcome.RedirectCriteria)
	assert.Equal(t, "Patrick", outcome.RedirectCriteria.IdentityHint)
	assert.Equal(t, "Product Development Lead", outcome.RedirectCriteria.RoleHint)
	// NONE placeholder means absent
	assert.Equal(t, "", outcome.RedirectCriteria.ExpertiseKeywords)
}

func TestParseOutcomeMissingBlockFailsOpenToCompletion(t *testing.T) {
	raw := "We talked it through and I'll send the doc link over."
	outcome := ParseOutcome(raw)
	assert.False(t, outcome.RedirectRequested)
	assert.Nil(t, outcome.RedirectCriteria)
	assert.Equal(t, raw, outcome.SolutionText)
}

func TestParseOutcomeNoneUsername(t *testing.T) {
	raw := "REDIRECT_REQUEST: YES\nUSERNAME_TO_REDIRECT: NONE\nRESPONSIBILITIES: payroll"
	outcome := ParseOutcome(raw)
	assert.True(t, outcome.RedirectRequested)
	require.NotNil(t, outcome.RedirectCriteria)
	assert.Equal(t, "", outcome.RedirectCriteria.IdentityHint)
	assert.Equal(t, "payroll", outcome.RedirectCriteria.ExpertiseKeywords)
}
