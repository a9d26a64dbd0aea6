package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-routing/internal/domain"
)

func directory() []domain.Employee {
	return []domain.Employee{
		{Username: "alice", FullName: "Alice Moreau", Role: "DevOps Engineer", Expertise: "infrastructure, deployment, monitoring"},
		{Username: "bob", FullName: "Bob Keller", Role: "Backend Developer", Expertise: "go, databases, apis"},
		{Username: "carol", FullName: "Carol Diaz", Role: "HR Manager", Expertise: "payroll, onboarding"},
		{Username: "alice-v", FullName: "Alice Verne", Role: "Support Agent", Expertise: "customer support"},
	}
}

func TestRankExactIdentityBeatsPartial(t *testing.T) {
	results := Rank(Criteria{IdentityHint: "alice"}, directory())

	require.Len(t, results, 2)
	assert.Equal(t, "alice", results[0].Employee.Username)
	assert.Equal(t, 20, results[0].Score)
	assert.Equal(t, []string{"exact identity match: alice"}, results[0].Reasons)

	assert.Equal(t, "alice-v", results[1].Employee.Username)
	assert.Equal(t, 15, results[1].Score)
}

func TestRankAdditiveScoring(t *testing.T) {
	results := Rank(Criteria{
		IdentityHint:      "alice",
		RoleHint:          "devops",
		ExpertiseKeywords: "deployment, kubernetes",
	}, directory())

	require.NotEmpty(t, results)
	top := results[0]
	assert.Equal(t, "alice", top.Employee.Username)
	// exact identity + role + one expertise keyword
	assert.Equal(t, 38, top.Score)
	assert.Contains(t, top.Reasons, "expertise match: deployment")
}

func TestRankExpertiseScoresOncePerCandidate(t *testing.T) {
	results := Rank(Criteria{
		ExpertiseKeywords: "infrastructure, deployment, monitoring",
	}, directory())

	require.Len(t, results, 1)
	assert.Equal(t, "alice", results[0].Employee.Username)
	assert.Equal(t, 8, results[0].Score)
	assert.Equal(t, []string{"expertise match: infrastructure"}, results[0].Reasons)
}

func TestRankExcludesBeforeScoring(t *testing.T) {
	results := Rank(Criteria{
		IdentityHint:     "alice",
		ExcludeUsernames: []string{"Alice"},
	}, directory())

	require.Len(t, results, 1)
	assert.Equal(t, "alice-v", results[0].Employee.Username)
}

func TestRankDropsZeroScores(t *testing.T) {
	results := Rank(Criteria{RoleHint: "astronaut"}, directory())
	assert.Empty(t, results)
}

func TestRankDeterministicOnRepeat(t *testing.T) {
	criteria := Criteria{RoleHint: "engineer", ExpertiseKeywords: "go, payroll"}
	first := Rank(criteria, directory())
	for i := 0; i < 10; i++ {
		again := Rank(criteria, directory())
		require.Equal(t, len(first), len(again))
		for j := range first {
			assert.Equal(t, first[j].Employee.Username, again[j].Employee.Username)
			assert.Equal(t, first[j].Score, again[j].Score)
		}
	}
}

func TestRankStableOrderOnTies(t *testing.T) {
	dir := []domain.Employee{
		{Username: "dev1", Role: "Engineer", Expertise: "linux"},
		{Username: "dev2", Role: "Engineer", Expertise: "linux"},
	}
	results := Rank(Criteria{ExpertiseKeywords: "linux"}, dir)
	require.Len(t, results, 2)
	assert.Equal(t, "dev1", results[0].Employee.Username)
	assert.Equal(t, "dev2", results[1].Employee.Username)
}

func TestSelectTopRoleOverlapBreaksTies(t *testing.T) {
	dir := []domain.Employee{
		{Username: "gen", Role: "Generalist", Expertise: "linux"},
		{Username: "sre", Role: "Site Reliability Engineer", Expertise: "linux"},
	}
	results := Rank(Criteria{ExpertiseKeywords: "linux"}, dir)
	require.Len(t, results, 2)
	require.Equal(t, results[0].Score, results[1].Score)

	winner, ok := SelectTop(results, "reliability engineer")
	require.True(t, ok)
	assert.Equal(t, "sre", winner.Employee.Username)
}

func TestSelectTopKeepsOrderWithoutRoleHint(t *testing.T) {
	dir := []domain.Employee{
		{Username: "first", Role: "A", Expertise: "linux"},
		{Username: "second", Role: "B", Expertise: "linux"},
	}
	results := Rank(Criteria{ExpertiseKeywords: "linux"}, dir)
	winner, ok := SelectTop(results, "")
	require.True(t, ok)
	assert.Equal(t, "first", winner.Employee.Username)
}

func TestSelectTopEmpty(t *testing.T) {
	_, ok := SelectTop(nil, "any")
	assert.False(t, ok)
}
