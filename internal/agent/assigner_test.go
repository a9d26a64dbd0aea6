package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-routing/internal/domain"
	"github.com/spec-kit/ticket-routing/internal/match"
	apperrors "github.com/spec-kit/ticket-routing/pkg/errorutil"
)

type fakeDirectory struct {
	employees []domain.Employee
	listErr   error
}

func (f *fakeDirectory) GetByUsername(_ context.Context, username string) (*domain.Employee, error) {
	for i := range f.employees {
		if f.employees[i].Username == username {
			return &f.employees[i], nil
		}
	}
	return nil, apperrors.NewNotFound("employee", map[string]any{"username": username})
}

func (f *fakeDirectory) ListAll(_ context.Context, _ bool) ([]domain.Employee, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.employees, nil
}

func (f *fakeDirectory) SetAvailability(_ context.Context, username string, status domain.AvailabilityStatus, _ *time.Time) error {
	for i := range f.employees {
		if f.employees[i].Username == username {
			f.employees[i].Availability = status
			return nil
		}
	}
	return nil
}

func (f *fakeDirectory) CreatePendingCallNotification(_ context.Context, _ *domain.CallNotification) error {
	return nil
}

func (f *fakeDirectory) ListPendingCalls(_ context.Context, _ string) ([]domain.CallNotification, error) {
	return nil, nil
}

func TestAssignerRecommendsBestCandidate(t *testing.T) {
	dir := &fakeDirectory{employees: []domain.Employee{
		{Username: "alice", Role: "DevOps Engineer", Expertise: "infrastructure, deployment"},
		{Username: "bob", Role: "Backend Developer", Expertise: "go, databases"},
	}}
	assigner := NewAssigner(dir, zap.NewNop())

	out, err := assigner.Execute(context.Background(), map[string]any{
		"role_hint":          "devops",
		"expertise_keywords": "deployment",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", out["recommended_assignment"])
	assert.Equal(t, 18, out["score"])
	ranked, ok := out["matched_employees"].([]match.Result)
	require.True(t, ok)
	require.Len(t, ranked, 1)
}

func TestAssignerEmptyRecommendationWhenNothingMatches(t *testing.T) {
	dir := &fakeDirectory{employees: []domain.Employee{
		{Username: "carol", Role: "HR Manager", Expertise: "payroll"},
	}}
	assigner := NewAssigner(dir, zap.NewNop())

	out, err := assigner.Execute(context.Background(), map[string]any{
		"role_hint": "astronaut",
	})
	require.NoError(t, err)
	assert.Equal(t, "", out["recommended_assignment"])
	_, hasScore := out["score"]
	assert.False(t, hasScore)
}

func TestAssignerHonorsExclusions(t *testing.T) {
	dir := &fakeDirectory{employees: []domain.Employee{
		{Username: "alice", Role: "DevOps Engineer", Expertise: "infrastructure"},
		{Username: "dan", Role: "DevOps Engineer", Expertise: "infrastructure"},
	}}
	assigner := NewAssigner(dir, zap.NewNop())

	out, err := assigner.Execute(context.Background(), map[string]any{
		"role_hint":         "devops",
		"exclude_usernames": []string{"alice"},
	})
	require.NoError(t, err)
	assert.Equal(t, "dan", out["recommended_assignment"])
}
