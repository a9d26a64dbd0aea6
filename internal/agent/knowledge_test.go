package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type scriptedCompletion struct {
	response string
	err      error
	calls    int
}

func (s *scriptedCompletion) Complete(_ context.Context, _, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type memoryCache struct {
	entries map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]string)}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	value, ok := m.entries[key]
	return value, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.entries[key] = value
	return nil
}

func TestKnowledgeParsesScopeAndConfidence(t *testing.T) {
	llm := &scriptedCompletion{response: "SCOPE_STATUS: WITHIN_SCOPE\nANSWER_CONFIDENCE: HIGH\n\nReset the VPN profile from the self-service portal."}
	k := NewKnowledge(llm, newMemoryCache(), time.Hour, zap.NewNop())

	out, err := k.Execute(context.Background(), map[string]any{
		"subject":     "VPN broken",
		"description": "cannot connect since this morning",
	})
	require.NoError(t, err)

	assert.Equal(t, ScopeWithin, out["scope_status"])
	assert.Equal(t, "HIGH", out["confidence_word"])
	assert.Equal(t, 0.9, out["confidence"])
	assert.Equal(t, "Reset the VPN profile from the self-service portal.", out["answer"])
}

func TestKnowledgeMissingHeadersFallOutsideScope(t *testing.T) {
	llm := &scriptedCompletion{response: "I am not sure what you mean."}
	k := NewKnowledge(llm, newMemoryCache(), time.Hour, zap.NewNop())

	out, err := k.Execute(context.Background(), map[string]any{"subject": "x", "description": "y"})
	require.NoError(t, err)
	assert.Equal(t, ScopeOutside, out["scope_status"])
	assert.Equal(t, 0.0, out["confidence"])
}

func TestKnowledgeCachesRepeatedQuestions(t *testing.T) {
	llm := &scriptedCompletion{response: "SCOPE_STATUS: WITHIN_SCOPE\nANSWER_CONFIDENCE: MEDIUM\nUse the handbook."}
	k := NewKnowledge(llm, newMemoryCache(), time.Hour, zap.NewNop())

	input := map[string]any{"subject": "same", "description": "question"}
	_, err := k.Execute(context.Background(), input)
	require.NoError(t, err)
	out, err := k.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, 1, llm.calls)
	assert.Equal(t, 0.6, out["confidence"])
}

func TestConfidenceValueMapping(t *testing.T) {
	assert.Equal(t, 0.9, ConfidenceValue("HIGH"))
	assert.Equal(t, 0.6, ConfidenceValue("medium"))
	assert.Equal(t, 0.3, ConfidenceValue(" LOW "))
	assert.Equal(t, 0.0, ConfidenceValue("NONE"))
	assert.Equal(t, 0.0, ConfidenceValue("garbage"))
}
