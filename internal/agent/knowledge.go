package agent

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/ticket-routing/pkg/errorutil"
)

// Scope status values the knowledge base reports.
const (
	ScopeWithin  = "WITHIN_SCOPE"
	ScopeOutside = "OUTSIDE_SCOPE"
)

const knowledgeSystemPrompt = `You are an internal knowledge base assistant.
Decide whether the question is answerable from documented knowledge and reply with:
SCOPE_STATUS: <WITHIN_SCOPE or OUTSIDE_SCOPE>
ANSWER_CONFIDENCE: <HIGH, MEDIUM, LOW or NONE>

Then, on the following lines, the best available answer.`

// AnswerCache caches knowledge answers keyed by ticket content.
type AnswerCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type redisAnswerCache struct {
	client *redis.Client
}

// NewRedisAnswerCache wraps a Redis client as an answer cache.
func NewRedisAnswerCache(client *redis.Client) AnswerCache {
	return &redisAnswerCache{client: client}
}

func (c *redisAnswerCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (c *redisAnswerCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Knowledge answers tickets from the documented knowledge base, caching raw
// answers so repeated identical questions skip the completion round trip.
type Knowledge struct {
	llm    CompletionClient
	cache  AnswerCache
	ttl    time.Duration
	logger *zap.Logger
}

func NewKnowledge(llm CompletionClient, cache AnswerCache, ttl time.Duration, logger *zap.Logger) *Knowledge {
	return &Knowledge{llm: llm, cache: cache, ttl: ttl, logger: logger}
}

func (k *Knowledge) Name() string { return "knowledge" }

// Execute expects "subject", "description" and "category" and returns
// "scope_status", "confidence_word", "confidence" and "answer". Cache
// failures degrade to a live lookup, never to a workflow failure.
func (k *Knowledge) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	subject := stringValue(input, "subject")
	description := stringValue(input, "description")
	category := stringValue(input, "category")

	key := answerCacheKey(subject, description)
	if k.cache != nil {
		if raw, hit, err := k.cache.Get(ctx, key); err != nil {
			k.logger.Warn("knowledge cache read failed", zap.Error(err))
		} else if hit {
			return parseKnowledgeAnswer(raw), nil
		}
	}

	prompt := fmt.Sprintf("Category: %s\nSubject: %s\n\nQuestion:\n%s", category, subject, description)
	raw, err := k.llm.Complete(ctx, knowledgeSystemPrompt, prompt)
	if err != nil {
		return nil, apperrors.NewAgentError(k.Name(), err)
	}

	if k.cache != nil {
		if err := k.cache.Set(ctx, key, raw, k.ttl); err != nil {
			k.logger.Warn("knowledge cache write failed", zap.Error(err))
		}
	}
	return parseKnowledgeAnswer(raw), nil
}

func answerCacheKey(subject, description string) string {
	sum := sha256.Sum256([]byte(subject + "\n" + description))
	return "kb:answer:" + hex.EncodeToString(sum[:])
}

// parseKnowledgeAnswer extracts the scope and confidence headers, leaving the
// remaining lines as the answer body. A missing scope header is treated as
// OUTSIDE_SCOPE so the ticket proceeds to a human.
func parseKnowledgeAnswer(raw string) map[string]any {
	scope := ScopeOutside
	confidenceWord := "NONE"
	var bodyLines []string

	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.Index(line, ":")
		if idx >= 0 {
			key := strings.ToUpper(strings.TrimSpace(line[:idx]))
			value := strings.ToUpper(strings.TrimSpace(strings.Trim(strings.TrimSpace(line[idx+1:]), "*")))
			switch key {
			case "SCOPE_STATUS":
				if value == ScopeWithin || value == ScopeOutside {
					scope = value
				}
				continue
			case "ANSWER_CONFIDENCE":
				confidenceWord = value
				continue
			}
		}
		bodyLines = append(bodyLines, line)
	}

	return map[string]any{
		"scope_status":    scope,
		"confidence_word": confidenceWord,
		"confidence":      ConfidenceValue(confidenceWord),
		"answer":          strings.TrimSpace(strings.Join(bodyLines, "\n")),
	}
}

// ConfidenceValue maps the reported confidence word onto the numeric scale
// the engine compares against its threshold.
func ConfidenceValue(word string) float64 {
	switch strings.ToUpper(strings.TrimSpace(word)) {
	case "HIGH":
		return 0.9
	case "MEDIUM":
		return 0.6
	case "LOW":
		return 0.3
	}
	return 0
}
