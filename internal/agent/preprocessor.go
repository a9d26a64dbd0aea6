package agent

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-routing/internal/domain"
	apperrors "github.com/spec-kit/ticket-routing/pkg/errorutil"
)

const preprocessorSystemPrompt = `You are a support ticket triage assistant.
Given a ticket subject and description, respond with exactly these lines:
CATEGORY: <one of Technical, HR, Finance, Product, General>
PRIORITY: <one of LOW, MEDIUM, HIGH, CRITICAL>
KEYWORDS: <comma separated topical keywords>
SUMMARY: <one sentence restatement of the request>`

// Preprocessor normalizes and classifies a raw ticket before routing.
type Preprocessor struct {
	llm    CompletionClient
	logger *zap.Logger
}

func NewPreprocessor(llm CompletionClient, logger *zap.Logger) *Preprocessor {
	return &Preprocessor{llm: llm, logger: logger}
}

func (p *Preprocessor) Name() string { return "preprocessor" }

// Execute expects "subject" and "description" and returns "category",
// "priority", "keywords" and "summary". Missing classification lines fall
// back to a General/MEDIUM triage rather than failing the workflow.
func (p *Preprocessor) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	subject := stringValue(input, "subject")
	description := stringValue(input, "description")

	prompt := fmt.Sprintf("Subject: %s\n\nDescription:\n%s", subject, description)
	raw, err := p.llm.Complete(ctx, preprocessorSystemPrompt, prompt)
	if err != nil {
		return nil, apperrors.NewAgentError(p.Name(), err)
	}

	output := map[string]any{
		"category": "General",
		"priority": string(domain.TicketPriorityMedium),
		"keywords": "",
		"summary":  strings.TrimSpace(raw),
	}

	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		key, value, ok := splitTriageLine(scanner.Text())
		if !ok {
			continue
		}
		switch key {
		case "CATEGORY":
			if value != "" {
				output["category"] = value
			}
		case "PRIORITY":
			if p := domain.TicketPriority(strings.ToUpper(value)); domain.ValidPriority(p) {
				output["priority"] = string(p)
			}
		case "KEYWORDS":
			output["keywords"] = value
		case "SUMMARY":
			if value != "" {
				output["summary"] = value
			}
		}
	}

	p.logger.Debug("ticket preprocessed",
		zap.String("category", output["category"].(string)),
		zap.String("keywords", output["keywords"].(string)))
	return output, nil
}

func splitTriageLine(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	key = strings.ToUpper(strings.TrimSpace(line[:idx]))
	switch key {
	case "CATEGORY", "PRIORITY", "KEYWORDS", "SUMMARY":
	default:
		return "", "", false
	}
	value = strings.TrimSpace(strings.Trim(strings.TrimSpace(line[idx+1:]), "*"))
	return key, value, true
}
