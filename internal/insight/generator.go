package insight

import (
	"context"
	"fmt"
	"strings"

	"github.com/petitmj/ProstateCancerExplorationAssistant/internal/llm"
)

// NoContextMessage is returned when there is no context to analyze.
// It is a short-circuit, not an error: the completion endpoint is not called.
const NoContextMessage = "No valid context provided for generating insights."

const insightPrompt = `You are an expert assistant providing insights based on the following context:
Context: %s
Question: What are the key resistance mechanisms in prostate cancer related to AR-V7 and other therapies?
Answer:`

// Generator produces insights from retrieved or user-supplied context.
type Generator struct {
	provider  llm.Provider
	maxTokens int
}

// NewGenerator creates a Generator. provider may be nil when no completion
// endpoint is reachable; generation then reports the failure as text.
func NewGenerator(provider llm.Provider, maxTokens int) *Generator {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Generator{provider: provider, maxTokens: maxTokens}
}

// Generate returns the insight text for the given context. It never returns
// an error: generation failures are reported in the returned string.
func (g *Generator) Generate(ctx context.Context, contextText string) string {
	if strings.TrimSpace(contextText) == "" {
		return NoContextMessage
	}

	if g.provider == nil {
		return "Error generating insights: no completion provider available"
	}

	prompt := fmt.Sprintf(insightPrompt, contextText)
	response, err := g.provider.Generate(ctx, prompt, g.maxTokens)
	if err != nil {
		return fmt.Sprintf("Error generating insights: %v", err)
	}
	if strings.TrimSpace(response) == "" {
		return "No response generated."
	}
	return response
}
