package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/tendermesh/core"
)

// EmptyDocumentResult is returned by Analyze for blank input.
const EmptyDocumentResult = "Error: Document text was empty. Cannot extract requirements."

// DefaultDocumentAnalysisInstruction is the default analysis prompt.
const DefaultDocumentAnalysisInstruction = `You are a tender analyst. Read the tender document provided by the user and
extract the structured requirement information: scope, deliverables, mandatory
qualifications, evaluation criteria, deadlines and formal submission rules.
Answer with a concise, numbered list. Do not invent requirements.`

// IsAnalysisError reports whether an analysis result is an error-shaped sentinel.
func IsAnalysisError(result string) bool {
	return strings.HasPrefix(strings.TrimSpace(result), "Error:")
}

var _ core.DocumentAnalyzer = (*DocumentAnalysisAgent)(nil)

// DocumentAnalysisAgent turns document text into structured requirements.
type DocumentAnalysisAgent struct {
	BaseAgent
}

// NewDocumentAnalysisAgent creates a DocumentAnalysisAgent.
func NewDocumentAnalysisAgent(cfg Config) *DocumentAnalysisAgent {
	if cfg.Description == "" {
		cfg.Description = "Extracts structured requirement information from tender documents"
	}
	return &DocumentAnalysisAgent{BaseAgent: NewBaseAgent(core.AgentDocumentAnalysis, cfg, DefaultDocumentAnalysisInstruction)}
}

// Analyze implements core.DocumentAnalyzer.
func (a *DocumentAnalysisAgent) Analyze(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return EmptyDocumentResult, nil
	}
	out, err := a.complete(ctx, map[string]any{"document": text}, text)
	if err != nil {
		return "", fmt.Errorf("analyze document: %w", err)
	}
	return strings.TrimSpace(out), nil
}
