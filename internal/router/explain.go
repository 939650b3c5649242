package router

import (
	"fmt"
	"strings"

	"github.com/hyperjump/shirabe/internal/models"
)

// Explain builds a UI-facing view of a routing decision, including a
// human-readable recommendation for the chosen strategy mix.
func (r *Router) Explain(decision *models.RoutingDecision) *models.RoutingExplanation {
	return &models.RoutingExplanation{
		SelectedDatabases: decision.SearchTypes,
		ConfidenceScores:  decision.ConfidenceScores,
		HybridBalance: models.HybridBalance{
			Alpha:         decision.Alpha,
			VectorWeight:  decision.Alpha,
			KeywordWeight: 1.0 - decision.Alpha,
		},
		Reasoning:      decision.Reasoning,
		Recommendation: recommendation(decision),
	}
}

func recommendation(decision *models.RoutingDecision) string {
	if len(decision.SearchTypes) == 1 {
		switch decision.SearchTypes[0] {
		case models.SearchTypeVector:
			return "Using semantic search to find conceptually similar content"
		case models.SearchTypeKeyword:
			return "Using keyword search for exact matches"
		case models.SearchTypeGraph:
			return "Using knowledge graph to explore entity relationships"
		case models.SearchTypeHybrid:
			return fmt.Sprintf("Using balanced hybrid search (vector: %.0f%%, keyword: %.0f%%)",
				decision.Alpha*100, (1-decision.Alpha)*100)
		}
	}
	if decision.Includes(models.SearchTypeGraph) {
		return "Using both semantic search and knowledge graph for comprehensive results"
	}
	names := make([]string, len(decision.SearchTypes))
	for i, st := range decision.SearchTypes {
		names[i] = string(st)
	}
	return "Using multiple search approaches: " + strings.Join(names, ", ")
}
