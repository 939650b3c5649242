// Package router classifies queries and selects search strategies.
//
// The router is a deliberately lightweight, explainable classifier: lexical
// pattern families plus a few structural heuristics, no model calls and no
// I/O. It is pure (the same query always yields the same decision) and
// safe to share across concurrent queries.
package router

import (
	"fmt"
	"strings"

	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/pkg/utils"
)

// Confidence and selection constants. Bases and increments saturate at the
// family cap; selection picks the best family above minimumFloor plus every
// family at or above selectionThreshold.
const (
	graphBase        = 0.4
	graphIncrement   = 0.2
	graphCap         = 0.9
	vectorBase       = 0.5
	vectorIncrement  = 0.2
	vectorCap        = 0.9
	keywordBase      = 0.4
	keywordIncrement = 0.25
	keywordCap       = 0.9
	hybridBase       = 0.5
	hybridIncrement  = 0.15
	hybridCap        = 0.8

	longQueryWords     = 15
	shortQueryWords    = 5
	longQueryHybrid    = 0.6
	shortQueryKeyword  = 0.4
	entityGraphBoost   = 0.6
	lowActivityFloor   = 0.4
	defaultHybrid      = 0.5
	minimumFloor       = 0.3
	selectionThreshold = 0.4
	alphaMargin        = 0.3
	alphaLeanVector    = 0.8
	alphaLeanKeyword   = 0.2
	alphaSemanticCue   = 0.7
	alphaLiteralCue    = 0.3
	alphaBalanced      = 0.5
)

// Router maps a query string to a RoutingDecision. It holds no state.
type Router struct{}

// New creates a Router.
func New() *Router {
	return &Router{}
}

// Route analyzes query and returns the search strategies to run, with a
// confidence score for every strategy and a human-readable justification.
// An empty or unmatchable query falls through to the hybrid default.
func (r *Router) Route(query string) *models.RoutingDecision {
	confidence := map[models.SearchType]float64{
		models.SearchTypeVector:  0,
		models.SearchTypeHybrid:  0,
		models.SearchTypeKeyword: 0,
		models.SearchTypeGraph:   0,
	}
	var reasons []string
	lower := strings.ToLower(query)

	if m := countMatches(graphPatterns, query); m > 0 {
		confidence[models.SearchTypeGraph] = utils.Clamp(graphBase+float64(m)*graphIncrement, 0, graphCap)
		reasons = append(reasons, fmt.Sprintf("graph search (found %d relationship indicators)", m))
	}
	if m := countMatches(vectorPatterns, lower); m > 0 {
		confidence[models.SearchTypeVector] = utils.Clamp(vectorBase+float64(m)*vectorIncrement, 0, vectorCap)
		reasons = append(reasons, fmt.Sprintf("vector search (found %d semantic indicators)", m))
	}
	if m := countMatches(keywordPatterns, query); m > 0 {
		confidence[models.SearchTypeKeyword] = utils.Clamp(keywordBase+float64(m)*keywordIncrement, 0, keywordCap)
		reasons = append(reasons, fmt.Sprintf("keyword search (found %d exact match indicators)", m))
	}
	if m := countMatches(complexityPatterns, lower); m > 0 {
		confidence[models.SearchTypeHybrid] = utils.Clamp(hybridBase+float64(m)*hybridIncrement, 0, hybridCap)
		reasons = append(reasons, fmt.Sprintf("multiple approaches needed (found %d complexity indicators)", m))
	}

	wordCount := len(strings.Fields(query))
	if wordCount > longQueryWords {
		if confidence[models.SearchTypeHybrid] < longQueryHybrid {
			confidence[models.SearchTypeHybrid] = longQueryHybrid
		}
		reasons = append(reasons, "long query suggests multiple search approaches")
	} else if wordCount > 0 && wordCount < shortQueryWords {
		if confidence[models.SearchTypeKeyword] < shortQueryKeyword {
			confidence[models.SearchTypeKeyword] = shortQueryKeyword
		}
		reasons = append(reasons, "short query suggests keyword search")
	}

	if entities := entityPattern.FindAllString(query, -1); len(entities) >= 2 {
		if confidence[models.SearchTypeGraph] < entityGraphBoost {
			confidence[models.SearchTypeGraph] = entityGraphBoost
		}
		reasons = append(reasons, fmt.Sprintf("multiple entities detected (%d)", len(entities)))
	}

	// The decision must never carry all-zero signal.
	if maxConfidence(confidence) < lowActivityFloor {
		confidence[models.SearchTypeHybrid] = defaultHybrid
		reasons = append(reasons, "default to hybrid search")
	}

	selected := selectTypes(confidence)
	if len(selected) == 0 {
		selected = []models.SearchType{models.SearchTypeHybrid}
		confidence[models.SearchTypeHybrid] = defaultHybrid
	}

	reasoning := "Default routing applied"
	if len(reasons) > 0 {
		reasoning = strings.Join(reasons, "; ")
	}

	return &models.RoutingDecision{
		SearchTypes:      selected,
		ConfidenceScores: confidence,
		Alpha:            computeAlpha(confidence, query, lower),
		Reasoning:        reasoning,
	}
}

// ManualOverride bypasses analysis entirely: the given type at confidence
// 1.0, all others at 0.0.
func (r *Router) ManualOverride(searchType models.SearchType, alpha float64) *models.RoutingDecision {
	confidence := make(map[models.SearchType]float64, len(models.SearchTypes))
	for _, st := range models.SearchTypes {
		confidence[st] = 0.0
	}
	confidence[searchType] = 1.0
	return &models.RoutingDecision{
		SearchTypes:      []models.SearchType{searchType},
		ConfidenceScores: confidence,
		Alpha:            utils.Clamp(alpha, 0, 1),
		Reasoning:        fmt.Sprintf("Manual override: forced %s search", searchType),
	}
}

// maxConfidence returns the highest family confidence.
func maxConfidence(confidence map[models.SearchType]float64) float64 {
	max := 0.0
	for _, st := range models.SearchTypes {
		if confidence[st] > max {
			max = confidence[st]
		}
	}
	return max
}

// selectTypes picks the highest-confidence family above minimumFloor, then
// every family at or above selectionThreshold. Iteration walks the canonical
// type order so ties and output order are deterministic.
func selectTypes(confidence map[models.SearchType]float64) []models.SearchType {
	best := models.SearchTypes[0]
	for _, st := range models.SearchTypes[1:] {
		if confidence[st] > confidence[best] {
			best = st
		}
	}

	var selected []models.SearchType
	if confidence[best] > minimumFloor {
		selected = append(selected, best)
	}
	for _, st := range models.SearchTypes {
		if st == best {
			continue
		}
		if confidence[st] >= selectionThreshold {
			selected = append(selected, st)
		}
	}
	return selected
}

// computeAlpha derives the hybrid vector/keyword balance: 1.0 is pure
// semantic weighting, 0.0 pure keyword.
func computeAlpha(confidence map[models.SearchType]float64, query, lower string) float64 {
	vector := confidence[models.SearchTypeVector]
	keyword := confidence[models.SearchTypeKeyword]

	if vector > keyword+alphaMargin {
		return alphaLeanVector
	}
	if keyword > vector+alphaMargin {
		return alphaLeanKeyword
	}
	for _, cue := range semanticCueWords {
		if strings.Contains(lower, cue) {
			return alphaSemanticCue
		}
	}
	for _, cue := range literalCueTokens {
		if strings.Contains(query, cue) {
			return alphaLiteralCue
		}
	}
	return alphaBalanced
}
