// Package cli renders orchestrated results for terminal consumption.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/pkg/utils"
)

// OutputFormat selects how results are rendered.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteResult writes an orchestrated result to w in the given format.
func WriteResult(w io.Writer, result *models.OrchestratedResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		writeResultText(w, result)
		return nil
	}
}

func writeResultText(w io.Writer, result *models.OrchestratedResult) {
	fmt.Fprintf(w, "\nQuery: %s\n", result.Query)
	if result.RoutingDecision != nil {
		fmt.Fprintf(w, "Routing: %s (alpha %.2f)\n",
			joinSearchTypes(result.RoutingDecision.SearchTypes), result.RoutingDecision.Alpha)
		fmt.Fprintf(w, "Reasoning: %s\n", result.RoutingDecision.Reasoning)
	}
	fmt.Fprintf(w, "Found %d results in %.3fs across %d backend calls\n",
		result.TotalResults, result.ProcessingTime, len(result.DatabasesQueried))

	for _, msg := range result.Errors {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}

	for i, r := range result.MergedResults {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "%d. [%s/%s] Score: %.4f\n", i+1, r.SourceDatabase, r.SearchType, r.Score)
		if r.DocumentTitle != "" {
			fmt.Fprintf(w, "Title: %s\n", r.DocumentTitle)
		}
		if r.DocumentSource != "" && r.DocumentSource != "Unknown" {
			fmt.Fprintf(w, "Source: %s\n", r.DocumentSource)
		}
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(r.Content, 300))
	}
}

// WriteRoutingDecision writes a routing decision and its explanation.
func WriteRoutingDecision(w io.Writer, explanation *models.RoutingExplanation, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(explanation)
	}
	fmt.Fprintf(w, "\nSelected: %s\n", joinSearchTypes(explanation.SelectedDatabases))
	fmt.Fprintf(w, "Alpha: %.2f (vector %.2f / keyword %.2f)\n",
		explanation.HybridBalance.Alpha,
		explanation.HybridBalance.VectorWeight,
		explanation.HybridBalance.KeywordWeight)
	fmt.Fprintf(w, "Reasoning: %s\n", explanation.Reasoning)
	fmt.Fprintln(w, "Confidence:")
	for _, st := range models.SearchTypes {
		fmt.Fprintf(w, "  %-8s %.2f\n", st, explanation.ConfidenceScores[st])
	}
	if explanation.Recommendation != "" {
		fmt.Fprintf(w, "Recommendation: %s\n", explanation.Recommendation)
	}
	return nil
}

// WriteSummary writes a result summary in text form.
func WriteSummary(w io.Writer, summary *models.ResultSummary) {
	fmt.Fprintf(w, "\n%d results in %.3fs (avg score %.3f)\n",
		summary.TotalResults, summary.ProcessingTime, summary.AverageScore)
	for source, count := range summary.SourceBreakdown {
		fmt.Fprintf(w, "  %s: %d\n", source, count)
	}
	if summary.HasErrors {
		fmt.Fprintln(w, "  (some backends reported errors)")
	}
}

func joinSearchTypes(types []models.SearchType) string {
	out := ""
	for i, st := range types {
		if i > 0 {
			out += ", "
		}
		out += string(st)
	}
	return out
}
