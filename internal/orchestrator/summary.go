package orchestrator

import (
	"context"
	"time"

	"github.com/hyperjump/shirabe/internal/backends"
	"github.com/hyperjump/shirabe/internal/models"
)

// Summarize computes per-backend and per-search-type counts and the mean
// score across merged results, for UI display and audit.
func (o *Orchestrator) Summarize(result *models.OrchestratedResult) *models.ResultSummary {
	sourceCounts := make(map[string]int)
	typeCounts := make(map[models.SearchType]int)
	var scoreSum float64
	var scored int
	for _, r := range result.MergedResults {
		sourceCounts[r.SourceDatabase]++
		typeCounts[r.SearchType]++
		if r.Score > 0 {
			scoreSum += r.Score
			scored++
		}
	}
	avg := 0.0
	if scored > 0 {
		avg = scoreSum / float64(scored)
	}

	summary := &models.ResultSummary{
		Query:               result.Query,
		TotalResults:        result.TotalResults,
		ProcessingTime:      result.ProcessingTime,
		DatabasesQueried:    result.DatabasesQueried,
		SourceBreakdown:     sourceCounts,
		SearchTypeBreakdown: typeCounts,
		AverageScore:        avg,
		HasErrors:           len(result.Errors) > 0,
		ErrorCount:          len(result.Errors),
	}
	if result.RoutingDecision != nil {
		summary.Routing = o.router.Explain(result.RoutingDecision)
	}
	return summary
}

// HealthCheck reports the apparent connectivity of each backend without
// issuing a real search. Backends implementing Pinger are probed; others are
// reported from capability presence alone.
func (o *Orchestrator) HealthCheck(ctx context.Context) *models.HealthStatus {
	status := &models.HealthStatus{
		Orchestrator: "healthy",
		Router:       "healthy",
		Backends:     make(map[string]models.BackendHealth),
		Timestamp:    time.Now().UTC(),
	}
	status.Backends[models.SourceDocuments] = backendHealth(ctx, o.backends.Documents, o.backends.HasDocuments())
	status.Backends[models.SourceGraph] = backendHealth(ctx, o.backends.Graph, o.backends.HasGraph())
	for _, h := range status.Backends {
		if h.Status == "error" {
			status.Orchestrator = "degraded"
		}
	}
	return status
}

func backendHealth(ctx context.Context, backend interface{}, present bool) models.BackendHealth {
	if !present {
		return models.BackendHealth{Status: "disconnected"}
	}
	if p, ok := backend.(backends.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return models.BackendHealth{Status: "error", Detail: err.Error()}
		}
	}
	return models.BackendHealth{Status: "connected"}
}
