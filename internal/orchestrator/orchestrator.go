// Package orchestrator drives one query through routing, parallel backend
// dispatch, result normalization, deduplication, and ranking.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hyperjump/shirabe/internal/backends"
	"github.com/hyperjump/shirabe/internal/config"
	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/internal/router"
	"go.uber.org/zap"
)

// Orchestrator coordinates multi-backend searches. Configuration is fixed at
// construction; each call operates on its own buffers, so one instance is
// safe to share across concurrent queries.
type Orchestrator struct {
	backends backends.Set
	router   *router.Router
	config   *config.OrchestratorConfig
	logger   *zap.Logger
}

// New creates an Orchestrator over the given capability set.
func New(set backends.Set, r *router.Router, cfg *config.OrchestratorConfig, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		backends: set,
		router:   r,
		config:   cfg,
		logger:   logger,
	}
}

// Router returns the router used for automatic routing.
func (o *Orchestrator) Router() *router.Router {
	return o.router
}

// task is one backend call scheduled for a query.
type task struct {
	tag        string
	searchType models.SearchType
	run        func(ctx context.Context) ([]backends.RawHit, error)
}

// outcome is the captured success or failure of one task.
type outcome struct {
	task    task
	results []models.SearchResult
	err     error
}

// ProcessQuery runs the full pipeline for query and always returns a
// well-formed result: failures surface in the Errors field, never as a
// panic or a returned error. A nil manual decision means automatic routing;
// maxResults <= 0 uses the configured default.
func (o *Orchestrator) ProcessQuery(ctx context.Context, query string, manual *models.RoutingDecision, maxResults int) (result *models.OrchestratedResult) {
	start := time.Now()
	if maxResults <= 0 {
		maxResults = o.config.MaxResults
	}

	result = &models.OrchestratedResult{
		Query:            query,
		DatabasesQueried: []string{},
		SearchResults:    []models.SearchResult{},
		MergedResults:    []models.SearchResult{},
		Errors:           []string{},
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("orchestration panicked", zap.Any("panic", r))
			result.Errors = append(result.Errors, fmt.Sprintf("query orchestration failed: %v", r))
			result.SearchResults = []models.SearchResult{}
			result.MergedResults = []models.SearchResult{}
			result.TotalResults = 0
		}
		result.ProcessingTime = time.Since(start).Seconds()
	}()

	decision := manual
	if decision == nil {
		decision = o.router.Route(query)
		o.logger.Debug("auto-routed query",
			zap.Any("search_types", decision.SearchTypes),
			zap.Float64("alpha", decision.Alpha))
	} else {
		o.logger.Debug("using manual routing", zap.Any("search_types", decision.SearchTypes))
	}
	result.RoutingDecision = decision

	tasks := o.buildTasks(query, decision)
	for _, t := range tasks {
		result.DatabasesQueried = append(result.DatabasesQueried, t.tag)
	}

	outcomes := o.dispatch(ctx, tasks)
	for _, oc := range outcomes {
		if oc.err != nil {
			msg := fmt.Sprintf("%s search failed: %v", oc.task.tag, oc.err)
			result.Errors = append(result.Errors, msg)
			o.logger.Warn("backend task failed", zap.String("task", oc.task.tag), zap.Error(oc.err))
			continue
		}
		result.SearchResults = append(result.SearchResults, oc.results...)
	}

	merged := mergeResults(result.SearchResults, o.config.DedupPrefixLen)
	result.MergedResults = rankAndLimit(merged, maxResults, o.config.GraphBoost)
	result.TotalResults = len(result.MergedResults)

	o.logger.Info("query processed",
		zap.String("query", query),
		zap.Int("raw_results", len(result.SearchResults)),
		zap.Int("merged_results", result.TotalResults),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("elapsed", time.Since(start)))
	return result
}

// buildTasks creates one backend call per selected search type, skipping
// types whose capability is absent. Vector, keyword, and hybrid all target
// the document store; graph targets the graph store.
func (o *Orchestrator) buildTasks(query string, decision *models.RoutingDecision) []task {
	var tasks []task
	for _, st := range decision.SearchTypes {
		st := st
		switch st {
		case models.SearchTypeVector:
			if !o.backends.HasDocuments() {
				continue
			}
			tasks = append(tasks, task{
				tag:        models.SourceDocuments + "_vector",
				searchType: st,
				run: func(ctx context.Context) ([]backends.RawHit, error) {
					return o.backends.Documents.VectorSearch(ctx, query, o.config.MaxPerSource)
				},
			})
		case models.SearchTypeKeyword:
			if !o.backends.HasDocuments() {
				continue
			}
			tasks = append(tasks, task{
				tag:        models.SourceDocuments + "_keyword",
				searchType: st,
				run: func(ctx context.Context) ([]backends.RawHit, error) {
					return o.backends.Documents.KeywordSearch(ctx, query, o.config.MaxPerSource)
				},
			})
		case models.SearchTypeHybrid:
			if !o.backends.HasDocuments() {
				continue
			}
			textWeight := 1.0 - decision.Alpha
			tasks = append(tasks, task{
				tag:        models.SourceDocuments + "_hybrid",
				searchType: st,
				run: func(ctx context.Context) ([]backends.RawHit, error) {
					return o.backends.Documents.HybridSearch(ctx, query, o.config.MaxPerSource, textWeight)
				},
			})
		case models.SearchTypeGraph:
			if !o.backends.HasGraph() {
				continue
			}
			tasks = append(tasks, task{
				tag:        models.SourceGraph + "_graph",
				searchType: st,
				run: func(ctx context.Context) ([]backends.RawHit, error) {
					return o.backends.Graph.GraphSearch(ctx, query, true)
				},
			})
		}
	}
	return tasks
}

// dispatch runs all tasks concurrently and captures each success or failure
// independently: one backend's failure never cancels the others. A panicking
// adapter is captured as that task's error.
func (o *Orchestrator) dispatch(ctx context.Context, tasks []task) []outcome {
	outcomes := make([]outcome, len(tasks))
	var wg sync.WaitGroup
	for i, t := range tasks {
		i, t := i, t
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					outcomes[i] = outcome{task: t, err: fmt.Errorf("backend panicked: %v", r)}
				}
			}()
			hits, err := t.run(ctx)
			if err != nil {
				outcomes[i] = outcome{task: t, err: err}
				return
			}
			outcomes[i] = outcome{task: t, results: normalizeHits(hits, t.searchType)}
		}()
	}
	wg.Wait()
	return outcomes
}
