package orchestrator

import (
	"sort"
	"strings"

	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/pkg/utils"
)

// fingerprint is the deduplication key: lower-cased, whitespace-trimmed
// content truncated to prefixLen runes. The prefix tolerates trailing
// variation while catching near-identical hits returned by several backends.
func fingerprint(content string, prefixLen int) string {
	normalized := strings.ToLower(strings.TrimSpace(content))
	return utils.TruncateRunes(normalized, prefixLen)
}

// mergeResults collapses results sharing a content fingerprint. The survivor
// of each group is the highest-scoring member (first wins ties), carrying the
// union of the group's metadata plus provenance markers: the contributing
// backends, the contributing search types, and the member count. Inputs are
// not mutated; survivors own fresh metadata maps. Group order follows first
// appearance, so the output is deterministic given the input order.
func mergeResults(results []models.SearchResult, prefixLen int) []models.SearchResult {
	if len(results) == 0 {
		return []models.SearchResult{}
	}

	var order []string
	groups := make(map[string][]models.SearchResult)
	for _, r := range results {
		key := fingerprint(r.Content, prefixLen)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}

	merged := make([]models.SearchResult, 0, len(order))
	for _, key := range order {
		group := groups[key]
		if len(group) == 1 {
			merged = append(merged, group[0])
			continue
		}
		merged = append(merged, mergeGroup(group))
	}
	return merged
}

func mergeGroup(group []models.SearchResult) models.SearchResult {
	best := group[0]
	for _, r := range group[1:] {
		if r.Score > best.Score {
			best = r
		}
	}

	metadata := make(map[string]interface{})
	var databases, types []string
	for _, r := range group {
		for k, v := range r.Metadata {
			metadata[k] = v
		}
		databases = appendUnique(databases, r.SourceDatabase)
		types = appendUnique(types, string(r.SearchType))
	}
	metadata["source_databases"] = databases
	metadata["search_types"] = types
	metadata["duplicate_count"] = len(group)

	survivor := best
	survivor.Metadata = metadata
	return survivor
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// typePriority breaks score ties: explicit relationship facts first, then
// semantic, hybrid, keyword.
var typePriority = map[models.SearchType]int{
	models.SearchTypeGraph:   3,
	models.SearchTypeVector:  2,
	models.SearchTypeHybrid:  1,
	models.SearchTypeKeyword: 0,
}

// rankAndLimit sorts results by adjusted score (raw score plus a small
// boost for graph-store provenance, since explicit relationship facts rank
// above inferred similarity) and truncates to maxResults. The sort is
// stable, so equal keys keep their merge order.
func rankAndLimit(results []models.SearchResult, maxResults int, graphBoost float64) []models.SearchResult {
	if len(results) == 0 {
		return []models.SearchResult{}
	}
	adjusted := func(r models.SearchResult) float64 {
		if r.SourceDatabase == models.SourceGraph {
			return r.Score + graphBoost
		}
		return r.Score
	}
	ranked := make([]models.SearchResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := adjusted(ranked[i]), adjusted(ranked[j])
		if si != sj {
			return si > sj
		}
		return typePriority[ranked[i].SearchType] > typePriority[ranked[j].SearchType]
	})
	if maxResults > 0 && len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}
	return ranked
}
