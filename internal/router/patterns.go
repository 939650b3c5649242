package router

import "regexp"

// Signal families for query classification. Graph and keyword patterns run
// against the raw query because capitalization and literal tokens (company
// suffixes, quarter codes) carry signal; vector and complexity patterns run
// against the lowercased query.

// graphPatterns indicate relationship / entity queries answered by the knowledge graph.
var graphPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(relationship|connection|linked|related|associated)\b`),
	regexp.MustCompile(`(?i)\b(who|which)\s+\w+\s+(with|to|from)\b`),
	regexp.MustCompile(`(?i)\b(connect|link|relate)\b`),
	regexp.MustCompile(`(?i)\b(network|graph|tree)\b`),
	regexp.MustCompile(`(?i)\b(entity|entities)\b`),
	regexp.MustCompile(`(?i)\b(company|person|organization)\s+\w+\s+(and|with)\b`),
	regexp.MustCompile(`(?i)\b(interaction|collaboration|partnership)\b`),
	regexp.MustCompile(`(?i)\b(between|among)\s+\w+\s+(and|&)\b`),
	// Organization suffixes, case-sensitive: "Apple Inc", "Globex Corp".
	regexp.MustCompile(`\b[A-Z][a-z]+\s+(Inc|Corp|LLC|Ltd)\b`),
	// Two capitalized words joined to a conjunction: "Apple Inc and Microsoft".
	regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b.*\b(and|with|vs|versus)\b`),
}

// vectorPatterns indicate conceptual queries best served by semantic search.
// Matched against the lowercased query.
var vectorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(explain|describe|what is|how does|why)\b`),
	regexp.MustCompile(`\b(concept|theory|principle|idea)\b`),
	regexp.MustCompile(`\b(similar|like|comparable|analogous)\b`),
	regexp.MustCompile(`\b(meaning|definition|understanding)\b`),
	regexp.MustCompile(`\b(implications|effects|impact|influence)\b`),
	regexp.MustCompile(`\b(analysis|assessment|evaluation)\b`),
	regexp.MustCompile(`\b(trend|pattern|behavior)\b`),
}

// keywordPatterns indicate literal lookups: quoted phrases, years, amounts,
// fiscal tokens. Case-sensitive where the token is literal (Q1-Q4, months).
var keywordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"[^"]+"`),
	regexp.MustCompile(`(?i)\b(specific|exact|precisely|exactly)\b`),
	regexp.MustCompile(`\b\d{4}\b`),
	regexp.MustCompile(`\b\d+(\.\d+)?%`),
	regexp.MustCompile(`\$\d+(\.\d+)?\b`),
	regexp.MustCompile(`\b(Q[1-4]|quarter|fiscal)\b`),
	regexp.MustCompile(`\b(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\b`),
	regexp.MustCompile(`(?i)\b(report|document|file|publication)\b.*\b(titled|named|called)\b`),
}

// complexityPatterns indicate queries that benefit from blended retrieval.
// Matched against the lowercased query.
var complexityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(compare|contrast|difference)\b`),
	regexp.MustCompile(`\b(comprehensive|complete|full)\b`),
	regexp.MustCompile(`\b(analysis|overview|summary)\b.*\b(including|with|and)\b`),
	regexp.MustCompile(`\b(historical|timeline|over time)\b`),
	regexp.MustCompile(`\b(multiple|various|different|several)\b`),
}

// entityPattern finds capitalized multi-word spans; two or more suggest a
// relationship query.
var entityPattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)

// semanticCueWords force a vector-leaning alpha when present in the
// lowercased query.
var semanticCueWords = []string{"similar", "like", "explain", "concept", "what is", "how does"}

// literalCueTokens force a keyword-leaning alpha when present in the raw query.
var literalCueTokens = []string{`"`, "$", "%", "Q1", "Q2", "Q3", "Q4"}

// countMatches returns how many patterns match text at least once.
// Multiple hits of the same pattern count once.
func countMatches(patterns []*regexp.Regexp, text string) int {
	matches := 0
	for _, p := range patterns {
		if p.MatchString(text) {
			matches++
		}
	}
	return matches
}
