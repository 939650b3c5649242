package router

import (
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/shirabe/internal/models"
)

func TestRoute_ConfidenceScoreInvariants(t *testing.T) {
	r := New()
	queries := []string{
		"",
		"What is inflation?",
		"Apple Inc and Microsoft Corp partnership",
		`"Q3 2024" revenue $500 million`,
		"!!! ??? ...",
		"日本語のクエリでもパニックしない",
		strings.Repeat("a very long query about many different things ", 50),
	}
	for _, q := range queries {
		d := r.Route(q)
		if len(d.SearchTypes) == 0 {
			t.Errorf("query %q: no search types selected", q)
		}
		if len(d.ConfidenceScores) != len(models.SearchTypes) {
			t.Errorf("query %q: confidence map has %d keys, want %d", q, len(d.ConfidenceScores), len(models.SearchTypes))
		}
		for _, st := range models.SearchTypes {
			score, ok := d.ConfidenceScores[st]
			if !ok {
				t.Errorf("query %q: missing confidence for %s", q, st)
			}
			if score < 0 || score > 1 {
				t.Errorf("query %q: confidence[%s] = %v out of [0,1]", q, st, score)
			}
		}
		if d.Alpha < 0 || d.Alpha > 1 {
			t.Errorf("query %q: alpha = %v out of [0,1]", q, d.Alpha)
		}
		if d.Reasoning == "" {
			t.Errorf("query %q: empty reasoning", q)
		}
	}
}

func TestRoute_Deterministic(t *testing.T) {
	r := New()
	queries := []string{
		"What is inflation?",
		"Compare the historical impact of rate hikes and QE across multiple decades including various markets",
		"Apple Inc and Microsoft Corp partnership",
	}
	for _, q := range queries {
		first := r.Route(q)
		for i := 0; i < 10; i++ {
			if got := r.Route(q); !reflect.DeepEqual(got, first) {
				t.Fatalf("query %q: run %d differs:\nfirst: %+v\ngot:   %+v", q, i, first, got)
			}
		}
	}
}

func TestRoute_EmptyQueryDefaultsToHybrid(t *testing.T) {
	d := New().Route("")
	if !d.Includes(models.SearchTypeHybrid) {
		t.Fatalf("empty query selected %v, want hybrid", d.SearchTypes)
	}
	if d.ConfidenceScores[models.SearchTypeHybrid] != 0.5 {
		t.Errorf("hybrid confidence = %v, want 0.5", d.ConfidenceScores[models.SearchTypeHybrid])
	}
}

func TestRoute_DefinitionQueryLeansVector(t *testing.T) {
	d := New().Route("What is inflation?")
	if !d.Includes(models.SearchTypeVector) {
		t.Fatalf("selected %v, want vector included", d.SearchTypes)
	}
	if d.Alpha < 0.7 {
		t.Errorf("alpha = %v, want >= 0.7 for a definition query", d.Alpha)
	}
}

func TestRoute_EntityQuerySelectsGraph(t *testing.T) {
	d := New().Route("Apple Inc and Microsoft Corp partnership")
	if !d.Includes(models.SearchTypeGraph) {
		t.Fatalf("selected %v, want graph included", d.SearchTypes)
	}
	if d.ConfidenceScores[models.SearchTypeGraph] < 0.6 {
		t.Errorf("graph confidence = %v, want >= 0.6", d.ConfidenceScores[models.SearchTypeGraph])
	}
}

func TestRoute_LiteralQuerySelectsKeyword(t *testing.T) {
	d := New().Route(`"Q3 2024" revenue $500 million`)
	if !d.Includes(models.SearchTypeKeyword) {
		t.Fatalf("selected %v, want keyword included", d.SearchTypes)
	}
	if d.Alpha > 0.3 {
		t.Errorf("alpha = %v, want <= 0.3 for a literal query", d.Alpha)
	}
}

func TestRoute_LongQueryRaisesHybrid(t *testing.T) {
	q := "please give me a thorough account of everything that happened to the bond market during the tightening cycle and afterwards"
	d := New().Route(q)
	if d.ConfidenceScores[models.SearchTypeHybrid] < 0.6 {
		t.Errorf("hybrid confidence = %v, want >= 0.6 for a long query", d.ConfidenceScores[models.SearchTypeHybrid])
	}
}

func TestRoute_ShortQueryRaisesKeyword(t *testing.T) {
	d := New().Route("bond yields")
	if d.ConfidenceScores[models.SearchTypeKeyword] < 0.4 {
		t.Errorf("keyword confidence = %v, want >= 0.4 for a short query", d.ConfidenceScores[models.SearchTypeKeyword])
	}
}

func TestRoute_AlphaMargins(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  float64
	}{
		// Vector signals only, keyword stays near zero: wide margin leans vector.
		{"vector margin", "describe the theory behind the observed pattern and its broader implications for policy analysis", 0.8},
		// Keyword literals dominate: wide margin leans keyword.
		{"keyword margin", "revenue was exactly 4521 in fiscal 2023 per the Mar filing with 12% growth", 0.2},
	}
	r := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Route(tt.query).Alpha; got != tt.want {
				t.Errorf("alpha = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestManualOverride(t *testing.T) {
	r := New()
	for _, st := range models.SearchTypes {
		d := r.ManualOverride(st, 0.6)
		if len(d.SearchTypes) != 1 || d.SearchTypes[0] != st {
			t.Errorf("override %s: search types = %v", st, d.SearchTypes)
		}
		for _, other := range models.SearchTypes {
			want := 0.0
			if other == st {
				want = 1.0
			}
			if d.ConfidenceScores[other] != want {
				t.Errorf("override %s: confidence[%s] = %v, want %v", st, other, d.ConfidenceScores[other], want)
			}
		}
		if d.Alpha != 0.6 {
			t.Errorf("override %s: alpha = %v, want 0.6", st, d.Alpha)
		}
		if !strings.Contains(d.Reasoning, string(st)) {
			t.Errorf("override %s: reasoning %q does not name the type", st, d.Reasoning)
		}
	}
}

func TestManualOverride_ClampsAlpha(t *testing.T) {
	r := New()
	if d := r.ManualOverride(models.SearchTypeHybrid, 1.5); d.Alpha != 1.0 {
		t.Errorf("alpha = %v, want clamped to 1.0", d.Alpha)
	}
	if d := r.ManualOverride(models.SearchTypeHybrid, -0.2); d.Alpha != 0.0 {
		t.Errorf("alpha = %v, want clamped to 0.0", d.Alpha)
	}
}

func TestExplain(t *testing.T) {
	r := New()
	d := r.Route("Apple Inc and Microsoft Corp partnership")
	exp := r.Explain(d)
	if !reflect.DeepEqual(exp.SelectedDatabases, d.SearchTypes) {
		t.Errorf("selected databases = %v, want %v", exp.SelectedDatabases, d.SearchTypes)
	}
	if exp.HybridBalance.VectorWeight+exp.HybridBalance.KeywordWeight != 1.0 {
		t.Errorf("weights do not sum to 1: %+v", exp.HybridBalance)
	}
	if exp.Recommendation == "" {
		t.Error("empty recommendation")
	}

	single := r.Explain(r.ManualOverride(models.SearchTypeGraph, 0.5))
	if !strings.Contains(single.Recommendation, "knowledge graph") {
		t.Errorf("graph recommendation = %q", single.Recommendation)
	}
}
