package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/models"
)

// searchRequest is the body of POST /api/v1/search. Supplying SearchType
// bypasses automatic routing.
type searchRequest struct {
	Query          string   `json:"query"`
	SearchType     string   `json:"search_type,omitempty"`
	Alpha          *float64 `json:"alpha,omitempty"`
	MaxResults     int      `json:"max_results,omitempty"`
	IncludeSummary bool     `json:"include_summary,omitempty"`
}

type searchResponse struct {
	*models.OrchestratedResult
	Summary *models.ResultSummary `json:"summary,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}

	var manual *models.RoutingDecision
	if req.SearchType != "" {
		searchType, err := models.ParseSearchType(req.SearchType)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		alpha := 0.5
		if req.Alpha != nil {
			alpha = *req.Alpha
		}
		manual = s.orch.Router().ManualOverride(searchType, alpha)
	}

	s.logger.Debug("search request",
		zap.String("query", req.Query),
		zap.String("search_type", req.SearchType),
		zap.Int("max_results", req.MaxResults))

	result := s.orch.ProcessQuery(r.Context(), req.Query, manual, req.MaxResults)
	resp := searchResponse{OrchestratedResult: result}
	if req.IncludeSummary {
		resp.Summary = s.orch.Summarize(result)
	}
	s.respondJSON(w, http.StatusOK, resp)
}

type routeRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	decision := s.orch.Router().Route(req.Query)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"decision":    decision,
		"explanation": s.orch.Router().Explain(decision),
	})
}

func (s *Server) handleIndexDocument(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusNotImplemented, "document store not configured")
		return
	}
	var input models.DocumentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if input.Content == "" {
		s.respondError(w, http.StatusBadRequest, "content is required")
		return
	}
	doc, err := s.store.IndexDocument(r.Context(), input)
	if err != nil {
		s.logger.Error("indexing failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": doc.ID, "status": "indexed"})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusNotImplemented, "document store not configured")
		return
	}
	doc, err := s.store.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusNotImplemented, "document store not configured")
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteDocument(r.Context(), id); err != nil {
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleAddFact(w http.ResponseWriter, r *http.Request) {
	if s.graph == nil {
		s.respondError(w, http.StatusNotImplemented, "graph store not configured")
		return
	}
	var input models.FactInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	fact, err := s.graph.AddFact(r.Context(), input)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, fact)
}

func (s *Server) handleEntityFacts(w http.ResponseWriter, r *http.Request) {
	if s.graph == nil {
		s.respondError(w, http.StatusNotImplemented, "graph store not configured")
		return
	}
	entity := chi.URLParam(r, "entity")
	facts, err := s.graph.EntityFacts(r.Context(), entity)
	if err != nil {
		s.logger.Error("entity facts failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if facts == nil {
		facts = []*models.GraphFact{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"entity": entity,
		"facts":  facts,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := map[string]interface{}{}
	if s.store != nil {
		docs, chunks, err := s.store.Stats(ctx)
		if err != nil {
			s.logger.Error("status: document stats failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["documents"] = docs
		resp["chunks"] = chunks
	}
	if s.graph != nil {
		facts, err := s.graph.Count(ctx)
		if err != nil {
			s.logger.Error("status: fact count failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["facts"] = facts
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.orch.HealthCheck(r.Context()))
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
