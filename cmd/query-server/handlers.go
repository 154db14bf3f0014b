package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rzpsarthak13/query-filters/pkg/queryfilters"
)

type server struct {
	client queryfilters.Client
}

func newServer(client queryfilters.Client) *server {
	return &server{client: client}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /entities", s.entitiesHandler)
	mux.HandleFunc("GET /query/{entity}", s.queryHandler)
	mux.HandleFunc("DELETE /count/{entity}", s.invalidateHandler)
	return mux
}

type queryResponse struct {
	Pagination queryfilters.Pagination `json:"pagination"`
	Results    []queryfilters.Record   `json:"results"`
}

func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"timestamp":   time.Now().Format(time.RFC3339),
		"count_cache": s.client.CounterStats(),
	})
}

func (s *server) entitiesHandler(w http.ResponseWriter, r *http.Request) {
	entities := make(map[string]interface{})
	for _, e := range s.client.Catalog().Entities() {
		entities[e.Name] = map[string]interface{}{
			"table":  e.Table.Name,
			"fields": e.FieldNames(),
		}
	}
	writeJSON(w, http.StatusOK, entities)
}

func (s *server) queryHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	params := r.URL.Query()

	stmt, err := s.client.Select(r.PathValue("entity"))
	if err != nil {
		writeError(w, err)
		return
	}

	spec, err := loadSpec(params.Get("load"), params.Get("fields"))
	if err != nil {
		writeError(w, err)
		return
	}
	if spec != nil {
		if stmt, err = s.client.ApplyLoads(stmt, spec); err != nil {
			writeError(w, err)
			return
		}
	}

	pageNumber, err := optionalInt(params.Get("page"), "page")
	if err != nil {
		writeError(w, err)
		return
	}
	pageSize, err := optionalInt(params.Get("page_size"), "page_size")
	if err != nil {
		writeError(w, err)
		return
	}

	stmt, page, err := s.client.Paginate(ctx, stmt, pageNumber, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := s.client.Fetch(ctx, stmt)
	if err != nil {
		writeError(w, err)
		return
	}

	log.Printf("[SERVER] %s | rows=%d total=%d | duration=%v", r.URL.String(), len(records), page.TotalResults, time.Since(start))
	writeJSON(w, http.StatusOK, queryResponse{Pagination: page, Results: records})
}

func (s *server) invalidateHandler(w http.ResponseWriter, r *http.Request) {
	stmt, err := s.client.Select(r.PathValue("entity"))
	if err != nil {
		writeError(w, err)
		return
	}
	invalidated, err := s.client.InvalidateCount(r.Context(), stmt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"invalidated": invalidated})
}

// loadSpec prefers an explicit JSON or YAML spec over a comma separated
// field list.
func loadSpec(raw, fields string) (interface{}, error) {
	if raw != "" {
		return queryfilters.DecodeLoadSpec([]byte(raw))
	}
	if fields == "" {
		return nil, nil
	}
	names := strings.Split(fields, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	return names, nil
}

func optionalInt(raw, name string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer, got %q", queryfilters.ErrInvalidPage, name, raw)
	}
	return &v, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, queryfilters.ErrBadLoadFormat),
		errors.Is(err, queryfilters.ErrBadSpec),
		errors.Is(err, queryfilters.ErrFieldNotFound),
		errors.Is(err, queryfilters.ErrInvalidPage):
		return http.StatusBadRequest
	case errors.Is(err, queryfilters.ErrBadQuery):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[SERVER] ERROR: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[SERVER] Failed to encode response: %v", err)
	}
}
