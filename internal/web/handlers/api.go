// Package handlers implements the resolver's HTTP endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/entity-resolver/internal/db"
	"github.com/entity-resolver/internal/match"
	"github.com/entity-resolver/internal/normalize"
)

const maxBodyBytes = 32 << 20

// APIHandler serves the resolution endpoints.
type APIHandler struct {
	Canon            *normalize.Canonicalizer
	Engine           match.EngineConfig
	Tiers            match.Tiers
	NormalizeWorkers int
	MaxRecords       int
	// MaxPairRecords caps records sent to classify for pairwise scoring.
	MaxPairRecords int
	// Store is optional; without it runs cannot be persisted or listed.
	Store  *db.Store
	Logger *slog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// queryInt reads an integer query parameter within [lo, hi].
func queryInt(r *http.Request, key string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", key, lo, hi)
	}
	return v, nil
}

// queryFloat reads a float query parameter within [lo, hi].
func queryFloat(r *http.Request, key string, def, lo, hi float64) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || v < lo || v > hi {
		return 0, fmt.Errorf("%s must be a number between %g and %g", key, lo, hi)
	}
	return v, nil
}

// Health reports liveness.
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"persistence":    h.Store != nil,
		"name_threshold": h.Engine.NameThreshold,
		"addr_threshold": h.Engine.AddrThreshold,
	})
}
