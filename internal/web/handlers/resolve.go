package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/entity-resolver/internal/adjudicate"
	"github.com/entity-resolver/internal/db"
	"github.com/entity-resolver/internal/match"
	"github.com/entity-resolver/internal/normalize"
)

// ResolveRequest is the body of POST /api/resolve.
type ResolveRequest struct {
	Records []normalize.Record `json:"records"`
	Label   string             `json:"label,omitempty"`
	Store   bool               `json:"store,omitempty"`
}

// ResolveResponse lists the resolved entities.
type ResolveResponse struct {
	Entities []match.Entity `json:"entities"`
	Records  int            `json:"records"`
	RunID    string         `json:"run_id,omitempty"`
}

// Resolve normalises and clusters the posted records. The name_threshold
// and addr_threshold query parameters override the configured gate.
func (h *APIHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	cfg := h.Engine
	var err error
	if cfg.NameThreshold, err = queryInt(r, "name_threshold", cfg.NameThreshold, 0, 100); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if cfg.AddrThreshold, err = queryInt(r, "addr_threshold", cfg.AddrThreshold, 0, 100); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req ResolveRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.MaxRecords > 0 && len(req.Records) > h.MaxRecords {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("%d records exceeds the limit of %d", len(req.Records), h.MaxRecords))
		return
	}
	if req.Store && h.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}

	normalized, err := h.Canon.NormalizeRecords(r.Context(), req.Records, h.NormalizeWorkers)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	cfg.Logger = h.Logger
	entities, err := match.NewEngine(cfg).Resolve(r.Context(), normalized)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	resp := ResolveResponse{Entities: entities, Records: len(req.Records)}
	if req.Store {
		run := db.NewRun(req.Label, cfg, len(req.Records), entities)
		if err := h.Store.SaveRun(r.Context(), run); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.RunID = run.ID.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// ClassifyRequest is the body of POST /api/classify: either pre-scored
// pairs or raw records to score first.
type ClassifyRequest struct {
	Pairs   []match.ScoredPair `json:"pairs,omitempty"`
	Records []normalize.Record `json:"records,omitempty"`
}

// Classify triages scored pairs into merge, discard and ambiguous lists.
// The high and low query parameters override the configured tiers.
func (h *APIHandler) Classify(w http.ResponseWriter, r *http.Request) {
	tiers := h.Tiers
	var err error
	if tiers.High, err = queryFloat(r, "high", tiers.High, 0, 1); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if tiers.Low, err = queryFloat(r, "low", tiers.Low, 0, 1); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if tiers.Low > tiers.High {
		writeError(w, http.StatusBadRequest, "low must not exceed high")
		return
	}

	var req ClassifyRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Pairs) > 0 && len(req.Records) > 0 {
		writeError(w, http.StatusBadRequest, "send either pairs or records, not both")
		return
	}

	pairs := req.Pairs
	if len(req.Records) > 0 {
		if h.MaxPairRecords > 0 && len(req.Records) > h.MaxPairRecords {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("%d records exceeds the pairwise scoring limit of %d", len(req.Records), h.MaxPairRecords))
			return
		}
		normalized, err := h.Canon.NormalizeRecords(r.Context(), req.Records, h.NormalizeWorkers)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		cfg := h.Engine
		cfg.Logger = h.Logger
		if pairs, err = match.NewEngine(cfg).ScorePairs(r.Context(), normalized); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	}
	for i, p := range pairs {
		if p.Score < 0 || p.Score > 1 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("pair %d: score %v outside 0-1", i, p.Score))
			return
		}
	}

	writeJSON(w, http.StatusOK, match.NewClassifier(tiers, h.Logger).Classify(pairs))
}

// NormalizeRequest is the body of POST /api/normalize.
type NormalizeRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// NormalizeResponse carries the canonical forms of one record.
type NormalizeResponse struct {
	NormName string `json:"norm_name"`
	NormAddr string `json:"norm_addr"`
}

// Normalize returns the canonical name and address.
func (h *APIHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	var req NormalizeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, NormalizeResponse{
		NormName: normalize.NormalizeName(req.Name),
		NormAddr: h.Canon.CanonicalAddress(r.Context(), req.Address),
	})
}

// ListRuns returns recent persisted runs.
func (h *APIHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20, 1, 500)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	runs, err := h.Store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []db.RunSummary{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// RunEntities returns the entities of one persisted run.
func (h *APIHandler) RunEntities(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}
	entities, err := h.Store.LoadEntities(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(entities) == 0 {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, entities)
}

// RunDecisions returns the oracle decisions stored against one run.
func (h *APIHandler) RunDecisions(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}
	decisions, err := h.Store.LoadDecisions(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if decisions == nil {
		decisions = []adjudicate.Decision{}
	}
	writeJSON(w, http.StatusOK, decisions)
}
