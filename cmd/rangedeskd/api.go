package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"rangedesk-backend/services/allocator"
)

type api struct {
	service allocator.Service
}

func (a api) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/clients", a.handleClients)
	mux.HandleFunc("GET /api/ranges/{external_id}", a.handleRanges)
	mux.HandleFunc("POST /api/allocate", a.handleAllocate)
	mux.HandleFunc("POST /api/upload", a.handleUpload)
	mux.HandleFunc("GET /api/history", a.handleHistory)
}

func writeJson(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Warn("failed to encode response", "err", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
	Msg   string `json:"msg,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	kind := allocator.KindOf(err)
	status := http.StatusBadGateway
	if kind == allocator.KindValidation {
		status = http.StatusBadRequest
	}
	writeJson(w, status, errorBody{Error: string(kind), Msg: err.Error()})
}

func (a api) handleClients(w http.ResponseWriter, r *http.Request) {
	clients, err := a.service.ListClients(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, http.StatusOK, clients)
}

func (a api) handleRanges(w http.ResponseWriter, r *http.Request) {
	ranges, err := a.service.ListRanges(r.Context(), r.PathValue("external_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, http.StatusOK, ranges)
}

type allocateRequest struct {
	ClientExternalId string `json:"selidd"`
	RangeToken       string `json:"selrng"`
	Quantity         int    `json:"quantity"`
}

func (a api) handleAllocate(w http.ResponseWriter, r *http.Request) {
	var req allocateRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeJson(w, http.StatusBadRequest, errorBody{Error: "validation", Msg: "invalid json body"})
		return
	}

	attempt, err := a.service.Allocate(r.Context(), req.ClientExternalId, req.RangeToken, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, http.StatusOK, attempt)
}

func (a api) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJson(w, http.StatusBadRequest, errorBody{Error: "validation", Msg: "missing file field"})
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		writeJson(w, http.StatusBadRequest, errorBody{Error: "validation", Msg: "expected a .csv file"})
		return
	}

	results, err := a.service.AllocateBatch(r.Context(), file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, http.StatusOK, map[string]any{
		"results":   results,
		"processed": len(results),
	})
}

func (a api) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	history, err := a.service.RecentHistory(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, http.StatusOK, history)
}
