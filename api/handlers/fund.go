package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/openalpha/fund-cycle/api/types"
)

// FundHandler handles fund and cycle read endpoints
type FundHandler struct {
	fund  types.FundService
	cycle types.CycleService
}

// NewFundHandler creates a new fund handler
func NewFundHandler(fund types.FundService, cycle types.CycleService) *FundHandler {
	return &FundHandler{fund: fund, cycle: cycle}
}

// HandleFund handles GET /v1/fund
func (h *FundHandler) HandleFund(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	state, err := h.fund.GetFundState(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get_fund_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"fund": state})
}

// HandleCycle handles GET /v1/cycle
func (h *FundHandler) HandleCycle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	state, err := h.cycle.GetCycleState(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get_cycle_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"cycle": state})
}

// HandleRates handles GET /v1/rates
func (h *FundHandler) HandleRates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	rates, err := h.fund.GetRates(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get_rates_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rates": rates})
}

// HandleTopStakers handles GET /v1/stakers/top?limit=N
func (h *FundHandler) HandleTopStakers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	stakers, err := h.fund.GetTopStakers(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get_stakers_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stakers": stakers,
		"total":   len(stakers),
	})
}

// HandleHistory handles GET /v1/history/pool?from=N&to=M
func (h *FundHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	var fromCycle, toCycle uint64
	if raw := r.URL.Query().Get("from"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from", "from must be a cycle number")
			return
		}
		fromCycle = n
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_to", "to must be a cycle number")
			return
		}
		toCycle = n
	}

	points, err := h.fund.GetPoolHistory(r.Context(), fromCycle, toCycle)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get_history_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"points": points,
		"total":  len(points),
	})
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   code,
		"message": message,
	})
}
