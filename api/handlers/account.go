package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/openalpha/fund-cycle/api/types"
)

// AccountHandler handles account and investment read endpoints
type AccountHandler struct {
	fund types.FundService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(fund types.FundService) *AccountHandler {
	return &AccountHandler{fund: fund}
}

// HandleAccount handles GET /v1/accounts/{address}
func (h *AccountHandler) HandleAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	address := strings.TrimPrefix(r.URL.Path, "/v1/accounts/")
	if address == "" || strings.Contains(address, "/") {
		address = r.Header.Get("X-Account-Address")
	}
	if address == "" {
		writeError(w, http.StatusBadRequest, "missing_address", "Account address is required")
		return
	}

	account, err := h.fund.GetAccount(r.Context(), address)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get_account_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"account": account})
}

// HandleInvestment handles GET /v1/investments/{id}
func (h *AccountHandler) HandleInvestment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/v1/investments/")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "Investment ID must be a number")
		return
	}

	address := r.URL.Query().Get("address")
	if address == "" {
		address = r.Header.Get("X-Account-Address")
	}

	inv, err := h.fund.GetInvestment(r.Context(), address, id)
	if err != nil {
		writeError(w, http.StatusNotFound, "investment_not_found", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"investment": inv})
}

// HandleCommissionPreview handles GET /v1/commission/preview?address=...
func (h *AccountHandler) HandleCommissionPreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	address := r.URL.Query().Get("address")
	if address == "" {
		address = r.Header.Get("X-Account-Address")
	}
	if address == "" {
		writeError(w, http.StatusBadRequest, "missing_address", "Account address is required")
		return
	}

	preview, err := h.fund.PreviewCommission(r.Context(), address)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "preview_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"preview": preview})
}
