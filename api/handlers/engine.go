package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/openalpha/fund-cycle/api/types"
)

// EngineHandler handles state-changing engine endpoints
type EngineHandler struct {
	engine types.EngineService
}

// NewEngineHandler creates a new engine handler
func NewEngineHandler(engine types.EngineService) *EngineHandler {
	return &EngineHandler{engine: engine}
}

// HandleDeposit handles POST /v1/fund/deposit
func (h *EngineHandler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	var req types.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.Depositor == "" {
		req.Depositor = r.Header.Get("X-Account-Address")
	}
	if req.Depositor == "" {
		writeError(w, http.StatusBadRequest, "missing_address", "Depositor address is required")
		return
	}
	if req.AssetDenom == "" || req.Amount == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "asset_denom and amount are required")
		return
	}

	resp, err := h.engine.Deposit(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "deposit_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleWithdraw handles POST /v1/fund/withdraw
func (h *EngineHandler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	var req types.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.Withdrawer == "" {
		req.Withdrawer = r.Header.Get("X-Account-Address")
	}
	if req.Withdrawer == "" {
		writeError(w, http.StatusBadRequest, "missing_address", "Withdrawer address is required")
		return
	}
	if req.Amount == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "amount is required")
		return
	}

	resp, err := h.engine.Withdraw(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "withdraw_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleOpenInvestment handles POST /v1/investments/open
func (h *EngineHandler) HandleOpenInvestment(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	var req types.OpenInvestmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.Creator == "" {
		req.Creator = r.Header.Get("X-Account-Address")
	}
	if req.Creator == "" {
		writeError(w, http.StatusBadRequest, "missing_address", "Creator address is required")
		return
	}
	if req.AssetDenom == "" || req.Stake == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "asset_denom and stake are required")
		return
	}

	resp, err := h.engine.OpenInvestment(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "open_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleCloseInvestment handles POST /v1/investments/close
func (h *EngineHandler) HandleCloseInvestment(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	var req types.CloseInvestmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.Creator == "" {
		req.Creator = r.Header.Get("X-Account-Address")
	}
	if req.Creator == "" {
		writeError(w, http.StatusBadRequest, "missing_address", "Creator address is required")
		return
	}

	resp, err := h.engine.CloseInvestment(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "close_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleRedeemCommission handles POST /v1/commission/redeem
func (h *EngineHandler) HandleRedeemCommission(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	var req types.RedeemCommissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.Account == "" {
		req.Account = r.Header.Get("X-Account-Address")
	}
	if req.Account == "" {
		writeError(w, http.StatusBadRequest, "missing_address", "Account address is required")
		return
	}

	resp, err := h.engine.RedeemCommission(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "redeem_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleAdvancePhase handles POST /v1/cycle/advance
func (h *EngineHandler) HandleAdvancePhase(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	var req types.AdvancePhaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.Caller == "" {
		req.Caller = r.Header.Get("X-Account-Address")
	}
	if req.Caller == "" {
		writeError(w, http.StatusBadRequest, "missing_address", "Caller address is required")
		return
	}

	resp, err := h.engine.AdvancePhase(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "advance_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
