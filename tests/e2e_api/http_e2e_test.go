package e2e_api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/fund-cycle/api"
	"github.com/openalpha/fund-cycle/api/types"
)

// ============================================================================
// True E2E Tests - HTTP API -> Keeper -> Fund Engine
// ============================================================================
// These tests make actual HTTP requests to handlers backed by a real
// keeper pair over in-memory storage
// ============================================================================

// TestServer wraps the API server for testing
type TestServer struct {
	server  *httptest.Server
	service *api.KeeperService
}

// NewTestServer creates a new test server with a real keeper service
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	service, err := api.NewKeeperService(log.NewNopLogger())
	if err != nil {
		t.Fatalf("Failed to create keeper service: %v", err)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "healthy",
			"keeper": true,
		})
	})

	registerRoutes(mux, service)

	return &TestServer{
		server:  httptest.NewServer(mux),
		service: service,
	}
}

// registerRoutes wires the service into the same routes api/server.go uses
func registerRoutes(mux *http.ServeMux, service *api.KeeperService) {
	jsonHandler := func(fn func(r *http.Request) (interface{}, error)) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			data, err := fn(r)
			w.Header().Set("Content-Type", "application/json")
			if err != nil {
				w.WriteHeader(http.StatusUnprocessableEntity)
				json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
				return
			}
			json.NewEncoder(w).Encode(data)
		}
	}

	mux.HandleFunc("/v1/fund", jsonHandler(func(r *http.Request) (interface{}, error) {
		return service.GetFundState(r.Context())
	}))
	mux.HandleFunc("/v1/cycle", jsonHandler(func(r *http.Request) (interface{}, error) {
		return service.GetCycleState(r.Context())
	}))
	mux.HandleFunc("/v1/rates", jsonHandler(func(r *http.Request) (interface{}, error) {
		return service.GetRates(r.Context())
	}))
	mux.HandleFunc("/v1/fund/deposit", jsonHandler(func(r *http.Request) (interface{}, error) {
		var req types.DepositRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, err
		}
		return service.Deposit(r.Context(), &req)
	}))
	mux.HandleFunc("/v1/fund/withdraw", jsonHandler(func(r *http.Request) (interface{}, error) {
		var req types.WithdrawRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, err
		}
		return service.Withdraw(r.Context(), &req)
	}))
	mux.HandleFunc("/v1/investments/open", jsonHandler(func(r *http.Request) (interface{}, error) {
		var req types.OpenInvestmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, err
		}
		return service.OpenInvestment(r.Context(), &req)
	}))
	mux.HandleFunc("/v1/cycle/advance", jsonHandler(func(r *http.Request) (interface{}, error) {
		var req types.AdvancePhaseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, err
		}
		return service.AdvancePhase(r.Context(), &req)
	}))
	mux.HandleFunc("/v1/stakers/top", jsonHandler(func(r *http.Request) (interface{}, error) {
		return service.GetTopStakers(r.Context(), 10)
	}))
	mux.HandleFunc("/v1/history/pool", jsonHandler(func(r *http.Request) (interface{}, error) {
		return service.GetPoolHistory(r.Context(), 0, 0)
	}))
}

func (ts *TestServer) Close() {
	ts.server.Close()
}

func (ts *TestServer) URL() string {
	return ts.server.URL
}

func testAddr(seed byte) string {
	addr := make([]byte, 20)
	for i := range addr {
		addr[i] = seed
	}
	return sdk.AccAddress(addr).String()
}

// ============================================================================
// Test: Health Check
// ============================================================================

func TestHealthCheck(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL() + "/health")
	if err != nil {
		t.Fatalf("Failed to get health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)

	if result["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", result["status"])
	}
	if result["keeper"] != true {
		t.Errorf("Expected keeper=true, got %v", result["keeper"])
	}
}

// ============================================================================
// Test: Deposit via HTTP
// ============================================================================

func TestDepositHTTP(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	depositor := testAddr(0x11)

	resp := deposit(t, ts, depositor, "uusd", "1000000")
	if resp.SharesMinted != "1000000" {
		t.Errorf("First deposit should mint 1:1, got %s shares", resp.SharesMinted)
	}
	if resp.Fund.PoolValue != "1000000" {
		t.Errorf("Pool value = %s, want 1000000", resp.Fund.PoolValue)
	}

	// Second depositor into a non-empty pool gets pro-rata shares
	second := testAddr(0x12)
	resp2 := deposit(t, ts, second, "uusd", "500000")
	if resp2.SharesMinted != "500000" {
		t.Errorf("Pro-rata shares = %s, want 500000", resp2.SharesMinted)
	}
	if resp2.Fund.PoolValue != "1500000" {
		t.Errorf("Pool value after second deposit = %s, want 1500000", resp2.Fund.PoolValue)
	}
}

// ============================================================================
// Test: Deposit then Withdraw round trip
// ============================================================================

func TestDepositWithdrawHTTP(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	depositor := testAddr(0x21)
	deposit(t, ts, depositor, "uusd", "2000000")

	body, _ := json.Marshal(types.WithdrawRequest{
		Withdrawer: depositor,
		AssetDenom: "uusd",
		Amount:     "1000000",
	})
	resp, err := http.Post(ts.URL()+"/v1/fund/withdraw", "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("Withdraw request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Withdraw failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var result types.WithdrawResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		t.Fatalf("Failed to parse withdraw response: %v", err)
	}
	if result.SharesBurned != "1000000" {
		t.Errorf("Shares burned = %s, want 1000000", result.SharesBurned)
	}
	if result.Fund.PoolValue != "1000000" {
		t.Errorf("Pool value after withdraw = %s, want 1000000", result.Fund.PoolValue)
	}
}

// ============================================================================
// Test: Phase gating via HTTP
// ============================================================================

func TestPhaseGatingHTTP(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	// Genesis starts in deposit_withdraw, so opening an investment is illegal
	body, _ := json.Marshal(types.OpenInvestmentRequest{
		Creator:    testAddr(0x31),
		AssetDenom: "ubtc",
		Stake:      "1000",
	})
	resp, err := http.Post(ts.URL()+"/v1/investments/open", "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("Open request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		t.Error("Open investment should be rejected during deposit_withdraw phase")
	}

	// Advancing before the minimum phase duration elapsed must also fail
	advBody, _ := json.Marshal(types.AdvancePhaseRequest{Caller: testAddr(0x32)})
	advResp, err := http.Post(ts.URL()+"/v1/cycle/advance", "application/json", bytes.NewBuffer(advBody))
	if err != nil {
		t.Fatalf("Advance request failed: %v", err)
	}
	defer advResp.Body.Close()

	if advResp.StatusCode == http.StatusOK {
		t.Error("Advance should be rejected before the phase duration elapsed")
	}
}

// ============================================================================
// Test: Pool history accumulates samples
// ============================================================================

func TestPoolHistoryHTTP(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	for i := 0; i < 3; i++ {
		deposit(t, ts, testAddr(byte(0x41+i)), "uusd", "100000")
	}

	resp, err := http.Get(ts.URL() + "/v1/history/pool")
	if err != nil {
		t.Fatalf("History request failed: %v", err)
	}
	defer resp.Body.Close()

	var points []*types.PoolValuePoint
	if err := json.NewDecoder(resp.Body).Decode(&points); err != nil {
		t.Fatalf("Failed to parse history: %v", err)
	}
	if len(points) < 3 {
		t.Errorf("History has %d points, want at least 3", len(points))
	}
	last := points[len(points)-1]
	if last.PoolValue != "300000" {
		t.Errorf("Last history sample pool value = %s, want 300000", last.PoolValue)
	}
}

// ============================================================================
// Test: Concurrent HTTP Requests
// ============================================================================

func TestConcurrentHTTP(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	numWorkers := 8
	requestsPerWorker := 50

	var wg sync.WaitGroup
	var successCount, errorCount atomic.Int64

	start := time.Now()

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			depositor := testAddr(byte(0x60 + workerID))
			for i := 0; i < requestsPerWorker; i++ {
				var resp *http.Response
				var err error
				if i%5 == 0 {
					body, _ := json.Marshal(types.DepositRequest{
						Depositor:  depositor,
						AssetDenom: "uusd",
						Amount:     "10000",
					})
					resp, err = http.Post(ts.URL()+"/v1/fund/deposit", "application/json", bytes.NewBuffer(body))
				} else {
					resp, err = http.Get(ts.URL() + "/v1/fund")
				}
				if err != nil {
					errorCount.Add(1)
					continue
				}
				resp.Body.Close()

				if resp.StatusCode == http.StatusOK {
					successCount.Add(1)
				} else {
					errorCount.Add(1)
				}
			}
		}(w)
	}

	wg.Wait()
	duration := time.Since(start)
	totalRequests := numWorkers * requestsPerWorker

	t.Logf("Results: %d requests in %v (%d ok, %d failed)",
		totalRequests, duration, successCount.Load(), errorCount.Load())

	successRate := float64(successCount.Load()) / float64(totalRequests) * 100
	if successRate < 99 {
		t.Errorf("Success rate too low: %.2f%%", successRate)
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

func deposit(t *testing.T, ts *TestServer, depositor, denom, amount string) *types.DepositResponse {
	t.Helper()

	body, _ := json.Marshal(types.DepositRequest{
		Depositor:  depositor,
		AssetDenom: denom,
		Amount:     amount,
	})

	resp, err := http.Post(ts.URL()+"/v1/fund/deposit", "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("Deposit request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Deposit failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var result types.DepositResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		t.Fatalf("Failed to parse deposit response: %v", err)
	}
	return &result
}
