package api

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/openalpha/fund-cycle/api/types"
)

// MockService implements all service interfaces with in-memory mock data.
// Arithmetic runs on int64, which is plenty for development fixtures.
type MockService struct {
	poolValue      int64
	commissionPool int64
	shareSupply    int64
	repSupply      int64

	cycleNumber uint64
	phase       string
	phaseStart  int64

	accounts map[string]*mockAccount
	history  *PoolHistory
	mu       sync.RWMutex
}

type mockAccount struct {
	reputation        int64
	shares            int64
	lastRedeemedCycle uint64
	hasEverRedeemed   bool
	investments       []*types.Investment
}

// NewMockService creates a mock service with an empty pool
func NewMockService() *MockService {
	return &MockService{
		phase:       "deposit_withdraw",
		cycleNumber: 1,
		phaseStart:  time.Now().Unix(),
		accounts:    make(map[string]*mockAccount),
		history:     NewPoolHistory(0),
	}
}

func (ms *MockService) account(address string) *mockAccount {
	if acc, ok := ms.accounts[address]; ok {
		return acc
	}
	acc := &mockAccount{}
	ms.accounts[address] = acc
	return acc
}

func parsePositive(value string) (int64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid amount: %q", value)
	}
	return n, nil
}

func (ms *MockService) fundStateLocked() *types.FundState {
	return &types.FundState{
		PoolValue:        strconv.FormatInt(ms.poolValue, 10),
		CommissionPool:   strconv.FormatInt(ms.commissionPool, 10),
		ShareSupply:      strconv.FormatInt(ms.shareSupply, 10),
		ReputationSupply: strconv.FormatInt(ms.repSupply, 10),
		UpdatedAt:        nowMillis(),
	}
}

func (ms *MockService) recordHistoryLocked() {
	ms.history.Record(&types.PoolValuePoint{
		CycleNumber: ms.cycleNumber,
		Phase:       ms.phase,
		PoolValue:   strconv.FormatInt(ms.poolValue, 10),
		Timestamp:   nowMillis(),
	})
}

// ============ FundService ============

func (ms *MockService) GetFundState(context.Context) (*types.FundState, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.fundStateLocked(), nil
}

func (ms *MockService) GetRates(context.Context) (*types.Rates, error) {
	return &types.Rates{
		CommissionRate:   "0.200000000000000000",
		AssetFeeRate:     "0.005000000000000000",
		DeveloperFeeRate: "0.005000000000000000",
		ExitFeeRate:      "0.001000000000000000",
	}, nil
}

func (ms *MockService) GetAccount(_ context.Context, address string) (*types.Account, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	acc := ms.accounts[address]
	if acc == nil {
		acc = &mockAccount{}
	}
	investments := acc.investments
	if investments == nil {
		investments = []*types.Investment{}
	}
	return &types.Account{
		Address:           address,
		ReputationBalance: strconv.FormatInt(acc.reputation, 10),
		ShareBalance:      strconv.FormatInt(acc.shares, 10),
		LastRedeemedCycle: acc.lastRedeemedCycle,
		HasEverRedeemed:   acc.hasEverRedeemed,
		Investments:       investments,
	}, nil
}

func (ms *MockService) GetInvestment(_ context.Context, address string, id uint64) (*types.Investment, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	acc := ms.accounts[address]
	if acc == nil || id >= uint64(len(acc.investments)) {
		return nil, fmt.Errorf("investment %d not found for %s", id, address)
	}
	return acc.investments[id], nil
}

func (ms *MockService) GetTopStakers(_ context.Context, limit int) ([]*types.Staker, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	stakers := make([]*types.Staker, 0, limit)
	for address, acc := range ms.accounts {
		staked := int64(0)
		for _, inv := range acc.investments {
			if inv.Closed {
				continue
			}
			n, _ := strconv.ParseInt(inv.Stake, 10, 64)
			staked += n
		}
		if staked > 0 {
			stakers = append(stakers, &types.Staker{
				Address: address,
				Balance: strconv.FormatInt(staked, 10),
			})
		}
		if len(stakers) >= limit {
			break
		}
	}
	return stakers, nil
}

func (ms *MockService) PreviewCommission(_ context.Context, address string) (*types.CommissionPreview, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	acc := ms.accounts[address]
	owed := int64(0)
	alreadyRedeemed := false
	if acc != nil {
		if ms.repSupply > 0 {
			owed = ms.commissionPool * acc.reputation / ms.repSupply
		}
		alreadyRedeemed = acc.hasEverRedeemed && acc.lastRedeemedCycle == ms.cycleNumber
	}
	return &types.CommissionPreview{
		Address:         address,
		Owed:            strconv.FormatInt(owed, 10),
		AlreadyRedeemed: alreadyRedeemed,
	}, nil
}

func (ms *MockService) GetPoolHistory(_ context.Context, fromCycle, toCycle uint64) ([]*types.PoolValuePoint, error) {
	return ms.history.Range(fromCycle, toCycle), nil
}

// ============ CycleService ============

func (ms *MockService) GetCycleState(context.Context) (*types.CycleState, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	return &types.CycleState{
		CycleNumber: ms.cycleNumber,
		Phase:       ms.phase,
		PhaseStart:  ms.phaseStart,
		PhaseAge:    time.Now().Unix() - ms.phaseStart,
		UpdatedAt:   nowMillis(),
	}, nil
}

// ============ EngineService ============

func (ms *MockService) Deposit(_ context.Context, req *types.DepositRequest) (*types.DepositResponse, error) {
	amount, err := parsePositive(req.Amount)
	if err != nil {
		return nil, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	var shares int64
	if ms.shareSupply == 0 || ms.poolValue == 0 {
		shares = amount
	} else {
		shares = amount * ms.shareSupply / ms.poolValue
	}

	ms.poolValue += amount
	ms.shareSupply += shares
	ms.account(req.Depositor).shares += shares
	ms.recordHistoryLocked()

	return &types.DepositResponse{
		SharesMinted:  strconv.FormatInt(shares, 10),
		ValueCredited: strconv.FormatInt(amount, 10),
		Fund:          ms.fundStateLocked(),
	}, nil
}

func (ms *MockService) Withdraw(_ context.Context, req *types.WithdrawRequest) (*types.WithdrawResponse, error) {
	amount, err := parsePositive(req.Amount)
	if err != nil {
		return nil, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.poolValue == 0 || ms.shareSupply == 0 {
		return nil, fmt.Errorf("pool is empty")
	}
	burned := amount * ms.shareSupply / ms.poolValue
	acc := ms.account(req.Withdrawer)
	if acc.shares < burned {
		return nil, fmt.Errorf("insufficient shares")
	}

	acc.shares -= burned
	ms.shareSupply -= burned
	ms.poolValue -= amount
	ms.recordHistoryLocked()

	return &types.WithdrawResponse{
		SharesBurned: strconv.FormatInt(burned, 10),
		Paid:         strconv.FormatInt(amount, 10),
		Fund:         ms.fundStateLocked(),
	}, nil
}

func (ms *MockService) OpenInvestment(_ context.Context, req *types.OpenInvestmentRequest) (*types.OpenInvestmentResponse, error) {
	stake, err := parsePositive(req.Stake)
	if err != nil {
		return nil, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	acc := ms.account(req.Creator)
	if acc.reputation < stake {
		// Mock faucet: grant missing reputation so flows can be tried out
		minted := stake - acc.reputation
		acc.reputation += minted
		ms.repSupply += minted
	}

	inv := &types.Investment{
		ID:          uint64(len(acc.investments)),
		AssetDenom:  req.AssetDenom,
		CycleNumber: ms.cycleNumber,
		Stake:       req.Stake,
		AcquiredQty: req.Stake,
		BuyPrice:    "1.000000000000000000",
		OpenedAt:    time.Now().Unix(),
	}
	acc.investments = append(acc.investments, inv)

	return &types.OpenInvestmentResponse{Investment: inv}, nil
}

func (ms *MockService) CloseInvestment(_ context.Context, req *types.CloseInvestmentRequest) (*types.CloseInvestmentResponse, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	acc := ms.accounts[req.Creator]
	if acc == nil || req.InvestmentID >= uint64(len(acc.investments)) {
		return nil, fmt.Errorf("investment %d not found", req.InvestmentID)
	}
	inv := acc.investments[req.InvestmentID]
	if inv.Closed {
		return nil, fmt.Errorf("investment %d already closed", req.InvestmentID)
	}

	inv.Closed = true
	inv.SellPrice = inv.BuyPrice
	inv.ClosedAt = time.Now().Unix()

	return &types.CloseInvestmentResponse{
		Investment: inv,
		Returned:   inv.Stake,
		Minted:     "0",
		Burned:     "0",
	}, nil
}

func (ms *MockService) RedeemCommission(_ context.Context, req *types.RedeemCommissionRequest) (*types.RedeemCommissionResponse, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	acc := ms.account(req.Account)
	if acc.hasEverRedeemed && acc.lastRedeemedCycle == ms.cycleNumber {
		return nil, fmt.Errorf("already redeemed in cycle %d", ms.cycleNumber)
	}

	owed := int64(0)
	if ms.repSupply > 0 {
		owed = ms.commissionPool * acc.reputation / ms.repSupply
	}
	ms.commissionPool -= owed
	if req.InShares {
		acc.shares += owed
		ms.shareSupply += owed
		ms.poolValue += owed
	}
	acc.lastRedeemedCycle = ms.cycleNumber
	acc.hasEverRedeemed = true
	acc.investments = nil
	ms.recordHistoryLocked()

	return &types.RedeemCommissionResponse{
		Paid:     strconv.FormatInt(owed, 10),
		InShares: req.InShares,
	}, nil
}

func (ms *MockService) AdvancePhase(_ context.Context, req *types.AdvancePhaseRequest) (*types.AdvancePhaseResponse, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	switch ms.phase {
	case "deposit_withdraw":
		ms.phase = "make_decisions"
	case "make_decisions":
		ms.phase = "redeem_commission"
	case "redeem_commission":
		ms.phase = "deposit_withdraw"
		ms.cycleNumber++
	}
	ms.phaseStart = time.Now().Unix()
	ms.recordHistoryLocked()

	return &types.AdvancePhaseResponse{
		Cycle: &types.CycleState{
			CycleNumber: ms.cycleNumber,
			Phase:       ms.phase,
			PhaseStart:  ms.phaseStart,
			UpdatedAt:   nowMillis(),
		},
	}, nil
}
