package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	storemetrics "cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/openalpha/fund-cycle/api/types"
	cyclekeeper "github.com/openalpha/fund-cycle/x/cycle/keeper"
	cycletypes "github.com/openalpha/fund-cycle/x/cycle/types"
	fundkeeper "github.com/openalpha/fund-cycle/x/fund/keeper"
	fundtypes "github.com/openalpha/fund-cycle/x/fund/types"
)

// referenceDenom is the pool's accounting asset in standalone mode
const referenceDenom = "uusd"

// KeeperService runs the full engine against an in-memory store. It
// implements FundService, CycleService and EngineService without a chain:
// token movements go through an in-memory bank and trades through a
// simulated venue with fixed prices.
type KeeperService struct {
	fundKeeper  *fundkeeper.Keeper
	cycleKeeper *cyclekeeper.Keeper

	bank       *memBank
	reputation *memReputation
	shares     *memShares
	venue      *venueSim

	fundAddr sdk.AccAddress
	history  *PoolHistory

	ctx sdk.Context
	mu  sync.Mutex
}

// ============ In-memory token ledgers ============

// memBank is a per-denom balance book. It stands in for the bank module
// in standalone mode, including the approve-then-trade discipline the
// exchange adapter expects.
type memBank struct {
	mu         sync.Mutex
	balances   map[string]map[string]math.Int // denom -> address -> amount
	supplies   map[string]math.Int
	decimals   map[string]uint32
	allowances map[string]math.Int // denom -> amount approved to the venue
}

func newMemBank() *memBank {
	return &memBank{
		balances:   make(map[string]map[string]math.Int),
		supplies:   make(map[string]math.Int),
		decimals:   make(map[string]uint32),
		allowances: make(map[string]math.Int),
	}
}

func (b *memBank) balance(denom, addr string) math.Int {
	if book, ok := b.balances[denom]; ok {
		if amt, ok := book[addr]; ok {
			return amt
		}
	}
	return math.ZeroInt()
}

func (b *memBank) setBalance(denom, addr string, amount math.Int) {
	if _, ok := b.balances[denom]; !ok {
		b.balances[denom] = make(map[string]math.Int)
	}
	b.balances[denom][addr] = amount
}

func (b *memBank) credit(denom, addr string, amount math.Int) {
	b.setBalance(denom, addr, b.balance(denom, addr).Add(amount))
}

func (b *memBank) debit(denom, addr string, amount math.Int) error {
	have := b.balance(denom, addr)
	if have.LT(amount) {
		return fmt.Errorf("insufficient %s balance: have %s, need %s", denom, have, amount)
	}
	b.setBalance(denom, addr, have.Sub(amount))
	return nil
}

func (b *memBank) BalanceOf(_ sdk.Context, denom string, addr sdk.AccAddress) math.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance(denom, addr.String())
}

func (b *memBank) Transfer(_ sdk.Context, denom string, from, to sdk.AccAddress, amount math.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.debit(denom, from.String(), amount); err != nil {
		return err
	}
	b.credit(denom, to.String(), amount)
	return nil
}

func (b *memBank) Approve(_ sdk.Context, denom string, _, _ sdk.AccAddress, amount math.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allowances[denom] = amount
	return nil
}

func (b *memBank) allowance(denom string) math.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if amt, ok := b.allowances[denom]; ok {
		return amt
	}
	return math.ZeroInt()
}

func (b *memBank) TotalSupply(_ sdk.Context, denom string) math.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.supplies[denom]; ok {
		return s
	}
	return math.ZeroInt()
}

func (b *memBank) Decimals(_ sdk.Context, denom string) (uint32, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.decimals[denom]
	return d, ok
}

// mint creates supply out of thin air; used by the faucet and the venue
func (b *memBank) mint(denom, addr string, amount math.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(denom, addr, amount)
	if s, ok := b.supplies[denom]; ok {
		b.supplies[denom] = s.Add(amount)
	} else {
		b.supplies[denom] = amount
	}
}

func (b *memBank) burn(denom, addr string, amount math.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.debit(denom, addr, amount); err != nil {
		return err
	}
	b.supplies[denom] = b.supplies[denom].Sub(amount)
	return nil
}

// memReputation is the reputation token ledger. Satisfies the expected
// reputation interfaces of both the fund and the cycle keepers.
type memReputation struct {
	mu        sync.Mutex
	balances  map[string]math.Int
	total     math.Int
	collected math.Int
	paused    bool
}

func newMemReputation() *memReputation {
	return &memReputation{
		balances:  make(map[string]math.Int),
		total:     math.ZeroInt(),
		collected: math.ZeroInt(),
	}
}

func (r *memReputation) balance(addr string) math.Int {
	if amt, ok := r.balances[addr]; ok {
		return amt
	}
	return math.ZeroInt()
}

func (r *memReputation) TotalSupply(_ sdk.Context) math.Int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

func (r *memReputation) BalanceOf(_ sdk.Context, addr sdk.AccAddress) math.Int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balance(addr.String())
}

func (r *memReputation) Mint(_ sdk.Context, to sdk.AccAddress, amount math.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[to.String()] = r.balance(to.String()).Add(amount)
	r.total = r.total.Add(amount)
	return nil
}

func (r *memReputation) CollectStake(_ sdk.Context, from sdk.AccAddress, amount math.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	have := r.balance(from.String())
	if have.LT(amount) {
		return fmt.Errorf("insufficient reputation: have %s, need %s", have, amount)
	}
	r.balances[from.String()] = have.Sub(amount)
	r.collected = r.collected.Add(amount)
	return nil
}

func (r *memReputation) ReturnStake(_ sdk.Context, to sdk.AccAddress, amount math.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.collected.LT(amount) {
		return fmt.Errorf("insufficient collected stake: have %s, need %s", r.collected, amount)
	}
	r.collected = r.collected.Sub(amount)
	r.balances[to.String()] = r.balance(to.String()).Add(amount)
	return nil
}

func (r *memReputation) BurnCollected(_ sdk.Context, amount math.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.collected.LT(amount) {
		return fmt.Errorf("insufficient collected stake: have %s, need %s", r.collected, amount)
	}
	r.collected = r.collected.Sub(amount)
	r.total = r.total.Sub(amount)
	return nil
}

func (r *memReputation) CollectedBalance(_ sdk.Context) math.Int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collected
}

func (r *memReputation) Pause(_ sdk.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = true
	return nil
}

func (r *memReputation) Unpause(_ sdk.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = false
	return nil
}

// memShares is the pool share token ledger
type memShares struct {
	mu       sync.Mutex
	balances map[string]math.Int
	total    math.Int
}

func newMemShares() *memShares {
	return &memShares{
		balances: make(map[string]math.Int),
		total:    math.ZeroInt(),
	}
}

func (s *memShares) balance(addr string) math.Int {
	if amt, ok := s.balances[addr]; ok {
		return amt
	}
	return math.ZeroInt()
}

func (s *memShares) TotalSupply(_ sdk.Context) math.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *memShares) BalanceOf(_ sdk.Context, addr sdk.AccAddress) math.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance(addr.String())
}

func (s *memShares) Mint(_ sdk.Context, to sdk.AccAddress, amount math.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[to.String()] = s.balance(to.String()).Add(amount)
	s.total = s.total.Add(amount)
	return nil
}

func (s *memShares) Burn(_ sdk.Context, from sdk.AccAddress, amount math.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	have := s.balance(from.String())
	if have.LT(amount) {
		return fmt.Errorf("insufficient shares: have %s, need %s", have, amount)
	}
	s.balances[from.String()] = have.Sub(amount)
	s.total = s.total.Sub(amount)
	return nil
}

// venueSim executes trades at fixed prices against the in-memory bank.
// Prices are quoted in reference units per whole source unit; with equal
// decimals on both sides the scale cancels out.
type venueSim struct {
	bank   *memBank
	mu     sync.Mutex
	prices map[string]math.LegacyDec
}

func newVenueSim(bank *memBank) *venueSim {
	return &venueSim{
		bank: bank,
		prices: map[string]math.LegacyDec{
			referenceDenom: math.LegacyOneDec(),
			"ubtc":         math.LegacyNewDec(65000),
			"ueth":         math.LegacyNewDec(3200),
		},
	}
}

func (v *venueSim) SetPrice(denom string, price math.LegacyDec) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.prices[denom] = price
}

func (v *venueSim) priceOf(denom string) math.LegacyDec {
	v.mu.Lock()
	defer v.mu.Unlock()
	if p, ok := v.prices[denom]; ok {
		return p
	}
	return math.LegacyZeroDec()
}

func (v *venueSim) Address() sdk.AccAddress {
	return authtypes.NewModuleAddress("venue")
}

func (v *venueSim) Trade(ctx sdk.Context, srcDenom string, srcAmount math.Int, destDenom string,
	recipient sdk.AccAddress, maxDest math.Int, minRate math.LegacyDec, feeID string) (math.Int, error) {
	if srcDenom != referenceDenom {
		if v.bank.allowance(srcDenom).LT(srcAmount) {
			return math.ZeroInt(), fmt.Errorf("allowance too low for %s", srcDenom)
		}
	}

	srcPrice := v.priceOf(srcDenom)
	destPrice := v.priceOf(destDenom)
	if srcPrice.IsZero() || destPrice.IsZero() {
		return math.ZeroInt(), fmt.Errorf("no price for %s/%s", srcDenom, destDenom)
	}

	dest := srcPrice.MulInt(srcAmount).Quo(destPrice).TruncateInt()
	consumed := srcAmount
	if maxDest.IsPositive() && dest.GT(maxDest) {
		dest = maxDest
		consumed = destPrice.MulInt(dest).Quo(srcPrice).Ceil().TruncateInt()
	}

	if !minRate.IsZero() && consumed.IsPositive() {
		rate := math.LegacyNewDecFromInt(dest).Quo(math.LegacyNewDecFromInt(consumed))
		if rate.LT(minRate) {
			return math.ZeroInt(), fmt.Errorf("rate %s below minimum %s", rate, minRate)
		}
	}

	addr := recipient.String()
	if err := v.bank.burn(srcDenom, addr, consumed); err != nil {
		return math.ZeroInt(), err
	}
	v.bank.mint(destDenom, addr, dest)
	return dest, nil
}

// ============ KeeperService ============

// NewKeeperService creates a standalone engine over an in-memory store
func NewKeeperService(logger log.Logger) (*KeeperService, error) {
	interfaceRegistry := codectypes.NewInterfaceRegistry()
	cdc := codec.NewProtoCodec(interfaceRegistry)

	cycleKey := storetypes.NewKVStoreKey(cycletypes.ModuleName)
	fundKey := storetypes.NewKVStoreKey(fundtypes.ModuleName)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), storemetrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(cycleKey, storetypes.StoreTypeIAVL, db)
	stateStore.MountStoreWithDB(fundKey, storetypes.StoreTypeIAVL, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	ctx := sdk.NewContext(stateStore, cmtproto.Header{
		Time:   time.Now(),
		Height: 1,
	}, false, logger)

	bank := newMemBank()
	bank.decimals[referenceDenom] = 6
	bank.decimals["ubtc"] = 6
	bank.decimals["ueth"] = 6

	reputation := newMemReputation()
	shares := newMemShares()
	venue := newVenueSim(bank)
	fundAddr := authtypes.NewModuleAddress(fundtypes.ModuleName)

	cycleK := cyclekeeper.NewKeeper(cdc, cycleKey, reputation, nil, "", logger)
	fundK := fundkeeper.NewKeeper(
		cdc, fundKey,
		bank, reputation, shares, venue, cycleK,
		referenceDenom, fundAddr, "", logger,
	)
	cycleK.SetFundKeeper(fundK)

	// Chain genesis sits in redeem_commission awaiting its first transition;
	// a standalone engine is more useful started at the top of an open cycle.
	cycleK.SetCycleState(ctx, &cycletypes.CycleState{
		CycleNumber: 1,
		Phase:       cycletypes.PhaseDepositWithdraw,
		PhaseStart:  ctx.BlockTime().Unix(),
	})

	s := &KeeperService{
		fundKeeper:  fundK,
		cycleKeeper: cycleK,
		bank:        bank,
		reputation:  reputation,
		shares:      shares,
		venue:       venue,
		fundAddr:    fundAddr,
		history:     NewPoolHistory(0),
		ctx:         ctx,
	}
	return s, nil
}

// advanceBlock moves block time and height forward before a write.
// Caller must hold s.mu.
func (s *KeeperService) advanceBlock() {
	s.ctx = s.ctx.
		WithBlockTime(time.Now()).
		WithBlockHeight(s.ctx.BlockHeight() + 1)
}

// recordHistory samples the pool value into the skip-list cache.
// Caller must hold s.mu.
func (s *KeeperService) recordHistory() {
	fund := s.fundKeeper.GetFund(s.ctx)
	cycleNumber, phase := s.cycleKeeper.CurrentCycle(s.ctx)
	s.history.Record(&types.PoolValuePoint{
		CycleNumber: cycleNumber,
		Phase:       phase,
		PoolValue:   fund.PoolValue.String(),
		Timestamp:   nowMillis(),
	})
}

// Faucet credits an address in standalone mode so flows can be exercised
// without a chain behind the API.
func (s *KeeperService) Faucet(address, denom string, amount math.Int) error {
	addr, err := sdk.AccAddressFromBech32(address)
	if err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}
	if denom == "urep" {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.reputation.Mint(s.ctx, addr, amount)
	}
	s.bank.mint(denom, addr.String(), amount)
	return nil
}

// History exposes the pool value cache for the broadcaster
func (s *KeeperService) History() *PoolHistory {
	return s.history
}

func (s *KeeperService) fundStateLocked() *types.FundState {
	fund := s.fundKeeper.GetFund(s.ctx)
	return &types.FundState{
		PoolValue:        fund.PoolValue.String(),
		CommissionPool:   fund.CommissionPool.String(),
		ShareSupply:      s.shares.TotalSupply(s.ctx).String(),
		ReputationSupply: s.reputation.TotalSupply(s.ctx).String(),
		UpdatedAt:        nowMillis(),
	}
}

func investmentView(inv *fundtypes.Investment, id uint64) *types.Investment {
	view := &types.Investment{
		ID:          id,
		AssetDenom:  inv.AssetDenom,
		CycleNumber: inv.CycleNumber,
		Stake:       inv.Stake.String(),
		AcquiredQty: inv.AcquiredQty.String(),
		BuyPrice:    inv.BuyPrice.String(),
		Closed:      inv.Closed,
		OpenedAt:    inv.OpenedAt,
		ClosedAt:    inv.ClosedAt,
	}
	if inv.Closed {
		view.SellPrice = inv.SellPrice.String()
	}
	return view
}

// ============ FundService ============

func (s *KeeperService) GetFundState(_ context.Context) (*types.FundState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fundStateLocked(), nil
}

func (s *KeeperService) GetRates(_ context.Context) (*types.Rates, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	params := s.fundKeeper.GetParams(s.ctx)
	return &types.Rates{
		CommissionRate:   params.CommissionRate.String(),
		AssetFeeRate:     params.AssetFeeRate.String(),
		DeveloperFeeRate: params.DeveloperFeeRate.String(),
		ExitFeeRate:      params.ExitFeeRate.String(),
		Developer:        params.Developer,
	}, nil
}

func (s *KeeperService) GetAccount(_ context.Context, address string) (*types.Account, error) {
	addr, err := sdk.AccAddressFromBech32(address)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ledger := s.fundKeeper.GetLedger(s.ctx, addr)
	investments := make([]*types.Investment, 0, len(ledger.Investments))
	for i := range ledger.Investments {
		investments = append(investments, investmentView(&ledger.Investments[i], uint64(i)))
	}

	return &types.Account{
		Address:           address,
		ReputationBalance: s.reputation.BalanceOf(s.ctx, addr).String(),
		ShareBalance:      s.shares.BalanceOf(s.ctx, addr).String(),
		LastRedeemedCycle: ledger.LastRedeemedCycle,
		HasEverRedeemed:   ledger.HasEverRedeemed,
		Investments:       investments,
	}, nil
}

func (s *KeeperService) GetInvestment(_ context.Context, address string, id uint64) (*types.Investment, error) {
	addr, err := sdk.AccAddressFromBech32(address)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ledger := s.fundKeeper.GetLedger(s.ctx, addr)
	if id >= uint64(len(ledger.Investments)) {
		return nil, fundtypes.ErrInvestmentNotFound
	}
	return investmentView(&ledger.Investments[id], id), nil
}

func (s *KeeperService) GetTopStakers(_ context.Context, limit int) ([]*types.Staker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.fundKeeper.TopStakers(s.ctx, limit)
	stakers := make([]*types.Staker, 0, len(entries))
	for _, entry := range entries {
		stakers = append(stakers, &types.Staker{
			Address: entry.Address,
			Balance: entry.Balance.String(),
		})
	}
	return stakers, nil
}

func (s *KeeperService) PreviewCommission(_ context.Context, address string) (*types.CommissionPreview, error) {
	addr, err := sdk.AccAddressFromBech32(address)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cycleNumber, _ := s.cycleKeeper.CurrentCycle(s.ctx)
	ledger := s.fundKeeper.GetLedger(s.ctx, addr)

	owed := math.ZeroInt()
	totalRep := s.reputation.TotalSupply(s.ctx)
	if totalRep.IsPositive() {
		fund := s.fundKeeper.GetFund(s.ctx)
		owed = fund.CommissionPool.Mul(s.reputation.BalanceOf(s.ctx, addr)).Quo(totalRep)
	}

	return &types.CommissionPreview{
		Address:         address,
		Owed:            owed.String(),
		AlreadyRedeemed: ledger.HasRedeemed(cycleNumber),
	}, nil
}

func (s *KeeperService) GetPoolHistory(_ context.Context, fromCycle, toCycle uint64) ([]*types.PoolValuePoint, error) {
	return s.history.Range(fromCycle, toCycle), nil
}

// ============ CycleService ============

func (s *KeeperService) GetCycleState(_ context.Context) (*types.CycleState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.cycleKeeper.GetCycleState(s.ctx)
	now := time.Now().Unix()
	return &types.CycleState{
		CycleNumber:      state.CycleNumber,
		Phase:            state.Phase,
		PhaseStart:       state.PhaseStart,
		PhaseAge:         now - state.PhaseStart,
		ReputationPaused: state.ReputationPaused,
		UpdatedAt:        nowMillis(),
	}, nil
}

// ============ EngineService ============

func (s *KeeperService) Deposit(_ context.Context, req *types.DepositRequest) (*types.DepositResponse, error) {
	addr, err := sdk.AccAddressFromBech32(req.Depositor)
	if err != nil {
		return nil, fmt.Errorf("invalid depositor: %w", err)
	}
	amount, ok := math.NewIntFromString(req.Amount)
	if !ok || !amount.IsPositive() {
		return nil, fundtypes.ErrInvalidAmount
	}
	denom := req.AssetDenom
	if denom == "" {
		denom = referenceDenom
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceBlock()

	// Standalone faucet: top up the depositor so flows can be exercised
	if have := s.bank.BalanceOf(s.ctx, denom, addr); have.LT(amount) {
		s.bank.mint(denom, addr.String(), amount.Sub(have))
	}

	before := s.fundKeeper.GetFund(s.ctx).PoolValue
	shares, err := s.fundKeeper.Deposit(s.ctx, addr, denom, amount)
	if err != nil {
		return nil, err
	}
	credited := s.fundKeeper.GetFund(s.ctx).PoolValue.Sub(before)
	s.recordHistory()

	return &types.DepositResponse{
		SharesMinted:  shares.String(),
		ValueCredited: credited.String(),
		Fund:          s.fundStateLocked(),
	}, nil
}

func (s *KeeperService) Withdraw(_ context.Context, req *types.WithdrawRequest) (*types.WithdrawResponse, error) {
	addr, err := sdk.AccAddressFromBech32(req.Withdrawer)
	if err != nil {
		return nil, fmt.Errorf("invalid withdrawer: %w", err)
	}
	amount, ok := math.NewIntFromString(req.Amount)
	if !ok || !amount.IsPositive() {
		return nil, fundtypes.ErrInvalidAmount
	}
	denom := req.AssetDenom
	if denom == "" {
		denom = referenceDenom
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceBlock()

	burned, paid, err := s.fundKeeper.Withdraw(s.ctx, addr, denom, amount)
	if err != nil {
		return nil, err
	}
	s.recordHistory()

	return &types.WithdrawResponse{
		SharesBurned: burned.String(),
		Paid:         paid.String(),
		Fund:         s.fundStateLocked(),
	}, nil
}

func (s *KeeperService) OpenInvestment(_ context.Context, req *types.OpenInvestmentRequest) (*types.OpenInvestmentResponse, error) {
	addr, err := sdk.AccAddressFromBech32(req.Creator)
	if err != nil {
		return nil, fmt.Errorf("invalid creator: %w", err)
	}
	stake, ok := math.NewIntFromString(req.Stake)
	if !ok || !stake.IsPositive() {
		return nil, fundtypes.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceBlock()

	id, inv, err := s.fundKeeper.OpenInvestment(s.ctx, addr, req.AssetDenom, stake)
	if err != nil {
		return nil, err
	}
	s.recordHistory()

	return &types.OpenInvestmentResponse{Investment: investmentView(inv, id)}, nil
}

func (s *KeeperService) CloseInvestment(_ context.Context, req *types.CloseInvestmentRequest) (*types.CloseInvestmentResponse, error) {
	addr, err := sdk.AccAddressFromBech32(req.Creator)
	if err != nil {
		return nil, fmt.Errorf("invalid creator: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceBlock()

	result, err := s.fundKeeper.CloseInvestment(s.ctx, addr, req.InvestmentID)
	if err != nil {
		return nil, err
	}
	s.recordHistory()

	ledger := s.fundKeeper.GetLedger(s.ctx, addr)
	var view *types.Investment
	if req.InvestmentID < uint64(len(ledger.Investments)) {
		view = investmentView(&ledger.Investments[req.InvestmentID], req.InvestmentID)
	}

	return &types.CloseInvestmentResponse{
		Investment: view,
		Returned:   result.Returned.String(),
		Minted:     result.Minted.String(),
		Burned:     result.Burned.String(),
	}, nil
}

func (s *KeeperService) RedeemCommission(_ context.Context, req *types.RedeemCommissionRequest) (*types.RedeemCommissionResponse, error) {
	addr, err := sdk.AccAddressFromBech32(req.Account)
	if err != nil {
		return nil, fmt.Errorf("invalid account: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceBlock()

	paid, _, err := s.fundKeeper.RedeemCommission(s.ctx, addr, req.InShares)
	if err != nil {
		return nil, err
	}
	s.recordHistory()

	return &types.RedeemCommissionResponse{
		Paid:     paid.String(),
		InShares: req.InShares,
	}, nil
}

func (s *KeeperService) AdvancePhase(_ context.Context, req *types.AdvancePhaseRequest) (*types.AdvancePhaseResponse, error) {
	addr, err := sdk.AccAddressFromBech32(req.Caller)
	if err != nil {
		return nil, fmt.Errorf("invalid caller: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceBlock()

	state, err := s.cycleKeeper.AdvancePhase(s.ctx, addr)
	if err != nil {
		return nil, err
	}
	s.recordHistory()

	now := time.Now().Unix()
	return &types.AdvancePhaseResponse{
		Cycle: &types.CycleState{
			CycleNumber:      state.CycleNumber,
			Phase:            state.Phase,
			PhaseStart:       state.PhaseStart,
			PhaseAge:         now - state.PhaseStart,
			ReputationPaused: state.ReputationPaused,
			UpdatedAt:        nowMillis(),
		},
	}, nil
}
