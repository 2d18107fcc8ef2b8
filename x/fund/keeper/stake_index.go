package keeper

import (
	"sync"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/btree"
	"github.com/openalpha/fund-cycle/x/fund/types"
)

const stakeIndexDegree = 32 // B-tree degree, affects node size and cache efficiency

// StakerEntry is one account's position in the reputation leaderboard
type StakerEntry struct {
	Address string   `json:"address"`
	Balance math.Int `json:"balance"`
}

// stakerItem wraps a staker entry for use in btree.
// Implements btree.Item interface.
type stakerItem struct {
	entry StakerEntry
}

// Less orders ascending by balance, ties broken by address so every account
// occupies a distinct tree slot
func (a *stakerItem) Less(b btree.Item) bool {
	other := b.(*stakerItem)
	if a.entry.Balance.Equal(other.entry.Balance) {
		return a.entry.Address < other.entry.Address
	}
	return a.entry.Balance.LT(other.entry.Balance)
}

// stakeIndex keeps a btree of accounts ordered by reputation balance,
// maintained on every stake movement. Backs the top-stakers query without
// scanning the full ledger set.
type stakeIndex struct {
	mu   sync.RWMutex
	tree *btree.BTree
	// Current balance per address, needed to delete the old tree slot
	// before inserting the new one
	balances map[string]math.Int
}

func newStakeIndex() *stakeIndex {
	return &stakeIndex{
		tree:     btree.New(stakeIndexDegree),
		balances: make(map[string]math.Int),
	}
}

// Update moves an account to its new balance slot. A zero balance removes
// the account from the index.
func (idx *stakeIndex) Update(address string, balance math.Int) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if old, ok := idx.balances[address]; ok {
		idx.tree.Delete(&stakerItem{entry: StakerEntry{Address: address, Balance: old}})
		delete(idx.balances, address)
	}
	if balance.IsPositive() {
		idx.tree.ReplaceOrInsert(&stakerItem{entry: StakerEntry{Address: address, Balance: balance}})
		idx.balances[address] = balance
	}
}

// Top returns up to n accounts with the highest reputation balances,
// descending
func (idx *stakeIndex) Top(n int) []StakerEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	entries := make([]StakerEntry, 0, n)
	idx.tree.Descend(func(item btree.Item) bool {
		entries = append(entries, item.(*stakerItem).entry)
		return len(entries) < n
	})
	return entries
}

// Len returns the number of indexed accounts
func (idx *stakeIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.tree.Len()
}

// RebuildStakeIndex repopulates the in-memory leaderboard from the stored
// ledgers, reading live reputation balances. Used after a restart.
func (k *Keeper) RebuildStakeIndex(ctx sdk.Context) {
	k.IterateLedgers(ctx, func(ledger *types.AccountLedger) bool {
		addr, err := sdk.AccAddressFromBech32(ledger.Address)
		if err != nil {
			return false
		}
		k.stakeIndex.Update(ledger.Address, k.reputationKeeper.BalanceOf(ctx, addr))
		return false
	})
}

// TopStakers returns the n accounts holding the most reputation, rebuilding
// the index lazily if it is empty
func (k *Keeper) TopStakers(ctx sdk.Context, n int) []StakerEntry {
	if k.stakeIndex.Len() == 0 {
		k.RebuildStakeIndex(ctx)
	}
	return k.stakeIndex.Top(n)
}
