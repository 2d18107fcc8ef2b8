package keeper

import (
	"testing"

	"cosmossdk.io/math"
)

func TestStakeIndexOrdering(t *testing.T) {
	idx := newStakeIndex()
	idx.Update("carol", math.NewInt(50))
	idx.Update("alice", math.NewInt(200))
	idx.Update("bob", math.NewInt(100))

	top := idx.Top(2)
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	if top[0].Address != "alice" || top[1].Address != "bob" {
		t.Errorf("expected alice, bob; got %s, %s", top[0].Address, top[1].Address)
	}
}

func TestStakeIndexUpdateMoves(t *testing.T) {
	idx := newStakeIndex()
	idx.Update("alice", math.NewInt(200))
	idx.Update("bob", math.NewInt(100))

	// Bob overtakes alice; the old slot must be gone
	idx.Update("bob", math.NewInt(300))

	top := idx.Top(10)
	if len(top) != 2 {
		t.Fatalf("expected 2 entries after move, got %d", len(top))
	}
	if top[0].Address != "bob" || !top[0].Balance.Equal(math.NewInt(300)) {
		t.Errorf("expected bob at 300 on top, got %s at %s", top[0].Address, top[0].Balance)
	}
}

func TestStakeIndexZeroBalanceRemoves(t *testing.T) {
	idx := newStakeIndex()
	idx.Update("alice", math.NewInt(200))
	idx.Update("alice", math.ZeroInt())

	if idx.Len() != 0 {
		t.Errorf("expected empty index after zero balance, got %d", idx.Len())
	}
}

func TestStakeIndexTiesDistinct(t *testing.T) {
	idx := newStakeIndex()
	idx.Update("alice", math.NewInt(100))
	idx.Update("bob", math.NewInt(100))

	if idx.Len() != 2 {
		t.Errorf("equal balances must occupy distinct slots, got %d", idx.Len())
	}
}

// The index follows stake movements through the investment lifecycle
func TestStakeIndexTracksInvestments(t *testing.T) {
	f := setupFundKeeper(t)
	creator := testAddr(1)
	id := openStandardInvestment(t, f, creator)

	// Whole balance staked away
	top := f.keeper.TopStakers(f.ctx, 10)
	if len(top) != 0 {
		t.Fatalf("expected empty leaderboard while staked, got %d entries", len(top))
	}

	f.venue.prices[altDenom] = math.LegacyNewDec(3)
	if _, err := f.keeper.CloseInvestment(f.ctx, creator, id); err != nil {
		t.Fatalf("CloseInvestment: %v", err)
	}

	top = f.keeper.TopStakers(f.ctx, 10)
	if len(top) != 1 || !top[0].Balance.Equal(math.NewInt(150)) {
		t.Fatalf("expected creator at 150 after profitable close, got %+v", top)
	}
}
