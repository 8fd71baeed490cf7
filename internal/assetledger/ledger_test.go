package assetledger_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ham-Protocol/ham-geyser/internal/assetledger"
	"github.com/Ham-Protocol/ham-geyser/internal/geyser"
)

func TestLedger_MintAndBalanceOf(t *testing.T) {
	l := assetledger.New()
	l.Mint("userA", big.NewInt(1000))

	assert.Zero(t, l.BalanceOf("userA").Cmp(big.NewInt(1000)))
	assert.Zero(t, l.TotalSupply().Cmp(big.NewInt(1000)))
	assert.Zero(t, l.BalanceOf("unknown").Cmp(big.NewInt(0)))
}

func TestLedger_TransferFrom_RequiresAllowance(t *testing.T) {
	l := assetledger.New()
	l.Mint("userA", big.NewInt(1000))

	err := l.TransferFrom("spender", "userA", "pool", big.NewInt(100))
	assert.ErrorIs(t, err, assetledger.ErrInsufficientAllowance)
}

func TestLedger_TransferFrom_RequiresSufficientBalance(t *testing.T) {
	l := assetledger.New()
	l.Mint("userA", big.NewInt(50))
	l.Approve("userA", "spender", big.NewInt(1000))

	err := l.TransferFrom("spender", "userA", "pool", big.NewInt(100))
	assert.ErrorIs(t, err, assetledger.ErrInsufficientBalance)
}

func TestLedger_TransferFrom_MovesBalanceAndDebitsAllowance(t *testing.T) {
	l := assetledger.New()
	l.Mint("userA", big.NewInt(1000))
	l.Approve("userA", "pool", big.NewInt(1000))

	require.NoError(t, l.TransferFrom("pool", "userA", "pool", big.NewInt(300)))

	assert.Zero(t, l.BalanceOf("userA").Cmp(big.NewInt(700)))
	assert.Zero(t, l.BalanceOf("pool").Cmp(big.NewInt(300)))
}

func TestLedger_TransferOut_RequiresSufficientBalance(t *testing.T) {
	l := assetledger.New()
	l.Mint("pool", big.NewInt(10))

	err := l.TransferOut("pool", "userA", big.NewInt(100))
	assert.ErrorIs(t, err, assetledger.ErrInsufficientBalance)
}

func TestLedger_TransferOut_MovesBalanceWithoutAllowance(t *testing.T) {
	l := assetledger.New()
	l.Mint("pool", big.NewInt(1000))

	require.NoError(t, l.TransferOut("pool", "userA", big.NewInt(400)))
	assert.Zero(t, l.BalanceOf("pool").Cmp(big.NewInt(600)))
	assert.Zero(t, l.BalanceOf("userA").Cmp(big.NewInt(400)))
}

func TestLedger_Rebase_ScalesAllBalancesProportionally(t *testing.T) {
	l := assetledger.New()
	l.Mint("userA", big.NewInt(600))
	l.Mint("userB", big.NewInt(400))

	require.NoError(t, l.Rebase(big.NewInt(1000)))

	assert.Zero(t, l.TotalSupply().Cmp(big.NewInt(2000)))
	assert.Zero(t, l.BalanceOf("userA").Cmp(big.NewInt(1200)))
	assert.Zero(t, l.BalanceOf("userB").Cmp(big.NewInt(800)))
}

func TestLedger_Rebase_NegativeDeltaCannotUnderflowSupply(t *testing.T) {
	l := assetledger.New()
	l.Mint("userA", big.NewInt(100))

	err := l.Rebase(big.NewInt(-1000))
	assert.ErrorIs(t, err, assetledger.ErrRebaseUnderflow)
}

func TestLedger_Rebase_NoopOnEmptySupply(t *testing.T) {
	l := assetledger.New()
	err := l.Rebase(big.NewInt(500))
	require.NoError(t, err)
	assert.Zero(t, l.TotalSupply().Cmp(big.NewInt(0)))
}

func TestPoolView_SatisfiesAssetLedgerInterface(t *testing.T) {
	l := assetledger.New()
	l.Mint("userA", big.NewInt(1000))
	l.Approve("userA", "pool", big.NewInt(1000))

	view := assetledger.NewPoolView(l, "pool")
	var _ geyser.AssetLedger = view

	require.NoError(t, view.TransferFrom("userA", "pool", big.NewInt(250)))
	assert.Zero(t, view.BalanceOf("pool").Cmp(big.NewInt(250)))

	require.NoError(t, view.Transfer("userB", big.NewInt(100)))
	assert.Zero(t, view.BalanceOf("pool").Cmp(big.NewInt(150)))
	assert.Zero(t, view.BalanceOf("userB").Cmp(big.NewInt(100)))
}
