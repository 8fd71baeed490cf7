// Package assetledger provides an in-memory reference implementation
// of the staking-asset / distribution-asset registries the geyser
// core consumes as an external interface: a
// fungible balance ledger with transfer/allowance primitives and, for
// staking assets, total_supply and an owner-callable rebase that
// scales every holder's balance proportionally.
//
// This exists so the engine in internal/geyser is runnable end to
// end without a real chain; it is not itself part of the accounting
// core.
package assetledger

import (
	"errors"
	"math/big"
	"sync"

	"github.com/Ham-Protocol/ham-geyser/internal/geyser"
)

var (
	ErrInsufficientBalance   = errors.New("assetledger: insufficient balance")
	ErrInsufficientAllowance = errors.New("assetledger: insufficient allowance")
	ErrRebaseUnderflow       = errors.New("assetledger: negative rebase would underflow a balance")
)

// Ledger is a rebasing fungible balance ledger. Holder balances are
// stored as-is (not as shares); Rebase scales every balance
// proportionally, exactly as the staking asset's
// owner-invoked rebase.
type Ledger struct {
	mu         sync.Mutex
	balances   map[geyser.Address]*big.Int
	allowances map[geyser.Address]map[geyser.Address]*big.Int
	supply     *big.Int
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		balances:   make(map[geyser.Address]*big.Int),
		allowances: make(map[geyser.Address]map[geyser.Address]*big.Int),
		supply:     big.NewInt(0),
	}
}

// Mint credits `amount` to `to` and increases total supply; a test
// and bootstrap helper, not part of the consumed interface.
func (l *Ledger) Mint(to geyser.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(to, amount)
	l.supply.Add(l.supply, amount)
}

// Approve sets the amount `spender` may move out of `owner` via
// TransferFrom.
func (l *Ledger) Approve(owner, spender geyser.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[geyser.Address]*big.Int)
	}
	l.allowances[owner][spender] = new(big.Int).Set(amount)
}

// BalanceOf returns addr's current balance.
func (l *Ledger) BalanceOf(addr geyser.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.balanceLocked(addr))
}

// TotalSupply returns the ledger's current total supply.
func (l *Ledger) TotalSupply() *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.supply)
}

// TransferFrom moves `amount` from `from` to `to` on behalf of
// `spender`, debiting spender's allowance over `from`'s balance.
func (l *Ledger) TransferFrom(spender, from, to geyser.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	allowed := l.allowanceLocked(from, spender)
	if allowed.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	bal := l.balanceLocked(from)
	if bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	l.allowances[from][spender] = new(big.Int).Sub(allowed, amount)
	l.debit(from, amount)
	l.credit(to, amount)
	return nil
}

// TransferOut moves `amount` directly out of `from` to `to`, with no
// allowance check — used when the pool itself is the sender, exactly
// as an ERC20 `transfer` call made by the token holder.
func (l *Ledger) TransferOut(from, to geyser.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	bal := l.balanceLocked(from)
	if bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	l.debit(from, amount)
	l.credit(to, amount)
	return nil
}

func (l *Ledger) allowanceLocked(owner, spender geyser.Address) *big.Int {
	m, ok := l.allowances[owner]
	if !ok {
		return big.NewInt(0)
	}
	a, ok := m[spender]
	if !ok {
		return big.NewInt(0)
	}
	return a
}

func (l *Ledger) balanceLocked(addr geyser.Address) *big.Int {
	b, ok := l.balances[addr]
	if !ok {
		return big.NewInt(0)
	}
	return b
}

func (l *Ledger) credit(to geyser.Address, amount *big.Int) {
	cur := l.balanceLocked(to)
	l.balances[to] = new(big.Int).Add(cur, amount)
}

func (l *Ledger) debit(from geyser.Address, amount *big.Int) {
	cur := l.balanceLocked(from)
	l.balances[from] = new(big.Int).Sub(cur, amount)
}

// Rebase scales every holder's balance by (supply + supplyDelta) /
// supply: a positive delta increases all balances,
// a negative delta decreases them. The geyser engine never calls
// this; only an external owner-equivalent caller does.
func (l *Ledger) Rebase(supplyDelta *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.supply.Sign() == 0 {
		return nil
	}
	newSupply := new(big.Int).Add(l.supply, supplyDelta)
	if newSupply.Sign() < 0 {
		return ErrRebaseUnderflow
	}

	for addr, bal := range l.balances {
		scaled := new(big.Int).Mul(bal, newSupply)
		scaled.Div(scaled, l.supply)
		l.balances[addr] = scaled
	}
	l.supply = newSupply
	return nil
}

// PoolView adapts a Ledger, bound to one pool address, to
// geyser.AssetLedger. The pool is the implicit "from" for outgoing
// Transfer calls and the implicit "spender" for TransferFrom calls the
// engine makes on deposit; the destination is the `to` argument.
type PoolView struct {
	ledger *Ledger
	pool   geyser.Address
}

// NewPoolView returns a geyser.AssetLedger bound to pool on ledger.
func NewPoolView(ledger *Ledger, pool geyser.Address) *PoolView {
	return &PoolView{ledger: ledger, pool: pool}
}

// TransferFrom implements geyser.AssetLedger: moves amount from
// `from` to `to`, as the bound pool spending its allowance over `from`.
func (p *PoolView) TransferFrom(from, to geyser.Address, amount *big.Int) error {
	return p.ledger.TransferFrom(p.pool, from, to, amount)
}

// Transfer implements geyser.AssetLedger: moves amount out of the
// bound pool to `to`.
func (p *PoolView) Transfer(to geyser.Address, amount *big.Int) error {
	return p.ledger.TransferOut(p.pool, to, amount)
}

// BalanceOf implements geyser.AssetLedger.
func (p *PoolView) BalanceOf(addr geyser.Address) *big.Int {
	return p.ledger.BalanceOf(addr)
}

// TotalSupply implements geyser.AssetLedger.
func (p *PoolView) TotalSupply() *big.Int {
	return p.ledger.TotalSupply()
}
