// Package ownership implements the access-control substrate assumed
// as an external interface by the geyser core: a single
// owner role with transferable ownership, validated actor/target
// before mutation via sentinel errors. Ownership changes hands
// through a two-step propose/accept handoff rather than a single
// unchecked transfer, since a bare one-sided privilege change leaves
// no recovery if the new address is wrong.
package ownership

import (
	"errors"
	"sync"

	"github.com/Ham-Protocol/ham-geyser/internal/geyser"
)

var (
	ErrNotOwner          = errors.New("ownership: caller is not the current owner")
	ErrNoPendingTransfer = errors.New("ownership: no pending ownership transfer")
	ErrNotPendingOwner   = errors.New("ownership: caller is not the pending owner")
	ErrNewOwnerIsNull    = errors.New("ownership: new owner must not be the null address")
)

// Sink receives the ownership-transfer event. geyser.EventSink
// satisfies it.
type Sink interface {
	EmitOwnershipTransferred(previousOwner, newOwner geyser.Address)
}

// Registry holds the single current owner and, during a handoff, the
// address that has been nominated but has not yet accepted.
type Registry struct {
	mu           sync.Mutex
	owner        geyser.Address
	pendingOwner geyser.Address
	sink         Sink
}

// New creates a registry with the given initial owner.
func New(initialOwner geyser.Address, sink Sink) *Registry {
	if sink == nil {
		sink = noopSink{}
	}
	return &Registry{owner: initialOwner, sink: sink}
}

// Owner implements geyser.OwnerSource.
func (r *Registry) Owner() geyser.Address {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owner
}

// PendingOwner returns the nominated successor, or the null address
// if no transfer is in progress.
func (r *Registry) PendingOwner() geyser.Address {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingOwner
}

// ProposeTransfer nominates newOwner as the successor. The current
// owner retains full authority until AcceptTransfer is called by the
// nominee.
func (r *Registry) ProposeTransfer(caller, newOwner geyser.Address) error {
	if newOwner == geyser.NullAddress {
		return ErrNewOwnerIsNull
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if caller != r.owner {
		return ErrNotOwner
	}
	r.pendingOwner = newOwner
	return nil
}

// AcceptTransfer completes a proposed transfer; only the nominated
// address may call it.
func (r *Registry) AcceptTransfer(caller geyser.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pendingOwner == geyser.NullAddress {
		return ErrNoPendingTransfer
	}
	if caller != r.pendingOwner {
		return ErrNotPendingOwner
	}

	previous := r.owner
	r.owner = r.pendingOwner
	r.pendingOwner = geyser.NullAddress
	r.sink.EmitOwnershipTransferred(previous, r.owner)
	return nil
}

// CancelTransfer withdraws a pending nomination before it is
// accepted.
func (r *Registry) CancelTransfer(caller geyser.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if caller != r.owner {
		return ErrNotOwner
	}
	r.pendingOwner = geyser.NullAddress
	return nil
}

type noopSink struct{}

func (noopSink) EmitOwnershipTransferred(geyser.Address, geyser.Address) {}
