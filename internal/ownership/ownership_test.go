package ownership_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ham-Protocol/ham-geyser/internal/geyser"
	"github.com/Ham-Protocol/ham-geyser/internal/ownership"
)

type recordingSink struct {
	previous, newOwner geyser.Address
	called             bool
}

func (s *recordingSink) EmitOwnershipTransferred(previous, newOwner geyser.Address) {
	s.called = true
	s.previous = previous
	s.newOwner = newOwner
}

func TestRegistry_Owner_ReturnsInitialOwner(t *testing.T) {
	reg := ownership.New("owner", nil)
	assert.Equal(t, geyser.Address("owner"), reg.Owner())
}

func TestRegistry_ProposeTransfer_RequiresCurrentOwner(t *testing.T) {
	reg := ownership.New("owner", nil)
	err := reg.ProposeTransfer("not-owner", "successor")
	assert.ErrorIs(t, err, ownership.ErrNotOwner)
}

func TestRegistry_ProposeTransfer_RejectsNullSuccessor(t *testing.T) {
	reg := ownership.New("owner", nil)
	err := reg.ProposeTransfer("owner", geyser.NullAddress)
	assert.ErrorIs(t, err, ownership.ErrNewOwnerIsNull)
}

func TestRegistry_AcceptTransfer_RequiresPendingNomination(t *testing.T) {
	reg := ownership.New("owner", nil)
	err := reg.AcceptTransfer("successor")
	assert.ErrorIs(t, err, ownership.ErrNoPendingTransfer)
}

func TestRegistry_AcceptTransfer_RequiresNominee(t *testing.T) {
	reg := ownership.New("owner", nil)
	require.NoError(t, reg.ProposeTransfer("owner", "successor"))

	err := reg.AcceptTransfer("someone-else")
	assert.ErrorIs(t, err, ownership.ErrNotPendingOwner)
}

func TestRegistry_AcceptTransfer_CompletesHandoffAndEmits(t *testing.T) {
	sink := &recordingSink{}
	reg := ownership.New("owner", sink)
	require.NoError(t, reg.ProposeTransfer("owner", "successor"))

	require.NoError(t, reg.AcceptTransfer("successor"))

	assert.Equal(t, geyser.Address("successor"), reg.Owner())
	assert.Equal(t, geyser.NullAddress, reg.PendingOwner())
	assert.True(t, sink.called)
	assert.Equal(t, geyser.Address("owner"), sink.previous)
	assert.Equal(t, geyser.Address("successor"), sink.newOwner)
}

func TestRegistry_CancelTransfer_RequiresCurrentOwner(t *testing.T) {
	reg := ownership.New("owner", nil)
	require.NoError(t, reg.ProposeTransfer("owner", "successor"))

	err := reg.CancelTransfer("successor")
	assert.ErrorIs(t, err, ownership.ErrNotOwner)
}

func TestRegistry_CancelTransfer_ClearsNomination(t *testing.T) {
	reg := ownership.New("owner", nil)
	require.NoError(t, reg.ProposeTransfer("owner", "successor"))
	require.NoError(t, reg.CancelTransfer("owner"))

	assert.Equal(t, geyser.NullAddress, reg.PendingOwner())
	assert.ErrorIs(t, reg.AcceptTransfer("successor"), ownership.ErrNoPendingTransfer)
}

func TestRegistry_CapabilityToken_RoundTrips(t *testing.T) {
	reg := ownership.New("owner", nil)
	secret := []byte("test-secret")

	token, err := reg.IssueCapabilityToken(secret, time.Hour)
	require.NoError(t, err)

	owner, err := reg.VerifyCapabilityToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, geyser.Address("owner"), owner)
}

func TestRegistry_CapabilityToken_RejectsWrongSecret(t *testing.T) {
	reg := ownership.New("owner", nil)
	token, err := reg.IssueCapabilityToken([]byte("correct"), time.Hour)
	require.NoError(t, err)

	_, err = reg.VerifyCapabilityToken(token, []byte("wrong"))
	assert.ErrorIs(t, err, ownership.ErrInvalidCapabilityToken)
}

func TestRegistry_CapabilityToken_InvalidAfterTransfer(t *testing.T) {
	reg := ownership.New("owner", nil)
	secret := []byte("test-secret")

	token, err := reg.IssueCapabilityToken(secret, time.Hour)
	require.NoError(t, err)

	require.NoError(t, reg.ProposeTransfer("owner", "successor"))
	require.NoError(t, reg.AcceptTransfer("successor"))

	_, err = reg.VerifyCapabilityToken(token, secret)
	assert.ErrorIs(t, err, ownership.ErrCapabilityOwnerMismatch)
}
