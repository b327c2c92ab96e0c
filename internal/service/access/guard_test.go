package access

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-core/pkg/errno"
)

var (
	owner   = common.HexToAddress("0x1000000000000000000000000000000000000001")
	creator = common.HexToAddress("0x2000000000000000000000000000000000000002")
	minter  = common.HexToAddress("0x3000000000000000000000000000000000000003")
	other   = common.HexToAddress("0x4000000000000000000000000000000000000004")
)

func TestNew_RejectsZeroAddress(t *testing.T) {
	_, err := New(common.Address{}, nil, nil)
	assert.True(t, errors.Is(err, errno.ErrZeroAddress))

	_, err = New(owner, []common.Address{{}}, nil)
	assert.True(t, errors.Is(err, errno.ErrZeroAddress))

	_, err = New(owner, nil, []common.Address{creator, {}})
	assert.True(t, errors.Is(err, errno.ErrZeroAddress))
}

func TestRequire(t *testing.T) {
	g, err := New(owner, []common.Address{creator}, []common.Address{minter})
	require.NoError(t, err)

	assert.NoError(t, g.RequireOwner(owner))
	assert.ErrorIs(t, g.RequireOwner(other), errno.ErrOnlyOwner)
	assert.NoError(t, g.RequireAllowedCaller(creator))
	assert.ErrorIs(t, g.RequireAllowedCaller(minter), errno.ErrOnlyAllowedCaller)
	assert.True(t, g.IsMinter(minter))
	assert.False(t, g.IsMinter(creator))
	assert.NoError(t, g.RequireNotPaused())
}

func TestAddRemove(t *testing.T) {
	g, err := New(owner, nil, nil)
	require.NoError(t, err)

	_, err = g.AddAllowedCaller(common.Address{})
	assert.ErrorIs(t, err, errno.ErrZeroAddress)

	undo, err := g.AddAllowedCaller(creator)
	require.NoError(t, err)
	assert.True(t, g.IsAllowedCaller(creator))

	_, err = g.AddAllowedCaller(creator)
	assert.ErrorIs(t, err, errno.ErrAlreadySet)

	undo()
	assert.False(t, g.IsAllowedCaller(creator))

	_, err = g.RemoveMinter(minter)
	assert.ErrorIs(t, err, errno.ErrAlreadySet)

	_, err = g.AddMinter(minter)
	require.NoError(t, err)
	undo, err = g.RemoveMinter(minter)
	require.NoError(t, err)
	assert.False(t, g.IsMinter(minter))
	undo()
	assert.True(t, g.IsMinter(minter))
}

func TestTransferOwnershipAndPause(t *testing.T) {
	g, err := New(owner, nil, nil)
	require.NoError(t, err)

	_, _, err = g.TransferOwnership(common.Address{})
	assert.ErrorIs(t, err, errno.ErrZeroAddress)

	prev, undo, err := g.TransferOwnership(other)
	require.NoError(t, err)
	assert.Equal(t, owner, prev)
	assert.Equal(t, other, g.Owner())
	undo()
	assert.Equal(t, owner, g.Owner())

	_, err = g.SetPaused(false)
	assert.ErrorIs(t, err, errno.ErrAlreadySet)

	undo, err = g.SetPaused(true)
	require.NoError(t, err)
	assert.ErrorIs(t, g.RequireNotPaused(), errno.ErrPaused)
	undo()
	assert.False(t, g.Paused())
}
