package ledger

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-core/internal/model"
)

var (
	custodian = common.HexToAddress("0xc000000000000000000000000000000000000001")
	alice     = common.HexToAddress("0xc000000000000000000000000000000000000002")
	bob       = common.HexToAddress("0xc000000000000000000000000000000000000003")
	nft       = common.HexToAddress("0xd000000000000000000000000000000000000721")
	multi     = common.HexToAddress("0xd000000000000000000000000000000000001155")
)

func TestCustody(t *testing.T) {
	ctx := context.Background()
	l := New(custodian)
	l.RegisterCollection(nft, KindERC721, false)
	l.RegisterCollection(multi, KindERC1155, false)

	id, err := l.Issue(alice, nft, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	require.NoError(t, l.TransferIn(ctx, alice, nft, id, false, 1))
	owner, err := l.OwnerOf(ctx, nft, id)
	require.NoError(t, err)
	assert.Equal(t, custodian, owner)

	// 已经转走，不能再转
	assert.ErrorIs(t, l.TransferIn(ctx, alice, nft, id, false, 1), ErrIncorrectOwner)
	assert.ErrorIs(t, l.TransferIn(ctx, alice, nft, id, true, 1), ErrKindMismatch)

	require.NoError(t, l.TransferOut(ctx, bob, nft, id, false, 1))
	owner, _ = l.OwnerOf(ctx, nft, id)
	assert.Equal(t, bob, owner)

	mid, err := l.Issue(alice, multi, 25)
	require.NoError(t, err)
	require.NoError(t, l.TransferIn(ctx, alice, multi, mid, true, 20))
	assert.ErrorIs(t, l.TransferIn(ctx, alice, multi, mid, true, 6), ErrInsufficientBalance)

	bal, _ := l.BalanceOf(ctx, custodian, multi, mid)
	assert.Equal(t, uint64(20), bal)
	bal, _ = l.BalanceOf(ctx, alice, multi, mid)
	assert.Equal(t, uint64(5), bal)
}

func TestMintAndBurn(t *testing.T) {
	ctx := context.Background()
	l := New(custodian)
	l.RegisterCollection(multi, KindERC1155, true)
	l.RegisterCollection(nft, KindERC721, false)

	_, err := l.Mint(ctx, alice, nft, "ipfs://x", false, 1)
	assert.ErrorIs(t, err, ErrNotRegistered)

	id, err := l.Mint(ctx, alice, multi, "ipfs://m", true, 50)
	require.NoError(t, err)
	exists, _ := l.Exists(ctx, multi, id)
	assert.True(t, exists)
	assert.Equal(t, "ipfs://m", l.URI(multi, id))

	require.NoError(t, l.Burn(ctx, alice, multi, id, 50))
	exists, _ = l.Exists(ctx, multi, id)
	assert.False(t, exists)
}

func TestSettle(t *testing.T) {
	ctx := context.Background()
	l := New(custodian)
	l.Deposit(alice, decimal.NewFromInt(1000))

	payouts := []model.Payout{
		{Account: bob, Amount: decimal.NewFromInt(800), Role: model.RoleSeller},
		{Account: custodian, Amount: decimal.NewFromInt(200), Role: model.RolePlatform},
	}
	require.NoError(t, l.Settle(ctx, alice, payouts))
	assert.True(t, l.Funds(alice).IsZero())
	assert.True(t, l.Funds(bob).Equal(decimal.NewFromInt(800)))

	// 余额不足时不做任何划转
	assert.ErrorIs(t, l.Settle(ctx, alice, payouts), ErrInsufficientFunds)
	assert.True(t, l.Funds(bob).Equal(decimal.NewFromInt(800)))

	require.NoError(t, l.Reverse(ctx, alice, payouts))
	assert.True(t, l.Funds(alice).Equal(decimal.NewFromInt(1000)))
	assert.True(t, l.Funds(bob).IsZero())
}

func TestSupportsInterface(t *testing.T) {
	ctx := context.Background()
	l := New(custodian)
	l.RegisterCollection(nft, KindERC721, false)

	ok, _ := l.SupportsInterface(ctx, nft, model.InterfaceERC721)
	assert.True(t, ok)
	ok, _ = l.SupportsInterface(ctx, nft, model.InterfaceERC1155)
	assert.False(t, ok)
	ok, _ = l.SupportsInterface(ctx, multi, model.InterfaceERC721)
	assert.False(t, ok)
}
