package fee

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-core/internal/model"
	"market-core/pkg/errno"
)

var (
	platform = common.HexToAddress("0xa000000000000000000000000000000000000001")
	seller   = common.HexToAddress("0xa000000000000000000000000000000000000002")
	artist   = common.HexToAddress("0xa000000000000000000000000000000000000003")
	curator  = common.HexToAddress("0xa000000000000000000000000000000000000004")
)

func amounts(payouts []model.Payout) map[common.Address]string {
	out := make(map[common.Address]string)
	for _, p := range payouts {
		prev := decimal.Zero
		if s, ok := out[p.Account]; ok {
			prev = decimal.RequireFromString(s)
		}
		out[p.Account] = prev.Add(p.Amount).String()
	}
	return out
}

func sum(payouts []model.Payout) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payouts {
		total = total.Add(p.Amount)
	}
	return total
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name   string
		total  int64
		shares []Share
		want   map[common.Address]string
	}{
		{
			name:   "exact",
			total:  1000,
			shares: []Share{{Account: platform, Bps: 2000}},
			want:   map[common.Address]string{platform: "200", seller: "800"},
		},
		{
			name:   "dust goes to residual",
			total:  20001,
			shares: []Share{{Account: platform, Bps: 2000}},
			want:   map[common.Address]string{platform: "4000", seller: "16001"},
		},
		{
			name:   "zero share skipped",
			total:  3,
			shares: []Share{{Account: platform, Bps: 2000}, {Account: artist, Bps: 0}},
			want:   map[common.Address]string{seller: "3"},
		},
		{
			name:   "zero total",
			total:  0,
			shares: []Share{{Account: platform, Bps: 2000}},
			want:   map[common.Address]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := decimal.NewFromInt(tt.total)
			payouts := Split(total, tt.shares, seller, model.RoleSeller)
			assert.Equal(t, tt.want, amounts(payouts))
			assert.True(t, sum(payouts).Equal(total), "分账总额必须等于支付金额")
		})
	}
}

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		name    string
		fees    *model.FeeSchedule
		wantErr bool
	}{
		{"nil", nil, false},
		{"all zero", &model.FeeSchedule{}, false},
		{"platform only", &model.FeeSchedule{PlatformBps: 10000}, false},
		{"full", &model.FeeSchedule{PlatformBps: 1000, Recipient: artist, RecipientBps: 8000,
			Beneficiaries: []model.Beneficiary{{Account: curator, Bps: 1000}}}, false},
		{"sum below", &model.FeeSchedule{PlatformBps: 1000, Recipient: artist, RecipientBps: 8000}, true},
		{"sum above", &model.FeeSchedule{PlatformBps: 3000, Recipient: artist, RecipientBps: 8000}, true},
		{"zero recipient", &model.FeeSchedule{PlatformBps: 2000, RecipientBps: 8000}, true},
		{"zero beneficiary", &model.FeeSchedule{PlatformBps: 2000,
			Beneficiaries: []model.Beneficiary{{Bps: 8000}}}, true},
		{"overflow", &model.FeeSchedule{PlatformBps: ^uint64(0), RecipientBps: 10001, Recipient: artist}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchedule(tt.fees)
			if tt.wantErr {
				assert.ErrorIs(t, err, errno.ErrInvalidVoucherFees)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLotSale(t *testing.T) {
	d, err := NewDistributor(platform, 2000, false)
	require.NoError(t, err)

	payouts, err := d.LotSale(decimal.NewFromInt(1000), seller, []model.Beneficiary{{Account: artist, Bps: 500}})
	require.NoError(t, err)
	// 未开启版税
	assert.Equal(t, map[common.Address]string{platform: "200", seller: "800"}, amounts(payouts))

	royal, err := NewDistributor(platform, 2000, true)
	require.NoError(t, err)
	payouts, err = royal.LotSale(decimal.NewFromInt(1001), seller, []model.Beneficiary{{Account: artist, Bps: 500}})
	require.NoError(t, err)
	assert.Equal(t, map[common.Address]string{platform: "200", artist: "50", seller: "751"}, amounts(payouts))

	_, err = royal.LotSale(decimal.NewFromInt(1000), seller, []model.Beneficiary{{Account: artist, Bps: 9000}})
	assert.ErrorIs(t, err, errno.ErrInvalidFees)
}

func TestVoucher(t *testing.T) {
	d, err := NewDistributor(platform, 2000, false)
	require.NoError(t, err)

	// 未提供方案: 全部归平台
	payouts, err := d.Voucher(decimal.NewFromInt(10000), nil)
	require.NoError(t, err)
	assert.Equal(t, map[common.Address]string{platform: "10000"}, amounts(payouts))

	fees := &model.FeeSchedule{
		PlatformBps:   1000,
		Recipient:     artist,
		RecipientBps:  6667,
		Beneficiaries: []model.Beneficiary{{Account: curator, Bps: 2333}},
	}
	payouts, err = d.Voucher(decimal.NewFromInt(101), fees)
	require.NoError(t, err)
	// 10 + 67 + 23 = 100，余数 1 归平台
	assert.Equal(t, map[common.Address]string{platform: "11", artist: "67", curator: "23"}, amounts(payouts))
	assert.Len(t, payouts, 3)

	_, err = d.Voucher(decimal.NewFromInt(100), &model.FeeSchedule{PlatformBps: 1})
	assert.ErrorIs(t, err, errno.ErrInvalidVoucherFees)
}

func TestDistributorSetters(t *testing.T) {
	_, err := NewDistributor(common.Address{}, 2000, false)
	assert.ErrorIs(t, err, errno.ErrZeroAddress)

	d, err := NewDistributor(platform, 2000, false)
	require.NoError(t, err)

	_, _, err = d.SetRecipient(platform)
	assert.ErrorIs(t, err, errno.ErrAlreadySet)
	_, _, err = d.SetRecipient(common.Address{})
	assert.ErrorIs(t, err, errno.ErrZeroAddress)

	prev, undo, err := d.SetRecipient(artist)
	require.NoError(t, err)
	assert.Equal(t, platform, prev)
	assert.Equal(t, artist, d.Recipient())
	undo()
	assert.Equal(t, platform, d.Recipient())

	_, _, err = d.SetPlatformFeeBps(10001)
	assert.ErrorIs(t, err, errno.ErrInvalidFees)
	old, undo, err := d.SetPlatformFeeBps(500)
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), old)
	assert.Equal(t, uint64(500), d.PlatformFeeBps())
	undo()
	assert.Equal(t, uint64(2000), d.PlatformFeeBps())
}
