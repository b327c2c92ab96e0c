package eip712

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-core/internal/model"
	"market-core/pkg/errno"
)

var testDomain = Domain{
	Name:              "LazyMint-Voucher",
	Version:           "1",
	ChainID:           31337,
	VerifyingContract: common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
}

func newTestMinter(t *testing.T) *LazyMinter {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return NewLazyMinter(testDomain, key)
}

func sampleParams() VoucherParams {
	return VoucherParams{
		VoucherID:  42,
		Token:      common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		TokenID:    0,
		Price:      decimal.NewFromInt(1000),
		IsMultiple: true,
		Amount:     5,
		URI:        "ipfs://bafy/meta.json",
		Fees: &model.FeeSchedule{
			PlatformBps:  1000,
			Recipient:    common.HexToAddress("0x00000000000000000000000000000000000000bb"),
			RecipientBps: 8000,
			Beneficiaries: []model.Beneficiary{
				{Account: common.HexToAddress("0x00000000000000000000000000000000000000cc"), Bps: 1000},
			},
		},
	}
}

func TestSignAndRecover(t *testing.T) {
	minter := newTestMinter(t)
	v, err := minter.CreateVoucher(sampleParams())
	require.NoError(t, err)
	assert.Len(t, v.Signature, SignatureLength)
	assert.True(t, v.Signature[64] == 27 || v.Signature[64] == 28)

	verifier := NewVerifier(testDomain)
	signer, err := verifier.RecoverSigner(v)
	require.NoError(t, err)
	assert.Equal(t, minter.Address(), signer)
}

func TestRecover_WithoutFees(t *testing.T) {
	minter := newTestMinter(t)
	p := sampleParams()
	p.Fees = nil
	v, err := minter.CreateVoucher(p)
	require.NoError(t, err)

	signer, err := testDomain.Recover(v)
	require.NoError(t, err)
	assert.Equal(t, minter.Address(), signer)

	// 缺省方案与全零方案编码一致
	v.Fees = &model.FeeSchedule{}
	signer, err = testDomain.Recover(v)
	require.NoError(t, err)
	assert.Equal(t, minter.Address(), signer)
}

func TestRecover_TamperedFields(t *testing.T) {
	minter := newTestMinter(t)

	tests := []struct {
		name   string
		tamper func(v *model.Voucher)
	}{
		{"voucherId", func(v *model.Voucher) { v.VoucherID++ }},
		{"token", func(v *model.Voucher) { v.Token = common.HexToAddress("0x01") }},
		{"tokenId", func(v *model.Voucher) { v.TokenID = 7 }},
		{"price", func(v *model.Voucher) { v.Price = decimal.NewFromInt(1) }},
		{"fractional price", func(v *model.Voucher) { v.Price = v.Price.Add(decimal.RequireFromString("0.4")) }},
		{"isMultiple", func(v *model.Voucher) { v.IsMultiple = false }},
		{"amount", func(v *model.Voucher) { v.Amount = 50 }},
		{"uri", func(v *model.Voucher) { v.URI = "ipfs://other" }},
		{"platformBps", func(v *model.Voucher) { v.Fees.PlatformBps = 0; v.Fees.RecipientBps = 9000 }},
		{"recipient", func(v *model.Voucher) { v.Fees.Recipient = common.HexToAddress("0x02") }},
		{"beneficiary", func(v *model.Voucher) { v.Fees.Beneficiaries[0].Account = common.HexToAddress("0x03") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := minter.CreateVoucher(sampleParams())
			require.NoError(t, err)
			tt.tamper(v)

			signer, err := testDomain.Recover(v)
			if err == nil {
				assert.NotEqual(t, minter.Address(), signer)
			} else {
				assert.True(t, errors.Is(err, errno.ErrInvalidSignature))
			}
		})
	}
}

func TestRecover_OtherDomain(t *testing.T) {
	minter := newTestMinter(t)
	v, err := minter.CreateVoucher(sampleParams())
	require.NoError(t, err)

	other := testDomain
	other.ChainID = 1
	signer, err := other.Recover(v)
	require.NoError(t, err)
	assert.NotEqual(t, minter.Address(), signer)

	other = testDomain
	other.VerifyingContract = common.HexToAddress("0x04")
	signer, err = other.Recover(v)
	require.NoError(t, err)
	assert.NotEqual(t, minter.Address(), signer)
}

func TestRecover_MalformedSignature(t *testing.T) {
	minter := newTestMinter(t)
	v, err := minter.CreateVoucher(sampleParams())
	require.NoError(t, err)

	short := *v
	short.Signature = v.Signature[:64]
	_, err = testDomain.Recover(&short)
	assert.True(t, errors.Is(err, errno.ErrInvalidSignature))

	badV := *v
	badV.Signature = append([]byte(nil), v.Signature...)
	badV.Signature[64] = 35
	_, err = testDomain.Recover(&badV)
	assert.True(t, errors.Is(err, errno.ErrInvalidSignature))
}

func TestDigest_NonIntegerPrice(t *testing.T) {
	minter := newTestMinter(t)
	v, err := minter.CreateVoucher(sampleParams())
	require.NoError(t, err)

	// 1000.4 截断后与 1000 的摘要相同，必须直接拒绝
	v.Price = decimal.RequireFromString("1000.4")
	_, err = testDomain.Digest(v)
	require.Error(t, err)
	_, err = testDomain.Recover(v)
	assert.True(t, errors.Is(err, errno.ErrInvalidSignature))

	v.Price = decimal.NewFromInt(-1)
	_, err = testDomain.Recover(v)
	assert.True(t, errors.Is(err, errno.ErrInvalidSignature))

	p := sampleParams()
	p.Price = decimal.RequireFromString("0.5")
	_, err = minter.CreateVoucher(p)
	assert.Error(t, err, "小数价格不能签名")
}

func TestCreateVoucher_RandomID(t *testing.T) {
	minter := newTestMinter(t)
	p := sampleParams()
	p.VoucherID = 0

	v, err := minter.CreateVoucher(p)
	require.NoError(t, err)
	assert.NotZero(t, v.VoucherID)
	assert.Less(t, v.VoucherID, uint64(1)<<48)
}
