package eip712

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	"market-core/internal/model"
	"market-core/pkg/safe_random"
)

// LazyMinter 持有 minter 私钥，负责离线签发 voucher
type LazyMinter struct {
	domain Domain
	key    *ecdsa.PrivateKey
}

func NewLazyMinter(domain Domain, key *ecdsa.PrivateKey) *LazyMinter {
	return &LazyMinter{domain: domain, key: key}
}

// Address minter 地址 (需要在交易引擎中登记为 minter)
func (m *LazyMinter) Address() common.Address {
	return crypto.PubkeyToAddress(m.key.PublicKey)
}

// VoucherParams 签发参数，VoucherID 为 0 时随机生成
type VoucherParams struct {
	VoucherID  uint64
	Token      common.Address
	TokenID    uint64
	Price      decimal.Decimal
	IsMultiple bool
	Amount     uint64
	URI        string
	Fees       *model.FeeSchedule
}

// CreateVoucher 生成并签名 voucher
func (m *LazyMinter) CreateVoucher(p VoucherParams) (*model.Voucher, error) {
	id := p.VoucherID
	if id == 0 {
		var err error
		if id, err = safe_random.GenerateVoucherID(); err != nil {
			return nil, fmt.Errorf("生成 voucherId 失败: %w", err)
		}
	}

	v := &model.Voucher{
		VoucherID:  id,
		Token:      p.Token,
		TokenID:    p.TokenID,
		Price:      p.Price,
		IsMultiple: p.IsMultiple,
		Amount:     p.Amount,
		URI:        p.URI,
		Fees:       p.Fees,
	}

	sig, err := m.domain.Sign(v, m.key)
	if err != nil {
		return nil, fmt.Errorf("签名 voucher 失败: %w", err)
	}
	v.Signature = sig
	return v, nil
}
