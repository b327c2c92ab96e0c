package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

// BpsScale 10000 = 100%
const BpsScale = 10000

// Beneficiary 分账对象
type Beneficiary struct {
	Account common.Address `json:"account"`
	Bps     uint64         `json:"bps"`
}

// FeeSchedule voucher 内嵌的分账方案
// 全部字段为零值时等同于未提供
type FeeSchedule struct {
	PlatformBps   uint64         `json:"platform_bps"`
	Recipient     common.Address `json:"recipient"`
	RecipientBps  uint64         `json:"recipient_bps"`
	Beneficiaries []Beneficiary  `json:"beneficiaries,omitempty"`
}

func (f *FeeSchedule) IsZero() bool {
	if f == nil {
		return true
	}
	return f.PlatformBps == 0 && f.RecipientBps == 0 && f.Recipient == (common.Address{}) && len(f.Beneficiaries) == 0
}

// TotalBps 所有 bps 之和
func (f *FeeSchedule) TotalBps() uint64 {
	if f == nil {
		return 0
	}
	total := f.PlatformBps + f.RecipientBps
	for _, b := range f.Beneficiaries {
		total += b.Bps
	}
	return total
}

// Voucher 链下签名的 lazy mint 授权
type Voucher struct {
	VoucherID  uint64          `json:"voucher_id"`
	Token      common.Address  `json:"token"`
	TokenID    uint64          `json:"token_id"` // 0 表示尚未铸造的新 token
	Price      decimal.Decimal `json:"price"`    // 单价
	IsMultiple bool            `json:"is_multiple"`
	Amount     uint64          `json:"amount"`
	URI        string          `json:"uri"`
	Fees       *FeeSchedule    `json:"fees,omitempty"`
	Signature  hexutil.Bytes   `json:"signature"`
}

// EffectiveAmount 单品固定为 1
func (v *Voucher) EffectiveAmount() uint64 {
	if v.IsMultiple {
		return v.Amount
	}
	return 1
}

// UsedVoucher 已使用的 voucherId (只增不删)
type UsedVoucher struct {
	VoucherID uint64         `gorm:"primaryKey;autoIncrement:false" json:"voucher_id"`
	Token     common.Address `gorm:"type:bytea;not null" json:"token"`
	TokenID   uint64         `gorm:"not null" json:"token_id"`
	Recipient common.Address `gorm:"type:bytea;not null" json:"recipient"`
	CreatedAt time.Time      `json:"created_at"`
}

func (UsedVoucher) TableName() string {
	return "used_vouchers"
}
