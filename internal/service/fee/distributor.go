package fee

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"market-core/internal/model"
	"market-core/pkg/errno"
)

var bpsScale = decimal.NewFromInt(model.BpsScale)

// Share 按 bps 计算的一份分账
type Share struct {
	Account common.Address
	Bps     uint64
	Role    model.PayoutRole
}

// Split 逐份向下取整，余数 (dust) 全部归 residual 账户
// residual 的 bps 不在 shares 中体现，它拿到 total 减去其余各份之和
// 金额为 0 的份额不会出现在结果中
func Split(total decimal.Decimal, shares []Share, residual common.Address, residualRole model.PayoutRole) []model.Payout {
	payouts := make([]model.Payout, 0, len(shares)+1)
	remaining := total
	for _, s := range shares {
		if s.Bps == 0 {
			continue
		}
		amount, _ := total.Mul(decimal.NewFromInt(int64(s.Bps))).QuoRem(bpsScale, 0)
		if amount.IsZero() {
			continue
		}
		remaining = remaining.Sub(amount)
		payouts = append(payouts, model.Payout{Account: s.Account, Amount: amount, Role: s.Role})
	}
	if !remaining.IsPositive() {
		return payouts
	}
	// residual 账户已有份额时合并为一笔
	for i := range payouts {
		if payouts[i].Account == residual && payouts[i].Role == residualRole {
			payouts[i].Amount = payouts[i].Amount.Add(remaining)
			return payouts
		}
	}
	return append(payouts, model.Payout{Account: residual, Amount: remaining, Role: residualRole})
}

// ValidateSchedule voucher 分账方案校验
// 全零方案视为未提供，直接通过
func ValidateSchedule(fees *model.FeeSchedule) error {
	if fees.IsZero() {
		return nil
	}
	if fees.PlatformBps > model.BpsScale || fees.RecipientBps > model.BpsScale {
		return errno.ErrInvalidVoucherFees
	}
	if fees.RecipientBps > 0 && fees.Recipient == (common.Address{}) {
		return errno.ErrInvalidVoucherFees.WithMessage("recipient is zero address")
	}
	for _, b := range fees.Beneficiaries {
		if b.Bps > model.BpsScale {
			return errno.ErrInvalidVoucherFees
		}
		if b.Bps > 0 && b.Account == (common.Address{}) {
			return errno.ErrInvalidVoucherFees.WithMessage("beneficiary is zero address")
		}
	}
	if fees.TotalBps() != model.BpsScale {
		return errno.ErrInvalidVoucherFees
	}
	return nil
}

// Distributor 平台收款地址与费率，支持管理员修改
type Distributor struct {
	mu             sync.RWMutex
	recipient      common.Address
	platformBps    uint64
	applyRoyalties bool
}

func NewDistributor(recipient common.Address, platformBps uint64, applyRoyalties bool) (*Distributor, error) {
	if recipient == (common.Address{}) {
		return nil, errno.ErrZeroAddress.WithMessage("recipient")
	}
	if platformBps > model.BpsScale {
		return nil, errno.ErrInvalidFees
	}
	return &Distributor{
		recipient:      recipient,
		platformBps:    platformBps,
		applyRoyalties: applyRoyalties,
	}, nil
}

func (d *Distributor) Recipient() common.Address {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.recipient
}

func (d *Distributor) PlatformFeeBps() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.platformBps
}

func (d *Distributor) ApplyRoyalties() bool {
	return d.applyRoyalties
}

// SetRecipient 返回旧地址和回滚函数
func (d *Distributor) SetRecipient(recipient common.Address) (common.Address, func(), error) {
	if recipient == (common.Address{}) {
		return common.Address{}, nil, errno.ErrZeroAddress
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	prev := d.recipient
	if prev == recipient {
		return prev, nil, errno.ErrAlreadySet
	}
	d.recipient = recipient
	return prev, func() {
		d.mu.Lock()
		d.recipient = prev
		d.mu.Unlock()
	}, nil
}

func (d *Distributor) SetPlatformFeeBps(bps uint64) (uint64, func(), error) {
	if bps > model.BpsScale {
		return 0, nil, errno.ErrInvalidFees
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	prev := d.platformBps
	if prev == bps {
		return prev, nil, errno.ErrAlreadySet
	}
	d.platformBps = bps
	return prev, func() {
		d.mu.Lock()
		d.platformBps = prev
		d.mu.Unlock()
	}, nil
}

// LotSale 拍品成交分账: 平台抽成 + 版税 (可选)，其余归卖家
func (d *Distributor) LotSale(total decimal.Decimal, seller common.Address, royalties []model.Beneficiary) ([]model.Payout, error) {
	d.mu.RLock()
	recipient, platformBps := d.recipient, d.platformBps
	d.mu.RUnlock()

	shares := []Share{{Account: recipient, Bps: platformBps, Role: model.RolePlatform}}
	sum := platformBps
	if d.applyRoyalties {
		for _, r := range royalties {
			if r.Bps == 0 {
				continue
			}
			if r.Account == (common.Address{}) || r.Bps > model.BpsScale {
				return nil, errno.ErrInvalidFees.WithMessage("royalty beneficiary")
			}
			sum += r.Bps
			shares = append(shares, Share{Account: r.Account, Bps: r.Bps, Role: model.RoleRoyalty})
		}
	}
	if sum > model.BpsScale {
		return nil, errno.ErrInvalidFees
	}
	return Split(total, shares, seller, model.RoleSeller), nil
}

// Voucher lazy mint 分账: 未提供方案时全部归平台
func (d *Distributor) Voucher(total decimal.Decimal, fees *model.FeeSchedule) ([]model.Payout, error) {
	if err := ValidateSchedule(fees); err != nil {
		return nil, err
	}
	recipient := d.Recipient()
	if fees.IsZero() {
		return Split(total, nil, recipient, model.RolePlatform), nil
	}

	shares := make([]Share, 0, len(fees.Beneficiaries)+2)
	shares = append(shares,
		Share{Account: recipient, Bps: fees.PlatformBps, Role: model.RolePlatform},
		Share{Account: fees.Recipient, Bps: fees.RecipientBps, Role: model.RoleRecipient},
	)
	for _, b := range fees.Beneficiaries {
		shares = append(shares, Share{Account: b.Account, Bps: b.Bps, Role: model.RoleBeneficiary})
	}
	return Split(total, shares, recipient, model.RolePlatform), nil
}
