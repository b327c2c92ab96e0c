package market

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"market-core/internal/event"
	"market-core/internal/model"
	"market-core/internal/service/fee"
	"market-core/internal/store"
	"market-core/pkg/errno"
	"market-core/pkg/monitor"
)

// BuyWithMint 兑换 voucher: 资产不存在时铸造给 to，已存在的多份资产从托管池转出
// payer 支付 payment，按 voucher 的分账方案全额分配；返回实际交付的 tokenId
func (e *Engine) BuyWithMint(ctx context.Context, payer, to common.Address, v *model.Voucher, payment decimal.Decimal) (uint64, error) {
	var tokenID uint64
	err := e.execute(ctx, "buy_with_mint", func(ctx context.Context, u *unit) error {
		var err error
		tokenID, err = e.buyWithMint(ctx, u, payer, to, v, payment)
		return err
	})
	return tokenID, err
}

func (e *Engine) buyWithMint(ctx context.Context, u *unit, payer, to common.Address, v *model.Voucher, payment decimal.Decimal) (uint64, error) {
	// 1. 暂停检查
	if err := e.guard.RequireNotPaused(); err != nil {
		return 0, err
	}

	// 2. 签名者必须是当前的 minter
	signer, err := e.verifier.RecoverSigner(v)
	if err != nil {
		if errors.Is(err, errno.ErrInvalidSignature) {
			return 0, err
		}
		return 0, errno.ErrInvalidSignature.WithMessage(err.Error())
	}
	if !e.guard.IsMinter(signer) {
		return 0, errno.ErrInvalidSignature
	}
	if v.VoucherID > store.MaxID || v.TokenID > store.MaxID {
		return 0, errno.ErrInvalidValue.WithMessage("voucherId or tokenId out of range")
	}

	// 3. 防重放: 在任何外部调用之前标记为已使用
	used, err := u.tx.VoucherUsed(v.VoucherID)
	if err != nil {
		return 0, err
	}
	if used {
		return 0, errno.ErrVoucherAlreadyUsed
	}
	if err := u.tx.MarkVoucherUsed(&model.UsedVoucher{
		VoucherID: v.VoucherID,
		Token:     v.Token,
		TokenID:   v.TokenID,
		Recipient: to,
	}); err != nil {
		return 0, err
	}

	// 4. 参数校验
	if to == (common.Address{}) || payer == (common.Address{}) {
		return 0, errno.ErrZeroAddress
	}
	if v.Amount == 0 {
		return 0, errno.ErrInvalidAmount
	}
	if err := fee.ValidateSchedule(v.Fees); err != nil {
		return 0, err
	}
	effective := v.EffectiveAmount()
	if !validAmount(payment) || !validAmount(v.Price) || payment.LessThan(v.Price.Mul(units(effective))) {
		return 0, errno.ErrInvalidValue
	}

	// 5. 交付: 铸造或从托管池转出
	tokenID, path, err := e.fulfill(ctx, u, to, v, effective)
	if err != nil {
		return 0, err
	}

	// 6. 分账
	payouts, err := e.fees.Voucher(payment, v.Fees)
	if err != nil {
		return 0, err
	}
	if err := e.settle(ctx, u, payer, payouts); err != nil {
		return 0, err
	}

	if err := u.emit(event.VoucherUsedEvent{
		Event:     event.KindVoucherUsed,
		Token:     v.Token,
		TokenID:   tokenID,
		VoucherID: v.VoucherID,
		Recipient: to,
		Amount:    effective,
		Payment:   event.FormatAmount(payment),
		Payouts:   payouts,
	}); err != nil {
		return 0, err
	}

	u.onCommit(func() {
		monitor.Business.VoucherRedeemed(path)
		e.log.Info("voucher redeemed",
			zap.Uint64("voucher_id", v.VoucherID),
			zap.String("signer", signer.Hex()),
			zap.String("token", v.Token.Hex()),
			zap.Uint64("token_id", tokenID),
			zap.String("to", to.Hex()),
			zap.String("path", path))
	})
	return tokenID, nil
}

func (e *Engine) fulfill(ctx context.Context, u *unit, to common.Address, v *model.Voucher, effective uint64) (uint64, string, error) {
	exists := false
	if v.TokenID != 0 {
		var err error
		if exists, err = e.minting.Exists(ctx, v.Token, v.TokenID); err != nil {
			return 0, "", err
		}
	}

	if !exists {
		tokenID, err := e.minting.Mint(ctx, to, v.Token, v.URI, v.IsMultiple, effective)
		if err != nil {
			return 0, "", err
		}
		if b, ok := e.minting.(Burner); ok {
			u.undo("burn minted asset", func(ctx context.Context) error {
				return b.Burn(ctx, to, v.Token, tokenID, effective)
			})
		}
		return tokenID, "mint", nil
	}

	if !v.IsMultiple {
		return 0, "", errno.ErrAssetAlreadyMinted
	}

	// 托管池中属于在售拍品的部分不能动用
	available, err := e.freeBalance(ctx, u, v.Token, v.TokenID)
	if err != nil {
		return 0, "", err
	}
	if v.Amount > available {
		return 0, "", errno.ErrInvalidAmount.WithMessage("pool balance would dip into lot escrow")
	}
	if err := e.custody.TransferOut(ctx, to, v.Token, v.TokenID, true, v.Amount); err != nil {
		return 0, "", err
	}
	u.undo("return pooled asset", func(ctx context.Context) error {
		return e.custody.TransferIn(ctx, to, v.Token, v.TokenID, true, v.Amount)
	})
	return v.TokenID, "transfer", nil
}

// freeBalance 托管账户余额减去在售拍品占用的数量
func (e *Engine) freeBalance(ctx context.Context, u *unit, token common.Address, tokenID uint64) (uint64, error) {
	balance, err := e.custody.BalanceOf(ctx, e.self, token, tokenID)
	if err != nil {
		return 0, err
	}
	id, live, err := u.tx.LiveLotID(token, tokenID)
	if err != nil || !live {
		return balance, err
	}
	lot, err := u.tx.Lot(id)
	if err != nil {
		return 0, err
	}
	escrowed := lot.Escrowed()
	if escrowed >= balance {
		return 0, nil
	}
	return balance - escrowed, nil
}
