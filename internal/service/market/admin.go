package market

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"market-core/internal/event"
	"market-core/internal/service/access"
	"market-core/pkg/errno"
)

// adminChange 执行一次角色/参数变更，事务失败时调用 undo 回滚内存状态
func (e *Engine) adminChange(ctx context.Context, op string, caller common.Address, change func() (access.Undo, event.AdminEvent, error)) error {
	return e.execute(ctx, op, func(ctx context.Context, u *unit) error {
		if err := e.guard.RequireOwner(caller); err != nil {
			return err
		}
		undo, ev, err := change()
		if err != nil {
			return err
		}
		u.undo(op, func(context.Context) error {
			undo()
			return nil
		})
		if err := u.emit(ev); err != nil {
			return err
		}
		u.onCommit(func() {
			e.log.Info("admin change",
				zap.String("event", string(ev.Event)),
				zap.String("account", ev.Account.Hex()),
				zap.Uint64("value", ev.Value))
		})
		return nil
	})
}

func (e *Engine) UpdateRecipient(ctx context.Context, caller, recipient common.Address) error {
	return e.adminChange(ctx, "update_recipient", caller, func() (access.Undo, event.AdminEvent, error) {
		prev, undo, err := e.fees.SetRecipient(recipient)
		return undo, event.AdminEvent{Event: event.KindRecipientUpdated, Account: recipient, Previous: prev}, err
	})
}

func (e *Engine) UpdatePlatformFee(ctx context.Context, caller common.Address, bps uint64) error {
	return e.adminChange(ctx, "update_platform_fee", caller, func() (access.Undo, event.AdminEvent, error) {
		_, undo, err := e.fees.SetPlatformFeeBps(bps)
		return undo, event.AdminEvent{Event: event.KindPlatformFeeUpdated, Value: bps}, err
	})
}

func (e *Engine) AddAllowedCaller(ctx context.Context, caller, account common.Address) error {
	return e.adminChange(ctx, "add_allowed_caller", caller, func() (access.Undo, event.AdminEvent, error) {
		undo, err := e.guard.AddAllowedCaller(account)
		return undo, event.AdminEvent{Event: event.KindAllowedCallerAdded, Account: account}, err
	})
}

func (e *Engine) RemoveAllowedCaller(ctx context.Context, caller, account common.Address) error {
	return e.adminChange(ctx, "remove_allowed_caller", caller, func() (access.Undo, event.AdminEvent, error) {
		undo, err := e.guard.RemoveAllowedCaller(account)
		return undo, event.AdminEvent{Event: event.KindAllowedCallerRemoved, Account: account}, err
	})
}

func (e *Engine) AddMinter(ctx context.Context, caller, account common.Address) error {
	return e.adminChange(ctx, "add_minter", caller, func() (access.Undo, event.AdminEvent, error) {
		undo, err := e.guard.AddMinter(account)
		return undo, event.AdminEvent{Event: event.KindMinterAdded, Account: account}, err
	})
}

func (e *Engine) RemoveMinter(ctx context.Context, caller, account common.Address) error {
	return e.adminChange(ctx, "remove_minter", caller, func() (access.Undo, event.AdminEvent, error) {
		undo, err := e.guard.RemoveMinter(account)
		return undo, event.AdminEvent{Event: event.KindMinterRemoved, Account: account}, err
	})
}

func (e *Engine) TransferOwnership(ctx context.Context, caller, newOwner common.Address) error {
	return e.adminChange(ctx, "transfer_ownership", caller, func() (access.Undo, event.AdminEvent, error) {
		prev, undo, err := e.guard.TransferOwnership(newOwner)
		return undo, event.AdminEvent{Event: event.KindOwnershipTransferred, Account: newOwner, Previous: prev}, err
	})
}

func (e *Engine) Pause(ctx context.Context, caller common.Address) error {
	return e.adminChange(ctx, "pause", caller, func() (access.Undo, event.AdminEvent, error) {
		undo, err := e.guard.SetPaused(true)
		return undo, event.AdminEvent{Event: event.KindPaused, Account: caller}, err
	})
}

func (e *Engine) Unpause(ctx context.Context, caller common.Address) error {
	return e.adminChange(ctx, "unpause", caller, func() (access.Undo, event.AdminEvent, error) {
		undo, err := e.guard.SetPaused(false)
		return undo, event.AdminEvent{Event: event.KindUnpaused, Account: caller}, err
	})
}

// RescueParams 取回不属于任何在售拍品的资产
type RescueParams struct {
	To         common.Address
	Token      common.Address
	TokenID    uint64
	IsMultiple bool
	Amount     uint64
}

// Rescue 只能动用托管余额中未被在售拍品占用的部分
func (e *Engine) Rescue(ctx context.Context, caller common.Address, p RescueParams) error {
	return e.execute(ctx, "rescue", func(ctx context.Context, u *unit) error {
		if err := e.guard.RequireOwner(caller); err != nil {
			return err
		}
		if p.To == (common.Address{}) {
			return errno.ErrZeroAddress
		}
		qty := uint64(1)
		if p.IsMultiple {
			if p.Amount == 0 {
				return errno.ErrInvalidAmount
			}
			qty = p.Amount
		}

		available, err := e.freeBalance(ctx, u, p.Token, p.TokenID)
		if err != nil {
			return err
		}
		if qty > available {
			return errno.ErrInvalidAmount.WithMessage("amount would dip into lot escrow")
		}

		if err := u.emit(event.RescueTokenEvent{
			Event:      event.KindRescueToken,
			To:         p.To,
			Token:      p.Token,
			TokenID:    p.TokenID,
			IsMultiple: p.IsMultiple,
			Amount:     qty,
		}); err != nil {
			return err
		}
		if err := e.custody.TransferOut(ctx, p.To, p.Token, p.TokenID, p.IsMultiple, qty); err != nil {
			return err
		}
		u.undo("return rescued asset", func(ctx context.Context) error {
			return e.custody.TransferIn(ctx, p.To, p.Token, p.TokenID, p.IsMultiple, qty)
		})

		u.onCommit(func() {
			e.log.Info("token rescued",
				zap.String("to", p.To.Hex()),
				zap.String("token", p.Token.Hex()),
				zap.Uint64("token_id", p.TokenID),
				zap.Uint64("amount", qty))
		})
		return nil
	})
}
