package market

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"market-core/internal/event"
	"market-core/internal/model"
	"market-core/internal/store"
	"market-core/pkg/errno"
	"market-core/pkg/monitor"
)

// CreateLotParams 上架参数
type CreateLotParams struct {
	Token      common.Address
	TokenID    uint64
	Owner      common.Address
	Price      decimal.Decimal
	IsMultiple bool
	Amount     uint64
}

// BatchCreateLotsParams 批量上架，各数组按下标一一对应
type BatchCreateLotsParams struct {
	Tokens      []common.Address
	TokenIDs    []uint64
	Owners      []common.Address
	Prices      []decimal.Decimal
	IsMultiples []bool
	Amounts     []uint64
}

func (b BatchCreateLotsParams) lots() ([]CreateLotParams, error) {
	n := len(b.Tokens)
	if len(b.TokenIDs) != n || len(b.Owners) != n || len(b.Prices) != n ||
		len(b.IsMultiples) != n || len(b.Amounts) != n {
		return nil, errno.ErrWrongArrayLength
	}
	out := make([]CreateLotParams, n)
	for i := range out {
		out[i] = CreateLotParams{
			Token:      b.Tokens[i],
			TokenID:    b.TokenIDs[i],
			Owner:      b.Owners[i],
			Price:      b.Prices[i],
			IsMultiple: b.IsMultiples[i],
			Amount:     b.Amounts[i],
		}
	}
	return out, nil
}

// validAmount 价格与支付金额必须是非负整数 (最小单位)
func validAmount(d decimal.Decimal) bool {
	return !d.IsNegative() && d.IsInteger()
}

func units(n uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0)
}

// CreateLot 上架并托管资产，返回 lotId
func (e *Engine) CreateLot(ctx context.Context, caller common.Address, p CreateLotParams) (uint64, error) {
	var lotID uint64
	err := e.execute(ctx, "create_lot", func(ctx context.Context, u *unit) error {
		var err error
		lotID, err = e.createLot(ctx, u, caller, p)
		return err
	})
	return lotID, err
}

// BatchCreateLots 按顺序上架，任何一个失败则全部回滚
func (e *Engine) BatchCreateLots(ctx context.Context, caller common.Address, b BatchCreateLotsParams) ([]uint64, error) {
	params, err := b.lots()
	if err != nil {
		return nil, err
	}

	var ids []uint64
	err = e.execute(ctx, "batch_create_lots", func(ctx context.Context, u *unit) error {
		ids = make([]uint64, 0, len(params))
		for _, p := range params {
			id, err := e.createLot(ctx, u, caller, p)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (e *Engine) createLot(ctx context.Context, u *unit, caller common.Address, p CreateLotParams) (uint64, error) {
	// 1. 权限与参数校验
	if err := e.guard.RequireAllowedCaller(caller); err != nil {
		return 0, err
	}
	if p.Owner == (common.Address{}) {
		return 0, errno.ErrZeroAddress
	}
	if p.IsMultiple && p.Amount == 0 {
		return 0, errno.ErrInvalidAmount
	}
	if p.TokenID > store.MaxID {
		return 0, errno.ErrInvalidValue.WithMessage("tokenId out of range")
	}
	if !validAmount(p.Price) {
		return 0, errno.ErrInvalidValue.WithMessage("price must be a non-negative integer")
	}
	if e.inspector != nil {
		ok, err := e.isSupportedToken(ctx, p.Token)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, errno.ErrInvalidToken
		}
	}

	// 2. 同一 (token, tokenId) 只能有一个在售/下架中的拍品
	if _, live, err := u.tx.LiveLotID(p.Token, p.TokenID); err != nil {
		return 0, err
	} else if live {
		return 0, errno.ErrLotAlreadyExists
	}

	// 3. 先写状态
	state, err := u.tx.State()
	if err != nil {
		return 0, err
	}
	lot := model.Lot{
		ID:         state.LastLotID + 1,
		Token:      p.Token,
		TokenID:    p.TokenID,
		Owner:      p.Owner,
		Price:      p.Price,
		IsMultiple: p.IsMultiple,
		Status:     model.LotActive,
	}
	qty := uint64(1)
	if p.IsMultiple {
		lot.TotalSupply, lot.RemainingSupply = p.Amount, p.Amount
		qty = p.Amount
	}
	if err := u.tx.InsertLot(&lot); err != nil {
		return 0, err
	}
	state.LastLotID = lot.ID
	if err := u.tx.SetState(state); err != nil {
		return 0, err
	}
	if err := e.adjustActive(u, 1); err != nil {
		return 0, err
	}
	if err := u.emit(event.LotEvent{
		Event:   event.KindNewLot,
		LotID:   lot.ID,
		Token:   lot.Token,
		TokenID: lot.TokenID,
		Owner:   lot.Owner,
		Amount:  qty,
		Price:   event.FormatAmount(lot.Price),
	}); err != nil {
		return 0, err
	}

	// 4. 托管资产，协作方错误原样返回
	if err := e.custody.TransferIn(ctx, p.Owner, p.Token, p.TokenID, p.IsMultiple, qty); err != nil {
		return 0, err
	}
	u.undo("return escrow", func(ctx context.Context) error {
		return e.custody.TransferOut(ctx, p.Owner, p.Token, p.TokenID, p.IsMultiple, qty)
	})

	u.onCommit(func() {
		monitor.Business.LotCreated()
		e.log.Info("lot created",
			zap.Uint64("lot_id", lot.ID),
			zap.String("token", lot.Token.Hex()),
			zap.Uint64("token_id", lot.TokenID),
			zap.Uint64("amount", qty))
	})
	return lot.ID, nil
}

// BuyLot 购买拍品，payment 全额分账，不找零
func (e *Engine) BuyLot(ctx context.Context, buyer common.Address, lotID, amount uint64, payment decimal.Decimal) error {
	return e.execute(ctx, "buy_lot", func(ctx context.Context, u *unit) error {
		return e.buyLot(ctx, u, buyer, lotID, amount, payment)
	})
}

func (e *Engine) buyLot(ctx context.Context, u *unit, buyer common.Address, lotID, amount uint64, payment decimal.Decimal) error {
	if buyer == (common.Address{}) {
		return errno.ErrZeroAddress
	}
	lot, err := u.tx.Lot(lotID)
	if err != nil {
		return err
	}
	if lot.Status != model.LotActive {
		return errno.InvalidLotStatus(uint8(lot.Status))
	}

	// 1. 数量与金额校验 (单品的剩余数量视为 1)
	effective, remaining := uint64(1), uint64(1)
	if lot.IsMultiple {
		effective, remaining = amount, lot.RemainingSupply
	}
	if effective == 0 || effective > remaining {
		return errno.ErrInvalidAmount
	}
	if !validAmount(payment) {
		return errno.ErrInvalidValue
	}
	required := lot.Price.Mul(units(effective))
	if payment.LessThan(required) {
		return errno.ErrInvalidValue
	}

	// 2. 更新状态
	soldOut := !lot.IsMultiple
	if lot.IsMultiple {
		lot.RemainingSupply -= effective
		soldOut = lot.RemainingSupply == 0
	}
	if soldOut {
		lot.Status = model.LotSold
		if err := e.adjustActive(u, -1); err != nil {
			return err
		}
	}
	if err := u.tx.UpdateLot(&lot); err != nil {
		return err
	}

	// 3. 计算分账
	var royalties []model.Beneficiary
	if e.fees.ApplyRoyalties() {
		if royalties, err = e.custody.RoyaltyBeneficiaries(ctx, lot.Token, lot.TokenID); err != nil {
			return err
		}
	}
	payouts, err := e.fees.LotSale(payment, lot.Owner, royalties)
	if err != nil {
		return err
	}
	if err := u.emit(event.SellLotEvent{
		Event:   event.KindSellLot,
		LotID:   lot.ID,
		Buyer:   buyer,
		Amount:  effective,
		Payment: event.FormatAmount(payment),
		Payouts: payouts,
	}); err != nil {
		return err
	}

	// 4. 交付资产
	if err := e.custody.TransferOut(ctx, buyer, lot.Token, lot.TokenID, lot.IsMultiple, effective); err != nil {
		return err
	}
	u.undo("reclaim sold asset", func(ctx context.Context) error {
		return e.custody.TransferIn(ctx, buyer, lot.Token, lot.TokenID, lot.IsMultiple, effective)
	})

	// 5. 资金结算
	if err := e.settle(ctx, u, buyer, payouts); err != nil {
		return err
	}

	u.onCommit(func() {
		if soldOut {
			monitor.Business.LotSold()
			e.cacheLot(context.Background(), lot)
		}
		e.log.Info("lot sold",
			zap.Uint64("lot_id", lot.ID),
			zap.String("buyer", buyer.Hex()),
			zap.Uint64("amount", effective),
			zap.String("payment", payment.String()),
			zap.Bool("sold_out", soldOut))
	})
	return nil
}

func (e *Engine) settle(ctx context.Context, u *unit, payer common.Address, payouts []model.Payout) error {
	if err := e.settlement.Settle(ctx, payer, payouts); err != nil {
		return err
	}
	if r, ok := e.settlement.(SettlementReverser); ok {
		u.undo("reverse settlement", func(ctx context.Context) error {
			return r.Reverse(ctx, payer, payouts)
		})
	}
	u.onCommit(func() {
		for _, p := range payouts {
			monitor.Business.Payout(string(p.Role), p.Amount)
		}
	})
	return nil
}

// CancelLot 撤单，to 为空时退回给拍品 owner
func (e *Engine) CancelLot(ctx context.Context, caller common.Address, lotID uint64, to *common.Address) error {
	return e.execute(ctx, "cancel_lot", func(ctx context.Context, u *unit) error {
		return e.cancelLot(ctx, u, caller, lotID, to)
	})
}

// BatchCancelLots tos 与 lotIDs 等长，元素为 nil 表示退回给 owner
func (e *Engine) BatchCancelLots(ctx context.Context, caller common.Address, lotIDs []uint64, tos []*common.Address) error {
	if len(lotIDs) != len(tos) {
		return errno.ErrWrongArrayLength
	}
	return e.execute(ctx, "batch_cancel_lots", func(ctx context.Context, u *unit) error {
		for i, id := range lotIDs {
			if err := e.cancelLot(ctx, u, caller, id, tos[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *Engine) cancelLot(ctx context.Context, u *unit, caller common.Address, lotID uint64, to *common.Address) error {
	if err := e.guard.RequireOwner(caller); err != nil {
		return err
	}
	if to != nil && *to == (common.Address{}) {
		return errno.ErrZeroAddress
	}

	lot, err := u.tx.Lot(lotID)
	if err != nil {
		return err
	}
	if !lot.Exists() || !lot.Status.IsLive() {
		return errno.InvalidLotStatus(uint8(lot.Status))
	}

	recipient := lot.Owner
	if to != nil {
		recipient = *to
	}
	qty := lot.Escrowed()
	wasActive := lot.Status == model.LotActive

	lot.Status = model.LotCanceled
	if err := u.tx.UpdateLot(&lot); err != nil {
		return err
	}
	if wasActive {
		if err := e.adjustActive(u, -1); err != nil {
			return err
		}
	}
	if err := u.emit(event.CancelLotEvent{
		Event:  event.KindCancelLot,
		LotID:  lot.ID,
		To:     recipient,
		Amount: qty,
	}); err != nil {
		return err
	}

	if qty > 0 {
		if err := e.custody.TransferOut(ctx, recipient, lot.Token, lot.TokenID, lot.IsMultiple, qty); err != nil {
			return err
		}
		u.undo("re-escrow canceled lot", func(ctx context.Context) error {
			return e.custody.TransferIn(ctx, recipient, lot.Token, lot.TokenID, lot.IsMultiple, qty)
		})
	}

	u.onCommit(func() {
		monitor.Business.LotCanceled()
		e.cacheLot(context.Background(), lot)
		e.log.Info("lot canceled",
			zap.Uint64("lot_id", lot.ID),
			zap.String("to", recipient.Hex()),
			zap.Uint64("amount", qty))
	})
	return nil
}

// ActivateLot Inactive -> Active
func (e *Engine) ActivateLot(ctx context.Context, caller common.Address, lotID uint64) error {
	return e.BatchActivateLots(ctx, caller, []uint64{lotID})
}

func (e *Engine) BatchActivateLots(ctx context.Context, caller common.Address, lotIDs []uint64) error {
	return e.execute(ctx, "activate_lots", func(ctx context.Context, u *unit) error {
		for _, id := range lotIDs {
			if err := e.setActive(u, caller, id, true); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeactivateLot Active -> Inactive，记录下架时间
func (e *Engine) DeactivateLot(ctx context.Context, caller common.Address, lotID uint64) error {
	return e.BatchDeactivateLots(ctx, caller, []uint64{lotID})
}

func (e *Engine) BatchDeactivateLots(ctx context.Context, caller common.Address, lotIDs []uint64) error {
	return e.execute(ctx, "deactivate_lots", func(ctx context.Context, u *unit) error {
		for _, id := range lotIDs {
			if err := e.setActive(u, caller, id, false); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *Engine) setActive(u *unit, caller common.Address, lotID uint64, active bool) error {
	if err := e.guard.RequireOwner(caller); err != nil {
		return err
	}
	lot, err := u.tx.Lot(lotID)
	if err != nil {
		return err
	}

	from, to, kind, delta := model.LotActive, model.LotInactive, event.KindDeactivateLot, -1
	if active {
		from, to, kind, delta = model.LotInactive, model.LotActive, event.KindActivateLot, 1
	}
	// 不存在的拍品状态为 0 (Inactive)，需要单独拦截
	if !lot.Exists() || lot.Status != from {
		return errno.InvalidLotStatus(uint8(lot.Status))
	}

	lot.Status = to
	if !active {
		lot.LotStart = e.now().Unix()
	}
	if err := u.tx.UpdateLot(&lot); err != nil {
		return err
	}
	if err := e.adjustActive(u, delta); err != nil {
		return err
	}
	if err := u.emit(event.LotEvent{
		Event:   kind,
		LotID:   lot.ID,
		Token:   lot.Token,
		TokenID: lot.TokenID,
		Owner:   lot.Owner,
	}); err != nil {
		return err
	}

	u.onCommit(func() {
		e.log.Info("lot status changed", zap.Uint64("lot_id", lot.ID), zap.String("status", to.String()))
	})
	return nil
}
