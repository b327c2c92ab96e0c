package market

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"market-core/internal/model"
	"market-core/internal/store"
	"market-core/pkg/cache"
	"market-core/pkg/errno"
)

// Lot 按 id 查询，不存在时返回零值 (status 0)
// 已成交 / 已撤单的记录不会再变化，命中缓存直接返回
func (e *Engine) Lot(ctx context.Context, lotID uint64) (model.Lot, error) {
	if _, nested := unitFrom(ctx); !nested && e.cache != nil {
		var cached model.Lot
		err := e.cache.Get(ctx, lotCacheKey(lotID), &cached)
		if err == nil && cached.Status.IsTerminal() {
			return cached, nil
		}
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			e.log.Warn("lot cache read failed", zap.Uint64("lot_id", lotID), zap.Error(err))
		}
	}

	var lot model.Lot
	err := store.Read(ctx, e.store, func(tx store.Tx) error {
		var err error
		lot, err = tx.Lot(lotID)
		return err
	})
	if err != nil {
		return model.Lot{}, err
	}
	if _, nested := unitFrom(ctx); !nested {
		e.cacheLot(ctx, lot)
	}
	return lot, nil
}

func (e *Engine) cacheLot(ctx context.Context, lot model.Lot) {
	if e.cache == nil || !lot.Status.IsTerminal() {
		return
	}
	if err := e.cache.Set(ctx, lotCacheKey(lot.ID), lot, e.cacheTTL); err != nil {
		e.log.Warn("lot cache write failed", zap.Uint64("lot_id", lot.ID), zap.Error(err))
	}
}

func (e *Engine) state(ctx context.Context) (model.MarketState, error) {
	var state model.MarketState
	err := store.Read(ctx, e.store, func(tx store.Tx) error {
		var err error
		state, err = tx.State()
		return err
	})
	return state, err
}

func (e *Engine) LastLotID(ctx context.Context) (uint64, error) {
	state, err := e.state(ctx)
	return state.LastLotID, err
}

func (e *Engine) ActiveLotCount(ctx context.Context) (uint64, error) {
	state, err := e.state(ctx)
	return state.ActiveLotCount, err
}

// MaxActiveLotsWindow GetActiveLots 单次查询的最大窗口
const MaxActiveLotsWindow = 1000

// GetActiveLots 返回恰好 count 个元素，对应 id ∈ (start, start+count]
// 超出 lastLotId 或非 Active 的位置为零值占位
func (e *Engine) GetActiveLots(ctx context.Context, start, count uint64) ([]model.Lot, error) {
	if count > MaxActiveLotsWindow {
		return nil, errno.ErrInvalidAmount.WithMessage("count too large")
	}
	end := start + count
	if end < start {
		return nil, errno.ErrInvalidAmount.WithMessage("window overflows")
	}

	out := make([]model.Lot, count)
	err := store.Read(ctx, e.store, func(tx store.Tx) error {
		lots, err := tx.LotsInRange(start, end)
		if err != nil {
			return err
		}
		for _, lot := range lots {
			if lot.Status == model.LotActive && lot.ID > start && lot.ID <= end {
				out[lot.ID-start-1] = lot
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) IsVoucherUsed(ctx context.Context, voucherID uint64) (bool, error) {
	var used bool
	err := store.Read(ctx, e.store, func(tx store.Tx) error {
		var err error
		used, err = tx.VoucherUsed(voucherID)
		return err
	})
	return used, err
}

// IsSupportedToken 合集需要实现 ERC-721 或 ERC-1155
// 未配置 inspector 时不做限制
func (e *Engine) IsSupportedToken(ctx context.Context, token common.Address) (bool, error) {
	if e.inspector == nil {
		return true, nil
	}
	return e.isSupportedToken(ctx, token)
}

func (e *Engine) isSupportedToken(ctx context.Context, token common.Address) (bool, error) {
	for _, id := range [][4]byte{model.InterfaceERC721, model.InterfaceERC1155} {
		ok, err := e.inspector.SupportsInterface(ctx, token, id)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (e *Engine) Recipient() common.Address {
	return e.fees.Recipient()
}

func (e *Engine) PlatformFeeBps() uint64 {
	return e.fees.PlatformFeeBps()
}

func (e *Engine) Owner() common.Address {
	return e.guard.Owner()
}

func (e *Engine) IsAllowedCaller(account common.Address) bool {
	return e.guard.IsAllowedCaller(account)
}

func (e *Engine) IsMinter(account common.Address) bool {
	return e.guard.IsMinter(account)
}

func (e *Engine) Paused() bool {
	return e.guard.Paused()
}
