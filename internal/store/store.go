package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"

	"market-core/internal/model"
)

// Tx 一个事务内可见的读写操作
// 查不到的拍品返回零值 Lot，不返回错误
type Tx interface {
	Lot(id uint64) (model.Lot, error)
	LotsInRange(from, to uint64) ([]model.Lot, error) // id ∈ (from, to]，按 id 升序
	LiveLotID(token common.Address, tokenID uint64) (uint64, bool, error)
	CountLots(status model.LotStatus) (uint64, error)
	InsertLot(lot *model.Lot) error
	UpdateLot(lot *model.Lot) error

	State() (model.MarketState, error)
	SetState(state model.MarketState) error

	VoucherUsed(voucherID uint64) (bool, error)
	MarkVoucherUsed(used *model.UsedVoucher) error

	AppendOutbox(msg *model.OutboxMessage) error

	Savepoint(name string) error
	RollbackTo(name string) error
}

// Store 事务边界
// Update 中 fn 返回错误时整个事务回滚
type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}

// OutboxStore 供 RelayService 搬运消息
type OutboxStore interface {
	PendingOutbox(ctx context.Context, limit int) ([]model.OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, id uint64) error
}

var ErrLiveLotConflict = errors.New("store: live lot already exists for token")

// MaxID 可持久化的 id / tokenId 上限，对应 PostgreSQL BIGINT
// 超出的 id 不可能存在，读取时按未命中处理，写入由调用方提前拒绝
const MaxID = math.MaxInt64

type txKey struct{}

type boundTx struct {
	store Store
	tx    Tx
}

// WithTx 把正在执行的事务放进 ctx，协作方用同一个 ctx 回调时会加入该事务
func WithTx(ctx context.Context, s Store, tx Tx) context.Context {
	return context.WithValue(ctx, txKey{}, boundTx{store: s, tx: tx})
}

// TxFrom 取出属于 s 的进行中事务
func TxFrom(ctx context.Context, s Store) (Tx, bool) {
	b, ok := ctx.Value(txKey{}).(boundTx)
	if !ok || b.store != s {
		return nil, false
	}
	return b.tx, true
}

var savepointSeq atomic.Uint64

// Run 在 s 上执行 fn
// ctx 中已有事务时以 savepoint 嵌套执行，失败只回滚到 savepoint
func Run(ctx context.Context, s Store, fn func(ctx context.Context, tx Tx) error) error {
	if tx, ok := TxFrom(ctx, s); ok {
		name := fmt.Sprintf("sp_%d", savepointSeq.Add(1))
		if err := tx.Savepoint(name); err != nil {
			return err
		}
		if err := fn(ctx, tx); err != nil {
			if rbErr := tx.RollbackTo(name); rbErr != nil {
				return errors.Join(err, rbErr)
			}
			return err
		}
		return nil
	}
	return s.Update(ctx, func(tx Tx) error {
		return fn(WithTx(ctx, s, tx), tx)
	})
}

// Read 只读执行，ctx 中已有事务时复用，能看到未提交的修改
func Read(ctx context.Context, s Store, fn func(tx Tx) error) error {
	if tx, ok := TxFrom(ctx, s); ok {
		return fn(tx)
	}
	return s.View(ctx, fn)
}
