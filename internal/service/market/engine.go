package market

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"market-core/internal/service/access"
	"market-core/internal/service/fee"
	"market-core/internal/store"
	"market-core/pkg/cache"
	"market-core/pkg/errno"
	"market-core/pkg/logger"
	"market-core/pkg/monitor"
)

// Options 构造交易引擎所需的依赖
// Inspector / Cache 可为空
type Options struct {
	Self       common.Address // 托管账户，即签名域中的 verifyingContract
	Store      store.Store
	Guard      *access.Guard
	Fees       *fee.Distributor
	Custody    Custody
	Minting    Minting
	Settlement Settlement
	Verifier   SignatureVerifier
	Inspector  TokenInspector
	Cache      cache.Cache
	CacheTTL   time.Duration
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Engine 拍品登记 + voucher 兑换
// 所有写操作串行执行，每个操作是一个不可分割的单元
type Engine struct {
	mu sync.Mutex

	self       common.Address
	store      store.Store
	guard      *access.Guard
	fees       *fee.Distributor
	custody    Custody
	minting    Minting
	settlement Settlement
	verifier   SignatureVerifier
	inspector  TokenInspector

	cache    cache.Cache
	cacheTTL time.Duration
	now      func() time.Time
	log      *zap.Logger
}

func New(opts Options) (*Engine, error) {
	switch {
	case opts.Self == (common.Address{}):
		return nil, errno.ErrZeroAddress.WithMessage("market address")
	case opts.Store == nil:
		return nil, errors.New("market: store is required")
	case opts.Guard == nil:
		return nil, errors.New("market: access guard is required")
	case opts.Fees == nil:
		return nil, errors.New("market: fee distributor is required")
	case opts.Custody == nil || opts.Minting == nil || opts.Settlement == nil:
		return nil, errors.New("market: custody, minting and settlement are required")
	case opts.Verifier == nil:
		return nil, errors.New("market: signature verifier is required")
	}

	e := &Engine{
		self:       opts.Self,
		store:      opts.Store,
		guard:      opts.Guard,
		fees:       opts.Fees,
		custody:    opts.Custody,
		minting:    opts.Minting,
		settlement: opts.Settlement,
		verifier:   opts.Verifier,
		inspector:  opts.Inspector,
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		now:        opts.Clock,
		log:        opts.Logger,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.log == nil {
		e.log = logger.Named("market")
	}
	if e.cacheTTL <= 0 {
		e.cacheTTL = time.Hour
	}
	return e, nil
}

// Address 托管账户地址
func (e *Engine) Address() common.Address {
	return e.self
}

// execute 运行一个写操作
// ctx 中已有进行中的操作 (协作方回调) 时以 savepoint 加入该操作，不再加锁
func (e *Engine) execute(ctx context.Context, op string, fn func(ctx context.Context, u *unit) error) error {
	parent, nested := unitFrom(ctx)
	if !nested {
		e.mu.Lock()
		defer e.mu.Unlock()
	}

	u := &unit{}
	err := store.Run(ctx, e.store, func(ctx context.Context, tx store.Tx) error {
		u.tx = tx
		return fn(withUnit(ctx, u), u)
	})
	if err != nil {
		u.compensate(context.WithoutCancel(ctx), e.log, op)
		code, _ := errno.Decode(err)
		monitor.Business.OperationFailed(op, code)
		e.log.Debug("operation rejected", zap.String("op", op), zap.Bool("nested", nested), zap.Error(err))
		return err
	}

	if nested {
		u.mergeInto(parent)
		return nil
	}
	for _, f := range u.after {
		f()
	}
	return nil
}

// adjustActive 维护 activeLotCount
func (e *Engine) adjustActive(u *unit, delta int) error {
	state, err := u.tx.State()
	if err != nil {
		return err
	}
	switch {
	case delta > 0:
		state.ActiveLotCount += uint64(delta)
	case uint64(-delta) > state.ActiveLotCount:
		return fmt.Errorf("market: active lot counter underflow (%d, %d)", state.ActiveLotCount, delta)
	default:
		state.ActiveLotCount -= uint64(-delta)
	}
	if err := u.tx.SetState(state); err != nil {
		return err
	}
	count := state.ActiveLotCount
	u.onCommit(func() { monitor.Business.SetActiveLots(count) })
	return nil
}

func lotCacheKey(id uint64) string {
	return "lot:" + strconv.FormatUint(id, 10)
}
