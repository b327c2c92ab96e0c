package store

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"market-core/internal/model"
)

const stateRowID = 1

// GormStore PostgreSQL 存储
// 每个写事务先对 market_state 行加 FOR UPDATE 锁，多实例之间也是串行的
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		// 1. 锁住计数器行 (不存在则创建)
		var state model.MarketState
		if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			FirstOrCreate(&state, model.MarketState{ID: stateRowID}).Error; err != nil {
			return err
		}
		// 2. 执行业务逻辑，返回错误则整个事务回滚
		return fn(&gormTx{db: db, writable: true})
	})
}

func (s *GormStore) View(ctx context.Context, fn func(tx Tx) error) error {
	return fn(&gormTx{db: s.db.WithContext(ctx)})
}

func (s *GormStore) PendingOutbox(ctx context.Context, limit int) ([]model.OutboxMessage, error) {
	var messages []model.OutboxMessage
	if limit <= 0 {
		limit = -1 // 不限制
	}
	err := s.db.WithContext(ctx).
		Where("status = ?", model.OutboxPending).
		Order("id").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (s *GormStore) MarkOutboxSent(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Model(&model.OutboxMessage{}).
		Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}

type gormTx struct {
	db       *gorm.DB
	writable bool
}

func (t *gormTx) write() (*gorm.DB, error) {
	if !t.writable {
		return nil, errors.New("store: write in read-only transaction")
	}
	return t.db, nil
}

func (t *gormTx) Lot(id uint64) (model.Lot, error) {
	var lot model.Lot
	if id > MaxID {
		return lot, nil
	}
	err := t.db.Where("id = ?", id).Take(&lot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Lot{}, nil
	}
	return lot, err
}

func (t *gormTx) LotsInRange(from, to uint64) ([]model.Lot, error) {
	var lots []model.Lot
	if to > MaxID {
		to = MaxID
	}
	if to <= from {
		return lots, nil
	}
	err := t.db.Where("id > ? AND id <= ?", from, to).Order("id").Find(&lots).Error
	return lots, err
}

func (t *gormTx) LiveLotID(token common.Address, tokenID uint64) (uint64, bool, error) {
	var lot model.Lot
	if tokenID > MaxID {
		return 0, false, nil
	}
	err := t.db.Select("id").
		Where("token = ? AND token_id = ? AND status IN ?", token, tokenID,
			[]model.LotStatus{model.LotInactive, model.LotActive}).
		Take(&lot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return lot.ID, true, nil
}

func (t *gormTx) CountLots(status model.LotStatus) (uint64, error) {
	var n int64
	err := t.db.Model(&model.Lot{}).Where("status = ?", status).Count(&n).Error
	return uint64(n), err
}

func (t *gormTx) InsertLot(lot *model.Lot) error {
	db, err := t.write()
	if err != nil {
		return err
	}
	if err := db.Create(lot).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrLiveLotConflict
		}
		return err
	}
	return nil
}

func (t *gormTx) UpdateLot(lot *model.Lot) error {
	db, err := t.write()
	if err != nil {
		return err
	}
	return db.Save(lot).Error
}

func (t *gormTx) State() (model.MarketState, error) {
	var state model.MarketState
	err := t.db.Where("id = ?", stateRowID).Take(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.MarketState{ID: stateRowID}, nil
	}
	return state, err
}

func (t *gormTx) SetState(state model.MarketState) error {
	db, err := t.write()
	if err != nil {
		return err
	}
	state.ID = stateRowID
	return db.Save(&state).Error
}

func (t *gormTx) VoucherUsed(voucherID uint64) (bool, error) {
	if voucherID > MaxID {
		return false, nil
	}
	var n int64
	err := t.db.Model(&model.UsedVoucher{}).Where("voucher_id = ?", voucherID).Count(&n).Error
	return n > 0, err
}

func (t *gormTx) MarkVoucherUsed(used *model.UsedVoucher) error {
	db, err := t.write()
	if err != nil {
		return err
	}
	return db.Create(used).Error
}

func (t *gormTx) AppendOutbox(msg *model.OutboxMessage) error {
	db, err := t.write()
	if err != nil {
		return err
	}
	return db.Create(msg).Error
}

func (t *gormTx) Savepoint(name string) error {
	db, err := t.write()
	if err != nil {
		return err
	}
	return db.SavePoint(name).Error
}

func (t *gormTx) RollbackTo(name string) error {
	db, err := t.write()
	if err != nil {
		return err
	}
	return db.RollbackTo(name).Error
}
