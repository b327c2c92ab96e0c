package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"market-core/internal/model"
)

type liveKey struct {
	token   common.Address
	tokenID uint64
}

// MemoryStore 进程内存储，用于测试和演示服务
// 写事务直接修改数据并记录 undo 日志，失败时逆序回放
type MemoryStore struct {
	mu     sync.RWMutex
	lots   map[uint64]model.Lot
	live   map[liveKey]uint64
	used   map[uint64]model.UsedVoucher
	outbox []model.OutboxMessage
	state  model.MarketState
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lots:  make(map[uint64]model.Lot),
		live:  make(map[liveKey]uint64),
		used:  make(map[uint64]model.UsedVoucher),
		state: model.MarketState{ID: 1},
		now:   time.Now,
	}
}

func (s *MemoryStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{s: s, writable: true, savepoints: make(map[string]int)}
	if err := fn(tx); err != nil {
		tx.rollback(0)
		return err
	}
	return nil
}

func (s *MemoryStore) View(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memTx{s: s})
}

func (s *MemoryStore) PendingOutbox(_ context.Context, limit int) ([]model.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var msgs []model.OutboxMessage
	for _, m := range s.outbox {
		if m.Status != model.OutboxPending {
			continue
		}
		msgs = append(msgs, m)
		if limit > 0 && len(msgs) >= limit {
			break
		}
	}
	return msgs, nil
}

func (s *MemoryStore) MarkOutboxSent(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// outbox id 从 1 开始连续分配
	if id == 0 || id > uint64(len(s.outbox)) {
		return fmt.Errorf("outbox message %d not found", id)
	}
	s.outbox[id-1].Status = model.OutboxSent
	s.outbox[id-1].UpdatedAt = s.now()
	return nil
}

type memTx struct {
	s          *MemoryStore
	writable   bool
	undo       []func()
	savepoints map[string]int
}

func (t *memTx) mustWrite() error {
	if !t.writable {
		return fmt.Errorf("store: write in read-only transaction")
	}
	return nil
}

func (t *memTx) rollback(to int) {
	for i := len(t.undo) - 1; i >= to; i-- {
		t.undo[i]()
	}
	t.undo = t.undo[:to]
}

func (t *memTx) Lot(id uint64) (model.Lot, error) {
	return t.s.lots[id], nil
}

func (t *memTx) LotsInRange(from, to uint64) ([]model.Lot, error) {
	var lots []model.Lot
	if to <= from {
		return lots, nil
	}
	// 区间较大时遍历 map 比逐个 id 查找更快
	if to-from > uint64(len(t.s.lots)) {
		for id, l := range t.s.lots {
			if id > from && id <= to {
				lots = append(lots, l)
			}
		}
		sort.Slice(lots, func(i, j int) bool { return lots[i].ID < lots[j].ID })
		return lots, nil
	}
	for id := from + 1; id <= to; id++ {
		if l, ok := t.s.lots[id]; ok {
			lots = append(lots, l)
		}
	}
	return lots, nil
}

func (t *memTx) LiveLotID(token common.Address, tokenID uint64) (uint64, bool, error) {
	id, ok := t.s.live[liveKey{token, tokenID}]
	return id, ok, nil
}

func (t *memTx) CountLots(status model.LotStatus) (uint64, error) {
	var n uint64
	for _, l := range t.s.lots {
		if l.Status == status {
			n++
		}
	}
	return n, nil
}

func (t *memTx) InsertLot(lot *model.Lot) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	if _, ok := t.s.lots[lot.ID]; ok {
		return fmt.Errorf("store: lot %d already exists", lot.ID)
	}
	key := liveKey{lot.Token, lot.TokenID}
	if lot.Status.IsLive() {
		if _, ok := t.s.live[key]; ok {
			return ErrLiveLotConflict
		}
	}

	now := t.s.now()
	lot.CreatedAt, lot.UpdatedAt = now, now
	t.s.lots[lot.ID] = *lot
	if lot.Status.IsLive() {
		t.s.live[key] = lot.ID
	}
	id, live := lot.ID, lot.Status.IsLive()
	t.undo = append(t.undo, func() {
		delete(t.s.lots, id)
		if live {
			delete(t.s.live, key)
		}
	})
	return nil
}

func (t *memTx) UpdateLot(lot *model.Lot) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	prev, ok := t.s.lots[lot.ID]
	if !ok {
		return fmt.Errorf("store: lot %d not found", lot.ID)
	}
	key := liveKey{lot.Token, lot.TokenID}

	lot.UpdatedAt = t.s.now()
	t.s.lots[lot.ID] = *lot
	if prev.Status.IsLive() && !lot.Status.IsLive() {
		delete(t.s.live, key)
	}
	t.undo = append(t.undo, func() {
		t.s.lots[prev.ID] = prev
		if prev.Status.IsLive() {
			t.s.live[key] = prev.ID
		}
	})
	return nil
}

func (t *memTx) State() (model.MarketState, error) {
	return t.s.state, nil
}

func (t *memTx) SetState(state model.MarketState) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	prev := t.s.state
	state.ID = prev.ID
	t.s.state = state
	t.undo = append(t.undo, func() { t.s.state = prev })
	return nil
}

func (t *memTx) VoucherUsed(voucherID uint64) (bool, error) {
	_, ok := t.s.used[voucherID]
	return ok, nil
}

func (t *memTx) MarkVoucherUsed(used *model.UsedVoucher) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	if _, ok := t.s.used[used.VoucherID]; ok {
		return fmt.Errorf("store: voucher %d already marked", used.VoucherID)
	}
	used.CreatedAt = t.s.now()
	t.s.used[used.VoucherID] = *used
	id := used.VoucherID
	t.undo = append(t.undo, func() { delete(t.s.used, id) })
	return nil
}

func (t *memTx) AppendOutbox(msg *model.OutboxMessage) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	now := t.s.now()
	msg.ID = uint64(len(t.s.outbox)) + 1
	msg.CreatedAt, msg.UpdatedAt = now, now
	if msg.Status == "" {
		msg.Status = model.OutboxPending
	}
	t.s.outbox = append(t.s.outbox, *msg)
	n := len(t.s.outbox) - 1
	t.undo = append(t.undo, func() { t.s.outbox = t.s.outbox[:n] })
	return nil
}

func (t *memTx) Savepoint(name string) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	t.savepoints[name] = len(t.undo)
	return nil
}

func (t *memTx) RollbackTo(name string) error {
	pos, ok := t.savepoints[name]
	if !ok {
		return fmt.Errorf("store: savepoint %s not found", name)
	}
	t.rollback(pos)
	return nil
}
