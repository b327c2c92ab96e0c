package access

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"market-core/pkg/errno"
)

// Undo 回滚一次角色变更 (外层事务失败时调用)
type Undo func()

// Guard 角色与暂停开关
// 写操作由交易引擎串行调用，读操作可并发
type Guard struct {
	mu       sync.RWMutex
	owner    common.Address
	creators map[common.Address]struct{}
	minters  map[common.Address]struct{}
	paused   bool
}

// New 初始化角色列表，任何零地址都会被拒绝
func New(owner common.Address, creators, minters []common.Address) (*Guard, error) {
	if owner == (common.Address{}) {
		return nil, errno.ErrZeroAddress.WithMessage("owner")
	}
	g := &Guard{
		owner:    owner,
		creators: make(map[common.Address]struct{}, len(creators)),
		minters:  make(map[common.Address]struct{}, len(minters)),
	}
	for _, c := range creators {
		if c == (common.Address{}) {
			return nil, errno.ErrZeroAddress.WithMessage("allowed caller")
		}
		g.creators[c] = struct{}{}
	}
	for _, m := range minters {
		if m == (common.Address{}) {
			return nil, errno.ErrZeroAddress.WithMessage("minter")
		}
		g.minters[m] = struct{}{}
	}
	return g, nil
}

func (g *Guard) Owner() common.Address {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.owner
}

func (g *Guard) IsAllowedCaller(account common.Address) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.creators[account]
	return ok
}

func (g *Guard) IsMinter(account common.Address) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.minters[account]
	return ok
}

func (g *Guard) Paused() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.paused
}

func (g *Guard) RequireOwner(caller common.Address) error {
	if caller != g.Owner() {
		return errno.ErrOnlyOwner
	}
	return nil
}

func (g *Guard) RequireAllowedCaller(caller common.Address) error {
	if !g.IsAllowedCaller(caller) {
		return errno.ErrOnlyAllowedCaller
	}
	return nil
}

func (g *Guard) RequireNotPaused() error {
	if g.Paused() {
		return errno.ErrPaused
	}
	return nil
}

func (g *Guard) AddAllowedCaller(account common.Address) (Undo, error) {
	return g.add(g.creators, account)
}

func (g *Guard) RemoveAllowedCaller(account common.Address) (Undo, error) {
	return g.remove(g.creators, account)
}

func (g *Guard) AddMinter(account common.Address) (Undo, error) {
	return g.add(g.minters, account)
}

func (g *Guard) RemoveMinter(account common.Address) (Undo, error) {
	return g.remove(g.minters, account)
}

// TransferOwnership 返回旧 owner
func (g *Guard) TransferOwnership(newOwner common.Address) (common.Address, Undo, error) {
	if newOwner == (common.Address{}) {
		return common.Address{}, nil, errno.ErrZeroAddress
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	prev := g.owner
	g.owner = newOwner
	return prev, func() {
		g.mu.Lock()
		g.owner = prev
		g.mu.Unlock()
	}, nil
}

// SetPaused 状态未变化时返回 AlreadySet
func (g *Guard) SetPaused(paused bool) (Undo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused == paused {
		return nil, errno.ErrAlreadySet
	}
	g.paused = paused
	return func() {
		g.mu.Lock()
		g.paused = !paused
		g.mu.Unlock()
	}, nil
}

func (g *Guard) add(set map[common.Address]struct{}, account common.Address) (Undo, error) {
	if account == (common.Address{}) {
		return nil, errno.ErrZeroAddress
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := set[account]; ok {
		return nil, errno.ErrAlreadySet
	}
	set[account] = struct{}{}
	return func() {
		g.mu.Lock()
		delete(set, account)
		g.mu.Unlock()
	}, nil
}

func (g *Guard) remove(set map[common.Address]struct{}, account common.Address) (Undo, error) {
	if account == (common.Address{}) {
		return nil, errno.ErrZeroAddress
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := set[account]; !ok {
		return nil, errno.ErrAlreadySet
	}
	delete(set, account)
	return func() {
		g.mu.Lock()
		set[account] = struct{}{}
		g.mu.Unlock()
	}, nil
}
