// Package ledger 进程内的参考账本，实现托管、铸造、资金结算和 ERC-165 查询
// 用于单元测试和不连接链节点的演示服务
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"market-core/internal/model"
)

// Kind 代币标准
type Kind uint8

const (
	KindNone Kind = iota
	KindERC721
	KindERC1155
)

var (
	ErrUnknownToken        = errors.New("ledger: unknown token")
	ErrKindMismatch        = errors.New("ledger: token standard mismatch")
	ErrIncorrectOwner      = errors.New("ERC721: transfer from incorrect owner")
	ErrInsufficientBalance = errors.New("ERC1155: insufficient balance for transfer")
	ErrNotRegistered       = errors.New("Must be registered extension")
	ErrInsufficientFunds   = errors.New("ledger: insufficient funds")
	ErrNonexistentToken    = errors.New("ERC721: invalid token ID")
)

type assetKey struct {
	token   common.Address
	tokenID uint64
}

type collection struct {
	kind       Kind
	minting    bool // 是否已注册 lazy mint 扩展
	interfaces map[[4]byte]bool
	nextID     uint64
}

// Ledger 线程安全
type Ledger struct {
	mu          sync.Mutex
	custodian   common.Address
	collections map[common.Address]*collection
	balances    map[assetKey]map[common.Address]uint64
	uris        map[assetKey]string
	royalties   map[assetKey][]model.Beneficiary
	funds       map[common.Address]decimal.Decimal
}

// New custodian 为托管账户 (交易引擎自身的地址)
func New(custodian common.Address) *Ledger {
	return &Ledger{
		custodian:   custodian,
		collections: make(map[common.Address]*collection),
		balances:    make(map[assetKey]map[common.Address]uint64),
		uris:        make(map[assetKey]string),
		royalties:   make(map[assetKey][]model.Beneficiary),
		funds:       make(map[common.Address]decimal.Decimal),
	}
}

func (l *Ledger) Custodian() common.Address {
	return l.custodian
}

// RegisterCollection 登记一个合集，minting 为 true 时允许 lazy mint
func (l *Ledger) RegisterCollection(token common.Address, kind Kind, minting bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ifaces := map[[4]byte]bool{model.InterfaceERC165: true}
	switch kind {
	case KindERC721:
		ifaces[model.InterfaceERC721] = true
	case KindERC1155:
		ifaces[model.InterfaceERC1155] = true
	}
	l.collections[token] = &collection{kind: kind, minting: minting, interfaces: ifaces}
}

// Issue 直接发行资产给 to (用于初始化测试数据)，返回 tokenId
func (l *Ledger) Issue(to, token common.Address, amount uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.collections[token]
	if !ok {
		return 0, ErrUnknownToken
	}
	return l.issue(c, to, token, "", amount), nil
}

func (l *Ledger) issue(c *collection, to, token common.Address, uri string, amount uint64) uint64 {
	c.nextID++
	key := assetKey{token, c.nextID}
	if c.kind == KindERC721 {
		amount = 1
	}
	l.balances[key] = map[common.Address]uint64{to: amount}
	l.uris[key] = uri
	return c.nextID
}

func (l *Ledger) SetRoyalties(token common.Address, tokenID uint64, beneficiaries []model.Beneficiary) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.royalties[assetKey{token, tokenID}] = beneficiaries
}

// Deposit 给账户充值
func (l *Ledger) Deposit(account common.Address, amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.funds[account] = l.funds[account].Add(amount)
}

func (l *Ledger) Funds(account common.Address) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.funds[account]
}

func (l *Ledger) URI(token common.Address, tokenID uint64) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.uris[assetKey{token, tokenID}]
}

// ---- Custody ----

func (l *Ledger) BalanceOf(_ context.Context, owner, token common.Address, tokenID uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[assetKey{token, tokenID}][owner], nil
}

func (l *Ledger) OwnerOf(_ context.Context, token common.Address, tokenID uint64) (common.Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for holder, n := range l.balances[assetKey{token, tokenID}] {
		if n > 0 {
			return holder, nil
		}
	}
	return common.Address{}, ErrNonexistentToken
}

func (l *Ledger) TransferIn(_ context.Context, from, token common.Address, tokenID uint64, isMultiple bool, amount uint64) error {
	return l.transfer(from, l.custodian, token, tokenID, isMultiple, amount)
}

func (l *Ledger) TransferOut(_ context.Context, to, token common.Address, tokenID uint64, isMultiple bool, amount uint64) error {
	return l.transfer(l.custodian, to, token, tokenID, isMultiple, amount)
}

// Transfer 任意两个账户之间转移 (测试中模拟用户误转入)
func (l *Ledger) Transfer(from, to, token common.Address, tokenID uint64, isMultiple bool, amount uint64) error {
	return l.transfer(from, to, token, tokenID, isMultiple, amount)
}

func (l *Ledger) transfer(from, to, token common.Address, tokenID uint64, isMultiple bool, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.collections[token]
	if !ok {
		return ErrUnknownToken
	}
	if (c.kind == KindERC1155) != isMultiple {
		return ErrKindMismatch
	}

	key := assetKey{token, tokenID}
	holders := l.balances[key]
	if c.kind == KindERC721 {
		if holders[from] == 0 {
			return ErrIncorrectOwner
		}
		amount = 1
	} else if holders[from] < amount {
		return ErrInsufficientBalance
	}

	holders[from] -= amount
	if holders[from] == 0 {
		delete(holders, from)
	}
	holders[to] += amount
	return nil
}

func (l *Ledger) RoyaltyBeneficiaries(_ context.Context, token common.Address, tokenID uint64) ([]model.Beneficiary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Beneficiary(nil), l.royalties[assetKey{token, tokenID}]...), nil
}

// ---- Minting ----

func (l *Ledger) Exists(_ context.Context, token common.Address, tokenID uint64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.balances[assetKey{token, tokenID}]
	return ok, nil
}

func (l *Ledger) Mint(_ context.Context, to, token common.Address, uri string, isMultiple bool, amount uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.collections[token]
	if !ok || !c.minting {
		return 0, ErrNotRegistered
	}
	if (c.kind == KindERC1155) != isMultiple {
		return 0, ErrKindMismatch
	}
	return l.issue(c, to, token, uri, amount), nil
}

// Burn 回滚铸造，资产必须仍在 from 手中
func (l *Ledger) Burn(_ context.Context, from, token common.Address, tokenID uint64, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := assetKey{token, tokenID}
	holders, ok := l.balances[key]
	if !ok || holders[from] < amount {
		return ErrInsufficientBalance
	}
	holders[from] -= amount
	if holders[from] == 0 {
		delete(holders, from)
	}
	if len(holders) == 0 {
		delete(l.balances, key)
		delete(l.uris, key)
	}
	return nil
}

// ---- Settlement ----

func (l *Ledger) Settle(_ context.Context, payer common.Address, payouts []model.Payout) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := decimal.Zero
	for _, p := range payouts {
		if p.Amount.IsNegative() {
			return fmt.Errorf("ledger: negative payout %s", p.Amount)
		}
		total = total.Add(p.Amount)
	}
	if l.funds[payer].LessThan(total) {
		return ErrInsufficientFunds
	}

	l.funds[payer] = l.funds[payer].Sub(total)
	for _, p := range payouts {
		l.funds[p.Account] = l.funds[p.Account].Add(p.Amount)
	}
	return nil
}

func (l *Ledger) Reverse(_ context.Context, payer common.Address, payouts []model.Payout) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, p := range payouts {
		if l.funds[p.Account].LessThan(p.Amount) {
			return ErrInsufficientFunds
		}
	}
	for _, p := range payouts {
		l.funds[p.Account] = l.funds[p.Account].Sub(p.Amount)
		l.funds[payer] = l.funds[payer].Add(p.Amount)
	}
	return nil
}

// ---- TokenInspector ----

func (l *Ledger) SupportsInterface(_ context.Context, token common.Address, interfaceID [4]byte) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.collections[token]
	if !ok {
		return false, nil
	}
	return c.interfaces[interfaceID], nil
}
