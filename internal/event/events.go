package event

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"market-core/internal/model"
)

// Event 所有领域事件都写入 Outbox
// Topic 决定 Stream 名称，Key 决定分区
type Event interface {
	Topic() string
	Key() string
}

const (
	TopicLot     = "market_events_lot"
	TopicVoucher = "market_events_voucher"
	TopicAdmin   = "market_events_admin"
)

// Kind 事件名称，写入 payload 方便消费端区分
type Kind string

const (
	KindNewLot               Kind = "NewLot"
	KindSellLot              Kind = "SellLot"
	KindCancelLot            Kind = "CancelLot"
	KindActivateLot          Kind = "ActivateLot"
	KindDeactivateLot        Kind = "DeactivateLot"
	KindVoucherUsed          Kind = "VoucherUsed"
	KindRescueToken          Kind = "RescueToken"
	KindRecipientUpdated     Kind = "RecipientUpdated"
	KindPlatformFeeUpdated   Kind = "PlatformFeeUpdated"
	KindAllowedCallerAdded   Kind = "AllowedCallerAdded"
	KindAllowedCallerRemoved Kind = "AllowedCallerRemoved"
	KindMinterAdded          Kind = "MinterAdded"
	KindMinterRemoved        Kind = "MinterRemoved"
	KindOwnershipTransferred Kind = "OwnershipTransferred"
	KindPaused               Kind = "Paused"
	KindUnpaused             Kind = "Unpaused"
)

// LotEvent NewLot / ActivateLot / DeactivateLot
type LotEvent struct {
	Event   Kind           `json:"event"`
	LotID   uint64         `json:"lot_id"`
	Token   common.Address `json:"token"`
	TokenID uint64         `json:"token_id"`
	Owner   common.Address `json:"owner"`
	Amount  uint64         `json:"amount,omitempty"`
	Price   string         `json:"price,omitempty"` // Decimal string
}

func (e LotEvent) Topic() string { return TopicLot }
func (e LotEvent) Key() string   { return strconv.FormatUint(e.LotID, 10) }

// SellLotEvent 成交事件
type SellLotEvent struct {
	Event   Kind           `json:"event"`
	LotID   uint64         `json:"lot_id"`
	Buyer   common.Address `json:"buyer"`
	Amount  uint64         `json:"amount"`
	Payment string         `json:"payment"` // Decimal string
	Payouts []model.Payout `json:"payouts"`
}

func (e SellLotEvent) Topic() string { return TopicLot }
func (e SellLotEvent) Key() string   { return strconv.FormatUint(e.LotID, 10) }

// CancelLotEvent 撤单事件
type CancelLotEvent struct {
	Event  Kind           `json:"event"`
	LotID  uint64         `json:"lot_id"`
	To     common.Address `json:"to"`
	Amount uint64         `json:"amount"`
}

func (e CancelLotEvent) Topic() string { return TopicLot }
func (e CancelLotEvent) Key() string   { return strconv.FormatUint(e.LotID, 10) }

// VoucherUsedEvent lazy mint 成交事件，TokenID 为实际铸造/转出的 id
type VoucherUsedEvent struct {
	Event     Kind           `json:"event"`
	Token     common.Address `json:"token"`
	TokenID   uint64         `json:"token_id"`
	VoucherID uint64         `json:"voucher_id"`
	Recipient common.Address `json:"recipient"`
	Amount    uint64         `json:"amount"`
	Payment   string         `json:"payment"`
	Payouts   []model.Payout `json:"payouts"`
}

func (e VoucherUsedEvent) Topic() string { return TopicVoucher }
func (e VoucherUsedEvent) Key() string   { return strconv.FormatUint(e.VoucherID, 10) }

// RescueTokenEvent 管理员取回误转入的资产
type RescueTokenEvent struct {
	Event      Kind           `json:"event"`
	To         common.Address `json:"to"`
	Token      common.Address `json:"token"`
	TokenID    uint64         `json:"token_id"`
	IsMultiple bool           `json:"is_multiple"`
	Amount     uint64         `json:"amount"`
}

func (e RescueTokenEvent) Topic() string { return TopicAdmin }
func (e RescueTokenEvent) Key() string   { return e.Token.Hex() }

// AdminEvent 角色 / 参数变更
// Account 为被变更的地址，Previous 仅在替换类事件中填写
type AdminEvent struct {
	Event    Kind           `json:"event"`
	Account  common.Address `json:"account"`
	Previous common.Address `json:"previous"`
	Value    uint64         `json:"value,omitempty"`
}

func (e AdminEvent) Topic() string { return TopicAdmin }
func (e AdminEvent) Key() string   { return string(e.Event) }

// FormatAmount 事件中的金额统一用十进制字符串
func FormatAmount(d decimal.Decimal) string {
	return d.String()
}
