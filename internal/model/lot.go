package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// LotStatus 拍品状态
// 数值与链上枚举保持一致: 不存在的拍品读出来就是 Inactive(0)
type LotStatus uint8

const (
	LotInactive LotStatus = iota
	LotActive
	LotSold
	LotCanceled
)

func (s LotStatus) String() string {
	switch s {
	case LotInactive:
		return "inactive"
	case LotActive:
		return "active"
	case LotSold:
		return "sold"
	case LotCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// IsLive Active / Inactive 的拍品仍然占用 (token, tokenId)
func (s LotStatus) IsLive() bool {
	return s == LotInactive || s == LotActive
}

// IsTerminal Sold / Canceled 之后记录不可再修改
func (s LotStatus) IsTerminal() bool {
	return s == LotSold || s == LotCanceled
}

// Lot 拍品表
type Lot struct {
	ID              uint64          `gorm:"primaryKey;autoIncrement:false" json:"lot_id"`
	Token           common.Address  `gorm:"type:bytea;not null;index:idx_lot_token" json:"token"`
	TokenID         uint64          `gorm:"not null;index:idx_lot_token" json:"token_id"`
	Owner           common.Address  `gorm:"type:bytea;not null" json:"owner"`
	Price           decimal.Decimal `gorm:"type:numeric(78,0);not null;default:0" json:"price"` // 单价 (最小单位)
	IsMultiple      bool            `gorm:"not null;default:false" json:"is_multiple"`
	TotalSupply     uint64          `gorm:"not null;default:0" json:"total_supply"`
	RemainingSupply uint64          `gorm:"not null;default:0" json:"remaining_supply"`
	Status          LotStatus       `gorm:"not null;default:0;index" json:"status"`
	LotStart        int64           `gorm:"not null;default:0" json:"lot_start"` // 下架时间 (unix 秒)
	CreatedAt       time.Time       `json:"-"`
	UpdatedAt       time.Time       `json:"-"`
}

func (Lot) TableName() string {
	return "lots"
}

// Exists 零值记录表示拍品不存在 (或分页中的占位项)
func (l Lot) Exists() bool {
	return l.ID != 0
}

// Escrowed 当前托管中的数量
func (l Lot) Escrowed() uint64 {
	if !l.Status.IsLive() || !l.Exists() {
		return 0
	}
	if l.IsMultiple {
		return l.RemainingSupply
	}
	return 1
}

// MarketState 单行计数器表 (lastLotId / activeLotCount)
type MarketState struct {
	ID             uint64 `gorm:"primaryKey" json:"-"`
	LastLotID      uint64 `gorm:"not null;default:0" json:"last_lot_id"`
	ActiveLotCount uint64 `gorm:"not null;default:0" json:"active_lot_count"`
}

func (MarketState) TableName() string {
	return "market_state"
}
