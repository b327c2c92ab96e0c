package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// PayoutRole 收款方角色，用于监控和事件
type PayoutRole string

const (
	RolePlatform    PayoutRole = "platform"
	RoleSeller      PayoutRole = "seller"
	RoleRoyalty     PayoutRole = "royalty"
	RoleRecipient   PayoutRole = "recipient"
	RoleBeneficiary PayoutRole = "beneficiary"
)

// Payout 一笔分账
type Payout struct {
	Account common.Address  `json:"account"`
	Amount  decimal.Decimal `json:"amount"`
	Role    PayoutRole      `json:"role"`
}
