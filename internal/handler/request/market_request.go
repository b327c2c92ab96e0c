package request

// 金额一律使用最小单位的整数字符串，地址为 0x 开头的 20 字节十六进制

type CreateLotRequest struct {
	Token      string `json:"token" binding:"required,eth_addr"`
	TokenID    uint64 `json:"token_id"`
	Owner      string `json:"owner" binding:"required,eth_addr"`
	Price      string `json:"price" binding:"required,uint_str"`
	IsMultiple bool   `json:"is_multiple"`
	Amount     uint64 `json:"amount"`
}

// BatchCreateLotsRequest 各数组按下标一一对应，长度不一致时返回 WrongArrayLength
type BatchCreateLotsRequest struct {
	Tokens      []string `json:"tokens" binding:"dive,eth_addr"`
	TokenIDs    []uint64 `json:"token_ids"`
	Owners      []string `json:"owners" binding:"dive,eth_addr"`
	Prices      []string `json:"prices" binding:"dive,uint_str"`
	IsMultiples []bool   `json:"is_multiples"`
	Amounts     []uint64 `json:"amounts"`
}

type BuyLotRequest struct {
	Amount  uint64 `json:"amount"`
	Payment string `json:"payment" binding:"required,uint_str"`
}

// CancelLotRequest to 为空时退还给拍品 owner
type CancelLotRequest struct {
	To *string `json:"to" binding:"omitempty,eth_addr"`
}

type BatchCancelLotsRequest struct {
	LotIDs []uint64  `json:"lot_ids" binding:"required"`
	Tos    []*string `json:"tos" binding:"dive,omitempty,eth_addr"`
}

type BatchLotIDsRequest struct {
	LotIDs []uint64 `json:"lot_ids" binding:"required"`
}

type ActiveLotsQuery struct {
	Start uint64 `form:"start"`
	Count uint64 `form:"count"`
}

// BuyWithMintRequest voucher 原样透传，签名覆盖其中全部字段
type BuyWithMintRequest struct {
	To      string         `json:"to" binding:"required,eth_addr"`
	Voucher VoucherPayload `json:"voucher"`
	Payment string         `json:"payment" binding:"required,uint_str"`
}

type VoucherPayload struct {
	VoucherID  uint64              `json:"voucher_id"`
	Token      string              `json:"token" binding:"required,eth_addr"`
	TokenID    uint64              `json:"token_id"`
	Price      string              `json:"price" binding:"required,uint_str"`
	IsMultiple bool                `json:"is_multiple"`
	Amount     uint64              `json:"amount"`
	URI        string              `json:"uri"`
	Fees       *FeeSchedulePayload `json:"fees"`
	Signature  string              `json:"signature" binding:"required"`
}

type FeeSchedulePayload struct {
	PlatformBps   uint64               `json:"platform_bps"`
	Recipient     string               `json:"recipient" binding:"omitempty,eth_addr"`
	RecipientBps  uint64               `json:"recipient_bps"`
	Beneficiaries []BeneficiaryPayload `json:"beneficiaries" binding:"dive"`
}

type BeneficiaryPayload struct {
	Account string `json:"account" binding:"required,eth_addr"`
	Bps     uint64 `json:"bps"`
}

type AccountRequest struct {
	Account string `json:"account" binding:"required,eth_addr"`
}

type PlatformFeeRequest struct {
	Bps *uint64 `json:"bps" binding:"required"`
}

type RescueRequest struct {
	To         string `json:"to" binding:"required,eth_addr"`
	Token      string `json:"token" binding:"required,eth_addr"`
	TokenID    uint64 `json:"token_id"`
	IsMultiple bool   `json:"is_multiple"`
	Amount     uint64 `json:"amount"`
}
