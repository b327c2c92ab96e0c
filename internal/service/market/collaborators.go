package market

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"market-core/internal/model"
)

// Custody 资产托管 (ERC-721 / ERC-1155)
// TransferIn 把资产从 from 转入本系统账户，TransferOut 从本系统账户转出
type Custody interface {
	BalanceOf(ctx context.Context, owner, token common.Address, tokenID uint64) (uint64, error)
	OwnerOf(ctx context.Context, token common.Address, tokenID uint64) (common.Address, error)
	TransferIn(ctx context.Context, from, token common.Address, tokenID uint64, isMultiple bool, amount uint64) error
	TransferOut(ctx context.Context, to, token common.Address, tokenID uint64, isMultiple bool, amount uint64) error
	RoyaltyBeneficiaries(ctx context.Context, token common.Address, tokenID uint64) ([]model.Beneficiary, error)
}

// Minting lazy mint 扩展
// Mint 返回新铸造的 tokenId，未注册扩展时返回协作方原始错误
type Minting interface {
	Exists(ctx context.Context, token common.Address, tokenID uint64) (bool, error)
	Mint(ctx context.Context, to, token common.Address, uri string, isMultiple bool, amount uint64) (uint64, error)
}

// Burner 可选，用于回滚失败操作中已铸造的资产
type Burner interface {
	Burn(ctx context.Context, from, token common.Address, tokenID uint64, amount uint64) error
}

// Settlement 资金划转，一次调用要么全部成功要么全部失败
type Settlement interface {
	Settle(ctx context.Context, payer common.Address, payouts []model.Payout) error
}

// SettlementReverser 可选，撤销一次已完成的 Settle
type SettlementReverser interface {
	Reverse(ctx context.Context, payer common.Address, payouts []model.Payout) error
}

// SignatureVerifier 签名域在构造时绑定
type SignatureVerifier interface {
	RecoverSigner(v *model.Voucher) (common.Address, error)
}

// TokenInspector ERC-165 supportsInterface
type TokenInspector interface {
	SupportsInterface(ctx context.Context, token common.Address, interfaceID [4]byte) (bool, error)
}
