package eip712

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"market-core/internal/model"
	"market-core/pkg/errno"
)

const SignatureLength = 65

// Domain EIP-712 签名域，部署时确定，之后不再变化
type Domain struct {
	Name              string
	Version           string
	ChainID           int64
	VerifyingContract common.Address
}

var voucherTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"Voucher": {
		{Name: "voucherId", Type: "uint256"},
		{Name: "token", Type: "address"},
		{Name: "tokenId", Type: "uint256"},
		{Name: "price", Type: "uint256"},
		{Name: "isMultiple", Type: "bool"},
		{Name: "amount", Type: "uint256"},
		{Name: "uri", Type: "string"},
		{Name: "fees", Type: "FeeSchedule"},
	},
	"FeeSchedule": {
		{Name: "platformBps", Type: "uint256"},
		{Name: "recipient", Type: "address"},
		{Name: "recipientBps", Type: "uint256"},
		{Name: "beneficiaries", Type: "Beneficiary[]"},
	},
	"Beneficiary": {
		{Name: "account", Type: "address"},
		{Name: "bps", Type: "uint256"},
	},
}

// TypedData 构造 voucher 的 EIP-712 结构化数据 (signature 字段不参与签名)
// 未携带分账方案时按全零方案编码
func (d Domain) TypedData(v *model.Voucher) apitypes.TypedData {
	return apitypes.TypedData{
		Types:       voucherTypes,
		PrimaryType: "Voucher",
		Domain: apitypes.TypedDataDomain{
			Name:              d.Name,
			Version:           d.Version,
			ChainId:           math.NewHexOrDecimal256(d.ChainID),
			VerifyingContract: d.VerifyingContract.Hex(),
		},
		Message: voucherMessage(v),
	}
}

func voucherMessage(v *model.Voucher) apitypes.TypedDataMessage {
	fees := model.FeeSchedule{}
	if v.Fees != nil {
		fees = *v.Fees
	}

	beneficiaries := make([]interface{}, 0, len(fees.Beneficiaries))
	for _, b := range fees.Beneficiaries {
		beneficiaries = append(beneficiaries, map[string]interface{}{
			"account": b.Account.Hex(),
			"bps":     new(big.Int).SetUint64(b.Bps),
		})
	}

	return apitypes.TypedDataMessage{
		"voucherId":  new(big.Int).SetUint64(v.VoucherID),
		"token":      v.Token.Hex(),
		"tokenId":    new(big.Int).SetUint64(v.TokenID),
		"price":      v.Price.BigInt(),
		"isMultiple": v.IsMultiple,
		"amount":     new(big.Int).SetUint64(v.Amount),
		"uri":        v.URI,
		"fees": map[string]interface{}{
			"platformBps":   new(big.Int).SetUint64(fees.PlatformBps),
			"recipient":     fees.Recipient.Hex(),
			"recipientBps":  new(big.Int).SetUint64(fees.RecipientBps),
			"beneficiaries": beneficiaries,
		},
	}
}

// Digest 计算 keccak256("\x19\x01" || domainSeparator || hashStruct(voucher))
func (d Domain) Digest(v *model.Voucher) ([]byte, error) {
	// uint256 字段: 负数和小数都无法编码
	if v.Price.IsNegative() || !v.Price.IsInteger() {
		return nil, fmt.Errorf("eip712: price %s is not a uint256", v.Price)
	}
	hash, _, err := apitypes.TypedDataAndHash(d.TypedData(v))
	if err != nil {
		return nil, fmt.Errorf("eip712: hash voucher: %w", err)
	}
	return hash, nil
}

// Sign 用私钥签名 voucher，返回 65 字节 (r || s || v)，v 为 27/28
func (d Domain) Sign(v *model.Voucher, key *ecdsa.PrivateKey) ([]byte, error) {
	hash, err := d.Digest(v)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}

// Recover 从签名中恢复签名者地址
// 签名格式不合法时返回 ErrInvalidSignature
func (d Domain) Recover(v *model.Voucher) (common.Address, error) {
	if len(v.Signature) != SignatureLength {
		return common.Address{}, errno.ErrInvalidSignature.WithMessage(fmt.Sprintf("signature length %d", len(v.Signature)))
	}
	hash, err := d.Digest(v)
	if err != nil {
		return common.Address{}, errno.ErrInvalidSignature.WithMessage(err.Error())
	}

	sig := make([]byte, SignatureLength)
	copy(sig, v.Signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return common.Address{}, errno.ErrInvalidSignature.WithMessage("invalid recovery id")
	}

	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return common.Address{}, errno.ErrInvalidSignature.WithMessage(err.Error())
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Verifier 绑定签名域的签名校验器
type Verifier struct {
	domain Domain
}

func NewVerifier(domain Domain) *Verifier {
	return &Verifier{domain: domain}
}

func (v *Verifier) Domain() Domain {
	return v.domain
}

func (v *Verifier) RecoverSigner(voucher *model.Voucher) (common.Address, error) {
	return v.domain.Recover(voucher)
}
