package bip32

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/crypto"
)

// DefaultPath BIP-44 以太坊第一个账户
const DefaultPath = "m/44'/60'/0'/0/0"

var (
	ErrInvalidSeed     = errors.New("无效的种子")
	ErrInvalidPath     = errors.New("无效的派生路径")
	ErrInvalidMnemonic = errors.New("无效的助记词")
)

// Wallet 分层确定性钱包，只用于派生 voucher 签名密钥
type Wallet struct {
	master *hdkeychain.ExtendedKey
}

// NewMasterKeyFromSeed 使用 BIP-39 种子生成主密钥
// network 只影响 xprv 的版本前缀，为空时使用 MainNet
func NewMasterKeyFromSeed(seed []byte, network *chaincfg.Params) (*Wallet, error) {
	if len(seed) < hdkeychain.MinSeedBytes || len(seed) > hdkeychain.MaxSeedBytes {
		return nil, ErrInvalidSeed
	}
	if network == nil {
		network = &chaincfg.MainNetParams
	}

	master, err := hdkeychain.NewMaster(seed, network)
	if err != nil {
		return nil, fmt.Errorf("生成主密钥失败: %v", err)
	}
	return &Wallet{master: master}, nil
}

// MasterKey 返回 Base58 编码的主私钥 (xprv...)
func (w *Wallet) MasterKey() string {
	return w.master.String()
}

// DerivePath 解析路径并派生扩展密钥
// 支持格式: m/44'/60'/0'/0/0 或 m/44h/60h/0h/0/0
func (w *Wallet) DerivePath(path string) (*hdkeychain.ExtendedKey, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "m" {
		return w.master, nil
	}
	if !strings.HasPrefix(path, "m/") {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}

	current := w.master
	for _, segment := range strings.Split(path[2:], "/") {
		hardened := false
		if strings.HasSuffix(segment, "'") || strings.HasSuffix(segment, "h") {
			hardened = true
			segment = segment[:len(segment)-1]
		}

		val, err := strconv.ParseUint(segment, 10, 31)
		if err != nil {
			return nil, fmt.Errorf("%w: 无效的路径段 '%s'", ErrInvalidPath, segment)
		}
		index := uint32(val)
		if hardened {
			index += hdkeychain.HardenedKeyStart
		}

		current, err = current.Derive(index)
		if err != nil {
			return nil, fmt.Errorf("派生子密钥失败: %v", err)
		}
	}
	return current, nil
}

// DeriveECDSA 派生出可直接用于 EIP-712 签名的私钥
func (w *Wallet) DeriveECDSA(path string) (*ecdsa.PrivateKey, error) {
	key, err := w.DerivePath(path)
	if err != nil {
		return nil, err
	}
	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("提取私钥失败: %v", err)
	}
	return crypto.ToECDSA(priv.Serialize())
}
