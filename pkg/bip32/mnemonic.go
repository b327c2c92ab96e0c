package bip32

import (
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

// GenerateMnemonic 生成一个新的随机助记词 (BIP-39)。
// bitSize: 熵的位数，通常为 128 (12个单词) 或 256 (24个单词)。
func GenerateMnemonic(bitSize int) (string, error) {
	entropy, err := bip39.NewEntropy(bitSize)
	if err != nil {
		return "", fmt.Errorf("生成熵失败: %v", err)
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("生成助记词失败: %v", err)
	}
	return mnemonic, nil
}

// NewWalletFromMnemonic 校验助记词后生成主密钥
// password 为 BIP-39 passphrase，不需要时传 ""
func NewWalletFromMnemonic(mnemonic, password string) (*Wallet, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	return NewMasterKeyFromSeed(bip39.NewSeed(mnemonic, password), nil)
}
