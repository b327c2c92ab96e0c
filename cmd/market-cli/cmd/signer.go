package cmd

import (
	"crypto/ecdsa"
	"fmt"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/term"

	"market-core/pkg/bip32"
	"market-core/pkg/config"
	"market-core/pkg/eip712"
)

// domain 由配置构造签名域，必须与服务端一致
func domain() (eip712.Domain, error) {
	m := config.Global.Market
	if !common.IsHexAddress(m.Address) {
		return eip712.Domain{}, fmt.Errorf("market.address 未配置或格式错误: %q", m.Address)
	}
	if m.ChainID == 0 {
		return eip712.Domain{}, fmt.Errorf("market.chain_id 未配置")
	}
	return eip712.Domain{
		Name:              m.Name,
		Version:           m.Version,
		ChainID:           m.ChainID,
		VerifyingContract: common.HexToAddress(m.Address),
	}, nil
}

// loadSigner 优先使用 signer.private_key，其次 signer.mnemonic，都没有时从终端读取助记词
func loadSigner() (*ecdsa.PrivateKey, error) {
	s := config.Global.Signer
	if s.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(s.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("私钥格式错误: %w", err)
		}
		return key, nil
	}

	mnemonic := s.Mnemonic
	if mnemonic == "" {
		fmt.Print("请输入 minter 助记词: ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return nil, fmt.Errorf("读取助记词失败: %w", err)
		}
		mnemonic = strings.TrimSpace(string(raw))
	}

	wallet, err := bip32.NewWalletFromMnemonic(mnemonic, "")
	if err != nil {
		return nil, err
	}
	path := s.Path
	if path == "" {
		path = bip32.DefaultPath
	}
	return wallet.DeriveECDSA(path)
}
