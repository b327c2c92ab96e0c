package cmd

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"market-core/pkg/bip32"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "生成 minter 助记词与地址",
	Long:  `生成 BIP-39 助记词，并按 BIP-44 路径派生出 minter 签名地址。把地址加入服务端 market.minters 即可签发 voucher。`,
	Run: func(cmd *cobra.Command, args []string) {
		bits, _ := cmd.Flags().GetInt("bits")
		path, _ := cmd.Flags().GetString("path")
		showKey, _ := cmd.Flags().GetBool("show-key")

		// 1. 生成助记词
		mnemonic, err := bip32.GenerateMnemonic(bits)
		if err != nil {
			fmt.Printf("生成助记词失败: %v\n", err)
			os.Exit(1)
		}

		// 2. 派生私钥
		wallet, err := bip32.NewWalletFromMnemonic(mnemonic, "")
		if err != nil {
			fmt.Printf("生成主密钥失败: %v\n", err)
			os.Exit(1)
		}
		key, err := wallet.DeriveECDSA(path)
		if err != nil {
			fmt.Printf("派生路径 %s 失败: %v\n", path, err)
			os.Exit(1)
		}

		fmt.Println("\n⚠️  请离线妥善保存助记词，任何人拿到它都可以签发 voucher")
		fmt.Printf("Mnemonic: %s\n", mnemonic)
		fmt.Printf("Path:     %s\n", path)
		fmt.Printf("Address:  %s\n", crypto.PubkeyToAddress(key.PublicKey).Hex())
		if showKey {
			fmt.Printf("Key:      %s\n", hexutil.Encode(crypto.FromECDSA(key)))
		}
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().Int("bits", 128, "熵的位数 (128 = 12 个单词, 256 = 24 个单词)")
	keygenCmd.Flags().String("path", bip32.DefaultPath, "派生路径")
	keygenCmd.Flags().Bool("show-key", false, "同时打印私钥")
}
