package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"market-core/internal/model"
	"market-core/pkg/eip712"
)

var voucherCmd = &cobra.Command{
	Use:   "voucher",
	Short: "签发 / 校验 lazy mint voucher",
}

var voucherSignCmd = &cobra.Command{
	Use:   "sign",
	Short: "离线签发 voucher",
	Long:  `使用 minter 密钥按 EIP-712 对 voucher 签名，输出可直接提交给 /api/v1/vouchers/redeem 的 JSON。`,
	Run: func(cmd *cobra.Command, args []string) {
		token, _ := cmd.Flags().GetString("token")
		tokenID, _ := cmd.Flags().GetUint64("token-id")
		price, _ := cmd.Flags().GetString("price")
		isMultiple, _ := cmd.Flags().GetBool("multiple")
		amount, _ := cmd.Flags().GetUint64("amount")
		uri, _ := cmd.Flags().GetString("uri")
		voucherID, _ := cmd.Flags().GetUint64("id")
		feesFile, _ := cmd.Flags().GetString("fees")
		outputFile, _ := cmd.Flags().GetString("output")

		// 1. 参数
		if !common.IsHexAddress(token) {
			exitf("token 地址格式错误: %s\n", token)
		}
		unitPrice, err := decimal.NewFromString(price)
		if err != nil || !unitPrice.IsInteger() || unitPrice.IsNegative() {
			exitf("price 必须是非负整数 (最小单位): %s\n", price)
		}
		var fees *model.FeeSchedule
		if feesFile != "" {
			data, err := os.ReadFile(feesFile)
			if err != nil {
				exitf("读取分账文件失败: %v\n", err)
			}
			fees = new(model.FeeSchedule)
			if err := json.Unmarshal(data, fees); err != nil {
				exitf("解析分账文件失败: %v\n", err)
			}
		}

		// 2. 签名
		d, err := domain()
		if err != nil {
			exitf("%v\n", err)
		}
		key, err := loadSigner()
		if err != nil {
			exitf("加载签名密钥失败: %v\n", err)
		}
		minter := eip712.NewLazyMinter(d, key)
		v, err := minter.CreateVoucher(eip712.VoucherParams{
			VoucherID:  voucherID,
			Token:      common.HexToAddress(token),
			TokenID:    tokenID,
			Price:      unitPrice,
			IsMultiple: isMultiple,
			Amount:     amount,
			URI:        uri,
			Fees:       fees,
		})
		if err != nil {
			exitf("签发失败: %v\n", err)
		}

		// 3. 输出
		out, _ := json.MarshalIndent(v, "", "  ")
		if outputFile == "" {
			fmt.Println(string(out))
			return
		}
		if err := os.WriteFile(outputFile, out, 0644); err != nil {
			exitf("保存结果失败: %v\n", err)
		}
		fmt.Printf("✅ voucher %d 已签发 (minter %s)，已保存到: %s\n", v.VoucherID, minter.Address().Hex(), outputFile)
	},
}

var voucherVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "校验 voucher 签名并打印签发人",
	Run: func(cmd *cobra.Command, args []string) {
		inputFile, _ := cmd.Flags().GetString("input")
		expected, _ := cmd.Flags().GetString("minter")

		data, err := os.ReadFile(inputFile)
		if err != nil {
			exitf("读取输入文件失败: %v\n", err)
		}
		var v model.Voucher
		if err := json.Unmarshal(data, &v); err != nil {
			exitf("解析 voucher 失败: %v\n", err)
		}

		d, err := domain()
		if err != nil {
			exitf("%v\n", err)
		}
		signer, err := eip712.NewVerifier(d).RecoverSigner(&v)
		if err != nil {
			exitf("签名无效: %v\n", err)
		}

		fmt.Println("\n================ Voucher ================")
		fmt.Printf("VoucherID:  %d\n", v.VoucherID)
		fmt.Printf("Token:      %s (tokenId %d)\n", v.Token.Hex(), v.TokenID)
		fmt.Printf("Price:      %s x %d\n", v.Price.String(), v.EffectiveAmount())
		fmt.Printf("Signer:     %s\n", signer.Hex())
		fmt.Println("=========================================")

		if expected != "" && common.HexToAddress(expected) != signer {
			exitf("❌ 签发人与期望的 minter %s 不一致\n", expected)
		}
	},
}

func init() {
	rootCmd.AddCommand(voucherCmd)
	voucherCmd.AddCommand(voucherSignCmd, voucherVerifyCmd)

	voucherSignCmd.Flags().String("token", "", "合集地址")
	voucherSignCmd.Flags().Uint64("token-id", 0, "tokenId，0 表示铸造新 token")
	voucherSignCmd.Flags().String("price", "0", "单价 (最小单位)")
	voucherSignCmd.Flags().Bool("multiple", false, "是否为可分割资产 (ERC1155)")
	voucherSignCmd.Flags().Uint64("amount", 1, "数量 (仅可分割资产)")
	voucherSignCmd.Flags().String("uri", "", "元数据 URI")
	voucherSignCmd.Flags().Uint64("id", 0, "voucherId，0 表示随机生成")
	voucherSignCmd.Flags().String("fees", "", "分账方案 JSON 文件")
	voucherSignCmd.Flags().StringP("output", "o", "", "输出文件路径，默认打印到终端")
	_ = voucherSignCmd.MarkFlagRequired("token")

	voucherVerifyCmd.Flags().StringP("input", "i", "voucher.json", "voucher 文件路径")
	voucherVerifyCmd.Flags().String("minter", "", "期望的签发人地址")
}

func exitf(format string, a ...interface{}) {
	fmt.Printf(format, a...)
	os.Exit(1)
}
