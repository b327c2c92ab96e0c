package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"market-core/pkg/config"
)

// rootCmd 代表基础命令，没有子命令时直接调用
var rootCmd = &cobra.Command{
	Use:   "market-cli",
	Short: "交易市场命令行工具",
	Long: `离线签发 / 校验 lazy mint voucher，生成 minter 密钥，
以及订阅交易市场的事件流。签名域参数读取 config.yaml 中的 market 配置。`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Init()
	},
}

// Execute 将所有子命令添加到根命令并设置标志
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
