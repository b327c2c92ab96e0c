package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"market-core/internal/event"
	"market-core/internal/service/mq"
	"market-core/pkg/config"
	"market-core/pkg/database"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "订阅 Redis Streams 中的市场事件并打印",
	Run: func(cmd *cobra.Command, args []string) {
		topic, _ := cmd.Flags().GetString("topic")
		group, _ := cmd.Flags().GetString("group")

		rdb, err := database.ConnectRedis(config.Global.Redis)
		if err != nil {
			exitf("Redis 连接失败: %v\n", err)
		}

		consumer := mq.NewRedisConsumer(rdb, group, "market-cli")
		defer consumer.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = consumer.Subscribe(ctx, topic, func(msg *mq.Message) error {
			fmt.Printf("[%s] key=%s %s\n", msg.ID, msg.Key, msg.Payload)
			return nil
		})
		if err != nil {
			exitf("订阅失败: %v\n", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().String("topic", event.TopicLot, "事件主题 ("+event.TopicLot+" / "+event.TopicVoucher+" / "+event.TopicAdmin+")")
	eventsCmd.Flags().String("group", "market-cli", "消费者组")
}
