package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"market-core/internal/service/mq"
	"market-core/internal/store"
	"market-core/pkg/logger"
)

const relayBatchSize = 50

// RelayService 负责将本地消息表的消息搬运到 MQ
type RelayService struct {
	outbox   store.OutboxStore
	producer mq.Producer
	interval time.Duration
	log      *zap.Logger
}

func NewRelayService(outbox store.OutboxStore, producer mq.Producer, interval time.Duration) *RelayService {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &RelayService{
		outbox:   outbox,
		producer: producer,
		interval: interval,
		log:      logger.Named("relay"),
	}
}

// Start 阻塞直到 ctx 结束
func (s *RelayService) Start(ctx context.Context) {
	s.log.Info("启动消息中继服务", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("停止消息中继服务")
			return
		case <-ticker.C:
			s.ProcessPending(ctx)
		}
	}
}

// ProcessPending 投递一批待发送消息，返回成功条数
// 先发送后标记 => At-least-once，消费端需要按 (topic, key, event) 幂等
func (s *RelayService) ProcessPending(ctx context.Context) int {
	// 1. 获取一批 Pending 消息
	messages, err := s.outbox.PendingOutbox(ctx, relayBatchSize)
	if err != nil {
		s.log.Error("查询消息失败", zap.Error(err))
		return 0
	}

	sent := 0
	for _, msg := range messages {
		// 2. 发送 MQ，失败则停止本轮，保证同一分区内的顺序
		if err := s.producer.Publish(ctx, msg.Topic, msg.Key, msg.Payload); err != nil {
			s.log.Warn("发送消息失败", zap.Uint64("id", msg.ID), zap.Error(err))
			return sent
		}

		// 3. 更新状态为 SENT，更新失败下次会重发
		if err := s.outbox.MarkOutboxSent(ctx, msg.ID); err != nil {
			s.log.Error("更新消息状态失败", zap.Uint64("id", msg.ID), zap.Error(err))
			return sent
		}
		sent++
	}
	if sent > 0 {
		s.log.Debug("消息已投递", zap.Int("count", sent))
	}
	return sent
}
