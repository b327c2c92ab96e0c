package main

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"market-core/internal/chain"
	"market-core/internal/ledger"
	"market-core/internal/model"
	"market-core/internal/server"
	"market-core/internal/service"
	"market-core/internal/service/access"
	"market-core/internal/service/fee"
	"market-core/internal/service/market"
	"market-core/internal/service/mq"
	"market-core/internal/store"
	"market-core/pkg/cache"
	"market-core/pkg/config"
	"market-core/pkg/database"
	"market-core/pkg/eip712"
	"market-core/pkg/logger"
	"market-core/pkg/monitor"
	"market-core/pkg/utils/lock"
	"market-core/pkg/validator"
)

// @title Market Core API
// @version 1.0
// @description Escrow Exchange & Lazy Mint Server API

// @host localhost:8080
// @BasePath /api/v1
func main() {
	// 0. 初始化 Config
	config.Init()
	cfg := config.Global

	// 1. 初始化 Logger / 校验器 / 监控指标
	logger.Init(cfg.App.Env)
	defer logger.Sync()
	validator.Init()
	monitor.Init()

	ctx := context.Background()
	var cleanups []func()

	// 2. 部署参数
	self := mustAddress("market.address", cfg.Market.Address)
	owner := mustAddress("market.owner", cfg.Market.Owner)
	recipient := mustAddress("market.recipient", cfg.Market.Recipient)
	callers := mustAddresses("market.allowed_callers", cfg.Market.AllowedCallers)
	minters := mustAddresses("market.minters", cfg.Market.Minters)

	// 3. 存储
	var st store.Store
	switch cfg.Market.Store {
	case "postgres":
		db, err := database.ConnectPostgres(cfg.DB, cfg.App.Env)
		if err != nil {
			logger.Fatal("数据库连接失败", zap.Error(err))
		}
		if cfg.App.Env == "development" {
			logger.Info("开发环境: 自动迁移 Schema (GORM AutoMigrate)...")
			if err := db.AutoMigrate(model.AllModels()...); err != nil {
				logger.Fatal("数据库自动迁移失败", zap.Error(err))
			}
		} else {
			logger.Info("生产环境: 跳过 AutoMigrate，请使用 migrate 工具管理 Schema")
		}
		st = store.NewGormStore(db)
		cleanups = append(cleanups, func() {
			logger.Info("正在关闭数据库连接...")
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
	default:
		logger.Warn("使用内存存储，进程退出后数据丢失")
		st = store.NewMemoryStore()
	}

	// 4. Redis (消息队列 / 二级缓存 / 分布式锁)，mq_type=none 时不连接
	var rdb *redis.Client
	if cfg.Redis.MQType != "none" {
		var err error
		rdb, err = database.ConnectRedis(cfg.Redis)
		if err != nil {
			logger.Fatal("Redis 连接失败", zap.Error(err))
		}
		cleanups = append(cleanups, func() { _ = rdb.Close() })
	}

	// 5. 终态拍品快照缓存
	cacheTTL, err := time.ParseDuration(cfg.Market.CacheTTL)
	if err != nil {
		logger.Fatal("cache_ttl 格式错误", zap.String("value", cfg.Market.CacheTTL), zap.Error(err))
	}
	var lotCache cache.Cache = cache.NewMemoryCache(cacheTTL, 2*cacheTTL)
	if rdb != nil {
		lotCache = cache.NewMultiLevelCache(lotCache, cache.NewRedisCache(rdb, "market:"))
	}

	// 6. 资产/资金协作方: 内置账本，配置 rpc_url 时合集探测走链上 supportsInterface
	book := ledger.New(self)
	for _, c := range cfg.Market.Collections {
		book.RegisterCollection(mustAddress("market.collections.address", c.Address), collectionKind(c.Kind), c.Minting)
	}
	var inspector market.TokenInspector = book
	chainID := cfg.Market.ChainID
	if cfg.Market.RpcUrl != "" {
		client, err := chain.Dial(ctx, cfg.Market.RpcUrl)
		if err != nil {
			logger.Fatal("RPC 连接失败", zap.Error(err))
		}
		cleanups = append(cleanups, client.Close)
		ci := chain.NewInspector(client)
		if chainID == 0 {
			if chainID, err = ci.ChainID(ctx); err != nil {
				logger.Fatal("读取 chainId 失败", zap.Error(err))
			}
		}
		inspector = ci
	}

	// 7. 交易引擎
	guard, err := access.New(owner, callers, minters)
	if err != nil {
		logger.Fatal("角色配置错误", zap.Error(err))
	}
	if cfg.Market.PlatformFeeBps < 0 {
		logger.Fatal("platform_fee_bps 不能为负数")
	}
	fees, err := fee.NewDistributor(recipient, uint64(cfg.Market.PlatformFeeBps), cfg.Market.ApplyRoyalties)
	if err != nil {
		logger.Fatal("费率配置错误", zap.Error(err))
	}
	domain := eip712.Domain{
		Name:              cfg.Market.Name,
		Version:           cfg.Market.Version,
		ChainID:           chainID,
		VerifyingContract: self,
	}

	engine, err := market.New(market.Options{
		Self:       self,
		Store:      st,
		Guard:      guard,
		Fees:       fees,
		Custody:    book,
		Minting:    book,
		Settlement: book,
		Verifier:   eip712.NewVerifier(domain),
		Inspector:  inspector,
		Cache:      lotCache,
		CacheTTL:   cacheTTL,
		Logger:     logger.Named("market"),
	})
	if err != nil {
		logger.Fatal("交易引擎初始化失败", zap.Error(err))
	}
	logger.Info("交易引擎已就绪",
		zap.String("address", self.Hex()),
		zap.Int64("chain_id", chainID),
		zap.String("store", cfg.Market.Store))

	// 8. 消息队列 + Outbox 中继
	var producer mq.Producer
	switch cfg.Redis.MQType {
	case "kafka":
		logger.Info("使用 Kafka 作为消息队列...")
		producer = mq.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	case "none":
		logger.Info("未配置消息队列，事件只保留在 outbox 中")
	default:
		logger.Info("使用 Redis Streams 作为消息队列...")
		producer = mq.NewRedisProducer(rdb, 100000)
	}

	bgCtx, cancelBg := context.WithCancel(ctx)
	if outbox, ok := st.(store.OutboxStore); ok && producer != nil {
		cleanups = append(cleanups, func() { _ = producer.Close() })
		relay := service.NewRelayService(outbox, producer, time.Second)
		go relay.Start(bgCtx)
	}

	// 9. 计数器对账任务
	var locker lock.DistributedLock
	if rdb != nil {
		locker = lock.NewRedisLock(rdb)
	}
	audit := service.NewAuditService(st, locker, cfg.Market.AuditCron)
	if err := audit.Start(); err != nil {
		logger.Fatal("对账任务启动失败", zap.Error(err))
	}

	// 10. HTTP + gRPC
	app, err := server.New(server.Config{
		HttpPort: cfg.App.HttpPort,
		GrpcPort: cfg.App.GrpcPort,
	}, server.NewHTTPRouter(engine))
	if err != nil {
		logger.Fatal("应用启动失败", zap.Error(err))
	}
	for _, fn := range cleanups {
		app.OnShutdown(fn)
	}
	app.OnShutdown(func() {
		audit.Stop()
		cancelBg()
	})

	// 运行 (阻塞)
	app.Run()
	logger.Info("系统已退出")
}

func mustAddress(field, s string) common.Address {
	if !common.IsHexAddress(s) {
		logger.Fatal("地址格式错误", zap.String("field", field), zap.String("value", s))
	}
	return common.HexToAddress(s)
}

func mustAddresses(field string, list []string) []common.Address {
	out := make([]common.Address, 0, len(list))
	for _, s := range list {
		out = append(out, mustAddress(field, s))
	}
	return out
}

func collectionKind(kind string) ledger.Kind {
	switch strings.ToLower(kind) {
	case "erc721":
		return ledger.KindERC721
	case "erc1155":
		return ledger.KindERC1155
	default:
		logger.Fatal("未知的合集类型", zap.String("kind", kind))
		return ledger.KindNone
	}
}
