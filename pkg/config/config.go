package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	DB     DBConfig     `mapstructure:"db"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Kafka  KafkaConfig  `mapstructure:"kafka"`
	Market MarketConfig `mapstructure:"market"`
	Signer SignerConfig `mapstructure:"signer"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	HttpPort string `mapstructure:"http_port"`
	GrpcPort string `mapstructure:"grpc_port"`
}

type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	MQType   string `mapstructure:"mq_type"` // "redis" / "kafka" / "none"
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// MarketConfig 交易引擎部署参数
type MarketConfig struct {
	// EIP-712 签名域
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	ChainID int64  `mapstructure:"chain_id"` // 0 表示从 RPC 节点读取
	Address string `mapstructure:"address"`  // 本系统的身份地址 (verifyingContract / 托管账户)

	// 角色
	Owner          string   `mapstructure:"owner"`
	Recipient      string   `mapstructure:"recipient"` // 平台收款地址
	AllowedCallers []string `mapstructure:"allowed_callers"`
	Minters        []string `mapstructure:"minters"`

	// 费率
	PlatformFeeBps int  `mapstructure:"platform_fee_bps"`
	ApplyRoyalties bool `mapstructure:"apply_royalties"`

	// 内置账本登记的合集 (rpc_url 为空时使用)
	Collections []CollectionConfig `mapstructure:"collections"`

	Store     string `mapstructure:"store"`   // "memory" or "postgres"
	RpcUrl    string `mapstructure:"rpc_url"` // 为空时 isSupportedToken 使用内置账本
	AuditCron string `mapstructure:"audit_cron"`
	CacheTTL  string `mapstructure:"cache_ttl"`
}

type CollectionConfig struct {
	Address string `mapstructure:"address"`
	Kind    string `mapstructure:"kind"`    // "erc721" / "erc1155"
	Minting bool   `mapstructure:"minting"` // 是否允许 lazy mint
}

// SignerConfig 离线签发 voucher 用的密钥来源 (仅 CLI 使用)
type SignerConfig struct {
	PrivateKey string `mapstructure:"private_key"`
	Mnemonic   string `mapstructure:"mnemonic"`
	Path       string `mapstructure:"path"`
}

var Global Config

func Init() {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name
	viper.AddConfigPath(".")      // optionally look for config in the working directory
	viper.AddConfigPath("./config")

	// 环境变量设置: MARKET_RECIPIENT -> market.recipient
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 设置默认值
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: Config file not found, using defaults and environment variables")
		} else {
			log.Fatalf("Fatal error config file: %s \n", err)
		}
	}

	if err := viper.Unmarshal(&Global); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	log.Printf("Configuration loaded successfully. Env: %s", Global.App.Env)
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.http_port", "8080")
	viper.SetDefault("app.grpc_port", "50051")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.user", "market_user")
	viper.SetDefault("db.password", "market_password")
	viper.SetDefault("db.name", "market_db")

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.mq_type", "redis")

	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.topic", "market_events")

	viper.SetDefault("market.name", "LazyMint-Voucher")
	viper.SetDefault("market.version", "1")
	viper.SetDefault("market.chain_id", 1)
	viper.SetDefault("market.platform_fee_bps", 2000)
	viper.SetDefault("market.apply_royalties", false)
	viper.SetDefault("market.store", "memory")
	viper.SetDefault("market.audit_cron", "@every 5m")
	viper.SetDefault("market.cache_ttl", "1h")

	viper.SetDefault("signer.path", "m/44'/60'/0'/0/0")
}
