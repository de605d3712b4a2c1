package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	OSS          OSSConfig          `mapstructure:"oss"`
	Queue        QueueConfig        `mapstructure:"queue"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Log          LogConfig          `mapstructure:"log"`
	Billing      BillingConfig      `mapstructure:"billing"`
	Registration RegistrationConfig `mapstructure:"registration"`
	Catalog      CatalogConfig      `mapstructure:"catalog"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
	MaxPhotoSize    int64  `mapstructure:"max_photo_size"`
}

// QueueConfig billing events are relayed through a redis list when BillingQueue is set
type QueueConfig struct {
	BillingQueue string `mapstructure:"billing_queue"`
	MaxWorkers   int    `mapstructure:"max_workers"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type BillingConfig struct {
	WebhookSecret     string `mapstructure:"webhook_secret"`
	EventRetentionDay int    `mapstructure:"event_retention_days"`
}

type RegistrationConfig struct {
	// Timezone decides where the monthly usage window starts
	Timezone        string `mapstructure:"timezone"`
	EnforceCapacity bool   `mapstructure:"enforce_capacity"`
}

type CatalogConfig struct {
	Plans []PlanConfig `mapstructure:"plans"`
}

type PlanConfig struct {
	ID                  string   `mapstructure:"id"`
	Name                string   `mapstructure:"name"`
	MonthlyPrice        float64  `mapstructure:"monthly_price"`
	BillingInterval     string   `mapstructure:"billing_interval"`
	MaxSessions         int      `mapstructure:"max_sessions"`
	Features            []string `mapstructure:"features"`
	SiblingDiscountTier string   `mapstructure:"sibling_discount_tier"`
	PriceIDs            []string `mapstructure:"price_ids"`
}

func Load(configPath string) (*Config, error) {
	// config.local.yaml 优先（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("registration.timezone", "UTC")
	v.SetDefault("billing.event_retention_days", 30)
	v.SetDefault("queue.max_workers", 2)
	v.SetDefault("log.level", "info")

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
