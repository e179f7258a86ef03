package config

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App          AppConfig          `mapstructure:"app"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	NATS         NATSConfig         `mapstructure:"nats"`
	Email        EmailConfig        `mapstructure:"email"`
	Verification VerificationConfig `mapstructure:"verification"`
	Storage      StorageConfig      `mapstructure:"storage"`
	CORS         CORSConfig         `mapstructure:"cors"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Port     int    `mapstructure:"port"`
	Mode     string `mapstructure:"mode"`
	LogLevel string `mapstructure:"log_level"`
	NodeID   int64  `mapstructure:"node_id"`
}

type JWTConfig struct {
	SecretKey     string        `mapstructure:"secret_key"`
	AccessExpire  time.Duration `mapstructure:"access_expire"`
	RefreshExpire time.Duration `mapstructure:"refresh_expire"`
	ResetExpire   time.Duration `mapstructure:"reset_expire"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	Workers  int    `mapstructure:"workers"`
}

type VerificationConfig struct {
	CodeTTL time.Duration `mapstructure:"code_ttl"`
}

type StorageConfig struct {
	AvatarDir     string `mapstructure:"avatar_dir"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

// Load 从指定路径加载配置
func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// 从环境变量覆盖配置
	cfg.applyEnv()

	return &cfg, nil
}

// applyEnv 从环境变量覆盖配置
func (c *Config) applyEnv() {
	// App
	c.App.Port = getEnvInt("APP_PORT", c.App.Port)
	c.App.NodeID = int64(getEnvInt("APP_NODE_ID", int(c.App.NodeID)))

	// JWT
	c.JWT.SecretKey = getEnv("JWT_SECRET", c.JWT.SecretKey)
	c.JWT.AccessExpire = getEnvDuration("JWT_ACCESS_EXPIRE", c.JWT.AccessExpire)
	c.JWT.RefreshExpire = getEnvDuration("JWT_REFRESH_EXPIRE", c.JWT.RefreshExpire)

	// Database
	c.Database.Host = getEnv("POSTGRES_HOST", c.Database.Host)
	c.Database.Port = getEnvInt("POSTGRES_PORT", c.Database.Port)
	c.Database.User = getEnv("POSTGRES_USER", c.Database.User)
	c.Database.Password = getEnv("POSTGRES_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("POSTGRES_DB", c.Database.Name)

	// Redis
	c.Redis.Host = getEnv("REDIS_HOST", c.Redis.Host)
	c.Redis.Port = getEnvInt("REDIS_PORT", c.Redis.Port)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)

	// NATS
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)

	// Email
	c.Email.Host = getEnv("SMTP_HOST", c.Email.Host)
	c.Email.Port = getEnvInt("SMTP_PORT", c.Email.Port)
	c.Email.Username = getEnv("SMTP_USERNAME", c.Email.Username)
	c.Email.Password = getEnv("SMTP_PASSWORD", c.Email.Password)
	c.Email.From = getEnv("SMTP_FROM", c.Email.From)
}

// getEnv 读取字符串环境变量
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt 读取整型环境变量
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// getEnvDuration 读取时长环境变量
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
