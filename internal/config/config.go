package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Config 保存进程级配置（仅使用配置文件或内置默认值）。
// 字段提供开发友好的默认值；生产环境请在 config.yaml 中覆盖。
// 五个服务共用同一份结构，Service 字段区分进程身份。
type Config struct {
	Env      string
	HTTPAddr string
	Service  ServiceConfig
	MySQL    MySQLConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Session  SessionConfig
	Cache    CacheConfig
	Limits   LimitConfig
	Checkout CheckoutConfig
	Gateway  GatewayConfig
	Perf     PerfConfig
}

// ServiceConfig 标识当前进程（用于 /api/health 与日志全局字段）。
type ServiceConfig struct {
	Name    string
	Version string
}

type MySQLConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	Params   string
}

func (m MySQLConfig) DSN() string {
	port := m.Port
	if port == 0 {
		port = 3306
	}
	host := m.Host
	if host == "" {
		host = "127.0.0.1"
	}
	db := m.DBName
	if db == "" {
		db = "tanvi"
	}
	params := m.Params
	if params == "" {
		params = "parseTime=true&loc=UTC&charset=utf8mb4,utf8"
	}
	// 注意：Password 可能为空（本地无密码开发），生产强烈建议设置强密码
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", m.User, m.Password, host, port, db, params)
}

func (m MySQLConfig) DSNMasked() string {
	masked := m
	if masked.Password != "" {
		masked.Password = "******"
	}
	return masked.DSN()
}

type RedisConfig struct {
	Addr     string
	DB       int
	Password string
}

// AuthConfig 定义令牌签发与跨服务校验策略。
// Secret 为 HS256 共享密钥；非用户服务优先本地校验，
// Secret 为空时回退到用户服务的 VerifyURL（超时按无效令牌处理）。
type AuthConfig struct {
	Secret        string
	TokenTTL      time.Duration
	VerifyURL     string
	VerifyTimeout time.Duration
}

// SessionConfig 控制数据库会话行的生命周期。
type SessionConfig struct {
	TTL time.Duration
}

// CacheConfig 控制进程内 TTL+LRU 缓存。
type CacheConfig struct {
	TTL        time.Duration
	MaxEntries int
}

type LimitConfig struct {
	LoginPerMinute int
	WritePerMinute int
	// 时间窗口（默认 1m）
	Window time.Duration
}

// CheckoutConfig 控制结账会话（Redis）的存活时间。
type CheckoutConfig struct {
	TTL time.Duration
}

// GatewayConfig 约束对外部协作方（支付网关、商家适配器、汇率源、欺诈评分）的调用。
type GatewayConfig struct {
	Timeout time.Duration
	Retries int
	Backoff time.Duration
}

// PerfConfig 控制耗时统计窗口与慢请求阈值。
type PerfConfig struct {
	WindowSize        int
	SlowThreshold     time.Duration
	ProducerThreshold time.Duration
}

// Load 生成配置：先使用内置默认值，再用同目录的配置文件（config.yaml/yml/json）覆盖。
// 默认：MySQL 127.0.0.1:3306 用户 root/123456；Redis 127.0.0.1:6379 无密码。
func Load(serviceName string) Config {
	// 1) 默认值（本地开发可直接运行）
	cfg := Config{
		Env:      "dev",
		HTTPAddr: ":8080",
		Service:  ServiceConfig{Name: serviceName, Version: "1.0.0"},
		MySQL:    MySQLConfig{Host: "127.0.0.1", Port: 3306, User: "root", Password: "123456", DBName: "tanvi", Params: "parseTime=true&loc=UTC&charset=utf8mb4,utf8"},
		Redis:    RedisConfig{Addr: "127.0.0.1:6379", DB: 0, Password: ""},
		Auth:     AuthConfig{Secret: "dev-secret-change-me", TokenTTL: 24 * time.Hour, VerifyURL: "", VerifyTimeout: 3 * time.Second},
		Session:  SessionConfig{TTL: 30 * 24 * time.Hour},
		Cache:    CacheConfig{TTL: 5 * time.Minute, MaxEntries: 1000},
		Limits:   LimitConfig{LoginPerMinute: 10, WritePerMinute: 120, Window: time.Minute},
		Checkout: CheckoutConfig{TTL: 2 * time.Hour},
		Gateway:  GatewayConfig{Timeout: 5 * time.Second, Retries: 3, Backoff: 200 * time.Millisecond},
		Perf:     PerfConfig{WindowSize: 1000, SlowThreshold: 500 * time.Millisecond, ProducerThreshold: 3 * time.Second},
	}

	// 2) 配置文件覆盖（若存在）
	if path := FirstExisting("config.yaml", "config.yml", "config.json"); path != "" {
		_ = loadFromFile(path, &cfg)
	}
	return cfg
}

// 配置文件格式：YAML 或 JSON。仅非零值会覆盖现有字段。
func loadFromFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var fm fileModel
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.Unmarshal(b, &fm); err != nil {
			return err
		}
	} else if ext == ".json" || ext == "" {
		if err := json.Unmarshal(b, &fm); err != nil {
			return err
		}
	} else {
		return errors.New("unsupported config file format")
	}
	fm.apply(cfg)
	return nil
}

// --- 配置文件模型与合并逻辑 ---

type fileModel struct {
	Env      string        `yaml:"env" json:"env"`
	HTTPAddr string        `yaml:"http_addr" json:"http_addr"`
	Service  *fileService  `yaml:"service" json:"service"`
	MySQL    *fileMySQL    `yaml:"mysql" json:"mysql"`
	Redis    *fileRedis    `yaml:"redis" json:"redis"`
	Auth     *fileAuth     `yaml:"auth" json:"auth"`
	Session  *fileSession  `yaml:"session" json:"session"`
	Cache    *fileCache    `yaml:"cache" json:"cache"`
	Limits   *fileLimits   `yaml:"limits" json:"limits"`
	Checkout *fileCheckout `yaml:"checkout" json:"checkout"`
	Gateway  *fileGateway  `yaml:"gateway" json:"gateway"`
	Perf     *filePerf     `yaml:"perf" json:"perf"`
}

type fileService struct {
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`
}
type fileMySQL struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	DBName   string `yaml:"db" json:"db"`
	Params   string `yaml:"params" json:"params"`
}
type fileRedis struct {
	Addr     string `yaml:"addr" json:"addr"`
	DB       int    `yaml:"db" json:"db"`
	Password string `yaml:"password" json:"password"`
}
type fileAuth struct {
	Secret        string `yaml:"secret" json:"secret"`
	TokenTTL      string `yaml:"token_ttl" json:"token_ttl"`
	VerifyURL     string `yaml:"verify_url" json:"verify_url"`
	VerifyTimeout string `yaml:"verify_timeout" json:"verify_timeout"`
}
type fileSession struct {
	TTL string `yaml:"ttl" json:"ttl"`
}
type fileCache struct {
	TTL        string `yaml:"ttl" json:"ttl"`
	MaxEntries int    `yaml:"max_entries" json:"max_entries"`
}
type fileLimits struct {
	LoginPerMinute int    `yaml:"login_per_minute" json:"login_per_minute"`
	WritePerMinute int    `yaml:"write_per_minute" json:"write_per_minute"`
	Window         string `yaml:"window" json:"window"`
}
type fileCheckout struct {
	TTL string `yaml:"ttl" json:"ttl"`
}
type fileGateway struct {
	Timeout string `yaml:"timeout" json:"timeout"`
	Retries int    `yaml:"retries" json:"retries"`
	Backoff string `yaml:"backoff" json:"backoff"`
}
type filePerf struct {
	WindowSize        int    `yaml:"window_size" json:"window_size"`
	SlowThreshold     string `yaml:"slow_threshold" json:"slow_threshold"`
	ProducerThreshold string `yaml:"producer_threshold" json:"producer_threshold"`
}

func setDuration(dst *time.Duration, raw string) {
	if raw == "" {
		return
	}
	if d, err := time.ParseDuration(raw); err == nil {
		*dst = d
	}
}

func (fm *fileModel) apply(cfg *Config) {
	if fm.Env != "" {
		cfg.Env = fm.Env
	}
	if fm.HTTPAddr != "" {
		cfg.HTTPAddr = fm.HTTPAddr
	}
	if fm.Service != nil {
		if fm.Service.Name != "" {
			cfg.Service.Name = fm.Service.Name
		}
		if fm.Service.Version != "" {
			cfg.Service.Version = fm.Service.Version
		}
	}
	if fm.MySQL != nil {
		if fm.MySQL.Host != "" {
			cfg.MySQL.Host = fm.MySQL.Host
		}
		if fm.MySQL.Port != 0 {
			cfg.MySQL.Port = fm.MySQL.Port
		}
		if fm.MySQL.User != "" {
			cfg.MySQL.User = fm.MySQL.User
		}
		if fm.MySQL.Password != "" {
			cfg.MySQL.Password = fm.MySQL.Password
		}
		if fm.MySQL.DBName != "" {
			cfg.MySQL.DBName = fm.MySQL.DBName
		}
		if fm.MySQL.Params != "" {
			cfg.MySQL.Params = fm.MySQL.Params
		}
	}
	if fm.Redis != nil {
		if fm.Redis.Addr != "" {
			cfg.Redis.Addr = fm.Redis.Addr
		}
		if fm.Redis.DB != 0 {
			cfg.Redis.DB = fm.Redis.DB
		}
		if fm.Redis.Password != "" {
			cfg.Redis.Password = fm.Redis.Password
		}
	}
	if fm.Auth != nil {
		if fm.Auth.Secret != "" {
			cfg.Auth.Secret = fm.Auth.Secret
		}
		setDuration(&cfg.Auth.TokenTTL, fm.Auth.TokenTTL)
		if fm.Auth.VerifyURL != "" {
			cfg.Auth.VerifyURL = fm.Auth.VerifyURL
		}
		setDuration(&cfg.Auth.VerifyTimeout, fm.Auth.VerifyTimeout)
	}
	if fm.Session != nil {
		setDuration(&cfg.Session.TTL, fm.Session.TTL)
	}
	if fm.Cache != nil {
		setDuration(&cfg.Cache.TTL, fm.Cache.TTL)
		if fm.Cache.MaxEntries != 0 {
			cfg.Cache.MaxEntries = fm.Cache.MaxEntries
		}
	}
	if fm.Limits != nil {
		if fm.Limits.LoginPerMinute != 0 {
			cfg.Limits.LoginPerMinute = fm.Limits.LoginPerMinute
		}
		if fm.Limits.WritePerMinute != 0 {
			cfg.Limits.WritePerMinute = fm.Limits.WritePerMinute
		}
		setDuration(&cfg.Limits.Window, fm.Limits.Window)
	}
	if fm.Checkout != nil {
		setDuration(&cfg.Checkout.TTL, fm.Checkout.TTL)
	}
	if fm.Gateway != nil {
		setDuration(&cfg.Gateway.Timeout, fm.Gateway.Timeout)
		if fm.Gateway.Retries != 0 {
			cfg.Gateway.Retries = fm.Gateway.Retries
		}
		setDuration(&cfg.Gateway.Backoff, fm.Gateway.Backoff)
	}
	if fm.Perf != nil {
		if fm.Perf.WindowSize != 0 {
			cfg.Perf.WindowSize = fm.Perf.WindowSize
		}
		setDuration(&cfg.Perf.SlowThreshold, fm.Perf.SlowThreshold)
		setDuration(&cfg.Perf.ProducerThreshold, fm.Perf.ProducerThreshold)
	}
}

// FirstExisting 按顺序返回第一个存在的文件路径；若都不存在则返回空字符串。
func FirstExisting(paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
