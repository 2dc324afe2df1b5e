// Package config 載入 artshop 的 YAML 配置
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 存儲驅動
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config 整個應用的配置
type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Storage struct {
		// Driver memory 或 postgres
		Driver string `yaml:"driver"`
		// AutoMigrate serve 啟動時先執行資料庫遷移
		AutoMigrate bool `yaml:"auto_migrate"`
	} `yaml:"storage"`

	Postgres struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		DBName   string `yaml:"dbname"`
		SSLMode  string `yaml:"sslmode"`
		MaxConns int32  `yaml:"max_conns"`
		MinConns int32  `yaml:"min_conns"`
	} `yaml:"postgres"`

	Redis struct {
		// Addr 為空時造訪計數只使用內存
		Addr         string        `yaml:"addr"`
		Password     string        `yaml:"password"`
		DB           int           `yaml:"db"`
		PoolSize     int           `yaml:"pool_size"`
		MaxRetries   int           `yaml:"max_retries"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"redis"`

	NATS struct {
		// URL 為空時不發布事件
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`

	Cache struct {
		Capacity int `yaml:"capacity"`
	} `yaml:"cache"`

	Visits struct {
		FallbackThreshold int           `yaml:"fallback_threshold"`
		HealthInterval    time.Duration `yaml:"health_interval"`
	} `yaml:"visits"`

	Logs struct {
		Dir         string        `yaml:"dir"`
		ReportsDir  string        `yaml:"reports_dir"`
		Workers     int           `yaml:"workers"`
		ReportDelay time.Duration `yaml:"report_delay"`
	} `yaml:"logs"`

	Log struct {
		Level     string `yaml:"level"`
		Format    string `yaml:"format"`
		Output    string `yaml:"output"`
		AddSource bool   `yaml:"add_source"`
	} `yaml:"log"`
}

// Default 返回預設配置（不需外部服務即可啟動）
func Default() *Config {
	var c Config

	c.Server.Port = 8080
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 30 * time.Second
	c.Server.ShutdownTimeout = 30 * time.Second

	c.Storage.Driver = DriverMemory
	c.Storage.AutoMigrate = true

	c.Postgres.Host = "localhost"
	c.Postgres.Port = 5432
	c.Postgres.User = "postgres"
	c.Postgres.DBName = "artshop"
	c.Postgres.SSLMode = "disable"
	c.Postgres.MaxConns = 10
	c.Postgres.MinConns = 2

	c.Redis.PoolSize = 10
	c.Redis.MaxRetries = 3
	c.Redis.ReadTimeout = 3 * time.Second
	c.Redis.WriteTimeout = 3 * time.Second

	c.NATS.SubjectPrefix = "artshop"

	c.Cache.Capacity = 5

	c.Visits.FallbackThreshold = 3
	c.Visits.HealthInterval = 10 * time.Second

	c.Logs.Dir = "logs"
	c.Logs.ReportsDir = "reports"
	c.Logs.Workers = 2
	c.Logs.ReportDelay = 20 * time.Second

	c.Log.Level = "info"
	c.Log.Format = "text"
	c.Log.Output = "stdout"

	return &c
}

// Load 讀取配置檔；檔案中未出現的欄位保留預設值
func Load(path string) (*Config, error) {
	c := Default()

	// #nosec G304 - path 來自命令列參數
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

// Validate 檢查配置是否合理
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	switch c.Storage.Driver {
	case DriverMemory, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("storage.driver must be %q or %q, got %q", DriverMemory, DriverPostgres, c.Storage.Driver))
	}
	if c.Cache.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("cache.capacity must be positive, got %d", c.Cache.Capacity))
	}
	if c.Postgres.MaxConns < c.Postgres.MinConns {
		errs = append(errs, errors.New("postgres.max_conns must not be less than postgres.min_conns"))
	}
	if c.Logs.Workers <= 0 {
		errs = append(errs, fmt.Errorf("logs.workers must be positive, got %d", c.Logs.Workers))
	}
	if c.Logs.ReportDelay < 0 {
		errs = append(errs, errors.New("logs.report_delay must not be negative"))
	}
	// pgx 與 golang-migrate 共用 DATABASE_URL，只接受兩者都能解析的 URL 形式
	if dsn := databaseURL(); dsn != "" {
		if u, err := url.Parse(dsn); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errs = append(errs, errors.New("DATABASE_URL must be a postgres:// or postgresql:// URL"))
		}
	}

	return errors.Join(errs...)
}

// PostgresDSN 生成 pgx 使用的連線字串
func (c *Config) PostgresDSN() string {
	// 支援環境變數覆蓋（生產環境常用）
	if dsn := databaseURL(); dsn != "" {
		return dsn
	}

	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.User,
		c.Postgres.Password,
		c.Postgres.DBName,
		c.Postgres.SSLMode,
	)
}

// PostgresURL 生成 golang-migrate 使用的 URL（postgres://...）
func (c *Config) PostgresURL() string {
	if dsn := databaseURL(); dsn != "" {
		return dsn
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Postgres.User, c.Postgres.Password),
		Host:     fmt.Sprintf("%s:%d", c.Postgres.Host, c.Postgres.Port),
		Path:     "/" + c.Postgres.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.Postgres.SSLMode),
	}
	return u.String()
}

func databaseURL() string {
	return strings.TrimSpace(os.Getenv("DATABASE_URL"))
}
