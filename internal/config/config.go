package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	commoncfg "github.com/MKris124/poultry-manager/common/config"

	"gopkg.in/yaml.v3"
)

// Config poultry-manager（HTTP API）配置
type Config struct {
	HTTP HTTPConfig `yaml:"http"`
	DBEnabled bool                     `yaml:"db_enabled"`
	Database  commoncfg.DatabaseConfig `yaml:"database"`

	RedisEnabled bool                  `yaml:"redis_enabled"`
	Redis        commoncfg.RedisConfig `yaml:"redis"`

	Log struct {
		Level      string `yaml:"level"`
		Format     string `yaml:"format"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
	} `yaml:"log"`

	Import ImportConfig `yaml:"import"`
}

// HTTPConfig 监听地址与超时；ReadTimeout/WriteTimeout 覆盖整个上传/导出过程
type HTTPConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// ImportConfig Excel 导入相关配置
type ImportConfig struct {
	MaxUploadMB int           `yaml:"max_upload_mb"` // multipart 上限
	ReportTTL   time.Duration `yaml:"report_ttl"`    // 导入报告保存时长
}

// Load 从环境变量加载；CONFIG_FILE 指定的 YAML 文件覆盖同名字段
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// Default to true for local dev: if DB is unavailable, main falls back to the memory store.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Driver = getEnv("DB_DRIVER", commoncfg.DriverPostgres)
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "poultry")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.SQLitePath = getEnv("SQLITE_PATH", "data/poultry.db")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)

	cfg.RedisEnabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")
	cfg.Log.File = getEnv("LOG_FILE", "")
	cfg.Log.MaxSizeMB = parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100)
	cfg.Log.MaxBackups = parseInt(getEnv("LOG_MAX_BACKUPS", "5"), 5)

	cfg.Import.MaxUploadMB = parseInt(getEnv("IMPORT_MAX_UPLOAD_MB", "10"), 10)
	cfg.Import.ReportTTL = parseDuration(getEnv("IMPORT_REPORT_TTL", "168h"), 7*24*time.Hour)

	// 读写超时默认随上传上限放宽：每 MB 5 秒，不少于 30 秒
	upload := uploadTimeout(cfg.Import.MaxUploadMB)
	cfg.HTTP.ReadHeaderTimeout = parseDuration(getEnv("HTTP_READ_HEADER_TIMEOUT", "5s"), 5*time.Second)
	cfg.HTTP.ReadTimeout = parseDuration(getEnv("HTTP_READ_TIMEOUT", ""), upload)
	cfg.HTTP.WriteTimeout = parseDuration(getEnv("HTTP_WRITE_TIMEOUT", ""), upload)
	cfg.HTTP.IdleTimeout = parseDuration(getEnv("HTTP_IDLE_TIMEOUT", "2m"), 2*time.Minute)
	cfg.HTTP.ShutdownTimeout = parseDuration(getEnv("HTTP_SHUTDOWN_TIMEOUT", "10s"), 10*time.Second)

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// overlayFile 读取 YAML 配置文件，只覆盖文件中出现的字段
func (c *Config) overlayFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func uploadTimeout(maxUploadMB int) time.Duration {
	d := time.Duration(maxUploadMB) * 5 * time.Second
	if d < 30*time.Second {
		return 30 * time.Second
	}
	return d
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
