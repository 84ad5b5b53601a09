package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	Admin    AdminConfig    `yaml:"admin"`
	Export   ExportConfig   `yaml:"export"`
	Workers  WorkersConfig  `yaml:"workers"`
	Kiosk    KioskConfig    `yaml:"kiosk"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Env     string `yaml:"env"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	PublicFormURL   string        `yaml:"public_form_url"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
}

// DatabaseConfig selects the feedback store. Driver is one of "mysql",
// "sqlite" or "mongo".
type DatabaseConfig struct {
	Driver             string        `yaml:"driver"`
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	Charset            string        `yaml:"charset"`
	ParseTime          bool          `yaml:"parse_time"`
	Loc                string        `yaml:"loc"`
	Path               string        `yaml:"path"`
	MongoURI           string        `yaml:"mongo_uri"`
	Collection         string        `yaml:"collection"`
	MaxConnections     int           `yaml:"max_connections"`
	MaxIdleConnections int           `yaml:"max_idle_connections"`
	ConnectionLifetime time.Duration `yaml:"connection_lifetime"`
}

type RedisConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Password    string `yaml:"password"`
	DB          int    `yaml:"db"`
	PoolSize    int    `yaml:"pool_size"`
	ImportQueue string `yaml:"import_queue"`
	DLQSuffix   string `yaml:"dlq_suffix"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
	Prefix    string `yaml:"prefix"`
}

type AdminConfig struct {
	PinHash     string        `yaml:"pin_hash"`
	TokenSecret string        `yaml:"token_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
}

type ExportConfig struct {
	SheetName string `yaml:"sheet_name"`
	FileName  string `yaml:"file_name"`
	Timezone  string `yaml:"timezone"`
}

type WorkersConfig struct {
	Import ImportWorkerConfig `yaml:"import"`
}

type ImportWorkerConfig struct {
	Count int `yaml:"count"`
}

type KioskConfig struct {
	ServerURL     string           `yaml:"server_url"`
	SubmitTimeout time.Duration    `yaml:"submit_timeout"`
	ProbeInterval time.Duration    `yaml:"probe_interval"`
	FlushWait     time.Duration    `yaml:"flush_wait"`
	Store         KioskStoreConfig `yaml:"store"`
}

// KioskStoreConfig describes the durable slot holding pending submissions.
// Driver is "sqlite" or "redis"; the redis driver reuses the Redis section.
type KioskStoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	Key    string `yaml:"key"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load() (*Config, error) {
	// .env is optional; real env vars always win over it.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	return LoadFile(configPath)
}

func LoadFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyEnv() error {
	overrides := []struct {
		key string
		dst *string
	}{
		{"MONGO_URI", &c.Database.MongoURI},
		{"DATABASE_PASSWORD", &c.Database.Password},
		{"REDIS_PASSWORD", &c.Redis.Password},
		{"ADMIN_PIN_HASH", &c.Admin.PinHash},
		{"TOKEN_SECRET", &c.Admin.TokenSecret},
		{"KIOSK_SERVER_URL", &c.Kiosk.ServerURL},
		{"S3_ACCESS_KEY", &c.Storage.S3.AccessKey},
		{"S3_SECRET_KEY", &c.Storage.S3.SecretKey},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok && v != "" {
			*o.dst = v
		}
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid PORT env variable: %w", err)
		}
		c.Server.Port = port
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "delegate-feedback"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 10 << 20
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "feedback.sqlite"
	}
	if c.Database.Collection == "" {
		c.Database.Collection = "delegatefeedbacks"
	}
	if c.Database.Charset == "" {
		c.Database.Charset = "utf8mb4"
	}
	if c.Database.Loc == "" {
		c.Database.Loc = "UTC"
	}
	if c.Redis.ImportQueue == "" {
		c.Redis.ImportQueue = "feedback:imports"
	}
	if c.Redis.DLQSuffix == "" {
		c.Redis.DLQSuffix = ":dlq"
	}
	if c.Admin.TokenTTL == 0 {
		c.Admin.TokenTTL = 8 * time.Hour
	}
	if c.Export.SheetName == "" {
		c.Export.SheetName = "Feedback_Report"
	}
	if c.Export.FileName == "" {
		c.Export.FileName = "Feedback_Report.xlsx"
	}
	if c.Export.Timezone == "" {
		c.Export.Timezone = "UTC"
	}
	if c.Workers.Import.Count == 0 {
		c.Workers.Import.Count = 2
	}
	if c.Kiosk.ServerURL == "" {
		c.Kiosk.ServerURL = "http://localhost:5000"
	}
	if c.Kiosk.SubmitTimeout == 0 {
		c.Kiosk.SubmitTimeout = 15 * time.Second
	}
	if c.Kiosk.ProbeInterval == 0 {
		c.Kiosk.ProbeInterval = 10 * time.Second
	}
	if c.Kiosk.FlushWait == 0 {
		c.Kiosk.FlushWait = 20 * time.Second
	}
	if c.Kiosk.Store.Driver == "" {
		c.Kiosk.Store.Driver = "sqlite"
	}
	if c.Kiosk.Store.Path == "" {
		c.Kiosk.Store.Path = "kiosk.sqlite"
	}
	if c.Kiosk.Store.Key == "" {
		c.Kiosk.Store.Key = "pendingFeedback"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// MySQL DSN format: [username[:password]@][protocol[(address)]]/dbname[?param1=value1&...&paramN=valueN]
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=%s",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port,
		c.Database.Name, c.Database.Charset, c.Database.ParseTime, c.Database.Loc)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
