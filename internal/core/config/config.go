package config

import (
	"errors"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"haiku-api/internal/domain"
)

const defaultPath = "./configs/config.local.yaml"

type HTTP struct {
	Host              string
	Port              int
	ReadTimeoutSec    int
	WriteTimeoutSec   int
	IdleTimeoutSec    int
	RequestTimeoutSec int
	SlowRequestMs     int
	RateLimitRPS      float64
	RateLimitBurst    int
	PerIPRPS          float64 `mapstructure:"periprps"`
	PerIPBurst        int     `mapstructure:"peripburst"`
	MaxInFlight       int64
	MaxBodyBytes      int64
	CORSOrigins       []string `mapstructure:"corsorigins"`
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
}

type LogFile struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level string
	JSON  bool
	File  LogFile
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AcquireTimeoutMs   int
	AutoMigrate        bool
	LogLevel           string
}

func (d DB) AcquireTimeout() time.Duration {
	return time.Duration(d.AcquireTimeoutMs) * time.Millisecond
}

type Generator struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

type Dispatch struct {
	MaxBatch    int
	Parallelism int
}

type Config struct {
	App       App
	Log       Log
	DB        DB
	Generator Generator `mapstructure:"generator"`
	Dispatch  Dispatch
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "haiku-api")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readtimeoutsec", 5)
	v.SetDefault("app.http.writetimeoutsec", 60)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.http.requesttimeoutsec", 45)
	v.SetDefault("app.http.slowrequestms", 1000)
	v.SetDefault("app.http.ratelimitrps", 200)
	v.SetDefault("app.http.ratelimitburst", 400)
	v.SetDefault("app.http.periprps", 20)
	v.SetDefault("app.http.peripburst", 40)
	v.SetDefault("app.http.maxinflight", 300)
	v.SetDefault("app.http.maxbodybytes", 1<<20)
	v.SetDefault("app.http.corsorigins", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file.enable", false)
	v.SetDefault("log.file.filename", "logs/api.log")
	v.SetDefault("log.file.maxsizemb", 100)
	v.SetDefault("log.file.maxbackups", 7)
	v.SetDefault("log.file.maxagedays", 14)
	v.SetDefault("log.file.compress", true)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.maxopenconns", 20)
	v.SetDefault("db.maxidleconns", 5)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.acquiretimeoutms", 10000)
	v.SetDefault("db.automigrate", true)
	v.SetDefault("db.loglevel", "warn")

	v.SetDefault("generator.base_url", "")
	v.SetDefault("generator.api_key", "")
	v.SetDefault("generator.timeout_sec", 30)

	v.SetDefault("dispatch.maxbatch", 32)
	v.SetDefault("dispatch.parallelism", 4)
}

// Load 读取 yaml（参数 > CONFIG_PATH > 默认路径），再用 APP_* 环境变量覆盖。
// 默认文件不存在可以，显式指定的文件不存在则报错
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	explicit := true
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path, explicit = defaultPath, false
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// 兼容旧的环境变量名
	_ = v.BindEnv("generator.base_url", "APP_GENERATOR_BASE_URL", "DEEPSEEK_API_URL")
	_ = v.BindEnv("generator.api_key", "APP_GENERATOR_API_KEY", "DEEPSEEK_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		if explicit || !errors.As(err, &pathErr) {
			return nil, domain.Configuration("read config %s: %v", path, err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, domain.Configuration("unmarshal config: %v", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate 返回第一个缺失或非法的必填项
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return domain.Configuration("db.driver %q is not one of postgres, mysql, sqlite", c.DB.Driver)
	}
	if strings.TrimSpace(c.DB.DSN) == "" {
		return domain.Configuration("db.dsn is required")
	}
	if c.App.HTTP.Port <= 0 || c.App.HTTP.Port > 65535 {
		return domain.Configuration("app.http.port %d is out of range", c.App.HTTP.Port)
	}
	if strings.TrimSpace(c.Generator.BaseURL) == "" {
		return domain.Configuration("generator.base_url (DEEPSEEK_API_URL) is required")
	}
	if u, err := url.Parse(c.Generator.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return domain.Configuration("generator.base_url %q is not an absolute URL", c.Generator.BaseURL)
	}
	if strings.TrimSpace(c.Generator.APIKey) == "" {
		return domain.Configuration("generator.api_key (DEEPSEEK_API_KEY) is required")
	}
	if c.DB.AcquireTimeoutMs <= 0 {
		return domain.Configuration("db.acquiretimeoutms must be positive")
	}
	return nil
}
