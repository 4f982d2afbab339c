package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

type App struct {
	Name      string
	Env       string
	PublicURL string `mapstructure:"publicurl"`
	HTTP      HTTP
}

type FileLog struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level string
	JSON  bool
	File  FileLog
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// PostCacheTTLSec <= 0 disables the public post cache even when redis is configured.
	PostCacheTTLSec int `mapstructure:"postcachettlsec"`
}

type Session struct {
	Secret     string
	Issuer     string
	TTLMin     int
	CookieName string
	Secure     bool
	// Store is "db" or "redis".
	Store string
}

type Admin struct {
	Username        string
	InitialPassword string `mapstructure:"initialpassword"`
}

type CORS struct {
	AllowedOrigins []string `mapstructure:"allowedorigins"`
}

type Limits struct {
	RPS               float64
	Burst             int
	LoginRPS          float64
	LoginBurst        int
	MaxConcurrent     int64
	MaxBodyBytes      int64
	RequestTimeoutSec int
}

type Sitemap struct {
	Path        string
	StaticPaths []string `mapstructure:"staticpaths"`
}

type Config struct {
	App     App
	Log     Log
	DB      DB
	Redis   Redis `mapstructure:"redis"`
	Session Session
	Admin   Admin
	CORS    CORS `mapstructure:"cors"`
	Limits  Limits
	Sitemap Sitemap
}

// Load reads the config or exits the process.
func Load(path string) *Config {
	c, err := Read(path)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	return c
}

// Read resolves the config file (optional), APP_ env vars and the deployment aliases.
func Read(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range aliases {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Plain env names used by container deployments, taking precedence over the file.
var aliases = map[string]string{
	"app.http.port":         "PORT",
	"app.publicurl":         "BASE_URL",
	"session.secret":        "SESSION_SECRET",
	"admin.initialpassword": "ADMIN_PASSWORD",
	"cors.allowedorigins":   "ALLOWED_ORIGINS",
	"db.dsn":                "DATABASE_URL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "portfolio-api")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.publicurl", "http://localhost:3000")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 5000)
	v.SetDefault("app.http.readtimeoutsec", 5)
	v.SetDefault("app.http.writetimeoutsec", 15)
	v.SetDefault("app.http.idletimeoutsec", 60)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file.filename", "")
	v.SetDefault("log.file.maxsizemb", 50)
	v.SetDefault("log.file.maxbackups", 5)
	v.SetDefault("log.file.maxagedays", 14)
	v.SetDefault("log.file.compress", true)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "data/portfolio.db")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.maxopenconns", 1)
	v.SetDefault("db.maxidleconns", 1)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.automigrate", true)
	v.SetDefault("db.loglevel", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.postcachettlsec", 60)

	v.SetDefault("session.secret", "")
	v.SetDefault("session.issuer", "portfolio-api")
	v.SetDefault("session.ttlmin", 24*60)
	v.SetDefault("session.cookiename", "portfolio.sid")
	v.SetDefault("session.secure", false)
	v.SetDefault("session.store", "db")

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.initialpassword", "")

	v.SetDefault("cors.allowedorigins", []string{"http://localhost:3000"})

	v.SetDefault("limits.rps", 200)
	v.SetDefault("limits.burst", 400)
	v.SetDefault("limits.loginrps", 0.2)
	v.SetDefault("limits.loginburst", 10)
	v.SetDefault("limits.maxconcurrent", 300)
	v.SetDefault("limits.maxbodybytes", 4<<20)
	v.SetDefault("limits.requesttimeoutsec", 10)

	v.SetDefault("sitemap.path", "public/sitemap.xml")
	v.SetDefault("sitemap.staticpaths", []string{"/", "/about", "/projects", "/blog", "/contact"})
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Session.Secret) == "" {
		return errors.New("session.secret (SESSION_SECRET) must be set")
	}
	switch c.DB.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported db.driver %q", c.DB.Driver)
	}
	switch c.Session.Store {
	case "db":
	case "redis":
		if c.Redis.Addr == "" {
			return errors.New("session.store=redis requires redis.addr")
		}
	default:
		return fmt.Errorf("unsupported session.store %q", c.Session.Store)
	}
	if c.Session.TTLMin <= 0 {
		return errors.New("session.ttlmin must be > 0")
	}
	return nil
}
