package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Auth     AuthConfig     `yaml:"auth"`
	LDAP     LDAPConfig     `yaml:"ldap"`
	Upload   UploadConfig   `yaml:"upload"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

type JWTConfig struct {
	AccessSecret        string `yaml:"access_secret"`
	RefreshSecret       string `yaml:"refresh_secret"`
	AccessExpireMinutes int    `yaml:"access_expire_minutes"`
}

// AuthConfig holds session policy knobs outside of token signing.
type AuthConfig struct {
	// MaxRefreshTokens caps the per-user refresh token list. Oldest entries
	// are evicted when a new token would exceed the cap. <= 0 disables the cap.
	MaxRefreshTokens int `yaml:"max_refresh_tokens"`
}

type LDAPConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	BaseDN       string `yaml:"base_dn"`
	BindDN       string `yaml:"bind_dn"`
	BindPassword string `yaml:"bind_password"`
	UserFilter   string `yaml:"user_filter"`
	UseSSL       bool   `yaml:"use_ssl"`
}

type UploadConfig struct {
	Dir       string `yaml:"dir"`
	MaxSizeMB int64  `yaml:"max_size_mb"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, err
		}
		cfg = &fileCfg
	}

	cfg.overrideFromEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "plateful.db",
		},
		JWT: JWTConfig{
			AccessSecret:        "plateful-access-secret-change-in-production",
			RefreshSecret:       "plateful-refresh-secret-change-in-production",
			AccessExpireMinutes: 30,
		},
		Auth: AuthConfig{
			MaxRefreshTokens: 20,
		},
		LDAP: LDAPConfig{
			Enabled:    false,
			Port:       389,
			UserFilter: "(uid=%s)",
		},
		Upload: UploadConfig{
			Dir:       "uploads",
			MaxSizeMB: 10,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_ACCESS_SECRET"); secret != "" {
		c.JWT.AccessSecret = secret
	}
	if secret := os.Getenv("JWT_REFRESH_SECRET"); secret != "" {
		c.JWT.RefreshSecret = secret
	}
	if minutes := os.Getenv("JWT_ACCESS_EXPIRE_MINUTES"); minutes != "" {
		if m, err := strconv.Atoi(minutes); err == nil && m > 0 {
			c.JWT.AccessExpireMinutes = m
		}
	}
	if max := os.Getenv("AUTH_MAX_REFRESH_TOKENS"); max != "" {
		if m, err := strconv.Atoi(max); err == nil {
			c.Auth.MaxRefreshTokens = m
		}
	}
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		c.Upload.Dir = dir
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Server.Port == "" {
		c.Server.Port = def.Server.Port
	}
	if c.Server.Mode == "" {
		c.Server.Mode = def.Server.Mode
	}
	if c.Database.Driver == "" {
		c.Database.Driver = def.Database.Driver
	}
	if c.Database.DSN == "" {
		c.Database.DSN = def.Database.DSN
	}
	if c.JWT.AccessSecret == "" {
		c.JWT.AccessSecret = def.JWT.AccessSecret
	}
	if c.JWT.RefreshSecret == "" {
		c.JWT.RefreshSecret = def.JWT.RefreshSecret
	}
	if c.JWT.AccessExpireMinutes <= 0 {
		c.JWT.AccessExpireMinutes = def.JWT.AccessExpireMinutes
	}
	if c.Upload.Dir == "" {
		c.Upload.Dir = def.Upload.Dir
	}
	if c.Upload.MaxSizeMB <= 0 {
		c.Upload.MaxSizeMB = def.Upload.MaxSizeMB
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.LDAP.UserFilter == "" {
		c.LDAP.UserFilter = def.LDAP.UserFilter
	}
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
