package config

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     Server
	Bun        BunConfig
	JWT        JWT
	LoggerMode LoggerMode
	Envelope   Envelope
	Minio      Minio
	Device     Device
}

type Server struct {
	Port         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// BunConfig.DSN == "memory" runs the server on the in-process store and
// "embedded" starts a private postgres under DataPath.
type BunConfig struct {
	DSN          string
	DataPath     string
	EmbeddedPort uint32
}

type LoggerMode struct {
	Development bool
	Prod        bool
	Level       string
}

type JWT struct {
	Secret    string
	ExpiredIn int
}

// Envelope.ExclusiveMint rejects a batched envelope write for a scope that
// already has envelopes, so only the first minting device wins.
type Envelope struct {
	ExclusiveMint bool
}

type Minio struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// Device holds the settings of a client installation.
type Device struct {
	CachePath       string
	CachePassphrase string
	ServerURL       string
	Token           string
}

const (
	MemoryDSN   = "memory"
	EmbeddedDSN = "embedded"
)

func LoadConfig(filename string) (*viper.Viper, error) {
	// .env is optional; real environment variables still win
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName(filename)
	v.SetConfigType("yaml")
	v.AddConfigPath("config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	err := v.Unmarshal(&c)
	if err != nil {
		slog.Error("Unable to unmarshal config", "err", err)
		return nil, err
	}
	if c.JWT.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.readtimeout", 10*time.Second)
	v.SetDefault("server.writetimeout", 10*time.Second)
	v.SetDefault("bun.datapath", "./db_data")
	v.SetDefault("bun.embeddedport", 5433)
	v.SetDefault("jwt.expiredin", 3600)
	v.SetDefault("loggermode.level", "info")
	v.SetDefault("envelope.exclusivemint", true)
	v.SetDefault("minio.bucket", "attachments")
}
