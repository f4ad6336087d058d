package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"device-auth"`

	Server  ServerConfig  `envPrefix:"SERVER_"`
	Log     LogConfig     `envPrefix:"LOG_"`
	Auth    AuthConfig    `envPrefix:"AUTH_"`
	Storage StorageConfig `envPrefix:"STORAGE_"`
	DB      DBConfig      `envPrefix:"POSTGRES_"`
	Redis   RedisConfig   `envPrefix:"REDIS_"`
	Email   EmailConfig   `envPrefix:"EMAIL_"`
	Jaeger  JaegerConfig  `envPrefix:"JAEGER_"`
}

type ServerConfig struct {
	Mode       string  `env:"MODE"        envDefault:"dev"`
	Port       int     `env:"PORT"        envDefault:"8080"`
	GRPCPort   int     `env:"GRPC_PORT"   envDefault:"50050"`
	Scheme     string  `env:"SCHEME"      envDefault:"http"`
	Domain     string  `env:"DOMAIN"      envDefault:"localhost"`
	LoginRPS   float64 `env:"LOGIN_RPS"   envDefault:"1"`
	LoginBurst int     `env:"LOGIN_BURST" envDefault:"5"`
}

type LogConfig struct {
	File       string `env:"FILE"`
	MaxSizeMB  int    `env:"MAX_SIZE_MB"  envDefault:"100"`
	MaxBackups int    `env:"MAX_BACKUPS"  envDefault:"3"`
	MaxAgeDays int    `env:"MAX_AGE_DAYS" envDefault:"28"`
}

type AuthConfig struct {
	JWT     JWTConfig     `envPrefix:"JWT_"`
	Captcha CaptchaConfig `envPrefix:"CAPTCHA_"`
	Admin   AdminConfig   `envPrefix:"ADMIN_"`

	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`
	// RecheckOnResolve re-validates active/expiry state on every session resolution.
	RecheckOnResolve bool `env:"RECHECK_ON_RESOLVE" envDefault:"true"`
}

type JWTConfig struct {
	Secret string        `env:"SECRET,required"`
	Issuer string        `env:"ISSUER" envDefault:"device-auth"`
	TTL    time.Duration `env:"TTL"    envDefault:"168h"`
}

type CaptchaConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"false"`
	Secret  string `env:"SECRET"`
}

type AdminConfig struct {
	Username string `env:"USERNAME" envDefault:"admin"`
	Password string `env:"PASSWORD"`
	Quota    int    `env:"QUOTA"    envDefault:"999"`
}

type StorageConfig struct {
	Driver string `env:"DRIVER" envDefault:"postgres"`
}

type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"app_owner"`
	Password string `env:"PASSWORD"`
	Database string `env:"DB"       envDefault:"device_auth"`
}

type RedisConfig struct {
	Addr string `env:"ADDR"`
	Pass string `env:"PASSWORD"`
}

type EmailConfig struct {
	Server string `env:"SERVER"`
	Port   int    `env:"PORT" envDefault:"587"`
	User   string `env:"USER"`
	Pass   string `env:"PASS"`
	Admin  string `env:"ADMIN"`
}

type JaegerConfig struct {
	Sampler struct {
		Type  string  `env:"TYPE"  envDefault:"const"`
		Param float64 `env:"PARAM" envDefault:"1"`
	} `envPrefix:"SAMPLER_"`
	Reporter struct {
		LogSpans           bool   `env:"LOG_SPANS"             envDefault:"false"`
		LocalAgentHostPort string `env:"LOCAL_AGENT_HOST_PORT" envDefault:"localhost:6831"`
	} `envPrefix:"REPORTER_"`
}

func MustLoad(path string) Config {
	conf, err := Load(path)
	if err != nil {
		panic(err)
	}
	return conf
}

// Load reads the optional env file at path and then the process environment.
// Variables already set in the environment win over the file.
func Load(path string) (Config, error) {
	var conf Config
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return conf, err
		}
	}

	if err := env.Parse(&conf); err != nil {
		return conf, err
	}

	switch {
	case conf.Auth.JWT.TTL <= 0:
		return conf, ErrInvalidTokenTTL
	case conf.Storage.Driver != StoragePostgres && conf.Storage.Driver != StorageMemory:
		return conf, ErrUnknownStorage
	}

	return conf, nil
}
