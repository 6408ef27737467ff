package configs

import (
	"errors"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config struct
type Config struct {
	App      `mapstructure:"app"`
	Postgres `mapstructure:"postgres"`
	Line     `mapstructure:"line"`
	Spotify  `mapstructure:"spotify"`
	Storage  `mapstructure:"storage"`
	Auth     `mapstructure:"auth"`
	Bot      `mapstructure:"bot"`
}

// App struct
type App struct {
	Debug bool   `mapstructure:"debug"`
	Env   string `mapstructure:"env"`
	Port  string `mapstructure:"port"`
}

// Postgres struct
type Postgres struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DbName   string `mapstructure:"database"`
	SSLMode  bool   `mapstructure:"sslmode"`
}

// Line struct
type Line struct {
	ChannelSecret string `mapstructure:"channel_secret"`
	ChannelToken  string `mapstructure:"channel_token"`
}

// Spotify struct - OAuth client registered with the music service
type Spotify struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// Storage struct - driver is one of memory, bolt or postgres
type Storage struct {
	Driver      string        `mapstructure:"driver"`
	BoltPath    string        `mapstructure:"bolt_path"`
	BoltTimeout time.Duration `mapstructure:"bolt_timeout"`
}

// Auth struct - Signing of OAuth state tokens
type Auth struct {
	StateSecret string        `mapstructure:"state_secret"`
	StateTTL    time.Duration `mapstructure:"state_ttl"`
}

// Bot struct
type Bot struct {
	UploadTimeout time.Duration `mapstructure:"upload_timeout"`
}

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
)

var config Config

// InitViper func
func InitViper(path, env string) {
	getConfig(path, env)
}

// GetViper func
func GetViper() *Config {
	return &config
}

// getConfig reads config.<env>.yaml when present, config.yaml otherwise
func getConfig(path, env string) {
	viper.AddConfigPath(path)
	setDefaults()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	err := readConfig(env)
	if err != nil {
		panic(err)
	}
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		logrus.Infoln("Config file has changed: ", e.Name)
	})
	err = viper.Unmarshal(&config)
	if err != nil {
		logrus.Fatalln(err)
	}
}

func readConfig(env string) error {
	if env != "" {
		viper.SetConfigName("config." + env)
		err := viper.ReadInConfig()
		var notFound viper.ConfigFileNotFoundError
		if err == nil || !errors.As(err, &notFound) {
			return err
		}
	}
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

func setDefaults() {
	viper.SetDefault("app.port", "9089")
	viper.SetDefault("storage.driver", DriverPostgres)
	viper.SetDefault("storage.bolt_path", "playlist-bot.db")
	viper.SetDefault("storage.bolt_timeout", time.Second)
	viper.SetDefault("auth.state_ttl", 10*time.Minute)
	viper.SetDefault("bot.upload_timeout", 30*time.Second)
}
