package ioc

import (
	"time"

	"github.com/coinsentry/tracker-agent/internal/service/notification"
	"github.com/spf13/viper"
)

func InitSender() notification.Sender {
	type Config struct {
		Transport      string `mapstructure:"transport"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("notify", &cfg); err != nil {
		panic(err)
	}

	switch cfg.Transport {
	case "", "console":
		return notification.ConsoleSender{}
	case "webhook":
		return notification.NewWebhookSender(time.Duration(cfg.TimeoutSeconds) * time.Second)
	default:
		panic("unknown notify transport: " + cfg.Transport)
	}
}
