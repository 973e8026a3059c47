package ioc

import (
	"time"

	"github.com/coinsentry/tracker-agent/internal/service/marketdata/coingecko"
	"github.com/spf13/viper"
)

func InitCoinGeckoCli() *coingecko.Client {
	type Config struct {
		BaseURL         string `mapstructure:"base_url"`
		TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
		CooldownSeconds int    `mapstructure:"cooldown_seconds"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("marketdata.coingecko", &cfg); err != nil {
		panic(err)
	}

	return coingecko.NewClient(
		cfg.BaseURL,
		time.Duration(cfg.TimeoutSeconds)*time.Second,
		time.Duration(cfg.CooldownSeconds)*time.Second,
	)
}
