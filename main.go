package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coinsentry/tracker-agent/internal/repo"
	"github.com/coinsentry/tracker-agent/internal/schedule"
	"github.com/coinsentry/tracker-agent/internal/server"
	"github.com/coinsentry/tracker-agent/internal/service/marketdata/binance"
	"github.com/coinsentry/tracker-agent/internal/service/monitor"
	"github.com/coinsentry/tracker-agent/internal/service/resolver"
	"github.com/coinsentry/tracker-agent/internal/service/tracker"
	"github.com/coinsentry/tracker-agent/internal/store"
	"github.com/coinsentry/tracker-agent/ioc"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func initViper() {

	// --config=./config/xxx.yaml
	file := pflag.String("config", "./config/config.dev.yaml", "specify config file")
	pflag.Parse()

	viper.SetConfigFile(*file)
	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s \n", err))
	}
}

func main() {
	initViper()

	db := ioc.InitDB()
	if err := repo.InitTables(db); err != nil {
		panic(err)
	}
	alertRepo := repo.NewAlertRepo(db)

	gecko := ioc.InitCoinGeckoCli()
	resolverSvc := resolver.NewCachedResolver(gecko)

	dataDir := viper.GetString("storage.data_dir")
	if dataDir == "" {
		dataDir = "data"
	}
	st, err := store.NewStore(dataDir)
	if err != nil {
		panic(err)
	}
	st.PruneBackups(30 * 24 * time.Hour)

	trackerSvc := tracker.NewService(st, resolverSvc, gecko)
	settings := trackerSvc.Settings()

	sender := ioc.InitSender()
	dispatcher := monitor.NewBroadcastDispatcher(trackerSvc, sender)
	detector := monitor.NewThresholdDetector(settings.ChangeThreshold)

	opts := []monitor.Option{monitor.WithAlertRepo(alertRepo)}
	if viper.GetBool("marketdata.binance.enabled") {
		opts = append(opts, monitor.WithFallback(binance.NewQuoteService(ioc.InitBinanceCli())))
	}
	task := monitor.NewPriceMonitorTask(trackerSvc, resolverSvc, gecko, detector, dispatcher, opts...)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	addr := viper.GetString("server.addr")
	if addr == "" {
		addr = ":5000"
	}
	health := server.NewHealth(addr)
	go func() {
		if err := health.Start(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()
	slog.Info("liveness endpoint started", "addr", addr)

	if !settings.AutoUpdates {
		slog.Info("auto updates disabled, monitoring idle")
		<-ctx.Done()
		return
	}

	interval := time.Duration(settings.PollIntervalMinutes) * time.Minute
	slog.Info("price monitoring started", "interval", interval,
		"threshold", settings.ChangeThreshold, "tracked", len(trackerSvc.List(ctx)))

	runner := schedule.NewRunner(task, interval)
	runner.Start(ctx)
}
