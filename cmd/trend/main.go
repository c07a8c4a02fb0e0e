package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"IndexTrend/internal/chart"
	"IndexTrend/internal/collector"
	"IndexTrend/internal/config"
	"IndexTrend/internal/logger"
	"IndexTrend/internal/notifier"
	"IndexTrend/internal/pipeline"
	"IndexTrend/internal/recorder"
	"IndexTrend/internal/scheduler"
	"IndexTrend/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Errorf("load config: %v", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		logger.Errorf("config validation: %v", err)
		return 1
	}

	logger.Init(logger.Options{
		Level:      cfg.Log.Level,
		Name:       "index-trend",
		File:       cfg.Log.File,
		MaxSizeMB:  50,
		MaxBackups: 5,
		MaxAgeDays: 30,
	})
	defer logger.Sync()
	logger.Infof("IndexTrend starting, tracking %q", cfg.Archive.IndexName)

	loc, err := cfg.Location()
	if err != nil {
		logger.Warnf("%v, using local time", err)
	}
	startDate, _, err := cfg.StartDate()
	if err != nil {
		logger.Errorf("%v", err)
		return 1
	}

	// Init fetcher
	fetcher := collector.NewArchiveFetcher(
		cfg.Archive.BaseURL, cfg.Archive.IndexName, cfg.Data.BaseDir, cfg.Proxy,
		cfg.Archive.Timeout, cfg.Archive.RequestsPerSecond,
	)
	logger.Infof("data source: %s (%s)", fetcher.Name(), cfg.Archive.BaseURL)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			logger.Warnf("init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	p := pipeline.New(
		store.NewXLSXStore(cfg.StorePath()),
		fetcher,
		chart.NewRenderer(cfg.Data.BaseDir, !cfg.Render.HTMLOnly),
	)
	p.Recorder = rec
	p.IndexName = cfg.Archive.IndexName
	p.StartDate = startDate
	p.Location = loc

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		p.Notifier = tn
	}

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Schedule.Cron == "" {
		if _, err := p.Run(ctx); err != nil {
			return 1
		}
		return 0
	}

	// Daemon mode
	sched := scheduler.NewScheduler(ctx, p, cfg.Archive.IndexName, loc)
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		logger.Errorf("register cron task: %v", err)
		return 1
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Infof("telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		logger.Infof("RUN_ON_START enabled, executing update now")
		go sched.RunNow()
	}

	logger.Infof("IndexTrend is running on %q. Press Ctrl+C to stop.", cfg.Schedule.Cron)
	<-ctx.Done()

	logger.Infof("shutdown signal received, stopping...")
	return 0
}
