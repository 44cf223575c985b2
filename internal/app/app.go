package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ykvlv/weather-digest-bot/internal/admin"
	"github.com/ykvlv/weather-digest-bot/internal/config"
	"github.com/ykvlv/weather-digest-bot/internal/conversation"
	"github.com/ykvlv/weather-digest-bot/internal/digest"
	"github.com/ykvlv/weather-digest-bot/internal/observability"
	"github.com/ykvlv/weather-digest-bot/internal/scheduler"
	"github.com/ykvlv/weather-digest-bot/internal/store"
	"github.com/ykvlv/weather-digest-bot/internal/telegram"
	"github.com/ykvlv/weather-digest-bot/internal/weather"
	"github.com/ykvlv/weather-digest-bot/internal/weather/cwa"
)

type App struct {
	cfg       config.Config
	log       *zap.Logger
	bot       *tgbotapi.BotAPI
	repo      store.Repo
	scheduler *scheduler.Scheduler
	router    *telegram.Router
	admin     *admin.Server
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	bot.Debug = false

	repo, err := store.Open(ctx, cfg.StorageBackend, cfg.DBPath, cfg.PostgresDSN, cfg.DefaultRegion)
	if err != nil {
		return nil, err
	}
	log.Info("settings store ready", zap.String("backend", cfg.StorageBackend))

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()
	loc := cfg.Location()

	client := cwa.New(cwa.Config{
		BaseURL:  cfg.CWABaseURL,
		APIKey:   cfg.CWAAPIKey,
		Timeout:  cfg.HTTPTimeout,
		Location: loc,
	}, log.Named("cwa"))
	gateway := weather.NewGateway(client, client, clock, log.Named("weather"), metrics)
	digests := digest.NewService(repo, gateway, telegram.NewPusher(bot), log.Named("digest"), metrics)

	var timers scheduler.Timers
	switch cfg.SchedulerBackend {
	case "clock":
		timers = scheduler.NewClockTimers(clock, loc)
	default:
		timers = scheduler.NewGocronTimers(loc)
	}
	sched := scheduler.New(timers, digests, log.Named("scheduler"), metrics)

	engine := conversation.New(repo, sched, digests, clock, loc, log.Named("conversation"), metrics)

	return &App{
		cfg:       cfg,
		log:       log,
		bot:       bot,
		repo:      repo,
		scheduler: sched,
		router:    telegram.NewRouter(bot, log.Named("telegram"), engine),
		admin:     admin.NewServer(cfg.HTTPAddr, repo, prometheus.DefaultGatherer, log.Named("admin")),
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting weather-digest-bot",
		zap.String("bot", a.bot.Self.UserName),
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("timezone", a.cfg.Location().String()),
		zap.String("scheduler", a.cfg.SchedulerBackend),
	)

	n, err := a.scheduler.Seed(ctx, a.repo)
	if err != nil {
		a.log.Error("seeding triggers failed", zap.Error(err))
		_ = a.repo.Close()
		return err
	}
	a.log.Info("triggers seeded", zap.Int("count", n))
	a.scheduler.Start()

	go func() {
		if err := a.admin.Start(); err != nil {
			a.log.Error("admin http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.shutdown()
			return nil

		case upd, ok := <-updCh:
			if !ok {
				a.log.Warn("update channel closed")
				a.shutdown()
				return nil
			}
			a.router.Dispatch(ctx, upd)
		}
	}
}

func (a *App) shutdown() {
	a.bot.StopReceivingUpdates()
	a.router.Wait()
	a.scheduler.Stop()

	shCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	err := a.admin.Shutdown(shCtx)
	cancel()
	if err != nil {
		a.log.Warn("admin http server shutdown error", zap.Error(err))
	}

	if err := a.repo.Close(); err != nil {
		a.log.Warn("settings store close error", zap.Error(err))
	}
}
