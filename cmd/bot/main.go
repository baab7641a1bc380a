package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"rebltasks-bot/internal/bot"
	"rebltasks-bot/internal/config"
	"rebltasks-bot/internal/database"
	"rebltasks-bot/internal/logging"
	"rebltasks-bot/internal/push"
	"rebltasks-bot/internal/rewards"
	"rebltasks-bot/internal/store"
	"rebltasks-bot/internal/webhook"
	"rebltasks-bot/internal/worker"
)

func main() {
	cfg := config.LoadConfig()
	log := logging.NewLogger("rebltasks-bot")

	db, err := database.ConnectPostgres(cfg)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to database")
	}

	rdb, err := database.ConnectRedis(cfg)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to redis")
	}

	accounts := store.NewGorm(db)
	clock := clockwork.NewRealClock()

	engine := rewards.New(accounts, clock, log, rewards.Config{
		DailyRewardAmount: cfg.DailyRewardAmount,
		ReferralBonus:     cfg.ReferralBonus,
		ClaimRetries:      cfg.ClaimRetries,
	})

	tgBot, err := bot.NewBot(cfg.BotToken, engine, log, cfg.RequiredChannel)
	if err != nil {
		log.WithError(err).Fatal("Could not create bot")
	}

	var pushClient *push.Client
	if cfg.PushGatewayURL != "" {
		pushClient = push.NewClient(cfg.PushGatewayURL, cfg.PushGatewayKey)
	}
	reminder := worker.NewReminder(accounts, rdb, tgBot.Instance, pushClient, clock, log)

	handler := webhook.NewHandler(engine, log, cfg.WebhookAllowedCIDRs)
	server := &http.Server{
		Addr:    cfg.WebhookListenAddr,
		Handler: handler.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tgBot.Start(ctx)
		return nil
	})
	g.Go(func() error {
		return reminder.Start(ctx)
	})
	g.Go(func() error {
		log.WithField("addr", cfg.WebhookListenAddr).Info("Webhook server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return server.Close()
	})

	log.Info("Service started successfully")
	if err := g.Wait(); err != nil {
		log.WithError(err).Fatal("Service stopped")
	}
}
