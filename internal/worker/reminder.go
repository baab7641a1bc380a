package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"rebltasks-bot/internal/push"
	"rebltasks-bot/internal/store"
)

// Reminder nudges users who have not claimed today's reward. It only reads
// claim state through the store; the claim itself stays with the engine.
type Reminder struct {
	Store store.AccountStore
	Redis *redis.Client
	Bot   *telego.Bot
	Push  *push.Client // nil when no gateway is configured
	Clock clockwork.Clock
	Log   *logrus.Logger
}

func NewReminder(st store.AccountStore, rdb *redis.Client, bot *telego.Bot, pushClient *push.Client, clock clockwork.Clock, log *logrus.Logger) *Reminder {
	return &Reminder{
		Store: st,
		Redis: rdb,
		Bot:   bot,
		Push:  pushClient,
		Clock: clock,
		Log:   log,
	}
}

// Start runs the daily reminder job until ctx is cancelled.
func (r *Reminder) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler(gocron.WithClock(r.Clock))
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() { r.remind(ctx) }),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("schedule reminder job: %w", err)
	}

	sched.Start()
	r.Log.Info("Daily reminder worker started")

	<-ctx.Done()
	return sched.Shutdown()
}

func (r *Reminder) remind(ctx context.Context) {
	now := r.Clock.Now().UTC()
	y, m, d := now.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	accounts, err := r.Store.UnclaimedSince(ctx, dayStart)
	if err != nil {
		r.Log.WithError(err).Error("Failed to query unclaimed accounts")
		return
	}
	r.Log.WithField("count", len(accounts)).Debug("Running reminder cycle")

	for _, acct := range accounts {
		// One reminder per user per day, tracked in redis.
		key := fmt.Sprintf("reminded_%d_%s", acct.TelegramID, now.Format("2006-01-02"))
		exists, err := r.Redis.Exists(ctx, key).Result()
		if err != nil {
			r.Log.WithError(err).Warn("Reminder dedupe check failed")
			continue
		}
		if exists > 0 {
			continue
		}

		_, err = r.Bot.SendMessage(ctx, tu.Message(
			tu.ID(acct.TelegramID),
			"Reminder: claim your daily reward!",
		))
		if err != nil {
			r.Log.WithError(err).WithField("user_id", acct.TelegramID).Warn("Failed to send reminder")
			continue
		}

		if r.Push != nil && acct.DeviceToken != "" {
			if err := r.Push.Send(acct.DeviceToken, "Reminder", "Claim your daily reward!"); err != nil {
				r.Log.WithError(err).WithField("user_id", acct.TelegramID).Warn("Failed to send push notification")
			}
		}

		r.Redis.Set(ctx, key, "true", 48*time.Hour)
	}
}
