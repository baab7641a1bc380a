package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/sirupsen/logrus"

	"rebltasks-bot/internal/rewards"
	"rebltasks-bot/internal/store"
)

const leaderboardSize = 10

type Bot struct {
	Instance   *telego.Bot
	Engine     *rewards.Engine
	Log        *logrus.Logger
	UserStates map[int64]string
	StatesMu   sync.RWMutex
	Channel    string // required channel, without the @
}

func NewBot(token string, engine *rewards.Engine, log *logrus.Logger, channel string) (*Bot, error) {
	tgBot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		Instance:   tgBot,
		Engine:     engine,
		Log:        log,
		UserStates: make(map[int64]string),
		Channel:    channel,
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	updates, _ := b.Instance.UpdatesViaLongPolling(ctx, nil)

	handler, _ := th.NewBotHandler(b.Instance, updates)

	// /start command: register the user, record the channel gate, attribute
	// the referral from the deep-link argument.
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		message := update.Message
		userID := message.From.ID

		username := message.From.Username
		if username == "" {
			username = fmt.Sprintf("User_%d", userID)
		}

		if !b.hasJoinedChannel(ctx.Context(), userID) {
			keyboard := tu.InlineKeyboard(
				tu.InlineKeyboardRow(
					tu.InlineKeyboardButton("Join Channel").WithURL(fmt.Sprintf("https://t.me/%s", b.Channel)),
				),
			)
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
				tu.ID(message.Chat.ID),
				fmt.Sprintf("Please join @%s to access all bot features!", b.Channel),
			).WithReplyMarkup(keyboard))
			return nil
		}

		if _, err := b.Engine.RegisterOrVisit(ctx.Context(), userID, username); err != nil {
			b.Log.WithError(err).WithField("user_id", userID).Error("Failed to register user")
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(message.Chat.ID), "Something went wrong, please try again later."))
			return nil
		}
		if err := b.Engine.MarkGateJoined(ctx.Context(), userID); err != nil {
			b.Log.WithError(err).WithField("user_id", userID).Error("Failed to record channel gate")
		}

		// Deep-link payload carries the inviter token.
		if parts := strings.Split(message.Text, " "); len(parts) > 1 {
			if _, err := b.Engine.RegisterReferral(ctx.Context(), userID, parts[1]); err != nil {
				b.Log.WithError(err).WithField("user_id", userID).Error("Failed to register referral")
			}
		}

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(message.Chat.ID),
			"Welcome to the bot! Choose an option:",
		).WithReplyMarkup(b.mainMenu()))
		return nil
	}, th.CommandEqual("start"))

	// Balance
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		userID := callback.From.ID

		balance, err := b.Engine.Balance(ctx.Context(), userID)
		if err != nil {
			b.replyForError(ctx, userID, err)
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(userID),
			fmt.Sprintf("Your current balance is %d $REBLCOINS.", balance),
		))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataEqual("balance"))

	// Daily reward claim
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		userID := callback.From.ID

		result, err := b.Engine.ClaimDaily(ctx.Context(), userID)
		if err != nil {
			if errors.Is(err, rewards.ErrConflict) {
				_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(userID), "Busy right now, please tap again."))
			} else {
				b.replyForError(ctx, userID, err)
			}
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}

		if result.Credited {
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
				tu.ID(userID),
				fmt.Sprintf("You have successfully claimed your daily reward! Balance: %d $REBLCOINS.", result.NewBalance),
			))
		} else {
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
				tu.ID(userID),
				fmt.Sprintf("You've already claimed your daily reward today. Come back after %s UTC.",
					result.NextEligibleAt.Format("2006-01-02 15:04")),
			))
		}
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataEqual("daily_rewards"))

	// Leaderboard
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery

		entries, err := b.Engine.Leaderboard(ctx.Context(), leaderboardSize)
		if err != nil {
			b.Log.WithError(err).Error("Failed to load leaderboard")
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(callback.From.ID), "Error retrieving leaderboard data."))
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}

		var sb strings.Builder
		sb.WriteString("🏆 Leaderboard 🏆\n\n")
		for i, entry := range entries {
			fmt.Fprintf(&sb, "%d. %s: %d $REBLCOINS\n", i+1, entry.DisplayName, entry.Balance)
		}
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(callback.From.ID), sb.String()))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataEqual("leaderboard"))

	// Ranking
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		userID := callback.From.ID

		result, err := b.Engine.Rank(ctx.Context(), userID)
		if err != nil {
			b.replyForError(ctx, userID, err)
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(userID),
			fmt.Sprintf("Your rank: %d\nYour balance: %d $REBLCOINS.", result.Rank, result.Balance),
		))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataEqual("ranking"))

	// Wallet overview
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		userID := callback.From.ID

		acct, err := b.Engine.RegisterOrVisit(ctx.Context(), userID, callback.From.Username)
		if err != nil {
			b.replyForError(ctx, userID, err)
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}

		wallet := acct.WalletAddress
		if wallet == "" {
			wallet = "not linked"
		}
		keyboard := tu.InlineKeyboard(
			tu.InlineKeyboardRow(
				tu.InlineKeyboardButton("Link Wallet").WithCallbackData("link_wallet"),
			),
		)
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(userID),
			fmt.Sprintf("Your wallet: %s\nYour balance: %d $REBLCOINS.", wallet, acct.Balance),
		).WithReplyMarkup(keyboard))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataEqual("wallet"))

	// Link wallet: ask for the address
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		userID := update.CallbackQuery.From.ID

		b.StatesMu.Lock()
		b.UserStates[userID] = "WAITING_WALLET_ADDRESS"
		b.StatesMu.Unlock()

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(userID), "Send your wallet address (0x + 40 hex characters):"))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(update.CallbackQuery.ID))
		return nil
	}, th.CallbackDataEqual("link_wallet"))

	// Invite friends
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		userID := callback.From.ID

		invited, earned, err := b.Engine.ReferralStats(ctx.Context(), userID)
		if err != nil {
			b.Log.WithError(err).WithField("user_id", userID).Error("Failed to load referral stats")
		}

		token := callback.From.Username
		if token == "" {
			token = fmt.Sprintf("%d", userID)
		}
		botUsername := "rebltasks_bot"
		if info, err := b.Instance.GetMe(ctx.Context()); err == nil {
			botUsername = info.Username
		}
		refLink := fmt.Sprintf("https://t.me/%s?start=%s", botUsername, token)

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(userID),
			fmt.Sprintf("Share this link with your friends: %s\n\nInvited: %d\nEarned: %d $REBLCOINS", refLink, invited, earned),
		))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataEqual("invite_friends"))

	// Back to main menu
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(callback.From.ID),
			"Choose an option:",
		).WithReplyMarkup(b.mainMenu()))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataEqual("start_back"))

	// Text input (wallet address)
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		userID := update.Message.From.ID
		text := strings.TrimSpace(update.Message.Text)

		b.StatesMu.RLock()
		state, ok := b.UserStates[userID]
		b.StatesMu.RUnlock()

		if !ok || state != "WAITING_WALLET_ADDRESS" {
			return nil
		}

		result, err := b.Engine.LinkWallet(ctx.Context(), userID, text)
		switch {
		case err != nil:
			b.replyForError(ctx, userID, err)
		case result.Linked:
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(userID), "✅ Wallet connected successfully."))
		default:
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(userID), "❌ Invalid wallet address. Expected 0x followed by 40 hex characters."))
			return nil // keep waiting for a valid address
		}

		b.StatesMu.Lock()
		delete(b.UserStates, userID)
		b.StatesMu.Unlock()
		return nil
	}, th.AnyMessageWithText())

	handler.Start()
}

func (b *Bot) mainMenu() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("Daily Rewards").WithCallbackData("daily_rewards"),
			tu.InlineKeyboardButton("Balance").WithCallbackData("balance"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("Leaderboard").WithCallbackData("leaderboard"),
			tu.InlineKeyboardButton("Ranking").WithCallbackData("ranking"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("Wallet").WithCallbackData("wallet"),
			tu.InlineKeyboardButton("Invite Friends").WithCallbackData("invite_friends"),
		),
	)
}

func (b *Bot) hasJoinedChannel(ctx context.Context, userID int64) bool {
	member, err := b.Instance.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: tu.Username("@" + b.Channel),
		UserID: userID,
	})
	if err != nil {
		b.Log.WithError(err).WithField("user_id", userID).Warn("Channel membership check failed")
		return false
	}
	switch member.MemberStatus() {
	case telego.MemberStatusMember, telego.MemberStatusAdministrator, telego.MemberStatusCreator:
		return true
	}
	return false
}

func (b *Bot) replyForError(ctx *th.Context, userID int64, err error) {
	if errors.Is(err, store.ErrNotFound) {
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(userID), "No user record found. Please register using /start."))
		return
	}
	b.Log.WithError(err).WithField("user_id", userID).Error("Request failed")
	_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(userID), "Something went wrong, please try again later."))
}
