// Package telegram renders reminder sets as Telegram messages. It is
// one implementation of the notification surface; the scheduler does
// not know or care that the surface is a chat.
package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Arletteportilla/PoliGer/models"
)

// Surface pushes reminders to a single Telegram chat.
type Surface struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// New authorizes the bot and binds it to one chat.
func New(botToken string, chatID int64) (*Surface, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("initializing Telegram bot: %w", err)
	}

	logger := log.With().Str("component", "telegram_surface").Logger()
	logger.Info().Str("username", bot.Self.UserName).Msg("Authorized on Telegram")

	return &Surface{
		bot:    bot,
		chatID: chatID,
		// Telegram allows ~30 messages/sec for bots; stay well under.
		limiter: rate.NewLimiter(rate.Limit(10), 1),
		logger:  logger,
	}, nil
}

// Show sends the current reminder set as one Markdown message.
func (s *Surface) Show(reminders []models.Reminder) error {
	if len(reminders) == 0 {
		return nil
	}

	if err := s.limiter.Wait(context.Background()); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(s.chatID, renderMessage(reminders))
	msg.ParseMode = "Markdown"

	if _, err := s.bot.Send(msg); err != nil {
		return &models.TransportError{Op: "send reminder message", Err: err}
	}

	s.logger.Debug().Int("reminders", len(reminders)).Msg("Reminder message sent")
	return nil
}

// Hide is a no-op: sent chat messages cannot be withdrawn from the
// user's screen, dismissal happens through the tracker instead.
func (s *Surface) Hide() {}

func renderMessage(reminders []models.Reminder) string {
	var b strings.Builder
	b.WriteString("🌱 *Pending breeding records*\n\n")
	for _, r := range reminders {
		kind := "germination"
		if r.Record.Type == models.RecordPollination {
			kind = "pollination"
		}
		fmt.Fprintf(&b, "• *%s* (%s) — %d days since start", r.Record.Species, kind, r.DaysSince)
		if r.Record.PredictedOutcomeDate != nil {
			fmt.Fprintf(&b, ", expected %s", r.Record.PredictedOutcomeDate.Format("2006-01-02"))
		}
		b.WriteString("\n")
	}
	b.WriteString("\nRecord the outcome or dismiss the reminder in the app.")
	return b.String()
}
