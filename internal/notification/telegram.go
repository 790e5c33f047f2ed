package notification

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/fitclub-ch/fitclub-server/internal/models"
)

// Notifier delivers out-of-band member notifications
type Notifier interface {
	NotifyGiftReceived(ctx context.Context, recipient *models.Member, amount int, fromName string)
	NotifyReferralRegistered(ctx context.Context, referrer *models.Member, referralName string, bonus int)
}

// TelegramNotifier sends notifications through a Telegram bot. With an empty
// token it degrades to a no-op so local setups need no bot.
type TelegramNotifier struct {
	bot *tgbotapi.BotAPI
	log *slog.Logger
}

func NewTelegramNotifier(token string, log *slog.Logger) (*TelegramNotifier, error) {
	if token == "" {
		log.Warn("telegram bot token is empty, notifications disabled")
		return &TelegramNotifier{bot: nil, log: log}, nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &TelegramNotifier{bot: bot, log: log}, nil
}

func (n *TelegramNotifier) NotifyGiftReceived(ctx context.Context, recipient *models.Member, amount int, fromName string) {
	text := fmt.Sprintf("*You received a gift!*\n\n%s sent you %d credits.", fromName, amount)
	n.send(ctx, recipient.TelegramChatID, text)
}

func (n *TelegramNotifier) NotifyReferralRegistered(ctx context.Context, referrer *models.Member, referralName string, bonus int) {
	text := fmt.Sprintf("*Your referral registered!*\n\n%s just joined. %d bonus credits were added to your balance.", referralName, bonus)
	n.send(ctx, referrer.TelegramChatID, text)
}

func (n *TelegramNotifier) send(ctx context.Context, chatID *int64, text string) {
	if n.bot == nil {
		n.log.Debug("notification skipped (bot disabled)")
		return
	}

	if chatID == nil {
		n.log.Debug("notification skipped (no chat_id)")
		return
	}

	if err := ctx.Err(); err != nil {
		n.log.Debug("notification skipped (context cancelled)", slog.Int64("chat_id", *chatID))
		return
	}

	msg := tgbotapi.NewMessage(*chatID, text)
	msg.ParseMode = "Markdown"

	if _, err := n.bot.Send(msg); err != nil {
		n.log.Error("failed to send telegram notification",
			slog.Int64("chat_id", *chatID),
			slog.Any("error", err),
		)
	}
}
