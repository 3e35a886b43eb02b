// Package telegram reports payment reconciliation problems to an operators'
// chat and answers a few ledger queries there.
package telegram

import (
	"context"
	"fmt"
	"strings"

	"regimath/backend/internal/logger"
	"regimath/backend/internal/payment"
	"regimath/backend/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of the bot API the service uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// AlertService posts to the operators' chat.
type AlertService struct {
	Bot       Sender
	OpsChatID int64
	Ledger    storage.Ledger
}

// NewAlertService authorizes the bot token.
func NewAlertService(token string, opsChatID int64, ledger storage.Ledger) (*AlertService, *tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, nil, fmt.Errorf("authorize telegram bot: %w", err)
	}
	bot.Debug = false

	l := logger.L()
	l.Info().Str("account", bot.Self.UserName).Msg("telegram bot authorized")

	return &AlertService{Bot: bot, OpsChatID: opsChatID, Ledger: ledger}, bot, nil
}

// UnroutablePayment implements payment.Alerter.
func (s *AlertService) UnroutablePayment(_ context.Context, p payment.Payment) error {
	return s.send(s.OpsChatID, FormatUnroutable(p))
}

func (s *AlertService) send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := s.Bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// FormatUnroutable renders the alert for an approved payment with no room.
func FormatUnroutable(p payment.Payment) string {
	var b strings.Builder
	b.WriteString("⚠️ Approved payment without a room\n")
	fmt.Fprintf(&b, "payment: %s\n", p.ID)
	fmt.Fprintf(&b, "amount: %.2f\n", p.Amount)
	if p.PreferenceReference != "" {
		fmt.Fprintf(&b, "reference: %s\n", p.PreferenceReference)
	}
	if p.PayerEmail != "" {
		fmt.Fprintf(&b, "payer: %s\n", p.PayerEmail)
	}
	return strings.TrimRight(b.String(), "\n")
}
