package telegram

import (
	"context"
	"fmt"
	"strings"

	"regimath/backend/internal/logger"
	"regimath/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const maxListedOrphans = 20

// Updates is the part of the bot API used to receive commands.
type Updates interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Run answers operator commands until ctx is done. Messages from chats other
// than the operators' chat are ignored.
func (s *AlertService) Run(ctx context.Context, bot Updates) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			s.HandleCommand(ctx, update.Message)
		}
	}
}

// HandleCommand answers one operator command.
func (s *AlertService) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat.ID != s.OpsChatID {
		return
	}

	var reply string
	switch msg.Command() {
	case "orphans":
		reply = s.orphansReply(ctx)
	case "payment":
		reply = s.paymentReply(ctx, strings.TrimSpace(msg.CommandArguments()))
	default:
		reply = "Commands: /orphans, /payment <reference>"
	}

	if err := s.send(msg.Chat.ID, reply); err != nil {
		l := logger.Ctx(ctx)
		l.Error().Err(err).Str("command", msg.Command()).Msg("failed to answer operator command")
	}
}

func (s *AlertService) orphansReply(ctx context.Context) string {
	orphans, err := s.Ledger.ListOrphans(ctx)
	if err != nil {
		return "Could not read the ledger."
	}
	if len(orphans) == 0 {
		return "No orphan payment updates."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d orphan payment updates", len(orphans))
	if len(orphans) > maxListedOrphans {
		orphans = orphans[len(orphans)-maxListedOrphans:]
		fmt.Fprintf(&b, " (latest %d)", maxListedOrphans)
	}
	for _, o := range orphans {
		fmt.Fprintf(&b, "\n%s %s %s", o.ReceivedAt.Format("2006-01-02 15:04"), o.PaymentID, o.Status)
	}
	return b.String()
}

func (s *AlertService) paymentReply(ctx context.Context, ref string) string {
	if ref == "" {
		return "Usage: /payment <reference>"
	}
	rec, err := s.Ledger.GetByPreferenceReference(ctx, ref)
	if err != nil {
		return "Could not read the ledger."
	}
	if rec == nil {
		return "No payment with reference " + ref
	}
	return FormatRecord(rec)
}

// FormatRecord renders a ledger record.
func FormatRecord(rec *models.PaymentPreference) string {
	var b strings.Builder
	fmt.Fprintf(&b, "reference: %s\n", rec.PreferenceReference)
	fmt.Fprintf(&b, "status: %s\n", rec.Status)
	fmt.Fprintf(&b, "amount: %.2f\n", rec.Amount)
	if rec.RoomID != "" {
		fmt.Fprintf(&b, "room: %s\n", rec.RoomID)
	}
	if rec.PaymentID != "" {
		fmt.Fprintf(&b, "payment: %s\n", rec.PaymentID)
	}
	if rec.PayerEmail != "" {
		fmt.Fprintf(&b, "payer: %s\n", rec.PayerEmail)
	}
	return strings.TrimRight(b.String(), "\n")
}
