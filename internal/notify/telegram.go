package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/practicebot/internal/logger"
	"github.com/example/practicebot/internal/scheduler"
	"github.com/example/practicebot/pkg/models"
)

// Sender is the part of *tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends reminders to a single chat.
type TelegramNotifier struct {
	api    Sender
	chatID int64
	log    *logger.Logger
}

var _ scheduler.Notifier = (*TelegramNotifier)(nil)

// NewTelegram sends reminders through api to chatID.
func NewTelegram(api Sender, chatID int64, log *logger.Logger) *TelegramNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &TelegramNotifier{api: api, chatID: chatID, log: log}
}

// SendReminder posts the reminder text to the configured chat.
func (n *TelegramNotifier) SendReminder(ctx context.Context, r scheduler.Reminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, formatReminder(r))
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder to chat %d: %w", n.chatID, err)
	}
	n.log.Debug("telegram reminder delivered", "chat_id", n.chatID, "due", r.Due)
	return nil
}

func formatReminder(r scheduler.Reminder) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s due for practice", r.Due, plural(r.Due, "spot", "spots"))
	if r.Overdue > 0 {
		fmt.Fprintf(&b, " (%d overdue)", r.Overdue)
	}
	b.WriteString(".")
	if len(r.Top) > 0 {
		b.WriteString("\n\nStart with:")
		for _, sp := range r.Top {
			b.WriteString("\n" + SpotLine(sp))
		}
	}
	return b.String()
}

// SpotLine renders a spot as one chat line with its color marker.
func SpotLine(sp models.Spot) string {
	return colorMark(sp.Color) + " " + spotName(sp)
}

func spotName(sp models.Spot) string {
	if l := strings.TrimSpace(sp.Label); l != "" {
		return fmt.Sprintf("%s (p. %d)", l, sp.Page)
	}
	return fmt.Sprintf("spot #%d (p. %d)", sp.ID, sp.Page)
}

func colorMark(c models.Color) string {
	switch c {
	case models.Red:
		return "🔴"
	case models.Yellow:
		return "🟡"
	case models.Green:
		return "🟢"
	case models.Blue:
		return "🔵"
	}
	return "⚪"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
