package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/practicebot/internal/logger"
	"github.com/example/practicebot/internal/notify"
	"github.com/example/practicebot/internal/practice"
	"github.com/example/practicebot/internal/spaced_repetition"
	"github.com/example/practicebot/pkg/models"
)

// dueListed caps the /due listing.
const dueListed = 10

// Practice is the part of practice.Service the bot drives.
type Practice interface {
	DueSpots(ctx context.Context) ([]models.Spot, error)
	Summary(ctx context.Context) (spaced_repetition.Summary, error)
	BuildSession(ctx context.Context, req practice.SessionRequest) (practice.Session, error)
	RecordPractice(ctx context.Context, spotID int64, outcome models.Outcome, minutes int) (models.Spot, error)
}

// Bot answers practice commands in the owner's chat.
type Bot struct {
	api    *tgbotapi.BotAPI
	svc    Practice
	chatID int64
	log    *logger.Logger
	now    func() time.Time
	loc    *time.Location
}

// New creates a bot that only listens to chatID.
func New(api *tgbotapi.BotAPI, svc Practice, chatID int64, log *logger.Logger) *Bot {
	if log == nil {
		log = logger.Nop()
	}
	return &Bot{api: api, svc: svc, chatID: chatID, log: log, now: time.Now, loc: time.Local}
}

// Run handles updates until ctx is done.
func (b *Bot) Run(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)
	b.log.Info("bot listening", "account", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || !msg.IsCommand() {
		return
	}
	if msg.Chat.ID != b.chatID {
		b.log.Warn("ignoring command from unknown chat", "chat_id", msg.Chat.ID)
		return
	}
	text := b.reply(ctx, msg.Command(), msg.CommandArguments())
	if _, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, text)); err != nil {
		b.log.Error("failed to send reply", "command", msg.Command(), "error", err)
	}
}

// reply runs one command and returns the text to send back.
func (b *Bot) reply(ctx context.Context, command, args string) string {
	var (
		text string
		err  error
	)
	switch command {
	case "start", "help":
		return helpText
	case "due":
		text, err = b.handleDue(ctx)
	case "summary":
		text, err = b.handleSummary(ctx)
	case "session":
		text, err = b.handleSession(ctx, strings.Fields(args))
	case "done":
		text, err = b.handleDone(ctx, strings.Fields(args))
	default:
		return "Unknown command. Use /help to see what I can do."
	}
	if err != nil {
		b.log.Error("command failed", "command", command, "args", args, "error", err)
		return "Sorry, that did not work: " + err.Error()
	}
	return text
}

const helpText = `Commands:
/due - spots waiting for practice
/session [mode] [minutes] - plan a session (critical, balanced, maintenance, smart)
/done <spot> <failed|struggled|good|excellent> [minutes] - record an attempt
/summary - overview of all spots`

func (b *Bot) handleDue(ctx context.Context) (string, error) {
	due, err := b.svc.DueSpots(ctx)
	if err != nil {
		return "", err
	}
	if len(due) == 0 {
		return "Nothing is due. Enjoy the music.", nil
	}
	// Same order with or without a deadline; the bonus is shared by every spot.
	ranked := spaced_repetition.RankByUrgency(due, nil, b.now())
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d due:", len(due))
	for i, r := range ranked {
		if i == dueListed {
			fmt.Fprintf(&sb, "\n...and %d more", len(ranked)-dueListed)
			break
		}
		fmt.Fprintf(&sb, "\n%s [%d]", notify.SpotLine(r.Spot), r.Spot.ID)
	}
	return sb.String(), nil
}

func (b *Bot) handleSummary(ctx context.Context) (string, error) {
	sum, err := b.svc.Summary(ctx)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d spots, %d due, %d overdue", sum.Total, sum.Due, sum.Overdue)
	for _, c := range models.Colors() {
		if n := sum.ByColor[c]; n > 0 {
			fmt.Fprintf(&sb, "\n%s: %d", c, n)
		}
	}
	return sb.String(), nil
}

func (b *Bot) handleSession(ctx context.Context, args []string) (string, error) {
	req := practice.SessionRequest{Mode: spaced_repetition.ModeSmart}
	for _, a := range args {
		if n, err := strconv.Atoi(a); err == nil {
			req.BudgetMinutes = n
			continue
		}
		mode, err := spaced_repetition.ParseMode(a)
		if err != nil {
			return "", err
		}
		req.Mode = mode
	}

	s, err := b.svc.BuildSession(ctx, req)
	if err != nil {
		return "", err
	}
	if s.Budget <= 0 {
		return "No concert sets a daily budget. Add the minutes, e.g. /session 20", nil
	}
	if len(s.Spots) == 0 {
		return fmt.Sprintf("No %s spots to practice right now.", s.Mode), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s session, %d of %d min:", s.Mode, s.TotalMinutes, s.Budget)
	for i, sp := range s.Spots {
		fmt.Fprintf(&sb, "\n%d. %s [%d] %d min", i+1, notify.SpotLine(sp), sp.ID, sp.EffectiveMinutes())
	}
	return sb.String(), nil
}

func (b *Bot) handleDone(ctx context.Context, args []string) (string, error) {
	if len(args) < 2 || len(args) > 3 {
		return "Usage: /done <spot> <outcome> [minutes]", nil
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid spot id %q", args[0])
	}
	outcome, err := models.ParseOutcome(args[1])
	if err != nil {
		return "", err
	}
	minutes := 0
	if len(args) == 3 {
		if minutes, err = strconv.Atoi(args[2]); err != nil || minutes < 0 {
			return "", fmt.Errorf("invalid minutes %q", args[2])
		}
	}

	sp, err := b.svc.RecordPractice(ctx, id, outcome, minutes)
	if err != nil {
		return "", err
	}
	next := "soon"
	if sp.NextDue != nil {
		next = sp.NextDue.In(b.loc).Format("Mon Jan 2 15:04")
	}
	return fmt.Sprintf("Recorded %s. %s is now %s (%s), next practice %s.",
		outcome, notify.SpotLine(sp), sp.Readiness, sp.Color, next), nil
}
