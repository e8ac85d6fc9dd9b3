package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"CompetitorWatch/internal/domain"
	"CompetitorWatch/internal/ports"
)

// Notifier delivers pipeline messages to a Telegram chat via the bot API.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

var _ ports.Notifier = (*Notifier)(nil)

// New authorizes the bot and resolves the target chat.
func New(botToken, chatID string) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("authorize telegram bot: %w", err)
	}

	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}

	return &Notifier{api: api, chatID: id}, nil
}

// NotifySystem posts a startup/system notice.
func (n *Notifier) NotifySystem(_ context.Context, severity ports.Severity, message string) error {
	text := fmt.Sprintf("%s %s", severityBadge(severity), message)
	_, err := n.api.Send(tgbotapi.NewMessage(n.chatID, text))
	if err != nil {
		return fmt.Errorf("send system notice: %w", err)
	}
	return nil
}

// NotifyHighImpact posts an immediate alert for one classified update.
func (n *Notifier) NotifyHighImpact(_ context.Context, alert ports.Alert) error {
	var b strings.Builder
	fmt.Fprintf(&b, "🚨 *%s* shipped a %s-impact %s change\n\n", escapeMarkdown(alert.Competitor), alert.Impact, alert.Category)
	fmt.Fprintf(&b, "*%s*\n%s\n", escapeMarkdown(alert.Title), escapeMarkdown(alert.Summary))
	if alert.URL != "" {
		fmt.Fprintf(&b, "\n%s", alert.URL)
	}

	msg := tgbotapi.NewMessage(n.chatID, b.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send high-impact alert: %w", err)
	}
	return nil
}

// DeliverDigest posts the weekly rollup and returns a delivery reference.
func (n *Notifier) DeliverDigest(_ context.Context, digest domain.Digest) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", escapeMarkdown(digest.Title))
	fmt.Fprintf(&b, "_%s to %s, %d updates, %d high impact_\n\n",
		digest.WindowStart.Format("Jan 2"), digest.WindowEnd.Format("Jan 2"),
		digest.TotalUpdates, digest.HighImpactCount)
	b.WriteString(digest.Content)

	msg := tgbotapi.NewMessage(n.chatID, b.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	sent, err := n.api.Send(msg)
	if err != nil {
		return "", fmt.Errorf("deliver digest: %w", err)
	}
	return fmt.Sprintf("telegram:%d", sent.MessageID), nil
}

func severityBadge(severity ports.Severity) string {
	switch severity {
	case ports.SeverityError:
		return "🔴"
	case ports.SeverityWarning:
		return "⚠️"
	default:
		return "ℹ️"
	}
}

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer("_", "\\_", "*", "\\*", "[", "\\[", "`", "\\`")
	return replacer.Replace(s)
}
