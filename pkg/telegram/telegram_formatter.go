package telegram

import (
	"fmt"
	"strings"
	"time"

	"credit-risk-monitor/internal/entity"
)

const maxMessageLen = 4090

// severityIcon maps alert severity to a leading emoji.
func severityIcon(s entity.Severity) string {
	switch s {
	case entity.SeverityCritical:
		return "🚨"
	case entity.SeverityHigh:
		return "🔴"
	case entity.SeverityMedium:
		return "🟠"
	default:
		return "🟡"
	}
}

// escapeMarkdown escapes the characters legacy Markdown mode treats as markup.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")
	return r.Replace(s)
}

// FormatAlertForTelegram renders one alert as a Markdown message.
func FormatAlertForTelegram(ticker string, a *entity.Alert) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s *%s* | %s\n", severityIcon(a.Severity), escapeMarkdown(ticker), strings.ToUpper(string(a.Severity))))
	sb.WriteString(fmt.Sprintf("*%s*\n", escapeMarkdown(a.Title)))
	sb.WriteString(escapeMarkdown(a.Message) + "\n")

	switch a.AlertType {
	case entity.AlertTypeScoreChange:
		if a.PreviousScore != nil && a.CurrentScore != nil {
			sb.WriteString(fmt.Sprintf("📊 *Score:* %.1f → %.1f\n", *a.PreviousScore, *a.CurrentScore))
		}
	case entity.AlertTypeNewsEvent:
		for _, ev := range a.RelatedEvents.Data() {
			sb.WriteString(fmt.Sprintf("📰 [%s](%s)\n", escapeMarkdown(ev.Headline), ev.URL))
		}
		if kw := a.Context.Data().Keywords; len(kw) > 0 {
			sb.WriteString(fmt.Sprintf("🔑 *Keywords:* %s\n", escapeMarkdown(strings.Join(kw, ", "))))
		}
	}

	sb.WriteString(fmt.Sprintf("🕒 %s\n", a.CreatedAt.UTC().Format(time.RFC1123)))
	return sb.String()
}

// FormatAlertsForTelegram renders several alerts of one company, splitting the
// output into messages that fit Telegram's size limit.
func FormatAlertsForTelegram(ticker string, alerts []*entity.Alert) []string {
	if len(alerts) == 0 {
		return nil
	}

	var (
		messages []string
		current  strings.Builder
	)
	for _, a := range alerts {
		entry := FormatAlertForTelegram(ticker, a) + "\n"
		if current.Len() > 0 && current.Len()+len(entry) > maxMessageLen {
			messages = append(messages, strings.TrimSpace(current.String()))
			current.Reset()
		}
		current.WriteString(entry)
	}
	if current.Len() > 0 {
		messages = append(messages, strings.TrimSpace(current.String()))
	}
	return messages
}
