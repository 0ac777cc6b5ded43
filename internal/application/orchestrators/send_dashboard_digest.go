package orchestrators

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	emailAdapter "society/internal/adapters/email"
	"society/internal/application/projections"
	"society/internal/domain/digest"
)

// digestMarkdown renders digest bodies. Raw HTML in the input stays escaped.
var digestMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.Table),
	goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()),
)

// DefaultDigestSubject is used when the input names no subject.
const DefaultDigestSubject = "Society dashboard summary"

// DigestStoreForOrchestrator records sent digests.
type DigestStoreForOrchestrator interface {
	Save(ctx context.Context, r digest.Record) error
}

// SendDashboardDigestInput carries input for SendDashboardDigest.
type SendDashboardDigestInput struct {
	Recipients []string
	Subject    string // optional
	Trigger    string // digest.TriggerScheduled or digest.TriggerManual
}

// SendDashboardDigestDeps holds dependencies for SendDashboardDigest.
type SendDashboardDigestDeps struct {
	LoadStats   func(ctx context.Context) (projections.DashboardStats, error)
	Sender      emailAdapter.Sender
	DigestStore DigestStoreForOrchestrator
	GenerateID  func() string
	Now         func() time.Time
}

// ExecuteSendDashboardDigest emails the current dashboard figures and logs the send.
// PRE: at least one recipient
// POST: Email handed to the sender; a digest.Record with the provider message ID is stored
func ExecuteSendDashboardDigest(ctx context.Context, input SendDashboardDigestInput, deps SendDashboardDigestDeps) (digest.Record, error) {
	recipients := cleanRecipients(input.Recipients)
	if len(recipients) == 0 {
		return digest.Record{}, digest.ErrNoRecipients
	}
	subject := input.Subject
	if subject == "" {
		subject = DefaultDigestSubject
	}

	stats, err := deps.LoadStats(ctx)
	if err != nil {
		return digest.Record{}, fmt.Errorf("load dashboard stats: %w", err)
	}

	md := DigestMarkdown(stats)
	var html bytes.Buffer
	if err := digestMarkdown.Convert([]byte(md), &html); err != nil {
		return digest.Record{}, fmt.Errorf("render digest: %w", err)
	}

	sent, err := deps.Sender.Send(ctx, emailAdapter.SendRequest{
		To:      recipients,
		Subject: subject,
		HTML:    html.String(),
		Text:    md,
	})
	if err != nil {
		return digest.Record{}, err
	}

	record := digest.Record{
		ID:         deps.GenerateID(),
		Subject:    subject,
		Recipients: recipients,
		Total:      stats.Total,
		MessageID:  sent.MessageID,
		Trigger:    input.Trigger,
		SentAt:     deps.Now(),
	}
	if err := record.Validate(); err != nil {
		return digest.Record{}, err
	}
	if err := deps.DigestStore.Save(ctx, record); err != nil {
		// email is already out; the record still carries the message ID
		slog.Error("digest_log_failed", "message_id", sent.MessageID, "error", err)
		return record, err
	}

	slog.Info("digest_sent", "trigger", record.Trigger, "recipients", len(recipients), "total", stats.Total)
	return record, nil
}

// DigestMarkdown formats the dashboard statistics as Markdown.
// Only non-empty categories are listed, in chart order.
func DigestMarkdown(stats projections.DashboardStats) string {
	var b strings.Builder
	b.WriteString("# Dashboard summary\n\n")
	if !stats.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "Figures as of %s.\n\n", stats.GeneratedAt.Format("2 January 2006 15:04"))
	}
	if stats.Total == 0 {
		b.WriteString("No content yet.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "**%d** items in total.\n\n", stats.Total)
	b.WriteString("| Category | Count | Share |\n")
	b.WriteString("| --- | ---: | ---: |\n")
	for _, row := range stats.Rows {
		if row.Count == 0 {
			continue
		}
		fmt.Fprintf(&b, "| %s | %d | %.1f%% |\n", row.Label, row.Count, row.Percentage)
	}
	return b.String()
}

func cleanRecipients(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, r := range in {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" || !strings.Contains(r, "@") || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
