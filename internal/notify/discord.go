package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"trendbuild/internal/breaker"
	"trendbuild/internal/domain"
	"trendbuild/internal/observability"
)

const (
	summaryColor    = 3447003
	captionMaxRunes = 80
	creatorMaxRunes = 20
)

// EmbedField is one name/value row of an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// EmbedFooter is the small text line under an embed.
type EmbedFooter struct {
	Text string `json:"text"`
}

// Embed is one chat message card.
type Embed struct {
	Title     string       `json:"title"`
	Color     int          `json:"color"`
	URL       string       `json:"url,omitempty"`
	Fields    []EmbedField `json:"fields"`
	Footer    EmbedFooter  `json:"footer"`
	Timestamp string       `json:"timestamp"`
}

// WebhookPayload is the webhook request body.
type WebhookPayload struct {
	Embeds []Embed `json:"embeds"`
}

// Discord posts embeds to a chat webhook.
type Discord struct {
	client  *resty.Client
	url     string
	footer  string
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  zerolog.Logger
}

// NewDiscord creates a webhook sink.
func NewDiscord(cfg DiscordConfig, logger *zerolog.Logger) *Discord {
	log := zerolog.Nop()
	if logger != nil {
		log = logger.With().Str("component", "discord").Logger()
	}

	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Content-Type", "application/json")

	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Discord{
		client:  client,
		url:     cfg.WebhookURL,
		footer:  cfg.Footer,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst),
		breaker: breaker.New[struct{}]("discord", cfg.Breaker, &log, observability.RecordBreakerState),
		logger:  log,
	}
}

// NotifyAlert posts the trend alert embed.
func (d *Discord) NotifyAlert(ctx context.Context, alert domain.Alert) error {
	return d.post(ctx, AlertEmbed(alert, d.footer))
}

// NotifySummary posts the cycle summary embed.
func (d *Discord) NotifySummary(ctx context.Context, summary domain.CycleSummary) error {
	return d.post(ctx, SummaryEmbed(summary, d.footer))
}

func (d *Discord) post(ctx context.Context, e Embed) error {
	body, err := json.Marshal(WebhookPayload{Embeds: []Embed{e}})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("discord rate limit: %w", err)
	}

	_, err = d.breaker.Execute(func() (struct{}, error) {
		resp, err := d.client.R().
			SetContext(ctx).
			SetBody(body).
			Post(d.url)
		if err != nil {
			return struct{}{}, err
		}
		if resp.IsError() {
			return struct{}{}, fmt.Errorf("unexpected status %d", resp.StatusCode())
		}
		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	d.logger.Debug().Str("title", e.Title).Msg("webhook delivered")
	return nil
}

// AlertEmbed renders an alert.
func AlertEmbed(a domain.Alert, footer string) Embed {
	category := "📱 NON-AI"
	if a.IsAI {
		category = "🤖 AI"
	}
	delta := 0.0
	if a.Check.DeltaShares != nil {
		delta = *a.Check.DeltaShares
	}
	creator := a.Creator
	if creator == "" {
		creator = "Unknown"
	}

	return Embed{
		Title: "🚀 TREND ALERT: BUILD NOW - " + a.Priority.Label(),
		Color: a.Priority.Color(),
		URL:   a.URL,
		Fields: []EmbedField{
			{Name: "Trend", Value: Truncate(a.Caption, captionMaxRunes)},
			{Name: "Market", Value: a.Market.Label(), Inline: true},
			{Name: "Category", Value: category, Inline: true},
			{Name: "Creator", Value: headRunes(creator, creatorMaxRunes), Inline: true},
			{Name: "Age", Value: strconv.FormatFloat(a.Check.AgeHours, 'f', 1, 64) + "h", Inline: true},
			{Name: "Momentum", Value: Thousands(a.Check.Momentum), Inline: true},
			{Name: "Shares/h", Value: strconv.FormatFloat(a.Check.SharesPerHour, 'f', 1, 64), Inline: true},
			{Name: "Δ Shares/h", Value: fmt.Sprintf("+%.1f", delta), Inline: true},
			{Name: "Views/h", Value: Thousands(a.Check.ViewsPerHour), Inline: true},
		},
		Footer:    EmbedFooter{Text: footer},
		Timestamp: a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// SummaryEmbed renders a cycle summary.
func SummaryEmbed(s domain.CycleSummary, footer string) Embed {
	return Embed{
		Title: "📊 Micro-Polling Summary",
		Color: summaryColor,
		Fields: []EmbedField{
			{Name: "New Candidates", Value: strconv.Itoa(s.Admitted), Inline: true},
			{Name: "Alerts Sent", Value: strconv.Itoa(s.AlertsSent), Inline: true},
			{Name: "Removed", Value: strconv.Itoa(s.Removed), Inline: true},
			{Name: "Total Tracked", Value: fmt.Sprintf("%d/%d", s.TotalTracked, s.Capacity), Inline: true},
		},
		Footer:    EmbedFooter{Text: footer},
		Timestamp: s.FinishedAt.UTC().Format(time.RFC3339),
	}
}

// Truncate shortens text to max runes with a trailing "...".
// Empty text renders as "(no description)".
func Truncate(text string, max int) string {
	if text == "" {
		return "(no description)"
	}
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max-3]) + "..."
}

func headRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Thousands formats the integer part of v with comma separators.
func Thousands(v float64) string {
	s := strconv.FormatInt(int64(v), 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

var _ Notifier = (*Discord)(nil)
