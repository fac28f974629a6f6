// Package notify dispatches scored postings to Discord channels: every
// scored posting goes to the feed channel, and hot high-fit postings
// additionally trigger an alert channel ping.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ahogan/jobhunter/internal/job"
)

const (
	colorAlert = 0xff6b6b
	colorFeed  = 0x4ecdc4

	maxReasoningChars = 1000
	maxEmbedBullets   = 5
)

// embed and embedField mirror the Discord webhook payload shape.
type embed struct {
	Title       string       `json:"title,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color,omitempty"`
	Description string       `json:"description,omitempty"`
	Fields      []embedField `json:"fields,omitempty"`
	Footer      *embedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type webhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []embed `json:"embeds"`
}

// Webhook posts embeds to the two configured Discord channels. An empty
// URL disables that channel.
type Webhook struct {
	client   *resty.Client
	feedURL  string
	alertURL string
}

func NewWebhook(feedURL, alertURL string) *Webhook {
	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)
	return &Webhook{client: client, feedURL: feedURL, alertURL: alertURL}
}

// SendFeed posts the posting to the all-jobs channel.
func (w *Webhook) SendFeed(ctx context.Context, sp *job.ScoredPosting) error {
	if w.feedURL == "" {
		return nil
	}

	p := sp.Posting
	emoji := "📋"
	color := colorFeed
	if sp.PriorityTier == job.PriorityHigh {
		emoji = "🔥"
		color = colorAlert
	}

	payload := webhookPayload{
		Content: fmt.Sprintf("%s New %s priority job", emoji, sp.PriorityTier),
		Embeds: []embed{{
			Title:       p.Title,
			URL:         p.URL,
			Color:       color,
			Description: fmt.Sprintf("**%s** • %s", p.Company, orDefault(p.Location, "Location N/A")),
			Fields: []embedField{
				{Name: "Score", Value: fmt.Sprintf("%d/100", sp.FitScore), Inline: true},
				{Name: "Category", Value: sp.RoleCategory.Label(), Inline: true},
				{Name: "Salary", Value: orDefault(p.SalaryRange, "N/A"), Inline: true},
			},
			Footer: &embedFooter{Text: fmt.Sprintf("%s | %s", p.Source, formatTimeAgo(p.PostedAt, time.Now()))},
		}},
	}

	return w.post(ctx, w.feedURL, payload)
}

// SendAlert posts the posting to the high-priority channel.
func (w *Webhook) SendAlert(ctx context.Context, sp *job.ScoredPosting) error {
	if w.alertURL == "" {
		return nil
	}

	p := sp.Posting
	payload := webhookPayload{
		Content: fmt.Sprintf("🔥 **HIGH MATCH (Score: %d)**", sp.FitScore),
		Embeds: []embed{{
			Title: p.Title,
			URL:   p.URL,
			Color: colorAlert,
			Fields: []embedField{
				{Name: "Company", Value: orDefault(p.Company, "Unknown"), Inline: true},
				{Name: "Location", Value: orDefault(p.Location, "Not specified"), Inline: true},
				{Name: "Fit Score", Value: fmt.Sprintf("%d/100", sp.FitScore), Inline: true},
				{Name: "Salary", Value: orDefault(p.SalaryRange, "Not specified"), Inline: true},
				{Name: "Category", Value: sp.RoleCategory.Label(), Inline: true},
				{Name: "Ghost Risk", Value: fmt.Sprintf("%d%%", sp.GhostJobLikelihood), Inline: true},
				{Name: "Why This Fits", Value: orDefault(clip(sp.AIReasoning, maxReasoningChars), "No analysis available")},
				{Name: "Key Requirements", Value: orDefault(bullets(sp.KeyRequirements, maxEmbedBullets), "Not specified")},
			},
			Footer:    &embedFooter{Text: fmt.Sprintf("Source: %s | Posted: %s", p.Source, formatTimeAgo(p.PostedAt, time.Now()))},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}},
	}

	return w.post(ctx, w.alertURL, payload)
}

func (w *Webhook) post(ctx context.Context, url string, payload webhookPayload) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(url)
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("discord webhook: status %s", resp.Status())
	}
	return nil
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// clip cuts s to limit runes so a multi-byte character in the model's
// reasoning never gets split mid-sequence.
func clip(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func bullets(items []string, limit int) string {
	if len(items) > limit {
		items = items[:limit]
	}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "• "+item)
	}
	return strings.Join(lines, "\n")
}

func formatTimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	hours := int(now.Sub(t).Hours())
	switch {
	case hours < 1:
		return "Just now"
	case hours < 24:
		return fmt.Sprintf("%dh ago", hours)
	default:
		return fmt.Sprintf("%dd ago", hours/24)
	}
}
