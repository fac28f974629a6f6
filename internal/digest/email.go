package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const resendEndpoint = "https://api.resend.com/emails"

// Mailer delivers digests through the Resend email API.
type Mailer struct {
	client *resty.Client
	from   string
	to     string
	footer string
	logger *zap.Logger

	highScore int
	minScore  int
}

type MailerConfig struct {
	APIKey    string
	From      string
	To        string
	Footer    string
	HighScore int
	MinScore  int
}

func NewMailer(cfg MailerConfig, log *zap.Logger) *Mailer {
	client := resty.New().
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)

	return &Mailer{
		client:    client,
		from:      cfg.From,
		to:        cfg.To,
		footer:    cfg.Footer,
		logger:    log,
		highScore: cfg.HighScore,
		minScore:  cfg.MinScore,
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send renders and delivers the digest. An empty digest is still sent:
// the "nothing found" email tells the reader the pipeline is alive.
func (m *Mailer) Send(ctx context.Context, d *Digest) error {
	html, err := Render(d, m.highScore, m.minScore, m.footer)
	if err != nil {
		return err
	}

	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(resendRequest{
			From:    m.from,
			To:      []string{m.to},
			Subject: Subject(d),
			HTML:    html,
		}).
		Post(resendEndpoint)
	if err != nil {
		return fmt.Errorf("send digest email: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("send digest email: status %s", resp.Status())
	}

	m.logger.Info("digest email sent",
		zap.String("period", string(d.Period)),
		zap.Int("high", len(d.High)),
		zap.Int("medium", len(d.Medium)),
	)
	return nil
}
