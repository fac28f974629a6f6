package digest

import (
	"fmt"
	"html/template"
	"strings"

	_ "embed"

	"github.com/ahogan/jobhunter/internal/job"
)

//go:embed template.html
var digestTemplate string

type cardData struct {
	Scored  *job.ScoredPosting
	Posting *job.Posting
	High    bool
}

func (c cardData) Location() string {
	if strings.TrimSpace(c.Posting.Location) == "" {
		return "Location N/A"
	}
	return c.Posting.Location
}

func (c cardData) Category() string {
	return c.Scored.RoleCategory.Label()
}

type pageData struct {
	*Digest
	HighScore int
	MinScore  int
	Footer    string
}

func (p pageData) Label() string { return p.Period.Label() }

func (p pageData) BelowHigh() int { return p.HighScore - 1 }

var tmpl = template.Must(template.New("digest").Funcs(template.FuncMap{
	"card": func(sp *job.ScoredPosting, high bool) cardData {
		return cardData{Scored: sp, Posting: sp.Posting, High: high}
	},
}).Parse(digestTemplate))

// Render produces the digest HTML body.
func Render(d *Digest, highScore, minScore int, footer string) (string, error) {
	var b strings.Builder
	err := tmpl.Execute(&b, pageData{Digest: d, HighScore: highScore, MinScore: minScore, Footer: footer})
	if err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return b.String(), nil
}

// Subject builds the digest email subject line.
func Subject(d *Digest) string {
	return fmt.Sprintf("%s Job Digest: %d high priority, %d medium", d.Period.Label(), len(d.High), len(d.Medium))
}
