package source

import (
	"context"
	"time"

	"github.com/ahogan/jobhunter/internal/job"
)

const linkedInActor = "anchor/linkedin-jobs-scraper"

// LinkedIn scrapes LinkedIn job search results through an Apify actor.
type LinkedIn struct {
	apify *ApifyClient
}

func NewLinkedIn(apify *ApifyClient) *LinkedIn {
	return &LinkedIn{apify: apify}
}

func (l *LinkedIn) Name() job.Source { return job.SourceLinkedIn }

func (l *LinkedIn) Fetch(ctx context.Context, query Query, location string, maxItems int) ([]job.RawItem, error) {
	items, err := l.apify.RunActor(ctx, linkedInActor, map[string]any{
		"searchQueries":    []string{query.Text},
		"location":         location,
		"maxItems":         maxItems,
		"scrapeJobDetails": true,
		"datePosted":       "past24hours",
	})
	if err != nil {
		return nil, err
	}
	return tagItems(job.SourceLinkedIn, items), nil
}

type linkedInItem struct {
	ID              string `json:"id"`
	JobID           string `json:"jobId"`
	Link            string `json:"link"`
	URL             string `json:"url"`
	Title           string `json:"title"`
	Company         string `json:"company"`
	CompanyName     string `json:"companyName"`
	Location        string `json:"location"`
	Salary          string `json:"salary"`
	PostedAt        string `json:"postedAt"`
	PublishedAt     string `json:"publishedAt"`
	Description     string `json:"description"`
	DescriptionText string `json:"descriptionText"`
	CompanySize     string `json:"companySize"`
}

func (l *LinkedIn) Normalize(item job.RawItem, hint job.RoleCategory, capturedAt time.Time) (*job.Posting, bool) {
	var raw linkedInItem
	if err := decodeItem(item.Payload, &raw); err != nil {
		return nil, false
	}

	url := firstNonEmpty(raw.Link, raw.URL)
	title := firstNonEmpty(raw.Title)
	if url == "" || title == "" {
		return nil, false
	}

	return &job.Posting{
		Source:       job.SourceLinkedIn,
		ExternalID:   firstNonEmpty(raw.ID, raw.JobID),
		URL:          url,
		Title:        title,
		Company:      firstNonEmpty(raw.Company, raw.CompanyName),
		Location:     raw.Location,
		SalaryRange:  raw.Salary,
		PostedAt:     parsePostedAt(firstNonEmpty(raw.PostedAt, raw.PublishedAt), capturedAt),
		CapturedAt:   capturedAt,
		Description:  firstNonEmpty(raw.Description, raw.DescriptionText),
		CompanySize:  raw.CompanySize,
		RoleCategory: hint,
	}, true
}

func tagItems(src job.Source, payloads []map[string]any) []job.RawItem {
	items := make([]job.RawItem, 0, len(payloads))
	for _, payload := range payloads {
		items = append(items, job.RawItem{Source: src, Payload: payload})
	}
	return items
}
