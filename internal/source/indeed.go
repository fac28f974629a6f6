package source

import (
	"context"
	"time"

	"github.com/ahogan/jobhunter/internal/job"
)

const indeedActor = "misceres/indeed-scraper"

// Indeed scrapes Indeed search results through an Apify actor.
type Indeed struct {
	apify *ApifyClient
}

func NewIndeed(apify *ApifyClient) *Indeed {
	return &Indeed{apify: apify}
}

func (i *Indeed) Name() job.Source { return job.SourceIndeed }

func (i *Indeed) Fetch(ctx context.Context, query Query, location string, maxItems int) ([]job.RawItem, error) {
	items, err := i.apify.RunActor(ctx, indeedActor, map[string]any{
		"position":            query.Text,
		"location":            location,
		"maxItems":            maxItems,
		"parseCompanyDetails": true,
		"sortBy":              "date",
	})
	if err != nil {
		return nil, err
	}
	return tagItems(job.SourceIndeed, items), nil
}

type indeedItem struct {
	ID           string `json:"id"`
	JobKey       string `json:"jobKey"`
	URL          string `json:"url"`
	Link         string `json:"link"`
	Title        string `json:"title"`
	PositionName string `json:"positionName"`
	Company      string `json:"company"`
	CompanyName  string `json:"companyName"`
	Location     string `json:"location"`
	Salary       string `json:"salary"`
	SalaryText   string `json:"salaryText"`
	PostedAt     string `json:"postedAt"`
	Description  string `json:"description"`
}

func (i *Indeed) Normalize(item job.RawItem, hint job.RoleCategory, capturedAt time.Time) (*job.Posting, bool) {
	var raw indeedItem
	if err := decodeItem(item.Payload, &raw); err != nil {
		return nil, false
	}

	url := firstNonEmpty(raw.URL, raw.Link)
	title := firstNonEmpty(raw.Title, raw.PositionName)
	if url == "" || title == "" {
		return nil, false
	}

	return &job.Posting{
		Source:       job.SourceIndeed,
		ExternalID:   firstNonEmpty(raw.ID, raw.JobKey),
		URL:          url,
		Title:        title,
		Company:      firstNonEmpty(raw.Company, raw.CompanyName),
		Location:     raw.Location,
		SalaryRange:  firstNonEmpty(raw.Salary, raw.SalaryText),
		PostedAt:     parsePostedAt(raw.PostedAt, capturedAt),
		CapturedAt:   capturedAt,
		Description:  raw.Description,
		RoleCategory: hint,
	}, true
}
