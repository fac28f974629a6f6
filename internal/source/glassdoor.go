package source

import (
	"context"
	"fmt"
	"time"

	"github.com/ahogan/jobhunter/internal/job"
)

const glassdoorActor = "bebity/glassdoor-scraper"

// Glassdoor scrapes Glassdoor listings through an Apify actor.
type Glassdoor struct {
	apify *ApifyClient
}

func NewGlassdoor(apify *ApifyClient) *Glassdoor {
	return &Glassdoor{apify: apify}
}

func (g *Glassdoor) Name() job.Source { return job.SourceGlassdoor }

func (g *Glassdoor) Fetch(ctx context.Context, query Query, location string, maxItems int) ([]job.RawItem, error) {
	items, err := g.apify.RunActor(ctx, glassdoorActor, map[string]any{
		"keyword":               query.Text,
		"location":              location,
		"maxItems":              maxItems,
		"includeJobDescription": true,
	})
	if err != nil {
		return nil, err
	}
	return tagItems(job.SourceGlassdoor, items), nil
}

type glassdoorItem struct {
	ID             string  `json:"id"`
	JobID          string  `json:"jobId"`
	URL            string  `json:"url"`
	JobLink        string  `json:"jobLink"`
	JobTitle       string  `json:"jobTitle"`
	Title          string  `json:"title"`
	Employer       string  `json:"employer"`
	CompanyName    string  `json:"companyName"`
	Location       string  `json:"location"`
	SalaryRange    string  `json:"salaryRange"`
	MinSalary      float64 `json:"minSalary"`
	MaxSalary      float64 `json:"maxSalary"`
	PostedDate     string  `json:"postedDate"`
	Description    string  `json:"description"`
	JobDescription string  `json:"jobDescription"`
	CompanySize    string  `json:"companySize"`
}

func (g *Glassdoor) Normalize(item job.RawItem, hint job.RoleCategory, capturedAt time.Time) (*job.Posting, bool) {
	var raw glassdoorItem
	if err := decodeItem(item.Payload, &raw); err != nil {
		return nil, false
	}

	url := firstNonEmpty(raw.URL, raw.JobLink)
	title := firstNonEmpty(raw.JobTitle, raw.Title)
	if url == "" || title == "" {
		return nil, false
	}

	return &job.Posting{
		Source:       job.SourceGlassdoor,
		ExternalID:   firstNonEmpty(raw.ID, raw.JobID),
		URL:          url,
		Title:        title,
		Company:      firstNonEmpty(raw.Employer, raw.CompanyName),
		Location:     raw.Location,
		SalaryRange:  glassdoorSalary(raw),
		PostedAt:     parsePostedAt(raw.PostedDate, capturedAt),
		CapturedAt:   capturedAt,
		Description:  firstNonEmpty(raw.Description, raw.JobDescription),
		CompanySize:  raw.CompanySize,
		RoleCategory: hint,
	}, true
}

func glassdoorSalary(raw glassdoorItem) string {
	if raw.SalaryRange != "" {
		return raw.SalaryRange
	}
	if raw.MinSalary > 0 && raw.MaxSalary > 0 {
		return fmt.Sprintf("$%.0f - $%.0f", raw.MinSalary, raw.MaxSalary)
	}
	return ""
}
