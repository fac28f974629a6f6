package source

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ahogan/jobhunter/internal/job"
)

const usajobsBaseURL = "https://data.usajobs.gov/api/search"

// USAJobs queries the federal government job API directly. Unlike the
// scraped boards it returns structured records, so Fetch and Normalize
// share a typed response instead of a loose payload map.
type USAJobs struct {
	client *resty.Client
}

func NewUSAJobs(email, apiKey string) *USAJobs {
	client := resty.New().
		SetHeader("Host", "data.usajobs.gov").
		SetHeader("User-Agent", email).
		SetHeader("Authorization-Key", apiKey).
		SetTimeout(30 * time.Second)
	return &USAJobs{client: client}
}

func (u *USAJobs) Name() job.Source { return job.SourceUSAJobs }

type usajobsResponse struct {
	SearchResult struct {
		SearchResultItems []struct {
			MatchedObjectDescriptor map[string]any `json:"MatchedObjectDescriptor"`
		} `json:"SearchResultItems"`
	} `json:"SearchResult"`
}

func (u *USAJobs) Fetch(ctx context.Context, query Query, location string, maxItems int) ([]job.RawItem, error) {
	perPage := maxItems
	if perPage <= 0 || perPage > 25 {
		perPage = 25
	}

	var result usajobsResponse
	resp, err := u.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"Keyword":        query.Text,
			"LocationName":   location,
			"ResultsPerPage": fmt.Sprintf("%d", perPage),
			"DatePosted":     "1",
		}).
		SetResult(&result).
		Get(usajobsBaseURL)
	if err != nil {
		return nil, fmt.Errorf("usajobs search: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("usajobs search: status %s", resp.Status())
	}

	items := make([]job.RawItem, 0, len(result.SearchResult.SearchResultItems))
	for _, it := range result.SearchResult.SearchResultItems {
		if it.MatchedObjectDescriptor == nil {
			continue
		}
		items = append(items, job.RawItem{Source: job.SourceUSAJobs, Payload: it.MatchedObjectDescriptor})
	}
	return items, nil
}

type usajobsDescriptor struct {
	PositionID       string `json:"PositionID"`
	PositionURI      string `json:"PositionURI"`
	PositionTitle    string `json:"PositionTitle"`
	OrganizationName string `json:"OrganizationName"`
	DepartmentName   string `json:"DepartmentName"`
	PositionLocation []struct {
		LocationName string `json:"LocationName"`
	} `json:"PositionLocation"`
	PositionRemuneration []struct {
		MinimumRange string `json:"MinimumRange"`
		MaximumRange string `json:"MaximumRange"`
		Description  string `json:"Description"`
	} `json:"PositionRemuneration"`
	PublicationStartDate string `json:"PublicationStartDate"`
	QualificationSummary string `json:"QualificationSummary"`
	UserArea             struct {
		Details struct {
			JobSummary string `json:"JobSummary"`
		} `json:"Details"`
	} `json:"UserArea"`
}

func (u *USAJobs) Normalize(item job.RawItem, hint job.RoleCategory, capturedAt time.Time) (*job.Posting, bool) {
	var raw usajobsDescriptor
	if err := decodeItem(item.Payload, &raw); err != nil {
		return nil, false
	}
	if raw.PositionURI == "" || raw.PositionTitle == "" {
		return nil, false
	}

	var location string
	if len(raw.PositionLocation) > 0 {
		location = raw.PositionLocation[0].LocationName
	}

	var salary string
	if len(raw.PositionRemuneration) > 0 {
		r := raw.PositionRemuneration[0]
		if r.MinimumRange != "" && r.MaximumRange != "" {
			salary = fmt.Sprintf("$%s - $%s %s", r.MinimumRange, r.MaximumRange, r.Description)
		}
	}

	return &job.Posting{
		Source:       job.SourceUSAJobs,
		ExternalID:   raw.PositionID,
		URL:          raw.PositionURI,
		Title:        raw.PositionTitle,
		Company:      firstNonEmpty(raw.OrganizationName, raw.DepartmentName),
		Location:     location,
		SalaryRange:  salary,
		PostedAt:     parsePostedAt(raw.PublicationStartDate, capturedAt),
		CapturedAt:   capturedAt,
		Description:  firstNonEmpty(raw.UserArea.Details.JobSummary, raw.QualificationSummary),
		CompanySize:  "government",
		RoleCategory: hint,
	}, true
}
