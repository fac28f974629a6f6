package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahogan/jobhunter/internal/job"
)

func TestParsePostedAt(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"empty", "", now},
		{"hours ago", "2 hours ago", now.Add(-2 * time.Hour)},
		{"single hour", "1 hour ago", now.Add(-time.Hour)},
		{"days ago", "3 days ago", now.Add(-3 * 24 * time.Hour)},
		{"weeks ago", "1 week ago", now.Add(-7 * 24 * time.Hour)},
		{"months ago", "2 months ago", now.Add(-60 * 24 * time.Hour)},
		{"just now", "Just now", now},
		{"today", "today", now},
		{"rfc3339", "2026-03-09T08:30:00Z", time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)},
		{"date only", "2026-03-08", time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)},
		{"garbage", "whenever", now},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parsePostedAt(tc.raw, now))
		})
	}
}

func TestLinkedInNormalize(t *testing.T) {
	l := &LinkedIn{}
	now := time.Now().UTC()

	posting, ok := l.Normalize(job.RawItem{
		Source: job.SourceLinkedIn,
		Payload: map[string]any{
			"link":        "https://linkedin.com/jobs/view/123",
			"title":       "Director of Strategy",
			"companyName": "Acme",
			"postedAt":    "5 hours ago",
			"description": "Lead the strategy team.",
		},
	}, job.CategoryStrategic, now)
	require.True(t, ok)

	assert.Equal(t, "https://linkedin.com/jobs/view/123", posting.URL)
	assert.Equal(t, "Acme", posting.Company)
	assert.Equal(t, job.CategoryStrategic, posting.RoleCategory)
	assert.Equal(t, now.Add(-5*time.Hour), posting.PostedAt)
}

func TestNormalizeDropsIncompleteItems(t *testing.T) {
	now := time.Now().UTC()

	adapters := []Adapter{&LinkedIn{}, &Indeed{}, &Glassdoor{}}
	for _, a := range adapters {
		t.Run(string(a.Name()), func(t *testing.T) {
			_, ok := a.Normalize(job.RawItem{
				Source:  a.Name(),
				Payload: map[string]any{"title": "No URL Here"},
			}, job.CategoryOther, now)
			assert.False(t, ok, "item without url must be dropped")

			_, ok = a.Normalize(job.RawItem{
				Source:  a.Name(),
				Payload: map[string]any{"url": "https://example.com/job/1"},
			}, job.CategoryOther, now)
			assert.False(t, ok, "item without title must be dropped")
		})
	}
}

func TestIndeedNormalizeFallbackFields(t *testing.T) {
	i := &Indeed{}
	now := time.Now().UTC()

	posting, ok := i.Normalize(job.RawItem{
		Source: job.SourceIndeed,
		Payload: map[string]any{
			"jobKey":       "abc123",
			"link":         "https://indeed.com/viewjob?jk=abc123",
			"positionName": "Program Manager",
			"companyName":  "Initech",
			"salaryText":   "$120k - $150k",
		},
	}, job.CategoryProgram, now)
	require.True(t, ok)

	assert.Equal(t, "abc123", posting.ExternalID)
	assert.Equal(t, "Program Manager", posting.Title)
	assert.Equal(t, "$120k - $150k", posting.SalaryRange)
}

func TestGlassdoorSalaryFromRange(t *testing.T) {
	g := &Glassdoor{}
	now := time.Now().UTC()

	posting, ok := g.Normalize(job.RawItem{
		Source: job.SourceGlassdoor,
		Payload: map[string]any{
			"jobLink":   "https://glassdoor.com/job/1",
			"jobTitle":  "Sourcing Lead",
			"employer":  "Globex",
			"minSalary": 100000,
			"maxSalary": 140000,
		},
	}, job.CategoryProcurement, now)
	require.True(t, ok)
	assert.Equal(t, "$100000 - $140000", posting.SalaryRange)
}

func TestUSAJobsNormalize(t *testing.T) {
	u := &USAJobs{}
	now := time.Now().UTC()

	posting, ok := u.Normalize(job.RawItem{
		Source: job.SourceUSAJobs,
		Payload: map[string]any{
			"PositionID":       "GS-2026-001",
			"PositionURI":      "https://www.usajobs.gov/job/812345",
			"PositionTitle":    "Supervisory Program Manager",
			"OrganizationName": "Department of Energy",
			"PositionLocation": []any{
				map[string]any{"LocationName": "Portland, OR"},
			},
			"PositionRemuneration": []any{
				map[string]any{"MinimumRange": "120000", "MaximumRange": "155000", "Description": "Per Year"},
			},
			"PublicationStartDate": "2026-03-09",
			"UserArea": map[string]any{
				"Details": map[string]any{"JobSummary": "Oversee a portfolio of programs."},
			},
		},
	}, job.CategoryProgram, now)
	require.True(t, ok)

	assert.Equal(t, "Department of Energy", posting.Company)
	assert.Equal(t, "Portland, OR", posting.Location)
	assert.Equal(t, "$120000 - $155000 Per Year", posting.SalaryRange)
	assert.Equal(t, "government", posting.CompanySize)
	assert.Equal(t, "Oversee a portfolio of programs.", posting.Description)
}
