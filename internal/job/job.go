package job

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Source identifies the site a posting was captured from.
type Source string

const (
	SourceLinkedIn  Source = "linkedin"
	SourceIndeed    Source = "indeed"
	SourceGlassdoor Source = "glassdoor"
	SourceUSAJobs   Source = "usajobs"
)

// RoleCategory is the fixed taxonomy a posting or score is classified into.
type RoleCategory string

const (
	CategoryStrategic      RoleCategory = "strategic"
	CategoryProgram        RoleCategory = "program"
	CategoryProcurement    RoleCategory = "procurement"
	CategoryTechLeadership RoleCategory = "techLeadership"
	CategoryOther          RoleCategory = "other"
)

var categoryLabels = map[RoleCategory]string{
	CategoryStrategic:      "Strategic/Leadership",
	CategoryProgram:        "Program Management",
	CategoryProcurement:    "Procurement/Sourcing",
	CategoryTechLeadership: "Technology Leadership",
	CategoryOther:          "Other",
}

// Label returns a human-readable name for the category.
func (c RoleCategory) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// ParseCategory maps the model's free-form category string onto the taxonomy,
// falling back to "other" for anything it does not recognize.
func ParseCategory(s string) RoleCategory {
	c := RoleCategory(strings.TrimSpace(s))
	if _, ok := categoryLabels[c]; ok {
		return c
	}
	return CategoryOther
}

// FreshnessTier classifies posting age. A posting only ever moves towards
// Standard as time passes.
type FreshnessTier string

const (
	FreshnessHot      FreshnessTier = "hot"
	FreshnessNew      FreshnessTier = "new"
	FreshnessStandard FreshnessTier = "standard"
)

// Rank orders tiers by freshness: higher means fresher.
func (f FreshnessTier) Rank() int {
	switch f {
	case FreshnessHot:
		return 2
	case FreshnessNew:
		return 1
	default:
		return 0
	}
}

// FresherThan reports whether f is a strictly fresher tier than other.
func (f FreshnessTier) FresherThan(other FreshnessTier) bool {
	return f.Rank() > other.Rank()
}

// PriorityTier classifies a fit score.
type PriorityTier string

const (
	PriorityHigh   PriorityTier = "high"
	PriorityMedium PriorityTier = "medium"
	PriorityLow    PriorityTier = "low"
)

// RawItem is a source-tagged payload as returned by a scraping collaborator.
// Only the owning source's normalizer may interpret the payload.
type RawItem struct {
	Source  Source
	Payload map[string]any
}

// Posting is the canonical job listing shape. It is the only raw-job type
// crossing component boundaries.
type Posting struct {
	Hash         string
	Source       Source
	ExternalID   string
	URL          string
	Title        string
	Company      string
	Location     string
	SalaryRange  string
	PostedAt     time.Time
	CapturedAt   time.Time
	Description  string
	CompanySize  string
	RoleCategory RoleCategory
	Freshness    FreshnessTier
	Processed    bool
}

// IdentityHash fingerprints a posting by (url, title, company), lowercased.
// Two postings with the same fingerprint are the same logical job no matter
// which scrape run produced them.
func IdentityHash(url, title, company string) string {
	input := strings.ToLower(url + "|" + title + "|" + company)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// ComputeHash fills in the posting's identity hash and returns it.
func (p *Posting) ComputeHash() string {
	p.Hash = IdentityHash(p.URL, p.Title, p.Company)
	return p.Hash
}

// Age returns how long ago the posting was captured.
func (p *Posting) Age(now time.Time) time.Duration {
	return now.Sub(p.CapturedAt)
}

// ScoredPosting holds the model's assessment of exactly one Posting.
type ScoredPosting struct {
	ID                 int64
	JobHash            string
	FitScore           int
	GhostJobLikelihood int
	RoleCategory       RoleCategory
	PriorityTier       PriorityTier
	AIReasoning        string
	KeyRequirements    []string
	CoverLetterDraft   string
	Approved           bool
	Notified           bool
	ScoredAt           time.Time

	// Posting is the source posting, joined in by the store for reads that
	// need listing details (notifications, digests, review).
	Posting *Posting
}
