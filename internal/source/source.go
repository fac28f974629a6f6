// Package source holds the posting adapters. Each adapter fetches raw items
// from one job board collaborator and owns the normalization of its payload
// shape; the canonical Posting is the only type that leaves this package.
package source

import (
	"context"
	"time"

	"github.com/ahogan/jobhunter/internal/job"
)

// Query is one search against a board, tagged with the category that
// produced it.
type Query struct {
	Text     string
	Category job.RoleCategory
}

// Adapter is the narrow contract each job board integration satisfies. Fetch
// failures are per-source: the caller logs them and moves on.
type Adapter interface {
	Name() job.Source
	Fetch(ctx context.Context, query Query, location string, maxItems int) ([]job.RawItem, error)

	// Normalize maps one raw item into a Posting. It never fails on
	// malformed input: items without a usable title and url are dropped
	// (ok=false), missing fields become zero values, and unparsable
	// timestamps default to capturedAt.
	Normalize(item job.RawItem, hint job.RoleCategory, capturedAt time.Time) (*job.Posting, bool)
}
