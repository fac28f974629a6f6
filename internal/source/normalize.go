package source

import (
	"regexp"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

var relativeTimeRe = regexp.MustCompile(`(?i)(\d+)\s+(hour|day|week|month)s?\s+ago`)

// absoluteLayouts are tried in order for non-relative timestamps.
var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parsePostedAt turns a source timestamp into an absolute time. Sources emit
// anything from RFC3339 to "2 hours ago"; whatever cannot be parsed defaults
// to now.
func parsePostedAt(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now
	}

	if m := relativeTimeRe.FindStringSubmatch(raw); m != nil {
		n := 0
		for _, r := range m[1] {
			n = n*10 + int(r-'0')
		}
		var unit time.Duration
		switch strings.ToLower(m[2]) {
		case "hour":
			unit = time.Hour
		case "day":
			unit = 24 * time.Hour
		case "week":
			unit = 7 * 24 * time.Hour
		case "month":
			unit = 30 * 24 * time.Hour
		}
		return now.Add(-time.Duration(n) * unit)
	}

	if strings.EqualFold(raw, "just now") || strings.EqualFold(raw, "today") {
		return now
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}

	return now
}

// decodeItem maps a raw payload onto a source-specific item struct, reusing
// json tags for field names. Weak typing tolerates sources that emit numbers
// where strings are expected.
func decodeItem(payload map[string]any, target any) error {
	cfg := &mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	return decoder.Decode(payload)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
