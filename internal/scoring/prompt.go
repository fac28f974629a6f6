package scoring

import (
	"fmt"
	"strings"

	_ "embed"

	"github.com/ahogan/jobhunter/internal/job"
)

//go:embed prompt.md
var promptTemplate string

//go:embed cover_letter.md
var coverLetterTemplate string

const (
	// promptDescriptionLimit keeps scoring prompts inside the model's
	// useful context; listing bodies past this point are boilerplate.
	promptDescriptionLimit = 3000
	letterDescriptionLimit = 2000
)

// Profile carries the candidate-specific prompt material: who the
// candidate is and how to weight a posting against them.
type Profile struct {
	Candidate string
	Rubric    string
}

// Deprioritize lists signals that lower a posting's score without
// excluding it from the pipeline.
type Deprioritize struct {
	Companies     []string
	TitleKeywords []string
}

// Notes produces the prompt annotations for a posting that matches a
// deprioritized company or title keyword. An empty string means no
// penalty applies.
func (d Deprioritize) Notes(p *job.Posting) string {
	var b strings.Builder

	company := strings.ToLower(p.Company)
	for _, name := range d.Companies {
		if name != "" && strings.Contains(company, strings.ToLower(name)) {
			fmt.Fprintf(&b, "NOTE: This company (%s) should be heavily deprioritized (-30 pts).\n", name)
			break
		}
	}

	title := strings.ToLower(p.Title)
	var matched []string
	for _, keyword := range d.TitleKeywords {
		if keyword != "" && strings.Contains(title, strings.ToLower(keyword)) {
			matched = append(matched, keyword)
		}
	}
	if len(matched) > 0 {
		fmt.Fprintf(&b, "NOTE: This role contains keywords (%s) that are NOT a good fit. Score should be MEDIUM at most (under 80).\n", strings.Join(matched, ", "))
	}

	return b.String()
}

func buildScoringPrompt(profile Profile, rules Deprioritize, p *job.Posting) string {
	salary := p.SalaryRange
	if salary == "" {
		salary = "Not specified"
	}
	description := truncate(p.Description, promptDescriptionLimit)
	if description == "" {
		description = "No description available"
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{CANDIDATE_PROFILE}}", profile.Candidate)
	prompt = strings.ReplaceAll(prompt, "{{SCORING_RUBRIC}}", profile.Rubric)
	prompt = strings.ReplaceAll(prompt, "{{DEPRIORITIZATION_NOTES}}", rules.Notes(p))
	prompt = strings.ReplaceAll(prompt, "{{TITLE}}", p.Title)
	prompt = strings.ReplaceAll(prompt, "{{COMPANY}}", p.Company)
	prompt = strings.ReplaceAll(prompt, "{{LOCATION}}", p.Location)
	prompt = strings.ReplaceAll(prompt, "{{SALARY}}", salary)
	prompt = strings.ReplaceAll(prompt, "{{DESCRIPTION}}", description)
	return prompt
}

func buildCoverLetterPrompt(profile Profile, p *job.Posting, requirements []string) string {
	reqs := "Not specified"
	if len(requirements) > 0 {
		reqs = "- " + strings.Join(requirements, "\n- ")
	}

	prompt := strings.ReplaceAll(coverLetterTemplate, "{{CANDIDATE_PROFILE}}", profile.Candidate)
	prompt = strings.ReplaceAll(prompt, "{{TITLE}}", p.Title)
	prompt = strings.ReplaceAll(prompt, "{{COMPANY}}", p.Company)
	prompt = strings.ReplaceAll(prompt, "{{DESCRIPTION}}", truncate(p.Description, letterDescriptionLimit))
	prompt = strings.ReplaceAll(prompt, "{{KEY_REQUIREMENTS}}", reqs)
	return prompt
}

// truncate cuts s to limit runes. Slicing bytes could split a multi-byte
// character; descriptions carry plenty of them.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
