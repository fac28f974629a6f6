package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ahogan/jobhunter/internal/ai"
	"github.com/ahogan/jobhunter/internal/ai/gemini"
	"github.com/ahogan/jobhunter/internal/digest"
	"github.com/ahogan/jobhunter/internal/freshness"
	"github.com/ahogan/jobhunter/internal/ingest"
	"github.com/ahogan/jobhunter/internal/job"
	"github.com/ahogan/jobhunter/internal/notify"
	"github.com/ahogan/jobhunter/internal/ratelimit"
	"github.com/ahogan/jobhunter/internal/scoring"
	"github.com/ahogan/jobhunter/internal/secrets"
	"github.com/ahogan/jobhunter/internal/source"
	"github.com/ahogan/jobhunter/internal/store"
)

const (
	defaultStorePath   = "jobhunter.db"
	defaultLetterModel = "gemini-2.5-pro"

	defaultScrapePace = 2 * time.Second
	defaultScorePace  = 500 * time.Millisecond
	defaultNotifyPace = time.Second

	defaultMaxItems   = 25
	defaultScoreBatch = 20

	defaultWeekdaySpec       = "0,30 6-20 * * 1-5"
	defaultWeekendSpec       = "0 8,12,18 * * 0,6"
	defaultDailyDigestSpec   = "0 8 * * *"
	defaultEveningDigestSpec = "0 17 * * 1-5"
	defaultTimezone          = "America/Los_Angeles"
)

var defaultSkipRules = FilterRulesConfig{
	Companies:     []string{"Microsoft", "Amazon", "AWS", "Amazon Web Services"},
	TitleKeywords: []string{"fundraising", "sales", "payroll"},
}

var defaultDeprioritizeRules = FilterRulesConfig{
	Companies:     []string{"Amazon", "AWS", "Amazon Web Services"},
	TitleKeywords: []string{"fundraising", "sales", "payroll"},
}

// pipeline holds the collaborators shared by the subcommands. Pieces
// are built on demand: the digest command never needs a Gemini client,
// the review command never needs an Apify token.
type pipeline struct {
	cfg    *Config
	logger *zap.Logger
	store  store.Store
}

// setup resolves config, logger, and storage, the pieces every command
// needs.
func setup() (*pipeline, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}

	cfg, err := getConfig()
	if err != nil {
		return nil, fmt.Errorf("getting a config: %w", err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	applyDefaults(cfg)

	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store at %s: %w", cfg.Store.Path, err)
	}

	return &pipeline{cfg: cfg, logger: logger, store: st}, nil
}

func (p *pipeline) close() {
	if err := p.store.Close(); err != nil {
		p.logger.Warn("closing store", zap.Error(err))
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Store == nil {
		cfg.Store = &StoreConfig{}
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = defaultStorePath
	}
	if cfg.Limits == nil {
		cfg.Limits = &LimitsConfig{}
	}
	if cfg.Limits.MaxItemsPerSource <= 0 {
		cfg.Limits.MaxItemsPerSource = defaultMaxItems
	}
	if cfg.Limits.ScoreBatch <= 0 {
		cfg.Limits.ScoreBatch = defaultScoreBatch
	}
	if cfg.Skip == nil {
		skip := defaultSkipRules
		cfg.Skip = &skip
	}
	if cfg.Deprior == nil {
		dep := defaultDeprioritizeRules
		cfg.Deprior = &dep
	}
	if cfg.Thresh == nil {
		t := scoring.DefaultThresholds()
		cfg.Thresh = &ThresholdsConfig{High: t.High, Medium: t.Medium, CoverLetter: t.CoverLetter}
	}
	if cfg.Fresh == nil {
		t := freshness.DefaultThresholds()
		cfg.Fresh = &FreshnessConfig{Hot: t.Hot, New: t.New}
	}
	if cfg.Pacing == nil {
		cfg.Pacing = &PacingConfig{}
	}
	if cfg.Pacing.Scrape <= 0 {
		cfg.Pacing.Scrape = defaultScrapePace
	}
	if cfg.Pacing.Score <= 0 {
		cfg.Pacing.Score = defaultScorePace
	}
	if cfg.Pacing.Notify <= 0 {
		cfg.Pacing.Notify = defaultNotifyPace
	}
	if cfg.Schedule == nil {
		cfg.Schedule = &ScheduleConfig{}
	}
	if cfg.Schedule.Timezone == "" {
		cfg.Schedule.Timezone = defaultTimezone
	}
	if cfg.Schedule.Weekday == "" {
		cfg.Schedule.Weekday = defaultWeekdaySpec
	}
	if cfg.Schedule.Weekend == "" {
		cfg.Schedule.Weekend = defaultWeekendSpec
	}
	if cfg.Schedule.DailyDigest == "" {
		cfg.Schedule.DailyDigest = defaultDailyDigestSpec
	}
	if cfg.Schedule.EveningDigest == "" {
		cfg.Schedule.EveningDigest = defaultEveningDigestSpec
	}
}

// newRunner builds the scraping side: enabled source adapters plus the
// per-source pacing set.
func (p *pipeline) newRunner() (*source.Runner, error) {
	cfg := p.cfg
	if cfg.Sources == nil {
		return nil, fmt.Errorf("sources are not configured")
	}

	enabled := cfg.Sources.Enabled
	if len(enabled) == 0 {
		enabled = []string{"linkedin", "indeed", "glassdoor", "usajobs"}
	}

	var apify *source.ApifyClient
	needsApify := false
	for _, name := range enabled {
		if name != "usajobs" {
			needsApify = true
		}
	}
	if needsApify {
		if cfg.Sources.Apify == nil {
			return nil, fmt.Errorf("apify token is required for scraped sources")
		}
		token, err := secrets.Load(secrets.Source{
			Name:  "apify token",
			Value: cfg.Sources.Apify.Token,
			File:  cfg.Sources.Apify.TokenFile,
		})
		if err != nil {
			return nil, err
		}
		apify = source.NewApifyClient(token)
	}

	var adapters []source.Adapter
	for _, name := range enabled {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "linkedin":
			adapters = append(adapters, source.NewLinkedIn(apify))
		case "indeed":
			adapters = append(adapters, source.NewIndeed(apify))
		case "glassdoor":
			adapters = append(adapters, source.NewGlassdoor(apify))
		case "usajobs":
			if cfg.Sources.USAJobs == nil {
				return nil, fmt.Errorf("usajobs credentials are not configured")
			}
			key, err := secrets.Load(secrets.Source{
				Name:  "usajobs api key",
				Value: cfg.Sources.USAJobs.APIKey,
				File:  cfg.Sources.USAJobs.APIKeyFile,
			})
			if err != nil {
				return nil, err
			}
			adapters = append(adapters, source.NewUSAJobs(cfg.Sources.USAJobs.Email, key))
		default:
			return nil, fmt.Errorf("unknown source %q", name)
		}
	}

	queries := make(map[job.RoleCategory][]string, len(cfg.Queries))
	for name, list := range cfg.Queries {
		queries[job.ParseCategory(name)] = list
	}

	return source.NewRunner(adapters, source.RunnerConfig{
		Queries:            queries,
		Location:           cfg.Location,
		QueriesPerCategory: cfg.Limits.QueriesPerCategory,
		MaxItemsPerSource:  cfg.Limits.MaxItemsPerSource,
	}, ratelimit.NewSet(cfg.Pacing.Scrape, nil), p.logger), nil
}

func (p *pipeline) newIngestGate() *ingest.Gate {
	return ingest.NewGate(p.store, ingest.Rules{
		SkipCompanies:     p.cfg.Skip.Companies,
		SkipTitleKeywords: p.cfg.Skip.TitleKeywords,
	}, freshness.Thresholds{
		Hot: p.cfg.Fresh.Hot,
		New: p.cfg.Fresh.New,
	}, p.logger)
}

func (p *pipeline) newFreshnessEngine() *freshness.Engine {
	return freshness.NewEngine(p.store, freshness.Thresholds{
		Hot: p.cfg.Fresh.Hot,
		New: p.cfg.Fresh.New,
	}, p.logger)
}

// newScorer builds the scoring side: Gemini completers for verdicts and
// cover letters plus the candidate profile material.
func (p *pipeline) newScorer(ctx context.Context) (*scoring.Scorer, error) {
	cfg := p.cfg
	if cfg.AI == nil || cfg.AI.Gemini == nil {
		return nil, fmt.Errorf("ai.gemini is not configured")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.AI.Gemini.APIKey,
		File:  cfg.AI.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, err
	}

	completer, err := gemini.NewGenerator(ctx, apiKey, cfg.AI.Gemini.Model)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	letterModel := cfg.AI.Gemini.LetterModel
	if letterModel == "" {
		letterModel = defaultLetterModel
	}
	var letters ai.Completer = completer
	if letterModel != completer.Model() {
		letters, err = gemini.NewGenerator(ctx, apiKey, letterModel)
		if err != nil {
			return nil, fmt.Errorf("creating gemini letter client: %w", err)
		}
	}

	profile, err := p.loadProfile()
	if err != nil {
		return nil, err
	}

	return scoring.NewScorer(
		completer,
		letters,
		p.store,
		profile,
		scoring.Deprioritize{
			Companies:     cfg.Deprior.Companies,
			TitleKeywords: cfg.Deprior.TitleKeywords,
		},
		scoring.Thresholds{
			High:        cfg.Thresh.High,
			Medium:      cfg.Thresh.Medium,
			CoverLetter: cfg.Thresh.CoverLetter,
		},
		ratelimit.New(cfg.Pacing.Score),
		p.logger,
	), nil
}

func (p *pipeline) loadProfile() (scoring.Profile, error) {
	if p.cfg.Profile == nil {
		return scoring.Profile{}, fmt.Errorf("profile is not configured")
	}

	candidate, err := loadText(p.cfg.Profile.Candidate, p.cfg.Profile.CandidateFile)
	if err != nil {
		return scoring.Profile{}, fmt.Errorf("loading candidate profile: %w", err)
	}
	if candidate == "" {
		return scoring.Profile{}, fmt.Errorf("candidate profile is required under profile.candidate or profile.candidate-file")
	}

	rubric, err := loadText(p.cfg.Profile.Rubric, p.cfg.Profile.RubricFile)
	if err != nil {
		return scoring.Profile{}, fmt.Errorf("loading scoring rubric: %w", err)
	}
	if rubric == "" {
		return scoring.Profile{}, fmt.Errorf("scoring rubric is required under profile.rubric or profile.rubric-file")
	}

	return scoring.Profile{Candidate: candidate, Rubric: rubric}, nil
}

func loadText(inline, file string) (string, error) {
	if file = strings.TrimSpace(file); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}
	return strings.TrimSpace(inline), nil
}

func (p *pipeline) newNotifier() (*notify.Gate, error) {
	cfg := p.cfg
	if cfg.Notify == nil || (cfg.Notify.FeedWebhookURL == "" && cfg.Notify.AlertWebhookURL == "") {
		return nil, fmt.Errorf("notify webhooks are not configured")
	}

	webhook := notify.NewWebhook(cfg.Notify.FeedWebhookURL, cfg.Notify.AlertWebhookURL)
	return notify.NewGate(
		p.store,
		webhook,
		cfg.Thresh.High,
		cfg.Thresh.Medium,
		ratelimit.New(cfg.Pacing.Notify),
		p.logger,
	), nil
}

func (p *pipeline) newMailer() (*digest.Mailer, *digest.Builder, error) {
	cfg := p.cfg
	if cfg.Digest == nil || cfg.Digest.Email == nil {
		return nil, nil, fmt.Errorf("digest.email is not configured")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "resend api key",
		Value: cfg.Digest.Email.APIKey,
		File:  cfg.Digest.Email.APIKeyFile,
	})
	if err != nil {
		return nil, nil, err
	}
	if cfg.Digest.Email.From == "" || cfg.Digest.Email.To == "" {
		return nil, nil, fmt.Errorf("digest.email.from and digest.email.to are required")
	}

	mailer := digest.NewMailer(digest.MailerConfig{
		APIKey:    apiKey,
		From:      cfg.Digest.Email.From,
		To:        cfg.Digest.Email.To,
		Footer:    "Job Hunter • Automated job search",
		HighScore: cfg.Thresh.High,
		MinScore:  cfg.Thresh.Medium,
	}, p.logger)

	return mailer, digest.NewBuilder(p.store, cfg.Thresh.High, cfg.Thresh.Medium), nil
}
