package cmd

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ahogan/jobhunter/internal/logger"
)

const (
	app = "jobhunter"
)

type Config struct {
	Location string                `mapstructure:"location"`
	Queries  map[string][]string   `mapstructure:"queries"`
	Store    *StoreConfig          `mapstructure:"store"`
	Limits   *LimitsConfig         `mapstructure:"limits"`
	Sources  *SourcesConfig        `mapstructure:"sources"`
	Skip     *FilterRulesConfig    `mapstructure:"skip"`
	Deprior  *FilterRulesConfig    `mapstructure:"deprioritize"`
	Thresh   *ThresholdsConfig     `mapstructure:"thresholds"`
	Fresh    *FreshnessConfig      `mapstructure:"freshness"`
	Pacing   *PacingConfig         `mapstructure:"pacing"`
	Profile  *ProfileConfig        `mapstructure:"profile"`
	AI       *AIConfig             `mapstructure:"ai"`
	Notify   *NotifyConfig         `mapstructure:"notify"`
	Digest   *DigestConfig         `mapstructure:"digest"`
	Schedule *ScheduleConfig       `mapstructure:"schedule"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type LimitsConfig struct {
	QueriesPerCategory int `mapstructure:"queries-per-category"`
	MaxItemsPerSource  int `mapstructure:"max-items-per-source"`
	ScoreBatch         int `mapstructure:"score-batch"`
}

type SourcesConfig struct {
	Enabled []string       `mapstructure:"enabled"`
	Apify   *ApifyConfig   `mapstructure:"apify"`
	USAJobs *USAJobsConfig `mapstructure:"usajobs"`
}

type ApifyConfig struct {
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"token-file"`
}

type USAJobsConfig struct {
	Email      string `mapstructure:"email"`
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

type FilterRulesConfig struct {
	Companies     []string `mapstructure:"companies"`
	TitleKeywords []string `mapstructure:"title-keywords"`
}

type ThresholdsConfig struct {
	High        int `mapstructure:"high"`
	Medium      int `mapstructure:"medium"`
	CoverLetter int `mapstructure:"cover-letter"`
}

type FreshnessConfig struct {
	Hot time.Duration `mapstructure:"hot"`
	New time.Duration `mapstructure:"new"`
}

type PacingConfig struct {
	Scrape time.Duration `mapstructure:"scrape"`
	Score  time.Duration `mapstructure:"score"`
	Notify time.Duration `mapstructure:"notify"`
}

type ProfileConfig struct {
	Candidate     string `mapstructure:"candidate"`
	CandidateFile string `mapstructure:"candidate-file"`
	Rubric        string `mapstructure:"rubric"`
	RubricFile    string `mapstructure:"rubric-file"`
}

type AIConfig struct {
	Gemini *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey      string `mapstructure:"api-key"`
	APIKeyFile  string `mapstructure:"api-key-file"`
	Model       string `mapstructure:"model"`
	LetterModel string `mapstructure:"letter-model"`
}

type NotifyConfig struct {
	FeedWebhookURL  string `mapstructure:"feed-webhook-url"`
	AlertWebhookURL string `mapstructure:"alert-webhook-url"`
}

type DigestConfig struct {
	Email *EmailConfig `mapstructure:"email"`
}

type EmailConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	From       string `mapstructure:"from"`
	To         string `mapstructure:"to"`
}

type ScheduleConfig struct {
	Timezone      string `mapstructure:"timezone"`
	Weekday       string `mapstructure:"weekday"`
	Weekend       string `mapstructure:"weekend"`
	DailyDigest   string `mapstructure:"daily-digest"`
	EveningDigest string `mapstructure:"evening-digest"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobhunter scrapes job boards, scores postings against a candidate profile, and sends notifications",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envBindings := map[string]string{
		"sources.apify.token-file":   "APIFY_TOKEN_FILE",
		"sources.usajobs.api-key":    "USAJOBS_API_KEY",
		"ai.gemini.api-key-file":     "GEMINI_API_KEY_FILE",
		"notify.feed-webhook-url":    "DISCORD_WEBHOOK_ALL_JOBS",
		"notify.alert-webhook-url":   "DISCORD_WEBHOOK_HIGH_PRIORITY",
		"digest.email.api-key":       "RESEND_API_KEY",
		"digest.email.to":            "NOTIFICATION_EMAIL",
	}
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobhunter.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	viper.SetEnvPrefix(strings.ToUpper(app))
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func newLogger() (*zap.Logger, error) {
	return logger.New(viper.GetBool("json"), viper.GetBool("debug"))
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
