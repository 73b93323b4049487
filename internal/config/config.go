package config

import (
	"log"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"MonkHerald/internal/domain"
)

const (
	defaultTimezone = "America/Sao_Paulo"
	defaultWakeTime = "07:30"

	configPathEnv       = "MONKHERALD_CONFIG"
	perplexityAPIKeyEnv = "PERPLEXITY_API_KEY"
	geminiAPIKeyEnv     = "GEMINI_API_KEY"
	ingestURLEnv        = "INGEST_URL"
	ingestAPIKeyEnv     = "INGEST_API_KEY"
	dedupPathEnv        = "DEDUP_DB_PATH"
	ledgerPathEnv       = "RUN_LEDGER_PATH"
	logLevelEnv         = "LOG_LEVEL"
)

var wakeTimeExpr = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig           `yaml:"logging"`
	Scheduler  SchedulerConfig         `yaml:"scheduler"`
	Storage    StorageConfig           `yaml:"storage"`
	Ingest     IngestConfig            `yaml:"ingest"`
	Perplexity BackendConfig           `yaml:"perplexity"`
	Gemini     BackendConfig           `yaml:"gemini"`
	Pipeline   PipelineConfig          `yaml:"pipeline"`
	Risk       RiskConfig              `yaml:"risk"`
	Themes     map[string]domain.Theme `yaml:"themes"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SchedulerConfig defines when the daily batch should run.
type SchedulerConfig struct {
	Timezone string `yaml:"timezone"`
	WakeTime string `yaml:"wakeTime"`

	location *time.Location
	hour     int
	minute   int
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	return time.UTC
}

// WakeHour returns the configured wake hour in the scheduler timezone.
func (s SchedulerConfig) WakeHour() int { return s.hour }

// WakeMinute returns the configured wake minute.
func (s SchedulerConfig) WakeMinute() int { return s.minute }

// StorageConfig locates the dedup database and the run-date ledger file.
type StorageConfig struct {
	DedupPath  string `yaml:"dedupPath"`
	LedgerPath string `yaml:"ledgerPath"`
}

// IngestConfig describes the downstream publish endpoint.
type IngestConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"apiKey"`
	Author string `yaml:"author"`
}

// BackendConfig defines how to contact a summarizer backend API.
type BackendConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

// PipelineConfig bounds the per-batch work.
type PipelineConfig struct {
	MaxPerBatch  int `yaml:"maxPerBatch"`
	BodyLimit    int `yaml:"bodyLimit"`
	MinBodyChars int `yaml:"minBodyChars"`
}

// RiskConfig names the external risk-analysis command; empty disables it.
type RiskConfig struct {
	Command []string `yaml:"command"`
}

// ThemeFor resolves the theme for a weekday; weekdays without an explicit
// entry fall back to Sunday's long-form theme.
func (c Config) ThemeFor(day time.Weekday) domain.Theme {
	if theme, ok := c.Themes[weekdayKey(day)]; ok {
		return theme
	}
	return c.Themes["sunday"]
}

func weekdayKey(day time.Weekday) string {
	switch day {
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	case time.Saturday:
		return "saturday"
	default:
		return "sunday"
	}
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()
	cfg.bindWakeTime()

	if len(cfg.Themes) == 0 {
		cfg.Themes = defaultThemes()
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(perplexityAPIKeyEnv); v != "" {
		c.Perplexity.APIKey = v
	}

	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}

	if v := os.Getenv(ingestURLEnv); v != "" {
		c.Ingest.URL = v
	}

	if v := os.Getenv(ingestAPIKeyEnv); v != "" {
		c.Ingest.APIKey = v
	}

	if v := os.Getenv(dedupPathEnv); v != "" {
		c.Storage.DedupPath = v
	}

	if v := os.Getenv(ledgerPathEnv); v != "" {
		c.Storage.LedgerPath = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to UTC", tz)
		loc = time.UTC
	}
	c.Scheduler.location = loc
}

func (c *Config) bindWakeTime() {
	raw := c.Scheduler.WakeTime
	if raw == "" {
		raw = defaultWakeTime
	}

	matches := wakeTimeExpr.FindStringSubmatch(raw)
	if len(matches) != 3 {
		log.Printf("config: invalid wake time %q, reverting to %s", raw, defaultWakeTime)
		matches = wakeTimeExpr.FindStringSubmatch(defaultWakeTime)
	}

	c.Scheduler.hour, _ = strconv.Atoi(matches[1])
	c.Scheduler.minute, _ = strconv.Atoi(matches[2])
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if override.Scheduler.WakeTime != "" {
		base.Scheduler.WakeTime = override.Scheduler.WakeTime
	}

	if override.Storage.DedupPath != "" {
		base.Storage.DedupPath = override.Storage.DedupPath
	}
	if override.Storage.LedgerPath != "" {
		base.Storage.LedgerPath = override.Storage.LedgerPath
	}

	if override.Ingest.URL != "" {
		base.Ingest.URL = override.Ingest.URL
	}
	if override.Ingest.APIKey != "" {
		base.Ingest.APIKey = override.Ingest.APIKey
	}
	if override.Ingest.Author != "" {
		base.Ingest.Author = override.Ingest.Author
	}

	base.Perplexity = mergeBackend(base.Perplexity, override.Perplexity)
	base.Gemini = mergeBackend(base.Gemini, override.Gemini)

	if override.Pipeline.MaxPerBatch > 0 {
		base.Pipeline.MaxPerBatch = override.Pipeline.MaxPerBatch
	}
	if override.Pipeline.BodyLimit > 0 {
		base.Pipeline.BodyLimit = override.Pipeline.BodyLimit
	}
	if override.Pipeline.MinBodyChars > 0 {
		base.Pipeline.MinBodyChars = override.Pipeline.MinBodyChars
	}

	if len(override.Risk.Command) > 0 {
		base.Risk = override.Risk
	}

	if len(override.Themes) > 0 {
		base.Themes = override.Themes
	}

	return base
}

func mergeBackend(base, override BackendConfig) BackendConfig {
	if override.Endpoint != "" {
		base.Endpoint = override.Endpoint
	}
	if override.Model != "" {
		base.Model = override.Model
	}
	if override.APIKey != "" {
		base.APIKey = override.APIKey
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{Timezone: defaultTimezone, WakeTime: defaultWakeTime},
		Storage:   StorageConfig{DedupPath: "history.db", LedgerPath: "last_run.txt"},
		Ingest: IngestConfig{
			URL:    "https://theordermonk.netlify.app/api/news/ingest",
			APIKey: "",
			Author: "Monk.AI",
		},
		Perplexity: BackendConfig{
			Endpoint: "https://api.perplexity.ai/chat/completions",
			Model:    "llama-3.1-sonar-large-128k-online",
		},
		Gemini: BackendConfig{
			Endpoint: "https://generativelanguage.googleapis.com",
			Model:    "gemini-2.0-flash",
		},
		Pipeline: PipelineConfig{MaxPerBatch: 2, BodyLimit: 3000, MinBodyChars: 50},
		Themes:   defaultThemes(),
	}
}

func defaultThemes() map[string]domain.Theme {
	return map[string]domain.Theme{
		"monday": {
			Label:    "Strategy & Mental Models",
			Strategy: "rss",
			Keywords: `(strategy OR "mental models" OR "game theory" OR "decision making") AND (guide OR essay) -news`,
			Feeds: []string{
				"https://fs.blog/feed/",
				"https://dailynous.com/feed/",
				"https://jamesclear.com/feed",
				"https://aeon.co/feed.rss",
			},
		},
		"tuesday": {
			Label:    "Private Markets & Risk",
			Strategy: "rss",
			Keywords: `("private credit" OR "hedge fund" OR "venture capital" OR "risk management") AND (outlook OR thesis) -crypto`,
			Feeds: []string{
				"https://www.institutionalinvestor.com/rss",
				"https://mergersandinquisitions.com/feed/",
				"https://www.bridgewater.com/rss",
			},
		},
		"wednesday": {
			Label:    "AI & Hard Tech",
			Strategy: "rss",
			Keywords: `("large language models" OR "generative ai" OR automation OR "software architecture") -gadget -review`,
			Feeds: []string{
				"https://stratechery.com/feed/",
				"https://simonwillison.net/atom/everything/",
				"https://news.ycombinator.com/rss",
				"https://bair.berkeley.edu/blog/feed.xml",
			},
		},
		"thursday": {
			Label:    "Behavioral Science & Society",
			Strategy: "rss",
			Keywords: `("behavioral economics" OR "social psychology" OR negotiation) AND (research OR study)`,
			Feeds: []string{
				"https://www.behavioraleconomics.com/feed/",
				"https://freakonomics.com/feed/",
				"https://conversableeconomist.blogspot.com/feeds/posts/default",
			},
		},
		"friday": {
			Label:    "Longevity & Performance",
			Strategy: "rss",
			Keywords: `(longevity OR neuroscience OR "metabolic health") AND (research OR protocol) -diet`,
			Feeds: []string{
				"https://peterattiamd.com/feed/",
				"https://hubermanlab.com/feed",
				"https://www.nature.com/nature.rss",
			},
		},
		"saturday": {
			Label:    "Culture & Architecture",
			Strategy: "rss",
			Keywords: `(architecture OR "design theory" OR aesthetics) -gossip`,
			Feeds: []string{
				"https://99percentinvisible.org/feed/",
				"https://www.archdaily.com/feed/rss/",
				"https://thebaffler.com/feed",
			},
		},
		"sunday": {
			Label:    "Essays & Reflections",
			Strategy: "rss",
			Keywords: `(essay OR history OR philosophy OR literature) AND (review OR deep-dive)`,
			Feeds: []string{
				"https://longreads.com/feed/",
				"https://aldaily.com/feed",
				"https://lithub.com/feed/",
			},
		},
	}
}
