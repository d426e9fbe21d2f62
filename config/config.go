// ABOUTME: Agent configuration loading and validation
// ABOUTME: Reads YAML config at XDG paths, applies .env and environment overrides, and supplies defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

// AppName is used for XDG config and data directories.
const AppName = "outreach"

// Config holds all outreach engine configuration.
type Config struct {
	DatabasePath  string              `yaml:"database_path"`
	Loop          LoopConfig          `yaml:"loop"`
	Discovery     DiscoveryConfig     `yaml:"discovery"`
	Cadence       CadenceConfig       `yaml:"cadence"`
	Qualification QualificationConfig `yaml:"qualification"`
	Classifier    ClassifierConfig    `yaml:"classifier"`
	Router        RouterConfig        `yaml:"router"`
	Sending       SendingConfig       `yaml:"sending"`
	AI            AIConfig            `yaml:"ai"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// LoopConfig controls the agent loop cadence.
type LoopConfig struct {
	Interval   time.Duration `yaml:"interval"`
	DrainBatch int           `yaml:"drain_batch"`
}

// DiscoveryConfig is the intent/recency filter for new prospects.
type DiscoveryConfig struct {
	MinIntentScore int `yaml:"min_intent_score"`
	RecencyDays    int `yaml:"recency_days"`
	Batch          int `yaml:"batch"`
}

// CadenceConfig shapes the follow-up series.
type CadenceConfig struct {
	Days       []int `yaml:"days"`
	MaxTouches int   `yaml:"max_touches"`
}

// QualificationConfig holds score thresholds and weights.
type QualificationConfig struct {
	HandoffThreshold int                         `yaml:"handoff_threshold"`
	EngageThreshold  int                         `yaml:"engage_threshold"`
	HandoffPriority  int                         `yaml:"handoff_priority"`
	Weights          models.QualificationWeights `yaml:"weights"`
}

// ClassifierConfig holds the confidence gates of the reply classifier.
type ClassifierConfig struct {
	FastPathThreshold         float64 `yaml:"fast_path_threshold"`
	ReviewConfidence          float64 `yaml:"review_confidence"`
	ObjectionReviewConfidence float64 `yaml:"objection_review_confidence"`
	EnableAI                  bool    `yaml:"enable_ai"`
}

// RouterConfig controls what the router may do without a human.
type RouterConfig struct {
	AutoApprove bool `yaml:"auto_approve"`
}

// SendingConfig covers outbound messaging.
type SendingConfig struct {
	DailyLimit     int    `yaml:"daily_limit"`
	DefaultChannel string `yaml:"default_channel"`
	FromEmail      string `yaml:"from_email"`
	SenderName     string `yaml:"sender_name"`
}

// AIConfig selects and tunes the AI backend.
type AIConfig struct {
	Provider   string        `yaml:"provider"` // gemini, fake
	Model      string        `yaml:"model"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// DefaultConfig returns a config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		DatabasePath: DefaultDatabasePath(),
		Loop: LoopConfig{
			Interval:   5 * time.Minute,
			DrainBatch: 10,
		},
		Discovery: DiscoveryConfig{
			MinIntentScore: 50,
			RecencyDays:    30,
			Batch:          25,
		},
		Cadence: CadenceConfig{
			Days:       append([]int(nil), models.DefaultCadenceDays...),
			MaxTouches: models.DefaultMaxTouches,
		},
		Qualification: QualificationConfig{
			HandoffThreshold: 90,
			EngageThreshold:  70,
			HandoffPriority:  95,
			Weights:          models.DefaultQualificationWeights(),
		},
		Classifier: ClassifierConfig{
			FastPathThreshold:         0.85,
			ReviewConfidence:          0.5,
			ObjectionReviewConfidence: 0.7,
			EnableAI:                  true,
		},
		Router: RouterConfig{
			AutoApprove: false,
		},
		Sending: SendingConfig{
			DailyLimit:     50,
			DefaultChannel: models.ChannelEmail,
		},
		AI: AIConfig{
			Provider:   "gemini",
			Model:      "gemini-2.5-flash",
			Timeout:    60 * time.Second,
			MaxRetries: 3,
			BaseDelay:  time.Second,
			MaxDelay:   30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ConfigPath returns the XDG config file location.
func ConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// DefaultDatabasePath returns the XDG data location of the SQLite database.
func DefaultDatabasePath() string {
	return filepath.Join(xdg.DataHome, AppName, "outreach.db")
}

// Load reads .env, the config file at path (ConfigPath when empty), and
// environment overrides. A missing file yields defaults.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides:
// - OUTREACH_DB_PATH
// - OUTREACH_AUTO_APPROVE
// - OUTREACH_DAILY_LIMIT
// - OUTREACH_AI_PROVIDER
// - OUTREACH_AI_MODEL
// - OUTREACH_FROM_EMAIL
// - GEMINI_API_KEY / GOOGLE_API_KEY.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("OUTREACH_DB_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("OUTREACH_AUTO_APPROVE"); v != "" {
		cfg.Router.AutoApprove = v == "true" || v == "1"
	}
	if v := os.Getenv("OUTREACH_DAILY_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid OUTREACH_DAILY_LIMIT %q: %w", v, err)
		}
		cfg.Sending.DailyLimit = n
	}
	if v := os.Getenv("OUTREACH_AI_PROVIDER"); v != "" {
		cfg.AI.Provider = v
	}
	if v := os.Getenv("OUTREACH_AI_MODEL"); v != "" {
		cfg.AI.Model = v
	}
	if v := os.Getenv("OUTREACH_FROM_EMAIL"); v != "" {
		cfg.Sending.FromEmail = v
	}
	if cfg.AI.APIKey == "" {
		if v := os.Getenv("GEMINI_API_KEY"); v != "" {
			cfg.AI.APIKey = v
		} else if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
			cfg.AI.APIKey = v
		}
	}
	return nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Loop.Interval <= 0 {
		return fmt.Errorf("loop.interval must be positive")
	}
	if c.Loop.DrainBatch <= 0 {
		return fmt.Errorf("loop.drain_batch must be positive")
	}
	if c.Cadence.MaxTouches < 1 {
		return fmt.Errorf("cadence.max_touches must be at least 1")
	}
	for _, d := range c.Cadence.Days {
		if d <= 0 {
			return fmt.Errorf("cadence.days entries must be positive, got %d", d)
		}
	}
	if c.Qualification.EngageThreshold > c.Qualification.HandoffThreshold {
		return fmt.Errorf("qualification.engage_threshold (%d) exceeds handoff_threshold (%d)",
			c.Qualification.EngageThreshold, c.Qualification.HandoffThreshold)
	}
	for name, v := range map[string]float64{
		"classifier.fast_path_threshold":         c.Classifier.FastPathThreshold,
		"classifier.review_confidence":           c.Classifier.ReviewConfidence,
		"classifier.objection_review_confidence": c.Classifier.ObjectionReviewConfidence,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", name, v)
		}
	}
	if c.Sending.DailyLimit < 0 {
		return fmt.Errorf("sending.daily_limit must not be negative")
	}
	if !models.IsValidChannel(c.Sending.DefaultChannel) {
		return fmt.Errorf("sending.default_channel must be email or linkedin, got %q", c.Sending.DefaultChannel)
	}
	switch c.AI.Provider {
	case "gemini", "fake":
	default:
		return fmt.Errorf("ai.provider must be gemini or fake, got %q", c.AI.Provider)
	}
	if c.AI.MaxRetries < 0 {
		return fmt.Errorf("ai.max_retries must not be negative")
	}
	return nil
}
