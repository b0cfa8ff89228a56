package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// ClosureRule marks recurring warehouse closure dates. Dates matched by
// the RRULE are treated as closed (zero-point) days by the slot
// resolver.
type ClosureRule struct {
	RRule  string `yaml:"rrule" validate:"required"`
	Reason string `yaml:"reason"`
}

// RulePenalties are the fixed score deductions applied when an advisory
// rule fires. The evaluator starts every candidate at 100.
type RulePenalties struct {
	AvoidConcurrency      int `yaml:"avoidConcurrency"`
	MaxSimultaneous       int `yaml:"maxSimultaneous"`
	SizePriority          int `yaml:"sizePriority"`
	DailyConcentration    int `yaml:"dailyConcentration"`
	DockDistribution      int `yaml:"dockDistribution"`
	CategoryPreferredTime int `yaml:"categoryPreferredTime"`
	MinLeadTime           int `yaml:"minLeadTime"`
}

// RulesConfig toggles and tunes the advisory scheduling rules. Enforce
// switches avoid-concurrency, max-simultaneous and min-lead-time from
// advisory warnings to hard rejections; every other rule only ever
// warns and scores.
type RulesConfig struct {
	Enforce bool `yaml:"enforce"`

	AvoidConcurrency      bool `yaml:"avoidConcurrency"`
	MaxSimultaneous       bool `yaml:"maxSimultaneous"`
	SizePriority          bool `yaml:"sizePriority"`
	DailyConcentration    bool `yaml:"dailyConcentration"`
	DockDistribution      bool `yaml:"dockDistribution"`
	CategoryPreferredTime bool `yaml:"categoryPreferredTime"`
	MinLeadTime           bool `yaml:"minLeadTime"`

	// MaxSimultaneousCap is the concurrent overlap count at which the
	// max-simultaneous rule fires.
	MaxSimultaneousCap int `yaml:"maxSimultaneousCap"`

	// DailyCountThreshold is the appointment count at which a day is
	// considered overloaded by the daily-concentration rule.
	DailyCountThreshold int `yaml:"dailyCountThreshold"`

	// MinLeadHours is the minimum notice required by the min-lead-time
	// rule.
	MinLeadHours int `yaml:"minLeadHours"`

	// Large jobs are nudged to slots starting before
	// PreferredLargeBeforeHour; small jobs to slots starting at or
	// after PreferredSmallAfterHour.
	PreferredLargeBeforeHour int `yaml:"preferredLargeBeforeHour"`
	PreferredSmallAfterHour  int `yaml:"preferredSmallAfterHour"`

	// DockBySize maps a size tier ("S", "M", "L") to the dock code the
	// dock-distribution rule prefers for that tier.
	DockBySize map[string]string `yaml:"dockBySize"`

	// Bounds for the "next free time" suggestion search used by
	// enforced rejections. Policy constants carried from the original
	// design.
	SuggestionWindowHours int `yaml:"suggestionWindowHours"`
	SuggestionStepMinutes int `yaml:"suggestionStepMinutes"`

	Penalties RulePenalties `yaml:"penalties"`
}

// Config is the application configuration loaded from YAML.
type Config struct {
	DatabaseURL string `yaml:"databaseURL" validate:"required"`
	Env         string `yaml:"env"`
	Timezone    string `yaml:"timezone"`

	// DefaultBufferMinutes is used until a buffer value is written to
	// the settings store.
	DefaultBufferMinutes int `yaml:"defaultBufferMinutes" validate:"gte=0"`

	ScheduleCacheTTLSeconds int `yaml:"scheduleCacheTTLSeconds" validate:"gte=1"`
	SettingsCacheTTLSeconds int `yaml:"settingsCacheTTLSeconds" validate:"gte=1"`

	// ConflictRetries bounds the transparent serialization-conflict
	// retries inside the admission transaction; CandidateRetries bounds
	// the caller-level search for a different candidate slot after a
	// definitive NO_POINTS/NO_DOCK.
	ConflictRetries  int `yaml:"conflictRetries" validate:"gte=0"`
	CandidateRetries int `yaml:"candidateRetries" validate:"gte=1"`

	ClosureRules []ClosureRule `yaml:"closureRules" validate:"dive"`

	Rules RulesConfig `yaml:"rules"`
}

// Default returns a config populated with the default policy values.
func Default() *Config {
	return &Config{
		Env:                     "dev",
		Timezone:                "UTC",
		DefaultBufferMinutes:    15,
		ScheduleCacheTTLSeconds: 60,
		SettingsCacheTTLSeconds: 60,
		ConflictRetries:         3,
		CandidateRetries:        3,
		Rules: RulesConfig{
			AvoidConcurrency:         true,
			MaxSimultaneous:          true,
			SizePriority:             true,
			DailyConcentration:       true,
			DockDistribution:         true,
			CategoryPreferredTime:    true,
			MinLeadTime:              true,
			MaxSimultaneousCap:       3,
			DailyCountThreshold:      8,
			MinLeadHours:             24,
			PreferredLargeBeforeHour: 12,
			PreferredSmallAfterHour:  14,
			SuggestionWindowHours:    4,
			SuggestionStepMinutes:    15,
			Penalties: RulePenalties{
				AvoidConcurrency:      20,
				MaxSimultaneous:       25,
				SizePriority:          10,
				DailyConcentration:    10,
				DockDistribution:      5,
				CategoryPreferredTime: 5,
				MinLeadTime:           30,
			},
		},
	}
}

// LoadFromPath reads, parses and validates a YAML config file. Fields
// absent from the file keep their defaults.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required fields and parses every closure RRULE.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	for _, rule := range cfg.ClosureRules {
		if _, err := rrule.StrToRRule(rule.RRule); err != nil {
			return fmt.Errorf("invalid rrule %q: %w", rule.RRule, err)
		}
	}

	for size := range cfg.Rules.DockBySize {
		if size != "S" && size != "M" && size != "L" {
			return fmt.Errorf("invalid size tier %q in dockBySize", size)
		}
	}

	return nil
}
