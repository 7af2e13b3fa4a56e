package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"quiz-player/internal/domain"
)

type Config struct {
	Server struct {
		Port     string `yaml:"port"`
		APIBase  string `yaml:"apiBase"`
		Shutdown string `yaml:"shutdown"`
	} `yaml:"server"`
	API struct {
		// Base is the quiz API root, e.g. http://localhost:8080/quiz.
		Base    string `yaml:"base" validate:"required,url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	Log struct {
		Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
		Format string `yaml:"format" validate:"omitempty,oneof=json pretty"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db" validate:"min=0"`
		History  int    `yaml:"history" validate:"min=0"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Bank struct {
		// File is an optional YAML seed of questions with answers.
		File string `yaml:"file"`
		TTL  string `yaml:"ttl"`
	} `yaml:"bank"`
	Policy PolicyConfig `yaml:"policy"`
}

// PolicyConfig selects a preset and overrides individual fields.
type PolicyConfig struct {
	Preset         string `yaml:"preset" validate:"omitempty,oneof=long-form fast"`
	QuestionBudget string `yaml:"questionBudget"`
	CorrectDelay   string `yaml:"correctDelay"`
	WrongDelay     string `yaml:"wrongDelay"`
	TimeoutDelay   string `yaml:"timeoutDelay"`
	ManualNext     *bool  `yaml:"manualNext"`
	PassThreshold  *int   `yaml:"passThreshold"`
	ThemedResult   *bool  `yaml:"themedResult"`
	RefetchOnRetry *bool  `yaml:"refetchOnRetry"`

	CorrectMessage  string `yaml:"correctMessage"`
	WrongMessage    string `yaml:"wrongMessage"`
	TimeoutMessage  string `yaml:"timeoutMessage"`
	NoQuestionsText string `yaml:"noQuestionsText"`
}

const (
	defaultAPIBase   = "http://localhost:8080/quiz"
	defaultLogLevel  = "info"
	defaultLogFormat = "pretty"
)

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.API.Base = defaultAPIBase
	cfg.API.Timeout = "10s"
	cfg.Server.APIBase = "/quiz"
	cfg.Log.Level = defaultLogLevel
	cfg.Log.Format = defaultLogFormat
	cfg.Redis.History = 50
	cfg.Policy.Preset = domain.PolicyLongForm
	return cfg
}

// Load reads YAML config from path on top of the defaults, then applies
// environment overrides. A missing file is not an error; a .env file in the
// working directory is loaded when present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return cfg, err
		}
	}
	applyEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("QUIZ_API_BASE"); v != "" {
		cfg.API.Base = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := os.Getenv("QUIZ_POLICY"); v != "" {
		cfg.Policy.Preset = v
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags on the config and the resolved policy.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	policy, err := cfg.Policy.Resolve()
	if err != nil {
		return err
	}
	if err := validate.Struct(policy); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}
	return nil
}

// Resolve builds the domain policy from the preset plus overrides.
func (p PolicyConfig) Resolve() (domain.Policy, error) {
	policy, err := domain.PolicyByName(p.Preset)
	if err != nil {
		return policy, err
	}
	policy.QuestionBudget = Duration(p.QuestionBudget, policy.QuestionBudget)
	policy.CorrectDelay = Duration(p.CorrectDelay, policy.CorrectDelay)
	policy.WrongDelay = Duration(p.WrongDelay, policy.WrongDelay)
	policy.TimeoutDelay = Duration(p.TimeoutDelay, policy.TimeoutDelay)
	if p.ManualNext != nil {
		policy.ManualNext = *p.ManualNext
	}
	if p.PassThreshold != nil {
		policy.PassThreshold = *p.PassThreshold
	}
	if p.ThemedResult != nil {
		policy.ThemedResult = *p.ThemedResult
	}
	if p.RefetchOnRetry != nil {
		policy.RefetchOnRetry = *p.RefetchOnRetry
	}
	if p.CorrectMessage != "" {
		policy.CorrectMessage = p.CorrectMessage
	}
	if p.WrongMessage != "" {
		policy.WrongMessage = p.WrongMessage
	}
	if p.TimeoutMessage != "" {
		policy.TimeoutMessage = p.TimeoutMessage
	}
	if p.NoQuestionsText != "" {
		policy.NoQuestionsText = p.NoQuestionsText
	}
	return policy, nil
}

// ResolvePreset resolves name with the same overrides applied.
func (p PolicyConfig) ResolvePreset(name string) (domain.Policy, error) {
	p.Preset = name
	return p.Resolve()
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
