// Package config loads settings from defaults, a YAML file, the environment
// and command-line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/conorfennell/phrasedrill/internal/distractor"
	"github.com/conorfennell/phrasedrill/internal/quiz"
)

// EnvPrefix prefixes every environment variable read by Load. A double
// underscore separates nested keys: PHRASEDRILL_QUIZ__BATCH_SIZE.
const EnvPrefix = "PHRASEDRILL_"

// Config holds every setting of the application.
type Config struct {
	DB           string `koanf:"db" validate:"required"`
	ReposDir     string `koanf:"repos_dir" validate:"required"`
	Addr         string `koanf:"addr" validate:"required,hostname_port"`
	LearningLang string `koanf:"learning_lang" validate:"required,min=2"`
	KnownLang    string `koanf:"known_lang" validate:"required,min=2,nefield=LearningLang"`
	Topic        string `koanf:"topic"`
	Entitled     bool   `koanf:"entitled"`
	LogLevel     string `koanf:"log_level" validate:"oneof=debug info warn error"`
	PruneOrphans bool   `koanf:"prune_orphans"`

	Audio  AudioConfig  `koanf:"audio"`
	Quiz   QuizConfig   `koanf:"quiz"`
	Review ReviewConfig `koanf:"review"`
}

type AudioConfig struct {
	BaseURL string `koanf:"base_url" validate:"omitempty,url"`
	Dir     string `koanf:"dir"`
}

type QuizConfig struct {
	BatchSize         int     `koanf:"batch_size" validate:"gte=1,lte=100"`
	RecentShare       float64 `koanf:"recent_share" validate:"gt=0,lte=1"`
	RecentWindowHours int     `koanf:"recent_window_hours" validate:"gte=1"`
	LengthTolerance   float64 `koanf:"length_tolerance" validate:"gt=0,lte=1"`
	MinDecoyPieces    int     `koanf:"min_decoy_pieces" validate:"gte=1"`
	MaxDecoyPieces    int     `koanf:"max_decoy_pieces" validate:"gtefield=MinDecoyPieces"`
	BlankDecoys       int     `koanf:"blank_decoys" validate:"gte=1"`
	AudioDecoys       int     `koanf:"audio_decoys" validate:"gte=1"`
	TokenCandidates   int     `koanf:"token_candidates" validate:"gte=1"`
	ScanLimit         int     `koanf:"scan_limit" validate:"gte=1"`
}

type ReviewConfig struct {
	LadderHours   []int `koanf:"ladder_hours" validate:"min=1,dive,gt=0"`
	MaxDifficulty int   `koanf:"max_difficulty" validate:"gte=1"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DB:           "phrasedrill.db",
		ReposDir:     "repos",
		Addr:         "localhost:8080",
		LearningLang: "ja",
		KnownLang:    "en",
		Entitled:     true,
		LogLevel:     "info",
		Quiz: QuizConfig{
			BatchSize:         15,
			RecentShare:       0.5,
			RecentWindowHours: 72,
			LengthTolerance:   0.3,
			MinDecoyPieces:    4,
			MaxDecoyPieces:    10,
			BlankDecoys:       2,
			AudioDecoys:       3,
			TokenCandidates:   10,
			ScanLimit:         200,
		},
		Review: ReviewConfig{
			LadderHours:   []int{1, 4, 12, 24, 48, 168, 336, 720},
			MaxDifficulty: 2,
		},
	}
}

// Flags registers the command-line flags understood by Load.
func Flags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "Path to a YAML configuration file")
	fs.String("db", d.DB, "Path to the SQLite database file")
	fs.String("repos-dir", d.ReposDir, "Directory for git corpus checkouts")
	fs.String("addr", d.Addr, "HTTP listen address for serve")
	fs.String("learning-lang", d.LearningLang, "Language being learned")
	fs.String("known-lang", d.KnownLang, "Language the learner already knows")
	fs.String("topic", "", "Only use sentences tagged with this topic")
	fs.String("log-level", d.LogLevel, "Log level: debug, info, warn or error")
	fs.Bool("prune-orphans", false, "Un-save saved sentences missing from the corpus")
}

// Load builds the configuration: defaults, then the YAML file named by the
// --config flag, then PHRASEDRILL_* variables, then flags set explicitly.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		key = strings.ReplaceAll(key, "__", ".")
		if key == "review.ladder_hours" {
			return key, strings.Split(value, ",")
		}
		return key, value
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	err = k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
		if f.Name == "config" {
			return "", nil
		}
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(fs, f)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its validation tags.
func Validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Generator returns the question generation settings.
func (c *Config) Generator() quiz.Config {
	return quiz.Config{
		BatchSize:   c.Quiz.BatchSize,
		RecentShare: c.Quiz.RecentShare,
		BlankDecoys: c.Quiz.BlankDecoys,
		AudioDecoys: c.Quiz.AudioDecoys,
		Distractor: distractor.Config{
			LengthTolerance: c.Quiz.LengthTolerance,
			TokenCandidates: c.Quiz.TokenCandidates,
			ScanLimit:       c.Quiz.ScanLimit,
			MinDecoyPieces:  c.Quiz.MinDecoyPieces,
			MaxDecoyPieces:  c.Quiz.MaxDecoyPieces,
		},
	}
}

// Ladder returns the review ladder as durations.
func (c *Config) Ladder() []time.Duration {
	ladder := make([]time.Duration, len(c.Review.LadderHours))
	for i, h := range c.Review.LadderHours {
		ladder[i] = time.Duration(h) * time.Hour
	}
	return ladder
}

// RecentWindow is how far back a save counts as recent for quiz selection.
func (c *Config) RecentWindow() time.Duration {
	return time.Duration(c.Quiz.RecentWindowHours) * time.Hour
}
