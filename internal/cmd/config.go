package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/question"
	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/session"
	"gopkg.in/yaml.v3"
)

// Config is the YAML-driven process configuration. Round durations and
// the submission grace period are configuration inputs, not constants.
type Config struct {
	Game struct {
		FFFTimeLimitMs int64 `yaml:"fff_time_limit_ms"`
		ATATimeLimitMs int64 `yaml:"ata_time_limit_ms"`
		GraceMs        int64 `yaml:"grace_ms"`
	} `yaml:"game"`

	Database struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"database"`

	Results struct {
		Enabled       bool   `yaml:"enabled"`
		StreamName    string `yaml:"stream_name"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"results"`

	// Questions seeds the in-memory source when the database is
	// disabled (standalone mode).
	Questions []struct {
		ID           string   `yaml:"id"`
		Text         string   `yaml:"text"`
		Options      []string `yaml:"options"`
		CorrectOrder []int    `yaml:"correct_order"`
	} `yaml:"questions"`
}

func loadConfig(path string) (*Config, error) {
	var config Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &config, nil
}

// sessionConfig converts the YAML game block to coordinator config,
// falling back to the observed production values.
func (c *Config) sessionConfig() session.Config {
	cfg := session.DefaultConfig()
	if c.Game.FFFTimeLimitMs > 0 {
		cfg.FFFTimeLimit = time.Duration(c.Game.FFFTimeLimitMs) * time.Millisecond
	}
	if c.Game.ATATimeLimitMs > 0 {
		cfg.ATATimeLimit = time.Duration(c.Game.ATATimeLimitMs) * time.Millisecond
	}
	if c.Game.GraceMs > 0 {
		cfg.Grace = time.Duration(c.Game.GraceMs) * time.Millisecond
	}
	return cfg
}

func (c *Config) seedQuestions() []question.Question {
	out := make([]question.Question, 0, len(c.Questions))
	for _, q := range c.Questions {
		out = append(out, question.Question{
			ID:           q.ID,
			Text:         q.Text,
			Options:      q.Options,
			CorrectOrder: q.CorrectOrder,
		})
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
