package services

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// KeywordConfig holds the analyzer's keyword sets. Lists can be overridden
// from a YAML file so moderation can tune vocabulary without a redeploy.
type KeywordConfig struct {
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
}

func DefaultKeywords() KeywordConfig {
	return KeywordConfig{
		Positive: []string{
			"excellent", "reliable", "professional", "skilled", "trusted",
			"friendly", "experienced", "affordable", "prompt", "courteous",
			"dependable", "efficient", "thorough", "honest", "recommended",
			"outstanding", "exceptional", "meticulous",
		},
		Negative: []string{
			"unprofessional", "overpriced", "sloppy", "unreliable", "poor",
			"rude", "careless", "dishonest", "terrible", "awful",
			"disappointing", "incompetent", "negligent", "scam", "shoddy",
			"untrustworthy", "mediocre",
		},
	}
}

// LoadKeywordConfig reads a keyword override file. An empty path returns the
// defaults; a present but unreadable or malformed file is an error, since a
// silently-ignored override would skew every score after it.
func LoadKeywordConfig(path string) (KeywordConfig, error) {
	if path == "" {
		return DefaultKeywords(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return KeywordConfig{}, fmt.Errorf("read keyword config: %w", err)
	}
	var cfg KeywordConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return KeywordConfig{}, fmt.Errorf("parse keyword config: %w", err)
	}
	if len(cfg.Positive) == 0 || len(cfg.Negative) == 0 {
		return KeywordConfig{}, fmt.Errorf("keyword config %s must define both positive and negative lists", path)
	}
	return cfg, nil
}
