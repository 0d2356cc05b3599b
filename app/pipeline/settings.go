package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/news-comb/app/llm"
)

const (
	DefaultKeyword     = "價格"
	DefaultSearchPages = 10
)

// Settings is the content of the pipeline YAML file.
type Settings struct {
	Keyword     string      `yaml:"keyword"`
	Topic       string      `yaml:"topic"`
	SearchPages int         `yaml:"search_pages"` // exclusive upper bound of the page range
	Prompts     Prompts     `yaml:"prompts"`
	SummaryKeys SummaryKeys `yaml:"summary_keys"`
	TitleFilter TitleFilter `yaml:"title_filter"`
}

type Prompts struct {
	Relevance string `yaml:"relevance"`
	Summary   string `yaml:"summary"`
	Keywords  string `yaml:"keywords"`
}

type SummaryKeys struct {
	Impact string `yaml:"impact"`
	Cause  string `yaml:"cause"`
}

func DefaultSettings() *Settings {
	return &Settings{
		Keyword:     DefaultKeyword,
		Topic:       llm.DefaultTopic,
		SearchPages: DefaultSearchPages,
		Prompts: Prompts{
			Relevance: llm.DefaultRelevancePrompt,
			Summary:   llm.DefaultSummaryPrompt,
			Keywords:  llm.DefaultKeywordsPrompt,
		},
		SummaryKeys: SummaryKeys{
			Impact: llm.DefaultImpactKey,
			Cause:  llm.DefaultCauseKey,
		},
	}
}

// LoadSettings reads path over the defaults. A missing file yields the defaults.
func LoadSettings(path string) (*Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("Pipeline file not found, using defaults", "path", path)
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline settings %s: %w", path, err)
	}

	return settings, nil
}

func (s *Settings) Validate() error {
	requiredFields := map[string]string{
		"keyword":          s.Keyword,
		"topic":            s.Topic,
		"summary prompt":   s.Prompts.Summary,
		"keywords prompt":  s.Prompts.Keywords,
		"impact key":       s.SummaryKeys.Impact,
		"cause key":        s.SummaryKeys.Cause,
		"relevance prompt": s.Prompts.Relevance,
	}

	for fieldName, fieldValue := range requiredFields {
		if strings.TrimSpace(fieldValue) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	if strings.Count(s.Prompts.Relevance, "%s") != 1 {
		return fmt.Errorf("relevance prompt must contain exactly one %%s for the topic")
	}

	if s.SearchPages < 2 {
		return fmt.Errorf("search pages must be at least 2, got %d", s.SearchPages)
	}

	if s.SummaryKeys.Impact == s.SummaryKeys.Cause {
		return fmt.Errorf("impact and cause keys must differ")
	}

	return nil
}
