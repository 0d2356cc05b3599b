package cfg

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmpOr(Version, "unknown")
}

const defaultPricesURL = "https://opendata.ey.gov.tw/api/ConsumerProtection/NecessitiesPrice"

type rawCfg struct {
	// Database configuration
	DBDriver    string `long:"db-driver" env:"DB_DRIVER" default:"sqlite" choice:"sqlite" choice:"postgres" description:"Database driver"`
	DatabaseURL string `long:"database-url" env:"DATABASE_URL" default:"news_database.db" description:"SQLite file path or postgres connection URL"`

	// HTTP configuration
	Port          string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	AllowedOrigin string `long:"allowed-origin" env:"ALLOWED_ORIGIN" default:"http://localhost:8080" description:"Origin allowed by CORS"`
	UserAgent     string `long:"user-agent" env:"USER_AGENT" default:"News Comb/1.0" description:"User agent string for outgoing HTTP requests"`
	BaseURL       string `long:"base-url" env:"BASE_URL" description:"Public URL of this service, used for RSS self links"`

	// Authentication
	JWTSecret string `long:"jwt-secret" env:"JWT_SECRET" description:"Secret used to sign access tokens (required)" required:"true"`
	TokenTTL  int    `long:"token-ttl" env:"TOKEN_TTL_MINUTES" default:"30" description:"Access token lifetime in minutes"`

	// LLM configuration
	OpenAIKey     string `long:"openai-key" env:"OPENAI_API_KEY" description:"OpenAI API key (required)" required:"true"`
	OpenAIBaseURL string `long:"openai-base-url" env:"OPENAI_BASE_URL" description:"Override for the chat completion endpoint base URL"`
	OpenAIModel   string `long:"openai-model" env:"OPENAI_MODEL" default:"gpt-3.5-turbo" description:"Chat completion model"`
	LLMTimeout    int    `long:"llm-timeout" env:"LLM_TIMEOUT" default:"60" description:"Timeout for a single LLM call in seconds"`
	LLMMaxRetries int    `long:"llm-max-retries" env:"LLM_MAX_RETRIES" default:"2" description:"Retries for transient LLM failures"`

	// News source
	NewsBaseURL  string `long:"news-base-url" env:"NEWS_BASE_URL" default:"https://udn.com" description:"Base URL of the news site"`
	FetchTimeout int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Timeout for news site requests in seconds"`

	// Pipeline and scheduling
	PipelineFile   string `long:"pipeline-file" env:"PIPELINE_FILE" default:"./pipeline.yml" description:"YAML file with keyword, topic and prompt settings"`
	IngestInterval int    `long:"ingest-interval" env:"INGEST_INTERVAL" default:"100" description:"Ingestion interval in minutes"`
	IngestSchedule string `long:"ingest-schedule" env:"INGEST_SCHEDULE" description:"Cron spec for ingestion, overrides the interval"`
	SeedManyPages  bool   `long:"seed-many-pages" env:"SEED_MANY_PAGES" description:"Fetch all search pages when seeding an empty store"`
	StrictCycle    bool   `long:"strict-cycle" env:"STRICT_CYCLE" description:"Abort an ingestion cycle on the first failing article"`
	WorkerCount    int    `long:"worker-count" env:"WORKER_COUNT" default:"1" description:"Number of background workers"`
	TaskMaxRetries int    `long:"task-max-retries" env:"TASK_MAX_RETRIES" default:"3" description:"Retries for failed background tasks"`
	SearchIDOffset int64  `long:"search-id-offset" env:"SEARCH_ID_OFFSET" default:"1000000" description:"First id handed out to ephemeral search results"`

	// Necessities price proxy
	PricesURL string `long:"prices-url" env:"PRICES_URL" default:"https://opendata.ey.gov.tw/api/ConsumerProtection/NecessitiesPrice" description:"Necessities price open data endpoint"`

	// Optional redis cache
	RedisAddr     string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address, cache disabled when empty"`
	RedisPassword string `long:"redis-password" env:"REDIS_PASSWORD" description:"Redis password"`
	RedisDB       int    `long:"redis-db" env:"REDIS_DB" default:"0" description:"Redis database number"`

	// Optional S3 archive
	S3Bucket    string `long:"s3-bucket" env:"S3_BUCKET" description:"S3 bucket for article archive, disabled when empty"`
	S3Region    string `long:"s3-region" env:"S3_REGION" description:"S3 region"`
	S3Prefix    string `long:"s3-prefix" env:"S3_PREFIX" description:"Key prefix inside the bucket"`
	S3Endpoint  string `long:"s3-endpoint" env:"S3_ENDPOINT" description:"Endpoint of an S3-compatible store"`
	S3PathStyle bool   `long:"s3-path-style" env:"S3_USE_PATH_STYLE" description:"Use path-style S3 addressing"`

	// Error reporting
	SentryDSN         string  `long:"sentry-dsn" env:"SENTRY_DSN" description:"Sentry DSN, error reporting disabled when empty"`
	SentryEnvironment string  `long:"sentry-environment" env:"SENTRY_ENVIRONMENT" default:"production" description:"Environment reported to Sentry"`
	SentrySampleRate  float64 `long:"sentry-traces-sample-rate" env:"SENTRY_TRACES_SAMPLE_RATE" default:"1.0" description:"Share of requests traced by Sentry, between 0 and 1"`
	SentryProfileRate float64 `long:"sentry-profiles-sample-rate" env:"SENTRY_PROFILES_SAMPLE_RATE" default:"1.0" description:"Share of traced requests profiled by Sentry, between 0 and 1"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Taipei)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load reads an optional .env file and then parses flags and environment variables.
// It returns nil, nil when help was requested.
func Load() (*Cfg, error) {
	_ = godotenv.Load()

	cfg, err := Parse(os.Args[1:])
	if err != nil || cfg == nil {
		return cfg, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func Parse(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validate(&raw); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	prefix := strings.Trim(raw.S3Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	return &Cfg{
		DBDriver:       raw.DBDriver,
		DatabaseURL:    raw.DatabaseURL,
		Port:           raw.Port,
		AllowedOrigin:  raw.AllowedOrigin,
		UserAgent:      raw.UserAgent,
		BaseURL:        strings.TrimRight(raw.BaseURL, "/"),
		JWTSecret:      raw.JWTSecret,
		TokenTTL:       time.Duration(raw.TokenTTL) * time.Minute,
		OpenAIKey:      raw.OpenAIKey,
		OpenAIBaseURL:  raw.OpenAIBaseURL,
		OpenAIModel:    raw.OpenAIModel,
		LLMTimeout:     time.Duration(raw.LLMTimeout) * time.Second,
		LLMMaxRetries:  raw.LLMMaxRetries,
		NewsBaseURL:    strings.TrimRight(raw.NewsBaseURL, "/"),
		FetchTimeout:   time.Duration(raw.FetchTimeout) * time.Second,
		PipelineFile:   raw.PipelineFile,
		IngestInterval: time.Duration(raw.IngestInterval) * time.Minute,
		IngestSchedule: raw.IngestSchedule,
		SeedManyPages:  raw.SeedManyPages,
		StrictCycle:    raw.StrictCycle,
		WorkerCount:    raw.WorkerCount,
		TaskMaxRetries: raw.TaskMaxRetries,
		SearchIDOffset: raw.SearchIDOffset,
		PricesURL:      cmpOr(raw.PricesURL, defaultPricesURL),
		RedisAddr:      raw.RedisAddr,
		RedisPassword:  raw.RedisPassword,
		RedisDB:        raw.RedisDB,
		S3Bucket:       raw.S3Bucket,
		S3Region:       raw.S3Region,
		S3Prefix:       prefix,
		S3Endpoint:     raw.S3Endpoint,
		S3PathStyle:    raw.S3PathStyle,
		SentryDSN:      raw.SentryDSN,
		SentryEnv:      raw.SentryEnvironment,
		SentryRate:     raw.SentrySampleRate,
		SentryProfiles: raw.SentryProfileRate,
		Timezone:       raw.Timezone,
		Debug:          raw.Debug,
		Version:        GetVersion(),
	}, nil
}

func validate(raw *rawCfg) error {
	positive := map[string]int{
		"token ttl":       raw.TokenTTL,
		"llm timeout":     raw.LLMTimeout,
		"fetch timeout":   raw.FetchTimeout,
		"ingest interval": raw.IngestInterval,
		"worker count":    raw.WorkerCount,
	}

	for name, value := range positive {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if raw.LLMMaxRetries < 0 || raw.TaskMaxRetries < 0 {
		return fmt.Errorf("retry counts must be non-negative")
	}

	if raw.SearchIDOffset <= 0 {
		return fmt.Errorf("search id offset must be positive")
	}

	for name, rate := range map[string]float64{
		"sentry traces sample rate":   raw.SentrySampleRate,
		"sentry profiles sample rate": raw.SentryProfileRate,
	} {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}

	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}

// cmpOr mirrors cmp.Or (Go 1.22+): it returns the first argument that is not
// the zero value, or the zero value if all are.
func cmpOr[T comparable](vals ...T) T {
	var zero T
	for _, v := range vals {
		if v != zero {
			return v
		}
	}
	return zero
}
