package cfg

import "time"

type Cfg struct {
	// Database configuration
	DBDriver    string
	DatabaseURL string

	// HTTP configuration
	Port          string
	AllowedOrigin string
	UserAgent     string
	BaseURL       string

	// Authentication
	JWTSecret string
	TokenTTL  time.Duration

	// LLM configuration
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	LLMTimeout    time.Duration
	LLMMaxRetries int

	// News source
	NewsBaseURL  string
	FetchTimeout time.Duration

	// Pipeline and scheduling
	PipelineFile   string
	IngestInterval time.Duration
	IngestSchedule string
	SeedManyPages  bool
	StrictCycle    bool
	WorkerCount    int
	TaskMaxRetries int
	SearchIDOffset int64

	// Necessities price proxy
	PricesURL string

	// Optional redis cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Optional S3 archive
	S3Bucket    string
	S3Region    string
	S3Prefix    string
	S3Endpoint  string
	S3PathStyle bool

	// Error reporting
	SentryDSN      string
	SentryEnv      string
	SentryRate     float64
	SentryProfiles float64

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}

// Schedule returns the cron spec used to trigger ingestion cycles.
func (c *Cfg) Schedule() string {
	if c.IngestSchedule != "" {
		return c.IngestSchedule
	}
	return "@every " + c.IngestInterval.String()
}

// PublicURL is the configured base URL, or localhost on the serving port.
func (c *Cfg) PublicURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return "http://localhost:" + c.Port
}
