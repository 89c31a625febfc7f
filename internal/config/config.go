package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values can use forms like "500ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped standard-library duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

const (
	configPathEnv       = "FEEDCURATOR_CONFIG"
	databasePathEnv     = "FEEDCURATOR_DB"
	assessorAPIKeyEnv   = "ASSESSOR_API_KEY"
	assessorModelEnv    = "ASSESSOR_MODEL"
	crossrefMailtoEnv   = "CROSSREF_MAILTO"
	scholarlyAPIKeyEnv  = "SCHOLARLY_API_KEY"
	transcriptTokenEnv  = "TRANSCRIPT_API_TOKEN"
	listenAddrEnv       = "FEEDCURATOR_LISTEN"
	logLevelEnv         = "FEEDCURATOR_LOG_LEVEL"
	defaultDatabasePath = "feedcurator.db"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Server     ServerConfig     `yaml:"server"`
	Worker     WorkerConfig     `yaml:"worker"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Discovery  DiscoveryConfig  `yaml:"discovery"`
	Providers  ProviderConfig   `yaml:"providers"`
	Assessor   AssessorConfig   `yaml:"assessor"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DatabaseConfig describes where the embedded SQLite database lives.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	ListenAddr      string   `yaml:"listenAddr"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout"`
}

// WorkerConfig tunes the job poll loop, retry backoff, and stale-job sweep.
type WorkerConfig struct {
	Concurrency     int      `yaml:"concurrency"`
	PollInterval    Duration `yaml:"pollInterval"`
	BackoffBase     Duration `yaml:"backoffBase"`
	BackoffFactor   float64  `yaml:"backoffFactor"`
	JitterFraction  float64  `yaml:"jitterFraction"`
	DefaultRetries  int      `yaml:"defaultRetries"`
	StaleGrace      Duration `yaml:"staleGrace"`
	SweepInterval   Duration `yaml:"sweepInterval"`
	IngestInterval  Duration `yaml:"ingestInterval"`
	RecoverInterval Duration `yaml:"recoverInterval"`
}

// CatalogConfig governs catalog maintenance.
type CatalogConfig struct {
	DeactivateAfter   int `yaml:"deactivateAfter"`
	DiscoverThreshold int `yaml:"discoverThreshold"`
}

// EnrichmentConfig bounds concurrent provider usage.
type EnrichmentConfig struct {
	BatchSize  int      `yaml:"batchSize"`
	BatchPause Duration `yaml:"batchPause"`
}

// DiscoveryConfig bounds replacement-URL probing.
type DiscoveryConfig struct {
	MaxCandidates int `yaml:"maxCandidates"`
}

// ProviderConfig groups external metric-provider endpoints.
type ProviderConfig struct {
	CrossrefURL        string `yaml:"crossrefUrl"`
	CrossrefMailto     string `yaml:"crossrefMailto"`
	ScholarlyGraphURL  string `yaml:"scholarlyGraphUrl"`
	ScholarlyAPIKey    string `yaml:"scholarlyApiKey"`
	UnpaywallURL       string `yaml:"unpaywallUrl"`
	TranscriptURL      string `yaml:"transcriptUrl"`
	TranscriptAPIToken string `yaml:"transcriptApiToken"`
}

// AssessorConfig defines how to contact the text-generation API.
type AssessorConfig struct {
	Endpoint    string   `yaml:"endpoint"`
	Model       string   `yaml:"model"`
	APIKey      string   `yaml:"apiKey"`
	MaxAttempts int      `yaml:"maxAttempts"`
	RetryBase   Duration `yaml:"retryBase"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console, json
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	path := os.Getenv(configPathEnv)
	if path == "" {
		path = "config.yaml"
	}

	data, err := os.ReadFile(path)
	if err == nil {
		var fileCfg Config
		if unmarshalErr := yaml.Unmarshal(data, &fileCfg); unmarshalErr != nil {
			log.Printf("config: cannot parse %s: %v", path, unmarshalErr)
		} else {
			cfg = merge(cfg, fileCfg)
		}
	}

	applyEnv(&cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(databasePathEnv); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv(listenAddrEnv); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv(assessorAPIKeyEnv); v != "" {
		cfg.Assessor.APIKey = v
	}
	if v := os.Getenv(assessorModelEnv); v != "" {
		cfg.Assessor.Model = v
	}
	if v := os.Getenv(crossrefMailtoEnv); v != "" {
		cfg.Providers.CrossrefMailto = v
	}
	if v := os.Getenv(scholarlyAPIKeyEnv); v != "" {
		cfg.Providers.ScholarlyAPIKey = v
	}
	if v := os.Getenv(transcriptTokenEnv); v != "" {
		cfg.Providers.TranscriptAPIToken = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		cfg.Logging.Level = v
	}
}

func merge(base, override Config) Config {
	if override.Database.Path != "" {
		base.Database.Path = override.Database.Path
	}

	if override.Server.ListenAddr != "" {
		base.Server.ListenAddr = override.Server.ListenAddr
	}
	if override.Server.ShutdownTimeout > 0 {
		base.Server.ShutdownTimeout = override.Server.ShutdownTimeout
	}

	if override.Worker.Concurrency > 0 {
		base.Worker.Concurrency = override.Worker.Concurrency
	}
	if override.Worker.PollInterval > 0 {
		base.Worker.PollInterval = override.Worker.PollInterval
	}
	if override.Worker.BackoffBase > 0 {
		base.Worker.BackoffBase = override.Worker.BackoffBase
	}
	if override.Worker.BackoffFactor > 0 {
		base.Worker.BackoffFactor = override.Worker.BackoffFactor
	}
	if override.Worker.JitterFraction > 0 {
		base.Worker.JitterFraction = override.Worker.JitterFraction
	}
	if override.Worker.DefaultRetries > 0 {
		base.Worker.DefaultRetries = override.Worker.DefaultRetries
	}
	if override.Worker.StaleGrace > 0 {
		base.Worker.StaleGrace = override.Worker.StaleGrace
	}
	if override.Worker.SweepInterval > 0 {
		base.Worker.SweepInterval = override.Worker.SweepInterval
	}
	if override.Worker.IngestInterval > 0 {
		base.Worker.IngestInterval = override.Worker.IngestInterval
	}
	if override.Worker.RecoverInterval > 0 {
		base.Worker.RecoverInterval = override.Worker.RecoverInterval
	}

	if override.Catalog.DeactivateAfter > 0 {
		base.Catalog.DeactivateAfter = override.Catalog.DeactivateAfter
	}
	if override.Catalog.DiscoverThreshold > 0 {
		base.Catalog.DiscoverThreshold = override.Catalog.DiscoverThreshold
	}

	if override.Enrichment.BatchSize > 0 {
		base.Enrichment.BatchSize = override.Enrichment.BatchSize
	}
	if override.Enrichment.BatchPause > 0 {
		base.Enrichment.BatchPause = override.Enrichment.BatchPause
	}

	if override.Discovery.MaxCandidates > 0 {
		base.Discovery.MaxCandidates = override.Discovery.MaxCandidates
	}

	if override.Providers.CrossrefURL != "" {
		base.Providers.CrossrefURL = override.Providers.CrossrefURL
	}
	if override.Providers.CrossrefMailto != "" {
		base.Providers.CrossrefMailto = override.Providers.CrossrefMailto
	}
	if override.Providers.ScholarlyGraphURL != "" {
		base.Providers.ScholarlyGraphURL = override.Providers.ScholarlyGraphURL
	}
	if override.Providers.ScholarlyAPIKey != "" {
		base.Providers.ScholarlyAPIKey = override.Providers.ScholarlyAPIKey
	}
	if override.Providers.UnpaywallURL != "" {
		base.Providers.UnpaywallURL = override.Providers.UnpaywallURL
	}
	if override.Providers.TranscriptURL != "" {
		base.Providers.TranscriptURL = override.Providers.TranscriptURL
	}
	if override.Providers.TranscriptAPIToken != "" {
		base.Providers.TranscriptAPIToken = override.Providers.TranscriptAPIToken
	}

	if override.Assessor.Endpoint != "" {
		base.Assessor.Endpoint = override.Assessor.Endpoint
	}
	if override.Assessor.Model != "" {
		base.Assessor.Model = override.Assessor.Model
	}
	if override.Assessor.APIKey != "" {
		base.Assessor.APIKey = override.Assessor.APIKey
	}
	if override.Assessor.MaxAttempts > 0 {
		base.Assessor.MaxAttempts = override.Assessor.MaxAttempts
	}
	if override.Assessor.RetryBase > 0 {
		base.Assessor.RetryBase = override.Assessor.RetryBase
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{Path: defaultDatabasePath},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Worker: WorkerConfig{
			Concurrency:     4,
			PollInterval:    Duration(2 * time.Second),
			BackoffBase:     Duration(30 * time.Second),
			BackoffFactor:   2.0,
			JitterFraction:  0.2,
			DefaultRetries:  3,
			StaleGrace:      Duration(15 * time.Minute),
			SweepInterval:   Duration(time.Minute),
			IngestInterval:  Duration(time.Hour),
			RecoverInterval: Duration(6 * time.Hour),
		},
		Catalog: CatalogConfig{
			DeactivateAfter:   5,
			DiscoverThreshold: 3,
		},
		Enrichment: EnrichmentConfig{
			BatchSize:  3,
			BatchPause: Duration(2 * time.Second),
		},
		Discovery: DiscoveryConfig{MaxCandidates: 3},
		Providers: ProviderConfig{
			CrossrefURL:       "https://api.crossref.org",
			ScholarlyGraphURL: "https://api.semanticscholar.org/graph/v1",
			UnpaywallURL:      "https://api.unpaywall.org/v2",
			TranscriptURL:     "https://transcripts.example.org",
		},
		Assessor: AssessorConfig{
			Endpoint:    "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-4o-mini",
			MaxAttempts: 3,
			RetryBase:   Duration(time.Second),
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}
