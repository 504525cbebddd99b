package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env            string
	ServiceName    string
	ServiceVersion string

	OpenAIKey string
	GroqKey   string

	OtelExporterOTLPEndpoint string
	OtelExporterOTLPHeaders  string
	SentryDSN                string

	Port string

	Transcription TranscriptionConfig
	Media         MediaConfig
}

type TranscriptionConfig struct {
	Provider         string `yaml:"provider"`
	Model            string `yaml:"model"`
	FallbackEnabled  bool   `yaml:"fallback_enabled"`
	FallbackProvider string `yaml:"fallback_provider"`
}

type MediaConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path"`
	WhisperPath string `yaml:"whisper_path"`
	TempDir     string `yaml:"temp_dir"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:                      os.Getenv("ENV"),
		ServiceName:              os.Getenv("SERVICE_NAME"),
		ServiceVersion:           os.Getenv("SERVICE_VERSION"),
		OpenAIKey:                os.Getenv("OPENAI_API_KEY"),
		GroqKey:                  os.Getenv("GROQ_API_KEY"),
		OtelExporterOTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OtelExporterOTLPHeaders:  os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"),
		SentryDSN:                os.Getenv("SENTRY_DSN"),
		Port:                     os.Getenv("PORT"),
		Media: MediaConfig{
			FFmpegPath:  os.Getenv("FFMPEG_PATH"),
			WhisperPath: os.Getenv("WHISPER_PATH"),
			TempDir:     os.Getenv("TRANSCRIBER_TEMP_DIR"),
		},
	}

	// Load from YAML file if available
	if err := cfg.LoadFromYAML("config.yaml"); err != nil {
		return nil, fmt.Errorf("failed to load YAML config: %w", err)
	}

	// Set defaults
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "video-transcriptor"
	}
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = "1.0.0"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	cfg.SetTranscriptionDefaults()
	cfg.SetMediaDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) LoadFromYAML(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File not found is not an error
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var yamlConfig struct {
		Transcription TranscriptionConfig `yaml:"transcription"`
		Media         MediaConfig         `yaml:"media"`
	}

	if err := yaml.Unmarshal(data, &yamlConfig); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlConfig.Transcription.Provider != "" {
		c.Transcription.Provider = yamlConfig.Transcription.Provider
	}
	if yamlConfig.Transcription.Model != "" {
		c.Transcription.Model = yamlConfig.Transcription.Model
	}
	if yamlConfig.Transcription.FallbackEnabled {
		c.Transcription.FallbackEnabled = true
	}
	if yamlConfig.Transcription.FallbackProvider != "" {
		c.Transcription.FallbackProvider = yamlConfig.Transcription.FallbackProvider
	}

	// Environment wins over the file for binary locations
	if c.Media.FFmpegPath == "" {
		c.Media.FFmpegPath = yamlConfig.Media.FFmpegPath
	}
	if c.Media.WhisperPath == "" {
		c.Media.WhisperPath = yamlConfig.Media.WhisperPath
	}
	if c.Media.TempDir == "" {
		c.Media.TempDir = yamlConfig.Media.TempDir
	}

	return nil
}

// SetTranscriptionDefaults keeps the local whisper "base" model unless configured otherwise.
func (c *Config) SetTranscriptionDefaults() {
	if c.Transcription.Provider == "" {
		c.Transcription.Provider = "whisper"
	}
	if c.Transcription.Model == "" && c.Transcription.Provider == "whisper" {
		c.Transcription.Model = "base"
	}
	if c.Transcription.FallbackEnabled && c.Transcription.FallbackProvider == "" {
		c.Transcription.FallbackProvider = "openai"
	}
}

func (c *Config) SetMediaDefaults() {
	if c.Media.FFmpegPath == "" {
		c.Media.FFmpegPath = "ffmpeg"
	}
	if c.Media.WhisperPath == "" {
		c.Media.WhisperPath = "whisper"
	}
}

// Providers returns every provider the configuration will instantiate.
func (c *Config) Providers() []string {
	providers := []string{c.Transcription.Provider}
	if c.Transcription.FallbackEnabled {
		providers = append(providers, c.Transcription.FallbackProvider)
	}
	return providers
}

func (c *Config) validate() error {
	for _, p := range c.Providers() {
		switch strings.ToLower(p) {
		case "whisper":
		case "openai":
			if c.OpenAIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
			}
		case "groq":
			if c.GroqKey == "" {
				return fmt.Errorf("GROQ_API_KEY is required for the groq provider")
			}
		default:
			return fmt.Errorf("unknown transcription provider %q", p)
		}
	}
	return nil
}

// OTLPHeaders parses OTEL_EXPORTER_OTLP_HEADERS ("k1=v1,k2=v2").
func (c *Config) OTLPHeaders() map[string]string {
	if c.OtelExporterOTLPHeaders == "" {
		return nil
	}
	headers := make(map[string]string)
	for _, pair := range strings.Split(c.OtelExporterOTLPHeaders, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers
}
