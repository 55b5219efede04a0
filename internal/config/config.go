package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// Placeholder values that the deployment docs ship as defaults. A
// credential equal to its placeholder counts as unset and activates the
// mock fallback for that capability.
const (
	PlaceholderOpenAIKey     = "your-openai-api-key"
	PlaceholderElevenLabsKey = "your-elevenlabs-api-key"
	PlaceholderLiveKitKey    = "your-livekit-api-key"
	PlaceholderLiveKitSecret = "your-livekit-api-secret"
)

const defaultProviderTimeoutSecs = 30

// Config aggregates every configuration section of the service.
type Config struct {
	Server     ServerConfig
	OpenAI     OpenAIConfig
	ElevenLabs ElevenLabsConfig
	LiveKit    LiveKitConfig
	Media      MediaConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	oa, err := loadOpenAIConfig()
	if err != nil {
		return nil, err
	}

	el, err := loadElevenLabsConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:     server,
		OpenAI:     oa,
		ElevenLabs: el,
		LiveKit:    loadLiveKitConfig(),
		Media:      loadMediaConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "3000"
	}

	if strings.Contains(port, ":") {
		// Allow ":3000" or "127.0.0.1:3000" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// OpenAIConfig covers both Whisper transcription and story generation,
// which share a single credential.
type OpenAIConfig struct {
	APIKey           string
	Model            string
	BaseURL          string
	MaxTokens        int
	Temperature      float32
	PresencePenalty  float32
	FrequencyPenalty float32
	Timeout          time.Duration
}

// Configured reports whether a usable credential is present.
func (c OpenAIConfig) Configured() bool {
	return c.APIKey != "" && c.APIKey != PlaceholderOpenAIKey
}

// NewChatModel builds the eino chat model used for story generation.
func (c OpenAIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("OPENAI_API_KEY is missing or still the placeholder")
	}

	maxTokens := c.MaxTokens
	temperature := c.Temperature
	presencePenalty := c.PresencePenalty
	frequencyPenalty := c.FrequencyPenalty

	cfg := &openai.ChatModelConfig{
		BaseURL:          c.BaseURL,
		APIKey:           c.APIKey,
		Model:            c.Model,
		Timeout:          c.Timeout,
		MaxTokens:        &maxTokens,
		Temperature:      &temperature,
		PresencePenalty:  &presencePenalty,
		FrequencyPenalty: &frequencyPenalty,
	}

	return openai.NewChatModel(ctx, cfg)
}

func loadOpenAIConfig() (OpenAIConfig, error) {
	timeout, err := parseTimeoutEnv("OPENAI_TIMEOUT")
	if err != nil {
		return OpenAIConfig{}, err
	}

	maxTokens := 200
	if override, err := parseOptionalIntEnv("OPENAI_MAX_TOKENS"); err != nil {
		return OpenAIConfig{}, err
	} else if override != nil {
		maxTokens = *override
	}

	return OpenAIConfig{
		APIKey:           strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		Model:            getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		BaseURL:          getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		MaxTokens:        maxTokens,
		Temperature:      0.8,
		PresencePenalty:  0.1,
		FrequencyPenalty: 0.1,
		Timeout:          timeout,
	}, nil
}

// ElevenLabsConfig describes the speech synthesis provider.
type ElevenLabsConfig struct {
	APIKey          string
	VoiceID         string
	ModelID         string
	Stability       float32
	SimilarityBoost float32
	Style           float32
	SpeakerBoost    bool
	Timeout         time.Duration
}

// Configured reports whether a usable credential is present.
func (c ElevenLabsConfig) Configured() bool {
	return c.APIKey != "" && c.APIKey != PlaceholderElevenLabsKey
}

func loadElevenLabsConfig() (ElevenLabsConfig, error) {
	timeout, err := parseTimeoutEnv("ELEVENLABS_TIMEOUT")
	if err != nil {
		return ElevenLabsConfig{}, err
	}

	return ElevenLabsConfig{
		APIKey: strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY")),
		// Rachel: warm and friendly, suits children's stories.
		VoiceID:         getEnvOrDefault("ELEVENLABS_VOICE_ID", "21m00Tcm4TlvDq8ikWAM"),
		ModelID:         getEnvOrDefault("ELEVENLABS_MODEL_ID", "eleven_monolingual_v1"),
		Stability:       0.75,
		SimilarityBoost: 0.75,
		Style:           0.2,
		SpeakerBoost:    true,
		Timeout:         timeout,
	}, nil
}

// LiveKitConfig holds the realtime room token credential pair.
type LiveKitConfig struct {
	APIKey    string
	APISecret string
	TokenTTL  time.Duration
}

// Configured reports whether a real credential pair is present.
func (c LiveKitConfig) Configured() bool {
	return c.APIKey != "" && c.APIKey != PlaceholderLiveKitKey &&
		c.APISecret != "" && c.APISecret != PlaceholderLiveKitSecret
}

func loadLiveKitConfig() LiveKitConfig {
	apiKey := strings.TrimSpace(os.Getenv("LIVEKIT_API_KEY"))
	if apiKey == "" {
		apiKey = PlaceholderLiveKitKey
	}
	apiSecret := strings.TrimSpace(os.Getenv("LIVEKIT_API_SECRET"))
	if apiSecret == "" {
		apiSecret = PlaceholderLiveKitSecret
	}

	return LiveKitConfig{
		APIKey:    apiKey,
		APISecret: apiSecret,
		TokenTTL:  time.Hour,
	}
}

// MediaConfig locates the on-disk audio output and upload scratch dirs.
type MediaConfig struct {
	AudioDir       string
	UploadDir      string
	MaxUploadBytes int64
}

func loadMediaConfig() MediaConfig {
	return MediaConfig{
		AudioDir:       getEnvOrDefault("AUDIO_DIR", "audio"),
		UploadDir:      getEnvOrDefault("UPLOAD_DIR", "uploads"),
		MaxUploadBytes: 10 << 20,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseTimeoutEnv(key string) (time.Duration, error) {
	seconds := defaultProviderTimeoutSecs
	if override, err := parseOptionalIntEnv(key); err != nil {
		return 0, err
	} else if override != nil {
		if *override < 1 {
			return 0, fmt.Errorf("invalid %s value %d: must be at least 1 second", key, *override)
		}
		seconds = *override
	}
	return time.Duration(seconds) * time.Second, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
