package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	DataDir    string           `mapstructure:"data_dir"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Embeddings EmbeddingsConfig `mapstructure:"embeddings"`
	Judge      JudgeConfig      `mapstructure:"judge"`
	Readwise   ReadwiseConfig   `mapstructure:"readwise"`
	Brand      Brand            `mapstructure:"brand"`
}

type LLMConfig struct {
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base_url"`
	MaxRetries int    `mapstructure:"max_retries"`
}

type EmbeddingsConfig struct {
	Model string `mapstructure:"model"`
}

type JudgeConfig struct {
	Provider string `mapstructure:"provider"` // anthropic, openai
	Model    string `mapstructure:"model"`
}

type ReadwiseConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Brand is the profile the pipeline writes for. It is loaded once at startup
// and handed to each agent constructor; agents never read config themselves.
type Brand struct {
	Profile     string   `mapstructure:"profile"`
	Description string   `mapstructure:"description"`
	Topics      []string `mapstructure:"topics"`
	Keywords    []string `mapstructure:"keywords"`
	Audience    []string `mapstructure:"audience"`
	Principles  []string `mapstructure:"principles"`
	Tone        string   `mapstructure:"tone"`
}

func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	defaultDataDir := filepath.Join(homeDir, ".draftsmith")

	viper.SetDefault("data_dir", defaultDataDir)
	viper.SetDefault("llm.model", "gpt-4-turbo")
	viper.SetDefault("llm.max_retries", 3)
	viper.SetDefault("embeddings.model", "text-embedding-3-small")
	viper.SetDefault("judge.provider", "anthropic")
	viper.SetDefault("judge.model", "claude-haiku-4-5-20251001")
	viper.SetDefault("readwise.base_url", "https://readwise.io/api/v2")
	viper.SetDefault("readwise.max_age_days", 30)
	viper.SetDefault("brand.profile", "Principal PM, AI services + infrastructure")
	viper.SetDefault("brand.description", "A senior product manager focused on AI services and infrastructure")
	viper.SetDefault("brand.topics", []string{
		"AI infrastructure", "AI", "Generative AI", "Product Management",
		"Business", "Strategy", "User Experience", "Value Chain",
	})
	viper.SetDefault("brand.keywords", []string{
		"AI", "infrastructure", "product", "service", "PM", "strategy", "scalable",
	})
	viper.SetDefault("brand.audience", []string{
		"Product managers", "Engineering leaders", "AI/ML practitioners",
	})
	viper.SetDefault("brand.principles", []string{
		"Grounded in real-world experience", "Actionable insights over theory",
	})
	viper.SetDefault("brand.tone", "Professional yet accessible")

	// Environment variable overrides
	viper.SetEnvPrefix("DRAFTSMITH")
	viper.AutomaticEnv()
	viper.BindEnv("data_dir", "DRAFTSMITH_DATA_DIR")
	viper.BindEnv("llm.model", "DRAFTSMITH_LLM_MODEL")
	viper.BindEnv("llm.base_url", "DRAFTSMITH_LLM_BASE_URL")
	viper.BindEnv("judge.provider", "DRAFTSMITH_JUDGE_PROVIDER")
	viper.BindEnv("judge.model", "DRAFTSMITH_JUDGE_MODEL")
	viper.BindEnv("brand.profile", "BRAND_PROFILE")

	// Config file
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultDataDir)

	// Read config file if exists (ignore error if not found)
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "draftsmith.db")
}
