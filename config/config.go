package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"pitchcraft/generator"
)

// EnvPrefix prefixes every environment override, e.g. PITCHCRAFT_LLM_MODEL.
const EnvPrefix = "PITCHCRAFT"

// Config holds all application configuration
type Config struct {
	LLM        LLM        `mapstructure:"llm"`
	Schema     string     `mapstructure:"schema"`
	Database   Database   `mapstructure:"database"`
	Repository Repository `mapstructure:"repository"`
	Server     Server     `mapstructure:"server"`
	Auth       Auth       `mapstructure:"auth"`
	Export     Export     `mapstructure:"export"`
	Fallback   Fallback   `mapstructure:"fallback"`
	Logging    Logging    `mapstructure:"logging"`
}

// LLM selects the generation provider and its sampling parameters.
type LLM struct {
	Provider        string        `mapstructure:"provider"`
	Model           string        `mapstructure:"model"`
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	Temperature     float32       `mapstructure:"temperature"`
	MaxOutputTokens int32         `mapstructure:"max_output_tokens"`
	TopK            float32       `mapstructure:"top_k"`
	TopP            float32       `mapstructure:"top_p"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type Database struct {
	Path     string `mapstructure:"path"`
	LogLevel string `mapstructure:"log_level"`
}

type Repository struct {
	RetryCount int           `mapstructure:"retry_count"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

type Server struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	GenerateTimeout time.Duration `mapstructure:"generate_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// Auth maps bearer tokens to owners. Tokens are written "owner=token" so
// they survive viper's key lowercasing and can be set from one env var.
type Auth struct {
	Tokens      []string `mapstructure:"tokens"`
	AllowHeader bool     `mapstructure:"allow_header"`
}

type Export struct {
	Dir string `mapstructure:"dir"`
}

// Fallback seeds the offline pitch generator. Zero means a random seed.
type Fallback struct {
	Seed uint64 `mapstructure:"seed"`
}

type Logging struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Load reads configuration from defaults, an optional config file, a .env
// file and the environment, in increasing order of precedence. An empty
// configFile searches for config.{yaml,json} in . and ./config.
func Load(configFile string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configFile != "" {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	bindEnvironmentVariables(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	postProcessConfig(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultModels is used when llm.model is left empty.
var defaultModels = map[string]string{
	"gemini":   generator.DefaultGeminiModel,
	"google":   generator.DefaultGeminiModel,
	"openai":   "gpt-4o-mini",
	"deepseek": "deepseek-chat",
}

func postProcessConfig(cfg *Config) {
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultModels[cfg.LLM.Provider]
	}
}

func setDefaults(v *viper.Viper) {
	def := generator.DefaultGenerationConfig()

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.temperature", def.Temperature)
	v.SetDefault("llm.max_output_tokens", def.MaxOutputTokens)
	v.SetDefault("llm.top_k", def.TopK)
	v.SetDefault("llm.top_p", def.TopP)
	v.SetDefault("llm.timeout", generator.DefaultTimeout)

	v.SetDefault("schema", string(generator.SchemaFields))

	v.SetDefault("database.path", "pitchcraft.db")
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("repository.retry_count", 3)
	v.SetDefault("repository.retry_delay", 200*time.Millisecond)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.generate_timeout", 90*time.Second)
	v.SetDefault("server.cors_origins", []string{})

	v.SetDefault("auth.tokens", []string{})
	v.SetDefault("auth.allow_header", false)

	v.SetDefault("export.dir", "exports")
	v.SetDefault("fallback.seed", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty", false)
}

// bindEnvironmentVariables accepts the provider keys under their usual names
// when no PITCHCRAFT_LLM_API_KEY is set.
func bindEnvironmentVariables(v *viper.Viper) {
	if os.Getenv(EnvPrefix+"_LLM_API_KEY") != "" {
		return
	}
	provider := strings.ToLower(v.GetString("llm.provider"))
	switch provider {
	case "openai":
		bindEnvKeys(v, "llm.api_key", []string{"OPENAI_API_KEY"})
	case "deepseek":
		bindEnvKeys(v, "llm.api_key", []string{"DEEPSEEK_API_KEY", "OPENAI_API_KEY"})
	default:
		bindEnvKeys(v, "llm.api_key", []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "GOOGLE_AI_API_KEY"})
	}
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(v *viper.Viper, key string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			v.SetDefault(key, value)
			return
		}
	}
}

// Validate checks the values every command depends on. Credentials are
// checked by ValidateLLM, only where a model client is built.
func (c *Config) Validate() error {
	if _, err := generator.ParseSchemaKind(c.Schema); err != nil {
		return err
	}
	switch c.LLM.Provider {
	case "mock", "gemini", "google", "openai", "deepseek":
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}
	if c.Repository.RetryCount < 0 {
		return errors.New("repository.retry_count must not be negative")
	}
	if _, err := c.TokenMap(); err != nil {
		return err
	}
	return nil
}

// ValidateLLM checks the provider credentials needed to build a model client.
func (c *Config) ValidateLLM() error {
	switch c.LLM.Provider {
	case "gemini", "google", "openai":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm.api_key is required for provider %q", c.LLM.Provider)
		}
	case "deepseek":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm.api_key is required for provider %q", c.LLM.Provider)
		}
		if c.LLM.BaseURL == "" {
			return errors.New("llm.base_url is required for provider deepseek")
		}
	}
	return nil
}

// SchemaKind returns the validated schema kind.
func (c *Config) SchemaKind() generator.SchemaKind {
	kind, err := generator.ParseSchemaKind(c.Schema)
	if err != nil {
		return generator.SchemaFields
	}
	return kind
}

// LLMSettings converts the llm section for generator.NewLLMFromSettings.
func (c *Config) LLMSettings() generator.LLMSettings {
	return generator.LLMSettings{
		Provider: c.LLM.Provider,
		Model:    c.LLM.Model,
		APIKey:   c.LLM.APIKey,
		BaseURL:  c.LLM.BaseURL,
		Generation: generator.GenerationConfig{
			Temperature:     c.LLM.Temperature,
			MaxOutputTokens: c.LLM.MaxOutputTokens,
			TopK:            c.LLM.TopK,
			TopP:            c.LLM.TopP,
		},
	}
}

// TokenMap parses auth.tokens into token -> owner id.
func (c *Config) TokenMap() (map[string]string, error) {
	out := make(map[string]string, len(c.Auth.Tokens))
	for _, entry := range c.Auth.Tokens {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		owner, token, ok := strings.Cut(entry, "=")
		owner, token = strings.TrimSpace(owner), strings.TrimSpace(token)
		if !ok || owner == "" || token == "" {
			return nil, fmt.Errorf("auth.tokens entry %q must look like owner=token", entry)
		}
		out[token] = owner
	}
	return out, nil
}
