package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug    bool   `env:"DEBUG" envDefault:"false"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Database struct {
		// sqlite:<path> or a bare file path.
		URL string `env:"DATABASE_URL" envDefault:"sqlite:data/terminal.db"`
	}

	JWT struct {
		Secret          string `env:"JWT_SECRET,required"`
		ExpirationHours int    `env:"JWT_EXPIRATION_HOURS" envDefault:"24"`
	}

	Solana struct {
		Network      string `env:"SOLANA_NETWORK" envDefault:"devnet"`
		RPCURL       string `env:"SOLANA_RPC_URL" envDefault:""`
		HeliusAPIKey string `env:"HELIUS_API_KEY" envDefault:""`
		Commitment   string `env:"SOLANA_COMMITMENT" envDefault:"confirmed"`

		BatchSwapProgramID string `env:"BATCH_SWAP_PROGRAM_ID" envDefault:""`
		FeeRecipient       string `env:"FEE_RECIPIENT" envDefault:""`
	}

	Market struct {
		UpdateIntervalMs int      `env:"PRICE_UPDATE_INTERVAL_MS" envDefault:"500"`
		DefaultTokens    []string `env:"TRACKED_TOKENS" envSeparator:"," envDefault:"SOL,USDC,BTC,ETH,JUP"`
	}

	Redis struct {
		// Empty addr disables the latest-price cache.
		Addr     string `env:"REDIS_ADDR" envDefault:""`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Assistant struct {
		Provider      string  `env:"AI_PROVIDER" envDefault:"deepseek"`
		DeepSeekKey   string  `env:"DEEPSEEK_API_KEY" envDefault:""`
		OpenAIKey     string  `env:"OPENAI_API_KEY" envDefault:""`
		AnthropicKey  string  `env:"ANTHROPIC_API_KEY" envDefault:""`
		GeminiKey     string  `env:"GEMINI_API_KEY" envDefault:""`
		Model         string  `env:"AI_MODEL" envDefault:""`
		RespondToAll  bool    `env:"AI_RESPOND_TO_ALL" envDefault:"false"`
		ContextWindow int     `env:"AI_CONTEXT_WINDOW" envDefault:"20"`
		MaxTokens     int     `env:"AI_MAX_TOKENS" envDefault:"500"`
		Temperature   float64 `env:"AI_TEMPERATURE" envDefault:"0.8"`
		SystemPrompt  string  `env:"AI_SYSTEM_PROMPT" envDefault:""`
	}
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is Load that panics, for main wiring.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) Validate() error {
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.JWT.ExpirationHours < 1 || c.JWT.ExpirationHours > 720 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be between 1 and 720")
	}
	switch c.Solana.Network {
	case "mainnet", "devnet", "localnet":
	default:
		return fmt.Errorf("SOLANA_NETWORK must be one of mainnet, devnet, localnet")
	}
	if c.Market.UpdateIntervalMs <= 0 {
		return fmt.Errorf("PRICE_UPDATE_INTERVAL_MS must be positive")
	}
	return nil
}

// SQLitePath strips the sqlite: scheme from DATABASE_URL.
func (c *Config) SQLitePath() string {
	return strings.TrimPrefix(c.Database.URL, "sqlite:")
}
