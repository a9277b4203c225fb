package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "devnet", cfg.Solana.Network)
	assert.Equal(t, 500, cfg.Market.UpdateIntervalMs)
	assert.Equal(t, []string{"SOL", "USDC", "BTC", "ETH", "JUP"}, cfg.Market.DefaultTokens)
	assert.Equal(t, "deepseek", cfg.Assistant.Provider)
	assert.Equal(t, 24, cfg.JWT.ExpirationHours)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRejectsShortSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_SECRET", "tooshort")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRejectsUnknownNetwork(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SOLANA_NETWORK", "testnet-of-doom")

	_, err := Load()
	assert.Error(t, err)
}

func TestSQLitePath(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "sqlite:data/custom.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "data/custom.db", cfg.SQLitePath())

	t.Setenv("DATABASE_URL", "plain.db")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "plain.db", cfg.SQLitePath())
}
