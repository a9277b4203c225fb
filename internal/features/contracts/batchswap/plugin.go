package batchswap

import (
	"context"
	"fmt"

	"xforce-terminal-backend/internal/features/contracts/models"
	solanaplatform "xforce-terminal-backend/internal/platform/solana"
)

const (
	pluginName    = "batch-swap"
	pluginVersion = "0.1.0"
)

// Plugin exposes the batch swap program through the contract registry.
type Plugin struct {
	composer *Composer
	chain    *solanaplatform.Client
	cfg      models.PluginConfig
}

func NewPlugin(chain *solanaplatform.Client) *Plugin {
	return &Plugin{chain: chain}
}

func (p *Plugin) Name() string {
	return pluginName
}

func (p *Plugin) ProgramID() string {
	if p.composer == nil {
		return ""
	}
	return p.composer.ProgramID()
}

func (p *Plugin) Version() string {
	return pluginVersion
}

func (p *Plugin) Initialize(cfg models.PluginConfig) error {
	if cfg.ProgramID == "" {
		return fmt.Errorf("batch swap plugin requires a program id")
	}
	composer, err := NewComposer(cfg.ProgramID)
	if err != nil {
		return err
	}
	p.composer = composer
	p.cfg = cfg
	return nil
}

// Composer returns the initialized transaction composer.
func (p *Plugin) Composer() *Composer {
	return p.composer
}

func (p *Plugin) Metadata() models.ContractMetadata {
	return models.ContractMetadata{
		Name:        pluginName,
		Version:     pluginVersion,
		ProgramID:   p.ProgramID(),
		Description: "Composes multi-leg swaps into a single program transaction",
		Instructions: []string{
			"batch_swap",
			"execute_swap",
		},
		Events: []string{
			"BatchSwapExecuted",
			"SwapExecuted",
		},
	}
}

// HealthCheck verifies the RPC node behind the plugin answers.
func (p *Plugin) HealthCheck(ctx context.Context) error {
	if !p.cfg.Enabled {
		return fmt.Errorf("plugin disabled")
	}
	_, err := p.chain.Health(ctx)
	return err
}
